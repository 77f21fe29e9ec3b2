package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/mikey/catalog-auditor/internal/audit"
	"github.com/mikey/catalog-auditor/internal/core"
	"github.com/mikey/catalog-auditor/internal/pricing"
	"go.uber.org/zap"
)

const categorySaleTag = "sale_tag"

// SaleTag keeps the sale tag in line with prices: a product is tagged exactly when
// one of its priced items has a sale price below the regular price
type SaleTag struct{}

// NewSaleTag creates the sale tag check
func NewSaleTag() *SaleTag {
	return &SaleTag{}
}

func (c *SaleTag) Name() string {
	return "sale_tag"
}

func onSale(snap *core.Snapshot, p *core.Product) bool {
	for _, item := range snap.PricedItems(p) {
		sale, ok := pricing.ParsePositive(item.SalePrice)
		if !ok {
			continue
		}
		regular, ok := pricing.ParsePositive(item.RegularPrice)
		if ok && sale.LessThan(regular) {
			return true
		}
	}
	return false
}

func termRef(t core.TermRef) core.TermRef {
	if t.ID != 0 {
		return core.TermRef{ID: t.ID}
	}
	return core.TermRef{Name: t.Name}
}

// saleTagRef references the configured tag by id when it exists
func saleTagRef(rc *audit.RunContext) core.TermRef {
	for _, t := range rc.Snapshot.Tags {
		if strings.EqualFold(t.Slug, rc.Checks.SaleTag) || strings.EqualFold(t.Name, rc.Checks.SaleTag) {
			return core.TermRef{ID: t.ID}
		}
	}
	return core.TermRef{Name: rc.Checks.SaleTag}
}

func (c *SaleTag) CheckProduct(ctx context.Context, rc *audit.RunContext, p *core.Product) error {
	tag := rc.Checks.SaleTag
	if tag == "" {
		return nil
	}
	sale := onSale(rc.Snapshot, p)
	tagged := p.HasTag(tag)
	if sale == tagged {
		return nil
	}

	tags := make([]core.TermRef, 0, len(p.Tags)+1)
	for _, t := range p.Tags {
		if !sale && (strings.EqualFold(t.Slug, tag) || strings.EqualFold(t.Name, tag)) {
			continue
		}
		tags = append(tags, termRef(t))
	}
	action := "removed"
	problem := fmt.Sprintf("%s is tagged %q but not on sale", describeProduct(p), tag)
	if sale {
		tags = append(tags, saleTagRef(rc))
		action = "added"
		problem = fmt.Sprintf("%s is on sale but not tagged %q", describeProduct(p), tag)
	}

	if !rc.Remediation.SaleTags {
		rc.Violation(categorySaleTag, problem, true)
		return nil
	}

	if err := rc.Writer.UpdateProduct(ctx, p.ID, core.ProductPatch{Tags: &tags}); err != nil {
		return fmt.Errorf("failed to update tags: %w", err)
	}
	rc.Logger.Info("Updated sale tag", zap.Int("product_id", p.ID), zap.String("action", action))
	rc.Violation(categorySaleTag, fmt.Sprintf("%s: tag %q %s", describeProduct(p), tag, action), true)
	return nil
}
