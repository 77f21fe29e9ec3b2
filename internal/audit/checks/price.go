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

const (
	categoryBadPennies   = "bad_pennies"
	categoryMissingPrice = "missing_price"
	categoryInvalidPrice = "invalid_price"
)

// PricePennies verifies every regular and sale price follows the charm pricing
// convention and, when price rounding is enabled, corrects the ones that do not.
// A correction larger than the allowed adjustment aborts the run.
type PricePennies struct{}

// NewPricePennies creates the price pennies check
func NewPricePennies() *PricePennies {
	return &PricePennies{}
}

func (c *PricePennies) Name() string {
	return "price_pennies"
}

func (c *PricePennies) CheckProduct(ctx context.Context, rc *audit.RunContext, p *core.Product) error {
	for _, item := range rc.Snapshot.PricedItems(p) {
		if err := c.checkPrice(ctx, rc, p, item, regularPrice, item.RegularPrice); err != nil {
			return err
		}
		if strings.TrimSpace(item.SalePrice) != "" {
			if err := c.checkPrice(ctx, rc, p, item, salePrice, item.SalePrice); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *PricePennies) checkPrice(ctx context.Context, rc *audit.RunContext, p *core.Product, item core.PricedItem, field priceField, price string) error {
	what := describeItem(p.Name, item)

	if strings.TrimSpace(price) == "" {
		if p.Status == "publish" {
			rc.Violation(categoryMissingPrice, fmt.Sprintf("%s has no %s price", what, field), true)
		}
		return nil
	}
	current, ok := pricing.ParsePositive(price)
	if !ok {
		rc.Violation(categoryInvalidPrice, fmt.Sprintf("%s has invalid %s price %q", what, field, price), true)
		return nil
	}
	if pricing.PriceHasCorrectPennies(price) {
		return nil
	}

	adjusted := pricing.AdjustPrice(current)
	target, ok := pricing.ParsePositive(adjusted)
	if !ok {
		rc.Violation(categoryInvalidPrice, fmt.Sprintf("%s %s price %s has no positive rounded value (got %s)", what, field, price, adjusted), true)
		return nil
	}
	if !rc.Remediation.PriceRounding {
		rc.Violation(categoryBadPennies, fmt.Sprintf("%s %s price %s should be %s", what, field, price, adjusted), true)
		return nil
	}

	if pricing.IsSignificantPriceDifference(current, target) {
		return &core.FatalAuditError{
			Check:  c.Name(),
			Reason: fmt.Sprintf("%s %s price %s would be corrected to %s", what, field, price, adjusted),
		}
	}

	if err := updatePrice(ctx, rc, item, field, adjusted); err != nil {
		return fmt.Errorf("failed to correct %s price: %w", field, err)
	}
	rc.Logger.Info("Corrected price",
		zap.Int("product_id", item.ProductID),
		zap.Int("variation_id", item.VariationID),
		zap.String("field", field.String()),
		zap.String("from", price),
		zap.String("to", adjusted))
	rc.Violation(categoryBadPennies, fmt.Sprintf("%s %s price corrected from %s to %s", what, field, price, adjusted), true)
	return nil
}
