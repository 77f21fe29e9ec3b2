package checks

import (
	"context"
	"fmt"

	"github.com/mikey/catalog-auditor/internal/alert"
	"github.com/mikey/catalog-auditor/internal/audit"
	"github.com/mikey/catalog-auditor/internal/discount"
	"go.uber.org/zap"
)

const categoryDiscount = "discount"

// Discounts marks down designs that have not sold for a long time
type Discounts struct {
	policy discount.Policy
}

// NewDiscounts creates the discount check
func NewDiscounts(policy discount.Policy) *Discounts {
	return &Discounts{policy: policy}
}

func (c *Discounts) Name() string {
	return "discount"
}

func (c *Discounts) CheckCatalog(ctx context.Context, rc *audit.RunContext) error {
	planner := discount.NewPlanner(c.policy, rc.Now, rc.Logger)
	applied := 0

	for _, d := range planner.Plan(rc.Snapshot) {
		what := describeItem(d.ProductName, d.Item)
		switch d.Action {
		case discount.ActionInvalid:
			rc.Violation(categoryDiscount, fmt.Sprintf("%s cannot be discounted: %s", what, d.Reason), true)
			continue
		case discount.ActionKeep:
			rc.Logger.Debug("Discount not needed",
				zap.Int("product_id", d.Item.ProductID),
				zap.Int("variation_id", d.Item.VariationID),
				zap.String("reason", d.Reason))
			continue
		}

		if !rc.Remediation.Discounts {
			rc.Violation(categoryDiscount,
				fmt.Sprintf("%s is due a %d%% discount: sale price %s", what, d.Percent, d.NewSalePrice), true)
			continue
		}

		if err := updatePrice(ctx, rc, d.Item, salePrice, d.NewSalePrice); err != nil {
			if ctx.Err() != nil {
				return err
			}
			rc.Logger.Warn("Failed to apply discount", zap.Int("product_id", d.Item.ProductID), zap.Error(err))
			rc.Violation(alert.CheckFailureCategory, fmt.Sprintf("%s failed on %s: %v", c.Name(), what, err), true)
			continue
		}
		applied++
		rc.Violation(categoryDiscount,
			fmt.Sprintf("%s discounted %d%%: sale price %s (%s)", what, d.Percent, d.NewSalePrice, d.Action), true)
	}

	rc.Logger.Info("Discounts evaluated", zap.Int("applied", applied))
	return nil
}
