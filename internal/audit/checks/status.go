package checks

import (
	"context"
	"fmt"

	"github.com/mikey/catalog-auditor/internal/audit"
	"github.com/mikey/catalog-auditor/internal/core"
	"go.uber.org/zap"
)

const categoryStatus = "status"

// Status takes published products without images off the shop by moving them
// back to draft. The snapshot keeps the status it was loaded with.
type Status struct{}

// NewStatus creates the status check
func NewStatus() *Status {
	return &Status{}
}

func (c *Status) Name() string {
	return "status"
}

func (c *Status) CheckProduct(ctx context.Context, rc *audit.RunContext, p *core.Product) error {
	if p.Status != "publish" || len(p.Images) > 0 {
		return nil
	}

	if !rc.Remediation.StatusTransitions {
		rc.Violation(categoryStatus, fmt.Sprintf("%s is published without images", describeProduct(p)), true)
		return nil
	}

	draft := "draft"
	if err := rc.Writer.UpdateProduct(ctx, p.ID, core.ProductPatch{Status: &draft}); err != nil {
		return fmt.Errorf("failed to unpublish: %w", err)
	}
	rc.Logger.Info("Moved product to draft", zap.Int("product_id", p.ID))
	rc.Violation(categoryStatus, fmt.Sprintf("%s had no images and was moved to draft", describeProduct(p)), true)
	return nil
}
