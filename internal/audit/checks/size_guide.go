package checks

import (
	"context"
	"fmt"

	"github.com/mikey/catalog-auditor/internal/audit"
	"github.com/mikey/catalog-auditor/internal/core"
)

const categoryMissingSizeGuide = "missing_size_guide"

// SizeGuide verifies published variable products carry a size guide. The custom
// field may be absent, a string or a list; blank strings and lists of blanks count
// as missing.
type SizeGuide struct{}

// NewSizeGuide creates the size guide check
func NewSizeGuide() *SizeGuide {
	return &SizeGuide{}
}

func (c *SizeGuide) Name() string {
	return "size_guide"
}

func (c *SizeGuide) CheckProduct(ctx context.Context, rc *audit.RunContext, p *core.Product) error {
	if !p.IsVariable() || p.Status != "publish" {
		return nil
	}
	if p.Meta(rc.Checks.SizeGuideMetaKey).IsEffectivelyEmpty() {
		rc.Violation(categoryMissingSizeGuide, fmt.Sprintf("%s has no size guide", describeProduct(p)), true)
	}
	return nil
}
