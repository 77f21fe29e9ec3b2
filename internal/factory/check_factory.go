package factory

import (
	"github.com/mikey/catalog-auditor/internal/audit"
	"github.com/mikey/catalog-auditor/internal/audit/checks"
	"github.com/mikey/catalog-auditor/internal/config"
	"github.com/mikey/catalog-auditor/internal/discount"
	"github.com/mikey/catalog-auditor/internal/media"
)

// CheckFactory assembles the ordered list of checks
type CheckFactory struct {
	cfg    *config.Config
	prober *media.Prober
}

// NewCheckFactory creates a new check factory
func NewCheckFactory(cfg *config.Config, prober *media.Prober) *CheckFactory {
	return &CheckFactory{
		cfg:    cfg,
		prober: prober,
	}
}

// CreateRunner returns a runner with every shipped check. Status runs after the
// product checks that report on published products; discounts run on the
// statuses it leaves behind.
func (f *CheckFactory) CreateRunner() *audit.Runner {
	dc := f.cfg.GetDiscount()
	policy := discount.Policy{
		GraceMonths: dc.GraceMonths,
		MinPercent:  dc.MinPercent,
		MaxPercent:  dc.MaxPercent,
	}

	productChecks := []audit.ProductCheck{
		checks.NewPricePennies(),
		checks.NewImages(f.prober),
		checks.NewSizeGuide(),
		checks.NewSaleTag(),
		checks.NewStatus(),
	}
	catalogChecks := []audit.CatalogCheck{
		checks.NewDiscounts(policy),
		checks.NewTaxonomy(),
	}
	return audit.NewRunner(productChecks, catalogChecks)
}
