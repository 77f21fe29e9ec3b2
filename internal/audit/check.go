package audit

import (
	"context"

	"github.com/mikey/catalog-auditor/internal/core"
)

// ProductCheck is evaluated once per product
type ProductCheck interface {
	Name() string
	CheckProduct(ctx context.Context, rc *RunContext, p *core.Product) error
}

// CatalogCheck is evaluated once against the whole snapshot
type CatalogCheck interface {
	Name() string
	CheckCatalog(ctx context.Context, rc *RunContext) error
}

// Finisher is implemented by checks owning state to persist once they have
// seen every entity, such as a lookup cache
type Finisher interface {
	Finish(ctx context.Context) error
}
