package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/mikey/catalog-auditor/internal/core"
	"go.uber.org/zap"
)

// LoadSnapshot fetches the whole catalog and order history. Any failure is fatal
// to the run: checks must never see a partial catalog.
func LoadSnapshot(ctx context.Context, reader core.CatalogReader, now time.Time, logger *zap.Logger) (*core.Snapshot, error) {
	snap := &core.Snapshot{
		Variations:     make(map[int][]core.Variation),
		AttributeTerms: make(map[int][]core.Term),
		FetchedAt:      now,
	}

	var err error
	if snap.Products, err = reader.ListProducts(ctx); err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	for _, p := range snap.Products {
		if !p.IsVariable() {
			continue
		}
		variations, err := reader.ListVariations(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load variations of product %d: %w", p.ID, err)
		}
		snap.Variations[p.ID] = variations
	}

	if snap.Media, err = reader.ListMedia(ctx); err != nil {
		return nil, fmt.Errorf("failed to load media: %w", err)
	}
	if snap.Orders, err = reader.ListOrders(ctx); err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	if snap.Tags, err = reader.ListTags(ctx); err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}
	if snap.Categories, err = reader.ListCategories(ctx); err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	if snap.Attributes, err = reader.ListAttributes(ctx); err != nil {
		return nil, fmt.Errorf("failed to load attributes: %w", err)
	}
	for _, a := range snap.Attributes {
		terms, err := reader.ListAttributeTerms(ctx, a.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load terms of attribute %d: %w", a.ID, err)
		}
		snap.AttributeTerms[a.ID] = terms
	}
	if snap.Plugins, err = reader.ListPlugins(ctx); err != nil {
		return nil, fmt.Errorf("failed to load plugins: %w", err)
	}

	logger.Info("Catalog loaded",
		zap.Int("products", len(snap.Products)),
		zap.Int("variable_products", len(snap.Variations)),
		zap.Int("media", len(snap.Media)),
		zap.Int("orders", len(snap.Orders)),
		zap.Int("tags", len(snap.Tags)),
		zap.Int("categories", len(snap.Categories)),
		zap.Int("attributes", len(snap.Attributes)),
		zap.Int("plugins", len(snap.Plugins)))
	return snap, nil
}
