package core

import (
	"context"
	"time"
)

// CatalogReader lists the entities of the remote catalog
type CatalogReader interface {
	ListProducts(ctx context.Context) ([]Product, error)
	ListVariations(ctx context.Context, productID int) ([]Variation, error)
	ListMedia(ctx context.Context) ([]Media, error)
	ListOrders(ctx context.Context) ([]Order, error)
	ListTags(ctx context.Context) ([]Term, error)
	ListCategories(ctx context.Context) ([]Term, error)
	ListAttributes(ctx context.Context) ([]Attribute, error)
	ListAttributeTerms(ctx context.Context, attributeID int) ([]Term, error)
	ListPlugins(ctx context.Context) ([]Plugin, error)
}

// CatalogWriter issues partial updates to the remote catalog
type CatalogWriter interface {
	UpdateProduct(ctx context.Context, productID int, patch ProductPatch) error
	UpdateVariation(ctx context.Context, productID, variationID int, patch VariationPatch) error
}

// CacheRepository defines the interface for cached lookup results
type CacheRepository interface {
	// Get retrieves an entry; ErrNotFound or ErrExpired on a miss
	Get(ctx context.Context, key string) (*CacheEntry, error)

	// Set stores an entry
	Set(ctx context.Context, entry *CacheEntry) error

	// Delete removes an entry
	Delete(ctx context.Context, key string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error

	// Flush persists pending changes
	Flush(ctx context.Context) error
}

// ThrottleStore persists the last time each alert category was emailed
type ThrottleStore interface {
	Load(ctx context.Context) (map[string]time.Time, error)
	Save(ctx context.Context, state map[string]time.Time) error
}

// Notifier delivers a digest message. A notifier that only records the message
// returns ErrNotDelivered.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}
