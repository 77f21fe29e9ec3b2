package woocommerce

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mikey/catalog-auditor/internal/core"
	"github.com/mikey/catalog-auditor/internal/fetch"
	"go.uber.org/zap"
)

const (
	shopAPIPath = "/wp-json/wc/v3/"
	siteAPIPath = "/wp-json/wp/v2/"
)

// Client is a WooCommerce REST implementation of the catalog reader and writer
type Client struct {
	fetcher  *fetch.Fetcher
	baseURL  string
	perPage  int
	maxPages int
	logger   *zap.Logger
}

// NewClient creates a new WooCommerce client
func NewClient(fetcher *fetch.Fetcher, baseURL string, perPage, maxPages int, logger *zap.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("catalog base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid catalog base URL: %w", err)
	}
	if perPage <= 0 {
		perPage = 100
	}
	return &Client{
		fetcher:  fetcher,
		baseURL:  base,
		perPage:  perPage,
		maxPages: maxPages,
		logger:   logger,
	}, nil
}

func (c *Client) endpoint(prefix, path string, query url.Values) string {
	u := c.baseURL + prefix + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// listAll walks every page of a listing endpoint
func listAll[T any](ctx context.Context, c *Client, prefix, path string, extra url.Values) ([]T, error) {
	items, err := fetch.Paginate(ctx, func(ctx context.Context, page int) ([]T, error) {
		q := url.Values{}
		for k, v := range extra {
			q[k] = v
		}
		q.Set("page", strconv.Itoa(page))
		q.Set("per_page", strconv.Itoa(c.perPage))
		return fetch.GetJSON[[]T](ctx, c.fetcher, c.endpoint(prefix, path, q))
	}, c.maxPages)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", path, err)
	}
	c.logger.Debug("Fetched listing", zap.String("path", path), zap.Int("count", len(items)))
	return items, nil
}

// ListProducts lists every product regardless of status
func (c *Client) ListProducts(ctx context.Context) ([]core.Product, error) {
	return listAll[core.Product](ctx, c, shopAPIPath, "products", url.Values{"status": {"any"}})
}

// ListVariations lists the variations of a variable product
func (c *Client) ListVariations(ctx context.Context, productID int) ([]core.Variation, error) {
	return listAll[core.Variation](ctx, c, shopAPIPath, fmt.Sprintf("products/%d/variations", productID), nil)
}

// ListMedia lists the media library
func (c *Client) ListMedia(ctx context.Context) ([]core.Media, error) {
	return listAll[core.Media](ctx, c, siteAPIPath, "media", nil)
}

// ListOrders lists every order regardless of status
func (c *Client) ListOrders(ctx context.Context) ([]core.Order, error) {
	return listAll[core.Order](ctx, c, shopAPIPath, "orders", url.Values{"status": {"any"}})
}

// ListTags lists product tags
func (c *Client) ListTags(ctx context.Context) ([]core.Term, error) {
	return listAll[core.Term](ctx, c, shopAPIPath, "products/tags", nil)
}

// ListCategories lists product categories
func (c *Client) ListCategories(ctx context.Context) ([]core.Term, error) {
	return listAll[core.Term](ctx, c, shopAPIPath, "products/categories", nil)
}

// ListAttributes lists global product attributes. The endpoint is not paginated.
func (c *Client) ListAttributes(ctx context.Context) ([]core.Attribute, error) {
	return fetch.GetJSON[[]core.Attribute](ctx, c.fetcher, c.endpoint(shopAPIPath, "products/attributes", nil))
}

// ListAttributeTerms lists the terms of a global attribute
func (c *Client) ListAttributeTerms(ctx context.Context, attributeID int) ([]core.Term, error) {
	return listAll[core.Term](ctx, c, shopAPIPath, fmt.Sprintf("products/attributes/%d/terms", attributeID), nil)
}

// ListPlugins lists installed plugins. The endpoint is not paginated.
func (c *Client) ListPlugins(ctx context.Context) ([]core.Plugin, error) {
	return fetch.GetJSON[[]core.Plugin](ctx, c.fetcher, c.endpoint(siteAPIPath, "plugins", nil))
}

// UpdateProduct applies a partial product update
func (c *Client) UpdateProduct(ctx context.Context, productID int, patch core.ProductPatch) error {
	u := c.endpoint(shopAPIPath, fmt.Sprintf("products/%d", productID), nil)
	if err := fetch.PutJSON(ctx, c.fetcher, u, patch); err != nil {
		return fmt.Errorf("failed to update product %d: %w", productID, err)
	}
	c.logger.Info("Updated product", zap.Int("product_id", productID))
	return nil
}

// UpdateVariation applies a partial variation update
func (c *Client) UpdateVariation(ctx context.Context, productID, variationID int, patch core.VariationPatch) error {
	u := c.endpoint(shopAPIPath, fmt.Sprintf("products/%d/variations/%d", productID, variationID), nil)
	if err := fetch.PutJSON(ctx, c.fetcher, u, patch); err != nil {
		return fmt.Errorf("failed to update variation %d of product %d: %w", variationID, productID, err)
	}
	c.logger.Info("Updated variation",
		zap.Int("product_id", productID),
		zap.Int("variation_id", variationID))
	return nil
}
