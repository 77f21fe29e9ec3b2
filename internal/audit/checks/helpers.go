// Package checks holds the business rules run by the audit engine
package checks

import (
	"context"
	"fmt"

	"github.com/mikey/catalog-auditor/internal/audit"
	"github.com/mikey/catalog-auditor/internal/core"
)

type priceField int

const (
	regularPrice priceField = iota
	salePrice
)

func (f priceField) String() string {
	if f == salePrice {
		return "sale"
	}
	return "regular"
}

// describeProduct renders a product for a violation message
func describeProduct(p *core.Product) string {
	return fmt.Sprintf("Product %d %q (SKU %s)", p.ID, p.Name, p.SKU)
}

// describeItem renders a priced item for a violation message
func describeItem(name string, item core.PricedItem) string {
	if item.IsVariation() {
		return fmt.Sprintf("Product %d %q variation %d (SKU %s)", item.ProductID, name, item.VariationID, item.SKU)
	}
	return fmt.Sprintf("Product %d %q (SKU %s)", item.ProductID, name, item.SKU)
}

// updatePrice writes one price of a variation, or of a simple product standing in
// for its single variation
func updatePrice(ctx context.Context, rc *audit.RunContext, item core.PricedItem, field priceField, value string) error {
	if item.IsVariation() {
		var patch core.VariationPatch
		if field == salePrice {
			patch.SalePrice = &value
		} else {
			patch.RegularPrice = &value
		}
		return rc.Writer.UpdateVariation(ctx, item.ProductID, item.VariationID, patch)
	}

	var patch core.ProductPatch
	if field == salePrice {
		patch.SalePrice = &value
	} else {
		patch.RegularPrice = &value
	}
	return rc.Writer.UpdateProduct(ctx, item.ProductID, patch)
}
