// Package pricing implements the catalog's charm pricing convention: prices
// under the threshold end in .99, prices at or above it are whole numbers.
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// Threshold separates .99 pricing from whole-number pricing
	Threshold = decimal.NewFromInt(70)
	// MaxAutomaticAdjustment is the largest correction applied without a human
	MaxAutomaticAdjustment = decimal.NewFromInt(1)

	charmCents = decimal.RequireFromString("0.99")
	oneCent    = decimal.RequireFromString("0.01")
	one        = decimal.NewFromInt(1)
)

// AdjustPrice maps a price onto the charm pricing convention.
//
// Below the threshold a price already ending in .99 is kept, a round price drops
// one cent, and anything else drops to the .99 under floor(price). At or above
// the threshold the cents are cut.
func AdjustPrice(price decimal.Decimal) string {
	if price.LessThan(Threshold) {
		cents := price.Sub(price.Floor())
		switch {
		case cents.Equal(charmCents):
			return price.StringFixed(2)
		case cents.IsZero():
			return price.Sub(oneCent).StringFixed(2)
		default:
			return price.Sub(one).Floor().Add(charmCents).StringFixed(2)
		}
	}
	return price.Floor().StringFixed(0)
}

// AdjustPriceString parses price and adjusts it
func AdjustPriceString(price string) (string, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(price))
	if err != nil {
		return "", err
	}
	return AdjustPrice(d), nil
}

// IsSignificantPriceDifference reports whether two prices differ by more than
// MaxAutomaticAdjustment. Exactly 1.00 is not significant.
func IsSignificantPriceDifference(oldPrice, newPrice decimal.Decimal) bool {
	return oldPrice.Sub(newPrice).Abs().GreaterThan(MaxAutomaticAdjustment)
}

// PriceHasCorrectPennies reports whether a price string already follows the
// convention. Unparseable prices are never correct.
func PriceHasCorrectPennies(price string) bool {
	price = strings.TrimSpace(price)
	d, err := decimal.NewFromString(price)
	if err != nil {
		return false
	}
	if d.LessThan(Threshold) {
		return strings.HasSuffix(price, ".99")
	}
	return d.Equal(d.Floor())
}

// ParsePositive parses a price and reports whether it is a valid positive amount
func ParsePositive(price string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(price))
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}
