// Package discount schedules automatic markdowns for designs that stopped selling
package discount

import (
	"strings"
	"time"
)

// Policy maps months without a sale onto a discount percentage
type Policy struct {
	GraceMonths int
	MinPercent  int
	MaxPercent  int
}

// DefaultPolicy returns the stock policy: a year of grace, then one percent per
// month, starting at 5 and capped at 84
func DefaultPolicy() Policy {
	return Policy{GraceMonths: 12, MinPercent: 5, MaxPercent: 84}
}

// Percentage returns the discount for a group that last sold months ago, and false
// when the group should not be discounted
func (p Policy) Percentage(months int) (int, bool) {
	if months <= p.GraceMonths {
		return 0, false
	}
	pct := months - p.GraceMonths
	if pct < p.MinPercent {
		return 0, false
	}
	if pct > p.MaxPercent {
		pct = p.MaxPercent
	}
	return pct, true
}

// BaseSKU returns the part of a SKU before the first hyphen. Colour and size
// variants of one design share it.
func BaseSKU(sku string) string {
	base, _, _ := strings.Cut(sku, "-")
	return base
}

// MonthsBetween counts the whole calendar months from from to to. A month is only
// complete once to reaches the same day and time of day. The result is never negative.
func MonthsBetween(from, to time.Time) int {
	from = from.In(to.Location())
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() || (to.Day() == from.Day() && clock(to) < clock(from)) {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

func clock(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second + time.Duration(t.Nanosecond())
}
