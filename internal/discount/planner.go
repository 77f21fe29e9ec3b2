package discount

import (
	"fmt"
	"sort"
	"time"

	"github.com/mikey/catalog-auditor/internal/core"
	"github.com/mikey/catalog-auditor/internal/pricing"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Action is what the scheduler decided for one priced item
type Action int

const (
	// ActionApply sets a sale price on an item that has none
	ActionApply Action = iota
	// ActionLower replaces a sale price that is higher than the new one
	ActionLower
	// ActionKeep leaves an item already discounted at least as much
	ActionKeep
	// ActionInvalid marks an item whose prices cannot be computed
	ActionInvalid
)

func (a Action) String() string {
	switch a {
	case ActionApply:
		return "apply"
	case ActionLower:
		return "lower"
	case ActionKeep:
		return "keep"
	default:
		return "invalid"
	}
}

// Group is the set of products sharing a base SKU
type Group struct {
	BaseSKU string
	Members []*core.Product
	// Months is the smallest months-since-last-sale over the members
	Months  int
	Percent int
}

// Decision is the outcome for one priced item of a discounted group
type Decision struct {
	BaseSKU      string
	ProductName  string
	Item         core.PricedItem
	Percent      int
	NewSalePrice string
	Action       Action
	Reason       string
}

// Planner computes discount decisions for a catalog snapshot
type Planner struct {
	policy Policy
	now    time.Time
	logger *zap.Logger
}

// NewPlanner creates a planner evaluating ages relative to now
func NewPlanner(policy Policy, now time.Time, logger *zap.Logger) *Planner {
	return &Planner{policy: policy, now: now, logger: logger}
}

// LastSales returns the most recent order date per product id and variation id
func LastSales(orders []core.Order) map[int]time.Time {
	last := make(map[int]time.Time)
	record := func(id int, at time.Time) {
		if id == 0 {
			return
		}
		if prev, ok := last[id]; !ok || at.After(prev) {
			last[id] = at
		}
	}
	for _, o := range orders {
		for _, li := range o.LineItems {
			record(li.ProductID, o.DateCreated.Time)
			record(li.VariationID, o.DateCreated.Time)
		}
	}
	return last
}

// monthsSinceSale is measured from the latest sale of the product or any of its
// variations, or from its creation when it never sold
func (p *Planner) monthsSinceSale(product *core.Product, snap *core.Snapshot, lastSales map[int]time.Time) int {
	var latest time.Time
	consider := func(id int) {
		if at, ok := lastSales[id]; ok && at.After(latest) {
			latest = at
		}
	}
	consider(product.ID)
	for _, vid := range product.Variations {
		consider(vid)
	}
	for _, v := range snap.VariationsOf(product.ID) {
		consider(v.ID)
	}

	if latest.IsZero() {
		if product.DateCreated.IsZero() {
			// unknown age protects the group
			return 0
		}
		latest = product.DateCreated.Time
	}
	return MonthsBetween(latest, p.now)
}

// Groups partitions the catalog by base SKU. Products without a SKU are left out.
func (p *Planner) Groups(snap *core.Snapshot) []Group {
	lastSales := LastSales(snap.Orders)

	index := make(map[string]*Group)
	for i := range snap.Products {
		product := &snap.Products[i]
		if product.SKU == "" {
			p.logger.Debug("Product without SKU excluded from discount grouping", zap.Int("product_id", product.ID))
			continue
		}
		base := BaseSKU(product.SKU)
		months := p.monthsSinceSale(product, snap, lastSales)

		g, ok := index[base]
		if !ok {
			g = &Group{BaseSKU: base, Months: months}
			index[base] = g
		}
		g.Members = append(g.Members, product)
		if months < g.Months {
			g.Months = months
		}
	}

	groups := make([]Group, 0, len(index))
	for _, g := range index {
		g.Percent, _ = p.policy.Percentage(g.Months)
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].BaseSKU < groups[j].BaseSKU })
	return groups
}

// Plan returns a decision for every priced item of every non-draft member of a
// discounted group
func (p *Planner) Plan(snap *core.Snapshot) []Decision {
	var decisions []Decision
	for _, g := range p.Groups(snap) {
		if g.Percent == 0 {
			continue
		}
		p.logger.Debug("Discounting group",
			zap.String("base_sku", g.BaseSKU),
			zap.Int("months", g.Months),
			zap.Int("percent", g.Percent))

		for _, member := range g.Members {
			if member.Status == "draft" {
				continue
			}
			for _, item := range snap.PricedItems(member) {
				d := Decide(item, g.Percent)
				d.BaseSKU = g.BaseSKU
				d.ProductName = member.Name
				decisions = append(decisions, d)
			}
		}
	}
	return decisions
}

// Decide computes the discounted sale price of one item. The price is only ever
// lowered: an existing sale price at or below the new one is kept.
func Decide(item core.PricedItem, percent int) Decision {
	d := Decision{Item: item, Percent: percent}

	regular, ok := pricing.ParsePositive(item.RegularPrice)
	if !ok {
		d.Action = ActionInvalid
		d.Reason = fmt.Sprintf("invalid regular price %q", item.RegularPrice)
		return d
	}

	factor := decimal.NewFromInt(100 - int64(percent)).Div(decimal.NewFromInt(100))
	d.NewSalePrice = pricing.AdjustPrice(regular.Mul(factor))
	newSale, ok := pricing.ParsePositive(d.NewSalePrice)
	if !ok {
		d.Action = ActionInvalid
		d.Reason = fmt.Sprintf("computed sale price %s is not positive", d.NewSalePrice)
		return d
	}

	current, hasSale := pricing.ParsePositive(item.SalePrice)
	switch {
	case !hasSale:
		d.Action = ActionApply
	case current.GreaterThan(newSale):
		d.Action = ActionLower
	default:
		d.Action = ActionKeep
		d.Reason = fmt.Sprintf("already on sale at %s", item.SalePrice)
	}
	return d
}
