package discount

import (
	"testing"
	"time"

	"github.com/mikey/catalog-auditor/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPolicyPercentage(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		months int
		want   int
		ok     bool
	}{
		{0, 0, false},
		{11, 0, false},
		{12, 0, false},
		{16, 0, false},
		{17, 5, true},
		{30, 18, true},
		{96, 84, true},
		{200, 84, true},
	}
	for _, tt := range tests {
		got, ok := p.Percentage(tt.months)
		assert.Equal(t, tt.ok, ok, "months=%d", tt.months)
		assert.Equal(t, tt.want, got, "months=%d", tt.months)
	}
}

func TestBaseSKU(t *testing.T) {
	assert.Equal(t, "TS100", BaseSKU("TS100-RED-L"))
	assert.Equal(t, "TS100", BaseSKU("TS100"))
	assert.Equal(t, "", BaseSKU("-RED"))
	assert.Equal(t, "PROMO_TS100", BaseSKU("PROMO_TS100-BLUE"))
}

func TestMonthsBetween(t *testing.T) {
	at := func(y int, m time.Month, d, h int) time.Time { return time.Date(y, m, d, h, 0, 0, 0, time.UTC) }

	assert.Equal(t, 0, MonthsBetween(at(2024, 1, 15, 10), at(2024, 2, 14, 23)))
	assert.Equal(t, 1, MonthsBetween(at(2024, 1, 15, 10), at(2024, 2, 15, 10)))
	assert.Equal(t, 0, MonthsBetween(at(2024, 1, 15, 10), at(2024, 2, 15, 9)))
	assert.Equal(t, 12, MonthsBetween(at(2023, 1, 31, 0), at(2024, 2, 29, 12)))
	assert.Equal(t, 24, MonthsBetween(at(2022, 6, 1, 0), at(2024, 6, 1, 0)))
	assert.Equal(t, 0, MonthsBetween(at(2025, 1, 1, 0), at(2024, 1, 1, 0)))
}

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func apiTime(t time.Time) core.APITime {
	return core.APITime{Time: t}
}

func order(id int, at time.Time, items ...core.LineItem) core.Order {
	return core.Order{ID: id, Status: "completed", DateCreated: apiTime(at), LineItems: items}
}

func TestGroupsUseMinimumAcrossMembers(t *testing.T) {
	snap := &core.Snapshot{
		Products: []core.Product{
			{ID: 1, SKU: "TS1-RED", Status: "publish", Type: "simple", DateCreated: apiTime(now.AddDate(-5, 0, 0))},
			{ID: 2, SKU: "TS1-BLUE", Status: "publish", Type: "simple", DateCreated: apiTime(now.AddDate(-5, 0, 0))},
			{ID: 3, SKU: "MUG", Status: "publish", Type: "simple", DateCreated: apiTime(now.AddDate(0, -11, 0))},
			{ID: 4, SKU: "", Status: "publish", Type: "simple"},
		},
		Orders: []core.Order{
			order(10, now.AddDate(0, -2, 0), core.LineItem{ProductID: 2}),
			order(11, now.AddDate(-3, 0, 0), core.LineItem{ProductID: 1}),
		},
	}

	groups := NewPlanner(DefaultPolicy(), now, zap.NewNop()).Groups(snap)
	require.Len(t, groups, 2)

	assert.Equal(t, "MUG", groups[0].BaseSKU)
	assert.Equal(t, 11, groups[0].Months)
	assert.Equal(t, 0, groups[0].Percent)

	assert.Equal(t, "TS1", groups[1].BaseSKU)
	assert.Len(t, groups[1].Members, 2)
	assert.Equal(t, 2, groups[1].Months, "a recent sale of one colour spares the design")
	assert.Equal(t, 0, groups[1].Percent)
}

func TestPlanDecisions(t *testing.T) {
	snap := &core.Snapshot{
		Products: []core.Product{
			{ID: 1, Name: "Tee red", SKU: "TS1-RED", Status: "publish", Type: "simple",
				RegularPrice: "30.00", DateCreated: apiTime(now.AddDate(-3, 0, 0))},
			{ID: 2, Name: "Tee blue", SKU: "TS1-BLUE", Status: "publish", Type: "variable",
				Variations: []int{21, 22, 23}, DateCreated: apiTime(now.AddDate(-3, 0, 0))},
			{ID: 3, Name: "Tee green", SKU: "TS1-GREEN", Status: "draft", Type: "simple",
				RegularPrice: "30.00", DateCreated: apiTime(now.AddDate(-3, 0, 0))},
		},
		Variations: map[int][]core.Variation{
			2: {
				{ID: 21, SKU: "TS1-BLUE-S", RegularPrice: "30.00", SalePrice: "29.99"},
				{ID: 22, SKU: "TS1-BLUE-M", RegularPrice: "30.00", SalePrice: "25.00"},
				{ID: 23, SKU: "TS1-BLUE-L", RegularPrice: ""},
			},
		},
		Orders: []core.Order{
			order(10, now.AddDate(0, -17, 0), core.LineItem{ProductID: 2, VariationID: 22}),
		},
	}

	decisions := NewPlanner(DefaultPolicy(), now, zap.NewNop()).Plan(snap)
	require.Len(t, decisions, 4)

	assert.Equal(t, 0, decisions[0].Item.VariationID)
	assert.Equal(t, ActionApply, decisions[0].Action)
	assert.Equal(t, "27.99", decisions[0].NewSalePrice)
	assert.Equal(t, 5, decisions[0].Percent)
	assert.Equal(t, "TS1", decisions[0].BaseSKU)

	assert.Equal(t, 21, decisions[1].Item.VariationID)
	assert.Equal(t, ActionLower, decisions[1].Action)

	assert.Equal(t, 22, decisions[2].Item.VariationID)
	assert.Equal(t, ActionKeep, decisions[2].Action)

	assert.Equal(t, 23, decisions[3].Item.VariationID)
	assert.Equal(t, ActionInvalid, decisions[3].Action)
}

func TestPlanClampsAtMaximum(t *testing.T) {
	snap := &core.Snapshot{
		Products: []core.Product{
			{ID: 1, SKU: "OLD", Status: "publish", Type: "simple", RegularPrice: "100",
				DateCreated: apiTime(now.AddDate(-20, 0, 0))},
		},
	}

	decisions := NewPlanner(DefaultPolicy(), now, zap.NewNop()).Plan(snap)
	require.Len(t, decisions, 1)
	assert.Equal(t, 84, decisions[0].Percent)
	assert.Equal(t, "15.99", decisions[0].NewSalePrice)
}

func TestDecideRejectsNonPositiveResult(t *testing.T) {
	d := Decide(core.PricedItem{ProductID: 1, RegularPrice: "1.00"}, 84)
	assert.Equal(t, ActionInvalid, d.Action)
	assert.NotEmpty(t, d.Reason)
}
