package etl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"catalog/internal/domain"
	"catalog/internal/etl"
)

// ─────────────────────────────────────────────────────────────
// Import rules
// ─────────────────────────────────────────────────────────────

func TestDefaultRules(t *testing.T) {
	rules := etl.DefaultRules()

	tests := []struct {
		name     string
		stock    int
		cost     float64
		excluded bool
	}{
		{"low stock and cheap", 5, 4.0, true},
		{"stock 3 cost 2.50", 3, 2.50, true},
		{"cheap but stocked", 20, 1.0, false},
		{"low stock but pricey", 5, 5.0, false},
		{"too expensive", 20, 1500.0, true},
		{"exactly the cost ceiling", 20, 1000.0, false},
		{"ordinary", 20, 50.0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := domain.Product{Code: "P", Stock: tt.stock, Cost: tt.cost}
			assert.Equal(t, tt.excluded, etl.FirstExclusion(p, rules) != nil)
		})
	}
}

func TestApplyRules_KeepsOrder(t *testing.T) {
	products := []domain.Product{
		{Code: "A", Stock: 20, Cost: 10},
		{Code: "B", Stock: 1, Cost: 1},
		{Code: "C", Stock: 30, Cost: 20},
		{Code: "D", Stock: 30, Cost: 2000},
	}

	kept, excluded := etl.ApplyRules(products, etl.DefaultRules())

	assert.Equal(t, []domain.Product{products[0], products[2]}, kept)
	assert.Equal(t, []domain.Product{products[1], products[3]}, excluded)
}

func TestRuleFunc(t *testing.T) {
	noCode := etl.RuleFunc{Label: "missing code", Fn: func(p domain.Product) bool { return p.Code == "" }}

	r := etl.FirstExclusion(domain.Product{Stock: 100, Cost: 10}, []etl.Rule{noCode})

	if assert.NotNil(t, r) {
		assert.Equal(t, "missing code", r.Name())
	}
	assert.Equal(t, "cost > 1000.00", etl.ExcessiveCostRule{MaxCost: 1000}.Name())
}
