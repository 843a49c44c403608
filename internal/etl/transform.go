package etl

import (
	"fmt"

	"catalog/internal/domain"
)

// ── Import Rules ───────────────────────────────────────────
// Rules decide which typed products are not eligible for import.
// They are pure predicates; a product excluded by any rule is skipped.

// Rule excludes products that fail a business threshold.
type Rule interface {
	Name() string
	Excludes(p domain.Product) bool
}

// RuleFunc adapts a plain function to the Rule interface.
type RuleFunc struct {
	Label string
	Fn    func(domain.Product) bool
}

func (r RuleFunc) Name() string                   { return r.Label }
func (r RuleFunc) Excludes(p domain.Product) bool { return r.Fn(p) }

// ── Built-in Rules ─────────────────────────────────────────

// LowStockCheapRule excludes items that are both low on stock and cheap.
type LowStockCheapRule struct {
	MinStock int
	MinCost  float64
}

func (r LowStockCheapRule) Name() string {
	return fmt.Sprintf("stock < %d and cost < %.2f", r.MinStock, r.MinCost)
}

func (r LowStockCheapRule) Excludes(p domain.Product) bool {
	return p.Stock < r.MinStock && p.Cost < r.MinCost
}

// ExcessiveCostRule excludes items that cost more than MaxCost.
type ExcessiveCostRule struct {
	MaxCost float64
}

func (r ExcessiveCostRule) Name() string {
	return fmt.Sprintf("cost > %.2f", r.MaxCost)
}

func (r ExcessiveCostRule) Excludes(p domain.Product) bool {
	return p.Cost > r.MaxCost
}

// DefaultRules are the company import rules: anything under 5.00 with fewer
// than 10 in stock, and anything over 1000.00, is not imported.
func DefaultRules() []Rule {
	return []Rule{
		LowStockCheapRule{MinStock: 10, MinCost: 5.0},
		ExcessiveCostRule{MaxCost: 1000.0},
	}
}

// ── Helpers ────────────────────────────────────────────────

// FirstExclusion returns the first rule excluding p, or nil if p is eligible.
func FirstExclusion(p domain.Product, rules []Rule) Rule {
	for _, r := range rules {
		if r.Excludes(p) {
			return r
		}
	}
	return nil
}

// ApplyRules splits products into those eligible for import and those excluded.
func ApplyRules(products []domain.Product, rules []Rule) (kept, excluded []domain.Product) {
	for _, p := range products {
		if FirstExclusion(p, rules) != nil {
			excluded = append(excluded, p)
		} else {
			kept = append(kept, p)
		}
	}
	return kept, excluded
}
