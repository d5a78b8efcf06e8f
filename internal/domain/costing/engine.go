// Package costing implements moving weighted-average costing and COGS.
//
// Every purchase intake blends its unit cost into the product's average in
// proportion to the quantity on hand. Measured goods use the same per-item
// average; content never enters the cost formula.
package costing

import (
	"context"
	"fmt"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/id"
	"stockcore/internal/core/tenant"
	"stockcore/internal/core/tx"
	"stockcore/internal/core/types"
	"stockcore/internal/domain/product"
)

// ApplyPurchaseCost returns the ledger after receiving qty items at unitCost.
//
//	newStock = oldStock + qty
//	newAvg   = newStock > 0 ? (oldAvg*oldStock + unitCost*qty) / newStock : 0
//
// StockContent is carried over unchanged; content is the mutator's concern.
func ApplyPurchaseCost(before product.Ledger, qty int64, unitCost types.Money) (product.Ledger, error) {
	if qty < 0 {
		return before, apperror.NewValidation("purchase qty must not be negative").
			WithDetail("qty", qty)
	}
	if unitCost.IsNegative() {
		return before, apperror.NewValidation("unit cost must not be negative").
			WithDetail("unit_cost", unitCost.String())
	}

	after := before
	after.Stock = before.Stock + qty
	if after.Stock <= 0 {
		after.AvgCost = types.Zero()
		return after, nil
	}

	held := before.AvgCost.Mul(types.Units(before.Stock))
	added := unitCost.Mul(types.Units(qty))
	after.AvgCost = held.Add(added).Div(types.Units(after.Stock))
	return after, nil
}

// Line is a sale line as seen by COGS: ad-hoc lines have no product.
type Line struct {
	ProductID *id.ID
	Qty       int64
}

// CogsFromSnapshot sums qty*avgCost over product-linked lines using an
// already-read snapshot. Lines whose product is absent contribute zero.
func CogsFromSnapshot(products map[id.ID]*product.Product, lines []Line) types.Money {
	total := types.Zero()
	for _, l := range lines {
		if l.ProductID == nil {
			continue
		}
		p, ok := products[*l.ProductID]
		if !ok {
			continue
		}
		total = total.Add(types.Units(l.Qty).Mul(p.AvgCost))
	}
	return total
}

// Profit returns grossProfit = total - cogs and margin = grossProfit/total*100
// rounded to 2 decimals (zero when total <= 0).
func Profit(total, cogs types.Money) (grossProfit, margin types.Money) {
	grossProfit = total.Sub(cogs)
	return grossProfit, types.Percent(grossProfit, total)
}

// Engine computes COGS against live ledger state.
type Engine struct {
	products  product.Repository
	txManager tx.ReadOnlyManager
}

// NewEngine creates a costing engine.
func NewEngine(products product.Repository, txManager tx.ReadOnlyManager) *Engine {
	return &Engine{products: products, txManager: txManager}
}

// ComputeCogs reads every referenced product in one read-only transaction so
// all lines are costed from the same snapshot. It does not mutate state.
func (e *Engine) ComputeCogs(ctx context.Context, lines []Line) (types.Money, error) {
	if _, err := tenant.RequireOrg(ctx); err != nil {
		return types.Zero(), err
	}
	ids := make([]id.ID, 0, len(lines))
	for _, l := range lines {
		if l.Qty < 0 {
			return types.Zero(), apperror.NewValidation("qty must not be negative")
		}
		if l.ProductID != nil {
			ids = append(ids, *l.ProductID)
		}
	}
	if len(ids) == 0 {
		return types.Zero(), nil
	}

	var cogs types.Money
	err := e.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		snapshot, err := e.products.GetMany(ctx, id.SortedUnique(ids))
		if err != nil {
			return fmt.Errorf("read products: %w", err)
		}
		cogs = CogsFromSnapshot(snapshot, lines)
		return nil
	})
	if err != nil {
		return types.Zero(), err
	}
	return cogs, nil
}
