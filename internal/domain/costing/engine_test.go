package costing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/entity"
	"stockcore/internal/core/id"
	"stockcore/internal/core/tenant"
	"stockcore/internal/core/types"
	"stockcore/internal/domain/costing"
	"stockcore/internal/domain/product"
	"stockcore/internal/infrastructure/storage/memory"
)

func money(s string) types.Money { return types.MustMoney(s) }

func TestApplyPurchaseCost(t *testing.T) {
	tests := []struct {
		name      string
		stock     int64
		avg       string
		qty       int64
		unitCost  string
		wantStock int64
		wantAvg   string
	}{
		{"first intake", 0, "0", 10, "50", 10, "50"},
		{"blend", 10, "50", 5, "80", 15, "60"},
		{"equal halves", 10, "100", 10, "200", 20, "150"},
		{"zero qty keeps avg", 4, "25", 0, "999", 4, "25"},
		{"zero qty on empty resets", 0, "40", 0, "10", 0, "0"},
		{"free goods dilute", 1, "90", 2, "0", 3, "30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := product.Ledger{Stock: tt.stock, AvgCost: money(tt.avg), StockContent: money("7")}
			after, err := costing.ApplyPurchaseCost(before, tt.qty, money(tt.unitCost))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStock, after.Stock)
			assert.True(t, money(tt.wantAvg).Equal(after.AvgCost), "avg: want %s, got %s", tt.wantAvg, after.AvgCost)
			assert.True(t, money("7").Equal(after.StockContent), "content is not touched")
		})
	}
}

func TestApplyPurchaseCost_Rejects(t *testing.T) {
	before := product.Ledger{Stock: 1, AvgCost: money("1"), StockContent: types.Zero()}

	_, err := costing.ApplyPurchaseCost(before, -1, money("1"))
	assert.True(t, apperror.Is(err, apperror.CodeValidation))

	_, err = costing.ApplyPurchaseCost(before, 1, money("-0.01"))
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}

func TestApplyPurchaseCost_Convergence(t *testing.T) {
	// (q1*c1 + q2*c2) / (q1 + q2)
	l := product.Ledger{AvgCost: types.Zero(), StockContent: types.Zero()}
	l, err := costing.ApplyPurchaseCost(l, 3, money("10"))
	require.NoError(t, err)
	l, err = costing.ApplyPurchaseCost(l, 7, money("20"))
	require.NoError(t, err)
	assert.True(t, money("17").Equal(l.AvgCost), "got %s", l.AvgCost)
}

func TestProfit(t *testing.T) {
	tests := []struct {
		total, cogs        string
		wantGross, wantPct string
	}{
		{"300", "180", "120", "40"},
		{"0", "0", "0", "0"},
		{"0", "50", "-50", "0"},
		{"3", "1", "2", "66.67"},
		{"100", "150", "-50", "-50"},
	}
	for _, tt := range tests {
		t.Run(tt.total+"/"+tt.cogs, func(t *testing.T) {
			gross, margin := costing.Profit(money(tt.total), money(tt.cogs))
			assert.True(t, money(tt.wantGross).Equal(gross), "gross: got %s", gross)
			assert.True(t, money(tt.wantPct).Equal(margin), "margin: got %s", margin)
		})
	}
}

func TestCogsFromSnapshot(t *testing.T) {
	a, b := id.New(), id.New()
	snapshot := map[id.ID]*product.Product{
		a: {AvgCost: money("60")},
		b: {AvgCost: money("2.5")},
	}
	missing := id.New()

	cogs := costing.CogsFromSnapshot(snapshot, []costing.Line{
		{ProductID: &a, Qty: 3},
		{ProductID: &b, Qty: 4},
		{ProductID: nil, Qty: 9},
		{ProductID: &missing, Qty: 1},
	})
	assert.True(t, money("190").Equal(cogs), "got %s", cogs)
}

func TestEngine_ComputeCogs(t *testing.T) {
	store := memory.NewStore()
	orgID := id.New()
	ctx := tenant.WithOrg(context.Background(), orgID)

	p := &product.Product{
		BaseEntity: entity.NewBaseEntity(orgID),
		Name:       "Kopi",
		Category:   "minuman",
		Price:      money("100"),
		Stock:      12,
		AvgCost:    money("60"),
	}
	require.NoError(t, store.Products().Create(ctx, p))

	engine := costing.NewEngine(store.Products(), store)
	cogs, err := engine.ComputeCogs(ctx, []costing.Line{
		{ProductID: &p.ID, Qty: 3},
		{Qty: 2},
	})
	require.NoError(t, err)
	assert.True(t, money("180").Equal(cogs), "got %s", cogs)

	got, err := store.Products().Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(12), got.Stock, "read-only")

	_, err = engine.ComputeCogs(context.Background(), nil)
	assert.True(t, apperror.Is(err, apperror.CodeUnauthorized))

	_, err = engine.ComputeCogs(ctx, []costing.Line{{ProductID: &p.ID, Qty: -1}})
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}
