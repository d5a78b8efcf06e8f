package product

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/id"
	"stockcore/internal/core/types"
)

func TestIsLowStock(t *testing.T) {
	tests := []struct {
		name string
		p    Product
		want bool
	}{
		{"units above threshold", Product{Stock: 6, MinStock: 5}, false},
		{"units at threshold", Product{Stock: 5, MinStock: 5}, true},
		{"units threshold disabled", Product{Stock: 0, MinStock: 0}, false},
		{"content below threshold", Product{
			HasMeasure: true, Stock: 50, StockContent: types.MustMoney("400"), MinContent: types.MustMoney("500"),
		}, true},
		{"content ignores unit count", Product{
			HasMeasure: true, Stock: 0, MinStock: 10, StockContent: types.MustMoney("900"), MinContent: types.MustMoney("500"),
		}, false},
		{"content threshold disabled", Product{
			HasMeasure: true, StockContent: types.Zero(), MinContent: types.Zero(),
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.IsLowStock())
		})
	}
}

func TestValidate(t *testing.T) {
	ctx := context.Background()
	valid := func() *Product {
		p := NewProduct(id.New(), "Susu", "minuman", types.MustMoney("18000"))
		p.HasMeasure = true
		p.MeasureUnit = UnitML
		p.ContentPerItem = types.MustMoney("1000")
		return p
	}
	require.NoError(t, valid().Validate(ctx))

	tests := []struct {
		name   string
		mutate func(p *Product)
		code   string
	}{
		{"missing name", func(p *Product) { p.Name = " " }, apperror.CodeValidation},
		{"missing category", func(p *Product) { p.Category = "" }, apperror.CodeValidation},
		{"negative price", func(p *Product) { p.Price = types.MustMoney("-1") }, apperror.CodeValidation},
		{"unknown unit", func(p *Product) { p.MeasureUnit = "gallon" }, apperror.CodeValidation},
		{"zero content per item", func(p *Product) { p.ContentPerItem = types.Zero() }, apperror.CodeValidation},
		{"negative stock", func(p *Product) { p.Stock = -1 }, apperror.CodeInvalidState},
		{"negative content", func(p *Product) { p.StockContent = types.MustMoney("-5") }, apperror.CodeInvalidState},
		{"no organization", func(p *Product) { p.OrgID = id.Nil() }, apperror.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(p)
			err := p.Validate(ctx)
			assert.True(t, apperror.Is(err, tt.code), "got %v", err)
		})
	}
}

func TestSetLedger_LeavesProductOnFailure(t *testing.T) {
	p := NewProduct(id.New(), "Teh", "minuman", types.MustMoney("5"))
	p.Stock = 3

	err := p.SetLedger(Ledger{Stock: -1, StockContent: types.Zero(), AvgCost: types.Zero()})
	assert.True(t, apperror.Is(err, apperror.CodeInvalidState))
	assert.Equal(t, int64(3), p.Stock)

	require.NoError(t, p.SetLedger(Ledger{Stock: 7, StockContent: types.Zero(), AvgCost: types.MustMoney("2")}))
	assert.Equal(t, int64(7), p.Stock)
	assert.True(t, types.MustMoney("2").Equal(p.AvgCost))
}

func TestNormalize_ClearsMeasuredFields(t *testing.T) {
	p := NewProduct(id.New(), "Roti", "makanan", types.MustMoney("5"))
	p.MeasureUnit = UnitG
	p.ContentPerItem = types.MustMoney("250")
	p.StockContent = types.MustMoney("1000")

	p.Normalize()
	assert.Empty(t, p.MeasureUnit)
	assert.True(t, p.ContentPerItem.IsZero())
	assert.True(t, p.StockContent.IsZero())
	assert.True(t, p.ContentFor(4).IsZero())
}

func TestDetails(t *testing.T) {
	p := NewProduct(id.New(), "Roti", "makanan", types.MustMoney("5"))
	same := types.MustMoney("5.00")
	assert.False(t, Details{Price: &same}.ChangesPrice(p))

	price := types.MustMoney("6")
	name := "  Roti Tawar "
	blank := ""
	minStock := int64(3)
	d := Details{Name: &name, Price: &price, Barcode: &blank, MinStock: &minStock}
	assert.True(t, d.ChangesPrice(p))

	d.Apply(p)
	assert.Equal(t, "Roti Tawar", p.Name)
	assert.Nil(t, p.Barcode)
	assert.Equal(t, int64(3), p.MinStock)
	assert.True(t, price.Equal(p.Price))
}
