package importer_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"stockcore/internal/core/apperror"
	appctx "stockcore/internal/core/context"
	"stockcore/internal/core/id"
	"stockcore/internal/core/tenant"
	"stockcore/internal/core/types"
	"stockcore/internal/domain/inventory"
	"stockcore/internal/domain/product"
	"stockcore/internal/infrastructure/importer"
	"stockcore/internal/infrastructure/storage/memory"
)

func setup(t *testing.T) (*inventory.Service, *memory.Store, context.Context) {
	t.Helper()
	store := memory.NewStore()
	svc := inventory.NewService(inventory.Deps{
		Products:    store.Products(),
		Moves:       store.Moves(),
		Sales:       store.Sales(),
		Purchases:   store.Purchases(),
		Adjustments: store.Adjustments(),
		TxManager:   store,
	})
	ctx := tenant.WithOrg(context.Background(), id.New())
	ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: "owner", Privileged: true})
	return svc, store, ctx
}

// fill writes counted values into an exported sheet; keys are 1-based rows.
func fill(t *testing.T, sheet []byte, counts map[int][2]string) *bytes.Buffer {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(sheet))
	require.NoError(t, err)
	name := f.GetSheetName(f.GetActiveSheetIndex())
	for row, v := range counts {
		cell, _ := excelize.CoordinatesToCellName(7, row)
		require.NoError(t, f.SetCellValue(name, cell, v[0]))
		if v[1] != "" {
			cell, _ = excelize.CoordinatesToCellName(8, row)
			require.NoError(t, f.SetCellValue(name, cell, v[1]))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestImport_AppliesCountedRows(t *testing.T) {
	svc, store, ctx := setup(t)

	kopi, err := svc.CreateProduct(ctx, inventory.CreateProductCommand{
		Name: "Kopi", Category: "minuman", OpeningStock: 5, OpeningCost: types.MustMoney("1000"),
	})
	require.NoError(t, err)
	susu, err := svc.CreateProduct(ctx, inventory.CreateProductCommand{
		Name: "Susu", Category: "bahan", HasMeasure: true, MeasureUnit: product.UnitML,
		ContentPerItem: types.MustMoney("1000"), OpeningStock: 2,
	})
	require.NoError(t, err)
	teh, err := svc.CreateProduct(ctx, inventory.CreateProductCommand{Name: "Teh", Category: "minuman", OpeningStock: 4})
	require.NoError(t, err)

	var exported bytes.Buffer
	require.NoError(t, importer.WriteCountSheet(&exported, []*product.Product{kopi, susu, teh}))

	sheet := fill(t, exported.Bytes(), map[int][2]string{
		2: {"3", ""},
		3: {"2", "1500"},
		4: {"x", ""},
	})

	report, err := importer.New(svc).Import(ctx, sheet)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Applied)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, 4, report.Errors[0].Line)

	got, err := store.Products().Get(ctx, kopi.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Stock)

	got, err = store.Products().Get(ctx, susu.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Stock)
	assert.True(t, types.MustMoney("1500").Equal(got.StockContent))

	got, err = store.Products().Get(ctx, teh.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), got.Stock, "invalid row leaves stock untouched")
}

func TestImport_UnknownProductIsReported(t *testing.T) {
	svc, _, ctx := setup(t)

	ghost := product.NewProduct(id.New(), "Hantu", "x", types.Zero())
	var exported bytes.Buffer
	require.NoError(t, importer.WriteCountSheet(&exported, []*product.Product{ghost}))

	report, err := importer.New(svc).Import(ctx, fill(t, exported.Bytes(), map[int][2]string{2: {"1", ""}}))
	require.NoError(t, err)
	assert.Equal(t, 0, report.Applied)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, apperror.CodeNotFound, report.Errors[0].Code)
}

func TestImport_RequiresPrivilege(t *testing.T) {
	svc, _, ctx := setup(t)
	p, err := svc.CreateProduct(ctx, inventory.CreateProductCommand{Name: "Gula", Category: "bahan", OpeningStock: 1})
	require.NoError(t, err)

	var exported bytes.Buffer
	require.NoError(t, importer.WriteCountSheet(&exported, []*product.Product{p}))

	cashier := appctx.WithUser(ctx, &appctx.UserContext{UserID: "kasir"})
	_, err = importer.New(svc).Import(cashier, fill(t, exported.Bytes(), map[int][2]string{2: {"0", ""}}))
	assert.True(t, apperror.Is(err, apperror.CodeForbidden), "got %v", err)
}

func TestParseCountSheet_RejectsGarbage(t *testing.T) {
	_, _, err := importer.ParseCountSheet(bytes.NewReader([]byte("not a workbook")))
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}
