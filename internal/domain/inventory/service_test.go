package inventory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockcore/internal/core/apperror"
	appctx "stockcore/internal/core/context"
	"stockcore/internal/core/id"
	"stockcore/internal/core/tenant"
	"stockcore/internal/core/types"
	"stockcore/internal/domain/audit"
	"stockcore/internal/domain/cashledger"
	"stockcore/internal/domain/documents/adjustment"
	"stockcore/internal/domain/documents/purchase"
	"stockcore/internal/domain/documents/sale"
	"stockcore/internal/domain/inventory"
	"stockcore/internal/domain/product"
	"stockcore/internal/domain/stockmove"
	"stockcore/internal/infrastructure/storage/memory"
)

type fixture struct {
	store *memory.Store
	svc   *inventory.Service
	audit *memory.AuditSink
	cash  *memory.CashRecorder
	orgID id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	f := &fixture{
		store: store,
		audit: store.AuditSink(),
		cash:  store.CashRecorder(),
		orgID: id.New(),
	}
	f.svc = inventory.NewService(inventory.Deps{
		Products:    store.Products(),
		Moves:       store.Moves(),
		Sales:       store.Sales(),
		Purchases:   store.Purchases(),
		Adjustments: store.Adjustments(),
		TxManager:   store,
		Numbers:     store.Numerator(),
		Audit:       f.audit,
	})
	f.svc.SaleHooks().OnAfterCreate(cashledger.SaleHook(f.cash))
	f.svc.PurchaseHooks().OnAfterCreate(cashledger.PurchaseHook(f.cash))
	return f
}

func (f *fixture) ctxAs(uid string, privileged bool, roles ...string) context.Context {
	ctx := tenant.WithOrg(context.Background(), f.orgID)
	return appctx.WithUser(ctx, &appctx.UserContext{
		UserID:     uid,
		Email:      uid + "@example.com",
		Roles:      roles,
		Privileged: privileged,
	})
}

func (f *fixture) admin() context.Context {
	return f.ctxAs("admin-1", true, "admin")
}

func (f *fixture) cashier() context.Context {
	return f.ctxAs("cashier-1", false, "cashier")
}

func (f *fixture) createProduct(t *testing.T, cmd inventory.CreateProductCommand) *product.Product {
	t.Helper()
	if cmd.Category == "" {
		cmd.Category = "umum"
	}
	p, err := f.svc.CreateProduct(f.admin(), cmd)
	require.NoError(t, err)
	return p
}

func (f *fixture) product(t *testing.T, productID id.ID) *product.Product {
	t.Helper()
	p, err := f.store.Products().Get(f.admin(), productID)
	require.NoError(t, err)
	return p
}

func (f *fixture) buy(t *testing.T, productID id.ID, qty int64, unitCost string) *purchase.Purchase {
	t.Helper()
	doc, err := f.svc.ReceivePurchase(f.admin(), inventory.PurchaseCommand{
		Supplier: "Toko Makmur",
		Items: []inventory.PurchaseLine{
			{ProductID: productID, Name: "line", Qty: qty, UnitCost: types.MustMoney(unitCost)},
		},
	})
	require.NoError(t, err)
	return doc
}

func (f *fixture) moves(t *testing.T, productID id.ID) []*stockmove.Move {
	t.Helper()
	res, err := f.store.Moves().List(f.admin(), stockmove.Filter{ProductID: &productID})
	require.NoError(t, err)
	return res.Items
}

func line(productID id.ID, name string, qty int64, price string) inventory.CheckoutLine {
	return inventory.CheckoutLine{ProductID: &productID, Name: name, Qty: qty, Price: types.MustMoney(price)}
}

func assertMoney(t *testing.T, want string, got types.Money) {
	t.Helper()
	assert.True(t, types.MustMoney(want).Equal(got), "want %s, got %s", want, got.String())
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func TestEndToEnd_PurchaseSellVoid(t *testing.T) {
	f := newFixture(t)
	p := f.createProduct(t, inventory.CreateProductCommand{Name: "Kopi Susu", Price: types.MustMoney("100")})

	first := f.buy(t, p.ID, 10, "50")
	got := f.product(t, p.ID)
	assert.Equal(t, int64(10), got.Stock)
	assertMoney(t, "50", got.AvgCost)

	f.buy(t, p.ID, 5, "80")
	got = f.product(t, p.ID)
	assert.Equal(t, int64(15), got.Stock)
	assertMoney(t, "60", got.AvgCost)

	s, err := f.svc.Checkout(f.cashier(), inventory.CheckoutCommand{
		PaymentMethod: sale.MethodQRIS,
		Items:         []inventory.CheckoutLine{line(p.ID, "Kopi Susu", 3, "100")},
	})
	require.NoError(t, err)
	assertMoney(t, "300", s.Total)
	assertMoney(t, "180", s.Cogs)
	assertMoney(t, "120", s.GrossProfit)
	assertMoney(t, "40", s.Margin)
	assert.Equal(t, sale.SourceOffline, s.Source)
	assert.Equal(t, int64(12), f.product(t, p.ID).Stock)

	res, err := f.svc.VoidPurchase(f.admin(), first.ID)
	require.NoError(t, err)
	assert.False(t, res.AlreadyVoided)
	require.NotNil(t, res.Purchase.VoidedAt)
	require.NotNil(t, res.Purchase.VoidedByUID)
	assert.Equal(t, "admin-1", *res.Purchase.VoidedByUID)

	got = f.product(t, p.ID)
	assert.Equal(t, int64(2), got.Stock)
	assertMoney(t, "60", got.AvgCost)

	moves := f.moves(t, p.ID)
	kinds := make([]stockmove.Type, len(moves))
	for i, m := range moves {
		kinds[i] = m.Type
	}
	assert.Equal(t, []stockmove.Type{
		stockmove.TypePurchase,
		stockmove.TypePurchase,
		stockmove.TypeSale,
		stockmove.TypePurchaseVoid,
	}, kinds)

	void := moves[3]
	assert.Equal(t, int64(10), void.Qty)
	assert.Equal(t, int64(12), void.StockBefore)
	assert.Equal(t, int64(2), void.StockAfter)
	assert.Equal(t, "Void pembelian "+first.ID.String(), void.Reason)
	require.NotNil(t, void.PurchaseID)
	assert.Equal(t, first.ID, *void.PurchaseID)
}

func TestReceivePurchase_AverageCost(t *testing.T) {
	f := newFixture(t)
	p := f.createProduct(t, inventory.CreateProductCommand{Name: "Gula", Price: types.MustMoney("15000")})

	doc := f.buy(t, p.ID, 10, "100")
	f.buy(t, p.ID, 10, "200")

	got := f.product(t, p.ID)
	assert.Equal(t, int64(20), got.Stock)
	assertMoney(t, "150", got.AvgCost)

	assertMoney(t, "1000", doc.Total)
	assert.Equal(t, purchase.KindInventory, doc.Kind)

	moves := f.moves(t, p.ID)
	require.Len(t, moves, 2)
	second := moves[1]
	assert.Equal(t, "Pembelian dari Toko Makmur", second.Reason)
	require.NotNil(t, second.AvgBefore)
	require.NotNil(t, second.AvgAfter)
	require.NotNil(t, second.UnitCost)
	assertMoney(t, "100", *second.AvgBefore)
	assertMoney(t, "150", *second.AvgAfter)
	assertMoney(t, "200", *second.UnitCost)
}

func TestReceivePurchase_Defaults(t *testing.T) {
	f := newFixture(t)
	p := f.createProduct(t, inventory.CreateProductCommand{Name: "Garam", Price: types.MustMoney("3000")})

	doc, err := f.svc.ReceivePurchase(f.admin(), inventory.PurchaseCommand{
		Items: []inventory.PurchaseLine{{ProductID: p.ID, Name: "Garam", Qty: 1, UnitCost: types.MustMoney("2000")}},
	})
	require.NoError(t, err)
	assert.Equal(t, purchase.DefaultSupplier, doc.Supplier)
	assert.Equal(t, purchase.MethodCash, doc.Method)
	assert.Nil(t, doc.VoidedAt)

	moves := f.moves(t, p.ID)
	require.Len(t, moves, 1)
	assert.Equal(t, "Pembelian dari "+purchase.DefaultSupplier, moves[0].Reason)
}

func TestReceivePurchase_UnknownProduct(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ReceivePurchase(f.admin(), inventory.PurchaseCommand{
		Items: []inventory.PurchaseLine{{ProductID: id.New(), Name: "Teh", Qty: 1, UnitCost: types.MustMoney("10")}},
	})
	assertCode(t, err, apperror.CodeNotFound)
}

func TestReceivePurchase_CashMovement(t *testing.T) {
	f := newFixture(t)
	p := f.createProduct(t, inventory.CreateProductCommand{Name: "Teh", Price: types.MustMoney("5000")})

	_, err := f.svc.ReceivePurchase(f.admin(), inventory.PurchaseCommand{
		Supplier: "CV Sumber",
		Method:   "transfer",
		Items:    []inventory.PurchaseLine{{ProductID: p.ID, Name: "Teh", Qty: 2, UnitCost: types.MustMoney("1000")}},
	})
	require.NoError(t, err)
	assert.Empty(t, f.cash.Movements(f.admin(), f.orgID), "non-cash purchase has no drawer movement")

	f.buy(t, p.ID, 1, "1000")
	movements := f.cash.Movements(f.admin(), f.orgID)
	require.Len(t, movements, 1)
	assert.Equal(t, cashledger.DirectionOut, movements[0].Direction)
	assert.Equal(t, "Pembelian bahan baku dari Toko Makmur", movements[0].Note)
	assertMoney(t, "1000", movements[0].Amount)
}

func TestCheckout_MeasuredGoods(t *testing.T) {
	f := newFixture(t)
	q := f.createProduct(t, inventory.CreateProductCommand{
		Name:           "Susu Segar",
		Price:          types.MustMoney("45000"),
		HasMeasure:     true,
		MeasureUnit:    product.UnitML,
		ContentPerItem: types.MustMoney("1000"),
	})

	f.buy(t, q.ID, 3, "30000")
	got := f.product(t, q.ID)
	assert.Equal(t, int64(3), got.Stock)
	assertMoney(t, "3000", got.StockContent)
	assertMoney(t, "30000", got.AvgCost)

	s, err := f.svc.Checkout(f.cashier(), inventory.CheckoutCommand{
		PaymentMethod: sale.MethodCash,
		Items:         []inventory.CheckoutLine{line(q.ID, "Susu Segar", 1, "45000")},
	})
	require.NoError(t, err)
	assertMoney(t, "30000", s.Cogs)

	got = f.product(t, q.ID)
	assert.Equal(t, int64(2), got.Stock)
	assertMoney(t, "2000", got.StockContent)

	moves := f.moves(t, q.ID)
	last := moves[len(moves)-1]
	assert.Equal(t, stockmove.TypeSale, last.Type)
	require.NotNil(t, last.ContentDelta)
	assertMoney(t, "-1000", *last.ContentDelta)
	require.NotNil(t, last.MeasureUnit)
	assert.Equal(t, "ml", *last.MeasureUnit)

	movements := f.cash.Movements(f.admin(), f.orgID)
	require.Len(t, movements, 2, "cash purchase out and cash sale in")
	assert.Equal(t, cashledger.DirectionIn, movements[1].Direction)
	assert.Equal(t, "Penjualan tunai", movements[1].Note)
	assertMoney(t, "45000", movements[1].Amount)
}

func TestCheckout_InsufficientContent(t *testing.T) {
	f := newFixture(t)
	q := f.createProduct(t, inventory.CreateProductCommand{
		Name:           "Sirup",
		Price:          types.MustMoney("20000"),
		HasMeasure:     true,
		MeasureUnit:    product.UnitML,
		ContentPerItem: types.MustMoney("500"),
		OpeningStock:   2,
		OpeningContent: types.MustMoney("600"),
		OpeningCost:    types.MustMoney("8000"),
	})

	_, err := f.svc.Checkout(f.cashier(), inventory.CheckoutCommand{
		PaymentMethod: sale.MethodQRIS,
		Items:         []inventory.CheckoutLine{line(q.ID, "Sirup", 2, "20000")},
	})
	assertCode(t, err, apperror.CodeInsufficientContent)

	got := f.product(t, q.ID)
	assert.Equal(t, int64(2), got.Stock)
	assertMoney(t, "600", got.StockContent)
}

func TestCheckout_AtomicOnFailure(t *testing.T) {
	f := newFixture(t)
	a := f.createProduct(t, inventory.CreateProductCommand{Name: "Roti", Price: types.MustMoney("10"), OpeningStock: 5})
	b := f.createProduct(t, inventory.CreateProductCommand{Name: "Keju", Price: types.MustMoney("20"), OpeningStock: 1})

	_, err := f.svc.Checkout(f.cashier(), inventory.CheckoutCommand{
		PaymentMethod: sale.MethodCash,
		Items: []inventory.CheckoutLine{
			line(a.ID, "Roti", 2, "10"),
			line(b.ID, "Keju", 3, "20"),
		},
	})
	assertCode(t, err, apperror.CodeInsufficientStock)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, "Keju", appErr.Details["product"])

	assert.Equal(t, int64(5), f.product(t, a.ID).Stock)
	assert.Equal(t, int64(1), f.product(t, b.ID).Stock)

	sales, err := f.svc.SaleHistory(f.admin(), sale.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, sales.Items)
	assert.Empty(t, f.cash.Movements(f.admin(), f.orgID))
	for _, m := range f.moves(t, a.ID) {
		assert.NotEqual(t, stockmove.TypeSale, m.Type)
	}
}

func TestCheckout_DuplicateLinesUseCombinedQuantity(t *testing.T) {
	f := newFixture(t)
	p := f.createProduct(t, inventory.CreateProductCommand{Name: "Air", Price: types.MustMoney("3"), OpeningStock: 3})

	_, err := f.svc.Checkout(f.cashier(), inventory.CheckoutCommand{
		PaymentMethod: sale.MethodCash,
		Items: []inventory.CheckoutLine{
			line(p.ID, "Air", 2, "3"),
			line(p.ID, "Air", 2, "3"),
		},
	})
	assertCode(t, err, apperror.CodeInsufficientStock)
	assert.Equal(t, int64(3), f.product(t, p.ID).Stock)
}

func TestCheckout_AdHocLineHasNoCost(t *testing.T) {
	f := newFixture(t)
	p := f.createProduct(t, inventory.CreateProductCommand{
		Name: "Nasi", Price: types.MustMoney("10"), OpeningStock: 4, OpeningCost: types.MustMoney("6"),
	})

	s, err := f.svc.Checkout(f.cashier(), inventory.CheckoutCommand{
		PaymentMethod: sale.MethodGrab,
		Items: []inventory.CheckoutLine{
			line(p.ID, "Nasi", 2, "10"),
			{Name: "Kerupuk", Qty: 1, Price: types.MustMoney("5")},
		},
	})
	require.NoError(t, err)
	assertMoney(t, "25", s.Total)
	assertMoney(t, "12", s.Cogs)
	assertMoney(t, "13", s.GrossProfit)
	assertMoney(t, "52", s.Margin)
	assert.Equal(t, sale.SourceGrab, s.Source)
	assert.Equal(t, int64(2), f.product(t, p.ID).Stock)
}

func TestCheckout_UnknownProductNamesLine(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Checkout(f.cashier(), inventory.CheckoutCommand{
		PaymentMethod: sale.MethodCash,
		Items:         []inventory.CheckoutLine{line(id.New(), "Es Teh", 1, "5")},
	})
	assertCode(t, err, apperror.CodeNotFound)
	assert.Contains(t, err.Error(), "Es Teh")
}

func TestCheckout_Validation(t *testing.T) {
	f := newFixture(t)
	p := f.createProduct(t, inventory.CreateProductCommand{Name: "Roti", Price: types.MustMoney("10"), OpeningStock: 5})

	tests := []struct {
		name string
		cmd  inventory.CheckoutCommand
	}{
		{"empty cart", inventory.CheckoutCommand{PaymentMethod: sale.MethodCash}},
		{"unknown method", inventory.CheckoutCommand{
			PaymentMethod: "bitcoin",
			Items:         []inventory.CheckoutLine{line(p.ID, "Roti", 1, "10")},
		}},
		{"zero qty", inventory.CheckoutCommand{
			PaymentMethod: sale.MethodCash,
			Items:         []inventory.CheckoutLine{line(p.ID, "Roti", 0, "10")},
		}},
		{"negative price", inventory.CheckoutCommand{
			PaymentMethod: sale.MethodCash,
			Items:         []inventory.CheckoutLine{line(p.ID, "Roti", 1, "-1")},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Checkout(f.cashier(), tt.cmd)
			assertCode(t, err, apperror.CodeValidation)
		})
	}
	assert.Equal(t, int64(5), f.product(t, p.ID).Stock)
}

func TestCheckout_ConcurrentSalesNeverOversell(t *testing.T) {
	f := newFixture(t)
	p := f.createProduct(t, inventory.CreateProductCommand{Name: "Donat", Price: types.MustMoney("8"), OpeningStock: 10})

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ok   int
		fail int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Checkout(f.cashier(), inventory.CheckoutCommand{
				PaymentMethod: sale.MethodQRIS,
				Items:         []inventory.CheckoutLine{line(p.ID, "Donat", 1, "8")},
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				assert.True(t, apperror.Is(err, apperror.CodeInsufficientStock), "unexpected error: %v", err)
				fail++
				return
			}
			ok++
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, 15, fail)
	assert.Equal(t, int64(0), f.product(t, p.ID).Stock)
}

func TestVoidPurchase_Idempotent(t *testing.T) {
	f := newFixture(t)
	p := f.createProduct(t, inventory.CreateProductCommand{Name: "Teh", Price: types.MustMoney("5")})
	doc := f.buy(t, p.ID, 4, "2")

	res, err := f.svc.VoidPurchase(f.admin(), doc.ID)
	require.NoError(t, err)
	assert.False(t, res.AlreadyVoided)
	assert.Equal(t, int64(0), f.product(t, p.ID).Stock)

	res, err = f.svc.VoidPurchase(f.admin(), doc.ID)
	require.NoError(t, err)
	assert.True(t, res.AlreadyVoided)
	assert.Equal(t, int64(0), f.product(t, p.ID).Stock)

	voids := 0
	for _, m := range f.moves(t, p.ID) {
		if m.Type == stockmove.TypePurchaseVoid {
			voids++
		}
	}
	assert.Equal(t, 1, voids)
}

func TestVoidPurchase_ReversibilityBound(t *testing.T) {
	f := newFixture(t)
	a := f.createProduct(t, inventory.CreateProductCommand{Name: "Kopi", Price: types.MustMoney("10")})
	b := f.createProduct(t, inventory.CreateProductCommand{Name: "Gula", Price: types.MustMoney("10")})

	doc, err := f.svc.ReceivePurchase(f.admin(), inventory.PurchaseCommand{
		Items: []inventory.PurchaseLine{
			{ProductID: a.ID, Name: "Kopi", Qty: 10, UnitCost: types.MustMoney("4")},
			{ProductID: b.ID, Name: "Gula", Qty: 5, UnitCost: types.MustMoney("3")},
		},
	})
	require.NoError(t, err)

	_, err = f.svc.Checkout(f.cashier(), inventory.CheckoutCommand{
		PaymentMethod: sale.MethodQRIS,
		Items:         []inventory.CheckoutLine{line(b.ID, "Gula", 1, "10")},
	})
	require.NoError(t, err)

	_, err = f.svc.VoidPurchase(f.admin(), doc.ID)
	assertCode(t, err, apperror.CodeCannotVoid)

	assert.Equal(t, int64(10), f.product(t, a.ID).Stock, "no partial reversal")
	assert.Equal(t, int64(4), f.product(t, b.ID).Stock)

	stored, err := f.svc.GetPurchase(f.admin(), doc.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsVoided())
}

func TestVoidPurchase_MeasuredGoodsReverseContent(t *testing.T) {
	f := newFixture(t)
	q := f.createProduct(t, inventory.CreateProductCommand{
		Name:           "Beras",
		Price:          types.MustMoney("14000"),
		HasMeasure:     true,
		MeasureUnit:    product.UnitKG,
		ContentPerItem: types.MustMoney("5"),
	})
	doc := f.buy(t, q.ID, 2, "60000")

	_, err := f.svc.VoidPurchase(f.admin(), doc.ID)
	require.NoError(t, err)

	got := f.product(t, q.ID)
	assert.Equal(t, int64(0), got.Stock)
	assertMoney(t, "0", got.StockContent)
	assertMoney(t, "60000", got.AvgCost)
}

func TestVoidPurchase_RecountedContentFloorsAtZero(t *testing.T) {
	f := newFixture(t)
	q := f.createProduct(t, inventory.CreateProductCommand{
		Name:           "Susu",
		Price:          types.MustMoney("18000"),
		HasMeasure:     true,
		MeasureUnit:    product.UnitML,
		ContentPerItem: types.MustMoney("1000"),
	})
	doc := f.buy(t, q.ID, 3, "30000")

	// Units still on the shelf, but partly used: 500 ml left.
	left := types.MustMoney("500")
	_, err := f.svc.Opname(f.admin(), inventory.OpnameCommand{ProductID: q.ID, Target: 3, TargetContent: &left})
	require.NoError(t, err)

	_, err = f.svc.VoidPurchase(f.admin(), doc.ID)
	require.NoError(t, err)

	got := f.product(t, q.ID)
	assert.Equal(t, int64(0), got.Stock)
	assertMoney(t, "0", got.StockContent)
	assertMoney(t, "30000", got.AvgCost)

	var void *stockmove.Move
	for _, m := range f.moves(t, q.ID) {
		if m.Type == stockmove.TypePurchaseVoid {
			void = m
		}
	}
	require.NotNil(t, void)
	assert.Equal(t, int64(3), void.StockBefore)
	assert.Equal(t, int64(0), void.StockAfter)
	require.NotNil(t, void.ContentBefore)
	require.NotNil(t, void.ContentAfter)
	assertMoney(t, "500", *void.ContentBefore)
	assertMoney(t, "0", *void.ContentAfter)
}

func TestVoidPurchase_OtherKindOnlyFlipsFlag(t *testing.T) {
	f := newFixture(t)
	doc, err := f.svc.RecordOtherPurchase(f.admin(), inventory.OtherPurchaseCommand{
		Supplier: "PLN",
		Items:    []inventory.OtherPurchaseLine{{Name: "Listrik", Amount: types.MustMoney("250000")}},
	})
	require.NoError(t, err)
	assert.Equal(t, purchase.KindOther, doc.Kind)
	assertMoney(t, "250000", doc.Total)

	movements := f.cash.Movements(f.admin(), f.orgID)
	require.Len(t, movements, 1)
	assert.Equal(t, "Pembelian lainnya dari PLN", movements[0].Note)

	res, err := f.svc.VoidPurchase(f.admin(), doc.ID)
	require.NoError(t, err)
	assert.True(t, res.Purchase.IsVoided())

	all, err := f.store.Moves().List(f.admin(), stockmove.Filter{})
	require.NoError(t, err)
	assert.Empty(t, all.Items)

	records := f.audit.Records(f.admin(), f.orgID)
	last := records[len(records)-1]
	assert.Equal(t, audit.ActionPurchaseVoid, last.Action)
	assert.Equal(t, doc.ID.String(), last.EntityID)
}

func TestVoidPurchase_RequiresPrivilege(t *testing.T) {
	f := newFixture(t)
	p := f.createProduct(t, inventory.CreateProductCommand{Name: "Teh", Price: types.MustMoney("5")})
	doc := f.buy(t, p.ID, 4, "2")

	_, err := f.svc.VoidPurchase(f.cashier(), doc.ID)
	assertCode(t, err, apperror.CodeForbidden)

	_, err = f.svc.VoidPurchase(tenant.WithOrg(context.Background(), f.orgID), doc.ID)
	assertCode(t, err, apperror.CodeUnauthorized)

	assert.Equal(t, int64(4), f.product(t, p.ID).Stock)
}

func TestAdjustStock_Movement(t *testing.T) {
	f := newFixture(t)
	p := f.createProduct(t, inventory.CreateProductCommand{Name: "Telur", Price: types.MustMoney("2"), OpeningStock: 10})

	doc, err := f.svc.AdjustStock(f.admin(), inventory.AdjustCommand{
		ProductID: p.ID, Kind: adjustment.KindMovement, Delta: 5, Reason: "Bonus supplier",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), doc.Before)
	assert.Equal(t, int64(15), doc.After)

	_, err = f.svc.AdjustStock(f.admin(), inventory.AdjustCommand{
		ProductID: p.ID, Kind: adjustment.KindMovement, Delta: -3, Reason: "Pecah",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), f.product(t, p.ID).Stock)

	moves := f.moves(t, p.ID)
	require.Len(t, moves, 3)
	assert.Equal(t, stockmove.TypeAdjustIn, moves[1].Type)
	assert.Equal(t, int64(5), moves[1].Qty)
	assert.Equal(t, stockmove.TypeAdjustOut, moves[2].Type)
	assert.Equal(t, int64(3), moves[2].Qty)
	assert.Equal(t, "Pecah", moves[2].Reason)
	require.NotNil(t, moves[2].AdjustmentID)
}

func TestAdjustStock_NegativeResultRejected(t *testing.T) {
	f := newFixture(t)
	p := f.createProduct(t, inventory.CreateProductCommand{Name: "Telur", Price: types.MustMoney("2"), OpeningStock: 2})

	_, err := f.svc.AdjustStock(f.admin(), inventory.AdjustCommand{
		ProductID: p.ID, Kind: adjustment.KindMovement, Delta: -3,
	})
	assertCode(t, err, apperror.CodeInvalidState)
	assert.Equal(t, int64(2), f.product(t, p.ID).Stock)

	_, err = f.svc.AdjustStock(f.admin(), inventory.AdjustCommand{
		ProductID: p.ID, Kind: adjustment.KindMovement, Delta: 0,
	})
	assertCode(t, err, apperror.CodeValidation)
}

func TestAdjustStock_Correction(t *testing.T) {
	f := newFixture(t)
	p := f.createProduct(t, inventory.CreateProductCommand{Name: "Minyak", Price: types.MustMoney("20"), OpeningStock: 8})

	_, err := f.svc.AdjustStock(f.admin(), inventory.AdjustCommand{
		ProductID: p.ID, Kind: adjustment.KindCorrection, Delta: -2, Note: "salah input",
	})
	require.NoError(t, err)

	moves := f.moves(t, p.ID)
	last := moves[len(moves)-1]
	assert.Equal(t, stockmove.TypeAdjustment, last.Type)
	assert.Equal(t, adjustment.DefaultCorrectionReason, last.Reason)
	require.NotNil(t, last.Delta)
	assert.Equal(t, int64(-2), *last.Delta)
	require.NotNil(t, last.Note)
	assert.Equal(t, "salah input", *last.Note)
	assert.Equal(t, int64(2), last.Qty)
	assert.Equal(t, int64(6), last.StockAfter)
}

func TestAdjustStock_RequiresPrivilege(t *testing.T) {
	f := newFixture(t)
	p := f.createProduct(t, inventory.CreateProductCommand{Name: "Telur", Price: types.MustMoney("2"), OpeningStock: 2})

	_, err := f.svc.AdjustStock(f.cashier(), inventory.AdjustCommand{
		ProductID: p.ID, Kind: adjustment.KindMovement, Delta: 1,
	})
	assertCode(t, err, apperror.CodeForbidden)

	_, err = f.svc.Opname(f.cashier(), inventory.OpnameCommand{ProductID: p.ID, Target: 0})
	assertCode(t, err, apperror.CodeForbidden)
	assert.Equal(t, int64(2), f.product(t, p.ID).Stock)
}

func TestOpname(t *testing.T) {
	f := newFixture(t)
	p := f.createProduct(t, inventory.CreateProductCommand{Name: "Sabun", Price: types.MustMoney("4"), OpeningStock: 12})

	doc, err := f.svc.Opname(f.admin(), inventory.OpnameCommand{ProductID: p.ID, Target: 7})
	require.NoError(t, err)
	assert.Equal(t, adjustment.KindOpname, doc.Kind)
	assert.Equal(t, int64(-5), doc.Delta)
	assert.Equal(t, int64(7), f.product(t, p.ID).Stock)

	moves := f.moves(t, p.ID)
	last := moves[len(moves)-1]
	assert.Equal(t, stockmove.TypeOpname, last.Type)
	assert.Equal(t, int64(5), last.Qty)
	assert.Equal(t, int64(12), last.StockBefore)
	assert.Equal(t, int64(7), last.StockAfter)
	assert.Equal(t, adjustment.DefaultOpnameReason, last.Reason)

	_, err = f.svc.Opname(f.admin(), inventory.OpnameCommand{ProductID: p.ID, Target: -1})
	assertCode(t, err, apperror.CodeValidation)

	content := types.MustMoney("100")
	_, err = f.svc.Opname(f.admin(), inventory.OpnameCommand{ProductID: p.ID, Target: 1, TargetContent: &content})
	assertCode(t, err, apperror.CodeValidation)

	records := f.audit.Records(f.admin(), f.orgID)
	assert.Equal(t, audit.ActionStockOpname, records[len(records)-1].Action)
}

func TestOpname_MeasuredContent(t *testing.T) {
	f := newFixture(t)
	q := f.createProduct(t, inventory.CreateProductCommand{
		Name:           "Susu",
		Price:          types.MustMoney("45000"),
		HasMeasure:     true,
		MeasureUnit:    product.UnitML,
		ContentPerItem: types.MustMoney("1000"),
		OpeningStock:   3,
	})
	assertMoney(t, "3000", f.product(t, q.ID).StockContent)

	content := types.MustMoney("2500")
	doc, err := f.svc.Opname(f.admin(), inventory.OpnameCommand{ProductID: q.ID, Target: 3, TargetContent: &content})
	require.NoError(t, err)
	require.NotNil(t, doc.ContentAfter)
	assertMoney(t, "2500", *doc.ContentAfter)
	assertMoney(t, "2500", f.product(t, q.ID).StockContent)
}

func TestEditSaleTotal(t *testing.T) {
	f := newFixture(t)
	p := f.createProduct(t, inventory.CreateProductCommand{
		Name: "Kopi", Price: types.MustMoney("100"), OpeningStock: 5, OpeningCost: types.MustMoney("60"),
	})
	s, err := f.svc.Checkout(f.cashier(), inventory.CheckoutCommand{
		PaymentMethod: sale.MethodQRIS,
		Items:         []inventory.CheckoutLine{line(p.ID, "Kopi", 3, "100")},
	})
	require.NoError(t, err)

	_, err = f.svc.EditSaleTotal(f.cashier(), s.ID, types.MustMoney("360"))
	assertCode(t, err, apperror.CodeForbidden)

	edited, err := f.svc.EditSaleTotal(f.admin(), s.ID, types.MustMoney("360"))
	require.NoError(t, err)
	assertMoney(t, "360", edited.Total)
	assertMoney(t, "180", edited.Cogs)
	assertMoney(t, "180", edited.GrossProfit)
	assertMoney(t, "50", edited.Margin)
	assert.Equal(t, int64(2), f.product(t, p.ID).Stock, "stock is not touched")

	stored, err := f.svc.GetSale(f.admin(), s.ID)
	require.NoError(t, err)
	assertMoney(t, "360", stored.Total)
}

func TestCreateProduct_OpeningBalance(t *testing.T) {
	f := newFixture(t)
	p := f.createProduct(t, inventory.CreateProductCommand{
		Name: "Cokelat", Price: types.MustMoney("12"), OpeningStock: 6, OpeningCost: types.MustMoney("7"),
	})
	assert.Equal(t, int64(6), p.Stock)
	assertMoney(t, "7", p.AvgCost)

	moves := f.moves(t, p.ID)
	require.Len(t, moves, 1)
	assert.Equal(t, stockmove.TypeAdjustIn, moves[0].Type)
	assert.Equal(t, inventory.OpeningReason, moves[0].Reason)
	assert.Equal(t, int64(0), moves[0].StockBefore)
	assert.Equal(t, int64(6), moves[0].StockAfter)

	empty := f.createProduct(t, inventory.CreateProductCommand{Name: "Permen", Price: types.MustMoney("1")})
	assert.Empty(t, f.moves(t, empty.ID))
}

func TestOrganizationsAreIsolated(t *testing.T) {
	f := newFixture(t)
	p := f.createProduct(t, inventory.CreateProductCommand{Name: "Kopi", Price: types.MustMoney("10"), OpeningStock: 5})

	other := tenant.WithOrg(context.Background(), id.New())
	other = appctx.WithUser(other, &appctx.UserContext{UserID: "intruder", Privileged: true})

	_, err := f.svc.Checkout(other, inventory.CheckoutCommand{
		PaymentMethod: sale.MethodCash,
		Items:         []inventory.CheckoutLine{line(p.ID, "Kopi", 1, "10")},
	})
	assertCode(t, err, apperror.CodeNotFound)

	_, err = f.svc.Checkout(appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "x"}), inventory.CheckoutCommand{
		PaymentMethod: sale.MethodCash,
		Items:         []inventory.CheckoutLine{line(p.ID, "Kopi", 1, "10")},
	})
	assertCode(t, err, apperror.CodeUnauthorized)
	assert.Equal(t, int64(5), f.product(t, p.ID).Stock)
}
