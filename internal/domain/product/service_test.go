package product_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockcore/internal/core/apperror"
	appctx "stockcore/internal/core/context"
	"stockcore/internal/core/id"
	"stockcore/internal/core/tenant"
	"stockcore/internal/core/types"
	"stockcore/internal/domain/product"
	"stockcore/internal/infrastructure/storage/memory"
)

func setup(t *testing.T) (*product.Service, *memory.Store, id.ID) {
	t.Helper()
	store := memory.NewStore()
	return product.NewService(store.Products(), store), store, id.New()
}

func userCtx(orgID id.ID, privileged bool) context.Context {
	ctx := tenant.WithOrg(context.Background(), orgID)
	return appctx.WithUser(ctx, &appctx.UserContext{UserID: "u1", Privileged: privileged})
}

func seed(t *testing.T, store *memory.Store, orgID id.ID, name string, stock, minStock int64) *product.Product {
	t.Helper()
	p := product.NewProduct(orgID, name, "umum", types.MustMoney("10"))
	p.Stock = stock
	p.MinStock = minStock
	require.NoError(t, store.Products().Create(userCtx(orgID, true), p))
	return p
}

func TestService_UpdateDetails_PriceRequiresPrivilege(t *testing.T) {
	svc, store, orgID := setup(t)
	p := seed(t, store, orgID, "Kopi", 5, 0)

	price := types.MustMoney("12")
	_, err := svc.UpdateDetails(userCtx(orgID, false), p.ID, product.Details{Price: &price})
	assert.True(t, apperror.Is(err, apperror.CodeForbidden), "got %v", err)

	name := "Kopi Hitam"
	updated, err := svc.UpdateDetails(userCtx(orgID, false), p.ID, product.Details{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Kopi Hitam", updated.Name)

	updated, err = svc.UpdateDetails(userCtx(orgID, true), p.ID, product.Details{Price: &price})
	require.NoError(t, err)
	assert.True(t, price.Equal(updated.Price))
	assert.Equal(t, int64(5), updated.Stock, "ledger is untouched")
}

func TestService_UpdateDetails_RunsHooks(t *testing.T) {
	svc, store, orgID := setup(t)
	p := seed(t, store, orgID, "Teh", 1, 0)

	var seen *product.Change
	svc.Hooks().OnAfterUpdate(func(_ context.Context, c *product.Change) error {
		seen = c
		return nil
	})

	name := "Teh Manis"
	_, err := svc.UpdateDetails(userCtx(orgID, false), p.ID, product.Details{Name: &name})
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, "Teh", seen.Before.Name)
	assert.Equal(t, "Teh Manis", seen.After.Name)
}

func TestService_LowStock(t *testing.T) {
	svc, store, orgID := setup(t)
	seed(t, store, orgID, "Air", 2, 5)
	seed(t, store, orgID, "Roti", 10, 5)
	seed(t, store, orgID, "Gula", 0, 0)
	seed(t, store, id.New(), "Other org", 0, 5)

	low, err := svc.LowStock(userCtx(orgID, false))
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "Air", low[0].Name)
}

func TestService_RequiresOrganization(t *testing.T) {
	svc, _, _ := setup(t)
	_, err := svc.Get(context.Background(), id.New())
	assert.True(t, apperror.Is(err, apperror.CodeUnauthorized))

	_, err = svc.Get(userCtx(id.New(), false), id.New())
	assert.True(t, apperror.IsNotFound(err))
}
