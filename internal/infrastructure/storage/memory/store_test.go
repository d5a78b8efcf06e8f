package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockcore/internal/core/id"
	"stockcore/internal/core/numerator"
)

func TestRunInTransaction_RollbackRestoresCounters(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	n := s.Numerator()
	org := id.New()
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	boom := errors.New("boom")
	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		num, err := n.Next(ctx, org, numerator.SaleNumbers, day)
		require.NoError(t, err)
		assert.Equal(t, "S-2026-00001", num)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	assert.Panics(t, func() {
		_ = s.RunInTransaction(ctx, func(ctx context.Context) error {
			_, _ = n.Next(ctx, org, numerator.SaleNumbers, day)
			panic("handler bug")
		})
	})

	num, err := n.Next(ctx, org, numerator.SaleNumbers, day)
	require.NoError(t, err)
	assert.Equal(t, "S-2026-00001", num, "rolled back numbers are reused")
}

func TestRunInTransaction_NestedJoins(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	n := s.Numerator()
	org := id.New()
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.RunInTransaction(ctx, func(ctx context.Context) error {
			_, err := n.Next(ctx, org, numerator.PurchaseNumbers, day)
			return err
		})
	})
	require.NoError(t, err)

	num, err := n.Next(ctx, org, numerator.PurchaseNumbers, day)
	require.NoError(t, err)
	assert.Equal(t, "P-2026-00002", num)
}
