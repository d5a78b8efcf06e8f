package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/id"
	"stockcore/internal/core/idempotency"
)

func TestIdempotencyStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	s := NewIdempotencyStore()
	s.now = func() time.Time { return now }

	req := idempotency.Request{
		OrgID: id.New(), Key: "k-1", UserID: "kasir",
		Operation: "POST /api/v1/sales/checkout", RequestHash: "h1",
	}

	replay, err := s.Acquire(ctx, req)
	require.NoError(t, err)
	assert.Nil(t, replay, "first caller owns the key")

	_, err = s.Acquire(ctx, req)
	assert.True(t, apperror.Is(err, apperror.CodeIdempotencyConflict), "in-flight key conflicts")

	other := req
	other.RequestHash = "h2"
	_, err = s.Acquire(ctx, other)
	assert.True(t, apperror.Is(err, apperror.CodeIdempotencyMismatch))

	require.NoError(t, s.Complete(ctx, req, idempotency.StatusSuccess, idempotency.Replay{
		StatusCode: 201, ContentType: "application/json", Body: []byte(`{"id":"x"}`),
	}))

	replay, err = s.Acquire(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, replay)
	assert.Equal(t, 201, replay.StatusCode)
	assert.JSONEq(t, `{"id":"x"}`, string(replay.Body))

	require.NoError(t, s.Release(ctx, req))
	replay, err = s.Acquire(ctx, req)
	require.NoError(t, err)
	assert.NotNil(t, replay, "release leaves completed keys alone")
}

func TestIdempotencyStore_StalePendingIsReclaimed(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	s := NewIdempotencyStore()
	s.now = func() time.Time { return now }

	req := idempotency.Request{OrgID: id.New(), Key: "k", UserID: "u", Operation: "op", RequestHash: "h"}
	_, err := s.Acquire(ctx, req)
	require.NoError(t, err)

	now = now.Add(idempotency.StaleAfter + time.Second)
	replay, err := s.Acquire(ctx, req)
	require.NoError(t, err)
	assert.Nil(t, replay)
}

func TestIdempotencyStore_KeysAreScopedByOrg(t *testing.T) {
	ctx := context.Background()
	s := NewIdempotencyStore()

	a := idempotency.Request{OrgID: id.New(), Key: "same", UserID: "u", Operation: "op", RequestHash: "h"}
	b := a
	b.OrgID = id.New()

	_, err := s.Acquire(ctx, a)
	require.NoError(t, err)
	_, err = s.Acquire(ctx, b)
	assert.NoError(t, err)

	require.NoError(t, s.Release(ctx, a))
	_, err = s.Acquire(ctx, a)
	assert.NoError(t, err, "released key can be acquired again")
}
