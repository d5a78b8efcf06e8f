package lock_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockcore/internal/core/apperror"
	"stockcore/internal/infrastructure/lock"
)

// Runs against a real server: STOCKCORE_TEST_REDIS=localhost:6379.
func newLocker(t *testing.T) *lock.RedisLocker {
	t.Helper()
	addr := os.Getenv("STOCKCORE_TEST_REDIS")
	if addr == "" {
		t.Skip("STOCKCORE_TEST_REDIS not set")
	}
	l, err := lock.NewRedisLocker(context.Background(), lock.Config{
		Addr: addr,
		TTL:  5 * time.Second,
		Wait: 200 * time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestRedisLocker_HeldKeyIsNotObtained(t *testing.T) {
	l := newLocker(t)
	ctx := context.Background()
	keys := []string{"stock:test:" + t.Name() + ":a", "stock:test:" + t.Name() + ":b"}

	release, err := l.Lock(ctx, keys)
	require.NoError(t, err)

	_, err = l.Lock(ctx, keys[1:])
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeLockNotObtained, appErr.Code)

	release()

	again, err := l.Lock(ctx, keys)
	require.NoError(t, err)
	again()
}

func TestRedisLocker_PartialFailureReleasesTakenKeys(t *testing.T) {
	l := newLocker(t)
	ctx := context.Background()
	a := "stock:test:" + t.Name() + ":a"
	b := "stock:test:" + t.Name() + ":b"

	holdB, err := l.Lock(ctx, []string{b})
	require.NoError(t, err)

	_, err = l.Lock(ctx, []string{a, b})
	require.Error(t, err)

	// a was obtained then released when b failed.
	relA, err := l.Lock(ctx, []string{a})
	require.NoError(t, err)
	relA()
	holdB()
}
