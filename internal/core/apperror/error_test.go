package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsAppError_ThroughWrapping(t *testing.T) {
	base := NewInsufficientStock("Kopi", 5, 2)
	wrapped := fmt.Errorf("checkout: %w", base)

	got, ok := AsAppError(wrapped)
	assert.True(t, ok)
	assert.Same(t, base, got)
	assert.Equal(t, http.StatusUnprocessableEntity, GetHTTPStatus(wrapped))
	assert.Equal(t, int64(2), got.Details["available"])
}

func TestGetHTTPStatus_PlainErrorIsInternal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(errors.New("x")))
}

func TestTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"lock held", NewLockNotObtained("stock:p1"), true},
		{"version race", NewConcurrentModification("product", "p1"), true},
		{"key in flight", NewIdempotencyConflict("k"), true},
		{"database down", NewDatabase(errors.New("dial tcp")), true},
		{"short stock", NewInsufficientStock("Kopi", 2, 1), false},
		{"key reused", NewIdempotencyMismatch("k"), false},
		{"plain", errors.New("boom"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Transient(fmt.Errorf("wrap: %w", tc.err)))
		})
	}
}

func TestInternal_HidesCause(t *testing.T) {
	cause := errors.New("pq: connection reset")
	e := NewInternal(cause)
	assert.NotContains(t, e.Message, "connection")
	assert.ErrorIs(t, e, cause)
}

func TestDatabase_IsUnavailable(t *testing.T) {
	cause := errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")
	e := NewDatabase(cause)
	assert.Equal(t, http.StatusServiceUnavailable, e.HTTPStatus)
	assert.NotContains(t, e.Message, "5432")
	assert.ErrorIs(t, e, cause)
}
