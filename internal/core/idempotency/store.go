// Package idempotency defines the request de-duplication store used by the
// HTTP layer, so a checkout retried by a flaky till is committed once.
package idempotency

import (
	"context"
	"time"

	"stockcore/internal/core/id"
)

// Status of a key.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// StaleAfter is how long a pending key may be held before another request
// reclaims it (the first request most likely crashed).
const StaleAfter = time.Minute

// Request identifies one attempt.
type Request struct {
	OrgID       id.ID
	Key         string
	UserID      string
	Operation   string
	RequestHash string
}

// Replay is a stored response returned instead of re-running the handler.
type Replay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Store persists keys and their responses.
//
// Acquire returns (nil, nil) when the caller owns the key and must run the
// request, a Replay when the key already completed, or an error when the
// key is in flight (IDEMPOTENCY_CONFLICT) or was used for a different
// request (IDEMPOTENCY_MISMATCH). Release drops a pending key so the same
// request can be retried at once; completed keys are left alone.
type Store interface {
	Acquire(ctx context.Context, req Request) (*Replay, error)
	Complete(ctx context.Context, req Request, status Status, replay Replay) error
	Release(ctx context.Context, req Request) error
}

// Retryable reports whether a response with status code must not be stored,
// so the client can retry with the same key: server errors and conflicts
// (concurrent modification, lock not obtained).
func Retryable(statusCode int) bool {
	return statusCode >= 500 || statusCode == 409
}

// NormalizeReplay fills defaults for rows stored without status or content type.
func NormalizeReplay(r Replay) Replay {
	if r.StatusCode == 0 {
		r.StatusCode = 200
	}
	if r.ContentType == "" {
		r.ContentType = "application/json"
	}
	return r
}
