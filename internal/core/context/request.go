package context

import (
	"context"

	"github.com/google/uuid"
)

// Request identifies one call into the engine. It is attached once at the
// edge and later enriched in place (the idempotency key is only known after
// the idempotency middleware has run).
type Request struct {
	ID             string
	TraceID        string
	IdempotencyKey string
}

type requestKey struct{}

// NewRequest keeps an incoming request id or generates one.
func NewRequest(incomingID string) *Request {
	if incomingID == "" {
		incomingID = uuid.NewString()
	}
	return &Request{ID: incomingID}
}

// WithRequest attaches r to ctx.
func WithRequest(ctx context.Context, r *Request) context.Context {
	return context.WithValue(ctx, requestKey{}, r)
}

// RequestFrom returns the request attached to ctx, or nil for calls that did
// not come through the HTTP edge (stockctl, the worker, tests).
func RequestFrom(ctx context.Context) *Request {
	r, _ := ctx.Value(requestKey{}).(*Request)
	return r
}
