// Package tenant carries the organization partition key.
//
// Every product, stock move and document belongs to exactly one organization.
// Repositories read the organization from context and never fall back to an
// unscoped query: a context without an organization is a caller error.
package tenant

import (
	"context"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/id"
)

type ctxKey int

const orgKey ctxKey = iota

// WithOrg stores the organization id in context.
func WithOrg(ctx context.Context, orgID id.ID) context.Context {
	return context.WithValue(ctx, orgKey, orgID)
}

// OrgID returns the organization id from context.
func OrgID(ctx context.Context) (id.ID, bool) {
	v, ok := ctx.Value(orgKey).(id.ID)
	if !ok || id.IsNil(v) {
		return id.Nil(), false
	}
	return v, true
}

// RequireOrg returns the organization id or an Unauthorized error.
func RequireOrg(ctx context.Context) (id.ID, error) {
	v, ok := OrgID(ctx)
	if !ok {
		return id.Nil(), apperror.NewUnauthorized("organization context required")
	}
	return v, nil
}

// MustOrg returns the organization id or panics.
// Use only where a missing organization is a programming error (repositories
// called after the service already checked).
func MustOrg(ctx context.Context) id.ID {
	v, ok := OrgID(ctx)
	if !ok {
		panic("organization not in context")
	}
	return v
}
