// Package context carries the caller and request identity through an
// engine operation.
package context

import "context"

// UserContext is the authenticated caller of an engine operation.
// Privileged is decided once by the authorization collaborator
// (security.Authorizer) and read at every privileged call site.
type UserContext struct {
	UserID     string
	Email      string
	Roles      []string
	Privileged bool
}

type userKey struct{}

// WithUser attaches the caller to ctx.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// GetUser returns the caller on ctx or nil.
func GetUser(ctx context.Context) *UserContext {
	u, _ := ctx.Value(userKey{}).(*UserContext)
	return u
}

// Actor returns who to stamp on audit records and stored keys.
// Both values are empty for anonymous contexts.
func Actor(ctx context.Context) (uid, email string) {
	if u := GetUser(ctx); u != nil {
		return u.UserID, u.Email
	}
	return "", ""
}
