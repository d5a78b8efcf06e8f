package security

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockcore/internal/core/apperror"
	appctx "stockcore/internal/core/context"
)

func TestAuthorizer_DefaultPolicy(t *testing.T) {
	a, err := NewAuthorizer("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPrivilegedPolicy, a.Expression())

	tests := []struct {
		roles []string
		want  bool
	}{
		{[]string{RoleOwner}, true},
		{[]string{RoleCashier, RoleAdmin}, true},
		{[]string{RoleCashier}, false},
		{nil, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, a.IsPrivileged("u1", tt.roles), "roles %v", tt.roles)
	}
}

func TestAuthorizer_CustomPolicy(t *testing.T) {
	a, err := NewAuthorizer(`uid == "root" || "supervisor" in roles`)
	require.NoError(t, err)
	assert.True(t, a.IsPrivileged("root", nil))
	assert.True(t, a.IsPrivileged("u2", []string{"supervisor"}))
	assert.False(t, a.IsPrivileged("u2", []string{RoleAdmin}))
}

func TestAuthorizer_RejectsBadPolicy(t *testing.T) {
	_, err := NewAuthorizer(`roles.size()`)
	assert.Error(t, err, "non-bool result")

	_, err = NewAuthorizer(`"admin" in`)
	assert.Error(t, err, "syntax error")
}

func TestRequirePrivileged(t *testing.T) {
	err := RequirePrivileged(context.Background(), OpAdjustStock)
	assert.True(t, apperror.Is(err, apperror.CodeUnauthorized))

	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "c1", Roles: []string{RoleCashier}})
	err = RequirePrivileged(ctx, OpVoidPurchase)
	assert.True(t, apperror.Is(err, apperror.CodeForbidden))

	ctx = appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "a1", Privileged: true})
	assert.NoError(t, RequirePrivileged(ctx, OpOpname))

	user, err := RequireUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a1", user.UserID)
}
