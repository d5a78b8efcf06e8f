package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockcore/internal/core/id"
	"stockcore/internal/core/security"
)

func newService(t *testing.T, secret string) *JWTService {
	t.Helper()
	authz, err := security.NewAuthorizer("")
	require.NoError(t, err)
	return NewJWTService(DefaultJWTConfig(secret), authz)
}

func TestJWT_RoundTripResolvesPrivilege(t *testing.T) {
	svc := newService(t, "secret")
	org := id.New()

	tests := []struct {
		name       string
		roles      []string
		privileged bool
	}{
		{"owner", []string{security.RoleOwner}, true},
		{"admin", []string{security.RoleAdmin}, true},
		{"cashier", []string{security.RoleCashier}, false},
		{"no roles", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, exp, err := svc.GenerateAccessToken("u-1", org, "u@example.com", tt.roles)
			require.NoError(t, err)
			assert.WithinDuration(t, time.Now().Add(12*time.Hour), exp, time.Minute)

			p, err := svc.ValidateToken(token)
			require.NoError(t, err)
			assert.Equal(t, org, p.OrgID)
			assert.Equal(t, "u-1", p.User.UserID)
			assert.Equal(t, "u@example.com", p.User.Email)
			assert.Equal(t, tt.privileged, p.User.Privileged)
		})
	}
}

func TestJWT_RejectsForeignSignature(t *testing.T) {
	token, _, err := newService(t, "one").GenerateAccessToken("u-1", id.New(), "", nil)
	require.NoError(t, err)

	_, err = newService(t, "two").ValidateToken(token)
	assert.Error(t, err)
}

func TestJWT_RequiresOrg(t *testing.T) {
	_, _, err := newService(t, "s").GenerateAccessToken("u-1", id.Nil(), "", nil)
	assert.Error(t, err)
}
