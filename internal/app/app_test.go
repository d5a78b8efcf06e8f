package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockcore/internal/app"
	"stockcore/internal/config"
	"stockcore/internal/core/id"
	"stockcore/pkg/logger"
)

func TestBuild_InMemory(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	require.False(t, cfg.UsesPostgres())

	a, err := app.Build(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Pool)
	assert.Nil(t, a.PgIdempotency)
	assert.NotNil(t, a.Idempotency)
	assert.NotNil(t, a.Metrics)

	org := id.New()
	tok, _, err := a.JWT.GenerateAccessToken("u-1", org, "owner@toko.test", []string{"owner"})
	require.NoError(t, err)

	p, err := a.JWT.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, org, p.OrgID)
	assert.True(t, p.User.Privileged)
}

func TestBuild_BadPolicy(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Auth.PrivilegedPolicy = "roles.exists(r, "

	_, err = app.Build(context.Background(), cfg, logger.Nop())
	assert.Error(t, err)
}
