package service

import (
	"testing"

	"github.com/aussiebroadwan/fintrack/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestEnsureAdmin(t *testing.T) {
	t.Parallel()
	env := newEnv(t)

	_, err := env.auth.EnsureAdmin(env.ctx, "", "", "")
	require.ErrorIs(t, err, ErrBootstrapIncomplete)

	created, err := env.auth.EnsureAdmin(env.ctx, "admin", "admin@x.com", testPassword)
	require.NoError(t, err)
	require.True(t, created)

	created, err = env.auth.EnsureAdmin(env.ctx, "admin2", "admin2@x.com", testPassword)
	require.NoError(t, err)
	require.False(t, created)

	n, err := env.store.Users().CountByRole(env.ctx, domain.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, _, err = env.auth.Login(env.ctx, "admin", testPassword, domain.RoleAdmin)
	require.NoError(t, err)
}

func TestEnsureAdminWeakPassword(t *testing.T) {
	t.Parallel()
	env := newEnv(t)

	_, err := env.auth.EnsureAdmin(env.ctx, "admin", "admin@x.com", "admin")
	require.ErrorIs(t, err, ErrValidation)
}
