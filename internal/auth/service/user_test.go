package service

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/fintrack/internal/auth/domain"
	"github.com/aussiebroadwan/fintrack/internal/auth/store"
	"github.com/stretchr/testify/require"
)

func TestUpdateProfile(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	u := env.register(t, "ivy", "ivy@x.com", domain.RoleUser)
	env.register(t, "jack", "jack@x.com", domain.RoleUser)

	env.clock.Advance(time.Minute)
	got, err := env.users.UpdateProfile(env.ctx, u.ID, ProfileUpdate{Email: " IVY2@x.com ", Currency: "pln"})
	require.NoError(t, err)
	require.Equal(t, "ivy", got.Username)
	require.Equal(t, "ivy2@x.com", got.Email)
	require.Equal(t, domain.CurrencyPLN, got.Currency)

	stored, err := env.users.Profile(env.ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "ivy2@x.com", stored.Email)
	require.True(t, stored.UpdatedAt.After(stored.CreatedAt))

	t.Run("unsupported currency", func(t *testing.T) {
		_, err := env.users.UpdateProfile(env.ctx, u.ID, ProfileUpdate{Currency: "GBP"})
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("taken username", func(t *testing.T) {
		_, err := env.users.UpdateProfile(env.ctx, u.ID, ProfileUpdate{Username: "jack"})
		require.ErrorIs(t, err, ErrConflict)
	})

	t.Run("own values are not a conflict", func(t *testing.T) {
		_, err := env.users.UpdateProfile(env.ctx, u.ID, ProfileUpdate{Username: "ivy", Email: "ivy2@x.com"})
		require.NoError(t, err)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := env.users.Profile(env.ctx, "01HZZZZZZZZZZZZZZZZZZZZZZZ")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestChangePassword(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	u := env.register(t, "kate", "kate@x.com", domain.RoleUser)

	_, pair, err := env.auth.Login(env.ctx, "kate", testPassword, domain.RoleUser)
	require.NoError(t, err)

	const next = "N3w-Passw0rd"

	t.Run("confirmation must match", func(t *testing.T) {
		err := env.users.ChangePassword(env.ctx, u.ID, testPassword, next, next+"x")
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("weak new password", func(t *testing.T) {
		err := env.users.ChangePassword(env.ctx, u.ID, testPassword, "weak", "weak")
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("wrong current password", func(t *testing.T) {
		err := env.users.ChangePassword(env.ctx, u.ID, "Wr0ng!pass", next, next)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	require.NoError(t, env.users.ChangePassword(env.ctx, u.ID, testPassword, next, next))

	_, _, err = env.auth.Refresh(env.ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrTokenInvalid, "old sessions are revoked")

	_, _, err = env.auth.Login(env.ctx, "kate", testPassword, domain.RoleUser)
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = env.auth.Login(env.ctx, "kate", next, domain.RoleUser)
	require.NoError(t, err)
}

func TestDeleteAccount(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	u := env.register(t, "liam", "liam@x.com", domain.RoleUser)

	_, pair, err := env.auth.Login(env.ctx, "liam", testPassword, domain.RoleUser)
	require.NoError(t, err)

	require.NoError(t, env.users.DeleteAccount(env.ctx, u.ID))

	_, err = env.store.Users().GetUserByID(env.ctx, u.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
	_, _, err = env.auth.Refresh(env.ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrTokenInvalid)

	require.ErrorIs(t, env.users.DeleteAccount(env.ctx, u.ID), ErrNotFound)
}
