package service

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/fintrack/internal/auth/domain"
	"github.com/aussiebroadwan/fintrack/internal/auth/store"
	"github.com/aussiebroadwan/fintrack/pkg/cryptox"
	"github.com/aussiebroadwan/fintrack/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	u := env.register(t, "bob", "bob@x.com", domain.RoleUser)

	tok, exp, err := env.tokens.IssueAccessToken(u)
	require.NoError(t, err)
	require.Equal(t, env.clock.Now().Add(time.Hour), exp)

	t.Run("claims match the user", func(t *testing.T) {
		claims, err := env.tokens.VerifyAccessToken(tok)
		require.NoError(t, err)
		require.Equal(t, u.ID, claims.UserID)
		require.Equal(t, u.ID, claims.Subject)
		require.Equal(t, u.Email, claims.Email)
		require.Equal(t, u.Username, claims.Username)
		require.Equal(t, "user", claims.Role)
		require.Equal(t, testIssuer, claims.Issuer)
	})

	t.Run("refresh secret cannot verify it", func(t *testing.T) {
		_, err := env.tokens.Refresh.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("tampered token is refused", func(t *testing.T) {
		_, err := env.tokens.VerifyAccessToken(tok[:len(tok)-2] + "xx")
		require.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("garbage is malformed", func(t *testing.T) {
		_, err := env.tokens.VerifyAccessToken("not-a-jwt")
		require.ErrorIs(t, err, ErrTokenInvalid)
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})
}

func TestAccessTokenExpires(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	u := env.register(t, "bob", "bob@x.com", domain.RoleUser)

	tok, _, err := env.tokens.IssueAccessToken(u)
	require.NoError(t, err)

	env.clock.Advance(time.Hour - time.Second)
	_, err = env.tokens.VerifyAccessToken(tok)
	require.NoError(t, err)

	env.clock.Advance(2 * time.Second)
	_, err = env.tokens.VerifyAccessToken(tok)
	require.ErrorIs(t, err, ErrTokenInvalid)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	u := env.register(t, "bob", "bob@x.com", domain.RoleUser)

	refresh, exp, err := env.tokens.IssueRefreshToken(env.ctx, u)
	require.NoError(t, err)
	require.Equal(t, env.clock.Now().Add(7*24*time.Hour), exp)

	rc, err := env.tokens.Refresh.Verify(refresh)
	require.NoError(t, err)
	require.Equal(t, jwtx.TokenTypeRefresh, rc.Type)
	require.Equal(t, u.ID, rc.UserID)
	require.Equal(t, "bob@x.com", rc.Email)
	require.Equal(t, "bob", rc.Username)
	require.Equal(t, "user", rc.Role)

	rec, err := env.store.RefreshTokens().GetRefreshTokenByHash(env.ctx, cryptox.FingerprintToken(refresh))
	require.NoError(t, err)
	require.Equal(t, u.ID, rec.UserID)

	access, _, err := env.tokens.RotateAccessToken(env.ctx, refresh)
	require.NoError(t, err)
	claims, err := env.tokens.VerifyAccessToken(access)
	require.NoError(t, err)
	require.Equal(t, u.ID, claims.UserID)

	// Not rotated: the same refresh token still works.
	_, _, err = env.tokens.RotateAccessToken(env.ctx, refresh)
	require.NoError(t, err)

	require.NoError(t, env.tokens.Revoke(env.ctx, refresh))
	_, _, err = env.tokens.RotateAccessToken(env.ctx, refresh)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRefreshTokenRules(t *testing.T) {
	t.Parallel()

	t.Run("access token is not a refresh token", func(t *testing.T) {
		env := newEnv(t)
		u := env.register(t, "bob", "bob@x.com", domain.RoleUser)
		access, _, err := env.tokens.IssueAccessToken(u)
		require.NoError(t, err)

		_, err = env.tokens.VerifyRefreshToken(env.ctx, access)
		require.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		env := newEnv(t)
		u := env.register(t, "bob", "bob@x.com", domain.RoleUser)
		refresh, _, err := env.tokens.IssueRefreshToken(env.ctx, u)
		require.NoError(t, err)

		_, err = env.tokens.VerifyAccessToken(refresh)
		require.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("expired token row is removed", func(t *testing.T) {
		env := newEnv(t)
		u := env.register(t, "bob", "bob@x.com", domain.RoleUser)
		refresh, _, err := env.tokens.IssueRefreshToken(env.ctx, u)
		require.NoError(t, err)

		env.clock.Advance(7*24*time.Hour + time.Minute)
		_, err = env.tokens.VerifyRefreshToken(env.ctx, refresh)
		require.ErrorIs(t, err, ErrTokenInvalid)
		require.ErrorIs(t, err, jwtx.ErrExpired)

		_, err = env.store.RefreshTokens().GetRefreshTokenByHash(env.ctx, cryptox.FingerprintToken(refresh))
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("deleted user cannot refresh", func(t *testing.T) {
		env := newEnv(t)
		u := env.register(t, "bob", "bob@x.com", domain.RoleUser)
		refresh, _, err := env.tokens.IssueRefreshToken(env.ctx, u)
		require.NoError(t, err)

		require.NoError(t, env.store.Users().DeleteUser(env.ctx, u.ID))
		_, err = env.tokens.VerifyRefreshToken(env.ctx, refresh)
		require.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("issuing for a missing user is a storage error", func(t *testing.T) {
		env := newEnv(t)
		_, _, err := env.tokens.IssueRefreshToken(env.ctx, domain.User{ID: "01HZZZZZZZZZZZZZZZZZZZZZZZ"})
		require.ErrorIs(t, err, ErrStorage)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("revoke all drops every token", func(t *testing.T) {
		env := newEnv(t)
		u := env.register(t, "bob", "bob@x.com", domain.RoleUser)
		r1, _, err := env.tokens.IssueRefreshToken(env.ctx, u)
		require.NoError(t, err)
		r2, _, err := env.tokens.IssueRefreshToken(env.ctx, u)
		require.NoError(t, err)
		require.NotEqual(t, r1, r2)

		require.NoError(t, env.tokens.RevokeAll(env.ctx, u.ID))
		for _, r := range []string{r1, r2} {
			_, err := env.tokens.VerifyRefreshToken(env.ctx, r)
			require.ErrorIs(t, err, ErrTokenInvalid)
		}
	})
}
