package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/fintrack/internal/auth/domain"
	"github.com/aussiebroadwan/fintrack/internal/auth/store"
	"github.com/aussiebroadwan/fintrack/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/fintrack/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newUser(username, email string) domain.User {
	now := time.Now().UTC().Truncate(time.Second)
	return domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		Role:         domain.RoleUser,
		Currency:     domain.DefaultCurrency,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestUsers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newStore(t)

	alice := newUser("alice", "alice@example.com")
	require.NoError(t, st.Users().CreateUser(ctx, alice))

	t.Run("lookups", func(t *testing.T) {
		got, err := st.Users().GetUserByID(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, alice, got)

		got, err = st.Users().GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, alice.ID, got.ID)

		got, err = st.Users().GetUserByEmail(ctx, "ALICE@example.com")
		require.NoError(t, err)
		require.Equal(t, alice.ID, got.ID)

		_, err = st.Users().GetUserByID(ctx, "missing")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("identifier resolves username or email", func(t *testing.T) {
		got, err := st.Users().GetUserByIdentifier(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, alice.ID, got.ID)

		got, err = st.Users().GetUserByIdentifier(ctx, "alice@example.com")
		require.NoError(t, err)
		require.Equal(t, alice.ID, got.ID)

		_, err = st.Users().GetUserByIdentifier(ctx, "nobody")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicates rejected", func(t *testing.T) {
		err := st.Users().CreateUser(ctx, newUser("alice", "other@example.com"))
		require.ErrorIs(t, err, store.ErrAlreadyExists)

		err = st.Users().CreateUser(ctx, newUser("alice2", "Alice@Example.com"))
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("profile and password updates", func(t *testing.T) {
		u := alice
		u.Currency = domain.CurrencyEUR
		u.UpdatedAt = u.UpdatedAt.Add(time.Minute)
		require.NoError(t, st.Users().UpdateProfile(ctx, u))
		require.NoError(t, st.Users().UpdatePasswordHash(ctx, alice.ID, "new-hash", u.UpdatedAt))

		got, err := st.Users().GetUserByID(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, domain.CurrencyEUR, got.Currency)
		require.Equal(t, "new-hash", got.PasswordHash)

		require.ErrorIs(t, st.Users().UpdatePasswordHash(ctx, "missing", "x", time.Now()), store.ErrNotFound)
	})

	t.Run("count by role", func(t *testing.T) {
		n, err := st.Users().CountByRole(ctx, domain.RoleAdmin)
		require.NoError(t, err)
		require.Zero(t, n)

		n, err = st.Users().CountByRole(ctx, domain.RoleUser)
		require.NoError(t, err)
		require.Equal(t, 1, n)
	})
}

func TestRefreshTokens(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newStore(t)

	u := newUser("bob", "bob@example.com")
	require.NoError(t, st.Users().CreateUser(ctx, u))

	now := time.Now().UTC().Truncate(time.Second)
	live := domain.RefreshToken{ID: idx.New().String(), UserID: u.ID, TokenHash: "live", ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	stale := domain.RefreshToken{ID: idx.New().String(), UserID: u.ID, TokenHash: "stale", ExpiresAt: now.Add(-time.Hour), CreatedAt: now}
	flagged := domain.RefreshToken{ID: idx.New().String(), UserID: u.ID, TokenHash: "flagged", ExpiresAt: now.Add(time.Hour), Expired: true, CreatedAt: now}

	for _, rt := range []domain.RefreshToken{live, stale, flagged} {
		require.NoError(t, st.RefreshTokens().CreateRefreshToken(ctx, rt))
	}

	got, err := st.RefreshTokens().GetRefreshTokenByHash(ctx, "live")
	require.NoError(t, err)
	require.Equal(t, live, got)

	t.Run("unknown user is refused", func(t *testing.T) {
		err := st.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
			ID: idx.New().String(), UserID: "ghost", TokenHash: "ghost", ExpiresAt: now, CreatedAt: now,
		})
		require.Error(t, err)
	})

	n, err := st.RefreshTokens().DeleteExpiredRefreshTokens(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	_, err = st.RefreshTokens().GetRefreshTokenByHash(ctx, "stale")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, st.RefreshTokens().DeleteRefreshToken(ctx, "does-not-exist"))

	// Deleting the user cascades
	require.NoError(t, st.Users().DeleteUser(ctx, u.ID))
	_, err = st.RefreshTokens().GetRefreshTokenByHash(ctx, "live")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRateLimits(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newStore(t)

	u := newUser("carol", "carol@example.com")
	require.NoError(t, st.Users().CreateUser(ctx, u))

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	insert := func(rec domain.RateLimitRecord) {
		t.Helper()
		rec.ID = idx.NewAt(rec.CreatedAt).String()
		require.NoError(t, st.RateLimits().InsertRateLimit(ctx, rec))
	}

	for i := range 3 {
		insert(domain.RateLimitRecord{IP: "1.2.3.4", Endpoint: domain.EndpointUserLogin, CreatedAt: base.Add(time.Duration(i) * time.Second)})
	}
	insert(domain.RateLimitRecord{IP: "1.2.3.4", Endpoint: domain.EndpointUserRegistration, CreatedAt: base})

	t.Run("count window", func(t *testing.T) {
		n, err := st.RateLimits().CountAttemptsSince(ctx, "1.2.3.4", domain.EndpointUserLogin, base)
		require.NoError(t, err)
		require.Equal(t, 3, n)

		n, err = st.RateLimits().CountAttemptsSince(ctx, "1.2.3.4", domain.EndpointUserLogin, base.Add(1500*time.Millisecond))
		require.NoError(t, err)
		require.Equal(t, 1, n)
	})

	t.Run("latest ban", func(t *testing.T) {
		_, err := st.RateLimits().LatestBan(ctx, "1.2.3.4", domain.EndpointUserLogin, "")
		require.ErrorIs(t, err, store.ErrNotFound)

		early := base.Add(10 * time.Second)
		late := base.Add(30 * time.Second)
		insert(domain.RateLimitRecord{IP: "1.2.3.4", Endpoint: domain.EndpointUserLogin, BlockedUntil: &late, RequireCaptcha: true, CreatedAt: base.Add(3 * time.Second)})
		insert(domain.RateLimitRecord{IP: "1.2.3.4", Endpoint: domain.EndpointUserLogin, UserID: u.ID, BlockedUntil: &early, CreatedAt: base.Add(4 * time.Second)})

		got, err := st.RateLimits().LatestBan(ctx, "1.2.3.4", domain.EndpointUserLogin, "")
		require.NoError(t, err)
		require.Equal(t, late, *got.BlockedUntil)
		require.True(t, got.RequireCaptcha)
		require.Empty(t, got.UserID)

		got, err = st.RateLimits().LatestBan(ctx, "1.2.3.4", domain.EndpointUserLogin, u.ID)
		require.NoError(t, err)
		require.Equal(t, early, *got.BlockedUntil)
		require.Equal(t, u.ID, got.UserID)

		// Ban rows are not attempts
		n, err := st.RateLimits().CountAttemptsSince(ctx, "1.2.3.4", domain.EndpointUserLogin, base)
		require.NoError(t, err)
		require.Equal(t, 3, n)
	})

	t.Run("retention keeps active bans", func(t *testing.T) {
		now := base.Add(20 * time.Second)
		n, err := st.RateLimits().DeleteRateLimitsBefore(ctx, now, now)
		require.NoError(t, err)
		// 4 attempts and the lapsed ban go, the ban running until base+30s stays
		require.EqualValues(t, 5, n)

		_, err = st.RateLimits().LatestBan(ctx, "1.2.3.4", domain.EndpointUserLogin, "")
		require.NoError(t, err)
	})

	t.Run("clear", func(t *testing.T) {
		_, err := st.RateLimits().ClearRateLimits(ctx)
		require.NoError(t, err)
		_, err = st.RateLimits().LatestBan(ctx, "1.2.3.4", domain.EndpointUserLogin, "")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestCaptchas(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, st.Captchas().ConsumeCaptcha(ctx, "jti-1", now.Add(time.Minute), now))
	require.ErrorIs(t, st.Captchas().ConsumeCaptcha(ctx, "jti-1", now.Add(time.Minute), now), store.ErrAlreadyExists)
	require.NoError(t, st.Captchas().ConsumeCaptcha(ctx, "jti-2", now.Add(time.Hour), now))

	n, err := st.Captchas().DeleteExpiredCaptchas(ctx, now.Add(2*time.Minute))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	// Once purged the jti is free again; the signed token has expired by then.
	require.NoError(t, st.Captchas().ConsumeCaptcha(ctx, "jti-1", now.Add(time.Minute), now))
}

func TestWithTxRollsBack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newStore(t)

	u := newUser("dave", "dave@example.com")
	err := st.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.Users().CreateUser(ctx, u))
		return store.ErrAlreadyExists
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	_, err = st.Users().GetUserByID(ctx, u.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, st.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().CreateUser(ctx, u)
	}))
	_, err = st.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
}

func TestNestedTx(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newStore(t)

	u := newUser("erin", "erin@example.com")
	err := st.WithTx(ctx, func(tx store.Tx) error {
		_, err := tx.Tx(ctx)
		require.ErrorIs(t, err, store.ErrNestedTx)

		// The inner call shares the outer transaction, so the outer
		// failure undoes the inner insert.
		require.NoError(t, tx.WithTx(ctx, func(inner store.Tx) error {
			return inner.Users().CreateUser(ctx, u)
		}))
		return store.ErrAlreadyExists
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	_, err = st.Users().GetUserByID(ctx, u.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}
