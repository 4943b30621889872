package app

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/fintrack/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"AUTH_ISSUER", "DATABASE_DRIVER", "ACCESS_TOKEN_TTL", "RATELIMIT_MAX_ATTEMPTS", "RATELIMIT_WINDOW", "RATELIMIT_BAN", "PORT", "TRUSTED_PROXIES"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()
	require.Equal(t, "fintrack-auth", cfg.Issuer)
	require.Equal(t, "sqlite", cfg.DatabaseDriver)
	require.Equal(t, time.Hour, cfg.AccessTTL)
	require.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
	require.Equal(t, 5, cfg.RateLimitMaxAttempts)
	require.Equal(t, 60*time.Second, cfg.RateLimitWindow)
	require.Equal(t, 30*time.Second, cfg.RateLimitBan)
	require.Equal(t, 8080, cfg.Port)
	require.Empty(t, cfg.TrustedProxies)
	require.False(t, cfg.SeedAdmin())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("RATELIMIT_WINDOW", "120")
	t.Setenv("RATELIMIT_MAX_ATTEMPTS", "nope")
	t.Setenv("ADMIN_USERNAME", "root")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8")

	cfg := LoadConfig()
	require.Equal(t, "postgres", cfg.DatabaseDriver)
	require.Equal(t, 15*time.Minute, cfg.AccessTTL)
	require.Equal(t, 2*time.Minute, cfg.RateLimitWindow, "bare integers are seconds")
	require.Equal(t, 5, cfg.RateLimitMaxAttempts, "unparsable values fall back")
	require.True(t, cfg.SeedAdmin())
	require.Equal(t, "10.0.0.0/8", cfg.TrustedProxies)
}

func TestLoadSecrets(t *testing.T) {
	t.Parallel()

	long := "0123456789abcdef0123456789abcdef"

	t.Run("configured", func(t *testing.T) {
		t.Parallel()
		s, err := LoadSecrets(Config{Env: "prod", AccessSecret: long, RefreshSecret: long + "r", CaptchaSecret: long + "c"}, slogx.Discard())
		require.NoError(t, err)
		require.Equal(t, []byte(long), s.Access)
	})

	t.Run("missing in prod", func(t *testing.T) {
		t.Parallel()
		_, err := LoadSecrets(Config{Env: "prod", AccessSecret: long}, slogx.Discard())
		require.ErrorIs(t, err, ErrMissingSecret)
	})

	t.Run("generated elsewhere", func(t *testing.T) {
		t.Parallel()
		s, err := LoadSecrets(Config{Env: "dev"}, slogx.Discard())
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(s.Access), 32)
		require.NotEqual(t, s.Access, s.Refresh)
	})

	t.Run("too short", func(t *testing.T) {
		t.Parallel()
		_, err := LoadSecrets(Config{Env: "dev", AccessSecret: "short"}, slogx.Discard())
		require.Error(t, err)
	})
}
