package app

import (
	"os"
	"strconv"
	"time"

	"github.com/aussiebroadwan/fintrack/internal/auth/service"
	"github.com/aussiebroadwan/fintrack/pkg/jwtx"
)

type Config struct {
	Issuer string // Optional: issuer claim for tokens (default: fintrack-auth)

	AccessSecret  string        // Required in prod: HS256 secret for access tokens (>= 32 bytes)
	RefreshSecret string        // Required in prod: HS256 secret for refresh tokens (>= 32 bytes)
	CaptchaSecret string        // Required in prod: HS256 secret for captcha challenges (>= 32 bytes)
	AccessTTL     time.Duration // Optional: access token lifetime (default: 1h)
	RefreshTTL    time.Duration // Optional: refresh token lifetime (default: 7d)

	DatabaseDriver string // Optional: sqlite or postgres (default: sqlite)
	DatabaseFile   string // Optional: path to SQLite database file (default: ./auth.db)
	DatabaseURL    string // Required for postgres: connection string
	PepperFile     string // Optional: path to file containing pepper for password hashing (default: ./pepper)

	RateLimitMaxAttempts int           // Optional: attempts per window before a ban (default: 5)
	RateLimitWindow      time.Duration // Optional: counting window (default: 60s)
	RateLimitBan         time.Duration // Optional: ban length (default: 30s)
	RateLimitRetention   time.Duration // Optional: how long housekeeping keeps attempt rows (default: 24h)

	AdminUsername string // Optional: seed admin created when no admin exists
	AdminEmail    string
	AdminPassword string

	TrustedProxies string // Optional: CIDRs allowed to set X-Forwarded-For / X-Real-IP (default: none)

	SentryDSN            string        // Optional: error reporting is disabled when empty
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		Issuer:        getEnvOrDefault("AUTH_ISSUER", "fintrack-auth"),
		AccessSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
		RefreshSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
		CaptchaSecret: os.Getenv("CAPTCHA_SECRET"),
		AccessTTL:     getEnvDurationOrDefault("ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:    getEnvDurationOrDefault("REFRESH_TOKEN_TTL", jwtx.DefaultRefreshTokenTTL),

		DatabaseDriver: getEnvOrDefault("DATABASE_DRIVER", "sqlite"),
		DatabaseFile:   getEnvOrDefault("DATABASE_FILE", "auth.db"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		PepperFile:     getEnvOrDefault("PEPPER_FILE", "pepper"),

		RateLimitMaxAttempts: getEnvIntOrDefault("RATELIMIT_MAX_ATTEMPTS", service.DefaultMaxAttempts),
		RateLimitWindow:      getEnvDurationOrDefault("RATELIMIT_WINDOW", service.DefaultWindow),
		RateLimitBan:         getEnvDurationOrDefault("RATELIMIT_BAN", service.DefaultBanDuration),
		RateLimitRetention:   getEnvDurationOrDefault("RATELIMIT_RETENTION", service.DefaultRateLimitRetention),

		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		TrustedProxies: os.Getenv("TRUSTED_PROXIES"),

		SentryDSN:            os.Getenv("SENTRY_DSN"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

// SeedAdmin reports whether any ADMIN_* variable was set.
func (c Config) SeedAdmin() bool {
	return c.AdminUsername != "" || c.AdminEmail != "" || c.AdminPassword != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Go duration syntax first ("1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds, matching the limiter's historical settings
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
