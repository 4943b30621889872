package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/fintrack/pkg/cryptox"
	"github.com/aussiebroadwan/fintrack/pkg/jwtx"
)

var ErrMissingSecret = errors.New("missing_secret")

// Secrets are the process-wide HMAC keys, loaded once at startup.
type Secrets struct {
	Access  []byte
	Refresh []byte
	Captcha []byte
}

// LoadSecrets reads the three signing secrets from cfg. In prod a missing
// secret is fatal; elsewhere a random one is generated for this process and
// every token it signs dies with it.
func LoadSecrets(cfg Config, logger *slog.Logger) (Secrets, error) {
	var s Secrets
	var err error

	if s.Access, err = loadSecret(cfg, logger, "ACCESS_TOKEN_SECRET", cfg.AccessSecret); err != nil {
		return Secrets{}, err
	}
	if s.Refresh, err = loadSecret(cfg, logger, "REFRESH_TOKEN_SECRET", cfg.RefreshSecret); err != nil {
		return Secrets{}, err
	}
	if s.Captcha, err = loadSecret(cfg, logger, "CAPTCHA_SECRET", cfg.CaptchaSecret); err != nil {
		return Secrets{}, err
	}

	return s, nil
}

func loadSecret(cfg Config, logger *slog.Logger, name, value string) ([]byte, error) {
	if value != "" {
		if len(value) < jwtx.MinSecretLength {
			return nil, fmt.Errorf("%s must be at least %d bytes", name, jwtx.MinSecretLength)
		}
		return []byte(value), nil
	}

	if cfg.Env == "prod" {
		return nil, fmt.Errorf("%w: %s", ErrMissingSecret, name)
	}

	generated, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", name, err)
	}
	logger.Warn("secret not configured, using a random per-process value", "name", name, "env", cfg.Env)
	return []byte(generated), nil
}
