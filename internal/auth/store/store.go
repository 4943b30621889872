package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/fintrack/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	ErrNestedTx      = errors.New("store: nested transaction")
)

// Store is the root data access interface implemented by the sqlite and
// postgres drivers. Sub-repositories are reached through methods so a Tx
// exposes the same surface. Inside a Tx, WithTx joins the running
// transaction and Tx returns ErrNestedTx.
type Store interface {
	Users() Users
	RefreshTokens() RefreshTokens
	RateLimits() RateLimits
	Captchas() Captchas

	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller MUST Commit or Rollback.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername matches the username exactly.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// GetUserByEmail matches the email case-insensitively.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// GetUserByIdentifier resolves a login identifier that may be either a
	// username or an email. A username match wins over an email match.
	GetUserByIdentifier(ctx context.Context, identifier string) (domain.User, error)

	// CreateUser inserts u. A duplicate username or email returns
	// ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateProfile sets username, email and currency and bumps updated_at.
	UpdateProfile(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID, newHash string, now time.Time) error

	// DeleteUser removes the user. Refresh tokens cascade and rate-limit rows
	// lose their user reference.
	DeleteUser(ctx context.Context, userID string) error

	// CountByRole returns how many accounts hold role.
	CountByRole(ctx context.Context, role domain.Role) (int, error)
}

type RefreshTokens interface {
	// CreateRefreshToken inserts a refresh token record.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash looks a token up by its fingerprint.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// DeleteRefreshToken removes the record with the given fingerprint.
	// Deleting an unknown fingerprint is not an error.
	DeleteRefreshToken(ctx context.Context, hash string) error

	// DeleteUserRefreshTokens removes every refresh token of a user.
	DeleteUserRefreshTokens(ctx context.Context, userID string) (int64, error)

	// DeleteExpiredRefreshTokens removes records past expiry or flagged
	// expired, returning how many went.
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}

type RateLimits interface {
	// InsertRateLimit appends one attempt or ban row.
	InsertRateLimit(ctx context.Context, r domain.RateLimitRecord) error

	// LatestBan returns the row for (ip, endpoint) with the greatest
	// blocked_until. When userID is non-empty only rows for that user are
	// considered. ErrNotFound when no ban row exists.
	LatestBan(ctx context.Context, ip, endpoint, userID string) (domain.RateLimitRecord, error)

	// CountAttemptsSince counts plain attempt rows (no blocked_until) for
	// (ip, endpoint) created at or after since.
	CountAttemptsSince(ctx context.Context, ip, endpoint string, since time.Time) (int, error)

	// DeleteRateLimitsBefore removes rows created before cutoff whose ban, if
	// any, has lapsed by now.
	DeleteRateLimitsBefore(ctx context.Context, cutoff, now time.Time) (int64, error)

	// ClearRateLimits removes every row.
	ClearRateLimits(ctx context.Context) (int64, error)
}

// Captchas records solved challenges so each one admits a single request.
type Captchas interface {
	// ConsumeCaptcha marks the challenge jti as used. A jti already used
	// returns ErrAlreadyExists.
	ConsumeCaptcha(ctx context.Context, jti string, expiresAt, now time.Time) error

	// DeleteExpiredCaptchas removes records whose challenge has lapsed.
	DeleteExpiredCaptchas(ctx context.Context, now time.Time) (int64, error)
}
