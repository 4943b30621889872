package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/fintrack/internal/auth/domain"
	"github.com/aussiebroadwan/fintrack/internal/auth/store"
	"github.com/aussiebroadwan/fintrack/pkg/idx"
	"github.com/aussiebroadwan/fintrack/pkg/obsx"
	"github.com/aussiebroadwan/fintrack/pkg/slogx"
)

const (
	DefaultMaxAttempts = 5
	DefaultWindow      = 60 * time.Second
	DefaultBanDuration = 30 * time.Second
)

// LimitKey identifies the attempts being counted. UserID narrows ban lookups
// to one account; Identifier is a login name or email resolved to a user id
// when the row is written.
type LimitKey struct {
	IP         string
	Endpoint   string
	UserID     string
	Identifier string
}

// RateLimiter is a sliding-window limiter over the persisted attempt log.
// State is derived entirely from the log so every instance sharing the
// database sees the same bans.
type RateLimiter struct {
	Store       store.Store
	MaxAttempts int
	Window      time.Duration
	BanDuration time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

func (r *RateLimiter) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *RateLimiter) maxAttempts() int {
	if r.MaxAttempts > 0 {
		return r.MaxAttempts
	}
	return DefaultMaxAttempts
}

func (r *RateLimiter) window() time.Duration {
	if r.Window > 0 {
		return r.Window
	}
	return DefaultWindow
}

func (r *RateLimiter) banDuration() time.Duration {
	if r.BanDuration > 0 {
		return r.BanDuration
	}
	return DefaultBanDuration
}

// latestBan returns the newest ban row, or ok=false when there is none.
func (r *RateLimiter) latestBan(ctx context.Context, k LimitKey) (domain.RateLimitRecord, bool, error) {
	rec, err := r.Store.RateLimits().LatestBan(ctx, k.IP, k.Endpoint, k.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.RateLimitRecord{}, false, nil
	}
	if err != nil {
		return domain.RateLimitRecord{}, false, storageErr("rate limit: latest ban", err)
	}
	return rec, true, nil
}

// IsBlocked reports whether a ban is in force for the key. The returned time
// is when it lifts.
func (r *RateLimiter) IsBlocked(ctx context.Context, k LimitKey) (bool, time.Time, error) {
	rec, ok, err := r.latestBan(ctx, k)
	if err != nil || !ok {
		return false, time.Time{}, err
	}
	if !rec.Active(r.now()) {
		return false, time.Time{}, nil
	}
	return true, *rec.BlockedUntil, nil
}

// RequiresCaptcha reports whether the active ban also demands a solved
// challenge.
func (r *RateLimiter) RequiresCaptcha(ctx context.Context, k LimitKey) (bool, error) {
	rec, ok, err := r.latestBan(ctx, k)
	if err != nil || !ok {
		return false, err
	}
	return rec.RequireCaptcha && rec.Active(r.now()), nil
}

// RegisterAttempt appends one row to the log. When the key has no UserID
// but an Identifier, the identifier is resolved to an account on a
// best-effort basis.
func (r *RateLimiter) RegisterAttempt(ctx context.Context, k LimitKey, blockedUntil *time.Time, requireCaptcha bool) error {
	now := r.now()

	userID := k.UserID
	if userID == "" && k.Identifier != "" {
		u, err := r.Store.Users().GetUserByIdentifier(ctx, k.Identifier)
		switch {
		case err == nil:
			userID = u.ID
		case !errors.Is(err, store.ErrNotFound):
			slogx.FromContext(ctx).Warn("rate limit: identifier lookup failed", slogx.Err(err))
		}
	}

	rec := domain.RateLimitRecord{
		ID:             idx.NewAt(now).String(),
		IP:             k.IP,
		Endpoint:       k.Endpoint,
		UserID:         userID,
		BlockedUntil:   blockedUntil,
		RequireCaptcha: requireCaptcha,
		CreatedAt:      now,
	}
	if err := r.Store.RateLimits().InsertRateLimit(ctx, rec); err != nil {
		return storageErr("rate limit: register attempt", err)
	}
	return nil
}

// CheckLimit counts attempts inside the trailing window. Reaching the
// threshold writes a captcha-requiring ban and returns false.
func (r *RateLimiter) CheckLimit(ctx context.Context, k LimitKey) (bool, error) {
	now := r.now()

	n, err := r.Store.RateLimits().CountAttemptsSince(ctx, k.IP, k.Endpoint, now.Add(-r.window()))
	if err != nil {
		return false, storageErr("rate limit: count attempts", err)
	}
	if n < r.maxAttempts() {
		return true, nil
	}

	until := now.Add(r.banDuration())
	if err := r.RegisterAttempt(ctx, k, &until, true); err != nil {
		return false, err
	}

	obsx.RateLimitBans.WithLabelValues(k.Endpoint).Inc()
	slogx.FromContext(ctx).Warn("rate limit reached",
		slog.String("ip", k.IP),
		slog.String("endpoint", k.Endpoint),
		slog.Int("attempts", n),
		slog.Time("blocked_until", until),
	)
	return false, nil
}

// Clear empties the attempt log.
func (r *RateLimiter) Clear(ctx context.Context) (int64, error) {
	n, err := r.Store.RateLimits().ClearRateLimits(ctx)
	if err != nil {
		return 0, storageErr("rate limit: clear", err)
	}
	return n, nil
}

// Refuse returns the RateLimitError for a ban ending at until. A zero until
// means a ban CheckLimit has just written.
func (r *RateLimiter) Refuse(until time.Time) error {
	if until.IsZero() {
		return &RateLimitError{RetryAfter: r.banDuration()}
	}
	return &RateLimitError{RetryAfter: until.Sub(r.now())}
}
