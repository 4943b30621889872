package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/fintrack/internal/auth/domain"
)

type rateLimitsRepo struct {
	db dbtx
}

func (r *rateLimitsRepo) InsertRateLimit(ctx context.Context, rec domain.RateLimitRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO rate_limits (id, ip, endpoint, user_id, blocked_until, require_captcha, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.IP, rec.Endpoint, mapStringNull(rec.UserID),
		mapOptionalTime(rec.BlockedUntil), rec.RequireCaptcha, ts(rec.CreatedAt),
	)
	return err
}

func (r *rateLimitsRepo) LatestBan(ctx context.Context, ip, endpoint, userID string) (domain.RateLimitRecord, error) {
	var (
		rec     domain.RateLimitRecord
		uid     sql.NullString
		blocked sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, ip, endpoint, user_id, blocked_until, require_captcha, created_at
		 FROM rate_limits
		 WHERE ip = ?1 AND endpoint = ?2
		   AND blocked_until IS NOT NULL
		   AND (?3 = '' OR user_id = ?3)
		 ORDER BY blocked_until DESC, created_at DESC
		 LIMIT 1`,
		ip, endpoint, userID,
	).Scan(&rec.ID, &rec.IP, &rec.Endpoint, &uid, &blocked, &rec.RequireCaptcha, &rec.CreatedAt)
	if err != nil {
		return domain.RateLimitRecord{}, mapNotFound(err)
	}

	rec.UserID = mapNullString(uid)
	rec.BlockedUntil = mapNullTimePtr(blocked)
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, nil
}

func (r *rateLimitsRepo) CountAttemptsSince(ctx context.Context, ip, endpoint string, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM rate_limits
		 WHERE ip = ? AND endpoint = ? AND blocked_until IS NULL AND created_at >= ?`,
		ip, endpoint, ts(since),
	).Scan(&n)
	return n, err
}

func (r *rateLimitsRepo) DeleteRateLimitsBefore(ctx context.Context, cutoff, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM rate_limits
		 WHERE created_at < ? AND (blocked_until IS NULL OR blocked_until <= ?)`,
		ts(cutoff), ts(now),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *rateLimitsRepo) ClearRateLimits(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rate_limits`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
