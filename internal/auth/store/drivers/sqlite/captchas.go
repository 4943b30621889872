package sqlite

import (
	"context"
	"time"
)

type captchasRepo struct {
	db dbtx
}

func (r *captchasRepo) ConsumeCaptcha(ctx context.Context, jti string, expiresAt, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO used_captchas (jti, expires_at, used_at) VALUES (?, ?, ?)`,
		jti, ts(expiresAt), ts(now),
	)
	return mapConstraint(err)
}

func (r *captchasRepo) DeleteExpiredCaptchas(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM used_captchas WHERE expires_at <= ?`, ts(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
