package postgres

import (
	"context"
	"time"
)

type captchasRepo struct {
	db dbtx
}

func (r *captchasRepo) ConsumeCaptcha(ctx context.Context, jti string, expiresAt, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO used_captchas (jti, expires_at, used_at) VALUES ($1, $2, $3)`,
		jti, expiresAt.UTC(), now.UTC(),
	)
	return mapConstraint(err)
}

func (r *captchasRepo) DeleteExpiredCaptchas(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM used_captchas WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
