package httpx

import "context"

type ctxKey string

const (
	CtxKeyUserID   ctxKey = "user_id"
	CtxKeyRole     ctxKey = "role"
	CtxKeyClientIP ctxKey = "client_ip"
)

// WithUser records the authenticated caller on ctx.
func WithUser(ctx context.Context, userID, role string) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, userID)
	return context.WithValue(ctx, CtxKeyRole, role)
}

// UserIDFromContext returns the caller set by WithUser, or "".
func UserIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(CtxKeyUserID).(string)
	return v
}

// RoleFromContext returns the caller's role set by WithUser, or "".
func RoleFromContext(ctx context.Context) string {
	v, _ := ctx.Value(CtxKeyRole).(string)
	return v
}
