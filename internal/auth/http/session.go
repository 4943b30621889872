package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/fintrack/internal/auth/domain"
	"github.com/aussiebroadwan/fintrack/internal/auth/service"
	"github.com/aussiebroadwan/fintrack/pkg/authsdk"
	"github.com/aussiebroadwan/fintrack/pkg/httpx"
)

// RequireRole authenticates the bearer token and puts the caller on the
// request context. A user route admits admins; an admin route admits only
// admins.
func RequireRole(auth *service.AuthService, role domain.Role) httpx.Middleware {
	allowed := auth.IsUser
	if role == domain.RoleAdmin {
		allowed = auth.IsAdmin
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Extract the bearer credential
			token, ok := httpx.BearerToken(r)
			if !ok {
				httpx.WriteBearerError(w, http.StatusUnauthorized, authsdk.ErrorCodeInvalidToken, "missing bearer token")
				return
			}

			// 2. Role check on the claims alone
			if !allowed(token) {
				if role == domain.RoleAdmin && auth.IsUser(token) {
					authsdk.ErrRoleDenied.WriteError(w)
					return
				}
				httpx.WriteBearerError(w, http.StatusUnauthorized, authsdk.ErrorCodeInvalidToken, "invalid or expired token")
				return
			}

			// 3. The account must still exist
			userID, err := auth.GetUserID(r.Context(), token)
			if err != nil {
				if errors.Is(err, service.ErrTokenInvalid) {
					httpx.WriteBearerError(w, http.StatusUnauthorized, authsdk.ErrorCodeInvalidToken, "invalid or expired token")
					return
				}
				writeServerError(w, r, err)
				return
			}

			callerRole := domain.RoleUser
			if auth.IsAdmin(token) {
				callerRole = domain.RoleAdmin
			}
			ctx := httpx.WithUser(r.Context(), userID, callerRole.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
