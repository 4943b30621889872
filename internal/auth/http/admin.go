package http

import (
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/fintrack/internal/auth/domain"
	"github.com/aussiebroadwan/fintrack/internal/auth/service"
	"github.com/aussiebroadwan/fintrack/pkg/authsdk"
	"github.com/aussiebroadwan/fintrack/pkg/httpx"
	"github.com/aussiebroadwan/fintrack/pkg/slogx"
)

// AdminHandler serves admin-only maintenance endpoints.
type AdminHandler struct {
	Auth    *service.AuthService
	Limiter *service.RateLimiter
}

// HandleCreateAdmin godoc
//
//	@Summary		Create admin
//	@Description	Registers another admin account. Captcha fields are ignored.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			body	body		authsdk.RegisterRequest	true	"username, email, password"
//	@Success		201		{object}	authsdk.UserResponse
//	@Failure		400		{object}	authsdk.APIError	"invalid_request, validation_error"
//	@Failure		401		{object}	authsdk.APIError	"invalid_token"
//	@Failure		403		{object}	authsdk.APIError	"role_denied"
//	@Failure		409		{object}	authsdk.APIError	"conflict"
//	@Failure		500		{object}	authsdk.APIError	"server_error"
//	@Router			/v1/admin/admins [post].
func (h *AdminHandler) HandleCreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	u, err := h.Auth.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.RoleAdmin,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	slogx.FromContext(r.Context()).Info("admin created",
		slog.String("user_id", u.ID),
		slog.String("created_by", httpx.UserIDFromContext(r.Context())),
	)
	httpx.WriteJSON(w, http.StatusCreated, userResponse(u))
}

// HandleClearRateLimits godoc
//
//	@Summary		Clear rate limits
//	@Description	Deletes every row of the login/registration attempt log, lifting all bans.
//	@Tags			Admin
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	authsdk.ClearRateLimitsResponse
//	@Failure		401	{object}	authsdk.APIError	"invalid_token"
//	@Failure		403	{object}	authsdk.APIError	"role_denied"
//	@Failure		500	{object}	authsdk.APIError	"server_error"
//	@Router			/v1/admin/rate-limits [delete].
func (h *AdminHandler) HandleClearRateLimits(w http.ResponseWriter, r *http.Request) {
	n, err := h.Limiter.Clear(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	slogx.FromContext(r.Context()).Info("rate limits cleared",
		slog.Int64("deleted", n),
		slog.String("by", httpx.UserIDFromContext(r.Context())),
	)
	httpx.WriteJSON(w, http.StatusOK, authsdk.ClearRateLimitsResponse{Deleted: n})
}
