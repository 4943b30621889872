package http

import (
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/fintrack/internal/auth/service"
	"github.com/aussiebroadwan/fintrack/pkg/authsdk"
	"github.com/aussiebroadwan/fintrack/pkg/httpx"
	"github.com/aussiebroadwan/fintrack/pkg/slogx"
)

// UsersHandler serves the signed-in user's own account.
type UsersHandler struct {
	Users *service.UserService
}

// HandleGetMe godoc
//
//	@Summary		Get profile
//	@Tags			Users
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	authsdk.UserResponse
//	@Failure		401	{object}	authsdk.APIError	"invalid_token"
//	@Failure		500	{object}	authsdk.APIError	"server_error"
//	@Router			/v1/users/me [get].
func (h *UsersHandler) HandleGetMe(w http.ResponseWriter, r *http.Request) {
	u, err := h.Users.Profile(r.Context(), httpx.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, userResponse(u))
}

// HandleUpdateMe godoc
//
//	@Summary		Update profile
//	@Description	Changes username, email or display currency (USD, EUR, PLN, CZK). Omitted fields are kept.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			body	body		authsdk.UpdateProfileRequest	true	"fields to change"
//	@Success		200		{object}	authsdk.UserResponse
//	@Failure		400		{object}	authsdk.APIError	"invalid_request, validation_error"
//	@Failure		401		{object}	authsdk.APIError	"invalid_token"
//	@Failure		409		{object}	authsdk.APIError	"conflict"
//	@Failure		500		{object}	authsdk.APIError	"server_error"
//	@Router			/v1/users/me [put].
func (h *UsersHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var req authsdk.UpdateProfileRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	u, err := h.Users.UpdateProfile(r.Context(), httpx.UserIDFromContext(r.Context()), service.ProfileUpdate{
		Username: req.Username,
		Email:    req.Email,
		Currency: req.Currency,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, userResponse(u))
}

// HandleChangePassword godoc
//
//	@Summary		Change password
//	@Description	Replaces the password and revokes every refresh token of the account.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			body	body		authsdk.ChangePasswordRequest	true	"current, new and confirmation"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Failure		400		{object}	authsdk.APIError	"invalid_request, validation_error"
//	@Failure		401		{object}	authsdk.APIError	"invalid_token, invalid_credentials"
//	@Failure		500		{object}	authsdk.APIError	"server_error"
//	@Router			/v1/users/me/password [post].
func (h *UsersHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req authsdk.ChangePasswordRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	userID := httpx.UserIDFromContext(r.Context())
	if err := h.Users.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "password changed"})
}

// HandleDeleteMe godoc
//
//	@Summary		Delete account
//	@Description	Deletes the signed-in account and all of its refresh tokens.
//	@Tags			Users
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	authsdk.MessageResponse
//	@Failure		401	{object}	authsdk.APIError	"invalid_token"
//	@Failure		500	{object}	authsdk.APIError	"server_error"
//	@Router			/v1/users/me [delete].
func (h *UsersHandler) HandleDeleteMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := httpx.UserIDFromContext(ctx)
	if err := h.Users.DeleteAccount(ctx, userID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	slogx.FromContext(ctx).Info("account deleted",
		slog.String("user_id", userID),
		slog.String("role", httpx.RoleFromContext(ctx)),
	)
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "account deleted"})
}
