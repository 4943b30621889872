package http

import (
	"net/http"

	"github.com/aussiebroadwan/fintrack/internal/auth/domain"
	"github.com/aussiebroadwan/fintrack/internal/auth/service"
	"github.com/aussiebroadwan/fintrack/pkg/authsdk"
	"github.com/aussiebroadwan/fintrack/pkg/httpx"
	"github.com/aussiebroadwan/fintrack/pkg/slogx"
)

// AuthHandler serves registration, login and token endpoints.
type AuthHandler struct {
	Auth    *service.AuthService
	Captcha *service.CaptchaService
	Guard   *AttemptGuard
}

// HandleRegister godoc
//
//	@Summary		Register
//	@Description	Creates a user account. Rate limited per client IP; while banned a solved captcha must accompany the request.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.RegisterRequest	true	"username, email, password"
//	@Success		201		{object}	authsdk.UserResponse
//	@Failure		400		{object}	authsdk.APIError	"invalid_request, validation_error"
//	@Failure		409		{object}	authsdk.APIError	"conflict"
//	@Failure		428		{object}	authsdk.APIError	"captcha_required"
//	@Failure		429		{object}	authsdk.APIError	"rate_limited"
//	@Failure		500		{object}	authsdk.APIError	"server_error"
//	@Router			/v1/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// 1. Parse the body
	var req authsdk.RegisterRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	// 2. Rate limit and captcha
	attempt, ok := h.Guard.admit(w, r, domain.EndpointUserRegistration, req.Username, req.CaptchaFields)
	if !ok {
		return
	}

	// 3. Create the account
	u, err := h.Auth.Register(ctx, service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})

	// 4. Record the attempt
	if !h.Guard.finish(w, r, attempt, u.ID, err) {
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, userResponse(u))
}

// HandleUserLogin godoc
//
//	@Summary		User login
//	@Description	Authenticates by username or email and returns an access and refresh token. Admin accounts are accepted.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.LoginRequest	true	"identifier, password"
//	@Success		200		{object}	authsdk.TokenResponse
//	@Failure		400		{object}	authsdk.APIError	"invalid_request, validation_error"
//	@Failure		401		{object}	authsdk.APIError	"invalid_credentials"
//	@Failure		428		{object}	authsdk.APIError	"captcha_required"
//	@Failure		429		{object}	authsdk.APIError	"rate_limited"
//	@Failure		500		{object}	authsdk.APIError	"server_error"
//	@Header			200		{string}	Cache-Control	"no-store"
//	@Router			/v1/auth/login [post].
func (h *AuthHandler) HandleUserLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, domain.RoleUser, domain.EndpointUserLogin)
}

// HandleAdminLogin godoc
//
//	@Summary		Admin login
//	@Description	Same as user login but only admin accounts pass.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.LoginRequest	true	"identifier, password"
//	@Success		200		{object}	authsdk.TokenResponse
//	@Failure		400		{object}	authsdk.APIError	"invalid_request, validation_error"
//	@Failure		401		{object}	authsdk.APIError	"invalid_credentials"
//	@Failure		403		{object}	authsdk.APIError	"role_denied"
//	@Failure		428		{object}	authsdk.APIError	"captcha_required"
//	@Failure		429		{object}	authsdk.APIError	"rate_limited"
//	@Failure		500		{object}	authsdk.APIError	"server_error"
//	@Router			/v1/admin/login [post].
func (h *AuthHandler) HandleAdminLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, domain.RoleAdmin, domain.EndpointAdminLogin)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, expected domain.Role, endpoint string) {
	ctx := r.Context()

	// 1. Parse the body
	var req authsdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	// 2. Rate limit and captcha
	attempt, ok := h.Guard.admit(w, r, endpoint, req.Identifier, req.CaptchaFields)
	if !ok {
		return
	}

	// 3. Authenticate
	u, pair, err := h.Auth.Login(ctx, req.Identifier, req.Password, expected)

	// 4. Record the attempt; a login that crossed the limit gives its
	// refresh token back
	if !h.Guard.finish(w, r, attempt, u.ID, err) {
		if err == nil {
			if rerr := h.Auth.Logout(ctx, pair.RefreshToken); rerr != nil {
				slogx.FromContext(ctx).Warn("failed to revoke refresh token of limited login", slogx.Err(rerr))
			}
		}
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	refreshExp := pair.RefreshExpiresAt
	user := userResponse(u)
	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenResponse{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		TokenType:        pair.TokenType,
		ExpiresIn:        int(pair.ExpiresIn.Seconds()),
		RefreshExpiresAt: &refreshExp,
		User:             &user,
	})
}

// HandleRefresh godoc
//
//	@Summary		Refresh access token
//	@Description	Exchanges a refresh token for a new access token. The refresh token is not rotated.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.RefreshRequest	true	"refresh_token"
//	@Success		200		{object}	authsdk.TokenResponse
//	@Failure		400		{object}	authsdk.APIError	"invalid_request, validation_error"
//	@Failure		401		{object}	authsdk.APIError	"invalid_token"
//	@Failure		500		{object}	authsdk.APIError	"server_error"
//	@Router			/v1/auth/refresh [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RefreshRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	access, _, err := h.Auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenResponse{
		AccessToken:  access,
		RefreshToken: req.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(h.Auth.Tokens.AccessTokenTTL().Seconds()),
	})
}

// HandleLogout godoc
//
//	@Summary		Logout
//	@Description	Revokes a refresh token. Unknown tokens are accepted.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.RefreshRequest	true	"refresh_token"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Failure		400		{object}	authsdk.APIError	"invalid_request, validation_error"
//	@Failure		500		{object}	authsdk.APIError	"server_error"
//	@Router			/v1/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RefreshRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	if err := h.Auth.Logout(r.Context(), req.RefreshToken); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "logged out"})
}

// HandleCaptcha godoc
//
//	@Summary		Captcha challenge
//	@Description	Returns two numbers to add. Send the sum back as captcha_answer with captcha_token.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	authsdk.CaptchaResponse
//	@Failure		500	{object}	authsdk.APIError	"server_error"
//	@Router			/v1/auth/captcha [get].
func (h *AuthHandler) HandleCaptcha(w http.ResponseWriter, r *http.Request) {
	ch, err := newCaptchaResponse(h.Captcha)
	if err != nil {
		writeServerError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ch)
}

func userResponse(u domain.User) authsdk.UserResponse {
	return authsdk.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role.String(),
		Currency:  string(u.Currency),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

