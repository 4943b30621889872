package authsdk

import (
	"context"
	"net/http"
	"strconv"
)

// Register creates a user account.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	var user UserResponse
	if err := c.postJSON(ctx, "/v1/auth/register", req, &user, http.StatusCreated); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login authenticates through the user entry point. Admin accounts are
// accepted here too.
func (c *SDKClient) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	return c.login(ctx, "/v1/auth/login", req)
}

// AdminLogin authenticates through the admin entry point, which only admin
// accounts pass.
func (c *SDKClient) AdminLogin(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	return c.login(ctx, "/v1/admin/login", req)
}

func (c *SDKClient) login(ctx context.Context, path string, req LoginRequest) (*TokenResponse, error) {
	var tokens TokenResponse
	if err := c.postJSON(ctx, path, req, &tokens, http.StatusOK); err != nil {
		return nil, err
	}
	return &tokens, nil
}

// AuthenticateWithPassword logs in and wraps the tokens in a Session.
func (c *SDKClient) AuthenticateWithPassword(ctx context.Context, identifier, password string) (*Session, error) {
	tokens, err := c.Login(ctx, LoginRequest{Identifier: identifier, Password: password})
	if err != nil {
		return nil, err
	}
	return newSession(c, tokens), nil
}

// Refresh exchanges a refresh token for a new access token. The response
// carries the same refresh token back.
func (c *SDKClient) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	var tokens TokenResponse
	if err := c.postJSON(ctx, "/v1/auth/refresh", RefreshRequest{RefreshToken: refreshToken}, &tokens, http.StatusOK); err != nil {
		return nil, err
	}
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = refreshToken
	}
	return &tokens, nil
}

// Logout revokes a refresh token.
func (c *SDKClient) Logout(ctx context.Context, refreshToken string) error {
	var msg MessageResponse
	return c.postJSON(ctx, "/v1/auth/logout", RefreshRequest{RefreshToken: refreshToken}, &msg, http.StatusOK)
}

// Captcha fetches a new arithmetic challenge.
func (c *SDKClient) Captcha(ctx context.Context) (*CaptchaResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/auth/captcha", nil, nil)
	if err != nil {
		return nil, err
	}

	var ch CaptchaResponse
	if err := decodeJSON(resp, &ch, http.StatusOK); err != nil {
		return nil, err
	}
	return &ch, nil
}

// Solve fills in the answer to ch.
func (ch *CaptchaResponse) Solve() CaptchaFields {
	return CaptchaFields{CaptchaToken: ch.Token, CaptchaAnswer: strconv.Itoa(ch.A + ch.B)}
}
