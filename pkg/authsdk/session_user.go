package authsdk

import (
	"context"
	"net/http"
)

// GetProfile retrieves the signed-in user's account.
func (s *Session) GetProfile(ctx context.Context) (*UserResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/users/me", nil)
	if err != nil {
		return nil, err
	}

	var user UserResponse
	if err := decodeJSON(resp, &user, http.StatusOK); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile changes username, email or currency.
func (s *Session) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*UserResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPut, "/v1/users/me", req)
	if err != nil {
		return nil, err
	}

	var user UserResponse
	if err := decodeJSON(resp, &user, http.StatusOK); err != nil {
		return nil, err
	}
	return &user, nil
}

// ChangePassword replaces the password. Every refresh token of the account,
// this session's included, stops working.
func (s *Session) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/users/me/password", req)
	if err != nil {
		return err
	}
	var msg MessageResponse
	return decodeJSON(resp, &msg, http.StatusOK)
}

// DeleteAccount removes the signed-in user's account.
func (s *Session) DeleteAccount(ctx context.Context) error {
	resp, err := s.doAuthRequest(ctx, http.MethodDelete, "/v1/users/me", nil)
	if err != nil {
		return err
	}
	var msg MessageResponse
	return decodeJSON(resp, &msg, http.StatusOK)
}
