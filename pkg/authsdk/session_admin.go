package authsdk

import (
	"context"
	"net/http"
)

// Admin operations. The server refuses these unless the session belongs to
// an admin account.

// CreateAdmin registers another admin account.
func (s *Session) CreateAdmin(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/admin/admins", req)
	if err != nil {
		return nil, err
	}

	var user UserResponse
	if err := decodeJSON(resp, &user, http.StatusCreated); err != nil {
		return nil, err
	}
	return &user, nil
}

// ClearRateLimits empties the login/registration attempt log.
func (s *Session) ClearRateLimits(ctx context.Context) (*ClearRateLimitsResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodDelete, "/v1/admin/rate-limits", nil)
	if err != nil {
		return nil, err
	}

	var out ClearRateLimitsResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
