package authsdk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNoRefreshToken is returned once a session has logged out or was built
// without a refresh token.
var ErrNoRefreshToken = errors.New("authsdk: session has no refresh token")

// Session is a signed-in user. Its methods refresh the access token shortly
// before it expires using the stored refresh token.
type Session struct {
	client *SDKClient

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
	user         *UserResponse
}

func newSession(client *SDKClient, tokenResp *TokenResponse) *Session {
	return &Session{
		client:       client,
		accessToken:  tokenResp.AccessToken,
		refreshToken: tokenResp.RefreshToken,
		expiresAt:    refreshDeadline(tokenResp.ExpiresIn),
		user:         tokenResp.User,
	}
}

// refreshDeadline subtracts a 30 second buffer so the token is refreshed
// before it actually expires.
func refreshDeadline(expiresIn int) time.Time {
	return time.Now().Add(time.Duration(expiresIn)*time.Second - 30*time.Second)
}

// Logout revokes the refresh token and forgets both tokens. Later calls on
// the session fail with ErrNoRefreshToken once the access token lapses.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refreshToken == "" {
		return ErrNoRefreshToken
	}
	if err := s.client.Logout(ctx, s.refreshToken); err != nil {
		return err
	}

	s.accessToken = ""
	s.refreshToken = ""
	s.expiresAt = time.Time{}
	return nil
}

// getValidToken returns a valid access token, automatically refreshing if expired.
func (s *Session) getValidToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if time.Now().Before(s.expiresAt) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock (another goroutine may have refreshed)
	if time.Now().Before(s.expiresAt) {
		return s.accessToken, nil
	}

	if s.refreshToken == "" {
		return "", ErrNoRefreshToken
	}

	tokenResp, err := s.client.Refresh(ctx, s.refreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}

	s.accessToken = tokenResp.AccessToken
	s.refreshToken = tokenResp.RefreshToken
	s.expiresAt = refreshDeadline(tokenResp.ExpiresIn)

	return s.accessToken, nil
}

// AccessToken returns the current access token without checking expiration.
// For most use cases, prefer using the Session methods which handle refresh automatically.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// User is the account returned at login, or nil for sessions built from
// raw tokens.
func (s *Session) User() *UserResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}
