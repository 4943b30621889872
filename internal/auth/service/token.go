package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/fintrack/internal/auth/domain"
	"github.com/aussiebroadwan/fintrack/internal/auth/store"
	"github.com/aussiebroadwan/fintrack/pkg/cryptox"
	"github.com/aussiebroadwan/fintrack/pkg/idx"
	"github.com/aussiebroadwan/fintrack/pkg/jwtx"
	"github.com/aussiebroadwan/fintrack/pkg/obsx"
	"github.com/aussiebroadwan/fintrack/pkg/slogx"
)

var errWrongTokenType = errors.New("wrong token type")

// TokenService mints and checks access and refresh tokens. Access and
// Refresh are keyed with different secrets.
type TokenService struct {
	Store      store.Store
	Access     *jwtx.HS256
	Refresh    *jwtx.HS256
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *TokenService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

func (s *TokenService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return jwtx.DefaultRefreshTokenTTL
}

// AccessTokenTTL is the lifetime of newly issued access tokens.
func (s *TokenService) AccessTokenTTL() time.Duration {
	return s.accessTTL()
}

// IssueAccessToken signs an access token asserting u's identity and role.
func (s *TokenService) IssueAccessToken(u domain.User) (string, time.Time, error) {
	now := s.now()
	claims := jwtx.NewAccessClaims(identity(u), s.accessTTL(), s.Issuer, now)

	tok, err := s.Access.Sign(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	obsx.TokensIssued.WithLabelValues(jwtx.TokenTypeAccess).Inc()
	return tok, claims.ExpiresAt.Time, nil
}

// IssueRefreshToken signs a refresh token for u and stores its fingerprint.
// The user must still exist.
func (s *TokenService) IssueRefreshToken(ctx context.Context, u domain.User) (string, time.Time, error) {
	now := s.now()

	if _, err := s.Store.Users().GetUserByID(ctx, u.ID); err != nil {
		return "", time.Time{}, storageErr("issue refresh token: load user", err)
	}

	claims := jwtx.NewRefreshClaims(identity(u), s.refreshTTL(), s.Issuer, now)
	tok, err := s.Refresh.Sign(claims)
	if err != nil {
		return "", time.Time{}, err
	}

	rec := domain.RefreshToken{
		ID:        idx.NewAt(now).String(),
		UserID:    u.ID,
		TokenHash: cryptox.FingerprintToken(tok),
		ExpiresAt: claims.ExpiresAt.Time,
		CreatedAt: now,
	}
	if err := s.Store.RefreshTokens().CreateRefreshToken(ctx, rec); err != nil {
		return "", time.Time{}, storageErr("issue refresh token: persist", err)
	}

	obsx.TokensIssued.WithLabelValues(jwtx.TokenTypeRefresh).Inc()
	return tok, rec.ExpiresAt, nil
}

func identity(u domain.User) jwtx.Identity {
	return jwtx.Identity{
		UserID:   u.ID,
		Email:    u.Email,
		Username: u.Username,
		Role:     u.Role.String(),
	}
}

// IssuePair issues the access and refresh token returned by a login.
func (s *TokenService) IssuePair(ctx context.Context, u domain.User) (domain.TokenPair, error) {
	access, accessExp, err := s.IssueAccessToken(u)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, refreshExp, err := s.IssueRefreshToken(ctx, u)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		TokenType:        "Bearer",
		ExpiresIn:        s.accessTTL(),
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// VerifyAccessToken checks signature, issuer and time bounds. Refresh tokens
// are refused even if a deployment reuses one secret for both kinds.
func (s *TokenService) VerifyAccessToken(token string) (jwtx.Claims, error) {
	claims, err := s.Access.Verify(token)
	if err != nil {
		return jwtx.Claims{}, tokenInvalid(err)
	}
	if claims.Type != jwtx.TokenTypeAccess {
		return jwtx.Claims{}, tokenInvalid(errWrongTokenType)
	}
	return claims, nil
}

// VerifyRefreshToken redeems a refresh token and returns its owner. A token
// whose stored row has run out is deleted before Expired is reported.
func (s *TokenService) VerifyRefreshToken(ctx context.Context, token string) (domain.User, error) {
	l := slogx.FromContext(ctx)
	now := s.now()
	hash := cryptox.FingerprintToken(token)

	// 1. Signature and time bounds
	claims, err := s.Refresh.Verify(token)
	if err != nil {
		if errors.Is(err, jwtx.ErrExpired) {
			// Signature was valid, so the fingerprint is ours to clean up.
			if derr := s.Store.RefreshTokens().DeleteRefreshToken(ctx, hash); derr != nil {
				l.Warn("failed to delete expired refresh token", slogx.Err(derr))
			}
		}
		return domain.User{}, tokenInvalid(err)
	}

	// 2. Token kind
	if claims.Type != jwtx.TokenTypeRefresh {
		return domain.User{}, tokenInvalid(errWrongTokenType)
	}

	// 3. Stored record
	rec, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, tokenInvalid(store.ErrNotFound)
		}
		return domain.User{}, storageErr("verify refresh token: lookup", err)
	}
	if rec.Expired || !rec.ExpiresAt.After(now) {
		if err := s.Store.RefreshTokens().DeleteRefreshToken(ctx, hash); err != nil {
			l.Warn("failed to delete expired refresh token", slogx.Err(err))
		}
		return domain.User{}, tokenInvalid(jwtx.ErrExpired)
	}

	// 4. Owner
	u, err := s.Store.Users().GetUserByID(ctx, rec.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, tokenInvalid(store.ErrNotFound)
		}
		return domain.User{}, storageErr("verify refresh token: load user", err)
	}
	if u.ID != claims.UserID {
		l.Warn("refresh token owner mismatch", slog.String("user_id", u.ID))
		return domain.User{}, tokenInvalid(jwtx.ErrInvalidClaim)
	}

	return u, nil
}

// RotateAccessToken exchanges a refresh token for a new access token. The
// refresh token stays valid until it expires or is revoked.
func (s *TokenService) RotateAccessToken(ctx context.Context, refreshToken string) (string, time.Time, error) {
	u, err := s.VerifyRefreshToken(ctx, refreshToken)
	if err != nil {
		return "", time.Time{}, err
	}
	return s.IssueAccessToken(u)
}

// Revoke deletes the stored record of one refresh token.
func (s *TokenService) Revoke(ctx context.Context, refreshToken string) error {
	if err := s.Store.RefreshTokens().DeleteRefreshToken(ctx, cryptox.FingerprintToken(refreshToken)); err != nil {
		return storageErr("revoke refresh token", err)
	}
	return nil
}

// RevokeAll deletes every refresh token the user holds.
func (s *TokenService) RevokeAll(ctx context.Context, userID string) error {
	return s.revokeAllIn(ctx, s.Store, userID)
}

// revokeAllIn is RevokeAll against st, which may be a transaction.
func (s *TokenService) revokeAllIn(ctx context.Context, st store.Store, userID string) error {
	n, err := st.RefreshTokens().DeleteUserRefreshTokens(ctx, userID)
	if err != nil {
		return storageErr("revoke user refresh tokens", err)
	}
	slogx.FromContext(ctx).Info("revoked refresh tokens", slog.String("user_id", userID), slog.Int64("count", n))
	return nil
}
