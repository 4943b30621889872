package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultAccessTokenTTL  = time.Hour
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Values of the "type" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims is the payload of both access and refresh tokens. Both kinds carry
// the holder's identity; Type tells them apart.
type Claims struct {
	jwt.RegisteredClaims

	UserID   string `json:"user_id"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
	Type     string `json:"type"`
}

// Identity is what a token asserts about its holder.
type Identity struct {
	UserID   string
	Email    string
	Username string
	Role     string
}

// NewAccessClaims builds access-token claims valid from now for ttl.
func NewAccessClaims(id Identity, ttl time.Duration, issuer string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: registered(id.UserID, ttl, issuer, now),
		UserID:           id.UserID,
		Email:            id.Email,
		Username:         id.Username,
		Role:             id.Role,
		Type:             TokenTypeAccess,
	}
}

// NewRefreshClaims builds refresh-token claims. The random jti keeps two
// refresh tokens minted in the same second distinct.
func NewRefreshClaims(id Identity, ttl time.Duration, issuer string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: registered(id.UserID, ttl, issuer, now),
		UserID:           id.UserID,
		Email:            id.Email,
		Username:         id.Username,
		Role:             id.Role,
		Type:             TokenTypeRefresh,
	}
}

func registered(subject string, ttl time.Duration, issuer string, now time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        NewJTI(),
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
