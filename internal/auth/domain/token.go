package domain

import "time"

// TokenPair is the result of a successful login.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	TokenType        string // always "Bearer"
	ExpiresIn        time.Duration
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// RefreshToken is the stored record for an issued refresh token. The raw
// token is never stored, only its fingerprint.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string // base64url SHA-256 of the signed token
	ExpiresAt time.Time
	Expired   bool // flagged unusable ahead of ExpiresAt
	CreatedAt time.Time
}
