package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the shortest HMAC secret NewHS256 accepts.
const MinSecretLength = 32

// HS256 signs and verifies tokens with one shared secret. The service runs
// two of them, one per token kind, so a refresh token never verifies as an
// access token.
type HS256 struct {
	secret []byte
	issuer string
	leeway time.Duration
	now    func() time.Time
}

type HS256Option func(*HS256)

// WithLeeway tolerates clock skew on exp and nbf.
func WithLeeway(d time.Duration) HS256Option {
	return func(h *HS256) { h.leeway = d }
}

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) HS256Option {
	return func(h *HS256) { h.now = now }
}

// NewHS256 returns a signer/verifier for secret. Tokens are stamped with
// issuer and, on verify, must carry it.
func NewHS256(secret []byte, issuer string, opts ...HS256Option) (*HS256, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}

	h := &HS256{
		secret: append([]byte(nil), secret...),
		issuer: issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Sign stamps the issuer when unset and signs.
func (h *HS256) Sign(claims Claims) (string, error) {
	if claims.Issuer == "" {
		claims.Issuer = h.issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
}

// Verify checks the signature first, then issuer and time bounds. Errors are
// one of the package sentinels.
func (h *HS256) Verify(tokenStr string) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(h.leeway),
		jwt.WithTimeFunc(h.now),
	}
	if h.issuer != "" {
		opts = append(opts, jwt.WithIssuer(h.issuer))
	}

	var claims Claims
	token, err := jwt.NewParser(opts...).ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrAlgMismatch
		}
		return h.secret, nil
	})
	if err != nil {
		return Claims{}, mapParseError(err)
	}
	if !token.Valid || claims.UserID == "" {
		return Claims{}, ErrInvalidClaim
	}
	return claims, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, ErrAlgMismatch):
		return ErrAlgMismatch
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrIssuer
	default:
		return fmt.Errorf("%w: %w", ErrInvalidClaim, err)
	}
}
