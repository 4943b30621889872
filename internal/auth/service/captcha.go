package service

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/fintrack/internal/auth/domain"
	"github.com/aussiebroadwan/fintrack/internal/auth/store"
	"github.com/aussiebroadwan/fintrack/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultCaptchaTTL = 5 * time.Minute

	captchaMin = 1
	captchaMax = 20
)

var (
	errCaptchaWrong = errors.New("captcha answer does not match")
	errCaptchaUsed  = errors.New("captcha already used")
)

type captchaClaims struct {
	jwt.RegisteredClaims

	// AnswerFP binds the expected sum to this token's jti without putting
	// the sum itself in the payload.
	AnswerFP string `json:"answer_fp"`
}

// CaptchaService issues arithmetic challenges. The expected answer lives
// only inside a signed token; the store only remembers which challenges
// were solved, so each one admits a single request.
type CaptchaService struct {
	Store  store.Store
	Secret []byte
	TTL    time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

func (c *CaptchaService) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// NewChallenge returns two addends and the token to hand back with the sum.
func (c *CaptchaService) NewChallenge() (domain.CaptchaChallenge, error) {
	if len(c.Secret) < jwtx.MinSecretLength {
		return domain.CaptchaChallenge{}, jwtx.ErrWeakSecret
	}

	a, err := randInt(captchaMin, captchaMax)
	if err != nil {
		return domain.CaptchaChallenge{}, err
	}
	b, err := randInt(captchaMin, captchaMax)
	if err != nil {
		return domain.CaptchaChallenge{}, err
	}

	ttl := c.TTL
	if ttl <= 0 {
		ttl = DefaultCaptchaTTL
	}
	now := c.now()
	jti := jwtx.NewJTI()
	claims := captchaClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
		AnswerFP: c.answerFingerprint(jti, a+b),
	}

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.Secret)
	if err != nil {
		return domain.CaptchaChallenge{}, err
	}
	return domain.CaptchaChallenge{A: a, B: b, Token: tok, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Verify checks answer against a challenge token and burns the challenge.
// Every rejection, including an empty or reused token, is
// ErrCaptchaRequired; a failure to record the use is a StorageError.
func (c *CaptchaService) Verify(ctx context.Context, token, answer string) error {
	token = strings.TrimSpace(token)
	answer = strings.TrimSpace(answer)
	if token == "" || answer == "" {
		return ErrCaptchaRequired
	}

	sum, err := strconv.Atoi(answer)
	if err != nil {
		return errors.Join(ErrCaptchaRequired, errCaptchaWrong)
	}

	var claims captchaClaims
	_, err = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	).ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return c.Secret, nil
	})
	if err != nil {
		return errors.Join(ErrCaptchaRequired, err)
	}

	if claims.ID == "" || !hmac.Equal([]byte(claims.AnswerFP), []byte(c.answerFingerprint(claims.ID, sum))) {
		return errors.Join(ErrCaptchaRequired, errCaptchaWrong)
	}

	err = c.Store.Captchas().ConsumeCaptcha(ctx, claims.ID, claims.ExpiresAt.Time, c.now())
	switch {
	case errors.Is(err, store.ErrAlreadyExists):
		return errors.Join(ErrCaptchaRequired, errCaptchaUsed)
	case err != nil:
		return storageErr("captcha: consume", err)
	}
	return nil
}

// answerFingerprint is keyed with the secret; the sum space is tiny, so a
// plain hash would give the answer away.
func (c *CaptchaService) answerFingerprint(jti string, sum int) string {
	mac := hmac.New(sha256.New, c.Secret)
	mac.Write([]byte(jti + ":" + strconv.Itoa(sum)))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func randInt(lo, hi int) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(hi-lo+1)))
	if err != nil {
		return 0, err
	}
	return lo + int(n.Int64()), nil
}
