package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/fintrack/internal/auth/service"
	"github.com/aussiebroadwan/fintrack/pkg/authsdk"
	"github.com/aussiebroadwan/fintrack/pkg/httpx"
	"github.com/aussiebroadwan/fintrack/pkg/obsx"
	"github.com/aussiebroadwan/fintrack/pkg/slogx"
)

// AttemptGuard wraps login and registration in the persisted rate limiter.
//
// Before the operation: a captcha-requiring ban demands a solved challenge
// (428 otherwise), each challenge admitting one request, and any other ban
// refuses outright (429). After it: the
// attempt is logged and the window evaluated; crossing the threshold turns
// the response into a 429 unless a challenge was solved on this request.
// Limiter storage errors fail closed with a 500.
type AttemptGuard struct {
	Limiter *service.RateLimiter
	Captcha *service.CaptchaService
}

type guardedAttempt struct {
	key    service.LimitKey
	solved bool
}

// admit decides whether the operation may run. When it returns false a
// response has already been written.
func (g *AttemptGuard) admit(w http.ResponseWriter, r *http.Request, endpoint, identifier string, cf authsdk.CaptchaFields) (*guardedAttempt, bool) {
	ctx := r.Context()
	a := &guardedAttempt{key: service.LimitKey{
		IP:         httpx.ClientIP(r),
		Endpoint:   endpoint,
		Identifier: identifier,
	}}

	// 1. Captcha escalation
	needCaptcha, err := g.Limiter.RequiresCaptcha(ctx, a.key)
	if err != nil {
		writeServerError(w, r, err)
		return nil, false
	}
	if needCaptcha {
		err := g.Captcha.Verify(ctx, cf.CaptchaToken, cf.CaptchaAnswer)
		if err == nil {
			a.solved = true
			return a, true
		}
		if !errors.Is(err, service.ErrCaptchaRequired) {
			writeServerError(w, r, err)
			return nil, false
		}
		if err := g.Limiter.RegisterAttempt(ctx, a.key, nil, false); err != nil {
			writeServerError(w, r, err)
			return nil, false
		}
		g.writeCaptchaRequired(w, r)
		obsx.AuthAttempts.WithLabelValues(endpoint, "captcha").Inc()
		return nil, false
	}

	// 2. Plain ban
	blocked, until, err := g.Limiter.IsBlocked(ctx, a.key)
	if err != nil {
		writeServerError(w, r, err)
		return nil, false
	}
	if blocked {
		if err := g.Limiter.RegisterAttempt(ctx, a.key, nil, false); err != nil {
			writeServerError(w, r, err)
			return nil, false
		}
		writeServiceError(w, r, g.Limiter.Refuse(until))
		obsx.AuthAttempts.WithLabelValues(endpoint, "blocked").Inc()
		return nil, false
	}

	return a, true
}

// finish logs the attempt and evaluates the window. userID ties the row to
// the account when the operation succeeded. When it returns false a
// response has already been written.
func (g *AttemptGuard) finish(w http.ResponseWriter, r *http.Request, a *guardedAttempt, userID string, opErr error) bool {
	ctx := r.Context()
	k := a.key
	k.UserID = userID

	if err := g.Limiter.RegisterAttempt(ctx, k, nil, false); err != nil {
		writeServerError(w, r, err)
		return false
	}

	ok, err := g.Limiter.CheckLimit(ctx, k)
	if err != nil {
		writeServerError(w, r, err)
		return false
	}

	outcome := "success"
	if opErr != nil {
		outcome = "failure"
	}

	if !ok && !a.solved {
		slogx.FromContext(ctx).Info("attempt crossed rate limit",
			slog.String("endpoint", k.Endpoint),
			slog.String("outcome", outcome),
		)
		writeServiceError(w, r, g.Limiter.Refuse(time.Time{}))
		obsx.AuthAttempts.WithLabelValues(k.Endpoint, "limited").Inc()
		return false
	}

	obsx.AuthAttempts.WithLabelValues(k.Endpoint, outcome).Inc()
	return true
}

func (g *AttemptGuard) writeCaptchaRequired(w http.ResponseWriter, r *http.Request) {
	ch, err := newCaptchaResponse(g.Captcha)
	if err != nil {
		writeServerError(w, r, err)
		return
	}
	authsdk.ErrCaptchaRequired.WithCaptcha(ch).WriteError(w)
}

func newCaptchaResponse(svc *service.CaptchaService) (*authsdk.CaptchaResponse, error) {
	ch, err := svc.NewChallenge()
	if err != nil {
		return nil, err
	}
	return &authsdk.CaptchaResponse{
		A:         ch.A,
		B:         ch.B,
		Question:  fmt.Sprintf("What is %d + %d?", ch.A, ch.B),
		Token:     ch.Token,
		ExpiresAt: ch.ExpiresAt,
	}, nil
}
