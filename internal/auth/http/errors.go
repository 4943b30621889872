package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/fintrack/internal/auth/service"
	"github.com/aussiebroadwan/fintrack/pkg/authsdk"
	"github.com/aussiebroadwan/fintrack/pkg/obsx"
	"github.com/aussiebroadwan/fintrack/pkg/slogx"
)

// writeServiceError maps the service error taxonomy onto API errors.
// Anything unrecognised is a 500 and is logged and reported; its text never
// reaches the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve  *service.ValidationError
		ce  *service.ConflictError
		rle *service.RateLimitError
	)

	switch {
	case errors.As(err, &ve):
		authsdk.ErrValidation.WithProblems(ve.Problems).WriteError(w)
	case errors.As(err, &ce):
		authsdk.ErrConflict.WithMessage(ce.Error()).WriteError(w)
	case errors.Is(err, service.ErrInvalidCredentials):
		authsdk.ErrInvalidCredentials.WriteError(w)
	case errors.Is(err, service.ErrTokenInvalid):
		authsdk.ErrInvalidToken.WriteError(w)
	case errors.Is(err, service.ErrRoleDenied):
		authsdk.ErrRoleDenied.WriteError(w)
	case errors.Is(err, service.ErrNotFound):
		authsdk.ErrNotFound.WriteError(w)
	case errors.Is(err, service.ErrCaptchaRequired):
		authsdk.ErrCaptchaRequired.WriteError(w)
	case errors.As(err, &rle):
		authsdk.ErrRateLimited.WithRetryAfter(rle.RetryAfter).WriteError(w)
	default:
		writeServerError(w, r, err)
	}
}

func writeServerError(w http.ResponseWriter, r *http.Request, err error) {
	slogx.FromContext(r.Context()).Error("request failed", slogx.Err(err))
	obsx.CaptureError(r.Context(), err)
	authsdk.ErrServerError.WriteError(w)
}

func writeBadRequest(w http.ResponseWriter, err error) {
	authsdk.ErrInvalidRequest.WithMessage(err.Error()).WriteError(w)
}
