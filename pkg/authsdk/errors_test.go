package authsdk

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAPIErrorWriteAndParse(t *testing.T) {
	t.Parallel()

	t.Run("rate limited carries retry-after", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ErrRateLimited.WithRetryAfter(2500 * time.Millisecond).WriteError(rec)

		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.Equal(t, "3", rec.Header().Get("Retry-After"))
		require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

		resp := rec.Result()
		body, _ := io.ReadAll(resp.Body)
		err := parseErrorResponse(resp, body)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, ErrorCodeRateLimited, apiErr.Code)
		require.Equal(t, 3*time.Second, apiErr.RetryAfter)
		require.ErrorIs(t, err, ErrRateLimited)
	})

	t.Run("validation lists problems", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ErrValidation.WithProblems([]string{"a", "b"}).WriteError(rec)

		resp := rec.Result()
		body, _ := io.ReadAll(resp.Body)
		err := parseErrorResponse(resp, body)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, []string{"a", "b"}, apiErr.Problems)
		require.Empty(t, ErrValidation.Problems, "predefined error is not modified")
	})

	t.Run("captcha challenge round trip", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ErrCaptchaRequired.WithCaptcha(&CaptchaResponse{A: 3, B: 4, Token: "tok"}).WriteError(rec)
		require.Equal(t, http.StatusPreconditionRequired, rec.Code)

		resp := rec.Result()
		body, _ := io.ReadAll(resp.Body)
		var apiErr *APIError
		require.ErrorAs(t, parseErrorResponse(resp, body), &apiErr)
		require.NotNil(t, apiErr.Captcha)
		require.Equal(t, CaptchaFields{CaptchaToken: "tok", CaptchaAnswer: "7"}, apiErr.Captcha.Solve())
	})

	t.Run("non-json body falls back to status", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusBadGateway, Header: http.Header{}}
		err := parseErrorResponse(resp, []byte("<html>"))
		require.ErrorIs(t, err, ErrServerError)
		require.Contains(t, err.Error(), "502")
	})

	t.Run("success is nil", func(t *testing.T) {
		require.NoError(t, parseErrorResponse(&http.Response{StatusCode: http.StatusOK}, nil))
	})

	t.Run("wrapped errors still match", func(t *testing.T) {
		err := fmt.Errorf("login: %w", ErrInvalidCredentials.WithMessage("nope"))
		require.True(t, errors.Is(err, ErrInvalidCredentials))
		require.False(t, errors.Is(err, ErrInvalidToken))
	})
}
