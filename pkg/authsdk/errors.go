package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/aussiebroadwan/fintrack/pkg/httpx"
)

// ============================================================================
// Error Codes
// ============================================================================

const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeValidation         = "validation_error"
	ErrorCodeConflict           = "conflict"
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeInvalidToken       = "invalid_token"
	ErrorCodeRoleDenied         = "role_denied"
	ErrorCodeNotFound           = "not_found"
	ErrorCodeRateLimited        = "rate_limited"
	ErrorCodeCaptchaRequired    = "captcha_required"
	ErrorCodeServerError        = "server_error"
)

// ============================================================================
// APIError
// ============================================================================

// APIError is the error body every endpoint returns. The server writes it
// with WriteError and the SDK client decodes it back into the same type.
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the machine-readable error code (e.g. "validation_error")
	Code string `json:"error"`

	// Message is a human-readable description of the error
	Message string `json:"message"`

	// Problems lists every failed validation rule
	Problems []string `json:"problems,omitempty"`

	// Captcha is a fresh challenge, set on captcha_required
	Captcha *CaptchaResponse `json:"captcha,omitempty"`

	// RetryAfter is sent as the Retry-After header on rate_limited
	RetryAfter time.Duration `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches on Code so callers can compare against the predefined errors.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Code == e.Code
}

// WriteError writes this error to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	if e.RetryAfter > 0 {
		secs := int(e.RetryAfter.Round(time.Second) / time.Second)
		if secs < 1 {
			secs = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(e)
}

// WithMessage returns a copy carrying msg.
func (e *APIError) WithMessage(msg string) *APIError {
	c := *e
	c.Message = msg
	return &c
}

// WithProblems returns a copy listing problems.
func (e *APIError) WithProblems(problems []string) *APIError {
	c := *e
	c.Problems = problems
	return &c
}

// WithRetryAfter returns a copy that sets the Retry-After header.
func (e *APIError) WithRetryAfter(d time.Duration) *APIError {
	c := *e
	c.RetryAfter = d
	return &c
}

// WithCaptcha returns a copy carrying a challenge to solve.
func (e *APIError) WithCaptcha(ch *CaptchaResponse) *APIError {
	c := *e
	c.Captcha = ch
	return &c
}

// ============================================================================
// Predefined Errors
// ============================================================================

var (
	// ErrInvalidRequest is returned when the body cannot be decoded.
	ErrInvalidRequest = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       ErrorCodeInvalidRequest,
		Message:    "the request is malformed or missing required parameters",
	}

	// ErrValidation is returned when input fails validation. Problems lists
	// every unmet rule.
	ErrValidation = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       ErrorCodeValidation,
		Message:    "the request failed validation",
	}

	// ErrConflict is returned when a username or email is already taken.
	ErrConflict = &APIError{
		StatusCode: http.StatusConflict,
		Code:       ErrorCodeConflict,
		Message:    "username or email already exists",
	}

	// ErrInvalidCredentials does not say whether the account exists.
	ErrInvalidCredentials = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       ErrorCodeInvalidCredentials,
		Message:    "invalid credentials",
	}

	// ErrInvalidToken is returned when a token is missing, invalid, expired or revoked.
	ErrInvalidToken = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       ErrorCodeInvalidToken,
		Message:    "the token is missing, invalid, expired or revoked",
	}

	// ErrRoleDenied is returned when the account's role may not use the endpoint.
	ErrRoleDenied = &APIError{
		StatusCode: http.StatusForbidden,
		Code:       ErrorCodeRoleDenied,
		Message:    "this account may not use this endpoint",
	}

	ErrNotFound = &APIError{
		StatusCode: http.StatusNotFound,
		Code:       ErrorCodeNotFound,
		Message:    "not found",
	}

	// ErrRateLimited is returned while a ban is in force.
	ErrRateLimited = &APIError{
		StatusCode: http.StatusTooManyRequests,
		Code:       ErrorCodeRateLimited,
		Message:    "too many attempts, try again later",
	}

	// ErrCaptchaRequired is returned when a solved challenge must accompany
	// the request.
	ErrCaptchaRequired = &APIError{
		StatusCode: http.StatusPreconditionRequired,
		Code:       ErrorCodeCaptchaRequired,
		Message:    "solve the captcha to continue",
	}

	// ErrServerError never carries storage details.
	ErrServerError = &APIError{
		StatusCode: http.StatusInternalServerError,
		Code:       ErrorCodeServerError,
		Message:    "internal server error",
	}
)

// NewAPIError creates an APIError with the given status code, error code, and message.
func NewAPIError(statusCode int, code, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
	}
}

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// parseErrorResponse turns a non-2xx response into an *APIError. Returns nil
// for 2xx.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != "" {
		apiErr.StatusCode = resp.StatusCode
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			apiErr.RetryAfter = time.Duration(secs) * time.Second
		}
		return &apiErr
	}

	// Fallback: create generic error from status code
	return &APIError{
		StatusCode: resp.StatusCode,
		Code:       ErrorCodeServerError,
		Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
