package service

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error kinds. Callers match with errors.Is; the HTTP layer maps each kind
// to a status code.
var (
	ErrValidation         = errors.New("validation_error")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrRoleDenied         = errors.New("role_denied")
	ErrTokenInvalid       = errors.New("invalid_token")
	ErrRateLimited        = errors.New("rate_limited")
	ErrCaptchaRequired    = errors.New("captcha_required")
	ErrNotFound           = errors.New("not_found")
	ErrStorage            = errors.New("storage_error")
)

// ValidationError carries every problem found with the input, not just the
// first.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation_error: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ConflictError names the unique field that clashed.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string { return e.Field + " already exists" }

func (e *ConflictError) Unwrap() error { return ErrConflict }

// RateLimitError refuses a caller under a ban. RetryAfter is how long until
// the ban lifts.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate_limited: retry after %s", e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// StorageError wraps a persistence failure. It matches both ErrStorage and
// the underlying driver error.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage_error: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error { return []error{ErrStorage, e.Err} }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// tokenInvalid tags why a token was refused while still matching
// ErrTokenInvalid.
func tokenInvalid(reason error) error {
	return fmt.Errorf("%w: %w", ErrTokenInvalid, reason)
}

// problems accumulates validation messages.
type problems []string

func (p *problems) add(format string, args ...any) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

func (p problems) err() error {
	if len(p) == 0 {
		return nil
	}
	return &ValidationError{Problems: p}
}
