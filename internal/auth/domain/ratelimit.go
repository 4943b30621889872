package domain

import "time"

// Endpoint tags recorded with each rate-limited attempt.
const (
	EndpointUserLogin        = "user_login"
	EndpointAdminLogin       = "admin_login"
	EndpointUserRegistration = "user_registration"
)

// RateLimitRecord is one row of the attempt log. A row with BlockedUntil set
// is a ban; a row without it is a plain attempt.
type RateLimitRecord struct {
	ID             string
	IP             string
	Endpoint       string
	UserID         string // empty when the attempt could not be tied to an account
	BlockedUntil   *time.Time
	RequireCaptcha bool
	CreatedAt      time.Time
}

// Active reports whether the row is a ban still in force at now.
func (r RateLimitRecord) Active(now time.Time) bool {
	return r.BlockedUntil != nil && r.BlockedUntil.After(now)
}
