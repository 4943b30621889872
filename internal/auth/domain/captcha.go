package domain

import "time"

// CaptchaChallenge asks the caller to add A and B. Token carries the signed
// expectation and is handed back with the answer.
type CaptchaChallenge struct {
	A         int
	B         int
	Token     string
	ExpiresAt time.Time
}
