package authsdk

import "time"

// ============================================================================
// Auth Types
// ============================================================================

// CaptchaFields carries a solved challenge. Both fields are empty unless the
// server previously answered captcha_required.
type CaptchaFields struct {
	// CaptchaToken is the token from the challenge
	CaptchaToken string `json:"captcha_token,omitempty"`

	// CaptchaAnswer is the sum of A and B
	CaptchaAnswer string `json:"captcha_answer,omitempty"`
}

// RegisterRequest is the body of POST /v1/auth/register and POST /v1/admin/admins.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	CaptchaFields
}

// LoginRequest is the body of POST /v1/auth/login and POST /v1/admin/login.
type LoginRequest struct {
	// Identifier is a username or an email address
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	CaptchaFields
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	// AccessToken is the JWT access token used to authenticate API requests
	AccessToken string `json:"access_token"`

	// RefreshToken is the JWT used to obtain new access tokens
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenType is always "Bearer"
	TokenType string `json:"token_type"`

	// ExpiresIn is the lifetime in seconds of the access token
	ExpiresIn int `json:"expires_in"`

	// RefreshExpiresAt is when the refresh token stops working
	RefreshExpiresAt *time.Time `json:"refresh_expires_at,omitempty"`

	User *UserResponse `json:"user,omitempty"`
}

// RefreshRequest is the body of POST /v1/auth/refresh and POST /v1/auth/logout.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// CaptchaResponse is an arithmetic challenge: send back A+B with Token.
type CaptchaResponse struct {
	A         int       `json:"a"`
	B         int       `json:"b"`
	Question  string    `json:"question"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ============================================================================
// User Types
// ============================================================================

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpdateProfileRequest is the body of PUT /v1/users/me. Empty fields are
// left unchanged.
type UpdateProfileRequest struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// ChangePasswordRequest is the body of POST /v1/users/me/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// MessageResponse is returned by endpoints with nothing else to say.
type MessageResponse struct {
	Message string `json:"message"`
}

// ClearRateLimitsResponse reports how many log rows were removed.
type ClearRateLimitsResponse struct {
	Deleted int64 `json:"deleted"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	// Database indicates the database connection status
	Database string `json:"database"`
}
