/*
Package authsdk provides a client SDK for the fintrack authentication service
and the error type its HTTP handlers write.

# SDKClient vs Session

  - SDKClient: public endpoints (register, login, refresh, captcha, health)
  - Session: authenticated endpoints with automatic access-token refresh

	client := authsdk.NewSDKClient("https://auth.example.com")

	health, err := client.GetLiveness(ctx)

	session, err := client.AuthenticateWithPassword(ctx, "alice", "Passw0rd!")

	profile, err := session.GetProfile(ctx)

# Automatic Token Refresh

All Session methods call getValidToken() internally, which:

 1. Checks if the access token is still valid (with 30-second buffer)
 2. If expired, exchanges the refresh token for a new access token
 3. Updates the session with the new token

Refresh tokens are not rotated; the same one is reused until it expires,
the user logs out, or the password changes.

# Rate Limiting and Captcha

Login and registration are rate limited per client IP. While a ban is in
force the server answers 428 with a fresh challenge in APIError.Captcha. Solve
it and retry; each solved challenge is good for one request:

	tokens, err := client.Login(ctx, req)
	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) && apiErr.Captcha != nil {
		req.CaptchaFields = apiErr.Captcha.Solve()
		tokens, err = client.Login(ctx, req)
	}

# Error Handling

Every non-2xx response is returned as *APIError. Compare against the
predefined errors with errors.Is, which matches on Code:

	if errors.Is(err, authsdk.ErrInvalidCredentials) {
		// wrong identifier or password
	}

# Thread Safety

Sessions are safe for concurrent use. Multiple goroutines can share a single
Session and make authenticated requests concurrently.
*/
package authsdk
