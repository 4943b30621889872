package httpx

import (
	"net/http"
	"strings"
)

// BearerToken extracts the credential from "Authorization: Bearer <jwt>".
// The legacy "Auth: Bearer <jwt>" header used by older clients is accepted
// when Authorization is absent.
func BearerToken(r *http.Request) (string, bool) {
	for _, name := range []string{"Authorization", "Auth"} {
		v := strings.TrimSpace(r.Header.Get(name))
		if v == "" {
			continue
		}

		scheme, token, ok := strings.Cut(v, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return "", false
		}
		token = strings.TrimSpace(token)
		return token, token != ""
	}
	return "", false
}

// WriteBearerError writes an RFC 6750 challenge with a JSON body.
func WriteBearerError(w http.ResponseWriter, status int, code, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="`+code+`", error_description="`+desc+`"`)
	WriteJSON(w, status, map[string]string{
		"error":   code,
		"message": desc,
	})
}
