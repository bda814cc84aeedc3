package core

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"
)

// Supported HTTP authentication types
const (
	AuthNone   = "none"
	AuthBearer = "bearer"
	AuthBasic  = "basic"
)

// AuthResult represents the result of authentication
type AuthResult struct {
	Authorized bool
	Error      string
	Duration   time.Duration
}

// SecureCompareString compares two strings in constant time.
func SecureCompareString(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

var weakTokens = []string{
	"password", "secret", "token", "admin", "test", "default", "12345",
}

// ValidateAuthToken rejects empty, short, or obviously weak tokens.
func ValidateAuthToken(token string) error {
	switch {
	case token == "":
		return NewError(ErrInvalidParameter, "Authentication token cannot be empty").
			WithGuidance("Provide a valid authentication token.")
	case len(token) < 16:
		return NewError(ErrInvalidParameter, "Authentication token is too short").
			WithGuidance("Use a token with at least 16 characters.")
	}

	lower := strings.ToLower(token)
	for _, weak := range weakTokens {
		if strings.Contains(lower, weak) {
			return NewError(ErrInvalidParameter, "Authentication token appears to be weak").
				WithGuidance("Use a randomly generated authentication token.")
		}
	}
	return nil
}

// Authenticate checks r against the configured auth type and secret.
// For basic auth the secret has the form "user:password".
func Authenticate(r *http.Request, authType, secret string) AuthResult {
	start := time.Now()
	res := authenticate(r, authType, secret)
	res.Duration = time.Since(start)
	return res
}

func authenticate(r *http.Request, authType, secret string) AuthResult {
	switch authType {
	case AuthNone, "":
		return AuthResult{Authorized: true}

	case AuthBearer:
		header := r.Header.Get("Authorization")
		if header == "" {
			return AuthResult{Error: "Missing Authorization header"}
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return AuthResult{Error: "Invalid Authorization header format"}
		}
		if !SecureCompareString(token, secret) {
			return AuthResult{Error: "Invalid bearer token"}
		}
		return AuthResult{Authorized: true}

	case AuthBasic:
		user, pass, ok := r.BasicAuth()
		if !ok || user == "" || pass == "" {
			return AuthResult{Error: "Missing basic auth credentials"}
		}
		if !SecureCompareString(user+":"+pass, secret) {
			return AuthResult{Error: "Invalid basic auth credentials"}
		}
		return AuthResult{Authorized: true}
	}

	return AuthResult{Error: "Unknown auth type"}
}
