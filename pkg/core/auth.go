package core

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Auth types accepted by the HTTP transport
const (
	AuthNone   = "none"
	AuthBearer = "bearer"
	AuthBasic  = "basic"
)

// SecureCompareString performs constant-time string comparison
func SecureCompareString(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

var weakTokens = []string{
	"password", "secret", "token", "admin", "test", "default",
	"12345", "qwerty", "letmein", "changeme",
}

// ValidateAuthToken rejects empty, short or obviously guessable credentials
func ValidateAuthToken(token string) error {
	if token == "" {
		return NewError(ErrInvalidParameter, "Authentication token cannot be empty").
			WithGuidance("Provide a valid authentication token.")
	}
	if len(token) < 16 {
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

// AuthResult is the outcome of checking one request
type AuthResult struct {
	Authorized bool
	Error      string
}

// Authenticator checks requests against a configured credential.
// For basic auth the credential is "user:password".
type Authenticator struct {
	Type       string
	Credential string
}

// NewAuthenticator validates the credential for the given auth type
func NewAuthenticator(authType, credential string) (*Authenticator, error) {
	switch authType {
	case "", AuthNone:
		return &Authenticator{Type: AuthNone}, nil
	case AuthBearer, AuthBasic:
		if err := ValidateAuthToken(credential); err != nil {
			return nil, err
		}
		return &Authenticator{Type: authType, Credential: credential}, nil
	}
	return nil, NewError(ErrInvalidParameter, "unknown auth type "+authType).
		WithSuggestions(AuthNone, AuthBearer, AuthBasic)
}

// Authenticate checks the request's Authorization header
func (a *Authenticator) Authenticate(r *http.Request) AuthResult {
	switch a.Type {
	case AuthBearer:
		return AuthenticateBearer(r.Header.Get("Authorization"), a.Credential)
	case AuthBasic:
		user, pass, _ := r.BasicAuth()
		return AuthenticateBasic(user, pass, a.Credential)
	}
	return AuthResult{Authorized: true}
}

// AuthenticateBearer checks a "Bearer <token>" header
func AuthenticateBearer(authHeader, expectedToken string) AuthResult {
	if authHeader == "" {
		return AuthResult{Error: "Missing Authorization header"}
	}

	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || scheme != "Bearer" {
		return AuthResult{Error: "Invalid Authorization header format"}
	}
	if !SecureCompareString(token, expectedToken) {
		return AuthResult{Error: "Invalid bearer token"}
	}
	return AuthResult{Authorized: true}
}

// AuthenticateBasic checks basic auth credentials against "user:password"
func AuthenticateBasic(username, password, expectedCredentials string) AuthResult {
	if username == "" || password == "" {
		return AuthResult{Error: "Missing basic auth credentials"}
	}
	if !SecureCompareString(username+":"+password, expectedCredentials) {
		return AuthResult{Error: "Invalid basic auth credentials"}
	}
	return AuthResult{Authorized: true}
}
