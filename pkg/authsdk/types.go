package authsdk

import (
	"github.com/aussiebroadwan/authserver/pkg/jwtx"
)

// ErrorResponse is the RFC 6749 error body, used when parsing responses.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// TokenResponse is the token endpoint response (RFC 6749 section 5.1).
// client_credentials never returns a refresh token.
type TokenResponse struct {
	// AccessToken is the RS256-signed JWT
	AccessToken string `json:"access_token" example:"eyJhbGciOiJSUzI1NiIsImtpZCI6Ii4uLiJ9..."`

	// TokenType is "bearer"
	TokenType string `json:"token_type" example:"bearer"`

	// ExpiresIn is the lifetime in seconds of the access token
	ExpiresIn int64 `json:"expires_in" example:"3600"`

	// Scope is the space-delimited list of scopes granted to this token
	Scope string `json:"scope,omitempty" example:"read write"`

	// Jti is the token's unique id, also present as the jti claim
	Jti string `json:"jti,omitempty" example:"01J9Z8Q6W3X4Y5Z6A7B8C9D0EF"`
}

// IntrospectionResponse is the RFC 7662 response. When a token is inactive
// only Active is set.
type IntrospectionResponse struct {
	Active bool `json:"active"`

	Scope       string         `json:"scope,omitempty"`
	ClientID    string         `json:"client_id,omitempty"`
	Username    string         `json:"username,omitempty"`
	TokenType   string         `json:"token_type,omitempty"`
	Exp         int64          `json:"exp,omitempty"`
	Iat         int64          `json:"iat,omitempty"`
	Nbf         int64          `json:"nbf,omitempty"`
	Sub         string         `json:"sub,omitempty"`
	Iss         string         `json:"iss,omitempty"`
	Jti         string         `json:"jti,omitempty"`
	Authorities []string       `json:"authorities,omitempty"`
	Extra       map[string]any `json:"ext,omitempty"`
}

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status ("ok" or "degraded")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks is the per-dependency readiness status.
type HealthChecks struct {
	// Store is the client registry status
	Store string `json:"store"`

	// Signer indicates the JWT signing capability status
	Signer string `json:"signer"`
}

// JWKSResponse is the document served at /.well-known/jwks.json.
type JWKSResponse jwtx.JWKS

// DiscoveryResponse is the minimal OpenID provider metadata document. Field
// order is the published order.
type DiscoveryResponse struct {
	Issuer                string   `json:"issuer" example:"http://localhost:8080"`
	JWKSURI               string   `json:"jwks_uri" example:"http://localhost:8080/.well-known/jwks.json"`
	SubjectTypesSupported []string `json:"subject_types_supported" example:"public"`
}
