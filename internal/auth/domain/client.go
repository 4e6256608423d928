package domain

import (
	"slices"
	"time"
)

// GrantClientCredentials is the only grant type the server issues tokens for.
const GrantClientCredentials = "client_credentials"

// Client is a registered OAuth2 client.
type Client struct {
	ID          string
	Name        string
	SecretHash  string // argon2id PHC string, never the plaintext
	GrantTypes  []string
	Scopes      []string
	Authorities []string

	// AccessTokenValidity is the lifetime of tokens issued to this client.
	// Zero means the server default.
	AccessTokenValidity time.Duration

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AllowsGrant reports whether the client is registered for grantType.
func (c Client) AllowsGrant(grantType string) bool {
	return slices.Contains(c.GrantTypes, grantType)
}

// Confidential reports whether the client can authenticate with a secret.
func (c Client) Confidential() bool {
	return c.SecretHash != ""
}
