package domain

import (
	"maps"
	"time"
)

// TokenTypeBearer is the token_type of every issued token.
const TokenTypeBearer = "Bearer"

// Authentication is who a token was issued to: the client acting as its own
// principal under client_credentials.
type Authentication struct {
	ClientID    string
	Principal   string
	Authorities []string
	Scopes      []string
}

// AccessToken is an issued (or about to be issued) access token. Enhancers
// never modify a token in place; they return a copy.
type AccessToken struct {
	Value     string
	TokenType string
	ID        string // jti
	IssuedAt  time.Time
	ExpiresAt time.Time
	Scopes    []string

	// AdditionalInformation carries claims contributed by enhancers, such
	// as iss.
	AdditionalInformation map[string]any
}

// ExpiresIn is the remaining lifetime at now, never negative.
func (t AccessToken) ExpiresIn(now time.Time) time.Duration {
	return max(t.ExpiresAt.Sub(now), 0)
}

// WithInfo returns a copy of t whose additional information has key set to
// value. The receiver's map is left untouched.
func (t AccessToken) WithInfo(key string, value any) AccessToken {
	info := make(map[string]any, len(t.AdditionalInformation)+1)
	maps.Copy(info, t.AdditionalInformation)
	info[key] = value
	t.AdditionalInformation = info
	return t
}
