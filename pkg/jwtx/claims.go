package jwtx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/aussiebroadwan/authserver/pkg/idx"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultAccessTokenTTL is used when a client registration carries no
// validity of its own.
const DefaultAccessTokenTTL = 15 * time.Minute

// Claims are the access-token claims issued by the server. Typed fields are
// the claims the server owns; anything contributed by an enhancer that has
// no typed home travels in Extra.
type Claims struct {
	jwt.RegisteredClaims

	// Scope granted to the token, e.g. ["read","write"].
	Scope []string `json:"scope,omitempty"`

	// ClientID of the OAuth2 client the token was issued to.
	ClientID string `json:"client_id,omitempty"`

	// Authorities is a set: duplicates are dropped before encoding and
	// the claim is omitted entirely when empty.
	Authorities []string `json:"authorities,omitempty"`

	// Extra holds additional claims. Entries whose name collides with a
	// typed claim are ignored on encode.
	Extra map[string]any `json:"-"`
}

// typedClaimNames is every JSON name Claims encodes from a struct field.
var typedClaimNames = []string{
	"iss", "sub", "aud", "exp", "nbf", "iat", "jti",
	"scope", "client_id", "authorities",
}

// IsTypedClaim reports whether name is encoded from a typed Claims field.
func IsTypedClaim(name string) bool {
	return slices.Contains(typedClaimNames, name)
}

// claimsFields is Claims without its JSON methods.
type claimsFields Claims

// MarshalJSON writes the typed claims followed by Extra. Each claim name
// appears exactly once.
func (c Claims) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(claimsFields(c))
	if err != nil {
		return nil, err
	}
	if len(c.Extra) == 0 {
		return base, nil
	}

	present := map[string]json.RawMessage{}
	if err := json.Unmarshal(base, &present); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(c.Extra))
	for name := range c.Extra {
		if _, typed := present[name]; typed || IsTypedClaim(name) {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return base, nil
	}
	slices.Sort(names)

	var buf bytes.Buffer
	buf.Write(base[:len(base)-1]) // drop closing brace
	for i, name := range names {
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(c.Extra[name])
		if err != nil {
			return nil, fmt.Errorf("jwtx: encode claim %q: %w", name, err)
		}
		if i > 0 || len(present) > 0 {
			buf.WriteByte(',')
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON fills the typed fields and collects every other claim into
// Extra.
func (c *Claims) UnmarshalJSON(data []byte) error {
	var fields claimsFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, name := range typedClaimNames {
		delete(all, name)
	}
	if len(all) > 0 {
		fields.Extra = all
	}

	*c = Claims(fields)
	return nil
}

// NewJTI returns a fresh ULID for the "jti" claim.
func NewJTI() string {
	return idx.New().String()
}

// Dedupe returns values with duplicates and empty strings removed, keeping
// first-seen order. A nil result means the set is empty.
func Dedupe(values []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateAudience checks if at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil
	}

	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}

	return ErrAudience
}

// ValidateExpiryWithLeeway checks exp and nbf against now, allowing leeway
// either side for clock skew.
func (c *Claims) ValidateExpiryWithLeeway(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}

	return nil
}
