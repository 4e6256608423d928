package authsdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// expiryBuffer is how long before exp a session fetches a new token.
const expiryBuffer = 30 * time.Second

// Session holds an access token for a single client and renews it with the
// client_credentials grant when it is close to expiry.
type Session struct {
	client *SDKClient

	clientID     string
	clientSecret string
	requested    []string

	mu          sync.RWMutex
	accessToken string
	expiresAt   time.Time
	scopes      map[string]bool
}

func newSession(client *SDKClient, clientID, clientSecret string, requested []string, tokenResp *TokenResponse) *Session {
	s := &Session{
		client:       client,
		clientID:     clientID,
		clientSecret: clientSecret,
		requested:    append([]string(nil), requested...),
	}
	s.store(tokenResp)
	return s
}

func (s *Session) store(tokenResp *TokenResponse) {
	s.accessToken = tokenResp.AccessToken
	s.expiresAt = time.Now().Add(time.Duration(tokenResp.ExpiresIn)*time.Second - expiryBuffer)
	s.scopes = parseScopes(tokenResp.Scope)
}

func parseScopes(scopeStr string) map[string]bool {
	parts := strings.Fields(scopeStr)
	scopes := make(map[string]bool, len(parts))
	for _, scope := range parts {
		scopes[scope] = true
	}
	return scopes
}

// Token returns a valid access token, re-running the grant if the current
// one is about to expire.
func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	if time.Now().Before(s.expiresAt) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// another goroutine may have renewed while we waited
	if time.Now().Before(s.expiresAt) {
		return s.accessToken, nil
	}

	tokenResp, err := s.client.ClientCredentialsGrant(ctx, s.clientID, s.clientSecret, s.requested)
	if err != nil {
		return "", fmt.Errorf("failed to renew token: %w", err)
	}
	s.store(tokenResp)

	return s.accessToken, nil
}

// ClientID returns the client the session authenticates as.
func (s *Session) ClientID() string { return s.clientID }

// Scopes returns the granted scopes.
func (s *Session) Scopes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scopes := make([]string, 0, len(s.scopes))
	for scope := range s.scopes {
		scopes = append(scopes, scope)
	}
	return scopes
}

// HasScope returns true if the session has the specified scope.
func (s *Session) HasScope(scope string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scopes[scope]
}

// Introspect asks the server about token (RFC 7662), authenticating with
// the session's own access token.
func (s *Session) Introspect(ctx context.Context, token string) (*IntrospectionResponse, error) {
	bearer, err := s.Token(ctx)
	if err != nil {
		return nil, err
	}

	body := url.Values{"token": {token}}.Encode()
	resp, err := s.client.doRequest(ctx, http.MethodPost, PathIntrospect, strings.NewReader(body), map[string]string{
		"Authorization": "Bearer " + bearer,
		"Content-Type":  "application/x-www-form-urlencoded",
	})
	if err != nil {
		return nil, err
	}

	var out IntrospectionResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
