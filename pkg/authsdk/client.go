package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Server paths.
const (
	PathToken      = "/oauth/token"
	PathCheckToken = "/oauth/check_token"
	PathIntrospect = "/oauth/introspect"
	PathJWKS       = "/.well-known/jwks.json"
	PathDiscovery  = "/.well-known/openid-configuration"
	PathLivez      = "/livez"
	PathReadyz     = "/readyz"
)

// AuthStyle selects how client credentials are sent to the token endpoint.
type AuthStyle int

const (
	// AuthStyleBasic sends an Authorization: Basic header (client_secret_basic).
	AuthStyleBasic AuthStyle = iota
	// AuthStyleForm sends client_id and client_secret in the body (client_secret_post).
	AuthStyleForm
)

// SDKClient is a client for the authorization server.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// AuthStyle for token requests. Defaults to HTTP Basic.
	AuthStyle AuthStyle
}

// NewSDKClient creates a client for the server at baseURL.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// AuthenticateWithClientCredentials creates a session for clientID. The
// secret is kept in memory so the session can fetch a new token on expiry.
func (c *SDKClient) AuthenticateWithClientCredentials(
	ctx context.Context,
	clientID, clientSecret string,
	scopes []string,
) (*Session, error) {
	tokenResp, err := c.ClientCredentialsGrant(ctx, clientID, clientSecret, scopes)
	if err != nil {
		return nil, err
	}

	return newSession(c, clientID, clientSecret, scopes, tokenResp), nil
}
