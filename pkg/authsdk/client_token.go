package authsdk

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"
)

// ClientCredentialsGrant requests an access token using the OAuth2
// client_credentials grant. Empty scopes asks for every scope the client is
// registered for.
func (c *SDKClient) ClientCredentialsGrant(
	ctx context.Context,
	clientID, clientSecret string,
	scopes []string,
) (*TokenResponse, error) {
	data := url.Values{"grant_type": {"client_credentials"}}
	if len(scopes) > 0 {
		data.Set("scope", strings.Join(scopes, " "))
	}

	headers := map[string]string{"Content-Type": "application/x-www-form-urlencoded"}
	switch c.AuthStyle {
	case AuthStyleForm:
		data.Set("client_id", clientID)
		data.Set("client_secret", clientSecret)
	default:
		headers["Authorization"] = basicAuth(clientID, clientSecret)
	}

	return c.requestToken(ctx, data, headers)
}

func (c *SDKClient) requestToken(ctx context.Context, data url.Values, headers map[string]string) (*TokenResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, PathToken, strings.NewReader(data.Encode()), headers)
	if err != nil {
		return nil, err
	}

	var tokenResp TokenResponse
	if err := decodeJSON(resp, &tokenResp, http.StatusOK); err != nil {
		return nil, err
	}
	return &tokenResp, nil
}

// basicAuth follows RFC 6749 section 2.3.1: both parts are form-encoded
// before being joined.
func basicAuth(id, secret string) string {
	raw := url.QueryEscape(id) + ":" + url.QueryEscape(secret)
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(raw))
}
