//go:build e2e

package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/authserver/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestClientCredentialsFlow covers the demo registry end to end:
// 1. The administration client authenticates with HTTP Basic
// 2. The issued token verifies against the published JWKS
// 3. The claims carry sub, authorities and a single iss
func TestClientCredentialsFlow(t *testing.T) {
	baseURL := setupAuthContainer(t)
	client := authsdk.NewSDKClient(baseURL)

	tokenResp, err := client.ClientCredentialsGrant(t.Context(), adminID, demoSecret, nil)
	require.NoError(t, err)
	assertTokenResponse(t, tokenResp)
	require.Equal(t, "read write delete", tokenResp.Scope)
	require.EqualValues(t, time.Hour.Seconds(), tokenResp.ExpiresIn, "demo validity is clamped by AUTH_MAX_TOKEN_TTL")

	claims, err := verifierFromJWKS(t, client).Verify(tokenResp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, adminID, claims.Subject)
	require.Equal(t, adminID, claims.ClientID)
	require.Equal(t, testIssuer, claims.Issuer)
	require.Equal(t, []string{"ROLE_ADMIN"}, claims.Authorities)
	require.Equal(t, tokenResp.Jti, claims.ID)
}

// TestClientCredentialsFormAuth uses client_secret_post and a narrowed scope.
func TestClientCredentialsFormAuth(t *testing.T) {
	baseURL := setupAuthContainer(t)
	client := authsdk.NewSDKClient(baseURL)
	client.AuthStyle = authsdk.AuthStyleForm

	tokenResp, err := client.ClientCredentialsGrant(t.Context(), clientID, demoSecret, []string{"read"})
	require.NoError(t, err)
	assertTokenResponse(t, tokenResp)
	require.Equal(t, "read", tokenResp.Scope)

	claims, err := verifierFromJWKS(t, client).Verify(tokenResp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, []string{"ROLE_CLIENT"}, claims.Authorities)
	require.Equal(t, []string{"read"}, claims.Scope)
}

// TestClientCredentialsRejected covers the error responses of the token
// endpoint.
func TestClientCredentialsRejected(t *testing.T) {
	baseURL := setupAuthContainer(t)
	client := authsdk.NewSDKClient(baseURL)

	tests := []struct {
		name   string
		id     string
		secret string
		scopes []string
		want   *authsdk.OAuth2Error
	}{
		{"wrong secret", adminID, "wrong", nil, authsdk.ErrInvalidClient},
		{"unknown client", "nobody", demoSecret, nil, authsdk.ErrInvalidClient},
		{"unregistered scope", clientID, demoSecret, []string{"delete"}, authsdk.ErrInvalidScope},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.ClientCredentialsGrant(t.Context(), tt.id, tt.secret, tt.scopes)
			require.Error(t, err)
			require.ErrorIs(t, err, tt.want)

			var oauthErr *authsdk.OAuth2Error
			require.True(t, errors.As(err, &oauthErr))
			require.Equal(t, tt.want.StatusCode, oauthErr.StatusCode)
		})
	}
}
