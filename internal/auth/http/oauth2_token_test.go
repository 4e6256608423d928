package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/authserver/pkg/authsdk"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

func postForm(t *testing.T, target string, form url.Values, mutate func(*http.Request)) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, target, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if mutate != nil {
		mutate(req)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestTokenWithClientCredentialsLibrary(t *testing.T) {
	srv := newTestServer(t)

	for _, style := range []oauth2.AuthStyle{oauth2.AuthStyleInHeader, oauth2.AuthStyleInParams} {
		cfg := clientcredentials.Config{
			ClientID:     "client",
			ClientSecret: "password",
			TokenURL:     srv.URL + "/oauth/token",
			Scopes:       []string{"read"},
			AuthStyle:    style,
		}
		tok, err := cfg.Token(t.Context())
		require.NoError(t, err)
		require.Equal(t, "Bearer", tok.Type())
		require.NotEmpty(t, tok.AccessToken)
		require.NotEmpty(t, tok.Extra("jti"))
		require.Equal(t, "read", tok.Extra("scope"))
		require.WithinDuration(t, time.Now().Add(time.Hour), tok.Expiry, 5*time.Second)
	}
}

func TestTokenVerifiesViaDiscovery(t *testing.T) {
	srv := newTestServer(t)

	cfg := clientcredentials.Config{
		ClientID:     "administration",
		ClientSecret: "password",
		TokenURL:     srv.URL + "/oauth/token",
	}
	tok, err := cfg.Token(t.Context())
	require.NoError(t, err)

	provider, err := oidc.NewProvider(t.Context(), srv.issuer)
	require.NoError(t, err)
	verifier := provider.Verifier(&oidc.Config{SkipClientIDCheck: true})

	idToken, err := verifier.Verify(t.Context(), tok.AccessToken)
	require.NoError(t, err)
	require.Equal(t, srv.issuer, idToken.Issuer)
	require.Equal(t, "administration", idToken.Subject)

	var claims struct {
		Authorities []string `json:"authorities"`
		Scope       []string `json:"scope"`
		ClientID    string   `json:"client_id"`
	}
	require.NoError(t, idToken.Claims(&claims))
	require.Equal(t, []string{"ROLE_ADMIN"}, claims.Authorities)
	require.Equal(t, []string{"read", "write", "delete"}, claims.Scope)
	require.Equal(t, "administration", claims.ClientID)
}

func TestTokenResponseShape(t *testing.T) {
	srv := newTestServer(t)

	resp, body := postForm(t, srv.URL+"/oauth/token", url.Values{
		"grant_type": {"client_credentials"},
		"scope":      {"read write"},
	}, func(r *http.Request) { r.SetBasicAuth("client", "password") })
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	require.Equal(t, "no-cache", resp.Header.Get("Pragma"))

	var tr authsdk.TokenResponse
	require.NoError(t, json.Unmarshal(body, &tr))
	require.Equal(t, "bearer", tr.TokenType)
	require.Equal(t, int64(3600), tr.ExpiresIn)
	require.Equal(t, "read write", tr.Scope)
	require.NotEmpty(t, tr.Jti)
	require.Len(t, strings.Split(tr.AccessToken, "."), 3)
}

func TestTokenErrors(t *testing.T) {
	srv := newTestServer(t)
	basic := func(id, secret string) func(*http.Request) {
		return func(r *http.Request) { r.SetBasicAuth(id, secret) }
	}

	tests := []struct {
		name       string
		form       url.Values
		mutate     func(*http.Request)
		wantStatus int
		wantCode   string
		wantBasic  bool
	}{
		{
			name:       "missing grant type",
			form:       url.Values{"client_id": {"client"}, "client_secret": {"password"}},
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_request",
		},
		{
			name:       "unsupported grant type",
			form:       url.Values{"grant_type": {"password"}},
			wantStatus: http.StatusBadRequest,
			wantCode:   "unsupported_grant_type",
		},
		{
			name:       "no client authentication",
			form:       url.Values{"grant_type": {"client_credentials"}},
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_request",
		},
		{
			name:       "bad secret via basic",
			form:       url.Values{"grant_type": {"client_credentials"}},
			mutate:     basic("client", "wrong"),
			wantStatus: http.StatusUnauthorized,
			wantCode:   "invalid_client",
			wantBasic:  true,
		},
		{
			name:       "bad secret via form",
			form:       url.Values{"grant_type": {"client_credentials"}, "client_id": {"client"}, "client_secret": {"wrong"}},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "invalid_client",
		},
		{
			name:       "unknown client",
			form:       url.Values{"grant_type": {"client_credentials"}},
			mutate:     basic("nobody", "password"),
			wantStatus: http.StatusUnauthorized,
			wantCode:   "invalid_client",
			wantBasic:  true,
		},
		{
			name:       "both auth methods",
			form:       url.Values{"grant_type": {"client_credentials"}, "client_secret": {"password"}},
			mutate:     basic("client", "password"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_request",
		},
		{
			name:       "grant not registered",
			form:       url.Values{"grant_type": {"client_credentials"}},
			mutate:     basic("browser", "password"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "unauthorized_client",
		},
		{
			name:       "scope not registered",
			form:       url.Values{"grant_type": {"client_credentials"}, "scope": {"delete"}},
			mutate:     basic("client", "password"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_scope",
		},
		{
			name: "wrong content type",
			form: url.Values{"grant_type": {"client_credentials"}},
			mutate: func(r *http.Request) {
				r.Header.Set("Content-Type", "application/json")
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_request",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := postForm(t, srv.URL+"/oauth/token", tt.form, tt.mutate)
			require.Equal(t, tt.wantStatus, resp.StatusCode, string(body))

			var er authsdk.ErrorResponse
			require.NoError(t, json.Unmarshal(body, &er))
			require.Equal(t, tt.wantCode, er.Error)

			if tt.wantBasic {
				require.Contains(t, resp.Header.Get("WWW-Authenticate"), "Basic")
			} else {
				require.Empty(t, resp.Header.Get("WWW-Authenticate"))
			}
		})
	}
}

func TestTokenRequestsAreCounted(t *testing.T) {
	srv := newTestServer(t)

	postForm(t, srv.URL+"/oauth/token", url.Values{"grant_type": {"client_credentials"}},
		func(r *http.Request) { r.SetBasicAuth("client", "password") })
	postForm(t, srv.URL+"/oauth/token", url.Values{"grant_type": {"client_credentials"}},
		func(r *http.Request) { r.SetBasicAuth("client", "wrong") })

	_, body := get(t, srv.URL+"/metrics")
	require.Contains(t, string(body), `authserver_token_requests_total{code="ok"} 1`)
	require.Contains(t, string(body), `authserver_token_requests_total{code="invalid_client"} 1`)
	require.Contains(t, string(body), `authserver_tokens_issued_total{grant_type="client_credentials"} 1`)
}
