package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/authserver/pkg/authsdk"
)

// JWKSPath is where the key set is served, relative to the issuer.
const JWKSPath = "/.well-known/jwks.json"

// DiscoveryDocument builds the provider metadata for issuer, which is
// expected without a trailing slash.
func DiscoveryDocument(issuer string) authsdk.DiscoveryResponse {
	return authsdk.DiscoveryResponse{
		Issuer:                issuer,
		JWKSURI:               issuer + JWKSPath,
		SubjectTypesSupported: []string{"public"},
	}
}

// DiscoveryHandler godoc
//
//	@Summary		OpenID Provider Configuration
//	@Description	Minimal discovery document pointing relying parties at the JWKS. Rendered once at start-up.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	authsdk.DiscoveryResponse	"issuer, jwks_uri, subject_types_supported"
//	@Header			200	{string}	Cache-Control				"public, max-age=3600"
//	@Router			/.well-known/openid-configuration [get].
func DiscoveryHandler(issuer string) (http.Handler, error) {
	body, err := json.Marshal(DiscoveryDocument(issuer))
	if err != nil {
		return nil, fmt.Errorf("render discovery document: %w", err)
	}
	return staticJSON(body), nil
}
