package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/authserver/pkg/authsdk"
	"github.com/aussiebroadwan/authserver/pkg/httpx"
	"github.com/aussiebroadwan/authserver/pkg/jwtx"
)

// wellKnownMaxAge is the public cache lifetime of the well-known documents.
const wellKnownMaxAge = 3600

// JWKSHandler godoc
//
//	@Summary		Get JWKS
//	@Description	Returns the JSON Web Key Set used to verify access tokens. The document is rendered once at start-up.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	authsdk.JWKSResponse	"The JSON Web Key Set"
//	@Header			200	{string}	Cache-Control			"public, max-age=3600"
//	@Router			/.well-known/jwks.json [get].
func JWKSHandler(keys *jwtx.KeySet) (http.Handler, error) {
	body, err := json.Marshal(authsdk.JWKSResponse(keys.PublicJWKS()))
	if err != nil {
		return nil, fmt.Errorf("render jwks: %w", err)
	}
	return staticJSON(body), nil
}

// staticJSON serves a pre-rendered body byte for byte.
func staticJSON(body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteCachedJSON(w, body, wellKnownMaxAge)
	}
}
