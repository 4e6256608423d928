package authsdk

import (
	"context"
	"net/http"
)

// GetJWKS retrieves the JSON Web Key Set for token verification.
func (c *SDKClient) GetJWKS(ctx context.Context) (*JWKSResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, PathJWKS, nil, nil)
	if err != nil {
		return nil, err
	}

	var jwks JWKSResponse
	if err := decodeJSON(resp, &jwks, http.StatusOK); err != nil {
		return nil, err
	}

	return &jwks, nil
}

// GetDiscovery retrieves the OpenID provider configuration.
func (c *SDKClient) GetDiscovery(ctx context.Context) (*DiscoveryResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, PathDiscovery, nil, nil)
	if err != nil {
		return nil, err
	}

	var doc DiscoveryResponse
	if err := decodeJSON(resp, &doc, http.StatusOK); err != nil {
		return nil, err
	}

	return &doc, nil
}
