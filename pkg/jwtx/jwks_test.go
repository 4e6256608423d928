package jwtx_test

import (
	"crypto"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"strings"
	"testing"

	"github.com/aussiebroadwan/authserver/pkg/jwtx"
	"github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/require"
)

func TestPublicJWKShape(t *testing.T) {
	km := testManager(t, jwtx.VerifyOptions{})
	jwk := km.Signer.PublicJWK()

	raw, err := json.Marshal(jwk)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(raw), `{"kty":"RSA","use":"sig","alg":"RS256","kid":"`))
	require.Equal(t, "AQAB", jwk.E)
}

func TestJWKMatchesGoJose(t *testing.T) {
	pair := testPair(t)
	jwk := jwtx.NewRSAJWK(pair.KID(), "sig", "RS256", pair.Public())

	raw, err := json.Marshal(jwk)
	require.NoError(t, err)

	var parsed jose.JSONWebKey
	require.NoError(t, json.Unmarshal(raw, &parsed))
	require.True(t, parsed.Valid())
	require.Equal(t, pair.KID(), parsed.KeyID)

	pub, ok := parsed.Key.(*rsa.PublicKey)
	require.True(t, ok)
	require.True(t, pub.Equal(pair.Public()))

	sum, err := parsed.Thumbprint(crypto.SHA256)
	require.NoError(t, err)
	require.Equal(t, pair.KID(), base64.RawURLEncoding.EncodeToString(sum))
}

func TestJWKPublicKeyRoundTrip(t *testing.T) {
	pair := testPair(t)
	jwk := jwtx.NewRSAJWK(pair.KID(), "sig", "RS256", pair.Public())

	pub, err := jwk.PublicKey()
	require.NoError(t, err)
	require.True(t, pub.Equal(pair.Public()))

	_, err = jwtx.JWK{Kty: "EC", N: jwk.N, E: jwk.E}.PublicKey()
	require.Error(t, err)

	_, err = jwtx.JWK{Kty: "RSA", N: "!!", E: jwk.E}.PublicKey()
	require.Error(t, err)
}

func TestJWKPEM(t *testing.T) {
	pair := testPair(t)
	pemStr, err := jwtx.NewRSAJWK(pair.KID(), "sig", "RS256", pair.Public()).PEM()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(pemStr, "-----BEGIN PUBLIC KEY-----"))

	block, _ := pem.Decode([]byte(pemStr))
	require.NotNil(t, block)
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	require.NoError(t, err)
	require.True(t, pair.Public().Equal(parsed))
}

func TestKeySet(t *testing.T) {
	pair := testPair(t)
	jwk := jwtx.NewRSAJWK(pair.KID(), "sig", "RS256", pair.Public())

	ks := jwtx.NewKeySet()
	require.False(t, ks.IsReady())

	_, err := ks.Get(pair.KID())
	require.ErrorIs(t, err, jwtx.ErrNoKey)

	require.NoError(t, ks.AddJWK(jwk))
	require.NoError(t, ks.AddJWK(jwk))
	require.True(t, ks.IsReady())
	require.Len(t, ks.PublicJWKS().Keys, 1)

	got, err := ks.Get(pair.KID())
	require.NoError(t, err)
	require.True(t, got.Equal(pair.Public()))

	// Snapshots are copies.
	snap := ks.PublicJWKS()
	snap.Keys[0].Kid = "mutated"
	require.Equal(t, pair.KID(), ks.PublicJWKS().Keys[0].Kid)
}

func TestKeySetResetFromJWKS(t *testing.T) {
	pair := testPair(t)
	good := jwtx.NewRSAJWK(pair.KID(), "sig", "RS256", pair.Public())

	ks := jwtx.NewKeySet()
	require.NoError(t, ks.ResetFromJWKS(jwtx.JWKS{Keys: []jwtx.JWK{good}}))
	require.True(t, ks.IsReady())

	err := ks.ResetFromJWKS(jwtx.JWKS{Keys: []jwtx.JWK{{Kty: "OKP", Kid: "x"}}})
	require.Error(t, err)

	// failed reset leaves the old keys
	_, err = ks.Get(pair.KID())
	require.NoError(t, err)
}
