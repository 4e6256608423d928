package app

import (
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/authserver/pkg/cryptox"
	"github.com/aussiebroadwan/authserver/pkg/jwtx"
	"github.com/aussiebroadwan/authserver/pkg/slogx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestSampleKeyIsValid(t *testing.T) {
	priv, err := SampleKey()
	require.NoError(t, err)
	require.NoError(t, priv.Validate())
	require.Equal(t, 2048, priv.N.BitLen())
	require.Equal(t, 65537, priv.E)
}

func TestInitAuthKeysStatic(t *testing.T) {
	cfg := Config{KeySource: KeySourceStatic, Issuer: DefaultIssuer}

	km1, err := InitAuthKeys(cfg, slogx.Discard())
	require.NoError(t, err)
	km2, err := InitAuthKeys(cfg, slogx.Discard())
	require.NoError(t, err)

	require.True(t, km1.IsReady())
	require.Equal(t, km1.Signer.KID(), km2.Signer.KID(), "the sample key has a stable kid")

	now := time.Now()
	claims := jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    DefaultIssuer,
			Subject:   "client",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
		Scope:    []string{"read"},
		ClientID: "client",
	}
	signed, err := km1.Signer.Sign(claims)
	require.NoError(t, err)

	got, err := km2.Verifier.Verify(signed)
	require.NoError(t, err, "tokens survive a restart with the sample key")
	require.Equal(t, "client", got.Subject)

	claims.Issuer = "https://elsewhere.example.com"
	signed, err = km1.Signer.Sign(claims)
	require.NoError(t, err)
	_, err = km2.Verifier.Verify(signed)
	require.ErrorIs(t, err, jwtx.ErrIssuer)
}

func TestInitAuthKeysPEM(t *testing.T) {
	priv, err := cryptox.GenerateRSAKey(2048)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "signing.pem")
	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)}
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))

	km, err := InitAuthKeys(Config{KeySource: KeySourcePEM, KeyFile: path}, slogx.Discard())
	require.NoError(t, err)

	want, err := jwtx.Thumbprint(&priv.PublicKey)
	require.NoError(t, err)
	require.Equal(t, want, km.Signer.KID())
}

func TestInitAuthKeysPEMFailures(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.pem")
	require.NoError(t, os.WriteFile(garbage, []byte("not a key"), 0o600))

	_, err := InitAuthKeys(Config{KeySource: KeySourcePEM, KeyFile: garbage}, slogx.Discard())
	require.Error(t, err)

	_, err = InitAuthKeys(Config{KeySource: KeySourcePEM, KeyFile: filepath.Join(dir, "missing.pem")}, slogx.Discard())
	require.Error(t, err)
}

func TestInitAuthKeysGenerate(t *testing.T) {
	cfg := Config{KeySource: KeySourceGenerate, RSABits: 2048}

	km1, err := InitAuthKeys(cfg, slogx.Discard())
	require.NoError(t, err)
	km2, err := InitAuthKeys(cfg, slogx.Discard())
	require.NoError(t, err)

	require.NotEqual(t, km1.Signer.KID(), km2.Signer.KID())
}

func TestInitAuthKeysUnknownSource(t *testing.T) {
	_, err := InitAuthKeys(Config{KeySource: "vault"}, slogx.Discard())
	require.Error(t, err)
}
