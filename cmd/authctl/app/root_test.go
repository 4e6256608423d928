package app

import (
	"bytes"
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	authapp "github.com/aussiebroadwan/authserver/internal/auth/app"
	"github.com/aussiebroadwan/authserver/pkg/cryptox"
	"github.com/aussiebroadwan/authserver/pkg/httpx"
	"github.com/aussiebroadwan/authserver/pkg/jwtx"
	"github.com/aussiebroadwan/authserver/pkg/slogx"
	"github.com/stretchr/testify/require"
)

// startServer runs the full application behind an httptest server whose URL
// is the issuer.
func startServer(t *testing.T) string {
	t.Helper()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	application, err := authapp.NewWithLogger(authapp.Config{
		Issuer:               srv.URL,
		KeySource:            authapp.KeySourceStatic,
		Store:                authapp.StoreMemory,
		MaxTokenTTL:          time.Hour,
		MaxConcurrentSigning: 4,
		ShutdownGracePeriod:  time.Second,
		RateLimits:           httpx.DefaultLimits,
	}, slogx.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Shutdown() })

	mux.Handle("/", application.Handler())
	return srv.URL
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd("test")
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestHashSecret(t *testing.T) {
	pepperFile := filepath.Join(t.TempDir(), "pepper")

	out, err := run(t, "hash-secret", "--pepper-file", pepperFile, "s3cret")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	require.True(t, cryptox.IsHash(hash))

	pepper, err := cryptox.LoadOrCreatePepper(pepperFile)
	require.NoError(t, err)
	require.NoError(t, cryptox.NewSecretHasher(pepper).Verify("s3cret", hash))
}

func TestHashSecretFromStdin(t *testing.T) {
	var stdout bytes.Buffer
	cmd := NewRootCmd("test")
	cmd.SetArgs([]string{"hash-secret"})
	cmd.SetOut(&stdout)
	cmd.SetIn(strings.NewReader("from-stdin\n"))
	require.NoError(t, cmd.Execute())

	require.NoError(t, cryptox.NewSecretHasher(nil).Verify("from-stdin", strings.TrimSpace(stdout.String())))

	_, err := run(t, "hash-secret")
	require.Error(t, err, "an empty secret is refused")
}

func TestKeygen(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "signing.pem")
	pubFile := filepath.Join(dir, "signing.pub.pem")

	out, err := run(t, "keygen", "--out", keyFile, "--public-out", pubFile)
	require.NoError(t, err)
	kid := strings.TrimSpace(out)
	require.NotEmpty(t, kid)

	info, err := os.Stat(keyFile)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	km, err := authapp.InitAuthKeys(authapp.Config{
		Issuer:    authapp.DefaultIssuer,
		KeySource: authapp.KeySourcePEM,
		KeyFile:   keyFile,
	}, slogx.Discard())
	require.NoError(t, err)
	require.Equal(t, kid, km.Signer.KID(), "the printed kid is the one the server publishes")

	pubPEM, err := os.ReadFile(pubFile)
	require.NoError(t, err)
	block, _ := pem.Decode(pubPEM)
	require.NotNil(t, block)
	require.Equal(t, "PUBLIC KEY", block.Type)
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	require.NoError(t, err)
	thumb, err := jwtx.Thumbprint(pub.(*rsa.PublicKey))
	require.NoError(t, err)
	require.Equal(t, kid, thumb)

	_, err = run(t, "keygen", "--out", keyFile)
	require.ErrorContains(t, err, "already exists")

	out, err = run(t, "keygen", "--out", keyFile, "--force")
	require.NoError(t, err)
	require.NotEqual(t, kid, strings.TrimSpace(out))
}

func TestKeygenRejectsSmallKeys(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "signing.pem")

	_, err := run(t, "keygen", "--out", keyFile, "--bits", "1024")
	require.Error(t, err)
	require.NoFileExists(t, keyFile)
}

func TestTokenAndVerify(t *testing.T) {
	server := startServer(t)

	out, err := run(t, "token", "--server", server, "--client-id", "administration", "--client-secret", "password")
	require.NoError(t, err)

	var tok tokenOutput
	require.NoError(t, json.Unmarshal([]byte(out), &tok))
	require.NotEmpty(t, tok.AccessToken)
	require.Equal(t, "read write delete", tok.Scope)
	require.NotEmpty(t, tok.Jti)

	out, err = run(t, "token", "--server", server, "--client-id", "client", "--client-secret", "password",
		"--scope", "read", "--form", "--raw")
	require.NoError(t, err)
	raw := strings.TrimSpace(out)

	out, err = run(t, "verify", "--server", server, raw)
	require.NoError(t, err)

	var claims map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &claims))
	require.Equal(t, "client", claims["sub"])
	require.Equal(t, server, claims["iss"])
	require.Equal(t, []any{"ROLE_CLIENT"}, claims["authorities"])

	_, err = run(t, "verify", "--server", server, "--issuer", "https://someone-else.example.com", raw)
	require.Error(t, err)

	_, err = run(t, "verify", "--server", server, raw[:len(raw)-4]+"AAAA")
	require.Error(t, err)
}

func TestTokenRejected(t *testing.T) {
	server := startServer(t)

	_, err := run(t, "token", "--server", server, "--client-id", "administration", "--client-secret", "nope")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid_client")
}

func TestWellKnownCommands(t *testing.T) {
	server := startServer(t)

	out, err := run(t, "discovery", "--server", server)
	require.NoError(t, err)
	require.JSONEq(t, `{"issuer":"`+server+`","jwks_uri":"`+server+`/.well-known/jwks.json","subject_types_supported":["public"]}`, out)

	out, err = run(t, "jwks", "--server", server)
	require.NoError(t, err)
	require.Contains(t, out, `"kty": "RSA"`)

	out, err = run(t, "jwks", "--server", server, "--pem")
	require.NoError(t, err)
	require.Contains(t, out, "# kid: ")
	require.Contains(t, out, "-----BEGIN PUBLIC KEY-----")
}

func TestClientsLifecycle(t *testing.T) {
	dir := t.TempDir()
	registry := []string{"--database", filepath.Join(dir, "auth.db"), "--pepper-file", filepath.Join(dir, "pepper")}
	clients := func(args ...string) (string, error) {
		return run(t, append(append([]string{"clients"}, args...), registry...)...)
	}

	out, err := clients("list")
	require.NoError(t, err)
	require.Contains(t, out, "No clients registered")

	out, err = clients("add", "reporting", "--scope", "read", "--authority", "ROLE_REPORTING", "--validity", "10m")
	require.NoError(t, err)
	require.Contains(t, out, "client_id:     reporting")
	require.Contains(t, out, "client_secret: ")

	_, err = clients("add", "reporting")
	require.Error(t, err, "ids are unique")

	out, err = clients("list")
	require.NoError(t, err)
	require.Contains(t, out, "reporting")
	require.Contains(t, out, "ROLE_REPORTING")
	require.Contains(t, out, "10m0s")

	out, err = clients("rotate", "reporting")
	require.NoError(t, err)
	require.Contains(t, out, "client_secret: ")

	_, err = clients("rotate", "missing")
	require.Error(t, err)

	out, err = clients("remove", "reporting")
	require.NoError(t, err)
	require.Contains(t, out, "client reporting removed")

	_, err = clients("remove", "reporting")
	require.Error(t, err)
}
