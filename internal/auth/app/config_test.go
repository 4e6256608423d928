package app

import (
	"runtime"
	"testing"
	"time"

	"github.com/aussiebroadwan/authserver/internal/auth/domain"
	httpapi "github.com/aussiebroadwan/authserver/internal/auth/http"
	"github.com/aussiebroadwan/authserver/internal/auth/service"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"AUTH_ISSUER", "AUTH_KEY_SOURCE", "AUTH_KEY_FILE", "AUTH_RSA_BITS", "AUTH_CLIENTS_FILE",
		"AUTH_STORE", "AUTH_DATABASE_FILE", "AUTH_PEPPER_FILE", "AUTH_MAX_TOKEN_TTL",
		"AUTH_MAX_CONCURRENT_SIGNING", "AUTH_INTROSPECT_SCOPES", "PORT", "SHUTDOWN_GRACE_PERIOD",
	} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, DefaultIssuer, cfg.Issuer)
	require.Equal(t, KeySourceStatic, cfg.KeySource)
	require.Equal(t, StoreMemory, cfg.Store)
	require.Equal(t, 24*time.Hour, cfg.MaxTokenTTL)
	require.Equal(t, runtime.GOMAXPROCS(0)*2, cfg.MaxConcurrentSigning)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, 10*time.Second, cfg.ShutdownGracePeriod)
	require.Empty(t, cfg.IntrospectScopes)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("AUTH_ISSUER", "https://auth.example.com/")
	t.Setenv("AUTH_KEY_SOURCE", "GENERATE")
	t.Setenv("AUTH_RSA_BITS", "3072")
	t.Setenv("AUTH_STORE", "sqlite")
	t.Setenv("AUTH_MAX_TOKEN_TTL", "3600")
	t.Setenv("AUTH_INTROSPECT_SCOPES", "read,introspect")
	t.Setenv("PORT", "9090")
	t.Setenv("SHUTDOWN_GRACE_PERIOD", "not-a-duration")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "https://auth.example.com", cfg.Issuer)
	require.Equal(t, KeySourceGenerate, cfg.KeySource)
	require.Equal(t, 3072, cfg.RSABits)
	require.Equal(t, StoreSQLite, cfg.Store)
	require.Equal(t, time.Hour, cfg.MaxTokenTTL)
	require.Equal(t, []string{"read", "introspect"}, cfg.IntrospectScopes)
	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, 10*time.Second, cfg.ShutdownGracePeriod)
}

func TestLoadConfigNormalisesIssuer(t *testing.T) {
	t.Setenv("AUTH_ISSUER", "https://auth.example.com//")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "https://auth.example.com", cfg.Issuer)

	doc := httpapi.DiscoveryDocument(cfg.Issuer)
	require.Equal(t, "https://auth.example.com", doc.Issuer)
	require.Equal(t, "https://auth.example.com/.well-known/jwks.json", doc.JWKSURI)

	tok := service.IssuerEnhancer(cfg.Issuer).Enhance(domain.AccessToken{}, domain.Authentication{})
	require.Equal(t, cfg.Issuer, tok.AdditionalInformation[service.ClaimIssuer])
}

func TestConfigValidate(t *testing.T) {
	base := Config{
		Issuer:       DefaultIssuer,
		KeySource:    KeySourceStatic,
		Store:        StoreMemory,
		DatabaseFile: "auth.db",
		RSABits:      2048,
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"pem without file", func(c *Config) { c.KeySource = KeySourcePEM }, false},
		{"pem with file", func(c *Config) { c.KeySource = KeySourcePEM; c.KeyFile = "key.pem" }, true},
		{"unknown key source", func(c *Config) { c.KeySource = "hsm" }, false},
		{"unknown store", func(c *Config) { c.Store = "postgres" }, false},
		{"sqlite without file", func(c *Config) { c.Store = StoreSQLite; c.DatabaseFile = "" }, false},
		{"small generated key", func(c *Config) { c.KeySource = KeySourceGenerate; c.RSABits = 1024 }, false},
		{"empty issuer", func(c *Config) { c.Issuer = "" }, false},
		{"negative ttl", func(c *Config) { c.MaxTokenTTL = -time.Second }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}
