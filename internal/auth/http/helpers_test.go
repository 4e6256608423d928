package http_test

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/authserver/internal/auth/domain"
	authhttp "github.com/aussiebroadwan/authserver/internal/auth/http"
	"github.com/aussiebroadwan/authserver/internal/auth/metrics"
	"github.com/aussiebroadwan/authserver/internal/auth/service"
	"github.com/aussiebroadwan/authserver/internal/auth/store/drivers/memory"
	"github.com/aussiebroadwan/authserver/pkg/cryptox"
	"github.com/aussiebroadwan/authserver/pkg/httpx"
	"github.com/aussiebroadwan/authserver/pkg/jwtx"
	"github.com/aussiebroadwan/authserver/pkg/slogx"
	"github.com/stretchr/testify/require"
)

var (
	sharedPairOnce sync.Once
	sharedPair     *jwtx.KeyPair
	sharedPairErr  error
)

func testPair(t *testing.T) *jwtx.KeyPair {
	t.Helper()
	sharedPairOnce.Do(func() {
		priv, err := cryptox.GenerateRSAKey(2048)
		if err != nil {
			sharedPairErr = err
			return
		}
		sharedPair, sharedPairErr = jwtx.NewKeyPair(priv)
	})
	require.NoError(t, sharedPairErr)
	return sharedPair
}

var generousLimits = httpx.Limits{
	Strict:   httpx.RateLimitConfig{RequestsPerWindow: 10000, Window: time.Minute, Burst: 10000},
	Moderate: httpx.RateLimitConfig{RequestsPerWindow: 10000, Window: time.Minute, Burst: 10000},
	Public:   httpx.RateLimitConfig{RequestsPerWindow: 10000, Window: time.Minute, Burst: 10000},
}

type testServer struct {
	*httptest.Server
	issuer  string
	keys    *jwtx.KeyManager
	metrics *metrics.Metrics
}

type serverOption func(*authhttp.Router)

// newTestServer runs the full router with the issuer set to the server's
// own URL. Clients: "administration" and "client", both with secret
// "password"; "browser" is not registered for client_credentials.
func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	issuer := srv.URL

	km, err := jwtx.NewKeyManager(jwtx.NewStaticKeyProvider(testPair(t)), jwtx.VerifyOptions{Issuer: issuer})
	require.NoError(t, err)

	hasher := &cryptox.SecretHasher{
		Pepper: []byte("test-pepper"),
		Params: cryptox.Argon2Params{Memory: 64, Iterations: 1, Parallelism: 1, KeyLength: 32, SaltLength: 16},
	}
	hash, err := hasher.Hash("password")
	require.NoError(t, err)

	st := memory.NewStore()
	clients := &service.ClientService{Store: st, Hasher: hasher}
	require.NoError(t, clients.SeedClients(t.Context(), []domain.Client{
		{
			ID: "administration", Name: "Administration", SecretHash: hash,
			GrantTypes:  []string{domain.GrantClientCredentials},
			Scopes:      []string{"read", "write", "delete"},
			Authorities: []string{"ROLE_ADMIN"},
		},
		{
			ID: "client", Name: "Client", SecretHash: hash,
			GrantTypes:          []string{domain.GrantClientCredentials},
			Scopes:              []string{"read", "write"},
			Authorities:         []string{"ROLE_CLIENT"},
			AccessTokenValidity: time.Hour,
		},
		{
			ID: "browser", Name: "Browser", SecretHash: hash,
			GrantTypes: []string{"authorization_code"},
			Scopes:     []string{"read"},
		},
	}))

	m := metrics.New()
	conv := service.NewAccessTokenConverter(km.Signer, km.Verifier, service.WithConverterMetrics(m))
	tokenStore := service.NewJWTTokenStore(conv, m)

	router := authhttp.NewRouter(km.KeySet, issuer, "test", st, slogx.Discard())
	router.Limits = generousLimits
	router.Metrics = m
	router.TokenStore = tokenStore
	router.TokenService = &service.TokenService{
		Store:      st,
		Hasher:     hasher,
		Enhancer:   service.NewEnhancerChain(service.IssuerEnhancer(issuer)),
		Converter:  conv,
		Metrics:    m,
		DefaultTTL: 10 * time.Minute,
		MaxTTL:     24 * time.Hour,
	}
	for _, opt := range opts {
		opt(router)
	}
	require.NoError(t, router.ApplyRoutes())
	mux.Handle("/", router)

	return &testServer{Server: srv, issuer: issuer, keys: km, metrics: m}
}
