package service_test

import (
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/authserver/internal/auth/domain"
	"github.com/aussiebroadwan/authserver/internal/auth/service"
	"github.com/aussiebroadwan/authserver/internal/auth/store/drivers/memory"
	"github.com/aussiebroadwan/authserver/pkg/cryptox"
	"github.com/aussiebroadwan/authserver/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testIssuer = "http://localhost:8080"

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

func testConverter(t *testing.T, opts jwtx.VerifyOptions) *service.AccessTokenConverter {
	t.Helper()
	km, err := jwtx.NewKeyManager(jwtx.NewStaticKeyProvider(testPair(t)), opts)
	require.NoError(t, err)
	return service.NewAccessTokenConverter(km.Signer, km.Verifier, service.WithMaxConcurrentRSA(2))
}

// testHasher uses cheap argon2 parameters so tests stay fast.
func testHasher() *cryptox.SecretHasher {
	return &cryptox.SecretHasher{
		Pepper: []byte("test-pepper"),
		Params: cryptox.Argon2Params{Memory: 64, Iterations: 1, Parallelism: 1, KeyLength: 32, SaltLength: 16},
	}
}

func sampleToken(now time.Time) (domain.AccessToken, domain.Authentication) {
	now = now.Truncate(time.Second)
	token := domain.AccessToken{
		TokenType: domain.TokenTypeBearer,
		ID:        jwtx.NewJTI(),
		IssuedAt:  now,
		ExpiresAt: now.Add(10 * time.Minute),
		Scopes:    []string{"read", "write"},
	}
	auth := domain.Authentication{
		ClientID:    "client",
		Principal:   "client",
		Authorities: []string{"ROLE_CLIENT", "ROLE_READER"},
		Scopes:      []string{"read", "write"},
	}
	return token, auth
}

type fixture struct {
	tokens  *service.TokenService
	clients *service.ClientService
	store   *memory.Store
	hasher  *cryptox.SecretHasher
}

func newFixture(t *testing.T, clients ...domain.Client) fixture {
	t.Helper()

	st := memory.NewStore()
	hasher := testHasher()
	cs := &service.ClientService{Store: st, Hasher: hasher}
	require.NoError(t, cs.SeedClients(t.Context(), clients))

	return fixture{
		tokens: &service.TokenService{
			Store:      st,
			Hasher:     hasher,
			Enhancer:   service.NewEnhancerChain(service.IssuerEnhancer(testIssuer)),
			Converter:  testConverter(t, jwtx.VerifyOptions{Issuer: testIssuer}),
			DefaultTTL: 15 * time.Minute,
			MaxTTL:     24 * time.Hour,
		},
		clients: cs,
		store:   st,
		hasher:  hasher,
	}
}

func hashedClient(t *testing.T, h *cryptox.SecretHasher, id, secret string, scopes ...string) domain.Client {
	t.Helper()
	hash, err := h.Hash(secret)
	require.NoError(t, err)
	return domain.Client{
		ID:          id,
		Name:        id,
		SecretHash:  hash,
		GrantTypes:  []string{domain.GrantClientCredentials},
		Scopes:      scopes,
		Authorities: []string{"ROLE_CLIENT"},
	}
}
