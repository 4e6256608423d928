package service

import (
	"context"
	"fmt"
	"maps"
	"runtime"
	"time"

	"github.com/aussiebroadwan/authserver/internal/auth/domain"
	"github.com/aussiebroadwan/authserver/internal/auth/metrics"
	"github.com/aussiebroadwan/authserver/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/semaphore"
)

// AccessTokenConverter turns an (AccessToken, Authentication) pair into a
// signed JWT and back. RSA work is bounded by a weighted semaphore; callers
// waiting for a slot give up when their context is done.
type AccessTokenConverter struct {
	signer   jwtx.Signer
	verifier jwtx.Verifier
	sem      *semaphore.Weighted
	metrics  *metrics.Metrics
}

// ConverterOption customises an AccessTokenConverter.
type ConverterOption func(*AccessTokenConverter)

// WithMaxConcurrentRSA bounds concurrent sign and verify operations. Values
// below one fall back to GOMAXPROCS*2.
func WithMaxConcurrentRSA(n int) ConverterOption {
	return func(c *AccessTokenConverter) {
		if n < 1 {
			n = defaultMaxConcurrentRSA()
		}
		c.sem = semaphore.NewWeighted(int64(n))
	}
}

func WithConverterMetrics(m *metrics.Metrics) ConverterOption {
	return func(c *AccessTokenConverter) { c.metrics = m }
}

func NewAccessTokenConverter(signer jwtx.Signer, verifier jwtx.Verifier, opts ...ConverterOption) *AccessTokenConverter {
	c := &AccessTokenConverter{
		signer:   signer,
		verifier: verifier,
		sem:      semaphore.NewWeighted(int64(defaultMaxConcurrentRSA())),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func defaultMaxConcurrentRSA() int {
	return runtime.GOMAXPROCS(0) * 2
}

// Claims maps a token and its authentication onto JWT claims. sub is the
// principal, authorities the deduplicated authority set. An iss carried in
// the token's additional information becomes the registered issuer; other
// additional entries are copied unless they collide with a typed claim.
func (c *AccessTokenConverter) Claims(token domain.AccessToken, auth domain.Authentication) jwtx.Claims {
	claims := jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: auth.Principal,
			ID:      token.ID,
		},
		Scope:       token.Scopes,
		ClientID:    auth.ClientID,
		Authorities: jwtx.Dedupe(auth.Authorities),
	}
	if !token.IssuedAt.IsZero() {
		claims.IssuedAt = jwt.NewNumericDate(token.IssuedAt)
		claims.NotBefore = jwt.NewNumericDate(token.IssuedAt)
	}
	if !token.ExpiresAt.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(token.ExpiresAt)
	}

	for k, v := range token.AdditionalInformation {
		if k == ClaimIssuer {
			if iss, ok := v.(string); ok {
				claims.Issuer = iss
			}
			continue
		}
		if jwtx.IsTypedClaim(k) {
			continue
		}
		if claims.Extra == nil {
			claims.Extra = make(map[string]any)
		}
		claims.Extra[k] = v
	}
	return claims
}

// Encode signs the token and returns a copy with Value set to the compact JWT.
func (c *AccessTokenConverter) Encode(ctx context.Context, token domain.AccessToken, auth domain.Authentication) (domain.AccessToken, error) {
	if err := c.acquire(ctx); err != nil {
		return domain.AccessToken{}, err
	}
	defer c.release()

	start := time.Now()
	raw, err := c.signer.Sign(c.Claims(token, auth))
	c.metrics.ObserveRSA("sign", start)
	if err != nil {
		return domain.AccessToken{}, fmt.Errorf("sign access token: %w", err)
	}

	token.Value = raw
	if token.TokenType == "" {
		token.TokenType = domain.TokenTypeBearer
	}
	return token, nil
}

// Decode verifies raw and rebuilds the token and authentication it was
// encoded from. Verification errors are the jwtx sentinels.
func (c *AccessTokenConverter) Decode(ctx context.Context, raw string) (domain.AccessToken, domain.Authentication, error) {
	if err := c.acquire(ctx); err != nil {
		return domain.AccessToken{}, domain.Authentication{}, err
	}
	defer c.release()

	start := time.Now()
	claims, err := c.verifier.Verify(raw)
	c.metrics.ObserveRSA("verify", start)
	if err != nil {
		return domain.AccessToken{}, domain.Authentication{}, err
	}

	token, auth := c.fromClaims(raw, claims)
	return token, auth, nil
}

func (c *AccessTokenConverter) fromClaims(raw string, claims jwtx.Claims) (domain.AccessToken, domain.Authentication) {
	token := domain.AccessToken{
		Value:     raw,
		TokenType: domain.TokenTypeBearer,
		ID:        claims.ID,
		Scopes:    claims.Scope,
	}
	if claims.IssuedAt != nil {
		token.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		token.ExpiresAt = claims.ExpiresAt.Time
	}
	if len(claims.Extra) > 0 || claims.Issuer != "" {
		token.AdditionalInformation = maps.Clone(claims.Extra)
		if token.AdditionalInformation == nil {
			token.AdditionalInformation = make(map[string]any, 1)
		}
		if claims.Issuer != "" {
			token.AdditionalInformation[ClaimIssuer] = claims.Issuer
		}
	}

	auth := domain.Authentication{
		ClientID:    claims.ClientID,
		Principal:   claims.Subject,
		Authorities: claims.Authorities,
		Scopes:      claims.Scope,
	}
	return token, auth
}

func (c *AccessTokenConverter) acquire(ctx context.Context) error {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("wait for signing slot: %w", err)
	}
	c.metrics.InFlight(1)
	return nil
}

func (c *AccessTokenConverter) release() {
	c.metrics.InFlight(-1)
	c.sem.Release(1)
}
