package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/aussiebroadwan/authserver/internal/auth/domain"
	"github.com/aussiebroadwan/authserver/internal/auth/metrics"
	"github.com/aussiebroadwan/authserver/internal/auth/store"
	"github.com/aussiebroadwan/authserver/pkg/cryptox"
	"github.com/aussiebroadwan/authserver/pkg/jwtx"
	"github.com/aussiebroadwan/authserver/pkg/slogx"
)

type TokenService struct {
	Store     store.Store
	Hasher    *cryptox.SecretHasher
	Enhancer  Enhancer
	Converter *AccessTokenConverter
	Metrics   *metrics.Metrics

	// DefaultTTL applies to clients registered without a validity.
	DefaultTTL time.Duration

	// MaxTTL caps every client's validity. Zero means no cap.
	MaxTTL time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// ExchangeClientCredentials implements the OAuth2 client_credentials grant.
//
// The client authenticates as itself and becomes the token's principal. No
// refresh token is issued. Requested scopes must all be registered for the
// client; an empty request grants every registered scope.
func (s *TokenService) ExchangeClientCredentials(
	ctx context.Context,
	clientID, clientSecret string,
	requestedScopes []string,
) (domain.AccessToken, error) {
	l := slogx.FromContext(ctx).With(slog.String("client_id", clientID))

	c, err := s.Store.Clients().GetClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("client_credentials grant for unknown client")
			return domain.AccessToken{}, ErrInvalidClient
		}
		return domain.AccessToken{}, err
	}

	if !c.Confidential() {
		l.Warn("client_credentials grant attempted with public client")
		return domain.AccessToken{}, ErrInvalidClient
	}
	if err := s.Hasher.Verify(clientSecret, c.SecretHash); err != nil {
		l.Info("client secret verification failed")
		return domain.AccessToken{}, ErrInvalidClient
	}

	if !c.AllowsGrant(domain.GrantClientCredentials) {
		l.Info("client not registered for client_credentials")
		return domain.AccessToken{}, ErrUnauthorizedClient
	}

	scopes, err := effectiveScopes(requestedScopes, c.Scopes)
	if err != nil {
		l.Info("requested scope not registered", slog.Any("scope", requestedScopes))
		return domain.AccessToken{}, err
	}

	now := s.now().Truncate(time.Second)
	token := domain.AccessToken{
		TokenType: domain.TokenTypeBearer,
		ID:        jwtx.NewJTI(),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.validity(c)),
		Scopes:    scopes,
	}
	auth := domain.Authentication{
		ClientID:    c.ID,
		Principal:   c.ID,
		Authorities: jwtx.Dedupe(c.Authorities),
		Scopes:      scopes,
	}

	if s.Enhancer != nil {
		token = s.Enhancer.Enhance(token, auth)
	}

	token, err = s.Converter.Encode(ctx, token, auth)
	if err != nil {
		l.Error("failed to encode access token", slog.Any("error", err))
		return domain.AccessToken{}, err
	}

	s.Metrics.TokenIssued(domain.GrantClientCredentials)
	l.Info("access token issued", slog.String("jti", token.ID), slog.Time("expires_at", token.ExpiresAt))
	return token, nil
}

// validity is the lifetime of tokens issued to c.
func (s *TokenService) validity(c domain.Client) time.Duration {
	ttl := c.AccessTokenValidity
	if ttl <= 0 {
		ttl = s.DefaultTTL
	}
	if ttl <= 0 {
		ttl = jwtx.DefaultAccessTokenTTL
	}
	if s.MaxTTL > 0 && ttl > s.MaxTTL {
		ttl = s.MaxTTL
	}
	return ttl
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// effectiveScopes returns the scopes to grant. Every requested scope must be
// allowed; nothing requested means everything allowed.
func effectiveScopes(requested, allowed []string) ([]string, error) {
	requested = jwtx.Dedupe(requested)
	if len(requested) == 0 {
		if len(allowed) == 0 {
			return nil, ErrInvalidScope
		}
		return slices.Clone(allowed), nil
	}
	for _, scope := range requested {
		if !slices.Contains(allowed, scope) {
			return nil, ErrInvalidScope
		}
	}
	return requested, nil
}
