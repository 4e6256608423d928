package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/authserver/internal/auth/domain"
	"github.com/aussiebroadwan/authserver/internal/auth/metrics"
)

// JWTTokenStore is a stateless token store: nothing is persisted, every
// lookup decodes the token itself.
type JWTTokenStore struct {
	Converter *AccessTokenConverter
	Metrics   *metrics.Metrics
}

func NewJWTTokenStore(converter *AccessTokenConverter, m *metrics.Metrics) *JWTTokenStore {
	return &JWTTokenStore{Converter: converter, Metrics: m}
}

// ReadAccessToken decodes raw. Any verification failure is ErrInvalidToken
// wrapping the underlying jwtx error.
func (s *JWTTokenStore) ReadAccessToken(ctx context.Context, raw string) (domain.AccessToken, error) {
	token, _, err := s.decode(ctx, raw)
	return token, err
}

// LoadAuthentication returns who raw was issued to.
func (s *JWTTokenStore) LoadAuthentication(ctx context.Context, raw string) (domain.Authentication, error) {
	_, auth, err := s.decode(ctx, raw)
	return auth, err
}

// ReadToken returns both halves in one verification.
func (s *JWTTokenStore) ReadToken(ctx context.Context, raw string) (domain.AccessToken, domain.Authentication, error) {
	return s.decode(ctx, raw)
}

func (s *JWTTokenStore) decode(ctx context.Context, raw string) (domain.AccessToken, domain.Authentication, error) {
	if raw == "" {
		s.Metrics.TokenVerified(metrics.ResultInvalid)
		return domain.AccessToken{}, domain.Authentication{}, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	token, auth, err := s.Converter.Decode(ctx, raw)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			s.Metrics.TokenVerified(metrics.ResultError)
			return domain.AccessToken{}, domain.Authentication{}, err
		}
		s.Metrics.TokenVerified(metrics.ResultInvalid)
		return domain.AccessToken{}, domain.Authentication{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	s.Metrics.TokenVerified(metrics.ResultOK)
	return token, auth, nil
}
