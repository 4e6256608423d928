package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/authserver/internal/auth/domain"
	"github.com/aussiebroadwan/authserver/internal/auth/store"
	"github.com/aussiebroadwan/authserver/pkg/cryptox"
	"github.com/aussiebroadwan/authserver/pkg/slogx"
)

var ErrClientNotFound = errors.New("client not found")

// clientSecretSize is the number of random bytes in a generated secret.
const clientSecretSize = 32

type ClientService struct {
	Store  store.Store
	Hasher *cryptox.SecretHasher
}

// SeedClients upserts every client in a single transaction, so a bad entry
// leaves the registry as it was.
func (s *ClientService) SeedClients(ctx context.Context, clients []domain.Client) error {
	l := slogx.FromContext(ctx)

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		for _, c := range clients {
			if err := validateClient(c); err != nil {
				return err
			}
			if err := tx.Clients().UpsertClient(ctx, c); err != nil {
				return fmt.Errorf("upsert client %q: %w", c.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	l.Info("client registry seeded", slog.Int("clients", len(clients)))
	return nil
}

// RegisterClient stores c with a freshly generated secret and returns the
// plaintext, which is never stored and cannot be recovered later.
func (s *ClientService) RegisterClient(ctx context.Context, c domain.Client) (string, error) {
	l := slogx.FromContext(ctx)

	if len(c.GrantTypes) == 0 {
		c.GrantTypes = []string{domain.GrantClientCredentials}
	}
	if err := validateRegistration(c); err != nil {
		return "", err
	}

	secret, hash, err := s.newSecret()
	if err != nil {
		return "", err
	}
	c.SecretHash = hash

	if err := s.Store.Clients().CreateClient(ctx, c); err != nil {
		l.Error("failed to create client", slog.String("client_id", c.ID), slog.Any("error", err))
		return "", err
	}

	l.Info("client registered", slog.String("client_id", c.ID), slog.String("name", c.Name))
	return secret, nil
}

// RotateSecret replaces the client's secret and returns the new plaintext.
func (s *ClientService) RotateSecret(ctx context.Context, clientID string) (string, error) {
	secret, hash, err := s.newSecret()
	if err != nil {
		return "", err
	}
	if err := s.Store.Clients().UpdateClientSecretHash(ctx, clientID, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrClientNotFound
		}
		return "", err
	}

	slogx.FromContext(ctx).Info("client secret rotated", slog.String("client_id", clientID))
	return secret, nil
}

func (s *ClientService) ListClients(ctx context.Context) ([]domain.Client, error) {
	return s.Store.Clients().ListClients(ctx)
}

func (s *ClientService) DeleteClient(ctx context.Context, clientID string) error {
	if err := s.Store.Clients().DeleteClient(ctx, clientID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrClientNotFound
		}
		return err
	}
	slogx.FromContext(ctx).Info("client deleted", slog.String("client_id", clientID))
	return nil
}

func (s *ClientService) newSecret() (secret, hash string, err error) {
	secret, err = cryptox.GenerateSecret(clientSecretSize)
	if err != nil {
		return "", "", fmt.Errorf("generate client secret: %w", err)
	}
	hash, err = s.Hasher.Hash(secret)
	if err != nil {
		return "", "", fmt.Errorf("hash client secret: %w", err)
	}
	return secret, hash, nil
}

func validateClient(c domain.Client) error {
	if err := validateRegistration(c); err != nil {
		return err
	}
	if c.SecretHash == "" {
		return fmt.Errorf("client %q: secret_hash is required", c.ID)
	}
	return nil
}

// validateRegistration checks everything but the secret.
func validateRegistration(c domain.Client) error {
	switch {
	case c.ID == "":
		return errors.New("client: id is required")
	case len(c.GrantTypes) == 0:
		return fmt.Errorf("client %q: at least one grant type is required", c.ID)
	case c.AccessTokenValidity < 0:
		return fmt.Errorf("client %q: negative access token validity", c.ID)
	}
	return nil
}
