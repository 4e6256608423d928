package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aussiebroadwan/authserver/internal/auth/domain"
	"github.com/aussiebroadwan/authserver/pkg/cryptox"
	"gopkg.in/yaml.v3"
)

// demoValidity is the validity the demo registry hands out. It is far beyond
// anything sensible and is clamped by AUTH_MAX_TOKEN_TTL at start-up.
const demoValidity = 600_000_000 * time.Second

// demoSecret is shared by every demo client.
const demoSecret = "password"

// ClientFile is the YAML client registry.
type ClientFile struct {
	Clients []ClientEntry `yaml:"clients"`
}

// ClientEntry is one registered client. Exactly one of SecretHash and
// Secret should be set; plaintext secrets are hashed on load.
type ClientEntry struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	SecretHash  string   `yaml:"secret_hash"`
	Secret      string   `yaml:"secret"`
	GrantTypes  []string `yaml:"grant_types"`
	Scopes      []string `yaml:"scopes"`
	Authorities []string `yaml:"authorities"`

	AccessTokenValidity        time.Duration `yaml:"access_token_validity"`
	AccessTokenValiditySeconds int64         `yaml:"access_token_validity_seconds"`
}

// LoadClientFile parses the registry at path and converts it into clients,
// hashing plaintext secrets with hasher.
func LoadClientFile(path string, hasher *cryptox.SecretHasher, logger *slog.Logger) ([]domain.Client, error) {
	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 - operator supplied path
	if err != nil {
		return nil, fmt.Errorf("read client file: %w", err)
	}

	var file ClientFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse client file %s: %w", path, err)
	}
	if len(file.Clients) == 0 {
		return nil, fmt.Errorf("client file %s defines no clients", path)
	}

	clients := make([]domain.Client, 0, len(file.Clients))
	seen := make(map[string]struct{}, len(file.Clients))
	for i, entry := range file.Clients {
		c, err := entry.toClient(hasher, logger)
		if err != nil {
			return nil, fmt.Errorf("client file %s: entry %d: %w", path, i, err)
		}
		if _, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("client file %s: duplicate client id %q", path, c.ID)
		}
		seen[c.ID] = struct{}{}
		clients = append(clients, c)
	}
	return clients, nil
}

func (e ClientEntry) toClient(hasher *cryptox.SecretHasher, logger *slog.Logger) (domain.Client, error) {
	if e.ID == "" {
		return domain.Client{}, errors.New("id is required")
	}

	c := domain.Client{
		ID:          e.ID,
		Name:        e.Name,
		SecretHash:  e.SecretHash,
		GrantTypes:  e.GrantTypes,
		Scopes:      e.Scopes,
		Authorities: e.Authorities,
	}
	if c.Name == "" {
		c.Name = e.ID
	}
	if len(c.GrantTypes) == 0 {
		c.GrantTypes = []string{domain.GrantClientCredentials}
	}

	switch {
	case e.AccessTokenValidity != 0 && e.AccessTokenValiditySeconds != 0:
		return domain.Client{}, fmt.Errorf("client %q: set access_token_validity or access_token_validity_seconds, not both", e.ID)
	case e.AccessTokenValiditySeconds != 0:
		c.AccessTokenValidity = time.Duration(e.AccessTokenValiditySeconds) * time.Second
	default:
		c.AccessTokenValidity = e.AccessTokenValidity
	}

	switch {
	case e.SecretHash != "" && e.Secret != "":
		return domain.Client{}, fmt.Errorf("client %q: set secret_hash or secret, not both", e.ID)
	case e.SecretHash != "":
		if !cryptox.IsHash(e.SecretHash) {
			return domain.Client{}, fmt.Errorf("client %q: secret_hash is not an argon2id hash", e.ID)
		}
	case e.Secret != "":
		logger.Warn("client file holds a plaintext secret; store secret_hash instead", "client_id", e.ID)
		hash, err := hasher.Hash(e.Secret)
		if err != nil {
			return domain.Client{}, fmt.Errorf("client %q: hash secret: %w", e.ID, err)
		}
		c.SecretHash = hash
	}

	return c, nil
}

// DemoClients is the registry used when no client file is configured:
// "administration" (ROLE_ADMIN; read, write, delete) and "client"
// (ROLE_CLIENT; read, write), both with the secret "password".
func DemoClients(hasher *cryptox.SecretHasher) ([]domain.Client, error) {
	hash, err := hasher.Hash(demoSecret)
	if err != nil {
		return nil, fmt.Errorf("hash demo secret: %w", err)
	}

	return []domain.Client{
		{
			ID:                  "administration",
			Name:                "Administration",
			SecretHash:          hash,
			GrantTypes:          []string{domain.GrantClientCredentials},
			Scopes:              []string{"read", "write", "delete"},
			Authorities:         []string{"ROLE_ADMIN"},
			AccessTokenValidity: demoValidity,
		},
		{
			ID:                  "client",
			Name:                "Client",
			SecretHash:          hash,
			GrantTypes:          []string{domain.GrantClientCredentials},
			Scopes:              []string{"read", "write"},
			Authorities:         []string{"ROLE_CLIENT"},
			AccessTokenValidity: demoValidity,
		},
	}, nil
}

// ClampValidity caps every client's validity at limit, logging each client
// it changes. A zero limit leaves clients untouched.
func ClampValidity(clients []domain.Client, limit time.Duration, logger *slog.Logger) []domain.Client {
	if limit <= 0 {
		return clients
	}

	out := make([]domain.Client, len(clients))
	for i, c := range clients {
		if c.AccessTokenValidity > limit {
			logger.Warn("client access token validity exceeds maximum, clamping",
				"client_id", c.ID,
				"configured", c.AccessTokenValidity.String(),
				"max", limit.String(),
			)
			c.AccessTokenValidity = limit
		}
		out[i] = c
	}
	return out
}
