package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/aussiebroadwan/authserver/internal/auth/domain"
	"github.com/aussiebroadwan/authserver/internal/auth/store"
	"github.com/aussiebroadwan/authserver/internal/auth/store/drivers/sqlite/gen"
)

type clientsRepo struct {
	q *gen.Queries
}

func (r *clientsRepo) GetClientByID(ctx context.Context, id string) (domain.Client, error) {
	row, err := r.q.GetClientByID(ctx, id)
	if err != nil {
		return domain.Client{}, mapNotFound(err)
	}
	return mapClient(row), nil
}

func (r *clientsRepo) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.q.ListClients(ctx)
	if err != nil {
		return nil, err
	}

	clients := make([]domain.Client, len(rows))
	for i, row := range rows {
		clients[i] = mapClient(row)
	}
	return clients, nil
}

func (r *clientsRepo) CreateClient(ctx context.Context, c domain.Client) error {
	created, updated := timestamps(c)
	err := r.q.CreateClient(ctx, gen.CreateClientParams{
		ID:                         c.ID,
		Name:                       c.Name,
		SecretHash:                 mapStringNull(c.SecretHash),
		GrantTypes:                 strings.Join(c.GrantTypes, " "),
		Scopes:                     strings.Join(c.Scopes, " "),
		Authorities:                strings.Join(c.Authorities, " "),
		AccessTokenValiditySeconds: int64(c.AccessTokenValidity / time.Second),
		CreatedAt:                  created,
		UpdatedAt:                  updated,
	})
	return mapConstraint(err)
}

func (r *clientsRepo) UpsertClient(ctx context.Context, c domain.Client) error {
	created, updated := timestamps(c)
	return r.q.UpsertClient(ctx, gen.UpsertClientParams{
		ID:                         c.ID,
		Name:                       c.Name,
		SecretHash:                 mapStringNull(c.SecretHash),
		GrantTypes:                 strings.Join(c.GrantTypes, " "),
		Scopes:                     strings.Join(c.Scopes, " "),
		Authorities:                strings.Join(c.Authorities, " "),
		AccessTokenValiditySeconds: int64(c.AccessTokenValidity / time.Second),
		CreatedAt:                  created,
		UpdatedAt:                  updated,
	})
}

func (r *clientsRepo) UpdateClientSecretHash(ctx context.Context, clientID, secretHash string) error {
	n, err := r.q.UpdateClientSecretHash(ctx, gen.UpdateClientSecretHashParams{
		SecretHash: mapStringNull(secretHash),
		UpdatedAt:  time.Now().UTC(),
		ID:         clientID,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *clientsRepo) DeleteClient(ctx context.Context, clientID string) error {
	n, err := r.q.DeleteClient(ctx, clientID)
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *clientsRepo) IsEmpty(ctx context.Context) (bool, error) {
	count, err := r.q.CountClients(ctx)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// timestamps keeps a caller-provided CreatedAt and always bumps UpdatedAt.
func timestamps(c domain.Client) (created, updated time.Time) {
	now := time.Now().UTC()
	created = c.CreatedAt
	if created.IsZero() {
		created = now
	}
	return created.UTC(), now
}
