// Package storetest holds behaviour tests shared by every store driver.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/authserver/internal/auth/domain"
	"github.com/aussiebroadwan/authserver/internal/auth/store"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, migrated store. The test owns closing it.
type Factory func(t *testing.T) store.Store

func sampleClient(id string) domain.Client {
	return domain.Client{
		ID:                  id,
		Name:                "Client " + id,
		SecretHash:          "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		GrantTypes:          []string{domain.GrantClientCredentials},
		Scopes:              []string{"read", "write"},
		Authorities:         []string{"ROLE_CLIENT"},
		AccessTokenValidity: 10 * time.Minute,
	}
}

// Run exercises the Clients repository and transaction semantics.
func Run(t *testing.T, newStore Factory) {
	t.Run("create and get", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		empty, err := s.Clients().IsEmpty(ctx)
		require.NoError(t, err)
		require.True(t, empty)

		want := sampleClient("administration")
		require.NoError(t, s.Clients().CreateClient(ctx, want))

		got, err := s.Clients().GetClientByID(ctx, "administration")
		require.NoError(t, err)
		require.Equal(t, want.ID, got.ID)
		require.Equal(t, want.Name, got.Name)
		require.Equal(t, want.SecretHash, got.SecretHash)
		require.Equal(t, want.GrantTypes, got.GrantTypes)
		require.Equal(t, want.Scopes, got.Scopes)
		require.Equal(t, want.Authorities, got.Authorities)
		require.Equal(t, want.AccessTokenValidity, got.AccessTokenValidity)
		require.False(t, got.CreatedAt.IsZero())

		empty, err = s.Clients().IsEmpty(ctx)
		require.NoError(t, err)
		require.False(t, empty)
	})

	t.Run("duplicate create", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Clients().CreateClient(ctx, sampleClient("client")))
		err := s.Clients().CreateClient(ctx, sampleClient("client"))
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("not found", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.Clients().GetClientByID(ctx, "nobody")
		require.ErrorIs(t, err, store.ErrNotFound)
		require.ErrorIs(t, s.Clients().DeleteClient(ctx, "nobody"), store.ErrNotFound)
		require.ErrorIs(t, s.Clients().UpdateClientSecretHash(ctx, "nobody", "x"), store.ErrNotFound)
	})

	t.Run("upsert replaces", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		c := sampleClient("client")
		require.NoError(t, s.Clients().UpsertClient(ctx, c))

		c.Scopes = []string{"read"}
		c.Authorities = nil
		require.NoError(t, s.Clients().UpsertClient(ctx, c))

		got, err := s.Clients().GetClientByID(ctx, "client")
		require.NoError(t, err)
		require.Equal(t, []string{"read"}, got.Scopes)
		require.Empty(t, got.Authorities)

		all, err := s.Clients().ListClients(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
	})

	t.Run("list is ordered and delete removes", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for _, id := range []string{"zeta", "alpha", "mid"} {
			require.NoError(t, s.Clients().CreateClient(ctx, sampleClient(id)))
		}

		all, err := s.Clients().ListClients(ctx)
		require.NoError(t, err)
		ids := make([]string, len(all))
		for i, c := range all {
			ids[i] = c.ID
		}
		require.Equal(t, []string{"alpha", "mid", "zeta"}, ids)

		require.NoError(t, s.Clients().DeleteClient(ctx, "mid"))
		_, err = s.Clients().GetClientByID(ctx, "mid")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("update secret hash", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Clients().CreateClient(ctx, sampleClient("client")))
		require.NoError(t, s.Clients().UpdateClientSecretHash(ctx, "client", "new-hash"))

		got, err := s.Clients().GetClientByID(ctx, "client")
		require.NoError(t, err)
		require.Equal(t, "new-hash", got.SecretHash)
	})

	t.Run("with tx commits and rolls back", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		err := s.WithTx(ctx, func(tx store.Tx) error {
			return tx.Clients().CreateClient(ctx, sampleClient("committed"))
		})
		require.NoError(t, err)

		boom := errors.New("boom")
		err = s.WithTx(ctx, func(tx store.Tx) error {
			if err := tx.Clients().CreateClient(ctx, sampleClient("rolled-back")); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		_, err = s.Clients().GetClientByID(ctx, "committed")
		require.NoError(t, err)
		_, err = s.Clients().GetClientByID(ctx, "rolled-back")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("ping", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Ping(context.Background()))
	})
}
