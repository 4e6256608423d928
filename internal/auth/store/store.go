package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/authserver/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface for the client registry. Drivers
// (memory, sqlite) implement it. Repositories hang off the store so a Tx can
// hand out the same repos scoped to the transaction.
type Store interface {
	Clients() Clients

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction. A nil return commits, anything else
	// rolls back.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the backing storage is still reachable.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Clients interface {
	// GetClientByID returns ErrNotFound for unknown ids.
	GetClientByID(ctx context.Context, id string) (domain.Client, error)

	// ListClients returns every client ordered by id.
	ListClients(ctx context.Context) ([]domain.Client, error)

	// CreateClient returns ErrAlreadyExists if the id is taken.
	CreateClient(ctx context.Context, c domain.Client) error

	// UpsertClient inserts c or replaces the stored client with the same id,
	// keeping its CreatedAt.
	UpsertClient(ctx context.Context, c domain.Client) error

	UpdateClientSecretHash(ctx context.Context, clientID, secretHash string) error

	// DeleteClient returns ErrNotFound if nothing was deleted.
	DeleteClient(ctx context.Context, clientID string) error

	IsEmpty(ctx context.Context) (bool, error)
}
