// Package memory is a map-backed client registry used when no database is
// configured.
package memory

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/aussiebroadwan/authserver/internal/auth/domain"
	"github.com/aussiebroadwan/authserver/internal/auth/store"
)

var (
	_ store.Store = (*Store)(nil)

	errTxDone = errors.New("memory: transaction already committed or rolled back")
)

type Store struct {
	mu      sync.RWMutex
	clients map[string]domain.Client
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{
		clients: make(map[string]domain.Client),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Clients() store.Clients         { return &clientsRepo{s: s} }
func (s *Store) ApplyMigrations() error         { return nil }
func (s *Store) Close() error                   { return nil }
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

// Tx snapshots the registry. Writes go to the snapshot and replace the
// store's map on Commit.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	snapshot := maps.Clone(s.clients)
	s.mu.RUnlock()

	return &txStore{
		parent: s,
		inner:  &Store{clients: snapshot, now: s.now},
	}, nil
}

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

type txStore struct {
	parent *Store
	inner  *Store
	done   bool
}

func (t *txStore) Clients() store.Clients         { return t.inner.Clients() }
func (t *txStore) ApplyMigrations() error         { return nil }
func (t *txStore) Close() error                   { return nil }
func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) { return nil, errTxDone }

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return errTxDone
}

func (t *txStore) Commit() error {
	if t.done {
		return errTxDone
	}
	t.done = true

	t.inner.mu.RLock()
	committed := maps.Clone(t.inner.clients)
	t.inner.mu.RUnlock()

	t.parent.mu.Lock()
	t.parent.clients = committed
	t.parent.mu.Unlock()
	return nil
}

func (t *txStore) Rollback() error {
	if t.done {
		return errTxDone
	}
	t.done = true
	return nil
}

type clientsRepo struct {
	s *Store
}

func (r *clientsRepo) GetClientByID(ctx context.Context, id string) (domain.Client, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.clients[id]
	if !ok {
		return domain.Client{}, store.ErrNotFound
	}
	return cloneClient(c), nil
}

func (r *clientsRepo) ListClients(ctx context.Context) ([]domain.Client, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ids := slices.Sorted(maps.Keys(r.s.clients))
	out := make([]domain.Client, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneClient(r.s.clients[id]))
	}
	return out, nil
}

func (r *clientsRepo) CreateClient(ctx context.Context, c domain.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.clients[c.ID]; ok {
		return store.ErrAlreadyExists
	}
	r.s.clients[c.ID] = r.stamp(c, time.Time{})
	return nil
}

func (r *clientsRepo) UpsertClient(ctx context.Context, c domain.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var created time.Time
	if existing, ok := r.s.clients[c.ID]; ok {
		created = existing.CreatedAt
	}
	r.s.clients[c.ID] = r.stamp(c, created)
	return nil
}

func (r *clientsRepo) UpdateClientSecretHash(ctx context.Context, clientID, secretHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.clients[clientID]
	if !ok {
		return store.ErrNotFound
	}
	c.SecretHash = secretHash
	c.UpdatedAt = r.s.now()
	r.s.clients[clientID] = c
	return nil
}

func (r *clientsRepo) DeleteClient(ctx context.Context, clientID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.clients[clientID]; !ok {
		return store.ErrNotFound
	}
	delete(r.s.clients, clientID)
	return nil
}

func (r *clientsRepo) IsEmpty(ctx context.Context) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.clients) == 0, nil
}

// stamp fills in timestamps. A non-zero created overrides c.CreatedAt.
func (r *clientsRepo) stamp(c domain.Client, created time.Time) domain.Client {
	now := r.s.now()
	c = cloneClient(c)
	if !created.IsZero() {
		c.CreatedAt = created
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	return c
}

func cloneClient(c domain.Client) domain.Client {
	c.GrantTypes = slices.Clone(c.GrantTypes)
	c.Scopes = slices.Clone(c.Scopes)
	c.Authorities = slices.Clone(c.Authorities)
	return c
}
