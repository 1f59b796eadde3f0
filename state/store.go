// Package state persists per-platform sync status. The in-memory store is
// the default; a Dapr state-store backed implementation is available for
// distributed deployments.
package state

import (
	"context"
	"sync"

	"github.com/cityzenmag/socialhub/model"
)

// Store persists SyncStatus records keyed by platform.
type Store interface {
	// Save writes one platform's status, replacing any previous record.
	Save(ctx context.Context, status model.SyncStatus) error

	// Get returns one platform's status; ok is false when no record exists.
	Get(ctx context.Context, p model.Platform) (status model.SyncStatus, ok bool, err error)

	// All returns every stored status keyed by platform.
	All(ctx context.Context) (map[model.Platform]model.SyncStatus, error)

	// Delete removes one platform's status. Deleting a missing record is
	// not an error.
	Delete(ctx context.Context, p model.Platform) error
}

// MemoryStore is the default Store, holding statuses in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	statuses map[model.Platform]model.SyncStatus
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{statuses: make(map[model.Platform]model.SyncStatus)}
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, status model.SyncStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[status.Platform] = status
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, p model.Platform) (model.SyncStatus, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.statuses[p]
	return status, ok, nil
}

// All implements Store.
func (s *MemoryStore) All(_ context.Context) (map[model.Platform]model.SyncStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[model.Platform]model.SyncStatus, len(s.statuses))
	for p, status := range s.statuses {
		out[p] = status
	}
	return out, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, p model.Platform) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.statuses, p)
	return nil
}
