// Package inmem is a memory-backed sqstore.Store, for tests and for
// running the server without a database configured.
package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/dekarrin/sequitur/internal/sqstore"
	"github.com/google/uuid"
)

type store struct {
	snaps *snapshotRepository
}

// NewDatastore returns an empty, memory-backed Store.
func NewDatastore() sqstore.Store {
	return &store{snaps: newSnapshotRepository()}
}

func (s *store) Snapshots() sqstore.SnapshotRepository { return s.snaps }

func (s *store) Close() error { return nil }

type snapshotRepository struct {
	mu    sync.Mutex
	snaps map[uuid.UUID]sqstore.Snapshot
}

func newSnapshotRepository() *snapshotRepository {
	return &snapshotRepository{snaps: make(map[uuid.UUID]sqstore.Snapshot)}
}

func (r *snapshotRepository) Create(ctx context.Context, s sqstore.Snapshot) (sqstore.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.snaps[s.ID]; exists {
		return sqstore.Snapshot{}, sqstore.ErrConstraintViolation
	}

	s.Created = time.Now()
	r.snaps[s.ID] = s
	return s, nil
}

func (r *snapshotRepository) GetByID(ctx context.Context, id uuid.UUID) (sqstore.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.snaps[id]
	if !ok {
		return sqstore.Snapshot{}, sqstore.ErrNotFound
	}
	return s, nil
}

func (r *snapshotRepository) Delete(ctx context.Context, id uuid.UUID) (sqstore.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.snaps[id]
	if !ok {
		return sqstore.Snapshot{}, sqstore.ErrNotFound
	}
	delete(r.snaps, id)
	return s, nil
}

func (r *snapshotRepository) Close() error { return nil }
