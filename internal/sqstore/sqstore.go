// Package sqstore defines the persistence boundary for frozen grammar
// snapshots. It never touches a live Engine: a Snapshot is the
// already-encoded output of internal/sqcodec, stored and retrieved by
// session ID and nothing more. This mirrors server/dao's Store/repository
// split, trimmed to the one repository this domain needs.
package sqstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no snapshot exists for the given ID.
	ErrNotFound = errors.New("the requested snapshot was not found")
	// ErrConstraintViolation is returned when a snapshot with the same ID
	// already exists.
	ErrConstraintViolation = errors.New("a snapshot with that id already exists")
)

// Snapshot is a frozen, already-encoded grammar, ready for storage.
type Snapshot struct {
	ID      uuid.UUID
	Data    []byte
	Created time.Time
}

// SnapshotRepository persists Snapshots keyed by their ID.
type SnapshotRepository interface {
	Create(ctx context.Context, s Snapshot) (Snapshot, error)
	GetByID(ctx context.Context, id uuid.UUID) (Snapshot, error)
	Delete(ctx context.Context, id uuid.UUID) (Snapshot, error)
	Close() error
}

// Store groups the repositories this domain needs. Today that is only
// Snapshots, but it is kept as an interface-of-interfaces the way
// server/dao.Store is, so a second repository (e.g. per-caller API keys)
// can be added without changing either backend's constructor signature.
type Store interface {
	Snapshots() SnapshotRepository
	Close() error
}
