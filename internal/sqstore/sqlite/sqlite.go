// Package sqlite is a modernc.org/sqlite-backed sqstore.Store, following
// the same schema-init-then-prepare pattern as server/dao/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/dekarrin/sequitur/internal/sqstore"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
	"modernc.org/sqlite"
)

type store struct {
	db    *sql.DB
	snaps *snapshotRepository
}

// NewDatastore opens (creating if necessary) a sqlite database at file and
// returns a Store backed by it.
func NewDatastore(file string) (sqstore.Store, error) {
	db, err := sql.Open("sqlite", file)
	if err != nil {
		return nil, wrapDBError(err)
	}

	repo := &snapshotRepository{db: db}
	if err := repo.init(); err != nil {
		return nil, err
	}

	return &store{db: db, snaps: repo}, nil
}

func (s *store) Snapshots() sqstore.SnapshotRepository { return s.snaps }

func (s *store) Close() error { return s.db.Close() }

type snapshotRepository struct {
	db *sql.DB
}

func (r *snapshotRepository) init() error {
	stmt := `CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT NOT NULL PRIMARY KEY,
		data TEXT NOT NULL,
		created INTEGER NOT NULL
	);`
	if _, err := r.db.Exec(stmt); err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (r *snapshotRepository) Create(ctx context.Context, s sqstore.Snapshot) (sqstore.Snapshot, error) {
	stmt, err := r.db.Prepare(`INSERT INTO snapshots (id, data, created) VALUES (?, ?, ?)`)
	if err != nil {
		return sqstore.Snapshot{}, wrapDBError(err)
	}
	defer stmt.Close()

	now := time.Now()
	encoded := base64.StdEncoding.EncodeToString(s.Data)
	if _, err := stmt.ExecContext(ctx, s.ID.String(), encoded, now.Unix()); err != nil {
		return sqstore.Snapshot{}, wrapDBError(err)
	}

	s.Created = now
	return s, nil
}

func (r *snapshotRepository) GetByID(ctx context.Context, id uuid.UUID) (sqstore.Snapshot, error) {
	row := r.db.QueryRowContext(ctx, `SELECT data, created FROM snapshots WHERE id = ?`, id.String())

	var encoded string
	var created int64
	if err := row.Scan(&encoded, &created); err != nil {
		return sqstore.Snapshot{}, wrapDBError(err)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return sqstore.Snapshot{}, fmt.Errorf("decode stored snapshot: %w", err)
	}

	return sqstore.Snapshot{ID: id, Data: data, Created: time.Unix(created, 0)}, nil
}

func (r *snapshotRepository) Delete(ctx context.Context, id uuid.UUID) (sqstore.Snapshot, error) {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return sqstore.Snapshot{}, err
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id.String()); err != nil {
		return sqstore.Snapshot{}, wrapDBError(err)
	}

	return existing, nil
}

func (r *snapshotRepository) Close() error { return nil }

func wrapDBError(err error) error {
	if err == nil {
		return nil
	}

	sqliteErr := &sqlite.Error{}
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code() == 19 {
			return sqstore.ErrConstraintViolation
		}
		return fmt.Errorf("%s", sqlite.ErrorCodeString[sqliteErr.Code()])
	}
	if errors.Is(err, sql.ErrNoRows) {
		return sqstore.ErrNotFound
	}
	return err
}
