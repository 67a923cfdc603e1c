// Package store is the embedded single-file store (C1): it owns one
// modernc.org/sqlite database, applies idempotent schema migrations on
// open, and exposes a mutex-guarded write session plus unguarded reads
// (SQLite serializes writers internally; correctness must not depend on
// concurrent readers, per spec.md §4.1).
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/dwifuady/larik/internal/applog"
)

// Store wraps the single larik.db handle.
type Store struct {
	db   *sql.DB
	path string
	log  zerolog.Logger

	// writeMu serialises every write session. Reads may run unguarded;
	// SQLite handles reader/writer isolation internally under WAL mode
	// and the store never depends on snapshot concurrency beyond that.
	writeMu sync.Mutex
}

// Open opens (creating if absent) the SQLite database at path, enables
// foreign-key enforcement for the session, and applies every pending
// migration step in order. Any migration failure is fatal, per spec.md
// §4.1 ("any schema step failure is fatal at startup").
func Open(path string) (*Store, error) {
	log := applog.WithComponent("store")

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(wal)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// modernc.org/sqlite serializes internally; a single connection
	// avoids "database is locked" errors from concurrent writers and
	// matches the one-mutex-protected-session model spec.md §4.1 asks
	// for.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db: db, path: path, log: log}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate store schema: %w", err)
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying handle for read-only queries issued directly
// by repository packages (internal/workspace, internal/archive). Writes
// must go through WithWriteTx instead.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the filesystem path of the backing database file, used by
// the db-file export/import commands to copy the whole store at rest.
func (s *Store) Path() string {
	return s.path
}

// WithWriteTx serialises fn through the single write mutex and runs it
// inside one transaction, committing on a nil return and rolling back
// otherwise. Compound operations that must be all-or-nothing (archive
// move, folder-from-tabs, restore) use this, per spec.md §4.2's
// transactional failure semantics.
func (s *Store) WithWriteTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin write session: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit write session: %w", err)
	}
	return nil
}
