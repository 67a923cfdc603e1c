// Package workspace is the workspace repository (C2): per-entity CRUD
// and ordering operations for spaces, tabs, folders, and snippets, plus
// the generic app-settings key/value bag, all persisted through
// internal/store.
//
// Grounded on the original Rust implementation's storage::{spaces,tabs,
// folders,snippets} modules (src-tauri/src/storage/*.rs):
// COALESCE(MAX(sort_order),-1)+1 for append-to-end, COALESCE(MIN
// (sort_order),1)-1 for prepend-to-front, and per-id UPDATE loops for
// reorder are carried over verbatim as SQL shapes, translated from
// rusqlite's named-connection style into database/sql against the
// store's single *sql.DB.
package workspace

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dwifuady/larik/internal/applog"
	"github.com/dwifuady/larik/internal/driver"
	"github.com/dwifuady/larik/internal/store"
)

// Repository is the workspace repository bound to one store.
type Repository struct {
	db  *store.Store
	log zerolog.Logger
}

// New constructs a Repository bound to db.
func New(db *store.Store) *Repository {
	return &Repository{db: db, log: applog.WithComponent("workspace")}
}

func newID() string { return uuid.NewString() }

func nowRFC3339() string { return time.Now().UTC().Format(time.RFC3339) }

// parseTime parses a timestamp stored in RFC3339 form, tolerating the
// legacy `datetime('now')` SQLite format (space-separated, no zone) the
// original implementation wrote.
func parseTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}

func errNotFound(entity, id string) error {
	return driver.New(driver.KindIOError, entity+" not found: "+id, sql.ErrNoRows)
}
