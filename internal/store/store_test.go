package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "larik.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesAllTables(t *testing.T) {
	s := openTestStore(t)

	tables := []string{
		"spaces", "pinned_tabs", "tab_folders", "archived_tabs",
		"archived_tabs_fts", "snippets", "app_state",
	}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(`SELECT name FROM sqlite_master WHERE name = ?`, table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "larik.db")
	s1, err := Open(path)
	require.NoError(t, err)
	s1.Close()

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	var name string
	err = s2.db.QueryRow(`SELECT name FROM sqlite_master WHERE name = 'spaces'`).Scan(&name)
	require.NoError(t, err)
}

func TestForeignKeysEnforced(t *testing.T) {
	s := openTestStore(t)

	_, err := s.db.Exec(
		`INSERT INTO pinned_tabs (id, space_id, title, last_accessed_at, created_at, updated_at)
		 VALUES ('tab-1', 'missing-space', 'untitled', '2026-01-01', '2026-01-01', '2026-01-01')`,
	)
	assert.Error(t, err, "inserting a tab for a nonexistent space should violate the FK constraint")
}

func TestArchivedTabsFTSTriggersSyncOnInsertUpdateDelete(t *testing.T) {
	s := openTestStore(t)

	insert := func(id, title, content string) {
		_, err := s.db.Exec(
			`INSERT INTO archived_tabs
			 (id, original_tab_id, space_name, title, content, created_at, updated_at, last_accessed_at, archived_at)
			 VALUES (?, ?, 'space-a', ?, ?, '2026-01-01', '2026-01-01', '2026-01-01', '2026-01-01')`,
			id, id+"-orig", title, content,
		)
		require.NoError(t, err)
	}

	insert("arc-1", "quarterly report", "select * from revenue")
	count := ftsCount(t, s.db, "revenue")
	assert.Equal(t, 1, count)

	_, err := s.db.Exec(`UPDATE archived_tabs SET content = ? WHERE id = 'arc-1'`, "select * from expenses")
	require.NoError(t, err)
	assert.Equal(t, 0, ftsCount(t, s.db, "revenue"))
	assert.Equal(t, 1, ftsCount(t, s.db, "expenses"))

	_, err = s.db.Exec(`DELETE FROM archived_tabs WHERE id = 'arc-1'`)
	require.NoError(t, err)
	assert.Equal(t, 0, ftsCount(t, s.db, "expenses"))
}

func ftsCount(t *testing.T, db *sql.DB, term string) int {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT count(*) FROM archived_tabs_fts WHERE archived_tabs_fts MATCH ?`, term).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestWithWriteTxRollsBackOnError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sentinel := assert.AnError
	err := s.WithWriteTx(ctx, func(tx *sql.Tx) error {
		_, execErr := tx.Exec(
			`INSERT INTO spaces (id, name, sort_order, created_at, updated_at) VALUES ('space-1', 'Work', 0, '2026-01-01', '2026-01-01')`,
		)
		require.NoError(t, execErr)
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT count(*) FROM spaces`).Scan(&count))
	assert.Equal(t, 0, count, "a failed write session must leave the store untouched")
}

func TestWithWriteTxCommitsOnSuccess(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.WithWriteTx(ctx, func(tx *sql.Tx) error {
		_, execErr := tx.Exec(
			`INSERT INTO spaces (id, name, sort_order, created_at, updated_at) VALUES ('space-1', 'Work', 0, '2026-01-01', '2026-01-01')`,
		)
		return execErr
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT count(*) FROM spaces`).Scan(&count))
	assert.Equal(t, 1, count)
}
