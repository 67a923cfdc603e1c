package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// migrate runs every step in order. Each step is idempotent (a no-op
// when its target object already exists), grounded on the teacher
// corpus's steveyegge-beads/internal/storage/sqlite/migrations package:
// each numbered file there checks `PRAGMA table_info(...)` before
// altering a table and uses `CREATE INDEX IF NOT EXISTS` for indexes.
// Plain tables are created inside one transaction; the FTS5 virtual
// table and its triggers are created afterwards, outside any
// transaction, following mvp-joe-project-cortex's
// internal/storage/schema.go ("FTS5 ... virtual tables must be created
// outside transaction").
func (s *Store) migrate() error {
	steps := []struct {
		name string
		fn   func(*sql.Tx) error
	}{
		{"create_spaces_table", createSpacesTable},
		{"create_tab_folders_table", createTabFoldersTable},
		{"create_pinned_tabs_table", createPinnedTabsTable},
		{"create_archived_tabs_table", createArchivedTabsTable},
		{"create_snippets_table", createSnippetsTable},
		{"create_app_state_table", createAppStateTable},
		{"add_missing_columns", addMissingColumns},
		{"create_indexes", createIndexes},
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration transaction: %w", err)
	}
	for _, step := range steps {
		if err := step.fn(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration step %s: %w", step.name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration transaction: %w", err)
	}

	// FTS5 virtual table + triggers: outside any transaction.
	if err := s.migrateArchiveFTS(); err != nil {
		return fmt.Errorf("migration step migrate_archive_fts: %w", err)
	}
	return nil
}

func createSpacesTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS spaces (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	color TEXT,
	icon TEXT,
	connection_id TEXT,
	connection_name TEXT,
	connection_host TEXT,
	connection_port INTEGER,
	connection_database TEXT,
	connection_username TEXT,
	connection_password TEXT,
	database_type TEXT,
	mssql_trust_cert INTEGER NOT NULL DEFAULT 0,
	mssql_encrypt INTEGER NOT NULL DEFAULT 0,
	postgres_sslmode TEXT,
	mysql_ssl_enabled INTEGER NOT NULL DEFAULT 0,
	last_active_tab_id TEXT,
	sort_order INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`)
	return err
}

func createTabFoldersTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS tab_folders (
	id TEXT PRIMARY KEY,
	space_id TEXT NOT NULL REFERENCES spaces(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	is_expanded INTEGER NOT NULL DEFAULT 1,
	sort_order INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`)
	return err
}

func createPinnedTabsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS pinned_tabs (
	id TEXT PRIMARY KEY,
	space_id TEXT NOT NULL REFERENCES spaces(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	tab_type TEXT NOT NULL DEFAULT 'query',
	content TEXT,
	metadata TEXT,
	database TEXT,
	folder_id TEXT REFERENCES tab_folders(id) ON DELETE SET NULL,
	is_pinned INTEGER NOT NULL DEFAULT 0,
	last_accessed_at TEXT NOT NULL,
	sort_order INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`)
	return err
}

func createArchivedTabsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS archived_tabs (
	id TEXT PRIMARY KEY,
	original_tab_id TEXT NOT NULL,
	space_id TEXT REFERENCES spaces(id) ON DELETE SET NULL,
	space_name TEXT NOT NULL,
	title TEXT NOT NULL,
	tab_type TEXT NOT NULL DEFAULT 'query',
	content TEXT,
	metadata TEXT,
	database TEXT,
	was_pinned INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	last_accessed_at TEXT NOT NULL,
	archived_at TEXT NOT NULL
)`)
	return err
}

func createSnippetsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS snippets (
	id TEXT PRIMARY KEY,
	trigger TEXT NOT NULL,
	name TEXT NOT NULL,
	content TEXT NOT NULL,
	description TEXT,
	category TEXT,
	is_builtin INTEGER NOT NULL DEFAULT 0,
	enabled INTEGER NOT NULL DEFAULT 1,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`)
	return err
}

func createAppStateTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS app_state (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`)
	return err
}

// tableColumn mirrors one PRAGMA table_info(...) row.
type tableColumn struct {
	cid     int
	name    string
	ctype   string
	notnull int
	dflt    sql.NullString
	pk      int
}

func existingColumns(tx *sql.Tx, table string) (map[string]bool, error) {
	rows, err := tx.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var c tableColumn
		if err := rows.Scan(&c.cid, &c.name, &c.ctype, &c.notnull, &c.dflt, &c.pk); err != nil {
			return nil, err
		}
		cols[c.name] = true
	}
	return cols, rows.Err()
}

// addMissingColumns introspects each table's current catalog and adds
// any column named in spec.md §4.1 that an older on-disk schema lacks,
// with a safe default. This is the pattern steveyegge-beads' numbered
// migrations use per-column (e.g. 002_external_ref_column.go's
// PRAGMA table_info + conditional ALTER TABLE ADD COLUMN), generalized
// here into a declarative per-table column list.
func addMissingColumns(tx *sql.Tx) error {
	type column struct {
		name       string
		definition string
	}
	tables := []struct {
		table   string
		columns []column
	}{
		{"spaces", []column{
			{"connection_id", "TEXT"},
			{"connection_name", "TEXT"},
			{"connection_host", "TEXT"},
			{"connection_port", "INTEGER"},
			{"connection_database", "TEXT"},
			{"connection_username", "TEXT"},
			{"connection_password", "TEXT"},
			{"database_type", "TEXT"},
			{"mssql_trust_cert", "INTEGER NOT NULL DEFAULT 0"},
			{"mssql_encrypt", "INTEGER NOT NULL DEFAULT 0"},
			{"postgres_sslmode", "TEXT"},
			{"mysql_ssl_enabled", "INTEGER NOT NULL DEFAULT 0"},
			{"last_active_tab_id", "TEXT"},
			{"sort_order", "INTEGER NOT NULL DEFAULT 0"},
		}},
		{"pinned_tabs", []column{
			{"folder_id", "TEXT"},
			{"metadata", "TEXT"},
			{"database", "TEXT"},
			{"is_pinned", "INTEGER NOT NULL DEFAULT 0"},
		}},
		{"archived_tabs", []column{
			{"metadata", "TEXT"},
			{"database", "TEXT"},
			{"was_pinned", "INTEGER NOT NULL DEFAULT 0"},
		}},
		{"snippets", []column{
			{"description", "TEXT"},
			{"category", "TEXT"},
			{"is_builtin", "INTEGER NOT NULL DEFAULT 0"},
			{"enabled", "INTEGER NOT NULL DEFAULT 1"},
		}},
	}

	for _, t := range tables {
		existing, err := existingColumns(tx, t.table)
		if err != nil {
			return fmt.Errorf("introspect %s: %w", t.table, err)
		}
		for _, c := range t.columns {
			if existing[c.name] {
				continue
			}
			stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", t.table, c.name, c.definition)
			if _, err := tx.Exec(stmt); err != nil {
				return fmt.Errorf("add column %s.%s: %w", t.table, c.name, err)
			}
		}
	}
	return nil
}

func createIndexes(tx *sql.Tx) error {
	stmts := []string{
		`CREATE INDEX IF NOT EXISTS idx_pinned_tabs_space_id ON pinned_tabs(space_id)`,
		`CREATE INDEX IF NOT EXISTS idx_pinned_tabs_folder_id ON pinned_tabs(folder_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tab_folders_space_id ON tab_folders(space_id)`,
		`CREATE INDEX IF NOT EXISTS idx_archived_tabs_space_id ON archived_tabs(space_id)`,
		`CREATE INDEX IF NOT EXISTS idx_archived_tabs_archived_at ON archived_tabs(archived_at)`,
		`CREATE INDEX IF NOT EXISTS idx_snippets_trigger ON snippets(trigger)`,
		`CREATE INDEX IF NOT EXISTS idx_snippets_enabled ON snippets(enabled)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	return nil
}

// ftsExternalContentMarker is present in the CREATE VIRTUAL TABLE sql of
// the current, external-content-table archived_tabs_fts shape. Its
// absence from an existing archived_tabs_fts means the on-disk schema
// predates this shape (a legacy standalone, non-synced FTS table) and
// must be dropped and rebuilt, per spec.md §4.1 step (e).
const ftsExternalContentMarker = "content='archived_tabs'"

// migrateArchiveFTS creates (or, if a legacy shape is detected, rebuilds)
// the archived_tabs_fts external-content FTS5 index and its three sync
// triggers. Grounded on mvp-joe-project-cortex's internal/storage/
// schema.go CreateSchema, which creates plain tables inside a
// transaction, commits, then creates its FTS5 virtual tables and
// AFTER INSERT/UPDATE/DELETE triggers outside any transaction.
func (s *Store) migrateArchiveFTS() error {
	legacy, err := s.hasLegacyArchiveFTS()
	if err != nil {
		return fmt.Errorf("detect legacy fts shape: %w", err)
	}
	if legacy {
		if err := s.dropArchiveFTS(); err != nil {
			return fmt.Errorf("drop legacy fts shape: %w", err)
		}
	}

	if _, err := s.db.Exec(`
CREATE VIRTUAL TABLE IF NOT EXISTS archived_tabs_fts USING fts5(
	title, content,
	content='archived_tabs', content_rowid='rowid'
)`); err != nil {
		return fmt.Errorf("create archived_tabs_fts: %w", err)
	}

	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS archived_tabs_fts_insert AFTER INSERT ON archived_tabs BEGIN
	INSERT INTO archived_tabs_fts(rowid, title, content) VALUES (new.rowid, new.title, new.content);
END`,
		`CREATE TRIGGER IF NOT EXISTS archived_tabs_fts_delete AFTER DELETE ON archived_tabs BEGIN
	INSERT INTO archived_tabs_fts(archived_tabs_fts, rowid, title, content) VALUES('delete', old.rowid, old.title, old.content);
END`,
		`CREATE TRIGGER IF NOT EXISTS archived_tabs_fts_update AFTER UPDATE ON archived_tabs BEGIN
	INSERT INTO archived_tabs_fts(archived_tabs_fts, rowid, title, content) VALUES('delete', old.rowid, old.title, old.content);
	INSERT INTO archived_tabs_fts(rowid, title, content) VALUES (new.rowid, new.title, new.content);
END`,
	}
	for _, stmt := range triggers {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("create archive fts trigger: %w", err)
		}
	}

	if legacy {
		if err := s.rebuildArchiveFTS(); err != nil {
			return fmt.Errorf("rebuild archive fts index: %w", err)
		}
	}
	return nil
}

func (s *Store) hasLegacyArchiveFTS() (bool, error) {
	var createSQL sql.NullString
	err := s.db.QueryRow(
		`SELECT sql FROM sqlite_master WHERE type='table' AND name='archived_tabs_fts'`,
	).Scan(&createSQL)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !createSQL.Valid {
		return false, nil
	}
	return !strings.Contains(createSQL.String, ftsExternalContentMarker), nil
}

func (s *Store) dropArchiveFTS() error {
	stmts := []string{
		`DROP TRIGGER IF EXISTS archived_tabs_fts_insert`,
		`DROP TRIGGER IF EXISTS archived_tabs_fts_delete`,
		`DROP TRIGGER IF EXISTS archived_tabs_fts_update`,
		`DROP TABLE IF EXISTS archived_tabs_fts`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	return nil
}

// rebuildArchiveFTS repopulates a freshly-created external-content FTS5
// index from the rows that already exist in archived_tabs, needed after
// migrating away from a legacy shape (a fresh external-content table
// starts empty; it is not backfilled automatically).
func (s *Store) rebuildArchiveFTS() error {
	_, err := s.db.Exec(
		`INSERT INTO archived_tabs_fts(rowid, title, content) SELECT rowid, title, content FROM archived_tabs`,
	)
	return err
}
