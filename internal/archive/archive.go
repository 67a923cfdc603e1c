// Package archive is the archive & FTS component (C3): moving a tab to
// the archive, restoring it, full-text search with a LIKE fallback, and
// retention cleanup, all against internal/store's archived_tabs table
// and its archived_tabs_fts mirror.
//
// Grounded on the original Rust storage::history module's
// archive_tab/restore_tab/search_archive transaction shapes, and on
// untoldecay-BeadsLog's queries/fuzzy.go for the FTS-then-LIKE fallback
// idiom (prefix-match FTS first, fall back to LIKE only when the FTS
// query fails).
package archive

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dwifuady/larik/internal/applog"
	"github.com/dwifuady/larik/internal/driver"
	"github.com/dwifuady/larik/internal/model"
	"github.com/dwifuady/larik/internal/store"
)

// Repository is the archive repository bound to one store.
type Repository struct {
	db  *store.Store
	log zerolog.Logger
}

// New constructs a Repository bound to db.
func New(db *store.Store) *Repository {
	return &Repository{db: db, log: applog.WithComponent("archive")}
}

func newID() string { return uuid.NewString() }

func nowRFC3339() string { return time.Now().UTC().Format(time.RFC3339) }

func parseTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}

const archiveColumns = `id, original_tab_id, space_id, space_name, title, tab_type,
	content, metadata, database, was_pinned, created_at, updated_at, last_accessed_at, archived_at`

func scanArchived(scan func(dest ...any) error) (model.ArchivedTab, error) {
	var (
		a                                      model.ArchivedTab
		spaceID                                sql.NullString
		tabType                                string
		content, metadata, database            sql.NullString
		createdAt, updatedAt, lastAccessedAt, archivedAt string
	)
	if err := scan(
		&a.ID, &a.OriginalTabID, &spaceID, &a.SpaceName, &a.Title, &tabType,
		&content, &metadata, &database, &a.WasPinned,
		&createdAt, &updatedAt, &lastAccessedAt, &archivedAt,
	); err != nil {
		return model.ArchivedTab{}, err
	}
	if spaceID.Valid {
		id := spaceID.String
		a.SpaceID = &id
	}
	a.Type = model.TabType(tabType)
	a.Content = content.String
	a.Metadata = metadata.String
	a.Database = database.String
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	a.LastAccessedAt = parseTime(lastAccessedAt)
	a.ArchivedAt = parseTime(archivedAt)
	return a, nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func errNotFound(entity, id string) error {
	return driver.New(driver.KindIOError, entity+" not found: "+id, sql.ErrNoRows)
}

// ArchiveTab moves a tab into the archive within one transaction: reads
// the tab, captures the parent space's current name, copies its fields
// plus was_pinned into archived_tabs with a fresh id and archived_at =
// now, then deletes the original tab, per spec.md §4.3. The FTS index
// is kept in sync by the archived_tabs_fts triggers.
func (r *Repository) ArchiveTab(ctx context.Context, tabID string) (model.ArchivedTab, error) {
	var archived model.ArchivedTab
	err := r.db.WithWriteTx(ctx, func(tx *sql.Tx) error {
		var (
			spaceID, title, tabType                      string
			content, metadata, database, folderID         sql.NullString
			isPinned                                       bool
			lastAccessedAt, createdAt, updatedAt           string
		)
		err := tx.QueryRowContext(ctx, `
SELECT space_id, title, tab_type, content, metadata, database, folder_id,
	is_pinned, last_accessed_at, created_at, updated_at
FROM pinned_tabs WHERE id = ?`, tabID,
		).Scan(&spaceID, &title, &tabType, &content, &metadata, &database, &folderID,
			&isPinned, &lastAccessedAt, &createdAt, &updatedAt)
		if err == sql.ErrNoRows {
			return errNotFound("tab", tabID)
		}
		if err != nil {
			return err
		}

		var spaceName string
		if err := tx.QueryRowContext(ctx, `SELECT name FROM spaces WHERE id = ?`, spaceID).Scan(&spaceName); err != nil {
			if err != sql.ErrNoRows {
				return err
			}
			spaceName = ""
		}

		id := newID()
		now := nowRFC3339()
		if _, err := tx.ExecContext(ctx, `
INSERT INTO archived_tabs (
	id, original_tab_id, space_id, space_name, title, tab_type,
	content, metadata, database, was_pinned, created_at, updated_at, last_accessed_at, archived_at
) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			id, tabID, spaceID, spaceName, title, tabType,
			content, metadata, database, isPinned, createdAt, updatedAt, lastAccessedAt, now,
		); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM pinned_tabs WHERE id = ?`, tabID); err != nil {
			return err
		}
		if folderID.Valid {
			if err := deleteFolderIfEmptyTx(ctx, tx, folderID.String); err != nil {
				return err
			}
		}

		row := tx.QueryRowContext(ctx, `SELECT `+archiveColumns+` FROM archived_tabs WHERE id = ?`, id)
		archived, err = scanArchived(row.Scan)
		return err
	})
	return archived, err
}

// deleteFolderIfEmptyTx mirrors internal/workspace's helper of the same
// name; duplicated here (rather than imported) since C3 and C2 must not
// depend on each other's internals, only on the shared store.
func deleteFolderIfEmptyTx(ctx context.Context, tx *sql.Tx, folderID string) error {
	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM pinned_tabs WHERE folder_id = ?`, folderID).Scan(&count); err != nil {
		return err
	}
	if count != 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM tab_folders WHERE id = ?`, folderID)
	return err
}

// RestoreTab restores an archived row into a new active tab within the
// target space: within one transaction, reads the archived row, inserts
// a new active tab with a fresh id, sort_order = max(existing)+1,
// last_accessed_at = now, preserving was_pinned, then deletes the
// archived row, per spec.md §4.3.
func (r *Repository) RestoreTab(ctx context.Context, archiveID, targetSpaceID string) (model.Tab, error) {
	var tab model.Tab
	err := r.db.WithWriteTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+archiveColumns+` FROM archived_tabs WHERE id = ?`, archiveID)
		archived, err := scanArchived(row.Scan)
		if err == sql.ErrNoRows {
			return errNotFound("archived tab", archiveID)
		}
		if err != nil {
			return err
		}

		var maxOrder sql.NullInt64
		if err := tx.QueryRowContext(ctx,
			`SELECT MAX(sort_order) FROM pinned_tabs WHERE space_id = ?`, targetSpaceID,
		).Scan(&maxOrder); err != nil {
			return err
		}
		sortOrder := 0
		if maxOrder.Valid {
			sortOrder = int(maxOrder.Int64) + 1
		}

		id := newID()
		now := nowRFC3339()
		if _, err := tx.ExecContext(ctx, `
INSERT INTO pinned_tabs (
	id, space_id, title, tab_type, content, metadata, database,
	is_pinned, sort_order, last_accessed_at, created_at, updated_at
) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
			id, targetSpaceID, archived.Title, string(archived.Type), nullIfEmpty(archived.Content),
			nullIfEmpty(archived.Metadata), nullIfEmpty(archived.Database), archived.WasPinned,
			sortOrder, now, now, now,
		); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM archived_tabs WHERE id = ?`, archiveID); err != nil {
			return err
		}

		row = tx.QueryRowContext(ctx, `SELECT id, space_id, title, tab_type, content, metadata, database,
			folder_id, is_pinned, sort_order, last_accessed_at, created_at, updated_at
			FROM pinned_tabs WHERE id = ?`, id)
		var (
			folderID                sql.NullString
			content, metadata, database sql.NullString
			tabType                 string
			lastAccessedAt, createdAt, updatedAt string
		)
		if err := row.Scan(&tab.ID, &tab.SpaceID, &tab.Title, &tabType, &content, &metadata, &database,
			&folderID, &tab.IsPinned, &tab.SortOrder, &lastAccessedAt, &createdAt, &updatedAt); err != nil {
			return err
		}
		tab.Type = model.TabType(tabType)
		tab.Content = content.String
		tab.Metadata = metadata.String
		tab.Database = database.String
		tab.LastAccessedAt = parseTime(lastAccessedAt)
		tab.CreatedAt = parseTime(createdAt)
		tab.UpdatedAt = parseTime(updatedAt)
		return nil
	})
	return tab, err
}

// GetArchivedTabs lists archived entries, optionally filtered by
// spaceID, newest first, with limit/offset pagination, per spec.md
// §4.3.
func (r *Repository) GetArchivedTabs(ctx context.Context, spaceID string, limit, offset int) ([]model.ArchivedTab, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows *sql.Rows
	var err error
	if spaceID != "" {
		rows, err = r.db.DB().QueryContext(ctx,
			`SELECT `+archiveColumns+` FROM archived_tabs WHERE space_id = ? ORDER BY archived_at DESC LIMIT ? OFFSET ?`,
			spaceID, limit, offset,
		)
	} else {
		rows, err = r.db.DB().QueryContext(ctx,
			`SELECT `+archiveColumns+` FROM archived_tabs ORDER BY archived_at DESC LIMIT ? OFFSET ?`,
			limit, offset,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.ArchivedTab
	for rows.Next() {
		a, err := scanArchived(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, a)
	}
	return entries, rows.Err()
}

// GetArchivedTabsCount returns the total number of archived rows,
// optionally filtered by spaceID.
func (r *Repository) GetArchivedTabsCount(ctx context.Context, spaceID string) (int, error) {
	var count int
	var err error
	if spaceID != "" {
		err = r.db.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM archived_tabs WHERE space_id = ?`, spaceID).Scan(&count)
	} else {
		err = r.db.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM archived_tabs`).Scan(&count)
	}
	return count, err
}

// DeleteArchivedTab removes one archived row; its FTS mirror follows
// via the delete trigger.
func (r *Repository) DeleteArchivedTab(ctx context.Context, id string) error {
	return r.db.WithWriteTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM archived_tabs WHERE id = ?`, id)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return errNotFound("archived tab", id)
		}
		return nil
	})
}

// CleanupArchive deletes archived rows older than retentionDays, per
// spec.md §4.3 / §6 step 4's history_retention_days sweep. Returns the
// number of rows removed.
func (r *Repository) CleanupArchive(ctx context.Context, retentionDays int) (int, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Format(time.RFC3339)
	var removed int64
	err := r.db.WithWriteTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM archived_tabs WHERE archived_at < ?`, cutoff)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	return int(removed), err
}

// FindInactiveTabs returns tabs whose last_accessed_at is older than
// daysInactive, the scheduler's auto-archive candidate list per spec.md
// §6 step 3.
func (r *Repository) FindInactiveTabs(ctx context.Context, daysInactive int) ([]model.Tab, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -daysInactive).Format(time.RFC3339)
	rows, err := r.db.DB().QueryContext(ctx, `
SELECT id, space_id, title, tab_type, content, metadata, database,
	folder_id, is_pinned, sort_order, last_accessed_at, created_at, updated_at
FROM pinned_tabs WHERE last_accessed_at < ?`, cutoff,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tabs []model.Tab
	for rows.Next() {
		var (
			t                                      model.Tab
			tabType                                string
			content, metadata, database, folderID sql.NullString
			lastAccessedAt, createdAt, updatedAt  string
		)
		if err := rows.Scan(
			&t.ID, &t.SpaceID, &t.Title, &tabType, &content, &metadata, &database,
			&folderID, &t.IsPinned, &t.SortOrder, &lastAccessedAt, &createdAt, &updatedAt,
		); err != nil {
			return nil, err
		}
		t.Type = model.TabType(tabType)
		t.Content = content.String
		t.Metadata = metadata.String
		t.Database = database.String
		if folderID.Valid {
			id := folderID.String
			t.FolderID = &id
		}
		t.LastAccessedAt = parseTime(lastAccessedAt)
		t.CreatedAt = parseTime(createdAt)
		t.UpdatedAt = parseTime(updatedAt)
		tabs = append(tabs, t)
	}
	return tabs, rows.Err()
}
