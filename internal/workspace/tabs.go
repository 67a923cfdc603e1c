package workspace

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dwifuady/larik/internal/model"
)

const tabColumns = `id, space_id, title, tab_type, content, metadata, database,
	folder_id, is_pinned, sort_order, last_accessed_at, created_at, updated_at`

func scanTab(scan func(dest ...any) error) (model.Tab, error) {
	var (
		t                                      model.Tab
		tabType                                string
		content, metadata, database, folderID  sql.NullString
		lastAccessedAt, createdAt, updatedAt    string
	)
	if err := scan(
		&t.ID, &t.SpaceID, &t.Title, &tabType, &content, &metadata, &database,
		&folderID, &t.IsPinned, &t.SortOrder, &lastAccessedAt, &createdAt, &updatedAt,
	); err != nil {
		return model.Tab{}, err
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
	return t, nil
}

// CreateTabInput is the payload for CreateTab; Type defaults to "query".
type CreateTabInput struct {
	SpaceID string
	Title   string
	Type    model.TabType
	Content string
	Database string
}

// CreateTab assigns sort_order = min_existing-1 (prepend), per spec.md
// §4.2.
func (r *Repository) CreateTab(ctx context.Context, in CreateTabInput) (model.Tab, error) {
	tabType := in.Type
	if tabType == "" {
		tabType = model.TabQuery
	}
	var tab model.Tab
	err := r.db.WithWriteTx(ctx, func(tx *sql.Tx) error {
		var minOrder sql.NullInt64
		if err := tx.QueryRowContext(ctx,
			`SELECT MIN(sort_order) FROM pinned_tabs WHERE space_id = ?`, in.SpaceID,
		).Scan(&minOrder); err != nil {
			return fmt.Errorf("read min sort_order: %w", err)
		}
		sortOrder := 1
		if minOrder.Valid {
			sortOrder = int(minOrder.Int64)
		}
		sortOrder--

		id := newID()
		now := nowRFC3339()
		_, err := tx.ExecContext(ctx, `
INSERT INTO pinned_tabs (
	id, space_id, title, tab_type, content, metadata, database,
	is_pinned, sort_order, last_accessed_at, created_at, updated_at
) VALUES (?,?,?,?,?,?,?,0,?,?,?,?)`,
			id, in.SpaceID, in.Title, string(tabType), in.Content, nil, nullIfEmpty(in.Database),
			sortOrder, now, now, now,
		)
		if err != nil {
			return fmt.Errorf("insert tab: %w", err)
		}
		row := tx.QueryRowContext(ctx, `SELECT `+tabColumns+` FROM pinned_tabs WHERE id = ?`, id)
		tab, err = scanTab(row.Scan)
		return err
	})
	return tab, err
}

// GetTab returns one tab by id.
func (r *Repository) GetTab(ctx context.Context, id string) (model.Tab, error) {
	row := r.db.DB().QueryRowContext(ctx, `SELECT `+tabColumns+` FROM pinned_tabs WHERE id = ?`, id)
	tab, err := scanTab(row.Scan)
	if err == sql.ErrNoRows {
		return model.Tab{}, errNotFound("tab", id)
	}
	return tab, err
}

// GetTabsBySpace returns every tab in a space, pinned first, then by
// sort_order.
func (r *Repository) GetTabsBySpace(ctx context.Context, spaceID string) ([]model.Tab, error) {
	rows, err := r.db.DB().QueryContext(ctx,
		`SELECT `+tabColumns+` FROM pinned_tabs WHERE space_id = ? ORDER BY is_pinned DESC, sort_order`, spaceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTabRows(rows)
}

func scanTabRows(rows *sql.Rows) ([]model.Tab, error) {
	var tabs []model.Tab
	for rows.Next() {
		t, err := scanTab(rows.Scan)
		if err != nil {
			return nil, err
		}
		tabs = append(tabs, t)
	}
	return tabs, rows.Err()
}

// UpdateTabInput is a partial update; nil fields are left unchanged.
type UpdateTabInput struct {
	Title     *string
	Content   *string
	Metadata  *string
	Database  *string
	FolderID  **string
	SortOrder *int
}

// UpdateTab applies a partial update to a tab.
func (r *Repository) UpdateTab(ctx context.Context, id string, in UpdateTabInput) (model.Tab, error) {
	err := r.db.WithWriteTx(ctx, func(tx *sql.Tx) error {
		sets := []string{"updated_at = ?"}
		args := []any{nowRFC3339()}

		if in.Title != nil {
			sets = append(sets, "title = ?")
			args = append(args, *in.Title)
		}
		if in.Content != nil {
			sets = append(sets, "content = ?")
			args = append(args, *in.Content)
		}
		if in.Metadata != nil {
			sets = append(sets, "metadata = ?")
			args = append(args, *in.Metadata)
		}
		if in.Database != nil {
			sets = append(sets, "database = ?")
			args = append(args, *in.Database)
		}
		if in.FolderID != nil {
			sets = append(sets, "folder_id = ?")
			args = append(args, *in.FolderID)
		}
		if in.SortOrder != nil {
			sets = append(sets, "sort_order = ?")
			args = append(args, *in.SortOrder)
		}
		args = append(args, id)

		stmt := "UPDATE pinned_tabs SET "
		for i, set := range sets {
			if i > 0 {
				stmt += ", "
			}
			stmt += set
		}
		stmt += " WHERE id = ?"
		res, err := tx.ExecContext(ctx, stmt, args...)
		if err != nil {
			return fmt.Errorf("update tab: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return errNotFound("tab", id)
		}
		return nil
	})
	if err != nil {
		return model.Tab{}, err
	}
	return r.GetTab(ctx, id)
}

// UpdateTabDatabase sets which database within the space connection a
// tab targets.
func (r *Repository) UpdateTabDatabase(ctx context.Context, id, database string) error {
	return r.db.WithWriteTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE pinned_tabs SET database = ?, updated_at = ? WHERE id = ?`,
			nullIfEmpty(database), nowRFC3339(), id,
		)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return errNotFound("tab", id)
		}
		return nil
	})
}

// AutosaveTabContent is a single-column update optimised for frequent
// writes, per spec.md §4.2; it is idempotent.
func (r *Repository) AutosaveTabContent(ctx context.Context, id, content string) error {
	return r.db.WithWriteTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE pinned_tabs SET content = ?, updated_at = ? WHERE id = ?`,
			content, nowRFC3339(), id,
		)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return errNotFound("tab", id)
		}
		return nil
	})
}

// ToggleTabPinned flips is_pinned.
func (r *Repository) ToggleTabPinned(ctx context.Context, id string) (model.Tab, error) {
	err := r.db.WithWriteTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE pinned_tabs SET is_pinned = NOT is_pinned, updated_at = ? WHERE id = ?`,
			nowRFC3339(), id,
		)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return errNotFound("tab", id)
		}
		return nil
	})
	if err != nil {
		return model.Tab{}, err
	}
	return r.GetTab(ctx, id)
}

// DeleteTab removes a tab and, if it was the last tab in its folder,
// deletes the now-empty folder too (delete_folder_if_empty, spec.md
// §4.2).
func (r *Repository) DeleteTab(ctx context.Context, id string) error {
	tab, err := r.GetTab(ctx, id)
	if err != nil {
		return err
	}
	return r.db.WithWriteTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM pinned_tabs WHERE id = ?`, id); err != nil {
			return err
		}
		if tab.FolderID != nil {
			if err := deleteFolderIfEmptyTx(ctx, tx, *tab.FolderID); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReorderTabs rewrites sort_order to the index in tabIDs within spaceID.
func (r *Repository) ReorderTabs(ctx context.Context, spaceID string, tabIDs []string) error {
	return r.db.WithWriteTx(ctx, func(tx *sql.Tx) error {
		for i, id := range tabIDs {
			if _, err := tx.ExecContext(ctx,
				`UPDATE pinned_tabs SET sort_order = ?, updated_at = ? WHERE id = ? AND space_id = ?`,
				i, nowRFC3339(), id, spaceID,
			); err != nil {
				return fmt.Errorf("reorder tab %s: %w", id, err)
			}
		}
		return nil
	})
}

// MoveTabToSpace rewrites space_id and re-homes sort_order to the
// minimum in the target space, per spec.md §4.2.
func (r *Repository) MoveTabToSpace(ctx context.Context, tabID, targetSpaceID string) (model.Tab, error) {
	err := r.db.WithWriteTx(ctx, func(tx *sql.Tx) error {
		var minOrder sql.NullInt64
		if err := tx.QueryRowContext(ctx,
			`SELECT MIN(sort_order) FROM pinned_tabs WHERE space_id = ?`, targetSpaceID,
		).Scan(&minOrder); err != nil {
			return err
		}
		sortOrder := 1
		if minOrder.Valid {
			sortOrder = int(minOrder.Int64)
		}
		sortOrder--

		res, err := tx.ExecContext(ctx,
			`UPDATE pinned_tabs SET space_id = ?, sort_order = ?, updated_at = ? WHERE id = ?`,
			targetSpaceID, sortOrder, nowRFC3339(), tabID,
		)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return errNotFound("tab", tabID)
		}
		return nil
	})
	if err != nil {
		return model.Tab{}, err
	}
	return r.GetTab(ctx, tabID)
}

// SearchTabs is a case-insensitive LIKE search over title and content,
// ordered by updated_at desc, capped at 50 rows, per spec.md §4.2.
func (r *Repository) SearchTabs(ctx context.Context, query string) ([]model.Tab, error) {
	like := "%" + query + "%"
	rows, err := r.db.DB().QueryContext(ctx,
		`SELECT `+tabColumns+` FROM pinned_tabs
		 WHERE title LIKE ? COLLATE NOCASE OR content LIKE ? COLLATE NOCASE
		 ORDER BY updated_at DESC LIMIT 50`,
		like, like,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTabRows(rows)
}

// TouchTab sets last_accessed_at = now.
func (r *Repository) TouchTab(ctx context.Context, id string) error {
	return r.db.WithWriteTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE pinned_tabs SET last_accessed_at = ? WHERE id = ?`, nowRFC3339(), id,
		)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return errNotFound("tab", id)
		}
		return nil
	})
}
