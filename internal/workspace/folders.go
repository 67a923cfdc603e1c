package workspace

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dwifuady/larik/internal/model"
)

const folderColumns = `id, space_id, name, is_expanded, sort_order, created_at, updated_at`

func scanFolder(scan func(dest ...any) error) (model.Folder, error) {
	var f model.Folder
	var createdAt, updatedAt string
	if err := scan(&f.ID, &f.SpaceID, &f.Name, &f.IsExpanded, &f.SortOrder, &createdAt, &updatedAt); err != nil {
		return model.Folder{}, err
	}
	f.CreatedAt = parseTime(createdAt)
	f.UpdatedAt = parseTime(updatedAt)
	return f, nil
}

// CreateFolderInput is the payload for CreateFolder.
type CreateFolderInput struct {
	SpaceID string
	Name    string
}

// CreateFolder prepends the folder (sort_order = min-1), initially
// expanded, per spec.md §4.2.
func (r *Repository) CreateFolder(ctx context.Context, in CreateFolderInput) (model.Folder, error) {
	return r.createFolderTx(ctx, nil, in)
}

// createFolderTx creates a folder using tx if non-nil, else its own
// write session; CreateFolderFromTabs reuses this to stay inside one
// transaction.
func (r *Repository) createFolderTx(ctx context.Context, outerTx *sql.Tx, in CreateFolderInput) (model.Folder, error) {
	run := func(tx *sql.Tx) (model.Folder, error) {
		var minOrder sql.NullInt64
		if err := tx.QueryRowContext(ctx,
			`SELECT MIN(sort_order) FROM tab_folders WHERE space_id = ?`, in.SpaceID,
		).Scan(&minOrder); err != nil {
			return model.Folder{}, err
		}
		sortOrder := 1
		if minOrder.Valid {
			sortOrder = int(minOrder.Int64)
		}
		sortOrder--

		id := newID()
		now := nowRFC3339()
		if _, err := tx.ExecContext(ctx, `
INSERT INTO tab_folders (id, space_id, name, is_expanded, sort_order, created_at, updated_at)
VALUES (?,?,?,1,?,?,?)`,
			id, in.SpaceID, in.Name, sortOrder, now, now,
		); err != nil {
			return model.Folder{}, fmt.Errorf("insert folder: %w", err)
		}

		row := tx.QueryRowContext(ctx, `SELECT `+folderColumns+` FROM tab_folders WHERE id = ?`, id)
		return scanFolder(row.Scan)
	}

	if outerTx != nil {
		return run(outerTx)
	}
	var folder model.Folder
	err := r.db.WithWriteTx(ctx, func(tx *sql.Tx) error {
		f, err := run(tx)
		folder = f
		return err
	})
	return folder, err
}

// GetFoldersBySpace returns every folder in a space, ordered by
// sort_order.
func (r *Repository) GetFoldersBySpace(ctx context.Context, spaceID string) ([]model.Folder, error) {
	rows, err := r.db.DB().QueryContext(ctx,
		`SELECT `+folderColumns+` FROM tab_folders WHERE space_id = ? ORDER BY sort_order`, spaceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var folders []model.Folder
	for rows.Next() {
		f, err := scanFolder(rows.Scan)
		if err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// UpdateFolderInput is a partial update; nil fields are left unchanged.
type UpdateFolderInput struct {
	Name       *string
	IsExpanded *bool
	SortOrder  *int
}

// UpdateFolder applies a partial update to a folder.
func (r *Repository) UpdateFolder(ctx context.Context, id string, in UpdateFolderInput) (model.Folder, error) {
	err := r.db.WithWriteTx(ctx, func(tx *sql.Tx) error {
		sets := []string{"updated_at = ?"}
		args := []any{nowRFC3339()}
		if in.Name != nil {
			sets = append(sets, "name = ?")
			args = append(args, *in.Name)
		}
		if in.IsExpanded != nil {
			sets = append(sets, "is_expanded = ?")
			args = append(args, *in.IsExpanded)
		}
		if in.SortOrder != nil {
			sets = append(sets, "sort_order = ?")
			args = append(args, *in.SortOrder)
		}
		args = append(args, id)

		stmt := "UPDATE tab_folders SET "
		for i, set := range sets {
			if i > 0 {
				stmt += ", "
			}
			stmt += set
		}
		stmt += " WHERE id = ?"
		res, err := tx.ExecContext(ctx, stmt, args...)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return errNotFound("folder", id)
		}
		return nil
	})
	if err != nil {
		return model.Folder{}, err
	}
	row := r.db.DB().QueryRowContext(ctx, `SELECT `+folderColumns+` FROM tab_folders WHERE id = ?`, id)
	return scanFolder(row.Scan)
}

// DeleteFolder detaches every contained tab (folder_id set to NULL) and
// removes the folder. The detached tabs stay in the space as ordinary
// tabs: neither this method nor the delete_folder command archives
// them.
func (r *Repository) DeleteFolder(ctx context.Context, id string) error {
	return r.db.WithWriteTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE pinned_tabs SET folder_id = NULL WHERE folder_id = ?`, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM tab_folders WHERE id = ?`, id)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return errNotFound("folder", id)
		}
		return nil
	})
}

// AddTabToFolder sets folder_id and forces is_pinned = true, per
// spec.md §4.2.
func (r *Repository) AddTabToFolder(ctx context.Context, tabID, folderID string) error {
	return r.db.WithWriteTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE pinned_tabs SET folder_id = ?, is_pinned = 1, updated_at = ? WHERE id = ?`,
			folderID, nowRFC3339(), tabID,
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
}

// RemoveTabFromFolder clears folder_id and, if the folder becomes
// empty, deletes it.
func (r *Repository) RemoveTabFromFolder(ctx context.Context, tabID string) error {
	var folderID sql.NullString
	if err := r.db.DB().QueryRowContext(ctx,
		`SELECT folder_id FROM pinned_tabs WHERE id = ?`, tabID,
	).Scan(&folderID); err != nil {
		if err == sql.ErrNoRows {
			return errNotFound("tab", tabID)
		}
		return err
	}

	return r.db.WithWriteTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE pinned_tabs SET folder_id = NULL, updated_at = ? WHERE id = ?`, nowRFC3339(), tabID,
		); err != nil {
			return err
		}
		if folderID.Valid {
			return deleteFolderIfEmptyTx(ctx, tx, folderID.String)
		}
		return nil
	})
}

// DeleteFolderIfEmpty deletes folderID only if it has no contained
// tabs, used by tab deletion and removal paths per spec.md §4.2.
func (r *Repository) DeleteFolderIfEmpty(ctx context.Context, folderID string) (bool, error) {
	var deleted bool
	err := r.db.WithWriteTx(ctx, func(tx *sql.Tx) error {
		var err error
		deleted, err = deleteFolderIfEmptyTxReport(ctx, tx, folderID)
		return err
	})
	return deleted, err
}

func deleteFolderIfEmptyTx(ctx context.Context, tx *sql.Tx, folderID string) error {
	_, err := deleteFolderIfEmptyTxReport(ctx, tx, folderID)
	return err
}

func deleteFolderIfEmptyTxReport(ctx context.Context, tx *sql.Tx, folderID string) (bool, error) {
	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pinned_tabs WHERE folder_id = ?`, folderID,
	).Scan(&count); err != nil {
		return false, err
	}
	if count != 0 {
		return false, nil
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tab_folders WHERE id = ?`, folderID); err != nil {
		return false, err
	}
	return true, nil
}

// ReorderFolders rewrites sort_order to the index in folderIDs within
// spaceID.
func (r *Repository) ReorderFolders(ctx context.Context, spaceID string, folderIDs []string) error {
	return r.db.WithWriteTx(ctx, func(tx *sql.Tx) error {
		for i, id := range folderIDs {
			if _, err := tx.ExecContext(ctx,
				`UPDATE tab_folders SET sort_order = ?, updated_at = ? WHERE id = ? AND space_id = ?`,
				i, nowRFC3339(), id, spaceID,
			); err != nil {
				return fmt.Errorf("reorder folder %s: %w", id, err)
			}
		}
		return nil
	})
}

// CreateFolderFromTabs creates a folder and adds the named tabs to it
// atomically: the folder exists only if every contained tab update
// succeeds, per spec.md §4.2.
func (r *Repository) CreateFolderFromTabs(ctx context.Context, spaceID, name string, tabIDs []string) (model.Folder, error) {
	var folder model.Folder
	err := r.db.WithWriteTx(ctx, func(tx *sql.Tx) error {
		f, err := r.createFolderTx(ctx, tx, CreateFolderInput{SpaceID: spaceID, Name: name})
		if err != nil {
			return err
		}
		folder = f
		for _, tabID := range tabIDs {
			res, err := tx.ExecContext(ctx,
				`UPDATE pinned_tabs SET folder_id = ?, is_pinned = 1, updated_at = ? WHERE id = ?`,
				folder.ID, nowRFC3339(), tabID,
			)
			if err != nil {
				return fmt.Errorf("add tab %s to folder: %w", tabID, err)
			}
			n, _ := res.RowsAffected()
			if n == 0 {
				return errNotFound("tab", tabID)
			}
		}
		return nil
	})
	if err != nil {
		return model.Folder{}, err
	}
	return folder, nil
}
