package workspace

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dwifuady/larik/internal/driver"
	"github.com/dwifuady/larik/internal/model"
)

//go:embed builtin_snippets.json
var builtinSnippetsJSON []byte

// builtinSnippet is one entry of the embedded starter catalog, grounded
// on the original implementation's get_builtin_snippets (src-tauri/src/
// storage/snippets.rs), carried over verbatim as trigger/name/content/
// description/category.
type builtinSnippet struct {
	Trigger     string `json:"trigger"`
	Name        string `json:"name"`
	Content     string `json:"content"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

func builtinSnippets() ([]builtinSnippet, error) {
	var snippets []builtinSnippet
	if err := json.Unmarshal(builtinSnippetsJSON, &snippets); err != nil {
		return nil, fmt.Errorf("parse embedded builtin snippet catalog: %w", err)
	}
	return snippets, nil
}

const snippetColumns = `id, trigger, name, content, description, category, is_builtin, enabled, created_at, updated_at`

func scanSnippet(scan func(dest ...any) error) (model.Snippet, error) {
	var (
		s                          model.Snippet
		description, category      sql.NullString
		createdAt, updatedAt       string
	)
	if err := scan(
		&s.ID, &s.Trigger, &s.Name, &s.Content, &description, &category,
		&s.IsBuiltin, &s.Enabled, &createdAt, &updatedAt,
	); err != nil {
		return model.Snippet{}, err
	}
	s.Description = description.String
	s.Category = category.String
	s.CreatedAt = parseTime(createdAt)
	s.UpdatedAt = parseTime(updatedAt)
	return s, nil
}

// SeedBuiltinSnippets inserts the embedded starter catalog on first run:
// each builtin trigger is inserted only if no builtin snippet with that
// trigger already exists, mirroring seed_builtin_snippets in the
// original implementation. It is safe to call on every startup.
func (r *Repository) SeedBuiltinSnippets(ctx context.Context) (int, error) {
	catalog, err := builtinSnippets()
	if err != nil {
		return 0, err
	}

	inserted := 0
	err = r.db.WithWriteTx(ctx, func(tx *sql.Tx) error {
		for _, b := range catalog {
			var exists bool
			if err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) > 0 FROM snippets WHERE trigger = ? AND is_builtin = 1`, b.Trigger,
			).Scan(&exists); err != nil {
				return fmt.Errorf("check existing builtin %s: %w", b.Trigger, err)
			}
			if exists {
				continue
			}
			id := newID()
			now := nowRFC3339()
			if _, err := tx.ExecContext(ctx, `
INSERT INTO snippets (id, trigger, name, content, description, category, is_builtin, enabled, created_at, updated_at)
VALUES (?,?,?,?,?,?,1,1,?,?)`,
				id, b.Trigger, b.Name, b.Content, nullIfEmpty(b.Description), nullIfEmpty(b.Category), now, now,
			); err != nil {
				return fmt.Errorf("insert builtin %s: %w", b.Trigger, err)
			}
			inserted++
		}
		return nil
	})
	return inserted, err
}

// CreateSnippetInput is the payload for CreateSnippet. New snippets are
// never built-in.
type CreateSnippetInput struct {
	Trigger     string
	Name        string
	Content     string
	Description string
	Category    string
}

// CreateSnippet inserts a user-defined (non-builtin) snippet.
func (r *Repository) CreateSnippet(ctx context.Context, in CreateSnippetInput) (model.Snippet, error) {
	var snippet model.Snippet
	err := r.db.WithWriteTx(ctx, func(tx *sql.Tx) error {
		id := newID()
		now := nowRFC3339()
		_, err := tx.ExecContext(ctx, `
INSERT INTO snippets (id, trigger, name, content, description, category, is_builtin, enabled, created_at, updated_at)
VALUES (?,?,?,?,?,?,0,1,?,?)`,
			id, in.Trigger, in.Name, in.Content, nullIfEmpty(in.Description), nullIfEmpty(in.Category), now, now,
		)
		if err != nil {
			return fmt.Errorf("insert snippet: %w", err)
		}
		row := tx.QueryRowContext(ctx, `SELECT `+snippetColumns+` FROM snippets WHERE id = ?`, id)
		snippet, err = scanSnippet(row.Scan)
		return err
	})
	return snippet, err
}

// GetSnippets returns every snippet.
func (r *Repository) GetSnippets(ctx context.Context) ([]model.Snippet, error) {
	return r.querySnippets(ctx, `SELECT `+snippetColumns+` FROM snippets ORDER BY category, name`)
}

// GetEnabledSnippets returns only enabled snippets.
func (r *Repository) GetEnabledSnippets(ctx context.Context) ([]model.Snippet, error) {
	return r.querySnippets(ctx, `SELECT `+snippetColumns+` FROM snippets WHERE enabled = 1 ORDER BY category, name`)
}

func (r *Repository) querySnippets(ctx context.Context, query string, args ...any) ([]model.Snippet, error) {
	rows, err := r.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snippets []model.Snippet
	for rows.Next() {
		s, err := scanSnippet(rows.Scan)
		if err != nil {
			return nil, err
		}
		snippets = append(snippets, s)
	}
	return snippets, rows.Err()
}

// GetSnippet returns one snippet by id.
func (r *Repository) GetSnippet(ctx context.Context, id string) (model.Snippet, error) {
	row := r.db.DB().QueryRowContext(ctx, `SELECT `+snippetColumns+` FROM snippets WHERE id = ?`, id)
	s, err := scanSnippet(row.Scan)
	if err == sql.ErrNoRows {
		return model.Snippet{}, errNotFound("snippet", id)
	}
	return s, err
}

// GetSnippetByTrigger returns only an enabled snippet matching trigger,
// per spec.md §4.2.
func (r *Repository) GetSnippetByTrigger(ctx context.Context, trigger string) (model.Snippet, error) {
	row := r.db.DB().QueryRowContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets WHERE trigger = ? AND enabled = 1`, trigger,
	)
	s, err := scanSnippet(row.Scan)
	if err == sql.ErrNoRows {
		return model.Snippet{}, errNotFound("snippet", trigger)
	}
	return s, err
}

// UpdateSnippetInput is a partial update; nil fields are left unchanged.
type UpdateSnippetInput struct {
	Trigger     *string
	Name        *string
	Content     *string
	Description *string
	Category    *string
	Enabled     *bool
}

// UpdateSnippet applies a partial update to any snippet, builtin or not
// (only delete and reset distinguish builtins, per spec.md §4.2).
func (r *Repository) UpdateSnippet(ctx context.Context, id string, in UpdateSnippetInput) (model.Snippet, error) {
	err := r.db.WithWriteTx(ctx, func(tx *sql.Tx) error {
		sets := []string{"updated_at = ?"}
		args := []any{nowRFC3339()}
		if in.Trigger != nil {
			sets = append(sets, "trigger = ?")
			args = append(args, *in.Trigger)
		}
		if in.Name != nil {
			sets = append(sets, "name = ?")
			args = append(args, *in.Name)
		}
		if in.Content != nil {
			sets = append(sets, "content = ?")
			args = append(args, *in.Content)
		}
		if in.Description != nil {
			sets = append(sets, "description = ?")
			args = append(args, *in.Description)
		}
		if in.Category != nil {
			sets = append(sets, "category = ?")
			args = append(args, *in.Category)
		}
		if in.Enabled != nil {
			sets = append(sets, "enabled = ?")
			args = append(args, *in.Enabled)
		}
		args = append(args, id)

		stmt := "UPDATE snippets SET "
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
			return errNotFound("snippet", id)
		}
		return nil
	})
	if err != nil {
		return model.Snippet{}, err
	}
	return r.GetSnippet(ctx, id)
}

// DeleteSnippet refuses to delete built-ins, per spec.md §4.2, returning
// false rather than an error so the caller can show a friendly message.
func (r *Repository) DeleteSnippet(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := r.db.WithWriteTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM snippets WHERE id = ? AND is_builtin = 0`, id)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		deleted = n > 0
		return nil
	})
	return deleted, err
}

// ResetBuiltinSnippet restores a builtin snippet's content/name/
// description/category to the factory catalog entry matching its
// trigger, refusing non-builtin ids.
func (r *Repository) ResetBuiltinSnippet(ctx context.Context, id string) (model.Snippet, error) {
	existing, err := r.GetSnippet(ctx, id)
	if err != nil {
		return model.Snippet{}, err
	}
	if !existing.IsBuiltin {
		return model.Snippet{}, driver.New(driver.KindInvalidConfig, "snippet is not a builtin: "+id, nil)
	}

	catalog, err := builtinSnippets()
	if err != nil {
		return model.Snippet{}, err
	}
	var factory *builtinSnippet
	for i := range catalog {
		if catalog[i].Trigger == existing.Trigger {
			factory = &catalog[i]
			break
		}
	}
	if factory == nil {
		return model.Snippet{}, driver.New(driver.KindInvalidConfig, "no factory catalog entry for trigger "+existing.Trigger, nil)
	}

	return r.UpdateSnippet(ctx, id, UpdateSnippetInput{
		Name:        &factory.Name,
		Content:     &factory.Content,
		Description: &factory.Description,
		Category:    &factory.Category,
	})
}

// ImportSnippets inserts only the triggers not already present, per
// spec.md §4.2, and returns how many were inserted.
func (r *Repository) ImportSnippets(ctx context.Context, inputs []CreateSnippetInput) (int, error) {
	inserted := 0
	err := r.db.WithWriteTx(ctx, func(tx *sql.Tx) error {
		for _, in := range inputs {
			var exists bool
			if err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) > 0 FROM snippets WHERE trigger = ?`, in.Trigger,
			).Scan(&exists); err != nil {
				return fmt.Errorf("check existing trigger %s: %w", in.Trigger, err)
			}
			if exists {
				continue
			}
			id := newID()
			now := nowRFC3339()
			if _, err := tx.ExecContext(ctx, `
INSERT INTO snippets (id, trigger, name, content, description, category, is_builtin, enabled, created_at, updated_at)
VALUES (?,?,?,?,?,?,0,1,?,?)`,
				id, in.Trigger, in.Name, in.Content, nullIfEmpty(in.Description), nullIfEmpty(in.Category), now, now,
			); err != nil {
				return fmt.Errorf("insert imported snippet %s: %w", in.Trigger, err)
			}
			inserted++
		}
		return nil
	})
	return inserted, err
}

var placeholderPattern = regexp.MustCompile(`\$\{(\d+)(?::[^}]*)?\}|\$\{cursor\}`)

// ExpandSnippet substitutes a snippet's positional placeholders
// (${1}, ${1:default}, ...) with the supplied values (1-indexed) and
// drops the ${cursor} marker, returning the expanded text and the
// caret offset where ${cursor} was found (or len(result) if absent).
// Not named in spec.md as an explicit command, but required for
// get_snippet_by_trigger to be useful per SPEC_FULL.md §6.
func ExpandSnippet(content string, values map[int]string) (text string, cursorOffset int) {
	cursorOffset = -1
	var out strings.Builder
	last := 0
	for _, loc := range placeholderPattern.FindAllStringSubmatchIndex(content, -1) {
		out.WriteString(content[last:loc[0]])
		if loc[2] == -1 {
			// ${cursor}
			cursorOffset = out.Len()
		} else {
			idx, _ := strconv.Atoi(content[loc[2]:loc[3]])
			if v, ok := values[idx]; ok {
				out.WriteString(v)
			} else if def := defaultValue(content[loc[0]:loc[1]]); def != "" {
				out.WriteString(def)
			}
		}
		last = loc[1]
	}
	out.WriteString(content[last:])
	text = out.String()
	if cursorOffset == -1 {
		cursorOffset = len(text)
	}
	return text, cursorOffset
}

// defaultValue extracts the "default" part of a ${N:default} placeholder
// token, or "" if there is none.
func defaultValue(token string) string {
	i := strings.IndexByte(token, ':')
	if i == -1 {
		return ""
	}
	return strings.TrimSuffix(token[i+1:], "}")
}
