package archive

import (
	"context"
	"database/sql"
	"regexp"
	"strings"

	"github.com/dwifuady/larik/internal/model"
)

const archiveColumnsAliased = `a.id, a.original_tab_id, a.space_id, a.space_name, a.title, a.tab_type,
	a.content, a.metadata, a.database, a.was_pinned, a.created_at, a.updated_at, a.last_accessed_at, a.archived_at`

// reservedFTSOperators are SQLite FTS5's bareword boolean operators;
// a search term matching one literally must be quoted so FTS treats it
// as a string rather than an operator, per spec.md §4.3.
var reservedFTSOperators = map[string]bool{
	"AND": true, "OR": true, "NOT": true, "NEAR": true,
}

var nonTermChar = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

// sanitizeFTSQuery turns free text into an FTS5 MATCH expression: split
// on whitespace, keep only alphanumeric/underscore per term, quote any
// reserved boolean operator, append a prefix wildcard to each term,
// then AND them. Returns "" if nothing survives, per spec.md §4.3.
func sanitizeFTSQuery(query string) string {
	fields := strings.Fields(query)
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		cleaned := nonTermChar.ReplaceAllString(f, "")
		if cleaned == "" {
			continue
		}
		if reservedFTSOperators[strings.ToUpper(cleaned)] {
			terms = append(terms, `"`+cleaned+`"*`)
		} else {
			terms = append(terms, cleaned+"*")
		}
	}
	return strings.Join(terms, " AND ")
}

// SearchArchivedTabs searches the archive for query, optionally scoped
// to spaceID, returning up to limit hits (default 50). It attempts FTS
// first and falls back to a case-insensitive LIKE scan on any FTS
// error, per spec.md §4.3.
func (r *Repository) SearchArchivedTabs(ctx context.Context, query, spaceID string, limit int) ([]model.ArchiveSearchHit, error) {
	if limit <= 0 {
		limit = 50
	}

	ftsQuery := sanitizeFTSQuery(query)
	if ftsQuery != "" {
		hits, err := r.searchFTS(ctx, ftsQuery, spaceID, limit)
		if err == nil {
			return hits, nil
		}
		r.log.Warn().Err(err).Msg("archive FTS search failed, falling back to LIKE")
	}
	return r.searchLike(ctx, query, spaceID, limit)
}

func (r *Repository) searchFTS(ctx context.Context, ftsQuery, spaceID string, limit int) ([]model.ArchiveSearchHit, error) {
	stmt := `
SELECT ` + archiveColumnsAliased + `,
	fts.rank,
	snippet(archived_tabs_fts, 0, '<mark>', '</mark>', '…', 32) AS title_snippet,
	snippet(archived_tabs_fts, 1, '<mark>', '</mark>', '…', 64) AS content_snippet
FROM archived_tabs_fts fts
JOIN archived_tabs a ON a.rowid = fts.rowid
WHERE archived_tabs_fts MATCH ?`
	args := []any{ftsQuery}
	if spaceID != "" {
		stmt += " AND a.space_id = ?"
		args = append(args, spaceID)
	}
	stmt += " ORDER BY fts.rank LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.DB().QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []model.ArchiveSearchHit
	for rows.Next() {
		var (
			a                            model.ArchivedTab
			spaceIDVal                   sql.NullString
			tabType                      string
			content, metadata, database  sql.NullString
			createdAt, updatedAt, lastAccessedAt, archivedAt string
			rank                         float64
			titleSnippet, contentSnippet string
		)
		if err := rows.Scan(
			&a.ID, &a.OriginalTabID, &spaceIDVal, &a.SpaceName, &a.Title, &tabType,
			&content, &metadata, &database, &a.WasPinned,
			&createdAt, &updatedAt, &lastAccessedAt, &archivedAt,
			&rank, &titleSnippet, &contentSnippet,
		); err != nil {
			return nil, err
		}
		if spaceIDVal.Valid {
			id := spaceIDVal.String
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

		hits = append(hits, model.ArchiveSearchHit{
			Entry:          a,
			Rank:           &rank,
			TitleSnippet:   titleSnippet,
			ContentSnippet: contentSnippet,
		})
	}
	return hits, rows.Err()
}

// searchLike is the fallback path: strip %/_ from the query, wrap in
// %...%, order by archived_at desc, no rank, plain title/content as
// snippets, per spec.md §4.3.
func (r *Repository) searchLike(ctx context.Context, query, spaceID string, limit int) ([]model.ArchiveSearchHit, error) {
	stripped := strings.NewReplacer("%", "", "_", "").Replace(query)
	like := "%" + stripped + "%"

	stmt := `SELECT ` + archiveColumns + ` FROM archived_tabs
		WHERE (title LIKE ? COLLATE NOCASE OR content LIKE ? COLLATE NOCASE)`
	args := []any{like, like}
	if spaceID != "" {
		stmt += " AND space_id = ?"
		args = append(args, spaceID)
	}
	stmt += " ORDER BY archived_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.DB().QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []model.ArchiveSearchHit
	for rows.Next() {
		a, err := scanArchived(rows.Scan)
		if err != nil {
			return nil, err
		}
		hits = append(hits, model.ArchiveSearchHit{
			Entry:          a,
			TitleSnippet:   a.Title,
			ContentSnippet: a.Content,
		})
	}
	return hits, rows.Err()
}
