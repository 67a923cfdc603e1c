package workspace

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dwifuady/larik/internal/model"
)

const spaceColumns = `id, name, color, icon, connection_id, connection_name,
	connection_host, connection_port, connection_database, connection_username,
	connection_password, database_type, mssql_trust_cert, mssql_encrypt,
	postgres_sslmode, mysql_ssl_enabled, last_active_tab_id, sort_order,
	created_at, updated_at`

func scanSpace(scan func(dest ...any) error) (model.Space, error) {
	var (
		s                                                                   model.Space
		color, icon, lastActiveTabID                                        sql.NullString
		connID, connName, connHost, connDatabase, connUsername, connPass    sql.NullString
		connPort                                                            sql.NullInt64
		dialect, postgresSSLMode                                            sql.NullString
		mssqlTrustCert, mssqlEncrypt, mysqlSSL                              bool
		createdAt, updatedAt                                                string
	)
	if err := scan(
		&s.ID, &s.Name, &color, &icon, &connID, &connName,
		&connHost, &connPort, &connDatabase, &connUsername,
		&connPass, &dialect, &mssqlTrustCert, &mssqlEncrypt,
		&postgresSSLMode, &mysqlSSL, &lastActiveTabID, &s.SortOrder,
		&createdAt, &updatedAt,
	); err != nil {
		return model.Space{}, err
	}

	s.Color = color.String
	s.Icon = icon.String
	if lastActiveTabID.Valid {
		id := lastActiveTabID.String
		s.LastActiveTabID = &id
	}
	s.CreatedAt = parseTime(createdAt)
	s.UpdatedAt = parseTime(updatedAt)

	if connID.Valid && dialect.Valid {
		spaceID := s.ID
		s.Connection = &model.ConnectionConfig{
			ID:             connID.String,
			SpaceID:        &spaceID,
			Name:           connName.String,
			Dialect:        model.Dialect(dialect.String),
			Host:           connHost.String,
			Port:           int(connPort.Int64),
			Database:       connDatabase.String,
			Username:       connUsername.String,
			Password:       connPass.String,
			MSSQLTrustCert: mssqlTrustCert,
			MSSQLEncrypt:   mssqlEncrypt,
			PostgresSSL:    model.PostgresSSLMode(postgresSSLMode.String),
			MySQLSSL:       mysqlSSL,
		}
	}
	return s, nil
}

// CreateSpaceInput is the payload for CreateSpace.
type CreateSpaceInput struct {
	Name       string
	Color      string
	Icon       string
	Connection *model.ConnectionConfig
}

// CreateSpace assigns a fresh id and next sort_order (current max+1), per
// spec.md §4.2.
func (r *Repository) CreateSpace(ctx context.Context, in CreateSpaceInput) (model.Space, error) {
	var space model.Space
	err := r.db.WithWriteTx(ctx, func(tx *sql.Tx) error {
		var maxOrder sql.NullInt64
		if err := tx.QueryRowContext(ctx, `SELECT MAX(sort_order) FROM spaces`).Scan(&maxOrder); err != nil {
			return fmt.Errorf("read max sort_order: %w", err)
		}
		sortOrder := 0
		if maxOrder.Valid {
			sortOrder = int(maxOrder.Int64) + 1
		}

		id := newID()
		now := nowRFC3339()

		var connID, connName, connHost, connDatabase, connUsername, connPass, dialect, postgresSSL sql.NullString
		var connPort sql.NullInt64
		var mssqlTrustCert, mssqlEncrypt, mysqlSSL bool
		if in.Connection != nil {
			c := in.Connection
			if c.ID == "" {
				c.ID = newID()
			}
			connID = sql.NullString{String: c.ID, Valid: true}
			connName = sql.NullString{String: c.Name, Valid: true}
			connHost = sql.NullString{String: c.Host, Valid: c.Host != ""}
			connPort = sql.NullInt64{Int64: int64(c.Port), Valid: c.Port != 0}
			connDatabase = sql.NullString{String: c.Database, Valid: true}
			connUsername = sql.NullString{String: c.Username, Valid: c.Username != ""}
			connPass = sql.NullString{String: c.Password, Valid: true}
			dialect = sql.NullString{String: string(c.Dialect), Valid: true}
			postgresSSL = sql.NullString{String: string(c.PostgresSSL), Valid: c.PostgresSSL != ""}
			mssqlTrustCert = c.MSSQLTrustCert
			mssqlEncrypt = c.MSSQLEncrypt
			mysqlSSL = c.MySQLSSL
		}

		_, err := tx.ExecContext(ctx, `
INSERT INTO spaces (
	id, name, color, icon, connection_id, connection_name,
	connection_host, connection_port, connection_database, connection_username,
	connection_password, database_type, mssql_trust_cert, mssql_encrypt,
	postgres_sslmode, mysql_ssl_enabled, last_active_tab_id, sort_order,
	created_at, updated_at
) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			id, in.Name, nullIfEmpty(in.Color), nullIfEmpty(in.Icon),
			connID, connName, connHost, connPort, connDatabase, connUsername,
			connPass, dialect, mssqlTrustCert, mssqlEncrypt,
			postgresSSL, mysqlSSL, nil, sortOrder, now, now,
		)
		if err != nil {
			return fmt.Errorf("insert space: %w", err)
		}

		row := tx.QueryRowContext(ctx, `SELECT `+spaceColumns+` FROM spaces WHERE id = ?`, id)
		space, err = scanSpace(row.Scan)
		return err
	})
	if err != nil {
		return model.Space{}, err
	}
	return spaceRedacted(space), nil
}

// spaceRedacted strips the password from a Space's embedded connection, the
// shape every caller outside get_space_password must receive.
func spaceRedacted(s model.Space) model.Space {
	if s.Connection != nil {
		redacted := s.Connection.Redacted()
		s.Connection = &redacted
	}
	return s
}

// GetSpace returns one space by id.
func (r *Repository) GetSpace(ctx context.Context, id string) (model.Space, error) {
	row := r.db.DB().QueryRowContext(ctx, `SELECT `+spaceColumns+` FROM spaces WHERE id = ?`, id)
	space, err := scanSpace(row.Scan)
	if err == sql.ErrNoRows {
		return model.Space{}, errNotFound("space", id)
	}
	if err != nil {
		return model.Space{}, err
	}
	return spaceRedacted(space), nil
}

// GetSpaces returns all spaces ordered by sort_order.
func (r *Repository) GetSpaces(ctx context.Context) ([]model.Space, error) {
	rows, err := r.db.DB().QueryContext(ctx, `SELECT `+spaceColumns+` FROM spaces ORDER BY sort_order`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spaces []model.Space
	for rows.Next() {
		s, err := scanSpace(rows.Scan)
		if err != nil {
			return nil, err
		}
		spaces = append(spaces, spaceRedacted(s))
	}
	return spaces, rows.Err()
}

// UpdateSpaceInput is a partial update; nil fields are left unchanged.
type UpdateSpaceInput struct {
	Name       *string
	Color      *string
	Icon       *string
	Connection *model.ConnectionConfig
	SortOrder  *int
}

// UpdateSpace applies a partial update. Per spec.md §4.2, a change to
// connection fields does not itself reach out to C6 — the caller is
// responsible for re-registering the connection there.
func (r *Repository) UpdateSpace(ctx context.Context, id string, in UpdateSpaceInput) (model.Space, error) {
	err := r.db.WithWriteTx(ctx, func(tx *sql.Tx) error {
		sets := []string{"updated_at = ?"}
		args := []any{nowRFC3339()}

		if in.Name != nil {
			sets = append(sets, "name = ?")
			args = append(args, *in.Name)
		}
		if in.Color != nil {
			sets = append(sets, "color = ?")
			args = append(args, *in.Color)
		}
		if in.Icon != nil {
			sets = append(sets, "icon = ?")
			args = append(args, *in.Icon)
		}
		if in.SortOrder != nil {
			sets = append(sets, "sort_order = ?")
			args = append(args, *in.SortOrder)
		}
		if c := in.Connection; c != nil {
			if c.ID == "" {
				c.ID = newID()
			}
			sets = append(sets,
				"connection_id = ?", "connection_name = ?", "connection_host = ?",
				"connection_port = ?", "connection_database = ?", "connection_username = ?",
				"connection_password = ?", "database_type = ?", "mssql_trust_cert = ?",
				"mssql_encrypt = ?", "postgres_sslmode = ?", "mysql_ssl_enabled = ?",
			)
			args = append(args,
				c.ID, c.Name, nullIfEmpty(c.Host), nullZeroInt(c.Port), c.Database,
				nullIfEmpty(c.Username), c.Password, string(c.Dialect), c.MSSQLTrustCert,
				c.MSSQLEncrypt, string(c.PostgresSSL), c.MySQLSSL,
			)
		}

		args = append(args, id)
		stmt := "UPDATE spaces SET "
		for i, set := range sets {
			if i > 0 {
				stmt += ", "
			}
			stmt += set
		}
		stmt += " WHERE id = ?"

		res, err := tx.ExecContext(ctx, stmt, args...)
		if err != nil {
			return fmt.Errorf("update space: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return errNotFound("space", id)
		}
		return nil
	})
	if err != nil {
		return model.Space{}, err
	}
	return r.GetSpace(ctx, id)
}

// UpdateSpaceLastActiveTab records which tab was last focused in a space.
func (r *Repository) UpdateSpaceLastActiveTab(ctx context.Context, spaceID string, tabID *string) error {
	return r.db.WithWriteTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE spaces SET last_active_tab_id = ?, updated_at = ? WHERE id = ?`,
			tabID, nowRFC3339(), spaceID,
		)
		return err
	})
}

// GetSpacePassword is the sole accessor that returns a connection's raw
// password, per spec.md §4.2's "no password ever leaves the repository
// except through the explicit get_space_password accessor" invariant.
func (r *Repository) GetSpacePassword(ctx context.Context, spaceID string) (string, error) {
	var password sql.NullString
	err := r.db.DB().QueryRowContext(ctx,
		`SELECT connection_password FROM spaces WHERE id = ?`, spaceID,
	).Scan(&password)
	if err == sql.ErrNoRows {
		return "", errNotFound("space", spaceID)
	}
	if err != nil {
		return "", err
	}
	return password.String, nil
}

// DeleteSpace removes a space; ON DELETE CASCADE on pinned_tabs and
// tab_folders handles the cascade named in spec.md §4.2.
func (r *Repository) DeleteSpace(ctx context.Context, id string) error {
	return r.db.WithWriteTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM spaces WHERE id = ?`, id)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return errNotFound("space", id)
		}
		return nil
	})
}

// ReorderSpaces rewrites sort_order to the index in spaceIDs; unknown
// ids are silently ignored (the UPDATE simply affects zero rows).
func (r *Repository) ReorderSpaces(ctx context.Context, spaceIDs []string) error {
	return r.db.WithWriteTx(ctx, func(tx *sql.Tx) error {
		for i, id := range spaceIDs {
			if _, err := tx.ExecContext(ctx,
				`UPDATE spaces SET sort_order = ?, updated_at = ? WHERE id = ?`,
				i, nowRFC3339(), id,
			); err != nil {
				return fmt.Errorf("reorder space %s: %w", id, err)
			}
		}
		return nil
	})
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullZeroInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n != 0}
}
