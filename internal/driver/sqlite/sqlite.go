// Package sqlite implements the SQLite dialect driver. Unlike the
// network dialects it is stateless: every query opens a fresh file
// handle from the stored path and closes it when done, per spec.md §4.4.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/dwifuady/larik/internal/applog"
	"github.com/dwifuady/larik/internal/driver"
	"github.com/dwifuady/larik/internal/model"
)

func init() {
	driver.Register(model.DialectSQLite, New)
}

// Driver is the stateless SQLite dialect driver.
type Driver struct {
	log zerolog.Logger
}

// New constructs a SQLite Driver.
func New() driver.Driver {
	return &Driver{log: applog.WithComponent("driver.sqlite")}
}

func (d *Driver) DatabaseType() model.Dialect { return model.DialectSQLite }

func (d *Driver) TestConnection(ctx context.Context, cfg model.ConnectionConfig) error {
	conn, err := d.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	return conn.Close()
}

// connection is a thin handle carrying the resolved file path; SQLite
// opens/closes a real *sql.DB per statement, so this holds no pool.
type connection struct {
	id   string
	path string
}

func (c *connection) ID() string { return c.id }

func (c *connection) Ping(ctx context.Context) error {
	db, err := sql.Open("sqlite", c.path)
	if err != nil {
		return driver.New(driver.KindConnectionFailed, "failed to open sqlite file", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return driver.New(driver.KindConnectionFailed, "failed to ping sqlite file", err)
	}
	return nil
}

func (c *connection) Close() error { return nil }

func (d *Driver) Connect(_ context.Context, cfg model.ConnectionConfig) (driver.Connection, error) {
	if err := driver.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return &connection{id: cfg.ID, path: driver.ExpandPath(cfg.Database)}, nil
}

func (d *Driver) open(conn driver.Connection) (*sql.DB, error) {
	c, ok := conn.(*connection)
	if !ok {
		return nil, driver.New(driver.KindInvalidConnection, "connection is not a sqlite connection", nil)
	}
	db, err := sql.Open("sqlite", c.path)
	if err != nil {
		return nil, driver.New(driver.KindConnectionFailed, "failed to open sqlite file", err)
	}
	return db, nil
}

func (d *Driver) ExecuteQuery(ctx context.Context, conn driver.Connection, query string, queryID string, _ string) (model.QueryResult, error) {
	db, err := d.open(conn)
	if err != nil {
		return model.QueryResult{}, err
	}
	defer db.Close()

	started := time.Now()
	result := model.QueryResult{QueryID: queryID, StatementText: query, IsComplete: true}

	if isSelectLike(query) {
		rows, err := db.QueryContext(ctx, query)
		if err != nil {
			return model.QueryResult{}, driver.New(driver.KindQueryError, err.Error(), err)
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			return model.QueryResult{}, driver.New(driver.KindQueryError, err.Error(), err)
		}
		result.Columns = cols

		for rows.Next() {
			raw := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range raw {
				ptrs[i] = &raw[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return model.QueryResult{}, driver.New(driver.KindQueryError, err.Error(), err)
			}
			result.Rows = append(result.Rows, toCells(raw))
		}
		if err := rows.Err(); err != nil {
			return model.QueryResult{}, driver.New(driver.KindQueryError, err.Error(), err)
		}
	} else {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return model.QueryResult{}, driver.New(driver.KindQueryError, err.Error(), err)
		}
		result.Columns = []string{"Result"}
		result.Rows = [][]model.Cell{{model.StringCell("Query executed successfully")}}
	}

	result.RowCount = len(result.Rows)
	result.ExecutionTimeMS = time.Since(started).Milliseconds()
	return result, nil
}

// CancelQuery is a no-op: SQLite is stateless per call, so there is no
// live statement to interrupt once ExecuteQuery has returned control.
func (d *Driver) CancelQuery(string) bool { return false }

func (d *Driver) GetDatabases(_ context.Context, conn driver.Connection) ([]driver.DatabaseRef, error) {
	c, ok := conn.(*connection)
	if !ok {
		return nil, driver.New(driver.KindInvalidConnection, "connection is not a sqlite connection", nil)
	}
	return []driver.DatabaseRef{{Name: c.path, HasAccess: true}}, nil
}

func (d *Driver) GetSchemas(context.Context, driver.Connection, string) ([]string, error) {
	return []string{"main"}, nil
}

func (d *Driver) GetTables(ctx context.Context, conn driver.Connection, _ string, _ string) ([]model.TableInfo, error) {
	db, err := d.open(conn)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `
		SELECT name, type FROM sqlite_master
		WHERE type IN ('table','view') AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
	if err != nil {
		return nil, driver.New(driver.KindSchemaError, err.Error(), err)
	}
	defer rows.Close()

	var tables []model.TableInfo
	for rows.Next() {
		var name, kind string
		if err := rows.Scan(&name, &kind); err != nil {
			return nil, driver.New(driver.KindSchemaError, err.Error(), err)
		}
		cols, err := d.getColumnsDB(ctx, db, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, model.TableInfo{Schema: "main", Name: name, IsView: kind == "view", Columns: cols})
	}
	return tables, rows.Err()
}

func (d *Driver) GetColumns(ctx context.Context, conn driver.Connection, _, _, table string) ([]model.ColumnInfo, error) {
	db, err := d.open(conn)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return d.getColumnsDB(ctx, db, table)
}

func (d *Driver) getColumnsDB(ctx context.Context, db *sql.DB, table string) ([]model.ColumnInfo, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return nil, driver.New(driver.KindSchemaError, err.Error(), err)
	}
	defer rows.Close()

	var cols []model.ColumnInfo
	for rows.Next() {
		var cid int
		var name, declType string
		var notNull int
		var dflt sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &declType, &notNull, &dflt, &pk); err != nil {
			return nil, driver.New(driver.KindSchemaError, err.Error(), err)
		}
		col := model.ColumnInfo{
			Name:            name,
			DataType:        "any",
			IsNullable:      notNull == 0,
			IsPrimaryKey:    pk > 0,
			OrdinalPosition: cid + 1,
		}
		if declType != "" {
			col.DataType = declType
		}
		if dflt.Valid {
			col.ColumnDefault = &dflt.String
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

func (d *Driver) GetRoutines(context.Context, driver.Connection, string, string) ([]model.RoutineInfo, error) {
	// SQLite has no stored procedures/functions catalog.
	return nil, nil
}

func quoteIdent(name string) string {
	return `"` + name + `"`
}

func isSelectLike(query string) bool {
	trimmed := query
	for len(trimmed) > 0 && (trimmed[0] == ' ' || trimmed[0] == '\t' || trimmed[0] == '\n' || trimmed[0] == '\r') {
		trimmed = trimmed[1:]
	}
	if len(trimmed) < 6 {
		return false
	}
	upper := upperASCII(trimmed[:6])
	return upper == "SELECT" || upperASCII(firstWord(trimmed)) == "WITH" || upperASCII(firstWord(trimmed)) == "PRAGMA"
}

func firstWord(s string) string {
	for i, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '(' {
			return s[:i]
		}
	}
	return s
}

func upperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 32
		}
	}
	return string(b)
}

func toCells(raw []any) []model.Cell {
	cells := make([]model.Cell, len(raw))
	for i, v := range raw {
		cells[i] = toCell(v)
	}
	return cells
}

func toCell(v any) model.Cell {
	switch val := v.(type) {
	case nil:
		return model.NullCell()
	case int64:
		return model.Int64Cell(val)
	case float64:
		return model.Float64Cell(val)
	case bool:
		return model.BoolCell(val)
	case string:
		return model.StringCell(val)
	case []byte:
		return model.BinaryCell(val)
	case time.Time:
		return model.DateTimeCell(val.Format(time.RFC3339))
	default:
		return model.StringCell(fmt.Sprintf("%v", val))
	}
}
