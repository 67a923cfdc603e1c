// Package mysql implements the MySQL dialect driver using
// github.com/go-sql-driver/mysql. MySQL is the secondary, extensible
// dialect named in spec.md §1: it is kept deliberately minimal and
// mirrors the SQL Server driver's pooled-connection shape without the
// dedicated cancellation socket (MySQL's context cancellation on the
// standard driver already aborts the in-flight query).
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"

	"github.com/dwifuady/larik/internal/applog"
	"github.com/dwifuady/larik/internal/driver"
	"github.com/dwifuady/larik/internal/model"
)

func init() {
	driver.Register(model.DialectMySQL, New)
}

const poolSize = 5

// Driver is the MySQL dialect driver.
type Driver struct {
	log zerolog.Logger

	mu    sync.RWMutex
	conns map[string]*connection
}

// New constructs a MySQL Driver.
func New() driver.Driver {
	return &Driver{
		log:   applog.WithComponent("driver.mysql"),
		conns: make(map[string]*connection),
	}
}

func (d *Driver) DatabaseType() model.Dialect { return model.DialectMySQL }

type connection struct {
	id string
	db *sql.DB
}

func (c *connection) ID() string                       { return c.id }
func (c *connection) Ping(ctx context.Context) error    { return c.db.PingContext(ctx) }
func (c *connection) Close() error                      { return c.db.Close() }

func dsn(cfg model.ConnectionConfig) string {
	mcfg := mysqldriver.NewConfig()
	mcfg.User = cfg.Username
	mcfg.Passwd = cfg.Password
	mcfg.Net = "tcp"
	port := cfg.Port
	if port == 0 {
		port = 3306
	}
	mcfg.Addr = fmt.Sprintf("%s:%d", cfg.Host, port)
	mcfg.DBName = cfg.Database
	mcfg.ParseTime = true
	if cfg.MySQLSSL {
		mcfg.TLSConfig = "true"
	}
	return mcfg.FormatDSN()
}

func (d *Driver) TestConnection(ctx context.Context, cfg model.ConnectionConfig) error {
	if err := driver.ValidateConfig(cfg); err != nil {
		return err
	}
	db, err := sql.Open("mysql", dsn(cfg))
	if err != nil {
		return driver.New(driver.KindInvalidConfig, "invalid mysql config", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return driver.New(driver.KindConnectionFailed, err.Error(), err)
	}
	return nil
}

func (d *Driver) Connect(ctx context.Context, cfg model.ConnectionConfig) (driver.Connection, error) {
	if err := driver.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	d.mu.RLock()
	if c, ok := d.conns[cfg.ID]; ok {
		d.mu.RUnlock()
		return c, nil
	}
	d.mu.RUnlock()

	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.conns[cfg.ID]; ok {
		return c, nil
	}

	db, err := sql.Open("mysql", dsn(cfg))
	if err != nil {
		return nil, driver.New(driver.KindInvalidConfig, "invalid mysql config", err)
	}
	db.SetMaxOpenConns(poolSize)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, driver.New(driver.KindConnectionFailed, err.Error(), err)
	}

	c := &connection{id: cfg.ID, db: db}
	d.conns[cfg.ID] = c
	return c, nil
}

func asConn(conn driver.Connection) (*connection, error) {
	c, ok := conn.(*connection)
	if !ok {
		return nil, driver.New(driver.KindInvalidConnection, "connection is not a mysql connection", nil)
	}
	return c, nil
}

func (d *Driver) ExecuteQuery(ctx context.Context, conn driver.Connection, query string, queryID string, database string) (model.QueryResult, error) {
	c, err := asConn(conn)
	if err != nil {
		return model.QueryResult{}, err
	}

	started := time.Now()
	result := model.QueryResult{QueryID: queryID, StatementText: query, IsComplete: true}

	if database != "" {
		if _, err := c.db.ExecContext(ctx, fmt.Sprintf("USE `%s`;", database)); err != nil {
			return model.QueryResult{}, driver.New(driver.KindQueryError, err.Error(), err)
		}
	}

	if isSelectLike(query) {
		rows, err := c.db.QueryContext(ctx, query)
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
		if _, err := c.db.ExecContext(ctx, query); err != nil {
			return model.QueryResult{}, driver.New(driver.KindQueryError, err.Error(), err)
		}
		result.Columns = []string{"Result"}
		result.Rows = [][]model.Cell{{model.StringCell("Query executed successfully")}}
	}

	result.RowCount = len(result.Rows)
	result.ExecutionTimeMS = time.Since(started).Milliseconds()
	return result, nil
}

// CancelQuery is unsupported: the pooled *sql.DB has no per-query handle
// to interrupt independent of the ctx passed into ExecuteQuery, so
// cancellation here is the query engine's ctx, not this method.
func (d *Driver) CancelQuery(string) bool { return false }

func (d *Driver) GetDatabases(ctx context.Context, conn driver.Connection) ([]driver.DatabaseRef, error) {
	c, err := asConn(conn)
	if err != nil {
		return nil, err
	}
	rows, err := c.db.QueryContext(ctx, "SHOW DATABASES")
	if err != nil {
		return nil, driver.New(driver.KindSchemaError, err.Error(), err)
	}
	defer rows.Close()
	var out []driver.DatabaseRef
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, driver.New(driver.KindSchemaError, err.Error(), err)
		}
		out = append(out, driver.DatabaseRef{Name: name, HasAccess: true})
	}
	return out, rows.Err()
}

func (d *Driver) GetSchemas(ctx context.Context, conn driver.Connection, _ string) ([]string, error) {
	return d.GetDatabasesAsSchemas(ctx, conn)
}

// GetDatabasesAsSchemas exists because MySQL has no separate schema
// level above database: "schema" and "database" are synonyms.
func (d *Driver) GetDatabasesAsSchemas(ctx context.Context, conn driver.Connection) ([]string, error) {
	refs, err := d.GetDatabases(ctx, conn)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.Name
	}
	return out, nil
}

func (d *Driver) GetTables(ctx context.Context, conn driver.Connection, database, _ string) ([]model.TableInfo, error) {
	c, err := asConn(conn)
	if err != nil {
		return nil, err
	}
	rows, err := c.db.QueryContext(ctx, `
		SELECT TABLE_NAME, TABLE_TYPE FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ?
		ORDER BY TABLE_NAME`, database)
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
		cols, err := d.getColumns(ctx, c, database, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, model.TableInfo{Schema: database, Name: name, IsView: kind == "VIEW", Columns: cols})
	}
	return tables, rows.Err()
}

func (d *Driver) GetColumns(ctx context.Context, conn driver.Connection, database, _, table string) ([]model.ColumnInfo, error) {
	c, err := asConn(conn)
	if err != nil {
		return nil, err
	}
	return d.getColumns(ctx, c, database, table)
}

func (d *Driver) getColumns(ctx context.Context, c *connection, database, table string) ([]model.ColumnInfo, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT
			col.COLUMN_NAME, col.DATA_TYPE, col.CHARACTER_MAXIMUM_LENGTH,
			col.NUMERIC_PRECISION, col.NUMERIC_SCALE, col.IS_NULLABLE,
			col.COLUMN_DEFAULT, col.ORDINAL_POSITION, col.EXTRA, col.COLUMN_KEY
		FROM information_schema.COLUMNS col
		WHERE col.TABLE_SCHEMA = ? AND col.TABLE_NAME = ?
		ORDER BY col.ORDINAL_POSITION`, database, table)
	if err != nil {
		return nil, driver.New(driver.KindSchemaError, err.Error(), err)
	}
	defer rows.Close()

	var cols []model.ColumnInfo
	for rows.Next() {
		var name, dataType, nullable, extra, key string
		var maxLen *int
		var precision, scale *int
		var dflt *string
		var ordinal int
		if err := rows.Scan(&name, &dataType, &maxLen, &precision, &scale, &nullable, &dflt, &ordinal, &extra, &key); err != nil {
			return nil, driver.New(driver.KindSchemaError, err.Error(), err)
		}
		cols = append(cols, model.ColumnInfo{
			Name: name, DataType: dataType, MaxLength: maxLen, Precision: precision, Scale: scale,
			IsNullable: nullable == "YES", IsPrimaryKey: key == "PRI", IsIdentity: strings.Contains(extra, "auto_increment"),
			ColumnDefault: dflt, OrdinalPosition: ordinal,
		})
	}
	return cols, rows.Err()
}

func (d *Driver) GetRoutines(ctx context.Context, conn driver.Connection, database, _ string) ([]model.RoutineInfo, error) {
	c, err := asConn(conn)
	if err != nil {
		return nil, err
	}
	rows, err := c.db.QueryContext(ctx, `
		SELECT ROUTINE_NAME, ROUTINE_TYPE FROM information_schema.ROUTINES
		WHERE ROUTINE_SCHEMA = ?
		ORDER BY ROUTINE_NAME`, database)
	if err != nil {
		return nil, driver.New(driver.KindSchemaError, err.Error(), err)
	}
	defer rows.Close()

	var routines []model.RoutineInfo
	for rows.Next() {
		var name, kind string
		if err := rows.Scan(&name, &kind); err != nil {
			return nil, driver.New(driver.KindSchemaError, err.Error(), err)
		}
		routines = append(routines, model.RoutineInfo{Schema: database, Name: name, IsFunction: kind == "FUNCTION"})
	}
	return routines, rows.Err()
}

func isSelectLike(query string) bool {
	trimmed := strings.TrimSpace(query)
	word := firstWord(trimmed)
	switch strings.ToUpper(word) {
	case "SELECT", "WITH", "SHOW", "DESCRIBE", "EXPLAIN":
		return true
	default:
		return false
	}
}

func firstWord(s string) string {
	for i, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '(' {
			return s[:i]
		}
	}
	return s
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
