// Package mssql implements the SQL Server dialect driver using
// github.com/microsoft/go-mssqldb, per spec.md §4.4. Each connection
// holds a pool, used for Ping and the metadata queries, and a separate
// single-connection handle on which ExecuteQuery runs every statement;
// CancelQuery cancels the running statement's context, which aborts it
// without disturbing the pool.
package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	mssqldb "github.com/microsoft/go-mssqldb"
	"github.com/rs/zerolog"

	"github.com/dwifuady/larik/internal/applog"
	"github.com/dwifuady/larik/internal/driver"
	"github.com/dwifuady/larik/internal/model"
)

func init() {
	driver.Register(model.DialectMSSQL, New)
}

// poolSize is the bounded pool size named in spec.md §4.5 ("SQL Server 5
// (min 1 idle)").
const poolSize = 5

// Driver is the SQL Server dialect driver.
type Driver struct {
	log zerolog.Logger

	mu    sync.RWMutex
	conns map[string]*connection

	cancelMu sync.Mutex
	cancel   map[string]func()
}

// New constructs a SQL Server Driver.
func New() driver.Driver {
	return &Driver{
		log:    applog.WithComponent("driver.mssql"),
		conns:  make(map[string]*connection),
		cancel: make(map[string]func()),
	}
}

func (d *Driver) DatabaseType() model.Dialect { return model.DialectMSSQL }

// connection pairs the pooled *sql.DB used for ordinary execution with a
// single dedicated *sql.DB kept at MaxOpenConns(1) so cancellation can
// drop its one socket without touching pooled connections in flight.
type connection struct {
	id       string
	pooled   *sql.DB
	cancelDB *sql.DB
}

func (c *connection) ID() string { return c.id }

func (c *connection) Ping(ctx context.Context) error {
	return c.pooled.PingContext(ctx)
}

func (c *connection) Close() error {
	err1 := c.pooled.Close()
	err2 := c.cancelDB.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

func connString(cfg model.ConnectionConfig) string {
	port := cfg.Port
	if port == 0 {
		port = 1433
	}
	params := []string{
		fmt.Sprintf("server=%s", cfg.Host),
		fmt.Sprintf("port=%d", port),
		fmt.Sprintf("user id=%s", cfg.Username),
		fmt.Sprintf("password=%s", cfg.Password),
		fmt.Sprintf("database=%s", cfg.Database),
	}
	if cfg.MSSQLEncrypt {
		params = append(params, "encrypt=true")
	} else {
		params = append(params, "encrypt=disable")
	}
	if cfg.MSSQLTrustCert {
		params = append(params, "TrustServerCertificate=true")
	}
	return strings.Join(params, ";")
}

func (d *Driver) TestConnection(ctx context.Context, cfg model.ConnectionConfig) error {
	if err := driver.ValidateConfig(cfg); err != nil {
		return err
	}
	db, err := sql.Open("sqlserver", connString(cfg))
	if err != nil {
		return driver.New(driver.KindInvalidConfig, "invalid mssql config", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return mapConnectError(err)
	}
	return nil
}

func mapConnectError(err error) error {
	var mssqlErr mssqldb.Error
	if errors.As(err, &mssqlErr) {
		e := driver.New(driver.KindConnectionFailed, mssqlErr.Message, err).WithCode(int(mssqlErr.Number))
		if driver.IsPasswordExpired(int(mssqlErr.Number)) {
			e.Kind = driver.KindPasswordExpired
		}
		return e
	}
	return driver.New(driver.KindConnectionFailed, err.Error(), err)
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

	dsn := connString(cfg)
	pooled, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, driver.New(driver.KindInvalidConfig, "invalid mssql config", err)
	}
	pooled.SetMaxOpenConns(poolSize)
	pooled.SetMaxIdleConns(1)

	cancelDB, err := sql.Open("sqlserver", dsn)
	if err != nil {
		pooled.Close()
		return nil, driver.New(driver.KindInvalidConfig, "invalid mssql config", err)
	}
	cancelDB.SetMaxOpenConns(1)
	cancelDB.SetMaxIdleConns(1)

	if err := pooled.PingContext(ctx); err != nil {
		pooled.Close()
		cancelDB.Close()
		return nil, mapConnectError(err)
	}

	c := &connection{id: cfg.ID, pooled: pooled, cancelDB: cancelDB}
	d.conns[cfg.ID] = c
	return c, nil
}

func asConn(conn driver.Connection) (*connection, error) {
	c, ok := conn.(*connection)
	if !ok {
		return nil, driver.New(driver.KindInvalidConnection, "connection is not a mssql connection", nil)
	}
	return c, nil
}

// ExecuteQuery runs USE [database] first when database is set, then the
// statement, both on one connection taken from the dedicated
// single-connection handle; CancelQuery interrupts it by cancelling the
// context registered under queryID.
func (d *Driver) ExecuteQuery(ctx context.Context, conn driver.Connection, query string, queryID string, database string) (model.QueryResult, error) {
	c, err := asConn(conn)
	if err != nil {
		return model.QueryResult{}, err
	}

	queryCtx, cancelFn := context.WithCancel(ctx)
	d.cancelMu.Lock()
	d.cancel[queryID] = cancelFn
	d.cancelMu.Unlock()
	defer func() {
		d.cancelMu.Lock()
		delete(d.cancel, queryID)
		d.cancelMu.Unlock()
		cancelFn()
	}()

	started := time.Now()
	result := model.QueryResult{QueryID: queryID, StatementText: query, IsComplete: true}

	conn2, err := c.cancelDB.Conn(queryCtx)
	if err != nil {
		return model.QueryResult{}, driver.New(driver.KindPoolError, "failed to acquire mssql connection", err)
	}
	defer conn2.Close()

	if database != "" {
		if _, err := conn2.ExecContext(queryCtx, fmt.Sprintf("USE [%s];", database)); err != nil {
			return model.QueryResult{}, mapQueryError(err)
		}
	}

	if isSelectLike(query) {
		rows, err := conn2.QueryContext(queryCtx, query)
		if err != nil {
			return model.QueryResult{}, mapQueryError(err)
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			return model.QueryResult{}, mapQueryError(err)
		}
		result.Columns = cols

		for rows.Next() {
			raw := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range raw {
				ptrs[i] = &raw[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return model.QueryResult{}, mapQueryError(err)
			}
			result.Rows = append(result.Rows, toCells(raw))
		}
		if err := rows.Err(); err != nil {
			return model.QueryResult{}, mapQueryError(err)
		}
	} else {
		if _, err := conn2.ExecContext(queryCtx, query); err != nil {
			return model.QueryResult{}, mapQueryError(err)
		}
		result.Columns = []string{"Result"}
		result.Rows = [][]model.Cell{{model.StringCell("Query executed successfully")}}
	}

	result.RowCount = len(result.Rows)
	result.ExecutionTimeMS = time.Since(started).Milliseconds()
	return result, nil
}

func mapQueryError(err error) error {
	if errors.Is(err, context.Canceled) {
		return driver.New(driver.KindCancelled, "query cancelled", err)
	}
	var mssqlErr mssqldb.Error
	if errors.As(err, &mssqlErr) {
		e := driver.New(driver.KindQueryError, mssqlErr.Message, err).WithCode(int(mssqlErr.Number))
		if driver.IsPasswordExpired(int(mssqlErr.Number)) {
			e.Kind = driver.KindPasswordExpired
		}
		return e
	}
	return driver.New(driver.KindQueryError, err.Error(), err)
}

// CancelQuery cancels the ctx backing the in-flight ExecuteQuery call for
// queryID. Cancelling the context closes conn2 (the dedicated socket's
// lease), which aborts the running batch without affecting the pool.
func (d *Driver) CancelQuery(queryID string) bool {
	d.cancelMu.Lock()
	cancelFn, ok := d.cancel[queryID]
	d.cancelMu.Unlock()
	if !ok {
		return false
	}
	cancelFn()
	return true
}

// GetDatabases merges sys.databases (online) with the accessible set per
// spec.md §4.5: a database is usable only if it is ONLINE and the
// current login has CONNECT permission (HAS_DBACCESS).
func (d *Driver) GetDatabases(ctx context.Context, conn driver.Connection) ([]driver.DatabaseRef, error) {
	c, err := asConn(conn)
	if err != nil {
		return nil, err
	}
	rows, err := c.pooled.QueryContext(ctx, `
		SELECT name, state_desc, HAS_DBACCESS(name)
		FROM sys.databases
		ORDER BY name`)
	if err != nil {
		return nil, driver.New(driver.KindSchemaError, err.Error(), err)
	}
	defer rows.Close()

	var out []driver.DatabaseRef
	for rows.Next() {
		var name, state string
		var access sql.NullInt64
		if err := rows.Scan(&name, &state, &access); err != nil {
			return nil, driver.New(driver.KindSchemaError, err.Error(), err)
		}
		out = append(out, driver.DatabaseRef{
			Name:      name,
			HasAccess: state == "ONLINE" && access.Valid && access.Int64 == 1,
		})
	}
	return out, rows.Err()
}

func (d *Driver) GetSchemas(ctx context.Context, conn driver.Connection, database string) ([]string, error) {
	c, err := asConn(conn)
	if err != nil {
		return nil, err
	}
	q := "SELECT name FROM sys.schemas WHERE schema_id < 16384 OR name NOT IN ('guest','INFORMATION_SCHEME','sys') ORDER BY name"
	if database != "" {
		q = fmt.Sprintf("USE [%s]; %s", database, q)
	}
	rows, err := c.pooled.QueryContext(ctx, q)
	if err != nil {
		return nil, driver.New(driver.KindSchemaError, err.Error(), err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, driver.New(driver.KindSchemaError, err.Error(), err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (d *Driver) GetTables(ctx context.Context, conn driver.Connection, database, schema string) ([]model.TableInfo, error) {
	c, err := asConn(conn)
	if err != nil {
		return nil, err
	}
	if schema == "" {
		schema = "dbo"
	}
	q := `SELECT TABLE_NAME, TABLE_TYPE FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = @p1 ORDER BY TABLE_NAME`
	if database != "" {
		q = fmt.Sprintf("USE [%s]; %s", database, q)
	}
	rows, err := c.pooled.QueryContext(ctx, q, sql.Named("p1", schema))
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
		cols, err := d.getColumns(ctx, c, database, schema, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, model.TableInfo{Schema: schema, Name: name, IsView: kind == "VIEW", Columns: cols})
	}
	return tables, rows.Err()
}

func (d *Driver) GetColumns(ctx context.Context, conn driver.Connection, database, schema, table string) ([]model.ColumnInfo, error) {
	c, err := asConn(conn)
	if err != nil {
		return nil, err
	}
	if schema == "" {
		schema = "dbo"
	}
	return d.getColumns(ctx, c, database, schema, table)
}

func (d *Driver) getColumns(ctx context.Context, c *connection, database, schema, table string) ([]model.ColumnInfo, error) {
	q := `
		SELECT
			col.COLUMN_NAME, col.DATA_TYPE, col.CHARACTER_MAXIMUM_LENGTH,
			col.NUMERIC_PRECISION, col.NUMERIC_SCALE, col.IS_NULLABLE,
			col.COLUMN_DEFAULT, col.ORDINAL_POSITION,
			COLUMNPROPERTY(OBJECT_ID(col.TABLE_SCHEMA + '.' + col.TABLE_NAME), col.COLUMN_NAME, 'IsIdentity'),
			CASE WHEN pk.COLUMN_NAME IS NOT NULL THEN 1 ELSE 0 END
		FROM INFORMATION_SCHEMA.COLUMNS col
		LEFT JOIN (
			SELECT ku.TABLE_SCHEMA, ku.TABLE_NAME, ku.COLUMN_NAME
			FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
			JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE ku
				ON tc.CONSTRAINT_NAME = ku.CONSTRAINT_NAME AND tc.TABLE_SCHEMA = ku.TABLE_SCHEMA
			WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY'
		) pk ON pk.TABLE_SCHEMA = col.TABLE_SCHEMA AND pk.TABLE_NAME = col.TABLE_NAME AND pk.COLUMN_NAME = col.COLUMN_NAME
		WHERE col.TABLE_SCHEMA = @p1 AND col.TABLE_NAME = @p2
		ORDER BY col.ORDINAL_POSITION`
	if database != "" {
		q = fmt.Sprintf("USE [%s]; %s", database, q)
	}
	rows, err := c.pooled.QueryContext(ctx, q, sql.Named("p1", schema), sql.Named("p2", table))
	if err != nil {
		return nil, driver.New(driver.KindSchemaError, err.Error(), err)
	}
	defer rows.Close()

	var cols []model.ColumnInfo
	for rows.Next() {
		var name, dataType, nullable string
		var maxLen, precision, scale *int
		var dflt *string
		var ordinal int
		var isIdentity, isPK int
		if err := rows.Scan(&name, &dataType, &maxLen, &precision, &scale, &nullable, &dflt, &ordinal, &isIdentity, &isPK); err != nil {
			return nil, driver.New(driver.KindSchemaError, err.Error(), err)
		}
		cols = append(cols, model.ColumnInfo{
			Name: name, DataType: coerceType(dataType), MaxLength: maxLen, Precision: precision, Scale: scale,
			IsNullable: nullable == "YES", IsPrimaryKey: isPK == 1, IsIdentity: isIdentity == 1,
			ColumnDefault: dflt, OrdinalPosition: ordinal,
		})
	}
	return cols, rows.Err()
}

func (d *Driver) GetRoutines(ctx context.Context, conn driver.Connection, database, schema string) ([]model.RoutineInfo, error) {
	c, err := asConn(conn)
	if err != nil {
		return nil, err
	}
	if schema == "" {
		schema = "dbo"
	}
	q := `SELECT ROUTINE_NAME, ROUTINE_TYPE FROM INFORMATION_SCHEMA.ROUTINES WHERE ROUTINE_SCHEMA = @p1 ORDER BY ROUTINE_NAME`
	if database != "" {
		q = fmt.Sprintf("USE [%s]; %s", database, q)
	}
	rows, err := c.pooled.QueryContext(ctx, q, sql.Named("p1", schema))
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
		params, err := d.getParameters(ctx, c, database, schema, name)
		if err != nil {
			return nil, err
		}
		routines = append(routines, model.RoutineInfo{
			Schema: schema, Name: name, IsFunction: kind == "FUNCTION", Parameters: params,
		})
	}
	return routines, rows.Err()
}

func (d *Driver) getParameters(ctx context.Context, c *connection, database, schema, routine string) ([]model.RoutineParameter, error) {
	q := `
		SELECT PARAMETER_NAME, DATA_TYPE, CHARACTER_MAXIMUM_LENGTH, NUMERIC_PRECISION,
			NUMERIC_SCALE, PARAMETER_MODE, ORDINAL_POSITION
		FROM INFORMATION_SCHEMA.PARAMETERS
		WHERE SPECIFIC_SCHEMA = @p1 AND SPECIFIC_NAME = @p2
		ORDER BY ORDINAL_POSITION`
	if database != "" {
		q = fmt.Sprintf("USE [%s]; %s", database, q)
	}
	rows, err := c.pooled.QueryContext(ctx, q, sql.Named("p1", schema), sql.Named("p2", routine))
	if err != nil {
		return nil, driver.New(driver.KindSchemaError, err.Error(), err)
	}
	defer rows.Close()

	var params []model.RoutineParameter
	for rows.Next() {
		var name *string
		var dataType, mode string
		var maxLen, precision, scale, ordinal *int
		if err := rows.Scan(&name, &dataType, &maxLen, &precision, &scale, &mode, &ordinal); err != nil {
			return nil, driver.New(driver.KindSchemaError, err.Error(), err)
		}
		p := model.RoutineParameter{DataType: coerceType(dataType), Mode: mode}
		if name != nil {
			p.Name = *name
		}
		p.MaxLength, p.Precision, p.Scale = maxLen, precision, scale
		if ordinal != nil {
			p.OrdinalPosition = *ordinal
		}
		params = append(params, p)
	}
	return params, rows.Err()
}

// coerceType normalizes a handful of SQL Server type names to the forms
// named in spec.md §4.4 (e.g. "tinyint" -> int1-style naming kept as-is;
// "uniqueidentifier" surfaced for GUID columns).
func coerceType(sqlType string) string {
	switch strings.ToLower(sqlType) {
	case "tinyint":
		return "tinyint"
	case "datetime2":
		return "datetime2"
	case "uniqueidentifier":
		return "uniqueidentifier"
	case "nvarchar", "nchar", "ntext":
		return sqlType
	default:
		return sqlType
	}
}

func isSelectLike(query string) bool {
	trimmed := strings.TrimSpace(query)
	word := firstWord(trimmed)
	switch strings.ToUpper(word) {
	case "SELECT", "WITH":
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
