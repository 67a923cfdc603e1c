// Package postgres implements the PostgreSQL dialect driver using pgx's
// native (non-database/sql) interface so the extended protocol's typed
// column metadata is available directly, per spec.md §4.4.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/dwifuady/larik/internal/applog"
	"github.com/dwifuady/larik/internal/driver"
	"github.com/dwifuady/larik/internal/model"
)

func init() {
	driver.Register(model.DialectPostgres, New)
}

// defaultPoolSize is the bounded pool size used when not overridden,
// per spec.md §4.5 ("PostgreSQL 10 (min 1 idle)").
const defaultPoolSize = 10

// Driver is the PostgreSQL dialect driver. Pools are keyed by connection
// id and shared across callers, matching the unified manager's per-(dialect,
// id) pool-sharing policy in spec.md §5.
type Driver struct {
	log zerolog.Logger

	mu    sync.RWMutex
	pools map[string]*pgxpool.Pool
}

// New constructs a PostgreSQL Driver.
func New() driver.Driver {
	return &Driver{
		log:   applog.WithComponent("driver.postgres"),
		pools: make(map[string]*pgxpool.Pool),
	}
}

func (d *Driver) DatabaseType() model.Dialect { return model.DialectPostgres }

type connection struct {
	id   string
	pool *pgxpool.Pool
}

func (c *connection) ID() string { return c.id }

func (c *connection) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

func (c *connection) Close() error {
	c.pool.Close()
	return nil
}

func dsn(cfg model.ConnectionConfig) string {
	sslmode := cfg.PostgresSSL
	if sslmode == "" {
		sslmode = model.SSLModePrefer
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Username, cfg.Password, cfg.Host, portOrDefault(cfg.Port), cfg.Database, sslmode)
}

func portOrDefault(p int) int {
	if p == 0 {
		return 5432
	}
	return p
}

func (d *Driver) TestConnection(ctx context.Context, cfg model.ConnectionConfig) error {
	if err := driver.ValidateConfig(cfg); err != nil {
		return err
	}
	poolCfg, err := pgxpool.ParseConfig(dsn(cfg))
	if err != nil {
		return driver.New(driver.KindInvalidConfig, "invalid postgres config", err)
	}
	poolCfg.MaxConns = 1
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return driver.New(driver.KindConnectionFailed, "failed to connect to postgres", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return driver.New(driver.KindConnectionFailed, "failed to ping postgres", err)
	}
	return nil
}

func (d *Driver) Connect(ctx context.Context, cfg model.ConnectionConfig) (driver.Connection, error) {
	if err := driver.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	d.mu.RLock()
	pool, ok := d.pools[cfg.ID]
	d.mu.RUnlock()
	if ok {
		return &connection{id: cfg.ID, pool: pool}, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if pool, ok := d.pools[cfg.ID]; ok {
		return &connection{id: cfg.ID, pool: pool}, nil
	}

	poolCfg, err := pgxpool.ParseConfig(dsn(cfg))
	if err != nil {
		return nil, driver.New(driver.KindInvalidConfig, "invalid postgres config", err)
	}
	poolCfg.MaxConns = defaultPoolSize
	poolCfg.MinConns = 1

	pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, driver.New(driver.KindConnectionFailed, "failed to connect to postgres", err)
	}
	d.pools[cfg.ID] = pool
	return &connection{id: cfg.ID, pool: pool}, nil
}

func asConn(conn driver.Connection) (*connection, error) {
	c, ok := conn.(*connection)
	if !ok {
		return nil, driver.New(driver.KindInvalidConnection, "connection is not a postgres connection", nil)
	}
	return c, nil
}

func (d *Driver) ExecuteQuery(ctx context.Context, conn driver.Connection, query string, queryID string, _ string) (model.QueryResult, error) {
	c, err := asConn(conn)
	if err != nil {
		return model.QueryResult{}, err
	}

	started := time.Now()
	result := model.QueryResult{QueryID: queryID, StatementText: query, IsComplete: true}

	// pgx's Query always uses the extended (prepared) protocol unless
	// QueryExecModeSimpleProtocol is requested, which is how we recover
	// typed field descriptions even for DML per spec.md §4.4.
	rows, err := c.pool.Query(ctx, query)
	if err != nil {
		return model.QueryResult{}, queryError(err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}
	result.Columns = cols

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return model.QueryResult{}, queryError(err)
		}
		row := make([]model.Cell, len(values))
		for i, v := range values {
			row[i] = toCell(v, fields[i].DataTypeOID)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return model.QueryResult{}, queryError(err)
	}
	tag := rows.CommandTag()

	if len(fields) == 0 {
		result.Columns = []string{"Result"}
		result.Rows = [][]model.Cell{{model.StringCell(tagMessage(tag))}}
	}

	result.RowCount = len(result.Rows)
	result.ExecutionTimeMS = time.Since(started).Milliseconds()
	return result, nil
}

func tagMessage(tag pgconn.CommandTag) string {
	if tag.String() == "" {
		return "Query executed successfully"
	}
	return fmt.Sprintf("Query executed successfully (%s)", tag.String())
}

func queryError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return driver.New(driver.KindQueryError, pgErr.Message, err)
	}
	return driver.New(driver.KindQueryError, err.Error(), err)
}

// CancelQuery is unsupported at the driver layer: pgx's pool doesn't
// expose per-query cancellation handles beyond the ctx passed to Query,
// so cancellation is implemented by the query engine cancelling ctx.
func (d *Driver) CancelQuery(string) bool { return false }

func (d *Driver) GetDatabases(ctx context.Context, conn driver.Connection) ([]driver.DatabaseRef, error) {
	c, err := asConn(conn)
	if err != nil {
		return nil, err
	}
	rows, err := c.pool.Query(ctx, `
		SELECT d.datname, has_database_privilege(current_user, d.datname, 'CONNECT')
		FROM pg_database d
		WHERE d.datistemplate = false
		ORDER BY d.datname`)
	if err != nil {
		return nil, driver.New(driver.KindSchemaError, err.Error(), err)
	}
	defer rows.Close()

	var out []driver.DatabaseRef
	for rows.Next() {
		var name string
		var access bool
		if err := rows.Scan(&name, &access); err != nil {
			return nil, driver.New(driver.KindSchemaError, err.Error(), err)
		}
		out = append(out, driver.DatabaseRef{Name: name, HasAccess: access})
	}
	return out, rows.Err()
}

func (d *Driver) GetSchemas(ctx context.Context, conn driver.Connection, _ string) ([]string, error) {
	c, err := asConn(conn)
	if err != nil {
		return nil, err
	}
	rows, err := c.pool.Query(ctx, `
		SELECT schema_name FROM information_schema.schemata
		WHERE schema_name NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
		  AND schema_name NOT LIKE 'pg_temp_%' AND schema_name NOT LIKE 'pg_toast_temp_%'
		ORDER BY schema_name`)
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

func (d *Driver) GetTables(ctx context.Context, conn driver.Connection, _ string, schema string) ([]model.TableInfo, error) {
	c, err := asConn(conn)
	if err != nil {
		return nil, err
	}
	if schema == "" {
		schema = "public"
	}
	rows, err := c.pool.Query(ctx, `
		SELECT table_name, table_type
		FROM information_schema.tables
		WHERE table_schema = $1
		ORDER BY table_name`, schema)
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
		cols, err := d.getColumns(ctx, c, schema, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, model.TableInfo{Schema: schema, Name: name, IsView: kind == "VIEW", Columns: cols})
	}
	return tables, rows.Err()
}

func (d *Driver) GetColumns(ctx context.Context, conn driver.Connection, _, schema, table string) ([]model.ColumnInfo, error) {
	c, err := asConn(conn)
	if err != nil {
		return nil, err
	}
	if schema == "" {
		schema = "public"
	}
	return d.getColumns(ctx, c, schema, table)
}

func (d *Driver) getColumns(ctx context.Context, c *connection, schema, table string) ([]model.ColumnInfo, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT
			col.column_name, col.data_type, col.character_maximum_length,
			col.numeric_precision, col.numeric_scale, col.is_nullable,
			col.column_default, col.ordinal_position,
			COALESCE(col.is_identity = 'YES', false),
			EXISTS (
				SELECT 1 FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage kcu
					ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
				WHERE tc.constraint_type = 'PRIMARY KEY'
					AND tc.table_schema = col.table_schema AND tc.table_name = col.table_name
					AND kcu.column_name = col.column_name
			)
		FROM information_schema.columns col
		WHERE col.table_schema = $1 AND col.table_name = $2
		ORDER BY col.ordinal_position`, schema, table)
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
		var isIdentity, isPK bool
		if err := rows.Scan(&name, &dataType, &maxLen, &precision, &scale, &nullable, &dflt, &ordinal, &isIdentity, &isPK); err != nil {
			return nil, driver.New(driver.KindSchemaError, err.Error(), err)
		}
		cols = append(cols, model.ColumnInfo{
			Name: name, DataType: dataType, MaxLength: maxLen, Precision: precision, Scale: scale,
			IsNullable: nullable == "YES", IsPrimaryKey: isPK, IsIdentity: isIdentity,
			ColumnDefault: dflt, OrdinalPosition: ordinal,
		})
	}
	return cols, rows.Err()
}

func (d *Driver) GetRoutines(ctx context.Context, conn driver.Connection, _, schema string) ([]model.RoutineInfo, error) {
	c, err := asConn(conn)
	if err != nil {
		return nil, err
	}
	if schema == "" {
		schema = "public"
	}
	rows, err := c.pool.Query(ctx, `
		SELECT r.routine_name, r.routine_type
		FROM information_schema.routines r
		WHERE r.routine_schema = $1
		ORDER BY r.routine_name`, schema)
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
		params, err := d.getParameters(ctx, c, schema, name)
		if err != nil {
			return nil, err
		}
		routines = append(routines, model.RoutineInfo{
			Schema: schema, Name: name, IsFunction: kind == "FUNCTION", Parameters: params,
		})
	}
	return routines, rows.Err()
}

func (d *Driver) getParameters(ctx context.Context, c *connection, schema, routine string) ([]model.RoutineParameter, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT parameter_name, data_type, character_maximum_length, numeric_precision,
			numeric_scale, parameter_mode, ordinal_position
		FROM information_schema.parameters
		WHERE specific_schema = $1 AND specific_name IN (
			SELECT specific_name FROM information_schema.routines
			WHERE routine_schema = $1 AND routine_name = $2
		)
		ORDER BY ordinal_position`, schema, routine)
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
		p := model.RoutineParameter{DataType: dataType, Mode: mode}
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

// toCell coerces one pgx value using the declared OID, per spec.md §4.4:
// BOOL, INT2/4/8, FLOAT4/8, TIMESTAMP as ISO text; everything else falls
// back to its string representation.
func toCell(v any, oid uint32) model.Cell {
	if v == nil {
		return model.NullCell()
	}
	switch oid {
	case pgtype.BoolOID:
		if b, ok := v.(bool); ok {
			return model.BoolCell(b)
		}
	case pgtype.Int2OID, pgtype.Int4OID, pgtype.Int8OID:
		switch n := v.(type) {
		case int64:
			return model.Int64Cell(n)
		case int32:
			return model.Int64Cell(int64(n))
		case int16:
			return model.Int64Cell(int64(n))
		}
	case pgtype.Float4OID, pgtype.Float8OID:
		switch n := v.(type) {
		case float64:
			return model.Float64Cell(n)
		case float32:
			return model.Float64Cell(float64(n))
		}
	case pgtype.TimestampOID, pgtype.TimestamptzOID, pgtype.DateOID:
		if t, ok := v.(time.Time); ok {
			return model.DateTimeCell(t.Format(time.RFC3339))
		}
	case pgtype.ByteaOID:
		if b, ok := v.([]byte); ok {
			return model.BinaryCell(b)
		}
	}
	return model.StringCell(stringify(v))
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
