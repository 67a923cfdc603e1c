// Package driver defines the uniform interface every dialect
// implementation (mssql, postgres, sqlite, mysql) satisfies, plus the
// registry that resolves a Dialect to its constructor. The shape mirrors
// the teacher's internal/dialect registry: a package-level map guarded by
// a mutex, populated by each concrete driver's init().
package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dwifuady/larik/internal/model"
)

// Connection is a live handle to one database, returned by Connect. It
// carries its own id and a liveness probe; dialect-specific behaviour
// (e.g. the SQL Server dedicated cancellable socket) is reached through
// the concrete Driver, not by downcasting Connection — the dialect set is
// closed, so callers route by (id -> dialect) instead of type-asserting.
type Connection interface {
	ID() string
	Ping(ctx context.Context) error
	Close() error
}

// Driver is the uniform abstraction every dialect satisfies.
type Driver interface {
	DatabaseType() model.Dialect

	TestConnection(ctx context.Context, cfg model.ConnectionConfig) error
	Connect(ctx context.Context, cfg model.ConnectionConfig) (Connection, error)

	// ExecuteQuery runs one statement (already split by the query engine)
	// against conn, optionally scoped to database. queryID is used by the
	// caller to track cancellation; a driver that supports mid-flight
	// cancellation (SQL Server's dedicated socket) keys off it.
	ExecuteQuery(ctx context.Context, conn Connection, sql string, queryID string, database string) (model.QueryResult, error)

	// CancelQuery attempts to abort an in-flight statement. Returns false
	// if the dialect has no way to cancel (e.g. SQLite, which is
	// stateless and so has nothing to cancel).
	CancelQuery(queryID string) bool

	GetDatabases(ctx context.Context, conn Connection) ([]DatabaseRef, error)
	GetSchemas(ctx context.Context, conn Connection, database string) ([]string, error)
	GetTables(ctx context.Context, conn Connection, database, schema string) ([]model.TableInfo, error)
	GetColumns(ctx context.Context, conn Connection, database, schema, table string) ([]model.ColumnInfo, error)
	GetRoutines(ctx context.Context, conn Connection, database, schema string) ([]model.RoutineInfo, error)
}

// DatabaseRef is one entry of GetDatabases: a database name and whether
// the current credential has access to it (spec.md §4.5 "online +
// accessible" merge).
type DatabaseRef struct {
	Name      string
	HasAccess bool
}

var (
	registryMu sync.RWMutex
	registry   = map[model.Dialect]func() Driver{}
)

// Register adds a driver constructor to the registry. Called from each
// concrete driver package's init().
func Register(dialect model.Dialect, ctor func() Driver) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[dialect] = ctor
}

// Resolve looks up dialect in the registry and returns a fresh Driver
// instance.
func Resolve(dialect model.Dialect) (Driver, error) {
	registryMu.RLock()
	ctor, ok := registry[dialect]
	registryMu.RUnlock()
	if !ok {
		return nil, New(KindDriverNotFound, fmt.Sprintf("no driver registered for dialect %q", dialect), nil)
	}
	return ctor(), nil
}

// ValidateConfig checks the unified config per spec.md §4.4: file
// dialects need only Database; network dialects need Host, Username,
// Database.
func ValidateConfig(cfg model.ConnectionConfig) error {
	if cfg.Dialect.IsFile() {
		if cfg.Database == "" {
			return New(KindInvalidConfig, "database (file path) is required", nil)
		}
		return nil
	}
	var missing []string
	if cfg.Host == "" {
		missing = append(missing, "host")
	}
	if cfg.Username == "" {
		missing = append(missing, "username")
	}
	if cfg.Database == "" {
		missing = append(missing, "database")
	}
	if len(missing) > 0 {
		return Newf(KindInvalidConfig, nil, "missing required fields: %v", missing)
	}
	return nil
}

// ExpandPath expands a leading "~/" in a file-dialect database path to
// the user's home directory, per spec.md §4.4.
func ExpandPath(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/"))
}
