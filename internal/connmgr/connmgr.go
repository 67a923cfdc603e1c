// Package connmgr is the unified connection manager (C6): it routes by a
// connection id to the right dialect driver and holds that dialect's
// live Connection, without the caller needing to know which dialect it
// is. Grounded on the teacher's dialect-registry lookup pattern
// (internal/introspect.go's NewIntrospecter), generalized from a
// stateless lookup to a stateful per-id connection cache.
package connmgr

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dwifuady/larik/internal/applog"
	"github.com/dwifuady/larik/internal/driver"
	"github.com/dwifuady/larik/internal/metrics"
	"github.com/dwifuady/larik/internal/model"
)

// poolSizeByDialect mirrors the bounded pool sizes each network driver
// configures internally (spec.md §4.5: SQL Server 5, Postgres 10),
// reported here only as a gauge label since the manager itself never
// owns the pool.
var poolSizeByDialect = map[model.Dialect]float64{
	model.DialectMSSQL:    5,
	model.DialectPostgres: 10,
}

// Manager holds a connection_id -> dialect map plus one live Connection
// and resolved driver per connected id. Drivers themselves are
// constructed once per dialect and reused (each pools internally by
// connection id), matching spec.md §4.5's "subordinate per-dialect
// managers" without literally splitting into three manager types, since
// internal/driver's registry already gives the per-dialect isolation.
type Manager struct {
	log zerolog.Logger

	mu      sync.RWMutex
	configs map[string]model.ConnectionConfig
	conns   map[string]driver.Connection
	drivers map[model.Dialect]driver.Driver
}

// New constructs an empty Manager.
func New() *Manager {
	return &Manager{
		log:     applog.WithComponent("connmgr"),
		configs: make(map[string]model.ConnectionConfig),
		conns:   make(map[string]driver.Connection),
		drivers: make(map[model.Dialect]driver.Driver),
	}
}

func (m *Manager) driverFor(dialect model.Dialect) (driver.Driver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.drivers[dialect]; ok {
		return d, nil
	}
	d, err := driver.Resolve(dialect)
	if err != nil {
		return nil, err
	}
	m.drivers[dialect] = d
	return d, nil
}

// AddConnection validates and registers a connection descriptor without
// opening a live connection. Calling Connect(id) later performs the
// actual dial.
func (m *Manager) AddConnection(cfg model.ConnectionConfig) error {
	if err := driver.ValidateConfig(cfg); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[cfg.ID] = cfg
	return nil
}

// Connect dials the connection identified by id, which must have been
// previously registered via AddConnection.
func (m *Manager) Connect(ctx context.Context, id string) error {
	m.mu.RLock()
	cfg, ok := m.configs[id]
	m.mu.RUnlock()
	if !ok {
		return driver.New(driver.KindConnectionNotFound, "unknown connection id "+id, nil)
	}

	d, err := m.driverFor(cfg.Dialect)
	if err != nil {
		return err
	}

	conn, err := d.Connect(ctx, cfg)
	if err != nil {
		metrics.ConnectErrorsTotal.WithLabelValues(string(cfg.Dialect)).Inc()
		return err
	}

	m.mu.Lock()
	m.conns[id] = conn
	m.mu.Unlock()

	metrics.ConnectionsOpen.WithLabelValues(string(cfg.Dialect)).Inc()
	if size, ok := poolSizeByDialect[cfg.Dialect]; ok {
		metrics.PoolSize.WithLabelValues(string(cfg.Dialect)).Set(size)
	}
	return nil
}

// Disconnect closes and forgets the live Connection for id, if any. The
// descriptor added via AddConnection is left in place so Connect can
// re-dial later.
func (m *Manager) Disconnect(id string) error {
	m.mu.Lock()
	conn, ok := m.conns[id]
	cfg := m.configs[id]
	delete(m.conns, id)
	m.mu.Unlock()
	if !ok {
		return nil
	}
	metrics.ConnectionsOpen.WithLabelValues(string(cfg.Dialect)).Dec()
	return conn.Close()
}

// RemoveConnection disconnects and forgets the descriptor entirely.
func (m *Manager) RemoveConnection(id string) error {
	if err := m.Disconnect(id); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.configs, id)
	m.mu.Unlock()
	return nil
}

// IsHealthy pings the live connection for id, if connected.
func (m *Manager) IsHealthy(ctx context.Context, id string) bool {
	m.mu.RLock()
	conn, ok := m.conns[id]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	return conn.Ping(ctx) == nil
}

// ListConnections returns every registered descriptor, passwords
// redacted.
func (m *Manager) ListConnections() []model.ConnectionConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.ConnectionConfig, 0, len(m.configs))
	for _, cfg := range m.configs {
		out = append(out, cfg.Redacted())
	}
	return out
}

// GetConnectionsBySpace returns every descriptor whose SpaceID matches.
func (m *Manager) GetConnectionsBySpace(spaceID string) []model.ConnectionConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.ConnectionConfig
	for _, cfg := range m.configs {
		if cfg.SpaceID != nil && *cfg.SpaceID == spaceID {
			out = append(out, cfg.Redacted())
		}
	}
	return out
}

// GetDatabases lists databases for id's dialect per spec.md §4.5: SQL
// Server online+accessible, SQLite a single-entry list, Postgres the
// full pg_database/has_database_privilege join, MySQL SHOW DATABASES.
func (m *Manager) GetDatabases(ctx context.Context, id string) ([]driver.DatabaseRef, error) {
	d, conn, err := m.resolve(id)
	if err != nil {
		return nil, err
	}
	return d.GetDatabases(ctx, conn)
}

// UpdateConnection applies patch fields to an existing descriptor.
// Non-SQL-Server dialects reject the update with InvalidConfig per
// spec.md §4.5 ("SQL Server supported; other dialects may reject").
func (m *Manager) UpdateConnection(id string, patch model.ConnectionConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.configs[id]
	if !ok {
		return driver.New(driver.KindConnectionNotFound, "unknown connection id "+id, nil)
	}
	if cfg.Dialect != model.DialectMSSQL {
		return driver.New(driver.KindInvalidConfig, "connection updates are only supported for mssql", nil)
	}
	if patch.Host != "" {
		cfg.Host = patch.Host
	}
	if patch.Port != 0 {
		cfg.Port = patch.Port
	}
	if patch.Database != "" {
		cfg.Database = patch.Database
	}
	if patch.Username != "" {
		cfg.Username = patch.Username
	}
	if patch.Password != "" {
		cfg.Password = patch.Password
	}
	cfg.MSSQLEncrypt = patch.MSSQLEncrypt
	cfg.MSSQLTrustCert = patch.MSSQLTrustCert
	m.configs[id] = cfg
	return nil
}

// resolve returns the dialect driver and live Connection for id, used by
// the query engine and schema cache.
func (m *Manager) resolve(id string) (driver.Driver, driver.Connection, error) {
	m.mu.RLock()
	cfg, hasCfg := m.configs[id]
	conn, hasConn := m.conns[id]
	m.mu.RUnlock()
	if !hasCfg {
		return nil, nil, driver.New(driver.KindConnectionNotFound, "unknown connection id "+id, nil)
	}
	if !hasConn {
		return nil, nil, driver.New(driver.KindConnectionNotFound, "connection "+id+" is not connected", nil)
	}
	d, err := m.driverFor(cfg.Dialect)
	if err != nil {
		return nil, nil, err
	}
	return d, conn, nil
}

// Resolve is the exported form of resolve, used by the query engine and
// schema cache, which live in other packages.
func (m *Manager) Resolve(id string) (driver.Driver, driver.Connection, error) {
	return m.resolve(id)
}

// Config returns the registered descriptor for id, if any.
func (m *Manager) Config(id string) (model.ConnectionConfig, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, ok := m.configs[id]
	return cfg, ok
}
