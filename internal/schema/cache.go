// Package schema is the schema metadata cache (C8): a process-local,
// connection+database-keyed cache of tables, columns, and routines,
// fetched through the unified connection manager's resolved driver.
//
// Grounded on the teacher's internal/introspect registry shape (the
// per-dialect Introspecter interface and Register/NewIntrospecter
// pattern); the actual catalog queries already live in each
// internal/driver/* implementation (GetTables/GetColumns/GetRoutines),
// so this package is purely the caching layer spec.md §4.7 describes,
// not a second introspecter.
package schema

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dwifuady/larik/internal/applog"
	"github.com/dwifuady/larik/internal/connmgr"
	"github.com/dwifuady/larik/internal/model"
)

// Cache is the schema metadata cache, keyed by "connection_id:database".
type Cache struct {
	mgr *connmgr.Manager
	log zerolog.Logger

	mu      sync.RWMutex
	entries map[string]model.SchemaInfo
}

// New constructs an empty Cache bound to mgr.
func New(mgr *connmgr.Manager) *Cache {
	return &Cache{
		mgr:     mgr,
		log:     applog.WithComponent("schema"),
		entries: make(map[string]model.SchemaInfo),
	}
}

func cacheKey(connectionID, database string) string {
	return connectionID + ":" + database
}

// GetSchemaInfo returns the cached entry for (connectionID, database)
// unless forceRefresh is true or no entry exists, in which case it
// fetches schemas, tables-with-columns, and routines-with-parameters
// through the resolved driver and stores the result with fetched_at=now.
func (c *Cache) GetSchemaInfo(ctx context.Context, connectionID, database string, forceRefresh bool) (model.SchemaInfo, error) {
	key := cacheKey(connectionID, database)

	if !forceRefresh {
		c.mu.RLock()
		entry, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return entry, nil
		}
	}

	d, conn, err := c.mgr.Resolve(connectionID)
	if err != nil {
		return model.SchemaInfo{}, err
	}

	schemas, err := d.GetSchemas(ctx, conn, database)
	if err != nil {
		return model.SchemaInfo{}, err
	}

	var tables []model.TableInfo
	var routines []model.RoutineInfo
	if len(schemas) == 0 {
		// Dialects with no schema concept above database (MySQL, SQLite's
		// "main") still expose tables/routines under a single implicit
		// schema, which GetTables/GetRoutines already handle when schema
		// is passed as "".
		ts, err := d.GetTables(ctx, conn, database, "")
		if err != nil {
			return model.SchemaInfo{}, err
		}
		rs, err := d.GetRoutines(ctx, conn, database, "")
		if err != nil {
			return model.SchemaInfo{}, err
		}
		tables, routines = ts, rs
	} else {
		for _, s := range schemas {
			ts, err := d.GetTables(ctx, conn, database, s)
			if err != nil {
				return model.SchemaInfo{}, err
			}
			tables = append(tables, ts...)

			rs, err := d.GetRoutines(ctx, conn, database, s)
			if err != nil {
				return model.SchemaInfo{}, err
			}
			routines = append(routines, rs...)
		}
	}

	info := model.SchemaInfo{
		DatabaseName: database,
		Schemas:      schemas,
		Tables:       tables,
		Routines:     routines,
		FetchedAt:    time.Now(),
	}

	c.mu.Lock()
	c.entries[key] = info
	c.mu.Unlock()
	return info, nil
}

// InvalidateCache clears one entry when database is non-empty, or every
// entry for connectionID when database is empty.
func (c *Cache) InvalidateCache(connectionID, database string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if database != "" {
		delete(c.entries, cacheKey(connectionID, database))
		return
	}
	prefix := connectionID + ":"
	for key := range c.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.entries, key)
		}
	}
}

// GetTableColumns short-circuits through the cache when a SchemaInfo
// entry already exists for (connectionID, database); otherwise it runs
// the focused column query directly against the driver, per spec.md
// §4.7.
func (c *Cache) GetTableColumns(ctx context.Context, connectionID, database, schemaName, table string) ([]model.ColumnInfo, error) {
	key := cacheKey(connectionID, database)
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		for _, t := range entry.Tables {
			if t.Schema == schemaName && t.Name == table {
				return t.Columns, nil
			}
		}
	}

	d, conn, err := c.mgr.Resolve(connectionID)
	if err != nil {
		return nil, err
	}
	return d.GetColumns(ctx, conn, database, schemaName, table)
}
