package schema_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwifuady/larik/internal/connmgr"
	_ "github.com/dwifuady/larik/internal/driver/sqlite"
	"github.com/dwifuady/larik/internal/model"
	"github.com/dwifuady/larik/internal/queryengine"
	"github.com/dwifuady/larik/internal/schema"
)

func newTestCache(t *testing.T) (*schema.Cache, *queryengine.Engine, string) {
	t.Helper()
	mgr := connmgr.New()
	cfg := model.ConnectionConfig{
		ID:       "c1",
		Dialect:  model.DialectSQLite,
		Database: filepath.Join(t.TempDir(), "sample.db"),
	}
	require.NoError(t, mgr.AddConnection(cfg))
	require.NoError(t, mgr.Connect(context.Background(), "c1"))

	qe := queryengine.New(mgr)
	_, err := qe.Execute(context.Background(), "c1", "CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT)", "")
	require.NoError(t, err)

	return schema.New(mgr), qe, "c1"
}

func TestGetSchemaInfoDiscoversCreatedTable(t *testing.T) {
	cache, _, connID := newTestCache(t)

	info, err := cache.GetSchemaInfo(context.Background(), connID, "main.db", false)
	require.NoError(t, err)
	require.Len(t, info.Tables, 1)
	assert.Equal(t, "widgets", info.Tables[0].Name)
	require.Len(t, info.Tables[0].Columns, 2)
}

func TestGetSchemaInfoCachesUntilForceRefresh(t *testing.T) {
	cache, qe, connID := newTestCache(t)
	ctx := context.Background()

	first, err := cache.GetSchemaInfo(ctx, connID, "main.db", false)
	require.NoError(t, err)
	require.Len(t, first.Tables, 1)

	_, err = qe.Execute(ctx, connID, "CREATE TABLE gizmos (id INTEGER)", "")
	require.NoError(t, err)

	cached, err := cache.GetSchemaInfo(ctx, connID, "main.db", false)
	require.NoError(t, err)
	assert.Len(t, cached.Tables, 1, "cached entry must not reflect the new table yet")

	refreshed, err := cache.GetSchemaInfo(ctx, connID, "main.db", true)
	require.NoError(t, err)
	assert.Len(t, refreshed.Tables, 2)
}

func TestInvalidateCacheForcesRefetch(t *testing.T) {
	cache, qe, connID := newTestCache(t)
	ctx := context.Background()

	_, err := cache.GetSchemaInfo(ctx, connID, "main.db", false)
	require.NoError(t, err)

	_, err = qe.Execute(ctx, connID, "CREATE TABLE gizmos (id INTEGER)", "")
	require.NoError(t, err)

	cache.InvalidateCache(connID, "main.db")

	refreshed, err := cache.GetSchemaInfo(ctx, connID, "main.db", false)
	require.NoError(t, err)
	assert.Len(t, refreshed.Tables, 2)
}

func TestGetTableColumnsUsesCacheWhenPresent(t *testing.T) {
	cache, _, connID := newTestCache(t)
	ctx := context.Background()

	_, err := cache.GetSchemaInfo(ctx, connID, "main.db", false)
	require.NoError(t, err)

	cols, err := cache.GetTableColumns(ctx, connID, "main.db", "", "widgets")
	require.NoError(t, err)
	require.Len(t, cols, 2)
}

func TestGetTableColumnsFallsBackToDriverWithoutCacheEntry(t *testing.T) {
	cache, _, connID := newTestCache(t)

	cols, err := cache.GetTableColumns(context.Background(), connID, "main.db", "", "widgets")
	require.NoError(t, err)
	require.Len(t, cols, 2)
}

func TestGetSchemaInfoUnknownConnectionFails(t *testing.T) {
	cache := schema.New(connmgr.New())
	_, err := cache.GetSchemaInfo(context.Background(), "missing", "main.db", false)
	require.Error(t, err)
}
