package command

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwifuady/larik/internal/archive"
	"github.com/dwifuady/larik/internal/connmgr"
	_ "github.com/dwifuady/larik/internal/driver/sqlite"
	"github.com/dwifuady/larik/internal/export"
	"github.com/dwifuady/larik/internal/model"
	"github.com/dwifuady/larik/internal/queryengine"
	"github.com/dwifuady/larik/internal/schema"
	"github.com/dwifuady/larik/internal/scheduler"
	"github.com/dwifuady/larik/internal/store"
	"github.com/dwifuady/larik/internal/workspace"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "larik.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ws := workspace.New(st)
	arc := archive.New(st)
	conns := connmgr.New()
	queries := queryengine.New(conns)
	schemas := schema.New(conns)
	sched := scheduler.New(arc, ws, 0)

	return New(st, ws, arc, conns, queries, schemas, sched)
}

func TestSpaceTabLifecycleThroughCommandSurface(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	space, err := svc.CreateSpace(ctx, workspace.CreateSpaceInput{Name: "Analytics"})
	require.NoError(t, err)

	tab, err := svc.CreateTab(ctx, workspace.CreateTabInput{SpaceID: space.ID, Title: "scratch", Type: model.TabQuery})
	require.NoError(t, err)

	got, err := svc.GetTab(ctx, tab.ID)
	require.NoError(t, err)
	assert.Equal(t, "scratch", got.Title)

	require.NoError(t, svc.AutosaveTabContent(ctx, tab.ID, "select 1"))
	got, err = svc.GetTab(ctx, tab.ID)
	require.NoError(t, err)
	assert.Equal(t, "select 1", got.Content)

	archived, err := svc.ArchiveTab(ctx, tab.ID)
	require.NoError(t, err)
	assert.Equal(t, tab.ID, archived.OriginalTabID)

	_, err = svc.GetTab(ctx, tab.ID)
	assert.Error(t, err, "archived tab must no longer be a live tab")

	restored, err := svc.RestoreArchivedTab(ctx, archived.ID, space.ID)
	require.NoError(t, err)
	assert.Equal(t, "scratch", restored.Title)
}

func TestConnectToSpaceAndExecuteQuery(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	dbPath := filepath.Join(t.TempDir(), "sample.db")
	space, err := svc.CreateSpace(ctx, workspace.CreateSpaceInput{
		Name: "Local",
		Connection: nil,
	})
	require.NoError(t, err)

	_, err = svc.UpdateSpace(ctx, space.ID, workspace.UpdateSpaceInput{
		Connection: &model.ConnectionConfig{
			Dialect:  model.DialectSQLite,
			Database: dbPath,
		},
	})
	require.NoError(t, err)

	require.NoError(t, svc.ConnectToSpace(ctx, space.ID))
	assert.True(t, svc.GetSpaceConnectionStatus(ctx, space.ID))

	results, err := svc.ExecuteQuery(ctx, space.ID, "CREATE TABLE t (id INTEGER)", "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Error)

	results, err = svc.ExecuteQuery(ctx, space.ID, "INSERT INTO t VALUES (1)", "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Error)

	require.NoError(t, svc.DisconnectFromSpace(space.ID))
	assert.False(t, svc.GetSpaceConnectionStatus(ctx, space.ID))
}

func TestExportToStringProducesCSVAndJSON(t *testing.T) {
	svc := newTestService(t)

	columns := []string{"id", "name"}
	rows := [][]model.Cell{{model.Int64Cell(1), model.StringCell("a")}}

	csvOut, err := svc.ExportToString("csv", columns, rows, export.DefaultOptions())
	require.NoError(t, err)
	assert.Contains(t, csvOut, "id,name")
	assert.Contains(t, csvOut, "1,a")

	jsonOut, err := svc.ExportToString("json", columns, rows, export.DefaultOptions())
	require.NoError(t, err)
	assert.Contains(t, jsonOut, `"id":1`)
	assert.Contains(t, jsonOut, `"name":"a"`)
}

func TestCancelExportOnUnknownIDReturnsFalse(t *testing.T) {
	svc := newTestService(t)
	assert.False(t, svc.CancelExport("does-not-exist"))
}

func TestCloseTabConnectionClearsSelectedDatabaseOnly(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	space, err := svc.CreateSpace(ctx, workspace.CreateSpaceInput{Name: "S"})
	require.NoError(t, err)
	tab, err := svc.CreateTab(ctx, workspace.CreateTabInput{SpaceID: space.ID, Title: "t", Type: model.TabQuery, Database: "mydb"})
	require.NoError(t, err)

	require.NoError(t, svc.CloseTabConnection(ctx, tab.ID))

	got, err := svc.GetTab(ctx, tab.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Database)
}

func TestStringifyErrorEmptyOnNil(t *testing.T) {
	assert.Equal(t, "", StringifyError(nil))
}
