package queryengine_test

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
)

func newTestEngine(t *testing.T) (*queryengine.Engine, *connmgr.Manager, string) {
	t.Helper()
	mgr := connmgr.New()
	cfg := model.ConnectionConfig{
		ID:       "c1",
		Dialect:  model.DialectSQLite,
		Database: filepath.Join(t.TempDir(), "sample.db"),
	}
	require.NoError(t, mgr.AddConnection(cfg))
	require.NoError(t, mgr.Connect(context.Background(), "c1"))
	return queryengine.New(mgr), mgr, "c1"
}

func TestExecuteRunsEachStatementAndReportsSuccess(t *testing.T) {
	e, _, connID := newTestEngine(t)
	ctx := context.Background()

	results, err := e.Execute(ctx, connID, "CREATE TABLE t (id INTEGER)", "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Error)
	assert.True(t, results[0].IsComplete)
}

func TestExecuteOnUnknownConnectionIsConnectionLevel(t *testing.T) {
	e, _, _ := newTestEngine(t)
	_, err := e.Execute(context.Background(), "does-not-exist", "SELECT 1", "")
	require.Error(t, err)
}

func TestExecuteFoldsStatementErrorIntoResultNotBatchError(t *testing.T) {
	e, _, connID := newTestEngine(t)
	ctx := context.Background()

	results, err := e.Execute(ctx, connID, "SELECT * FROM no_such_table", "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.NotEmpty(t, results[0].Error)
}

func TestExecuteSelectionMarksResultAsSelection(t *testing.T) {
	e, _, connID := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, exec(e, ctx, connID, "CREATE TABLE t (id INTEGER)"))

	result, err := e.ExecuteSelection(ctx, connID, "SELECT * FROM t", "")
	require.NoError(t, err)
	assert.True(t, result.IsSelection)
}

func TestGetStatusDefaultsToCompletedForUnknownQuery(t *testing.T) {
	e, _, _ := newTestEngine(t)
	assert.Equal(t, model.QueryCompleted, e.Status("never-existed"))
}

func TestCancelQueryOnUnknownIDReturnsFalse(t *testing.T) {
	e, _, connID := newTestEngine(t)
	assert.False(t, e.CancelQuery(connID, "unknown"))
}

func TestCancelAllForConnectionWithNoActiveQueriesReturnsZero(t *testing.T) {
	e, _, connID := newTestEngine(t)
	assert.Equal(t, 0, e.CancelAllForConnection(connID))
}

func exec(e *queryengine.Engine, ctx context.Context, connID, stmt string) error {
	_, err := e.Execute(ctx, connID, stmt, "")
	return err
}
