package queryengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitSQLServerSplitsOnGOAndSemicolons(t *testing.T) {
	script := "SELECT 1;\nSELECT 2\nGO\nSELECT 3;"
	got := splitSQLServer(script)
	assert.Equal(t, []string{"SELECT 1;", "SELECT 2", "SELECT 3;"}, got)
}

func TestSplitSQLServerTreatsDeclareAsSingleBatch(t *testing.T) {
	script := "DECLARE @x INT = 1;\nSET @x = 2;\nSELECT @x;"
	got := splitSQLServer(script)
	require := assert.New(t)
	require.Len(got, 1)
	require.Equal(script, got[0])
}

func TestSplitSQLServerIgnoresSemicolonsInStringLiterals(t *testing.T) {
	script := "SELECT 'a;b''c' AS x;"
	got := splitSQLServer(script)
	assert.Equal(t, []string{script}, got)
}

func TestSplitSQLServerEmptyScriptReturnsNil(t *testing.T) {
	assert.Nil(t, splitSQLServer("   \n  "))
}

func TestSplitPostgresSplitsOnTerminatingSemicolons(t *testing.T) {
	script := "CREATE TABLE t (id INT); INSERT INTO t VALUES (1);"
	got := splitPostgres(script)
	assert.Equal(t, []string{"CREATE TABLE t (id INT);", "INSERT INTO t VALUES (1);"}, got)
}

func TestSplitSingleNeverSplitsOnSemicolons(t *testing.T) {
	script := "CREATE TABLE t (id INT); INSERT INTO t VALUES (1);"
	got := splitSingle(script)
	assert.Equal(t, []string{script}, got)
}

func TestFirstKeywordIsCaseInsensitive(t *testing.T) {
	assert.True(t, firstKeywordIs("declare @x int", "DECLARE"))
	assert.False(t, firstKeywordIs("select 1", "DECLARE"))
}

func TestAutoExecWrapWrapsBareProcedureCall(t *testing.T) {
	assert.Equal(t, "EXEC sp_who2", autoExecWrap("sp_who2"))
}

func TestAutoExecWrapLeavesKnownStatementsAlone(t *testing.T) {
	assert.Equal(t, "SELECT * FROM t", autoExecWrap("SELECT * FROM t"))
	assert.Equal(t, "EXEC sp_who2", autoExecWrap("EXEC sp_who2"))
}

func TestAutoExecWrapLeavesClauseContainingBareCallsAlone(t *testing.T) {
	stmt := "sp_who2 WHERE spid = 1"
	assert.Equal(t, stmt, autoExecWrap(stmt))
}
