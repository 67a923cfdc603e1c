package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportTabAsSQLWritesContent(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	space, err := r.CreateSpace(ctx, CreateSpaceInput{Name: "S"})
	require.NoError(t, err)
	tab, err := r.CreateTab(ctx, CreateTabInput{SpaceID: space.ID, Title: "t", Content: "SELECT 1"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.sql")
	require.NoError(t, r.ExportTabAsSQL(ctx, tab.ID, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", string(data))
}

func TestImportSQLFileAsTabUsesFileNameWhenTitleEmpty(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	space, err := r.CreateSpace(ctx, CreateSpaceInput{Name: "S"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "monthly_report.sql")
	require.NoError(t, os.WriteFile(path, []byte("SELECT * FROM sales"), 0o644))

	tab, err := r.ImportSQLFileAsTab(ctx, space.ID, path, "")
	require.NoError(t, err)
	assert.Equal(t, "monthly_report", tab.Title)
	assert.Equal(t, "SELECT * FROM sales", tab.Content)
}
