package workspace

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwifuady/larik/internal/model"
	"github.com/dwifuady/larik/internal/store"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "larik.db")
	s, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s)
}

func TestCreateSpaceAssignsAppendSortOrder(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	first, err := r.CreateSpace(ctx, CreateSpaceInput{Name: "Alpha"})
	require.NoError(t, err)
	assert.Equal(t, 0, first.SortOrder)

	second, err := r.CreateSpace(ctx, CreateSpaceInput{Name: "Beta"})
	require.NoError(t, err)
	assert.Equal(t, 1, second.SortOrder)
}

func TestCreateSpaceRedactsConnectionPassword(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	space, err := r.CreateSpace(ctx, CreateSpaceInput{
		Name: "Prod",
		Connection: &model.ConnectionConfig{
			Name:     "prod-db",
			Dialect:  model.DialectPostgres,
			Host:     "db.internal",
			Port:     5432,
			Database: "app",
			Username: "admin",
			Password: "s3cret",
		},
	})
	require.NoError(t, err)
	require.NotNil(t, space.Connection)
	assert.Empty(t, space.Connection.Password)

	fetched, err := r.GetSpace(ctx, space.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.Connection)
	assert.Empty(t, fetched.Connection.Password)
}

func TestGetSpacePasswordReturnsRawPassword(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	space, err := r.CreateSpace(ctx, CreateSpaceInput{
		Name: "Prod",
		Connection: &model.ConnectionConfig{
			Name:     "prod-db",
			Dialect:  model.DialectPostgres,
			Password: "s3cret",
		},
	})
	require.NoError(t, err)

	password, err := r.GetSpacePassword(ctx, space.ID)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", password)
}

func TestDeleteSpaceCascadesTabsAndFolders(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	space, err := r.CreateSpace(ctx, CreateSpaceInput{Name: "Temp"})
	require.NoError(t, err)
	tab, err := r.CreateTab(ctx, CreateTabInput{SpaceID: space.ID, Title: "t1"})
	require.NoError(t, err)
	folder, err := r.CreateFolder(ctx, CreateFolderInput{SpaceID: space.ID, Name: "f1"})
	require.NoError(t, err)

	require.NoError(t, r.DeleteSpace(ctx, space.ID))

	_, err = r.GetTab(ctx, tab.ID)
	assert.Error(t, err)
	folders, err := r.GetFoldersBySpace(ctx, space.ID)
	require.NoError(t, err)
	assert.Empty(t, folders)
	_ = folder
}

func TestReorderSpacesRewritesSortOrder(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	a, err := r.CreateSpace(ctx, CreateSpaceInput{Name: "A"})
	require.NoError(t, err)
	b, err := r.CreateSpace(ctx, CreateSpaceInput{Name: "B"})
	require.NoError(t, err)

	require.NoError(t, r.ReorderSpaces(ctx, []string{b.ID, a.ID}))

	spaces, err := r.GetSpaces(ctx)
	require.NoError(t, err)
	require.Len(t, spaces, 2)
	assert.Equal(t, b.ID, spaces[0].ID)
	assert.Equal(t, a.ID, spaces[1].ID)
}
