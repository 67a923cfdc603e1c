package workspace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTabPrependsSortOrder(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	space, err := r.CreateSpace(ctx, CreateSpaceInput{Name: "S"})
	require.NoError(t, err)

	first, err := r.CreateTab(ctx, CreateTabInput{SpaceID: space.ID, Title: "first"})
	require.NoError(t, err)
	assert.Equal(t, 0, first.SortOrder)

	second, err := r.CreateTab(ctx, CreateTabInput{SpaceID: space.ID, Title: "second"})
	require.NoError(t, err)
	assert.Equal(t, -1, second.SortOrder)
}

func TestDeleteTabDeletesEmptyFolder(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	space, err := r.CreateSpace(ctx, CreateSpaceInput{Name: "S"})
	require.NoError(t, err)
	tab, err := r.CreateTab(ctx, CreateTabInput{SpaceID: space.ID, Title: "t"})
	require.NoError(t, err)
	folder, err := r.CreateFolder(ctx, CreateFolderInput{SpaceID: space.ID, Name: "f"})
	require.NoError(t, err)
	require.NoError(t, r.AddTabToFolder(ctx, tab.ID, folder.ID))

	require.NoError(t, r.DeleteTab(ctx, tab.ID))

	folders, err := r.GetFoldersBySpace(ctx, space.ID)
	require.NoError(t, err)
	assert.Empty(t, folders, "the emptied folder should be removed along with its last tab")
}

func TestDeleteTabKeepsNonEmptyFolder(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	space, err := r.CreateSpace(ctx, CreateSpaceInput{Name: "S"})
	require.NoError(t, err)
	tab1, err := r.CreateTab(ctx, CreateTabInput{SpaceID: space.ID, Title: "t1"})
	require.NoError(t, err)
	tab2, err := r.CreateTab(ctx, CreateTabInput{SpaceID: space.ID, Title: "t2"})
	require.NoError(t, err)
	folder, err := r.CreateFolder(ctx, CreateFolderInput{SpaceID: space.ID, Name: "f"})
	require.NoError(t, err)
	require.NoError(t, r.AddTabToFolder(ctx, tab1.ID, folder.ID))
	require.NoError(t, r.AddTabToFolder(ctx, tab2.ID, folder.ID))

	require.NoError(t, r.DeleteTab(ctx, tab1.ID))

	folders, err := r.GetFoldersBySpace(ctx, space.ID)
	require.NoError(t, err)
	assert.Len(t, folders, 1)
}

func TestSearchTabsIsCaseInsensitive(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	space, err := r.CreateSpace(ctx, CreateSpaceInput{Name: "S"})
	require.NoError(t, err)
	_, err = r.CreateTab(ctx, CreateTabInput{SpaceID: space.ID, Title: "Quarterly Report", Content: "SELECT * FROM revenue"})
	require.NoError(t, err)

	results, err := r.SearchTabs(ctx, "REVENUE")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Quarterly Report", results[0].Title)
}

func TestMoveTabToSpaceRehomesSortOrder(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	src, err := r.CreateSpace(ctx, CreateSpaceInput{Name: "src"})
	require.NoError(t, err)
	dst, err := r.CreateSpace(ctx, CreateSpaceInput{Name: "dst"})
	require.NoError(t, err)
	existing, err := r.CreateTab(ctx, CreateTabInput{SpaceID: dst.ID, Title: "existing"})
	require.NoError(t, err)
	tab, err := r.CreateTab(ctx, CreateTabInput{SpaceID: src.ID, Title: "moving"})
	require.NoError(t, err)

	moved, err := r.MoveTabToSpace(ctx, tab.ID, dst.ID)
	require.NoError(t, err)
	assert.Equal(t, dst.ID, moved.SpaceID)
	assert.Less(t, moved.SortOrder, existing.SortOrder)
}
