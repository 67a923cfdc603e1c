package workspace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFolderFromTabsIsAtomic(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	space, err := r.CreateSpace(ctx, CreateSpaceInput{Name: "S"})
	require.NoError(t, err)
	tab, err := r.CreateTab(ctx, CreateTabInput{SpaceID: space.ID, Title: "t"})
	require.NoError(t, err)

	_, err = r.CreateFolderFromTabs(ctx, space.ID, "Grouped", []string{tab.ID, "missing-tab-id"})
	assert.Error(t, err, "a nonexistent tab id should fail the whole operation")

	folders, err := r.GetFoldersBySpace(ctx, space.ID)
	require.NoError(t, err)
	assert.Empty(t, folders, "the folder must not exist when any contained tab update fails")

	refetched, err := r.GetTab(ctx, tab.ID)
	require.NoError(t, err)
	assert.Nil(t, refetched.FolderID, "the valid tab must not have been attached to a rolled-back folder")
}

func TestCreateFolderFromTabsSucceeds(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	space, err := r.CreateSpace(ctx, CreateSpaceInput{Name: "S"})
	require.NoError(t, err)
	tab1, err := r.CreateTab(ctx, CreateTabInput{SpaceID: space.ID, Title: "t1"})
	require.NoError(t, err)
	tab2, err := r.CreateTab(ctx, CreateTabInput{SpaceID: space.ID, Title: "t2"})
	require.NoError(t, err)

	folder, err := r.CreateFolderFromTabs(ctx, space.ID, "Grouped", []string{tab1.ID, tab2.ID})
	require.NoError(t, err)

	t1, err := r.GetTab(ctx, tab1.ID)
	require.NoError(t, err)
	require.NotNil(t, t1.FolderID)
	assert.Equal(t, folder.ID, *t1.FolderID)
	assert.True(t, t1.IsPinned)
}

func TestRemoveTabFromFolderDeletesWhenEmpty(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	space, err := r.CreateSpace(ctx, CreateSpaceInput{Name: "S"})
	require.NoError(t, err)
	tab, err := r.CreateTab(ctx, CreateTabInput{SpaceID: space.ID, Title: "t"})
	require.NoError(t, err)
	folder, err := r.CreateFolder(ctx, CreateFolderInput{SpaceID: space.ID, Name: "f"})
	require.NoError(t, err)
	require.NoError(t, r.AddTabToFolder(ctx, tab.ID, folder.ID))

	require.NoError(t, r.RemoveTabFromFolder(ctx, tab.ID))

	folders, err := r.GetFoldersBySpace(ctx, space.ID)
	require.NoError(t, err)
	assert.Empty(t, folders)
}

func TestCreateFolderPrependsSortOrder(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	space, err := r.CreateSpace(ctx, CreateSpaceInput{Name: "S"})
	require.NoError(t, err)

	first, err := r.CreateFolder(ctx, CreateFolderInput{SpaceID: space.ID, Name: "first"})
	require.NoError(t, err)
	second, err := r.CreateFolder(ctx, CreateFolderInput{SpaceID: space.ID, Name: "second"})
	require.NoError(t, err)

	assert.Less(t, second.SortOrder, first.SortOrder)
}
