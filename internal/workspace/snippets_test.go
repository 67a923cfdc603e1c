package workspace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedBuiltinSnippetsIsIdempotent(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	first, err := r.SeedBuiltinSnippets(ctx)
	require.NoError(t, err)
	assert.Equal(t, 35, first)

	second, err := r.SeedBuiltinSnippets(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second, "re-seeding must not duplicate builtins")

	all, err := r.GetSnippets(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 35)
}

func TestDeleteSnippetRefusesBuiltins(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	_, err := r.SeedBuiltinSnippets(ctx)
	require.NoError(t, err)

	builtin, err := r.GetSnippetByTrigger(ctx, "sel")
	require.NoError(t, err)

	deleted, err := r.DeleteSnippet(ctx, builtin.ID)
	require.NoError(t, err)
	assert.False(t, deleted, "deleting a builtin should report false, not error")

	still, err := r.GetSnippet(ctx, builtin.ID)
	require.NoError(t, err)
	assert.Equal(t, builtin.ID, still.ID)
}

func TestDeleteSnippetRemovesUserSnippet(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	snippet, err := r.CreateSnippet(ctx, CreateSnippetInput{Trigger: "mysnip", Name: "Mine", Content: "SELECT 1"})
	require.NoError(t, err)

	deleted, err := r.DeleteSnippet(ctx, snippet.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = r.GetSnippet(ctx, snippet.ID)
	assert.Error(t, err)
}

func TestResetBuiltinSnippetRestoresFactoryContent(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	_, err := r.SeedBuiltinSnippets(ctx)
	require.NoError(t, err)

	builtin, err := r.GetSnippetByTrigger(ctx, "sel")
	require.NoError(t, err)
	originalContent := builtin.Content

	newName := "Tampered"
	newContent := "DROP TABLE everything"
	_, err = r.UpdateSnippet(ctx, builtin.ID, UpdateSnippetInput{Name: &newName, Content: &newContent})
	require.NoError(t, err)

	restored, err := r.ResetBuiltinSnippet(ctx, builtin.ID)
	require.NoError(t, err)
	assert.Equal(t, originalContent, restored.Content)
	assert.Equal(t, builtin.Name, restored.Name)
}

func TestImportSnippetsSkipsExistingTriggers(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	_, err := r.CreateSnippet(ctx, CreateSnippetInput{Trigger: "dup", Name: "Original", Content: "SELECT 1"})
	require.NoError(t, err)

	inserted, err := r.ImportSnippets(ctx, []CreateSnippetInput{
		{Trigger: "dup", Name: "Imported", Content: "SELECT 2"},
		{Trigger: "fresh", Name: "Fresh", Content: "SELECT 3"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
}

func TestExpandSnippetSubstitutesPlaceholdersAndCursor(t *testing.T) {
	text, cursor := ExpandSnippet("SELECT TOP ${1:100} * FROM ${2:table} WHERE ${cursor}", map[int]string{2: "users"})
	assert.Equal(t, "SELECT TOP 100 * FROM users WHERE ", text)
	assert.Equal(t, len(text), cursor)
}

func TestExpandSnippetWithoutCursorReturnsEndOffset(t *testing.T) {
	text, cursor := ExpandSnippet("SELECT * FROM ${1:table}", nil)
	assert.Equal(t, "SELECT * FROM table", text)
	assert.Equal(t, len(text), cursor)
}
