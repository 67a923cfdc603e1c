package command

import (
	"context"

	"github.com/dwifuady/larik/internal/model"
	"github.com/dwifuady/larik/internal/workspace"
)

// GetSnippets implements get_snippets.
func (s *Service) GetSnippets(ctx context.Context) ([]model.Snippet, error) {
	return s.workspace.GetSnippets(ctx)
}

// GetEnabledSnippets implements get_enabled_snippets.
func (s *Service) GetEnabledSnippets(ctx context.Context) ([]model.Snippet, error) {
	return s.workspace.GetEnabledSnippets(ctx)
}

// GetSnippet implements get_snippet.
func (s *Service) GetSnippet(ctx context.Context, id string) (model.Snippet, error) {
	return s.workspace.GetSnippet(ctx, id)
}

// GetSnippetByTrigger implements get_snippet_by_trigger.
func (s *Service) GetSnippetByTrigger(ctx context.Context, trigger string) (model.Snippet, error) {
	return s.workspace.GetSnippetByTrigger(ctx, trigger)
}

// CreateSnippet implements create_snippet.
func (s *Service) CreateSnippet(ctx context.Context, in workspace.CreateSnippetInput) (model.Snippet, error) {
	return s.workspace.CreateSnippet(ctx, in)
}

// UpdateSnippet implements update_snippet.
func (s *Service) UpdateSnippet(ctx context.Context, id string, in workspace.UpdateSnippetInput) (model.Snippet, error) {
	return s.workspace.UpdateSnippet(ctx, id, in)
}

// DeleteSnippet implements delete_snippet.
func (s *Service) DeleteSnippet(ctx context.Context, id string) (bool, error) {
	return s.workspace.DeleteSnippet(ctx, id)
}

// ResetBuiltinSnippet implements reset_builtin_snippet.
func (s *Service) ResetBuiltinSnippet(ctx context.Context, id string) (model.Snippet, error) {
	return s.workspace.ResetBuiltinSnippet(ctx, id)
}

// ImportSnippets implements import_snippets.
func (s *Service) ImportSnippets(ctx context.Context, inputs []workspace.CreateSnippetInput) (int, error) {
	return s.workspace.ImportSnippets(ctx, inputs)
}
