package command

import (
	"context"

	"github.com/dwifuady/larik/internal/model"
	"github.com/dwifuady/larik/internal/workspace"
)

// CreateSpace implements the create_space command.
func (s *Service) CreateSpace(ctx context.Context, in workspace.CreateSpaceInput) (model.Space, error) {
	return s.workspace.CreateSpace(ctx, in)
}

// GetSpaces implements the get_spaces command.
func (s *Service) GetSpaces(ctx context.Context) ([]model.Space, error) {
	return s.workspace.GetSpaces(ctx)
}

// GetSpace implements the get_space command.
func (s *Service) GetSpace(ctx context.Context, id string) (model.Space, error) {
	return s.workspace.GetSpace(ctx, id)
}

// UpdateSpace implements the update_space command.
func (s *Service) UpdateSpace(ctx context.Context, id string, in workspace.UpdateSpaceInput) (model.Space, error) {
	return s.workspace.UpdateSpace(ctx, id, in)
}

// DeleteSpace implements the delete_space command. Any live connection
// bound to the space is torn down first so the connection manager never
// outlives the space it was scoped to.
func (s *Service) DeleteSpace(ctx context.Context, id string) error {
	for _, cfg := range s.conns.GetConnectionsBySpace(id) {
		_ = s.conns.RemoveConnection(cfg.ID)
	}
	return s.workspace.DeleteSpace(ctx, id)
}

// ReorderSpaces implements the reorder_spaces command.
func (s *Service) ReorderSpaces(ctx context.Context, spaceIDs []string) error {
	return s.workspace.ReorderSpaces(ctx, spaceIDs)
}

// UpdateSpaceLastActiveTab implements the update_space_last_active_tab
// command.
func (s *Service) UpdateSpaceLastActiveTab(ctx context.Context, spaceID string, tabID *string) error {
	return s.workspace.UpdateSpaceLastActiveTab(ctx, spaceID, tabID)
}
