package command

import (
	"context"

	"github.com/dwifuady/larik/internal/model"
	"github.com/dwifuady/larik/internal/workspace"
)

// CreateTab implements the create_tab command.
func (s *Service) CreateTab(ctx context.Context, in workspace.CreateTabInput) (model.Tab, error) {
	return s.workspace.CreateTab(ctx, in)
}

// GetTab implements the get_tab command.
func (s *Service) GetTab(ctx context.Context, id string) (model.Tab, error) {
	return s.workspace.GetTab(ctx, id)
}

// GetTabsBySpace implements the get_tabs_by_space command.
func (s *Service) GetTabsBySpace(ctx context.Context, spaceID string) ([]model.Tab, error) {
	return s.workspace.GetTabsBySpace(ctx, spaceID)
}

// UpdateTab implements the update_tab command.
func (s *Service) UpdateTab(ctx context.Context, id string, in workspace.UpdateTabInput) (model.Tab, error) {
	return s.workspace.UpdateTab(ctx, id, in)
}

// UpdateTabDatabase implements the update_tab_database command.
func (s *Service) UpdateTabDatabase(ctx context.Context, id, database string) error {
	return s.workspace.UpdateTabDatabase(ctx, id, database)
}

// AutosaveTabContent implements the autosave_tab_content command.
func (s *Service) AutosaveTabContent(ctx context.Context, id, content string) error {
	return s.workspace.AutosaveTabContent(ctx, id, content)
}

// ToggleTabPinned implements the toggle_tab_pinned command.
func (s *Service) ToggleTabPinned(ctx context.Context, id string) (model.Tab, error) {
	return s.workspace.ToggleTabPinned(ctx, id)
}

// DeleteTab implements the delete_tab command.
func (s *Service) DeleteTab(ctx context.Context, id string) error {
	return s.workspace.DeleteTab(ctx, id)
}

// ReorderTabs implements the reorder_tabs command.
func (s *Service) ReorderTabs(ctx context.Context, spaceID string, tabIDs []string) error {
	return s.workspace.ReorderTabs(ctx, spaceID, tabIDs)
}

// MoveTabToSpace implements the move_tab_to_space command.
func (s *Service) MoveTabToSpace(ctx context.Context, tabID, targetSpaceID string) (model.Tab, error) {
	return s.workspace.MoveTabToSpace(ctx, tabID, targetSpaceID)
}

// SearchTabs implements the search_tabs command.
func (s *Service) SearchTabs(ctx context.Context, query string) ([]model.Tab, error) {
	return s.workspace.SearchTabs(ctx, query)
}

// TouchTab implements the touch_tab command.
func (s *Service) TouchTab(ctx context.Context, id string) error {
	return s.workspace.TouchTab(ctx, id)
}
