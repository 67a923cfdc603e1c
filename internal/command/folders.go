package command

import (
	"context"

	"github.com/dwifuady/larik/internal/model"
	"github.com/dwifuady/larik/internal/workspace"
)

// CreateFolder implements the create_folder command.
func (s *Service) CreateFolder(ctx context.Context, in workspace.CreateFolderInput) (model.Folder, error) {
	return s.workspace.CreateFolder(ctx, in)
}

// GetFoldersBySpace implements the get_folders_by_space command.
func (s *Service) GetFoldersBySpace(ctx context.Context, spaceID string) ([]model.Folder, error) {
	return s.workspace.GetFoldersBySpace(ctx, spaceID)
}

// UpdateFolder implements the update_folder command.
func (s *Service) UpdateFolder(ctx context.Context, id string, in workspace.UpdateFolderInput) (model.Folder, error) {
	return s.workspace.UpdateFolder(ctx, id, in)
}

// DeleteFolder implements the delete_folder command.
func (s *Service) DeleteFolder(ctx context.Context, id string) error {
	return s.workspace.DeleteFolder(ctx, id)
}

// AddTabToFolder implements the add_tab_to_folder command.
func (s *Service) AddTabToFolder(ctx context.Context, tabID, folderID string) error {
	return s.workspace.AddTabToFolder(ctx, tabID, folderID)
}

// RemoveTabFromFolder implements the remove_tab_from_folder command.
func (s *Service) RemoveTabFromFolder(ctx context.Context, tabID string) error {
	return s.workspace.RemoveTabFromFolder(ctx, tabID)
}

// ReorderFolders implements the reorder_folders command.
func (s *Service) ReorderFolders(ctx context.Context, spaceID string, folderIDs []string) error {
	return s.workspace.ReorderFolders(ctx, spaceID, folderIDs)
}

// CreateFolderFromTabs implements the create_folder_from_tabs command.
func (s *Service) CreateFolderFromTabs(ctx context.Context, spaceID, name string, tabIDs []string) (model.Folder, error) {
	return s.workspace.CreateFolderFromTabs(ctx, spaceID, name, tabIDs)
}
