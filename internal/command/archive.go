package command

import (
	"context"

	"github.com/dwifuady/larik/internal/model"
)

// ArchiveTab implements archive_tab.
func (s *Service) ArchiveTab(ctx context.Context, tabID string) (model.ArchivedTab, error) {
	return s.archive.ArchiveTab(ctx, tabID)
}

// RestoreArchivedTab implements restore_archived_tab.
func (s *Service) RestoreArchivedTab(ctx context.Context, archiveID, targetSpaceID string) (model.Tab, error) {
	return s.archive.RestoreTab(ctx, archiveID, targetSpaceID)
}

// SearchArchivedTabs implements search_archived_tabs.
func (s *Service) SearchArchivedTabs(ctx context.Context, query, spaceID string, limit int) ([]model.ArchiveSearchHit, error) {
	return s.archive.SearchArchivedTabs(ctx, query, spaceID, limit)
}

// GetArchivedTabs implements get_archived_tabs.
func (s *Service) GetArchivedTabs(ctx context.Context, spaceID string, limit, offset int) ([]model.ArchivedTab, error) {
	return s.archive.GetArchivedTabs(ctx, spaceID, limit, offset)
}

// GetArchivedTabsCount implements get_archived_tabs_count.
func (s *Service) GetArchivedTabsCount(ctx context.Context, spaceID string) (int, error) {
	return s.archive.GetArchivedTabsCount(ctx, spaceID)
}

// DeleteArchivedTab implements delete_archived_tab.
func (s *Service) DeleteArchivedTab(ctx context.Context, id string) error {
	return s.archive.DeleteArchivedTab(ctx, id)
}
