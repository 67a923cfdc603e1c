package command

import (
	"context"

	"github.com/dwifuady/larik/internal/model"
	"github.com/dwifuady/larik/internal/workspace"
)

// GetAppSettings implements get_app_settings.
func (s *Service) GetAppSettings(ctx context.Context) (model.AppSettings, error) {
	return s.workspace.GetAppSettings(ctx)
}

// UpdateAppSettings implements update_app_settings.
func (s *Service) UpdateAppSettings(ctx context.Context, in workspace.AppSettingsInput) (model.AppSettings, error) {
	return s.workspace.UpdateAppSettings(ctx, in)
}

// GetAutoArchiveSettings implements get_auto_archive_settings.
func (s *Service) GetAutoArchiveSettings(ctx context.Context) (model.AutoArchiveSettings, error) {
	return s.workspace.GetAutoArchiveSettings(ctx)
}

// UpdateAutoArchiveSettings implements update_auto_archive_settings.
func (s *Service) UpdateAutoArchiveSettings(ctx context.Context, in model.AutoArchiveSettings) (model.AppSettings, error) {
	return s.workspace.UpdateAutoArchiveSettings(ctx, in)
}
