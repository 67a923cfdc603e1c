package workspace

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dwifuady/larik/internal/model"
)

// appSettingsKey is the single app_state row the whole AppSettings struct
// is marshalled under, mirroring the original's single-document settings
// file rather than exploding it into one row per field.
const appSettingsKey = "app_settings"

// GetAppSettings returns the persisted settings, or the factory defaults
// if none have been saved yet.
func (r *Repository) GetAppSettings(ctx context.Context) (model.AppSettings, error) {
	var value string
	err := r.db.DB().QueryRowContext(ctx,
		`SELECT value FROM app_state WHERE key = ?`, appSettingsKey,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return model.DefaultAppSettings(), nil
	}
	if err != nil {
		return model.AppSettings{}, err
	}
	var settings model.AppSettings
	if err := json.Unmarshal([]byte(value), &settings); err != nil {
		return model.AppSettings{}, fmt.Errorf("decode app settings: %w", err)
	}
	return settings, nil
}

// UpdateAppSettings merges non-nil fields from in into the persisted
// settings and saves the result.
func (r *Repository) UpdateAppSettings(ctx context.Context, in AppSettingsInput) (model.AppSettings, error) {
	settings, err := r.GetAppSettings(ctx)
	if err != nil {
		return model.AppSettings{}, err
	}
	if in.ValidationEnabled != nil {
		settings.ValidationEnabled = *in.ValidationEnabled
	}
	if in.LastSpaceID != nil {
		settings.LastSpaceID = *in.LastSpaceID
	}
	if in.LastTabID != nil {
		settings.LastTabID = *in.LastTabID
	}
	if in.EnableStickyNotes != nil {
		settings.EnableStickyNotes = *in.EnableStickyNotes
	}
	if in.MaxResultRows != nil {
		settings.MaxResultRows = *in.MaxResultRows
	}
	if in.HistoryRetentionDays != nil {
		settings.HistoryRetentionDays = *in.HistoryRetentionDays
	}
	if err := r.saveAppSettings(ctx, settings); err != nil {
		return model.AppSettings{}, err
	}
	return settings, nil
}

// AppSettingsInput is a partial update for UpdateAppSettings; nil fields
// are left unchanged.
type AppSettingsInput struct {
	ValidationEnabled    *bool
	LastSpaceID          **string
	LastTabID            **string
	EnableStickyNotes    *bool
	MaxResultRows        *int
	HistoryRetentionDays *int
}

// GetAutoArchiveSettings returns just the auto-archive sub-section of
// the settings bag, used by the get_auto_archive_settings command.
func (r *Repository) GetAutoArchiveSettings(ctx context.Context) (model.AutoArchiveSettings, error) {
	settings, err := r.GetAppSettings(ctx)
	if err != nil {
		return model.AutoArchiveSettings{}, err
	}
	return settings.AutoArchive, nil
}

// UpdateAutoArchiveSettings replaces the auto-archive sub-section.
func (r *Repository) UpdateAutoArchiveSettings(ctx context.Context, in model.AutoArchiveSettings) (model.AppSettings, error) {
	settings, err := r.GetAppSettings(ctx)
	if err != nil {
		return model.AppSettings{}, err
	}
	settings.AutoArchive = in
	if err := r.saveAppSettings(ctx, settings); err != nil {
		return model.AppSettings{}, err
	}
	return settings, nil
}

func (r *Repository) saveAppSettings(ctx context.Context, settings model.AppSettings) error {
	encoded, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode app settings: %w", err)
	}
	return r.db.WithWriteTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO app_state (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			appSettingsKey, string(encoded), nowRFC3339(),
		)
		return err
	})
}
