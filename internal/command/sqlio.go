package command

import (
	"context"

	"github.com/dwifuady/larik/internal/model"
)

// ExportTabAsSQL implements export_tab_as_sql(tab_id, file_path).
func (s *Service) ExportTabAsSQL(ctx context.Context, tabID, filePath string) error {
	return s.workspace.ExportTabAsSQL(ctx, tabID, filePath)
}

// ImportSQLFileAsTab implements import_sql_file_as_tab(space_id,
// file_path, title?).
func (s *Service) ImportSQLFileAsTab(ctx context.Context, spaceID, filePath, title string) (model.Tab, error) {
	return s.workspace.ImportSQLFileAsTab(ctx, spaceID, filePath, title)
}
