package command

import (
	"context"

	"github.com/dwifuady/larik/internal/model"
)

// GetSchemaInfo implements get_schema_info.
func (s *Service) GetSchemaInfo(ctx context.Context, connectionID, database string, forceRefresh bool) (model.SchemaInfo, error) {
	return s.schemas.GetSchemaInfo(ctx, connectionID, database, forceRefresh)
}

// GetTableColumns implements get_table_columns.
func (s *Service) GetTableColumns(ctx context.Context, connectionID, database, schemaName, table string) ([]model.ColumnInfo, error) {
	return s.schemas.GetTableColumns(ctx, connectionID, database, schemaName, table)
}

// RefreshSchema implements refresh_schema: invalidates the cached entry
// and re-fetches it immediately.
func (s *Service) RefreshSchema(ctx context.Context, connectionID, database string) (model.SchemaInfo, error) {
	s.schemas.InvalidateCache(connectionID, database)
	return s.schemas.GetSchemaInfo(ctx, connectionID, database, true)
}
