package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dwifuady/larik/internal/command"
	"github.com/dwifuady/larik/internal/export"
	"github.com/dwifuady/larik/internal/model"
	"github.com/dwifuady/larik/internal/workspace"
)

// dispatch routes one decoded request to the matching Service method,
// per the command table in spec.md §6. Each case unmarshals params
// into the narrowest struct the method needs; an unknown command name
// or malformed params surfaces as a plain error, stringified by the
// caller via command.StringifyError before it reaches the wire.
func dispatch(ctx context.Context, svc *command.Service, cmd string, params json.RawMessage) (any, error) {
	switch cmd {

	// Spaces
	case "create_space":
		var p struct {
			Input workspace.CreateSpaceInput
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.CreateSpace(ctx, p.Input)
	case "get_spaces":
		return svc.GetSpaces(ctx)
	case "get_space":
		var p struct{ ID string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.GetSpace(ctx, p.ID)
	case "update_space":
		var p struct {
			ID    string
			Input workspace.UpdateSpaceInput
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.UpdateSpace(ctx, p.ID, p.Input)
	case "delete_space":
		var p struct{ ID string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return nil, svc.DeleteSpace(ctx, p.ID)
	case "reorder_spaces":
		var p struct{ SpaceIDs []string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return nil, svc.ReorderSpaces(ctx, p.SpaceIDs)
	case "update_space_last_active_tab":
		var p struct {
			SpaceID string
			TabID   *string
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return nil, svc.UpdateSpaceLastActiveTab(ctx, p.SpaceID, p.TabID)

	// Tabs
	case "create_tab":
		var p struct{ Input workspace.CreateTabInput }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.CreateTab(ctx, p.Input)
	case "get_tab":
		var p struct{ ID string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.GetTab(ctx, p.ID)
	case "get_tabs_by_space":
		var p struct{ SpaceID string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.GetTabsBySpace(ctx, p.SpaceID)
	case "update_tab":
		var p struct {
			ID    string
			Input workspace.UpdateTabInput
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.UpdateTab(ctx, p.ID, p.Input)
	case "update_tab_database":
		var p struct{ ID, Database string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return nil, svc.UpdateTabDatabase(ctx, p.ID, p.Database)
	case "autosave_tab_content":
		var p struct{ ID, Content string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return nil, svc.AutosaveTabContent(ctx, p.ID, p.Content)
	case "toggle_tab_pinned":
		var p struct{ ID string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.ToggleTabPinned(ctx, p.ID)
	case "delete_tab":
		var p struct{ ID string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return nil, svc.DeleteTab(ctx, p.ID)
	case "reorder_tabs":
		var p struct {
			SpaceID string
			TabIDs  []string
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return nil, svc.ReorderTabs(ctx, p.SpaceID, p.TabIDs)
	case "move_tab_to_space":
		var p struct{ TabID, TargetSpaceID string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.MoveTabToSpace(ctx, p.TabID, p.TargetSpaceID)
	case "search_tabs":
		var p struct{ Query string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.SearchTabs(ctx, p.Query)
	case "touch_tab":
		var p struct{ ID string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return nil, svc.TouchTab(ctx, p.ID)

	// Folders
	case "create_folder":
		var p struct{ Input workspace.CreateFolderInput }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.CreateFolder(ctx, p.Input)
	case "get_folders_by_space":
		var p struct{ SpaceID string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.GetFoldersBySpace(ctx, p.SpaceID)
	case "update_folder":
		var p struct {
			ID    string
			Input workspace.UpdateFolderInput
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.UpdateFolder(ctx, p.ID, p.Input)
	case "delete_folder":
		var p struct{ ID string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return nil, svc.DeleteFolder(ctx, p.ID)
	case "add_tab_to_folder":
		var p struct{ TabID, FolderID string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return nil, svc.AddTabToFolder(ctx, p.TabID, p.FolderID)
	case "remove_tab_from_folder":
		var p struct{ TabID string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return nil, svc.RemoveTabFromFolder(ctx, p.TabID)
	case "reorder_folders":
		var p struct {
			SpaceID   string
			FolderIDs []string
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return nil, svc.ReorderFolders(ctx, p.SpaceID, p.FolderIDs)
	case "create_folder_from_tabs":
		var p struct {
			SpaceID string
			Name    string
			TabIDs  []string
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.CreateFolderFromTabs(ctx, p.SpaceID, p.Name, p.TabIDs)

	// Space-bound connections
	case "connect_to_space":
		var p struct{ SpaceID string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return nil, svc.ConnectToSpace(ctx, p.SpaceID)
	case "disconnect_from_space":
		var p struct{ SpaceID string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return nil, svc.DisconnectFromSpace(p.SpaceID)
	case "get_space_connection_status":
		var p struct{ SpaceID string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.GetSpaceConnectionStatus(ctx, p.SpaceID), nil
	case "get_space_databases":
		var p struct{ SpaceID string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.GetSpaceDatabases(ctx, p.SpaceID)
	case "get_space_databases_with_access":
		var p struct{ SpaceID string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.GetSpaceDatabasesWithAccess(ctx, p.SpaceID)
	case "close_tab_connection":
		var p struct{ TabID string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return nil, svc.CloseTabConnection(ctx, p.TabID)

	// Generic connections
	case "create_connection":
		var p struct{ Config model.ConnectionConfig }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return nil, svc.CreateConnection(p.Config)
	case "test_connection":
		var p struct{ Config model.ConnectionConfig }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return nil, svc.TestConnection(ctx, p.Config)
	case "get_connections":
		return svc.GetConnections(), nil
	case "get_connections_by_space":
		var p struct{ SpaceID string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.GetConnectionsBySpace(p.SpaceID), nil
	case "get_connection":
		var p struct{ ID string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		cfg, ok := svc.GetConnection(p.ID)
		if !ok {
			return nil, fmt.Errorf("connection %s not found", p.ID)
		}
		return cfg, nil
	case "update_connection":
		var p struct {
			ID    string
			Patch model.ConnectionConfig
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return nil, svc.UpdateConnection(p.ID, p.Patch)
	case "delete_connection":
		var p struct{ ID string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return nil, svc.DeleteConnection(p.ID)
	case "connect_database":
		var p struct{ ID string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return nil, svc.ConnectDatabase(ctx, p.ID)
	case "disconnect_database":
		var p struct{ ID string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return nil, svc.DisconnectDatabase(p.ID)
	case "get_connection_databases":
		var p struct{ ID string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.GetConnectionDatabases(ctx, p.ID)
	case "check_connection_health":
		var p struct{ ID string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.CheckConnectionHealth(ctx, p.ID), nil

	// Queries
	case "execute_query":
		var p struct{ ConnectionID, Script, Database string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.ExecuteQuery(ctx, p.ConnectionID, p.Script, p.Database)
	case "execute_selection":
		var p struct{ ConnectionID, Text, Database string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.ExecuteSelection(ctx, p.ConnectionID, p.Text, p.Database)
	case "cancel_query":
		var p struct{ ConnectionID, QueryID string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.CancelQuery(p.ConnectionID, p.QueryID), nil
	case "cancel_queries_for_connection":
		var p struct{ ConnectionID string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.CancelQueriesForConnection(p.ConnectionID), nil
	case "get_query_status":
		var p struct{ QueryID string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.GetQueryStatus(p.QueryID), nil

	// Schema
	case "get_schema_info":
		var p struct {
			ConnectionID, Database string
			ForceRefresh           bool
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.GetSchemaInfo(ctx, p.ConnectionID, p.Database, p.ForceRefresh)
	case "get_table_columns":
		var p struct{ ConnectionID, Database, Schema, Table string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.GetTableColumns(ctx, p.ConnectionID, p.Database, p.Schema, p.Table)
	case "refresh_schema":
		var p struct{ ConnectionID, Database string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.RefreshSchema(ctx, p.ConnectionID, p.Database)

	// Export
	case "export_to_csv":
		var p struct {
			DestPath string
			Columns  []string
			Rows     [][]model.Cell
			Options  export.Options
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.ExportToCSV(p.DestPath, p.Columns, p.Rows, p.Options)
	case "export_to_json":
		var p struct {
			DestPath string
			Columns  []string
			Rows     [][]model.Cell
			Options  export.Options
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.ExportToJSON(p.DestPath, p.Columns, p.Rows, p.Options)
	case "export_to_string":
		var p struct {
			Format  export.Format
			Columns []string
			Rows    [][]model.Cell
			Options export.Options
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.ExportToString(p.Format, p.Columns, p.Rows, p.Options)
	case "cancel_export":
		var p struct{ ExportID string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.CancelExport(p.ExportID), nil

	// Snippets
	case "get_snippets":
		return svc.GetSnippets(ctx)
	case "get_enabled_snippets":
		return svc.GetEnabledSnippets(ctx)
	case "get_snippet":
		var p struct{ ID string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.GetSnippet(ctx, p.ID)
	case "get_snippet_by_trigger":
		var p struct{ Trigger string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.GetSnippetByTrigger(ctx, p.Trigger)
	case "create_snippet":
		var p struct{ Input workspace.CreateSnippetInput }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.CreateSnippet(ctx, p.Input)
	case "update_snippet":
		var p struct {
			ID    string
			Input workspace.UpdateSnippetInput
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.UpdateSnippet(ctx, p.ID, p.Input)
	case "delete_snippet":
		var p struct{ ID string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.DeleteSnippet(ctx, p.ID)
	case "reset_builtin_snippet":
		var p struct{ ID string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.ResetBuiltinSnippet(ctx, p.ID)
	case "import_snippets":
		var p struct{ Inputs []workspace.CreateSnippetInput }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.ImportSnippets(ctx, p.Inputs)

	// Archive
	case "archive_tab":
		var p struct{ TabID string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.ArchiveTab(ctx, p.TabID)
	case "restore_archived_tab":
		var p struct{ ArchiveID, TargetSpaceID string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.RestoreArchivedTab(ctx, p.ArchiveID, p.TargetSpaceID)
	case "search_archived_tabs":
		var p struct {
			Query, SpaceID string
			Limit          int
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.SearchArchivedTabs(ctx, p.Query, p.SpaceID, p.Limit)
	case "get_archived_tabs":
		var p struct {
			SpaceID       string
			Limit, Offset int
		}
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.GetArchivedTabs(ctx, p.SpaceID, p.Limit, p.Offset)
	case "get_archived_tabs_count":
		var p struct{ SpaceID string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.GetArchivedTabsCount(ctx, p.SpaceID)
	case "delete_archived_tab":
		var p struct{ ID string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return nil, svc.DeleteArchivedTab(ctx, p.ID)

	// Settings
	case "get_app_settings":
		return svc.GetAppSettings(ctx)
	case "update_app_settings":
		var p struct{ Input workspace.AppSettingsInput }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.UpdateAppSettings(ctx, p.Input)
	case "get_auto_archive_settings":
		return svc.GetAutoArchiveSettings(ctx)
	case "update_auto_archive_settings":
		var p struct{ Input model.AutoArchiveSettings }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.UpdateAutoArchiveSettings(ctx, p.Input)

	// DB file
	case "export_database":
		var p struct{ DestinationPath string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return nil, svc.ExportDatabase(p.DestinationPath)
	case "import_database":
		var p struct{ SourcePath string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return nil, svc.ImportDatabase(p.SourcePath)

	// SQL file I/O
	case "export_tab_as_sql":
		var p struct{ TabID, FilePath string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return nil, svc.ExportTabAsSQL(ctx, p.TabID, p.FilePath)
	case "import_sql_file_as_tab":
		var p struct{ SpaceID, FilePath, Title string }
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return svc.ImportSQLFileAsTab(ctx, p.SpaceID, p.FilePath, p.Title)

	default:
		return nil, fmt.Errorf("unknown command %q", cmd)
	}
}

func unmarshal(params json.RawMessage, v any) error {
	if len(params) == 0 {
		return nil
	}
	return json.Unmarshal(params, v)
}
