package command

import (
	"context"

	"github.com/dwifuady/larik/internal/driver"
	"github.com/dwifuady/larik/internal/model"
)

// ConnectToSpace implements connect_to_space: it registers and dials the
// Space's embedded ConnectionConfig, using the Space's own id as the
// connection manager's id since a Space carries at most one connection.
func (s *Service) ConnectToSpace(ctx context.Context, spaceID string) error {
	space, err := s.workspace.GetSpace(ctx, spaceID)
	if err != nil {
		return err
	}
	if !space.HasConnection() {
		return driver.New(driver.KindInvalidConfig, "space "+spaceID+" has no connection configured", nil)
	}
	cfg := *space.Connection
	cfg.ID = spaceID
	cfg.SpaceID = &spaceID
	if err := s.conns.AddConnection(cfg); err != nil {
		return err
	}
	return s.conns.Connect(ctx, spaceID)
}

// DisconnectFromSpace implements disconnect_from_space: tears down the
// whole space connection, as distinct from CloseTabConnection which only
// clears one tab's selected database.
func (s *Service) DisconnectFromSpace(spaceID string) error {
	return s.conns.Disconnect(spaceID)
}

// GetSpaceConnectionStatus implements get_space_connection_status.
func (s *Service) GetSpaceConnectionStatus(ctx context.Context, spaceID string) bool {
	return s.conns.IsHealthy(ctx, spaceID)
}

// GetSpaceDatabases implements get_space_databases: the plain database
// name list, ignoring per-database accessibility.
func (s *Service) GetSpaceDatabases(ctx context.Context, spaceID string) ([]string, error) {
	refs, err := s.conns.GetDatabases(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(refs))
	for i, r := range refs {
		names[i] = r.Name
	}
	return names, nil
}

// GetSpaceDatabasesWithAccess implements get_space_databases_with_access:
// the full online+accessible DatabaseRef list, per spec.md §4.5.
func (s *Service) GetSpaceDatabasesWithAccess(ctx context.Context, spaceID string) ([]driver.DatabaseRef, error) {
	return s.conns.GetDatabases(ctx, spaceID)
}

// CloseTabConnection implements the supplemented close_tab_connection
// command (SPEC_FULL.md §6): it clears the tab's selected database
// without tearing down the space's live connection, and is a no-op if
// the tab has no database selected.
func (s *Service) CloseTabConnection(ctx context.Context, tabID string) error {
	tab, err := s.workspace.GetTab(ctx, tabID)
	if err != nil {
		return err
	}
	if tab.Database == "" {
		return nil
	}
	return s.workspace.UpdateTabDatabase(ctx, tabID, "")
}

// CreateConnection implements create_connection.
func (s *Service) CreateConnection(cfg model.ConnectionConfig) error {
	return s.conns.AddConnection(cfg)
}

// TestConnection implements test_connection: validates and attempts a
// transient dial through the resolved dialect driver without registering
// the descriptor.
func (s *Service) TestConnection(ctx context.Context, cfg model.ConnectionConfig) error {
	if err := driver.ValidateConfig(cfg); err != nil {
		return err
	}
	d, err := driver.Resolve(cfg.Dialect)
	if err != nil {
		return err
	}
	return d.TestConnection(ctx, cfg)
}

// GetConnections implements get_connections.
func (s *Service) GetConnections() []model.ConnectionConfig {
	return s.conns.ListConnections()
}

// GetConnectionsBySpace implements get_connections_by_space.
func (s *Service) GetConnectionsBySpace(spaceID string) []model.ConnectionConfig {
	return s.conns.GetConnectionsBySpace(spaceID)
}

// GetConnection implements get_connection.
func (s *Service) GetConnection(id string) (model.ConnectionConfig, bool) {
	cfg, ok := s.conns.Config(id)
	return cfg.Redacted(), ok
}

// UpdateConnection implements update_connection.
func (s *Service) UpdateConnection(id string, patch model.ConnectionConfig) error {
	return s.conns.UpdateConnection(id, patch)
}

// DeleteConnection implements delete_connection.
func (s *Service) DeleteConnection(id string) error {
	return s.conns.RemoveConnection(id)
}

// ConnectDatabase implements connect_database (the generic-connection
// analogue of ConnectToSpace).
func (s *Service) ConnectDatabase(ctx context.Context, id string) error {
	return s.conns.Connect(ctx, id)
}

// DisconnectDatabase implements disconnect_database.
func (s *Service) DisconnectDatabase(id string) error {
	return s.conns.Disconnect(id)
}

// GetConnectionDatabases implements get_connection_databases.
func (s *Service) GetConnectionDatabases(ctx context.Context, id string) ([]driver.DatabaseRef, error) {
	return s.conns.GetDatabases(ctx, id)
}

// CheckConnectionHealth implements check_connection_health.
func (s *Service) CheckConnectionHealth(ctx context.Context, id string) bool {
	return s.conns.IsHealthy(ctx, id)
}
