package connmgr_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwifuady/larik/internal/connmgr"
	"github.com/dwifuady/larik/internal/driver"
	_ "github.com/dwifuady/larik/internal/driver/sqlite"
	"github.com/dwifuady/larik/internal/model"
)

func sqliteConfig(t *testing.T, id string) model.ConnectionConfig {
	t.Helper()
	return model.ConnectionConfig{
		ID:       id,
		Name:     "local",
		Dialect:  model.DialectSQLite,
		Database: filepath.Join(t.TempDir(), "sample.db"),
	}
}

func TestAddConnectionRejectsInvalidConfig(t *testing.T) {
	m := connmgr.New()
	err := m.AddConnection(model.ConnectionConfig{ID: "c1", Dialect: model.DialectPostgres})
	require.Error(t, err)

	var derr *driver.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, driver.KindInvalidConfig, derr.Kind)
}

func TestConnectUnknownIDReturnsConnectionNotFound(t *testing.T) {
	m := connmgr.New()
	err := m.Connect(context.Background(), "missing")
	require.Error(t, err)

	var derr *driver.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, driver.KindConnectionNotFound, derr.Kind)
}

func TestConnectDisconnectAndHealthRoundTrip(t *testing.T) {
	m := connmgr.New()
	ctx := context.Background()
	cfg := sqliteConfig(t, "c1")

	require.NoError(t, m.AddConnection(cfg))
	require.NoError(t, m.Connect(ctx, "c1"))
	assert.True(t, m.IsHealthy(ctx, "c1"))

	require.NoError(t, m.Disconnect("c1"))
	assert.False(t, m.IsHealthy(ctx, "c1"))

	// The descriptor survives Disconnect, so Connect can re-dial.
	require.NoError(t, m.Connect(ctx, "c1"))
	assert.True(t, m.IsHealthy(ctx, "c1"))
}

func TestRemoveConnectionForgetsDescriptor(t *testing.T) {
	m := connmgr.New()
	cfg := sqliteConfig(t, "c1")
	require.NoError(t, m.AddConnection(cfg))

	require.NoError(t, m.RemoveConnection("c1"))

	_, ok := m.Config("c1")
	assert.False(t, ok)
}

func TestListConnectionsRedactsPassword(t *testing.T) {
	m := connmgr.New()
	cfg := sqliteConfig(t, "c1")
	cfg.Password = "secret"
	require.NoError(t, m.AddConnection(cfg))

	list := m.ListConnections()
	require.Len(t, list, 1)
	assert.Empty(t, list[0].Password)
}

func TestGetConnectionsBySpaceFiltersBySpaceID(t *testing.T) {
	m := connmgr.New()
	spaceA := "space-a"
	cfgA := sqliteConfig(t, "c1")
	cfgA.SpaceID = &spaceA
	cfgB := sqliteConfig(t, "c2")

	require.NoError(t, m.AddConnection(cfgA))
	require.NoError(t, m.AddConnection(cfgB))

	got := m.GetConnectionsBySpace(spaceA)
	require.Len(t, got, 1)
	assert.Equal(t, "c1", got[0].ID)
}

func TestGetDatabasesOnUnconnectedIDFails(t *testing.T) {
	m := connmgr.New()
	require.NoError(t, m.AddConnection(sqliteConfig(t, "c1")))

	_, err := m.GetDatabases(context.Background(), "c1")
	require.Error(t, err)
}

func TestGetDatabasesReturnsFileNameForSQLite(t *testing.T) {
	m := connmgr.New()
	ctx := context.Background()
	cfg := sqliteConfig(t, "c1")
	require.NoError(t, m.AddConnection(cfg))
	require.NoError(t, m.Connect(ctx, "c1"))

	refs, err := m.GetDatabases(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, cfg.Database, refs[0].Name)
	assert.True(t, refs[0].HasAccess)
}

func TestUpdateConnectionRejectsNonMSSQLDialects(t *testing.T) {
	m := connmgr.New()
	require.NoError(t, m.AddConnection(sqliteConfig(t, "c1")))

	err := m.UpdateConnection("c1", model.ConnectionConfig{Host: "newhost"})
	require.Error(t, err)

	var derr *driver.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, driver.KindInvalidConfig, derr.Kind)
}

func TestUpdateConnectionUnknownIDFails(t *testing.T) {
	m := connmgr.New()
	err := m.UpdateConnection("missing", model.ConnectionConfig{})
	require.Error(t, err)
}

func TestResolveFailsWithoutLiveConnection(t *testing.T) {
	m := connmgr.New()
	require.NoError(t, m.AddConnection(sqliteConfig(t, "c1")))

	_, _, err := m.Resolve("c1")
	require.Error(t, err)
}
