//go:build integration

package mssql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mssql"

	"github.com/dwifuady/larik/internal/driver"
	"github.com/dwifuady/larik/internal/model"
)

// setupMSSQL mirrors the teacher's setupMySQL in internal/apply/
// apply_connector_test.go: start one container, hand back a ready
// ConnectionConfig, and register cleanup.
func setupMSSQL(t *testing.T) model.ConnectionConfig {
	t.Helper()
	ctx := context.Background()

	container, err := mssql.Run(ctx,
		"mcr.microsoft.com/mssql/server:2022-latest",
		mssql.WithAcceptEULA(),
		mssql.WithPassword("Str0ngP@ssw0rd!"),
	)
	require.NoError(t, err, "failed to start mssql container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "1433/tcp")
	require.NoError(t, err)

	return model.ConnectionConfig{
		ID:       "mssql-it",
		Dialect:  model.DialectMSSQL,
		Host:     host,
		Port:     port.Int(),
		Database: "master",
		Username: "sa",
		Password: "Str0ngP@ssw0rd!",
	}
}

func TestMSSQLDriverConnectAndRoundTrip(t *testing.T) {
	cfg := setupMSSQL(t)
	ctx := context.Background()
	d := New()

	conn, err := d.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.Ping(ctx))

	_, err = d.ExecuteQuery(ctx, conn, `
		CREATE TABLE widgets (
			id TINYINT NOT NULL,
			token UNIQUEIDENTIFIER NOT NULL DEFAULT NEWID(),
			payload XML NULL
		)`, "setup-1", "")
	require.NoError(t, err)

	_, err = d.ExecuteQuery(ctx, conn,
		`INSERT INTO widgets (id, payload) VALUES (200, '<a>b</a>')`, "setup-2", "")
	require.NoError(t, err)

	result, err := d.ExecuteQuery(ctx, conn, "SELECT id, token, payload FROM widgets", "select-1", "")
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	// tinyint in SQL Server is unsigned 0-255; go-mssqldb surfaces it as
	// int64 here, so the 200 round-trips exactly rather than wrapping
	// the way a signed int8 would.
	assert.Equal(t, model.CellInt64, result.Rows[0][0].Kind)
	assert.Equal(t, int64(200), result.Rows[0][0].Int64)
	// uniqueidentifier and xml both come back as driver-native types
	// toCell falls through to binary/string for; either way the round
	// trip must not error and must not silently drop the column.
	assert.NotEqual(t, model.CellNull, result.Rows[0][1].Kind)
	assert.NotEqual(t, model.CellNull, result.Rows[0][2].Kind)

	cols, err := d.GetColumns(ctx, conn, "", "dbo", "widgets")
	require.NoError(t, err)
	require.Len(t, cols, 3)
	assert.Equal(t, "tinyint", cols[0].DataType)
	assert.Equal(t, "uniqueidentifier", cols[1].DataType)
}

func TestMSSQLDriverGetDatabasesReportsAccess(t *testing.T) {
	cfg := setupMSSQL(t)
	ctx := context.Background()
	d := New()

	conn, err := d.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	dbs, err := d.GetDatabases(ctx, conn)
	require.NoError(t, err)
	var found bool
	for _, ref := range dbs {
		if ref.Name == "master" {
			found = true
			assert.True(t, ref.HasAccess)
		}
	}
	assert.True(t, found, "master database must be listed")
}

func TestMSSQLDriverConnectFailsOnBadCredentials(t *testing.T) {
	cfg := setupMSSQL(t)
	cfg.Password = "wrong-password"
	d := New()

	_, err := d.Connect(context.Background(), cfg)
	require.Error(t, err)
	var derr *driver.Error
	require.ErrorAs(t, err, &derr)
}
