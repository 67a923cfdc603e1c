//go:build integration

package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/dwifuady/larik/internal/model"
)

// setupPostgres mirrors the teacher's setupMySQL in internal/apply/
// apply_connector_test.go, using the postgres module instead of mysql.
func setupPostgres(t *testing.T) model.ConnectionConfig {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("larik_it"),
		postgres.WithUsername("larik"),
		postgres.WithPassword("larik-test"),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	return model.ConnectionConfig{
		ID:          "postgres-it",
		Dialect:     model.DialectPostgres,
		Host:        host,
		Port:        port.Int(),
		Database:    "larik_it",
		Username:    "larik",
		Password:    "larik-test",
		PostgresSSL: model.SSLModeDisable,
	}
}

func TestPostgresDriverConnectAndRoundTrip(t *testing.T) {
	cfg := setupPostgres(t)
	ctx := context.Background()
	d := New()

	conn, err := d.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.Ping(ctx))

	_, err = d.ExecuteQuery(ctx, conn,
		"CREATE TABLE widgets (id SERIAL PRIMARY KEY, amount NUMERIC(10,2), active BOOLEAN)",
		"setup-1", "")
	require.NoError(t, err)

	_, err = d.ExecuteQuery(ctx, conn,
		"INSERT INTO widgets (amount, active) VALUES (42.50, true)", "setup-2", "")
	require.NoError(t, err)

	// pgx's extended protocol carries typed FieldDescriptions for every
	// query, including this plain SELECT, so toCell's OID switch (not a
	// string fallback) is what decides these Kinds.
	result, err := d.ExecuteQuery(ctx, conn, "SELECT id, amount, active FROM widgets", "select-1", "")
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, model.CellInt64, result.Rows[0][0].Kind)
	assert.Equal(t, model.CellBool, result.Rows[0][2].Kind)
	assert.True(t, result.Rows[0][2].Bool)

	cols, err := d.GetColumns(ctx, conn, "", "public", "widgets")
	require.NoError(t, err)
	require.Len(t, cols, 3)
	assert.Equal(t, "integer", cols[0].DataType)
	assert.True(t, cols[0].IsPrimaryKey)
}

func TestPostgresDriverGetDatabasesReportsAccess(t *testing.T) {
	cfg := setupPostgres(t)
	ctx := context.Background()
	d := New()

	conn, err := d.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	dbs, err := d.GetDatabases(ctx, conn)
	require.NoError(t, err)
	var found bool
	for _, ref := range dbs {
		if ref.Name == "larik_it" {
			found = true
			assert.True(t, ref.HasAccess)
		}
	}
	assert.True(t, found, "larik_it database must be listed")
}

func TestPostgresDriverConnectFailsOnBadCredentials(t *testing.T) {
	cfg := setupPostgres(t)
	cfg.Password = "wrong-password"
	d := New()

	_, err := d.Connect(context.Background(), cfg)
	require.Error(t, err)
}
