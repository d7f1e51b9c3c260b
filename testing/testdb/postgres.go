// Package testdb runs repository tests against a real PostgreSQL in a container.
package testdb

import (
	"context"
	"strings"
	"sync"
	"testing"

	"tracker-service/internal/db"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
)

var (
	shared     *PostgresContainer
	sharedOnce sync.Once
)

type PostgresContainer struct {
	Container *postgres.PostgresContainer
	DB        *bun.DB
	DSN       string
}

// SetupSharedPostgres starts one PostgreSQL container per test binary and
// connects through db.NewWithDSN, the same path the server uses.
// Tests sharing it must not run in parallel; truncate between subtests.
//
//	pg := testdb.SetupSharedPostgres(t)
//	pg.RunMigrations(t, (*user.User)(nil), (*invite.Invite)(nil))
//	t.Run("Consume", func(t *testing.T) {
//	    testdb.CleanupTables(t, pg.DB, "invites")
//	})
func SetupSharedPostgres(t *testing.T) *PostgresContainer {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres container in short mode")
	}

	sharedOnce.Do(func() {
		ctx := context.Background()
		container, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("tracker_test"),
			postgres.WithUsername("tracker"),
			postgres.WithPassword("tracker"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			),
		)
		require.NoError(t, err)

		dsn, err := container.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err)

		conn, err := db.NewWithDSN(dsn)
		require.NoError(t, err)

		shared = &PostgresContainer{Container: container, DB: conn, DSN: dsn}
	})

	require.NotNil(t, shared, "shared postgres container failed to start")
	return shared
}

// Cleanup terminates the container. Call it once from the top-level test.
func (pc *PostgresContainer) Cleanup(t *testing.T) {
	t.Helper()

	db.Close(pc.DB)
	if pc.Container != nil {
		if err := pc.Container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
}

// RunMigrations creates the tables of models with the production migrator.
func (pc *PostgresContainer) RunMigrations(t *testing.T, models ...interface{}) {
	t.Helper()
	require.NoError(t, db.RunMigrations(context.Background(), pc.DB, models...))
}

// CleanupTables empties tables and resets their id sequences in one statement.
func CleanupTables(t *testing.T, conn *bun.DB, tables ...string) {
	t.Helper()

	if len(tables) == 0 {
		return
	}
	_, err := conn.ExecContext(context.Background(),
		"TRUNCATE "+strings.Join(tables, ", ")+" RESTART IDENTITY CASCADE")
	require.NoError(t, err, "failed to truncate %v", tables)
}
