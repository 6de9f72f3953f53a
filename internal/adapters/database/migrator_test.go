package database

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestMigrator(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping migrator tests in short mode.")
	}
	t.Parallel()

	ctx := t.Context()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	db, err := NewPostgresDatabase(LOCAL_CONNECTION_STRING)
	require.NoError(t, err)

	t.Run("migrate up twice", func(t *testing.T) {
		schemaName := "migrate_up_twice"
		db.MustExec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", pq.QuoteIdentifier(schemaName)))

		migrator := NewDatabaseMigrator(db, logger)
		require.NoError(t, migrator.Migrate(ctx, schemaName))
		require.NoError(t, migrator.Migrate(ctx, schemaName), "re-running migrations should be a no-op")

		var count int
		err := db.Get(&count, "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = $1 AND table_name = 'records'", schemaName)
		require.NoError(t, err)
		require.Equal(t, 1, count)
	})

	t.Run("migrate up and down", func(t *testing.T) {
		schemaName := "migrate_up_down"
		db.MustExec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", pq.QuoteIdentifier(schemaName)))

		require.NoError(t, NewDatabaseMigrator(db, logger).Migrate(ctx, schemaName))

		conn, err := db.Conn(ctx)
		require.NoError(t, err)
		defer conn.Close()

		migratorInstance, err := newMigrateInstance(ctx, conn, schemaName)
		require.NoError(t, err)
		defer migratorInstance.Close()

		err = migratorInstance.Down()
		require.NoError(t, err, "error migrating down") // Should not even be ErrNoChange
	})
}
