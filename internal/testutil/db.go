package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/goran-ethernal/ModerationIndexor/internal/db"
	"github.com/goran-ethernal/ModerationIndexor/internal/logger"
	"github.com/goran-ethernal/ModerationIndexor/internal/migrations"
	"github.com/stretchr/testify/require"
)

// NewTestDB creates a migrated SQLite database in a temporary directory and returns it with its path.
// The database is closed when the test finishes.
func NewTestDB(t *testing.T) (*sql.DB, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "moderation.sqlite")

	database, err := db.NewSQLiteDB(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	require.NoError(t, migrations.RunMigrations(logger.NewNopLogger(), database))

	return database, dbPath
}
