package migrations

import (
	"database/sql"
	_ "embed"

	"github.com/goran-ethernal/ModerationIndexor/internal/db"
	"github.com/goran-ethernal/ModerationIndexor/internal/logger"
)

//go:embed 001_ledger.sql
var mig001 string

//go:embed 002_projection.sql
var mig002 string

//go:embed 003_failures.sql
var mig003 string

//go:embed 004_epoch_snapshots.sql
var mig004 string

// All returns the schema migrations in application order.
func All() []db.Migration {
	return []db.Migration{
		{ID: "001_ledger.sql", SQL: mig001},
		{ID: "002_projection.sql", SQL: mig002},
		{ID: "003_failures.sql", SQL: mig003},
		{ID: "004_epoch_snapshots.sql", SQL: mig004},
	}
}

// RunMigrations brings the projection schema up to date.
func RunMigrations(log *logger.Logger, sqlDB *sql.DB) error {
	return db.RunMigrations(log, sqlDB, All())
}
