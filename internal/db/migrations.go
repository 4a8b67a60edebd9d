package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/goran-ethernal/ModerationIndexor/internal/logger"
	migrate "github.com/rubenv/sql-migrate"
)

const (
	upMarker   = "-- +migrate Up"
	downMarker = "-- +migrate Down"
)

// Migration is one embedded SQL migration. The SQL holds a Down section followed by
// an Up section, each introduced by its sql-migrate marker.
type Migration struct {
	ID  string
	SQL string
}

// RunMigrations applies every pending migration in order.
func RunMigrations(log *logger.Logger, db *sql.DB, migrations []Migration) error {
	return runMigrations(log, db, migrations, migrate.Up, 0)
}

// RollbackMigrations reverts at most maxMigrations applied migrations, newest first.
func RollbackMigrations(log *logger.Logger, db *sql.DB, migrations []Migration, maxMigrations int) error {
	return runMigrations(log, db, migrations, migrate.Down, maxMigrations)
}

func runMigrations(
	log *logger.Logger,
	db *sql.DB,
	migrations []Migration,
	dir migrate.MigrationDirection,
	maxMigrations int,
) error {
	source := &migrate.MemoryMigrationSource{}
	ids := make([]string, 0, len(migrations))

	for _, m := range migrations {
		parsed, err := parseMigration(m)
		if err != nil {
			return err
		}
		source.Migrations = append(source.Migrations, parsed)
		ids = append(ids, m.ID)
	}

	log.Debugf("running migrations %s (direction %d, max %d)", strings.Join(ids, ", "), dir, maxMigrations)

	applied, err := migrate.ExecMax(db, "sqlite3", source, dir, maxMigrations)
	if err != nil {
		return fmt.Errorf("failed to execute migrations %s: %w", strings.Join(ids, ", "), err)
	}

	log.Infof("applied %d migrations", applied)

	return nil
}

func parseMigration(m Migration) (*migrate.Migration, error) {
	down, up, found := strings.Cut(m.SQL, upMarker)
	if !found {
		return nil, fmt.Errorf("migration %s missing %q separator", m.ID, upMarker)
	}

	if _, after, ok := strings.Cut(down, downMarker); ok {
		down = after
	}

	return &migrate.Migration{
		Id:   m.ID,
		Up:   []string{strings.TrimSpace(up)},
		Down: []string{strings.TrimSpace(down)},
	}, nil
}
