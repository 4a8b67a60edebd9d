// Package store owns the projection tables: content, challenges, the stake
// ledger, cursors, and the anomaly and dead letter records.
//
// Functions that take a Querier run on whatever the caller passes, usually the
// reconciler's transaction. Methods on Store are standalone reads and writes
// used by the operator API, the CLI and the background workers.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goran-ethernal/ModerationIndexor/internal/common"
	"github.com/goran-ethernal/ModerationIndexor/internal/db"
	"github.com/goran-ethernal/ModerationIndexor/internal/logger"
	"github.com/russross/meddler"
)

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	meddler.DB
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// Store wraps the projection database.
type Store struct {
	db          *sql.DB
	log         *logger.Logger
	maintenance db.Maintenance
}

// New creates a Store. maintenance may be nil.
func New(database *sql.DB, log *logger.Logger, maintenance db.Maintenance) *Store {
	if maintenance == nil {
		maintenance = db.NoOpMaintenance{}
	}

	return &Store{
		db:          database,
		log:         log.WithComponent(common.ComponentStore),
		maintenance: maintenance,
	}
}

// DB returns the underlying database.
func (s *Store) DB() *sql.DB {
	return s.db
}

// RunInTx runs fn in one transaction while holding the maintenance operation lock.
func (s *Store) RunInTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	unlock := s.maintenance.AcquireOperationLock()
	defer unlock()

	return db.RunInTx(ctx, s.db, fn)
}

// read runs fn against the database while holding the maintenance operation lock.
func (s *Store) read(fn func(q Querier) error) error {
	unlock := s.maintenance.AcquireOperationLock()
	defer unlock()

	return fn(s.db)
}

func rowsAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows for %s: %w", what, err)
	}
	if n != 1 {
		return fmt.Errorf("%s: expected 1 row affected, got %d", what, n)
	}
	return nil
}
