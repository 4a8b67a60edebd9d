package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/russross/meddler"
)

// LatestEpoch returns the most recent epoch snapshot, or nil when there is none.
func (s *Store) LatestEpoch() (*EpochSnapshot, error) {
	var snap EpochSnapshot
	err := s.read(func(q Querier) error {
		return meddler.QueryRow(q, &snap, `SELECT * FROM epoch_snapshots ORDER BY epoch DESC LIMIT 1`)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest epoch: %w", err)
	}
	return &snap, nil
}

// InsertEpochSnapshot stores snap. It returns false when the epoch was already recorded.
func (s *Store) InsertEpochSnapshot(ctx context.Context, snap *EpochSnapshot) (bool, error) {
	if snap.CreatedAt == 0 {
		snap.CreatedAt = time.Now().Unix()
	}

	var inserted bool
	err := s.RunInTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO epoch_snapshots (epoch, block_number, total_staked, stakers, created_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (epoch) DO NOTHING`,
			snap.Epoch, snap.BlockNumber, orZero(snap.TotalStaked).String(), snap.Stakers, snap.CreatedAt,
		)
		if err != nil {
			return err
		}

		n, err := res.RowsAffected()
		inserted = n == 1
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to insert epoch %d snapshot: %w", snap.Epoch, err)
	}

	return inserted, nil
}
