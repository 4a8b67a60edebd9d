package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/russross/meddler"
)

// GetCursor returns the cursor of contract, or nil when nothing was applied yet.
func GetCursor(q Querier, contract string) (*Cursor, error) {
	var c Cursor
	err := meddler.QueryRow(q, &c, `SELECT * FROM indexer_cursors WHERE contract = ?`, contract)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cursor of %s: %w", contract, err)
	}
	return &c, nil
}

// AdvanceCursor raises the fully applied block of contract to block.
// It never moves the cursor backwards.
func AdvanceCursor(ctx context.Context, q Querier, contract string, block uint64) error {
	var current uint64
	err := q.QueryRowContext(ctx, `
		INSERT INTO indexer_cursors (contract, block_number, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (contract) DO UPDATE SET
			block_number = MAX(block_number, excluded.block_number),
			updated_at = excluded.updated_at
		RETURNING block_number`,
		contract, block, time.Now().Unix(),
	).Scan(&current)
	if err != nil {
		return fmt.Errorf("failed to advance cursor of %s to %d: %w", contract, block, err)
	}

	CursorBlockSet(contract, current)
	return nil
}

// AdvanceTip records pos as applied for contract: the tip moves to pos when pos
// is ahead of it, and the fully applied block moves to pos.Block-1.
func AdvanceTip(ctx context.Context, q Querier, contract string, pos Position) error {
	var below uint64
	if pos.Block > 0 {
		below = pos.Block - 1
	}

	if err := AdvanceCursor(ctx, q, contract, below); err != nil {
		return err
	}

	_, err := q.ExecContext(ctx, `
		UPDATE indexer_cursors
		SET tip_block = ?, tip_log_index = ?
		WHERE contract = ?
		  AND (tip_block IS NULL OR tip_block < ? OR (tip_block = ? AND tip_log_index < ?))`,
		pos.Block, pos.Index, contract, pos.Block, pos.Block, pos.Index,
	)
	if err != nil {
		return fmt.Errorf("failed to advance tip of %s: %w", contract, err)
	}

	return nil
}

// IsBelowTip reports whether pos is before the highest applied log of contract.
func IsBelowTip(q Querier, contract string, pos Position) (bool, error) {
	cursor, err := GetCursor(q, contract)
	if err != nil {
		return false, err
	}

	tip, ok := cursor.Tip()
	return ok && pos.Less(tip), nil
}

// GetCursor returns the cursor of contract, or nil.
func (s *Store) GetCursor(contract string) (*Cursor, error) {
	var cursor *Cursor
	err := s.read(func(q Querier) error {
		var err error
		cursor, err = GetCursor(q, contract)
		return err
	})
	return cursor, err
}

// AdvanceCursor raises the fully applied block of contract in its own transaction.
func (s *Store) AdvanceCursor(ctx context.Context, contract string, block uint64) error {
	return s.RunInTx(ctx, func(tx *sql.Tx) error {
		return AdvanceCursor(ctx, tx, contract, block)
	})
}

// AdvanceCursors raises the fully applied block of every contract in one transaction.
func (s *Store) AdvanceCursors(ctx context.Context, contracts []string, block uint64) error {
	return s.RunInTx(ctx, func(tx *sql.Tx) error {
		for _, contract := range contracts {
			if err := AdvanceCursor(ctx, tx, contract, block); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListCursors returns the cursors of every contract.
func (s *Store) ListCursors() ([]*Cursor, error) {
	var cursors []*Cursor
	err := s.read(func(q Querier) error {
		return meddler.QueryAll(q, &cursors, `SELECT * FROM indexer_cursors ORDER BY contract`)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list cursors: %w", err)
	}
	return cursors, nil
}
