// Package ledger records which chain logs have already been applied to the
// projection. Every call runs on the caller's transaction so the ledger row
// commits together with the effects it guards.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/russross/meddler"
)

const table = "applied_events"

// Outcome is what the reconciler did with an applied log.
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeAnomaly Outcome = "anomaly"
)

// Key identifies a log on chain.
type Key struct {
	TxHash   common.Hash
	LogIndex uint
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%d", k.TxHash.Hex(), k.LogIndex)
}

// Entry is one row of the ledger.
type Entry struct {
	TxHash      common.Hash `meddler:"tx_hash,hash"`
	LogIndex    uint        `meddler:"log_index"`
	Contract    string      `meddler:"contract"`
	EventType   string      `meddler:"event_type"`
	BlockNumber uint64      `meddler:"block_number"`
	Payload     string      `meddler:"payload"`
	Outcome     Outcome     `meddler:"outcome"`
	AppliedAt   int64       `meddler:"applied_at"`
}

// Key returns the entry's ledger key.
func (e *Entry) Key() Key {
	return Key{TxHash: e.TxHash, LogIndex: e.LogIndex}
}

// IsApplied reports whether key has a ledger row.
func IsApplied(ctx context.Context, tx *sql.Tx, key Key) (bool, error) {
	var exists int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM applied_events WHERE tx_hash = ? AND log_index = ?`,
		key.TxHash.Hex(), key.LogIndex,
	).Scan(&exists)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("failed to look up ledger entry %s: %w", key, err)
	default:
		return true, nil
	}
}

// MarkApplied writes the ledger row for entry. Marking a key that is already
// present is a no-op.
func MarkApplied(ctx context.Context, tx *sql.Tx, entry *Entry) error {
	applied, err := IsApplied(ctx, tx, entry.Key())
	if err != nil {
		return err
	}
	if applied {
		return nil
	}

	if entry.AppliedAt == 0 {
		entry.AppliedAt = time.Now().Unix()
	}

	if err := meddler.Insert(tx, table, entry); err != nil {
		return fmt.Errorf("failed to insert ledger entry %s: %w", entry.Key(), err)
	}

	return nil
}

// Get returns the ledger row for key, or nil when the key was never applied.
func Get(db meddler.DB, key Key) (*Entry, error) {
	var entry Entry
	err := meddler.QueryRow(db, &entry,
		`SELECT * FROM applied_events WHERE tx_hash = ? AND log_index = ?`,
		key.TxHash.Hex(), key.LogIndex,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger entry %s: %w", key, err)
	}
	return &entry, nil
}

// Count returns the number of ledger rows, optionally filtered by outcome.
func Count(ctx context.Context, db *sql.DB, outcome Outcome) (int, error) {
	query := `SELECT COUNT(*) FROM applied_events`
	args := []interface{}{}
	if outcome != "" {
		query += ` WHERE outcome = ?`
		args = append(args, outcome)
	}

	var n int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}
	return n, nil
}
