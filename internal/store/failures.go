package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/russross/meddler"
)

const anomaliesTable = "anomalies"

// InsertAnomaly records an event that could not be applied.
func InsertAnomaly(q Querier, a *Anomaly) error {
	if a.RecordedAt == 0 {
		a.RecordedAt = time.Now().Unix()
	}

	if err := meddler.Insert(q, anomaliesTable, a); err != nil {
		return fmt.Errorf("failed to insert anomaly for %s:%d: %w", a.TxHash.Hex(), a.LogIndex, err)
	}

	AnomalyInc(a.Reason)
	return nil
}

// UpsertDeadLetter stores a log that could not be applied. A log that is
// dead-lettered again keeps one row with the attempts added up.
func UpsertDeadLetter(ctx context.Context, q Querier, dl *DeadLetter) error {
	if dl.CreatedAt == 0 {
		dl.CreatedAt = time.Now().Unix()
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO dead_letters
			(tx_hash, log_index, block_number, contract, reason, error, attempts, raw_log, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tx_hash, log_index) DO UPDATE SET
			reason = excluded.reason,
			error = excluded.error,
			attempts = dead_letters.attempts + excluded.attempts`,
		dl.TxHash.Hex(), dl.LogIndex, dl.BlockNumber, dl.Contract, dl.Reason, dl.Error,
		dl.Attempts, dl.RawLog, dl.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store dead letter for %s:%d: %w", dl.TxHash.Hex(), dl.LogIndex, err)
	}

	DeadLetterInc(dl.Reason)
	return nil
}

// RecordDeadLetter stores dl in its own transaction.
func (s *Store) RecordDeadLetter(ctx context.Context, dl *DeadLetter) error {
	return s.RunInTx(ctx, func(tx *sql.Tx) error {
		return UpsertDeadLetter(ctx, tx, dl)
	})
}

// DeleteDeadLetter removes a dead letter row in its own transaction.
func (s *Store) DeleteDeadLetter(ctx context.Context, id int64) error {
	return s.RunInTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM dead_letters WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete dead letter %d: %w", id, err)
		}
		return nil
	})
}

// CountAnomalies returns the number of recorded anomalies.
func (s *Store) CountAnomalies() (int, error) {
	return s.count("anomalies")
}

// CountDeadLetters returns the number of dead letters waiting for replay.
func (s *Store) CountDeadLetters() (int, error) {
	return s.count("dead_letters")
}

func (s *Store) count(table string) (int, error) {
	var n int
	err := s.read(func(q Querier) error {
		return q.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

// ListAnomalies returns a page of anomalies, newest first, and the total count.
func (s *Store) ListAnomalies(limit, offset int) ([]*Anomaly, int, error) {
	var (
		anomalies []*Anomaly
		total     int
	)

	err := s.read(func(q Querier) error {
		if err := q.QueryRow(`SELECT COUNT(*) FROM anomalies`).Scan(&total); err != nil {
			return err
		}
		return meddler.QueryAll(q, &anomalies,
			`SELECT * FROM anomalies ORDER BY id DESC LIMIT ? OFFSET ?`, limit, offset)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list anomalies: %w", err)
	}

	return anomalies, total, nil
}

// ListDeadLetters returns a page of dead letters, oldest first, and the total count.
func (s *Store) ListDeadLetters(limit, offset int) ([]*DeadLetter, int, error) {
	var (
		letters []*DeadLetter
		total   int
	)

	err := s.read(func(q Querier) error {
		if err := q.QueryRow(`SELECT COUNT(*) FROM dead_letters`).Scan(&total); err != nil {
			return err
		}
		return meddler.QueryAll(q, &letters,
			`SELECT * FROM dead_letters ORDER BY block_number, log_index LIMIT ? OFFSET ?`, limit, offset)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list dead letters: %w", err)
	}

	return letters, total, nil
}
