package reconciler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/core/types"
)

// ReplayDeadLetters re-applies up to limit dead letters, oldest block first,
// without the order guard. A row is deleted once its log is applied, found
// already applied, or recorded as an anomaly; logs that fail again keep their
// row with the attempts added up.
//
// It writes directly and must not run while Run is consuming submissions in
// the same process.
func (r *Reconciler) ReplayDeadLetters(ctx context.Context, limit int) (*ReplayReport, error) {
	letters, _, err := r.store.ListDeadLetters(limit, 0)
	if err != nil {
		return nil, err
	}

	report := &ReplayReport{}
	for _, dl := range letters {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		var l types.Log
		if err := json.Unmarshal([]byte(dl.RawLog), &l); err != nil {
			r.log.Errorf("dead letter %d has an unreadable raw log: %v", dl.ID, err)
			report.Failed++
			continue
		}

		res, err := r.apply(ctx, l, true)
		if err != nil {
			return report, fmt.Errorf("failed to replay dead letter %d: %w", dl.ID, err)
		}
		report.Results = append(report.Results, res)

		switch res.Status {
		case StatusApplied, StatusAnomaly, StatusSkipped:
			if err := r.store.DeleteDeadLetter(ctx, dl.ID); err != nil {
				return report, err
			}
			report.Replayed++
			r.log.Infof("replayed dead letter %d (%s:%d): %s", dl.ID, dl.TxHash.Hex(), dl.LogIndex, res.Status)
		default:
			report.Failed++
		}
	}

	return report, nil
}
