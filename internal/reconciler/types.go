package reconciler

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrStopped is returned by Submit once Run has returned.
var ErrStopped = errors.New("reconciler stopped")

// Status is what happened to one log.
type Status string

const (
	// StatusApplied means the log's effects were written to the projection.
	StatusApplied Status = "applied"
	// StatusAnomaly means the log was recorded as an anomaly and not applied.
	StatusAnomaly Status = "anomaly"
	// StatusSkipped means the log needed no work: already applied, removed, or not a protocol event.
	StatusSkipped Status = "skipped"
	// StatusDeadLettered means storage kept failing and the log went to the dead letter table.
	StatusDeadLettered Status = "dead_lettered"
	// StatusRejected means the log arrived behind the contract's tip and went to the dead letter table.
	StatusRejected Status = "rejected"
)

// Skip reasons.
const (
	ReasonAlreadyApplied = "already_applied"
	ReasonRemoved        = "removed"
	ReasonUnrecognized   = "unrecognized"
	ReasonMalformed      = "malformed"
)

// Result describes the outcome of one log.
type Result struct {
	Status Status
	Reason string
	Event  string
}

// Batch is a group of logs of one stream submitted together.
// CompleteThrough, when not zero, is the block up to which the submitter has
// delivered every log of Contracts; their cursors advance to it after the
// batch is applied.
type Batch struct {
	Contracts       []string
	Logs            []types.Log
	CompleteThrough uint64
}

// Notification announces a committed log.
type Notification struct {
	Contract  string      `json:"contract"`
	Event     string      `json:"event"`
	Status    Status      `json:"status"`
	TxHash    common.Hash `json:"tx_hash"`
	LogIndex  uint        `json:"log_index"`
	Block     uint64      `json:"block"`
	ContentID *uint64     `json:"content_id,omitempty"`
}

// Notifier publishes notifications after commit. Failures are logged and never
// undo the commit.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// ReplayReport summarises a dead letter replay.
type ReplayReport struct {
	Replayed int
	Failed   int
	Results  []Result
}
