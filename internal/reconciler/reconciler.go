// Package reconciler is the single writer of the projection. It turns raw logs
// into committed state: decode, ledger check, order guard, state machine, and
// one transaction per log.
package reconciler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/goran-ethernal/ModerationIndexor/internal/common"
	"github.com/goran-ethernal/ModerationIndexor/internal/decoder"
	"github.com/goran-ethernal/ModerationIndexor/internal/fetcher"
	"github.com/goran-ethernal/ModerationIndexor/internal/ledger"
	"github.com/goran-ethernal/ModerationIndexor/internal/lifecycle"
	"github.com/goran-ethernal/ModerationIndexor/internal/logger"
	"github.com/goran-ethernal/ModerationIndexor/internal/store"
	"github.com/goran-ethernal/ModerationIndexor/pkg/config"
)

type request struct {
	batch Batch
	done  chan response
}

type response struct {
	results []Result
	err     error
}

// Reconciler applies logs to the projection. Logs reach it either directly
// through Apply and ApplyBatch, or through Submit, which queues batches for the
// single goroutine running Run.
type Reconciler struct {
	store    *store.Store
	decoder  *decoder.Decoder
	notifier Notifier
	retry    config.RetryConfig
	log      *logger.Logger

	queue   chan request
	stopped chan struct{}
}

// New creates a Reconciler. notifier may be nil.
func New(
	cfg config.ReconcilerConfig,
	st *store.Store,
	dec *decoder.Decoder,
	notifier Notifier,
	log *logger.Logger,
) *Reconciler {
	cfg.ApplyDefaults()

	return &Reconciler{
		store:    st,
		decoder:  dec,
		notifier: notifier,
		retry:    cfg.Retry,
		log:      log.WithComponent(common.ComponentReconciler),
		queue:    make(chan request, cfg.QueueSize),
		stopped:  make(chan struct{}),
	}
}

// Run consumes submitted batches in order until ctx is cancelled.
// A log that is being written when ctx is cancelled still commits; Run then
// returns before the next log.
func (r *Reconciler) Run(ctx context.Context) error {
	defer close(r.stopped)

	r.log.Info("reconciler started")
	defer r.log.Info("reconciler stopped")

	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-r.queue:
			QueueDepthSet(len(r.queue))
			results, err := r.ApplyBatch(ctx, req.batch)
			req.done <- response{results: results, err: err}
		}
	}
}

// Submit queues batch for Run and waits until it has been applied.
func (r *Reconciler) Submit(ctx context.Context, batch Batch) ([]Result, error) {
	req := request{batch: batch, done: make(chan response, 1)}

	select {
	case r.queue <- req:
		QueueDepthSet(len(r.queue))
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-r.stopped:
		return nil, ErrStopped
	}

	select {
	case resp := <-req.done:
		return resp.results, resp.err
	case <-r.stopped:
		select {
		case resp := <-req.done:
			return resp.results, resp.err
		default:
			return nil, ErrStopped
		}
	}
}

// ApplyBatch applies the logs of batch in (block, index) order, then advances
// the cursor of every batch contract to batch.CompleteThrough.
func (r *Reconciler) ApplyBatch(ctx context.Context, batch Batch) ([]Result, error) {
	logs := make([]types.Log, len(batch.Logs))
	copy(logs, batch.Logs)
	fetcher.SortLogs(logs)

	results := make([]Result, 0, len(logs))
	for _, l := range logs {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res, err := r.apply(ctx, l, false)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}

	if batch.CompleteThrough > 0 && len(batch.Contracts) > 0 {
		if err := r.store.AdvanceCursors(context.WithoutCancel(ctx), batch.Contracts, batch.CompleteThrough); err != nil {
			return results, err
		}
	}

	return results, nil
}

// Apply applies a single log.
func (r *Reconciler) Apply(ctx context.Context, l types.Log) (Result, error) {
	return r.apply(ctx, l, false)
}

func (r *Reconciler) apply(ctx context.Context, l types.Log, replay bool) (Result, error) {
	if l.Removed {
		r.log.Warnf("skipping removed log %s:%d at block %d", l.TxHash.Hex(), l.Index, l.BlockNumber)
		return r.done(Result{Status: StatusSkipped, Reason: ReasonRemoved}), nil
	}

	ev, err := r.decoder.Decode(l)
	if err != nil {
		var malformed *decoder.MalformedError
		switch {
		case errors.Is(err, decoder.ErrUnrecognized):
			r.log.Debugf("ignoring unrecognized log %s:%d from %s", l.TxHash.Hex(), l.Index, l.Address.Hex())
			return r.done(Result{Status: StatusSkipped, Reason: ReasonUnrecognized}), nil
		case errors.As(err, &malformed):
			r.log.Warnf("skipping malformed log at block %d: %v", l.BlockNumber, malformed)
			return r.done(Result{Status: StatusSkipped, Reason: ReasonMalformed, Event: malformed.Event}), nil
		default:
			return Result{}, fmt.Errorf("failed to decode log: %w", err)
		}
	}

	contract, _ := r.decoder.Contract(l.Address)
	start := time.Now()
	attempts := 0

	res, err := backoff.Retry(ctx, func() (Result, error) {
		attempts++
		return r.applyInTx(context.WithoutCancel(ctx), contract, l, ev, replay)
	},
		backoff.WithBackOff(r.newBackOff()),
		backoff.WithMaxTries(uint(r.retry.MaxAttempts)), //nolint:gosec
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			RetryInc()
			r.log.Warnf("failed to apply %s log %s:%d (attempt %d), retrying in %s: %v",
				ev.EventName(), l.TxHash.Hex(), l.Index, attempts, next, err)
		}),
	)
	ApplyDurationLog(ev.EventName(), time.Since(start))

	if err == nil {
		r.notify(ctx, contract, l, ev, res)
		return r.done(res), nil
	}

	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}

	r.log.Errorf("giving up on %s log %s:%d after %d attempts: %v",
		ev.EventName(), l.TxHash.Hex(), l.Index, attempts, err)

	if dlErr := r.deadLetter(context.WithoutCancel(ctx), contract, l, store.DeadLetterStorage, err, attempts); dlErr != nil {
		return Result{}, fmt.Errorf("failed to dead-letter log after %w: %w", err, dlErr)
	}

	return r.done(Result{Status: StatusDeadLettered, Reason: store.DeadLetterStorage, Event: ev.EventName()}), nil
}

// applyInTx runs every write for one log in a single transaction.
func (r *Reconciler) applyInTx(
	ctx context.Context,
	contract string,
	l types.Log,
	ev decoder.Event,
	replay bool,
) (Result, error) {
	res := Result{Event: ev.EventName()}
	key := ledger.Key{TxHash: l.TxHash, LogIndex: l.Index}
	pos := store.Position{Block: l.BlockNumber, Index: l.Index}

	err := r.store.RunInTx(ctx, func(tx *sql.Tx) error {
		applied, err := ledger.IsApplied(ctx, tx, key)
		if err != nil {
			return err
		}
		if applied {
			res.Status, res.Reason = StatusSkipped, ReasonAlreadyApplied
			return nil
		}

		if !replay {
			below, err := store.IsBelowTip(tx, contract, pos)
			if err != nil {
				return err
			}
			if below {
				res.Status, res.Reason = StatusRejected, store.DeadLetterOutOfOrder
				return upsertDeadLetter(ctx, tx, contract, l, store.DeadLetterOutOfOrder,
					"log arrived behind the contract tip", 1)
			}
		}

		snap, err := store.LoadSnapshot(tx, ev)
		if err != nil {
			return err
		}
		outcome := lifecycle.Evaluate(snap, ev)

		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("failed to encode %s payload: %w", ev.EventName(), err)
		}

		entry := &ledger.Entry{
			TxHash:      l.TxHash,
			LogIndex:    l.Index,
			Contract:    contract,
			EventType:   ev.EventName(),
			BlockNumber: l.BlockNumber,
			Payload:     string(payload),
			Outcome:     ledger.OutcomeApplied,
		}

		if outcome.IsAnomaly() {
			entry.Outcome = ledger.OutcomeAnomaly
			res.Status, res.Reason = StatusAnomaly, outcome.Anomaly.Reason

			r.log.Warnf("%s log %s:%d is an anomaly: %v", ev.EventName(), l.TxHash.Hex(), l.Index, outcome.Anomaly)

			if err := store.InsertAnomaly(tx, anomalyRow(contract, l, ev, outcome.Anomaly, string(payload))); err != nil {
				return err
			}
		} else {
			res.Status = StatusApplied
			if err := store.ApplyEffects(ctx, tx, pos, outcome.Effects); err != nil {
				return err
			}
		}

		if err := ledger.MarkApplied(ctx, tx, entry); err != nil {
			return err
		}

		return store.AdvanceTip(ctx, tx, contract, pos)
	})

	return res, err
}

func (r *Reconciler) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.retry.InitialBackoff.Duration
	b.MaxInterval = r.retry.MaxBackoff.Duration
	b.Multiplier = r.retry.BackoffMultiplier
	return b
}

func (r *Reconciler) deadLetter(
	ctx context.Context,
	contract string,
	l types.Log,
	reason string,
	cause error,
	attempts int,
) error {
	return r.store.RunInTx(ctx, func(tx *sql.Tx) error {
		return upsertDeadLetter(ctx, tx, contract, l, reason, cause.Error(), attempts)
	})
}

func upsertDeadLetter(
	ctx context.Context,
	tx *sql.Tx,
	contract string,
	l types.Log,
	reason, cause string,
	attempts int,
) error {
	raw, err := json.Marshal(&l)
	if err != nil {
		return fmt.Errorf("failed to encode raw log: %w", err)
	}

	return store.UpsertDeadLetter(ctx, tx, &store.DeadLetter{
		TxHash:      l.TxHash,
		LogIndex:    l.Index,
		BlockNumber: l.BlockNumber,
		Contract:    contract,
		Reason:      reason,
		Error:       cause,
		Attempts:    attempts,
		RawLog:      string(raw),
	})
}

func anomalyRow(contract string, l types.Log, ev decoder.Event, a *lifecycle.Anomaly, payload string) *store.Anomaly {
	row := &store.Anomaly{
		TxHash:      l.TxHash,
		LogIndex:    l.Index,
		BlockNumber: l.BlockNumber,
		Contract:    contract,
		EventType:   ev.EventName(),
		ContentID:   a.ContentID,
		Reason:      a.Reason,
		Payload:     payload,
	}
	if a.CurrentStatus != nil {
		status := string(*a.CurrentStatus)
		row.CurrentStatus = &status
	}
	return row
}

func (r *Reconciler) notify(ctx context.Context, contract string, l types.Log, ev decoder.Event, res Result) {
	if r.notifier == nil || res.Status != StatusApplied {
		return
	}

	n := Notification{
		Contract: contract,
		Event:    ev.EventName(),
		Status:   res.Status,
		TxHash:   l.TxHash,
		LogIndex: l.Index,
		Block:    l.BlockNumber,
	}
	if ce, ok := ev.(decoder.ContentEvent); ok {
		id := ce.GetContentID()
		n.ContentID = &id
	}

	if err := r.notifier.Notify(context.WithoutCancel(ctx), n); err != nil {
		r.log.Warnf("failed to publish notification for %s:%d: %v", l.TxHash.Hex(), l.Index, err)
	}
}

func (r *Reconciler) done(res Result) Result {
	ResultInc(res.Status, res.Reason)
	return res
}
