// Package supervisor keeps the log stream of a group of contracts connected
// and feeds it, in order, to the reconciler.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	internalcommon "github.com/goran-ethernal/ModerationIndexor/internal/common"
	"github.com/goran-ethernal/ModerationIndexor/internal/logger"
	"github.com/goran-ethernal/ModerationIndexor/internal/reconciler"
	"github.com/goran-ethernal/ModerationIndexor/pkg/config"
	"github.com/goran-ethernal/ModerationIndexor/pkg/fetcher"
)

// backfillWindow bounds the number of blocks pulled and submitted at once.
const backfillWindow = 10_000

var errStale = errors.New("stream went stale")

// Supervisor drives the connection lifecycle of one stream:
// Disconnected → Backfilling → Live, or Polling when the node cannot push.
// All contracts of the stream share one filter, so their logs are fetched and
// submitted in a single chain order.
type Supervisor struct {
	cfg     config.SupervisorConfig
	stream  string
	members []member

	source  fetcher.LogSource
	sink    Sink
	cursors CursorReader
	log     *logger.Logger

	mu    sync.RWMutex
	state State

	// completed is the highest block submitted as complete. Owned by Run.
	completed uint64
}

type member struct {
	name       string
	address    common.Address
	startBlock uint64
}

// New creates a Supervisor for stream.
func New(
	cfg config.SupervisorConfig,
	stream config.Stream,
	source fetcher.LogSource,
	sink Sink,
	cursors CursorReader,
	log *logger.Logger,
) *Supervisor {
	cfg.ApplyDefaults()

	members := make([]member, 0, len(stream.Contracts))
	for _, c := range stream.Contracts {
		members = append(members, member{
			name:       c.Name,
			address:    common.HexToAddress(c.Address),
			startBlock: c.StartBlock,
		})
	}

	s := &Supervisor{
		cfg:     cfg,
		stream:  stream.Name,
		members: members,
		source:  source,
		sink:    sink,
		cursors: cursors,
		log:     log.WithComponent(internalcommon.ComponentSupervisor),
		state:   StateDisconnected,
	}
	StateSet(s.stream, StateDisconnected)

	return s
}

// Stream returns the stream name.
func (s *Supervisor) Stream() string {
	return s.stream
}

// Contracts returns the role names of the supervised contracts.
func (s *Supervisor) Contracts() []string {
	names := make([]string, len(s.members))
	for i, m := range s.members {
		names[i] = m.name
	}
	return names
}

// State returns the current connection state.
func (s *Supervisor) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Supervisor) setState(state State) {
	s.mu.Lock()
	prev := s.state
	s.state = state
	s.mu.Unlock()

	if prev != state {
		s.log.Infow("state changed", "stream", s.stream, "from", prev, "to", state)
		StateSet(s.stream, state)
	}
}

// Run supervises the stream until ctx is cancelled. It returns an error only
// when the reconciler has stopped.
func (s *Supervisor) Run(ctx context.Context) error {
	s.log.Infow("starting supervisor", "stream", s.stream, "contracts", s.Contracts())

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.ReconnectInitialBackoff.Duration
	b.MaxInterval = s.cfg.ReconnectMaxBackoff.Duration

	for {
		wentLive, err := s.session(ctx)
		if ctx.Err() != nil {
			s.setState(StateDisconnected)
			return nil
		}

		switch {
		case errors.Is(err, fetcher.ErrPushUnsupported):
			s.log.Infow("push notifications unavailable, falling back to polling",
				"stream", s.stream, "interval", s.cfg.PollInterval.Duration)
			return s.poll(ctx)
		case errors.Is(err, reconciler.ErrStopped):
			return err
		}

		if wentLive {
			b.Reset()
		}

		reason := "error"
		if errors.Is(err, errStale) {
			reason = "stale"
		}
		ReconnectInc(s.stream, reason)
		s.setState(StateDisconnected)

		wait := b.NextBackOff()
		s.log.Warnw("stream lost, reconnecting", "stream", s.stream, "error", err, "retry_in", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.setState(StateDisconnected)
			return nil
		case <-timer.C:
		}
	}
}

// session subscribes, closes the gap since the cursor, then forwards the push
// stream until it fails. The subscription is opened before the backfill so no
// log emitted meanwhile is lost.
func (s *Supervisor) session(ctx context.Context) (bool, error) {
	from, err := s.nextBlock()
	if err != nil {
		return false, err
	}

	logs, err := s.source.Subscribe(ctx, s.addresses(), from)
	if err != nil {
		return false, err
	}
	defer logs.Unsubscribe()

	heads, err := s.source.SubscribeHeads(ctx)
	if err != nil {
		return false, err
	}
	defer heads.Unsubscribe()

	s.setState(StateBackfilling)
	if err := s.catchUp(ctx); err != nil {
		return false, fmt.Errorf("backfill failed: %w", err)
	}

	s.setState(StateLive)
	return true, s.live(ctx, logs, heads)
}

// live forwards pushed logs block by block. Logs of one subscription arrive in
// chain order, so a log of a later block completes the buffered one. Heads come
// from a separate subscription and may overtake logs of the block before them,
// so a head only completes the blocks announced by the previous head.
func (s *Supervisor) live(ctx context.Context, logs fetcher.Subscription, heads fetcher.HeadSubscription) error {
	ticker := time.NewTicker(s.cfg.FlushInterval.Duration)
	defer ticker.Stop()

	var (
		buf          blockBuffer
		held         = s.completed
		lastActivity = time.Now()
	)

	for {
		select {
		case <-ctx.Done():
			// nothing past the cursor is committed; the next session pulls it again
			return ctx.Err()

		case err := <-logs.Err():
			return fmt.Errorf("log stream failed: %w", err)

		case err := <-heads.Err():
			return fmt.Errorf("head stream failed: %w", err)

		case l := <-logs.Logs():
			lastActivity = time.Now()
			if err := s.receive(ctx, &buf, l); err != nil {
				return err
			}

		case h := <-heads.Heads():
			lastActivity = time.Now()
			if h == nil || h.Number == nil || h.Number.Sign() == 0 {
				continue
			}

			if err := s.drain(ctx, &buf, logs); err != nil {
				return err
			}

			through := held
			held = max(held, h.Number.Uint64()-1)

			switch {
			case !buf.empty() && buf.block <= through:
				if err := s.flush(ctx, &buf, through); err != nil {
					return err
				}
			case through > s.completed:
				if err := s.submit(ctx, nil, through); err != nil {
					return err
				}
			}

		case <-ticker.C:
			if !buf.empty() && time.Since(buf.since) >= s.cfg.FlushInterval.Duration {
				s.log.Debugw("flushing partially received block", "stream", s.stream, "block", buf.block)
				var through uint64
				if buf.block > 0 {
					through = buf.block - 1
				}
				if err := s.flush(ctx, &buf, through); err != nil {
					return err
				}
			}

			if time.Since(lastActivity) >= s.cfg.StaleTimeout.Duration {
				return fmt.Errorf("%w: nothing received for %s", errStale, time.Since(lastActivity).Truncate(time.Millisecond))
			}
		}
	}
}

// receive buffers a pushed log, flushing the buffered block first when l
// belongs to a later one.
func (s *Supervisor) receive(ctx context.Context, buf *blockBuffer, l types.Log) error {
	if l.Removed {
		RemovedLogInc(s.stream)
		s.log.Warnw("skipping removed log", "stream", s.stream,
			"tx", l.TxHash.Hex(), "index", l.Index, "block", l.BlockNumber)
		return nil
	}

	if !buf.empty() && l.BlockNumber > buf.block {
		if err := s.flush(ctx, buf, l.BlockNumber-1); err != nil {
			return err
		}
	}
	buf.add(l)

	return nil
}

// drain receives every log already waiting on the subscription.
func (s *Supervisor) drain(ctx context.Context, buf *blockBuffer, logs fetcher.Subscription) error {
	for {
		select {
		case l := <-logs.Logs():
			if err := s.receive(ctx, buf, l); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (s *Supervisor) poll(ctx context.Context) error {
	s.setState(StatePolling)

	ticker := time.NewTicker(s.cfg.PollInterval.Duration)
	defer ticker.Stop()

	for {
		if err := s.catchUp(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, reconciler.ErrStopped) {
				return err
			}
			s.log.Warnw("poll failed", "stream", s.stream, "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// catchUp pulls [cursor+1, head] in bounded windows and submits each window
// as complete.
func (s *Supervisor) catchUp(ctx context.Context) error {
	from, err := s.nextBlock()
	if err != nil {
		return err
	}

	head, err := s.source.LatestBlock(ctx)
	if err != nil {
		return err
	}
	if head < from {
		return nil
	}

	s.log.Debugw("pulling range", "stream", s.stream, "from", from, "to", head)

	for start := from; start <= head; {
		end := min(start+backfillWindow-1, head)

		logs, err := s.source.FetchRange(ctx, s.addresses(), start, end)
		if err != nil {
			return err
		}
		if err := s.submit(ctx, logs, end); err != nil {
			return err
		}
		BackfilledBlocksAdd(s.stream, end-start+1)

		if end == head {
			break
		}
		start = end + 1
	}

	return nil
}

func (s *Supervisor) flush(ctx context.Context, buf *blockBuffer, completeThrough uint64) error {
	logs := buf.logs
	buf.reset()
	return s.submit(ctx, logs, completeThrough)
}

func (s *Supervisor) submit(ctx context.Context, logs []types.Log, completeThrough uint64) error {
	results, err := s.sink.Submit(ctx, reconciler.Batch{
		Contracts:       s.Contracts(),
		Logs:            s.inRange(logs),
		CompleteThrough: completeThrough,
	})
	if err != nil {
		return err
	}

	s.completed = max(s.completed, completeThrough)

	if len(results) > 0 {
		applied := 0
		for _, r := range results {
			if r.Status == reconciler.StatusApplied {
				applied++
			}
		}
		s.log.Debugw("batch submitted", "stream", s.stream,
			"logs", len(results), "applied", applied, "complete_through", completeThrough)
	}

	return nil
}

// inRange drops logs of a member emitted before its start block. The stream is
// fetched from the lowest member start block, which can precede the others.
func (s *Supervisor) inRange(logs []types.Log) []types.Log {
	kept := logs[:0:0]
	for _, l := range logs {
		if m, ok := s.member(l.Address); ok && l.BlockNumber < m.startBlock {
			continue
		}
		kept = append(kept, l)
	}
	return kept
}

func (s *Supervisor) member(addr common.Address) (member, bool) {
	for _, m := range s.members {
		if m.address == addr {
			return m, true
		}
	}
	return member{}, false
}

// nextBlock returns the first block not yet known to be complete for every
// member of the stream.
func (s *Supervisor) nextBlock() (uint64, error) {
	var next uint64
	for i, m := range s.members {
		from := m.startBlock

		cursor, err := s.cursors.GetCursor(m.name)
		if err != nil {
			return 0, err
		}
		if cursor != nil {
			from = max(cursor.BlockNumber+1, m.startBlock)
		}

		if i == 0 || from < next {
			next = from
		}
	}
	return next, nil
}

func (s *Supervisor) addresses() []common.Address {
	addrs := make([]common.Address, len(s.members))
	for i, m := range s.members {
		addrs[i] = m.address
	}
	return addrs
}

// blockBuffer holds the pushed logs of the newest, possibly incomplete, block.
type blockBuffer struct {
	block uint64
	logs  []types.Log
	since time.Time
}

func (b *blockBuffer) empty() bool {
	return len(b.logs) == 0
}

func (b *blockBuffer) add(l types.Log) {
	if b.empty() {
		b.block = l.BlockNumber
		b.since = time.Now()
	}
	b.block = max(b.block, l.BlockNumber)
	b.logs = append(b.logs, l)
}

func (b *blockBuffer) reset() {
	b.block = 0
	b.logs = nil
	b.since = time.Time{}
}
