package supervisor

import (
	"context"
	"fmt"
	"math/big"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	internalcommon "github.com/goran-ethernal/ModerationIndexor/internal/common"
	"github.com/goran-ethernal/ModerationIndexor/internal/decoder"
	dt "github.com/goran-ethernal/ModerationIndexor/internal/decoder/decodertest"
	"github.com/goran-ethernal/ModerationIndexor/internal/lifecycle"
	"github.com/goran-ethernal/ModerationIndexor/internal/logger"
	"github.com/goran-ethernal/ModerationIndexor/internal/reconciler"
	"github.com/goran-ethernal/ModerationIndexor/internal/store"
	"github.com/goran-ethernal/ModerationIndexor/internal/testutil"
	"github.com/goran-ethernal/ModerationIndexor/pkg/config"
	"github.com/goran-ethernal/ModerationIndexor/pkg/fetcher"
	"github.com/stretchr/testify/require"
)

var staker = common.HexToAddress("0x5ea0000000000000000000000000000000000005")

// fakeSource serves logs from an in-memory chain. Every session shares the
// same push channels so tests can feed them before or after subscribing.
type fakeSource struct {
	mu         sync.Mutex
	head       uint64
	chain      []types.Log
	ranges     [][2]uint64
	push       bool
	subscribes int

	logs  chan types.Log
	heads chan *types.Header
}

func newFakeSource(head uint64, push bool, chain ...types.Log) *fakeSource {
	return &fakeSource{
		head:  head,
		chain: chain,
		push:  push,
		logs:  make(chan types.Log, 16),
		heads: make(chan *types.Header, 16),
	}
}

func (f *fakeSource) FetchRange(_ context.Context, addresses []common.Address, from, to uint64) ([]types.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ranges = append(f.ranges, [2]uint64{from, to})

	var out []types.Log
	for _, l := range f.chain {
		if l.BlockNumber >= from && l.BlockNumber <= to && slices.Contains(addresses, l.Address) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeSource) Subscribe(context.Context, []common.Address, uint64) (fetcher.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.push {
		return nil, fetcher.ErrPushUnsupported
	}
	f.subscribes++
	return &fakeSubscription{logs: f.logs, heads: f.heads, errs: make(chan error)}, nil
}

func (f *fakeSource) SubscribeHeads(context.Context) (fetcher.HeadSubscription, error) {
	return &fakeSubscription{logs: f.logs, heads: f.heads, errs: make(chan error)}, nil
}

func (f *fakeSource) LatestBlock(context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.head, nil
}

func (f *fakeSource) advance(head uint64, logs ...types.Log) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.head = head
	f.chain = append(f.chain, logs...)
}

func (f *fakeSource) pulled() [][2]uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.ranges)
}

func (f *fakeSource) subscribeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subscribes
}

type fakeSubscription struct {
	logs  chan types.Log
	heads chan *types.Header
	errs  chan error
}

func (s *fakeSubscription) Logs() <-chan types.Log      { return s.logs }
func (s *fakeSubscription) Heads() <-chan *types.Header { return s.heads }
func (s *fakeSubscription) Err() <-chan error           { return s.errs }
func (s *fakeSubscription) Unsubscribe()                {}

// fakeSink records batches and keeps the cursors the way the reconciler does.
type fakeSink struct {
	mu      sync.Mutex
	batches []reconciler.Batch
	cursors map[string]*store.Cursor
}

func (f *fakeSink) Submit(_ context.Context, batch reconciler.Batch) ([]reconciler.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.batches = append(f.batches, batch)
	if batch.CompleteThrough > 0 {
		if f.cursors == nil {
			f.cursors = make(map[string]*store.Cursor)
		}
		for _, contract := range batch.Contracts {
			cursor, ok := f.cursors[contract]
			if !ok {
				cursor = &store.Cursor{Contract: contract}
				f.cursors[contract] = cursor
			}
			cursor.BlockNumber = max(cursor.BlockNumber, batch.CompleteThrough)
		}
	}

	results := make([]reconciler.Result, len(batch.Logs))
	for i := range results {
		results[i] = reconciler.Result{Status: reconciler.StatusApplied}
	}
	return results, nil
}

func (f *fakeSink) GetCursor(contract string) (*store.Cursor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cursor, ok := f.cursors[contract]
	if !ok {
		return nil, nil
	}
	c := *cursor
	return &c, nil
}

func (f *fakeSink) cursorBlock(contract string) uint64 {
	cursor, _ := f.GetCursor(contract)
	if cursor == nil {
		return 0
	}
	return cursor.BlockNumber
}

func (f *fakeSink) recorded() []reconciler.Batch {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.batches)
}

type blockRecorder struct {
	mu     sync.Mutex
	blocks []uint64
}

func (b *blockRecorder) Notify(_ context.Context, n reconciler.Notification) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blocks = append(b.blocks, n.Block)
	return nil
}

func (b *blockRecorder) applied() []uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.blocks)
}

func testConfig() config.SupervisorConfig {
	return config.SupervisorConfig{
		PollInterval:            internalcommon.NewDuration(10 * time.Millisecond),
		StaleTimeout:            internalcommon.NewDuration(time.Minute),
		FlushInterval:           internalcommon.NewDuration(20 * time.Millisecond),
		ReconnectInitialBackoff: internalcommon.NewDuration(time.Millisecond),
		ReconnectMaxBackoff:     internalcommon.NewDuration(5 * time.Millisecond),
	}
}

func vault(startBlock uint64) config.Stream {
	return config.Stream{
		Name: config.StreamStaking,
		Contracts: []config.NamedContract{{
			Name: config.ContractStakingVault,
			ContractConfig: config.ContractConfig{
				Address:    dt.VaultAddress.Hex(),
				StartBlock: startBlock,
			},
		}},
	}
}

func moderation(registryStart, gameStart uint64) config.Stream {
	return config.Stream{
		Name: config.StreamModeration,
		Contracts: []config.NamedContract{
			{
				Name:           config.ContractContentRegistry,
				ContractConfig: config.ContractConfig{Address: dt.RegistryAddress.Hex(), StartBlock: registryStart},
			},
			{
				Name:           config.ContractModerationGame,
				ContractConfig: config.ContractConfig{Address: dt.GameAddress.Hex(), StartBlock: gameStart},
			},
		},
	}
}

// requireLogBeforeCursor checks that no batch completes block before the log
// of that block has been submitted.
func requireLogBeforeCursor(t *testing.T, batches []reconciler.Batch, block uint64) {
	t.Helper()

	for _, b := range batches {
		for _, l := range b.Logs {
			if l.BlockNumber == block {
				return
			}
		}
		require.Less(t, b.CompleteThrough, block, "block %d completed before its log was submitted", block)
	}
	t.Fatalf("log of block %d was never submitted", block)
}

func header(number uint64) *types.Header {
	return &types.Header{Number: new(big.Int).SetUint64(number)}
}

func runSupervisor(t *testing.T, s *Supervisor) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("supervisor did not stop")
		}
	})
}

func TestSupervisor_ClosesGapBeforeLive(t *testing.T) {
	database, _ := testutil.NewTestDB(t)
	log := logger.NewNopLogger()
	st := store.New(database, log, nil)

	dec, err := decoder.New(decoder.NewAddressBook(dt.Contracts()))
	require.NoError(t, err)

	recorder := &blockRecorder{}
	rec := reconciler.New(config.ReconcilerConfig{}, st, dec, recorder, log)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = rec.Run(ctx) }()

	require.NoError(t, st.AdvanceCursor(ctx, config.ContractStakingVault, 100))

	source := newFakeSource(150, true,
		dt.Deposited(dt.At(90, 0), staker, 1000),
		dt.Deposited(dt.At(101, 0), staker, 1),
		dt.Deposited(dt.At(120, 4), staker, 1),
		dt.Deposited(dt.At(150, 1), staker, 1),
	)
	// pushed while the backfill is still running
	source.logs <- dt.Deposited(dt.At(151, 0), staker, 1)

	s := New(testConfig(), vault(0), source, rec, st, log)
	runSupervisor(t, s)

	require.Eventually(t, func() bool { return s.State() == StateLive }, 5*time.Second, 10*time.Millisecond)
	require.Equal(t, [][2]uint64{{101, 150}}, source.pulled())

	// a head completes the blocks announced by the head before it
	source.heads <- header(152)
	source.heads <- header(153)

	require.Eventually(t, func() bool {
		cursor, err := st.GetCursor(config.ContractStakingVault)
		return err == nil && cursor != nil && cursor.BlockNumber == 151
	}, 5*time.Second, 10*time.Millisecond)

	require.Equal(t, []uint64{101, 120, 150, 151}, recorder.applied())

	stake, err := st.GetStake(staker)
	require.NoError(t, err)
	require.Equal(t, "4", stake.Staked.String())
}

func TestSupervisor_FallsBackToPolling(t *testing.T) {
	source := newFakeSource(30, false,
		dt.Deposited(dt.At(12, 0), staker, 1),
		dt.Deposited(dt.At(25, 2), staker, 1),
	)
	sink := &fakeSink{}

	s := New(testConfig(), vault(10), source, sink, sink, logger.NewNopLogger())
	runSupervisor(t, s)

	require.Eventually(t, func() bool { return s.State() == StatePolling }, 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return len(sink.recorded()) >= 1 }, 5*time.Second, 10*time.Millisecond)

	first := sink.recorded()[0]
	require.Equal(t, []string{config.ContractStakingVault}, first.Contracts)
	require.Equal(t, uint64(30), first.CompleteThrough)
	require.Len(t, first.Logs, 2)
	require.Equal(t, [2]uint64{10, 30}, source.pulled()[0])

	source.advance(40, dt.Deposited(dt.At(35, 0), staker, 1))

	require.Eventually(t, func() bool {
		batches := sink.recorded()
		last := batches[len(batches)-1]
		return last.CompleteThrough == 40 && len(last.Logs) == 1
	}, 5*time.Second, 10*time.Millisecond)
	require.Contains(t, source.pulled(), [2]uint64{31, 40})
	require.Zero(t, source.subscribeCount())
}

func TestSupervisor_LiveBuffersPerBlock(t *testing.T) {
	source := newFakeSource(10, true)
	sink := &fakeSink{}

	cfg := testConfig()
	cfg.FlushInterval = internalcommon.NewDuration(time.Second)

	s := New(cfg, vault(0), source, sink, sink, logger.NewNopLogger())
	runSupervisor(t, s)

	require.Eventually(t, func() bool { return s.State() == StateLive }, 5*time.Second, 10*time.Millisecond)
	backfilled := len(sink.recorded())

	removed := dt.Deposited(dt.At(11, 0), staker, 1)
	removed.Removed = true
	source.logs <- removed
	source.logs <- dt.Deposited(dt.At(11, 1), staker, 1)
	source.logs <- dt.Deposited(dt.At(11, 2), staker, 1)
	source.logs <- dt.Deposited(dt.At(13, 0), staker, 1)

	require.Eventually(t, func() bool { return len(sink.recorded()) > backfilled }, 5*time.Second, 10*time.Millisecond)

	block11 := sink.recorded()[backfilled]
	require.Len(t, block11.Logs, 2)
	require.Equal(t, uint64(12), block11.CompleteThrough)

	source.heads <- header(20)
	source.heads <- header(25)

	require.Eventually(t, func() bool { return len(sink.recorded()) > backfilled+1 }, 5*time.Second, 10*time.Millisecond)

	block13 := sink.recorded()[backfilled+1]
	require.Len(t, block13.Logs, 1)
	require.Equal(t, uint64(19), block13.CompleteThrough)

	source.heads <- header(30)

	require.Eventually(t, func() bool {
		return sink.cursorBlock(config.ContractStakingVault) == 24
	}, 5*time.Second, 10*time.Millisecond)
}

func TestSupervisor_FlushesPartialBlockAfterInterval(t *testing.T) {
	source := newFakeSource(10, true)
	sink := &fakeSink{}

	s := New(testConfig(), vault(0), source, sink, sink, logger.NewNopLogger())
	runSupervisor(t, s)

	require.Eventually(t, func() bool { return s.State() == StateLive }, 5*time.Second, 10*time.Millisecond)
	backfilled := len(sink.recorded())

	source.logs <- dt.Deposited(dt.At(11, 0), staker, 1)

	require.Eventually(t, func() bool { return len(sink.recorded()) > backfilled }, 5*time.Second, 10*time.Millisecond)

	flushed := sink.recorded()[backfilled]
	require.Len(t, flushed.Logs, 1)
	require.Equal(t, uint64(10), flushed.CompleteThrough)
}

func TestSupervisor_ReconnectsWhenStale(t *testing.T) {
	source := newFakeSource(5, true)
	sink := &fakeSink{}

	cfg := testConfig()
	cfg.StaleTimeout = internalcommon.NewDuration(50 * time.Millisecond)
	cfg.FlushInterval = internalcommon.NewDuration(10 * time.Millisecond)

	s := New(cfg, vault(0), source, sink, sink, logger.NewNopLogger())
	runSupervisor(t, s)

	require.Eventually(t, func() bool { return source.subscribeCount() >= 2 }, 5*time.Second, 10*time.Millisecond)

	// later sessions resume from the stored cursor, which is already at the head
	require.Equal(t, [][2]uint64{{0, 5}}, source.pulled())
}

func TestSupervisor_HeadNeverOvertakesQueuedLog(t *testing.T) {
	for i := range 20 {
		t.Run(fmt.Sprintf("run_%d", i), func(t *testing.T) {
			source := newFakeSource(10, true)
			sink := &fakeSink{}

			cfg := testConfig()
			cfg.FlushInterval = internalcommon.NewDuration(time.Second)

			// both are waiting when the session goes live, so either can be selected first
			source.logs <- dt.Deposited(dt.At(11, 0), staker, 1)
			source.heads <- header(12)

			s := New(cfg, vault(0), source, sink, sink, logger.NewNopLogger())
			runSupervisor(t, s)

			require.Eventually(t, func() bool {
				return len(source.logs) == 0 && len(source.heads) == 0
			}, 5*time.Second, time.Millisecond)

			source.heads <- header(13)

			require.Eventually(t, func() bool {
				return sink.cursorBlock(config.ContractStakingVault) == 11
			}, 5*time.Second, time.Millisecond)

			requireLogBeforeCursor(t, sink.recorded(), 11)
		})
	}
}

func TestSupervisor_HeadWaitsForLateLog(t *testing.T) {
	source := newFakeSource(10, true)
	sink := &fakeSink{}

	s := New(testConfig(), vault(0), source, sink, sink, logger.NewNopLogger())
	runSupervisor(t, s)

	require.Eventually(t, func() bool { return s.State() == StateLive }, 5*time.Second, 10*time.Millisecond)

	// the head of block 12 is delivered before the log of block 11
	source.heads <- header(12)
	require.Eventually(t, func() bool { return len(source.heads) == 0 }, 5*time.Second, time.Millisecond)
	require.Never(t, func() bool {
		return sink.cursorBlock(config.ContractStakingVault) >= 11
	}, 100*time.Millisecond, 10*time.Millisecond)

	source.logs <- dt.Deposited(dt.At(11, 0), staker, 1)
	source.heads <- header(13)

	require.Eventually(t, func() bool {
		return sink.cursorBlock(config.ContractStakingVault) == 11
	}, 5*time.Second, 10*time.Millisecond)

	requireLogBeforeCursor(t, sink.recorded(), 11)
}

func TestSupervisor_StreamOrdersRegistryAndGame(t *testing.T) {
	database, _ := testutil.NewTestDB(t)
	log := logger.NewNopLogger()
	st := store.New(database, log, nil)

	dec, err := decoder.New(decoder.NewAddressBook(dt.Contracts()))
	require.NoError(t, err)

	rec := reconciler.New(config.ReconcilerConfig{}, st, dec, nil, log)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = rec.Run(ctx) }()

	author := common.HexToAddress("0xa11ce00000000000000000000000000000000001")
	challenger := common.HexToAddress("0xb0b0000000000000000000000000000000000002")

	// the game is listed first; only the shared filter puts its logs behind the registry's
	source := newFakeSource(200, true,
		dt.DisputeResolved(dt.At(40, 0), 9, false, 1, 1),
		dt.DisputeInitialized(dt.At(120, 0), 3, 7, challenger),
		dt.DisputeResolved(dt.At(150, 0), 3, true, 11, 4),
		dt.ContentPublished(dt.At(100, 0), 7, author, common.HexToHash("0xabc"), 1000, 1700000000, 1700086400),
		dt.ContentChallenged(dt.At(110, 0), 7, challenger, 1, "ipfs://evidence", 500),
	)

	s := New(testConfig(), moderation(0, 50), source, rec, st, log)
	require.Equal(t, []string{config.ContractContentRegistry, config.ContractModerationGame}, s.Contracts())
	runSupervisor(t, s)

	require.Eventually(t, func() bool { return s.State() == StateLive }, 5*time.Second, 10*time.Millisecond)
	require.Equal(t, [][2]uint64{{0, 200}}, source.pulled())

	content, challenges, err := st.GetContentWithChallenges(7)
	require.NoError(t, err)
	require.Equal(t, lifecycle.StatusResolved, content.Status)
	require.Len(t, challenges, 1)
	require.Equal(t, uint64(3), *challenges[0].DisputeID)
	require.True(t, *challenges[0].Guilty)

	// the game log before the game start block was dropped, not recorded as unknown_dispute
	anomalies, err := st.CountAnomalies()
	require.NoError(t, err)
	require.Zero(t, anomalies)

	for _, contract := range s.Contracts() {
		cursor, err := st.GetCursor(contract)
		require.NoError(t, err)
		require.Equal(t, uint64(200), cursor.BlockNumber, contract)
	}
}

func TestSupervisor_ResumesStreamFromLaggingMember(t *testing.T) {
	sink := &fakeSink{}
	_, err := sink.Submit(context.Background(), reconciler.Batch{
		Contracts:       []string{config.ContractContentRegistry},
		CompleteThrough: 300,
	})
	require.NoError(t, err)
	_, err = sink.Submit(context.Background(), reconciler.Batch{
		Contracts:       []string{config.ContractModerationGame},
		CompleteThrough: 250,
	})
	require.NoError(t, err)

	source := newFakeSource(400, false)

	s := New(testConfig(), moderation(0, 0), source, sink, sink, logger.NewNopLogger())
	runSupervisor(t, s)

	require.Eventually(t, func() bool { return len(source.pulled()) >= 1 }, 5*time.Second, 10*time.Millisecond)
	require.Equal(t, [2]uint64{251, 400}, source.pulled()[0])

	require.Eventually(t, func() bool {
		return sink.cursorBlock(config.ContractModerationGame) == 400 &&
			sink.cursorBlock(config.ContractContentRegistry) == 400
	}, 5*time.Second, 10*time.Millisecond)
}
