package fetcher

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/goran-ethernal/ModerationIndexor/internal/logger"
	irpc "github.com/goran-ethernal/ModerationIndexor/internal/rpc"
	"github.com/goran-ethernal/ModerationIndexor/pkg/fetcher"
	"github.com/goran-ethernal/ModerationIndexor/pkg/rpc"
)

// Compile-time check to ensure LogSource implements fetcher.LogSource interface.
var _ fetcher.LogSource = (*LogSource)(nil)

var errSubscriptionClosed = errors.New("subscription closed by the node")

const (
	defaultChunkSize = 2000
	streamBuffer     = 256
)

// LogSource pulls and streams contract logs through an EthClient.
type LogSource struct {
	rpc       rpc.EthClient
	chunkSize uint64
	log       *logger.Logger
}

// NewLogSource creates a new LogSource. A zero chunkSize uses the default.
func NewLogSource(rpcClient rpc.EthClient, chunkSize uint64, log *logger.Logger) *LogSource {
	if chunkSize == 0 {
		chunkSize = defaultChunkSize
	}

	return &LogSource{
		rpc:       rpcClient,
		chunkSize: chunkSize,
		log:       log,
	}
}

// LatestBlock returns the current chain head number.
func (s *LogSource) LatestBlock(ctx context.Context) (uint64, error) {
	head, err := s.rpc.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block: %w", err)
	}

	ChainHeadSet(head)
	return head, nil
}

// FetchRange fetches all logs in [from, to] chunk by chunk and returns them
// sorted by (block number, log index).
func (s *LogSource) FetchRange(
	ctx context.Context,
	addresses []common.Address,
	from, to uint64,
) ([]types.Log, error) {
	if from > to || len(addresses) == 0 {
		return nil, nil
	}

	var logs []types.Log
	for start := from; start <= to; {
		end := min(start+s.chunkSize-1, to)
		if end < start {
			// chunk end overflowed
			end = to
		}

		chunk, coveredTo, err := s.fetchChunk(ctx, addresses, start, end)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch logs from %d to %d: %w", start, end, err)
		}
		logs = append(logs, chunk...)

		if coveredTo >= to {
			break
		}
		start = coveredTo + 1
	}

	SortLogs(logs)
	LogsFetchedAdd(len(logs))

	s.log.Debugf("fetched %d logs from %d to %d for %d addresses", len(logs), from, to, len(addresses))

	return logs, nil
}

// fetchChunk fetches logs starting at fromBlock. When the provider rejects the
// range as too large it narrows the range (to the provider's suggestion, or by
// halving) and returns the last block actually covered.
func (s *LogSource) fetchChunk(
	ctx context.Context,
	addresses []common.Address,
	fromBlock, toBlock uint64,
) ([]types.Log, uint64, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: addresses,
	}

	logs, err := s.rpc.GetLogs(ctx, query)
	if err == nil {
		return logs, toBlock, nil
	}

	ok, errData := irpc.IsTooManyResultsError(err)
	if !ok {
		return nil, 0, err
	}

	RangeSplitInc()

	if suggestedFrom, suggestedTo, ok := irpc.ParseSuggestedBlockRange(errData); ok &&
		suggestedFrom == fromBlock && suggestedTo < toBlock {
		s.log.Infof("too many logs, retrying with suggested block range from %d to %d (original range %d to %d)",
			suggestedFrom, suggestedTo, fromBlock, toBlock)
		return s.fetchChunk(ctx, addresses, suggestedFrom, suggestedTo)
	}

	const splitBy = 2
	mid := fromBlock + (toBlock-fromBlock)/splitBy
	if fromBlock == toBlock {
		return nil, 0, fmt.Errorf("cannot split range further, single block %d has too many logs", fromBlock)
	}

	s.log.Infof("too many logs, retrying with block range from %d to %d (original range %d to %d)",
		fromBlock, mid, fromBlock, toBlock)

	return s.fetchChunk(ctx, addresses, fromBlock, mid)
}

// Subscribe opens a log stream for addresses and drops logs below fromBlock.
func (s *LogSource) Subscribe(
	ctx context.Context,
	addresses []common.Address,
	fromBlock uint64,
) (fetcher.Subscription, error) {
	raw := make(chan types.Log, streamBuffer)
	sub, err := s.rpc.SubscribeLogs(ctx, ethereum.FilterQuery{Addresses: addresses}, raw)
	if err != nil {
		return nil, err
	}

	ls := &logSubscription{
		logs:   make(chan types.Log, streamBuffer),
		stream: newStream(sub),
	}
	go ls.forward(raw, fromBlock)

	return ls, nil
}

// SubscribeHeads opens a stream of new chain heads.
func (s *LogSource) SubscribeHeads(ctx context.Context) (fetcher.HeadSubscription, error) {
	raw := make(chan *types.Header, streamBuffer)
	sub, err := s.rpc.SubscribeNewHeads(ctx, raw)
	if err != nil {
		return nil, err
	}

	hs := &headSubscription{
		heads:  make(chan *types.Header, streamBuffer),
		stream: newStream(sub),
	}
	go hs.forward(raw)

	return hs, nil
}

// SortLogs orders logs by (block number, log index).
func SortLogs(logs []types.Log) {
	slices.SortStableFunc(logs, func(a, b types.Log) int {
		if a.BlockNumber != b.BlockNumber {
			if a.BlockNumber < b.BlockNumber {
				return -1
			}
			return 1
		}
		switch {
		case a.Index < b.Index:
			return -1
		case a.Index > b.Index:
			return 1
		default:
			return 0
		}
	})
}

// stream owns the node subscription shared by log and head streams.
type stream struct {
	sub  ethereum.Subscription
	errs chan error
	quit chan struct{}
	once sync.Once
}

func newStream(sub ethereum.Subscription) *stream {
	return &stream{
		sub:  sub,
		errs: make(chan error, 1),
		quit: make(chan struct{}),
	}
}

func (s *stream) Err() <-chan error {
	return s.errs
}

func (s *stream) Unsubscribe() {
	s.once.Do(func() {
		close(s.quit)
		s.sub.Unsubscribe()
	})
}

// fail reports err unless the stream was closed by the caller.
func (s *stream) fail(err error) {
	select {
	case <-s.quit:
		return
	default:
	}

	if err == nil {
		err = errSubscriptionClosed
	}
	select {
	case s.errs <- err:
	default:
	}
}

type logSubscription struct {
	logs chan types.Log
	*stream
}

func (ls *logSubscription) Logs() <-chan types.Log {
	return ls.logs
}

func (ls *logSubscription) forward(raw <-chan types.Log, fromBlock uint64) {
	for {
		select {
		case l := <-raw:
			if l.BlockNumber < fromBlock {
				continue
			}
			select {
			case ls.logs <- l:
			case <-ls.quit:
				return
			}
		case err := <-ls.sub.Err():
			ls.fail(err)
			return
		case <-ls.quit:
			return
		}
	}
}

type headSubscription struct {
	heads chan *types.Header
	*stream
}

func (hs *headSubscription) Heads() <-chan *types.Header {
	return hs.heads
}

func (hs *headSubscription) forward(raw <-chan *types.Header) {
	for {
		select {
		case h := <-raw:
			if h != nil && h.Number != nil {
				ChainHeadSet(h.Number.Uint64())
			}
			select {
			case hs.heads <- h:
			case <-hs.quit:
				return
			}
		case err := <-hs.sub.Err():
			hs.fail(err)
			return
		case <-hs.quit:
			return
		}
	}
}
