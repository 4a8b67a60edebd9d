package fetcher

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/goran-ethernal/ModerationIndexor/pkg/rpc"
)

// ErrPushUnsupported is returned by Subscribe and SubscribeHeads when the
// endpoint cannot push notifications. Callers fall back to polling.
var ErrPushUnsupported = rpc.ErrPushUnsupported

// LogSource is the transport-facing side of the indexer: it pulls historical
// log ranges and opens push streams of new logs and heads.
// It never decides whether a stream went stale; that is left to the caller.
type LogSource interface {
	// FetchRange returns all logs emitted by addresses in [from, to], sorted by
	// (block number, log index). Large ranges are fetched in chunks.
	FetchRange(ctx context.Context, addresses []common.Address, from, to uint64) ([]types.Log, error)

	// Subscribe opens a push stream of logs emitted by addresses.
	// Logs below fromBlock are dropped.
	Subscribe(ctx context.Context, addresses []common.Address, fromBlock uint64) (Subscription, error)

	// SubscribeHeads opens a push stream of new chain heads.
	SubscribeHeads(ctx context.Context) (HeadSubscription, error)

	// LatestBlock returns the current chain head number.
	LatestBlock(ctx context.Context) (uint64, error)
}

// Subscription is an open log stream.
type Subscription interface {
	// Logs delivers logs in the order the node pushed them.
	Logs() <-chan types.Log

	// Err receives at most one error when the stream fails.
	Err() <-chan error

	// Unsubscribe closes the stream. It is safe to call more than once.
	Unsubscribe()
}

// HeadSubscription is an open stream of new chain heads.
type HeadSubscription interface {
	Heads() <-chan *types.Header
	Err() <-chan error
	Unsubscribe()
}
