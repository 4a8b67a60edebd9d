package rpc

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrPushUnsupported is returned by the subscription methods when the endpoint
// cannot deliver push notifications (no socket endpoint configured, or the node refused).
var ErrPushUnsupported = errors.New("push subscriptions are not supported by the endpoint")

// EthClient defines the chain node operations the indexer relies on.
type EthClient interface {
	// Close closes every connection held by the client.
	Close()

	// ChainID returns the chain id reported by the node.
	ChainID(ctx context.Context) (*big.Int, error)

	// BlockNumber returns the latest block number.
	BlockNumber(ctx context.Context) (uint64, error)

	// GetLogs retrieves logs matching the given filter query.
	GetLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error)

	// SubscribeLogs streams new logs matching the query into ch.
	SubscribeLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)

	// SubscribeNewHeads streams new chain heads into ch.
	SubscribeNewHeads(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error)
}
