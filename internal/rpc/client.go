package rpc

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/goran-ethernal/ModerationIndexor/pkg/config"
	pkgrpc "github.com/goran-ethernal/ModerationIndexor/pkg/rpc"
)

// Compile-time check to ensure Client implements pkgrpc.EthClient interface.
var _ pkgrpc.EthClient = (*Client)(nil)

// Client talks to the chain node over two connections: pull requests go to the
// JSON-RPC endpoint, subscriptions go to the optional socket endpoint.
type Client struct {
	pull  *ethclient.Client
	push  *ethclient.Client
	retry *config.RetryConfig
}

// NewClient dials the pull endpoint and, when pushEndpoint is not empty, the push endpoint.
func NewClient(ctx context.Context, endpoint, pushEndpoint string, retry *config.RetryConfig) (*Client, error) {
	pull, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", endpoint, err)
	}

	var push *rpc.Client
	if pushEndpoint != "" {
		if pushEndpoint == endpoint {
			push = pull
		} else if push, err = rpc.DialContext(ctx, pushEndpoint); err != nil {
			pull.Close()
			return nil, fmt.Errorf("failed to dial %s: %w", pushEndpoint, err)
		}
	}

	return NewClientFromRPC(pull, push, retry), nil
}

// NewClientFromRPC wraps already dialed connections. push may be nil.
func NewClientFromRPC(pull, push *rpc.Client, retry *config.RetryConfig) *Client {
	c := &Client{
		pull:  ethclient.NewClient(pull),
		retry: retry,
	}
	if push != nil {
		c.push = ethclient.NewClient(push)
	}
	return c
}

// Close closes the RPC client connections.
func (c *Client) Close() {
	if c.push != nil && c.push.Client() != c.pull.Client() {
		c.push.Close()
	}
	c.pull.Close()
}

// ChainID returns the chain id reported by the node.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	var id *big.Int
	err := c.call(ctx, "eth_chainId", func() error {
		var err error
		id, err = c.pull.ChainID(ctx)
		return err
	})
	return id, err
}

// BlockNumber returns the latest block number.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var number uint64
	err := c.call(ctx, "eth_blockNumber", func() error {
		var err error
		number, err = c.pull.BlockNumber(ctx)
		return err
	})
	return number, err
}

// GetLogs retrieves logs matching the given filter query.
func (c *Client) GetLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	var logs []types.Log
	err := c.call(ctx, "eth_getLogs", func() error {
		var err error
		logs, err = c.pull.FilterLogs(ctx, query)
		return err
	})
	return logs, err
}

// SubscribeLogs streams new logs matching the query into ch.
func (c *Client) SubscribeLogs(
	ctx context.Context,
	query ethereum.FilterQuery,
	ch chan<- types.Log,
) (ethereum.Subscription, error) {
	if c.push == nil {
		return nil, pkgrpc.ErrPushUnsupported
	}

	RPCMethodInc("eth_subscribe_logs")
	sub, err := c.push.SubscribeFilterLogs(ctx, query, ch)
	return sub, subscriptionError("eth_subscribe_logs", err)
}

// SubscribeNewHeads streams new chain heads into ch.
func (c *Client) SubscribeNewHeads(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error) {
	if c.push == nil {
		return nil, pkgrpc.ErrPushUnsupported
	}

	RPCMethodInc("eth_subscribe_newHeads")
	sub, err := c.push.SubscribeNewHead(ctx, ch)
	return sub, subscriptionError("eth_subscribe_newHeads", err)
}

func subscriptionError(method string, err error) error {
	if err == nil {
		return nil
	}

	RPCMethodError(method, classifyError(err))

	if errors.Is(err, rpc.ErrNotificationsUnsupported) {
		return fmt.Errorf("%w: %w", pkgrpc.ErrPushUnsupported, err)
	}

	return err
}

// call runs fn with retries and records request metrics.
func (c *Client) call(ctx context.Context, method string, fn func() error) error {
	RPCMethodInc(method)
	start := time.Now()

	err := retryWithBackoff(ctx, c.retry, method, fn)

	RPCMethodDuration(method, time.Since(start))
	if err != nil {
		RPCMethodError(method, classifyError(err))
	}

	return err
}

func classifyError(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "context"
	case errors.Is(err, rpc.ErrNotificationsUnsupported):
		return "unsupported"
	case isTooManyResults(err):
		return "too_many_results"
	case retryableError(err):
		return "transient"
	default:
		return "other"
	}
}

func isTooManyResults(err error) bool {
	tooMany, _ := IsTooManyResultsError(err)
	return tooMany
}
