package rpc

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	pkgrpc "github.com/goran-ethernal/ModerationIndexor/pkg/rpc"
	"github.com/stretchr/testify/require"
)

// fakeEthService serves the handful of eth_ methods the client uses.
type fakeEthService struct {
	head     uint64
	logs     []types.Log
	logsFeed chan types.Log
	failures int
}

func (s *fakeEthService) ChainId() *hexutil.Big { //nolint:revive,stylecheck
	return (*hexutil.Big)(big.NewInt(10143))
}

func (s *fakeEthService) BlockNumber() (hexutil.Uint64, error) {
	if s.failures > 0 {
		s.failures--
		return 0, errors.New("503 service unavailable")
	}
	return hexutil.Uint64(s.head), nil
}

func (s *fakeEthService) GetLogs(crit map[string]interface{}) ([]types.Log, error) {
	return s.logs, nil
}

func (s *fakeEthService) Logs(ctx context.Context, crit map[string]interface{}) (*rpc.Subscription, error) {
	notifier, ok := rpc.NotifierFromContext(ctx)
	if !ok {
		return nil, rpc.ErrNotificationsUnsupported
	}

	sub := notifier.CreateSubscription()
	go func() {
		for {
			select {
			case l := <-s.logsFeed:
				_ = notifier.Notify(sub.ID, l)
			case <-sub.Err():
				return
			}
		}
	}()

	return sub, nil
}

func newFakeNode(t *testing.T, svc *fakeEthService) *rpc.Client {
	t.Helper()

	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("eth", svc))
	t.Cleanup(server.Stop)

	return rpc.DialInProc(server)
}

func testLog(block uint64, index uint) types.Log {
	return types.Log{
		Address:     common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"),
		Topics:      []common.Hash{common.HexToHash("0x01")},
		Data:        []byte{0x01},
		BlockNumber: block,
		TxHash:      common.HexToHash("0xaa"),
		BlockHash:   common.HexToHash("0xbb"),
		Index:       index,
	}
}

func TestClient_PullMethods(t *testing.T) {
	svc := &fakeEthService{head: 150, logs: []types.Log{testLog(120, 1)}, failures: 1}
	conn := newFakeNode(t, svc)
	client := NewClientFromRPC(conn, nil, testRetryConfig(3))
	defer client.Close()

	ctx := context.Background()

	head, err := client.BlockNumber(ctx)
	require.NoError(t, err, "a transient failure should be retried")
	require.Equal(t, uint64(150), head)

	id, err := client.ChainID(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(10143), id.Int64())

	logs, err := client.GetLogs(ctx, ethereum.FilterQuery{
		FromBlock: big.NewInt(100),
		ToBlock:   big.NewInt(150),
	})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, uint64(120), logs[0].BlockNumber)
}

func TestClient_SubscribeWithoutPushEndpoint(t *testing.T) {
	conn := newFakeNode(t, &fakeEthService{})
	client := NewClientFromRPC(conn, nil, nil)
	defer client.Close()

	_, err := client.SubscribeLogs(context.Background(), ethereum.FilterQuery{}, make(chan types.Log))
	require.ErrorIs(t, err, pkgrpc.ErrPushUnsupported)

	_, err = client.SubscribeNewHeads(context.Background(), make(chan *types.Header))
	require.ErrorIs(t, err, pkgrpc.ErrPushUnsupported)
}

func TestClient_SubscribeLogs(t *testing.T) {
	svc := &fakeEthService{logsFeed: make(chan types.Log)}
	conn := newFakeNode(t, svc)
	client := NewClientFromRPC(conn, conn, nil)
	defer client.Close()

	ch := make(chan types.Log, 1)
	sub, err := client.SubscribeLogs(context.Background(), ethereum.FilterQuery{}, ch)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	svc.logsFeed <- testLog(151, 0)

	select {
	case l := <-ch:
		require.Equal(t, uint64(151), l.BlockNumber)
	case err := <-sub.Err():
		t.Fatalf("subscription failed: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("no log delivered")
	}
}
