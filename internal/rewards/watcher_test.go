package rewards

import (
	"context"
	"database/sql"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/ModerationIndexor/internal/lifecycle"
	"github.com/goran-ethernal/ModerationIndexor/internal/logger"
	"github.com/goran-ethernal/ModerationIndexor/internal/store"
	"github.com/goran-ethernal/ModerationIndexor/internal/testutil"
	"github.com/goran-ethernal/ModerationIndexor/pkg/config"
	"github.com/stretchr/testify/require"
)

type fakeChain struct {
	head atomic.Uint64
}

func (f *fakeChain) LatestBlock(context.Context) (uint64, error) {
	return f.head.Load(), nil
}

func setupWatcher(t *testing.T, head uint64) (*Watcher, *store.Store, *fakeChain) {
	t.Helper()

	database, _ := testutil.NewTestDB(t)
	st := store.New(database, logger.NewNopLogger(), nil)

	chain := &fakeChain{}
	chain.head.Store(head)

	w, err := New(config.RewardsConfig{
		Enabled:        true,
		Schedule:       "@every 1h",
		BlocksPerEpoch: 50,
		MinStake:       "5",
	}, st, chain, logger.NewNopLogger())
	require.NoError(t, err)

	return w, st, chain
}

func deposit(t *testing.T, st *store.Store, user common.Address, amount int64) {
	t.Helper()

	err := st.RunInTx(context.Background(), func(tx *sql.Tx) error {
		return store.ApplyEffects(context.Background(), tx, store.Position{Block: 1}, []lifecycle.Effect{
			lifecycle.AdjustStake{User: user, Change: lifecycle.StakeDeposit, Amount: big.NewInt(amount)},
		})
	})
	require.NoError(t, err)
}

func TestWatcher_Check(t *testing.T) {
	w, st, chain := setupWatcher(t, 120)
	ctx := context.Background()

	deposit(t, st, common.HexToAddress("0x01"), 10)
	deposit(t, st, common.HexToAddress("0x02"), 3)

	snap, err := w.Check(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	require.Equal(t, uint64(2), snap.Epoch)
	require.Equal(t, uint64(120), snap.BlockNumber)
	require.Equal(t, "13", snap.TotalStaked.String())
	require.Equal(t, 1, snap.Stakers)

	// same epoch
	chain.head.Store(149)
	snap, err = w.Check(ctx)
	require.NoError(t, err)
	require.Nil(t, snap)

	chain.head.Store(150)
	snap, err = w.Check(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(3), snap.Epoch)

	latest, err := st.LatestEpoch()
	require.NoError(t, err)
	require.Equal(t, uint64(3), latest.Epoch)
	require.Equal(t, uint64(150), latest.BlockNumber)
}

func TestWatcher_RunChecksImmediately(t *testing.T) {
	w, st, _ := setupWatcher(t, 60)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		latest, err := st.LatestEpoch()
		return err == nil && latest != nil && latest.Epoch == 1
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(config.RewardsConfig{Schedule: "every now and then"}, nil, nil, logger.NewNopLogger())
	require.ErrorContains(t, err, "invalid rewards.schedule")

	_, err = New(config.RewardsConfig{MinStake: "lots"}, nil, nil, logger.NewNopLogger())
	require.ErrorContains(t, err, "invalid rewards.min_stake")
}
