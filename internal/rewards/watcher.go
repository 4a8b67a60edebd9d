// Package rewards records a stake snapshot whenever the chain enters a new
// rewards epoch. It only reads the stake ledger.
package rewards

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/goran-ethernal/ModerationIndexor/internal/common"
	"github.com/goran-ethernal/ModerationIndexor/internal/logger"
	"github.com/goran-ethernal/ModerationIndexor/internal/store"
	"github.com/goran-ethernal/ModerationIndexor/pkg/config"
	"github.com/robfig/cron"
)

// EpochStore is the storage the watcher needs. It is satisfied by *store.Store.
type EpochStore interface {
	LatestEpoch() (*store.EpochSnapshot, error)
	StakeTotals(minStake *big.Int) (*big.Int, int, error)
	InsertEpochSnapshot(ctx context.Context, snap *store.EpochSnapshot) (bool, error)
}

// HeadReader returns the current chain height.
type HeadReader interface {
	LatestBlock(ctx context.Context) (uint64, error)
}

// Watcher checks the chain height on a cron schedule.
type Watcher struct {
	schedule       string
	blocksPerEpoch uint64
	minStake       *big.Int

	store EpochStore
	chain HeadReader
	cron  *cron.Cron
	log   *logger.Logger
}

// New creates a Watcher.
func New(cfg config.RewardsConfig, st EpochStore, chain HeadReader, log *logger.Logger) (*Watcher, error) {
	cfg.ApplyDefaults()

	if _, err := cron.Parse(cfg.Schedule); err != nil {
		return nil, fmt.Errorf("invalid rewards.schedule %q: %w", cfg.Schedule, err)
	}

	minStake, err := common.ParseAmount(cfg.MinStake)
	if err != nil {
		return nil, fmt.Errorf("invalid rewards.min_stake: %w", err)
	}

	return &Watcher{
		schedule:       cfg.Schedule,
		blocksPerEpoch: cfg.BlocksPerEpoch,
		minStake:       minStake,
		store:          st,
		chain:          chain,
		cron:           cron.New(),
		log:            log.WithComponent(common.ComponentRewards),
	}, nil
}

// Run checks once, then on every scheduled tick until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	w.check(ctx)

	if err := w.cron.AddFunc(w.schedule, func() { w.check(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule epoch check: %w", err)
	}

	w.cron.Start()
	w.log.Infow("epoch watcher started", "schedule", w.schedule, "blocks_per_epoch", w.blocksPerEpoch)

	<-ctx.Done()

	w.cron.Stop()
	w.log.Info("epoch watcher stopped")

	return nil
}

func (w *Watcher) check(ctx context.Context) {
	snap, err := w.Check(ctx)
	switch {
	case err != nil && !errors.Is(err, context.Canceled):
		CheckFailedInc()
		w.log.Errorw("epoch check failed", "error", err)
	case snap != nil:
		w.log.Infow("epoch checkpoint due",
			"epoch", snap.Epoch,
			"block", snap.BlockNumber,
			"total_staked", snap.TotalStaked.String(),
			"stakers", snap.Stakers,
		)
	}
}

// Check records a snapshot when the chain head is in an epoch later than the
// last recorded one. It returns the new snapshot, or nil when nothing was due.
func (w *Watcher) Check(ctx context.Context) (*store.EpochSnapshot, error) {
	head, err := w.chain.LatestBlock(ctx)
	if err != nil {
		return nil, err
	}

	epoch := head / w.blocksPerEpoch

	latest, err := w.store.LatestEpoch()
	if err != nil {
		return nil, err
	}
	if latest != nil && epoch <= latest.Epoch {
		return nil, nil
	}

	total, stakers, err := w.store.StakeTotals(w.minStake)
	if err != nil {
		return nil, err
	}

	snap := &store.EpochSnapshot{
		Epoch:       epoch,
		BlockNumber: head,
		TotalStaked: total,
		Stakers:     stakers,
	}

	inserted, err := w.store.InsertEpochSnapshot(ctx, snap)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, nil
	}

	EpochSet(epoch)
	return snap, nil
}
