package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/ModerationIndexor/internal/lifecycle"
	"github.com/russross/meddler"
)

// GetStake returns the stake ledger entry of user, or nil when the user never staked.
func GetStake(q Querier, user common.Address) (*StakeEntry, error) {
	var entry StakeEntry
	err := meddler.QueryRow(q, &entry, `SELECT * FROM stake_ledger WHERE user = ?`, user.Hex())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load stake of %s: %w", user.Hex(), err)
	}
	return &entry, nil
}

func newStakeEntry(user common.Address) *StakeEntry {
	return &StakeEntry{
		User:           user,
		Staked:         new(big.Int),
		DepositedTotal: new(big.Int),
		WithdrawnTotal: new(big.Int),
		SlashedTotal:   new(big.Int),
		RewardsClaimed: new(big.Int),
	}
}

func adjustStake(ctx context.Context, q Querier, pos Position, now int64, e lifecycle.AdjustStake) error {
	entry, err := GetStake(q, e.User)
	if err != nil {
		return err
	}
	if entry == nil {
		entry = newStakeEntry(e.User)
	}

	amount := orZero(e.Amount)
	switch e.Change {
	case lifecycle.StakeDeposit:
		entry.Staked.Add(entry.Staked, amount)
		entry.DepositedTotal.Add(entry.DepositedTotal, amount)
	case lifecycle.StakeWithdraw:
		entry.Staked.Sub(entry.Staked, amount)
		entry.WithdrawnTotal.Add(entry.WithdrawnTotal, amount)
	case lifecycle.StakeSlash:
		entry.Staked.Sub(entry.Staked, amount)
		entry.SlashedTotal.Add(entry.SlashedTotal, amount)
	case lifecycle.StakeReward:
		entry.RewardsClaimed.Add(entry.RewardsClaimed, amount)
	default:
		return fmt.Errorf("unknown stake change %q", e.Change)
	}

	if entry.Staked.Sign() < 0 {
		return fmt.Errorf("stake of %s would become negative", e.User.Hex())
	}

	entry.LastBlock = pos.Block
	entry.UpdatedAt = now

	_, err = q.ExecContext(ctx, `
		INSERT INTO stake_ledger
			(user, staked, deposited_total, withdrawn_total, slashed_total, rewards_claimed, last_block, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user) DO UPDATE SET
			staked = excluded.staked,
			deposited_total = excluded.deposited_total,
			withdrawn_total = excluded.withdrawn_total,
			slashed_total = excluded.slashed_total,
			rewards_claimed = excluded.rewards_claimed,
			last_block = excluded.last_block,
			updated_at = excluded.updated_at`,
		entry.User.Hex(),
		entry.Staked.String(),
		entry.DepositedTotal.String(),
		entry.WithdrawnTotal.String(),
		entry.SlashedTotal.String(),
		entry.RewardsClaimed.String(),
		entry.LastBlock,
		entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to write stake of %s: %w", e.User.Hex(), err)
	}

	return nil
}

// StakeTotals sums the stake of every user and counts users whose stake is at
// least minStake. Amounts are summed in Go since they overflow SQLite integers.
func (s *Store) StakeTotals(minStake *big.Int) (*big.Int, int, error) {
	total := new(big.Int)
	stakers := 0

	err := s.read(func(q Querier) error {
		var entries []*StakeEntry
		if err := meddler.QueryAll(q, &entries, `SELECT * FROM stake_ledger`); err != nil {
			return fmt.Errorf("failed to load stake ledger: %w", err)
		}

		for _, entry := range entries {
			total.Add(total, entry.Staked)
			if entry.Staked.Sign() > 0 && (minStake == nil || entry.Staked.Cmp(minStake) >= 0) {
				stakers++
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return total, stakers, nil
}

// GetStake returns the stake ledger entry of user, or nil.
func (s *Store) GetStake(user common.Address) (*StakeEntry, error) {
	var entry *StakeEntry
	err := s.read(func(q Querier) error {
		var err error
		entry, err = GetStake(q, user)
		return err
	})
	return entry, err
}
