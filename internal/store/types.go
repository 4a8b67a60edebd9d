package store

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/ModerationIndexor/internal/lifecycle"
)

// Position is the on-chain position of a log.
type Position struct {
	Block uint64
	Index uint
}

// Less reports whether p comes before other on chain.
func (p Position) Less(other Position) bool {
	if p.Block != other.Block {
		return p.Block < other.Block
	}
	return p.Index < other.Index
}

// Content is a row of the content table.
type Content struct {
	ContentID         uint64           `meddler:"content_id" json:"content_id"`
	ContentHash       common.Hash      `meddler:"content_hash,hash" json:"content_hash" swaggertype:"string"`
	Author            common.Address   `meddler:"author,address" json:"author" swaggertype:"string"`
	Status            lifecycle.Status `meddler:"status" json:"status"`
	BondAmount        *big.Int         `meddler:"bond_amount,bigint" json:"bond_amount" swaggertype:"integer"`
	PublishedAt       uint64           `meddler:"published_at" json:"published_at"`
	LockUntil         uint64           `meddler:"lock_until" json:"lock_until"`
	PublishedBlock    uint64           `meddler:"published_block" json:"published_block"`
	LastEventBlock    uint64           `meddler:"last_event_block" json:"last_event_block"`
	LastEventLogIndex uint             `meddler:"last_event_log_index" json:"last_event_log_index"`
	UpdatedAt         int64            `meddler:"updated_at" json:"updated_at"`
}

// Challenge is a row of the challenges table.
type Challenge struct {
	ID             int64          `meddler:"id,pk" json:"id"`
	ContentID      uint64         `meddler:"content_id" json:"content_id"`
	Challenger     common.Address `meddler:"challenger,address" json:"challenger" swaggertype:"string"`
	Reason         uint8          `meddler:"reason" json:"reason"`
	Evidence       string         `meddler:"evidence" json:"evidence"`
	BondAmount     *big.Int       `meddler:"bond_amount,bigint" json:"bond_amount" swaggertype:"integer"`
	DisputeID      *uint64        `meddler:"dispute_id" json:"dispute_id,omitempty"`
	DisputeActive  bool           `meddler:"dispute_active" json:"dispute_active"`
	Resolved       bool           `meddler:"resolved" json:"resolved"`
	Guilty         *bool          `meddler:"guilty" json:"guilty,omitempty"`
	SlashedAmount  *big.Int       `meddler:"slashed_amount,bigint" json:"slashed_amount,omitempty" swaggertype:"integer"`
	GuiltyVotes    *big.Int       `meddler:"guilty_votes,bigint" json:"guilty_votes,omitempty" swaggertype:"integer"`
	NotGuiltyVotes *big.Int       `meddler:"not_guilty_votes,bigint" json:"not_guilty_votes,omitempty" swaggertype:"integer"`
	CreatedBlock   uint64         `meddler:"created_block" json:"created_block"`
	ResolvedBlock  *uint64        `meddler:"resolved_block" json:"resolved_block,omitempty"`
}

// StakeEntry is a row of the stake_ledger table.
type StakeEntry struct {
	User           common.Address `meddler:"user,address" json:"user" swaggertype:"string"`
	Staked         *big.Int       `meddler:"staked,bigint" json:"staked" swaggertype:"integer"`
	DepositedTotal *big.Int       `meddler:"deposited_total,bigint" json:"deposited_total" swaggertype:"integer"`
	WithdrawnTotal *big.Int       `meddler:"withdrawn_total,bigint" json:"withdrawn_total" swaggertype:"integer"`
	SlashedTotal   *big.Int       `meddler:"slashed_total,bigint" json:"slashed_total" swaggertype:"integer"`
	RewardsClaimed *big.Int       `meddler:"rewards_claimed,bigint" json:"rewards_claimed" swaggertype:"integer"`
	LastBlock      uint64         `meddler:"last_block" json:"last_block"`
	UpdatedAt      int64          `meddler:"updated_at" json:"updated_at"`
}

// Cursor is a row of the indexer_cursors table.
// BlockNumber is the highest block whose logs are all applied. The tip is the
// position of the highest applied log.
type Cursor struct {
	Contract    string  `meddler:"contract" json:"contract"`
	BlockNumber uint64  `meddler:"block_number" json:"block_number"`
	TipBlock    *uint64 `meddler:"tip_block" json:"tip_block,omitempty"`
	TipLogIndex *uint   `meddler:"tip_log_index" json:"tip_log_index,omitempty"`
	UpdatedAt   int64   `meddler:"updated_at" json:"updated_at"`
}

// Tip returns the position of the highest applied log, if any.
func (c *Cursor) Tip() (Position, bool) {
	if c == nil || c.TipBlock == nil || c.TipLogIndex == nil {
		return Position{}, false
	}
	return Position{Block: *c.TipBlock, Index: *c.TipLogIndex}, true
}

// Anomaly is a row of the anomalies table.
type Anomaly struct {
	ID            int64       `meddler:"id,pk" json:"id"`
	TxHash        common.Hash `meddler:"tx_hash,hash" json:"tx_hash" swaggertype:"string"`
	LogIndex      uint        `meddler:"log_index" json:"log_index"`
	BlockNumber   uint64      `meddler:"block_number" json:"block_number"`
	Contract      string      `meddler:"contract" json:"contract"`
	EventType     string      `meddler:"event_type" json:"event_type"`
	ContentID     *uint64     `meddler:"content_id" json:"content_id,omitempty"`
	CurrentStatus *string     `meddler:"current_status" json:"current_status,omitempty"`
	Reason        string      `meddler:"reason" json:"reason"`
	Payload       string      `meddler:"payload" json:"payload"`
	RecordedAt    int64       `meddler:"recorded_at" json:"recorded_at"`
}

// Dead letter reasons.
const (
	DeadLetterStorage    = "storage_failure"
	DeadLetterOutOfOrder = "out_of_order"
)

// DeadLetter is a row of the dead_letters table. RawLog holds the log as JSON.
type DeadLetter struct {
	ID          int64       `meddler:"id,pk" json:"id"`
	TxHash      common.Hash `meddler:"tx_hash,hash" json:"tx_hash" swaggertype:"string"`
	LogIndex    uint        `meddler:"log_index" json:"log_index"`
	BlockNumber uint64      `meddler:"block_number" json:"block_number"`
	Contract    string      `meddler:"contract" json:"contract"`
	Reason      string      `meddler:"reason" json:"reason"`
	Error       string      `meddler:"error" json:"error"`
	Attempts    int         `meddler:"attempts" json:"attempts"`
	RawLog      string      `meddler:"raw_log" json:"raw_log"`
	CreatedAt   int64       `meddler:"created_at" json:"created_at"`
}

// EpochSnapshot is a row of the epoch_snapshots table.
type EpochSnapshot struct {
	Epoch       uint64   `meddler:"epoch" json:"epoch"`
	BlockNumber uint64   `meddler:"block_number" json:"block_number"`
	TotalStaked *big.Int `meddler:"total_staked,bigint" json:"total_staked" swaggertype:"integer"`
	Stakers     int      `meddler:"stakers" json:"stakers"`
	CreatedAt   int64    `meddler:"created_at" json:"created_at"`
}
