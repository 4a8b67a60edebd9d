package decoder

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Event names as they appear in the contract ABI.
const (
	EventContentPublished   = "ContentPublished"
	EventContentChallenged  = "ContentChallenged"
	EventChallengeResolved  = "ChallengeResolved"
	EventDisputeInitialized = "DisputeInitialized"
	EventDisputeResolved    = "DisputeResolved"
	EventDeposited          = "Deposited"
	EventWithdrawn          = "Withdrawn"
	EventSlashed            = "Slashed"
	EventRewardClaimed      = "RewardClaimed"
)

// Event is a decoded protocol event. The set of implementations is closed:
// only the types in this file satisfy it.
type Event interface {
	// EventName returns the ABI name of the event.
	EventName() string

	isEvent()
}

// ContentEvent is implemented by events that address a content record directly.
type ContentEvent interface {
	Event
	GetContentID() uint64
}

// StakeEvent is implemented by events that move a user's stake ledger.
type StakeEvent interface {
	Event
	GetUser() common.Address
	GetAmount() *big.Int
}

type ContentPublished struct {
	ContentID   uint64         `json:"content_id"`
	Author      common.Address `json:"author"`
	ContentHash common.Hash    `json:"content_hash"`
	Bond        *big.Int       `json:"bond"`
	PublishedAt uint64         `json:"published_at"`
	LockUntil   uint64         `json:"lock_until"`
}

type ContentChallenged struct {
	ContentID  uint64         `json:"content_id"`
	Challenger common.Address `json:"challenger"`
	Reason     uint8          `json:"reason"`
	Evidence   string         `json:"evidence"`
	Bond       *big.Int       `json:"bond"`
}

type ChallengeResolved struct {
	ContentID     uint64   `json:"content_id"`
	Guilty        bool     `json:"guilty"`
	SlashedAmount *big.Int `json:"slashed_amount"`
}

type DisputeInitialized struct {
	DisputeID  uint64         `json:"dispute_id"`
	ContentID  uint64         `json:"content_id"`
	Challenger common.Address `json:"challenger"`
}

// DisputeResolved carries only the dispute id; the content it belongs to is
// found through the challenge that DisputeInitialized linked to it.
type DisputeResolved struct {
	DisputeID      uint64   `json:"dispute_id"`
	Guilty         bool     `json:"guilty"`
	GuiltyVotes    *big.Int `json:"guilty_votes"`
	NotGuiltyVotes *big.Int `json:"not_guilty_votes"`
}

type Deposited struct {
	User   common.Address `json:"user"`
	Amount *big.Int       `json:"amount"`
}

type Withdrawn struct {
	User   common.Address `json:"user"`
	Amount *big.Int       `json:"amount"`
}

type Slashed struct {
	User   common.Address `json:"user"`
	Amount *big.Int       `json:"amount"`
	Reason uint8          `json:"reason"`
}

type RewardClaimed struct {
	User   common.Address `json:"user"`
	Amount *big.Int       `json:"amount"`
}

func (ContentPublished) EventName() string   { return EventContentPublished }
func (ContentChallenged) EventName() string  { return EventContentChallenged }
func (ChallengeResolved) EventName() string  { return EventChallengeResolved }
func (DisputeInitialized) EventName() string { return EventDisputeInitialized }
func (DisputeResolved) EventName() string    { return EventDisputeResolved }
func (Deposited) EventName() string          { return EventDeposited }
func (Withdrawn) EventName() string          { return EventWithdrawn }
func (Slashed) EventName() string            { return EventSlashed }
func (RewardClaimed) EventName() string      { return EventRewardClaimed }

func (ContentPublished) isEvent()   {}
func (ContentChallenged) isEvent()  {}
func (ChallengeResolved) isEvent()  {}
func (DisputeInitialized) isEvent() {}
func (DisputeResolved) isEvent()    {}
func (Deposited) isEvent()          {}
func (Withdrawn) isEvent()          {}
func (Slashed) isEvent()            {}
func (RewardClaimed) isEvent()      {}

func (e ContentPublished) GetContentID() uint64   { return e.ContentID }
func (e ContentChallenged) GetContentID() uint64  { return e.ContentID }
func (e ChallengeResolved) GetContentID() uint64  { return e.ContentID }
func (e DisputeInitialized) GetContentID() uint64 { return e.ContentID }

func (e Deposited) GetUser() common.Address     { return e.User }
func (e Withdrawn) GetUser() common.Address     { return e.User }
func (e Slashed) GetUser() common.Address       { return e.User }
func (e RewardClaimed) GetUser() common.Address { return e.User }

func (e Deposited) GetAmount() *big.Int     { return e.Amount }
func (e Withdrawn) GetAmount() *big.Int     { return e.Amount }
func (e Slashed) GetAmount() *big.Int       { return e.Amount }
func (e RewardClaimed) GetAmount() *big.Int { return e.Amount }
