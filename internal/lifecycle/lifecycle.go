// Package lifecycle is the content state machine. Evaluate is pure: it looks
// at a snapshot of the current projection and one decoded event and decides
// what should change. It never touches storage.
package lifecycle

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/ModerationIndexor/internal/decoder"
)

// Status is the lifecycle state of a content record.
type Status string

const (
	StatusPublished  Status = "published"
	StatusChallenged Status = "challenged"
	StatusDisputed   Status = "disputed"
	StatusResolved   Status = "resolved"
)

// Anomaly reasons.
const (
	ReasonUnknownContent    = "unknown_content"
	ReasonAlreadyPublished  = "already_published"
	ReasonChallengeOpen     = "challenge_already_open"
	ReasonContentResolved   = "content_resolved"
	ReasonUnknownDispute    = "unknown_dispute"
	ReasonInvalidTransition = "invalid_transition"
	ReasonStakeUnderflow    = "stake_underflow"
)

// ContentState is the part of a content record the state machine reads.
type ContentState struct {
	ContentID uint64
	Status    Status
}

// ChallengeState is the unresolved challenge of a content record.
type ChallengeState struct {
	ID            int64
	ContentID     uint64
	DisputeID     *uint64
	DisputeActive bool
}

// Snapshot is the projection state an event is evaluated against. The
// reconciler loads it inside the same transaction that applies the outcome.
//
// For content events Content is the addressed record (nil when unknown). For
// DisputeResolved, Content and Challenge are found through the dispute id.
// For stake events Stake is the user's current stake (nil means zero).
type Snapshot struct {
	Content   *ContentState
	Challenge *ChallengeState
	Stake     *big.Int
}

// Outcome is the decision for one event: either an anomaly, or a list of
// effects to apply.
type Outcome struct {
	Anomaly *Anomaly
	Effects []Effect
}

// IsAnomaly reports whether the event must be recorded instead of applied.
func (o Outcome) IsAnomaly() bool {
	return o.Anomaly != nil
}

// Anomaly describes an event that cannot be applied to the current state.
type Anomaly struct {
	Reason        string
	ContentID     *uint64
	CurrentStatus *Status
}

func (a *Anomaly) Error() string {
	if a.ContentID != nil {
		return fmt.Sprintf("anomaly on content %d: %s", *a.ContentID, a.Reason)
	}
	return "anomaly: " + a.Reason
}

// Effect is a projection change. The set of implementations is closed.
type Effect interface {
	isEffect()
}

// CreateContent inserts a new content record in the Published state.
type CreateContent struct {
	ContentID   uint64
	ContentHash common.Hash
	Author      common.Address
	Bond        *big.Int
	PublishedAt uint64
	LockUntil   uint64
}

// SetStatus moves a content record to a new status.
type SetStatus struct {
	ContentID uint64
	Status    Status
}

// OpenChallenge inserts an unresolved challenge for a content record.
type OpenChallenge struct {
	ContentID  uint64
	Challenger common.Address
	Reason     uint8
	Evidence   string
	Bond       *big.Int
}

// AttachDispute links a dispute to a challenge and marks it active.
type AttachDispute struct {
	ChallengeID int64
	DisputeID   uint64
}

// CloseChallenge resolves a challenge with a verdict.
// Vote counts are set only when the verdict came from a dispute.
type CloseChallenge struct {
	ChallengeID    int64
	Guilty         bool
	SlashedAmount  *big.Int
	GuiltyVotes    *big.Int
	NotGuiltyVotes *big.Int
}

// StakeChange is the kind of stake ledger movement.
type StakeChange string

const (
	StakeDeposit  StakeChange = "deposit"
	StakeWithdraw StakeChange = "withdraw"
	StakeSlash    StakeChange = "slash"
	StakeReward   StakeChange = "reward"
)

// AdjustStake moves a user's stake ledger.
type AdjustStake struct {
	User   common.Address
	Change StakeChange
	Amount *big.Int
}

func (CreateContent) isEffect()  {}
func (SetStatus) isEffect()      {}
func (OpenChallenge) isEffect()  {}
func (AttachDispute) isEffect()  {}
func (CloseChallenge) isEffect() {}
func (AdjustStake) isEffect()    {}

// Evaluate decides what ev does to the projection described by snap.
// It is total: every (snapshot, event) pair yields either effects or an anomaly.
func Evaluate(snap Snapshot, ev decoder.Event) Outcome {
	switch e := ev.(type) {
	case decoder.ContentPublished:
		return evalPublished(snap, e)
	case decoder.ContentChallenged:
		return evalChallenged(snap, e)
	case decoder.DisputeInitialized:
		return evalDisputeInitialized(snap, e)
	case decoder.DisputeResolved:
		return evalDisputeResolved(snap, e)
	case decoder.ChallengeResolved:
		return evalChallengeResolved(snap, e)
	case decoder.Deposited:
		return stake(e.User, StakeDeposit, e.Amount)
	case decoder.RewardClaimed:
		return stake(e.User, StakeReward, e.Amount)
	case decoder.Withdrawn:
		return stakeDebit(snap, e.User, StakeWithdraw, e.Amount)
	case decoder.Slashed:
		return stakeDebit(snap, e.User, StakeSlash, e.Amount)
	default:
		return anomaly(ReasonInvalidTransition, nil, nil)
	}
}

func evalPublished(snap Snapshot, e decoder.ContentPublished) Outcome {
	switch {
	case snap.Content == nil:
	case snap.Content.Status == StatusResolved:
		return contentAnomaly(snap.Content, ReasonContentResolved)
	default:
		return contentAnomaly(snap.Content, ReasonAlreadyPublished)
	}

	return Outcome{Effects: []Effect{
		CreateContent{
			ContentID:   e.ContentID,
			ContentHash: e.ContentHash,
			Author:      e.Author,
			Bond:        e.Bond,
			PublishedAt: e.PublishedAt,
			LockUntil:   e.LockUntil,
		},
	}}
}

func evalChallenged(snap Snapshot, e decoder.ContentChallenged) Outcome {
	if snap.Content == nil {
		return anomaly(ReasonUnknownContent, &e.ContentID, nil)
	}

	switch snap.Content.Status {
	case StatusPublished:
		return Outcome{Effects: []Effect{
			OpenChallenge{
				ContentID:  e.ContentID,
				Challenger: e.Challenger,
				Reason:     e.Reason,
				Evidence:   e.Evidence,
				Bond:       e.Bond,
			},
			SetStatus{ContentID: e.ContentID, Status: StatusChallenged},
		}}
	case StatusChallenged, StatusDisputed:
		return contentAnomaly(snap.Content, ReasonChallengeOpen)
	default:
		return contentAnomaly(snap.Content, ReasonContentResolved)
	}
}

func evalDisputeInitialized(snap Snapshot, e decoder.DisputeInitialized) Outcome {
	if snap.Content == nil {
		return anomaly(ReasonUnknownContent, &e.ContentID, nil)
	}

	switch {
	case snap.Content.Status == StatusResolved:
		return contentAnomaly(snap.Content, ReasonContentResolved)
	case snap.Content.Status != StatusChallenged || snap.Challenge == nil:
		return contentAnomaly(snap.Content, ReasonInvalidTransition)
	}

	return Outcome{Effects: []Effect{
		AttachDispute{ChallengeID: snap.Challenge.ID, DisputeID: e.DisputeID},
		SetStatus{ContentID: e.ContentID, Status: StatusDisputed},
	}}
}

func evalDisputeResolved(snap Snapshot, e decoder.DisputeResolved) Outcome {
	if snap.Content == nil || snap.Challenge == nil {
		if snap.Content != nil && snap.Content.Status == StatusResolved {
			return contentAnomaly(snap.Content, ReasonContentResolved)
		}
		return anomaly(ReasonUnknownDispute, contentIDOf(snap), nil)
	}

	switch snap.Content.Status {
	case StatusDisputed:
	case StatusResolved:
		return contentAnomaly(snap.Content, ReasonContentResolved)
	default:
		return contentAnomaly(snap.Content, ReasonInvalidTransition)
	}

	return Outcome{Effects: []Effect{
		CloseChallenge{
			ChallengeID:    snap.Challenge.ID,
			Guilty:         e.Guilty,
			GuiltyVotes:    e.GuiltyVotes,
			NotGuiltyVotes: e.NotGuiltyVotes,
		},
		SetStatus{ContentID: snap.Content.ContentID, Status: StatusResolved},
	}}
}

func evalChallengeResolved(snap Snapshot, e decoder.ChallengeResolved) Outcome {
	if snap.Content == nil {
		return anomaly(ReasonUnknownContent, &e.ContentID, nil)
	}

	switch snap.Content.Status {
	case StatusChallenged, StatusDisputed:
		if snap.Challenge == nil {
			return contentAnomaly(snap.Content, ReasonInvalidTransition)
		}
	case StatusResolved:
		return contentAnomaly(snap.Content, ReasonContentResolved)
	default:
		return contentAnomaly(snap.Content, ReasonInvalidTransition)
	}

	return Outcome{Effects: []Effect{
		CloseChallenge{
			ChallengeID:   snap.Challenge.ID,
			Guilty:        e.Guilty,
			SlashedAmount: e.SlashedAmount,
		},
		SetStatus{ContentID: e.ContentID, Status: StatusResolved},
	}}
}

func stake(user common.Address, change StakeChange, amount *big.Int) Outcome {
	if amount == nil {
		amount = new(big.Int)
	}
	return Outcome{Effects: []Effect{AdjustStake{User: user, Change: change, Amount: amount}}}
}

func stakeDebit(snap Snapshot, user common.Address, change StakeChange, amount *big.Int) Outcome {
	current := snap.Stake
	if current == nil {
		current = new(big.Int)
	}
	if amount == nil {
		amount = new(big.Int)
	}
	if amount.Cmp(current) > 0 {
		return anomaly(ReasonStakeUnderflow, nil, nil)
	}
	return stake(user, change, amount)
}

func contentAnomaly(content *ContentState, reason string) Outcome {
	id, status := content.ContentID, content.Status
	return anomaly(reason, &id, &status)
}

func anomaly(reason string, contentID *uint64, status *Status) Outcome {
	return Outcome{Anomaly: &Anomaly{Reason: reason, ContentID: contentID, CurrentStatus: status}}
}

func contentIDOf(snap Snapshot) *uint64 {
	if snap.Content == nil {
		return nil
	}
	id := snap.Content.ContentID
	return &id
}
