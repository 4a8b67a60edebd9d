package store

import (
	"github.com/goran-ethernal/ModerationIndexor/internal/decoder"
	"github.com/goran-ethernal/ModerationIndexor/internal/lifecycle"
)

// LoadSnapshot reads the projection state that ev is evaluated against.
func LoadSnapshot(q Querier, ev decoder.Event) (lifecycle.Snapshot, error) {
	var snap lifecycle.Snapshot

	switch e := ev.(type) {
	case decoder.ContentEvent:
		content, err := GetContent(q, e.GetContentID())
		if err != nil || content == nil {
			return snap, err
		}
		snap.Content = contentState(content)

		challenge, err := GetOpenChallenge(q, content.ContentID)
		if err != nil {
			return snap, err
		}
		snap.Challenge = challengeState(challenge)

	case decoder.DisputeResolved:
		challenge, err := GetChallengeByDispute(q, e.DisputeID)
		if err != nil || challenge == nil {
			return snap, err
		}

		content, err := GetContent(q, challenge.ContentID)
		if err != nil || content == nil {
			return snap, err
		}
		snap.Content = contentState(content)
		if !challenge.Resolved {
			snap.Challenge = challengeState(challenge)
		}

	case decoder.StakeEvent:
		entry, err := GetStake(q, e.GetUser())
		if err != nil || entry == nil {
			return snap, err
		}
		snap.Stake = entry.Staked
	}

	return snap, nil
}

func contentState(c *Content) *lifecycle.ContentState {
	return &lifecycle.ContentState{ContentID: c.ContentID, Status: c.Status}
}

func challengeState(ch *Challenge) *lifecycle.ChallengeState {
	if ch == nil {
		return nil
	}
	return &lifecycle.ChallengeState{
		ID:            ch.ID,
		ContentID:     ch.ContentID,
		DisputeID:     ch.DisputeID,
		DisputeActive: ch.DisputeActive,
	}
}
