package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/goran-ethernal/ModerationIndexor/internal/lifecycle"
	"github.com/russross/meddler"
)

const (
	contentTable    = "content"
	challengesTable = "challenges"
)

// GetContent returns the content record, or nil when it does not exist.
func GetContent(q Querier, contentID uint64) (*Content, error) {
	var c Content
	err := meddler.QueryRow(q, &c, `SELECT * FROM content WHERE content_id = ?`, contentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load content %d: %w", contentID, err)
	}
	return &c, nil
}

// GetOpenChallenge returns the unresolved challenge of a content record, or nil.
func GetOpenChallenge(q Querier, contentID uint64) (*Challenge, error) {
	var ch Challenge
	err := meddler.QueryRow(q, &ch,
		`SELECT * FROM challenges WHERE content_id = ? AND resolved = 0 ORDER BY id DESC LIMIT 1`, contentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load open challenge of content %d: %w", contentID, err)
	}
	return &ch, nil
}

// GetChallengeByDispute returns the challenge linked to a dispute, or nil.
func GetChallengeByDispute(q Querier, disputeID uint64) (*Challenge, error) {
	var ch Challenge
	err := meddler.QueryRow(q, &ch, `SELECT * FROM challenges WHERE dispute_id = ?`, disputeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load challenge of dispute %d: %w", disputeID, err)
	}
	return &ch, nil
}

// ListChallenges returns every challenge of a content record, oldest first.
func ListChallenges(q Querier, contentID uint64) ([]*Challenge, error) {
	var challenges []*Challenge
	err := meddler.QueryAll(q, &challenges, `SELECT * FROM challenges WHERE content_id = ? ORDER BY id`, contentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges of content %d: %w", contentID, err)
	}
	return challenges, nil
}

// ApplyEffects writes the effects of one log at pos.
func ApplyEffects(ctx context.Context, q Querier, pos Position, effects []lifecycle.Effect) error {
	now := time.Now().Unix()

	for _, effect := range effects {
		var err error
		switch e := effect.(type) {
		case lifecycle.CreateContent:
			err = createContent(q, pos, now, e)
		case lifecycle.SetStatus:
			err = setStatus(ctx, q, pos, now, e)
		case lifecycle.OpenChallenge:
			err = openChallenge(q, pos, e)
		case lifecycle.AttachDispute:
			err = attachDispute(ctx, q, e)
		case lifecycle.CloseChallenge:
			err = closeChallenge(ctx, q, pos, e)
		case lifecycle.AdjustStake:
			err = adjustStake(ctx, q, pos, now, e)
		default:
			err = fmt.Errorf("unknown effect %T", effect)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func createContent(q Querier, pos Position, now int64, e lifecycle.CreateContent) error {
	c := &Content{
		ContentID:         e.ContentID,
		ContentHash:       e.ContentHash,
		Author:            e.Author,
		Status:            lifecycle.StatusPublished,
		BondAmount:        orZero(e.Bond),
		PublishedAt:       e.PublishedAt,
		LockUntil:         e.LockUntil,
		PublishedBlock:    pos.Block,
		LastEventBlock:    pos.Block,
		LastEventLogIndex: pos.Index,
		UpdatedAt:         now,
	}

	if err := meddler.Insert(q, contentTable, c); err != nil {
		return fmt.Errorf("failed to insert content %d: %w", e.ContentID, err)
	}
	return nil
}

func setStatus(ctx context.Context, q Querier, pos Position, now int64, e lifecycle.SetStatus) error {
	res, err := q.ExecContext(ctx, `
		UPDATE content
		SET status = ?, last_event_block = ?, last_event_log_index = ?, updated_at = ?
		WHERE content_id = ?`,
		e.Status, pos.Block, pos.Index, now, e.ContentID,
	)
	if err != nil {
		return fmt.Errorf("failed to set status of content %d: %w", e.ContentID, err)
	}
	return rowsAffected(res, fmt.Sprintf("set status of content %d", e.ContentID))
}

func openChallenge(q Querier, pos Position, e lifecycle.OpenChallenge) error {
	ch := &Challenge{
		ContentID:    e.ContentID,
		Challenger:   e.Challenger,
		Reason:       e.Reason,
		Evidence:     e.Evidence,
		BondAmount:   orZero(e.Bond),
		CreatedBlock: pos.Block,
	}

	if err := meddler.Insert(q, challengesTable, ch); err != nil {
		return fmt.Errorf("failed to insert challenge of content %d: %w", e.ContentID, err)
	}
	return nil
}

func attachDispute(ctx context.Context, q Querier, e lifecycle.AttachDispute) error {
	res, err := q.ExecContext(ctx,
		`UPDATE challenges SET dispute_id = ?, dispute_active = 1 WHERE id = ? AND resolved = 0`,
		e.DisputeID, e.ChallengeID,
	)
	if err != nil {
		return fmt.Errorf("failed to attach dispute %d: %w", e.DisputeID, err)
	}
	return rowsAffected(res, fmt.Sprintf("attach dispute %d", e.DisputeID))
}

func closeChallenge(ctx context.Context, q Querier, pos Position, e lifecycle.CloseChallenge) error {
	res, err := q.ExecContext(ctx, `
		UPDATE challenges
		SET resolved = 1, dispute_active = 0, guilty = ?, slashed_amount = ?,
		    guilty_votes = ?, not_guilty_votes = ?, resolved_block = ?
		WHERE id = ? AND resolved = 0`,
		e.Guilty, decimal(e.SlashedAmount), decimal(e.GuiltyVotes), decimal(e.NotGuiltyVotes),
		pos.Block, e.ChallengeID,
	)
	if err != nil {
		return fmt.Errorf("failed to close challenge %d: %w", e.ChallengeID, err)
	}
	return rowsAffected(res, fmt.Sprintf("close challenge %d", e.ChallengeID))
}

// GetContentWithChallenges returns a content record and its challenges.
func (s *Store) GetContentWithChallenges(contentID uint64) (*Content, []*Challenge, error) {
	var (
		content    *Content
		challenges []*Challenge
	)

	err := s.read(func(q Querier) error {
		var err error
		if content, err = GetContent(q, contentID); err != nil || content == nil {
			return err
		}
		challenges, err = ListChallenges(q, contentID)
		return err
	})

	return content, challenges, err
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

// decimal converts an optional amount to a nullable column value.
func decimal(v *big.Int) interface{} {
	if v == nil {
		return nil
	}
	return v.String()
}
