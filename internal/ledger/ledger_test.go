package ledger

import (
	"context"
	"database/sql"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/ModerationIndexor/internal/db"
	"github.com/goran-ethernal/ModerationIndexor/internal/testutil"
	"github.com/stretchr/testify/require"
)

func testEntry() *Entry {
	return &Entry{
		TxHash:      common.HexToHash("0xfeed"),
		LogIndex:    4,
		Contract:    "content_registry",
		EventType:   "ContentPublished",
		BlockNumber: 120,
		Payload:     `{"content_id":42}`,
		Outcome:     OutcomeApplied,
	}
}

func TestMarkApplied(t *testing.T) {
	database, _ := testutil.NewTestDB(t)
	ctx := context.Background()
	entry := testEntry()

	err := db.RunInTx(ctx, database, func(tx *sql.Tx) error {
		applied, err := IsApplied(ctx, tx, entry.Key())
		require.NoError(t, err)
		require.False(t, applied)

		return MarkApplied(ctx, tx, entry)
	})
	require.NoError(t, err)

	err = db.RunInTx(ctx, database, func(tx *sql.Tx) error {
		applied, err := IsApplied(ctx, tx, entry.Key())
		require.NoError(t, err)
		require.True(t, applied)

		// second mark is a no-op
		return MarkApplied(ctx, tx, testEntry())
	})
	require.NoError(t, err)

	count, err := Count(ctx, database, "")
	require.NoError(t, err)
	require.Equal(t, 1, count)

	stored, err := Get(database, entry.Key())
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, entry.TxHash, stored.TxHash)
	require.Equal(t, uint(4), stored.LogIndex)
	require.Equal(t, uint64(120), stored.BlockNumber)
	require.Equal(t, OutcomeApplied, stored.Outcome)
	require.NotZero(t, stored.AppliedAt)
}

func TestMarkApplied_RolledBackWithTransaction(t *testing.T) {
	database, _ := testutil.NewTestDB(t)
	ctx := context.Background()
	entry := testEntry()

	err := db.RunInTx(ctx, database, func(tx *sql.Tx) error {
		require.NoError(t, MarkApplied(ctx, tx, entry))
		return sql.ErrConnDone
	})
	require.ErrorIs(t, err, sql.ErrConnDone)

	stored, err := Get(database, entry.Key())
	require.NoError(t, err)
	require.Nil(t, stored)
}

func TestCount_ByOutcome(t *testing.T) {
	database, _ := testutil.NewTestDB(t)
	ctx := context.Background()

	err := db.RunInTx(ctx, database, func(tx *sql.Tx) error {
		first := testEntry()
		second := testEntry()
		second.LogIndex = 5
		second.Outcome = OutcomeAnomaly

		if err := MarkApplied(ctx, tx, first); err != nil {
			return err
		}
		return MarkApplied(ctx, tx, second)
	})
	require.NoError(t, err)

	applied, err := Count(ctx, database, OutcomeApplied)
	require.NoError(t, err)
	require.Equal(t, 1, applied)

	anomalies, err := Count(ctx, database, OutcomeAnomaly)
	require.NoError(t, err)
	require.Equal(t, 1, anomalies)
}
