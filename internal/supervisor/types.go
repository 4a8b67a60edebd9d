package supervisor

import (
	"context"

	"github.com/goran-ethernal/ModerationIndexor/internal/reconciler"
	"github.com/goran-ethernal/ModerationIndexor/internal/store"
)

// State is the connection state of a Supervisor.
type State string

const (
	StateDisconnected State = "disconnected"
	StateBackfilling  State = "backfilling"
	StateLive         State = "live"
	// StatePolling is terminal: the endpoint cannot push, so ranges are pulled periodically.
	StatePolling State = "polling"
)

var allStates = []State{StateDisconnected, StateBackfilling, StateLive, StatePolling}

// Sink receives ordered batches of logs. It is satisfied by *reconciler.Reconciler.
type Sink interface {
	Submit(ctx context.Context, batch reconciler.Batch) ([]reconciler.Result, error)
}

// CursorReader reads the persisted progress of a contract. It is satisfied by *store.Store.
type CursorReader interface {
	GetCursor(contract string) (*store.Cursor, error)
}
