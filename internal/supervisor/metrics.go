package supervisor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	supervisorState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "moderation_indexer_supervisor_state",
			Help: "Connection state per stream (1 for the current state)",
		},
		[]string{"stream", "state"},
	)

	reconnects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_indexer_reconnects_total",
			Help: "Number of push stream reconnects per stream",
		},
		[]string{"stream", "reason"},
	)

	backfilledBlocks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_indexer_backfilled_blocks_total",
			Help: "Number of blocks pulled by backfill and polling",
		},
		[]string{"stream"},
	)

	removedLogs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_indexer_removed_logs_total",
			Help: "Number of pushed logs flagged as removed by a reorg",
		},
		[]string{"stream"},
	)
)

// StateSet marks state as the current state of stream.
func StateSet(stream string, state State) {
	for _, s := range allStates {
		value := 0.0
		if s == state {
			value = 1
		}
		supervisorState.WithLabelValues(stream, string(s)).Set(value)
	}
}

func ReconnectInc(stream, reason string) {
	reconnects.WithLabelValues(stream, reason).Inc()
}

func BackfilledBlocksAdd(stream string, n uint64) {
	backfilledBlocks.WithLabelValues(stream).Add(float64(n))
}

func RemovedLogInc(stream string) {
	removedLogs.WithLabelValues(stream).Inc()
}
