package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cursorBlock = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "moderation_indexer_cursor_block",
			Help: "Highest block whose logs are fully applied, by contract",
		},
		[]string{"contract"},
	)

	anomaliesRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_indexer_anomalies_total",
			Help: "Total number of anomalies recorded, by reason",
		},
		[]string{"reason"},
	)

	deadLetters = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_indexer_dead_letters_total",
			Help: "Total number of logs written to the dead letter table, by reason",
		},
		[]string{"reason"},
	)
)

func CursorBlockSet(contract string, block uint64) {
	cursorBlock.WithLabelValues(contract).Set(float64(block))
}

func AnomalyInc(reason string) {
	anomaliesRecorded.WithLabelValues(reason).Inc()
}

func DeadLetterInc(reason string) {
	deadLetters.WithLabelValues(reason).Inc()
}
