package db

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	maintenanceOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_indexer_maintenance_runs_total",
			Help: "Total number of maintenance operations by outcome",
		},
		[]string{"status"},
	)

	maintenanceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "moderation_indexer_maintenance_duration_seconds",
			Help:    "Duration of maintenance operations",
			Buckets: prometheus.DefBuckets,
		},
	)

	walCheckpoints = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_indexer_wal_checkpoint_total",
			Help: "Total number of WAL checkpoint operations",
		},
		[]string{"mode"},
	)

	dbSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "moderation_indexer_db_size_bytes",
			Help: "Database size in bytes, including WAL and shared memory files",
		},
	)

	rollbackFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "moderation_indexer_db_rollback_failures_total",
			Help: "Total number of transaction rollbacks that returned an error",
		},
	)
)

func MaintenanceOutcomeInc(status string) {
	maintenanceOutcomes.WithLabelValues(status).Inc()
}

func MaintenanceDurationLog(duration time.Duration) {
	maintenanceDuration.Observe(duration.Seconds())
}

func WALCheckpointInc(mode string) {
	walCheckpoints.WithLabelValues(mode).Inc()
}

func DBSizeLog(sizeBytes int64) {
	dbSize.Set(float64(sizeBytes))
}

func DBRollbackFailedInc() {
	rollbackFailures.Inc()
}
