package reconciler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	logResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_indexer_reconciled_logs_total",
			Help: "Total number of logs handled by the reconciler, by status and reason",
		},
		[]string{"status", "reason"},
	)

	applyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moderation_indexer_apply_duration_seconds",
			Help:    "Time to apply one log, retries included, by event",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"event"},
	)

	applyRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "moderation_indexer_apply_retries_total",
			Help: "Total number of transaction retries after storage failures",
		},
	)

	queueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "moderation_indexer_reconciler_queue_depth",
			Help: "Number of batches waiting in the reconciler queue",
		},
	)
)

func ResultInc(status Status, reason string) {
	logResults.WithLabelValues(string(status), reason).Inc()
}

func ApplyDurationLog(event string, d time.Duration) {
	applyDuration.WithLabelValues(event).Observe(d.Seconds())
}

func RetryInc() {
	applyRetries.Inc()
}

func QueueDepthSet(n int) {
	queueDepth.Set(float64(n))
}
