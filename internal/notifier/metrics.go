package notifier

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	published = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_indexer_notifications_published_total",
			Help: "Number of notifications published per event",
		},
		[]string{"event"},
	)

	publishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "moderation_indexer_notification_failures_total",
			Help: "Number of notifications that could not be published",
		},
	)
)

func PublishedInc(event string) {
	published.WithLabelValues(event).Inc()
}

func PublishFailedInc() {
	publishFailures.Inc()
}
