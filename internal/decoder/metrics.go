package decoder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decodedEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_indexer_events_decoded_total",
			Help: "Total number of protocol events decoded, by event",
		},
		[]string{"event"},
	)

	malformedEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_indexer_events_malformed_total",
			Help: "Total number of protocol logs that failed to decode, by event",
		},
		[]string{"event"},
	)

	unrecognizedLogs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "moderation_indexer_logs_unrecognized_total",
			Help: "Total number of logs dropped because the address or topic is not a protocol event",
		},
	)
)

func DecodedInc(event string) {
	decodedEvents.WithLabelValues(event).Inc()
}

func MalformedInc(event string) {
	malformedEvents.WithLabelValues(event).Inc()
}

func UnrecognizedInc() {
	unrecognizedLogs.Inc()
}
