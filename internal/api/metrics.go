package api

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "moderation_indexer_api_requests_total",
		Help: "Number of operator API requests by method and status",
	},
	[]string{"method", "status"},
)

func RequestInc(method string, status int) {
	requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}
