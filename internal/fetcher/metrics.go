package fetcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chainHead = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "moderation_indexer_chain_head",
			Help: "The latest block number seen from the node",
		},
	)

	logsFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "moderation_indexer_logs_fetched_total",
			Help: "Total number of logs pulled with eth_getLogs",
		},
	)

	rangeSplits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "moderation_indexer_log_range_splits_total",
			Help: "Number of times a log range was narrowed after a too-many-results error",
		},
	)
)

func ChainHeadSet(blockNum uint64) {
	chainHead.Set(float64(blockNum))
}

func LogsFetchedAdd(n int) {
	logsFetched.Add(float64(n))
}

func RangeSplitInc() {
	rangeSplits.Inc()
}
