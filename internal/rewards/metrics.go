package rewards

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	epoch = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "moderation_indexer_rewards_epoch",
			Help: "The latest rewards epoch with a recorded stake snapshot",
		},
	)

	checkFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "moderation_indexer_rewards_check_failures_total",
			Help: "Number of failed epoch checks",
		},
	)
)

func EpochSet(e uint64) {
	epoch.Set(float64(e))
}

func CheckFailedInc() {
	checkFailures.Inc()
}
