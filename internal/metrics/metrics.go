package metrics

import (
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	buildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "moderation_indexer_build_info",
			Help: "Indexer version and the chain it follows; always 1",
		},
		[]string{"version", "chain_id"},
	)

	uptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "moderation_indexer_uptime_seconds",
			Help: "Seconds since the indexer process started",
		},
	)

	componentHealth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "moderation_indexer_component_health",
			Help: "Component health status (1=running, 0=stopped or failed)",
		},
		[]string{"component"},
	)

	goroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "moderation_indexer_goroutines",
			Help: "Number of active goroutines",
		},
	)

	heapBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "moderation_indexer_memory_bytes",
			Help: "Go runtime memory statistics",
		},
		[]string{"type"},
	)

	startTime = time.Now()
)

// BuildInfoSet records the running version and chain id. chainID 0 means unchecked.
func BuildInfoSet(version string, chainID uint64) {
	buildInfo.Reset()
	buildInfo.WithLabelValues(version, strconv.FormatUint(chainID, 10)).Set(1)
}

func ComponentHealthSet(component string, healthy bool) {
	v := float64(0)
	if healthy {
		v = 1
	}

	componentHealth.WithLabelValues(component).Set(v)
}

// UpdateSystemMetrics refreshes the process gauges.
func UpdateSystemMetrics() {
	uptime.Set(time.Since(startTime).Seconds())
	goroutines.Set(float64(runtime.NumGoroutine()))

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	heapBytes.WithLabelValues("heap_alloc").Set(float64(m.HeapAlloc))
	heapBytes.WithLabelValues("heap_inuse").Set(float64(m.HeapInuse))
	heapBytes.WithLabelValues("sys").Set(float64(m.Sys))
}
