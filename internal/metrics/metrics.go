package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// History store and admin API counters, partitioned by operation.

var (
	// History store
	StoreOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "txhistory",
		Subsystem: "store",
		Name:      "ops_total",
		Help:      "Total history store operations by outcome",
	}, []string{"op", "outcome"})

	StoreOpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "txhistory",
		Subsystem: "store",
		Name:      "op_duration_seconds",
		Help:      "History store operation duration",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"op"})

	StoreRecords = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "txhistory",
		Subsystem: "store",
		Name:      "records",
		Help:      "Current number of persisted history records",
	}, []string{"storage_key"})

	StoreTrimmedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "txhistory",
		Subsystem: "store",
		Name:      "trimmed_records_total",
		Help:      "Total records dropped by the retention cap",
	}, []string{"storage_key"})

	// Admin API
	AdminRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "txhistory",
		Subsystem: "admin",
		Name:      "requests_total",
		Help:      "Total admin API requests by method, path, and status code",
	}, []string{"method", "path", "code"})
)
