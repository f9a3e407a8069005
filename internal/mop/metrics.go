package mop

import "github.com/prometheus/client_golang/prometheus"

var (
	queueWaitSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "diskcache",
		Subsystem: "mop",
		Name:      "apply_queue_wait_seconds",
		Help:      "time an operator spent queued before its Apply Queue shard ran it",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operator"})

	executeSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "diskcache",
		Subsystem: "mop",
		Name:      "operator_execute_seconds",
		Help:      "time spent in an operator's OnApply/fast-apply body",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operator"})

	applyFromLogSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "diskcache",
		Subsystem: "mop",
		Name:      "apply_from_log_seconds",
		Help:      "time spent replaying a log entry through OnApplyFromLog",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operator"})

	redirectsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "diskcache",
		Subsystem: "mop",
		Name:      "redirects_total",
		Help:      "operators redirected because the local lease was stale or absent",
	}, []string{"operator"})

	proposeFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "diskcache",
		Subsystem: "mop",
		Name:      "propose_failures_total",
		Help:      "operators that failed to encode or propose through the replicated log",
	}, []string{"operator"})
)

func init() {
	prometheus.MustRegister(queueWaitSeconds, executeSeconds, applyFromLogSeconds, redirectsTotal, proposeFailuresTotal)
}
