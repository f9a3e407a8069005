package wbu

import "github.com/prometheus/client_golang/prometheus"

// Metrics mirrors the C++ source's bvar::LatencyRecorder / metric::CollectMetrics
// calls on the upload path, translated to the teacher's Prometheus idiom
// (metrics/metric.go registers grpc-prometheus the same way).
var (
	uploadBytes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "diskcache",
		Subsystem: "wbu",
		Name:      "upload_bytes",
		Help:      "size in bytes of successfully uploaded objects",
		Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
	})
	uploadLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "diskcache",
		Subsystem: "wbu",
		Name:      "upload_latency_seconds",
		Help:      "end-to-end latency of a single successful upload attempt",
		Buckets:   prometheus.DefBuckets,
	})
	uploadRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "diskcache",
		Subsystem: "wbu",
		Name:      "upload_retries_total",
		Help:      "count of upload attempts that failed and were resubmitted",
	})
	stagingBacklog = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "diskcache",
		Subsystem: "wbu",
		Name:      "staging_backlog",
		Help:      "count of objects currently staged on local disk",
	})
)

func init() {
	prometheus.MustRegister(uploadBytes, uploadLatencySeconds, uploadRetries, stagingBacklog)
}
