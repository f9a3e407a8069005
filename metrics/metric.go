package metrics

import (
	grpcprometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
)

// Registry and GRPCMetrics back diskcached's gRPC server: every unary
// Execute call (any of the 19 MOP variants) gets handling count/latency via
// grpc-prometheus's UnaryServerInterceptor, registered on this Registry.
// ExecuteStream calls are not instrumented; no stream interceptor is chained.
var (
	Registry = prometheus.NewRegistry()

	GRPCMetrics = grpcprometheus.NewServerMetrics(
		func(c *prometheus.CounterOpts) {
			c.Namespace = "diskcache"
		},
	)
)

func init() {
	Registry.MustRegister(
		GRPCMetrics,
	)
	GRPCMetrics.EnableHandlingTimeHistogram(
		func(h *prometheus.HistogramOpts) {
			h.Namespace = "diskcache"
		},
	)
}
