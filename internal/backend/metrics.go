package backend

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

// Operation type labels, mirroring the spec's OpenTelemetry-style span
// attributes (spec.md §4.6 "Uniform behavior across backends").
const (
	OpCreate   = "create"
	OpUpdate   = "update"
	OpNoChange = "no_change"
	OpGet      = "get"
	OpDelete   = "delete"
	OpDisable  = "disable"
	OpEnable   = "enable"
)

var (
	opDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "smc",
			Subsystem: "backend",
			Name:      "operation_duration_seconds",
			Help:      "Duration of a single backend operation in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider", "operation"},
	)

	opTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smc",
			Subsystem: "backend",
			Name:      "operation_total",
			Help:      "Total number of backend operations, by result.",
		},
		[]string{"provider", "operation", "success"},
	)
)

func init() {
	metricsRegisterer.MustRegister(opDuration, opTotal)
}

// metricsRegisterer is the registry the backend metrics are registered
// with in init, before any code in the package can replace it.
var metricsRegisterer = prometheus.DefaultRegisterer

// observeOp records one backend operation's outcome: a structured log entry
// carrying the attributes the spec requires (operation.type,
// operation.success, operation.duration_ms, error.message), plus the
// paired Prometheus series. Every provider method defers it at its top.
func observeOp(provider, operation string, start time.Time, err error, extra ...any) {
	duration := time.Since(start)
	success := err == nil

	opDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
	opTotal.WithLabelValues(provider, operation, boolLabel(success)).Inc()

	logger := log.Log.WithName("backend").WithValues(
		"provider", provider,
		"operation.type", operation,
		"operation.success", success,
		"operation.duration_ms", duration.Milliseconds(),
	)
	logger = logger.WithValues(extra...)
	if err != nil {
		logger.Error(err, "backend operation failed")
		return
	}
	logger.V(1).Info("backend operation")
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
