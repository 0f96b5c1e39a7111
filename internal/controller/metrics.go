package controller

import (
	"github.com/prometheus/client_golang/prometheus"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/metrics"

	smcv1alpha1 "github.com/octopilot/secret-manager-controller/api/v1alpha1"
	"github.com/octopilot/secret-manager-controller/pkg/conditions"
)

// Reconcile result label values.
const (
	resultSuccess = "success"
	resultError   = "error"
	resultRequeue = "requeue"
)

var (
	reconcileDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "smc",
			Subsystem: "controller",
			Name:      "reconcile_duration_seconds",
			Help:      "Duration of SecretManagerConfig reconciliation in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"name", "namespace"},
	)

	reconcileTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smc",
			Subsystem: "controller",
			Name:      "reconcile_total",
			Help:      "Total number of SecretManagerConfig reconciliations.",
		},
		[]string{"name", "namespace", "result"},
	)

	sourceResolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "smc",
			Subsystem: "controller",
			Name:      "source_resolve_duration_seconds",
			Help:      "Duration of GitOps source artifact resolution in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"name", "namespace", "kind"},
	)

	secretsSyncedGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "smc",
			Subsystem: "controller",
			Name:      "secrets_synced",
			Help:      "Number of secret entries synced on the last reconcile.",
		},
		[]string{"name", "namespace"},
	)

	driftDetectedGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "smc",
			Subsystem: "controller",
			Name:      "drift_detected",
			Help:      "Number of secret entries whose backend value diverges from Git.",
		},
		[]string{"name", "namespace"},
	)

	crReady = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "smc",
			Subsystem: "controller",
			Name:      "cr_ready",
			Help:      "Whether the SecretManagerConfig CR is Ready (1=ready, 0=not ready).",
		},
		[]string{"name", "namespace"},
	)

	crInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "smc",
			Subsystem: "controller",
			Name:      "cr_info",
			Help:      "Info metric (always 1) carrying CR labels for PromQL joins.",
		},
		[]string{"name", "namespace", "source_kind", "provider", "reconcile_interval"},
	)

	crSuspended = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "smc",
			Subsystem: "controller",
			Name:      "cr_suspended",
			Help:      "Whether the SecretManagerConfig CR is suspended (1=suspended, 0=active).",
		},
		[]string{"name", "namespace"},
	)

	conditionStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "smc",
			Subsystem: "controller",
			Name:      "condition_status",
			Help:      "Status of each condition type on the SecretManagerConfig CR (1=True, 0=False).",
		},
		[]string{"name", "namespace", "type"},
	)

	backoffErrorCount = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "smc",
			Subsystem: "controller",
			Name:      "backoff_error_count",
			Help:      "Current consecutive reconcile-error count feeding the Fibonacci backoff.",
		},
		[]string{"name", "namespace"},
	)
)

func init() {
	metrics.Registry.MustRegister(
		reconcileDuration,
		reconcileTotal,
		sourceResolveDuration,
		secretsSyncedGauge,
		driftDetectedGauge,
		crReady,
		crInfo,
		crSuspended,
		conditionStatus,
		backoffErrorCount,
	)
}

// observeSMCMetrics updates the gauge metrics after a reconcile completes.
func observeSMCMetrics(smc *smcv1alpha1.SecretManagerConfig, driftCount int) {
	name, ns := smc.Name, smc.Namespace

	secretsSyncedGauge.WithLabelValues(name, ns).Set(float64(smc.Status.SecretsSynced))
	driftDetectedGauge.WithLabelValues(name, ns).Set(float64(driftCount))

	readyVal := 0.0
	for _, c := range smc.Status.Conditions {
		val := 0.0
		if c.Status == metav1.ConditionTrue {
			val = 1.0
		}
		conditionStatus.WithLabelValues(name, ns, c.Type).Set(val)

		if c.Type == conditions.TypeReady && c.Status == metav1.ConditionTrue {
			readyVal = 1.0
		}
	}
	crReady.WithLabelValues(name, ns).Set(readyVal)

	suspendedVal := 0.0
	if smc.Spec.Suspend {
		suspendedVal = 1.0
	}
	crSuspended.WithLabelValues(name, ns).Set(suspendedVal)

	provider := providerLabel(smc)
	interval := smc.Spec.ReconcileInterval
	if interval == "" {
		interval = "5m"
	}
	crInfo.DeletePartialMatch(prometheus.Labels{"name": name, "namespace": ns})
	crInfo.WithLabelValues(name, ns, smc.Spec.SourceRef.Kind, provider, interval).Set(1)
}

func providerLabel(smc *smcv1alpha1.SecretManagerConfig) string {
	switch {
	case smc.Spec.Provider.GCP != nil:
		return "gcp"
	case smc.Spec.Provider.AWS != nil:
		return "aws"
	case smc.Spec.Provider.Azure != nil:
		return "azure"
	default:
		return "unknown"
	}
}

// observeBackoffMetric records the current reconcile-error count for a resource.
func observeBackoffMetric(name, namespace string, errorCount int) {
	backoffErrorCount.WithLabelValues(name, namespace).Set(float64(errorCount))
}

// cleanupCRMetrics removes all metric series associated with a CR being deleted.
func cleanupCRMetrics(name, namespace string) {
	labels := prometheus.Labels{"name": name, "namespace": namespace}
	reconcileDuration.DeletePartialMatch(labels)
	reconcileTotal.DeletePartialMatch(labels)
	sourceResolveDuration.DeletePartialMatch(labels)
	secretsSyncedGauge.DeletePartialMatch(labels)
	driftDetectedGauge.DeletePartialMatch(labels)
	crReady.DeletePartialMatch(labels)
	crInfo.DeletePartialMatch(labels)
	crSuspended.DeletePartialMatch(labels)
	conditionStatus.DeletePartialMatch(labels)
	backoffErrorCount.DeletePartialMatch(labels)
}
