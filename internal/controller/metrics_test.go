package controller

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	smcv1alpha1 "github.com/octopilot/secret-manager-controller/api/v1alpha1"
	"github.com/octopilot/secret-manager-controller/pkg/conditions"
)

func TestReconcileMetricsIncrement(t *testing.T) {
	before := testutil.ToFloat64(reconcileTotal.WithLabelValues("test-cr", "test-ns", "success"))

	reconcileTotal.WithLabelValues("test-cr", "test-ns", "success").Inc()

	after := testutil.ToFloat64(reconcileTotal.WithLabelValues("test-cr", "test-ns", "success"))
	if after != before+1 {
		t.Errorf("expected reconcile_total to increment by 1, got %f -> %f", before, after)
	}
}

func TestObserveSMCMetrics(t *testing.T) {
	smc := &smcv1alpha1.SecretManagerConfig{}
	smc.Name = "test-cr"
	smc.Namespace = "test-ns"
	smc.Spec.SourceRef.Kind = "GitRepository"
	smc.Spec.Provider.GCP = &smcv1alpha1.GCPProviderSpec{ProjectID: "proj"}
	smc.Spec.ReconcileInterval = "5m"
	smc.Status.SecretsSynced = 4
	smc.Status.Conditions = []metav1.Condition{
		{Type: conditions.TypeReady, Status: metav1.ConditionTrue},
	}

	observeSMCMetrics(smc, 1)

	if v := testutil.ToFloat64(secretsSyncedGauge.WithLabelValues("test-cr", "test-ns")); v != 4 {
		t.Errorf("expected secrets_synced=4, got %f", v)
	}
	if v := testutil.ToFloat64(driftDetectedGauge.WithLabelValues("test-cr", "test-ns")); v != 1 {
		t.Errorf("expected drift_detected=1, got %f", v)
	}
	if v := testutil.ToFloat64(crReady.WithLabelValues("test-cr", "test-ns")); v != 1 {
		t.Errorf("expected cr_ready=1, got %f", v)
	}
	if v := testutil.ToFloat64(crInfo.WithLabelValues("test-cr", "test-ns", "GitRepository", "gcp", "5m")); v != 1 {
		t.Errorf("expected cr_info=1, got %f", v)
	}
}

func TestProviderLabel(t *testing.T) {
	cases := []struct {
		name string
		smc  *smcv1alpha1.SecretManagerConfig
		want string
	}{
		{"gcp", &smcv1alpha1.SecretManagerConfig{Spec: smcv1alpha1.SecretManagerConfigSpec{Provider: smcv1alpha1.ProviderSpec{GCP: &smcv1alpha1.GCPProviderSpec{}}}}, "gcp"},
		{"aws", &smcv1alpha1.SecretManagerConfig{Spec: smcv1alpha1.SecretManagerConfigSpec{Provider: smcv1alpha1.ProviderSpec{AWS: &smcv1alpha1.AWSProviderSpec{}}}}, "aws"},
		{"azure", &smcv1alpha1.SecretManagerConfig{Spec: smcv1alpha1.SecretManagerConfigSpec{Provider: smcv1alpha1.ProviderSpec{Azure: &smcv1alpha1.AzureProviderSpec{}}}}, "azure"},
		{"unset", &smcv1alpha1.SecretManagerConfig{}, "unknown"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := providerLabel(tc.smc); got != tc.want {
				t.Errorf("providerLabel() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBackoffMetricGauge(t *testing.T) {
	observeBackoffMetric("test-cr", "test-ns", 3)
	if v := testutil.ToFloat64(backoffErrorCount.WithLabelValues("test-cr", "test-ns")); v != 3 {
		t.Errorf("expected backoff_error_count=3, got %f", v)
	}
}
