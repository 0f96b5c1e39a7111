package controller

import (
	"context"
	"testing"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/tools/record"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"

	sourcev1 "github.com/fluxcd/source-controller/api/v1"

	smcv1alpha1 "github.com/octopilot/secret-manager-controller/api/v1alpha1"
	"github.com/octopilot/secret-manager-controller/internal/sops"
	"github.com/octopilot/secret-manager-controller/pkg/conditions"
)

func newSMCScheme() *runtime.Scheme {
	s := runtime.NewScheme()
	_ = smcv1alpha1.AddToScheme(s)
	_ = sourcev1.AddToScheme(s)
	return s
}

func newTestReconciler(objs ...client.Object) *SecretManagerConfigReconciler {
	c := fake.NewClientBuilder().
		WithScheme(newSMCScheme()).
		WithStatusSubresource(&smcv1alpha1.SecretManagerConfig{}).
		WithObjects(objs...).
		Build()
	return NewReconciler(c, newSMCScheme(), record.NewFakeRecorder(20), sops.NewKeyStore())
}

func findCondition(smc *smcv1alpha1.SecretManagerConfig, condType string) *metav1.Condition {
	for i := range smc.Status.Conditions {
		if smc.Status.Conditions[i].Type == condType {
			return &smc.Status.Conditions[i]
		}
	}
	return nil
}

func TestReconcileAddsFinalizerFirst(t *testing.T) {
	smc := &smcv1alpha1.SecretManagerConfig{
		ObjectMeta: metav1.ObjectMeta{Name: "bare"},
		Spec: smcv1alpha1.SecretManagerConfigSpec{
			SourceRef: smcv1alpha1.SourceRefSpec{Kind: "GitRepository", Name: "repo", Namespace: "flux-system"},
			Secrets:   smcv1alpha1.SecretsSpec{Environment: "dev"},
			Provider:  smcv1alpha1.ProviderSpec{GCP: &smcv1alpha1.GCPProviderSpec{ProjectID: "my-project-1"}},
		},
	}
	r := newTestReconciler(smc)
	nn := types.NamespacedName{Name: "bare"}

	if _, err := r.Reconcile(context.Background(), reconcile.Request{NamespacedName: nn}); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	var got smcv1alpha1.SecretManagerConfig
	if err := r.Get(context.Background(), nn, &got); err != nil {
		t.Fatalf("getting smc: %v", err)
	}
	found := false
	for _, f := range got.Finalizers {
		if f == smcFinalizer {
			found = true
		}
	}
	if !found {
		t.Error("expected the finalizer to be added on the first reconcile")
	}
	if got.Status.Phase != "" {
		t.Errorf("expected no status written on the finalizer-add pass, got phase %q", got.Status.Phase)
	}
}

func TestReconcileInvalidSpecSetsFailedPhase(t *testing.T) {
	smc := &smcv1alpha1.SecretManagerConfig{
		ObjectMeta: metav1.ObjectMeta{Name: "invalid", Finalizers: []string{smcFinalizer}},
		Spec: smcv1alpha1.SecretManagerConfigSpec{
			SourceRef: smcv1alpha1.SourceRefSpec{Kind: "GitRepository", Name: "repo", Namespace: "flux-system"},
			Secrets:   smcv1alpha1.SecretsSpec{Environment: "dev"},
			// no provider set: exactly one of gcp/aws/azure is required
		},
	}
	r := newTestReconciler(smc)
	nn := types.NamespacedName{Name: "invalid"}

	if _, err := r.Reconcile(context.Background(), reconcile.Request{NamespacedName: nn}); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	var got smcv1alpha1.SecretManagerConfig
	if err := r.Get(context.Background(), nn, &got); err != nil {
		t.Fatalf("getting smc: %v", err)
	}
	if got.Status.Phase != "Failed" {
		t.Errorf("expected phase Failed, got %q", got.Status.Phase)
	}
	cond := findCondition(&got, conditions.TypeReady)
	if cond == nil || cond.Status != metav1.ConditionFalse || cond.Reason != conditions.ReasonSpecInvalid {
		t.Errorf("expected Ready=False/SpecInvalid, got %+v", cond)
	}
}

func TestReconcileSuspendedSetsSuspendedPhase(t *testing.T) {
	smc := &smcv1alpha1.SecretManagerConfig{
		ObjectMeta: metav1.ObjectMeta{Name: "suspended", Finalizers: []string{smcFinalizer}},
		Spec: smcv1alpha1.SecretManagerConfigSpec{
			SourceRef: smcv1alpha1.SourceRefSpec{Kind: "GitRepository", Name: "repo", Namespace: "flux-system"},
			Secrets:   smcv1alpha1.SecretsSpec{Environment: "dev"},
			Provider:  smcv1alpha1.ProviderSpec{GCP: &smcv1alpha1.GCPProviderSpec{ProjectID: "my-project-1"}},
			Suspend:   true,
		},
	}
	r := newTestReconciler(smc)
	nn := types.NamespacedName{Name: "suspended"}

	if _, err := r.Reconcile(context.Background(), reconcile.Request{NamespacedName: nn}); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	var got smcv1alpha1.SecretManagerConfig
	if err := r.Get(context.Background(), nn, &got); err != nil {
		t.Fatalf("getting smc: %v", err)
	}
	if got.Status.Phase != "Suspended" {
		t.Errorf("expected phase Suspended, got %q", got.Status.Phase)
	}
	cond := findCondition(&got, conditions.TypeReady)
	if cond == nil || cond.Reason != conditions.ReasonSuspended {
		t.Errorf("expected Ready reason Suspended, got %+v", cond)
	}
}

func TestReconcileMissingGitRepositorySetsPendingPhase(t *testing.T) {
	smc := &smcv1alpha1.SecretManagerConfig{
		ObjectMeta: metav1.ObjectMeta{Name: "missing-source", Finalizers: []string{smcFinalizer}},
		Spec: smcv1alpha1.SecretManagerConfigSpec{
			SourceRef: smcv1alpha1.SourceRefSpec{Kind: "GitRepository", Name: "does-not-exist", Namespace: "flux-system"},
			Secrets:   smcv1alpha1.SecretsSpec{Environment: "dev"},
			Provider:  smcv1alpha1.ProviderSpec{GCP: &smcv1alpha1.GCPProviderSpec{ProjectID: "my-project-1"}},
		},
	}
	r := newTestReconciler(smc)
	nn := types.NamespacedName{Name: "missing-source"}

	res, err := r.Reconcile(context.Background(), reconcile.Request{NamespacedName: nn})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if res.RequeueAfter != transientRequeue {
		t.Errorf("expected a transient requeue, got %v", res.RequeueAfter)
	}

	var got smcv1alpha1.SecretManagerConfig
	if err := r.Get(context.Background(), nn, &got); err != nil {
		t.Fatalf("getting smc: %v", err)
	}
	if got.Status.Phase != "Pending" {
		t.Errorf("expected phase Pending, got %q", got.Status.Phase)
	}
}

func TestReconcileDeleteRemovesFinalizerAndBackoff(t *testing.T) {
	smc := &smcv1alpha1.SecretManagerConfig{
		ObjectMeta: metav1.ObjectMeta{
			Name:              "deleting",
			Finalizers:        []string{smcFinalizer},
			DeletionTimestamp: &metav1.Time{Time: metav1.Now().Time},
		},
		Spec: smcv1alpha1.SecretManagerConfigSpec{
			SourceRef: smcv1alpha1.SourceRefSpec{Kind: "GitRepository", Name: "repo", Namespace: "flux-system"},
			Secrets:   smcv1alpha1.SecretsSpec{Environment: "dev"},
			Provider:  smcv1alpha1.ProviderSpec{GCP: &smcv1alpha1.GCPProviderSpec{ProjectID: "my-project-1"}},
		},
	}
	r := newTestReconciler(smc)
	r.backoff.recordFailure(types.NamespacedName{Name: "deleting"})
	nn := types.NamespacedName{Name: "deleting"}

	if _, err := r.Reconcile(context.Background(), reconcile.Request{NamespacedName: nn}); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if n := r.backoff.errorCount(nn); n != 0 {
		t.Errorf("expected backoff counter reset on delete, got %d", n)
	}
}
