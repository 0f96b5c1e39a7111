package notify

import (
	"context"
	"testing"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	fluxmeta "github.com/fluxcd/pkg/apis/meta"
	notifyv1beta3 "github.com/fluxcd/notification-controller/api/v1beta3"

	smcv1alpha1 "github.com/octopilot/secret-manager-controller/api/v1alpha1"
)

func testSMCWithFluxAlert() *smcv1alpha1.SecretManagerConfig {
	return &smcv1alpha1.SecretManagerConfig{
		ObjectMeta: metav1.ObjectMeta{Name: "my-smc"},
		Spec: smcv1alpha1.SecretManagerConfigSpec{
			SourceRef: smcv1alpha1.SourceRefSpec{Kind: "GitRepository", Name: "repo", Namespace: "flux-system"},
			Notifications: &smcv1alpha1.NotificationsSpec{
				FluxCD: &smcv1alpha1.FluxCDNotificationSpec{ProviderRef: "slack-provider"},
			},
		},
	}
}

func TestEnsureFluxAlertCreatesOwnedAlertInSourceNamespace(t *testing.T) {
	c := fake.NewClientBuilder().WithScheme(newNotifyScheme()).Build()
	smc := testSMCWithFluxAlert()

	if err := EnsureFluxAlert(context.Background(), c, newNotifyScheme(), smc); err != nil {
		t.Fatalf("EnsureFluxAlert: %v", err)
	}

	var alert notifyv1beta3.Alert
	key := client.ObjectKey{Namespace: "flux-system", Name: "smc-my-smc"}
	if err := c.Get(context.Background(), key, &alert); err != nil {
		t.Fatalf("expected the alert to be created in the GitRepository's namespace: %v", err)
	}
	if alert.Spec.ProviderRef.Name != "slack-provider" {
		t.Errorf("expected providerRef slack-provider, got %q", alert.Spec.ProviderRef.Name)
	}
	if len(alert.OwnerReferences) != 1 || alert.OwnerReferences[0].Name != "my-smc" {
		t.Errorf("expected the alert to be owned by the smc, got %+v", alert.OwnerReferences)
	}
}

func TestEnsureFluxAlertUpdatesExistingAlert(t *testing.T) {
	existing := &notifyv1beta3.Alert{
		ObjectMeta: metav1.ObjectMeta{Name: "smc-my-smc", Namespace: "flux-system"},
		Spec:       notifyv1beta3.AlertSpec{ProviderRef: fluxmeta.LocalObjectReference{Name: "stale-provider"}},
	}
	c := fake.NewClientBuilder().WithScheme(newNotifyScheme()).WithObjects(existing).Build()
	smc := testSMCWithFluxAlert()

	if err := EnsureFluxAlert(context.Background(), c, newNotifyScheme(), smc); err != nil {
		t.Fatalf("EnsureFluxAlert: %v", err)
	}

	var alert notifyv1beta3.Alert
	if err := c.Get(context.Background(), client.ObjectKey{Namespace: "flux-system", Name: "smc-my-smc"}, &alert); err != nil {
		t.Fatalf("getting alert: %v", err)
	}
	if alert.Spec.ProviderRef.Name != "slack-provider" {
		t.Errorf("expected the existing alert to be updated with providerRef slack-provider, got %q", alert.Spec.ProviderRef.Name)
	}
}

func TestEnsureFluxAlertRemovesAlertWhenNotificationsCleared(t *testing.T) {
	existing := &notifyv1beta3.Alert{ObjectMeta: metav1.ObjectMeta{Name: "smc-my-smc", Namespace: "flux-system"}}
	c := fake.NewClientBuilder().WithScheme(newNotifyScheme()).WithObjects(existing).Build()

	smc := testSMCWithFluxAlert()
	smc.Spec.Notifications = nil

	if err := EnsureFluxAlert(context.Background(), c, newNotifyScheme(), smc); err != nil {
		t.Fatalf("EnsureFluxAlert: %v", err)
	}

	var alert notifyv1beta3.Alert
	err := c.Get(context.Background(), client.ObjectKey{Namespace: "flux-system", Name: "smc-my-smc"}, &alert)
	if err == nil {
		t.Fatal("expected the alert to be deleted once fluxcd notifications are cleared")
	}
}

func TestRemoveFluxAlertToleratesMissingAlert(t *testing.T) {
	c := fake.NewClientBuilder().WithScheme(newNotifyScheme()).Build()
	smc := testSMCWithFluxAlert()
	if err := RemoveFluxAlert(context.Background(), c, smc); err != nil {
		t.Fatalf("expected a missing alert to be tolerated, got %v", err)
	}
}
