package notify

import (
	"context"
	"testing"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	argocdv1alpha1 "github.com/argoproj/argo-cd/v2/pkg/apis/application/v1alpha1"

	smcv1alpha1 "github.com/octopilot/secret-manager-controller/api/v1alpha1"
)

func newNotifyScheme() *runtime.Scheme {
	s := runtime.NewScheme()
	_ = smcv1alpha1.AddToScheme(s)
	_ = argocdv1alpha1.AddToScheme(s)
	return s
}

func TestEnsureArgoCDSubscriptionsAddsAndRemoves(t *testing.T) {
	app := &argocdv1alpha1.Application{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "my-app",
			Namespace: "argocd",
			Annotations: map[string]string{
				"notifications.argoproj.io/subscribe.on-sync-failed.slack": "stale-channel",
				"kept.example.com/other":                                  "untouched",
			},
		},
	}

	c := fake.NewClientBuilder().WithScheme(newNotifyScheme()).WithObjects(app).Build()

	smc := &smcv1alpha1.SecretManagerConfig{
		ObjectMeta: metav1.ObjectMeta{Name: "my-smc", Namespace: "team-a"},
		Spec: smcv1alpha1.SecretManagerConfigSpec{
			SourceRef: smcv1alpha1.SourceRefSpec{Kind: "Application", Name: "my-app", Namespace: "argocd"},
			Notifications: &smcv1alpha1.NotificationsSpec{
				ArgoCD: &smcv1alpha1.ArgoCDNotificationSpec{
					Subscriptions: []smcv1alpha1.ArgoCDSubscription{
						{Trigger: "on-deployed", Service: "slack", Channel: "#deploys"},
					},
				},
			},
		},
	}

	if err := EnsureArgoCDSubscriptions(context.Background(), c, smc); err != nil {
		t.Fatalf("EnsureArgoCDSubscriptions: %v", err)
	}

	var got argocdv1alpha1.Application
	if err := c.Get(context.Background(), client.ObjectKey{Namespace: "argocd", Name: "my-app"}, &got); err != nil {
		t.Fatalf("getting Application: %v", err)
	}

	if _, present := got.Annotations["notifications.argoproj.io/subscribe.on-sync-failed.slack"]; present {
		t.Error("expected the stale subscription annotation to be removed")
	}
	if got.Annotations["kept.example.com/other"] != "untouched" {
		t.Error("expected the unrelated annotation to survive untouched")
	}
	if got.Annotations["notifications.argoproj.io/subscribe.on-deployed.slack"] != "#deploys" {
		t.Error("expected the declared subscription annotation to be set")
	}
}

func TestEnsureArgoCDSubscriptionsSkipsFluxCDSources(t *testing.T) {
	c := fake.NewClientBuilder().WithScheme(newNotifyScheme()).Build()
	smc := &smcv1alpha1.SecretManagerConfig{
		Spec: smcv1alpha1.SecretManagerConfigSpec{
			SourceRef: smcv1alpha1.SourceRefSpec{Kind: "GitRepository", Name: "repo", Namespace: "flux-system"},
		},
	}
	if err := EnsureArgoCDSubscriptions(context.Background(), c, smc); err != nil {
		t.Fatalf("expected no-op for a GitRepository source, got error: %v", err)
	}
}
