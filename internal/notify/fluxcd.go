/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package notify ensures the GitOps-side notification plumbing declared on
// an SMC's spec.notifications block: a FluxCD Alert for GitRepository
// sources, subscription annotations on the Application for ArgoCD sources
// (component C12).
package notify

import (
	"context"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	fluxmeta "github.com/fluxcd/pkg/apis/meta"
	notifyv1beta3 "github.com/fluxcd/notification-controller/api/v1beta3"

	smcv1alpha1 "github.com/octopilot/secret-manager-controller/api/v1alpha1"
)

// routineExclusions suppresses the noisy, expected-on-every-tick messages
// so operators only get paged for things that actually need attention.
var routineExclusions = []string{
	"^Ready$",
	"^Reconciliation.*$",
	"^Started$",
}

// alertNamePrefix keeps the Alert name collision-free across multiple SMCs
// alerting through the same provider while staying traceable back to its
// owner.
const alertNamePrefix = "smc"

// EnsureFluxAlert creates or patches the namespaced Alert resource that
// routes this SMC's own GitRepository-sourced notification events to the
// configured provider. When spec.notifications.fluxcd is unset, it removes
// the Alert instead, via RemoveFluxAlert.
func EnsureFluxAlert(ctx context.Context, c client.Client, scheme *runtime.Scheme, smc *smcv1alpha1.SecretManagerConfig) error {
	cfg := smc.Spec.Notifications
	if cfg == nil || cfg.FluxCD == nil {
		return RemoveFluxAlert(ctx, c, smc)
	}

	alertName := alertNamePrefix + "-" + smc.Name
	ns := smc.Spec.SourceRef.Namespace
	var alert notifyv1beta3.Alert
	err := c.Get(ctx, types.NamespacedName{Namespace: ns, Name: alertName}, &alert)
	exists := err == nil
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("getting alert %s/%s: %w", ns, alertName, err)
	}

	desiredSpec := notifyv1beta3.AlertSpec{
		ProviderRef: fluxmeta.LocalObjectReference{Name: cfg.FluxCD.ProviderRef},
		EventSources: []fluxmeta.NamespacedObjectKindReference{
			{
				APIVersion: smcv1alpha1.GroupVersion.String(),
				Kind:       "SecretManagerConfig",
				Name:       smc.Name,
			},
		},
		ExclusionList: routineExclusions,
	}

	if exists {
		alert.Spec = desiredSpec
		if err := c.Update(ctx, &alert); err != nil {
			return fmt.Errorf("updating alert %s/%s: %w", ns, alertName, err)
		}
		return nil
	}

	alert = notifyv1beta3.Alert{
		ObjectMeta: metav1.ObjectMeta{Name: alertName, Namespace: ns},
		Spec:       desiredSpec,
	}
	if err := controllerutil.SetControllerReference(smc, &alert, scheme); err != nil {
		return fmt.Errorf("setting owner reference on alert %s/%s: %w", ns, alertName, err)
	}
	if err := c.Create(ctx, &alert); err != nil {
		return fmt.Errorf("creating alert %s/%s: %w", ns, alertName, err)
	}
	return nil
}

// RemoveFluxAlert deletes the Alert this SMC would have owned, tolerating
// its absence. Called when spec.notifications.fluxcd is cleared.
func RemoveFluxAlert(ctx context.Context, c client.Client, smc *smcv1alpha1.SecretManagerConfig) error {
	alertName := alertNamePrefix + "-" + smc.Name
	ns := smc.Spec.SourceRef.Namespace
	alert := notifyv1beta3.Alert{ObjectMeta: metav1.ObjectMeta{Name: alertName, Namespace: ns}}
	if err := c.Delete(ctx, &alert); err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("deleting alert %s/%s: %w", ns, alertName, err)
	}
	return nil
}
