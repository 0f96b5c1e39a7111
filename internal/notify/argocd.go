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

package notify

import (
	"context"
	"fmt"
	"strings"

	argocdv1alpha1 "github.com/argoproj/argo-cd/v2/pkg/apis/application/v1alpha1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	smcv1alpha1 "github.com/octopilot/secret-manager-controller/api/v1alpha1"
)

// subscribeAnnotationPrefix namespaces every annotation this controller
// writes onto an Application; every annotation under it is treated as a
// subscription this controller manages, whoever placed it.
const subscribeAnnotationPrefix = "notifications.argoproj.io/subscribe."

// EnsureArgoCDSubscriptions patches the Application named by
// smc.Spec.SourceRef with one `notifications.argoproj.io/subscribe.<trigger>.<service>`
// annotation per entry in spec.notifications.argocd.subscriptions, removing
// every other subscribe.* annotation on the Application, including ones
// placed by hand or by other tooling. Annotations outside the subscribe.*
// namespace are left untouched.
func EnsureArgoCDSubscriptions(ctx context.Context, c client.Client, smc *smcv1alpha1.SecretManagerConfig) error {
	if smc.Spec.SourceRef.Kind != "Application" {
		return nil
	}

	var app argocdv1alpha1.Application
	key := client.ObjectKey{Namespace: smc.Spec.SourceRef.Namespace, Name: smc.Spec.SourceRef.Name}
	if err := c.Get(ctx, key, &app); err != nil {
		return fmt.Errorf("getting Application %s/%s: %w", key.Namespace, key.Name, err)
	}

	desired := map[string]string{}
	if cfg := smc.Spec.Notifications; cfg != nil && cfg.ArgoCD != nil {
		for _, sub := range cfg.ArgoCD.Subscriptions {
			desired[subscribeAnnotationPrefix+sub.Trigger+"."+sub.Service] = sub.Channel
		}
	}

	before := app.DeepCopy()
	if app.Annotations == nil {
		app.Annotations = map[string]string{}
	}
	// Every subscribe.* annotation is this reconciler's to manage; anything
	// else on the Application (other tooling's annotations, labels) is left
	// untouched by iterating only over the subscribe.* namespace.
	for annotationKey := range app.Annotations {
		if !strings.HasPrefix(annotationKey, subscribeAnnotationPrefix) {
			continue
		}
		if _, stillDesired := desired[annotationKey]; !stillDesired {
			delete(app.Annotations, annotationKey)
		}
	}
	for annotationKey, channel := range desired {
		app.Annotations[annotationKey] = channel
	}

	if annotationsEqual(before.Annotations, app.Annotations) {
		return nil
	}
	if err := c.Patch(ctx, &app, client.MergeFrom(before)); err != nil {
		return fmt.Errorf("patching Application %s/%s annotations: %w", key.Namespace, key.Name, err)
	}
	return nil
}

func annotationsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
