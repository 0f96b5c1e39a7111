package controller

import (
	"context"
	"strconv"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	smcv1alpha1 "github.com/octopilot/secret-manager-controller/api/v1alpha1"
)

// ManualTriggerAnnotation, when present on an SMC, classifies the
// reconcile trigger as manualCli (spec.md §4.1 step 3). It is cleared only
// after a terminal-successful phase has been written (spec.md §4.8).
const ManualTriggerAnnotation = "secretmanager.octopilot.io/reconcile-now"

// ParseErrorCountAnnotation persists the spec-parse error counter across
// controller restarts (spec.md §4.8, §3 "Backoff state").
const ParseErrorCountAnnotation = "secretmanager.octopilot.io/parse-error-count"

// terminalSuccessPhases are the phases after which the manual-trigger
// annotation is cleared.
var terminalSuccessPhases = map[string]bool{
	"Ready":          true,
	"PartialFailure": true,
}

// setCondition replaces or appends a condition of the given type,
// preserving LastTransitionTime when the status doesn't change (mirrors
// the teacher's stoker_controller.go setCondition).
func setCondition(smc *smcv1alpha1.SecretManagerConfig, condType string, status metav1.ConditionStatus, reason, message string) {
	condition := metav1.Condition{
		Type:               condType,
		Status:             status,
		ObservedGeneration: smc.Generation,
		LastTransitionTime: metav1.Now(),
		Reason:             reason,
		Message:            message,
	}
	for i, c := range smc.Status.Conditions {
		if c.Type == condType {
			if c.Status != status {
				smc.Status.Conditions[i] = condition
			} else {
				smc.Status.Conditions[i].Reason = reason
				smc.Status.Conditions[i].Message = message
				smc.Status.Conditions[i].ObservedGeneration = smc.Generation
			}
			return
		}
	}
	smc.Status.Conditions = append(smc.Status.Conditions, condition)
}

// statusChanged reports whether the fields the spec requires comparing
// before a status PATCH differ between old and new (spec.md §4.8: "skip
// the call if unchanged; this is required to avoid feedback loops in the
// watch path").
func statusChanged(oldStatus, newStatus *smcv1alpha1.SecretManagerConfigStatus) bool {
	if oldStatus.Phase != newStatus.Phase || oldStatus.Description != newStatus.Description || oldStatus.SecretsSynced != newStatus.SecretsSynced {
		return true
	}
	if !syncMapsEqual(oldStatus.SyncedSecrets, newStatus.SyncedSecrets) {
		return true
	}
	if !syncMapsEqual(oldStatus.SyncedProperties, newStatus.SyncedProperties) {
		return true
	}
	return false
}

func syncMapsEqual(a, b map[string]smcv1alpha1.SyncEntryStatus) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		other, ok := b[k]
		if !ok || other != v {
			return false
		}
	}
	return true
}

// patchStatus writes smc's status against base if and only if the fields
// statusChanged tracks actually differ, and persists any annotation
// changes (the manual-trigger annotation cleared on a terminal-successful
// phase, the parse-error count set by scheduleNext) via a metadata patch
// so they survive controller restarts (spec.md §4.8, §3 "Backoff state").
//
// The status patch is issued first, so the manual-trigger annotation is
// only removed once the terminal-successful phase has been written. Each
// Patch call overwrites smc with the server's copy, so both writes work
// from a saved copy of what this reconcile computed.
func patchStatus(ctx context.Context, c client.Client, smc *smcv1alpha1.SecretManagerConfig, base *smcv1alpha1.SecretManagerConfig) error {
	if _, hadTrigger := smc.Annotations[ManualTriggerAnnotation]; hadTrigger && terminalSuccessPhases[smc.Status.Phase] {
		delete(smc.Annotations, ManualTriggerAnnotation)
	}
	computed := smc.DeepCopy()

	if statusChanged(&base.Status, &computed.Status) {
		if err := c.Status().Patch(ctx, smc, client.MergeFrom(base)); err != nil {
			return err
		}
	}

	if annotationsEqual(base.Annotations, computed.Annotations) {
		return nil
	}
	metaBase := smc.DeepCopy()
	metaBase.Annotations = base.Annotations
	smc.Annotations = computed.Annotations
	return c.Patch(ctx, smc, client.MergeFrom(metaBase))
}

func annotationsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if other, ok := b[k]; !ok || other != v {
			return false
		}
	}
	return true
}

// parseErrorCount reads the persisted spec-parse error counter.
func parseErrorCount(smc *smcv1alpha1.SecretManagerConfig) int {
	raw, ok := smc.Annotations[ParseErrorCountAnnotation]
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

// setParseErrorCount persists n, or clears the annotation entirely when n
// is zero (spec.md §4.8: "cleared on success").
func setParseErrorCount(smc *smcv1alpha1.SecretManagerConfig, n int) {
	if smc.Annotations == nil {
		smc.Annotations = map[string]string{}
	}
	if n <= 0 {
		delete(smc.Annotations, ParseErrorCountAnnotation)
		return
	}
	smc.Annotations[ParseErrorCountAnnotation] = strconv.Itoa(n)
}
