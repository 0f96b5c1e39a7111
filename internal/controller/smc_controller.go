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

// Package controller implements the SecretManagerConfig reconcile state
// machine (component C9), tying together spec validation, source
// resolution, parsing, the backend sync driver, and status/backoff
// bookkeeping (component C10).
package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	ctrlcontroller "sigs.k8s.io/controller-runtime/pkg/controller"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	logf "sigs.k8s.io/controller-runtime/pkg/log"

	sourcev1 "github.com/fluxcd/source-controller/api/v1"

	smcv1alpha1 "github.com/octopilot/secret-manager-controller/api/v1alpha1"
	"github.com/octopilot/secret-manager-controller/internal/artifact"
	"github.com/octopilot/secret-manager-controller/internal/backend"
	"github.com/octopilot/secret-manager-controller/internal/notify"
	"github.com/octopilot/secret-manager-controller/internal/parser"
	"github.com/octopilot/secret-manager-controller/internal/sops"
	syncdriver "github.com/octopilot/secret-manager-controller/internal/sync"
	"github.com/octopilot/secret-manager-controller/internal/validate"
	"github.com/octopilot/secret-manager-controller/pkg/conditions"
)

// smcFinalizer gates cleanup of process-wide, non-Kubernetes-owned state
// (metrics series, backoff counters) on deletion.
const smcFinalizer = "secretmanager.octopilot.io/finalizer"

const transientRequeue = 30 * time.Second

// SecretManagerConfigReconciler reconciles a SecretManagerConfig object.
type SecretManagerConfigReconciler struct {
	client.Client
	Scheme   *runtime.Scheme
	Recorder record.EventRecorder

	SopsKeyStore *sops.KeyStore

	backoff    *reconcileBackoff
	gitMutexes *gitMutexes
}

// NewReconciler builds a SecretManagerConfigReconciler with its process-wide
// bookkeeping initialized.
func NewReconciler(c client.Client, scheme *runtime.Scheme, recorder record.EventRecorder, keyStore *sops.KeyStore) *SecretManagerConfigReconciler {
	return &SecretManagerConfigReconciler{
		Client:       c,
		Scheme:       scheme,
		Recorder:     recorder,
		SopsKeyStore: keyStore,
		backoff:      newReconcileBackoff(),
		gitMutexes:   newGitMutexes(),
	}
}

// +kubebuilder:rbac:groups=secretmanager.octopilot.io,resources=secretmanagerconfigs,verbs=get;list;watch;update;patch
// +kubebuilder:rbac:groups=secretmanager.octopilot.io,resources=secretmanagerconfigs/status,verbs=get;update;patch
// +kubebuilder:rbac:groups=secretmanager.octopilot.io,resources=secretmanagerconfigs/finalizers,verbs=update
// +kubebuilder:rbac:groups=source.toolkit.fluxcd.io,resources=gitrepositories,verbs=get;list;watch;update;patch
// +kubebuilder:rbac:groups=argoproj.io,resources=applications,verbs=get;list;watch;update;patch
// +kubebuilder:rbac:groups=notification.toolkit.fluxcd.io,resources=alerts,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups="",resources=secrets,verbs=get;list;watch
// +kubebuilder:rbac:groups="",resources=events,verbs=create;patch

func (r *SecretManagerConfigReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	log := logf.FromContext(ctx)

	var smc smcv1alpha1.SecretManagerConfig
	if err := r.Get(ctx, req.NamespacedName, &smc); err != nil {
		return ctrl.Result{}, client.IgnoreNotFound(err)
	}
	base := smc.DeepCopy()

	if !smc.DeletionTimestamp.IsZero() {
		return r.reconcileDelete(ctx, &smc)
	}
	if !controllerutil.ContainsFinalizer(&smc, smcFinalizer) {
		controllerutil.AddFinalizer(&smc, smcFinalizer)
		return ctrl.Result{}, r.Update(ctx, &smc)
	}

	// Step 1: validate spec (C13).
	if err := validateSpecOrFail(&smc); err != nil {
		setCondition(&smc, conditions.TypeReady, metav1.ConditionFalse, conditions.ReasonSpecInvalid, err.Error())
		smc.Status.Phase = "Failed"
		smc.Status.Description = err.Error()
		smc.Status.ObservedGeneration = smc.Generation
		_ = patchStatus(ctx, r.Client, &smc, base)
		return ctrl.Result{}, nil
	}

	// Step 2: suspend.
	if smc.Spec.Suspend {
		smc.Status.Phase = "Suspended"
		setCondition(&smc, conditions.TypeReady, metav1.ConditionFalse, conditions.ReasonSuspended, "spec.suspend is true")
		smc.Status.ObservedGeneration = smc.Generation
		_ = patchStatus(ctx, r.Client, &smc, base)
		return ctrl.Result{}, nil
	}

	smc.Status.Phase = "Started"
	smc.Status.ObservedGeneration = smc.Generation

	resolved, sourcePhase, err := r.resolveSource(ctx, &smc)
	if err != nil {
		return r.failReconcile(ctx, &smc, base, sourcePhase, err)
	}

	backends, err := backend.Build(ctx, smc.Spec.Provider, smc.Spec.Configs, smc.Spec.Secrets.Environment)
	if err != nil {
		return r.failReconcile(ctx, &smc, base, "Failed", err)
	}
	setCondition(&smc, conditions.TypeBackendReachable, metav1.ConditionTrue, conditions.ReasonSyncSucceeded, "backend client constructed")

	processingPhase := "Updating"
	if smc.Spec.SourceRef.Kind == "GitRepository" {
		processingPhase = "Cloning"
	}
	smc.Status.Phase = processingPhase

	result, err := r.parse(ctx, &smc, resolved)
	if err != nil {
		var decErr *sops.DecryptError
		if errors.As(err, &decErr) && decErr.Transient() {
			return r.failReconcile(ctx, &smc, base, "Retrying", err)
		}
		return r.failReconcile(ctx, &smc, base, "Failed", err)
	}

	secretsOut := syncdriver.SyncSecrets(ctx, backends.Secrets, result.Secrets, smc.Status.SyncedSecrets, syncOptions(&smc))
	propsOut := &syncdriver.Result{SyncedSecrets: smc.Status.SyncedProperties}
	if smc.Spec.Configs.Enabled {
		propsOut = syncdriver.SyncProperties(ctx, backends.Configs, backends.Secrets, result.Properties, smc.Status.SyncedProperties, syncOptions(&smc))
	}

	smc.Status.SyncedSecrets = secretsOut.SyncedSecrets
	smc.Status.SyncedProperties = propsOut.SyncedSecrets
	smc.Status.SecretsSynced = int32(secretsOut.Count)

	if err := r.reconcileNotifications(ctx, &smc); err != nil {
		log.Error(err, "notification integration failed; continuing")
	}

	// result.Errors carries permanent per-service decrypt failures (C3):
	// those services never reached the sync driver, so they're folded into
	// the same PartialFailure accounting as sync-level failures.
	allErrs := append(append(append([]error{}, result.Errors...), secretsOut.Errors...), propsOut.Errors...)
	totalAttempted := secretsOut.Count + propsOut.Count + len(result.Errors)
	switch {
	case len(allErrs) > 0 && totalAttempted > len(allErrs):
		smc.Status.Phase = "PartialFailure"
		smc.Status.Description = fmt.Sprintf("%d of %d entries failed to sync; first error: %v", len(allErrs), totalAttempted, allErrs[0])
		setCondition(&smc, conditions.TypeReady, metav1.ConditionFalse, conditions.ReasonPartialFailure, smc.Status.Description)
	case len(allErrs) > 0:
		return r.failReconcile(ctx, &smc, base, "Retrying", fmt.Errorf("%d sync errors; first: %w", len(allErrs), allErrs[0]))
	default:
		smc.Status.Phase = "Ready"
		smc.Status.Description = ""
		setCondition(&smc, conditions.TypeReady, metav1.ConditionTrue, conditions.ReasonSyncSucceeded, fmt.Sprintf("synced %d entries, %d drifted", secretsOut.Count, secretsOut.DriftDetected))
	}

	_, sopsAvailable := r.SopsKeyStore.Current()
	smc.Status.SopsKeyAvailable = sopsAvailable
	setCondition(&smc, conditions.TypeSopsKeyAvailable, boolStatus(sopsAvailable), sopsReason(sopsAvailable), "")

	r.backoff.reset(req.NamespacedName)
	observeSMCMetrics(&smc, secretsOut.DriftDetected+propsOut.DriftDetected)

	requeueAfter, requeueErr := r.scheduleNext(&smc)
	now := metav1.Now()
	smc.Status.LastReconcileTime = &now
	next := metav1.NewTime(time.Now().Add(requeueAfter))
	smc.Status.NextReconcileTime = &next

	if err := patchStatus(ctx, r.Client, &smc, base); err != nil {
		return ctrl.Result{}, err
	}
	if requeueErr != nil {
		log.Info("reconcileInterval invalid; falling back to parse-error backoff", "requeueAfter", requeueAfter)
	}
	return ctrl.Result{RequeueAfter: requeueAfter}, nil
}

// syncOptions projects the spec fields the sync driver needs.
func syncOptions(smc *smcv1alpha1.SecretManagerConfig) syncdriver.Options {
	return syncdriver.Options{
		Prefix:        smc.Spec.Secrets.Prefix,
		Suffix:        smc.Spec.Secrets.Suffix,
		Environment:   smc.Spec.Secrets.Environment,
		Location:      providerLocation(smc.Spec.Provider),
		DiffDiscovery: smc.Spec.DiffDiscovery,
		TriggerUpdate: smc.Spec.TriggerUpdate,
	}
}

func providerLocation(p smcv1alpha1.ProviderSpec) string {
	switch {
	case p.GCP != nil:
		return p.GCP.Location
	case p.Azure != nil:
		return p.Azure.Location
	default:
		return ""
	}
}

// resolveSource dispatches to C6 or C7 per spec.md §4.1 step 4, returning
// the phase to report on failure.
func (r *SecretManagerConfigReconciler) resolveSource(ctx context.Context, smc *smcv1alpha1.SecretManagerConfig) (artifact.Resolved, string, error) {
	ref := smc.Spec.SourceRef

	if ref.Kind == "GitRepository" {
		if smc.Spec.SuspendGitPulls {
			if err := r.suspendGitRepository(ctx, ref.Namespace, ref.Name); err != nil {
				logf.FromContext(ctx).Error(err, "failed to suspend upstream GitRepository")
			}
		}
		resolved, err := artifact.ResolveFlux(ctx, r.Client, ref.Namespace, ref.Name)
		if err != nil {
			var notReady *artifact.ErrArtifactNotReady
			if asNotReady(err, &notReady) {
				if notReady.NotFound {
					return artifact.Resolved{}, "Pending", err
				}
				if notReady.Reconciling {
					return artifact.Resolved{}, "Pending", errAwaitChange
				}
			}
			return artifact.Resolved{}, "Failed", err
		}
		return resolved, "", nil
	}

	mu := r.gitMutexes.For(types.NamespacedName{Namespace: smc.Namespace, Name: smc.Name})
	mu.Lock()
	defer mu.Unlock()
	resolved, err := artifact.ResolveArgoCD(ctx, r.Client, ref.Namespace, ref.Name, gitCredentialsKey(smc))
	if err != nil {
		return artifact.Resolved{}, "Failed", err
	}
	return resolved, "", nil
}

// errAwaitChange is a sentinel: the source isn't ready yet through no
// fault of the SMC (the upstream GitRepository is mid-reconcile), so no
// error should be recorded and no backoff should advance.
var errAwaitChange = fmt.Errorf("awaiting upstream source change")

func asNotReady(err error, target **artifact.ErrArtifactNotReady) bool {
	notReady, ok := err.(*artifact.ErrArtifactNotReady)
	if ok {
		*target = notReady
	}
	return ok
}

func gitCredentialsKey(smc *smcv1alpha1.SecretManagerConfig) *client.ObjectKey {
	ref := smc.Spec.SourceRef.GitCredentialsRef
	if ref == nil {
		return nil
	}
	key := client.ObjectKey{Namespace: smc.Spec.SourceRef.Namespace, Name: ref.Name}
	return &key
}

func (r *SecretManagerConfigReconciler) suspendGitRepository(ctx context.Context, namespace, name string) error {
	var repo sourcev1.GitRepository
	if err := r.Get(ctx, client.ObjectKey{Namespace: namespace, Name: name}, &repo); err != nil {
		return client.IgnoreNotFound(err)
	}
	if repo.Spec.Suspend {
		return nil
	}
	base := repo.DeepCopy()
	repo.Spec.Suspend = true
	return r.Patch(ctx, &repo, client.MergeFrom(base))
}

// parse dispatches to the kustomize integration (C5) or the raw file-set
// parser (C4) depending on spec.secrets.kustomizePath.
func (r *SecretManagerConfigReconciler) parse(ctx context.Context, smc *smcv1alpha1.SecretManagerConfig, resolved artifact.Resolved) (parser.Result, error) {
	if smc.Spec.Secrets.KustomizePath != "" {
		return parser.BuildKustomize(ctx, resolved.Path, smc.Spec.Secrets.KustomizePath)
	}
	sopsKey, _ := r.SopsKeyStore.Current()
	return parser.ParseFileSet(ctx, resolved.Path, smc.Spec.Secrets.BasePath, smc.Spec.Secrets.Environment, sopsKey)
}

func (r *SecretManagerConfigReconciler) reconcileNotifications(ctx context.Context, smc *smcv1alpha1.SecretManagerConfig) error {
	if smc.Spec.SourceRef.Kind == "GitRepository" {
		return notify.EnsureFluxAlert(ctx, r.Client, r.Scheme, smc)
	}
	return notify.EnsureArgoCDSubscriptions(ctx, r.Client, smc)
}

// failReconcile records a downstream failure, classifying transient vs
// permanent per spec.md §4.1's failure policy, and writes status before
// returning the requeue decision.
func (r *SecretManagerConfigReconciler) failReconcile(ctx context.Context, smc *smcv1alpha1.SecretManagerConfig, base *smcv1alpha1.SecretManagerConfig, phase string, err error) (ctrl.Result, error) {
	key := types.NamespacedName{Namespace: smc.Namespace, Name: smc.Name}

	if err == errAwaitChange {
		smc.Status.Phase = "Pending"
		setCondition(smc, conditions.TypeSourceResolved, metav1.ConditionFalse, conditions.ReasonSourceNotReady, "upstream source is reconciling")
		_ = patchStatus(ctx, r.Client, smc, base)
		return ctrl.Result{RequeueAfter: transientRequeue}, nil
	}

	smc.Status.Phase = phase
	smc.Status.Description = err.Error()
	reason := conditions.ReasonSyncFailed
	if phase == "Pending" {
		reason = conditions.ReasonSourceMissing
	} else if phase == "Retrying" {
		reason = conditions.ReasonRetrying
	}
	setCondition(smc, conditions.TypeReady, metav1.ConditionFalse, reason, err.Error())
	_ = patchStatus(ctx, r.Client, smc, base)

	if phase == "Pending" || phase == "Retrying" {
		observeBackoffMetric(smc.Name, smc.Namespace, r.backoff.errorCount(key))
		return ctrl.Result{RequeueAfter: transientRequeue}, nil
	}

	n := r.backoff.recordFailure(key)
	observeBackoffMetric(smc.Name, smc.Namespace, n)
	return ctrl.Result{RequeueAfter: fibDelay(n)}, nil
}

// scheduleNext computes the requeue interval for a successful reconcile:
// the validated reconcileInterval, or a Fibonacci backoff keyed by the
// persisted parse-error count when the interval itself doesn't parse.
func (r *SecretManagerConfigReconciler) scheduleNext(smc *smcv1alpha1.SecretManagerConfig) (time.Duration, error) {
	d, err := parseIntervalFloorOrDefault(smc.Spec.ReconcileInterval)
	if err == nil {
		setParseErrorCount(smc, 0)
		return d, nil
	}
	n := parseErrorCount(smc) + 1
	setParseErrorCount(smc, n)
	return fibDelay(n), err
}

func (r *SecretManagerConfigReconciler) reconcileDelete(ctx context.Context, smc *smcv1alpha1.SecretManagerConfig) (ctrl.Result, error) {
	if !controllerutil.ContainsFinalizer(smc, smcFinalizer) {
		return ctrl.Result{}, nil
	}
	cleanupCRMetrics(smc.Name, smc.Namespace)
	r.backoff.reset(types.NamespacedName{Namespace: smc.Namespace, Name: smc.Name})
	controllerutil.RemoveFinalizer(smc, smcFinalizer)
	return ctrl.Result{}, r.Update(ctx, smc)
}

// validateSpecOrFail runs C13 over the spec, returning its error verbatim
// (already a *validate.Error with field/message detail).
func validateSpecOrFail(smc *smcv1alpha1.SecretManagerConfig) error {
	return validate.Validate(&smc.Spec)
}

// parseIntervalFloorOrDefault parses reconcileInterval (default 5m) with
// validate.ParseIntervalFloor's format and 60-second floor. Validate does
// not check reconcileInterval, so a malformed value is first caught here.
func parseIntervalFloorOrDefault(value string) (time.Duration, error) {
	return validate.ParseIntervalFloor("reconcileInterval", value, "5m")
}

func boolStatus(b bool) metav1.ConditionStatus {
	if b {
		return metav1.ConditionTrue
	}
	return metav1.ConditionFalse
}

func sopsReason(available bool) string {
	if available {
		return conditions.ReasonKeyLoaded
	}
	return conditions.ReasonKeyUnavailable
}

// SetupWithManager sets up the controller with the Manager.
func (r *SecretManagerConfigReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&smcv1alpha1.SecretManagerConfig{}).
		WithOptions(ctrlcontroller.Options{MaxConcurrentReconciles: 5}).
		Named("secretmanagerconfig").
		Complete(r)
}
