package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ============================================================
// Source reference
// ============================================================

// SourceRefSpec points at the GitOps resource that owns the working tree.
type SourceRefSpec struct {
	// kind is either GitRepository (FluxCD) or Application (ArgoCD).
	// +kubebuilder:validation:Enum=GitRepository;Application
	// +kubebuilder:validation:Required
	Kind string `json:"kind"`

	// name is the name of the referenced resource.
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:MinLength=1
	Name string `json:"name"`

	// namespace is the namespace of the referenced resource.
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:MinLength=1
	Namespace string `json:"namespace"`

	// gitCredentialsRef points at a Secret carrying exactly one of an SSH
	// identity, a GitHub token, or HTTPS basic-auth credentials. Only
	// consulted when kind is Application; FluxCD credentials are managed by
	// the GitRepository resource itself.
	// +optional
	GitCredentialsRef *SecretKeyRef `json:"gitCredentialsRef,omitempty"`
}

// SecretKeyRef references a key within a Kubernetes Secret.
type SecretKeyRef struct {
	// name is the name of the Secret in the same namespace.
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:MinLength=1
	Name string `json:"name"`

	// key is the key within the Secret data. Optional when the whole Secret
	// is consulted for several well-known field names (e.g. git credentials).
	// +optional
	Key string `json:"key,omitempty"`
}

// ============================================================
// Secrets / configs processing
// ============================================================

// SecretsSpec configures how the secrets tree under the artifact is located
// and processed.
type SecretsSpec struct {
	// environment selects the per-environment subtree, e.g. "dev", "prod".
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:MinLength=1
	Environment string `json:"environment"`

	// prefix is prepended to every derived cloud secret name.
	// +optional
	Prefix string `json:"prefix,omitempty"`

	// suffix is appended to every derived cloud secret name. Leading dashes
	// are stripped before the join.
	// +optional
	Suffix string `json:"suffix,omitempty"`

	// basePath scopes discovery to a subdirectory of the artifact root.
	// +optional
	BasePath string `json:"basePath,omitempty"`

	// kustomizePath, if set, routes processing through `kustomize build`
	// instead of the raw file-set parser.
	// +optional
	KustomizePath string `json:"kustomizePath,omitempty"`

	// defaultService is accepted but not read by the file-set parser:
	// discovery matches <environment>/ directories at any depth, with or
	// without an enclosing <service> directory, and never consults it.
	// +optional
	DefaultService string `json:"defaultService,omitempty"`
}

// ConfigsSpec configures processing of non-secret configuration values.
type ConfigsSpec struct {
	// enabled turns on the parallel config-store sync path.
	// +optional
	Enabled bool `json:"enabled,omitempty"`

	// appConfigEndpoint is the Azure App Configuration REST endpoint
	// (https://<name>.azconfig.io). Required when the provider is AZURE and
	// configs are enabled.
	// +optional
	AppConfigEndpoint string `json:"appConfigEndpoint,omitempty"`

	// parameterPath is the AWS SSM Parameter Store path prefix, e.g.
	// "/app/prod". Required when the provider is AWS and configs are
	// enabled.
	// +optional
	ParameterPath string `json:"parameterPath,omitempty"`
}

// ============================================================
// Provider (tagged union)
// ============================================================

// ProviderAuthSpec optionally overrides ambient pod-identity credentials.
// Left empty, the provider SDK's default credential chain is used (GKE
// Workload Identity, IRSA, or Azure Workload Identity).
type ProviderAuthSpec struct {
	// secretRef points at a Secret carrying provider-specific credential
	// material (e.g. a GCP service account key JSON, an AWS access key
	// pair, or an Azure client secret).
	// +optional
	SecretRef *SecretKeyRef `json:"secretRef,omitempty"`
}

// GCPProviderSpec configures the GCP Secret Manager backend.
type GCPProviderSpec struct {
	// projectId is the GCP project hosting the secrets.
	// +kubebuilder:validation:Required
	ProjectID string `json:"projectId"`

	// location, if set, pins secret replication to a single region instead
	// of the automatic multi-region policy.
	// +optional
	Location string `json:"location,omitempty"`

	// +optional
	Auth *ProviderAuthSpec `json:"auth,omitempty"`
}

// AWSProviderSpec configures the AWS Secrets Manager / SSM backend.
type AWSProviderSpec struct {
	// region is the AWS region, e.g. "us-east-1".
	// +kubebuilder:validation:Required
	Region string `json:"region"`

	// +optional
	Auth *ProviderAuthSpec `json:"auth,omitempty"`
}

// AzureProviderSpec configures the Azure Key Vault / App Configuration backend.
type AzureProviderSpec struct {
	// vaultName is the Azure Key Vault name (without the vault.azure.net suffix).
	// +kubebuilder:validation:Required
	VaultName string `json:"vaultName"`

	// location is the Azure region, recorded as a tag.
	// +optional
	Location string `json:"location,omitempty"`

	// +optional
	Auth *ProviderAuthSpec `json:"auth,omitempty"`
}

// ProviderSpec is a tagged union of cloud backends; exactly one branch
// should be populated.
type ProviderSpec struct {
	// +optional
	GCP *GCPProviderSpec `json:"gcp,omitempty"`

	// +optional
	AWS *AWSProviderSpec `json:"aws,omitempty"`

	// +optional
	Azure *AzureProviderSpec `json:"azure,omitempty"`
}

// ============================================================
// Notifications
// ============================================================

// NotificationsSpec configures integration with GitOps notification systems.
type NotificationsSpec struct {
	// +optional
	FluxCD *FluxCDNotificationSpec `json:"fluxcd,omitempty"`

	// +optional
	ArgoCD *ArgoCDNotificationSpec `json:"argocd,omitempty"`
}

// FluxCDNotificationSpec ensures a FluxCD Alert resource routes build events.
type FluxCDNotificationSpec struct {
	// providerRef names the notification.toolkit.fluxcd.io Provider to alert.
	// +kubebuilder:validation:Required
	ProviderRef string `json:"providerRef"`
}

// ArgoCDSubscription describes one notification subscription to patch onto
// the Application as a `notifications.argoproj.io/subscribe.<trigger>.<service>`
// annotation.
type ArgoCDSubscription struct {
	// trigger is the ArgoCD notification trigger name.
	// +kubebuilder:validation:Required
	Trigger string `json:"trigger"`

	// service is the ArgoCD notification service name.
	// +kubebuilder:validation:Required
	Service string `json:"service"`

	// channel is the destination channel for the service.
	// +kubebuilder:validation:Required
	Channel string `json:"channel"`
}

// ArgoCDNotificationSpec patches subscription annotations onto the Application.
type ArgoCDNotificationSpec struct {
	// +optional
	Subscriptions []ArgoCDSubscription `json:"subscriptions,omitempty"`
}

// ============================================================
// Top-level spec
// ============================================================

// SecretManagerConfigSpec defines the desired state of SecretManagerConfig.
type SecretManagerConfigSpec struct {
	// sourceRef points at the GitOps resource that produces the working tree.
	// +kubebuilder:validation:Required
	SourceRef SourceRefSpec `json:"sourceRef"`

	// secrets configures discovery and parsing of the secrets tree.
	// +kubebuilder:validation:Required
	Secrets SecretsSpec `json:"secrets"`

	// configs configures the parallel non-secret configuration sync.
	// +optional
	Configs ConfigsSpec `json:"configs,omitempty"`

	// provider selects and configures the cloud backend.
	// +kubebuilder:validation:Required
	Provider ProviderSpec `json:"provider"`

	// reconcileInterval is a duration string (`^\d+[smhd]$`), floor-enforced
	// at 60s.
	// +kubebuilder:default="5m"
	// +optional
	ReconcileInterval string `json:"reconcileInterval,omitempty"`

	// gitRepositoryPullInterval is checked by spec validation (same format
	// and 60-second floor reconcileInterval is parsed with) and is otherwise
	// unused; pull cadence itself remains FluxCD's responsibility.
	// +kubebuilder:default="1m"
	// +optional
	GitRepositoryPullInterval string `json:"gitRepositoryPullInterval,omitempty"`

	// suspend halts reconciliation entirely.
	// +optional
	Suspend bool `json:"suspend,omitempty"`

	// suspendGitPulls patches the upstream GitRepository's spec.suspend to
	// true, leaving reconciliation of this resource itself active.
	// +optional
	SuspendGitPulls bool `json:"suspendGitPulls,omitempty"`

	// diffDiscovery enables read-only drift comparison against previously
	// synced secrets without writing changes.
	// +optional
	DiffDiscovery bool `json:"diffDiscovery,omitempty"`

	// triggerUpdate forces createOrUpdate even when the backend already has
	// an entry for the key.
	// +optional
	TriggerUpdate bool `json:"triggerUpdate,omitempty"`

	// notifications configures GitOps-side notification integration.
	// +optional
	Notifications *NotificationsSpec `json:"notifications,omitempty"`
}

// ============================================================
// Status types
// ============================================================

// SyncEntryStatus tracks the lifecycle of one cloud secret or config entry.
type SyncEntryStatus struct {
	// exists is true once the controller has observed a successful create
	// or update for this key; it never reverts to false.
	Exists bool `json:"exists"`

	// updateCount increments only when the backend reports the value
	// actually changed.
	UpdateCount int64 `json:"updateCount"`
}

// SecretManagerConfigStatus defines the observed state of SecretManagerConfig.
type SecretManagerConfigStatus struct {
	// phase summarizes the current state machine position.
	// +kubebuilder:validation:Enum=Started;Cloning;Pending;Updating;Ready;Retrying;PartialFailure;Failed;Suspended
	// +optional
	Phase string `json:"phase,omitempty"`

	// description carries human-readable detail for the current phase,
	// notably per-service permanent-failure text.
	// +optional
	Description string `json:"description,omitempty"`

	// observedGeneration equals metadata.generation of the spec instance
	// this status describes.
	// +optional
	ObservedGeneration int64 `json:"observedGeneration,omitempty"`

	// lastReconcileTime is when the reconcile that produced this status ran.
	// +optional
	LastReconcileTime *metav1.Time `json:"lastReconcileTime,omitempty"`

	// nextReconcileTime is the scheduled time of the next reconcile.
	// +optional
	NextReconcileTime *metav1.Time `json:"nextReconcileTime,omitempty"`

	// secretsSynced is the count of secret entries processed on the last
	// successful pass.
	// +optional
	SecretsSynced int32 `json:"secretsSynced,omitempty"`

	// sopsKeyAvailable mirrors the controller-wide SOPS key store: true when
	// a key from any watched namespace is loaded. It is not tracked per
	// namespace.
	// +optional
	SopsKeyAvailable bool `json:"sopsKeyAvailable,omitempty"`

	// syncedSecrets maps a derived cloud secret name to its sync state.
	// +optional
	SyncedSecrets map[string]SyncEntryStatus `json:"syncedSecrets,omitempty"`

	// syncedProperties maps a derived config-store key to its sync state.
	// +optional
	SyncedProperties map[string]SyncEntryStatus `json:"syncedProperties,omitempty"`

	// conditions represent the current state of the SecretManagerConfig resource.
	// +listType=map
	// +listMapKey=type
	// +optional
	Conditions []metav1.Condition `json:"conditions,omitempty"`
}

// ============================================================
// Root objects
// ============================================================

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:storageversion
// +kubebuilder:resource:scope=Cluster,shortName=smc
// +kubebuilder:printcolumn:name="Source",type="string",JSONPath=`.spec.sourceRef.kind`
// +kubebuilder:printcolumn:name="Phase",type="string",JSONPath=`.status.phase`
// +kubebuilder:printcolumn:name="Synced",type="integer",JSONPath=`.status.secretsSynced`
// +kubebuilder:printcolumn:name="Ready",type="string",JSONPath=`.status.conditions[?(@.type=="Ready")].status`
// +kubebuilder:printcolumn:name="Age",type="date",JSONPath=`.metadata.creationTimestamp`

// SecretManagerConfig is the Schema for the secretmanagerconfigs API.
type SecretManagerConfig struct {
	metav1.TypeMeta `json:",inline"`

	// +optional
	metav1.ObjectMeta `json:"metadata,omitzero"`

	// spec defines the desired state of SecretManagerConfig.
	// +required
	Spec SecretManagerConfigSpec `json:"spec"`

	// status defines the observed state of SecretManagerConfig.
	// +optional
	Status SecretManagerConfigStatus `json:"status,omitzero"`
}

// +kubebuilder:object:root=true

// SecretManagerConfigList contains a list of SecretManagerConfig.
type SecretManagerConfigList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitzero"`
	Items           []SecretManagerConfig `json:"items"`
}

func init() {
	SchemeBuilder.Register(&SecretManagerConfig{}, &SecretManagerConfigList{})
}
