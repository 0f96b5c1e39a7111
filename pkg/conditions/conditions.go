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

package conditions

// Condition types for SecretManagerConfig status.conditions[].type
const (
	// TypeReady indicates overall readiness of the last reconcile.
	TypeReady = "Ready"

	// TypeSourceResolved indicates whether the GitOps source (GitRepository or
	// Application) has been resolved to a usable artifact.
	TypeSourceResolved = "SourceResolved"

	// TypeBackendReachable indicates whether a client for the configured
	// cloud backend was constructed on the last reconcile.
	TypeBackendReachable = "BackendReachable"

	// TypeSopsKeyAvailable indicates whether the controller-wide SOPS key
	// store currently holds a private key (not tracked per namespace).
	TypeSopsKeyAvailable = "SopsKeyAvailable"
)

// Condition reasons for SecretManagerConfig status.conditions[].reason
const (
	ReasonReconciling     = "Reconciling"
	ReasonSourceResolved  = "SourceResolved"
	ReasonSourceMissing   = "SourceMissing"
	ReasonSourceNotReady  = "SourceNotReady"
	ReasonSyncSucceeded   = "SyncSucceeded"
	ReasonSyncFailed      = "SyncFailed"
	ReasonPartialFailure  = "PartialFailure"
	ReasonRetrying        = "Retrying"
	ReasonSuspended       = "Suspended"
	ReasonSpecInvalid     = "SpecInvalid"
	ReasonKeyLoaded       = "KeyLoaded"
	ReasonKeyUnavailable  = "KeyUnavailable"
)
