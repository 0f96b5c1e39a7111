// Package sync compares the parsed Git state of an SMC against its cloud
// backend and drives the create/update/enable/disable calls needed to
// converge them, accumulating per-key sync status and a drift count
// (component C8).
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	smcv1alpha1 "github.com/octopilot/secret-manager-controller/api/v1alpha1"
	"github.com/octopilot/secret-manager-controller/internal/backend"
	"github.com/octopilot/secret-manager-controller/internal/names"
	"github.com/octopilot/secret-manager-controller/internal/parser"
)

// configPropertiesKey is the single secret key the GCP fallback path uses
// to carry every config property as one JSON blob (spec.md §4.7, and
// DESIGN.md's resolution of the GCP config-store Open Question).
const configPropertiesKey = "properties"

// Options carries the per-resource spec fields the driver needs beyond the
// parsed {secrets, properties} set.
type Options struct {
	Prefix        string
	Suffix        string
	Environment   string
	Location      string
	DiffDiscovery bool
	TriggerUpdate bool
}

// Result is the aggregated outcome of one sync pass over a parsed result,
// handed to the status manager (C10).
type Result struct {
	Count         int
	UpdatedCount  int
	DriftDetected int
	SyncedSecrets map[string]smcv1alpha1.SyncEntryStatus
	Errors        []error
}

func newResult(prevSecrets map[string]smcv1alpha1.SyncEntryStatus) *Result {
	carried := make(map[string]smcv1alpha1.SyncEntryStatus, len(prevSecrets))
	for k, v := range prevSecrets {
		carried[k] = v
	}
	return &Result{SyncedSecrets: carried}
}

// SyncSecrets drives secrets through provider according to the rules in
// spec.md §4.7: cloud names are derived from prefix/key/suffix, disabled
// entries (Git comment-prefixed) are written then disabled rather than
// deleted, drift is only ever counted, never silently repaired, and
// per-key errors never abort the remaining pass.
func SyncSecrets(ctx context.Context, provider backend.SecretManagerProvider, parsed map[string]parser.SecretEntry, prevSecrets map[string]smcv1alpha1.SyncEntryStatus, opts Options) *Result {
	result := newResult(prevSecrets)

	for _, entry := range parsed {
		cloudName, err := names.ConstructCloudName(opts.Prefix, entry.Key, opts.Suffix)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("deriving cloud name for %s: %w", entry.Key, err))
			continue
		}
		result.Count++

		status := result.SyncedSecrets[cloudName]

		if entry.Enabled {
			syncEnabledSecret(ctx, provider, cloudName, entry.Value, opts, &status, result)
		} else {
			syncDisabledSecret(ctx, provider, cloudName, entry.Value, opts, &status, result)
		}

		result.SyncedSecrets[cloudName] = status
	}

	return result
}

func syncEnabledSecret(ctx context.Context, provider backend.SecretManagerProvider, cloudName, value string, opts Options, status *smcv1alpha1.SyncEntryStatus, result *Result) {
	if opts.DiffDiscovery && status.Exists {
		if current, err := provider.Get(ctx, cloudName); err == nil && current != nil && *current != value {
			result.DriftDetected++
		}
	}

	current, err := provider.Get(ctx, cloudName)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("getting %s: %w", cloudName, err))
		return
	}
	exists := current != nil

	if opts.TriggerUpdate || !exists {
		updated, err := provider.CreateOrUpdate(ctx, cloudName, value, opts.Environment, opts.Location)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("creating/updating %s: %w", cloudName, err))
		} else {
			status.Exists = true
			if updated {
				status.UpdateCount++
				result.UpdatedCount++
			}
		}
	}

	if _, err := provider.Enable(ctx, cloudName); err != nil && !isNotFound(err) {
		result.Errors = append(result.Errors, fmt.Errorf("enabling %s: %w", cloudName, err))
	}
}

func syncDisabledSecret(ctx context.Context, provider backend.SecretManagerProvider, cloudName, value string, opts Options, status *smcv1alpha1.SyncEntryStatus, result *Result) {
	current, err := provider.Get(ctx, cloudName)
	if err != nil && !isNotFound(err) {
		result.Errors = append(result.Errors, fmt.Errorf("getting %s: %w", cloudName, err))
		return
	}

	if current == nil || *current != value {
		updated, err := provider.CreateOrUpdate(ctx, cloudName, value, opts.Environment, opts.Location)
		if err != nil && !isNotFound(err) {
			result.Errors = append(result.Errors, fmt.Errorf("creating/updating disabled %s: %w", cloudName, err))
		} else if err == nil {
			status.Exists = true
			if updated {
				status.UpdateCount++
				result.UpdatedCount++
			}
		}
	}

	if _, err := provider.Disable(ctx, cloudName); err != nil && !isNotFound(err) {
		result.Errors = append(result.Errors, fmt.Errorf("disabling %s: %w", cloudName, err))
	}
}

// SyncProperties drives config entries through store following the same
// shape as SyncSecrets, minus the enable/disable lifecycle (config values
// have no disabled state). When store is nil (the GCP fallback case),
// properties are instead serialized as one JSON blob and pushed through
// secretProvider under configPropertiesKey.
func SyncProperties(ctx context.Context, store backend.ConfigStoreProvider, secretProvider backend.SecretManagerProvider, properties map[string]string, prevProperties map[string]smcv1alpha1.SyncEntryStatus, opts Options) *Result {
	if store == nil {
		return syncPropertiesAsSecretBlob(ctx, secretProvider, properties, prevProperties, opts)
	}

	result := newResult(prevProperties)
	for key, value := range properties {
		cloudName, err := names.ConstructCloudName(opts.Prefix, key, opts.Suffix)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("deriving cloud name for property %s: %w", key, err))
			continue
		}
		result.Count++

		status := result.SyncedSecrets[cloudName]

		current, err := store.Get(ctx, cloudName)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("getting property %s: %w", cloudName, err))
			result.SyncedSecrets[cloudName] = status
			continue
		}

		if opts.TriggerUpdate || current == nil || *current != value {
			updated, err := store.CreateOrUpdate(ctx, cloudName, value, opts.Environment, opts.Location)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("creating/updating property %s: %w", cloudName, err))
			} else {
				status.Exists = true
				if updated {
					status.UpdateCount++
					result.UpdatedCount++
				}
			}
		}

		result.SyncedSecrets[cloudName] = status
	}
	return result
}

// syncPropertiesAsSecretBlob is the GCP config-store fallback: there is no
// distinct app-configuration product, so every property is serialized as
// one JSON object and pushed under a single well-known secret key.
func syncPropertiesAsSecretBlob(ctx context.Context, secretProvider backend.SecretManagerProvider, properties map[string]string, prevProperties map[string]smcv1alpha1.SyncEntryStatus, opts Options) *Result {
	result := newResult(prevProperties)
	if len(properties) == 0 {
		return result
	}

	cloudName, err := names.ConstructCloudName(opts.Prefix, configPropertiesKey, opts.Suffix)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("deriving cloud name for properties blob: %w", err))
		return result
	}
	result.Count = len(properties)

	blob := marshalPropertiesJSON(properties)
	status := result.SyncedSecrets[cloudName]

	current, err := secretProvider.Get(ctx, cloudName)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("getting properties blob %s: %w", cloudName, err))
		result.SyncedSecrets[cloudName] = status
		return result
	}

	if opts.TriggerUpdate || current == nil || *current != blob {
		updated, err := secretProvider.CreateOrUpdate(ctx, cloudName, blob, opts.Environment, opts.Location)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("creating/updating properties blob %s: %w", cloudName, err))
		} else {
			status.Exists = true
			if updated {
				status.UpdateCount++
				result.UpdatedCount++
			}
		}
	}
	if _, err := secretProvider.Enable(ctx, cloudName); err != nil && !isNotFound(err) {
		result.Errors = append(result.Errors, fmt.Errorf("enabling properties blob %s: %w", cloudName, err))
	}

	result.SyncedSecrets[cloudName] = status
	return result
}

// marshalPropertiesJSON renders a flat string map as deterministic JSON.
// encoding/json already sorts string map keys when marshaling, so this is
// just json.Marshal with a fallback; a hand-rolled escaper previously used
// here missed control characters below 0x20, which produced invalid JSON
// for arbitrary secret values. Determinism matters: an unstable encoding
// would make every pass look like a drift/update even when no property
// actually changed.
func marshalPropertiesJSON(properties map[string]string) string {
	data, err := json.Marshal(properties)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// isNotFound reports whether err represents a "not found" condition that
// the driver should tolerate when enabling/disabling, per spec.md §4.7.
// Providers return (nil, nil) from Get for not-found, but Enable/Disable
// may still surface a backend-specific not-found error; providers that
// can reach that state wrap it so the message contains "not found".
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}
