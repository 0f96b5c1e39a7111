package sync

import (
	"context"
	"errors"
	"testing"

	smcv1alpha1 "github.com/octopilot/secret-manager-controller/api/v1alpha1"
	"github.com/octopilot/secret-manager-controller/internal/parser"
)

// fakeSecretProvider is an in-memory backend.SecretManagerProvider double
// used to exercise the sync driver without a live cloud SDK.
type fakeSecretProvider struct {
	values   map[string]string
	disabled map[string]bool
}

func newFakeSecretProvider() *fakeSecretProvider {
	return &fakeSecretProvider{values: map[string]string{}, disabled: map[string]bool{}}
}

func (f *fakeSecretProvider) CreateOrUpdate(_ context.Context, name, value, _, _ string) (bool, error) {
	if existing, ok := f.values[name]; ok && existing == value {
		return false, nil
	}
	f.values[name] = value
	return true, nil
}

func (f *fakeSecretProvider) Get(_ context.Context, name string) (*string, error) {
	v, ok := f.values[name]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (f *fakeSecretProvider) Delete(_ context.Context, name string) error {
	delete(f.values, name)
	delete(f.disabled, name)
	return nil
}

func (f *fakeSecretProvider) Disable(_ context.Context, name string) (bool, error) {
	if _, ok := f.values[name]; !ok {
		return false, errors.New("not found")
	}
	already := f.disabled[name]
	f.disabled[name] = true
	return !already, nil
}

func (f *fakeSecretProvider) Enable(_ context.Context, name string) (bool, error) {
	if _, ok := f.values[name]; !ok {
		return false, errors.New("not found")
	}
	already := !f.disabled[name]
	f.disabled[name] = false
	return !already, nil
}

func TestSyncSecretsCreatesAndEnablesNewEntry(t *testing.T) {
	provider := newFakeSecretProvider()
	parsed := map[string]parser.SecretEntry{
		"FOO": {Key: "FOO", Value: "bar", Enabled: true},
	}

	result := SyncSecrets(context.Background(), provider, parsed, nil, Options{Prefix: "app", Environment: "dev"})

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.UpdatedCount != 1 {
		t.Errorf("expected UpdatedCount=1, got %d", result.UpdatedCount)
	}
	status := result.SyncedSecrets["app-FOO"]
	if !status.Exists || status.UpdateCount != 1 {
		t.Errorf("expected app-FOO {exists:true updateCount:1}, got %+v", status)
	}
	if provider.disabled["app-FOO"] {
		t.Error("expected app-FOO to be enabled")
	}
}

func TestSyncSecretsNoChangeDoesNotIncrementUpdateCount(t *testing.T) {
	provider := newFakeSecretProvider()
	provider.values["app-FOO"] = "bar"
	parsed := map[string]parser.SecretEntry{
		"FOO": {Key: "FOO", Value: "bar", Enabled: true},
	}
	prev := map[string]smcv1alpha1.SyncEntryStatus{"app-FOO": {Exists: true, UpdateCount: 3}}

	result := SyncSecrets(context.Background(), provider, parsed, prev, Options{Prefix: "app", Environment: "dev", TriggerUpdate: true})

	status := result.SyncedSecrets["app-FOO"]
	if status.UpdateCount != 3 {
		t.Errorf("expected UpdateCount unchanged at 3 for an identical value, got %d", status.UpdateCount)
	}
	if result.UpdatedCount != 0 {
		t.Errorf("expected aggregate UpdatedCount=0, got %d", result.UpdatedCount)
	}
}

func TestSyncSecretsDisabledEntryWritesThenDisables(t *testing.T) {
	provider := newFakeSecretProvider()
	provider.values["app-FOO"] = "old"
	parsed := map[string]parser.SecretEntry{
		"FOO": {Key: "FOO", Value: "new", Enabled: false},
	}
	prev := map[string]smcv1alpha1.SyncEntryStatus{"app-FOO": {Exists: true}}

	result := SyncSecrets(context.Background(), provider, parsed, prev, Options{Prefix: "app", Environment: "dev"})

	if provider.values["app-FOO"] != "new" {
		t.Errorf("expected disabled secret to still carry its Git value, got %q", provider.values["app-FOO"])
	}
	if !provider.disabled["app-FOO"] {
		t.Error("expected app-FOO to be disabled")
	}
	if result.SyncedSecrets["app-FOO"].UpdateCount != 1 {
		t.Errorf("expected UpdateCount=1, got %d", result.SyncedSecrets["app-FOO"].UpdateCount)
	}
}

func TestSyncSecretsDiffDiscoveryCountsDriftWithoutWriting(t *testing.T) {
	provider := newFakeSecretProvider()
	provider.values["app-FOO"] = "manually-edited"
	parsed := map[string]parser.SecretEntry{
		"FOO": {Key: "FOO", Value: "git-value", Enabled: true},
	}
	prev := map[string]smcv1alpha1.SyncEntryStatus{"app-FOO": {Exists: true, UpdateCount: 1}}

	result := SyncSecrets(context.Background(), provider, parsed, prev, Options{Prefix: "app", Environment: "dev", DiffDiscovery: true})

	if result.DriftDetected != 1 {
		t.Errorf("expected DriftDetected=1, got %d", result.DriftDetected)
	}
	if provider.values["app-FOO"] != "manually-edited" {
		t.Errorf("expected the drifted backend value to be left as is, got %q", provider.values["app-FOO"])
	}
}

func TestSyncPropertiesGCPFallbackSerializesBlob(t *testing.T) {
	provider := newFakeSecretProvider()
	properties := map[string]string{"b": "2", "a": "1"}

	result := SyncProperties(context.Background(), nil, provider, properties, nil, Options{Prefix: "app", Environment: "dev"})

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	blob, err := provider.Get(context.Background(), "app-properties")
	if err != nil || blob == nil {
		t.Fatalf("expected a properties blob at app-properties, err=%v", err)
	}
	if *blob != `{"a":"1","b":"2"}` {
		t.Errorf("expected deterministic sorted JSON, got %q", *blob)
	}
}
