package backend

import (
	"context"
	"fmt"
	"os"

	smcv1alpha1 "github.com/octopilot/secret-manager-controller/api/v1alpha1"
)

// Backends bundles the secret-store and (optional) config-store providers
// selected by an SMC's spec.provider, ready to be driven by the sync
// driver (C8).
type Backends struct {
	Secrets SecretManagerProvider
	Configs ConfigStoreProvider // nil when the GCP fallback (secret-blob) path applies
}

// Build constructs the provider pair for spec.provider, consulting
// spec.configs only when enabled. Exactly one of GCP/AWS/Azure is expected
// to be set; C13 validates this before Build is ever called.
func Build(ctx context.Context, provider smcv1alpha1.ProviderSpec, configs smcv1alpha1.ConfigsSpec, environment string) (Backends, error) {
	switch {
	case provider.GCP != nil:
		secrets, err := NewGCPSecretManager(ctx, provider.GCP.ProjectID, os.Getenv("GCP_SECRET_MANAGER_ENDPOINT"))
		if err != nil {
			return Backends{}, fmt.Errorf("building GCP backend: %w", err)
		}
		// GCP has no distinct app-configuration product; internal/sync
		// falls back to serializing properties through Secrets itself
		// when Configs is nil (spec.md §4.7).
		return Backends{Secrets: secrets}, nil

	case provider.AWS != nil:
		secrets, err := NewAWSSecretsManager(ctx, provider.AWS.Region)
		if err != nil {
			return Backends{}, fmt.Errorf("building AWS secrets backend: %w", err)
		}
		result := Backends{Secrets: secrets}
		if configs.Enabled {
			store, err := NewAWSParameterStore(ctx, provider.AWS.Region, configs.ParameterPath)
			if err != nil {
				return Backends{}, fmt.Errorf("building AWS parameter store backend: %w", err)
			}
			result.Configs = store
		}
		return result, nil

	case provider.Azure != nil:
		secrets, err := NewAzureKeyVault(provider.Azure.VaultName, os.Getenv("AZURE_KEY_VAULT_ENDPOINT"))
		if err != nil {
			return Backends{}, fmt.Errorf("building Azure key vault backend: %w", err)
		}
		result := Backends{Secrets: secrets}
		if configs.Enabled {
			store, err := NewAzureAppConfig(configs.AppConfigEndpoint, appConfigPrefix(provider.Azure.VaultName), environment)
			if err != nil {
				return Backends{}, fmt.Errorf("building Azure app configuration backend: %w", err)
			}
			result.Configs = store
		}
		return result, nil

	default:
		return Backends{}, fmt.Errorf("no provider configured")
	}
}

// appConfigPrefix keys Azure App Configuration entries under the vault
// name, so multiple SMCs sharing one App Configuration store never
// collide on bare key names.
func appConfigPrefix(vaultName string) string {
	return vaultName
}
