package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

func vaultTokenRequestOptions() policy.TokenRequestOptions {
	return policy.TokenRequestOptions{Scopes: []string{"https://vault.azure.net/.default"}}
}

func appConfigTokenRequestOptions() policy.TokenRequestOptions {
	return policy.TokenRequestOptions{Scopes: []string{"https://azconfig.io/.default"}}
}

// AzureKeyVault realizes SecretManagerProvider against Azure Key Vault.
// SetSecret always creates a new version; disable/enable PATCH the
// secret's attributes directly over REST, since the data-plane SDK does
// not expose a narrower "toggle enabled" call.
type AzureKeyVault struct {
	client   *azsecrets.Client
	vaultURL string
	cred     azcore.TokenCredential
	http     *http.Client
}

// NewAzureKeyVault builds a client against https://{vaultName}.vault.azure.net,
// or endpoint (AZURE_KEY_VAULT_ENDPOINT) when set for conformance testing.
func NewAzureKeyVault(vaultName, endpoint string) (*AzureKeyVault, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("building Azure credential: %w", err)
	}

	vaultURL := endpoint
	if vaultURL == "" {
		vaultURL = fmt.Sprintf("https://%s.vault.azure.net", vaultName)
	}

	client, err := azsecrets.NewClient(vaultURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("building Key Vault client: %w", err)
	}
	return &AzureKeyVault{client: client, vaultURL: vaultURL, cred: cred, http: &http.Client{Timeout: 30 * time.Second}}, nil
}

// CreateOrUpdate implements SecretManagerProvider.
func (k *AzureKeyVault) CreateOrUpdate(ctx context.Context, name, value, environment, location string) (bool, error) {
	start := time.Now()
	var opErr error
	op := OpUpdate
	defer func() { observeOp("azure", op, start, opErr) }()

	current, err := k.Get(ctx, name)
	if err != nil {
		opErr = err
		return false, opErr
	}
	if current != nil && *current == value {
		op = OpNoChange
		return false, nil
	}
	if current == nil {
		op = OpCreate
	}

	_, err = k.client.SetSecret(ctx, name, azsecrets.SetSecretParameters{
		Value: to.Ptr(value),
		Tags: map[string]*string{
			"environment": to.Ptr(environment),
			"location":    to.Ptr(location),
		},
	}, nil)
	if err != nil {
		opErr = fmt.Errorf("setting secret %s: %w", name, err)
		return false, opErr
	}
	return true, nil
}

// Get implements SecretManagerProvider. "SecretNotFound", HTTP 404, and a
// disabled secret's value are all treated as None.
func (k *AzureKeyVault) Get(ctx context.Context, name string) (*string, error) {
	start := time.Now()
	var opErr error
	defer func() { observeOp("azure", OpGet, start, opErr) }()

	resp, err := k.client.GetSecret(ctx, name, "", nil)
	if err != nil {
		if isAzureNotFound(err) {
			return nil, nil
		}
		opErr = fmt.Errorf("getting secret %s: %w", name, err)
		return nil, opErr
	}
	if resp.Attributes != nil && resp.Attributes.Enabled != nil && !*resp.Attributes.Enabled {
		return nil, nil
	}
	return resp.Value, nil
}

// Delete implements SecretManagerProvider. Idempotent.
func (k *AzureKeyVault) Delete(ctx context.Context, name string) error {
	start := time.Now()
	var opErr error
	defer func() { observeOp("azure", OpDelete, start, opErr) }()

	_, err := k.client.DeleteSecret(ctx, name, nil)
	if err != nil && !isAzureNotFound(err) {
		opErr = fmt.Errorf("deleting secret %s: %w", name, err)
		return opErr
	}
	return nil
}

// Disable implements SecretManagerProvider via REST PATCH /secrets/{name}.
func (k *AzureKeyVault) Disable(ctx context.Context, name string) (bool, error) {
	return k.patchEnabled(ctx, name, false, OpDisable)
}

// Enable implements SecretManagerProvider via REST PATCH /secrets/{name}.
func (k *AzureKeyVault) Enable(ctx context.Context, name string) (bool, error) {
	return k.patchEnabled(ctx, name, true, OpEnable)
}

func (k *AzureKeyVault) patchEnabled(ctx context.Context, name string, enabled bool, op string) (bool, error) {
	start := time.Now()
	var opErr error
	defer func() { observeOp("azure", op, start, opErr) }()

	current, err := k.Get(ctx, name)
	if err != nil {
		opErr = err
		return false, opErr
	}
	if current == nil && !enabled {
		return false, nil
	}
	if current != nil && enabled {
		return false, nil
	}

	body, err := sjson.Set("{}", "attributes.enabled", enabled)
	if err != nil {
		opErr = fmt.Errorf("building PATCH body: %w", err)
		return false, opErr
	}

	url := fmt.Sprintf("%s/secrets/%s?api-version=7.5", strings.TrimRight(k.vaultURL, "/"), name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewBufferString(body))
	if err != nil {
		opErr = fmt.Errorf("building PATCH request: %w", err)
		return false, opErr
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := k.cred.GetToken(ctx, vaultTokenRequestOptions())
	if err != nil {
		opErr = fmt.Errorf("acquiring Key Vault token: %w", err)
		return false, opErr
	}
	req.Header.Set("Authorization", "Bearer "+token.Token)

	resp, err := k.http.Do(req)
	if err != nil {
		opErr = fmt.Errorf("PATCH %s: %w", url, err)
		return false, opErr
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		opErr = fmt.Errorf("PATCH %s: unexpected status %d: %s", url, resp.StatusCode, string(b))
		return false, opErr
	}
	return true, nil
}

func isAzureNotFound(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SecretNotFound") ||
		strings.Contains(msg, "404") ||
		strings.Contains(strings.ToLower(msg), "not found")
}

// AzureAppConfig realizes ConfigStoreProvider against Azure App
// Configuration's REST data plane. No Go SDK for this data plane ships
// alongside the Key Vault SDK in the examples' dependency set, so requests
// are hand-rolled over azcore's credential plumbing, matching the spec's
// "via REST" wording (spec.md §4.6).
type AzureAppConfig struct {
	endpoint    string
	prefix      string
	environment string
	cred        azcore.TokenCredential
	http        *http.Client
}

// NewAzureAppConfig builds a client against endpoint
// (configs.appConfigEndpoint), scoping every key as "<prefix>:<environment>:<key>".
func NewAzureAppConfig(endpoint, prefix, environment string) (*AzureAppConfig, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("building Azure credential: %w", err)
	}
	return &AzureAppConfig{
		endpoint:    strings.TrimRight(endpoint, "/"),
		prefix:      prefix,
		environment: environment,
		cred:        cred,
		http:        &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (a *AzureAppConfig) qualifiedKey(key string) string {
	return fmt.Sprintf("%s:%s:%s", a.prefix, a.environment, key)
}

func (a *AzureAppConfig) authorize(ctx context.Context, req *http.Request) error {
	token, err := a.cred.GetToken(ctx, appConfigTokenRequestOptions())
	if err != nil {
		return fmt.Errorf("acquiring App Configuration token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.Token)
	return nil
}

// CreateOrUpdate implements ConfigStoreProvider.
func (a *AzureAppConfig) CreateOrUpdate(ctx context.Context, name, value, _, _ string) (bool, error) {
	start := time.Now()
	var opErr error
	op := OpUpdate
	defer func() { observeOp("azure-appconfig", op, start, opErr) }()

	key := a.qualifiedKey(name)
	current, err := a.getRaw(ctx, key)
	if err != nil {
		opErr = err
		return false, opErr
	}
	if current != nil && *current == value {
		op = OpNoChange
		return false, nil
	}
	if current == nil {
		op = OpCreate
	}

	body, err := sjson.Set("{}", "value", value)
	if err != nil {
		opErr = fmt.Errorf("building key-value body: %w", err)
		return false, opErr
	}
	url := fmt.Sprintf("%s/kv/%s?api-version=1.0", a.endpoint, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewBufferString(body))
	if err != nil {
		opErr = fmt.Errorf("building PUT request: %w", err)
		return false, opErr
	}
	req.Header.Set("Content-Type", "application/vnd.microsoft.appconfig.kv+json")
	if err := a.authorize(ctx, req); err != nil {
		opErr = err
		return false, opErr
	}

	resp, err := a.http.Do(req)
	if err != nil {
		opErr = fmt.Errorf("PUT %s: %w", url, err)
		return false, opErr
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		opErr = fmt.Errorf("PUT %s: unexpected status %d: %s", url, resp.StatusCode, string(b))
		return false, opErr
	}
	return true, nil
}

// Get implements ConfigStoreProvider.
func (a *AzureAppConfig) Get(ctx context.Context, name string) (*string, error) {
	start := time.Now()
	var opErr error
	defer func() { observeOp("azure-appconfig", OpGet, start, opErr) }()

	v, err := a.getRaw(ctx, a.qualifiedKey(name))
	if err != nil {
		opErr = err
		return nil, err
	}
	return v, nil
}

func (a *AzureAppConfig) getRaw(ctx context.Context, key string) (*string, error) {
	url := fmt.Sprintf("%s/kv/%s?api-version=1.0", a.endpoint, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building GET request: %w", err)
	}
	if err := a.authorize(ctx, req); err != nil {
		return nil, err
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("GET %s: unexpected status %d: %s", url, resp.StatusCode, string(b))
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading GET response: %w", err)
	}
	value := gjson.GetBytes(b, "value").String()
	return &value, nil
}

// Delete implements ConfigStoreProvider. Idempotent.
func (a *AzureAppConfig) Delete(ctx context.Context, name string) error {
	start := time.Now()
	var opErr error
	defer func() { observeOp("azure-appconfig", OpDelete, start, opErr) }()

	key := a.qualifiedKey(name)
	url := fmt.Sprintf("%s/kv/%s?api-version=1.0", a.endpoint, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		opErr = fmt.Errorf("building DELETE request: %w", err)
		return opErr
	}
	if err := a.authorize(ctx, req); err != nil {
		opErr = err
		return opErr
	}

	resp, err := a.http.Do(req)
	if err != nil {
		opErr = fmt.Errorf("DELETE %s: %w", url, err)
		return opErr
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		b, _ := io.ReadAll(resp.Body)
		opErr = fmt.Errorf("DELETE %s: unexpected status %d: %s", url, resp.StatusCode, string(b))
		return opErr
	}
	return nil
}
