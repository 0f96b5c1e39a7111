// Package parser discovers and parses the raw secrets/properties file tree
// under a resolved artifact (component C4), and extracts the equivalent
// payload from a `kustomize build` stream (component C5).
package parser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/octopilot/secret-manager-controller/internal/sops"
)

// SecretEntry is a single parsed secret: its cloud-bound key, the
// (decrypted) value, and whether the entry is enabled in Git.
type SecretEntry struct {
	Key     string
	Value   string
	Enabled bool
}

// Result is the uniform output of both the file-set parser and the
// kustomize integration: a set of secret entries, a flat property map, and
// any per-service decrypt failures that did not abort the parse.
type Result struct {
	Secrets    map[string]SecretEntry
	Properties map[string]string
	Errors     []error
}

func newResult() Result {
	return Result{Secrets: make(map[string]SecretEntry), Properties: make(map[string]string)}
}

// discoveredFile pairs a secrets file with its sibling properties file
// (which may not exist).
type discoveredFile struct {
	secretsPath    string
	propertiesPath string
}

// discoverFileSet walks artifactDir/basePath looking for every directory
// named <environment>, at any depth (<service>/<any>/<environment>/ or a
// bare <environment>/), containing an application.secrets.{env,yaml} file,
// plus its sibling application.properties. It takes no default service
// name and does not record which service a file belongs to.
func discoverFileSet(artifactDir, basePath, environment string) ([]discoveredFile, error) {
	root := artifactDir
	if basePath != "" {
		root = filepath.Join(artifactDir, basePath)
	}

	patterns := []string{
		filepath.ToSlash(filepath.Join("**", environment, "application.secrets.env")),
		filepath.ToSlash(filepath.Join("**", environment, "application.secrets.yaml")),
	}

	seen := make(map[string]bool)
	var found []discoveredFile

	for _, pattern := range patterns {
		matches, err := doublestar.Glob(os.DirFS(root), pattern)
		if err != nil {
			return nil, fmt.Errorf("globbing %s under %s: %w", pattern, root, err)
		}
		for _, m := range matches {
			abs := filepath.Join(root, m)
			if seen[abs] {
				continue
			}
			seen[abs] = true

			propsPath := filepath.Join(filepath.Dir(abs), "application.properties")
			if _, err := os.Stat(propsPath); err != nil {
				propsPath = ""
			}
			found = append(found, discoveredFile{secretsPath: abs, propertiesPath: propsPath})
		}
	}

	return found, nil
}

// ParseFileSet discovers and parses every service's secrets/properties
// pair under artifactDir, decrypting SOPS-encrypted content with
// sopsPrivateKey (may be empty, meaning only the system keyring is
// consulted). Later-discovered entries overwrite earlier ones with the
// same key, matching a deterministic last-writer-wins merge.
//
// A transient decrypt failure (the sops/gpg binary missing or temporarily
// unreachable) aborts the whole parse immediately, since it indicates a
// systemic problem rather than one bad file. A permanent decrypt failure
// (wrong key, corrupted ciphertext, unsupported format) is scoped to the
// file it came from: it is recorded in Result.Errors and the remaining
// services are still parsed and published, matching the per-service
// PartialFailure policy.
func ParseFileSet(ctx context.Context, artifactDir, basePath, environment, sopsPrivateKey string) (Result, error) {
	files, err := discoverFileSet(artifactDir, basePath, environment)
	if err != nil {
		return Result{}, err
	}

	result := newResult()
	for _, f := range files {
		secretsContent, err := readMaybeDecrypt(ctx, f.secretsPath, sopsPrivateKey)
		if err != nil {
			if isTransientDecrypt(err) {
				return Result{}, err
			}
			result.Errors = append(result.Errors, fmt.Errorf("reading %s: %w", f.secretsPath, err))
			continue
		}

		var entries map[string]SecretEntry
		if strings.HasSuffix(f.secretsPath, ".env") {
			entries = parseEnv(secretsContent)
		} else {
			entries = parseYAMLFlat(secretsContent)
		}
		for k, v := range entries {
			result.Secrets[k] = v
		}

		if f.propertiesPath == "" {
			continue
		}
		propsContent, err := readMaybeDecrypt(ctx, f.propertiesPath, sopsPrivateKey)
		if err != nil {
			if isTransientDecrypt(err) {
				return Result{}, err
			}
			result.Errors = append(result.Errors, fmt.Errorf("reading %s: %w", f.propertiesPath, err))
			continue
		}
		for k, v := range parseProperties(propsContent) {
			result.Properties[k] = v
		}
	}

	return result, nil
}

// isTransientDecrypt reports whether err is a *sops.DecryptError classified
// as transient (spec.md §4.3, §7 DecryptTransient).
func isTransientDecrypt(err error) bool {
	var decErr *sops.DecryptError
	return errors.As(err, &decErr) && decErr.Transient()
}

func readMaybeDecrypt(ctx context.Context, path, sopsPrivateKey string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	content := string(raw)
	if !sops.IsEncrypted(content) {
		return content, nil
	}
	decrypted, err := sops.Decrypt(ctx, content, path, sopsPrivateKey)
	if err != nil {
		return "", fmt.Errorf("decrypting %s: %w", path, err)
	}
	return decrypted, nil
}
