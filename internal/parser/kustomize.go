package parser

import (
	"context"
	"encoding/base64"
	"fmt"
	"os/exec"
	"strings"

	"sigs.k8s.io/yaml"
)

// kustomizeSecret and kustomizeConfigMap mirror only the fields of the
// corresponding Kubernetes kinds that this integration consumes.
type kustomizeSecret struct {
	Kind string            `json:"kind"`
	Data map[string]string `json:"data"`
}

type kustomizeConfigMap struct {
	Kind string            `json:"kind"`
	Data map[string]string `json:"data"`
}

// BuildKustomize runs `kustomize build <artifactDir>/<kustomizePath>` with
// cwd=artifactDir, splits the resulting YAML stream on `---` document
// separators, and extracts Secret.data (base64-decoded) and
// ConfigMap.data entries. Non-Secret, non-ConfigMap documents are ignored;
// stringData is intentionally not consulted. Later documents overwrite
// earlier ones with the same key.
func BuildKustomize(ctx context.Context, artifactDir, kustomizePath string) (Result, error) {
	cmd := exec.CommandContext(ctx, "kustomize", "build", kustomizePath)
	cmd.Dir = artifactDir

	out, err := cmd.Output()
	if err != nil {
		return Result{}, fmt.Errorf("kustomize build %s: %w", kustomizePath, err)
	}

	result := newResult()
	for _, doc := range splitYAMLDocuments(string(out)) {
		doc = strings.TrimSpace(doc)
		if doc == "" {
			continue
		}

		var secret kustomizeSecret
		if err := yaml.Unmarshal([]byte(doc), &secret); err == nil && secret.Kind == "Secret" {
			for k, v := range secret.Data {
				decoded, err := base64.StdEncoding.DecodeString(v)
				if err != nil {
					continue
				}
				result.Secrets[k] = SecretEntry{Key: k, Value: string(decoded), Enabled: true}
			}
			continue
		}

		var cm kustomizeConfigMap
		if err := yaml.Unmarshal([]byte(doc), &cm); err == nil && cm.Kind == "ConfigMap" {
			for k, v := range cm.Data {
				result.Properties[k] = v
			}
		}
	}

	return result, nil
}

// splitYAMLDocuments splits a multi-document YAML stream on `---`
// separator lines, trimming surrounding whitespace around each separator.
func splitYAMLDocuments(stream string) []string {
	lines := strings.Split(stream, "\n")
	var docs []string
	var current strings.Builder

	for _, line := range lines {
		if strings.TrimSpace(line) == "---" {
			docs = append(docs, current.String())
			current.Reset()
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	docs = append(docs, current.String())
	return docs
}
