// Package sops drives SOPS-encrypted content detection and decryption via
// the external sops binary, and watches the operator's GPG key material for
// hot reload (components C3/C11).
package sops

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// IsEncrypted reports whether content carries SOPS envelope metadata,
// checking the shapes SOPS itself produces across YAML, JSON, and dotenv
// output.
func IsEncrypted(content string) bool {
	if hasYAMLSopsKey(content) {
		return true
	}
	if hasJSONSopsKey(content) {
		return true
	}
	if strings.Contains(content, "sops_version") || strings.Contains(content, "sops_encrypted") {
		return true
	}
	if strings.Contains(content, "ENC[") && strings.Contains(content, "AES256_GCM") {
		return true
	}
	return false
}

func hasYAMLSopsKey(content string) bool {
	var doc map[string]any
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return false
	}
	_, ok := doc["sops"]
	return ok
}

func hasJSONSopsKey(content string) bool {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "{") {
		return false
	}
	var doc map[string]any
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return false
	}
	_, ok := doc["sops"]
	return ok
}

// detectFileType infers the sops --input-type/--output-type value from a
// file path extension, falling back to content sniffing when the path is
// absent or its extension is unrecognized.
func detectFileType(path, content string) string {
	if path != "" {
		switch {
		case strings.HasSuffix(path, ".env"):
			return "dotenv"
		case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
			return "yaml"
		case strings.HasSuffix(path, ".json"):
			return "json"
		}
	}
	return sniffContentType(content)
}

func sniffContentType(content string) string {
	trimmed := strings.TrimSpace(content)
	switch {
	case strings.HasPrefix(trimmed, "{"):
		return "json"
	case strings.Contains(trimmed, "=") && !strings.HasPrefix(trimmed, "sops:"):
		return "dotenv"
	default:
		return "yaml"
	}
}
