package parser

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// parseYAMLFlat parses a flat top-level YAML mapping of strings into secret
// entries. The mapping is decoded into a plain map, so the document's key
// order is not preserved; entries are treated as a set.
func parseYAMLFlat(content string) map[string]SecretEntry {
	var doc map[string]any
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return map[string]SecretEntry{}
	}

	entries := make(map[string]SecretEntry, len(doc))
	for k, v := range doc {
		entries[k] = SecretEntry{Key: k, Value: fmt.Sprintf("%v", v), Enabled: true}
	}
	return entries
}
