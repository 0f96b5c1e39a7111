package names

import (
	"errors"
	"strings"
)

// ErrEmptyName is returned by ConstructCloudName when the sanitized result
// has no characters left (spec.md §3: "An empty result is illegal").
var ErrEmptyName = errors.New("derived cloud name is empty")

// ConstructCloudName joins prefix, key, and suffix with "-" (omitting empty
// parts), strips leading dashes from suffix before joining, and applies
// Sanitize to the result (spec.md §3 "Cloud secret name (derived)").
func ConstructCloudName(prefix, key, suffix string) (string, error) {
	suffix = strings.TrimLeft(suffix, "-")

	parts := make([]string, 0, 3)
	if prefix != "" {
		parts = append(parts, prefix)
	}
	parts = append(parts, key)
	if suffix != "" {
		parts = append(parts, suffix)
	}

	name := Sanitize(strings.Join(parts, "-"))
	if name == "" {
		return "", ErrEmptyName
	}
	return name, nil
}
