package parser

import "strings"

// parseProperties parses a flat KEY=VALUE properties blob. Unlike the
// secrets file, a leading '#' begins an actual comment line, which is
// skipped, and every resulting entry is enabled.
func parseProperties(content string) map[string]string {
	props := make(map[string]string)

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		idx := strings.Index(trimmed, "=")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(trimmed[:idx])
		value := unquote(strings.TrimSpace(trimmed[idx+1:]))
		if key == "" {
			continue
		}
		props[key] = value
	}

	return props
}
