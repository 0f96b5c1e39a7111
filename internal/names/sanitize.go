// Package names derives filesystem-safe cache path components and
// cloud-backend-safe secret/config names from user-supplied identifiers
// (spec.md §3 "Sanitization").
package names

import "regexp"

var (
	invalidChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)
	dashRuns     = regexp.MustCompile(`-{2,}`)
)

// Sanitize maps arbitrary identifier text to [A-Za-z0-9._-]+: any character
// outside that set is replaced with "_", runs of "-" are collapsed to one,
// and leading/trailing "-" are trimmed. It is idempotent:
// Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(s string) string {
	s = invalidChars.ReplaceAllString(s, "_")
	s = dashRuns.ReplaceAllString(s, "-")
	s = trimDashes(s)
	return s
}

func trimDashes(s string) string {
	start := 0
	for start < len(s) && s[start] == '-' {
		start++
	}
	end := len(s)
	for end > start && s[end-1] == '-' {
		end--
	}
	return s[start:end]
}
