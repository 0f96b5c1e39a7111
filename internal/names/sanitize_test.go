package names

import (
	"strings"
	"testing"
)

func TestSanitizeIdempotent(t *testing.T) {
	cases := []string{"my.app/prod", "--leading", "trailing--", "a///b", "main@sha1:abc", ""}
	for _, c := range cases {
		once := Sanitize(c)
		twice := Sanitize(once)
		if once != twice {
			t.Errorf("Sanitize(%q) = %q, Sanitize(that) = %q, want idempotent", c, once, twice)
		}
		if strings.HasPrefix(once, "-") || strings.HasSuffix(once, "-") {
			t.Errorf("Sanitize(%q) = %q, want no leading/trailing '-'", c, once)
		}
		if strings.Contains(once, "--") {
			t.Errorf("Sanitize(%q) = %q, want no consecutive '-'", c, once)
		}
	}
}

func TestConstructCloudName(t *testing.T) {
	cases := []struct {
		prefix, key, suffix, want string
	}{
		{"app", "FOO", "", "app-FOO"},
		{"", "FOO", "", "FOO"},
		{"app", "FOO", "--staging", "app-FOO-staging"},
		{"my app", "FOO/BAR", "", "my_app-FOO_BAR"},
	}
	for _, c := range cases {
		got, err := ConstructCloudName(c.prefix, c.key, c.suffix)
		if err != nil {
			t.Fatalf("ConstructCloudName(%q,%q,%q) returned error: %v", c.prefix, c.key, c.suffix, err)
		}
		if got != c.want {
			t.Errorf("ConstructCloudName(%q,%q,%q) = %q, want %q", c.prefix, c.key, c.suffix, got, c.want)
		}
	}
}

func TestConstructCloudNameEmpty(t *testing.T) {
	if _, err := ConstructCloudName("---", "", ""); err == nil {
		t.Error("expected ErrEmptyName for an all-dash input, got nil")
	}
}
