// Package artifact resolves a GitOps source (FluxCD GitRepository or ArgoCD
// Application) into a local working tree, keyed and garbage-collected as a
// content-addressed cache on disk (components C6/C7).
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/octopilot/secret-manager-controller/internal/names"
)

// Resolved is the result handed to the parser stage: a local path containing
// the synced tree at a known revision.
type Resolved struct {
	Path     string
	Revision string
}

// BasePath is the process-wide cache root. It mirrors the source's
// operator-mountable scratch volume convention.
const BasePath = "/tmp/smc"

// keepNewest is how many revision siblings survive garbage collection.
const keepNewest = 3

// sanitizePathComponent maps a namespace/name/revision value to the same
// [A-Za-z0-9._-]+ alphabet used for cloud secret names, so it can never
// escape its cache subtree or collide across collapsed variants.
func sanitizePathComponent(s string) string {
	return names.Sanitize(s)
}

// gcOldRevisions keeps the keepNewest most recently modified entries under
// dir and removes the rest. Failures to remove an individual sibling are
// collected but do not stop the sweep; both callers discard the returned
// error, so GC errors never fail reconciliation.
func gcOldRevisions(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading cache dir %s: %w", dir, err)
	}
	if len(entries) <= keepNewest {
		return nil
	}

	type sibling struct {
		path  string
		mtime int64
	}
	siblings := make([]sibling, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		siblings = append(siblings, sibling{path: filepath.Join(dir, e.Name()), mtime: info.ModTime().UnixNano()})
	}
	sort.Slice(siblings, func(i, j int) bool { return siblings[i].mtime > siblings[j].mtime })

	var firstErr error
	for _, s := range siblings[keepNewest:] {
		if err := os.RemoveAll(s.path); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("removing stale cache entry %s: %w", s.path, err)
		}
	}
	return firstErr
}

// isNonEmptyDir reports whether path exists, is a directory, and contains at
// least one entry.
func isNonEmptyDir(path string) bool {
	entries, err := os.ReadDir(path)
	if err != nil {
		return false
	}
	return len(entries) > 0
}
