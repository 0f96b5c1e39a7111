package artifact

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	sourcev1 "github.com/fluxcd/source-controller/api/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// ErrArtifactNotReady indicates the GitRepository has no artifact yet
// (condition not Ready, or status.artifact unset). The caller maps the
// NotFound and Reconciling cases to the Pending phase; any other reason
// fails the reconcile.
type ErrArtifactNotReady struct {
	Reason string

	// NotFound is true when the GitRepository itself doesn't exist
	// (spec.md §4.1 step 4: "on 404, set phase=Pending").
	NotFound bool

	// Reconciling is true when the Ready condition is not True but the
	// GitRepository's own Reconciling condition is — still in progress,
	// not a failure (spec.md §4.1 step 4: "if Reconciling=True, return
	// awaitChange").
	Reconciling bool
}

func (e *ErrArtifactNotReady) Error() string {
	return fmt.Sprintf("FluxCD source artifact not ready: %s", e.Reason)
}

// httpClient is overridable by tests.
var httpClient = &http.Client{Timeout: 60 * time.Second}

// ResolveFlux fetches the named GitRepository, downloads its reported
// artifact tar.gz into the content-addressed cache (if not already
// present), verifies its digest and format, extracts it, and returns the
// local path (component C6).
func ResolveFlux(ctx context.Context, c client.Client, namespace, name string) (Resolved, error) {
	repo := &sourcev1.GitRepository{}
	if err := c.Get(ctx, client.ObjectKey{Namespace: namespace, Name: name}, repo); err != nil {
		if apierrors.IsNotFound(err) {
			return Resolved{}, &ErrArtifactNotReady{Reason: "GitRepository not found", NotFound: true}
		}
		return Resolved{}, fmt.Errorf("getting GitRepository %s/%s: %w", namespace, name, err)
	}

	if ready, reason := readyCondition(repo.Status.Conditions); !ready {
		if isReconciling(repo.Status.Conditions) {
			return Resolved{}, &ErrArtifactNotReady{Reason: "GitRepository is reconciling", Reconciling: true}
		}
		return Resolved{}, &ErrArtifactNotReady{Reason: reason}
	}
	if repo.Status.Artifact == nil {
		return Resolved{}, &ErrArtifactNotReady{Reason: "GitRepository has no artifact in status"}
	}

	artifact := repo.Status.Artifact
	artifactURL := normalizeArtifactURL(artifact.URL)
	revision := artifact.Revision
	if revision == "" {
		revision = "unknown"
	}

	revisionDir := revisionDirName(revision)
	cachePath := filepath.Join(BasePath, "flux-artifact", sanitizePathComponent(namespace), sanitizePathComponent(name), revisionDir)

	if isNonEmptyDir(cachePath) {
		return Resolved{Path: cachePath, Revision: revision}, nil
	}

	if err := os.MkdirAll(cachePath, 0o755); err != nil {
		return Resolved{}, fmt.Errorf("creating cache dir %s: %w", cachePath, err)
	}

	tarPath := filepath.Join(cachePath, "artifact.tar.gz")
	if err := downloadArtifact(ctx, artifactURL, tarPath); err != nil {
		return Resolved{}, fmt.Errorf("downloading flux artifact: %w", err)
	}

	if artifact.Digest != "" {
		if err := verifyDigest(tarPath, artifact.Digest); err != nil {
			return Resolved{}, err
		}
	}
	if err := verifyTarGzMagic(tarPath); err != nil {
		return Resolved{}, err
	}
	if err := extractTarGz(tarPath, cachePath); err != nil {
		return Resolved{}, fmt.Errorf("extracting flux artifact: %w", err)
	}
	_ = os.Remove(tarPath)

	if err := gcOldRevisions(filepath.Dir(cachePath)); err != nil {
		// GC failures never fail reconciliation; the caller may log this.
		_ = err
	}

	return Resolved{Path: cachePath, Revision: revision}, nil
}

// readyCondition reports whether Ready==True, plus its Reason/Message for
// the failure path (used to surface the upstream failure text verbatim
// rather than a generic "not ready").
func readyCondition(conds []metav1.Condition) (bool, string) {
	for _, c := range conds {
		if c.Type == "Ready" {
			if c.Status == metav1.ConditionTrue {
				return true, ""
			}
			if c.Message != "" {
				return false, c.Message
			}
			return false, c.Reason
		}
	}
	return false, "GitRepository has no Ready condition yet"
}

func isReconciling(conds []metav1.Condition) bool {
	for _, c := range conds {
		if c.Type == "Reconciling" {
			return c.Status == metav1.ConditionTrue
		}
	}
	return false
}

// normalizeArtifactURL strips the trailing-dot FQDN form ("cluster.local./path")
// that some in-cluster DNS setups emit before the path separator, which would
// otherwise break the HTTP request.
func normalizeArtifactURL(raw string) string {
	u := strings.ReplaceAll(raw, "./", "/")
	return strings.TrimRight(u, ".")
}

// revisionDirName derives a cache subdirectory name from a FluxCD revision
// string of the form "main@sha1:<sha>", keeping both the branch and a short
// SHA so that identical commits on different branches don't collide.
func revisionDirName(revision string) string {
	atIdx := strings.Index(revision, "@")
	if atIdx < 0 {
		return sanitizePathComponent(revision) + "-sha-unknown"
	}
	branch := sanitizePathComponent(revision[:atIdx])
	rest := revision[atIdx+1:]

	var sha string
	switch {
	case strings.Contains(rest, "sha256:"):
		sha = rest[strings.Index(rest, "sha256:")+len("sha256:"):]
	case strings.Contains(rest, "sha1:"):
		sha = rest[strings.Index(rest, "sha1:")+len("sha1:"):]
	default:
		sha = rest
	}
	if len(sha) > 7 {
		sha = sha[:7]
	}
	if sha == "" {
		sha = "unknown"
	}
	return fmt.Sprintf("%s-sha-%s", branch, sha)
}

func downloadArtifact(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", destPath, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("writing %s: %w", destPath, err)
	}
	return nil
}

// verifyDigest checks a tarball against a FluxCD digest string of the form
// "algo:hexsum". Only sha256 is supported; other algorithms are skipped.
func verifyDigest(path, digest string) error {
	parts := strings.SplitN(digest, ":", 2)
	if len(parts) != 2 || parts[0] != "sha256" {
		return nil
	}
	want := parts[1]

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s for digest check: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("hashing %s: %w", path, err)
	}
	got := hex.EncodeToString(h.Sum(nil))
	if got != want {
		return fmt.Errorf("artifact digest mismatch: want %s, got %s", want, got)
	}
	return nil
}

func verifyTarGzMagic(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	magic := make([]byte, 2)
	if _, err := io.ReadFull(f, magic); err != nil {
		return fmt.Errorf("reading magic bytes of %s: %w", path, err)
	}
	if magic[0] != 0x1f || magic[1] != 0x8b {
		return fmt.Errorf("%s is not a gzip archive", path)
	}
	return nil
}

func extractTarGz(srcTar, destDir string) error {
	f, err := os.Open(srcTar)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("opening gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar entry: %w", err)
		}

		target := filepath.Join(destDir, filepath.Clean("/"+hdr.Name))
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("tar entry %q escapes destination directory", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(hdr.Mode)|0o700); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode)|0o600)
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			out.Close()
		default:
			// Symlinks and other special types are not expected in source
			// artifacts; skip rather than fail the whole extraction.
		}
	}
}
