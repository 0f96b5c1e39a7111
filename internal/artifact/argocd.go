package artifact

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"sync"

	argocdv1alpha1 "github.com/argoproj/argo-cd/v2/pkg/apis/application/v1alpha1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/octopilot/secret-manager-controller/internal/gitops"
)

// resourceLocks serializes concurrent git operations against the same
// SecretManagerConfig's working tree; cache directories are shared with the
// metadata/status reconcile path and must never be mutated concurrently.
var resourceLocks sync.Map // map[string]*sync.Mutex

func lockFor(namespace, name string) *sync.Mutex {
	key := namespace + "/" + name
	m, _ := resourceLocks.LoadOrStore(key, &sync.Mutex{})
	return m.(*sync.Mutex)
}

// ResolveArgoCD fetches the named Application, clones or updates its source
// repository at the reported target revision into the content-addressed
// cache, and returns the local path (component C7).
func ResolveArgoCD(ctx context.Context, c client.Client, namespace, name string, gitCredentialsRef *client.ObjectKey) (Resolved, error) {
	app := &argocdv1alpha1.Application{}
	if err := c.Get(ctx, client.ObjectKey{Namespace: namespace, Name: name}, app); err != nil {
		return Resolved{}, fmt.Errorf("getting Application %s/%s: %w", namespace, name, err)
	}

	source := app.Spec.Source
	if source == nil {
		return Resolved{}, fmt.Errorf("Application %s/%s has no spec.source", namespace, name)
	}
	repoURL := source.RepoURL
	if repoURL == "" {
		return Resolved{}, fmt.Errorf("Application %s/%s source has no repoURL", namespace, name)
	}
	targetRevision := source.TargetRevision
	if targetRevision == "" {
		targetRevision = "HEAD"
	}

	var creds *gitops.Credentials
	if gitCredentialsRef != nil {
		var err error
		creds, err = gitops.ResolveCredentials(ctx, c, gitCredentialsRef.Namespace, gitCredentialsRef.Name)
		if err != nil {
			return Resolved{}, fmt.Errorf("loading git credentials for %s/%s: %w", namespace, name, err)
		}
	}

	sum := md5.Sum([]byte(fmt.Sprintf("%s-%s-%s", namespace, name, targetRevision)))
	repoHash := hex.EncodeToString(sum[:])

	clonePath := filepath.Join(BasePath, "argocd-repo", sanitizePathComponent(namespace), sanitizePathComponent(name), repoHash)

	mu := lockFor(namespace, name)
	mu.Lock()
	defer mu.Unlock()

	result, err := gitops.Checkout(ctx, repoURL, targetRevision, clonePath, creds)
	if err != nil {
		return Resolved{}, fmt.Errorf("checking out ArgoCD source: %w", err)
	}

	if err := gcOldRevisions(filepath.Dir(clonePath)); err != nil {
		// Best-effort; GC failures never fail reconciliation.
		_ = err
	}

	return Resolved{Path: clonePath, Revision: result.Commit}, nil
}
