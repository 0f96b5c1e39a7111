package gitops

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// githubTokenPrefixes are the well-known prefixes that classify a bare token
// value as a GitHub token rather than a generic password.
var githubTokenPrefixes = []string{"ghp_", "github_pat_", "gho_"}

// Credentials is the resolved shape of exactly one of the three credential
// kinds a gitCredentialsRef secret may carry.
type Credentials struct {
	kind kind

	// SSH
	privateKey []byte

	// HTTPS (basic auth or synthesized token auth)
	username string
	password string
}

type kind int

const (
	kindNone kind = iota
	kindSSH
	kindHTTPS
)

// ResolveCredentials reads the referenced Secret and classifies its content
// into one of: identity (SSH private key), token/githubToken (GitHub token,
// synthesized as HTTPS basic auth with the token as both username and
// password), or username+password|token (HTTPS basic auth).
func ResolveCredentials(ctx context.Context, c client.Client, namespace string, secretName string) (*Credentials, error) {
	if secretName == "" {
		return &Credentials{kind: kindNone}, nil
	}

	secret := &corev1.Secret{}
	key := types.NamespacedName{Name: secretName, Namespace: namespace}
	if err := c.Get(ctx, key, secret); err != nil {
		return nil, fmt.Errorf("getting git credentials secret %s/%s: %w", namespace, secretName, err)
	}

	if identity, ok := secret.Data["identity"]; ok && len(identity) > 0 {
		return &Credentials{kind: kindSSH, privateKey: identity}, nil
	}

	if token, ok := firstNonEmpty(secret.Data, "githubToken", "token"); ok {
		if hasGitHubTokenPrefix(token) || secret.Data["githubToken"] != nil {
			return &Credentials{kind: kindHTTPS, username: token, password: token}, nil
		}
		// A "token" field without a recognizable GitHub prefix pairs with
		// "username" as basic auth when one is present (handled below); a
		// bare one is still treated as a token credential.
		if _, hasUser := secret.Data["username"]; !hasUser {
			return &Credentials{kind: kindHTTPS, username: token, password: token}, nil
		}
	}

	username, hasUser := secret.Data["username"]
	if hasUser {
		password, ok := firstNonEmpty(secret.Data, "password", "token")
		if !ok {
			return nil, fmt.Errorf("secret %s/%s has username but neither password nor token", namespace, secretName)
		}
		return &Credentials{kind: kindHTTPS, username: string(username), password: password}, nil
	}

	return nil, fmt.Errorf("secret %s/%s does not match any recognized git credential shape", namespace, secretName)
}

func firstNonEmpty(data map[string][]byte, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := data[k]; ok && len(v) > 0 {
			return string(v), true
		}
	}
	return "", false
}

func hasGitHubTokenPrefix(token string) bool {
	for _, p := range githubTokenPrefixes {
		if strings.HasPrefix(token, p) {
			return true
		}
	}
	return false
}

// injectURL rewrites repoURL to carry HTTPS basic-auth credentials when the
// credentials are HTTPS-flavored; SSH credentials leave the URL untouched
// (auth is carried entirely by GIT_SSH_COMMAND).
func (c *Credentials) injectURL(repoURL string) string {
	if c == nil || c.kind != kindHTTPS {
		return repoURL
	}
	if after, ok := strings.CutPrefix(repoURL, "https://"); ok {
		return "https://" + c.username + ":" + c.password + "@" + after
	}
	if after, ok := strings.CutPrefix(repoURL, "http://"); ok {
		return "http://" + c.username + ":" + c.password + "@" + after
	}
	return repoURL
}

// buildEnv prepares the environment for git subprocess invocations. For SSH
// credentials it validates the key, writes it to <parentOfCache>/.ssh/id_rsa
// with 0600 permissions, and exports GIT_SSH_COMMAND; for HTTPS credentials
// (already injected into the URL) it returns a minimal non-interactive
// environment. The returned cleanup func removes any temporary key file.
func (c *Credentials) buildEnv(cachePath string) ([]string, func(), error) {
	base := []string{"GIT_TERMINAL_PROMPT=0"}
	noop := func() {}

	if c == nil || c.kind != kindSSH {
		return base, noop, nil
	}

	if _, err := ssh.ParsePrivateKey(c.privateKey); err != nil {
		return nil, noop, fmt.Errorf("parsing SSH private key: %w", err)
	}

	sshDir := filepath.Join(filepath.Dir(cachePath), ".ssh")
	if err := os.MkdirAll(sshDir, 0o700); err != nil {
		return nil, noop, fmt.Errorf("creating ssh dir: %w", err)
	}
	keyPath := filepath.Join(sshDir, "id_rsa")
	if err := os.WriteFile(keyPath, c.privateKey, 0o600); err != nil {
		return nil, noop, fmt.Errorf("writing ssh key: %w", err)
	}

	cmd := fmt.Sprintf("ssh -i %s -o StrictHostKeyChecking=no -o UserKnownHostsFile=/dev/null", keyPath)
	env := append(base, "GIT_SSH_COMMAND="+cmd)
	cleanup := func() { _ = os.Remove(keyPath) }
	return env, cleanup, nil
}
