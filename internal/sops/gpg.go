package sops

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// importGPGKey creates a scoped GPG home under the system tempdir, imports
// privateKey into it, and trusts the resulting fingerprint. The caller is
// responsible for removing the returned directory on every exit path.
// Returns ("", nil) if the gpg binary is not on PATH: decryption then
// proceeds against the ambient system keyring, matching the behavior when
// no private key is configured at all.
func importGPGKey(ctx context.Context, privateKey string) (string, error) {
	gpgPath, err := exec.LookPath("gpg")
	if err != nil {
		return "", nil
	}

	gpgHome := filepath.Join(os.TempDir(), "gpg-home-"+uuid.NewString())
	if err := os.MkdirAll(gpgHome, 0o700); err != nil {
		return "", fmt.Errorf("creating GPG home: %w", err)
	}

	if err := runGPGImport(ctx, gpgPath, gpgHome, privateKey); err != nil {
		_ = os.RemoveAll(gpgHome)
		return "", err
	}

	fpr, err := firstFingerprint(ctx, gpgPath, gpgHome)
	if err == nil && fpr != "" {
		_ = trustFingerprint(ctx, gpgPath, gpgHome, fpr)
	}

	return gpgHome, nil
}

func runGPGImport(ctx context.Context, gpgPath, gpgHome, privateKey string) error {
	cmd := exec.CommandContext(ctx, gpgPath, "--batch", "--yes", "--pinentry-mode", "loopback", "--import")
	cmd.Env = append(os.Environ(), "GNUPGHOME="+gpgHome)
	cmd.Stdin = strings.NewReader(privateKey)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("gpg --import failed: %w: %s", err, stderr.String())
	}
	return nil
}

func firstFingerprint(ctx context.Context, gpgPath, gpgHome string) (string, error) {
	cmd := exec.CommandContext(ctx, gpgPath, "--list-keys", "--with-colons", "--fingerprint")
	cmd.Env = append(os.Environ(), "GNUPGHOME="+gpgHome)

	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(string(out), "\n") {
		if strings.HasPrefix(line, "fpr:") {
			fields := strings.Split(line, ":")
			if len(fields) > 0 {
				fpr := fields[len(fields)-1]
				if fpr != "" {
					return fpr, nil
				}
			}
		}
	}
	return "", fmt.Errorf("no fingerprint found in gpg key listing")
}

func trustFingerprint(ctx context.Context, gpgPath, gpgHome, fingerprint string) error {
	cmd := exec.CommandContext(ctx, gpgPath, "--batch", "--yes", "--import-ownertrust")
	cmd.Env = append(os.Environ(), "GNUPGHOME="+gpgHome)
	cmd.Stdin = strings.NewReader(fingerprint + ":6:\n")
	return cmd.Run()
}
