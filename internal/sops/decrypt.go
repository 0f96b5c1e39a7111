package sops

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Decrypt pipes content through the external sops binary and returns the
// plaintext. path (may be empty) is used only to derive the --input-type;
// privateKey (may be empty) is imported into a scoped GPG home for the
// duration of the call. Neither ciphertext nor plaintext ever touch disk.
func Decrypt(ctx context.Context, content, path, privateKey string) (string, error) {
	sopsPath, err := exec.LookPath("sops")
	if err != nil {
		return "", newDecryptError(ReasonProviderUnavailable, fmt.Sprintf("sops binary not found in PATH: %v", err))
	}

	var gpgHome string
	if privateKey != "" {
		gpgHome, err = importGPGKey(ctx, privateKey)
		if err != nil {
			return "", newDecryptError(ReasonInvalidKeyFormat, fmt.Sprintf("importing GPG key: %v", err))
		}
	}
	if gpgHome != "" {
		defer os.RemoveAll(gpgHome)
	}

	fileType := detectFileType(path, content)

	cmd := exec.CommandContext(ctx, sopsPath,
		"-d",
		"--input-type", fileType,
		"--output-type", fileType,
		"/dev/stdin",
	)
	cmd.Env = os.Environ()
	if gpgHome != "" {
		cmd.Env = append(cmd.Env, "GNUPGHOME="+gpgHome, "GNUPG_TRUST_MODEL=always")
	}
	cmd.Stdin = strings.NewReader(content)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if err == nil {
		return stdout.String(), nil
	}

	var exitCode *int
	if exitErr, ok := err.(*exec.ExitError); ok {
		code := exitErr.ExitCode()
		exitCode = &code
	}

	stderrText := stderr.String()
	reason := classifyFailure(stderrText, exitCode)
	msg := stderrText
	if len(msg) > 500 {
		msg = msg[:500] + "... (truncated)"
	}
	return "", newDecryptError(reason, fmt.Sprintf("sops decryption failed: %s", msg))
}
