package sops

import "strings"

// FailureReason classifies a decryption failure so the caller can choose
// between a short transient requeue and a permanent per-service failure.
type FailureReason string

const (
	ReasonInvalidKeyFormat    FailureReason = "InvalidKeyFormat"
	ReasonProviderUnavailable FailureReason = "ProviderUnavailable"
	ReasonUnsupportedFormat   FailureReason = "UnsupportedFormat"
	ReasonCorruptedFile       FailureReason = "CorruptedFile"
	ReasonUnknown             FailureReason = "Unknown"
)

// transient reports whether reason should be retried on the controller's
// short 30-second cadence rather than surfaced as a permanent failure.
func (r FailureReason) transient() bool {
	switch r {
	case ReasonProviderUnavailable:
		return true
	default:
		return false
	}
}

// remediation returns operator-facing guidance for a permanent failure.
func (r FailureReason) remediation() string {
	switch r {
	case ReasonInvalidKeyFormat:
		return "verify the referenced GPG private key is armored and matches the fingerprint in .sops.yaml"
	case ReasonUnsupportedFormat:
		return "the encrypted file's extension did not map to a supported sops input type (env, yaml, yml, json)"
	case ReasonCorruptedFile:
		return "the sops binary produced output that could not be decoded; re-encrypt the source file"
	case ReasonProviderUnavailable:
		return "the sops or gpg binary was not found on PATH, or is temporarily unreachable"
	default:
		return "see the sops stderr captured in the error message for details"
	}
}

// DecryptError wraps a classified sops failure.
type DecryptError struct {
	Reason  FailureReason
	Message string
}

func (e *DecryptError) Error() string {
	return e.Message
}

// Transient reports whether this error should be retried quickly.
func (e *DecryptError) Transient() bool {
	return e.Reason.transient()
}

// Remediation returns operator-facing guidance for this error.
func (e *DecryptError) Remediation() string {
	return e.Reason.remediation()
}

func newDecryptError(reason FailureReason, message string) *DecryptError {
	return &DecryptError{Reason: reason, Message: message}
}

// classifyFailure maps sops stderr text and an optional exit code to a
// FailureReason. The mapping follows the shapes sops itself emits: GPG key
// errors, missing binaries, unreadable input, and malformed ciphertext.
func classifyFailure(stderr string, exitCode *int) FailureReason {
	lower := strings.ToLower(stderr)

	switch {
	case strings.Contains(lower, "no pgp key found"),
		strings.Contains(lower, "could not decrypt"),
		strings.Contains(lower, "decryption failed"),
		strings.Contains(lower, "no matching creation rule"),
		strings.Contains(lower, "secret key not available"):
		return ReasonInvalidKeyFormat

	case strings.Contains(lower, "executable file not found"),
		strings.Contains(lower, "no such file or directory") && strings.Contains(lower, "sops"),
		strings.Contains(lower, "connection refused"),
		strings.Contains(lower, "timeout"),
		strings.Contains(lower, "temporarily unavailable"):
		return ReasonProviderUnavailable

	case strings.Contains(lower, "unknown output type"),
		strings.Contains(lower, "unknown input type"),
		strings.Contains(lower, "trying to load a file with an unsupported format"):
		return ReasonUnsupportedFormat

	case strings.Contains(lower, "invalid character"),
		strings.Contains(lower, "unexpected end of json input"),
		strings.Contains(lower, "could not unmarshal"),
		strings.Contains(lower, "yaml: "):
		return ReasonCorruptedFile

	default:
		return ReasonUnknown
	}
}
