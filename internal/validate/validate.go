// Package validate implements structural and provider-specific validation of
// a SecretManagerConfig spec (component C13).
package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	smcv1alpha1 "github.com/octopilot/secret-manager-controller/api/v1alpha1"
)

// Error is a spec validation failure. It is always a permanent,
// user-actionable condition — spec.md §7 SpecInvalid.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	rfc1123Name = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)
	gcpProject  = regexp.MustCompile(`^[a-z][a-z0-9-]{4,28}[a-z0-9]$`)
	azureVault  = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9-]{1,22}[a-zA-Z0-9]$`)
	duration    = regexp.MustCompile(`^\d+[smhd]$`)
	ssmPath     = regexp.MustCompile(`^/[A-Za-z0-9._-]+(/[A-Za-z0-9._-]+)*$`)

	// awsRegion covers standard, gov, iso, china partitions, plus "local"
	// used by local SDK emulators.
	awsRegion = regexp.MustCompile(`^(us|eu|ap|sa|ca|me|af)(-gov)?-[a-z]+-\d$|^cn-[a-z]+-\d$|^us-iso[b]?-[a-z]+-\d$|^local$`)
)

const minIntervalSeconds = 60

// Validate runs every structural and provider-specific check over the spec
// and returns the first failure, or nil if the spec is well-formed.
func Validate(spec *smcv1alpha1.SecretManagerConfigSpec) error {
	if err := validateSourceRef(spec.SourceRef); err != nil {
		return err
	}
	if err := validateSecrets(spec.Secrets); err != nil {
		return err
	}
	if err := validateProvider(spec.Provider); err != nil {
		return err
	}
	if spec.Configs.Enabled {
		if err := validateConfigs(spec); err != nil {
			return err
		}
	}
	// reconcileInterval is deliberately NOT validated here: a malformed
	// value is C10's concern (Fibonacci backoff persisted in an annotation,
	// spec.md §4.1 step 9, §7 DurationParseError), not a spec-admission
	// failure. Rejecting it at this step would make that backoff path
	// unreachable.
	if _, err := ParseIntervalFloor("gitRepositoryPullInterval", spec.GitRepositoryPullInterval, "1m"); err != nil {
		return err
	}
	return nil
}

func validateSourceRef(ref smcv1alpha1.SourceRefSpec) error {
	if ref.Kind != "GitRepository" && ref.Kind != "Application" {
		return &Error{"sourceRef.kind", "must be GitRepository or Application"}
	}
	if !rfc1123Name.MatchString(ref.Name) {
		return &Error{"sourceRef.name", "must be a valid RFC-1123 name"}
	}
	if !rfc1123Name.MatchString(ref.Namespace) {
		return &Error{"sourceRef.namespace", "must be a valid RFC-1123 name"}
	}
	return nil
}

func validateSecrets(s smcv1alpha1.SecretsSpec) error {
	if s.Environment == "" {
		return &Error{"secrets.environment", "must not be empty"}
	}
	return nil
}

func validateProvider(p smcv1alpha1.ProviderSpec) error {
	set := 0
	if p.GCP != nil {
		set++
		if !gcpProject.MatchString(p.GCP.ProjectID) {
			return &Error{"provider.gcp.projectId", "does not match ^[a-z][a-z0-9-]{4,28}[a-z0-9]$"}
		}
	}
	if p.AWS != nil {
		set++
		if !awsRegion.MatchString(p.AWS.Region) {
			return &Error{"provider.aws.region", "is not a recognized AWS region"}
		}
	}
	if p.Azure != nil {
		set++
		if !azureVault.MatchString(p.Azure.VaultName) || strings.Contains(p.Azure.VaultName, "--") {
			return &Error{"provider.azure.vaultName", "does not match Azure Key Vault name rules"}
		}
	}
	if set != 1 {
		return &Error{"provider", "exactly one of gcp, aws, azure must be set"}
	}
	return nil
}

func validateConfigs(spec *smcv1alpha1.SecretManagerConfigSpec) error {
	if spec.Provider.Azure != nil {
		if spec.Configs.AppConfigEndpoint == "" {
			return &Error{"configs.appConfigEndpoint", "required when configs are enabled for Azure"}
		}
		if !strings.HasPrefix(spec.Configs.AppConfigEndpoint, "http://") && !strings.HasPrefix(spec.Configs.AppConfigEndpoint, "https://") {
			return &Error{"configs.appConfigEndpoint", "must start with http:// or https://"}
		}
	}
	if spec.Provider.AWS != nil {
		if spec.Configs.ParameterPath == "" {
			return &Error{"configs.parameterPath", "required when configs are enabled for AWS"}
		}
		if !ssmPath.MatchString(spec.Configs.ParameterPath) {
			return &Error{"configs.parameterPath", "must start with / and match ^/[A-Za-z0-9._-]+(/[A-Za-z0-9._-]+)*$"}
		}
	}
	return nil
}

// ParseIntervalFloor parses a duration string of the form ^\d+[smhd]$ and
// enforces the 60-second floor. An empty value falls back to def before
// parsing.
func ParseIntervalFloor(field, value, def string) (time.Duration, error) {
	if value == "" {
		value = def
	}
	if !duration.MatchString(value) {
		return 0, &Error{field, fmt.Sprintf("must match ^\\d+[smhd]$, got %q", value)}
	}
	unit := value[len(value)-1]
	n, err := strconv.Atoi(value[:len(value)-1])
	if err != nil {
		return 0, &Error{field, "invalid numeric component"}
	}
	var d time.Duration
	switch unit {
	case 's':
		d = time.Duration(n) * time.Second
	case 'm':
		d = time.Duration(n) * time.Minute
	case 'h':
		d = time.Duration(n) * time.Hour
	case 'd':
		d = time.Duration(n) * 24 * time.Hour
	}
	if d < minIntervalSeconds*time.Second {
		return 0, &Error{field, fmt.Sprintf("must be at least %ds", minIntervalSeconds)}
	}
	return d, nil
}
