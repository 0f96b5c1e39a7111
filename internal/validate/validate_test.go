package validate

import (
	"testing"

	smcv1alpha1 "github.com/octopilot/secret-manager-controller/api/v1alpha1"
)

func validSpec() *smcv1alpha1.SecretManagerConfigSpec {
	return &smcv1alpha1.SecretManagerConfigSpec{
		SourceRef: smcv1alpha1.SourceRefSpec{Kind: "GitRepository", Name: "repo", Namespace: "flux-system"},
		Secrets:   smcv1alpha1.SecretsSpec{Environment: "dev"},
		Provider:  smcv1alpha1.ProviderSpec{GCP: &smcv1alpha1.GCPProviderSpec{ProjectID: "my-project-1"}},
	}
}

func TestValidateAcceptsWellFormedSpec(t *testing.T) {
	if err := Validate(validSpec()); err != nil {
		t.Fatalf("expected a well-formed spec to pass, got %v", err)
	}
}

func TestValidateRejectsBadSourceRefKind(t *testing.T) {
	spec := validSpec()
	spec.SourceRef.Kind = "Deployment"
	if err := Validate(spec); err == nil {
		t.Fatal("expected an error for an unsupported sourceRef.kind")
	}
}

func TestValidateRejectsEmptyEnvironment(t *testing.T) {
	spec := validSpec()
	spec.Secrets.Environment = ""
	if err := Validate(spec); err == nil {
		t.Fatal("expected an error for an empty secrets.environment")
	}
}

func TestValidateRequiresExactlyOneProvider(t *testing.T) {
	none := validSpec()
	none.Provider = smcv1alpha1.ProviderSpec{}
	if err := Validate(none); err == nil {
		t.Fatal("expected an error when no provider is set")
	}

	both := validSpec()
	both.Provider.AWS = &smcv1alpha1.AWSProviderSpec{Region: "us-east-1"}
	if err := Validate(both); err == nil {
		t.Fatal("expected an error when two providers are set")
	}
}

func TestValidateGCPProjectIDPattern(t *testing.T) {
	cases := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"valid", "my-project-1", false},
		{"too short", "ab", true},
		{"uppercase", "My-Project", true},
		{"leading digit", "1myproject", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec := validSpec()
			spec.Provider.GCP.ProjectID = tc.id
			err := Validate(spec)
			if tc.wantErr && err == nil {
				t.Errorf("expected an error for project id %q", tc.id)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("expected project id %q to pass, got %v", tc.id, err)
			}
		})
	}
}

func TestValidateAWSRegionPattern(t *testing.T) {
	spec := validSpec()
	spec.Provider.GCP = nil
	spec.Provider.AWS = &smcv1alpha1.AWSProviderSpec{Region: "us-east-1"}
	if err := Validate(spec); err != nil {
		t.Errorf("expected us-east-1 to pass, got %v", err)
	}

	spec.Provider.AWS.Region = "not-a-region"
	if err := Validate(spec); err == nil {
		t.Error("expected an error for a malformed AWS region")
	}

	spec.Provider.AWS.Region = "local"
	if err := Validate(spec); err != nil {
		t.Errorf("expected the local SDK emulator region to pass, got %v", err)
	}
}

func TestValidateAzureVaultNameRejectsConsecutiveHyphens(t *testing.T) {
	spec := validSpec()
	spec.Provider.GCP = nil
	spec.Provider.Azure = &smcv1alpha1.AzureProviderSpec{VaultName: "my--vault"}
	if err := Validate(spec); err == nil {
		t.Error("expected an error for consecutive hyphens in the vault name")
	}
}

func TestValidateConfigsRequiresAppConfigEndpointForAzure(t *testing.T) {
	spec := validSpec()
	spec.Provider.GCP = nil
	spec.Provider.Azure = &smcv1alpha1.AzureProviderSpec{VaultName: "my-vault"}
	spec.Configs.Enabled = true

	if err := Validate(spec); err == nil {
		t.Fatal("expected an error when configs are enabled without an endpoint")
	}

	spec.Configs.AppConfigEndpoint = "ftp://bad-scheme"
	if err := Validate(spec); err == nil {
		t.Fatal("expected an error for a non-http(s) endpoint")
	}

	spec.Configs.AppConfigEndpoint = "https://my-vault.azconfig.io"
	if err := Validate(spec); err != nil {
		t.Errorf("expected a valid https endpoint to pass, got %v", err)
	}
}

func TestValidateConfigsRequiresParameterPathForAWS(t *testing.T) {
	spec := validSpec()
	spec.Provider.GCP = nil
	spec.Provider.AWS = &smcv1alpha1.AWSProviderSpec{Region: "us-east-1"}
	spec.Configs.Enabled = true

	if err := Validate(spec); err == nil {
		t.Fatal("expected an error when configs are enabled without a parameter path")
	}

	spec.Configs.ParameterPath = "no-leading-slash"
	if err := Validate(spec); err == nil {
		t.Fatal("expected an error for a parameter path missing its leading slash")
	}

	spec.Configs.ParameterPath = "/app/prod"
	if err := Validate(spec); err != nil {
		t.Errorf("expected a valid parameter path to pass, got %v", err)
	}
}

func TestParseIntervalFloorEnforcesSixtySeconds(t *testing.T) {
	if _, err := ParseIntervalFloor("reconcileInterval", "30s", "5m"); err == nil {
		t.Error("expected 30s to fail the 60s floor")
	}
	d, err := ParseIntervalFloor("reconcileInterval", "60s", "5m")
	if err != nil || d.Seconds() != 60 {
		t.Errorf("expected 60s to pass with duration 60s, got %v, err %v", d, err)
	}
}

func TestParseIntervalFloorFallsBackToDefault(t *testing.T) {
	d, err := ParseIntervalFloor("reconcileInterval", "", "5m")
	if err != nil {
		t.Fatalf("expected empty value to fall back to default, got %v", err)
	}
	if d.Minutes() != 5 {
		t.Errorf("expected default of 5m, got %v", d)
	}
}

func TestParseIntervalFloorRejectsMalformedDuration(t *testing.T) {
	cases := []string{"5", "5x", "-5m", "5.5m"}
	for _, c := range cases {
		if _, err := ParseIntervalFloor("reconcileInterval", c, "5m"); err == nil {
			t.Errorf("expected %q to be rejected", c)
		}
	}
}

func TestParseIntervalFloorSupportsAllUnits(t *testing.T) {
	cases := map[string]float64{
		"90s": 90,
		"2m":  120,
		"1h":  3600,
		"1d":  86400,
	}
	for value, wantSeconds := range cases {
		d, err := ParseIntervalFloor("reconcileInterval", value, "5m")
		if err != nil {
			t.Errorf("%q: unexpected error %v", value, err)
			continue
		}
		if d.Seconds() != wantSeconds {
			t.Errorf("%q: expected %v seconds, got %v", value, wantSeconds, d.Seconds())
		}
	}
}
