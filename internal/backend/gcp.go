package backend

import (
	"bytes"
	"context"
	"fmt"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// GCPSecretManager realizes SecretManagerProvider against GCP Secret
// Manager (spec.md §4.6 "GCP secret store"). A Secret resource is created
// on first write with no replication policy ("automatic") unless Location
// is set, in which case a single-region user-managed policy is used; every
// subsequent write adds a new version. Disable/enable act on the latest
// version's state.
type GCPSecretManager struct {
	client    *secretmanager.Client
	projectID string
}

// NewGCPSecretManager builds a client against the GCP Secret Manager API.
// When endpoint is non-empty (GCP_SECRET_MANAGER_ENDPOINT, conformance
// testing against the Pact mock server), requests are redirected there over
// an insecure connection instead of the real service.
func NewGCPSecretManager(ctx context.Context, projectID, endpoint string) (*GCPSecretManager, error) {
	opts := gcpClientOptions(endpoint)
	c, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("building GCP Secret Manager client: %w", err)
	}
	return &GCPSecretManager{client: c, projectID: projectID}, nil
}

func (g *GCPSecretManager) secretName(name string) string {
	return fmt.Sprintf("projects/%s/secrets/%s", g.projectID, name)
}

func (g *GCPSecretManager) parent() string {
	return fmt.Sprintf("projects/%s", g.projectID)
}

// CreateOrUpdate implements SecretManagerProvider.
func (g *GCPSecretManager) CreateOrUpdate(ctx context.Context, name, value, environment, location string) (bool, error) {
	start := time.Now()
	var opErr error
	op := OpUpdate
	defer func() { observeOp("gcp", op, start, opErr) }()

	current, err := g.accessLatest(ctx, name)
	if err != nil && !isNotFound(err) {
		opErr = fmt.Errorf("checking current value of %s: %w", name, err)
		return false, opErr
	}
	if err == nil && bytes.Equal(current, []byte(value)) {
		op = OpNoChange
		return false, nil
	}

	if err != nil && isNotFound(err) {
		op = OpCreate
		if err := g.ensureSecret(ctx, name, environment, location); err != nil {
			opErr = err
			return false, opErr
		}
	}

	_, err = g.client.AddSecretVersion(ctx, &secretmanagerpb.AddSecretVersionRequest{
		Parent:  g.secretName(name),
		Payload: &secretmanagerpb.SecretPayload{Data: []byte(value)},
	})
	if err != nil {
		opErr = fmt.Errorf("adding secret version for %s: %w", name, err)
		return false, opErr
	}
	return true, nil
}

func (g *GCPSecretManager) ensureSecret(ctx context.Context, name, environment, location string) error {
	replication := &secretmanagerpb.Replication{
		Replication: &secretmanagerpb.Replication_Automatic_{
			Automatic: &secretmanagerpb.Replication_Automatic{},
		},
	}
	if location != "" && location != "automatic" {
		replication = &secretmanagerpb.Replication{
			Replication: &secretmanagerpb.Replication_UserManaged_{
				UserManaged: &secretmanagerpb.Replication_UserManaged{
					Replicas: []*secretmanagerpb.Replication_UserManaged_Replica{{Location: location}},
				},
			},
		}
	}

	_, err := g.client.CreateSecret(ctx, &secretmanagerpb.CreateSecretRequest{
		Parent:   g.parent(),
		SecretId: name,
		Secret: &secretmanagerpb.Secret{
			Replication: replication,
			Labels:      map[string]string{"environment": sanitizeLabel(environment), "location": sanitizeLabel(location)},
		},
	})
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return fmt.Errorf("creating secret %s: %w", name, err)
	}
	return nil
}

// Get implements SecretManagerProvider.
func (g *GCPSecretManager) Get(ctx context.Context, name string) (*string, error) {
	start := time.Now()
	var opErr error
	defer func() { observeOp("gcp", OpGet, start, opErr) }()

	data, err := g.accessLatest(ctx, name)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		opErr = fmt.Errorf("accessing %s: %w", name, err)
		return nil, opErr
	}
	v := string(data)
	return &v, nil
}

func (g *GCPSecretManager) accessLatest(ctx context.Context, name string) ([]byte, error) {
	resp, err := g.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: g.secretName(name) + "/versions/latest",
	})
	if err != nil {
		return nil, err
	}
	return resp.Payload.Data, nil
}

// Delete implements SecretManagerProvider. Idempotent.
func (g *GCPSecretManager) Delete(ctx context.Context, name string) error {
	start := time.Now()
	var opErr error
	defer func() { observeOp("gcp", OpDelete, start, opErr) }()

	err := g.client.DeleteSecret(ctx, &secretmanagerpb.DeleteSecretRequest{Name: g.secretName(name)})
	if err != nil && !isNotFound(err) {
		opErr = fmt.Errorf("deleting %s: %w", name, err)
		return opErr
	}
	return nil
}

// Disable implements SecretManagerProvider by disabling the latest version.
func (g *GCPSecretManager) Disable(ctx context.Context, name string) (bool, error) {
	return g.setVersionState(ctx, name, OpDisable)
}

// Enable implements SecretManagerProvider by enabling the latest version.
func (g *GCPSecretManager) Enable(ctx context.Context, name string) (bool, error) {
	return g.setVersionState(ctx, name, OpEnable)
}

func (g *GCPSecretManager) setVersionState(ctx context.Context, name, op string) (bool, error) {
	start := time.Now()
	var opErr error
	defer func() { observeOp("gcp", op, start, opErr) }()

	versionName := g.secretName(name) + "/versions/latest"
	version, err := g.client.GetSecretVersion(ctx, &secretmanagerpb.GetSecretVersionRequest{Name: versionName})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		opErr = fmt.Errorf("getting latest version of %s: %w", name, err)
		return false, opErr
	}

	wantState := secretmanagerpb.SecretVersion_DISABLED
	if op == OpEnable {
		wantState = secretmanagerpb.SecretVersion_ENABLED
	}
	if version.State == wantState {
		return false, nil
	}

	if op == OpDisable {
		_, err = g.client.DisableSecretVersion(ctx, &secretmanagerpb.DisableSecretVersionRequest{Name: versionName})
	} else {
		_, err = g.client.EnableSecretVersion(ctx, &secretmanagerpb.EnableSecretVersionRequest{Name: versionName})
	}
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		opErr = fmt.Errorf("%s version of %s: %w", op, name, err)
		return false, opErr
	}
	return true, nil
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func sanitizeLabel(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// gcpClientOptions redirects the client at GCP_SECRET_MANAGER_ENDPOINT when
// set, for conformance testing against the Pact mock server (spec.md §6).
func gcpClientOptions(endpoint string) []option.ClientOption {
	if endpoint == "" {
		return nil
	}
	return []option.ClientOption{
		option.WithEndpoint(endpoint),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	}
}
