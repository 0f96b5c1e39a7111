package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// secretRecoveryWindowDays is used for Disable, modeled as a soft delete
// with a recovery window (spec.md §4.6 "AWS secret store").
const secretRecoveryWindowDays = 7

// AWSSecretsManager realizes SecretManagerProvider against AWS Secrets
// Manager.
type AWSSecretsManager struct {
	client *secretsmanager.Client
}

// NewAWSSecretsManager builds a client for the given region using the
// ambient credential chain (pod identity / IRSA, or env/shared config).
func NewAWSSecretsManager(ctx context.Context, region string) (*AWSSecretsManager, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &AWSSecretsManager{client: secretsmanager.NewFromConfig(cfg)}, nil
}

// CreateOrUpdate implements SecretManagerProvider. DescribeSecret probes
// existence; CreateSecret on first write with Environment/Location tags,
// PutSecretValue otherwise.
func (a *AWSSecretsManager) CreateOrUpdate(ctx context.Context, name, value, environment, location string) (bool, error) {
	start := time.Now()
	var opErr error
	op := OpUpdate
	defer func() { observeOp("aws", op, start, opErr) }()

	current, err := a.Get(ctx, name)
	if err != nil {
		opErr = err
		return false, opErr
	}
	if current != nil && *current == value {
		op = OpNoChange
		return false, nil
	}

	_, describeErr := a.client.DescribeSecret(ctx, &secretsmanager.DescribeSecretInput{SecretId: aws.String(name)})
	if describeErr != nil {
		if !isResourceNotFound(describeErr) {
			opErr = fmt.Errorf("describing secret %s: %w", name, describeErr)
			return false, opErr
		}
		op = OpCreate
		_, err = a.client.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
			Name:         aws.String(name),
			SecretString: aws.String(value),
			Tags: []smtypes.Tag{
				{Key: aws.String("Environment"), Value: aws.String(environment)},
				{Key: aws.String("Location"), Value: aws.String(location)},
			},
		})
		if err != nil {
			opErr = fmt.Errorf("creating secret %s: %w", name, err)
			return false, opErr
		}
		return true, nil
	}

	_, err = a.client.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     aws.String(name),
		SecretString: aws.String(value),
	})
	if err != nil {
		opErr = fmt.Errorf("putting secret value for %s: %w", name, err)
		return false, opErr
	}
	return true, nil
}

// Get implements SecretManagerProvider.
func (a *AWSSecretsManager) Get(ctx context.Context, name string) (*string, error) {
	start := time.Now()
	var opErr error
	defer func() { observeOp("aws", OpGet, start, opErr) }()

	resp, err := a.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: aws.String(name)})
	if err != nil {
		if isResourceNotFound(err) {
			return nil, nil
		}
		opErr = fmt.Errorf("getting secret value for %s: %w", name, err)
		return nil, opErr
	}
	if resp.SecretString != nil {
		return resp.SecretString, nil
	}
	if resp.SecretBinary != nil {
		v := string(resp.SecretBinary)
		return &v, nil
	}
	return nil, nil
}

// Delete implements SecretManagerProvider: a full, idempotent delete
// without a recovery window.
func (a *AWSSecretsManager) Delete(ctx context.Context, name string) error {
	start := time.Now()
	var opErr error
	defer func() { observeOp("aws", OpDelete, start, opErr) }()

	_, err := a.client.DeleteSecret(ctx, &secretsmanager.DeleteSecretInput{
		SecretId:                   aws.String(name),
		ForceDeleteWithoutRecovery: aws.Bool(true),
	})
	if err != nil && !isResourceNotFound(err) {
		opErr = fmt.Errorf("deleting secret %s: %w", name, err)
		return opErr
	}
	return nil
}

// Disable implements SecretManagerProvider as a soft DeleteSecret carrying a
// recovery window.
func (a *AWSSecretsManager) Disable(ctx context.Context, name string) (bool, error) {
	start := time.Now()
	var opErr error
	defer func() { observeOp("aws", OpDisable, start, opErr) }()

	_, err := a.client.DeleteSecret(ctx, &secretsmanager.DeleteSecretInput{
		SecretId:             aws.String(name),
		RecoveryWindowInDays: aws.Int64(secretRecoveryWindowDays),
	})
	if err != nil {
		if isResourceNotFound(err) {
			return false, nil
		}
		var alreadyScheduled *smtypes.InvalidRequestException
		if errors.As(err, &alreadyScheduled) {
			return false, nil
		}
		opErr = fmt.Errorf("scheduling deletion of secret %s: %w", name, err)
		return false, opErr
	}
	return true, nil
}

// Enable implements SecretManagerProvider via RestoreSecret.
func (a *AWSSecretsManager) Enable(ctx context.Context, name string) (bool, error) {
	start := time.Now()
	var opErr error
	defer func() { observeOp("aws", OpEnable, start, opErr) }()

	_, err := a.client.RestoreSecret(ctx, &secretsmanager.RestoreSecretInput{SecretId: aws.String(name)})
	if err != nil {
		if isResourceNotFound(err) {
			return false, nil
		}
		var notScheduled *smtypes.InvalidRequestException
		if errors.As(err, &notScheduled) {
			return false, nil
		}
		opErr = fmt.Errorf("restoring secret %s: %w", name, err)
		return false, opErr
	}
	return true, nil
}

func isResourceNotFound(err error) bool {
	var notFound *smtypes.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return true
	}
	var paramNotFound *ssmtypes.ParameterNotFound
	return errors.As(err, &paramNotFound)
}

// AWSParameterStore realizes ConfigStoreProvider against AWS SSM Parameter
// Store; names are "/{path}/{sanitizedKey}".
type AWSParameterStore struct {
	client *ssm.Client
	path   string
}

// NewAWSParameterStore builds a client for the given region, scoped under
// path (spec.md's configs.parameterPath).
func NewAWSParameterStore(ctx context.Context, region, path string) (*AWSParameterStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &AWSParameterStore{client: ssm.NewFromConfig(cfg), path: path}, nil
}

func (p *AWSParameterStore) paramName(key string) string {
	return fmt.Sprintf("%s/%s", p.path, key)
}

// CreateOrUpdate implements ConfigStoreProvider.
func (p *AWSParameterStore) CreateOrUpdate(ctx context.Context, name, value, environment, location string) (bool, error) {
	start := time.Now()
	var opErr error
	op := OpUpdate
	defer func() { observeOp("aws-ssm", op, start, opErr) }()

	current, err := p.Get(ctx, name)
	if err != nil {
		opErr = err
		return false, opErr
	}
	if current != nil && *current == value {
		op = OpNoChange
		return false, nil
	}
	if current == nil {
		op = OpCreate
	}

	// SSM rejects a PutParameter request that sets both Overwrite and Tags.
	// Tag only the first create; subsequent writes overwrite the value and
	// leave the existing tags alone.
	input := &ssm.PutParameterInput{
		Name:  aws.String(p.paramName(name)),
		Value: aws.String(value),
		Type:  ssmtypes.ParameterTypeString,
	}
	if current == nil {
		input.Tags = []ssmtypes.Tag{
			{Key: aws.String("Environment"), Value: aws.String(environment)},
			{Key: aws.String("Location"), Value: aws.String(location)},
		}
	} else {
		input.Overwrite = aws.Bool(true)
	}

	_, err = p.client.PutParameter(ctx, input)
	if err != nil {
		opErr = fmt.Errorf("putting parameter %s: %w", name, err)
		return false, opErr
	}
	return true, nil
}

// Get implements ConfigStoreProvider.
func (p *AWSParameterStore) Get(ctx context.Context, name string) (*string, error) {
	start := time.Now()
	var opErr error
	defer func() { observeOp("aws-ssm", OpGet, start, opErr) }()

	resp, err := p.client.GetParameter(ctx, &ssm.GetParameterInput{Name: aws.String(p.paramName(name))})
	if err != nil {
		if isResourceNotFound(err) {
			return nil, nil
		}
		opErr = fmt.Errorf("getting parameter %s: %w", name, err)
		return nil, opErr
	}
	return resp.Parameter.Value, nil
}

// Delete implements ConfigStoreProvider. Idempotent.
func (p *AWSParameterStore) Delete(ctx context.Context, name string) error {
	start := time.Now()
	var opErr error
	defer func() { observeOp("aws-ssm", OpDelete, start, opErr) }()

	_, err := p.client.DeleteParameter(ctx, &ssm.DeleteParameterInput{Name: aws.String(p.paramName(name))})
	if err != nil && !isResourceNotFound(err) {
		opErr = fmt.Errorf("deleting parameter %s: %w", name, err)
		return opErr
	}
	return nil
}
