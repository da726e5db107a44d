package awssm

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"
	"github.com/evergreen-ci/utility"
	"github.com/grimoirelab/credman/awsutil"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// BasicSecretsManagerClient provides a credman.SecretsManagerClient
// implementation that wraps the AWS Secrets Manager API. It supports
// retrying requests using exponential backoff and jitter.
type BasicSecretsManagerClient struct {
	sm   *secretsmanager.Client
	opts *awsutil.ClientOptions
}

// NewBasicSecretsManagerClient creates a new Secrets Manager client from
// the given options.
func NewBasicSecretsManagerClient(ctx context.Context, opts awsutil.ClientOptions) (*BasicSecretsManagerClient, error) {
	c := &BasicSecretsManagerClient{
		opts: &opts,
	}
	if err := c.setup(ctx); err != nil {
		return nil, errors.Wrap(err, "setting up client")
	}

	return c, nil
}

func (c *BasicSecretsManagerClient) setup(ctx context.Context) error {
	if err := c.opts.Validate(); err != nil {
		return errors.Wrap(err, "invalid options")
	}

	if c.sm != nil {
		return nil
	}

	config, err := c.opts.GetConfig(ctx)
	if err != nil {
		return errors.Wrap(err, "getting config")
	}

	c.sm = secretsmanager.NewFromConfig(*config)

	return nil
}

// GetSecretValue gets the decrypted contents of a secret.
func (c *BasicSecretsManagerClient) GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error) {
	var out *secretsmanager.GetSecretValueOutput
	var err error
	msg := awsutil.MakeAPILogMessage("GetSecretValue", in)
	if err := utility.Retry(ctx,
		func() (bool, error) {
			out, err = c.sm.GetSecretValue(ctx, in)
			if apiErr, ok := smithyAPIError(err); ok {
				grip.Debug(message.WrapError(apiErr, msg))
				if isNonRetryableErrorCode(apiErr.ErrorCode()) {
					return false, err
				}
			}
			return true, err
		}, *c.opts.RetryOpts); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateSecret creates a new secret.
func (c *BasicSecretsManagerClient) CreateSecret(ctx context.Context, in *secretsmanager.CreateSecretInput) (*secretsmanager.CreateSecretOutput, error) {
	var out *secretsmanager.CreateSecretOutput
	var err error
	msg := awsutil.MakeAPILogMessage("CreateSecret", in)
	if err := utility.Retry(ctx,
		func() (bool, error) {
			out, err = c.sm.CreateSecret(ctx, in)
			if apiErr, ok := smithyAPIError(err); ok {
				grip.Debug(message.WrapError(apiErr, msg))
				if isNonRetryableErrorCode(apiErr.ErrorCode()) {
					return false, err
				}
			}
			return true, err
		}, *c.opts.RetryOpts); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteSecret deletes an existing secret.
func (c *BasicSecretsManagerClient) DeleteSecret(ctx context.Context, in *secretsmanager.DeleteSecretInput) (*secretsmanager.DeleteSecretOutput, error) {
	var out *secretsmanager.DeleteSecretOutput
	var err error
	msg := awsutil.MakeAPILogMessage("DeleteSecret", in)
	if err := utility.Retry(ctx,
		func() (bool, error) {
			out, err = c.sm.DeleteSecret(ctx, in)
			if apiErr, ok := smithyAPIError(err); ok {
				grip.Debug(message.WrapError(apiErr, msg))
				if isNonRetryableErrorCode(apiErr.ErrorCode()) {
					return false, err
				}
			}
			return true, err
		}, *c.opts.RetryOpts); err != nil {
		return nil, err
	}
	return out, nil
}

// Close cleans up all resources owned by the client.
func (c *BasicSecretsManagerClient) Close(ctx context.Context) error {
	c.opts.Close()

	return nil
}

func smithyAPIError(err error) (smithy.APIError, bool) {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func isNonRetryableErrorCode(code string) bool {
	switch code {
	case "ResourceNotFoundException",
		"ResourceExistsException",
		"InvalidParameterException",
		"InvalidRequestException",
		"MalformedPolicyDocumentException",
		"AccessDeniedException":
		return true
	default:
		return false
	}
}
