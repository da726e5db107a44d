package awssm

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/evergreen-ci/utility"
	"github.com/grimoirelab/credman"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// BackendOptions are options to create a Secrets Manager-backed secret
// backend.
type BackendOptions struct {
	// Client is the Secrets Manager client used to issue API calls.
	Client credman.SecretsManagerClient
}

// NewBackendOptions returns new unconfigured backend options.
func NewBackendOptions() *BackendOptions {
	return &BackendOptions{}
}

// SetClient sets the Secrets Manager client.
func (o *BackendOptions) SetClient(c credman.SecretsManagerClient) *BackendOptions {
	o.Client = c
	return o
}

// Validate checks that the required fields are given.
func (o *BackendOptions) Validate() error {
	catcher := grip.NewBasicCatcher()
	catcher.NewWhen(o.Client == nil, "must provide a Secrets Manager client")
	return catcher.Resolve()
}

// Backend provides a credman.SecretBackend implementation backed by AWS
// Secrets Manager. A service's secret is stored as a single secret whose
// string value is a flat JSON object mapping credential names to string
// values.
type Backend struct {
	client credman.SecretsManagerClient
}

// NewBackend creates a new Secrets Manager secret backend from the given
// options.
func NewBackend(opts BackendOptions) (*Backend, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid options")
	}

	return &Backend{client: opts.Client}, nil
}

// FetchSecret retrieves the secret identified by the service name and
// normalizes its JSON payload into a SecretRecord.
func (b *Backend) FetchSecret(ctx context.Context, serviceName string) (*credman.SecretRecord, error) {
	grip.Debug(message.Fields{
		"message": "retrieving secret",
		"backend": credman.BackendAWS,
		"service": serviceName,
	})

	out, err := b.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: utility.ToStringPtr(serviceName),
	})
	if err != nil {
		return nil, classifyError(serviceName, err)
	}

	fields, err := parseSecretString(utility.FromStringPtr(out.SecretString))
	if err != nil {
		return nil, err
	}

	return credman.NewSecretRecord(serviceName, fields), nil
}

// Close closes the underlying client.
func (b *Backend) Close(ctx context.Context) error {
	return b.client.Close(ctx)
}

func classifyError(serviceName string, err error) error {
	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return credman.NewSecretNotFoundError(serviceName)
	}
	if apiErr, ok := smithyAPIError(err); ok {
		return credman.NewBackendOperationError(credman.BackendAWS, apiErr.Error())
	}
	// Transport faults do not implement smithy.APIError but are still
	// backend faults to the caller.
	return credman.NewBackendOperationError(credman.BackendAWS, err.Error())
}

// parseSecretString decodes a secret payload, which must be a flat JSON
// object of string values.
func parseSecretString(payload string) (map[string]string, error) {
	if payload == "" {
		return nil, credman.NewInvalidSecretFormatError("secret has no string payload")
	}

	fields := map[string]string{}
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return nil, credman.NewInvalidSecretFormatError(errors.Wrap(err, "parsing secret payload").Error())
	}

	return fields, nil
}
