package hcvault

import (
	"context"
	"fmt"

	"github.com/grimoirelab/credman"
	"github.com/hashicorp/vault/api"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

const defaultMount = "secret"

// BackendOptions are options to create a HashiCorp Vault secret backend.
type BackendOptions struct {
	// Address is the URL of the Vault server.
	Address string
	// Token is the token used to authenticate against Vault.
	Token string
	// CACert is the path of a PEM-encoded CA certificate file used to
	// verify the server's TLS certificate. Optional.
	CACert string
	// Mount is the mount path of the KV v2 secrets engine. Defaults to
	// "secret".
	Mount string
}

// NewBackendOptions returns new unconfigured backend options.
func NewBackendOptions() *BackendOptions {
	return &BackendOptions{}
}

// SetAddress sets the Vault server URL.
func (o *BackendOptions) SetAddress(addr string) *BackendOptions {
	o.Address = addr
	return o
}

// SetToken sets the authentication token.
func (o *BackendOptions) SetToken(token string) *BackendOptions {
	o.Token = token
	return o
}

// SetCACert sets the path of the CA certificate file.
func (o *BackendOptions) SetCACert(path string) *BackendOptions {
	o.CACert = path
	return o
}

// SetMount sets the mount path of the KV v2 secrets engine.
func (o *BackendOptions) SetMount(mount string) *BackendOptions {
	o.Mount = mount
	return o
}

// Validate checks that the required fields are given and sets defaults for
// unspecified options.
func (o *BackendOptions) Validate() error {
	catcher := grip.NewBasicCatcher()
	catcher.NewWhen(o.Address == "", "must provide the Vault address")
	catcher.NewWhen(o.Token == "", "must provide an authentication token")

	if catcher.HasErrors() {
		return catcher.Resolve()
	}

	if o.Mount == "" {
		o.Mount = defaultMount
	}

	return nil
}

// Backend provides a credman.SecretBackend implementation backed by a
// HashiCorp Vault KV v2 secrets engine. A service's secret is the KV entry
// stored under the service name.
type Backend struct {
	client *api.Client
	mount  string
}

// NewBackend creates a new Vault secret backend from the given options and
// verifies that the server is reachable and the token is valid, so that a
// misconfigured backend fails before any fetch is attempted.
func NewBackend(ctx context.Context, opts BackendOptions) (*Backend, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid options")
	}

	config := api.DefaultConfig()
	config.Address = opts.Address
	if opts.CACert != "" {
		if err := config.ConfigureTLS(&api.TLSConfig{CACert: opts.CACert}); err != nil {
			return nil, errors.Wrap(err, "configuring TLS")
		}
	}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, errors.Wrap(err, "creating Vault client")
	}
	client.SetToken(opts.Token)

	b := &Backend{
		client: client,
		mount:  opts.Mount,
	}
	if err := b.checkAccess(ctx); err != nil {
		return nil, err
	}

	return b, nil
}

// checkAccess verifies that the server is initialized and unsealed and that
// the configured token authenticates.
func (b *Backend) checkAccess(ctx context.Context) error {
	health, err := b.client.Sys().HealthWithContext(ctx)
	if err != nil {
		return credman.NewBackendOperationError(credman.BackendHashicorp, errors.Wrap(err, "checking server health").Error())
	}
	if !health.Initialized {
		return credman.NewBackendOperationError(credman.BackendHashicorp, "server is not initialized")
	}
	if health.Sealed {
		return credman.NewBackendOperationError(credman.BackendHashicorp, "server is sealed")
	}

	if _, err := b.client.Auth().Token().LookupSelfWithContext(ctx); err != nil {
		return errors.Wrap(credman.NewInvalidCredentialsError(credman.BackendHashicorp), err.Error())
	}

	return nil
}

// FetchSecret reads the KV entry stored under the service name and
// normalizes its data into a SecretRecord.
func (b *Backend) FetchSecret(ctx context.Context, serviceName string) (*credman.SecretRecord, error) {
	grip.Debug(message.Fields{
		"message": "retrieving secret",
		"backend": credman.BackendHashicorp,
		"service": serviceName,
		"mount":   b.mount,
	})

	secret, err := b.client.KVv2(b.mount).Get(ctx, serviceName)
	if err != nil {
		return nil, classifyError(serviceName, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, credman.NewInvalidSecretFormatError("secret has no data")
	}

	return credman.NewSecretRecord(serviceName, flattenData(secret.Data)), nil
}

// Close closes the backend. The Vault client holds no resources that
// outlive it.
func (b *Backend) Close(ctx context.Context) error {
	return nil
}

func classifyError(serviceName string, err error) error {
	if errors.Is(err, api.ErrSecretNotFound) {
		return credman.NewSecretNotFoundError(serviceName)
	}

	var respErr *api.ResponseError
	if errors.As(err, &respErr) {
		if respErr.StatusCode == 404 {
			return credman.NewSecretNotFoundError(serviceName)
		}
		// Forbidden, unauthorized, rate-limited, internal errors, and an
		// unavailable server all surface as generic backend faults.
		return credman.NewBackendOperationError(credman.BackendHashicorp, respErr.Error())
	}

	return credman.NewBackendOperationError(credman.BackendHashicorp, err.Error())
}

// flattenData converts KV data to string fields. Vault permits arbitrary
// JSON values; non-string values are formatted rather than dropped.
func flattenData(data map[string]interface{}) map[string]string {
	fields := make(map[string]string, len(data))
	for name, val := range data {
		switch v := val.(type) {
		case string:
			fields[name] = v
		default:
			fields[name] = fmt.Sprintf("%v", v)
		}
	}
	return fields
}
