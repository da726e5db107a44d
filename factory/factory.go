/*
Package factory routes a backend selection to a constructed Manager. It is
the only package that knows how to build every backend variant, so callers
can go from a (backend name, configuration) pair to a working Manager in
one call.
*/
package factory

import (
	"context"

	"github.com/grimoirelab/credman"
	"github.com/grimoirelab/credman/awssm"
	"github.com/grimoirelab/credman/awsutil"
	"github.com/grimoirelab/credman/bitwarden"
	"github.com/grimoirelab/credman/hcvault"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// Options select a backend and carry the configuration to construct it.
// Only the options matching the selected backend are required.
type Options struct {
	// Backend is the name of the backend to construct.
	Backend credman.BackendName
	// AWS configures the AWS Secrets Manager backend.
	AWS *awsutil.ClientOptions
	// Hashicorp configures the HashiCorp Vault backend.
	Hashicorp *hcvault.BackendOptions
	// Bitwarden configures the Bitwarden CLI backend.
	Bitwarden *bitwarden.BackendOptions
}

// NewOptions returns new unconfigured options.
func NewOptions() *Options {
	return &Options{}
}

// SetBackend sets the backend to construct.
func (o *Options) SetBackend(name credman.BackendName) *Options {
	o.Backend = name
	return o
}

// SetAWS sets the AWS Secrets Manager configuration.
func (o *Options) SetAWS(opts *awsutil.ClientOptions) *Options {
	o.AWS = opts
	return o
}

// SetHashicorp sets the HashiCorp Vault configuration.
func (o *Options) SetHashicorp(opts *hcvault.BackendOptions) *Options {
	o.Hashicorp = opts
	return o
}

// SetBitwarden sets the Bitwarden CLI configuration.
func (o *Options) SetBitwarden(opts *bitwarden.BackendOptions) *Options {
	o.Bitwarden = opts
	return o
}

// Validate checks that the backend name is supported and that the
// configuration for the selected backend is given.
func (o *Options) Validate() error {
	catcher := grip.NewBasicCatcher()
	catcher.Add(o.Backend.Validate())
	catcher.NewWhen(o.Backend == credman.BackendAWS && o.AWS == nil, "must provide AWS options")
	catcher.NewWhen(o.Backend == credman.BackendHashicorp && o.Hashicorp == nil, "must provide Vault options")
	catcher.NewWhen(o.Backend == credman.BackendBitwarden && o.Bitwarden == nil, "must provide Bitwarden options")
	return catcher.Resolve()
}

// NewManager constructs the backend selected by the options and wraps it in
// a Manager. Construction fails fast on missing configuration, an
// unreachable endpoint, or a missing executable, before any fetch is
// attempted.
func NewManager(ctx context.Context, opts Options) (*credman.Manager, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid options")
	}

	grip.Debug(message.Fields{
		"message": "constructing credential manager",
		"backend": opts.Backend,
	})

	backend, err := newBackend(ctx, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "constructing '%s' backend", opts.Backend)
	}

	return credman.NewManager(backend)
}

func newBackend(ctx context.Context, opts Options) (credman.SecretBackend, error) {
	switch opts.Backend {
	case credman.BackendAWS:
		client, err := awssm.NewBasicSecretsManagerClient(ctx, *opts.AWS)
		if err != nil {
			return nil, errors.Wrap(err, "creating Secrets Manager client")
		}
		return awssm.NewBackend(*awssm.NewBackendOptions().SetClient(client))
	case credman.BackendHashicorp:
		return hcvault.NewBackend(ctx, *opts.Hashicorp)
	case credman.BackendBitwarden:
		return bitwarden.NewBackend(*opts.Bitwarden)
	default:
		return nil, errors.Errorf("unsupported backend '%s'", opts.Backend)
	}
}
