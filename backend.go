package credman

import (
	"context"

	"github.com/pkg/errors"
)

// BackendName identifies one of the supported secret backends.
type BackendName string

const (
	// BackendAWS retrieves secrets from AWS Secrets Manager.
	BackendAWS BackendName = "aws"
	// BackendHashicorp retrieves secrets from a HashiCorp Vault KV v2
	// secrets engine.
	BackendHashicorp BackendName = "hashicorp"
	// BackendBitwarden retrieves secrets from a Bitwarden vault through the
	// bw command-line tool.
	BackendBitwarden BackendName = "bitwarden"
)

// Validate checks that the backend name is one of the supported backends.
func (n BackendName) Validate() error {
	switch n {
	case BackendAWS, BackendHashicorp, BackendBitwarden:
		return nil
	default:
		return errors.Errorf("unsupported backend '%s'", string(n))
	}
}

// SecretBackend fetches whole secrets from a single secret storage service
// and normalizes them into flat SecretRecords. Implementations classify
// their service-specific faults into the error kinds defined in this
// package, so callers can distinguish an absent secret from a broken
// backend without knowing which backend they are talking to.
type SecretBackend interface {
	// FetchSecret retrieves all fields of the named service's secret.
	// Service name matching is case-insensitive where the backend supports
	// searching by name. It returns a SecretNotFoundError if no secret
	// exists under the given name.
	FetchSecret(ctx context.Context, serviceName string) (*SecretRecord, error)
	// Close closes the backend and cleans up its resources. Implementations
	// should ensure that this is idempotent. Closing never revokes
	// authentication state persisted outside the process.
	Close(ctx context.Context) error
}
