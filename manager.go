package credman

import (
	"context"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// Manager resolves credential requests against a single SecretBackend. It
// retains at most one normalized SecretRecord: repeated lookups within the
// same service reuse the cached record, and requesting a different service
// discards it and fetches fresh. Records are never re-validated while
// cached, so a secret changed at the backend during the manager's lifetime
// is served stale until the service changes.
//
// A Manager is not safe for concurrent use; callers sharing one instance
// across goroutines must serialize access themselves.
type Manager struct {
	backend SecretBackend
	record  *SecretRecord
}

// NewManager creates a manager that serves credentials from the given
// backend.
func NewManager(backend SecretBackend) (*Manager, error) {
	if backend == nil {
		return nil, errors.New("must provide a backend")
	}
	return &Manager{backend: backend}, nil
}

// GetSecret returns the value of the named credential within the named
// service's secret. The service's secret is fetched from the backend only
// if it is not already cached. A service whose secret exists but lacks the
// credential yields a CredentialNotFoundError, distinct from the
// SecretNotFoundError for an absent service.
func (m *Manager) GetSecret(ctx context.Context, serviceName, credentialName string) (string, error) {
	if m.record == nil || !m.record.Matches(serviceName) {
		record, err := m.backend.FetchSecret(ctx, serviceName)
		if err != nil {
			return "", errors.Wrapf(err, "fetching secret for service '%s'", serviceName)
		}
		m.record = record

		grip.Debug(message.Fields{
			"message": "cached secret record",
			"service": record.ServiceName,
			"fields":  len(record.Fields),
		})
	}

	val, ok := m.record.Field(credentialName)
	if !ok {
		return "", NewCredentialNotFoundError(serviceName, credentialName)
	}

	return val, nil
}

// Close closes the underlying backend.
func (m *Manager) Close(ctx context.Context) error {
	return m.backend.Close(ctx)
}
