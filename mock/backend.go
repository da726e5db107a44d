package mock

import (
	"context"

	"github.com/grimoirelab/credman"
)

// SecretBackend provides a mock implementation of a credman.SecretBackend.
// This makes it possible to introspect on the services that were fetched
// and control the backend's output.
type SecretBackend struct {
	// FetchSecretInputs records the service name of every fetch, in
	// order.
	FetchSecretInputs []string
	FetchSecretOutput *credman.SecretRecord
	FetchSecretError  error

	CloseCalls int
	CloseError error
}

// FetchSecret records the service name and returns the scripted output. By
// default, it returns a record for the requested service with no fields.
func (b *SecretBackend) FetchSecret(ctx context.Context, serviceName string) (*credman.SecretRecord, error) {
	b.FetchSecretInputs = append(b.FetchSecretInputs, serviceName)

	if b.FetchSecretOutput != nil || b.FetchSecretError != nil {
		return b.FetchSecretOutput, b.FetchSecretError
	}

	return credman.NewSecretRecord(serviceName, map[string]string{}), nil
}

// NumFetches returns how many fetches were issued against the backend.
func (b *SecretBackend) NumFetches() int {
	return len(b.FetchSecretInputs)
}

// Close counts calls and returns the scripted error, if any.
func (b *SecretBackend) Close(ctx context.Context) error {
	b.CloseCalls++
	return b.CloseError
}
