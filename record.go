package credman

import (
	"strings"
	"time"
)

// SecretRecord is the normalized form of one service's secret: a flat
// mapping from credential names to string values. Records are immutable
// once constructed and are replaced wholesale when a different service is
// fetched.
type SecretRecord struct {
	// ServiceName is the case-insensitive identity of the service the
	// record belongs to. It is stored lowercased.
	ServiceName string
	// Fields maps credential names to their values. Lookups are
	// case-sensitive.
	Fields map[string]string
	// FetchedAt is the time the record was fetched from the backend.
	FetchedAt time.Time
}

// NewSecretRecord constructs a record for the given service with the given
// fields. The service name is lowercased; a nil field map becomes an empty
// one.
func NewSecretRecord(serviceName string, fields map[string]string) *SecretRecord {
	if fields == nil {
		fields = map[string]string{}
	}
	return &SecretRecord{
		ServiceName: strings.ToLower(serviceName),
		Fields:      fields,
		FetchedAt:   time.Now(),
	}
}

// Matches reports whether the record holds the secret for the given
// service. Matching is case-insensitive.
func (r *SecretRecord) Matches(serviceName string) bool {
	return strings.EqualFold(r.ServiceName, serviceName)
}

// Field returns the value of the named credential and whether it is
// present. Credential names are case-sensitive.
func (r *SecretRecord) Field(credentialName string) (string, bool) {
	val, ok := r.Fields[credentialName]
	return val, ok
}
