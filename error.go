package credman

import (
	"errors"
	"fmt"
)

// InvalidCredentialsError indicates that the identity or secret supplied to
// authenticate against a backend was rejected. It is not retryable without
// new input.
type InvalidCredentialsError struct {
	Backend BackendName
}

// NewInvalidCredentialsError returns a new error indicating that the given
// backend rejected the supplied credentials.
func NewInvalidCredentialsError(backend BackendName) *InvalidCredentialsError {
	return &InvalidCredentialsError{Backend: backend}
}

func (e *InvalidCredentialsError) Error() string {
	return fmt.Sprintf("invalid credentials for backend '%s'", e.Backend)
}

// IsInvalidCredentialsError returns whether the error or any error it wraps
// is an InvalidCredentialsError.
func IsInvalidCredentialsError(err error) bool {
	var icErr *InvalidCredentialsError
	return errors.As(err, &icErr)
}

// SessionNotFoundError indicates that no valid session could be established
// against a backend after authentication was attempted. Callers must
// reconstruct the manager to recover.
type SessionNotFoundError struct {
	Reason string
}

// NewSessionNotFoundError returns a new error indicating that no session
// could be established for the given reason.
func NewSessionNotFoundError(reason string) *SessionNotFoundError {
	return &SessionNotFoundError{Reason: reason}
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("no valid session: %s", e.Reason)
}

// IsSessionNotFoundError returns whether the error or any error it wraps is
// a SessionNotFoundError.
func IsSessionNotFoundError(err error) bool {
	var snfErr *SessionNotFoundError
	return errors.As(err, &snfErr)
}

// BackendToolError indicates that an external backend tool failed
// structurally: a non-zero exit code, a missing executable, or empty output
// where output was required. Stderr context is preserved when available.
type BackendToolError struct {
	Op     string
	Stderr string
}

// NewBackendToolError returns a new error for a failed tool operation with
// the captured stderr, which may be empty.
func NewBackendToolError(op, stderr string) *BackendToolError {
	return &BackendToolError{Op: op, Stderr: stderr}
}

func (e *BackendToolError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("backend tool operation '%s' failed", e.Op)
	}
	return fmt.Sprintf("backend tool operation '%s' failed: %s", e.Op, e.Stderr)
}

// IsBackendToolError returns whether the error or any error it wraps is a
// BackendToolError.
func IsBackendToolError(err error) bool {
	var btErr *BackendToolError
	return errors.As(err, &btErr)
}

// SecretNotFoundError indicates that the named service, path, or item does
// not exist at the backend. It is distinct from tool and transport errors
// so callers can tell "absent" apart from "broken".
type SecretNotFoundError struct {
	ServiceName string
}

// NewSecretNotFoundError returns a new error indicating that no secret
// exists for the named service.
func NewSecretNotFoundError(serviceName string) *SecretNotFoundError {
	return &SecretNotFoundError{ServiceName: serviceName}
}

func (e *SecretNotFoundError) Error() string {
	return fmt.Sprintf("secret for service '%s' not found", e.ServiceName)
}

// IsSecretNotFoundError returns whether the error or any error it wraps is
// a SecretNotFoundError.
func IsSecretNotFoundError(err error) bool {
	var snfErr *SecretNotFoundError
	return errors.As(err, &snfErr)
}

// CredentialNotFoundError indicates that the service's secret exists but
// does not contain the requested credential field.
type CredentialNotFoundError struct {
	ServiceName    string
	CredentialName string
}

// NewCredentialNotFoundError returns a new error indicating that the named
// credential is absent from the service's secret.
func NewCredentialNotFoundError(serviceName, credentialName string) *CredentialNotFoundError {
	return &CredentialNotFoundError{
		ServiceName:    serviceName,
		CredentialName: credentialName,
	}
}

func (e *CredentialNotFoundError) Error() string {
	return fmt.Sprintf("credential '%s' not found in service '%s'", e.CredentialName, e.ServiceName)
}

// IsCredentialNotFoundError returns whether the error or any error it wraps
// is a CredentialNotFoundError.
func IsCredentialNotFoundError(err error) bool {
	var cnfErr *CredentialNotFoundError
	return errors.As(err, &cnfErr)
}

// InvalidSecretFormatError indicates that a backend returned a payload that
// could not be parsed into the expected structure.
type InvalidSecretFormatError struct {
	Reason string
}

// NewInvalidSecretFormatError returns a new error indicating that a secret
// payload was malformed for the given reason.
func NewInvalidSecretFormatError(reason string) *InvalidSecretFormatError {
	return &InvalidSecretFormatError{Reason: reason}
}

func (e *InvalidSecretFormatError) Error() string {
	return fmt.Sprintf("invalid secret format: %s", e.Reason)
}

// IsInvalidSecretFormatError returns whether the error or any error it
// wraps is an InvalidSecretFormatError.
func IsInvalidSecretFormatError(err error) bool {
	var isfErr *InvalidSecretFormatError
	return errors.As(err, &isfErr)
}

// BackendOperationError is the catch-all for backend-reported faults not
// covered by a more specific kind, such as forbidden, rate-limited,
// internal error, or service unavailable. Backend-specific detail is
// preserved in the message.
type BackendOperationError struct {
	Backend BackendName
	Detail  string
}

// NewBackendOperationError returns a new generic backend fault with the
// given backend-specific detail.
func NewBackendOperationError(backend BackendName, detail string) *BackendOperationError {
	return &BackendOperationError{Backend: backend, Detail: detail}
}

func (e *BackendOperationError) Error() string {
	return fmt.Sprintf("backend '%s' operation failed: %s", e.Backend, e.Detail)
}

// IsBackendOperationError returns whether the error or any error it wraps
// is a BackendOperationError.
func IsBackendOperationError(err error) bool {
	var boErr *BackendOperationError
	return errors.As(err, &boErr)
}
