package domain

import "errors"

var (
	// ErrValidation marks caller input errors.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks missing credentials or records.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks state transitions that are no longer allowed.
	ErrConflict = errors.New("conflict")
	// ErrExpired marks a credential that exists but is past its validity.
	// Distinct from ErrNotFound: remediation is "reconnect", not "connect".
	ErrExpired = errors.New("credential expired")
	// ErrPersistenceUnavailable marks a write that failed on both the remote
	// store and the local fallback.
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
)

// FailureKind is the platform-agnostic error taxonomy carried in dispatch
// results and API responses.
type FailureKind string

const (
	FailureNotFound               FailureKind = "NOT_FOUND"
	FailureExpired                FailureKind = "AUTH_EXPIRED"
	FailureRateLimited            FailureKind = "RATE_LIMITED"
	FailureInvalidContent         FailureKind = "INVALID_CONTENT"
	FailureTransientNetwork       FailureKind = "TRANSIENT_NETWORK"
	FailurePersistenceUnavailable FailureKind = "PERSISTENCE_UNAVAILABLE"
)

func (k FailureKind) String() string { return string(k) }

// Retryable reports whether a caller may safely retry the whole operation.
func (k FailureKind) Retryable() bool {
	return k == FailureRateLimited || k == FailureTransientNetwork
}
