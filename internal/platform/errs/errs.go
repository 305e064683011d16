// Package errs defines the error taxonomy shared by all domain services.
// Services wrap these sentinels with %w; HTTP handlers map them to status
// codes with errors.Is.
package errs

import "errors"

var (
	// ErrValidation marks malformed or missing input, rejected before any mutation.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a referenced entity that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStateConflict marks an operation that is illegal for the entity's
	// current state, e.g. editing a submitted claim or mutating a
	// system-posted payment.
	ErrStateConflict = errors.New("state conflict")

	// ErrForbiddenRole marks an assignment to a user whose role is not in the
	// permitted set.
	ErrForbiddenRole = errors.New("forbidden role")

	// ErrExternal marks a clearinghouse gateway timeout or error. Entity
	// state is unchanged when this is returned.
	ErrExternal = errors.New("external gateway failure")

	// ErrParse marks malformed remittance content. The whole ingestion fails;
	// no partial claim details are persisted.
	ErrParse = errors.New("parse failure")

	// ErrPersistence marks a storage transaction failure after rollback.
	ErrPersistence = errors.New("persistence failure")
)
