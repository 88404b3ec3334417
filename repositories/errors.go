package repositories

import "errors"

var (
	// ErrStorageUnavailable means the sink could not be reached or the
	// round-trip failed. Fatal at startup, reported during steady state.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrConstraintViolation means the record breaks the table contract,
	// e.g. a signal_type outside the closed set. Given upstream validation
	// this indicates a programming error and is never retried.
	ErrConstraintViolation = errors.New("constraint violation")
)
