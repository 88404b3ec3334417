package usecases

import "errors"

var (
	// ErrBackpressure means no pool slot freed up within the acquire
	// timeout. The tick is dropped rather than queued.
	ErrBackpressure = errors.New("pool exhausted, tick dropped")

	// ErrWriteFailed means the insert kept failing after the retry budget
	// was spent. The tick is dropped.
	ErrWriteFailed = errors.New("write retries exhausted, tick dropped")
)
