package application

import "errors"

var (
	// ErrNilFactory is returned when an engine is built without a client factory.
	ErrNilFactory = errors.New("client factory is required")

	// ErrInvalidBatchCommitSize is returned when the commit slice size is not positive.
	ErrInvalidBatchCommitSize = errors.New("batch commit size must be positive")

	// ErrPanic wraps a panic recovered from a replication cycle.
	ErrPanic = errors.New("replication cycle panicked")
)

// rootCause returns the innermost error of a wrap chain.
func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
