package pool

import (
	"errors"
	"fmt"
)

var (
	// ErrPoolExhausted means every slot stayed busy for the whole acquire timeout.
	ErrPoolExhausted = errors.New("connection pool exhausted")
	// ErrPoolClosed means the pool is shutting down.
	ErrPoolClosed = errors.New("connection pool closed")
)

// AcquisitionError is returned when no usable connection could be obtained.
// It is distinct from a statement failing on a connection that was obtained.
type AcquisitionError struct {
	Err error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("failed to acquire connection: %v", e.Err)
}

func (e *AcquisitionError) Unwrap() error {
	return e.Err
}
