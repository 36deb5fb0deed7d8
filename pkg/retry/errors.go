package retry

import "errors"

var (
	// ErrExecutorNil is returned when a queue is created without an executor.
	ErrExecutorNil = errors.New("retry: executor is nil")
)
