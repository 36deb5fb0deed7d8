package engine

import "errors"

var (
	// ErrUnknownType is returned by Send for a type outside the
	// supported set.
	ErrUnknownType = errors.New("engine: unknown notification type")
	// ErrNilDispatcher is returned by New without a dispatcher.
	ErrNilDispatcher = errors.New("engine: dispatcher is required")
	// ErrAlreadyStarted is returned by Start on a running engine.
	ErrAlreadyStarted = errors.New("engine: already started")
)
