package preferences

import "errors"

var (
	// ErrRemoteSyncFailed wraps a remote push failure after a successful
	// local merge; callers may surface "saved locally, sync pending".
	ErrRemoteSyncFailed = errors.New("preferences: remote sync failed")
	// ErrUnknownType is returned for updates referencing a type outside
	// the supported set.
	ErrUnknownType = errors.New("preferences: unknown notification type")
)
