package kv

import "errors"

var (
	// ErrKeyNotFound is returned when the requested key does not exist.
	ErrKeyNotFound = errors.New("kv: key not found")
	// ErrFailedToParseConnString is returned for malformed Redis URLs.
	ErrFailedToParseConnString = errors.New("kv: failed to parse redis connection string")
	// ErrRedisNotReady is returned when the Redis server cannot be reached
	// within the configured retry budget.
	ErrRedisNotReady = errors.New("kv: redis server is not ready")
)
