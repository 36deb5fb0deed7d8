// Package kv provides the key/value persistence boundary for the
// notification engine's durable state: the bounded notification log and
// the per-type preference table.
//
// Two implementations ship with the package: MemoryStore for tests and
// development, and RedisStore for production, the latter with a
// retrying Connect helper. Values are opaque byte slices; the storage
// and preferences packages serialize their own JSON onto them, keeping
// the layout format-agnostic at this boundary.
package kv
