// Package storage implements the bounded notification log that serves
// as the source of truth for stored notifications and their read state.
//
// The log is in-memory and capped at 100 entries with oldest-first
// eviction. Every mutation is written back as one JSON document to a
// kv.Store under the "notifications" key; write-back failures degrade
// to log-and-continue, never to a caller-visible error.
package storage
