// Package retry holds classified delivery failures and re-executes
// them on a fixed tick with exponential backoff.
//
// Failed deliveries are queued as Intent values: plain, serializable
// descriptions of the notification and channel to retry, executed
// through an Executor interface rather than opaque closures. Backoff
// follows a deterministic 1s, 2s, 4s, ... schedule capped at 30s, and
// the attempt budget depends on the failure category: network and
// server faults get three attempts, payment faults two, anything else
// one.
//
// Tick is self-serializing: a sweep that is still running when the next
// timer fires is skipped, never run twice concurrently.
package retry
