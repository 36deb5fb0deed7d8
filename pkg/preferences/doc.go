// Package preferences holds the per-notification-type delivery policy:
// whether a type is enabled, which channels it uses, and its default
// priority.
//
// The Registry seeds itself from a hard-coded default table, overlays
// locally persisted and remotely fetched preferences at Load, and
// accepts partial per-type updates. Updates follow a local-wins,
// remote-best-effort policy: the merge is applied and persisted locally
// even when the remote push fails, and the failure is surfaced as
// ErrRemoteSyncFailed so a UI can show "saved locally, sync pending".
package preferences
