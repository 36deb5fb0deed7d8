// Package notification defines the core domain model shared by every
// part of the delivery engine: notification types, priorities, delivery
// channels, engine event names, and the toast-duration policy surfaced
// to UI layers.
//
// The package carries no behavior beyond the model itself so that
// storage, preference, dispatch, and engine packages can depend on it
// without pulling in each other.
package notification
