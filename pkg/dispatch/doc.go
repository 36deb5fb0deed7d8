// Package dispatch fans notifications out to their channels.
//
// Each channel attempt runs in its own goroutine under a per-send
// timeout, so a slow or failing transport never blocks the others.
// Failures are normalized by the classifier; retryable ones are handed
// to an owned retry queue as serializable intents, and the dispatcher
// itself acts as the queue's executor when a sweep re-attempts them.
// Once every channel attempt has resolved, success or not, the
// notification is marked delivered in the store and a delivered event
// is published on the bus.
package dispatch
