// Package engine is the public façade: producers call Send, the engine
// filters through preferences, resolves priority and channel overrides,
// and either dispatches immediately or queues the notification for the
// FIFO drain loop.
//
// Three background concerns run once Start is called: the drain sweep
// (with an opportunistic retention purge) and the retry-queue tick,
// each on its own ticker with clean shutdown through Shutdown. Send is
// safe for concurrent producers; submission order is preserved for
// queued sends. A disabled notification type is dropped silently, and
// initialization degrades to defaults rather than failing the host.
package engine
