// Package bus provides a minimal in-process event bus with named
// events and callback subscribers.
//
// The engine publishes notification lifecycle events on a Bus; UI and
// transport layers subscribe to react to them. Handler failures are
// isolated: a panicking subscriber is recovered and logged without
// affecting other subscribers or the publisher.
//
//	b := bus.New[notification.Notification]()
//	unsubscribe := b.Subscribe(notification.EventNew, func(n notification.Notification) {
//	    // push to websocket, update badge, ...
//	})
//	defer unsubscribe()
package bus
