package channels

import (
	"context"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/bus"
	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/storage"
)

// Alerter surfaces a notification to the user immediately, typically as
// a toast. Duration zero means the alert stays until dismissed.
type Alerter interface {
	Toast(n notification.Notification, duration time.Duration)
}

// InAppSender delivers to the local notification log and announces the
// arrival on the event bus. It is the one channel that cannot fail:
// the append is in-memory and persistence is best-effort.
type InAppSender struct {
	store   *storage.Store
	events  *bus.Bus[notification.Notification]
	alerter Alerter
}

// InAppOption configures an InAppSender.
type InAppOption func(*InAppSender)

// WithAlerter sets the immediate-display hook. Urgent notifications get
// an indefinite toast; lower priorities auto-dismiss.
func WithAlerter(a Alerter) InAppOption {
	return func(s *InAppSender) {
		s.alerter = a
	}
}

// NewInAppSender creates the in-app channel sender.
func NewInAppSender(store *storage.Store, events *bus.Bus[notification.Notification], opts ...InAppOption) *InAppSender {
	s := &InAppSender{
		store:  store,
		events: events,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InAppSender) Channel() notification.Channel {
	return notification.ChannelInApp
}

// Send appends the notification to the log, publishes the new-arrival
// event, and pops a toast when an alerter is configured.
func (s *InAppSender) Send(ctx context.Context, n notification.Notification) error {
	s.store.Append(ctx, n)
	s.events.Publish(ctx, notification.EventNew, n)

	if s.alerter != nil {
		s.alerter.Toast(n, notification.ToastDuration(n.Priority))
	}
	return nil
}
