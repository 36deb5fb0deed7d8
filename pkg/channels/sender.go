package channels

import (
	"context"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// Sender delivers a notification over one transport. Implementations
// perform a single delivery attempt; retry scheduling belongs to the
// caller.
type Sender interface {
	// Channel identifies the transport this sender serves.
	Channel() notification.Channel

	// Send performs one delivery attempt. Returned errors should be
	// rich enough for classification: HTTP transports return
	// *classifier.HTTPError for non-2xx responses.
	Send(ctx context.Context, n notification.Notification) error
}
