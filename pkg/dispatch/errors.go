package dispatch

import (
	"fmt"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// senderPanicError wraps a recovered sender panic so it flows through
// classification like any other failure.
type senderPanicError struct {
	channel notification.Channel
	value   any
}

func (e *senderPanicError) Error() string {
	return fmt.Sprintf("sender for channel %q panicked: %v", e.channel, e.value)
}
