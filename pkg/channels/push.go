package channels

import (
	"context"
	"sync"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// PushProvider delivers a push message to a registered device token.
type PushProvider interface {
	Push(ctx context.Context, token string, n notification.Notification) error
}

// PushProviderFunc adapts a function to the PushProvider interface.
type PushProviderFunc func(ctx context.Context, token string, n notification.Notification) error

func (f PushProviderFunc) Push(ctx context.Context, token string, n notification.Notification) error {
	return f(ctx, token, n)
}

// PushSender delivers through a push provider once a device token has
// been registered. Without a token, Send returns ErrPushNotRegistered
// and the caller skips the channel silently.
type PushSender struct {
	mu       sync.RWMutex
	token    string
	provider PushProvider
}

// NewPushSender creates a push sender around the given provider.
func NewPushSender(provider PushProvider) *PushSender {
	return &PushSender{provider: provider}
}

func (s *PushSender) Channel() notification.Channel {
	return notification.ChannelPush
}

// RegisterToken sets the device token push deliveries go to. The last
// registered token wins.
func (s *PushSender) RegisterToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// UnregisterToken clears the device token; subsequent sends are
// skipped.
func (s *PushSender) UnregisterToken() {
	s.RegisterToken("")
}

// Registered reports whether a device token is currently set.
func (s *PushSender) Registered() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

func (s *PushSender) Send(ctx context.Context, n notification.Notification) error {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	if token == "" || s.provider == nil {
		return ErrPushNotRegistered
	}
	return s.provider.Push(ctx, token, n)
}
