package notification_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

func TestTypeValid(t *testing.T) {
	t.Parallel()

	for _, typ := range notification.Types() {
		assert.True(t, typ.Valid(), "type %q should be valid", typ)
	}

	assert.False(t, notification.Type("").Valid())
	assert.False(t, notification.Type("marketing_blast").Valid())
}

func TestNewID(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})
	for range 100 {
		id := notification.NewID()
		require.NotEmpty(t, id)
		assert.Contains(t, id, "-")

		_, dup := seen[id]
		assert.False(t, dup, "duplicate id %q", id)
		seen[id] = struct{}{}
	}
}

func TestNewIDOrdering(t *testing.T) {
	t.Parallel()

	first := notification.NewID()
	time.Sleep(5 * time.Millisecond)
	second := notification.NewID()

	// Millisecond prefixes are comparable as strings while their width
	// stays constant, which holds for several centuries.
	assert.Less(t, strings.SplitN(first, "-", 2)[0], strings.SplitN(second, "-", 2)[0])
}

func TestToastDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		priority notification.Priority
		want     time.Duration
	}{
		{notification.PriorityUrgent, 0},
		{notification.PriorityHigh, 8 * time.Second},
		{notification.PriorityMedium, 6 * time.Second},
		{notification.PriorityLow, 4 * time.Second},
		{notification.Priority("unknown"), 4 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, notification.ToastDuration(tt.priority), "priority %q", tt.priority)
	}
}

func TestContainsChannel(t *testing.T) {
	t.Parallel()

	channels := []notification.Channel{notification.ChannelInApp, notification.ChannelEmail}
	assert.True(t, notification.ContainsChannel(channels, notification.ChannelEmail))
	assert.False(t, notification.ContainsChannel(channels, notification.ChannelSMS))
	assert.False(t, notification.ContainsChannel(nil, notification.ChannelInApp))
}

func TestMarkAsRead(t *testing.T) {
	t.Parallel()

	n := notification.Notification{ID: notification.NewID()}
	require.False(t, n.Read)
	n.MarkAsRead()
	assert.True(t, n.Read)
}
