package channels_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/bus"
	"github.com/dmitrymomot/notifykit/pkg/channels"
	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/storage"
)

type recordingAlerter struct {
	notifications []notification.Notification
	durations     []time.Duration
}

func (a *recordingAlerter) Toast(n notification.Notification, d time.Duration) {
	a.notifications = append(a.notifications, n)
	a.durations = append(a.durations, d)
}

func TestInAppSenderAppendsAndPublishes(t *testing.T) {
	t.Parallel()

	store := storage.New()
	events := bus.New[notification.Notification]()

	var published []notification.Notification
	events.Subscribe(notification.EventNew, func(n notification.Notification) {
		published = append(published, n)
	})

	sender := channels.NewInAppSender(store, events)
	assert.Equal(t, notification.ChannelInApp, sender.Channel())

	ctx := context.Background()
	n := testNotification()
	require.NoError(t, sender.Send(ctx, n))

	stored, ok := store.Get(ctx, n.ID)
	require.True(t, ok)
	assert.Equal(t, n.Title, stored.Title)

	require.Len(t, published, 1)
	assert.Equal(t, n.ID, published[0].ID)
}

func TestInAppSenderToastDurations(t *testing.T) {
	t.Parallel()

	store := storage.New()
	events := bus.New[notification.Notification]()
	alerter := &recordingAlerter{}

	sender := channels.NewInAppSender(store, events, channels.WithAlerter(alerter))

	ctx := context.Background()
	for _, priority := range []notification.Priority{
		notification.PriorityUrgent,
		notification.PriorityHigh,
		notification.PriorityMedium,
		notification.PriorityLow,
	} {
		n := testNotification()
		n.ID = notification.NewID()
		n.Priority = priority
		require.NoError(t, sender.Send(ctx, n))
	}

	require.Len(t, alerter.durations, 4)
	assert.Equal(t, time.Duration(0), alerter.durations[0], "urgent toasts stay until dismissed")
	assert.Equal(t, 8*time.Second, alerter.durations[1])
	assert.Equal(t, 6*time.Second, alerter.durations[2])
	assert.Equal(t, 4*time.Second, alerter.durations[3])
}
