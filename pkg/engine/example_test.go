package engine_test

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/bus"
	"github.com/dmitrymomot/notifykit/pkg/channels"
	"github.com/dmitrymomot/notifykit/pkg/dispatch"
	"github.com/dmitrymomot/notifykit/pkg/engine"
	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/storage"
)

func Example() {
	ctx := context.Background()

	// Shared state: the notification log and the event bus.
	store := storage.New()
	events := bus.New[notification.Notification]()

	// Wire the dispatcher with the channels this deployment supports.
	dispatcher, err := dispatch.New(
		dispatch.WithSender(channels.NewInAppSender(store, events)),
		dispatch.WithStore(store),
		dispatch.WithBus(events),
	)
	if err != nil {
		panic(err)
	}

	eng, err := engine.New(engine.Config{}, dispatcher,
		engine.WithStore(store),
		engine.WithBus(events),
	)
	if err != nil {
		panic(err)
	}

	unsubscribe := eng.Subscribe(notification.EventNew, func(n notification.Notification) {
		fmt.Printf("new notification: %s\n", n.Title)
	})
	defer unsubscribe()

	if err := eng.Start(ctx); err != nil {
		panic(err)
	}

	_, err = eng.Send(ctx, engine.SendInput{
		Type:      notification.TypePaymentSuccess,
		Title:     "Payment received",
		Message:   "Your payment of $25.00 was processed",
		Immediate: true,
	})
	if err != nil {
		panic(err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = eng.Shutdown(shutdownCtx)

	fmt.Printf("unread: %d\n", eng.Stats(ctx).Unread)
	// Output:
	// new notification: Payment received
	// unread: 1
}
