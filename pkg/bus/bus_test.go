package bus_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/bus"
)

func TestSubscribePublish(t *testing.T) {
	t.Parallel()

	b := bus.New[string]()
	defer b.Close()

	var got []string
	b.Subscribe("greeting", func(s string) { got = append(got, s) })

	b.Publish(context.Background(), "greeting", "hello")
	b.Publish(context.Background(), "greeting", "world")

	assert.Equal(t, []string{"hello", "world"}, got)
}

func TestMultipleSubscribers(t *testing.T) {
	t.Parallel()

	b := bus.New[int]()
	defer b.Close()

	var a, c int
	b.Subscribe("tick", func(v int) { a += v })
	b.Subscribe("tick", func(v int) { c += v })

	b.Publish(context.Background(), "tick", 5)

	assert.Equal(t, 5, a)
	assert.Equal(t, 5, c)
	assert.Equal(t, 2, b.SubscriberCount("tick"))
}

func TestUnsubscribe(t *testing.T) {
	t.Parallel()

	b := bus.New[int]()
	defer b.Close()

	var calls int
	unsubscribe := b.Subscribe("tick", func(int) { calls++ })

	b.Publish(context.Background(), "tick", 1)
	unsubscribe()
	b.Publish(context.Background(), "tick", 1)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, b.SubscriberCount("tick"))
}

func TestPanickingHandlerIsIsolated(t *testing.T) {
	t.Parallel()

	b := bus.New[string]()
	defer b.Close()

	var survived bool
	b.Subscribe("evt", func(string) { panic("subscriber bug") })
	b.Subscribe("evt", func(string) { survived = true })

	require.NotPanics(t, func() {
		b.Publish(context.Background(), "evt", "payload")
	})
	assert.True(t, survived, "second handler should run despite first panicking")
}

func TestPublishUnknownEvent(t *testing.T) {
	t.Parallel()

	b := bus.New[string]()
	defer b.Close()

	assert.NotPanics(t, func() {
		b.Publish(context.Background(), "nobody-listens", "payload")
	})
}

func TestClosedBus(t *testing.T) {
	t.Parallel()

	b := bus.New[string]()
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	var called bool
	unsubscribe := b.Subscribe("evt", func(string) { called = true })
	b.Publish(context.Background(), "evt", "x")

	assert.False(t, called)
	assert.NotPanics(t, unsubscribe)
}

func TestConcurrentPublishSubscribe(t *testing.T) {
	t.Parallel()

	b := bus.New[int]()
	defer b.Close()

	var mu sync.Mutex
	total := 0
	b.Subscribe("n", func(v int) {
		mu.Lock()
		total += v
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				b.Publish(context.Background(), "n", 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1000, total)
}
