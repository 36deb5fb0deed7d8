package bus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/logger"
)

// Handler receives a published payload. Handlers run synchronously in
// publish order; a panicking handler is recovered and logged so it
// never prevents the remaining handlers from running.
type Handler[T any] func(payload T)

// Bus is an in-process, named-event callback bus. All methods are safe
// for concurrent use.
type Bus[T any] struct {
	mu       sync.RWMutex
	handlers map[string]map[string]Handler[T] // event -> subscriber id -> handler
	closed   bool
	logger   *slog.Logger
}

// Option configures a Bus.
type Option[T any] func(*Bus[T])

// WithLogger sets the logger used to report recovered handler panics.
func WithLogger[T any](log *slog.Logger) Option[T] {
	return func(b *Bus[T]) {
		if log != nil {
			b.logger = log
		}
	}
}

// New creates an event bus.
func New[T any](opts ...Option[T]) *Bus[T] {
	b := &Bus[T]{
		handlers: make(map[string]map[string]Handler[T]),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a handler for the named event and returns an
// unsubscribe function. Multiple handlers per event are supported.
// Subscribing to a closed bus returns a no-op unsubscribe and the
// handler will never fire.
func (b *Bus[T]) Subscribe(event string, fn Handler[T]) func() {
	if fn == nil {
		return func() {}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}

	subs, ok := b.handlers[event]
	if !ok {
		subs = make(map[string]Handler[T])
		b.handlers[event] = subs
	}

	id := uuid.New().String()
	subs[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if subs, ok := b.handlers[event]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(b.handlers, event)
			}
		}
	}
}

// Publish delivers the payload to every handler subscribed to the
// event. Handler panics are recovered and logged, never propagated, so
// one faulty subscriber cannot starve the others.
func (b *Bus[T]) Publish(ctx context.Context, event string, payload T) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	subs := b.handlers[event]
	snapshot := make([]Handler[T], 0, len(subs))
	for _, fn := range subs {
		snapshot = append(snapshot, fn)
	}
	b.mu.RUnlock()

	for _, fn := range snapshot {
		b.invoke(ctx, event, fn, payload)
	}
}

func (b *Bus[T]) invoke(ctx context.Context, event string, fn Handler[T], payload T) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.LogAttrs(ctx, slog.LevelError, "event handler panicked",
				logger.Event(event),
				slog.Any("panic", r),
			)
		}
	}()
	fn(payload)
}

// SubscriberCount returns the number of handlers registered for the event.
func (b *Bus[T]) SubscriberCount(event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[event])
}

// Close drops all subscriptions. Publish and Subscribe become no-ops.
// Close is idempotent.
func (b *Bus[T]) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	clear(b.handlers)
	return nil
}
