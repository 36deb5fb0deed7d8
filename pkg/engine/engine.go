package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/bus"
	"github.com/dmitrymomot/notifykit/pkg/dispatch"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/preferences"
	"github.com/dmitrymomot/notifykit/pkg/retry"
	"github.com/dmitrymomot/notifykit/pkg/storage"
)

// Config holds the engine's background schedule. All intervals have
// production defaults and are overridable via environment.
type Config struct {
	DrainInterval  time.Duration `env:"NOTIFY_DRAIN_INTERVAL" envDefault:"10s"`
	RetryInterval  time.Duration `env:"NOTIFY_RETRY_INTERVAL" envDefault:"5s"`
	PurgeInterval  time.Duration `env:"NOTIFY_PURGE_INTERVAL" envDefault:"24h"`
	PurgeRetention time.Duration `env:"NOTIFY_PURGE_RETENTION" envDefault:"720h"`
	RequeueLimit   int           `env:"NOTIFY_REQUEUE_LIMIT" envDefault:"3"`
	RequeueDelay   time.Duration `env:"NOTIFY_REQUEUE_DELAY" envDefault:"5s"`
}

// SendInput is the inbound event contract. Priority and Channels are
// optional overrides; when absent the type's preference supplies them.
type SendInput struct {
	Type      notification.Type
	Title     string
	Message   string
	Data      map[string]any
	Priority  notification.Priority
	Channels  []notification.Channel
	Immediate bool
}

// queuedItem is one FIFO entry with its outer re-queue bookkeeping.
type queuedItem struct {
	n         notification.Notification
	attempts  int
	notBefore time.Time
}

// Dispatcher is the fan-out seam the engine drives.
// *dispatch.Dispatcher is the production implementation.
type Dispatcher interface {
	Dispatch(ctx context.Context, n notification.Notification) []dispatch.Outcome
	RetryTick(ctx context.Context)
	QueueStats() retry.Stats
}

// Engine ties the preference registry, store, dispatcher and event bus
// together behind Send. Construct one per process and pass it to
// producers explicitly; there is no package-level instance.
type Engine struct {
	cfg        Config
	prefs      *preferences.Registry
	store      *storage.Store
	dispatcher Dispatcher
	events     *bus.Bus[notification.Notification]
	logger     *slog.Logger

	mu    sync.Mutex
	queue []queuedItem
	wake  chan struct{}

	started   atomic.Bool
	lastPurge time.Time
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

// WithPreferences sets the preference registry. Defaults to a registry
// with the hard-coded table and no persistence.
func WithPreferences(prefs *preferences.Registry) Option {
	return func(e *Engine) {
		if prefs != nil {
			e.prefs = prefs
		}
	}
}

// WithStore sets the notification log. Defaults to an in-memory store.
func WithStore(store *storage.Store) Option {
	return func(e *Engine) {
		if store != nil {
			e.store = store
		}
	}
}

// WithBus sets the event bus. Defaults to a fresh bus. Pass the same
// bus the dispatcher publishes on so subscribers see delivered events.
func WithBus(events *bus.Bus[notification.Notification]) Option {
	return func(e *Engine) {
		if events != nil {
			e.events = events
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.logger = log
		}
	}
}

// New creates an engine around the given dispatcher.
func New(cfg Config, dispatcher Dispatcher, opts ...Option) (*Engine, error) {
	if dispatcher == nil {
		return nil, ErrNilDispatcher
	}
	if cfg.DrainInterval <= 0 {
		cfg.DrainInterval = 10 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 5 * time.Second
	}
	if cfg.PurgeInterval <= 0 {
		cfg.PurgeInterval = 24 * time.Hour
	}
	if cfg.PurgeRetention <= 0 {
		cfg.PurgeRetention = storage.DefaultRetention
	}
	if cfg.RequeueLimit <= 0 {
		cfg.RequeueLimit = 3
	}
	if cfg.RequeueDelay <= 0 {
		cfg.RequeueDelay = 5 * time.Second
	}

	e := &Engine{
		cfg:        cfg,
		dispatcher: dispatcher,
		logger:     slog.Default(),
		wake:       make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.prefs == nil {
		e.prefs = preferences.NewRegistry()
	}
	if e.store == nil {
		e.store = storage.New()
	}
	if e.events == nil {
		e.events = bus.New[notification.Notification]()
	}
	return e, nil
}

// Start hydrates persisted state and launches the background loops.
// Hydration failures are logged and the engine continues on defaults;
// startup never fails because a cache could not be read.
func (e *Engine) Start(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	if err := e.store.Load(ctx); err != nil {
		e.logger.LogAttrs(ctx, slog.LevelWarn, "failed to load notification log, starting empty",
			logger.Component("engine"),
			logger.Error(err))
	}
	e.prefs.Load(ctx)

	loopCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	e.wg.Add(2)
	go e.drainLoop(loopCtx)
	go e.retryLoop(loopCtx)

	e.logger.LogAttrs(ctx, slog.LevelInfo, "notification engine started",
		logger.Component("engine"),
		slog.Duration("drain_interval", e.cfg.DrainInterval),
		slog.Duration("retry_interval", e.cfg.RetryInterval))
	return nil
}

// Shutdown stops the background loops and waits for in-flight work to
// finish, bounded by the context deadline. In-flight dispatches are
// allowed to complete; nothing is hard-aborted.
func (e *Engine) Shutdown(ctx context.Context) error {
	if !e.started.CompareAndSwap(true, false) {
		return nil
	}
	e.cancel()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("engine shutdown: %w", ctx.Err())
	}
}

// Send accepts a producer event. Disabled types are silently dropped
// and return an empty id with no error. Immediate sends dispatch on the
// caller's goroutine; everything else is appended to the FIFO queue and
// drained in submission order.
func (e *Engine) Send(ctx context.Context, in SendInput) (string, error) {
	if !in.Type.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, in.Type)
	}

	pref, _ := e.prefs.Get(in.Type)
	if !pref.Enabled {
		e.logger.LogAttrs(ctx, slog.LevelDebug, "notification type disabled, dropping",
			logger.Component("engine"),
			logger.NotificationType(in.Type))
		return "", nil
	}

	n := e.build(in, pref)

	if in.Immediate {
		e.dispatcher.Dispatch(ctx, n)
		return n.ID, nil
	}

	e.mu.Lock()
	e.queue = append(e.queue, queuedItem{n: n})
	e.mu.Unlock()

	// Nudge the drain loop so queued sends do not wait a full tick.
	select {
	case e.wake <- struct{}{}:
	default:
	}
	return n.ID, nil
}

// build resolves overrides against the preference: explicit caller
// values win, the preference fills the gaps, and a notification always
// ends up with at least the in-app channel.
func (e *Engine) build(in SendInput, pref preferences.Preference) notification.Notification {
	priority := in.Priority
	if !priority.Valid() {
		priority = pref.Priority
	}
	if !priority.Valid() {
		priority = notification.PriorityMedium
	}

	chs := in.Channels
	if len(chs) == 0 {
		chs = pref.Channels
	}
	if len(chs) == 0 {
		chs = []notification.Channel{notification.ChannelInApp}
	}

	return notification.Notification{
		ID:        notification.NewID(),
		Type:      in.Type,
		Title:     in.Title,
		Message:   in.Message,
		Data:      in.Data,
		Priority:  priority,
		Channels:  chs,
		Timestamp: time.Now(),
	}
}

// Subscribe registers a callback for one of the four engine events and
// returns its unsubscribe function.
func (e *Engine) Subscribe(event string, fn func(notification.Notification)) func() {
	return e.events.Subscribe(event, fn)
}

// MarkAsRead marks one notification read and publishes the read event.
func (e *Engine) MarkAsRead(ctx context.Context, id string) {
	e.store.MarkAsRead(ctx, id)
	if n, ok := e.store.Get(ctx, id); ok {
		e.events.Publish(ctx, notification.EventRead, n)
	}
}

// MarkAllAsRead marks the whole log read and publishes a single
// aggregate event.
func (e *Engine) MarkAllAsRead(ctx context.Context) {
	e.store.MarkAllAsRead(ctx)
	e.events.Publish(ctx, notification.EventAllRead, notification.Notification{})
}

// Notifications returns the stored log filtered by f, oldest first.
func (e *Engine) Notifications(ctx context.Context, f storage.Filter) []notification.Notification {
	return e.store.Query(ctx, f)
}

// Stats summarizes the stored log.
func (e *Engine) Stats(ctx context.Context) storage.Stats {
	return e.store.Stats(ctx)
}

// RetryStats exposes the channel retry queue counters.
func (e *Engine) RetryStats() retry.Stats {
	return e.dispatcher.QueueStats()
}

// Pending returns the number of notifications waiting in the FIFO
// queue.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// drainLoop sweeps the FIFO queue on each tick or wake nudge and runs
// the opportunistic purge.
func (e *Engine) drainLoop(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.DrainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-e.wake:
		}
		e.drain(ctx)
		e.purgeIfDue(ctx)
	}
}

// retryLoop sweeps the channel retry queue.
func (e *Engine) retryLoop(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.RetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.dispatcher.RetryTick(ctx)
		}
	}
}

// drain processes due queue entries one at a time in submission order.
// Entries deferred by the outer re-queue are re-appended at the tail
// and skipped until their delay elapses.
func (e *Engine) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		now := time.Now()
		e.mu.Lock()
		idx := -1
		for i, item := range e.queue {
			if !item.notBefore.After(now) {
				idx = i
				break
			}
		}
		if idx < 0 {
			e.mu.Unlock()
			return
		}
		item := e.queue[idx]
		e.queue = append(e.queue[:idx], e.queue[idx+1:]...)
		e.mu.Unlock()

		e.dispatchQueued(ctx, item)
	}
}

// dispatchQueued runs one queued dispatch with the bounded outer
// re-queue: a systemic failure (the dispatcher panicking before channel
// fan-out) puts the item back with a growing delay, up to the re-queue
// limit. Per-channel failures are not systemic; the dispatcher and its
// retry queue own those.
func (e *Engine) dispatchQueued(ctx context.Context, item queuedItem) {
	defer func() {
		if r := recover(); r == nil {
			return
		} else if item.attempts+1 >= e.cfg.RequeueLimit {
			e.logger.LogAttrs(ctx, slog.LevelError, "dispatch kept failing, dropping notification",
				logger.Component("engine"),
				logger.NotificationID(item.n.ID),
				logger.AttemptCount(item.attempts+1),
				slog.Any("panic", r))
		} else {
			item.attempts++
			item.notBefore = time.Now().Add(e.cfg.RequeueDelay * time.Duration(item.attempts))
			e.mu.Lock()
			e.queue = append(e.queue, item)
			e.mu.Unlock()
			e.logger.LogAttrs(ctx, slog.LevelWarn, "dispatch failed, re-queued",
				logger.Component("engine"),
				logger.NotificationID(item.n.ID),
				logger.AttemptCount(item.attempts),
				slog.Any("panic", r))
		}
	}()

	e.dispatcher.Dispatch(ctx, item.n)
}

// purgeIfDue trims entries older than the retention window, at most
// once per purge interval.
func (e *Engine) purgeIfDue(ctx context.Context) {
	e.mu.Lock()
	due := e.lastPurge.IsZero() || time.Since(e.lastPurge) >= e.cfg.PurgeInterval
	if due {
		e.lastPurge = time.Now()
	}
	e.mu.Unlock()
	if !due {
		return
	}

	if removed := e.store.Purge(ctx, e.cfg.PurgeRetention); removed > 0 {
		e.logger.LogAttrs(ctx, slog.LevelInfo, "purged old notifications",
			logger.Component("engine"),
			slog.Int("removed", removed))
	}
}
