package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/bus"
	"github.com/dmitrymomot/notifykit/pkg/channels"
	"github.com/dmitrymomot/notifykit/pkg/classifier"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/retry"
	"github.com/dmitrymomot/notifykit/pkg/storage"
)

// DefaultSendTimeout bounds a single channel delivery attempt.
const DefaultSendTimeout = 5 * time.Second

// Outcome is the result of one channel attempt within a dispatch.
type Outcome struct {
	Channel    notification.Channel
	Err        error
	Classified *classifier.ClassifiedError
	// Skipped marks attempts that were intentionally not made, such as
	// push without a registered device token.
	Skipped bool
	// Enqueued reports whether the failure was admitted to the retry
	// queue.
	Enqueued bool
	Duration time.Duration
}

// Success reports whether the attempt delivered.
func (o Outcome) Success() bool {
	return o.Err == nil && !o.Skipped
}

// Dispatcher fans a notification out to its channels concurrently.
// Channels fail independently: one failing transport never blocks the
// others. Retryable failures land in the owned retry queue, which
// re-executes them through the dispatcher itself.
type Dispatcher struct {
	senders map[notification.Channel]channels.Sender
	store   *storage.Store
	events  *bus.Bus[notification.Notification]
	queue   *retry.Queue
	backoff retry.BackoffStrategy
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithSender registers a channel sender. The last sender registered for
// a channel wins.
func WithSender(s channels.Sender) Option {
	return func(d *Dispatcher) {
		if s != nil {
			d.senders[s.Channel()] = s
		}
	}
}

// WithStore sets the notification log used to flip delivered flags.
func WithStore(store *storage.Store) Option {
	return func(d *Dispatcher) {
		d.store = store
	}
}

// WithBus sets the event bus delivered events are published to.
func WithBus(events *bus.Bus[notification.Notification]) Option {
	return func(d *Dispatcher) {
		d.events = events
	}
}

// WithSendTimeout bounds each channel attempt. Defaults to 5s.
func WithSendTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithRetryBackoff overrides the retry queue's backoff schedule.
func WithRetryBackoff(b retry.BackoffStrategy) Option {
	return func(d *Dispatcher) {
		d.backoff = b
	}
}

// WithLogger sets the dispatcher logger.
func WithLogger(log *slog.Logger) Option {
	return func(d *Dispatcher) {
		if log != nil {
			d.logger = log
		}
	}
}

// New creates a dispatcher with its retry queue wired to re-execute
// failed deliveries through the same senders.
func New(opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{
		senders: make(map[notification.Channel]channels.Sender),
		timeout: DefaultSendTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}

	queueOpts := []retry.Option{retry.WithLogger(d.logger)}
	if d.backoff != nil {
		queueOpts = append(queueOpts, retry.WithBackoff(d.backoff))
	}

	queue, err := retry.NewQueue(retry.ExecutorFunc(d.execute), queueOpts...)
	if err != nil {
		return nil, err
	}
	d.queue = queue
	return d, nil
}

// Dispatch sends the notification to every listed channel concurrently
// and returns one outcome per attempted channel. Channels without a
// registered sender are logged and skipped. Once every channel attempt
// has resolved, success or not, the notification is marked delivered in
// the store and a delivered event is published; delivery here means
// "every channel got its attempt", not "every channel succeeded".
func (d *Dispatcher) Dispatch(ctx context.Context, n notification.Notification) []Outcome {
	targets := make([]channels.Sender, 0, len(n.Channels))
	for _, ch := range n.Channels {
		sender, ok := d.senders[ch]
		if !ok {
			d.logger.LogAttrs(ctx, slog.LevelWarn, "no sender registered for channel, skipping",
				logger.Component("dispatch"),
				logger.Channel(ch),
				logger.NotificationID(n.ID))
			continue
		}
		targets = append(targets, sender)
	}
	if len(targets) == 0 {
		// Zero attempts, all resolved: the notification still reaches
		// the delivered state so its lifecycle completes.
		d.markDelivered(ctx, n)
		return nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes = make([]Outcome, 0, len(targets))
	)
	for _, sender := range targets {
		wg.Add(1)
		go func(sender channels.Sender) {
			defer wg.Done()
			outcome := d.sendOne(ctx, sender, n)
			mu.Lock()
			outcomes = append(outcomes, outcome)
			mu.Unlock()
		}(sender)
	}
	wg.Wait()

	d.markDelivered(ctx, n)
	return outcomes
}

// sendOne runs a single bounded attempt and files retryable failures
// with the queue.
func (d *Dispatcher) sendOne(ctx context.Context, sender channels.Sender, n notification.Notification) Outcome {
	outcome := Outcome{Channel: sender.Channel()}

	start := time.Now()
	err := d.attempt(ctx, sender, n)
	outcome.Duration = time.Since(start)

	if err == nil {
		d.logger.LogAttrs(ctx, slog.LevelDebug, "notification delivered",
			logger.Component("dispatch"),
			logger.Channel(outcome.Channel),
			logger.NotificationID(n.ID),
			logger.Duration(outcome.Duration))
		return outcome
	}

	// Push without a registered device is expected, not a failure.
	if errors.Is(err, channels.ErrPushNotRegistered) {
		outcome.Skipped = true
		return outcome
	}

	outcome.Err = err
	classified := classifier.Classify(err, map[string]any{
		"notification_id": n.ID,
		"channel":         string(outcome.Channel),
	})
	outcome.Classified = &classified

	outcome.Enqueued = d.queue.Enqueue(classified, retry.Intent{
		Notification: n,
		Channel:      outcome.Channel,
	})

	d.logger.LogAttrs(ctx, slog.LevelWarn, "notification delivery failed",
		logger.Component("dispatch"),
		logger.Channel(outcome.Channel),
		logger.NotificationID(n.ID),
		logger.Category(classified.Category),
		logger.Severity(classified.Severity),
		slog.Bool("retry_scheduled", outcome.Enqueued),
		logger.Error(err))
	return outcome
}

// attempt bounds one delivery with the per-send timeout and contains
// sender panics.
func (d *Dispatcher) attempt(ctx context.Context, sender channels.Sender, n notification.Notification) (err error) {
	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = &senderPanicError{channel: sender.Channel(), value: r}
		}
	}()
	return sender.Send(sendCtx, n)
}

// execute re-runs a queued intent. Used as the retry queue's executor.
// A push intent whose token was unregistered in the meantime resolves
// silently instead of burning attempts.
func (d *Dispatcher) execute(ctx context.Context, intent retry.Intent) error {
	sender, ok := d.senders[intent.Channel]
	if !ok {
		return nil
	}

	err := d.attempt(ctx, sender, intent.Notification)
	if err == nil {
		d.markDelivered(ctx, intent.Notification)
		return nil
	}
	if errors.Is(err, channels.ErrPushNotRegistered) {
		return nil
	}
	return err
}

func (d *Dispatcher) markDelivered(ctx context.Context, n notification.Notification) {
	if d.store != nil {
		d.store.MarkDelivered(ctx, n.ID)
	}
	if d.events != nil {
		n.Delivered = true
		d.events.Publish(ctx, notification.EventDelivered, n)
	}
}

// RetryTick sweeps the retry queue once.
func (d *Dispatcher) RetryTick(ctx context.Context) {
	d.queue.Tick(ctx)
}

// QueueStats exposes the retry queue counters.
func (d *Dispatcher) QueueStats() retry.Stats {
	return d.queue.Stats()
}

// HasSender reports whether a sender is registered for the channel.
func (d *Dispatcher) HasSender(ch notification.Channel) bool {
	_, ok := d.senders[ch]
	return ok
}
