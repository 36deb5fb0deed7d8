package retry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/classifier"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// Intent is a serializable description of the delivery to repeat: the
// notification and the channel it failed on. Keeping it a plain value
// object rather than a closure makes queued work inspectable and the
// queue independently testable.
type Intent struct {
	ID           uuid.UUID                 `json:"id"`
	Notification notification.Notification `json:"notification"`
	Channel      notification.Channel      `json:"channel"`
}

// Executor performs the delivery described by an intent.
type Executor interface {
	Execute(ctx context.Context, intent Intent) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, intent Intent) error

func (f ExecutorFunc) Execute(ctx context.Context, intent Intent) error {
	return f(ctx, intent)
}

// Item is one queued retryable failure with its attempt bookkeeping.
type Item struct {
	Cause       classifier.ClassifiedError
	Intent      Intent
	Attempts    int
	MaxAttempts int
	NextRetryAt time.Time
	EnqueuedAt  time.Time
}

// Stats exposes queue counters for operators.
type Stats struct {
	Pending  int
	Resolved int64
	Expired  int64
}

// Queue holds retryable failures and re-executes them on Tick with
// exponential backoff and per-category attempt limits.
type Queue struct {
	mu    sync.Mutex
	items []*Item

	executor Executor
	backoff  BackoffStrategy
	logger   *slog.Logger

	// ticking guards against overlapping sweeps: a tick that fires
	// while the previous one is still running is skipped, not queued.
	ticking  atomic.Bool
	resolved atomic.Int64
	expired  atomic.Int64
}

// Option configures a Queue.
type Option func(*Queue)

// WithBackoff overrides the default deterministic exponential schedule.
func WithBackoff(b BackoffStrategy) Option {
	return func(q *Queue) {
		if b != nil {
			q.backoff = b
		}
	}
}

// WithLogger sets the queue logger.
func WithLogger(log *slog.Logger) Option {
	return func(q *Queue) {
		if log != nil {
			q.logger = log
		}
	}
}

// NewQueue creates a retry queue that hands due intents to the executor.
func NewQueue(executor Executor, opts ...Option) (*Queue, error) {
	if executor == nil {
		return nil, ErrExecutorNil
	}

	q := &Queue{
		executor: executor,
		backoff:  DefaultBackoffStrategy(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q, nil
}

// maxAttemptsFor returns the attempt budget per error category.
// Payment retries are expensive and risky, network blips are cheap.
func maxAttemptsFor(category classifier.Category) int {
	switch category {
	case classifier.CategoryNetwork, classifier.CategoryServer:
		return 3
	case classifier.CategoryPayment:
		return 2
	default:
		return 1
	}
}

// Enqueue admits a retryable failure to the queue. Non-retryable causes
// and intents without a target channel are silently ignored; the bool
// return reports whether the item was admitted.
func (q *Queue) Enqueue(cause classifier.ClassifiedError, intent Intent) bool {
	if !cause.IsRetryable || intent.Channel == "" {
		return false
	}

	if intent.ID == uuid.Nil {
		intent.ID = uuid.New()
	}

	now := time.Now()
	item := &Item{
		Cause:       cause,
		Intent:      intent,
		MaxAttempts: maxAttemptsFor(cause.Category),
		NextRetryAt: now.Add(q.backoff.NextInterval(1)),
		EnqueuedAt:  now,
	}

	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()

	q.logger.Debug("retry item enqueued",
		logger.NotificationID(intent.Notification.ID),
		logger.Channel(intent.Channel),
		logger.Category(cause.Category),
		slog.Int("max_attempts", item.MaxAttempts))

	return true
}

// Tick sweeps the queue once: every item whose NextRetryAt has passed
// gets one more attempt. Successful items are removed and counted as
// resolved; items that exhaust their attempt budget are dropped and
// counted as expired. A tick that fires while the previous sweep is
// still running returns immediately.
func (q *Queue) Tick(ctx context.Context) {
	if !q.ticking.CompareAndSwap(false, true) {
		return
	}
	defer q.ticking.Store(false)

	now := time.Now()

	// Claim due items under the lock, run their attempts outside it so
	// slow executors do not block Enqueue.
	q.mu.Lock()
	var due []*Item
	for _, item := range q.items {
		if !item.NextRetryAt.After(now) {
			item.Attempts++
			item.NextRetryAt = now.Add(q.backoff.NextInterval(item.Attempts + 1))
			due = append(due, item)
		}
	}
	q.mu.Unlock()

	if len(due) == 0 {
		return
	}

	remove := make(map[*Item]struct{}, len(due))
	for _, item := range due {
		err := q.execute(ctx, item)
		if err == nil {
			q.resolved.Add(1)
			remove[item] = struct{}{}
			q.logger.Info("retry resolved",
				logger.NotificationID(item.Intent.Notification.ID),
				logger.Channel(item.Intent.Channel),
				logger.AttemptCount(item.Attempts))
			continue
		}

		if item.Attempts >= item.MaxAttempts {
			q.expired.Add(1)
			remove[item] = struct{}{}
			q.logger.Warn("retry attempts exhausted, dropping item",
				logger.NotificationID(item.Intent.Notification.ID),
				logger.Channel(item.Intent.Channel),
				logger.AttemptCount(item.Attempts),
				logger.Error(err))
			continue
		}

		q.logger.Debug("retry attempt failed, will try again",
			logger.NotificationID(item.Intent.Notification.ID),
			logger.Channel(item.Intent.Channel),
			logger.AttemptCount(item.Attempts),
			logger.Error(err))
	}

	if len(remove) == 0 {
		return
	}

	q.mu.Lock()
	kept := q.items[:0]
	for _, item := range q.items {
		if _, drop := remove[item]; !drop {
			kept = append(kept, item)
		}
	}
	q.items = kept
	q.mu.Unlock()
}

// execute runs one attempt with panic containment so a faulty executor
// cannot take down the sweep loop.
func (q *Queue) execute(ctx context.Context, item *Item) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("retry executor panicked: %v", r)
		}
	}()
	return q.executor.Execute(ctx, item.Intent)
}

// Size returns the number of pending items.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Stats returns pending, resolved and expired counters.
func (q *Queue) Stats() Stats {
	return Stats{
		Pending:  q.Size(),
		Resolved: q.resolved.Load(),
		Expired:  q.expired.Load(),
	}
}
