package storage

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/kv"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// PersistKey is the key the notification log is stored under.
const PersistKey = "notifications"

// DefaultCapacity bounds the log; the oldest entries are evicted first.
const DefaultCapacity = 100

// DefaultRetention is the purge cutoff for old entries.
const DefaultRetention = 30 * 24 * time.Hour

// Filter narrows Query results. Zero-value fields do not filter.
type Filter struct {
	Types      []notification.Type
	Priorities []notification.Priority
	OnlyUnread bool
}

// Stats summarizes the current log. Derived by scanning on demand; at
// the capacity cap an O(n) scan is cheaper than maintaining counters.
type Stats struct {
	Total      int                           `json:"total"`
	Unread     int                           `json:"unread"`
	Today      int                           `json:"today"`
	ThisWeek   int                           `json:"this_week"`
	ByType     map[notification.Type]int     `json:"by_type"`
	ByPriority map[notification.Priority]int `json:"by_priority"`
}

// Store is the append-only, capacity-bounded notification log. The
// in-memory log is authoritative; every mutation is written back to the
// persister best-effort, and write-back failures are logged and
// swallowed rather than surfaced (a restart may lose the most recent
// unpersisted writes).
//
// Writes are serialized through a single mutex since each one is a
// read-modify-write of the full log; reads take a consistent snapshot.
type Store struct {
	mu        sync.RWMutex
	log       []notification.Notification
	capacity  int
	persister kv.Store
	logger    *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithCapacity overrides the default 100-entry cap.
func WithCapacity(capacity int) Option {
	return func(s *Store) {
		if capacity > 0 {
			s.capacity = capacity
		}
	}
}

// WithPersister sets the key/value store the log is written back to.
// Without one the log is purely in-memory.
func WithPersister(p kv.Store) Option {
	return func(s *Store) {
		s.persister = p
	}
}

// WithLogger sets the store logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.logger = log
		}
	}
}

// New creates a notification store.
func New(opts ...Option) *Store {
	s := &Store{
		capacity: DefaultCapacity,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load hydrates the log from the persister. Call once at startup;
// a missing key leaves the log empty.
func (s *Store) Load(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}

	raw, err := s.persister.Get(ctx, PersistKey)
	if err != nil {
		if err == kv.ErrKeyNotFound {
			return nil
		}
		return err
	}

	var log []notification.Notification
	if err := json.Unmarshal(raw, &log); err != nil {
		return err
	}

	s.mu.Lock()
	s.log = log
	s.truncateLocked()
	s.mu.Unlock()
	return nil
}

// Append adds a notification to the log, evicting the oldest entries
// beyond capacity, then writes the log back.
func (s *Store) Append(ctx context.Context, n notification.Notification) {
	s.mu.Lock()
	s.log = append(s.log, n)
	s.truncateLocked()
	s.persistLocked(ctx)
	s.mu.Unlock()
}

// MarkAsRead marks one notification as read. Idempotent; unknown ids
// are a no-op.
func (s *Store) MarkAsRead(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.log {
		if s.log[i].ID == id {
			if !s.log[i].Read {
				s.log[i].MarkAsRead()
				s.persistLocked(ctx)
			}
			return
		}
	}
}

// MarkAllAsRead marks every notification as read.
func (s *Store) MarkAllAsRead(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for i := range s.log {
		if !s.log[i].Read {
			s.log[i].MarkAsRead()
			changed = true
		}
	}
	if changed {
		s.persistLocked(ctx)
	}
}

// MarkDelivered flips the delivered flag once all channel attempts for
// the notification have resolved. Unknown ids are a no-op: only in-app
// deliveries land in the log.
func (s *Store) MarkDelivered(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.log {
		if s.log[i].ID == id {
			if !s.log[i].Delivered {
				s.log[i].Delivered = true
				s.persistLocked(ctx)
			}
			return
		}
	}
}

// Purge deletes entries older than the cutoff and returns how many were
// removed.
func (s *Store) Purge(ctx context.Context, olderThan time.Duration) int {
	if olderThan <= 0 {
		olderThan = DefaultRetention
	}
	cutoff := time.Now().Add(-olderThan)

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.log[:0]
	for _, n := range s.log {
		if !n.Timestamp.Before(cutoff) {
			kept = append(kept, n)
		}
	}
	removed := len(s.log) - len(kept)
	s.log = kept

	if removed > 0 {
		s.persistLocked(ctx)
	}
	return removed
}

// Query returns notifications matching the filter in insertion order,
// oldest first.
func (s *Store) Query(ctx context.Context, f Filter) []notification.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]notification.Notification, 0, len(s.log))
	for _, n := range s.log {
		if f.OnlyUnread && n.Read {
			continue
		}
		if len(f.Types) > 0 && !containsType(f.Types, n.Type) {
			continue
		}
		if len(f.Priorities) > 0 && !containsPriority(f.Priorities, n.Priority) {
			continue
		}
		result = append(result, n)
	}
	return result
}

// Get returns a copy of the notification with the given id.
func (s *Store) Get(ctx context.Context, id string) (notification.Notification, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, n := range s.log {
		if n.ID == id {
			return n, true
		}
	}
	return notification.Notification{}, false
}

// Stats scans the current log and summarizes it.
func (s *Store) Stats(ctx context.Context) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfWeek := startOfDay.AddDate(0, 0, -6)

	stats := Stats{
		Total:      len(s.log),
		ByType:     make(map[notification.Type]int),
		ByPriority: make(map[notification.Priority]int),
	}

	for _, n := range s.log {
		if !n.Read {
			stats.Unread++
		}
		if !n.Timestamp.Before(startOfDay) {
			stats.Today++
		}
		if !n.Timestamp.Before(startOfWeek) {
			stats.ThisWeek++
		}
		stats.ByType[n.Type]++
		stats.ByPriority[n.Priority]++
	}
	return stats
}

// truncateLocked evicts the oldest entries beyond capacity.
// Caller must hold the write lock.
func (s *Store) truncateLocked() {
	if len(s.log) > s.capacity {
		overflow := len(s.log) - s.capacity
		s.log = append(s.log[:0], s.log[overflow:]...)
	}
}

// persistLocked writes the full log back to the persister. Failures
// are logged and swallowed: the in-memory log stays authoritative.
// Caller must hold the write lock.
func (s *Store) persistLocked(ctx context.Context) {
	if s.persister == nil {
		return
	}

	raw, err := json.Marshal(s.log)
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelError, "failed to encode notification log",
			logger.Component("storage"),
			logger.Error(err))
		return
	}

	if err := s.persister.Set(ctx, PersistKey, raw); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "failed to persist notification log",
			logger.Component("storage"),
			slog.Int("entries", len(s.log)),
			logger.Error(err))
	}
}

func containsType(types []notification.Type, t notification.Type) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

func containsPriority(priorities []notification.Priority, p notification.Priority) bool {
	for _, candidate := range priorities {
		if candidate == p {
			return true
		}
	}
	return false
}
