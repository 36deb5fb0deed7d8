package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/notifykit/pkg/kv"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// PersistKey is the key the preference table is stored under.
const PersistKey = "notificationPreferences"

// RemoteStore syncs preferences with a remote preference service.
type RemoteStore interface {
	// GetPreferences fetches the user's stored preference table.
	GetPreferences(ctx context.Context, userID string) (map[notification.Type]Preference, error)

	// PutPreferences pushes the full preference table.
	PutPreferences(ctx context.Context, userID string, prefs map[notification.Type]Preference) error
}

// Registry is the single source of truth for delivery policy. It is
// seeded with hard defaults, overlaid by locally persisted and remotely
// fetched preferences at Load, and mutated through Update.
type Registry struct {
	mu     sync.RWMutex
	prefs  map[notification.Type]Preference
	userID string

	local  kv.Store
	remote RemoteStore
	logger *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLocalStore sets the key/value store used for local persistence.
func WithLocalStore(store kv.Store) Option {
	return func(r *Registry) {
		r.local = store
	}
}

// WithRemoteStore sets the remote preference service.
func WithRemoteStore(remote RemoteStore) Option {
	return func(r *Registry) {
		r.remote = remote
	}
}

// WithUserID sets the user the remote preference calls are scoped to.
func WithUserID(userID string) Option {
	return func(r *Registry) {
		r.userID = userID
	}
}

// WithLogger sets the registry logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Registry) {
		if log != nil {
			r.logger = log
		}
	}
}

// NewRegistry creates a registry seeded with the hard-coded defaults.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		prefs:  Defaults(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load overlays defaults with locally persisted preferences, then with
// the remote table. Both legs are best-effort: a failure on either
// leaves the registry operating on what it has and is reported only
// through the log, never as an error to the caller.
func (r *Registry) Load(ctx context.Context) {
	if r.local != nil {
		raw, err := r.local.Get(ctx, PersistKey)
		switch {
		case err == nil:
			var stored map[notification.Type]Preference
			if err := json.Unmarshal(raw, &stored); err != nil {
				r.logger.LogAttrs(ctx, slog.LevelWarn, "failed to decode persisted preferences",
					logger.Component("preferences"),
					logger.Error(err))
			} else {
				r.merge(stored)
			}
		case errors.Is(err, kv.ErrKeyNotFound):
			// First run, defaults apply.
		default:
			r.logger.LogAttrs(ctx, slog.LevelWarn, "failed to read persisted preferences",
				logger.Component("preferences"),
				logger.Error(err))
		}
	}

	if r.remote != nil {
		remote, err := r.remote.GetPreferences(ctx, r.userID)
		if err != nil {
			r.logger.LogAttrs(ctx, slog.LevelWarn, "failed to fetch remote preferences, using local table",
				logger.Component("preferences"),
				logger.UserID(r.userID),
				logger.Error(err))
			return
		}
		r.merge(remote)
		r.persistLocal(ctx)
	}
}

// Get returns the preference for the given type, falling back to the
// type's hard default when nothing is stored. The second return is
// false for unknown types.
func (r *Registry) Get(typ notification.Type) (Preference, bool) {
	if !typ.Valid() {
		return Preference{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if pref, ok := r.prefs[typ]; ok {
		return clonePreference(pref), true
	}
	return clonePreference(Defaults()[typ]), true
}

// All returns a copy of the full preference table.
func (r *Registry) All() map[notification.Type]Preference {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[notification.Type]Preference, len(r.prefs))
	for typ, pref := range r.prefs {
		out[typ] = clonePreference(pref)
	}
	return out
}

// Update merges the partial per-type updates into the table, persists
// the result locally, and pushes it to the remote store. The local
// merge always wins: a remote failure is reported as a wrapped
// ErrRemoteSyncFailed, but the merged state stays applied.
func (r *Registry) Update(ctx context.Context, partial map[notification.Type]Preference) error {
	for typ := range partial {
		if !typ.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownType, typ)
		}
	}

	r.merge(partial)
	r.persistLocal(ctx)

	if r.remote == nil {
		return nil
	}
	if err := r.remote.PutPreferences(ctx, r.userID, r.All()); err != nil {
		r.logger.LogAttrs(ctx, slog.LevelWarn, "preferences saved locally, remote sync pending",
			logger.Component("preferences"),
			logger.UserID(r.userID),
			logger.Error(err))
		return errors.Join(ErrRemoteSyncFailed, err)
	}
	return nil
}

func (r *Registry) merge(partial map[notification.Type]Preference) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for typ, pref := range partial {
		if !typ.Valid() {
			continue
		}
		r.prefs[typ] = clonePreference(pref)
	}
}

// persistLocal writes the table back best-effort; failures are logged
// and swallowed like store write-backs.
func (r *Registry) persistLocal(ctx context.Context) {
	if r.local == nil {
		return
	}

	raw, err := json.Marshal(r.All())
	if err != nil {
		r.logger.LogAttrs(ctx, slog.LevelError, "failed to encode preferences",
			logger.Component("preferences"),
			logger.Error(err))
		return
	}
	if err := r.local.Set(ctx, PersistKey, raw); err != nil {
		r.logger.LogAttrs(ctx, slog.LevelWarn, "failed to persist preferences",
			logger.Component("preferences"),
			logger.Error(err))
	}
}

func clonePreference(p Preference) Preference {
	channels := make([]notification.Channel, len(p.Channels))
	copy(channels, p.Channels)
	p.Channels = channels
	return p
}
