package preferences_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/kv"
	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/preferences"
)

// fakeRemote is an in-memory RemoteStore with switchable failure modes.
type fakeRemote struct {
	prefs   map[notification.Type]preferences.Preference
	getErr  error
	putErr  error
	putCnt  int
	lastPut map[notification.Type]preferences.Preference
}

func (f *fakeRemote) GetPreferences(ctx context.Context, userID string) (map[notification.Type]preferences.Preference, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.prefs, nil
}

func (f *fakeRemote) PutPreferences(ctx context.Context, userID string, prefs map[notification.Type]preferences.Preference) error {
	f.putCnt++
	if f.putErr != nil {
		return f.putErr
	}
	f.lastPut = prefs
	return nil
}

func TestDefaultsCoverAllTypes(t *testing.T) {
	t.Parallel()

	defaults := preferences.Defaults()
	for _, typ := range notification.Types() {
		pref, ok := defaults[typ]
		require.True(t, ok, "missing default for %q", typ)
		assert.True(t, pref.Enabled, "type %q should default enabled", typ)
		assert.NotEmpty(t, pref.Channels, "type %q must have channels", typ)
		assert.True(t, pref.Priority.Valid(), "type %q priority", typ)
	}

	// Escalating types reach every direct channel including SMS.
	for _, typ := range []notification.Type{notification.TypeInvoiceOverdue, notification.TypeSecurityAlert} {
		assert.True(t, notification.ContainsChannel(defaults[typ].Channels, notification.ChannelSMS), "type %q", typ)
		assert.Len(t, defaults[typ].Channels, 4, "type %q", typ)
	}

	// Routine types stay in-app only.
	for _, typ := range []notification.Type{notification.TypeVerificationComplete, notification.TypeSystemMaintenance} {
		assert.Equal(t, []notification.Channel{notification.ChannelInApp}, defaults[typ].Channels, "type %q", typ)
	}
}

func TestGetFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	registry := preferences.NewRegistry()

	pref, ok := registry.Get(notification.TypeSecurityAlert)
	require.True(t, ok)
	assert.True(t, pref.Enabled)
	assert.Equal(t, notification.PriorityUrgent, pref.Priority)

	_, ok = registry.Get(notification.Type("bogus"))
	assert.False(t, ok)
}

func TestUpdateMergesPartial(t *testing.T) {
	t.Parallel()

	registry := preferences.NewRegistry()
	ctx := context.Background()

	err := registry.Update(ctx, map[notification.Type]preferences.Preference{
		notification.TypePaymentSuccess: {
			Enabled:  false,
			Channels: []notification.Channel{notification.ChannelInApp},
			Priority: notification.PriorityLow,
		},
	})
	require.NoError(t, err)

	updated, _ := registry.Get(notification.TypePaymentSuccess)
	assert.False(t, updated.Enabled)

	// Types absent from the partial update are untouched.
	untouched, _ := registry.Get(notification.TypeSecurityAlert)
	assert.True(t, untouched.Enabled)
}

func TestUpdateRejectsUnknownType(t *testing.T) {
	t.Parallel()

	registry := preferences.NewRegistry()
	err := registry.Update(context.Background(), map[notification.Type]preferences.Preference{
		notification.Type("marketing_blast"): {Enabled: true},
	})
	require.ErrorIs(t, err, preferences.ErrUnknownType)
}

func TestUpdateLocalWinsOnRemoteFailure(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{putErr: errors.New("service unavailable")}
	registry := preferences.NewRegistry(
		preferences.WithRemoteStore(remote),
		preferences.WithUserID("user-1"),
	)

	err := registry.Update(context.Background(), map[notification.Type]preferences.Preference{
		notification.TypeInvoiceDue: {
			Enabled:  false,
			Channels: []notification.Channel{notification.ChannelInApp},
			Priority: notification.PriorityLow,
		},
	})

	require.ErrorIs(t, err, preferences.ErrRemoteSyncFailed)
	assert.Equal(t, 1, remote.putCnt)

	// The local merge still applies despite the failed sync.
	pref, _ := registry.Get(notification.TypeInvoiceDue)
	assert.False(t, pref.Enabled)
}

func TestUpdatePushesFullTable(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{}
	registry := preferences.NewRegistry(
		preferences.WithRemoteStore(remote),
		preferences.WithUserID("user-1"),
	)

	require.NoError(t, registry.Update(context.Background(), map[notification.Type]preferences.Preference{
		notification.TypeInvoiceDue: {Enabled: false, Channels: []notification.Channel{notification.ChannelInApp}, Priority: notification.PriorityLow},
	}))

	require.NotNil(t, remote.lastPut)
	assert.Len(t, remote.lastPut, len(notification.Types()))
	assert.False(t, remote.lastPut[notification.TypeInvoiceDue].Enabled)
}

func TestLoadOverlaysLocalThenRemote(t *testing.T) {
	t.Parallel()

	local := kv.NewMemoryStore()
	ctx := context.Background()

	// Persist a local override through a first registry.
	seed := preferences.NewRegistry(preferences.WithLocalStore(local))
	require.NoError(t, seed.Update(ctx, map[notification.Type]preferences.Preference{
		notification.TypePaymentSuccess: {Enabled: false, Channels: []notification.Channel{notification.ChannelInApp}, Priority: notification.PriorityLow},
	}))

	remote := &fakeRemote{prefs: map[notification.Type]preferences.Preference{
		notification.TypeInvoiceDue: {Enabled: false, Channels: []notification.Channel{notification.ChannelEmail}, Priority: notification.PriorityHigh},
	}}

	registry := preferences.NewRegistry(
		preferences.WithLocalStore(local),
		preferences.WithRemoteStore(remote),
	)
	registry.Load(ctx)

	fromLocal, _ := registry.Get(notification.TypePaymentSuccess)
	assert.False(t, fromLocal.Enabled, "local override survives")

	fromRemote, _ := registry.Get(notification.TypeInvoiceDue)
	assert.False(t, fromRemote.Enabled, "remote override applied")
	assert.Equal(t, notification.PriorityHigh, fromRemote.Priority)
}

func TestLoadDegradesOnRemoteFailure(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{getErr: errors.New("unreachable")}
	registry := preferences.NewRegistry(preferences.WithRemoteStore(remote))

	assert.NotPanics(t, func() { registry.Load(context.Background()) })

	// Defaults remain in force.
	pref, _ := registry.Get(notification.TypeSecurityAlert)
	assert.True(t, pref.Enabled)
}

func TestAllReturnsCopy(t *testing.T) {
	t.Parallel()

	registry := preferences.NewRegistry()
	all := registry.All()
	all[notification.TypeSecurityAlert] = preferences.Preference{Enabled: false}

	pref, _ := registry.Get(notification.TypeSecurityAlert)
	assert.True(t, pref.Enabled, "mutating the copy must not affect the registry")
}
