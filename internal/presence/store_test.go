package presence

import (
	"context"
	"testing"
	"time"

	"nutrihub/internal/realtime"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	events []realtime.Event
}

func (r *recordingSink) TryEmit(_ context.Context, ev realtime.Event) {
	r.events = append(r.events, ev)
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func newTestStore() (*Store, *recordingSink) {
	sink := &recordingSink{}
	return NewStore(sink, nil, testLogger()), sink
}

func TestStore_OnlineThenOffline(t *testing.T) {
	store, sink := newTestStore()
	ctx := context.Background()

	user := realtime.UserRef{ID: 42, Name: "Laura", AvatarURL: "https://cdn/42.png"}
	assert.True(t, store.SetOnline(ctx, user, "sock-1"))

	entry, ok := store.Get(42)
	require.True(t, ok)
	assert.Equal(t, StatusOnline, entry.Status)
	assert.Equal(t, "sock-1", entry.SocketID)

	assert.True(t, store.SetOffline(ctx, 42, time.Now()))

	entry, ok = store.Get(42)
	require.True(t, ok)
	assert.Equal(t, StatusOffline, entry.Status)
	assert.Empty(t, entry.SocketID, "offline entry must carry no socket id")

	require.Len(t, sink.events, 2)
	assert.Equal(t, realtime.EventUserOnline, sink.events[0].Name)
	assert.Equal(t, realtime.EventUserOffline, sink.events[1].Name)

	offline, ok := sink.events[1].Payload.(realtime.UserOfflinePayload)
	require.True(t, ok)
	assert.Equal(t, "offline", offline.Status)
	assert.Equal(t, "Laura", offline.Name)
}

func TestStore_StaleOfflineRejected(t *testing.T) {
	store, sink := newTestStore()
	ctx := context.Background()

	now := time.Now()
	store.now = func() time.Time { return now }

	require.True(t, store.SetOnline(ctx, realtime.UserRef{ID: 1, Name: "Ana"}, "sock-1"))

	// A disconnect signal that raced in late must not change stored state
	assert.False(t, store.SetOffline(ctx, 1, now.Add(-time.Minute)))

	entry, ok := store.Get(1)
	require.True(t, ok)
	assert.Equal(t, StatusOnline, entry.Status)
	assert.Equal(t, "sock-1", entry.SocketID)
	assert.Equal(t, now, entry.LastSeenAt)

	require.Len(t, sink.events, 1, "rejected transition must not emit")
}

func TestStore_DoubleOnlineKeepsOneEntry(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	first := time.Now()
	store.now = func() time.Time { return first }
	require.True(t, store.SetOnline(ctx, realtime.UserRef{ID: 5, Name: "Ana"}, "sock-a"))

	second := first.Add(2 * time.Second)
	store.now = func() time.Time { return second }
	require.True(t, store.SetOnline(ctx, realtime.UserRef{ID: 5, Name: "Ana"}, "sock-b"))

	entry, ok := store.Get(5)
	require.True(t, ok)
	assert.Equal(t, StatusOnline, entry.Status)
	assert.Equal(t, "sock-b", entry.SocketID, "later socket wins")
	assert.Equal(t, second, entry.LastSeenAt, "lastSeenAt is the later of the two calls")

	assert.Len(t, store.GetMany(ctx, []int{5}), 1)
}

func TestStore_AwayOnlyFromOnline(t *testing.T) {
	store, sink := newTestStore()
	ctx := context.Background()

	// Unknown user: no-op
	assert.False(t, store.SetAway(ctx, 9))

	require.True(t, store.SetOnline(ctx, realtime.UserRef{ID: 9, Name: "Ana"}, "sock-1"))
	assert.True(t, store.SetAway(ctx, 9))

	entry, _ := store.Get(9)
	assert.Equal(t, StatusAway, entry.Status)

	// Already away: no-op
	assert.False(t, store.SetAway(ctx, 9))

	require.True(t, store.SetOffline(ctx, 9, time.Now()))
	assert.False(t, store.SetAway(ctx, 9), "offline user cannot be demoted to away")

	// Away never broadcasts an event of its own
	for _, ev := range sink.events {
		assert.NotEqual(t, realtime.EventName("user.away"), ev.Name)
	}
}

func TestStore_GetManyOmitsUnknown(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	require.True(t, store.SetOnline(ctx, realtime.UserRef{ID: 1, Name: "Ana"}, "s1"))
	require.True(t, store.SetOnline(ctx, realtime.UserRef{ID: 2, Name: "Bea"}, "s2"))

	entries := store.GetMany(ctx, []int{1, 2, 3})
	assert.Len(t, entries, 2)
	assert.Contains(t, entries, 1)
	assert.Contains(t, entries, 2)
	assert.NotContains(t, entries, 3)
}

func TestStore_OfflineForUnknownUser(t *testing.T) {
	store, sink := newTestStore()
	assert.False(t, store.SetOffline(context.Background(), 404, time.Now()))
	assert.Empty(t, sink.events)
}
