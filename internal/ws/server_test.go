package ws_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nutrihub/internal/auth"
	"nutrihub/internal/channels"
	"nutrihub/internal/presence"
	"nutrihub/internal/realtime"
	"nutrihub/internal/rtclient"
	"nutrihub/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

type fixture struct {
	srv     *httptest.Server
	wsURL   string
	hub     *realtime.Hub
	emitter *realtime.Emitter
	store   *presence.Store
}

// newFixture stands up a full server: hub-as-broker, presence store,
// mock membership directory, websocket endpoint behind gin.
func newFixture(t *testing.T, dir *channels.MockDirectory) *fixture {
	t.Helper()
	auth.InitJWT("test-secret")

	logger := testLogger()
	hub := realtime.NewHub(logger)
	emitter := realtime.NewEmitter(hub, logger)
	store := presence.NewStore(emitter, nil, logger)
	authz := channels.NewAuthorizer(dir, dir, dir, logger)
	server := ws.NewServer(hub, emitter, authz, store, 64, logger)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", server.HandleWS)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &fixture{
		srv:     srv,
		wsURL:   "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
		hub:     hub,
		emitter: emitter,
		store:   store,
	}
}

func token(t *testing.T, uid int, name string) string {
	t.Helper()
	tok, err := auth.GenerateToken(uid, name, "", "patient", time.Now().Add(time.Hour), "test")
	require.NoError(t, err)
	return tok
}

func connect(t *testing.T, f *fixture, uid int, name string) *rtclient.Client {
	t.Helper()
	client := rtclient.New(f.wsURL, token(t, uid, name), testLogger())
	require.NoError(t, client.Connect(context.Background()))
	t.Cleanup(func() { client.Close() })
	return client
}

func TestServer_SubscribeAndReceiveEvent(t *testing.T) {
	f := newFixture(t, &channels.MockDirectory{})
	client := connect(t, f, 42, "Ana")

	received := make(chan realtime.Envelope, 1)
	client.On(realtime.EventPlanUpdated, func(env realtime.Envelope) {
		received <- env
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, client.Subscribe(ctx, realtime.UserChannel(42)))

	f.emitter.TryEmit(ctx, realtime.NewPlanUpdated(7, 42, map[string]any{"title": "Cut phase"}))

	select {
	case env := <-received:
		assert.Equal(t, "user.42", env.Channel)
		assert.Equal(t, realtime.EventPlanUpdated, env.Event)

		var p realtime.PlanUpdatedPayload
		require.NoError(t, json.Unmarshal(env.Payload, &p))
		assert.Equal(t, 7, p.PlanID)
		assert.Equal(t, 42, p.PatientID)
		assert.Equal(t, "Cut phase", p.Changes["title"])
	case <-time.After(3 * time.Second):
		t.Fatal("event never arrived")
	}
}

func TestServer_SubscriptionDenied(t *testing.T) {
	dir := &channels.MockDirectory{
		PlanPartiesFunc: func(ctx context.Context, planID int) (int, int, error) {
			return 1, 2, nil // neither party is user 42
		},
	}
	f := newFixture(t, dir)
	client := connect(t, f, 42, "Ana")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.Subscribe(ctx, "plan.99")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")

	// A foreign private user channel is denied too
	err = client.Subscribe(ctx, realtime.UserChannel(7))
	require.Error(t, err)
}

func TestServer_NoBacklogForLateSubscriber(t *testing.T) {
	f := newFixture(t, &channels.MockDirectory{})
	client := connect(t, f, 42, "Ana")

	received := make(chan realtime.Envelope, 2)
	client.On(realtime.EventNotificationCreated, func(env realtime.Envelope) {
		received <- env
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Published before the subscription: must never be delivered
	f.emitter.TryEmit(ctx, realtime.NewNotificationCreated(42, realtime.NotificationData{ID: "before"}))

	require.NoError(t, client.Subscribe(ctx, realtime.UserChannel(42)))
	f.emitter.TryEmit(ctx, realtime.NewNotificationCreated(42, realtime.NotificationData{ID: "after"}))

	select {
	case env := <-received:
		var p realtime.NotificationCreatedPayload
		require.NoError(t, json.Unmarshal(env.Payload, &p))
		assert.Equal(t, "after", p.Notification.ID)
	case <-time.After(3 * time.Second):
		t.Fatal("event never arrived")
	}

	select {
	case env := <-received:
		t.Fatalf("unexpected extra delivery: %s", env.Payload)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestServer_PerChannelOrderPreserved(t *testing.T) {
	f := newFixture(t, &channels.MockDirectory{})
	client := connect(t, f, 42, "Ana")

	received := make(chan string, 16)
	client.On(realtime.EventNotificationCreated, func(env realtime.Envelope) {
		var p realtime.NotificationCreatedPayload
		if err := json.Unmarshal(env.Payload, &p); err == nil {
			received <- p.Notification.ID
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, client.Subscribe(ctx, realtime.UserChannel(42)))

	ids := []string{"n1", "n2", "n3", "n4", "n5"}
	for _, id := range ids {
		f.emitter.TryEmit(ctx, realtime.NewNotificationCreated(42, realtime.NotificationData{ID: id}))
	}

	for _, want := range ids {
		select {
		case got := <-received:
			assert.Equal(t, want, got)
		case <-time.After(3 * time.Second):
			t.Fatalf("missing delivery of %s", want)
		}
	}
}

func TestServer_TypingRelayedToConversation(t *testing.T) {
	dir := &channels.MockDirectory{
		IsParticipantFunc: func(ctx context.Context, conversationID, userID int) (bool, error) {
			return conversationID == 5 && (userID == 42 || userID == 43), nil
		},
	}
	f := newFixture(t, dir)

	sender := connect(t, f, 42, "Ana")
	receiver := connect(t, f, 43, "Bea")

	typed := make(chan realtime.UserTypingPayload, 1)
	receiver.On(realtime.EventUserTyping, func(env realtime.Envelope) {
		var p realtime.UserTypingPayload
		if err := json.Unmarshal(env.Payload, &p); err == nil {
			typed <- p
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, receiver.Subscribe(ctx, realtime.ChatChannel(5)))

	require.NoError(t, sender.SendTyping(5, true))

	select {
	case p := <-typed:
		assert.Equal(t, 42, p.UserID)
		assert.Equal(t, "Ana", p.Name)
		assert.True(t, p.IsTyping)
	case <-time.After(3 * time.Second):
		t.Fatal("typing signal never arrived")
	}
}

func TestServer_PresenceLifecycle(t *testing.T) {
	f := newFixture(t, &channels.MockDirectory{})
	client := connect(t, f, 42, "Ana")

	require.Eventually(t, func() bool {
		entry, ok := f.store.Get(42)
		return ok && entry.Status == presence.StatusOnline && entry.SocketID != ""
	}, 3*time.Second, 20*time.Millisecond, "connect must record an online entry")

	client.Close()

	require.Eventually(t, func() bool {
		entry, ok := f.store.Get(42)
		return ok && entry.Status == presence.StatusOffline && entry.SocketID == ""
	}, 3*time.Second, 20*time.Millisecond, "disconnect must record offline and clear the socket")
}

func TestServer_HandshakeRejectedWithoutToken(t *testing.T) {
	f := newFixture(t, &channels.MockDirectory{})

	client := rtclient.New(f.wsURL, "", testLogger())
	err := client.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad handshake")
}
