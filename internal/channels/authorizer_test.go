package channels

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func newTestAuthorizer(dir *MockDirectory) *Authorizer {
	return NewAuthorizer(dir, dir, dir, testLogger())
}

func TestAuthorize_UserChannel(t *testing.T) {
	authz := newTestAuthorizer(&MockDirectory{})
	ctx := context.Background()
	p := Principal{ID: 42, Name: "Laura"}

	assert.True(t, authz.Authorize(ctx, p, "user.42"), "own user channel must be allowed")
	assert.False(t, authz.Authorize(ctx, p, "user.43"), "foreign user channel must be denied")
}

func TestAuthorize_PresenceChannel(t *testing.T) {
	authz := newTestAuthorizer(&MockDirectory{})
	assert.True(t, authz.Authorize(context.Background(), Principal{ID: 1}, "presence"))
}

func TestAuthorize_ChatChannel(t *testing.T) {
	dir := &MockDirectory{
		IsParticipantFunc: func(_ context.Context, conversationID, userID int) (bool, error) {
			return conversationID == 7 && userID == 42, nil
		},
	}
	authz := newTestAuthorizer(dir)
	ctx := context.Background()

	assert.True(t, authz.Authorize(ctx, Principal{ID: 42}, "chat.7"))
	assert.False(t, authz.Authorize(ctx, Principal{ID: 99}, "chat.7"))
	assert.False(t, authz.Authorize(ctx, Principal{ID: 42}, "chat.8"))
}

func TestAuthorize_ChatChannelFallbackWithoutDirectory(t *testing.T) {
	authz := NewAuthorizer(nil, nil, nil, testLogger())
	ctx := context.Background()

	// Legacy fallback: without a directory any authenticated principal passes
	assert.True(t, authz.Authorize(ctx, Principal{ID: 1}, "chat.7"))
	// The same missing wiring still fails closed for the other namespaces
	assert.False(t, authz.Authorize(ctx, Principal{ID: 1}, "session.7"))
	assert.False(t, authz.Authorize(ctx, Principal{ID: 1}, "plan.7"))
}

func TestAuthorize_SessionChannel(t *testing.T) {
	dir := &MockDirectory{
		SessionPartiesFunc: func(_ context.Context, sessionID int) (int, int, error) {
			if sessionID != 3 {
				return 0, 0, errors.New("session not found")
			}
			return 42, 9, nil
		},
	}
	authz := newTestAuthorizer(dir)
	ctx := context.Background()

	assert.True(t, authz.Authorize(ctx, Principal{ID: 42}, "session.3"), "patient allowed")
	assert.True(t, authz.Authorize(ctx, Principal{ID: 9}, "session.3"), "professional allowed")
	assert.False(t, authz.Authorize(ctx, Principal{ID: 8}, "session.3"), "third party denied")
	assert.False(t, authz.Authorize(ctx, Principal{ID: 42}, "session.4"), "lookup failure denies")
}

func TestAuthorize_PlanChannel(t *testing.T) {
	dir := &MockDirectory{
		PlanPartiesFunc: func(_ context.Context, planID int) (int, int, error) {
			if planID != 99 {
				return 0, 0, errors.New("plan not found")
			}
			return 42, 9, nil
		},
	}
	authz := newTestAuthorizer(dir)
	ctx := context.Background()

	assert.True(t, authz.Authorize(ctx, Principal{ID: 42}, "plan.99"))
	assert.True(t, authz.Authorize(ctx, Principal{ID: 9}, "plan.99"))
	assert.False(t, authz.Authorize(ctx, Principal{ID: 77}, "plan.99"),
		"principal outside the patient/nutritionist pair must be denied")
	assert.False(t, authz.Authorize(ctx, Principal{ID: 42}, "plan.100"))
}

func TestAuthorize_MalformedChannels(t *testing.T) {
	authz := newTestAuthorizer(&MockDirectory{})
	ctx := context.Background()
	p := Principal{ID: 42}

	for _, channel := range []string{"", "user.", "user.abc", "billing.1", "presence.1", "user.42.extra"} {
		assert.Falsef(t, authz.Authorize(ctx, p, channel), "channel %q must be denied", channel)
	}
}

func TestAuthorize_Idempotent(t *testing.T) {
	calls := 0
	dir := &MockDirectory{
		IsParticipantFunc: func(_ context.Context, _, _ int) (bool, error) {
			calls++
			return true, nil
		},
	}
	authz := newTestAuthorizer(dir)
	ctx := context.Background()

	// Re-authorization on reconnect re-runs the lookup every time
	assert.True(t, authz.Authorize(ctx, Principal{ID: 1}, "chat.5"))
	assert.True(t, authz.Authorize(ctx, Principal{ID: 1}, "chat.5"))
	assert.Equal(t, 2, calls, "authorization must not be cached")
}
