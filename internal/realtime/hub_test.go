package realtime

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type fakeSubscriber struct {
	received [][]byte
	full     bool
}

func (f *fakeSubscriber) Send(data []byte) bool {
	if f.full {
		return false
	}
	f.received = append(f.received, data)
	return true
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestHub_SubscribeAndBroadcast(t *testing.T) {
	hub := NewHub(testLogger())
	s1 := &fakeSubscriber{}
	s2 := &fakeSubscriber{}

	hub.Subscribe("user.42", s1)
	hub.Subscribe("user.42", s2)
	hub.Subscribe("user.7", s1)

	hub.Broadcast("user.42", []byte("a"))
	hub.Broadcast("user.7", []byte("b"))

	assert.Equal(t, [][]byte{[]byte("a"), []byte("b")}, s1.received)
	assert.Equal(t, [][]byte{[]byte("a")}, s2.received)
}

func TestHub_NoBacklogForLateJoiners(t *testing.T) {
	hub := NewHub(testLogger())

	hub.Broadcast("user.42", []byte("before"))

	late := &fakeSubscriber{}
	hub.Subscribe("user.42", late)
	hub.Broadcast("user.42", []byte("after"))

	assert.Equal(t, [][]byte{[]byte("after")}, late.received,
		"a subscriber joining mid-stream must not see earlier events")
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub(testLogger())
	s := &fakeSubscriber{}

	hub.Subscribe("chat.1", s)
	hub.Unsubscribe("chat.1", s)
	// leave is idempotent
	hub.Unsubscribe("chat.1", s)

	hub.Broadcast("chat.1", []byte("x"))
	assert.Empty(t, s.received)
	assert.Zero(t, hub.SubscriberCount("chat.1"))
}

func TestHub_UnsubscribeAll(t *testing.T) {
	hub := NewHub(testLogger())
	s := &fakeSubscriber{}

	hub.Subscribe("chat.1", s)
	hub.Subscribe("presence", s)
	hub.UnsubscribeAll(s)

	hub.Broadcast("chat.1", []byte("x"))
	hub.Broadcast("presence", []byte("y"))
	assert.Empty(t, s.received)
}

func TestHub_DropsSlowSubscriber(t *testing.T) {
	hub := NewHub(testLogger())
	slow := &fakeSubscriber{full: true}
	ok := &fakeSubscriber{}

	hub.Subscribe("presence", slow)
	hub.Subscribe("presence", ok)

	hub.Broadcast("presence", []byte("x"))
	assert.Equal(t, 1, hub.SubscriberCount("presence"), "slow subscriber should be dropped")

	hub.Broadcast("presence", []byte("y"))
	assert.Len(t, ok.received, 2)
	assert.Empty(t, slow.received)
}

func TestHub_PublishImplementsBroker(t *testing.T) {
	hub := NewHub(testLogger())
	s := &fakeSubscriber{}
	hub.Subscribe("plan.7", s)

	var broker Broker = hub
	err := broker.Publish(context.Background(), "plan.7", []byte("env"))

	assert.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("env")}, s.received)
}
