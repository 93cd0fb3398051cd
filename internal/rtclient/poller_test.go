package rtclient

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestUnreadCounter_ReconcileKeepsLargerView(t *testing.T) {
	counter := NewUnreadCounter(nil)

	counter.StreamIncrement()
	counter.StreamIncrement()
	assert.Equal(t, 2, counter.Count())

	// A stale poll must not regress the streamed count
	counter.Reconcile(1)
	assert.Equal(t, 2, counter.Count())

	// A poll that saw events the stream missed wins
	counter.Reconcile(5)
	assert.Equal(t, 5, counter.Count())
}

func TestUnreadCounter_ResetAfterMarkRead(t *testing.T) {
	var notified []int
	counter := NewUnreadCounter(func(n int) { notified = append(notified, n) })

	counter.StreamIncrement()
	counter.Reset(0)

	assert.Equal(t, 0, counter.Count())
	assert.Equal(t, []int{1, 0}, notified)
}

func TestUnreadPoller_PollsAndReconciles(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	fetch := func(context.Context) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return 3, nil
	}

	counter := NewUnreadCounter(nil)
	poller := NewUnreadPoller(20*time.Millisecond, fetch, counter, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Run(ctx)
		close(done)
	}()

	time.Sleep(70 * time.Millisecond)
	cancel()
	<-done

	mu.Lock()
	assert.GreaterOrEqual(t, calls, 2, "initial poll plus at least one tick")
	mu.Unlock()
	assert.Equal(t, 3, counter.Count())
}

func TestUnreadPoller_PausedWhileHidden(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	fetch := func(context.Context) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return 1, nil
	}

	counter := NewUnreadCounter(nil)
	poller := NewUnreadPoller(15*time.Millisecond, fetch, counter, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	poller.SetVisible(ctx, false)

	go poller.Run(ctx)
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	afterInitial := calls
	mu.Unlock()

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, afterInitial, calls, "no ticks while hidden")
	mu.Unlock()

	// Becoming visible triggers an immediate catch-up poll
	poller.SetVisible(ctx, true)
	mu.Lock()
	assert.Equal(t, afterInitial+1, calls)
	mu.Unlock()
}

func TestUnreadPoller_FetchFailureIsNotFatal(t *testing.T) {
	fetch := func(context.Context) (int, error) {
		return 0, errors.New("transport unreachable")
	}
	counter := NewUnreadCounter(nil)
	counter.Reconcile(4)

	poller := NewUnreadPoller(10*time.Millisecond, fetch, counter, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	poller.Run(ctx)

	assert.Equal(t, 4, counter.Count(), "failed polls leave the count untouched")
}
