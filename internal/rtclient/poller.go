package rtclient

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultPollInterval is how often the unread-count safety net polls
const DefaultPollInterval = 30 * time.Second

// UnreadCounter reconciles the two views of the unread notification
// count: the live stream (increments) and the periodic poll
// (point-in-time value). The two are independent and eventually
// consistent; reconciliation keeps the larger of the two so a missed
// stream event can never make the badge undercount. Only an explicit
// Reset (mark-as-read) lowers it.
type UnreadCounter struct {
	mu       sync.Mutex
	count    int
	onChange func(int)
}

// NewUnreadCounter creates a counter; onChange may be nil
func NewUnreadCounter(onChange func(int)) *UnreadCounter {
	return &UnreadCounter{onChange: onChange}
}

// StreamIncrement applies one notification.created from the stream
func (u *UnreadCounter) StreamIncrement() {
	u.mu.Lock()
	u.count++
	count := u.count
	cb := u.onChange
	u.mu.Unlock()
	if cb != nil {
		cb(count)
	}
}

// Reconcile applies a polled value, keeping the larger view
func (u *UnreadCounter) Reconcile(polled int) {
	u.mu.Lock()
	if polled <= u.count {
		u.mu.Unlock()
		return
	}
	u.count = polled
	count := u.count
	cb := u.onChange
	u.mu.Unlock()
	if cb != nil {
		cb(count)
	}
}

// Reset forces the count, used after marking notifications read
func (u *UnreadCounter) Reset(count int) {
	u.mu.Lock()
	u.count = count
	cb := u.onChange
	u.mu.Unlock()
	if cb != nil {
		cb(count)
	}
}

// Count returns the current reconciled count
func (u *UnreadCounter) Count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.count
}

// UnreadPoller is the polling safety net behind the live stream: the
// stream gives immediacy, the poll restores correctness after missed
// events (reconnect gaps have no replay). Polling pauses while the
// document is hidden.
type UnreadPoller struct {
	interval time.Duration
	fetch    func(ctx context.Context) (int, error)
	counter  *UnreadCounter
	logger   *logrus.Entry

	mu      sync.Mutex
	visible bool
}

// NewUnreadPoller wires the poller; fetch is typically Signals.UnreadCount
func NewUnreadPoller(interval time.Duration, fetch func(ctx context.Context) (int, error), counter *UnreadCounter, logger *logrus.Logger) *UnreadPoller {
	return &UnreadPoller{
		interval: interval,
		fetch:    fetch,
		counter:  counter,
		logger:   logger.WithField("component", "unread-poller"),
		visible:  true,
	}
}

// SetVisible pauses or resumes polling with document visibility.
// Becoming visible triggers an immediate poll to close any gap.
func (p *UnreadPoller) SetVisible(ctx context.Context, visible bool) {
	p.mu.Lock()
	wasVisible := p.visible
	p.visible = visible
	p.mu.Unlock()

	if visible && !wasVisible {
		p.pollOnce(ctx)
	}
}

// Run polls until ctx is cancelled. Failures are logged, never fatal:
// the stream keeps working and the next tick retries.
func (p *UnreadPoller) Run(ctx context.Context) {
	p.pollOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.mu.Lock()
			visible := p.visible
			p.mu.Unlock()
			if !visible {
				continue
			}
			p.pollOnce(ctx)
		}
	}
}

func (p *UnreadPoller) pollOnce(ctx context.Context) {
	count, err := p.fetch(ctx)
	if err != nil {
		p.logger.Debugf("Unread poll failed: %v", err)
		return
	}
	p.counter.Reconcile(count)
}
