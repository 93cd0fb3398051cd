package rtclient

import (
	"sync"
	"time"
)

// DefaultIdleAfter is the silence after which a user is considered idle
const DefaultIdleAfter = 5 * time.Minute

// InactivityMonitor watches local input activity and drives presence
// transitions: Active -> (idleAfter of silence) -> Idle, back to
// Active on any qualifying input. It is one debounced single-shot
// timer, not a sliding window.
type InactivityMonitor struct {
	idleAfter time.Duration
	onActive  func()
	onIdle    func()
	onStop    func()

	mu      sync.Mutex
	timer   *time.Timer
	idle    bool
	stopped bool
}

// NewInactivityMonitor wires the transition callbacks. onActive
// signals online, onIdle signals away, onStop is the best-effort
// offline signal on teardown; any of them may be nil.
func NewInactivityMonitor(idleAfter time.Duration, onActive, onIdle, onStop func()) *InactivityMonitor {
	return &InactivityMonitor{
		idleAfter: idleAfter,
		onActive:  onActive,
		onIdle:    onIdle,
		onStop:    onStop,
	}
}

// Start puts the monitor in Active state and signals online immediately
func (m *InactivityMonitor) Start() {
	m.mu.Lock()
	if m.stopped || m.timer != nil {
		m.mu.Unlock()
		return
	}
	m.idle = false
	m.timer = time.AfterFunc(m.idleAfter, m.fire)
	m.mu.Unlock()

	if m.onActive != nil {
		m.onActive()
	}
}

// Activity reports one qualifying input event. While Active it only
// resets the timer; from Idle it transitions back to Active and
// re-signals online.
func (m *InactivityMonitor) Activity() {
	m.mu.Lock()
	if m.stopped || m.timer == nil {
		m.mu.Unlock()
		return
	}
	wasIdle := m.idle
	m.idle = false
	m.timer.Reset(m.idleAfter)
	m.mu.Unlock()

	if wasIdle && m.onActive != nil {
		m.onActive()
	}
}

func (m *InactivityMonitor) fire() {
	m.mu.Lock()
	if m.stopped || m.idle {
		m.mu.Unlock()
		return
	}
	m.idle = true
	m.mu.Unlock()

	if m.onIdle != nil {
		m.onIdle()
	}
}

// Idle reports whether the monitor currently considers the user idle
func (m *InactivityMonitor) Idle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.idle
}

// Stop clears the timer without firing it and sends the best-effort
// teardown signal. Signaling after Stop is a bug: the user is gone.
func (m *InactivityMonitor) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	if m.timer != nil {
		m.timer.Stop()
	}
	m.mu.Unlock()

	if m.onStop != nil {
		m.onStop()
	}
}
