package rtclient

import (
	"sort"
	"sync"
	"time"

	"nutrihub/internal/realtime"
)

const (
	// DefaultTypingDebounce is the sender-side silence after which a
	// typing(false) is sent automatically.
	DefaultTypingDebounce = 2 * time.Second

	// DefaultTypingExpiry is the receiver-side timeout after which a
	// typing entry disappears without an explicit typing(false). It is
	// deliberately longer than the sender debounce so one lost message
	// does not make the indicator flicker.
	DefaultTypingExpiry = 3 * time.Second
)

// TypingNotifier drives the sender half of the typing protocol for one
// conversation. Every keystroke sends typing(true) and re-arms a
// single debounce timer; when the timer elapses with no further
// keystroke, exactly one typing(false) goes out.
type TypingNotifier struct {
	debounce time.Duration
	send     func(isTyping bool) error

	mu      sync.Mutex
	timer   *time.Timer
	active  bool
	stopped bool
}

// NewTypingNotifier creates a notifier with the given debounce window
func NewTypingNotifier(debounce time.Duration, send func(isTyping bool) error) *TypingNotifier {
	return &TypingNotifier{debounce: debounce, send: send}
}

// Keystroke reports one qualifying input. Send failures are ignored:
// typing signals are advisory.
func (t *TypingNotifier) Keystroke() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.active = true
	if t.timer == nil {
		t.timer = time.AfterFunc(t.debounce, t.fire)
	} else {
		t.timer.Reset(t.debounce)
	}
	t.mu.Unlock()

	_ = t.send(true)
}

func (t *TypingNotifier) fire() {
	t.mu.Lock()
	if t.stopped || !t.active {
		t.mu.Unlock()
		return
	}
	t.active = false
	t.mu.Unlock()

	_ = t.send(false)
}

// Stop clears the pending timer without firing it, so no typing signal
// is sent for a user who has navigated away
func (t *TypingNotifier) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	t.active = false
	if t.timer != nil {
		t.timer.Stop()
	}
}

type typingEntry struct {
	user  realtime.UserRef
	timer *time.Timer
}

// TypingSet is the receiver half: the set of users currently typing in
// one conversation. An entry expires on its own unless refreshed by
// another typing(true) within the expiry window.
type TypingSet struct {
	expiry time.Duration

	mu      sync.Mutex
	users   map[int]*typingEntry
	stopped bool
}

// NewTypingSet creates an empty set with the given expiry
func NewTypingSet(expiry time.Duration) *TypingSet {
	return &TypingSet{
		expiry: expiry,
		users:  make(map[int]*typingEntry),
	}
}

// Observe applies one user.typing payload
func (s *TypingSet) Observe(p realtime.UserTypingPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	if !p.IsTyping {
		if entry, ok := s.users[p.UserID]; ok {
			entry.timer.Stop()
			delete(s.users, p.UserID)
		}
		return
	}

	if entry, ok := s.users[p.UserID]; ok {
		entry.user.Name = p.Name
		entry.timer.Reset(s.expiry)
		return
	}

	userID := p.UserID
	s.users[userID] = &typingEntry{
		user: realtime.UserRef{ID: p.UserID, Name: p.Name},
		timer: time.AfterFunc(s.expiry, func() {
			s.expire(userID)
		}),
	}
}

func (s *TypingSet) expire(userID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
}

// Users returns who is currently typing, ordered by user id
func (s *TypingSet) Users() []realtime.UserRef {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]realtime.UserRef, 0, len(s.users))
	for _, entry := range s.users {
		out = append(out, entry.user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Stop clears all pending expiry timers
func (s *TypingSet) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for id, entry := range s.users {
		entry.timer.Stop()
		delete(s.users, id)
	}
}
