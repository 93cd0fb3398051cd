package presence

import (
	"context"
	"sync"
	"time"

	"nutrihub/internal/realtime"

	"github.com/sirupsen/logrus"
)

// Status is a user's realtime liveness state
type Status string

const (
	StatusOnline  Status = "online"
	StatusAway    Status = "away"
	StatusOffline Status = "offline"
)

// Entry is one user's current presence state. There is at most one
// entry per user; offline entries keep their lastSeenAt but no socket.
type Entry struct {
	UserID     int       `json:"userId"`
	Name       string    `json:"name"`
	AvatarURL  string    `json:"avatarUrl"`
	Status     Status    `json:"status"`
	LastSeenAt time.Time `json:"lastSeenAt"`
	SocketID   string    `json:"socketId,omitempty"`
}

// Sink receives presence transition events for broadcast. Emission is
// best-effort; the store never fails a transition because of it.
type Sink interface {
	TryEmit(ctx context.Context, ev realtime.Event)
}

// Store is the single source of truth for user presence on this node.
// Writes are serialized, reads run concurrently. Transitions carrying
// a timestamp older than the stored one are rejected silently, which
// keeps lastSeenAt monotonic when disconnect and reconnect signals
// race across network hops.
type Store struct {
	mu       sync.RWMutex
	entries  map[int]*Entry
	sink     Sink
	snapshot *Snapshot
	now      func() time.Time
	logger   *logrus.Entry
}

// NewStore creates a presence store. snapshot may be nil for
// single-node deployments and tests.
func NewStore(sink Sink, snapshot *Snapshot, logger *logrus.Logger) *Store {
	return &Store{
		entries:  make(map[int]*Entry),
		sink:     sink,
		snapshot: snapshot,
		now:      time.Now,
		logger:   logger.WithField("component", "presence-store"),
	}
}

// SetOnline transitions the user to online, recording the socket id.
// A second socket for the same user overwrites the first; the entry
// stays unique per user. Emits user.online on success.
func (s *Store) SetOnline(ctx context.Context, user realtime.UserRef, socketID string) bool {
	now := s.now()

	s.mu.Lock()
	entry, ok := s.entries[user.ID]
	if ok && now.Before(entry.LastSeenAt) {
		s.mu.Unlock()
		s.logger.WithField("user_id", user.ID).Debug("Rejected stale online transition")
		return false
	}
	if !ok {
		entry = &Entry{UserID: user.ID}
		s.entries[user.ID] = entry
	}
	entry.Name = user.Name
	entry.AvatarURL = user.AvatarURL
	entry.Status = StatusOnline
	entry.LastSeenAt = now
	entry.SocketID = socketID
	saved := *entry
	s.mu.Unlock()

	s.mirror(ctx, saved)
	if s.sink != nil {
		s.sink.TryEmit(ctx, realtime.NewUserOnline(user))
	}
	return true
}

// SetAway demotes an online user to away. A user who is already away
// or offline is left untouched. No event is broadcast: away surfaces
// to clients as the absence of recent activity.
func (s *Store) SetAway(ctx context.Context, userID int) bool {
	now := s.now()

	s.mu.Lock()
	entry, ok := s.entries[userID]
	if !ok || entry.Status != StatusOnline || now.Before(entry.LastSeenAt) {
		s.mu.Unlock()
		return false
	}
	entry.Status = StatusAway
	entry.LastSeenAt = now
	saved := *entry
	s.mu.Unlock()

	s.mirror(ctx, saved)
	return true
}

// SetOffline transitions the user to offline at lastSeenAt, clearing
// the socket id. Transitions older than the stored lastSeenAt are
// rejected. Emits user.offline on success.
func (s *Store) SetOffline(ctx context.Context, userID int, lastSeenAt time.Time) bool {
	s.mu.Lock()
	entry, ok := s.entries[userID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	if lastSeenAt.Before(entry.LastSeenAt) {
		s.mu.Unlock()
		s.logger.WithField("user_id", userID).Debug("Rejected stale offline transition")
		return false
	}
	entry.Status = StatusOffline
	entry.LastSeenAt = lastSeenAt
	entry.SocketID = ""
	saved := *entry
	user := realtime.UserRef{ID: entry.UserID, Name: entry.Name, AvatarURL: entry.AvatarURL}
	s.mu.Unlock()

	s.mirror(ctx, saved)
	if s.sink != nil {
		s.sink.TryEmit(ctx, realtime.NewUserOffline(user, lastSeenAt))
	}
	return true
}

// Get returns a copy of the user's entry, if known
func (s *Store) Get(userID int) (Entry, bool) {
	s.mu.RLock()
	entry, ok := s.entries[userID]
	if ok {
		e := *entry
		s.mu.RUnlock()
		return e, true
	}
	s.mu.RUnlock()
	return Entry{}, false
}

// GetMany returns entries for the requested users, used to hydrate a
// client's initial presence view. Users unknown to this node are
// looked up in the Redis snapshot when one is configured; users with
// no entry anywhere are omitted.
func (s *Store) GetMany(ctx context.Context, userIDs []int) map[int]Entry {
	result := make(map[int]Entry, len(userIDs))

	s.mu.RLock()
	var missing []int
	for _, id := range userIDs {
		if entry, ok := s.entries[id]; ok {
			result[id] = *entry
		} else {
			missing = append(missing, id)
		}
	}
	s.mu.RUnlock()

	if s.snapshot != nil {
		for _, id := range missing {
			entry, err := s.snapshot.Load(ctx, id)
			if err != nil {
				s.logger.Warnf("Presence snapshot lookup for user %d failed: %v", id, err)
				continue
			}
			if entry != nil {
				result[id] = *entry
			}
		}
	}
	return result
}

// mirror writes the entry to the Redis snapshot, best-effort
func (s *Store) mirror(ctx context.Context, entry Entry) {
	if s.snapshot == nil {
		return
	}
	if err := s.snapshot.Save(ctx, entry); err != nil {
		s.logger.Warnf("Presence snapshot write for user %d failed: %v", entry.UserID, err)
	}
}
