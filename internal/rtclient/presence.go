package rtclient

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"nutrihub/internal/presence"
	"nutrihub/internal/realtime"
)

// PresenceView is the client-local reconciliation of presence state:
// primed once from a batch fetch, then kept current by user.online and
// user.offline events. Live updates win over the primed snapshot.
type PresenceView struct {
	mu      sync.Mutex
	entries map[int]presence.Entry
}

// NewPresenceView creates an empty view
func NewPresenceView() *PresenceView {
	return &PresenceView{entries: make(map[int]presence.Entry)}
}

// Prime loads the initial snapshot. Entries already updated by a live
// event are not overwritten with older data.
func (v *PresenceView) Prime(entries map[int]presence.Entry) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for id, entry := range entries {
		if existing, ok := v.entries[id]; ok && existing.LastSeenAt.After(entry.LastSeenAt) {
			continue
		}
		v.entries[id] = entry
	}
}

// ApplyOnline applies a user.online event
func (v *PresenceView) ApplyOnline(p realtime.UserOnlinePayload, at time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries[p.UserID] = presence.Entry{
		UserID:     p.UserID,
		Name:       p.Name,
		AvatarURL:  p.AvatarURL,
		Status:     presence.StatusOnline,
		LastSeenAt: at,
	}
}

// ApplyOffline applies a user.offline event
func (v *PresenceView) ApplyOffline(p realtime.UserOfflinePayload) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries[p.UserID] = presence.Entry{
		UserID:     p.UserID,
		Name:       p.Name,
		Status:     presence.StatusOffline,
		LastSeenAt: p.LastSeenAt,
	}
}

// Get returns one user's entry, if known
func (v *PresenceView) Get(userID int) (presence.Entry, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	entry, ok := v.entries[userID]
	return entry, ok
}

// Online returns the ids of users currently seen online
func (v *PresenceView) Online() []int {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []int
	for id, entry := range v.entries {
		if entry.Status == presence.StatusOnline {
			out = append(out, id)
		}
	}
	return out
}

// SubscribePresence joins the shared presence channel, registering the
// live handlers first and then priming the view so no event between
// the two is lost. hydrate is typically a Signals.FetchPresence call
// for the user's contacts.
func (c *Client) SubscribePresence(ctx context.Context, hydrate func(ctx context.Context) (map[int]presence.Entry, error)) (*PresenceView, error) {
	view := NewPresenceView()

	c.On(realtime.EventUserOnline, func(env realtime.Envelope) {
		var p realtime.UserOnlinePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			c.logger.Debugf("Malformed user.online payload: %v", err)
			return
		}
		view.ApplyOnline(p, env.EmittedAt)
	})
	c.On(realtime.EventUserOffline, func(env realtime.Envelope) {
		var p realtime.UserOfflinePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			c.logger.Debugf("Malformed user.offline payload: %v", err)
			return
		}
		view.ApplyOffline(p)
	})

	if err := c.Subscribe(ctx, realtime.PresenceChannel); err != nil {
		return nil, err
	}

	if hydrate != nil {
		entries, err := hydrate(ctx)
		if err != nil {
			// Degraded but usable: live events still populate the view
			c.logger.Warnf("Presence hydration failed: %v", err)
		} else {
			view.Prime(entries)
		}
	}
	return view, nil
}
