package realtime

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Subscriber receives raw envelopes for the channels it joined.
// Send must not block; returning false marks the subscriber as unable
// to keep up, and the hub drops it from the channel.
type Subscriber interface {
	Send(data []byte) bool
}

// Hub tracks which subscribers are joined to which channels and fans
// published envelopes out to them. Within one channel delivery order
// follows publish order; there is no ordering across channels and no
// backlog for late joiners.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[Subscriber]bool
	logger   *logrus.Entry
}

// NewHub creates an empty hub
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		channels: make(map[string]map[Subscriber]bool),
		logger:   logger.WithField("component", "hub"),
	}
}

// Subscribe joins sub to the named channel. Idempotent.
func (h *Hub) Subscribe(channel string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.channels[channel] == nil {
		h.channels[channel] = make(map[Subscriber]bool)
	}
	h.channels[channel][sub] = true
}

// Unsubscribe removes sub from the named channel. Idempotent.
func (h *Hub) Unsubscribe(channel string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.channels[channel]
	if !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.channels, channel)
	}
}

// UnsubscribeAll removes sub from every channel it joined
func (h *Hub) UnsubscribeAll(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for channel, subs := range h.channels {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.channels, channel)
		}
	}
}

// SubscriberCount returns the number of subscribers on a channel
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

// Broadcast delivers data to every current subscriber of the channel.
// Subscribers that cannot keep up are dropped.
func (h *Hub) Broadcast(channel string, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.channels[channel]
	if !ok {
		return
	}

	for sub := range subs {
		if !sub.Send(data) {
			h.logger.WithField("channel", channel).Warn("Dropping slow subscriber")
			delete(subs, sub)
		}
	}
	if len(subs) == 0 {
		delete(h.channels, channel)
	}
}

// Publish implements Broker for single-node deployments where the hub
// is the transport itself.
func (h *Hub) Publish(_ context.Context, channel string, data []byte) error {
	h.Broadcast(channel, data)
	return nil
}
