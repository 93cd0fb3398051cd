package realtime

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// Broker publishes serialized event envelopes to a named channel.
// Delivery is live-only: a subscriber that joins after publish never
// sees the message (no backlog, no replay).
type Broker interface {
	Publish(ctx context.Context, channel string, data []byte) error
}

// redisChannelPrefix namespaces realtime traffic inside Redis pub/sub
const redisChannelPrefix = "rt:"

// RedisBroker fans events out across nodes through Redis pub/sub.
// Every node runs a subscription loop that feeds its local hub, so a
// publish on one node reaches websocket clients connected to any node.
type RedisBroker struct {
	rdb    *redis.Client
	logger *logrus.Entry
}

// NewRedisBroker creates a RedisBroker on an established Redis client
func NewRedisBroker(rdb *redis.Client, logger *logrus.Logger) *RedisBroker {
	return &RedisBroker{
		rdb:    rdb,
		logger: logger.WithField("component", "redis-broker"),
	}
}

// Publish sends the envelope to the prefixed Redis channel
func (b *RedisBroker) Publish(ctx context.Context, channel string, data []byte) error {
	return b.rdb.Publish(ctx, redisChannelPrefix+channel, data).Err()
}

// Run subscribes to all realtime channels and forwards each message to
// the local hub. It blocks until ctx is cancelled or the subscription
// channel closes.
func (b *RedisBroker) Run(ctx context.Context, hub *Hub) {
	pubsub := b.rdb.PSubscribe(ctx, redisChannelPrefix+"*")
	defer pubsub.Close()

	// Wait for subscription confirmation
	if _, err := pubsub.Receive(ctx); err != nil {
		b.logger.Errorf("Failed to confirm Redis subscription: %v", err)
		return
	}
	b.logger.Info("Subscribed to realtime fan-out")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				b.logger.Warn("Redis pub/sub channel closed")
				return
			}
			channel := msg.Channel[len(redisChannelPrefix):]
			hub.Broadcast(channel, []byte(msg.Payload))
		}
	}
}
