package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Envelope is the wire form of an event on a single channel
type Envelope struct {
	Type      string          `json:"type"`
	Channel   string          `json:"channel"`
	Event     EventName       `json:"event"`
	Payload   json.RawMessage `json:"payload"`
	EmittedAt time.Time       `json:"emittedAt"`
}

// FrameTypeEvent marks an envelope frame on the websocket wire
const FrameTypeEvent = "event"

// Emitter serializes events and hands them to the transport.
// Delivery is fire-and-forget: the caller gets the publish error back
// but the triggering business operation must never be rolled back
// because of it.
type Emitter struct {
	broker Broker
	logger *logrus.Entry
}

// NewEmitter creates an emitter publishing through the given broker
func NewEmitter(broker Broker, logger *logrus.Logger) *Emitter {
	return &Emitter{
		broker: broker,
		logger: logger.WithField("component", "emitter"),
	}
}

// Emit publishes the event to every target channel. The payload is
// serialized once; each channel gets its own envelope. Returns the
// first publish error so callers can log the delivery failure.
func (e *Emitter) Emit(ctx context.Context, ev Event) error {
	if len(ev.Channels) == 0 {
		return fmt.Errorf("event %s has no target channels", ev.Name)
	}

	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", ev.Name, err)
	}

	emittedAt := ev.EmittedAt
	if emittedAt.IsZero() {
		emittedAt = time.Now()
	}

	var firstErr error
	for _, channel := range ev.Channels {
		env := Envelope{
			Type:      FrameTypeEvent,
			Channel:   channel,
			Event:     ev.Name,
			Payload:   payload,
			EmittedAt: emittedAt,
		}
		data, err := json.Marshal(env)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := e.broker.Publish(ctx, channel, data); err != nil {
			e.logger.WithFields(logrus.Fields{
				"event":   ev.Name,
				"channel": channel,
			}).Errorf("Publish failed: %v", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// TryEmit is Emit for callers on the best-effort path: the delivery
// failure is logged and swallowed so the domain action proceeds.
func (e *Emitter) TryEmit(ctx context.Context, ev Event) {
	if err := e.Emit(ctx, ev); err != nil {
		e.logger.Warnf("Best-effort emit of %s failed: %v", ev.Name, err)
	}
}
