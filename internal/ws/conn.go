package ws

import (
	"context"
	"encoding/json"
	"time"

	"nutrihub/internal/channels"
	"nutrihub/internal/realtime"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// Time allowed to write a message
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message
	pongWait = 60 * time.Second

	// Send pings with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Max inbound message size
	maxMessageSize = 4 * 1024
)

// clientFrame is a message sent by the client over the socket
type clientFrame struct {
	Type           string `json:"type"`
	Channel        string `json:"channel,omitempty"`
	ConversationID int    `json:"conversationId,omitempty"`
	IsTyping       bool   `json:"isTyping,omitempty"`
}

// controlFrame is a non-event message sent to the client
type controlFrame struct {
	Type     string `json:"type"`
	Channel  string `json:"channel,omitempty"`
	SocketID string `json:"socketId,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Conn is one authenticated websocket connection. It implements
// realtime.Subscriber; envelopes queue on the send channel in publish
// order and the write pump drains them FIFO.
type Conn struct {
	server    *Server
	ws        *websocket.Conn
	send      chan []byte
	principal channels.Principal
	user      realtime.UserRef
	socketID  string
	logger    *logrus.Entry
}

// Send implements realtime.Subscriber without blocking the hub.
// A full buffer means the client cannot keep up; the hub drops the
// connection from the channel and the write pump shuts it down.
func (c *Conn) Send(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// sendControl queues a control frame, best-effort
func (c *Conn) sendControl(frame controlFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		c.logger.Errorf("Failed to marshal control frame: %v", err)
		return
	}
	c.Send(data)
}

// readPump reads client frames until the connection dies, then tears
// the connection down (channel subscriptions and presence).
func (c *Conn) readPump() {
	defer c.teardown()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warnf("Unexpected close: %v", err)
			}
			return
		}
		c.handleFrame(message)
	}
}

// writePump drains the send queue to the socket and keeps the
// connection alive with pings
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debugf("Write failed: %v", err)
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleFrame dispatches one inbound client frame
func (c *Conn) handleFrame(message []byte) {
	var frame clientFrame
	if err := json.Unmarshal(message, &frame); err != nil {
		c.logger.Debugf("Dropping malformed frame: %v", err)
		return
	}

	ctx := context.Background()

	switch frame.Type {
	case "subscribe":
		c.handleSubscribe(ctx, frame.Channel)

	case "unsubscribe":
		c.server.hub.Unsubscribe(frame.Channel, c)
		c.sendControl(controlFrame{Type: "unsubscribed", Channel: frame.Channel})

	case "typing":
		c.handleTyping(ctx, frame.ConversationID, frame.IsTyping)

	default:
		c.logger.Debugf("Unknown frame type %q", frame.Type)
	}
}

// handleSubscribe re-runs channel authorization and joins the hub
func (c *Conn) handleSubscribe(ctx context.Context, channel string) {
	if !c.server.authz.Authorize(ctx, c.principal, channel) {
		c.logger.WithField("channel", channel).Info("Subscription denied")
		c.sendControl(controlFrame{Type: "error", Channel: channel, Message: "subscription denied"})
		return
	}
	c.server.hub.Subscribe(channel, c)
	c.sendControl(controlFrame{Type: "subscribed", Channel: channel})
}

// handleTyping relays a typing signal to the conversation channel.
// The sender must be allowed on the conversation's chat channel.
func (c *Conn) handleTyping(ctx context.Context, conversationID int, isTyping bool) {
	if conversationID <= 0 {
		return
	}
	if !c.server.authz.Authorize(ctx, c.principal, realtime.ChatChannel(conversationID)) {
		c.logger.WithField("conversation_id", conversationID).Info("Typing signal denied")
		return
	}
	c.server.emitter.TryEmit(ctx, realtime.NewUserTyping(conversationID, c.user, isTyping))
}

// teardown releases everything the connection held. Offline is only
// recorded when this socket is still the user's current one, so a
// reconnect that already replaced the socket is not clobbered.
func (c *Conn) teardown() {
	c.server.hub.UnsubscribeAll(c)
	c.ws.Close()

	ctx := context.Background()
	if entry, ok := c.server.store.Get(c.user.ID); ok && entry.SocketID == c.socketID {
		c.server.store.SetOffline(ctx, c.user.ID, time.Now())
	}
	c.logger.Info("Client disconnected")
}
