package rtclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"nutrihub/internal/realtime"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Handler is invoked once per received event of a registered name, in
// publish order per channel. There is no ordering across channels.
type Handler func(env realtime.Envelope)

const (
	defaultInitialBackoff = time.Second
	maxBackoff            = 30 * time.Second
	subscribeTimeout      = 10 * time.Second
)

// Client owns the channel subscriptions of one session. After a
// transport-level reconnect every held channel is re-subscribed (and
// so re-authorized) before the client reports live again; events
// published while disconnected are lost and callers needing
// correctness across the gap must reconcile with a point-in-time
// fetch.
type Client struct {
	wsURL          string
	dialer         *websocket.Dialer
	logger         *logrus.Entry
	initialBackoff time.Duration

	mu          sync.Mutex
	conn        *websocket.Conn
	handlers    map[realtime.EventName][]Handler
	desired     map[string]bool
	subWait     map[string]chan error
	onReconnect []func()
	closed      bool
	done        chan struct{}

	writeMu sync.Mutex
}

// New creates a client for the given websocket endpoint. The token is
// appended as a query parameter, the way browser clients authenticate
// a handshake.
func New(wsURL, token string, logger *logrus.Logger) *Client {
	u := wsURL
	if token != "" {
		sep := "?"
		if parsed, err := url.Parse(wsURL); err == nil && parsed.RawQuery != "" {
			sep = "&"
		}
		u = wsURL + sep + "token=" + url.QueryEscape(token)
	}
	return &Client{
		wsURL:          u,
		dialer:         websocket.DefaultDialer,
		logger:         logger.WithField("component", "rtclient"),
		initialBackoff: defaultInitialBackoff,
		handlers:       make(map[realtime.EventName][]Handler),
		desired:        make(map[string]bool),
		subWait:        make(map[string]chan error),
		done:           make(chan struct{}),
	}
}

// Connect dials the endpoint and starts the read loop
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", c.wsURL, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop(conn)
	return nil
}

// On registers a handler for an event name. Handlers run sequentially
// on the read loop, so registration order is invocation order.
func (c *Client) On(name realtime.EventName, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[name] = append(c.handlers[name], h)
}

// OnReconnect registers a callback invoked after every successful
// reconnect, once held channels have been re-requested. Callers use it
// to trigger point-in-time reconciliation fetches.
func (c *Client) OnReconnect(f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onReconnect = append(c.onReconnect, f)
}

// Subscribe requests the channel and waits for the server's
// authorization verdict. A denial is terminal for this channel: the
// caller must not retry without a state change such as re-login.
func (c *Client) Subscribe(ctx context.Context, channel string) error {
	wait := make(chan error, 1)

	c.mu.Lock()
	c.desired[channel] = true
	c.subWait[channel] = wait
	c.mu.Unlock()

	if err := c.writeFrame(map[string]any{"type": "subscribe", "channel": channel}); err != nil {
		return err
	}

	timer := time.NewTimer(subscribeTimeout)
	defer timer.Stop()
	select {
	case err := <-wait:
		if err != nil {
			c.mu.Lock()
			delete(c.desired, channel)
			c.mu.Unlock()
		}
		return err
	case <-timer.C:
		return fmt.Errorf("subscribe to %s timed out", channel)
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return fmt.Errorf("client closed")
	}
}

// Leave releases the subscription. Idempotent.
func (c *Client) Leave(channel string) {
	c.mu.Lock()
	if !c.desired[channel] {
		c.mu.Unlock()
		return
	}
	delete(c.desired, channel)
	c.mu.Unlock()

	if err := c.writeFrame(map[string]any{"type": "unsubscribe", "channel": channel}); err != nil {
		c.logger.Debugf("Leave %s write failed: %v", channel, err)
	}
}

// SendTyping signals the typing state for a conversation
func (c *Client) SendTyping(conversationID int, isTyping bool) error {
	return c.writeFrame(map[string]any{
		"type":           "typing",
		"conversationId": conversationID,
		"isTyping":       isTyping,
	})
}

// Close shuts the client down; no reconnect is attempted afterwards
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (c *Client) writeFrame(frame map[string]any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("not connected")
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

// readLoop consumes frames until the connection fails, then hands off
// to the reconnect loop unless the client was closed.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		c.dispatch(data)
	}
	conn.Close()

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}
	c.logger.Warn("Connection lost, reconnecting")
	c.reconnect()
}

// reconnect dials with exponential backoff and re-subscribes every
// held channel. Events published during the gap are gone; the
// OnReconnect callbacks are where callers reconcile.
func (c *Client) reconnect() {
	backoff := c.initialBackoff
	for {
		select {
		case <-c.done:
			return
		case <-time.After(backoff):
		}

		conn, _, err := c.dialer.Dial(c.wsURL, nil)
		if err != nil {
			c.logger.Debugf("Reconnect dial failed: %v", err)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		c.mu.Lock()
		c.conn = conn
		channels := make([]string, 0, len(c.desired))
		for ch := range c.desired {
			channels = append(channels, ch)
		}
		callbacks := append([]func(){}, c.onReconnect...)
		c.mu.Unlock()

		// Every resubscribe goes through authorization again
		for _, ch := range channels {
			if err := c.writeFrame(map[string]any{"type": "subscribe", "channel": ch}); err != nil {
				c.logger.Warnf("Resubscribe to %s failed: %v", ch, err)
			}
		}

		go c.readLoop(conn)

		for _, f := range callbacks {
			f()
		}
		c.logger.Info("Reconnected")
		return
	}
}

// dispatch routes one inbound frame
func (c *Client) dispatch(data []byte) {
	var probe struct {
		Type    string `json:"type"`
		Channel string `json:"channel"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		c.logger.Debugf("Dropping malformed frame: %v", err)
		return
	}

	switch probe.Type {
	case realtime.FrameTypeEvent:
		var env realtime.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.logger.Debugf("Dropping malformed envelope: %v", err)
			return
		}
		c.mu.Lock()
		handlers := append([]Handler{}, c.handlers[env.Event]...)
		c.mu.Unlock()
		for _, h := range handlers {
			h(env)
		}

	case "subscribed":
		c.resolveSubscribe(probe.Channel, nil)

	case "error":
		c.resolveSubscribe(probe.Channel, fmt.Errorf("%s", probe.Message))

	case "connected", "unsubscribed":
		// informational only
	}
}

func (c *Client) resolveSubscribe(channel string, err error) {
	c.mu.Lock()
	wait, ok := c.subWait[channel]
	if ok {
		delete(c.subWait, channel)
	}
	c.mu.Unlock()
	if ok {
		wait <- err
	}
}
