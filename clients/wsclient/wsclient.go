// Package wsclient provides the WebSocket client used by smoke scenarios.
package wsclient

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fabianopinto/smoker-sub002/client"
	"github.com/fabianopinto/smoker-sub002/errors"
	"github.com/fabianopinto/smoker-sub002/pkg/poll"
)

// Default connection tuning
const (
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultCloseGrace       = time.Second
)

// Message is a frame captured from the socket.
type Message struct {
	Type     int
	Data     []byte
	Received time.Time
}

// Client wraps a WebSocket connection. A background reader captures
// incoming frames into an inbox that scenarios poll with WaitForMessage.
type Client struct {
	*client.Base

	conn *websocket.Conn

	mu      sync.Mutex
	inbox   []Message
	readErr error
	done    chan struct{}
	writeMu sync.Mutex
}

// New creates an unconnected WebSocket client.
func New(name string, config client.Config) *Client {
	return &Client{Base: client.NewBase(name, config)}
}

// Init dials the endpoint named by the "url" config field and starts
// the frame reader.
func (c *Client) Init(ctx context.Context) error {
	url, err := c.RequireString("Init", "url")
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: c.ConfigDuration("handshakeTimeout", DefaultHandshakeTimeout),
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return errors.WrapUpstream(err, c.Name(), "Init", "dial "+url)
	}

	c.conn = conn
	c.done = make(chan struct{})
	go c.readLoop(conn, c.done)

	c.MarkInitialized()
	return nil
}

// readLoop captures frames until the connection fails or is closed.
func (c *Client) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.readErr = err
			c.mu.Unlock()
			return
		}
		c.mu.Lock()
		c.inbox = append(c.inbox, Message{Type: msgType, Data: data, Received: time.Now()})
		c.mu.Unlock()
	}
}

// Reset clears the captured inbox. The connection survives a reset.
func (c *Client) Reset(_ context.Context) error {
	if err := c.EnsureInitialized("Reset"); err != nil {
		return err
	}
	c.mu.Lock()
	c.inbox = nil
	c.readErr = nil
	c.mu.Unlock()
	return nil
}

// Destroy performs the close handshake and releases the connection.
// Idempotent.
func (c *Client) Destroy(_ context.Context) error {
	if c.IsDestroyed() {
		return nil
	}
	if c.conn != nil {
		deadline := time.Now().Add(DefaultCloseGrace)
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		c.writeMu.Unlock()

		select {
		case <-c.done:
		case <-time.After(DefaultCloseGrace):
		}
		_ = c.conn.Close()
	}
	c.MarkDestroyed()
	return nil
}

// SendText writes a text frame.
func (c *Client) SendText(ctx context.Context, data string) error {
	return c.send(ctx, websocket.TextMessage, []byte(data))
}

// SendBinary writes a binary frame.
func (c *Client) SendBinary(ctx context.Context, data []byte) error {
	return c.send(ctx, websocket.BinaryMessage, data)
}

func (c *Client) send(_ context.Context, msgType int, data []byte) error {
	if err := c.EnsureInitialized("Send"); err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(msgType, data); err != nil {
		return errors.WrapUpstream(err, c.Name(), "Send", "write frame")
	}
	return nil
}

// Messages returns a snapshot of the captured inbox.
func (c *Client) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot := make([]Message, len(c.inbox))
	copy(snapshot, c.inbox)
	return snapshot
}

// WaitForMessage polls the inbox until a frame arrives whose payload
// contains the given substring (empty matches any frame). Absence
// within the timeout is reported as found=false, not an error.
func (c *Client) WaitForMessage(
	ctx context.Context, contains string, cfg poll.Config,
) (*Message, bool, error) {
	if err := c.EnsureInitialized("WaitForMessage"); err != nil {
		return nil, false, err
	}

	return poll.Until(ctx, cfg, c.Name(), "incoming frame",
		func(context.Context) (*Message, bool, error) {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i := range c.inbox {
				msg := &c.inbox[i]
				if contains == "" || strings.Contains(string(msg.Data), contains) {
					found := *msg
					return &found, true, nil
				}
			}
			if c.readErr != nil {
				return nil, false, c.readErr
			}
			return nil, false, nil
		})
}
