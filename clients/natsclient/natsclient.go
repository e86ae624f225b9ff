// Package natsclient provides the NATS messaging client used by smoke scenarios.
package natsclient

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/fabianopinto/smoker-sub002/client"
	"github.com/fabianopinto/smoker-sub002/errors"
	"github.com/fabianopinto/smoker-sub002/pkg/poll"
)

// Default connection tuning
const (
	DefaultConnectTimeout = 5 * time.Second
	DefaultReconnectWait  = 2 * time.Second
	DefaultMaxReconnects  = -1
	DefaultRequestTimeout = 5 * time.Second
)

// Conn is the subset of *nats.Conn the client needs. Narrowed so tests
// can inject a fake connection.
type Conn interface {
	Publish(subj string, data []byte) error
	Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error)
	Request(subj string, data []byte, timeout time.Duration) (*nats.Msg, error)
	Flush() error
	IsConnected() bool
	Drain() error
	Close()
}

// Message is a captured NATS message.
type Message struct {
	Subject  string
	Data     []byte
	Received time.Time
}

// Client wraps a NATS connection and captures subscribed messages so
// scenarios can assert on them after the fact.
type Client struct {
	*client.Base

	conn Conn
	js   jetstream.JetStream

	mu    sync.Mutex
	subs  []*nats.Subscription
	inbox []Message
}

// New creates an unconnected NATS client.
func New(name string, config client.Config) *Client {
	return &Client{Base: client.NewBase(name, config)}
}

// NewWithConn creates a client over an existing connection, for tests.
func NewWithConn(name string, config client.Config, conn Conn) *Client {
	return &Client{Base: client.NewBase(name, config), conn: conn}
}

// Init connects to the NATS server named by the "url" config field.
func (c *Client) Init(_ context.Context) error {
	url, err := c.RequireString("Init", "url")
	if err != nil {
		return err
	}

	if c.conn == nil {
		opts := []nats.Option{
			nats.Timeout(c.ConfigDuration("connectTimeout", DefaultConnectTimeout)),
			nats.ReconnectWait(c.ConfigDuration("reconnectWait", DefaultReconnectWait)),
			nats.MaxReconnects(c.ConfigInt("maxReconnects", DefaultMaxReconnects)),
		}
		if name := c.ConfigString("clientName", ""); name != "" {
			opts = append(opts, nats.Name(name))
		}
		if username := c.ConfigString("username", ""); username != "" {
			opts = append(opts, nats.UserInfo(username, c.ConfigString("password", "")))
		}
		if token := c.ConfigString("token", ""); token != "" {
			opts = append(opts, nats.Token(token))
		}

		conn, err := nats.Connect(url, opts...)
		if err != nil {
			return errors.WrapUpstream(err, c.Name(), "Init", "connect to "+url)
		}
		c.conn = conn

		if c.ConfigBool("jetstream", false) {
			js, err := jetstream.New(conn)
			if err != nil {
				conn.Close()
				c.conn = nil
				return errors.WrapUpstream(err, c.Name(), "Init", "create JetStream context")
			}
			c.js = js
		}
	}

	c.MarkInitialized()
	return nil
}

// Reset clears the captured inbox. Subscriptions and the server
// connection survive a reset.
func (c *Client) Reset(_ context.Context) error {
	if err := c.EnsureInitialized("Reset"); err != nil {
		return err
	}
	c.mu.Lock()
	c.inbox = nil
	c.mu.Unlock()
	return nil
}

// Destroy drains subscriptions and closes the connection. Idempotent.
func (c *Client) Destroy(_ context.Context) error {
	if c.IsDestroyed() {
		return nil
	}
	if c.conn != nil {
		if err := c.conn.Drain(); err != nil {
			c.conn.Close()
		}
	}
	c.MarkDestroyed()
	return nil
}

// Publish sends data to a subject and flushes the connection.
func (c *Client) Publish(_ context.Context, subject string, data []byte) error {
	if err := c.EnsureInitialized("Publish"); err != nil {
		return err
	}
	if err := c.conn.Publish(subject, data); err != nil {
		return errors.WrapUpstream(err, c.Name(), "Publish", "publish to "+subject)
	}
	if err := c.conn.Flush(); err != nil {
		return errors.WrapUpstream(err, c.Name(), "Publish", "flush connection")
	}
	return nil
}

// JetStreamPublish publishes to a JetStream stream and waits for the ack.
func (c *Client) JetStreamPublish(ctx context.Context, subject string, data []byte) error {
	if err := c.EnsureInitialized("JetStreamPublish"); err != nil {
		return err
	}
	if c.js == nil {
		return errors.WrapConfig(
			errors.New("jetstream is not enabled for this client"),
			c.Name(), "JetStreamPublish", "check JetStream context")
	}
	if _, err := c.js.Publish(ctx, subject, data); err != nil {
		return errors.WrapUpstream(err, c.Name(), "JetStreamPublish", "publish to "+subject)
	}
	return nil
}

// Subscribe starts capturing messages published on a subject.
func (c *Client) Subscribe(_ context.Context, subject string) error {
	if err := c.EnsureInitialized("Subscribe"); err != nil {
		return err
	}
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		c.mu.Lock()
		c.inbox = append(c.inbox, Message{
			Subject:  msg.Subject,
			Data:     msg.Data,
			Received: time.Now(),
		})
		c.mu.Unlock()
	})
	if err != nil {
		return errors.WrapUpstream(err, c.Name(), "Subscribe", "subscribe to "+subject)
	}
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	if err := c.conn.Flush(); err != nil {
		return errors.WrapUpstream(err, c.Name(), "Subscribe", "flush connection")
	}
	return nil
}

// Request performs a request/reply round trip on a subject.
func (c *Client) Request(_ context.Context, subject string, data []byte) ([]byte, error) {
	if err := c.EnsureInitialized("Request"); err != nil {
		return nil, err
	}
	timeout := c.ConfigDuration("requestTimeout", DefaultRequestTimeout)
	msg, err := c.conn.Request(subject, data, timeout)
	if err != nil {
		return nil, errors.WrapUpstream(err, c.Name(), "Request", "request on "+subject)
	}
	return msg.Data, nil
}

// Messages returns a snapshot of the captured inbox.
func (c *Client) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot := make([]Message, len(c.inbox))
	copy(snapshot, c.inbox)
	return snapshot
}

// WaitForMessage polls the inbox until a message arrives on the subject
// whose data contains the given substring (empty matches any payload).
// Absence within the timeout is reported as found=false, not an error.
func (c *Client) WaitForMessage(
	ctx context.Context, subject, contains string, cfg poll.Config,
) (*Message, bool, error) {
	if err := c.EnsureInitialized("WaitForMessage"); err != nil {
		return nil, false, err
	}

	return poll.Until(ctx, cfg, c.Name(), fmt.Sprintf("subject %s", subject),
		func(context.Context) (*Message, bool, error) {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i := range c.inbox {
				msg := &c.inbox[i]
				if msg.Subject != subject {
					continue
				}
				if contains == "" || strings.Contains(string(msg.Data), contains) {
					found := *msg
					return &found, true, nil
				}
			}
			return nil, false, nil
		})
}
