// Package mqttclient provides an MQTT connector for scenario steps: publish,
// subscription capture, and polling waits for messages on a topic.
package mqttclient

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/fabianopinto/smoker-sub002/client"
	"github.com/fabianopinto/smoker-sub002/errors"
	"github.com/fabianopinto/smoker-sub002/pkg/poll"
)

// DefaultConnectTimeout bounds the initial broker handshake
const DefaultConnectTimeout = 10 * time.Second

// Message is one captured MQTT message
type Message struct {
	Topic    string
	Payload  []byte
	Received time.Time
}

// Client wraps a paho MQTT connection driven by a registry config entry.
// Required config: "brokerUrl". Optional: "clientId", "username",
// "password", "connectTimeout".
type Client struct {
	*client.Base

	conn mqtt.Client

	mu    sync.Mutex
	inbox []Message
}

// New creates an uninitialized MQTT client from a configuration entry
func New(name string, config client.Config) *Client {
	return &Client{Base: client.NewBase(name, config)}
}

// NewWithConn creates a client over an existing paho connection, bypassing
// the broker handshake. Used by tests.
func NewWithConn(name string, config client.Config, conn mqtt.Client) *Client {
	return &Client{Base: client.NewBase(name, config), conn: conn}
}

// Init validates the configuration and connects to the broker
func (c *Client) Init(_ context.Context) error {
	brokerURL, err := c.RequireString("Init", "brokerUrl")
	if err != nil {
		return err
	}

	if c.conn == nil {
		clientID := c.ConfigString("clientId", "smoker-"+uuid.NewString())
		opts := mqtt.NewClientOptions().
			AddBroker(brokerURL).
			SetClientID(clientID).
			SetConnectTimeout(c.ConfigDuration("connectTimeout", DefaultConnectTimeout))
		if username := c.ConfigString("username", ""); username != "" {
			opts.SetUsername(username)
			opts.SetPassword(c.ConfigString("password", ""))
		}
		c.conn = mqtt.NewClient(opts)
	}

	if !c.conn.IsConnected() {
		token := c.conn.Connect()
		if !token.WaitTimeout(c.ConfigDuration("connectTimeout", DefaultConnectTimeout)) {
			return errors.WrapUpstream(
				errors.New("connect timed out"), c.Name(), "Init", "connect to "+brokerURL)
		}
		if err := token.Error(); err != nil {
			return errors.WrapUpstream(err, c.Name(), "Init", "connect to "+brokerURL)
		}
	}

	c.MarkInitialized()
	return nil
}

// Reset re-arms the client by clearing the captured inbox; the broker
// connection is kept.
func (c *Client) Reset(_ context.Context) error {
	if err := c.EnsureInitialized("Reset"); err != nil {
		return err
	}
	c.mu.Lock()
	c.inbox = nil
	c.mu.Unlock()
	return nil
}

// Destroy disconnects from the broker. Idempotent.
func (c *Client) Destroy(_ context.Context) error {
	if c.IsDestroyed() {
		return nil
	}
	if c.conn != nil && c.conn.IsConnected() {
		c.conn.Disconnect(250)
	}
	c.MarkDestroyed()
	return nil
}

// Publish sends a payload to a topic
func (c *Client) Publish(_ context.Context, topic string, payload []byte, qos byte, retained bool) error {
	if err := c.EnsureInitialized("Publish"); err != nil {
		return err
	}

	token := c.conn.Publish(topic, qos, retained, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return errors.WrapUpstream(err, c.Name(), "Publish", "topic "+topic)
	}
	return nil
}

// Subscribe starts capturing messages on a topic filter into the inbox
func (c *Client) Subscribe(_ context.Context, topic string, qos byte) error {
	if err := c.EnsureInitialized("Subscribe"); err != nil {
		return err
	}

	token := c.conn.Subscribe(topic, qos, func(_ mqtt.Client, msg mqtt.Message) {
		c.mu.Lock()
		c.inbox = append(c.inbox, Message{
			Topic:    msg.Topic(),
			Payload:  msg.Payload(),
			Received: time.Now(),
		})
		c.mu.Unlock()
	})
	token.Wait()
	if err := token.Error(); err != nil {
		return errors.WrapUpstream(err, c.Name(), "Subscribe", "topic "+topic)
	}
	return nil
}

// Unsubscribe stops capturing a topic filter
func (c *Client) Unsubscribe(_ context.Context, topic string) error {
	if err := c.EnsureInitialized("Unsubscribe"); err != nil {
		return err
	}

	token := c.conn.Unsubscribe(topic)
	token.Wait()
	if err := token.Error(); err != nil {
		return errors.WrapUpstream(err, c.Name(), "Unsubscribe", "topic "+topic)
	}
	return nil
}

// Messages returns a snapshot of the captured inbox
func (c *Client) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot := make([]Message, len(c.inbox))
	copy(snapshot, c.inbox)
	return snapshot
}

// WaitForMessage polls the inbox until a message arrives on the topic whose
// payload contains the given substring (empty matches any payload). Absence
// of a match within the timeout is reported as found=false, not an error.
func (c *Client) WaitForMessage(
	ctx context.Context, topic, contains string, cfg poll.Config,
) (*Message, bool, error) {
	if err := c.EnsureInitialized("WaitForMessage"); err != nil {
		return nil, false, err
	}

	return poll.Until(ctx, cfg, c.Name(), fmt.Sprintf("topic %s", topic),
		func(context.Context) (*Message, bool, error) {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i := range c.inbox {
				msg := &c.inbox[i]
				if msg.Topic != topic {
					continue
				}
				if contains == "" || strings.Contains(string(msg.Payload), contains) {
					found := *msg
					return &found, true, nil
				}
			}
			return nil, false, nil
		})
}
