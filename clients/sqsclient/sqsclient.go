// Package sqsclient provides the SQS queue client used by smoke scenarios.
package sqsclient

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/fabianopinto/smoker-sub002/client"
	"github.com/fabianopinto/smoker-sub002/clients/awsconfig"
	"github.com/fabianopinto/smoker-sub002/errors"
	"github.com/fabianopinto/smoker-sub002/pkg/poll"
)

// API is the subset of the SQS service client we depend on. Narrowed so
// tests can inject a fake.
type API interface {
	SendMessage(context.Context, *sqs.SendMessageInput, ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(context.Context, *sqs.ReceiveMessageInput, ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(context.Context, *sqs.DeleteMessageInput, ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
	PurgeQueue(context.Context, *sqs.PurgeQueueInput, ...func(*sqs.Options)) (*sqs.PurgeQueueOutput, error)
}

// Message is a received queue message.
type Message struct {
	ID            string
	Body          string
	ReceiptHandle string
}

// Client sends and receives messages on a single configured queue.
type Client struct {
	*client.Base

	api      API
	queueURL string
}

// New creates an unconnected SQS client.
func New(name string, config client.Config) *Client {
	return &Client{Base: client.NewBase(name, config)}
}

// NewWithClient creates a client over an existing service client, for tests.
func NewWithClient(name string, config client.Config, api API) *Client {
	return &Client{Base: client.NewBase(name, config), api: api}
}

// Init resolves AWS configuration and the required "queueUrl" field.
func (c *Client) Init(ctx context.Context) error {
	queueURL, err := c.RequireString("Init", "queueUrl")
	if err != nil {
		return err
	}

	if c.api == nil {
		cfg, err := awsconfig.Load(ctx, c.Base)
		if err != nil {
			return err
		}
		c.api = sqs.NewFromConfig(cfg)
	}

	c.queueURL = queueURL
	c.MarkInitialized()
	return nil
}

// Reset purges the queue so scenarios start from an empty backlog.
func (c *Client) Reset(ctx context.Context) error {
	if err := c.EnsureInitialized("Reset"); err != nil {
		return err
	}
	if _, err := c.api.PurgeQueue(ctx, &sqs.PurgeQueueInput{
		QueueUrl: aws.String(c.queueURL),
	}); err != nil {
		return errors.WrapUpstream(err, c.Name(), "Reset", "purge queue")
	}
	return nil
}

// Destroy releases the service client. Idempotent.
func (c *Client) Destroy(_ context.Context) error {
	if c.IsDestroyed() {
		return nil
	}
	c.api = nil
	c.MarkDestroyed()
	return nil
}

// SendMessage enqueues a message body and returns the message id.
func (c *Client) SendMessage(ctx context.Context, body string) (string, error) {
	if err := c.EnsureInitialized("SendMessage"); err != nil {
		return "", err
	}
	out, err := c.api.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(c.queueURL),
		MessageBody: aws.String(body),
	})
	if err != nil {
		return "", errors.WrapUpstream(err, c.Name(), "SendMessage", "send message")
	}
	return aws.ToString(out.MessageId), nil
}

// ReceiveMessages fetches up to max messages from the queue.
func (c *Client) ReceiveMessages(ctx context.Context, max int32) ([]Message, error) {
	if err := c.EnsureInitialized("ReceiveMessages"); err != nil {
		return nil, err
	}
	out, err := c.api.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.queueURL),
		MaxNumberOfMessages: max,
	})
	if err != nil {
		return nil, errors.WrapUpstream(err, c.Name(), "ReceiveMessages", "receive messages")
	}

	messages := make([]Message, 0, len(out.Messages))
	for _, msg := range out.Messages {
		messages = append(messages, Message{
			ID:            aws.ToString(msg.MessageId),
			Body:          aws.ToString(msg.Body),
			ReceiptHandle: aws.ToString(msg.ReceiptHandle),
		})
	}
	return messages, nil
}

// DeleteMessage acknowledges a received message.
func (c *Client) DeleteMessage(ctx context.Context, receiptHandle string) error {
	if err := c.EnsureInitialized("DeleteMessage"); err != nil {
		return err
	}
	if _, err := c.api.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	}); err != nil {
		return errors.WrapUpstream(err, c.Name(), "DeleteMessage", "delete message")
	}
	return nil
}

// WaitForMessage polls the queue until a message arrives whose body
// contains the given substring (empty matches any message). Absence
// within the timeout is reported as found=false, not an error.
func (c *Client) WaitForMessage(
	ctx context.Context, contains string, cfg poll.Config,
) (*Message, bool, error) {
	if err := c.EnsureInitialized("WaitForMessage"); err != nil {
		return nil, false, err
	}

	return poll.Until(ctx, cfg, c.Name(), "queue message",
		func(ctx context.Context) (*Message, bool, error) {
			messages, err := c.ReceiveMessages(ctx, 10)
			if err != nil {
				return nil, false, err
			}
			for i := range messages {
				if contains == "" || strings.Contains(messages[i].Body, contains) {
					return &messages[i], true, nil
				}
			}
			return nil, false, nil
		})
}
