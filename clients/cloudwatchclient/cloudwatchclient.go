// Package cloudwatchclient provides the CloudWatch Logs client used by
// smoke scenarios.
package cloudwatchclient

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"

	"github.com/fabianopinto/smoker-sub002/client"
	"github.com/fabianopinto/smoker-sub002/clients/awsconfig"
	"github.com/fabianopinto/smoker-sub002/errors"
	"github.com/fabianopinto/smoker-sub002/pkg/poll"
)

// API is the subset of the CloudWatch Logs service client we depend on.
// Narrowed so tests can inject a fake.
type API interface {
	FilterLogEvents(context.Context, *cloudwatchlogs.FilterLogEventsInput, ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.FilterLogEventsOutput, error)
}

// Event is a log event read from the group.
type Event struct {
	Message   string
	Stream    string
	Timestamp time.Time
}

// Client searches log events in a single configured log group. A reset
// moves the search window forward so earlier scenarios' output is not
// matched again.
type Client struct {
	*client.Base

	api          API
	logGroupName string
	searchFrom   time.Time
}

// New creates an unconnected CloudWatch Logs client.
func New(name string, config client.Config) *Client {
	return &Client{Base: client.NewBase(name, config)}
}

// NewWithClient creates a client over an existing service client, for tests.
func NewWithClient(name string, config client.Config, api API) *Client {
	return &Client{Base: client.NewBase(name, config), api: api}
}

// Init resolves AWS configuration and the required "logGroupName" field.
func (c *Client) Init(ctx context.Context) error {
	logGroupName, err := c.RequireString("Init", "logGroupName")
	if err != nil {
		return err
	}

	if c.api == nil {
		cfg, err := awsconfig.Load(ctx, c.Base)
		if err != nil {
			return err
		}
		c.api = cloudwatchlogs.NewFromConfig(cfg)
	}

	c.logGroupName = logGroupName
	c.searchFrom = time.Now()
	c.MarkInitialized()
	return nil
}

// Reset moves the search window to now.
func (c *Client) Reset(_ context.Context) error {
	if err := c.EnsureInitialized("Reset"); err != nil {
		return err
	}
	c.searchFrom = time.Now()
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

// FilterEvents returns events in the search window matching a
// CloudWatch filter pattern (empty matches everything).
func (c *Client) FilterEvents(ctx context.Context, pattern string) ([]Event, error) {
	if err := c.EnsureInitialized("FilterEvents"); err != nil {
		return nil, err
	}

	input := &cloudwatchlogs.FilterLogEventsInput{
		LogGroupName: aws.String(c.logGroupName),
		StartTime:    aws.Int64(c.searchFrom.UnixMilli()),
	}
	if pattern != "" {
		input.FilterPattern = aws.String(pattern)
	}

	var events []Event
	for {
		out, err := c.api.FilterLogEvents(ctx, input)
		if err != nil {
			return nil, errors.WrapUpstream(err, c.Name(), "FilterEvents",
				"filter log group "+c.logGroupName)
		}
		for _, ev := range out.Events {
			events = append(events, Event{
				Message:   aws.ToString(ev.Message),
				Stream:    aws.ToString(ev.LogStreamName),
				Timestamp: time.UnixMilli(aws.ToInt64(ev.Timestamp)),
			})
		}
		if out.NextToken == nil {
			break
		}
		input.NextToken = out.NextToken
	}
	return events, nil
}

// WaitForEvent polls the log group until an event matching the filter
// pattern appears in the search window. Absence within the timeout is
// reported as found=false, not an error.
func (c *Client) WaitForEvent(
	ctx context.Context, pattern string, cfg poll.Config,
) (*Event, bool, error) {
	if err := c.EnsureInitialized("WaitForEvent"); err != nil {
		return nil, false, err
	}

	return poll.Until(ctx, cfg, c.Name(), "log event",
		func(ctx context.Context) (*Event, bool, error) {
			events, err := c.FilterEvents(ctx, pattern)
			if err != nil {
				return nil, false, err
			}
			if len(events) == 0 {
				return nil, false, nil
			}
			return &events[0], true, nil
		})
}
