package cloudwatchclient

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabianopinto/smoker-sub002/client"
	"github.com/fabianopinto/smoker-sub002/errors"
	"github.com/fabianopinto/smoker-sub002/pkg/poll"
)

// fakeAPI matches events by substring against the filter pattern and
// honors the start time.
type fakeAPI struct {
	events    []cwtypes.FilteredLogEvent
	filterErr error
}

func (f *fakeAPI) FilterLogEvents(
	_ context.Context, input *cloudwatchlogs.FilterLogEventsInput, _ ...func(*cloudwatchlogs.Options),
) (*cloudwatchlogs.FilterLogEventsOutput, error) {
	if f.filterErr != nil {
		return nil, f.filterErr
	}
	pattern := aws.ToString(input.FilterPattern)
	start := aws.ToInt64(input.StartTime)

	var matched []cwtypes.FilteredLogEvent
	for _, ev := range f.events {
		if aws.ToInt64(ev.Timestamp) < start {
			continue
		}
		if pattern == "" || strings.Contains(aws.ToString(ev.Message), pattern) {
			matched = append(matched, ev)
		}
	}
	return &cloudwatchlogs.FilterLogEventsOutput{Events: matched}, nil
}

func (f *fakeAPI) add(message string, at time.Time) {
	f.events = append(f.events, cwtypes.FilteredLogEvent{
		Message:       aws.String(message),
		LogStreamName: aws.String("stream-1"),
		Timestamp:     aws.Int64(at.UnixMilli()),
	})
}

func newTestClient(t *testing.T) (*Client, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	c := NewWithClient("cloudwatch", client.Config{"logGroupName": "/smoke/app"}, api)
	require.NoError(t, c.Init(context.Background()))
	return c, api
}

func TestInitRequiresLogGroupName(t *testing.T) {
	c := NewWithClient("cloudwatch", client.Config{}, &fakeAPI{})

	err := c.Init(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
	assert.Contains(t, err.Error(), "logGroupName")
	assert.False(t, c.IsInitialized())
}

func TestFilterEvents(t *testing.T) {
	ctx := context.Background()
	c, api := newTestClient(t)

	api.add("request handled status=200", time.Now().Add(time.Second))
	api.add("request failed status=500", time.Now().Add(time.Second))

	events, err := c.FilterEvents(ctx, "status=500")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Message, "failed")
	assert.Equal(t, "stream-1", events[0].Stream)
}

func TestFilterSkipsEventsBeforeWindow(t *testing.T) {
	ctx := context.Background()
	c, api := newTestClient(t)

	api.add("stale event", time.Now().Add(-time.Hour))

	events, err := c.FilterEvents(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestFilterUpstreamError(t *testing.T) {
	c, api := newTestClient(t)
	api.filterErr = errors.New("log group does not exist")

	_, err := c.FilterEvents(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.IsUpstream(err))
	assert.Contains(t, err.Error(), "cloudwatch.FilterEvents")
}

func TestWaitForEvent(t *testing.T) {
	ctx := context.Background()
	c, api := newTestClient(t)
	cfg := poll.Config{Timeout: time.Second, Interval: 10 * time.Millisecond}

	api.add("job finished ok", time.Now().Add(time.Second))

	event, found, err := c.WaitForEvent(ctx, "finished", cfg)
	require.NoError(t, err)
	require.True(t, found)
	assert.Contains(t, event.Message, "finished")

	_, found, err = c.WaitForEvent(ctx, "never logged", poll.Config{
		Timeout:  50 * time.Millisecond,
		Interval: 10 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestResetAdvancesWindow(t *testing.T) {
	ctx := context.Background()
	c, api := newTestClient(t)

	api.add("early event", time.Now())
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, c.Reset(ctx))

	events, err := c.FilterEvents(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestOperationsOutsideInitialized(t *testing.T) {
	c := NewWithClient("cloudwatch", client.Config{"logGroupName": "g"}, &fakeAPI{})

	_, err := c.FilterEvents(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.IsLifecycle(err))
	assert.Contains(t, err.Error(), "cloudwatch")
}

func TestDestroyIdempotent(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t)

	require.NoError(t, c.Destroy(ctx))
	assert.False(t, c.IsInitialized())
	require.NoError(t, c.Destroy(ctx))
}
