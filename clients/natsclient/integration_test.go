package natsclient

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/fabianopinto/smoker-sub002/client"
	"github.com/fabianopinto/smoker-sub002/pkg/poll"
)

func TestIntegration_PublishSubscribe(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	natsContainer, natsURL := startNATSContainer(ctx, t)
	defer natsContainer.Terminate(ctx)

	c := New("nats", client.Config{"url": natsURL})
	require.NoError(t, c.Init(ctx))
	defer c.Destroy(ctx)

	require.NoError(t, c.Subscribe(ctx, "smoke.events"))
	require.NoError(t, c.Publish(ctx, "smoke.events", []byte("hello")))

	msg, found, err := c.WaitForMessage(ctx, "smoke.events", "hello", poll.Config{
		Timeout:  5 * time.Second,
		Interval: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "hello", string(msg.Data))
}

func TestIntegration_JetStreamPublish(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	natsContainer, natsURL := startNATSContainerWithJS(ctx, t)
	defer natsContainer.Terminate(ctx)

	c := New("nats", client.Config{"url": natsURL, "jetstream": true})
	require.NoError(t, c.Init(ctx))
	defer c.Destroy(ctx)

	// Publishing to a subject with no stream configured must surface
	// the server error, not hang.
	err := c.JetStreamPublish(ctx, "smoke.js.events", []byte("x"))
	assert.Error(t, err)
}

func startNATSContainer(ctx context.Context, t *testing.T) (testcontainers.Container, string) {
	t.Helper()
	return startContainer(ctx, t, []string{})
}

func startNATSContainerWithJS(ctx context.Context, t *testing.T) (testcontainers.Container, string) {
	t.Helper()
	return startContainer(ctx, t, []string{"-js"})
}

func startContainer(ctx context.Context, t *testing.T, cmd []string) (testcontainers.Container, string) {
	req := testcontainers.ContainerRequest{
		Image:        "nats:latest",
		ExposedPorts: []string{"4222/tcp"},
		WaitingFor:   wait.ForListeningPort("4222/tcp"),
		Cmd:          cmd,
	}

	natsContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := natsContainer.Host(ctx)
	require.NoError(t, err)

	port, err := natsContainer.MappedPort(ctx, "4222")
	require.NoError(t, err)

	return natsContainer, fmt.Sprintf("nats://%s:%s", host, port.Port())
}
