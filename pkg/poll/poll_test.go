package poll

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabianopinto/smoker-sub002/errors"
)

// fakeClock advances simulated time on every Sleep call
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	return f.now
}

func (f *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	f.sleeps = append(f.sleeps, d)
	f.now = f.now.Add(d)
	return nil
}

func TestUntilReturnsMatchImmediately(t *testing.T) {
	clock := newFakeClock()
	cfg := Config{Timeout: 10 * time.Second, Interval: time.Second, Clock: clock}

	result, found, err := Until(context.Background(), cfg, "TestClient", "queue test",
		func(context.Context) (string, bool, error) {
			return "payload", true, nil
		})

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "payload", result)
	assert.Empty(t, clock.sleeps, "a first-attempt match must not sleep")
}

func TestUntilTimeoutIsNotAnError(t *testing.T) {
	clock := newFakeClock()
	cfg := Config{Timeout: 5 * time.Second, Interval: time.Second, Clock: clock}

	attempts := 0
	result, found, err := Until(context.Background(), cfg, "TestClient", "queue test",
		func(context.Context) (string, bool, error) {
			attempts++
			return "", false, nil
		})

	require.NoError(t, err, "timeout must be a normal non-exceptional outcome")
	assert.False(t, found)
	assert.Empty(t, result)
	// deadline at +5s with 1s interval: attempts at 0..5s inclusive
	assert.Equal(t, 6, attempts)
	assert.Len(t, clock.sleeps, 5)
}

func TestUntilMatchAfterSimulatedDelay(t *testing.T) {
	clock := newFakeClock()
	cfg := Config{Timeout: 10 * time.Second, Interval: time.Second, Clock: clock}

	attempts := 0
	result, found, err := Until(context.Background(), cfg, "TestClient", "topic events",
		func(context.Context) (int, bool, error) {
			attempts++
			if attempts == 3 {
				return 42, true, nil
			}
			return 0, false, nil
		})

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 42, result)
	assert.Equal(t, 3, attempts)
}

func TestUntilErrorAbortsImmediately(t *testing.T) {
	clock := newFakeClock()
	cfg := Config{Timeout: 10 * time.Second, Interval: time.Second, Clock: clock}

	attempts := 0
	_, found, err := Until(context.Background(), cfg, "SQSClient", "queue orders",
		func(context.Context) (string, bool, error) {
			attempts++
			return "", false, errors.New("access denied")
		})

	require.Error(t, err)
	assert.False(t, found)
	assert.Equal(t, 1, attempts, "errors must abort without further polling")
	assert.Contains(t, err.Error(), "SQSClient.WaitFor")
	assert.Contains(t, err.Error(), "queue orders")
	assert.Contains(t, err.Error(), "access denied")
	assert.True(t, errors.IsUpstream(err))
}

func TestUntilContextCancellation(t *testing.T) {
	clock := newFakeClock()
	cfg := Config{Timeout: time.Minute, Interval: time.Second, Clock: clock}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, found, err := Until(ctx, cfg, "TestClient", "queue test",
		func(context.Context) (string, bool, error) {
			t.Fatal("check must not run once the context is cancelled")
			return "", false, nil
		})

	require.Error(t, err)
	assert.False(t, found)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestUntilAppliesDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultInterval, cfg.Interval)
	assert.NotNil(t, cfg.Clock)

	// Zero-value config must still terminate on a first-attempt match.
	result, found, err := Until(context.Background(), Config{}, "TestClient", "t",
		func(context.Context) (bool, bool, error) {
			return true, true, nil
		})
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, result)
}
