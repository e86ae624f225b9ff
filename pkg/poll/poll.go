// Package poll provides a timeout-bounded polling loop for waiting on
// asynchronous events, with an injectable time source so tests can simulate
// elapsed time without real waits.
package poll

import (
	"context"
	"time"

	"github.com/fabianopinto/smoker-sub002/errors"
)

// Default bounds for polling operations, overridable per call via Config.
const (
	DefaultTimeout  = 30 * time.Second
	DefaultInterval = 1 * time.Second
)

// Clock abstracts the time source used by the polling loop
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// systemClock implements Clock using real wall-clock time
type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SystemClock returns a Clock backed by real time
func SystemClock() Clock {
	return systemClock{}
}

// Config provides polling configuration
type Config struct {
	Timeout  time.Duration // Total time budget (0 = DefaultTimeout)
	Interval time.Duration // Delay between attempts (0 = DefaultInterval)
	Clock    Clock         // Time source (nil = SystemClock)
}

// DefaultConfig returns sensible defaults for polling operations
func DefaultConfig() Config {
	return Config{
		Timeout:  DefaultTimeout,
		Interval: DefaultInterval,
		Clock:    SystemClock(),
	}
}

// CheckFunc performs one unit of work per poll attempt. Returning found=false
// with a nil error means "no match yet, keep polling". Any error aborts the
// loop immediately.
type CheckFunc[T any] func(ctx context.Context) (T, bool, error)

// Until polls fn until it reports a match, the timeout elapses, or fn fails.
// Timeout is not an error: the absence of a match is a normal outcome and is
// reported as found=false with a nil error. Errors from fn are wrapped with
// the component and target so the caller knows which operation against which
// queue/topic/stream failed. Context cancellation aborts the loop early.
func Until[T any](ctx context.Context, cfg Config, component, target string, fn CheckFunc[T]) (T, bool, error) {
	var zero T

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock()
	}

	deadline := clock.Now().Add(cfg.Timeout)

	for {
		if err := ctx.Err(); err != nil {
			return zero, false, errors.WrapUpstream(err, component, "WaitFor", target)
		}

		result, found, err := fn(ctx)
		if err != nil {
			return zero, false, errors.WrapUpstream(err, component, "WaitFor", target)
		}
		if found {
			return result, true, nil
		}

		if !clock.Now().Before(deadline) {
			return zero, false, nil
		}

		if err := clock.Sleep(ctx, cfg.Interval); err != nil {
			return zero, false, errors.WrapUpstream(err, component, "WaitFor", target)
		}
	}
}
