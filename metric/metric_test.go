package metric

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabianopinto/smoker-sub002/errors"
)

func TestRegister(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics()

	require.NoError(t, m.Register(registry))

	// Double registration must surface prometheus's duplicate error.
	assert.Error(t, m.Register(registry))
}

func TestObserveOperation(t *testing.T) {
	m := NewMetrics()

	m.ObserveOperation("rest", "Get", nil)
	m.ObserveOperation("rest", "Get", nil)
	m.ObserveOperation("rest", "Get", errors.New("boom"))

	assert.Equal(t, float64(2),
		testutil.ToFloat64(m.ClientOperations.WithLabelValues("rest", "Get", "success")))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(m.ClientOperations.WithLabelValues("rest", "Get", "error")))
}

func TestObserveWaitOutcomes(t *testing.T) {
	m := NewMetrics()

	m.ObserveWait("sqs", time.Second, true, nil)
	m.ObserveWait("sqs", time.Second, false, nil)
	m.ObserveWait("sqs", time.Second, false, errors.New("boom"))

	for _, outcome := range []string{"match", "timeout", "error"} {
		count := testutil.CollectAndCount(m.WaitDuration)
		assert.Positive(t, count, "outcome %s must be collected", outcome)
	}
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *Metrics

	// Metrics are optional; a nil receiver must be a no-op, not a panic.
	m.ObserveOperation("rest", "Get", nil)
	m.ObserveLifecycle("rest", "init", nil)
	m.ObserveLookup("config", nil)
	m.ObserveWait("sqs", time.Second, true, nil)
	m.ObserveProperty("set")
}
