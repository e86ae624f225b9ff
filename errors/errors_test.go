package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorClassString(t *testing.T) {
	tests := []struct {
		class ErrorClass
		want  string
	}{
		{ErrorConfig, "config"},
		{ErrorLookup, "lookup"},
		{ErrorLifecycle, "lifecycle"},
		{ErrorUpstream, "upstream"},
		{ErrorClass(99), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.class.String())
	}
}

func TestWrap(t *testing.T) {
	base := New("connection refused")
	err := Wrap(base, "SQSClient", "Init", "queue lookup")

	require.Error(t, err)
	assert.Equal(t, "SQSClient.Init: queue lookup failed: connection refused", err.Error())
	assert.True(t, Is(err, base))

	assert.NoError(t, Wrap(nil, "SQSClient", "Init", "queue lookup"))
}

func TestWrapHelpers(t *testing.T) {
	base := New("boom")

	tests := []struct {
		name string
		wrap func(error, string, string, string) error
		want ErrorClass
	}{
		{"config", WrapConfig, ErrorConfig},
		{"lookup", WrapLookup, ErrorLookup},
		{"lifecycle", WrapLifecycle, ErrorLifecycle},
		{"upstream", WrapUpstream, ErrorUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.wrap(base, "Comp", "Op", "action")
			require.Error(t, err)

			var ce *ClassifiedError
			require.True(t, As(err, &ce))
			assert.Equal(t, tt.want, ce.Class)
			assert.Equal(t, "Comp", ce.Component)
			assert.Equal(t, "Op", ce.Operation)
			assert.True(t, Is(err, base), "wrapped error must keep the original cause")

			assert.NoError(t, tt.wrap(nil, "Comp", "Op", "action"))
		})
	}
}

func TestClassifySentinels(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorClass
	}{
		{ErrMissingConfig, ErrorConfig},
		{ErrInvalidConfig, ErrorConfig},
		{ErrPropertyNotFound, ErrorLookup},
		{ErrConfigNotFound, ErrorLookup},
		{ErrEmptyPath, ErrorLookup},
		{ErrNotInitialized, ErrorLifecycle},
		{ErrAlreadyDestroyed, ErrorLifecycle},
		{New("socket closed"), ErrorUpstream},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.err), "error: %v", tt.err)
	}

	// Wrapping must not change the classification.
	wrapped := fmt.Errorf("context: %w", ErrPropertyNotFound)
	assert.Equal(t, ErrorLookup, Classify(wrapped))
	assert.True(t, IsLookup(wrapped))
}

func TestClassPredicates(t *testing.T) {
	assert.True(t, IsConfig(ErrMissingConfig))
	assert.True(t, IsLifecycle(ErrNotInitialized))
	assert.True(t, IsUpstream(New("dial tcp: timeout")))

	assert.False(t, IsConfig(nil))
	assert.False(t, IsLookup(nil))
	assert.False(t, IsLifecycle(nil))
	assert.False(t, IsUpstream(nil))
}

type stringerCause struct{}

func (stringerCause) String() string { return "stringer cause" }

func TestNormalize(t *testing.T) {
	assert.NoError(t, Normalize(nil))

	base := New("real error")
	assert.Same(t, base, Normalize(base))

	err := Normalize("plain string failure")
	require.Error(t, err)
	assert.Equal(t, "plain string failure", err.Error())

	err = Normalize(stringerCause{})
	require.Error(t, err)
	assert.Equal(t, "stringer cause", err.Error())

	err = Normalize(map[string]string{"code": "500"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
