package client

import (
	"fmt"
	"time"

	"github.com/fabianopinto/smoker-sub002/errors"
)

// Base carries the lifecycle state machine and configuration-entry access
// shared by every connector. Connectors embed a *Base and drive transitions
// through MarkInitialized/MarkDestroyed; lifecycle guards and config field
// extraction live here so each connector only implements its domain logic.
//
// Base is not internally synchronized: one scenario goroutine owns one World
// and its clients, and steps execute strictly sequentially.
type Base struct {
	name   string
	config map[string]any
	state  State
}

// NewBase creates a Base in the Uninitialized state. A nil config is
// replaced with an empty entry so field lookups never nil-check.
func NewBase(name string, config map[string]any) *Base {
	if config == nil {
		config = make(map[string]any)
	}
	return &Base{name: name, config: config}
}

// Name returns the client's registered name
func (b *Base) Name() string {
	return b.name
}

// State returns the current lifecycle state
func (b *Base) State() State {
	return b.state
}

// IsInitialized reports whether the client is in the Initialized state
func (b *Base) IsInitialized() bool {
	return b.state == StateInitialized
}

// IsDestroyed reports whether the client has been destroyed
func (b *Base) IsDestroyed() bool {
	return b.state == StateDestroyed
}

// MarkInitialized transitions to Initialized
func (b *Base) MarkInitialized() {
	b.state = StateInitialized
}

// MarkDestroyed transitions to Destroyed
func (b *Base) MarkDestroyed() {
	b.state = StateDestroyed
}

// EnsureInitialized guards a domain operation, failing with a lifecycle error
// that names the client when it is not in the Initialized state.
func (b *Base) EnsureInitialized(method string) error {
	if b.state != StateInitialized {
		return errors.WrapLifecycle(errors.ErrNotInitialized, b.name, method, "state check")
	}
	return nil
}

// Config returns the raw configuration entry
func (b *Base) Config() map[string]any {
	return b.config
}

// ConfigString extracts a string field with a default fallback
func (b *Base) ConfigString(key, defaultValue string) string {
	if value, exists := b.config[key]; exists {
		if str, ok := value.(string); ok {
			return str
		}
	}
	return defaultValue
}

// ConfigInt extracts an integer field with a default fallback, accommodating
// JSON's float64 decoding.
func (b *Base) ConfigInt(key string, defaultValue int) int {
	if value, exists := b.config[key]; exists {
		switch v := value.(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return defaultValue
}

// ConfigBool extracts a boolean field with a default fallback
func (b *Base) ConfigBool(key string, defaultValue bool) bool {
	if value, exists := b.config[key]; exists {
		if v, ok := value.(bool); ok {
			return v
		}
	}
	return defaultValue
}

// ConfigDuration extracts a duration field. Strings go through
// time.ParseDuration; bare numbers are milliseconds.
func (b *Base) ConfigDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := b.config[key]; exists {
		switch v := value.(type) {
		case string:
			if d, err := time.ParseDuration(v); err == nil {
				return d
			}
		case int:
			return time.Duration(v) * time.Millisecond
		case int64:
			return time.Duration(v) * time.Millisecond
		case float64:
			return time.Duration(v) * time.Millisecond
		}
	}
	return defaultValue
}

// RequireString extracts a required string field, failing with a
// configuration error that names the missing field.
func (b *Base) RequireString(method, key string) (string, error) {
	value, exists := b.config[key]
	if !exists {
		return "", errors.WrapConfig(
			fmt.Errorf("%w: %s", errors.ErrMissingConfig, key), b.name, method, "config validation")
	}
	str, ok := value.(string)
	if !ok || str == "" {
		return "", errors.WrapConfig(
			fmt.Errorf("%w: %s must be a non-empty string", errors.ErrInvalidConfig, key),
			b.name, method, "config validation")
	}
	return str, nil
}
