// Package config provides the configuration subsystem consumed by the
// reference resolver and the client registry. A Provider is a pure,
// synchronous lookup over dotted paths; the in-memory Store is the default
// implementation and the Loader builds one from layered JSON files with
// environment overrides.
package config

import (
	"strings"
	"sync"
)

// Provider is the external configuration lookup consumed by the resolver.
// Implementations must be side-effect free; a missing path reports ok=false,
// never an error.
type Provider interface {
	GetValue(path string) (any, bool)
}

// Store is an in-memory Provider over a nested key/value tree with
// dotted-path addressing.
type Store struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewStore creates a Store over the given nested map. A nil map yields an
// empty store.
func NewStore(values map[string]any) *Store {
	if values == nil {
		values = make(map[string]any)
	}
	return &Store{values: values}
}

// GetValue resolves a dotted path through the nested tree. Intermediate
// non-map values terminate the traversal with ok=false.
func (s *Store) GetValue(path string) (any, bool) {
	if path == "" {
		return nil, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	segments := strings.Split(path, ".")
	current := any(s.values)
	for _, segment := range segments {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// SetValue stores a value at a dotted path, creating intermediate maps as
// needed. Navigating through a non-map value replaces it.
func (s *Store) SetValue(path string, value any) {
	if path == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	segments := strings.Split(path, ".")
	node := s.values
	for _, segment := range segments[:len(segments)-1] {
		next, ok := node[segment].(map[string]any)
		if !ok {
			next = make(map[string]any)
			node[segment] = next
		}
		node = next
	}
	node[segments[len(segments)-1]] = value
}

// GetString returns the string at path, or defaultValue when the path is
// missing or holds a non-string.
func (s *Store) GetString(path, defaultValue string) string {
	if v, ok := s.GetValue(path); ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return defaultValue
}

// GetInt returns the integer at path, accommodating JSON's float64 decoding.
func (s *Store) GetInt(path string, defaultValue int) int {
	if v, ok := s.GetValue(path); ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return defaultValue
}

// GetBool returns the boolean at path, or defaultValue when missing.
func (s *Store) GetBool(path string, defaultValue bool) bool {
	if v, ok := s.GetValue(path); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return defaultValue
}

// Snapshot returns a deep copy of the underlying tree.
func (s *Store) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return deepCopyMap(s.values)
}

// deepCopyMap recursively copies a nested tree of maps and slices
func deepCopyMap(m map[string]any) map[string]any {
	result := make(map[string]any, len(m))
	for k, v := range m {
		result[k] = deepCopyValue(v)
	}
	return result
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		copied := make([]any, len(val))
		for i, item := range val {
			copied[i] = deepCopyValue(item)
		}
		return copied
	default:
		return val
	}
}
