// Package properties provides the per-scenario property store and the
// textual reference resolver used to parametrize test steps at runtime.
package properties

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fabianopinto/smoker-sub002/errors"
)

// Store is a mutable nested key-value tree with dotted-path addressing.
// It is created empty per scenario and discarded with the World; scenarios
// are responsible for any mid-run cleanup via RemoveProperty.
//
// Empty paths are uniformly rejected: both the empty string and a zero-length
// segment slice fail with "path cannot be empty".
type Store struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewStore creates an empty property store
func NewStore() *Store {
	return &Store{values: make(map[string]any)}
}

// splitPath normalizes a dotted path into segments, rejecting empty paths
// and empty segments.
func splitPath(path string) ([]string, error) {
	if path == "" {
		return nil, errors.ErrEmptyPath
	}
	segments := strings.Split(path, ".")
	for _, segment := range segments {
		if segment == "" {
			return nil, errors.ErrEmptyPath
		}
	}
	return segments, nil
}

// validateSegments checks a pre-split path for structural emptiness
func validateSegments(segments []string) error {
	if len(segments) == 0 {
		return errors.ErrEmptyPath
	}
	for _, segment := range segments {
		if segment == "" {
			return errors.ErrEmptyPath
		}
	}
	return nil
}

// SetProperty stores a value at a dot-delimited path. Navigating through a
// non-map intermediate replaces it with a fresh sub-tree; the overwrite is
// intentional and lossy.
func (s *Store) SetProperty(path string, value any) error {
	segments, err := splitPath(path)
	if err != nil {
		return err
	}
	return s.SetPropertyPath(segments, value)
}

// SetPropertyPath is SetProperty for a pre-split ordered segment sequence.
func (s *Store) SetPropertyPath(segments []string, value any) error {
	if err := validateSegments(segments); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

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
	return nil
}

// GetProperty returns the value at a dot-delimited path. It fails when any
// segment is absent or an intermediate value is not a traversable sub-tree.
func (s *Store) GetProperty(path string) (any, error) {
	segments, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	return s.GetPropertyPath(segments)
}

// GetPropertyPath is GetProperty for a pre-split ordered segment sequence.
func (s *Store) GetPropertyPath(segments []string) (any, error) {
	if err := validateSegments(segments); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := any(s.values)
	for _, segment := range segments {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, notFound(segments)
		}
		current, ok = node[segment]
		if !ok {
			return nil, notFound(segments)
		}
	}
	return current, nil
}

// HasProperty reports whether a value exists at the path. A missing path is
// false, never an error; a structurally empty path still fails.
func (s *Store) HasProperty(path string) (bool, error) {
	_, err := s.GetProperty(path)
	if err != nil {
		if errors.Is(err, errors.ErrEmptyPath) {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// RemoveProperty removes the value at the path. Traversal and failure rules
// match GetProperty; only the terminal key is removed.
func (s *Store) RemoveProperty(path string) error {
	segments, err := splitPath(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	node := s.values
	for _, segment := range segments[:len(segments)-1] {
		next, ok := node[segment].(map[string]any)
		if !ok {
			return notFound(segments)
		}
		node = next
	}

	terminal := segments[len(segments)-1]
	if _, ok := node[terminal]; !ok {
		return notFound(segments)
	}
	delete(node, terminal)
	return nil
}

// PropertyMap returns a deep, independent copy of the whole tree; mutating
// the returned map never affects stored state.
func (s *Store) PropertyMap() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return deepCopyMap(s.values)
}

// notFound builds the lookup failure naming the exact joined path requested
func notFound(segments []string) error {
	return fmt.Errorf("%w at path: %s", errors.ErrPropertyNotFound, strings.Join(segments, "."))
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
