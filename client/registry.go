package client

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Config is a configuration entry for one client: arbitrary string keys to
// arbitrary values, exactly as decoded from a JSON configuration layer.
type Config map[string]any

// CompositeKey builds the registry address for a (type, optional id) pair:
// "type" when id is empty, "type:id" otherwise.
func CompositeKey(clientType Type, id string) string {
	if id == "" {
		return string(clientType)
	}
	return string(clientType) + ":" + id
}

// SplitKey is the inverse of CompositeKey: it separates a composite key
// into its type and optional id.
func SplitKey(key string) (Type, string) {
	if clientType, id, ok := strings.Cut(key, ":"); ok {
		return Type(clientType), id
	}
	return Type(key), ""
}

// Registry stores named configuration entries keyed by (type, optional id).
// It is a pure data store: absent entries produce zero values, never errors,
// and re-registration overwrites. Created empty per World and never shared
// across worlds.
type Registry struct {
	mu      sync.RWMutex
	configs map[string]Config
}

// NewRegistry creates a new empty configuration registry
func NewRegistry() *Registry {
	return &Registry{configs: make(map[string]Config)}
}

// RegisterConfig stores entry under "type" or "type:id". When id is empty
// but the entry carries its own "id" field, that field supplies the suffix.
func (r *Registry) RegisterConfig(clientType Type, entry Config, id string) {
	if id == "" {
		id = entryID(entry)
	}

	r.register(CompositeKey(clientType, id), entry)
}

// register stores entry under the composite key verbatim
func (r *Registry) register(key string, entry Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[key] = entry
}

// RegisterConfigs registers a batch of type -> entry-or-entries pairs. Array
// values behave like RegisterConfigArray, single entries like RegisterConfig.
func (r *Registry) RegisterConfigs(configs map[Type]any) {
	for clientType, value := range configs {
		switch v := value.(type) {
		case []Config:
			r.RegisterConfigArray(clientType, v)
		case []map[string]any:
			entries := make([]Config, len(v))
			for i, entry := range v {
				entries[i] = entry
			}
			r.RegisterConfigArray(clientType, entries)
		case []any:
			entries := make([]Config, 0, len(v))
			for _, item := range v {
				if entry, ok := item.(map[string]any); ok {
					entries = append(entries, entry)
				}
			}
			r.RegisterConfigArray(clientType, entries)
		case Config:
			r.RegisterConfig(clientType, v, "")
		case map[string]any:
			r.RegisterConfig(clientType, v, "")
		}
	}
}

// RegisterConfigArray registers entries[0] under the bare type regardless of
// any "id" field it carries; subsequent entries use their own "id" field when
// present, else the 1-based positional index as string suffix ("2", "3", ...).
func (r *Registry) RegisterConfigArray(clientType Type, entries []Config) {
	for i, entry := range entries {
		switch {
		case i == 0:
			r.register(CompositeKey(clientType, ""), entry)
		case entryID(entry) != "":
			r.RegisterConfig(clientType, entry, entryID(entry))
		default:
			r.RegisterConfig(clientType, entry, strconv.Itoa(i+1))
		}
	}
}

// GetConfig returns the stored entry, or nil when absent
func (r *Registry) GetConfig(clientType Type, id string) Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.configs[CompositeKey(clientType, id)]
}

// HasConfig reports whether an entry exists for the composite key
func (r *Registry) HasConfig(clientType Type, id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.configs[CompositeKey(clientType, id)]
	return ok
}

// GetConfigsByType returns all entries (default and suffixed) registered for
// the given type, keyed by composite key.
func (r *Registry) GetConfigsByType(clientType Type) map[string]Config {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]Config)
	prefix := string(clientType) + ":"
	for key, entry := range r.configs {
		if key == string(clientType) || strings.HasPrefix(key, prefix) {
			result[key] = entry
		}
	}
	return result
}

// AllConfigs returns a defensive copy of the whole registry; mutating the
// returned map never affects internal state.
func (r *Registry) AllConfigs() map[string]Config {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]Config, len(r.configs))
	for key, entry := range r.configs {
		result[key] = deepCopyConfig(entry)
	}
	return result
}

func deepCopyConfig(entry Config) Config {
	copied := make(Config, len(entry))
	for k, v := range entry {
		copied[k] = deepCopyValue(v)
	}
	return copied
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		copied := make(map[string]any, len(val))
		for k, item := range val {
			copied[k] = deepCopyValue(item)
		}
		return copied
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

// Keys returns all registered composite keys
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.configs))
	for key := range r.configs {
		keys = append(keys, key)
	}
	return keys
}

// entryID extracts an entry's own "id" field as a string suffix
func entryID(entry Config) string {
	if entry == nil {
		return ""
	}
	switch v := entry["id"].(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case float64:
		return fmt.Sprintf("%v", v)
	default:
		return ""
	}
}
