package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Loader handles configuration loading with layers and environment overrides
type Loader struct {
	layers    []string
	envPrefix string
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		layers:    []string{},
		envPrefix: "SMOKER",
	}
}

// AddLayer adds a configuration file layer. Later layers override earlier ones.
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// LoadFile loads configuration from a single file
func (l *Loader) LoadFile(path string) (*Store, error) {
	l.layers = []string{path}
	return l.Load()
}

// Load loads and merges all configuration layers into a Store
func (l *Loader) Load() (*Store, error) {
	merged := make(map[string]any)

	for _, path := range l.layers {
		layer, err := l.loadRawJSON(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		merged = mergeLayer(merged, layer)
	}

	store := NewStore(merged)
	l.applyEnvOverrides(store)
	return store, nil
}

// loadRawJSON loads configuration from a JSON file as a map
func (l *Loader) loadRawJSON(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// mergeLayer overlays one layer on top of another. Maps merge key by key;
// any other upper value replaces the lower one. Nil upper values are skipped
// so a layer cannot blank out settings from an earlier one.
func mergeLayer(lower, upper map[string]any) map[string]any {
	out := make(map[string]any, len(lower)+len(upper))
	for k, v := range lower {
		out[k] = v
	}
	for k, v := range upper {
		if v == nil {
			continue
		}
		lowerMap, lowerIsMap := out[k].(map[string]any)
		upperMap, upperIsMap := v.(map[string]any)
		if lowerIsMap && upperIsMap {
			out[k] = mergeLayer(lowerMap, upperMap)
			continue
		}
		out[k] = v
	}
	return out
}

// applyEnvOverrides applies SMOKER_* environment variables as overrides.
// SMOKER_API_BASEURL=x sets the path "api.baseurl".
func (l *Loader) applyEnvOverrides(store *Store) {
	prefix := l.envPrefix + "_"
	for _, entry := range os.Environ() {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		path := strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(key, prefix), "_", "."))
		if path == "" {
			continue
		}
		store.SetValue(path, value)
	}
}
