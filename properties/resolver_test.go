package properties

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabianopinto/smoker-sub002/config"
	"github.com/fabianopinto/smoker-sub002/errors"
)

func newTestResolver(t *testing.T, configValues map[string]any) (*Resolver, *Store) {
	t.Helper()
	store := NewStore()
	return NewResolver(store, config.NewStore(configValues)), store
}

func TestResolvePropertyValues(t *testing.T) {
	resolver, store := newTestResolver(t, nil)
	require.NoError(t, store.SetProperty("user.name", "John"))
	require.NoError(t, store.SetProperty("count", 3))

	resolved, err := resolver.ResolvePropertyValues("Hi prop:user.name, you have prop:count items")
	require.NoError(t, err)
	assert.Equal(t, "Hi John, you have 3 items", resolved)
}

func TestResolvePropertyValuesNotFound(t *testing.T) {
	resolver, _ := newTestResolver(t, nil)

	_, err := resolver.ResolvePropertyValues("Hi prop:user.name")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrPropertyNotFound))
	assert.Equal(t, "property not found: user.name", err.Error())
}

func TestResolveConfigValues(t *testing.T) {
	resolver, _ := newTestResolver(t, map[string]any{
		"api": map[string]any{"version": "v2"},
	})

	resolved, err := resolver.ResolveConfigValues("config:api.version")
	require.NoError(t, err)
	assert.Equal(t, "v2", resolved)
}

func TestResolveConfigValuesNotFound(t *testing.T) {
	resolver, _ := newTestResolver(t, nil)

	_, err := resolver.ResolveConfigValues("config:api.version")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfigNotFound))
	assert.Equal(t, "configuration value not found: api.version", err.Error())
}

func TestResolveConfigValuesRootKeyPrefix(t *testing.T) {
	resolver, store := newTestResolver(t, map[string]any{
		"app": map[string]any{"setting": "prefixed"},
	})
	require.NoError(t, store.SetProperty(RootKeyProperty, "app"))

	resolved, err := resolver.ResolveConfigValues("config:setting")
	require.NoError(t, err)
	assert.Equal(t, "prefixed", resolved)
}

func TestResolveConfigValuesRootKeyFallback(t *testing.T) {
	// Provider has no "app.setting" but has the bare "setting".
	resolver, store := newTestResolver(t, map[string]any{
		"setting": "direct",
	})
	require.NoError(t, store.SetProperty(RootKeyProperty, "app"))

	resolved, err := resolver.ResolveConfigValues("config:setting")
	require.NoError(t, err)
	assert.Equal(t, "direct", resolved)
}

func TestResolveConfigValuesRootKeyErrorNamesPrefixedPath(t *testing.T) {
	resolver, store := newTestResolver(t, nil)
	require.NoError(t, store.SetProperty(RootKeyProperty, "app"))

	_, err := resolver.ResolveConfigValues("config:setting")
	require.Error(t, err)
	assert.Equal(t, "configuration value not found: app.setting", err.Error())
}

func TestResolveStepParameter(t *testing.T) {
	resolver, store := newTestResolver(t, map[string]any{
		"api": map[string]any{"version": "v2"},
	})
	require.NoError(t, store.SetProperty("user.name", "John"))

	resolved, err := resolver.ResolveStepParameter("Hi prop:user.name on config:api.version")
	require.NoError(t, err)
	assert.Equal(t, "Hi John on v2", resolved)
}

func TestResolvedValuesAreNotRescanned(t *testing.T) {
	resolver, store := newTestResolver(t, map[string]any{
		"inner": "resolved",
	})
	// The property value itself contains a config token; the second pass runs
	// after config resolution, so the embedded token is left as literal text.
	require.NoError(t, store.SetProperty("templ", "use config:inner here"))

	resolved, err := resolver.ResolveStepParameter("-> prop:templ")
	require.NoError(t, err)
	assert.Equal(t, "-> use config:inner here", resolved)
}

func TestNoRecursiveExpansionWithinConfigValues(t *testing.T) {
	resolver, _ := newTestResolver(t, map[string]any{
		"a": "see prop:hidden",
	})

	resolved, err := resolver.ResolveConfigValues("config:a")
	require.NoError(t, err)
	assert.Equal(t, "see prop:hidden", resolved)
}

func TestContainsPredicates(t *testing.T) {
	assert.True(t, ContainsConfigReferences("x config:a.b y"))
	assert.False(t, ContainsConfigReferences("x prop:a.b y"))
	assert.True(t, ContainsPropertyReferences("x prop:a.b y"))
	assert.False(t, ContainsPropertyReferences("plain text"))

	// Prefixes are case-sensitive.
	assert.False(t, ContainsConfigReferences("CONFIG:a.b"))
	assert.False(t, ContainsPropertyReferences("PROP:a.b"))
}

func TestValueRendering(t *testing.T) {
	resolver, store := newTestResolver(t, nil)
	require.NoError(t, store.SetProperty("n", 5))
	require.NoError(t, store.SetProperty("f", 2.5))
	require.NoError(t, store.SetProperty("b", false))
	require.NoError(t, store.SetProperty("z", nil))

	resolved, err := resolver.ResolvePropertyValues("prop:n prop:f prop:b prop:z")
	require.NoError(t, err)
	assert.Equal(t, "5 2.5 false null", resolved)
}
