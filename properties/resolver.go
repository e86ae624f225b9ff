package properties

import (
	"fmt"
	"regexp"

	"github.com/fabianopinto/smoker-sub002/config"
	"github.com/fabianopinto/smoker-sub002/errors"
)

// RootKeyProperty is the optional property that namespaces config lookups.
// When set, every config: path is first tried with "<rootKey>." prefixed,
// falling back to the unprefixed path.
const RootKeyProperty = "config.rootKey"

var (
	configTokenPattern   = regexp.MustCompile(`config:([A-Za-z0-9._-]+)`)
	propertyTokenPattern = regexp.MustCompile(`prop:([A-Za-z0-9._-]+)`)
)

// Resolver substitutes config:<path> and prop:<path> tokens in step text with
// values from an external configuration provider and the property store.
// Resolved values are substituted literally and never re-scanned, so a value
// containing further tokens stays as literal text.
type Resolver struct {
	props    *Store
	provider config.Provider
}

// NewResolver creates a resolver over the given property store and
// configuration provider.
func NewResolver(props *Store, provider config.Provider) *Resolver {
	return &Resolver{props: props, provider: provider}
}

// ContainsConfigReferences reports whether input holds any config: token
func ContainsConfigReferences(input string) bool {
	return configTokenPattern.MatchString(input)
}

// ContainsPropertyReferences reports whether input holds any prop: token
func ContainsPropertyReferences(input string) bool {
	return propertyTokenPattern.MatchString(input)
}

// ResolveConfigValues substitutes every config:<path> token in input. When
// the root key property is set, the prefixed path is tried first and the
// unprefixed path is the fallback; the error names the path actually
// attempted, i.e. the prefixed one.
func (r *Resolver) ResolveConfigValues(input string) (string, error) {
	rootKey := r.rootKey()

	var resolveErr error
	result := configTokenPattern.ReplaceAllStringFunc(input, func(token string) string {
		if resolveErr != nil {
			return token
		}
		path := token[len("config:"):]

		attempted := path
		if rootKey != "" {
			attempted = rootKey + "." + path
		}

		value, ok := r.provider.GetValue(attempted)
		if !ok && rootKey != "" {
			value, ok = r.provider.GetValue(path)
		}
		if !ok {
			resolveErr = fmt.Errorf("%w: %s", errors.ErrConfigNotFound, attempted)
			return token
		}
		return formatValue(value)
	})
	if resolveErr != nil {
		return "", resolveErr
	}
	return result, nil
}

// ResolvePropertyValues substitutes every prop:<path> token in input. There
// is no root-key indirection; a lookup failure names the exact path.
func (r *Resolver) ResolvePropertyValues(input string) (string, error) {
	var resolveErr error
	result := propertyTokenPattern.ReplaceAllStringFunc(input, func(token string) string {
		if resolveErr != nil {
			return token
		}
		path := token[len("prop:"):]

		value, err := r.props.GetProperty(path)
		if err != nil {
			resolveErr = fmt.Errorf("%w: %s", errors.ErrPropertyNotFound, path)
			return token
		}
		return formatValue(value)
	})
	if resolveErr != nil {
		return "", resolveErr
	}
	return result, nil
}

// ResolveStepParameter runs config resolution first, then property resolution
// on the output of the first pass. Config tokens embedded in later-resolved
// property values are therefore not re-expanded.
func (r *Resolver) ResolveStepParameter(input string) (string, error) {
	resolved, err := r.ResolveConfigValues(input)
	if err != nil {
		return "", err
	}
	return r.ResolvePropertyValues(resolved)
}

// rootKey returns the configured root key, or "" when unset or not a string
func (r *Resolver) rootKey() string {
	value, err := r.props.GetProperty(RootKeyProperty)
	if err != nil {
		return ""
	}
	key, ok := value.(string)
	if !ok {
		return ""
	}
	return key
}

// formatValue renders a resolved value the way step text expects it
func formatValue(value any) string {
	if value == nil {
		return "null"
	}
	return fmt.Sprintf("%v", value)
}
