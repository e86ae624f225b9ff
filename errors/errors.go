// Package errors provides standardized error handling for the smoker harness.
// It includes error classification, standard error variables, and helper
// functions for consistent error wrapping across clients, the property store
// and the reference resolver.
package errors

import (
	"errors"
	"fmt"
)

// ErrorClass represents the classification of errors for handling purposes
type ErrorClass int

const (
	// ErrorConfig represents errors due to missing or invalid configuration
	ErrorConfig ErrorClass = iota
	// ErrorLookup represents property or configuration path lookup failures
	ErrorLookup
	// ErrorLifecycle represents operations invoked outside the Initialized state
	ErrorLifecycle
	// ErrorUpstream represents failures surfaced by a wrapped SDK or transport
	ErrorUpstream
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorConfig:
		return "config"
	case ErrorLookup:
		return "lookup"
	case ErrorLifecycle:
		return "lifecycle"
	case ErrorUpstream:
		return "upstream"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions
var (
	// Client lifecycle errors
	ErrNotInitialized   = errors.New("client not initialized")
	ErrAlreadyDestroyed = errors.New("client already destroyed")

	// Factory errors
	ErrUnsupportedClientType = errors.New("unsupported client type")

	// Configuration errors
	ErrMissingConfig  = errors.New("missing required configuration")
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrConfigNotFound = errors.New("configuration value not found")

	// Property store errors
	ErrPropertyNotFound = errors.New("property not found")
	ErrEmptyPath        = errors.New("path cannot be empty")
)

// ClassifiedError wraps an error with its classification and the component
// and operation that produced it.
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// Classify returns the error class for an error. Unclassified errors default
// to upstream since anything the core did not produce came from a wrapped SDK.
func Classify(err error) ErrorClass {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class
	}

	switch {
	case errors.Is(err, ErrMissingConfig),
		errors.Is(err, ErrInvalidConfig):
		return ErrorConfig
	case errors.Is(err, ErrPropertyNotFound),
		errors.Is(err, ErrConfigNotFound),
		errors.Is(err, ErrEmptyPath):
		return ErrorLookup
	case errors.Is(err, ErrNotInitialized),
		errors.Is(err, ErrAlreadyDestroyed):
		return ErrorLifecycle
	}

	return ErrorUpstream
}

// IsConfig checks if an error is a configuration error
func IsConfig(err error) bool {
	return err != nil && Classify(err) == ErrorConfig
}

// IsLookup checks if an error is a lookup error
func IsLookup(err error) bool {
	return err != nil && Classify(err) == ErrorLookup
}

// IsLifecycle checks if an error is a lifecycle-state error
func IsLifecycle(err error) bool {
	return err != nil && Classify(err) == ErrorLifecycle
}

// IsUpstream checks if an error came from a wrapped SDK or transport
func IsUpstream(err error) bool {
	return err != nil && Classify(err) == ErrorUpstream
}

// newClassified creates a new classified error.
// This is an internal helper - use the per-class Wrap helpers instead.
func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapConfig wraps an error as a configuration error with context
func WrapConfig(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorConfig, wrappedErr, component, method, wrappedErr.Error())
}

// WrapLookup wraps an error as a lookup error with context
func WrapLookup(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorLookup, wrappedErr, component, method, wrappedErr.Error())
}

// WrapLifecycle wraps an error as a lifecycle-state error with context
func WrapLifecycle(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorLifecycle, wrappedErr, component, method, wrappedErr.Error())
}

// WrapUpstream wraps an error as an upstream/transport error with context
func WrapUpstream(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorUpstream, wrappedErr, component, method, wrappedErr.Error())
}

// Normalize converts an arbitrary cause into an error. Wrapped SDKs surface
// failures as genuine errors, plain strings, or values recovered from panics;
// all of them must reach the caller without losing the original message.
func Normalize(cause any) error {
	switch v := cause.(type) {
	case nil:
		return nil
	case error:
		return v
	case string:
		return errors.New(v)
	case fmt.Stringer:
		return errors.New(v.String())
	default:
		return fmt.Errorf("%v", v)
	}
}

// Is reports whether any error in err's tree matches target.
// Re-exported so callers do not need both this package and the standard library.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}

// Join aggregates non-nil errors into one; nil when all are nil.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
