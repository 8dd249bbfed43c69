package domain

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when an analysis is requested with no samples.
var ErrEmptyInput = errors.New("no samples supplied")

// ErrUnknownProfile is returned when a request names a profile that is not loaded.
var ErrUnknownProfile = errors.New("unknown analysis profile")

// InsufficientDataError reports a configured field with fewer than two finite
// values, so its spread cannot be estimated.
type InsufficientDataError struct {
	Field  string
	Finite int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("field %q has %d finite values, need at least 2", e.Field, e.Finite)
}

// InvalidConfigurationError reports a configuration value the engine cannot use.
type InvalidConfigurationError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func invalidConfig(field, format string, args ...any) error {
	return &InvalidConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
