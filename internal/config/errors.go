package config

import (
	"errors"
	"fmt"
)

// ErrConfig is matched by every *ConfigError.
var ErrConfig = errors.New("invalid configuration")

// ConfigError reports a setting that prevents a crawl job from starting.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config: field %q with value %v: %s", e.Field, e.Value, e.Reason)
}

// Is reports whether target is ErrConfig.
func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

func invalid(field string, value any, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Value: value, Reason: fmt.Sprintf(format, args...)}
}
