package logger

import (
	"errors"
	"fmt"
	"strings"
)

// Level represents the logging level.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
	FatalLevel Level = "fatal"
)

// Output encodings.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Default configuration values.
const (
	DefaultLevel  = string(InfoLevel)
	DefaultFormat = FormatJSON
)

var (
	// ErrInvalidLevel is returned when an unknown logging level is configured.
	ErrInvalidLevel = errors.New("invalid logging level")
	// ErrInvalidFormat is returned when an unknown encoding is configured.
	ErrInvalidFormat = errors.New("invalid log format")
)

// Config represents the logger configuration.
type Config struct {
	// Level is the minimum logging level (debug, info, warn, error, fatal).
	Level string `mapstructure:"level" yaml:"level"`
	// Format is the output encoding, json or console.
	Format string `mapstructure:"format" yaml:"format"`
	// Development disables sampling and enables stack traces on warn.
	Development bool `mapstructure:"development" yaml:"development"`
	// OutputPaths is a list of URLs or file paths to write logging output to.
	OutputPaths []string `mapstructure:"output_paths" yaml:"output_paths"`
}

// Validate reports whether New would accept the level and format.
func (c Config) Validate() error {
	if _, err := parseLevel(c.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Format) {
	case FormatJSON, FormatConsole:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Format)
	}
}

// SetDefaults applies default values to the config if not set.
func (c *Config) SetDefaults() {
	if c.Level == "" {
		c.Level = DefaultLevel
	}
	if c.Format == "" {
		c.Format = DefaultFormat
	}
	if len(c.OutputPaths) == 0 {
		// stderr keeps stdout free for the JSONL sink.
		c.OutputPaths = []string{"stderr"}
	}
}
