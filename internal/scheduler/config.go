// Package scheduler drives a crawl: it pops requests from the frontier,
// fetches them under a concurrency bound, routes documents to extraction
// rules and feeds records to the sink and derived requests back to the frontier.
package scheduler

import (
	"errors"
	"time"

	"github.com/jonesrussell/north-cloud/statcrawl/internal/extract"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/retry"
)

const (
	// DefaultConcurrency is the default number of requests in flight.
	DefaultConcurrency = 4

	// DefaultRequestTimeout bounds one fetch attempt.
	DefaultRequestTimeout = 30 * time.Second

	// MaxConcurrency is the highest accepted concurrency.
	MaxConcurrency = 64
)

// Config holds the crawl limits.
type Config struct {
	// Concurrency is the maximum number of requests fetched at once.
	Concurrency int

	// RequestTimeout bounds each fetch attempt.
	RequestTimeout time.Duration

	// MaxPages is the highest page index a listing may reach.
	MaxPages int

	// MaxRequests caps how many requests a run accepts. Zero means no cap.
	MaxRequests int

	// Retry controls re-fetching after retryable failures.
	Retry retry.Config
}

// DefaultConfig returns a Config with the default limits.
func DefaultConfig() Config {
	return Config{
		Concurrency:    DefaultConcurrency,
		RequestTimeout: DefaultRequestTimeout,
		MaxPages:       extract.DefaultMaxPages,
		Retry:          retry.DefaultConfig(),
	}
}

// Validate checks the limits.
func (c Config) Validate() error {
	if c.Concurrency < 1 {
		return errors.New("concurrency must be at least 1")
	}
	if c.Concurrency > MaxConcurrency {
		return errors.New("concurrency must be at most 64")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	if c.MaxPages < 1 {
		return errors.New("max pages must be at least 1")
	}
	if c.MaxRequests < 0 {
		return errors.New("max requests cannot be negative")
	}
	return nil
}

// WithConcurrency returns a copy with the given concurrency.
func (c Config) WithConcurrency(n int) Config {
	c.Concurrency = n
	return c
}

// WithMaxPages returns a copy with the given pagination bound.
func (c Config) WithMaxPages(n int) Config {
	c.MaxPages = n
	return c
}
