package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	neturl "net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/jonesrussell/north-cloud/statcrawl/internal/logger"
)

// Default collector settings.
const (
	DefaultUserAgent      = "statcrawl/1.0 (+https://github.com/jonesrussell/north-cloud)"
	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxBodySize    = 10 * 1024 * 1024
	DefaultParallelism    = 4
	DefaultDelay          = 500 * time.Millisecond
	DefaultRandomDelay    = 250 * time.Millisecond
)

// Config configures the colly-backed fetcher.
type Config struct {
	// UserAgent is sent with every request.
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`
	// RespectRobotsTxt makes pages disallowed by robots.txt fail without retry.
	RespectRobotsTxt bool `mapstructure:"respect_robots_txt" yaml:"respect_robots_txt"`
	// RequestTimeout bounds a single HTTP exchange.
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	// MaxBodySize truncates larger responses. Zero means DefaultMaxBodySize.
	MaxBodySize int `mapstructure:"max_body_size" yaml:"max_body_size"`
	// Parallelism limits concurrent requests per domain.
	Parallelism int `mapstructure:"parallelism" yaml:"parallelism"`
	// Delay is the pause between requests to the same domain.
	Delay time.Duration `mapstructure:"delay" yaml:"delay"`
	// RandomDelay adds up to this much jitter to Delay.
	RandomDelay time.Duration `mapstructure:"random_delay" yaml:"random_delay"`
}

// DefaultConfig returns the fetcher defaults.
func DefaultConfig() Config {
	return Config{
		UserAgent:        DefaultUserAgent,
		RespectRobotsTxt: true,
		RequestTimeout:   DefaultRequestTimeout,
		MaxBodySize:      DefaultMaxBodySize,
		Parallelism:      DefaultParallelism,
		Delay:            DefaultDelay,
		RandomDelay:      DefaultRandomDelay,
	}
}

// Colly fetches pages with a gocolly collector. Each Fetch runs on a clone of
// one base collector so rate limits, robots.txt rules and the HTTP client are
// shared while callbacks and the request context stay per call.
type Colly struct {
	base *colly.Collector
	log  logger.Logger
}

// NewColly creates a Colly fetcher.
func NewColly(cfg Config, log logger.Logger) (*Colly, error) {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = DefaultParallelism
	}

	opts := []colly.CollectorOption{
		colly.UserAgent(cfg.UserAgent),
		colly.MaxBodySize(cfg.MaxBodySize),
		colly.DetectCharset(),
		// The scheduler owns deduplication; colly must fetch whatever it is given.
		colly.AllowURLRevisit(),
	}

	base := colly.NewCollector(opts...)
	// colly ignores robots.txt unless told otherwise.
	base.IgnoreRobotsTxt = !cfg.RespectRobotsTxt
	base.SetRequestTimeout(cfg.RequestTimeout)
	if err := base.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: cfg.Parallelism,
		Delay:       cfg.Delay,
		RandomDelay: cfg.RandomDelay,
	}); err != nil {
		return nil, fmt.Errorf("set limit rule: %w", err)
	}

	if log == nil {
		log = logger.NewNop()
	}
	return &Colly{base: base, log: log}, nil
}

// Fetch implements Fetcher.
func (f *Colly) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	c := f.base.Clone()
	colly.StdlibContext(ctx)(c)

	started := time.Now()
	var (
		body   []byte
		status int
		final  string
		cbErr  error
	)
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
		status = r.StatusCode
		final = r.Request.URL.String()
	})
	c.OnError(func(r *colly.Response, err error) {
		cbErr = err
		if r != nil {
			status = r.StatusCode
		}
	})

	visitErr := c.Visit(url)
	if visitErr == nil {
		visitErr = cbErr
	}
	if visitErr != nil {
		fe := &FetchError{URL: url, StatusCode: status, Err: visitErr}
		switch {
		case errors.Is(visitErr, colly.ErrRobotsTxtBlocked):
			fe.Err = fmt.Errorf("%w: %w", ErrBlocked, visitErr)
		case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(visitErr, context.DeadlineExceeded):
			fe.Timeout = true
		}
		f.log.Debug("Fetch failed",
			logger.URL(url),
			logger.Int("status", status),
			logger.Duration("duration", time.Since(started)),
			logger.Error(visitErr),
		)
		return nil, fe
	}
	if ctx.Err() != nil {
		return nil, &FetchError{URL: url, Timeout: errors.Is(ctx.Err(), context.DeadlineExceeded), Err: ctx.Err()}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &FetchError{URL: url, StatusCode: status, Err: fmt.Errorf("%w: %w", ErrNotHTML, err)}
	}
	if u, perr := neturl.Parse(final); final != "" && perr == nil {
		doc.Url = u
	}

	f.log.Debug("Fetched page",
		logger.URL(url),
		logger.Int("status", status),
		logger.Int("bytes", len(body)),
		logger.Duration("duration", time.Since(started)),
	)
	return doc, nil
}

var _ Fetcher = (*Colly)(nil)
