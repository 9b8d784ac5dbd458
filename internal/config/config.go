// Package config loads statcrawl settings from a YAML file, the environment
// and defaults, and validates them before any crawl starts.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/jonesrussell/north-cloud/statcrawl/internal/fetcher"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/frontier"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/logger"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/retry"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/scheduler"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/sink"
)

// Dedup backends.
const (
	DedupMemory = "memory"
	DedupRedis  = "redis"
)

// Config is the complete application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app" yaml:"app"`
	Logger    logger.Config   `mapstructure:"logger" yaml:"logger"`
	Crawler   fetcher.Config  `mapstructure:"crawler" yaml:"crawler"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" yaml:"scheduler"`
	Retry     retry.Config    `mapstructure:"retry" yaml:"retry"`
	Dedup     DedupConfig     `mapstructure:"dedup" yaml:"dedup"`
	Sink      SinkConfig      `mapstructure:"sink" yaml:"sink"`
	Jobs      []Job           `mapstructure:"jobs" yaml:"jobs"`
}

// AppConfig holds application metadata.
type AppConfig struct {
	Name        string `mapstructure:"name" yaml:"name"`
	Environment string `mapstructure:"environment" yaml:"environment"`
	Debug       bool   `mapstructure:"debug" yaml:"debug"`
}

// SchedulerConfig holds the default crawl limits shared by every job.
type SchedulerConfig struct {
	Concurrency    int           `mapstructure:"concurrency" yaml:"concurrency"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	MaxPages       int           `mapstructure:"max_pages" yaml:"max_pages"`
	MaxRequests    int           `mapstructure:"max_requests" yaml:"max_requests"`
}

// DedupConfig selects where the seen-set of a run lives.
type DedupConfig struct {
	Backend string               `mapstructure:"backend" yaml:"backend"`
	Redis   frontier.RedisConfig `mapstructure:"redis" yaml:"redis"`
}

// SinkConfig selects the record destinations. Several types fan out.
type SinkConfig struct {
	Types         []string                 `mapstructure:"types" yaml:"types"`
	Path          string                   `mapstructure:"path" yaml:"path"`
	Postgres      sink.PostgresConfig      `mapstructure:"postgres" yaml:"postgres"`
	Elasticsearch sink.ElasticsearchConfig `mapstructure:"elasticsearch" yaml:"elasticsearch"`
}

// Load decodes v into a Config, fills in the built-in jobs when none are
// configured and validates the result.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if decodeErr := decoder.Decode(v.AllSettings()); decodeErr != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", decodeErr)
	}

	if len(cfg.Jobs) == 0 {
		cfg.Jobs = DefaultJobs()
	}
	if cfg.App.Debug {
		cfg.Logger.Level = string(logger.DebugLevel)
	}
	cfg.Logger.SetDefaults()

	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, validateErr
	}
	return &cfg, nil
}

// SetDefaults registers the default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app", map[string]any{
		"name":        "statcrawl",
		"environment": "production",
		"debug":       false,
	})

	v.SetDefault("logger", map[string]any{
		"level":        logger.DefaultLevel,
		"format":       logger.DefaultFormat,
		"development":  false,
		"output_paths": []string{"stderr"},
	})

	v.SetDefault("crawler", map[string]any{
		"user_agent":         fetcher.DefaultUserAgent,
		"respect_robots_txt": true,
		"request_timeout":    fetcher.DefaultRequestTimeout.String(),
		"max_body_size":      fetcher.DefaultMaxBodySize,
		"parallelism":        fetcher.DefaultParallelism,
		"delay":              fetcher.DefaultDelay.String(),
		"random_delay":       fetcher.DefaultRandomDelay.String(),
	})

	v.SetDefault("scheduler", map[string]any{
		"concurrency":     scheduler.DefaultConcurrency,
		"request_timeout": scheduler.DefaultRequestTimeout.String(),
		"max_pages":       scheduler.DefaultConfig().MaxPages,
		"max_requests":    0,
	})

	v.SetDefault("retry", map[string]any{
		"max_attempts":  retry.DefaultMaxAttempts,
		"initial_delay": retry.DefaultInitialDelay.String(),
		"max_delay":     retry.DefaultMaxDelay.String(),
		"multiplier":    retry.DefaultMultiplier,
	})

	v.SetDefault("dedup", map[string]any{
		"backend": DedupMemory,
		"redis": map[string]any{
			"address":  "127.0.0.1:6379",
			"password": "",
			"db":       0,
			"ttl":      frontier.DefaultSeenTTL.String(),
		},
	})

	v.SetDefault("sink", map[string]any{
		"types": []string{sink.TypeStdout},
		"path":  "records.jsonl",
		"postgres": map[string]any{
			"dsn":            "",
			"max_open_conns": sink.DefaultMaxOpenConns,
			"max_idle_conns": sink.DefaultMaxIdleConns,
		},
		"elasticsearch": map[string]any{
			"addresses":    []string{"http://127.0.0.1:9200"},
			"username":     "",
			"password":     "",
			"index_prefix": sink.DefaultIndexPrefix,
		},
	})
}

// BindEnv maps the conventional environment variable names onto config keys.
// Other keys are reachable through AutomaticEnv, e.g. SINK_PATH.
func BindEnv(v *viper.Viper) error {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bindings := map[string][]string{
		"app.environment":              {"APP_ENV"},
		"app.debug":                    {"APP_DEBUG"},
		"logger.level":                 {"LOG_LEVEL"},
		"logger.format":                {"LOG_FORMAT"},
		"sink.types":                   {"STATCRAWL_SINK"},
		"sink.postgres.dsn":            {"POSTGRES_DSN", "DATABASE_URL"},
		"sink.elasticsearch.addresses": {"ELASTICSEARCH_ADDRESSES", "ELASTICSEARCH_HOSTS"},
		"sink.elasticsearch.password":  {"ELASTICSEARCH_PASSWORD", "ELASTIC_PASSWORD"},
		"dedup.backend":                {"STATCRAWL_DEDUP"},
		"dedup.redis.address":          {"REDIS_ADDR"},
		"dedup.redis.password":         {"REDIS_PASSWORD"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", envs[0], err)
		}
	}
	return nil
}

// SchedulerBase returns the scheduler settings shared by all jobs.
func (c *Config) SchedulerBase() scheduler.Config {
	return scheduler.Config{
		Concurrency:    c.Scheduler.Concurrency,
		RequestTimeout: c.Scheduler.RequestTimeout,
		MaxPages:       c.Scheduler.MaxPages,
		MaxRequests:    c.Scheduler.MaxRequests,
		Retry:          c.Retry,
	}
}

// Job returns the job called name.
func (c *Config) Job(name string) (Job, error) {
	for _, j := range c.Jobs {
		if j.Name == name {
			return j, nil
		}
	}
	return Job{}, invalid("jobs", name, "no job with this name")
}

// Validate checks every section and every job.
func (c *Config) Validate() error {
	if err := c.Logger.Validate(); err != nil {
		if errors.Is(err, logger.ErrInvalidFormat) {
			return invalid("logger.format", c.Logger.Format, "%v", logger.ErrInvalidFormat)
		}
		return invalid("logger.level", c.Logger.Level, "%v", logger.ErrInvalidLevel)
	}
	if c.Crawler.Parallelism < 0 {
		return invalid("crawler.parallelism", c.Crawler.Parallelism, "cannot be negative")
	}
	if err := c.SchedulerBase().Validate(); err != nil {
		return invalid("scheduler", c.Scheduler, "%v", err)
	}
	if c.Retry.MaxAttempts < 1 {
		return invalid("retry.max_attempts", c.Retry.MaxAttempts, "must be at least 1")
	}
	if err := c.validateDedup(); err != nil {
		return err
	}
	if err := c.validateSink(); err != nil {
		return err
	}
	return c.validateJobs()
}

func (c *Config) validateDedup() error {
	switch c.Dedup.Backend {
	case DedupMemory:
		return nil
	case DedupRedis:
		if c.Dedup.Redis.Address == "" {
			return invalid("dedup.redis.address", "", "%v", frontier.ErrEmptyRedisAddress)
		}
		return nil
	default:
		return invalid("dedup.backend", c.Dedup.Backend, "must be %q or %q", DedupMemory, DedupRedis)
	}
}

func (c *Config) validateSink() error {
	if len(c.Sink.Types) == 0 {
		return invalid("sink.types", c.Sink.Types, "at least one sink is required")
	}
	for _, t := range c.Sink.Types {
		switch strings.TrimSpace(t) {
		case sink.TypeStdout:
		case sink.TypeFile:
			if c.Sink.Path == "" {
				return invalid("sink.path", "", "required by the file sink")
			}
		case sink.TypePostgres:
			if c.Sink.Postgres.DSN == "" {
				return invalid("sink.postgres.dsn", "", "required by the postgres sink")
			}
		case sink.TypeElasticsearch:
			if len(c.Sink.Elasticsearch.Addresses) == 0 {
				return invalid("sink.elasticsearch.addresses", nil, "required by the elasticsearch sink")
			}
		default:
			return invalid("sink.types", t, "unknown sink type")
		}
	}
	return nil
}

func (c *Config) validateJobs() error {
	names := make(map[string]struct{}, len(c.Jobs))
	for _, j := range c.Jobs {
		if err := j.Validate(); err != nil {
			return err
		}
		if _, dup := names[j.Name]; dup {
			return invalid("jobs.name", j.Name, "duplicate job name")
		}
		names[j.Name] = struct{}{}
	}
	return nil
}
