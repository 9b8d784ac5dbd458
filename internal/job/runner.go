// Package job runs configured crawl jobs: it resolves a job's site rules and
// seeds, wires the fetcher, sink and seen-set for one run and reports the
// outcome.
package job

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/north-cloud/statcrawl/internal/config"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/domain"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/extract"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/fetcher"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/logger"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/scheduler"
)

// Runner executes jobs from one configuration. Runs of different jobs may
// overlap; each run gets its own scheduler, seen-set and sink.
type Runner struct {
	cfg      *config.Config
	fetcher  fetcher.Fetcher
	sinks    SinkFactory
	seen     SeenFactory
	newRunID func() string
	log      logger.Logger
}

// Option customizes a Runner.
type Option func(*Runner)

// WithFetcher replaces the colly fetcher.
func WithFetcher(f fetcher.Fetcher) Option {
	return func(r *Runner) { r.fetcher = f }
}

// WithSinks replaces the configured sinks.
func WithSinks(f SinkFactory) Option {
	return func(r *Runner) { r.sinks = f }
}

// WithSeen replaces the configured seen-set backend.
func WithSeen(f SeenFactory) Option {
	return func(r *Runner) { r.seen = f }
}

// WithRunIDs replaces the run ID generator.
func WithRunIDs(f func() string) Option {
	return func(r *Runner) { r.newRunID = f }
}

// NewRunner creates a Runner for cfg.
func NewRunner(cfg *config.Config, log logger.Logger, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if log == nil {
		log = logger.NewNop()
	}

	r := &Runner{
		cfg:      cfg,
		sinks:    ConfiguredSinks(cfg.Sink, os.Stdout),
		seen:     ConfiguredSeen(cfg.Dedup, log),
		newRunID: uuid.NewString,
		log:      log,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.fetcher == nil {
		f, err := fetcher.NewColly(cfg.Crawler, log)
		if err != nil {
			return nil, fmt.Errorf("create fetcher: %w", err)
		}
		r.fetcher = f
	}
	return r, nil
}

// plan is a job resolved against its site and the shared limits.
type plan struct {
	job   config.Job
	sched scheduler.Config
	rules *extract.Registry
	seeds []domain.Request
}

func (r *Runner) prepare(j config.Job) (plan, error) {
	if err := j.Validate(); err != nil {
		return plan{}, err
	}

	sched := j.SchedulerConfig(r.cfg.SchedulerBase())
	if err := sched.Validate(); err != nil {
		return plan{}, &config.ConfigError{Field: fmt.Sprintf("jobs[%s]", j.Name), Value: sched, Reason: err.Error()}
	}

	rules, err := Rules(j.Site, extract.Options{MaxPages: sched.MaxPages})
	if err != nil {
		return plan{}, err
	}
	if err := checkSeedKinds(j, rules); err != nil {
		return plan{}, err
	}

	seeds, err := j.Requests()
	if err != nil {
		return plan{}, err
	}
	return plan{job: j, sched: sched, rules: rules, seeds: seeds}, nil
}

// Validate resolves every named job, or every configured job when names is
// empty, without crawling.
func (r *Runner) Validate(names ...string) error {
	_, err := r.plans(names)
	return err
}

func (r *Runner) plans(names []string) ([]plan, error) {
	jobs := r.cfg.Jobs
	if len(names) > 0 {
		jobs = make([]config.Job, 0, len(names))
		for _, name := range names {
			j, err := r.cfg.Job(name)
			if err != nil {
				return nil, err
			}
			jobs = append(jobs, j)
		}
	}

	plans := make([]plan, 0, len(jobs))
	for _, j := range jobs {
		p, err := r.prepare(j)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, nil
}

// Run crawls the named jobs, or all configured jobs when names is empty, one
// after the other. Every job is resolved first so a config error aborts
// before any page is fetched. Run stops early when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, names ...string) ([]Result, error) {
	plans, err := r.plans(names)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(plans))
	for _, p := range plans {
		res, runErr := r.run(ctx, p)
		results = append(results, res)
		if runErr != nil {
			return results, runErr
		}
	}
	return results, nil
}

// RunJob crawls a single job that need not be part of the configuration.
func (r *Runner) RunJob(ctx context.Context, j config.Job) (Result, error) {
	p, err := r.prepare(j)
	if err != nil {
		return Result{Job: j.Name, Site: j.Site}, err
	}
	return r.run(ctx, p)
}

func (r *Runner) run(ctx context.Context, p plan) (Result, error) {
	res := Result{
		Job:       p.job.Name,
		Site:      p.job.Site,
		RunID:     r.newRunID(),
		StartedAt: time.Now().UTC(),
	}
	log := r.log.With(
		logger.String("job", p.job.Name),
		logger.String("site", p.job.Site),
		logger.String("run_id", res.RunID),
	)

	seen, release, err := r.seen(ctx, res.RunID)
	if err != nil {
		return res, fmt.Errorf("open seen-set: %w", err)
	}
	defer func() {
		if releaseErr := release(); releaseErr != nil {
			log.Warn("Failed to release seen-set", logger.Error(releaseErr))
		}
	}()

	out, err := r.sinks(ctx, res.RunID)
	if err != nil {
		return res, fmt.Errorf("open sink: %w", err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil {
			log.Error("Failed to close sink", logger.Error(closeErr))
		}
	}()

	sched, err := scheduler.New(p.sched, r.fetcher, p.rules, out, seen, log)
	if err != nil {
		return res, fmt.Errorf("create scheduler: %w", err)
	}

	log.Info("Job started", logger.Int("seeds", len(p.seeds)))
	stats, runErr := sched.Run(ctx, p.seeds)

	res.Stats = stats
	res.Duration = time.Since(res.StartedAt)
	res.Interrupted = runErr != nil

	seenCount, seenErr := seen.Len(context.WithoutCancel(ctx))
	if seenErr != nil {
		log.Warn("Failed to count seen requests", logger.Error(seenErr))
	}

	log.Info("Job finished",
		logger.Int64("records", stats.TotalRecords()),
		logger.Int64("seen_requests", seenCount),
		logger.Int64("failed_requests", stats.Failed),
		logger.Int64("row_errors", stats.RowErrors),
		logger.Int64("extraction_errors", stats.ExtractionErrors),
		logger.Bool("interrupted", res.Interrupted),
	)
	return res, runErr
}
