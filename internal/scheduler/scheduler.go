package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/semaphore"

	"github.com/jonesrussell/north-cloud/statcrawl/internal/domain"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/extract"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/fetcher"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/frontier"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/logger"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/retry"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/sink"
)

// State is the lifecycle state of a Scheduler.
type State int32

const (
	// StateIdle means no run is active.
	StateIdle State = iota
	// StateRunning means requests are being dispatched.
	StateRunning
	// StateDraining means the run was cancelled and in-flight requests are unwinding.
	StateDraining
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	default:
		return "unknown"
	}
}

var (
	// ErrAlreadyRunning is returned by Run while another run is active.
	ErrAlreadyRunning = errors.New("scheduler is already running")

	// ErrRunCompleted is returned by Run once the Scheduler has finished a run.
	// Its frontier and counters belong to that run; create a new Scheduler.
	ErrRunCompleted = errors.New("scheduler has already completed a run")
)

// Scheduler runs a single crawl over its own frontier.
type Scheduler struct {
	cfg     Config
	fetcher fetcher.Fetcher
	rules   *extract.Registry
	sink    sink.Sink
	queue   *frontier.Queue
	log     logger.Logger

	state    atomic.Int32
	used     atomic.Bool
	inflight atomic.Int64
	budgetMu sync.Mutex
	wake     chan struct{}
	stats    *counters
}

// New creates a Scheduler. seen is owned by the scheduler for the run.
func New(
	cfg Config,
	f fetcher.Fetcher,
	rules *extract.Registry,
	out sink.Sink,
	seen frontier.SeenSet,
	log logger.Logger,
) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if f == nil || rules == nil || out == nil || seen == nil {
		return nil, errors.New("fetcher, rules, sink and seen set are required")
	}
	if log == nil {
		log = logger.NewNop()
	}

	cfg.Retry.IsRetryable = fetcher.IsRetryable

	return &Scheduler{
		cfg:     cfg,
		fetcher: f,
		rules:   rules,
		sink:    out,
		queue:   frontier.NewQueue(seen),
		log:     log,
		wake:    make(chan struct{}, 1),
		stats:   newCounters(),
	}, nil
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Run enqueues seeds and dispatches until the frontier is empty and nothing
// is in flight, or ctx is cancelled. On cancellation no new request starts
// and abandoned requests emit nothing; Run then returns ctx's error.
// A Scheduler runs once.
func (s *Scheduler) Run(ctx context.Context, seeds []domain.Request) (Stats, error) {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return Stats{}, ErrAlreadyRunning
	}
	defer s.state.Store(int32(StateIdle))
	if s.used.Swap(true) {
		return Stats{}, ErrRunCompleted
	}

	started := time.Now()
	s.log.Info("Crawl started",
		logger.Int("seeds", len(seeds)),
		logger.Int("concurrency", s.cfg.Concurrency),
		logger.Int("max_pages", s.cfg.MaxPages),
	)

	for _, seed := range seeds {
		s.enqueue(ctx, seed)
	}

	sem := semaphore.NewWeighted(int64(s.cfg.Concurrency))
	var wg sync.WaitGroup

	for ctx.Err() == nil {
		req, ok := s.queue.Pop()
		if !ok {
			if s.inflight.Load() == 0 && s.queue.Len() == 0 {
				break
			}
			select {
			case <-s.wake:
			case <-ctx.Done():
			}
			continue
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			s.stats.abandoned.Add(1)
			break
		}

		s.inflight.Add(1)
		wg.Add(1)
		go func(req domain.Request) {
			defer wg.Done()
			defer sem.Release(1)

			s.process(ctx, req)

			s.inflight.Add(-1)
			select {
			case s.wake <- struct{}{}:
			default:
			}
		}(req)
	}

	if ctx.Err() != nil {
		s.state.Store(int32(StateDraining))
		s.log.Warn("Crawl cancelled, draining in-flight requests",
			logger.Int64("in_flight", s.inflight.Load()),
			logger.Int("pending", s.queue.Len()),
		)
	}
	wg.Wait()

	stats := s.stats.snapshot()
	s.log.Info("Crawl finished",
		logger.Duration("duration", time.Since(started)),
		logger.Int64("dispatched", stats.Dispatched),
		logger.Int64("succeeded", stats.Succeeded),
		logger.Int64("failed", stats.Failed),
		logger.Int64("records", stats.TotalRecords()),
	)

	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("crawl interrupted: %w", err)
	}
	return stats, nil
}

// enqueue applies the pagination bound and request budget, then pushes req
// through the frontier's dedup.
func (s *Scheduler) enqueue(ctx context.Context, req domain.Request) {
	if req.Kind().IsListing() && req.Page() > s.cfg.MaxPages {
		s.stats.beyondPageLimit.Add(1)
		s.log.Debug("Page beyond limit dropped",
			logger.URL(req.URL()), logger.Kind(req.Kind()), logger.Int("page", req.Page()))
		return
	}
	if s.cfg.MaxRequests > 0 {
		// The budget check and the push must not interleave with other workers.
		s.budgetMu.Lock()
		defer s.budgetMu.Unlock()
		if s.stats.enqueued.Load() >= int64(s.cfg.MaxRequests) {
			s.stats.overBudget.Add(1)
			return
		}
	}

	accepted, err := s.queue.Push(ctx, req)
	switch {
	case err != nil:
		s.stats.invalidRequests.Add(1)
		s.log.Warn("Request rejected", logger.URL(req.URL()), logger.Kind(req.Kind()), logger.Error(err))
	case !accepted:
		s.stats.duplicates.Add(1)
	default:
		s.stats.enqueued.Add(1)
	}
}

// process moves one request from Dispatched to Succeeded or Failed.
func (s *Scheduler) process(ctx context.Context, req domain.Request) {
	s.stats.dispatched.Add(1)
	log := s.log.With(logger.URL(req.URL()), logger.Kind(req.Kind()))
	started := time.Now()

	doc, err := s.fetch(ctx, req, log)
	if ctx.Err() != nil {
		s.stats.abandoned.Add(1)
		return
	}
	if err != nil {
		s.stats.failed.Add(1)
		log.Warn("Request failed", logger.Error(err), logger.Duration("duration", time.Since(started)))
		return
	}

	rule, err := s.rules.Lookup(req.Kind())
	if err != nil {
		s.stats.failed.Add(1)
		log.Error("No rule for page kind", logger.Error(err))
		return
	}

	res, err := rule.Apply(doc, req)
	if err != nil {
		s.stats.failed.Add(1)
		s.stats.extractionErrors.Add(1)
		log.Warn("Extraction failed", logger.Error(err))
		return
	}

	for _, rowErr := range res.RowErrors {
		s.stats.rowErrors.Add(1)
		log.Info("Row dropped", logger.Error(rowErr))
	}

	if ctx.Err() != nil {
		s.stats.abandoned.Add(1)
		return
	}

	for _, rec := range res.Records {
		if err := s.sink.Emit(ctx, rec); err != nil {
			s.stats.sinkErrors.Add(1)
			log.Error("Sink rejected record", logger.Error(err), logger.String("record_kind", rec.RecordKind().String()))
			continue
		}
		s.stats.addRecord(rec.RecordKind())
	}

	for _, next := range res.Requests {
		s.enqueue(ctx, next)
	}

	s.stats.succeeded.Add(1)
	log.Debug("Request succeeded",
		logger.Int("records", len(res.Records)),
		logger.Int("requests", len(res.Requests)),
		logger.Duration("duration", time.Since(started)),
	)
}

// fetch retrieves req's page, retrying retryable failures. Each attempt runs
// under its own RequestTimeout.
func (s *Scheduler) fetch(ctx context.Context, req domain.Request, log logger.Logger) (*goquery.Document, error) {
	policy := s.cfg.Retry
	policy.OnRetry = func(attempt int, err error, wait time.Duration) {
		log.Info("Retrying request",
			logger.Int("attempt", attempt),
			logger.Duration("backoff", wait),
			logger.Error(err),
		)
	}

	var doc *goquery.Document
	err := retry.Do(ctx, policy, func(int) error {
		attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()

		d, err := s.fetcher.Fetch(attemptCtx, req.URL())
		if err != nil {
			return asFetchError(req.URL(), attemptCtx, ctx, err)
		}
		doc = d
		return nil
	})
	return doc, err
}

// asFetchError makes every fetch failure a *FetchError and marks per-attempt
// deadline expiry as a timeout.
func asFetchError(url string, attemptCtx, runCtx context.Context, err error) error {
	timedOut := errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && runCtx.Err() == nil

	var fe *fetcher.FetchError
	if errors.As(err, &fe) {
		if timedOut && !fe.Timeout {
			copied := *fe
			copied.Timeout = true
			return &copied
		}
		return err
	}
	return &fetcher.FetchError{URL: url, Timeout: timedOut, Err: err}
}
