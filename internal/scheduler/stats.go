package scheduler

import (
	"maps"
	"sync"
	"sync/atomic"

	"github.com/jonesrussell/north-cloud/statcrawl/internal/domain"
)

// Stats counts what happened to requests and records during a run.
type Stats struct {
	Enqueued         int64
	Dispatched       int64
	Succeeded        int64
	Failed           int64
	Abandoned        int64
	Duplicates       int64
	BeyondPageLimit  int64
	OverBudget       int64
	InvalidRequests  int64
	RowErrors        int64
	ExtractionErrors int64
	SinkErrors       int64
	Records          map[domain.RecordKind]int64
}

// TotalRecords sums Records across kinds.
func (s Stats) TotalRecords() int64 {
	var n int64
	for _, v := range s.Records {
		n += v
	}
	return n
}

type counters struct {
	enqueued         atomic.Int64
	dispatched       atomic.Int64
	succeeded        atomic.Int64
	failed           atomic.Int64
	abandoned        atomic.Int64
	duplicates       atomic.Int64
	beyondPageLimit  atomic.Int64
	overBudget       atomic.Int64
	invalidRequests  atomic.Int64
	rowErrors        atomic.Int64
	extractionErrors atomic.Int64
	sinkErrors       atomic.Int64

	mu      sync.Mutex
	records map[domain.RecordKind]int64
}

func newCounters() *counters {
	return &counters{records: make(map[domain.RecordKind]int64)}
}

func (c *counters) addRecord(kind domain.RecordKind) {
	c.mu.Lock()
	c.records[kind]++
	c.mu.Unlock()
}

func (c *counters) snapshot() Stats {
	c.mu.Lock()
	records := maps.Clone(c.records)
	c.mu.Unlock()

	return Stats{
		Enqueued:         c.enqueued.Load(),
		Dispatched:       c.dispatched.Load(),
		Succeeded:        c.succeeded.Load(),
		Failed:           c.failed.Load(),
		Abandoned:        c.abandoned.Load(),
		Duplicates:       c.duplicates.Load(),
		BeyondPageLimit:  c.beyondPageLimit.Load(),
		OverBudget:       c.overBudget.Load(),
		InvalidRequests:  c.invalidRequests.Load(),
		RowErrors:        c.rowErrors.Load(),
		ExtractionErrors: c.extractionErrors.Load(),
		SinkErrors:       c.sinkErrors.Load(),
		Records:          records,
	}
}
