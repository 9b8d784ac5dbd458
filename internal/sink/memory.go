package sink

import (
	"context"
	"slices"
	"sync"

	"github.com/jonesrussell/north-cloud/statcrawl/internal/domain"
)

// Memory keeps records in process. It backs dry runs and tests.
type Memory struct {
	mu      sync.Mutex
	records []domain.Record
}

// NewMemory creates an empty Memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

// Emit implements Sink.
func (m *Memory) Emit(_ context.Context, rec domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// Close implements Sink.
func (m *Memory) Close() error { return nil }

// Records returns a copy of everything emitted so far.
func (m *Memory) Records() []domain.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.records)
}

// Count returns how many records of kind were emitted.
func (m *Memory) Count(kind domain.RecordKind) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, r := range m.records {
		if r.RecordKind() == kind {
			n++
		}
	}
	return n
}
