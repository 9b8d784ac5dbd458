package sink

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/jonesrussell/north-cloud/statcrawl/internal/domain"
)

// JSONLines writes one record envelope per line.
type JSONLines struct {
	mu     sync.Mutex
	w      *bufio.Writer
	closer io.Closer
	closed bool
}

// NewJSONLines writes to w. Close flushes but does not close w.
func NewJSONLines(w io.Writer) *JSONLines {
	return &JSONLines{w: bufio.NewWriter(w)}
}

// NewJSONLinesFile appends to the file at path, creating it if needed.
func NewJSONLinesFile(path string) (*JSONLines, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open sink file: %w", err)
	}
	return &JSONLines{w: bufio.NewWriter(f), closer: f}, nil
}

// Emit implements Sink. Lines are flushed immediately so a cancelled crawl
// keeps everything emitted before it stopped.
func (s *JSONLines) Emit(_ context.Context, rec domain.Record) error {
	line, err := domain.MarshalRecord(rec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if _, err := s.w.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return s.w.Flush()
}

// Close implements Sink.
func (s *JSONLines) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("flush records: %w", err)
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
