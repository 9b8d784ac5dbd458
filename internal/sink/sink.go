// Package sink delivers extracted records to their destination.
package sink

import (
	"context"
	"errors"

	"github.com/jonesrussell/north-cloud/statcrawl/internal/domain"
)

//go:generate mockgen -destination=../mocks/sink_mock.go -package=mocks . Sink

// Sink accepts records. Emit may be called from several goroutines.
type Sink interface {
	Emit(ctx context.Context, rec domain.Record) error
	Close() error
}

// Sink type names used in configuration.
const (
	TypeStdout        = "stdout"
	TypeFile          = "file"
	TypePostgres      = "postgres"
	TypeElasticsearch = "elasticsearch"
)

// ErrClosed is returned by Emit after Close.
var ErrClosed = errors.New("sink closed")

// Multi fans every record out to all of its sinks.
type Multi []Sink

// Emit delivers rec to each sink and joins their errors.
func (m Multi) Emit(ctx context.Context, rec domain.Record) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes each sink and joins their errors.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
