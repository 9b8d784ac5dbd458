// Package extract defines extraction rules: pure functions from a fetched
// document and its request to records and follow-up requests.
package extract

import (
	"errors"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/statcrawl/internal/domain"
)

// DefaultMaxPages bounds listing pagination when a job does not set it.
const DefaultMaxPages = 10

// Result is the output of one rule invocation.
type Result struct {
	// Records are emitted in document order.
	Records []domain.Record
	// Requests are handed back to the scheduler for dedup and dispatch.
	Requests []domain.Request
	// RowErrors are rows dropped because a field failed to parse.
	RowErrors []error
}

// Rule extracts one page kind for one site. Implementations must not keep
// state between calls: the same document and request give the same Result.
type Rule interface {
	Apply(doc *goquery.Document, req domain.Request) (Result, error)
}

// RuleFunc adapts a function to the Rule interface.
type RuleFunc func(doc *goquery.Document, req domain.Request) (Result, error)

// Apply calls f.
func (f RuleFunc) Apply(doc *goquery.Document, req domain.Request) (Result, error) {
	return f(doc, req)
}

// Options configures the rules of a site.
type Options struct {
	// MaxPages is the highest page index a listing follows. Zero means DefaultMaxPages.
	MaxPages int
}

// PageLimit returns the effective pagination bound.
func (o Options) PageLimit() int {
	if o.MaxPages <= 0 {
		return DefaultMaxPages
	}
	return o.MaxPages
}

// FollowNext reports whether a listing on req's page may request another page.
func (o Options) FollowNext(req domain.Request) bool {
	return req.Page() < o.PageLimit()
}

var (
	// ErrExtraction is matched by every *ExtractionError.
	ErrExtraction = errors.New("extraction failed")
	// ErrDuplicateRule is returned when a page kind is registered twice.
	ErrDuplicateRule = errors.New("rule already registered")
	// ErrNoRule is returned when no rule handles a page kind.
	ErrNoRule = errors.New("no rule for page kind")
)

// ExtractionError reports a page whose required structure was missing.
// The page produces no records.
type ExtractionError struct {
	URL    string
	Kind   domain.PageKind
	Reason string
	Err    error
}

// Failf builds an ExtractionError for req.
func Failf(req domain.Request, format string, args ...any) *ExtractionError {
	return &ExtractionError{URL: req.URL(), Kind: req.Kind(), Reason: fmt.Sprintf(format, args...)}
}

// Wrap builds an ExtractionError for req caused by err.
func Wrap(req domain.Request, reason string, err error) *ExtractionError {
	return &ExtractionError{URL: req.URL(), Kind: req.Kind(), Reason: reason, Err: err}
}

func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("extract %s %s: %s", e.Kind, e.URL, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func (e *ExtractionError) Is(target error) bool { return target == ErrExtraction }

// RowError reports a dropped row of a repeated structure.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }

func (e *RowError) Unwrap() error { return e.Err }
