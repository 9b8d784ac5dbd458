// Package fetcher retrieves pages and parses them into queryable documents.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/PuerkitoBio/goquery"
)

//go:generate mockgen -destination=../mocks/fetcher_mock.go -package=mocks . Fetcher

// Fetcher turns a URL into a parsed document. Implementations must honour
// ctx cancellation and report failures as *FetchError.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

var (
	// ErrFetch is matched by every *FetchError.
	ErrFetch = errors.New("fetch failed")
	// ErrTimeout is matched by a *FetchError caused by a deadline.
	ErrTimeout = errors.New("fetch timed out")
)

// FetchError reports a page that could not be retrieved.
type FetchError struct {
	URL        string
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("fetch %s: timed out: %v", e.URL, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool {
	return target == ErrFetch || (target == ErrTimeout && e.Timeout)
}

// Retryable reports whether another attempt may succeed: timeouts, transport
// failures, 429 and 5xx responses.
func (e *FetchError) Retryable() bool {
	if e.Timeout {
		return true
	}
	if errors.Is(e.Err, context.Canceled) {
		return false
	}
	switch {
	case e.StatusCode == 0:
		return !errors.Is(e.Err, ErrBlocked) && !errors.Is(e.Err, ErrNotHTML)
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= http.StatusInternalServerError:
		return true
	default:
		return false
	}
}

// IsRetryable reports whether err is a retryable *FetchError.
func IsRetryable(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Retryable()
}

// ErrBlocked is the cause of a FetchError for pages disallowed by robots.txt.
var ErrBlocked = errors.New("blocked by robots.txt")

// ErrNotHTML is the cause of a FetchError for bodies goquery cannot parse.
var ErrNotHTML = errors.New("response is not parseable html")
