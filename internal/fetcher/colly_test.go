package fetcher_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/statcrawl/internal/fetcher"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/logger"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "User-agent: *\nDisallow: /private\n")
	})
	mux.HandleFunc("/players/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body><img class="player" title="Kylian Mbappé"></body></html>`)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	})
	mux.HandleFunc("/busy", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		fmt.Fprint(w, "<html></html>")
	})
	mux.HandleFunc("/private", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "<html>secret</html>")
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newFetcher(t *testing.T, respectRobots bool) *fetcher.Colly {
	t.Helper()

	cfg := fetcher.DefaultConfig()
	cfg.Delay = 0
	cfg.RandomDelay = 0
	cfg.RespectRobotsTxt = respectRobots
	f, err := fetcher.NewColly(cfg, logger.NewNop())
	require.NoError(t, err)
	return f
}

func TestCollyFetchParsesDocument(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	doc, err := newFetcher(t, true).Fetch(context.Background(), srv.URL+"/players/")
	require.NoError(t, err)

	title, ok := doc.Find("img.player").Attr("title")
	require.True(t, ok)
	assert.Equal(t, "Kylian Mbappé", title)
	require.NotNil(t, doc.Url)
	assert.Equal(t, srv.URL+"/players/", doc.Url.String())
}

func TestCollyFetchRevisitsSameURL(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	f := newFetcher(t, false)

	for range 2 {
		_, err := f.Fetch(context.Background(), srv.URL+"/players/")
		require.NoError(t, err)
	}
}

func TestCollyFetchErrors(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	tests := []struct {
		name          string
		path          string
		robots        bool
		wantStatus    int
		wantRetryable bool
		wantBlocked   bool
	}{
		{name: "not found", path: "/missing", wantStatus: http.StatusNotFound},
		{name: "unavailable", path: "/busy", wantStatus: http.StatusServiceUnavailable, wantRetryable: true},
		{name: "robots blocked", path: "/private", robots: true, wantBlocked: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc, err := newFetcher(t, tt.robots).Fetch(context.Background(), srv.URL+tt.path)
			require.Error(t, err)
			assert.Nil(t, doc)
			assert.True(t, errors.Is(err, fetcher.ErrFetch))

			var fe *fetcher.FetchError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.wantStatus, fe.StatusCode)
			assert.Equal(t, tt.wantRetryable, fe.Retryable())
			assert.Equal(t, tt.wantBlocked, errors.Is(err, fetcher.ErrBlocked))
		})
	}
}

func TestCollyRobotsTxtToggle(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	doc, err := newFetcher(t, false).Fetch(context.Background(), srv.URL+"/private")
	require.NoError(t, err)
	assert.Contains(t, doc.Text(), "secret")

	cfg := fetcher.DefaultConfig()
	cfg.Delay = 0
	cfg.RandomDelay = 0
	f, err := fetcher.NewColly(cfg, logger.NewNop())
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), srv.URL+"/private")
	require.Error(t, err)
	assert.ErrorIs(t, err, fetcher.ErrBlocked)

	_, err = f.Fetch(context.Background(), srv.URL+"/players/")
	assert.NoError(t, err)
}

func TestCollyFetchTimeout(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newFetcher(t, false).Fetch(ctx, srv.URL+"/slow")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fetcher.ErrTimeout))
	assert.True(t, fetcher.IsRetryable(err))
}

func TestFetchErrorRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *fetcher.FetchError
		want bool
	}{
		{"transport", &fetcher.FetchError{Err: errors.New("connection reset")}, true},
		{"timeout", &fetcher.FetchError{Timeout: true, Err: context.DeadlineExceeded}, true},
		{"cancelled", &fetcher.FetchError{Err: context.Canceled}, false},
		{"too many requests", &fetcher.FetchError{StatusCode: 429, Err: errors.New("x")}, true},
		{"server error", &fetcher.FetchError{StatusCode: 502, Err: errors.New("x")}, true},
		{"forbidden", &fetcher.FetchError{StatusCode: 403, Err: errors.New("x")}, false},
		{"robots", &fetcher.FetchError{Err: fetcher.ErrBlocked}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.err.Retryable())
			assert.Equal(t, tt.want, fetcher.IsRetryable(fmt.Errorf("wrapped: %w", tt.err)))
		})
	}

	assert.False(t, fetcher.IsRetryable(errors.New("plain")))
}
