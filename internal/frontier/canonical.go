// Package frontier holds the crawl frontier: URL canonicalization, the
// seen-set used for deduplication and the per-kind FIFO queues.
package frontier

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/jonesrussell/north-cloud/statcrawl/internal/domain"
)

// trackingParams lists query parameters that never change page content.
var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"fbclid":       {},
	"gclid":        {},
}

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

var (
	// ErrInvalidURL is returned for URLs that cannot be fetched.
	ErrInvalidURL = errors.New("invalid url")

	errEmptyInput          = fmt.Errorf("%w: empty input", ErrInvalidURL)
	errMissingSchemeOrHost = fmt.Errorf("%w: missing scheme or host", ErrInvalidURL)
	errUnsupportedScheme   = fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
)

// Canonicalize rewrites rawURL so that equivalent addresses compare equal:
// scheme and host are lowercased, default ports, fragments and tracking
// parameters are dropped, the query is sorted and the path is cleaned with
// its trailing slash removed. The scheme itself is preserved because some
// sites only answer on http.
func Canonicalize(rawURL string) (string, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "", errEmptyInput
	}

	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", errMissingSchemeOrHost
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	if _, ok := defaultPorts[parsed.Scheme]; !ok {
		return "", errUnsupportedScheme
	}
	parsed.Host = canonicalHost(parsed)
	parsed.Fragment = ""
	parsed.RawFragment = ""
	parsed.RawQuery = cleanQuery(parsed.Query())
	parsed.Path = cleanPath(parsed.Path)
	parsed.RawPath = ""

	return parsed.String(), nil
}

// Key is the deduplication key of a request: its page kind plus the hash of
// its canonical URL. The same URL under two kinds gives two keys.
func Key(kind domain.PageKind, rawURL string) (string, error) {
	canonical, err := Canonicalize(rawURL)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(canonical))
	return kind.String() + ":" + hex.EncodeToString(sum[:]), nil
}

func canonicalHost(u *url.URL) string {
	hostname := strings.ToLower(u.Hostname())
	port := u.Port()
	if port == "" || port == defaultPorts[u.Scheme] {
		return hostname
	}
	return hostname + ":" + port
}

func cleanQuery(values url.Values) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		if _, tracking := trackingParams[strings.ToLower(key)]; !tracking {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		for _, val := range values[key] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(key))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(val))
		}
	}
	return b.String()
}

func cleanPath(p string) string {
	if p == "" || p == "/" {
		return "/"
	}
	return strings.TrimRight(path.Clean(p), "/")
}
