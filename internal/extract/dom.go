package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/statcrawl/internal/normalize"
)

// Text returns the collapsed text of the first match of selector within s.
func Text(s *goquery.Selection, selector string) string {
	return normalize.Text(s.Find(selector).First().Text())
}

// Attr returns the trimmed attribute of the first match of selector within s.
// ok is false when nothing matches, the attribute is missing, or it is blank.
func Attr(s *goquery.Selection, selector, name string) (string, bool) {
	v, exists := s.Find(selector).First().Attr(name)
	v = normalize.Text(v)
	return v, exists && v != ""
}

// Resolve makes href absolute against the page URL.
func Resolve(pageURL, href string) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse page url: %w", err)
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("parse href %q: %w", href, err)
	}
	return base.ResolveReference(ref).String(), nil
}
