// Package normalize turns scraped display text into canonical identifiers and numbers.
package normalize

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gosimple/unidecode"
	"golang.org/x/text/unicode/norm"
)

// ErrParse is matched by every *ParseError.
var ErrParse = errors.New("parse error")

// ParseError reports text that could not be converted to the expected type.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("parse %q: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("parse %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrParse) match without wrapping the sentinel.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// Slug returns the canonical identifier for text: letters are transliterated
// to ASCII, letters and digits are lowercased, and every other run of
// characters becomes a single "-". Slug(Slug(s)) == Slug(s) for every s.
func Slug(text string) string {
	folded := unidecode.Unidecode(norm.NFKC.String(text))

	var b strings.Builder
	b.Grow(len(folded))
	pendingDash := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case r >= 'A' && r <= 'Z':
			r += 'a' - 'A'
		default:
			pendingDash = b.Len() > 0
			continue
		}
		if pendingDash {
			b.WriteByte('-')
			pendingDash = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ToInt parses base-10 integer text, ignoring surrounding whitespace.
func ToInt(text string) (int, error) {
	return ToIntField("", text)
}

// ToIntField is ToInt with the name of the field carried in the error.
func ToIntField(field, text string) (int, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, &ParseError{Field: field, Value: text, Err: errors.New("empty value")}
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			err = numErr.Err
		}
		return 0, &ParseError{Field: field, Value: text, Err: err}
	}
	return n, nil
}

// Text collapses internal whitespace runs and trims the ends.
func Text(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
