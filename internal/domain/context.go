package domain

import (
	"maps"
	"slices"
	"strconv"
)

// Context is an immutable string-to-scalar mapping carried from a page to
// the requests it derives. Derivation always copies; a parent is never changed.
type Context struct {
	values map[string]any
}

// EmptyContext returns the context seeds start with.
func EmptyContext() Context {
	return Context{}
}

// NewContext builds a context from string values.
func NewContext(values map[string]string) Context {
	c := Context{values: make(map[string]any, len(values))}
	for k, v := range values {
		c.values[k] = v
	}
	return c
}

// With returns a copy of c with key set to a string value.
func (c Context) With(key, value string) Context {
	return c.derive(map[string]any{key: value})
}

// WithInt returns a copy of c with key set to an integer value.
func (c Context) WithInt(key string, value int) Context {
	return c.derive(map[string]any{key: value})
}

// Merge returns parent plus overrides, overrides winning.
func (c Context) Merge(overrides map[string]string) Context {
	o := make(map[string]any, len(overrides))
	for k, v := range overrides {
		o[k] = v
	}
	return c.derive(o)
}

func (c Context) derive(overrides map[string]any) Context {
	next := make(map[string]any, len(c.values)+len(overrides))
	maps.Copy(next, c.values)
	maps.Copy(next, overrides)
	return Context{values: next}
}

// String returns the value for key as text. ok is false when the key is absent.
func (c Context) String(key string) (string, bool) {
	v, ok := c.values[key]
	if !ok {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case int:
		return strconv.Itoa(t), true
	default:
		return "", false
	}
}

// Int returns the value for key as an integer. ok is false when the key is
// absent or holds non-numeric text.
func (c Context) Int(key string) (int, bool) {
	switch t := c.values[key].(type) {
	case int:
		return t, true
	case string:
		n, err := strconv.Atoi(t)
		return n, err == nil
	default:
		return 0, false
	}
}

// Has reports whether key is present.
func (c Context) Has(key string) bool {
	_, ok := c.values[key]
	return ok
}

// Keys returns the keys in sorted order.
func (c Context) Keys() []string {
	return slices.Sorted(maps.Keys(c.values))
}

// Len returns the number of entries.
func (c Context) Len() int { return len(c.values) }
