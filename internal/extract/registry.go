package extract

import (
	"fmt"
	"slices"

	"github.com/jonesrussell/north-cloud/statcrawl/internal/domain"
)

// Registry dispatches page kinds to rules.
type Registry struct {
	rules map[domain.PageKind]Rule
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[domain.PageKind]Rule)}
}

// Register binds rule to kind. A kind can be bound once.
func (r *Registry) Register(kind domain.PageKind, rule Rule) error {
	if _, exists := r.rules[kind]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRule, kind)
	}
	r.rules[kind] = rule
	return nil
}

// MustRegister is Register for static tables; it panics on duplicates.
func (r *Registry) MustRegister(kind domain.PageKind, rule Rule) *Registry {
	if err := r.Register(kind, rule); err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the rule for kind.
func (r *Registry) Lookup(kind domain.PageKind) (Rule, error) {
	rule, ok := r.rules[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoRule, kind)
	}
	return rule, nil
}

// Kinds returns the registered kinds in a stable order.
func (r *Registry) Kinds() []domain.PageKind {
	kinds := make([]domain.PageKind, 0, len(r.rules))
	for k := range r.rules {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}
