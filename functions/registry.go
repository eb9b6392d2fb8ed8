// Package functions implements FlowQuery's process-wide function registry:
// scalar, aggregate, predicate-comprehension, and async-provider functions,
// each registered with metadata exposed through functions()/schema().
package functions

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/flowquery/flowquery/value"
)

// Kind distinguishes the four function variants spec.md §4.4 describes.
type Kind int

const (
	KindScalar Kind = iota
	KindAggregate
	KindPredicate
	KindProvider
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindAggregate:
		return "aggregate"
	case KindPredicate:
		return "predicate"
	case KindProvider:
		return "provider"
	default:
		return "unknown"
	}
}

// ScalarFunc computes a value from already-evaluated arguments.
type ScalarFunc func(args []value.Value) (value.Value, error)

// NewAggregateFunc returns a fresh, per-group reducer instance.
type NewAggregateFunc func() Aggregate

// Entry is one registered function plus the metadata spec.md §4.4 requires
// to be exposed via functions()/schema().
type Entry struct {
	Name        string
	Kind        Kind
	Description string
	Category    string
	Params      []string
	Returns     string
	Examples    []string

	Scalar       ScalarFunc
	NewAggregate NewAggregateFunc
	Provider     Provider
}

// Registry is a lowercase-keyed, mutex-guarded function table. One Registry
// is process-wide (see Global); plugin Register calls override built-ins of
// the same name, per spec.md §4.4's name-resolution rule.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Register adds or overrides the entry under its lowercased name.
func (r *Registry) Register(e *Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[lower(e.Name)] = e
}

// Lookup returns the entry registered under name, case-insensitively.
func (r *Registry) Lookup(name string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[lower(name)]
	return e, ok
}

// List returns every registered entry, optionally filtered to one category,
// backing the functions([category]) introspection call.
func (r *Registry) List(category string) []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		if category == "" || lower(e.Category) == lower(category) {
			out = append(out, e)
		}
	}
	return out
}

// CallScalar implements eval.ScalarCaller: it looks up name and invokes its
// scalar implementation. Calling a non-scalar function this way is a
// semantic error (aggregates and providers are intercepted earlier in the
// pipeline/evaluator).
func (r *Registry) CallScalar(name string, args []value.Value) (value.Value, error) {
	e, ok := r.Lookup(name)
	if !ok {
		return value.Null(), errors.Errorf("unknown function %s()", name)
	}
	if e.Kind != KindScalar {
		return value.Null(), errors.Errorf("%s() is a %s function and cannot be called as a scalar", name, e.Kind)
	}
	return e.Scalar(args)
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Global is the process-wide registry every Runner shares by default,
// matching spec.md §6's "process-wide state" rule for the function
// registry. Register built-ins into it during package init.
var Global = NewRegistry()

func init() {
	registerScalars(Global)
	registerAggregates(Global)
	registerPredicates(Global)
	registerProviders(Global)
}
