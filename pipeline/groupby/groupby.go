// Package groupby implements FlowQuery's aggregation engine: rows are
// folded into groups keyed by their GROUP BY key tuple, each group driving
// one mutable Aggregate accumulator per requested aggregate function,
// surfaced in first-seen order (spec.md §4.6).
package groupby

import (
	"strings"

	"github.com/flowquery/flowquery/functions"
	"github.com/flowquery/flowquery/value"
)

// AggSpec describes one aggregate projection: how to construct a fresh
// accumulator, and whether repeated values should be folded once (DISTINCT).
type AggSpec struct {
	New      functions.NewAggregateFunc
	Distinct bool
}

type groupEntry struct {
	key  []value.Value
	aggs []functions.Aggregate
}

// Engine accumulates rows into groups. Group keys are compared by
// value.RowKey's deterministic serialization rather than a literal trie
// structure; a map plus an append-ordered key list gives the same
// first-seen iteration order a trie walked depth-first would, without the
// extra node bookkeeping.
type Engine struct {
	specs  []AggSpec
	order  []string
	groups map[string]*groupEntry
}

// New returns an Engine driving one accumulator per spec for every group.
func New(specs []AggSpec) *Engine {
	return &Engine{specs: specs, groups: map[string]*groupEntry{}}
}

// Add folds one row into its group (creating the group on first sight) and
// reduces values[i] into aggregate i's accumulator. It returns the first
// error an accumulator's Reduce reports, e.g. a value outside sum()'s
// established numeric-or-string type class.
func (e *Engine) Add(key []value.Value, values []value.Value) error {
	k := keyOf(key)
	g, ok := e.groups[k]
	if !ok {
		g = &groupEntry{key: key, aggs: make([]functions.Aggregate, len(e.specs))}
		for i, s := range e.specs {
			agg := s.New()
			if s.Distinct {
				agg = functions.NewDistinct(agg)
			}
			g.aggs[i] = agg
		}
		e.groups[k] = g
		e.order = append(e.order, k)
	}
	for i, v := range values {
		if err := g.aggs[i].Reduce(v); err != nil {
			return err
		}
	}
	return nil
}

// Results returns one row per group, first-seen order, each row being the
// group's key values followed by its aggregates' results in spec order.
func (e *Engine) Results() [][]value.Value {
	out := make([][]value.Value, 0, len(e.order))
	for _, k := range e.order {
		g := e.groups[k]
		row := make([]value.Value, 0, len(g.key)+len(g.aggs))
		row = append(row, g.key...)
		for _, agg := range g.aggs {
			row = append(row, agg.Result())
		}
		out = append(out, row)
	}
	return out
}

func keyOf(key []value.Value) string {
	parts := make([]string, len(key))
	for i, v := range key {
		parts[i] = value.RowKey(v)
	}
	return strings.Join(parts, "\x1f")
}
