package functions

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/flowquery/flowquery/value"
)

// Aggregate is a reducer-element: spec.md §4.4's "mutable accumulator"
// returned by an aggregate function's element() and driven one row at a
// time by reduce(element). The group-by engine owns one Aggregate instance
// per trie leaf per aggregate in the projection. Reduce returns an error
// when a value doesn't belong to the accumulator's type class (e.g. a
// string reduced into a numeric sum), aborting the statement rather than
// silently dropping data.
type Aggregate interface {
	Reduce(v value.Value) error
	Result() value.Value
}

// Distinct wraps an Aggregate so repeated values (compared via
// value.RowKey's JSON-serialized key, per spec.md §4.6) are only reduced
// once, implementing the DISTINCT modifier on aggregate calls.
type Distinct struct {
	inner Aggregate
	seen  map[string]bool
}

// NewDistinct wraps inner so Reduce ignores values already seen.
func NewDistinct(inner Aggregate) *Distinct {
	return &Distinct{inner: inner, seen: map[string]bool{}}
}

func (d *Distinct) Reduce(v value.Value) error {
	k := value.RowKey(v)
	if d.seen[k] {
		return nil
	}
	d.seen[k] = true
	return d.inner.Reduce(v)
}

func (d *Distinct) Result() value.Value { return d.inner.Result() }

// sumAgg implements sum(): numeric values accumulate as a number
// (promoting to float once any reduced value is a float), string values
// concatenate, per spec.md §4.3. A value outside the class established by
// the first non-null reduction is a type mismatch.
type sumAgg struct {
	total    float64
	str      strings.Builder
	class    value.Kind // KindNull until the first non-null value is seen
	anyFloat bool
}

func (a *sumAgg) Reduce(v value.Value) error {
	if v.IsNull() {
		return nil
	}
	if a.class == value.KindNull {
		if v.IsNumber() {
			a.class = value.KindInt
		} else if v.Kind == value.KindString {
			a.class = value.KindString
		} else {
			return errors.Errorf("sum() requires numbers or strings, got %s", v.TypeName())
		}
	}
	switch a.class {
	case value.KindString:
		if v.Kind != value.KindString {
			return errors.Errorf("sum() over strings requires a string, got %s", v.TypeName())
		}
		a.str.WriteString(v.Str)
	default:
		if !v.IsNumber() {
			return errors.Errorf("sum() over numbers requires a number, got %s", v.TypeName())
		}
		if v.Kind == value.KindFloat {
			a.anyFloat = true
		}
		a.total += v.Float64()
	}
	return nil
}

func (a *sumAgg) Result() value.Value {
	if a.class == value.KindString {
		return value.String(a.str.String())
	}
	if a.anyFloat {
		return value.Float(a.total)
	}
	return value.Int(int64(a.total))
}

type avgAgg struct {
	total float64
	count int64
}

func (a *avgAgg) Reduce(v value.Value) error {
	if v.IsNull() {
		return nil
	}
	if !v.IsNumber() {
		return errors.Errorf("avg() requires numbers, got %s", v.TypeName())
	}
	a.total += v.Float64()
	a.count++
	return nil
}

func (a *avgAgg) Result() value.Value {
	if a.count == 0 {
		return value.Null()
	}
	return value.Float(a.total / float64(a.count))
}

type countAgg struct {
	n int64
	// countStar, when set, counts every reduced row including nulls
	// (bare count(*)/count() with no per-value filtering); otherwise a
	// null value is not counted, matching count(expr)'s skip-null rule.
	countStar bool
}

func (a *countAgg) Reduce(v value.Value) error {
	if a.countStar || !v.IsNull() {
		a.n++
	}
	return nil
}

func (a *countAgg) Result() value.Value { return value.Int(a.n) }

// NewCountStar returns a counting Aggregate that counts every reduced row,
// including nulls, for the zero-argument count() / count(*) form.
func NewCountStar() Aggregate { return &countAgg{countStar: true} }

type minAgg struct {
	cur value.Value
	any bool
}

func (a *minAgg) Reduce(v value.Value) error {
	if v.IsNull() {
		return nil
	}
	if !a.any || lessThan(v, a.cur) {
		a.cur, a.any = v, true
	}
	return nil
}

func (a *minAgg) Result() value.Value {
	if !a.any {
		return value.Null()
	}
	return a.cur
}

type maxAgg struct {
	cur value.Value
	any bool
}

func (a *maxAgg) Reduce(v value.Value) error {
	if v.IsNull() {
		return nil
	}
	if !a.any || lessThan(a.cur, v) {
		a.cur, a.any = v, true
	}
	return nil
}

func (a *maxAgg) Result() value.Value {
	if !a.any {
		return value.Null()
	}
	return a.cur
}

func lessThan(a, b value.Value) bool {
	if a.IsNumber() && b.IsNumber() {
		return a.Float64() < b.Float64()
	}
	if a.Kind == value.KindString && b.Kind == value.KindString {
		return a.Str < b.Str
	}
	return false
}

type collectAgg struct {
	items []value.Value
}

func (a *collectAgg) Reduce(v value.Value) error {
	if v.IsNull() {
		return nil
	}
	a.items = append(a.items, v)
	return nil
}

func (a *collectAgg) Result() value.Value { return value.Array(a.items) }

func registerAggregates(r *Registry) {
	r.Register(&Entry{
		Name: "sum", Kind: KindAggregate, Category: "aggregate",
		Description:  "sums numeric values, skipping nulls",
		NewAggregate: func() Aggregate { return &sumAgg{} },
	})
	r.Register(&Entry{
		Name: "avg", Kind: KindAggregate, Category: "aggregate",
		Description:  "averages numeric values, skipping nulls",
		NewAggregate: func() Aggregate { return &avgAgg{} },
	})
	r.Register(&Entry{
		Name: "count", Kind: KindAggregate, Category: "aggregate",
		Description:  "counts non-null reduced values",
		NewAggregate: func() Aggregate { return &countAgg{} },
	})
	r.Register(&Entry{
		Name: "min", Kind: KindAggregate, Category: "aggregate",
		Description:  "smallest reduced value",
		NewAggregate: func() Aggregate { return &minAgg{} },
	})
	r.Register(&Entry{
		Name: "max", Kind: KindAggregate, Category: "aggregate",
		Description:  "largest reduced value",
		NewAggregate: func() Aggregate { return &maxAgg{} },
	})
	r.Register(&Entry{
		Name: "collect", Kind: KindAggregate, Category: "aggregate",
		Description:  "gathers reduced values into an array, skipping nulls",
		NewAggregate: func() Aggregate { return &collectAgg{} },
	})
}
