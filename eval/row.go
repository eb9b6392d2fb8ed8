// Package eval walks an expression tree produced by the parser's
// Shunting-Yard pass and produces a value.Value, dispatching arithmetic and
// comparison on the (Kind, Kind) pair of its operands per spec.md §4.3.
package eval

import (
	"github.com/flowquery/flowquery/ast"
	"github.com/flowquery/flowquery/value"
)

// Row is one record flowing through the pipeline: a map from the Binding
// that introduced a name to its current value. Bindings are pointer-keyed
// rather than name-keyed so a later WITH that reuses a name never
// clobbers an alias still held by a Reference elsewhere in the tree (the
// indirected-handle design spec.md §9 calls for).
type Row map[*ast.Binding]value.Value

// Get returns the bound value for b, or null if b has never been set in
// this row (an OPTIONAL MATCH padding, most commonly).
func (r Row) Get(b *ast.Binding) value.Value {
	if v, ok := r[b]; ok {
		return v
	}
	return value.Null()
}

// Set binds v to b in this row.
func (r Row) Set(b *ast.Binding, v value.Value) { r[b] = v }

// Clone returns a shallow copy of r, used whenever an operation needs to
// branch one incoming row into several outgoing ones (UNWIND, variable
// length MATCH, cross-joins between patterns).
func (r Row) Clone() Row {
	out := make(Row, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	return out
}
