package eval

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/flowquery/flowquery/ast"
	"github.com/flowquery/flowquery/token"
	"github.com/flowquery/flowquery/value"
)

// ScalarCaller invokes a registered scalar function by name. Aggregate
// functions never reach here; the pipeline's group-by engine intercepts
// AggregatedReturn items before the evaluator sees them.
type ScalarCaller interface {
	CallScalar(name string, args []value.Value) (value.Value, error)
}

// PatternMatcher reports whether at least one match exists for a pattern
// expression, used to evaluate pattern-existence predicates in WHERE
// clauses without pulling the full graph package into eval's import path.
type PatternMatcher interface {
	Exists(pattern *ast.Pattern, row Row) (bool, error)
}

// predicateFuncs is the set of predicate-comprehension function names that
// need access to the Evaluator itself to evaluate an inline per-element
// expression, and so are special-cased here rather than dispatched through
// ScalarCaller's flat (name, args) signature. They are still registered in
// the functions package for discovery via functions()/schema().
var predicateFuncs = map[string]bool{
	"all": true, "any": true, "none": true, "single": true,
	"filter": true, "extract": true,
}

// Evaluator walks expression trees against a Row.
type Evaluator struct {
	Funcs   ScalarCaller
	Matcher PatternMatcher
	// Params holds the query's bound parameters ($name / :name). A name
	// absent from Params evaluates to null rather than erroring, matching
	// spec.md §6's named-parameter contract.
	Params map[string]value.Value
}

// New returns an Evaluator backed by the given function registry and
// pattern matcher.
func New(funcs ScalarCaller, matcher PatternMatcher) *Evaluator {
	return &Evaluator{Funcs: funcs, Matcher: matcher}
}

// Eval evaluates expr against row.
func (e *Evaluator) Eval(expr ast.Expr, row Row) (value.Value, error) {
	switch n := expr.(type) {
	case *ast.NullLit:
		return value.Null(), nil
	case *ast.BoolLit:
		return value.Bool(n.Value), nil
	case *ast.IntLit:
		return value.Int(n.Value), nil
	case *ast.FloatLit:
		return value.Float(n.Value), nil
	case *ast.StringLit:
		return value.String(n.Value), nil
	case *ast.Param:
		if v, ok := e.Params[n.Name]; ok {
			return v, nil
		}
		return value.Null(), nil
	case *ast.Reference:
		if n.Decl == nil {
			return value.Null(), errors.Errorf("unresolved reference %q", n.Name)
		}
		return row.Get(n.Decl), nil
	case *ast.FStringLit:
		return e.evalFString(n, row)
	case *ast.ArrayLit:
		return e.evalArray(n, row)
	case *ast.MapLit:
		return e.evalMap(n, row)
	case *ast.PropertyLookup:
		return e.evalPropertyLookup(n, row)
	case *ast.IndexExpr:
		return e.evalIndex(n, row)
	case *ast.SliceExpr:
		return e.evalSlice(n, row)
	case *ast.UnaryExpr:
		return e.evalUnary(n, row)
	case *ast.BinaryExpr:
		return e.evalBinary(n, row)
	case *ast.CaseExpr:
		return e.evalCase(n, row)
	case *ast.FuncCall:
		return e.evalFuncCall(n, row)
	case *ast.PatternExpr:
		ok, err := e.Matcher.Exists(n.Pattern, row)
		if err != nil {
			return value.Null(), err
		}
		return value.AsInt01(ok), nil
	default:
		return value.Null(), errors.Errorf("eval: unsupported expression type %T", expr)
	}
}

func (e *Evaluator) evalFString(n *ast.FStringLit, row Row) (value.Value, error) {
	var out string
	for _, seg := range n.Segments {
		if seg.Expr == nil {
			out += seg.Literal
			continue
		}
		v, err := e.Eval(seg.Expr, row)
		if err != nil {
			return value.Null(), err
		}
		out += v.String()
	}
	return value.String(out), nil
}

func (e *Evaluator) evalArray(n *ast.ArrayLit, row Row) (value.Value, error) {
	out := make([]value.Value, len(n.Elements))
	for i, el := range n.Elements {
		v, err := e.Eval(el, row)
		if err != nil {
			return value.Null(), err
		}
		out[i] = v
	}
	return value.Array(out), nil
}

func (e *Evaluator) evalMap(n *ast.MapLit, row Row) (value.Value, error) {
	m := value.NewOrderedMap()
	for _, entry := range n.Entries {
		v, err := e.Eval(entry.Value, row)
		if err != nil {
			return value.Null(), err
		}
		m.Set(entry.Key, v)
	}
	return value.Map(m), nil
}

func (e *Evaluator) evalPropertyLookup(n *ast.PropertyLookup, row Row) (value.Value, error) {
	target, err := e.Eval(n.Target, row)
	if err != nil {
		return value.Null(), err
	}
	switch target.Kind {
	case value.KindNull:
		return value.Null(), nil
	case value.KindMap:
		if v, ok := target.Map.Get(n.Key); ok {
			return v, nil
		}
		return value.Null(), nil
	case value.KindNode:
		if v, ok := target.Node.Properties[n.Key]; ok {
			return v, nil
		}
		return value.Null(), nil
	case value.KindRelationship:
		if v, ok := target.Rel.Properties[n.Key]; ok {
			return v, nil
		}
		return value.Null(), nil
	default:
		return value.Null(), errors.Errorf("cannot look up property %q on a %s", n.Key, target.TypeName())
	}
}

func (e *Evaluator) evalIndex(n *ast.IndexExpr, row Row) (value.Value, error) {
	target, err := e.Eval(n.Target, row)
	if err != nil {
		return value.Null(), err
	}
	idx, err := e.Eval(n.Index, row)
	if err != nil {
		return value.Null(), err
	}
	if target.IsNull() || idx.IsNull() {
		return value.Null(), nil
	}
	switch target.Kind {
	case value.KindArray:
		i := normalizeIndex(idx.Int, len(target.Array))
		if i < 0 || i >= len(target.Array) {
			return value.Null(), nil
		}
		return target.Array[i], nil
	case value.KindString:
		runes := []rune(target.Str)
		i := normalizeIndex(idx.Int, len(runes))
		if i < 0 || i >= len(runes) {
			return value.Null(), nil
		}
		return value.String(string(runes[i])), nil
	case value.KindMap:
		if v, ok := target.Map.Get(idx.Str); ok {
			return v, nil
		}
		return value.Null(), nil
	default:
		return value.Null(), errors.Errorf("cannot index a %s", target.TypeName())
	}
}

func normalizeIndex(i int64, length int) int {
	if i < 0 {
		return length + int(i)
	}
	return int(i)
}

func (e *Evaluator) evalSlice(n *ast.SliceExpr, row Row) (value.Value, error) {
	target, err := e.Eval(n.Target, row)
	if err != nil {
		return value.Null(), err
	}
	if target.Kind != value.KindArray {
		return value.Null(), errors.Errorf("cannot slice a %s", target.TypeName())
	}
	lo, hi := 0, len(target.Array)
	if n.Low != nil {
		v, err := e.Eval(n.Low, row)
		if err != nil {
			return value.Null(), err
		}
		lo = normalizeIndex(v.Int, len(target.Array))
	}
	if n.High != nil {
		v, err := e.Eval(n.High, row)
		if err != nil {
			return value.Null(), err
		}
		hi = normalizeIndex(v.Int, len(target.Array))
	}
	if lo < 0 {
		lo = 0
	}
	if hi > len(target.Array) {
		hi = len(target.Array)
	}
	if lo >= hi {
		return value.Array(nil), nil
	}
	out := make([]value.Value, hi-lo)
	copy(out, target.Array[lo:hi])
	return value.Array(out), nil
}

func (e *Evaluator) evalUnary(n *ast.UnaryExpr, row Row) (value.Value, error) {
	v, err := e.Eval(n.Operand, row)
	if err != nil {
		return value.Null(), err
	}
	switch n.Op {
	case token.MINUS:
		if v.IsNull() {
			return value.Null(), nil
		}
		if v.Kind == value.KindFloat {
			return value.Float(-v.Float), nil
		}
		if v.Kind == value.KindInt {
			return value.Int(-v.Int), nil
		}
		return value.Null(), errors.Errorf("cannot negate a %s", v.TypeName())
	case token.NOT_OP:
		return value.AsInt01(!value.BoolOf(v)), nil
	default:
		return value.Null(), errors.Errorf("eval: unsupported unary operator %s", n.Op)
	}
}

func (e *Evaluator) evalCase(n *ast.CaseExpr, row Row) (value.Value, error) {
	var subject value.Value
	if n.Subject != nil {
		v, err := e.Eval(n.Subject, row)
		if err != nil {
			return value.Null(), err
		}
		subject = v
	}
	for _, w := range n.Whens {
		if n.Subject == nil {
			cond, err := e.Eval(w.Cond, row)
			if err != nil {
				return value.Null(), err
			}
			if value.BoolOf(cond) {
				return e.Eval(w.Result, row)
			}
			continue
		}
		cv, err := e.Eval(w.Cond, row)
		if err != nil {
			return value.Null(), err
		}
		if value.Equal(subject, cv) {
			return e.Eval(w.Result, row)
		}
	}
	if n.Else != nil {
		return e.Eval(n.Else, row)
	}
	return value.Null(), nil
}

func (e *Evaluator) evalFuncCall(n *ast.FuncCall, row Row) (value.Value, error) {
	if predicateFuncs[lowerASCII(n.Name)] {
		return e.evalPredicateFunc(n, row)
	}
	args := make([]value.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := e.Eval(a, row)
		if err != nil {
			return value.Null(), err
		}
		args[i] = v
	}
	if e.Funcs == nil {
		return value.Null(), errors.Errorf("no function registry configured for %s()", n.Name)
	}
	return e.Funcs.CallScalar(n.Name, args)
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// evalPredicateFunc evaluates all/any/none/single/filter/extract, each
// written as a plain call `name(var, listExpr, predicate)`: a 3-argument
// FuncCall whose first argument is a Reference naming the loop variable,
// whose second is the source list, and whose third is the per-element
// predicate, evaluated once per element with the loop variable freshly
// bound in a scratch row. The parser does not accept a
// `name(var IN listExpr WHERE predicate)` spelling.
func (e *Evaluator) evalPredicateFunc(n *ast.FuncCall, row Row) (value.Value, error) {
	if len(n.Args) < 3 {
		return value.Null(), errors.Errorf("%s() requires a loop variable, a list, and a predicate", n.Name)
	}
	ref, ok := n.Args[0].(*ast.Reference)
	if !ok || ref.Decl == nil {
		return value.Null(), errors.Errorf("%s() expects a bound loop variable as its first argument", n.Name)
	}
	list, err := e.Eval(n.Args[1], row)
	if err != nil {
		return value.Null(), err
	}
	if list.Kind != value.KindArray {
		return value.Null(), errors.Errorf("%s() expects an array, got %s", n.Name, list.TypeName())
	}
	scratch := row.Clone()
	name := lowerASCII(n.Name)
	var extracted []value.Value
	matched := 0
	for _, el := range list.Array {
		scratch.Set(ref.Decl, el)
		ok, err := e.Eval(n.Args[2], scratch)
		if err != nil {
			return value.Null(), err
		}
		truth := value.BoolOf(ok)
		switch name {
		case "all":
			if !truth {
				return value.AsInt01(false), nil
			}
		case "any":
			if truth {
				return value.AsInt01(true), nil
			}
		case "none":
			if truth {
				return value.AsInt01(false), nil
			}
		case "single":
			if truth {
				matched++
			}
		case "filter":
			if truth {
				extracted = append(extracted, el)
			}
		case "extract":
			extracted = append(extracted, ok)
		}
	}
	switch name {
	case "all", "none":
		return value.AsInt01(true), nil
	case "any":
		return value.AsInt01(false), nil
	case "single":
		return value.AsInt01(matched == 1), nil
	case "filter", "extract":
		return value.Array(extracted), nil
	}
	return value.Null(), fmt.Errorf("unreachable predicate function %s", n.Name)
}
