package eval

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowquery/flowquery/ast"
	"github.com/flowquery/flowquery/token"
	"github.com/flowquery/flowquery/value"
)

type stubFuncs struct{}

func (stubFuncs) CallScalar(name string, args []value.Value) (value.Value, error) {
	if name == "double" {
		return value.Int(args[0].Int * 2), nil
	}
	return value.Null(), nil
}

type stubMatcher struct{ exists bool }

func (s stubMatcher) Exists(p *ast.Pattern, row Row) (bool, error) { return s.exists, nil }

func newEval() *Evaluator { return New(stubFuncs{}, stubMatcher{exists: true}) }

func bin(op token.Kind, l, r ast.Expr) *ast.BinaryExpr {
	return &ast.BinaryExpr{Op: op, Left: l, Right: r}
}

func TestArithmeticIntegerPreserved(t *testing.T) {
	e := newEval()
	v, err := e.Eval(bin(token.PLUS, &ast.IntLit{Value: 2}, &ast.IntLit{Value: 3}), Row{})
	require.NoError(t, err)
	require.Equal(t, value.KindInt, v.Kind)
	require.Equal(t, int64(5), v.Int)
}

func TestStringConcatenation(t *testing.T) {
	e := newEval()
	v, err := e.Eval(bin(token.PLUS, &ast.StringLit{Value: "a"}, &ast.StringLit{Value: "b"}), Row{})
	require.NoError(t, err)
	require.Equal(t, "ab", v.Str)
}

func TestDivisionByZeroErrors(t *testing.T) {
	e := newEval()
	_, err := e.Eval(bin(token.SLASH, &ast.IntLit{Value: 1}, &ast.IntLit{Value: 0}), Row{})
	require.Error(t, err)
}

func TestNullPropagatesThroughArithmetic(t *testing.T) {
	e := newEval()
	v, err := e.Eval(bin(token.PLUS, &ast.NullLit{}, &ast.IntLit{Value: 1}), Row{})
	require.NoError(t, err)
	require.True(t, v.IsNull())
}

func TestComparisonReturnsBooleanAsInteger(t *testing.T) {
	e := newEval()
	v, err := e.Eval(bin(token.LT, &ast.IntLit{Value: 1}, &ast.IntLit{Value: 2}), Row{})
	require.NoError(t, err)
	require.Equal(t, value.KindInt, v.Kind)
	require.Equal(t, int64(1), v.Int)
}

func TestAndShortCircuits(t *testing.T) {
	e := newEval()
	v, err := e.Eval(bin(token.AND_OP, &ast.BoolLit{Value: false}, &ast.NullLit{}), Row{})
	require.NoError(t, err)
	require.Equal(t, int64(0), v.Int)
}

func TestInOperator(t *testing.T) {
	e := newEval()
	list := &ast.ArrayLit{Elements: []ast.Expr{&ast.IntLit{Value: 1}, &ast.IntLit{Value: 2}}}
	v, err := e.Eval(bin(token.IN_OP, &ast.IntLit{Value: 2}, list), Row{})
	require.NoError(t, err)
	require.True(t, value.BoolOf(v))
}

func TestReferenceLookup(t *testing.T) {
	e := newEval()
	decl := &ast.Binding{Name: "x"}
	row := Row{}
	row.Set(decl, value.Int(42))
	v, err := e.Eval(&ast.Reference{Name: "x", Decl: decl}, row)
	require.NoError(t, err)
	require.Equal(t, int64(42), v.Int)
}

func TestFStringInterpolation(t *testing.T) {
	e := newEval()
	decl := &ast.Binding{Name: "name"}
	row := Row{}
	row.Set(decl, value.String("world"))
	lit := &ast.FStringLit{Segments: []ast.FStringSegment{
		{Literal: "hello "},
		{Expr: &ast.Reference{Name: "name", Decl: decl}},
	}}
	v, err := e.Eval(lit, row)
	require.NoError(t, err)
	require.Equal(t, "hello world", v.Str)
}

func TestAllPredicateFunction(t *testing.T) {
	e := newEval()
	decl := &ast.Binding{Name: "x"}
	call := &ast.FuncCall{Name: "all", Args: []ast.Expr{
		&ast.Reference{Name: "x", Decl: decl},
		&ast.ArrayLit{Elements: []ast.Expr{&ast.IntLit{Value: 2}, &ast.IntLit{Value: 4}}},
		bin(token.EQ, &ast.BinaryExpr{Op: token.PERCENT, Left: &ast.Reference{Name: "x", Decl: decl}, Right: &ast.IntLit{Value: 2}}, &ast.IntLit{Value: 0}),
	}}
	v, err := e.Eval(call, Row{})
	require.NoError(t, err)
	require.True(t, value.BoolOf(v))
}

func TestPatternExprDelegatesToMatcher(t *testing.T) {
	e := New(stubFuncs{}, stubMatcher{exists: false})
	v, err := e.Eval(&ast.PatternExpr{Pattern: &ast.Pattern{}}, Row{})
	require.NoError(t, err)
	require.False(t, value.BoolOf(v))
}
