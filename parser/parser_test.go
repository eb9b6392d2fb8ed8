package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowquery/flowquery/ast"
)

func TestParseSimpleReturn(t *testing.T) {
	q, err := New("RETURN 1 AS x").Parse()
	require.NoError(t, err)
	require.Len(t, q.Statements, 1)
	ret, ok := q.Statements[0].Head.(*ast.Return)
	require.True(t, ok)
	require.Len(t, ret.Items, 1)
	require.Equal(t, "x", ret.Items[0].Alias)
}

func TestParseMatchReturn(t *testing.T) {
	q, err := New("MATCH (n:Person) RETURN n").Parse()
	require.NoError(t, err)
	match, ok := q.Statements[0].Head.(*ast.Match)
	require.True(t, ok)
	require.Len(t, match.Patterns, 1)
	require.Equal(t, []string{"Person"}, match.Patterns[0].Nodes[0].Labels)
	require.NotNil(t, match.Next())
	_, ok = match.Next().(*ast.Return)
	require.True(t, ok)
}

func TestParseRelationshipPatternDirection(t *testing.T) {
	q, err := New("MATCH (a)-[:LIKES]->(b) RETURN a, b").Parse()
	require.NoError(t, err)
	match := q.Statements[0].Head.(*ast.Match)
	rel := match.Patterns[0].Rels[0]
	require.Equal(t, ast.DirOut, rel.Direction)
	require.Equal(t, []string{"LIKES"}, rel.Types)
}

func TestParseVariableLengthRelationship(t *testing.T) {
	q, err := New("MATCH (a)-[:KNOWS*1..3]->(b) RETURN b").Parse()
	require.NoError(t, err)
	match := q.Statements[0].Head.(*ast.Match)
	rel := match.Patterns[0].Rels[0]
	require.True(t, rel.Variable_)
	require.Equal(t, 1, rel.MinHops)
	require.Equal(t, 3, rel.MaxHops)
}

func TestParseWhereClauseBoundToMatch(t *testing.T) {
	q, err := New("MATCH (n:Person) WHERE n.age > 21 RETURN n").Parse()
	require.NoError(t, err)
	head := q.Statements[0].Head
	_, isWith := head.(*ast.With)
	require.False(t, isWith)
	match, ok := head.(*ast.Match)
	require.True(t, ok)
	bin, ok := match.Where.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, "age", bin.Left.(*ast.PropertyLookup).Key)
}

func TestExpressionPrecedence(t *testing.T) {
	q, err := New("RETURN 1 + 2 * 3 AS x").Parse()
	require.NoError(t, err)
	ret := q.Statements[0].Head.(*ast.Return)
	top := ret.Items[0].Expr.(*ast.BinaryExpr)
	require.Equal(t, "+", top.Op.String())
	mul, ok := top.Right.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, "*", mul.Op.String())
}

func TestPowerIsRightAssociative(t *testing.T) {
	// 2^3^2 should parse as 2^(3^2), not (2^3)^2.
	q, err := New("RETURN 2^3^2 AS x").Parse()
	require.NoError(t, err)
	ret := q.Statements[0].Head.(*ast.Return)
	top := ret.Items[0].Expr.(*ast.BinaryExpr)
	require.Equal(t, int64(2), top.Left.(*ast.IntLit).Value)
	inner, ok := top.Right.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, int64(3), inner.Left.(*ast.IntLit).Value)
}

func TestAggregatedReturnSplitsKeysAndAggregates(t *testing.T) {
	q, err := New("MATCH (n:Person) RETURN n.city AS city, count(n) AS total").Parse()
	require.NoError(t, err)
	ar := q.Statements[0].Head.Next().(*ast.AggregatedReturn)
	require.Len(t, ar.GroupKeys, 1)
	require.Len(t, ar.Aggregates, 1)
	require.Equal(t, "city", ar.GroupKeys[0].Alias)
}

func TestWithRebindsAlias(t *testing.T) {
	q, err := New("MATCH (n:Person) WITH n.name AS n RETURN n").Parse()
	require.NoError(t, err)
	with := q.Statements[0].Head.Next().(*ast.With)
	ret := with.Next().(*ast.Return)
	ref := ret.Items[0].Expr.(*ast.Reference)
	require.Same(t, with, ref.Decl.Origin)
}

func TestUnwindDeclaresLoopVariable(t *testing.T) {
	q, err := New("UNWIND [1,2,3] AS x RETURN x").Parse()
	require.NoError(t, err)
	u := q.Statements[0].Head.(*ast.Unwind)
	ret := u.Next().(*ast.Return)
	ref := ret.Items[0].Expr.(*ast.Reference)
	require.Same(t, u, ref.Decl.Origin)
}

func TestUnionAllTracked(t *testing.T) {
	q, err := New("RETURN 1 AS x UNION ALL RETURN 2 AS x").Parse()
	require.NoError(t, err)
	require.Len(t, q.Statements, 2)
	require.Equal(t, []bool{false, true}, q.UnionAll)
}

func TestFStringSplitsLiteralAndExpressionSegments(t *testing.T) {
	q, err := New(`MATCH (n:Person) RETURN f"hi {n.name}!" AS greeting`).Parse()
	require.NoError(t, err)
	ret := q.Statements[0].Head.Next().(*ast.Return)
	lit := ret.Items[0].Expr.(*ast.FStringLit)
	require.Len(t, lit.Segments, 3)
	require.Equal(t, "hi ", lit.Segments[0].Literal)
	require.NotNil(t, lit.Segments[1].Expr)
	require.Equal(t, "!", lit.Segments[2].Literal)
}

func TestPatternExpressionInWhere(t *testing.T) {
	q, err := New("MATCH (a:Person) WHERE (a)-[:KNOWS]->(:Person) RETURN a").Parse()
	require.NoError(t, err)
	match := q.Statements[0].Head.(*ast.Match)
	_, ok := match.Where.(*ast.PatternExpr)
	require.True(t, ok)
}

func TestStatementMustEndInTerminalClause(t *testing.T) {
	_, err := New("MATCH (n:Person) WHERE n.age > 1").Parse()
	require.Error(t, err)
}

func TestLimitAndSkip(t *testing.T) {
	q, err := New("MATCH (n:Person) RETURN n SKIP 5 LIMIT 10").Parse()
	require.NoError(t, err)
	lim := q.Statements[0].Head.Next().Next().(*ast.Limit)
	require.NotNil(t, lim.Skip)
	require.NotNil(t, lim.Count)
}

func TestCreateVirtualNode(t *testing.T) {
	q, err := New(`CREATE VIRTUAL (:Person) AS { UNWIND [1,2] AS id RETURN id }`).Parse()
	require.NoError(t, err)
	cn := q.Statements[0].Head.(*ast.CreateNode)
	require.Equal(t, "Person", cn.Label)
	require.Len(t, cn.Body.Statements, 1)
	_, ok := cn.Body.Statements[0].Head.(*ast.Unwind)
	require.True(t, ok)
}

func TestCreateVirtualRelationship(t *testing.T) {
	q, err := New(`CREATE VIRTUAL (:Person)-[:KNOWS]->(:Person) AS { UNWIND [1] AS left_id RETURN left_id }`).Parse()
	require.NoError(t, err)
	cr := q.Statements[0].Head.(*ast.CreateRelationship)
	require.Equal(t, "KNOWS", cr.Type)
	require.Equal(t, "Person", cr.StartLabel)
	require.Equal(t, "Person", cr.EndLabel)
	require.Equal(t, ast.DirOut, cr.Direction)
}
