package visitor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowquery/flowquery/ast"
	"github.com/flowquery/flowquery/parser"
)

func TestInspectVisitsEveryReturnItem(t *testing.T) {
	q, err := parser.New("UNWIND [1, 2] AS n RETURN n + 1 AS x, n AS y").Parse()
	require.NoError(t, err)

	var binaryExprs, refs int
	Inspect(q, func(n ast.Node) bool {
		switch n.(type) {
		case *ast.BinaryExpr:
			binaryExprs++
		case *ast.Reference:
			refs++
		}
		return true
	})
	require.Equal(t, 1, binaryExprs)
	require.Equal(t, 2, refs)
}

func TestWalkFuncCanPruneChildren(t *testing.T) {
	q, err := parser.New("RETURN [1, 2, 3] AS xs").Parse()
	require.NoError(t, err)

	var intLits int
	WalkFunc(q, func(n ast.Node) bool {
		if _, ok := n.(*ast.ArrayLit); ok {
			return false // prune: don't descend into the literal's elements
		}
		if _, ok := n.(*ast.IntLit); ok {
			intLits++
		}
		return true
	})
	require.Equal(t, 0, intLits)
}

func TestWalkMatchPatternAndWhere(t *testing.T) {
	q, err := parser.New("MATCH (a:Person)-[:KNOWS]->(b) WHERE a.age > 1 RETURN b").Parse()
	require.NoError(t, err)

	var nodePatterns, relPatterns, binaryExprs int
	Inspect(q, func(n ast.Node) bool {
		switch n.(type) {
		case *ast.NodePattern:
			nodePatterns++
		case *ast.RelationshipPattern:
			relPatterns++
		case *ast.BinaryExpr:
			binaryExprs++
		}
		return true
	})
	require.Equal(t, 2, nodePatterns)
	require.Equal(t, 1, relPatterns)
	require.Equal(t, 1, binaryExprs)
}

func TestWalkNilNodeIsNoop(t *testing.T) {
	require.NotPanics(t, func() {
		Walk(&funcVisitor{fn: func(ast.Node) bool { return true }}, nil)
	})
}
