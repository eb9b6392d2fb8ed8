package ast

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowquery/flowquery/token"
)

func TestOperationChainLinking(t *testing.T) {
	w := &With{Items: []ReturnItem{{Expr: &IntLit{Value: 1}, Alias: "x"}}}
	r := &Return{Items: []ReturnItem{{Expr: &Reference{Name: "x"}}}}
	w.SetNext(r)

	require.Equal(t, Operation(r), w.Next())
	require.Nil(t, r.Next())
}

func TestReferenceResolvesToBinding(t *testing.T) {
	decl := &Binding{Name: "n"}
	ref := &Reference{Name: "n", Decl: decl}
	require.Same(t, decl, ref.Decl)
}

func TestPooledBinaryExprReset(t *testing.T) {
	e := GetBinaryExpr()
	e.Op = token.PLUS
	e.Left = &IntLit{Value: 1}
	ReleaseBinaryExpr(e)

	e2 := GetBinaryExpr()
	require.Nil(t, e2.Left)
	require.Equal(t, token.Kind(0), e2.Op)
}

func TestPatternNodesAndRelsCountInvariant(t *testing.T) {
	a := &NodePattern{Variable: "a"}
	b := &NodePattern{Variable: "b"}
	rel := &RelationshipPattern{Direction: DirOut, MinHops: 1, MaxHops: 1}
	p := &Pattern{Nodes: []*NodePattern{a, b}, Rels: []*RelationshipPattern{rel}}
	require.Len(t, p.Nodes, len(p.Rels)+1)
}
