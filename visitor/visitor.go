// Package visitor provides AST traversal utilities over ast.Node, adapted
// from machparse's depth-first Visit/Walk pattern to FlowQuery's
// query/operation/expression/pattern node set.
package visitor

import "github.com/flowquery/flowquery/ast"

// Visitor is the interface for AST traversal. Visit returns the Visitor to
// use for node's children, or nil to stop descending into them.
type Visitor interface {
	Visit(node ast.Node) Visitor
}

// Walk traverses an AST in depth-first order, starting at node.
func Walk(v Visitor, node ast.Node) {
	if node == nil {
		return
	}
	if v = v.Visit(node); v == nil {
		return
	}
	walkChildren(v, node)
}

func walkChildren(v Visitor, node ast.Node) {
	switch n := node.(type) {
	case *ast.Query:
		for _, stmt := range n.Statements {
			Walk(v, stmt)
		}

	case *ast.Statement:
		for op := n.Head; op != nil; op = op.Next() {
			Walk(v, op)
		}

	case *ast.With:
		for _, it := range n.Items {
			Walk(v, it.Expr)
		}

	case *ast.Unwind:
		Walk(v, n.Source)

	case *ast.Load:
		Walk(v, n.URL)
		if n.Body != nil {
			Walk(v, n.Body)
		}
		if n.Headers != nil {
			Walk(v, n.Headers)
		}

	case *ast.Call:
		Walk(v, n.Call)

	case *ast.Where:
		Walk(v, n.Predicate)

	case *ast.Limit:
		if n.Skip != nil {
			Walk(v, n.Skip)
		}
		if n.Count != nil {
			Walk(v, n.Count)
		}

	case *ast.Return:
		for _, it := range n.Items {
			Walk(v, it.Expr)
		}

	case *ast.AggregatedReturn:
		for _, it := range n.GroupKeys {
			Walk(v, it.Expr)
		}
		for _, it := range n.Aggregates {
			Walk(v, it.Expr)
		}

	case *ast.OrderBy:
		for _, it := range n.Items {
			Walk(v, it.Expr)
		}

	case *ast.CreateNode:
		if n.Body != nil {
			Walk(v, n.Body)
		}

	case *ast.CreateRelationship:
		if n.Body != nil {
			Walk(v, n.Body)
		}

	case *ast.Match:
		for _, p := range n.Patterns {
			Walk(v, p)
		}
		if n.Where != nil {
			Walk(v, n.Where)
		}

	case *ast.Union:
		Walk(v, n.Left)
		Walk(v, n.Right)

	case *ast.Delete:
		for _, t := range n.Targets {
			Walk(v, t)
		}

	case *ast.Pattern:
		for i, node := range n.Nodes {
			Walk(v, node)
			if i < len(n.Rels) {
				Walk(v, n.Rels[i])
			}
		}

	case *ast.NodePattern:
		if n.Properties != nil {
			Walk(v, n.Properties)
		}

	case *ast.RelationshipPattern:
		if n.Properties != nil {
			Walk(v, n.Properties)
		}

	case *ast.PropertyLookup:
		Walk(v, n.Target)

	case *ast.IndexExpr:
		Walk(v, n.Target)
		Walk(v, n.Index)

	case *ast.SliceExpr:
		Walk(v, n.Target)
		if n.Low != nil {
			Walk(v, n.Low)
		}
		if n.High != nil {
			Walk(v, n.High)
		}

	case *ast.ArrayLit:
		for _, e := range n.Elements {
			Walk(v, e)
		}

	case *ast.MapLit:
		for _, entry := range n.Entries {
			Walk(v, entry.Value)
		}

	case *ast.UnaryExpr:
		Walk(v, n.Operand)

	case *ast.BinaryExpr:
		Walk(v, n.Left)
		Walk(v, n.Right)

	case *ast.FuncCall:
		for _, a := range n.Args {
			Walk(v, a)
		}

	case *ast.CaseExpr:
		if n.Subject != nil {
			Walk(v, n.Subject)
		}
		for _, w := range n.Whens {
			Walk(v, w.Cond)
			Walk(v, w.Result)
		}
		if n.Else != nil {
			Walk(v, n.Else)
		}

	case *ast.PatternExpr:
		Walk(v, n.Pattern)

	case *ast.FStringLit:
		for _, seg := range n.Segments {
			if seg.Expr != nil {
				Walk(v, seg.Expr)
			}
		}

	// NullLit, BoolLit, IntLit, FloatLit, StringLit, Param, Reference carry
	// no children.
	}
}

// WalkFunc calls fn for every node reached from a depth-first walk of node;
// fn returning false prunes that node's children from the walk.
func WalkFunc(node ast.Node, fn func(ast.Node) bool) {
	Walk(&funcVisitor{fn: fn}, node)
}

type funcVisitor struct {
	fn func(ast.Node) bool
}

func (v *funcVisitor) Visit(node ast.Node) Visitor {
	if v.fn(node) {
		return v
	}
	return nil
}

// Inspect calls f for each node in the AST reachable from node, depth-first.
func Inspect(node ast.Node, f func(ast.Node) bool) {
	WalkFunc(node, f)
}
