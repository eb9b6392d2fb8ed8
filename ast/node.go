// Package ast defines the abstract syntax tree produced by the FlowQuery
// parser: expression nodes, graph pattern nodes, and the chain of pipeline
// operations that make up a query.
package ast

import "github.com/flowquery/flowquery/token"

// Node is the minimal capability every AST node satisfies, mirroring the
// Pos/End accessor pair the tokenizer this module grew out of uses for
// every node rather than a deep class hierarchy.
type Node interface {
	Pos() token.Pos
	End() token.Pos
}

// Expr is any value-producing expression node.
type Expr interface {
	Node
	exprNode()
}

// Operation is one stage of the linked pipeline a query compiles to: WITH,
// UNWIND, LOAD, CALL, WHERE, LIMIT, RETURN, ORDER BY, CREATE, MATCH, or
// UNION. Operation nodes form a singly linked chain via Next; the parser
// builds the chain, the pipeline package interprets it.
type Operation interface {
	Node
	operationNode()
	Next() Operation
	SetNext(Operation)
}

// Base embeds into every concrete node to carry start/end positions and
// satisfy Pos()/End() without repeating the accessor pair everywhere.
type Base struct {
	StartPos token.Pos
	EndPos   token.Pos
}

func (b *Base) Pos() token.Pos { return b.StartPos }
func (b *Base) End() token.Pos { return b.EndPos }

// OpBase embeds into every Operation, carrying the chain link alongside
// position tracking.
type OpBase struct {
	Base
	next Operation
}

func (o *OpBase) Next() Operation     { return o.next }
func (o *OpBase) SetNext(n Operation) { o.next = n }

// Query is the top-level parse result: one or more statements joined by
// UNION / UNION ALL, each statement itself a chain of Operations beginning
// at Head.
type Query struct {
	Base
	Statements []*Statement
	// UnionAll[i] records whether Statements[i] was joined to the previous
	// statement with UNION ALL (true) or de-duplicating UNION (false).
	// UnionAll[0] is always ignored since the first statement joins nothing.
	UnionAll []bool
}

// Statement is a single, non-UNION'd chain of operations.
type Statement struct {
	Base
	Head Operation
}
