package ast

import "github.com/flowquery/flowquery/token"

// NullLit is the literal `null`.
type NullLit struct{ Base }

func (*NullLit) exprNode() {}

// BoolLit is a literal `true`/`false`.
type BoolLit struct {
	Base
	Value bool
}

func (*BoolLit) exprNode() {}

// IntLit is an integer literal.
type IntLit struct {
	Base
	Value int64
}

func (*IntLit) exprNode() {}

// FloatLit is a floating point literal.
type FloatLit struct {
	Base
	Value float64
}

func (*FloatLit) exprNode() {}

// StringLit is a single- or double-quoted string literal.
type StringLit struct {
	Base
	Value string
}

func (*StringLit) exprNode() {}

// FStringSegment is one piece of an f-string: either literal text, or an
// embedded expression to be evaluated and interpolated.
type FStringSegment struct {
	Literal string
	Expr    Expr // nil when this segment is literal text
}

// FStringLit is an `f"..."` literal, already split into alternating
// literal/expression segments by the parser's segment splitter.
type FStringLit struct {
	Base
	Segments []FStringSegment
}

func (*FStringLit) exprNode() {}

// Param is a `$name` or `:name` bound-parameter reference.
type Param struct {
	Base
	Name string
}

func (*Param) exprNode() {}

// Reference is a variable reference: a WITH alias, a MATCH-bound pattern
// variable, or an UNWIND loop variable. The parser resolves Reference.Decl
// to the node that introduced the name (an indirected handle, not a copy
// of the bound value — see ast.Binding) so later stages can find the
// current value without re-walking scope each time.
type Reference struct {
	Base
	Name string
	Decl *Binding
}

func (*Reference) exprNode() {}

// Binding is the declaration site of a name: the WITH item, UNWIND
// variable, or pattern variable that introduced it. Reference nodes point
// at a Binding rather than copying its value, so rebinding the name in a
// later WITH updates every Reference transparently.
type Binding struct {
	Name   string
	Origin Node // the AST node that declared the name
}

// PropertyLookup is `<expr>.<key>`.
type PropertyLookup struct {
	Base
	Target Expr
	Key    string
}

func (*PropertyLookup) exprNode() {}

// IndexExpr is `<expr>[<index>]`.
type IndexExpr struct {
	Base
	Target Expr
	Index  Expr
}

func (*IndexExpr) exprNode() {}

// SliceExpr is `<expr>[<low>..<high>]`; Low/High may be nil for an open
// end, e.g. `arr[2..]` or `arr[..5]`.
type SliceExpr struct {
	Base
	Target   Expr
	Low, High Expr
}

func (*SliceExpr) exprNode() {}

// ArrayLit is a `[e1, e2, ...]` literal.
type ArrayLit struct {
	Base
	Elements []Expr
}

func (*ArrayLit) exprNode() {}

// MapEntry is one `key: value` pair of an associative array literal.
type MapEntry struct {
	Key   string
	Value Expr
}

// MapLit is a `{k1: v1, k2: v2}` associative array literal, used both as a
// general expression and as the inline-property syntax on node/relationship
// patterns.
type MapLit struct {
	Base
	Entries []MapEntry
}

func (*MapLit) exprNode() {}

// UnaryExpr is a prefix operator applied to one operand: NOT, unary minus.
type UnaryExpr struct {
	Base
	Op      token.Kind
	Operand Expr
}

func (*UnaryExpr) exprNode() {}

// BinaryExpr is an infix operator applied to two operands, produced by the
// expression evaluator's Shunting-Yard pass over the precedence table in
// spec.md §4.3.
type BinaryExpr struct {
	Base
	Op          token.Kind
	Left, Right Expr
}

func (*BinaryExpr) exprNode() {}

// FuncCall is a scalar, aggregate, or predicate-comprehension function
// invocation. Distinct marks `count(DISTINCT x)`-style aggregate calls.
type FuncCall struct {
	Base
	Name     string
	Args     []Expr
	Distinct bool
}

func (*FuncCall) exprNode() {}

// CaseWhen is one `WHEN cond THEN result` arm of a CASE expression.
type CaseWhen struct {
	Cond   Expr
	Result Expr
}

// CaseExpr is a generic (`CASE WHEN ... THEN ... END`) or simple
// (`CASE subject WHEN ... THEN ... END`) conditional expression.
type CaseExpr struct {
	Base
	Subject Expr // nil for the generic form
	Whens   []CaseWhen
	Else    Expr // nil if absent; evaluates to null
}

func (*CaseExpr) exprNode() {}

// PatternExpr wraps a graph Pattern used as a boolean expression, true when
// at least one match exists (pattern-existence predicates in WHERE).
type PatternExpr struct {
	Base
	Pattern *Pattern
}

func (*PatternExpr) exprNode() {}
