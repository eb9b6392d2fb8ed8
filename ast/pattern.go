package ast

import "github.com/flowquery/flowquery/token"

// Direction is the arrow direction of a relationship pattern.
type Direction int

const (
	// DirEither is the undirected form `(a)-[r]-(b)`; the matcher walks it
	// through the forward index only, the same way as DirOut.
	DirEither Direction = iota
	// DirOut matches left-to-right: `(a)-[r]->(b)`.
	DirOut
	// DirIn matches right-to-left: `(a)<-[r]-(b)`.
	DirIn
)

// NodePattern is one `(var:Label {props})` element of a path pattern.
type NodePattern struct {
	Base
	Variable   string // empty for an anonymous node
	Labels     []string
	Properties *MapLit // nil if absent
	// Decl is the Binding the parser resolved or declared for Variable, nil
	// for an anonymous node. The pattern matcher keys eval.Row by this
	// Binding when it binds a matched node record, the same indirected
	// handle a Reference to the same name elsewhere in the query holds.
	Decl *Binding
}

func (*NodePattern) exprNode() {} // a bare node pattern is also a valid standalone MATCH target

// RelationshipPattern is one `-[var:TYPE*min..max {props}]-` element.
type RelationshipPattern struct {
	Base
	Variable   string
	Types      []string // alternated with `|`, e.g. [:LIKES|FOLLOWS]
	Direction  Direction
	MinHops    int  // default 1
	MaxHops    int  // default 1; -1 means unbounded
	Variable_  bool // true when `*` or `*min..max` was present at all
	Properties *MapLit
	// Decl mirrors NodePattern.Decl: the Binding resolved or declared for
	// Variable, nil for an anonymous relationship.
	Decl *Binding
}

func (*RelationshipPattern) exprNode() {}

// Pattern is an alternating chain of NodePattern/RelationshipPattern
// elements describing one path: Nodes has len(Rels)+1 elements.
type Pattern struct {
	Base
	Variable string // optional path binding: `p = (a)-[r]->(b)`
	Nodes    []*NodePattern
	Rels     []*RelationshipPattern
	// Decl is the Binding for Variable, nil when the pattern carries no
	// path binding.
	Decl *Binding
}

func (*Pattern) exprNode() {}

// posOrFallback returns the pattern's start position, or its first node's
// position when the embedded Base wasn't set by the parser (keeps the zero
// value useful in tests that build patterns by hand). Pos and End
// themselves come from the embedded Base unchanged.
func (p *Pattern) posOrFallback() token.Pos {
	if p.StartPos.IsValid() {
		return p.StartPos
	}
	if len(p.Nodes) > 0 {
		return p.Nodes[0].Pos()
	}
	return token.Pos{}
}
