package parser

import "github.com/flowquery/flowquery/ast"

// Scope is the parser's symbol table: a flat map from name to the Binding
// that currently owns it. WITH and UNWIND replace an entry wholesale
// (rebinding), rather than mutating the old Binding, so Reference nodes
// already resolved against the earlier Binding keep pointing at it — the
// indirected-handle design spec.md §9 calls for.
type Scope struct {
	bindings map[string]*ast.Binding
}

func newScope() *Scope { return &Scope{bindings: map[string]*ast.Binding{}} }

// Declare introduces or rebinds name, returning the new Binding.
func (s *Scope) Declare(name string, origin ast.Node) *ast.Binding {
	b := &ast.Binding{Name: name, Origin: origin}
	s.bindings[name] = b
	return b
}

// Resolve looks up the current Binding for name.
func (s *Scope) Resolve(name string) (*ast.Binding, bool) {
	b, ok := s.bindings[name]
	return b, ok
}

// ResolveOrDeclare resolves an existing binding, or declares a fresh one if
// name hasn't appeared yet (a bare identifier inside a MATCH pattern may
// either reuse an earlier variable or introduce a new one).
func (s *Scope) ResolveOrDeclare(name string, origin ast.Node) *ast.Binding {
	if b, ok := s.bindings[name]; ok {
		return b
	}
	return s.Declare(name, origin)
}
