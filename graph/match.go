package graph

import (
	"context"

	"github.com/pkg/errors"

	"github.com/flowquery/flowquery/ast"
	"github.com/flowquery/flowquery/eval"
	"github.com/flowquery/flowquery/value"
)

// errStopIteration is a private sentinel a yield callback can return to
// stop MatchPattern early (used by Exists, which only needs to know
// whether at least one match exists).
var errStopIteration = errors.New("graph: stop iteration")

// Matcher implements the multi-hop pattern traversal of spec.md §4.7 and
// satisfies eval.PatternMatcher so the expression evaluator can evaluate
// pattern-existence predicates in WHERE clauses.
//
// Eval is wired after construction (SetEvaluator), not passed to NewMatcher,
// because the Evaluator itself needs a PatternMatcher (this Matcher) to
// evaluate pattern expressions — the two are mutually referential values,
// not a package import cycle, and the runner package resolves the wiring
// order at startup.
type Matcher struct {
	cache *Cache
	eval  *eval.Evaluator
	ctx   context.Context
}

// NewMatcher returns a Matcher over cache. The evaluator must be supplied
// via SetEvaluator before any pattern is matched.
func NewMatcher(cache *Cache) *Matcher {
	return &Matcher{cache: cache, ctx: context.Background()}
}

// SetEvaluator wires the expression evaluator used for property-constraint
// and pattern-start-binding checks.
func (m *Matcher) SetEvaluator(e *eval.Evaluator) { m.eval = e }

// SetContext installs the context producer resolution should observe for
// the query currently driving this Matcher. eval.PatternMatcher's Exists
// has no context parameter (spec.md §4.3's Evaluator.Eval is fully
// synchronous), so the Runner sets this once per query run rather than
// threading ctx through every Eval call.
func (m *Matcher) SetContext(ctx context.Context) { m.ctx = ctx }

// Exists implements eval.PatternMatcher: true if pattern has at least one
// match given row's already-bound variables. The pattern's first node must
// already be bound (spec.md §4.7 "the pattern must begin with a variable
// already bound").
func (m *Matcher) Exists(pattern *ast.Pattern, row eval.Row) (bool, error) {
	if len(pattern.Nodes) == 0 || pattern.Nodes[0].Decl == nil {
		return false, errors.New("pattern expression must begin with a bound node reference")
	}
	if _, ok := row[pattern.Nodes[0].Decl]; !ok {
		return false, errors.New("pattern expression must begin with a bound node reference")
	}
	found := false
	err := m.MatchPattern(pattern, row, func(eval.Row) error {
		found = true
		return errStopIteration
	})
	if err != nil && err != errStopIteration {
		return false, err
	}
	return found, nil
}

// MatchPattern traverses pattern against row's already-bound variables,
// invoking yield once per complete match. yield may return
// errStopIteration to stop early; any other error aborts traversal and is
// returned to the caller.
func (m *Matcher) MatchPattern(pattern *ast.Pattern, row eval.Row, yield func(eval.Row) error) error {
	np := pattern.Nodes[0]
	candidates, err := m.resolveNodeCandidates(np, row)
	if err != nil {
		return err
	}
	for _, cand := range candidates {
		row2 := row.Clone()
		if np.Decl != nil {
			row2.Set(np.Decl, cand)
		}
		elements := []value.Value{cand}
		if len(pattern.Rels) == 0 {
			if err := m.finish(pattern, row2, elements, yield); err != nil {
				return err
			}
			continue
		}
		if err := m.traverseRel(pattern, 0, cand, row2, elements, yield); err != nil {
			return err
		}
	}
	return nil
}

func (m *Matcher) finish(pattern *ast.Pattern, row eval.Row, elements []value.Value, yield func(eval.Row) error) error {
	if pattern.Decl != nil {
		row.Set(pattern.Decl, value.PathValue(&value.PathRecord{Elements: elements}))
	}
	return yield(row)
}

// resolveNodeCandidates returns the node values eligible for np: a single
// already-bound value when np's variable was introduced by an earlier
// pattern (spec.md §4.7 "already-bound variables... acting as filters
// rather than fresh iterations"), or every record of np's label's producer
// in source order, filtered by inline property constraints.
func (m *Matcher) resolveNodeCandidates(np *ast.NodePattern, row eval.Row) ([]value.Value, error) {
	if np.Decl != nil {
		if v, ok := row[np.Decl]; ok {
			return []value.Value{v}, nil
		}
	}
	if len(np.Labels) == 0 {
		return nil, errors.New("node pattern requires a label or an already-bound variable")
	}
	label := np.Labels[0]
	ns, err := m.cache.Nodes(m.ctx, label)
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, 0, len(ns.Records))
	for _, rec := range ns.Records {
		val := value.NodeValue(nodeRecord(label, rec))
		ok, err := m.matchProps(np.Properties, val.Node.Properties, row)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, val)
		}
	}
	return out, nil
}

// nodeMatches checks whether candidate (already resolved from an edge's
// endpoint) satisfies np's already-bound-equality, label, and property
// constraints.
func (m *Matcher) nodeMatches(np *ast.NodePattern, candidate value.Value, row eval.Row) (bool, error) {
	if np.Decl != nil {
		if bound, ok := row[np.Decl]; ok {
			return value.Equal(bound, candidate), nil
		}
	}
	if len(np.Labels) > 0 && candidate.Node.Label != np.Labels[0] {
		return false, nil
	}
	return m.matchProps(np.Properties, candidate.Node.Properties, row)
}

func (m *Matcher) matchProps(props *ast.MapLit, recordProps map[string]value.Value, row eval.Row) (bool, error) {
	if props == nil {
		return true, nil
	}
	for _, entry := range props.Entries {
		want, err := m.eval.Eval(entry.Value, row)
		if err != nil {
			return false, err
		}
		got, ok := recordProps[entry.Key]
		if !ok {
			got = value.Null()
		}
		if !value.Equal(want, got) {
			return false, nil
		}
	}
	return true, nil
}

// traverseRel traverses pattern.Rels[idx], the hop between
// pattern.Nodes[idx] (source, already bound in row) and pattern.Nodes[idx+1].
func (m *Matcher) traverseRel(pattern *ast.Pattern, idx int, source value.Value, row eval.Row, elements []value.Value, yield func(eval.Row) error) error {
	rel := pattern.Rels[idx]
	target := pattern.Nodes[idx+1]
	types := rel.Types
	if len(types) == 0 {
		types = m.cache.store.Types()
	}

	if rel.MinHops == 0 && rel.Variable_ {
		ok, err := m.nodeMatches(target, source, row)
		if err != nil {
			return err
		}
		if ok {
			row2 := row.Clone()
			if target.Decl != nil {
				row2.Set(target.Decl, source)
			}
			if rel.Decl != nil {
				row2.Set(rel.Decl, value.Null())
			}
			elements2 := appendElements(elements, value.Null(), source)
			if err := m.continuePattern(pattern, idx, row2, elements2, yield); err != nil {
				return err
			}
		}
	}

	visited := map[string]bool{value.RowKey(source): true}
	return m.walkHops(pattern, idx, rel, target, types, source, 1, nil, visited, row, elements, yield)
}

// walkHops implements spec.md §4.7 steps 2-4 for one relationship pattern
// element: hopNum is the 1-based count of edges traversed so far along this
// element (spec.md's 0-based "hop h" condition "h >= hops.min" restated
// 1-based as hopNum >= hops.min for clarity, and "h+1 < hops.max" as
// hopNum < hops.max).
func (m *Matcher) walkHops(pattern *ast.Pattern, idx int, rel *ast.RelationshipPattern, target *ast.NodePattern, types []string, source value.Value, hopNum int, relPath []value.Value, visited map[string]bool, row eval.Row, elements []value.Value, yield func(eval.Row) error) error {
	sourceKey := value.RowKey(source)
	singleHop := !rel.Variable_ && rel.MaxHops == 1

	for _, t := range types {
		rs, err := m.cache.Rels(m.ctx, t)
		if err != nil {
			return err
		}
		for _, edge := range m.edgesFor(rs, rel.Direction, sourceKey) {
			targetVal, err := m.resolveEdgeTarget(rs, edge, target)
			if err != nil {
				return err
			}
			if targetVal.IsNull() {
				continue
			}
			relVal := relValueFor(rs.Type, edge.record, source, targetVal)

			if rel.Decl != nil && singleHop {
				if bound, ok := row[rel.Decl]; ok && !value.Equal(bound, relVal) {
					// relationship variable already bound by an earlier
					// pattern: treat reuse as an equality filter.
					continue
				}
			}

			okTarget, err := m.nodeMatches(target, targetVal, row)
			if err != nil {
				return err
			}
			if !okTarget {
				continue
			}
			okRel, err := m.matchProps(rel.Properties, relVal.Rel.Properties, row)
			if err != nil {
				return err
			}
			if !okRel {
				continue
			}

			targetKey := value.RowKey(targetVal)
			newVisited := visited
			if !singleHop {
				if visited[targetKey] {
					if rel.Variable_ && rel.MaxHops != 1 {
						return errors.New("circular relationship detected")
					}
					continue
				}
				newVisited = cloneVisited(visited)
				newVisited[targetKey] = true
			}

			newRelPath := append(append([]value.Value{}, relPath...), relVal)
			elements2 := appendElements(elements, relVal, targetVal)

			if hopNum >= rel.MinHops {
				row2 := row.Clone()
				if target.Decl != nil {
					row2.Set(target.Decl, targetVal)
				}
				if rel.Decl != nil {
					row2.Set(rel.Decl, relBindingValue(newRelPath))
				}
				if err := m.continuePattern(pattern, idx, row2, elements2, yield); err != nil {
					return err
				}
			}

			if rel.MaxHops == -1 || hopNum < rel.MaxHops {
				if err := m.walkHops(pattern, idx, rel, target, types, targetVal, hopNum+1, newRelPath, newVisited, row, elements, yield); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// continuePattern finishes the pattern if idx was its last relationship, or
// recurses into the next relationship element otherwise.
func (m *Matcher) continuePattern(pattern *ast.Pattern, idx int, row eval.Row, elements []value.Value, yield func(eval.Row) error) error {
	if idx+1 >= len(pattern.Rels) {
		return m.finish(pattern, row, elements, yield)
	}
	source := elements[len(elements)-1]
	return m.traverseRel(pattern, idx+1, source, row, elements, yield)
}

func relBindingValue(path []value.Value) value.Value {
	if len(path) == 1 {
		return path[0]
	}
	recs := make([]value.RelationshipRecord, len(path))
	for i, v := range path {
		recs[i] = *v.Rel
	}
	return value.RelationshipListValue(recs)
}

func appendElements(elements []value.Value, more ...value.Value) []value.Value {
	out := make([]value.Value, len(elements), len(elements)+len(more))
	copy(out, elements)
	return append(out, more...)
}

func cloneVisited(v map[string]bool) map[string]bool {
	out := make(map[string]bool, len(v)+1)
	for k := range v {
		out[k] = true
	}
	return out
}

type edgeRef struct {
	record value.Value
	// forward is true when source matched this edge's left_id (so the
	// target is right_id); false when source matched right_id.
	forward bool
}

// edgesFor returns every edge of rs reachable from sourceKey under dir.
// An undirected pattern (DirEither, from -[]-) resolves to the forward
// index only, matching the {left, right, undirected-treated-as-right}
// directionality model: it is not both-direction traversal.
func (m *Matcher) edgesFor(rs *RelSet, dir ast.Direction, sourceKey string) []edgeRef {
	var out []edgeRef
	if dir == ast.DirOut || dir == ast.DirEither {
		for _, i := range rs.Forward[sourceKey] {
			out = append(out, edgeRef{record: rs.Records[i], forward: true})
		}
	}
	if dir == ast.DirIn {
		for _, i := range rs.Reverse[sourceKey] {
			out = append(out, edgeRef{record: rs.Records[i], forward: false})
		}
	}
	return out
}

// resolveEdgeTarget resolves the node at the far end of edge, preferring
// target's own declared label and falling back to the relationship
// definition's registered end label for that direction.
func (m *Matcher) resolveEdgeTarget(rs *RelSet, edge edgeRef, target *ast.NodePattern) (value.Value, error) {
	var idField string
	var label string
	if edge.forward {
		idField = "right_id"
		label = rs.EndLabel
	} else {
		idField = "left_id"
		label = rs.StartLabel
	}
	if len(target.Labels) > 0 {
		label = target.Labels[0]
	}
	id, ok := edge.record.Map.Get(idField)
	if !ok {
		return value.Null(), errors.Errorf("relationship record for type %q missing %s", rs.Type, idField)
	}
	ns, err := m.cache.Nodes(m.ctx, label)
	if err != nil {
		return value.Null(), err
	}
	i, ok := ns.ByID[value.RowKey(id)]
	if !ok {
		return value.Null(), nil
	}
	return value.NodeValue(nodeRecord(label, ns.Records[i])), nil
}

func relValueFor(typeName string, record value.Value, start, end value.Value) value.Value {
	return value.RelationshipValue(relRecord(typeName, record, start, end))
}
