// Package value implements FlowQuery's dynamically-typed runtime value,
// modeled as a tagged variant per spec.md §9 rather than as a Go interface
// hierarchy, so arithmetic and comparison can dispatch on a (Kind, Kind)
// pair the way ast.Literal/ast.BinaryExpr dispatch on token.Kind pairs in
// the tokenizer this module grew out of.
package value

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies which field of a Value is meaningful.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindMap
	KindNode
	KindRelationship
	KindRelationshipList // observable value of a >=2-hop relationship binding
	KindPath
)

// NodeRecord is the observable value of a bound graph node: its physical
// record plus the label it was matched under.
type NodeRecord struct {
	Label      string
	ID         Value
	Properties map[string]Value
}

// RelationshipRecord is the observable value of a single relationship hop.
type RelationshipRecord struct {
	Type       string
	StartNode  Value
	EndNode    Value
	Properties map[string]Value
}

// PathRecord is an alternating [node, rel, node, ...] sequence bound by a
// `p = (...)` path pattern.
type PathRecord struct {
	Elements []Value // alternating Node/Relationship values, odd total length
}

// Value is FlowQuery's tagged runtime value.
type Value struct {
	Kind Kind

	Bool    bool
	Int     int64
	Float   float64
	Str     string
	Array   []Value
	Map     *OrderedMap
	Node    *NodeRecord
	Rel     *RelationshipRecord
	RelList []RelationshipRecord
	Path    *PathRecord
}

// OrderedMap preserves the insertion order of keys, the option spec.md §9
// names for the "document insertion-order preservation" branch of the
// collect(distinct {...}) open question; FlowQuery additionally offers a
// stable, sorted-key JSON encoding (see Stringify) for the other branch.
type OrderedMap struct {
	keys   []string
	values map[string]Value
}

// NewOrderedMap returns an empty OrderedMap.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{values: map[string]Value{}}
}

// Set inserts or updates key, preserving first-insertion order.
func (m *OrderedMap) Set(key string, v Value) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Get returns the value for key and whether it was present.
func (m *OrderedMap) Get(key string) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns keys in insertion order.
func (m *OrderedMap) Keys() []string { return m.keys }

// Len returns the number of entries.
func (m *OrderedMap) Len() int { return len(m.keys) }

// Clone returns a deep-enough copy (values themselves are not recursively
// cloned, matching Value's copy-by-assignment semantics for scalars).
func (m *OrderedMap) Clone() *OrderedMap {
	out := NewOrderedMap()
	for _, k := range m.keys {
		out.Set(k, m.values[k])
	}
	return out
}

// Constructors

func Null() Value            { return Value{Kind: KindNull} }
func Bool(b bool) Value      { return Value{Kind: KindBool, Bool: b} }
func Int(i int64) Value      { return Value{Kind: KindInt, Int: i} }
func Float(f float64) Value  { return Value{Kind: KindFloat, Float: f} }
func String(s string) Value  { return Value{Kind: KindString, Str: s} }
func Array(vs []Value) Value { return Value{Kind: KindArray, Array: vs} }
func Map(m *OrderedMap) Value {
	if m == nil {
		m = NewOrderedMap()
	}
	return Value{Kind: KindMap, Map: m}
}
func NodeValue(n *NodeRecord) Value                 { return Value{Kind: KindNode, Node: n} }
func RelationshipValue(r *RelationshipRecord) Value { return Value{Kind: KindRelationship, Rel: r} }
func RelationshipListValue(rs []RelationshipRecord) Value {
	return Value{Kind: KindRelationshipList, RelList: rs}
}
func PathValue(p *PathRecord) Value { return Value{Kind: KindPath, Path: p} }

// BoolOf converts a FlowQuery boolean result, represented as the integers
// 0/1 per spec.md §4.3, into a Go bool.
func BoolOf(v Value) bool {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int != 0
	case KindFloat:
		return v.Float != 0
	case KindNull:
		return false
	case KindString:
		return v.Str != ""
	case KindArray:
		return len(v.Array) != 0
	default:
		return true
	}
}

// AsInt01 returns the 0/1 integer encoding of a boolean predicate result.
func AsInt01(b bool) Value {
	if b {
		return Int(1)
	}
	return Int(0)
}

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// IsNumber reports whether v is an int or a float.
func (v Value) IsNumber() bool { return v.Kind == KindInt || v.Kind == KindFloat }

// Float64 returns v's numeric value as a float64; callers must check
// IsNumber first.
func (v Value) Float64() float64 {
	if v.Kind == KindInt {
		return float64(v.Int)
	}
	return v.Float
}

// TypeName returns the lowercase type name used by the built-in type()
// function.
func (v Value) TypeName() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindNode:
		return "node"
	case KindRelationship, KindRelationshipList:
		return "relationship"
	case KindPath:
		return "path"
	default:
		return "unknown"
	}
}

// Equal implements deep value equality, used by UNION de-duplication, the
// DISTINCT projection modifier, and aggregate DISTINCT sets (spec.md §4.5,
// §4.6, §8).
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		// Integers and floats with the same numeric value compare equal,
		// matching arithmetic's numeric-value semantics.
		if a.IsNumber() && b.IsNumber() {
			return a.Float64() == b.Float64()
		}
		return false
	}
	switch a.Kind {
	case KindNull:
		return true
	case KindBool:
		return a.Bool == b.Bool
	case KindInt:
		return a.Int == b.Int
	case KindFloat:
		return a.Float == b.Float
	case KindString:
		return a.Str == b.Str
	case KindArray:
		if len(a.Array) != len(b.Array) {
			return false
		}
		for i := range a.Array {
			if !Equal(a.Array[i], b.Array[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if a.Map.Len() != b.Map.Len() {
			return false
		}
		for _, k := range a.Map.Keys() {
			av, _ := a.Map.Get(k)
			bv, ok := b.Map.Get(k)
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	case KindNode:
		return a.Node.Label == b.Node.Label && Equal(a.Node.ID, b.Node.ID)
	case KindRelationship:
		return a.Rel.Type == b.Rel.Type && Equal(a.Rel.StartNode, b.Rel.StartNode) && Equal(a.Rel.EndNode, b.Rel.EndNode)
	case KindRelationshipList:
		if len(a.RelList) != len(b.RelList) {
			return false
		}
		for i := range a.RelList {
			ra, rb := a.RelList[i], b.RelList[i]
			if ra.Type != rb.Type || !Equal(ra.StartNode, rb.StartNode) || !Equal(ra.EndNode, rb.EndNode) {
				return false
			}
		}
		return true
	case KindPath:
		if len(a.Path.Elements) != len(b.Path.Elements) {
			return false
		}
		for i := range a.Path.Elements {
			if !Equal(a.Path.Elements[i], b.Path.Elements[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// RowKey returns a stable, sorted-key JSON encoding of v, used to key
// UNION's de-duplication set and an aggregate's DISTINCT set. Sorted keys
// resolve the "map key order" open question from spec.md §9 towards a
// fixed serialization rather than insertion order.
func RowKey(v Value) string {
	b, _ := json.Marshal(toSortedJSON(v))
	return string(b)
}

func toSortedJSON(v Value) any {
	switch v.Kind {
	case KindNull:
		return nil
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindString:
		return v.Str
	case KindArray:
		out := make([]any, len(v.Array))
		for i, e := range v.Array {
			out[i] = toSortedJSON(e)
		}
		return out
	case KindMap:
		keys := append([]string(nil), v.Map.Keys()...)
		sort.Strings(keys)
		out := make(map[string]any, len(keys))
		for _, k := range keys {
			val, _ := v.Map.Get(k)
			out[k] = toSortedJSON(val)
		}
		return out
	case KindNode:
		props := map[string]any{}
		for k, pv := range v.Node.Properties {
			props[k] = toSortedJSON(pv)
		}
		return map[string]any{"label": v.Node.Label, "id": toSortedJSON(v.Node.ID), "properties": props}
	case KindRelationship:
		return relJSON(*v.Rel)
	case KindRelationshipList:
		out := make([]any, len(v.RelList))
		for i, r := range v.RelList {
			out[i] = relJSON(r)
		}
		return out
	case KindPath:
		out := make([]any, len(v.Path.Elements))
		for i, e := range v.Path.Elements {
			out[i] = toSortedJSON(e)
		}
		return out
	}
	return nil
}

func relJSON(r RelationshipRecord) any {
	props := map[string]any{}
	for k, pv := range r.Properties {
		props[k] = toSortedJSON(pv)
	}
	return map[string]any{
		"type": r.Type, "start": toSortedJSON(r.StartNode), "end": toSortedJSON(r.EndNode), "properties": props,
	}
}

// Stringify renders v as a JSON string, the way the built-in stringify()
// function does; tojson(stringify(x)) round-trips per spec.md §8.
func Stringify(v Value) string {
	return string(mustJSON(toSortedJSON(v)))
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return []byte("null")
	}
	return b
}

// FromJSON converts a decoded encoding/json value (as produced by
// json.Unmarshal into an any) into a Value, used by LOAD JSON and the
// built-in tojson() function.
func FromJSON(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case float64:
		if t == float64(int64(t)) {
			return Int(int64(t))
		}
		return Float(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Int(i)
		}
		f, _ := t.Float64()
		return Float(f)
	case string:
		return String(t)
	case []any:
		out := make([]Value, len(t))
		for i, e := range t {
			out[i] = FromJSON(e)
		}
		return Array(out)
	case map[string]any:
		m := NewOrderedMap()
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			m.Set(k, FromJSON(t[k]))
		}
		return Map(m)
	default:
		return Null()
	}
}

// String renders v for display/debugging (CSV cell text, f-string
// interpolation, error messages). It is not the JSON encoding; use
// Stringify for that.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindString:
		return v.Str
	case KindArray:
		parts := make([]string, len(v.Array))
		for i, e := range v.Array {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		parts := make([]string, 0, v.Map.Len())
		for _, k := range v.Map.Keys() {
			mv, _ := v.Map.Get(k)
			parts = append(parts, fmt.Sprintf("%s: %s", k, mv.String()))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindNode:
		return fmt.Sprintf("(:%s)", v.Node.Label)
	case KindRelationship:
		return fmt.Sprintf("[:%s]", v.Rel.Type)
	default:
		return v.TypeName()
	}
}
