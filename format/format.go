// Package format renders FlowQuery result values as JSON text, adapted
// from machparse's Formatter: a buffered, switch-dispatched writer
// configured by an Options value, with a String(...) convenience wrapper
// around New(...).Format(...).
package format

import (
	"bytes"
	"sort"
	"strconv"

	"github.com/flowquery/flowquery/value"
)

// Options controls how a Value is rendered.
type Options struct {
	// Indent is repeated per nesting level for pretty output; the empty
	// string renders compact, single-line JSON.
	Indent string
	// SortKeys renders map entries in sorted-key order instead of
	// insertion order, matching the "fix the serialization order (sorted
	// keys)" resolution spec.md names for collect(distinct {...}).
	SortKeys bool
}

// DefaultOptions render compact JSON in insertion-key order, the shape a
// query result's rows are naturally produced in.
var DefaultOptions = Options{}

// Pretty renders two-space-indented JSON in insertion-key order;
// cmd/flowquery uses it when --pretty is given.
var Pretty = Options{Indent: "  "}

// Formatter accumulates rendered output in an internal buffer.
type Formatter struct {
	buf   bytes.Buffer
	opts  Options
	depth int
}

// New returns a Formatter configured by opts.
func New(opts Options) *Formatter {
	return &Formatter{opts: opts}
}

// String renders v to a JSON string using opts.
func String(v value.Value, opts Options) string {
	f := New(opts)
	f.Format(v)
	return f.buf.String()
}

// Format writes v's JSON rendering to f's internal buffer.
func (f *Formatter) Format(v value.Value) {
	switch v.Kind {
	case value.KindNull:
		f.write("null")
	case value.KindBool:
		f.write(strconv.FormatBool(v.Bool))
	case value.KindInt:
		f.write(strconv.FormatInt(v.Int, 10))
	case value.KindFloat:
		f.write(strconv.FormatFloat(v.Float, 'g', -1, 64))
	case value.KindString:
		f.writeQuoted(v.Str)
	case value.KindArray:
		f.formatArray(v.Array)
	case value.KindMap:
		f.formatMap(v.Map)
	case value.KindNode:
		f.formatNode(v.Node)
	case value.KindRelationship:
		f.formatRelationship(v.Rel)
	case value.KindRelationshipList:
		f.formatRelationshipList(v.RelList)
	case value.KindPath:
		f.formatArray(v.Path.Elements)
	default:
		f.write("null")
	}
}

func (f *Formatter) formatArray(elems []value.Value) {
	f.write("[")
	f.depth++
	for i, el := range elems {
		if i > 0 {
			f.write(",")
		}
		f.newline()
		f.Format(el)
	}
	f.depth--
	if len(elems) > 0 {
		f.newline()
	}
	f.write("]")
}

func (f *Formatter) formatMap(m *value.OrderedMap) {
	keys := m.Keys()
	if f.opts.SortKeys {
		keys = append([]string{}, keys...)
		sort.Strings(keys)
	}
	f.write("{")
	f.depth++
	for i, k := range keys {
		if i > 0 {
			f.write(",")
		}
		f.newline()
		f.writeQuoted(k)
		f.write(":")
		if f.opts.Indent != "" {
			f.write(" ")
		}
		v, _ := m.Get(k)
		f.Format(v)
	}
	f.depth--
	if len(keys) > 0 {
		f.newline()
	}
	f.write("}")
}

func (f *Formatter) formatNode(n *value.NodeRecord) {
	m := value.NewOrderedMap()
	m.Set("label", value.String(n.Label))
	m.Set("id", n.ID)
	props := value.NewOrderedMap()
	for k, v := range n.Properties {
		props.Set(k, v)
	}
	m.Set("properties", value.Map(props))
	f.formatMap(m)
}

func (f *Formatter) formatRelationship(r *value.RelationshipRecord) {
	m := value.NewOrderedMap()
	m.Set("type", value.String(r.Type))
	m.Set("start", r.StartNode)
	m.Set("end", r.EndNode)
	props := value.NewOrderedMap()
	for k, v := range r.Properties {
		props.Set(k, v)
	}
	m.Set("properties", value.Map(props))
	f.formatMap(m)
}

func (f *Formatter) formatRelationshipList(rs []value.RelationshipRecord) {
	elems := make([]value.Value, len(rs))
	for i := range rs {
		elems[i] = value.RelationshipValue(&rs[i])
	}
	f.formatArray(elems)
}

func (f *Formatter) write(s string) {
	f.buf.WriteString(s)
}

func (f *Formatter) writeQuoted(s string) {
	f.buf.WriteString(strconv.Quote(s))
}

func (f *Formatter) newline() {
	if f.opts.Indent == "" {
		return
	}
	f.buf.WriteString("\n")
	for i := 0; i < f.depth; i++ {
		f.buf.WriteString(f.opts.Indent)
	}
}

// Rows renders a slice of result values as a single JSON array, the shape
// cmd/flowquery prints for a completed query.
func Rows(rows []value.Value, opts Options) string {
	f := New(opts)
	f.formatArray(rows)
	return f.buf.String()
}
