package graph

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/flowquery/flowquery/ast"
	"github.com/flowquery/flowquery/value"
)

// NodeSet is the resolved, indexed record set for one label: the producer's
// result rows, each a Map value carrying `id` plus arbitrary properties, and
// an index from id to its position in Records (spec.md §4.7 "Data
// acquisition").
type NodeSet struct {
	Label   string
	Records []value.Value
	ByID    map[string]int
}

// RelSet is the resolved, dual-indexed record set for one relationship
// type: forward (`left_id`) and reverse (`right_id`) indexes into Records,
// each mapping to every matching edge's position (a producer may emit
// parallel edges between the same pair).
type RelSet struct {
	Type       string
	StartLabel string
	EndLabel   string
	Direction  ast.Direction
	Records    []value.Value
	Forward    map[string][]int // left_id -> indices
	Reverse    map[string][]int // right_id -> indices
}

// Cache owns one Runner's resolved node/relationship sets: producers are
// executed at most once per Cache (spec.md §4.7 "executed exactly once per
// query (cached on first use)"; §5 "per-query cache with per-Runner
// ownership"). A Cache is not safe for concurrent use by more than one
// goroutine, matching the single-threaded-cooperative model of spec.md §5.
type Cache struct {
	store *Store
	exec  Executor

	mu       sync.Mutex
	nodeSets map[string]*NodeSet
	relSets  map[string]*RelSet
}

// NewCache returns a Cache backed by store, executing producer bodies via
// exec on first reference to a label/type.
func NewCache(store *Store, exec Executor) *Cache {
	return &Cache{store: store, exec: exec, nodeSets: map[string]*NodeSet{}, relSets: map[string]*RelSet{}}
}

// Nodes resolves label's NodeSet, executing its producer on first call.
func (c *Cache) Nodes(ctx context.Context, label string) (*NodeSet, error) {
	c.mu.Lock()
	if ns, ok := c.nodeSets[label]; ok {
		c.mu.Unlock()
		return ns, nil
	}
	c.mu.Unlock()

	def, ok := c.store.nodeDef(label)
	if !ok {
		return nil, errors.Errorf("no node producer registered for label %q", label)
	}
	rows, err := c.exec(ctx, def.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "executing node producer for label %q", label)
	}
	ns := &NodeSet{Label: label, ByID: map[string]int{}}
	for _, row := range rows {
		if row.Kind != value.KindMap {
			return nil, errors.Errorf("node producer for label %q emitted a non-map record", label)
		}
		id, ok := row.Map.Get("id")
		if !ok {
			// A producer used only to test pattern existence (no MATCH ever
			// projects its id) may reasonably omit one; synthesize a
			// per-process-run identity rather than failing the statement.
			id = value.String(uuid.NewString())
			row.Map.Set("id", id)
		}
		ns.ByID[value.RowKey(id)] = len(ns.Records)
		ns.Records = append(ns.Records, row)
	}

	c.mu.Lock()
	c.nodeSets[label] = ns
	c.mu.Unlock()
	return ns, nil
}

// Rels resolves typeName's RelSet, executing its producer on first call.
func (c *Cache) Rels(ctx context.Context, typeName string) (*RelSet, error) {
	c.mu.Lock()
	if rs, ok := c.relSets[typeName]; ok {
		c.mu.Unlock()
		return rs, nil
	}
	c.mu.Unlock()

	def, ok := c.store.relDef(typeName)
	if !ok {
		return nil, errors.Errorf("no relationship producer registered for type %q", typeName)
	}
	rows, err := c.exec(ctx, def.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "executing relationship producer for type %q", typeName)
	}
	rs := &RelSet{
		Type: typeName, StartLabel: def.StartLabel, EndLabel: def.EndLabel, Direction: def.Direction,
		Forward: map[string][]int{}, Reverse: map[string][]int{},
	}
	for _, row := range rows {
		if row.Kind != value.KindMap {
			return nil, errors.Errorf("relationship producer for type %q emitted a non-map record", typeName)
		}
		left, ok := row.Map.Get("left_id")
		if !ok {
			return nil, errors.Errorf("relationship producer for type %q emitted a record without left_id", typeName)
		}
		right, ok := row.Map.Get("right_id")
		if !ok {
			return nil, errors.Errorf("relationship producer for type %q emitted a record without right_id", typeName)
		}
		idx := len(rs.Records)
		rs.Records = append(rs.Records, row)
		lk, rk := value.RowKey(left), value.RowKey(right)
		rs.Forward[lk] = append(rs.Forward[lk], idx)
		rs.Reverse[rk] = append(rs.Reverse[rk], idx)
	}

	c.mu.Lock()
	c.relSets[typeName] = rs
	c.mu.Unlock()
	return rs, nil
}

func nodeRecord(label string, row value.Value) *value.NodeRecord {
	id, _ := row.Map.Get("id")
	props := map[string]value.Value{}
	for _, k := range row.Map.Keys() {
		if k == "id" {
			continue
		}
		v, _ := row.Map.Get(k)
		props[k] = v
	}
	return &value.NodeRecord{Label: label, ID: id, Properties: props}
}

func relRecord(typeName string, row value.Value, start, end value.Value) *value.RelationshipRecord {
	props := map[string]value.Value{}
	for _, k := range row.Map.Keys() {
		if k == "left_id" || k == "right_id" {
			continue
		}
		v, _ := row.Map.Get(k)
		props[k] = v
	}
	return &value.RelationshipRecord{Type: typeName, StartNode: start, EndNode: end, Properties: props}
}
