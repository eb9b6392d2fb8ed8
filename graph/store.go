// Package graph implements FlowQuery's virtual graph store: the
// process-wide catalog mapping node labels and relationship types to the
// producer sub-queries that supply their records (spec.md §3 "Physical
// store", §4.7, §6), plus the multi-hop pattern matcher (match.go) that
// traverses those records.
package graph

import (
	"context"
	"io"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/flowquery/flowquery/ast"
	"github.com/flowquery/flowquery/functions"
	"github.com/flowquery/flowquery/value"
)

// Executor runs an already-parsed producer sub-query to completion and
// returns its result rows as Map values. The graph package never parses or
// drives a query itself — that is the runner package's job — so Store and
// Cache take an Executor rather than importing runner, which would cycle
// back (runner wires graph's Matcher into the pipeline it drives).
type Executor func(ctx context.Context, q *ast.Query) ([]value.Value, error)

type nodeDef struct {
	Label string
	Body  *ast.Query
}

type relDef struct {
	Type       string
	StartLabel string
	EndLabel   string
	Direction  ast.Direction
	Body       *ast.Query
}

// Store is the process-wide registry of label/type producers. One Store is
// shared by every Runner in a process, matching spec.md §6's "process-wide
// state" rule; registration is mutex-guarded, per spec.md §5's "implementations
// targeting multi-threaded hosts must guard the registry with a mutex."
type Store struct {
	mu    sync.Mutex
	nodes map[string]nodeDef
	rels  map[string]relDef
	log   *logrus.Logger
}

// NewStore returns an empty Store. log may be nil, in which case a silent
// logger is used.
func NewStore(log *logrus.Logger) *Store {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Store{nodes: map[string]nodeDef{}, rels: map[string]relDef{}, log: log}
}

// RegisterNode installs (or replaces) label's node producer. Concurrent
// registration against the same label is last-writer-wins, per spec.md §5.
func (s *Store) RegisterNode(label string, body *ast.Query) {
	s.mu.Lock()
	_, replaced := s.nodes[label]
	s.nodes[label] = nodeDef{Label: label, Body: body}
	s.mu.Unlock()
	s.log.WithFields(logrus.Fields{"label": label, "replaced": replaced}).Info("registered node producer")
}

// RegisterRelationship installs (or replaces) typeName's relationship
// producer.
func (s *Store) RegisterRelationship(typeName, startLabel, endLabel string, dir ast.Direction, body *ast.Query) {
	s.mu.Lock()
	_, replaced := s.rels[typeName]
	s.rels[typeName] = relDef{Type: typeName, StartLabel: startLabel, EndLabel: endLabel, Direction: dir, Body: body}
	s.mu.Unlock()
	s.log.WithFields(logrus.Fields{"type": typeName, "replaced": replaced}).Info("registered relationship producer")
}

func (s *Store) nodeDef(label string) (nodeDef, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.nodes[label]
	return d, ok
}

func (s *Store) relDef(typeName string) (relDef, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.rels[typeName]
	return d, ok
}

// Labels returns every registered node label, and Types every registered
// relationship type, in no particular order; used by schema().
func (s *Store) Labels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.nodes))
	for l := range s.nodes {
		out = append(out, l)
	}
	return out
}

func (s *Store) Types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.rels))
	for t := range s.rels {
		out = append(out, t)
	}
	return out
}

// SchemaRows resolves (and caches, via a scratch Cache) one sample record
// per registered label/type for the schema() introspection function
// (spec.md §6). A fresh Cache is used since schema() is not itself bound
// to any particular query's Runner cache.
func (s *Store) SchemaRows(ctx context.Context, exec Executor) ([]functions.SchemaRow, error) {
	c := NewCache(s, exec)
	var rows []functions.SchemaRow
	for _, label := range s.Labels() {
		ns, err := c.Nodes(ctx, label)
		if err != nil {
			return nil, errors.Wrapf(err, "schema(): resolving label %q", label)
		}
		var sample value.Value
		if len(ns.Records) > 0 {
			sample = stripNodeReserved(ns.Records[0])
		}
		rows = append(rows, functions.SchemaRow{Kind: "node", Label: label, Sample: sample})
	}
	for _, typeName := range s.Types() {
		rs, err := c.Rels(ctx, typeName)
		if err != nil {
			return nil, errors.Wrapf(err, "schema(): resolving type %q", typeName)
		}
		var sample value.Value
		if len(rs.Records) > 0 {
			sample = stripRelReserved(rs.Records[0])
		}
		rows = append(rows, functions.SchemaRow{Kind: "relationship", Type: typeName, Sample: sample})
	}
	return rows, nil
}

func stripNodeReserved(row value.Value) value.Value {
	return stripKeys(row, "id")
}

func stripRelReserved(row value.Value) value.Value {
	return stripKeys(row, "id", "left_id", "right_id")
}

func stripKeys(row value.Value, reserved ...string) value.Value {
	if row.Kind != value.KindMap {
		return row
	}
	skip := make(map[string]bool, len(reserved))
	for _, k := range reserved {
		skip[k] = true
	}
	out := value.NewOrderedMap()
	for _, k := range row.Map.Keys() {
		if skip[k] {
			continue
		}
		v, _ := row.Map.Get(k)
		out.Set(k, v)
	}
	return value.Map(out)
}
