// Package pipeline interprets the linked ast.Operation chain a parsed
// statement compiles to: With, Unwind, Load, Call, Where, Limit, Return,
// AggregatedReturn, OrderBy, CreateNode, CreateRelationship, Match, Delete.
// It is the single-threaded cooperative engine spec.md §5 describes: row
// flow is strict source order, and the only suspension points are Load's
// HTTP fetch and Call's provider invocation.
package pipeline

import (
	"context"
	"time"

	"github.com/flowquery/flowquery/eval"
	"github.com/flowquery/flowquery/functions"
	"github.com/flowquery/flowquery/graph"
	"github.com/flowquery/flowquery/value"
)

// Fetcher performs the HTTP round trip a LOAD operation needs. Kept as an
// interface so tests can substitute a fake transport without a live socket.
type Fetcher interface {
	Fetch(ctx context.Context, url string, post bool, body string, headers map[string]string) (status int, contentType string, respBody []byte, err error)
}

// Env is the shared, per-query-run state every operation in a chain reads
// from or writes to: the function registry, the graph store/cache/matcher,
// bound parameters, and the HTTP fetcher LOAD uses. One Env is constructed
// per top-level Runner.Run call and threaded into every nested sub-query
// (CREATE VIRTUAL bodies, pattern producers) so a producer is resolved at
// most once across the whole run, per spec.md §4.7/§5.
type Env struct {
	Funcs     *functions.Registry
	Store     *graph.Store
	Cache     *graph.Cache
	Matcher   *graph.Matcher
	Evaluator *eval.Evaluator
	Fetcher   Fetcher
	Params    map[string]value.Value
	Deadline  time.Time // zero value means no deadline
	// Stats accumulates whether any WHERE/LIMIT actually discarded a row
	// across every operation this Env drives (including nested producer
	// sub-queries), for the runner package's QueryStats-style result
	// metadata. Nil disables accumulation.
	Stats *Stats
}

// Stats records whether filtering/limiting had an observable effect during
// a run, independent of the final row count.
type Stats struct {
	Limited  bool
	Filtered bool
}
