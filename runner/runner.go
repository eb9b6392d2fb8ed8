// Package runner orchestrates a parsed query end to end: parse → initialize
// → run → finish → expose results (spec.md §4.8). It owns the process-wide
// graph store and function registry a host process shares across queries,
// and constructs the per-query pipeline.Env each statement's operation
// chain runs against.
package runner

import (
	"context"
	"io"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/flowquery/flowquery/ast"
	"github.com/flowquery/flowquery/config"
	"github.com/flowquery/flowquery/eval"
	"github.com/flowquery/flowquery/functions"
	"github.com/flowquery/flowquery/graph"
	"github.com/flowquery/flowquery/parser"
	"github.com/flowquery/flowquery/pipeline"
	"github.com/flowquery/flowquery/value"
)

// Stats accompanies a query's result rows with metadata about the run,
// mirroring the QueryStats shape comparable Cypher engines in the
// retrieval pack expose alongside a raw row slice.
type Stats struct {
	RowCount int
	Elapsed  time.Duration
	Limited  bool // a LIMIT/SKIP bounded the row count somewhere in the run
	Filtered bool // a WHERE clause discarded at least one row somewhere in the run
}

// Result is what Run returns: the materialized rows from the query's
// terminal operation(s), plus Stats.
type Result struct {
	Rows  []value.Value
	Stats Stats
}

// Engine holds the process-wide state spec.md §5 calls out explicitly:
// the virtual graph catalog and the function registry persist across every
// query run against the same Engine. One Engine is normally constructed
// per host process.
type Engine struct {
	Store   *graph.Store
	Funcs   *functions.Registry
	Config  config.Config
	Log     *logrus.Logger
	fetcher pipeline.Fetcher
}

// NewEngine builds process-wide state from cfg. funcs defaults to
// functions.Global when nil; log defaults to a silently-discarding logger
// when nil, matching SPEC_FULL.md §2's "default logger is silent" rule.
func NewEngine(cfg config.Config, funcs *functions.Registry, log *logrus.Logger) *Engine {
	if funcs == nil {
		funcs = functions.Global
	}
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	if cfg.DeterministicRand {
		rand.Seed(cfg.RandSeed)
	}
	fetcher := newHTTPFetcher(cfg.MaxResponseBytes)
	fetcher.client.Timeout = cfg.FetchTimeout
	store := graph.NewStore(log)
	e := &Engine{
		Store:   store,
		Funcs:   funcs,
		Config:  cfg,
		Log:     log,
		fetcher: fetcher,
	}
	functions.SetSchemaSource(func(ctx context.Context) ([]functions.SchemaRow, error) {
		scratch := e.newEnv(ctx, nil)
		return store.SchemaRows(ctx, executorFor(scratch))
	})
	return e
}

// executorFor returns a graph.Executor that drives a producer sub-query's
// AST to completion by calling back into pipeline.RunQuery with env — the
// very Env the resulting Cache is attached to, so a CREATE VIRTUAL
// producer's body (or a pattern sub-query) resolves through the same
// Cache as everything else in the run. Each label/type producer still
// executes at most once per top-level Run call, per spec.md §4.7/§5.
func executorFor(env *pipeline.Env) graph.Executor {
	return func(ctx context.Context, q *ast.Query) ([]value.Value, error) {
		return pipeline.RunQuery(ctx, q, env)
	}
}

// newEnv builds a fresh per-run Env wired to this Engine's process-wide
// Store/Funcs, with its own Cache/Matcher/Evaluator so producers resolve
// independently from any concurrently-running query, per spec.md §5's
// per-Runner cache ownership rule.
func (e *Engine) newEnv(ctx context.Context, params map[string]value.Value) *pipeline.Env {
	env := &pipeline.Env{
		Funcs:   e.Funcs,
		Store:   e.Store,
		Fetcher: e.fetcher,
		Params:  params,
		Stats:   &pipeline.Stats{},
	}
	env.Cache = graph.NewCache(e.Store, executorFor(env))
	env.Matcher = graph.NewMatcher(env.Cache)
	env.Evaluator = eval.New(e.Funcs, env.Matcher)
	env.Matcher.SetEvaluator(env.Evaluator)
	env.Matcher.SetContext(ctx)
	return env
}

// Run parses text, executes it against this Engine's process-wide state,
// and returns its materialized rows. A zero deadline means no per-query
// timeout; partial results are discarded on cancellation or timeout,
// per spec.md §4.8.
func (e *Engine) Run(ctx context.Context, text string, params map[string]value.Value, deadline time.Time) (res *Result, err error) {
	start := time.Now()
	if !deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}

	defer func() {
		if p := recover(); p != nil {
			err = errors.Errorf("runner: panic during query execution: %v", p)
		}
	}()

	q, err := parser.New(text).Parse()
	if err != nil {
		e.Log.WithFields(logrus.Fields{"error": err}).Error("query parse failed")
		return nil, errors.Wrap(err, "parsing query")
	}

	env := e.newEnv(ctx, params)
	rows, err := pipeline.RunQuery(ctx, q, env)
	elapsed := time.Since(start)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			e.Log.WithFields(logrus.Fields{"elapsed": elapsed, "error": ctxErr}).Error("query canceled or timed out")
			return nil, errors.Wrap(ctxErr, "query canceled or timed out")
		}
		e.Log.WithFields(logrus.Fields{"elapsed": elapsed, "error": err}).Error("query failed")
		return nil, err
	}

	e.Log.WithFields(logrus.Fields{
		"query":   text,
		"elapsed": elapsed,
		"rows":    len(rows),
	}).Info("query completed")

	return &Result{
		Rows: rows,
		Stats: Stats{
			RowCount: len(rows),
			Elapsed:  elapsed,
			Limited:  env.Stats.Limited,
			Filtered: env.Stats.Filtered,
		},
	}, nil
}
