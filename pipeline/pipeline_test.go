package pipeline

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/flowquery/flowquery/ast"
	"github.com/flowquery/flowquery/eval"
	"github.com/flowquery/flowquery/functions"
	"github.com/flowquery/flowquery/graph"
	"github.com/flowquery/flowquery/parser"
	"github.com/flowquery/flowquery/value"
)

func newEnv() *Env {
	log := logrus.New()
	log.SetOutput(io.Discard)
	store := graph.NewStore(log)
	env := &Env{Funcs: functions.Global, Store: store, Stats: &Stats{}}
	env.Cache = graph.NewCache(store, executorFor(env))
	env.Matcher = graph.NewMatcher(env.Cache)
	env.Evaluator = eval.New(functions.Global, env.Matcher)
	env.Matcher.SetEvaluator(env.Evaluator)
	env.Matcher.SetContext(context.Background())
	return env
}

func executorFor(env *Env) graph.Executor {
	return func(ctx context.Context, q *ast.Query) ([]value.Value, error) {
		return RunQuery(ctx, q, env)
	}
}

// run parses text and executes it against a fresh Env.
func run(t *testing.T, text string) []value.Value {
	t.Helper()
	q, err := parser.New(text).Parse()
	require.NoError(t, err)
	rows, err := RunQuery(context.Background(), q, newEnv())
	require.NoError(t, err)
	return rows
}

func TestReturnLiteral(t *testing.T) {
	rows := run(t, "RETURN 1 AS x")
	require.Len(t, rows, 1)
	v, _ := rows[0].Map.Get("x")
	require.Equal(t, int64(1), v.Int)
}

func TestDistinctReturnDedups(t *testing.T) {
	rows := run(t, "UNWIND [1, 1, 2] AS n RETURN DISTINCT n")
	require.Len(t, rows, 2)
}

func TestOrderByDescending(t *testing.T) {
	rows := run(t, "UNWIND [3, 1, 2] AS n RETURN n ORDER BY n DESC")
	require.Len(t, rows, 3)
	first, _ := rows[0].Map.Get("n")
	require.Equal(t, int64(3), first.Int)
}

func TestWithChainsProjection(t *testing.T) {
	rows := run(t, "WITH 1 AS a WITH a + 1 AS b RETURN b")
	require.Len(t, rows, 1)
	v, _ := rows[0].Map.Get("b")
	require.Equal(t, int64(2), v.Int)
}

func TestLimitSkip(t *testing.T) {
	rows := run(t, "UNWIND range(1, 5) AS n RETURN n SKIP 1 LIMIT 2")
	require.Len(t, rows, 2)
	first, _ := rows[0].Map.Get("n")
	require.Equal(t, int64(2), first.Int)
}

func TestDeleteReportsCount(t *testing.T) {
	env := newEnv()
	create, err := parser.New(`CREATE VIRTUAL (:Thing) AS { UNWIND range(1, 2) AS i RETURN i AS id }`).Parse()
	require.NoError(t, err)
	_, err = RunQuery(context.Background(), create, env)
	require.NoError(t, err)
	q, err := parser.New(`MATCH (t:Thing) DELETE t`).Parse()
	require.NoError(t, err)
	rows, err := RunQuery(context.Background(), q, env)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	v, _ := rows[0].Map.Get("deleted")
	require.Equal(t, int64(2), v.Int)
}

func TestUnionColumnMismatchErrors(t *testing.T) {
	q, err := parser.New("RETURN 1 AS x UNION RETURN 2 AS y").Parse()
	require.NoError(t, err)
	_, err = RunQuery(context.Background(), q, newEnv())
	require.Error(t, err)
}

func TestUnionDeduplicatesRows(t *testing.T) {
	q, err := parser.New("RETURN 1 AS x UNION RETURN 1 AS x UNION RETURN 2 AS x").Parse()
	require.NoError(t, err)
	rows, err := RunQuery(context.Background(), q, newEnv())
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

type fakeFetcher struct {
	status      int
	contentType string
	body        []byte
}

func (f fakeFetcher) Fetch(ctx context.Context, url string, post bool, body string, headers map[string]string) (int, string, []byte, error) {
	return f.status, f.contentType, f.body, nil
}

func TestLoadDecodesJSONArray(t *testing.T) {
	env := newEnv()
	env.Fetcher = fakeFetcher{status: 200, contentType: "application/json", body: []byte(`[{"id":1},{"id":2}]`)}
	q, err := parser.New(`LOAD JSON FROM "http://example.invalid/data" AS row RETURN row.id AS id`).Parse()
	require.NoError(t, err)
	rows, err := RunQuery(context.Background(), q, env)
	require.NoError(t, err)
	require.Len(t, rows, 2)
}
