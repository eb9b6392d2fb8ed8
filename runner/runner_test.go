package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/flowquery/flowquery/config"
	"github.com/flowquery/flowquery/value"
)

func newTestEngine() *Engine {
	return NewEngine(config.Default(), nil, nil)
}

func TestRunSimpleReturn(t *testing.T) {
	eng := newTestEngine()
	res, err := eng.Run(context.Background(), "RETURN 1 AS x, 2 AS y", nil, time.Time{})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	require.Equal(t, 1, res.Stats.RowCount)
}

func TestRunUnwindAndWhere(t *testing.T) {
	eng := newTestEngine()
	res, err := eng.Run(context.Background(),
		"UNWIND range(1, 5) AS n WHERE n > 2 RETURN n", nil, time.Time{})
	require.NoError(t, err)
	require.Len(t, res.Rows, 3)
	require.True(t, res.Stats.Filtered)
}

func TestRunLimitSetsStats(t *testing.T) {
	eng := newTestEngine()
	res, err := eng.Run(context.Background(),
		"UNWIND range(1, 10) AS n RETURN n LIMIT 3", nil, time.Time{})
	require.NoError(t, err)
	require.Len(t, res.Rows, 3)
	require.True(t, res.Stats.Limited)
}

func TestRunAggregateCount(t *testing.T) {
	eng := newTestEngine()
	res, err := eng.Run(context.Background(),
		"UNWIND range(1, 4) AS n RETURN count(n) AS total", nil, time.Time{})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	m := res.Rows[0].Map
	total, ok := m.Get("total")
	require.True(t, ok)
	require.Equal(t, int64(4), total.Int)
}

func TestRunParamsBinding(t *testing.T) {
	eng := newTestEngine()
	params := map[string]value.Value{"name": value.String("ada")}
	res, err := eng.Run(context.Background(), "RETURN $name AS name", params, time.Time{})
	require.NoError(t, err)
	require.Equal(t, "ada", mustGet(t, res.Rows[0], "name").Str)
}

func TestRunUnionDeduplicates(t *testing.T) {
	eng := newTestEngine()
	res, err := eng.Run(context.Background(),
		"RETURN 1 AS x UNION RETURN 1 AS x UNION RETURN 2 AS x", nil, time.Time{})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
}

func TestRunUnionAllKeepsDuplicates(t *testing.T) {
	eng := newTestEngine()
	res, err := eng.Run(context.Background(),
		"RETURN 1 AS x UNION ALL RETURN 1 AS x", nil, time.Time{})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
}

func TestRunVirtualNodeAndMatch(t *testing.T) {
	eng := newTestEngine()
	_, err := eng.Run(context.Background(),
		`CREATE VIRTUAL (:Person) AS { UNWIND range(1, 3) AS i RETURN i AS id, i AS age }`, nil, time.Time{})
	require.NoError(t, err)
	query := `MATCH (p:Person) WHERE p.age > 1 RETURN p.id AS id ORDER BY id`
	res, err := eng.Run(context.Background(), query, nil, time.Time{})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	require.Equal(t, int64(2), mustGet(t, res.Rows[0], "id").Int)
	require.Equal(t, int64(3), mustGet(t, res.Rows[1], "id").Int)
}

func TestRunParseErrorWrapped(t *testing.T) {
	eng := newTestEngine()
	_, err := eng.Run(context.Background(), "RETURN (", nil, time.Time{})
	require.Error(t, err)
}

func TestRunDeadlineExceeded(t *testing.T) {
	eng := newTestEngine()
	past := time.Now().Add(-time.Second)
	_, err := eng.Run(context.Background(), "RETURN 1 AS x", nil, past)
	require.Error(t, err)
}

func mustGet(t *testing.T, row value.Value, key string) value.Value {
	t.Helper()
	v, ok := row.Map.Get(key)
	require.True(t, ok, "missing key %q", key)
	return v
}
