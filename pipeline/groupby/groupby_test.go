package groupby

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowquery/flowquery/functions"
	"github.com/flowquery/flowquery/value"
)

func specFor(t *testing.T, name string, distinct bool) AggSpec {
	t.Helper()
	entry, ok := functions.Global.Lookup(name)
	require.True(t, ok, "function %q not registered", name)
	return AggSpec{New: entry.NewAggregate, Distinct: distinct}
}

func TestEngineGroupsByKeyAndSums(t *testing.T) {
	e := New([]AggSpec{specFor(t, "sum", false)})
	require.NoError(t, e.Add([]value.Value{value.String("a")}, []value.Value{value.Int(1)}))
	require.NoError(t, e.Add([]value.Value{value.String("a")}, []value.Value{value.Int(2)}))
	require.NoError(t, e.Add([]value.Value{value.String("b")}, []value.Value{value.Int(5)}))

	results := e.Results()
	require.Len(t, results, 2)
	require.Equal(t, "a", results[0][0].Str)
	require.Equal(t, int64(3), results[0][1].Int)
	require.Equal(t, "b", results[1][0].Str)
	require.Equal(t, int64(5), results[1][1].Int)
}

func TestEnginePreservesFirstSeenOrder(t *testing.T) {
	e := New([]AggSpec{specFor(t, "count", false)})
	require.NoError(t, e.Add([]value.Value{value.String("z")}, []value.Value{value.Int(1)}))
	require.NoError(t, e.Add([]value.Value{value.String("a")}, []value.Value{value.Int(1)}))
	require.NoError(t, e.Add([]value.Value{value.String("z")}, []value.Value{value.Int(1)}))

	results := e.Results()
	require.Len(t, results, 2)
	require.Equal(t, "z", results[0][0].Str)
	require.Equal(t, "a", results[1][0].Str)
}

func TestEngineDistinctFoldsRepeatedValues(t *testing.T) {
	e := New([]AggSpec{specFor(t, "count", true)})
	require.NoError(t, e.Add([]value.Value{value.String("a")}, []value.Value{value.Int(7)}))
	require.NoError(t, e.Add([]value.Value{value.String("a")}, []value.Value{value.Int(7)}))
	require.NoError(t, e.Add([]value.Value{value.String("a")}, []value.Value{value.Int(8)}))

	results := e.Results()
	require.Len(t, results, 1)
	require.Equal(t, int64(2), results[0][1].Int)
}

func TestEngineMultipleKeyColumns(t *testing.T) {
	e := New([]AggSpec{specFor(t, "count", false)})
	require.NoError(t, e.Add([]value.Value{value.String("a"), value.Int(1)}, []value.Value{value.Int(1)}))
	require.NoError(t, e.Add([]value.Value{value.String("a"), value.Int(2)}, []value.Value{value.Int(1)}))

	results := e.Results()
	require.Len(t, results, 2)
	require.Len(t, results[0], 3)
}

func TestEngineAddPropagatesAggregateTypeMismatch(t *testing.T) {
	e := New([]AggSpec{specFor(t, "sum", false)})
	require.NoError(t, e.Add([]value.Value{value.String("a")}, []value.Value{value.Int(1)}))
	require.Error(t, e.Add([]value.Value{value.String("a")}, []value.Value{value.String("x")}))
}
