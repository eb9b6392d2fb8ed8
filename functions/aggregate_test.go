package functions

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowquery/flowquery/value"
)

func reduceAll(t *testing.T, a Aggregate, vs ...value.Value) value.Value {
	t.Helper()
	for _, v := range vs {
		require.NoError(t, a.Reduce(v))
	}
	return a.Result()
}

func TestSumAddsNumbers(t *testing.T) {
	v := reduceAll(t, &sumAgg{}, value.Int(1), value.Null(), value.Int(2))
	require.Equal(t, int64(3), v.Int)
}

func TestSumPromotesToFloatOnAnyFloat(t *testing.T) {
	v := reduceAll(t, &sumAgg{}, value.Int(1), value.Float(1.5))
	require.Equal(t, value.KindFloat, v.Kind)
	require.InDelta(t, 2.5, v.Float, 0.0001)
}

func TestSumConcatenatesStrings(t *testing.T) {
	v := reduceAll(t, &sumAgg{}, value.String("a"), value.Null(), value.String("b"), value.String("c"))
	require.Equal(t, value.KindString, v.Kind)
	require.Equal(t, "abc", v.Str)
}

func TestSumErrorsOnMixedTypes(t *testing.T) {
	a := &sumAgg{}
	require.NoError(t, a.Reduce(value.Int(1)))
	require.Error(t, a.Reduce(value.String("x")))
}

func TestSumErrorsOnUnsupportedType(t *testing.T) {
	a := &sumAgg{}
	require.Error(t, a.Reduce(value.Bool(true)))
}

func TestAvgIgnoresNullCountAndReturnsNullWhenEmpty(t *testing.T) {
	v := reduceAll(t, &avgAgg{}, value.Null())
	require.True(t, v.IsNull())
}

func TestAvgErrorsOnNonNumeric(t *testing.T) {
	a := &avgAgg{}
	require.Error(t, a.Reduce(value.String("x")))
}

func TestCountSkipsNullsByDefault(t *testing.T) {
	v := reduceAll(t, &countAgg{}, value.Int(1), value.Null(), value.Int(2))
	require.Equal(t, int64(2), v.Int)
}

func TestCountStarCountsNulls(t *testing.T) {
	v := reduceAll(t, NewCountStar(), value.Int(1), value.Null())
	require.Equal(t, int64(2), v.Int)
}

func TestMinMax(t *testing.T) {
	vals := []value.Value{value.Int(3), value.Int(1), value.Int(2)}
	require.Equal(t, int64(1), reduceAll(t, &minAgg{}, vals...).Int)
	require.Equal(t, int64(3), reduceAll(t, &maxAgg{}, vals...).Int)
}

func TestCollectSkipsNulls(t *testing.T) {
	v := reduceAll(t, &collectAgg{}, value.Int(1), value.Null(), value.Int(2))
	require.Len(t, v.Array, 2)
}

func TestDistinctDeduplicatesByValue(t *testing.T) {
	d := NewDistinct(&sumAgg{})
	v := reduceAll(t, d, value.Int(5), value.Int(5), value.Int(5))
	require.Equal(t, int64(5), v.Int)
}

func TestDistinctPropagatesReduceError(t *testing.T) {
	d := NewDistinct(&sumAgg{})
	require.NoError(t, d.Reduce(value.Int(1)))
	require.Error(t, d.Reduce(value.String("x")))
}
