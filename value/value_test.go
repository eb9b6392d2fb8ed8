package value

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEqualNumericCoercion(t *testing.T) {
	require.True(t, Equal(Int(2), Float(2.0)))
	require.False(t, Equal(Int(2), Float(2.1)))
}

func TestEqualArraysAndMaps(t *testing.T) {
	a := Array([]Value{Int(1), String("x")})
	b := Array([]Value{Int(1), String("x")})
	require.True(t, Equal(a, b))

	m1 := NewOrderedMap()
	m1.Set("a", Int(1))
	m1.Set("b", Int(2))
	m2 := NewOrderedMap()
	m2.Set("b", Int(2))
	m2.Set("a", Int(1))
	require.True(t, Equal(Map(m1), Map(m2)), "map equality ignores insertion order")
}

func TestRowKeyStableAcrossInsertionOrder(t *testing.T) {
	m1 := NewOrderedMap()
	m1.Set("a", Int(1))
	m1.Set("b", Int(2))
	m2 := NewOrderedMap()
	m2.Set("b", Int(2))
	m2.Set("a", Int(1))
	require.Equal(t, RowKey(Map(m1)), RowKey(Map(m2)))
}

func TestBoolOfTruthiness(t *testing.T) {
	require.False(t, BoolOf(Null()))
	require.False(t, BoolOf(Int(0)))
	require.True(t, BoolOf(Int(1)))
	require.False(t, BoolOf(String("")))
	require.True(t, BoolOf(String("x")))
	require.False(t, BoolOf(Array(nil)))
}

func TestFromJSONIntegerVsFloat(t *testing.T) {
	require.Equal(t, KindInt, FromJSON(float64(3)).Kind)
	require.Equal(t, KindFloat, FromJSON(float64(3.5)).Kind)
}

func TestStringifyRoundTripsThroughFromJSON(t *testing.T) {
	m := NewOrderedMap()
	m.Set("n", Int(1))
	v := Map(m)
	s := Stringify(v)
	require.JSONEq(t, `{"n":1}`, s)
	var raw any
	require.NoError(t, json.Unmarshal([]byte(s), &raw))
	require.True(t, Equal(v, FromJSON(raw)))
}

func TestTypeName(t *testing.T) {
	require.Equal(t, "integer", Int(1).TypeName())
	require.Equal(t, "float", Float(1).TypeName())
	require.Equal(t, "null", Null().TypeName())
	require.Equal(t, "boolean", Bool(true).TypeName())
}
