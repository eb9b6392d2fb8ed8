package format

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowquery/flowquery/value"
)

func TestFormatScalars(t *testing.T) {
	require.Equal(t, "null", String(value.Null(), DefaultOptions))
	require.Equal(t, "true", String(value.Bool(true), DefaultOptions))
	require.Equal(t, "5", String(value.Int(5), DefaultOptions))
	require.Equal(t, `"hi"`, String(value.String("hi"), DefaultOptions))
}

func TestFormatArrayCompact(t *testing.T) {
	arr := value.Array([]value.Value{value.Int(1), value.Int(2)})
	require.Equal(t, "[1,2]", String(arr, DefaultOptions))
}

func TestFormatMapInsertionOrder(t *testing.T) {
	m := value.NewOrderedMap()
	m.Set("b", value.Int(1))
	m.Set("a", value.Int(2))
	require.Equal(t, `{"b":1,"a":2}`, String(value.Map(m), DefaultOptions))
}

func TestFormatMapSortedKeys(t *testing.T) {
	m := value.NewOrderedMap()
	m.Set("b", value.Int(1))
	m.Set("a", value.Int(2))
	require.Equal(t, `{"a":2,"b":1}`, String(value.Map(m), Options{SortKeys: true}))
}

func TestFormatPrettyIndents(t *testing.T) {
	arr := value.Array([]value.Value{value.Int(1)})
	require.Equal(t, "[\n  1\n]", String(arr, Pretty))
}

func TestFormatNode(t *testing.T) {
	n := &value.NodeRecord{Label: "Person", ID: value.Int(1), Properties: map[string]value.Value{"name": value.String("ada")}}
	out := String(value.NodeValue(n), DefaultOptions)
	require.Contains(t, out, `"label":"Person"`)
	require.Contains(t, out, `"id":1`)
}

func TestRowsRendersArrayOfResults(t *testing.T) {
	rows := []value.Value{value.Int(1), value.Int(2)}
	require.Equal(t, "[1,2]", Rows(rows, DefaultOptions))
}
