package functions

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowquery/flowquery/value"
)

func callOK(t *testing.T, name string, args ...value.Value) value.Value {
	t.Helper()
	v, err := Global.CallScalar(name, args)
	require.NoError(t, err)
	return v
}

func TestRangeInclusiveDefaultStep(t *testing.T) {
	v := callOK(t, "range", value.Int(1), value.Int(3))
	require.Equal(t, []value.Value{value.Int(1), value.Int(2), value.Int(3)}, v.Array)
}

func TestSizeAcrossKinds(t *testing.T) {
	require.Equal(t, int64(3), callOK(t, "size", value.Array([]value.Value{value.Int(1), value.Int(2), value.Int(3)})).Int)
	require.Equal(t, int64(5), callOK(t, "size", value.String("hello")).Int)
}

func TestSplitJoinRoundTrip(t *testing.T) {
	split := callOK(t, "split", value.String("a,b,c"), value.String(","))
	joined := callOK(t, "join", split, value.String("-"))
	require.Equal(t, "a-b-c", joined.Str)
}

func TestReplace(t *testing.T) {
	v := callOK(t, "replace", value.String("hello world"), value.String("world"), value.String("there"))
	require.Equal(t, "hello there", v.Str)
}

func TestTypeOnRelationshipReturnsItsType(t *testing.T) {
	rel := value.RelationshipValue(&value.RelationshipRecord{Type: "KNOWS"})
	require.Equal(t, "KNOWS", callOK(t, "type", rel).Str)
	require.Equal(t, "integer", callOK(t, "type", value.Int(1)).Str)
}

func TestToIntegerFromStringAndFloat(t *testing.T) {
	require.Equal(t, int64(42), callOK(t, "tointeger", value.String("42")).Int)
	require.Equal(t, int64(3), callOK(t, "tointeger", value.Float(3.9)).Int)
}

func TestHeadLastEmptyArray(t *testing.T) {
	empty := value.Array(nil)
	require.True(t, callOK(t, "head", empty).IsNull())
	require.True(t, callOK(t, "last", empty).IsNull())
}

func TestRoundWithPrecision(t *testing.T) {
	v := callOK(t, "round", value.Float(3.14159), value.Int(2))
	require.InDelta(t, 3.14, v.Float, 0.0001)
}

func TestStringifyToJSONRoundTrip(t *testing.T) {
	m := value.NewOrderedMap()
	m.Set("a", value.Int(1))
	original := value.Map(m)
	s := callOK(t, "stringify", original)
	back := callOK(t, "tojson", s)
	require.True(t, value.Equal(original, back))
}

func TestCoalesceSkipsNulls(t *testing.T) {
	v := callOK(t, "coalesce", value.Null(), value.Null(), value.String("x"))
	require.Equal(t, "x", v.Str)
}

func TestSubstring(t *testing.T) {
	require.Equal(t, "ell", callOK(t, "substring", value.String("hello"), value.Int(1), value.Int(3)).Str)
	require.Equal(t, "ello", callOK(t, "substring", value.String("hello"), value.Int(1)).Str)
}

func TestStringDistance(t *testing.T) {
	require.Equal(t, int64(3), callOK(t, "string_distance", value.String("kitten"), value.String("sitting")).Int)
	require.Equal(t, int64(0), callOK(t, "string_distance", value.String("same"), value.String("same")).Int)
}

func TestIDRequiresNode(t *testing.T) {
	node := value.NodeValue(&value.NodeRecord{Label: "Person", ID: value.Int(7)})
	require.Equal(t, int64(7), callOK(t, "id", node).Int)
	_, err := Global.CallScalar("id", []value.Value{value.Int(1)})
	require.Error(t, err)
}

func TestNodesExtractsEvenPathElements(t *testing.T) {
	n1 := value.NodeValue(&value.NodeRecord{Label: "A", ID: value.Int(1)})
	n2 := value.NodeValue(&value.NodeRecord{Label: "B", ID: value.Int(2)})
	rel := value.RelationshipValue(&value.RelationshipRecord{Type: "T"})
	path := value.PathValue(&value.PathRecord{Elements: []value.Value{n1, rel, n2}})
	v := callOK(t, "nodes", path)
	require.Len(t, v.Array, 2)
}

func TestDurationParsesGoStyleString(t *testing.T) {
	v := callOK(t, "duration", value.String("1h30m"))
	require.InDelta(t, 5400.0, v.Float, 0.01)
}
