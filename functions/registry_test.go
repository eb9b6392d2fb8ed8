package functions

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowquery/flowquery/value"
)

func TestRegistryLookupCaseInsensitive(t *testing.T) {
	r := NewRegistry()
	r.Register(&Entry{Name: "Foo", Kind: KindScalar, Scalar: func(args []value.Value) (value.Value, error) {
		return value.Int(1), nil
	}})
	_, ok := r.Lookup("FOO")
	require.True(t, ok)
	_, ok = r.Lookup("foo")
	require.True(t, ok)
}

func TestRegistryPluginOverridesBuiltin(t *testing.T) {
	r := NewRegistry()
	r.Register(&Entry{Name: "double", Kind: KindScalar, Scalar: func(args []value.Value) (value.Value, error) {
		return value.Int(args[0].Int * 2), nil
	}})
	r.Register(&Entry{Name: "double", Kind: KindScalar, Scalar: func(args []value.Value) (value.Value, error) {
		return value.Int(args[0].Int * 3), nil
	}})
	v, err := r.CallScalar("double", []value.Value{value.Int(5)})
	require.NoError(t, err)
	require.Equal(t, int64(15), v.Int)
}

func TestCallScalarUnknownFunction(t *testing.T) {
	r := NewRegistry()
	_, err := r.CallScalar("nope", nil)
	require.Error(t, err)
}

func TestCallScalarRejectsNonScalarKind(t *testing.T) {
	r := NewRegistry()
	r.Register(&Entry{Name: "acc", Kind: KindAggregate, NewAggregate: func() Aggregate { return &countAgg{} }})
	_, err := r.CallScalar("acc", nil)
	require.Error(t, err)
}

func TestListFiltersByCategory(t *testing.T) {
	r := NewRegistry()
	r.Register(&Entry{Name: "a", Category: "math"})
	r.Register(&Entry{Name: "b", Category: "string"})
	require.Len(t, r.List("math"), 1)
	require.Len(t, r.List(""), 2)
}

func TestGlobalRegistryHasBuiltins(t *testing.T) {
	_, ok := Global.Lookup("range")
	require.True(t, ok)
	_, ok = Global.Lookup("sum")
	require.True(t, ok)
	_, ok = Global.Lookup("all")
	require.True(t, ok)
	_, ok = Global.Lookup("schema")
	require.True(t, ok)
}
