package functions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowquery/flowquery/value"
)

func TestFunctionsProviderFiltersByCategory(t *testing.T) {
	r := NewRegistry()
	registerScalars(r)
	registerProviders(r)

	var rows []value.Value
	err := r.CallProvider(context.Background(), "functions", []value.Value{value.String("math")}, func(v value.Value) error {
		rows = append(rows, v)
		return nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	for _, row := range rows {
		cat, ok := row.Map.Get("category")
		require.True(t, ok)
		require.Equal(t, "math", cat.Str)
	}
}

func TestSchemaProviderEmptyWithoutSource(t *testing.T) {
	r := NewRegistry()
	registerProviders(r)
	var rows []value.Value
	err := r.CallProvider(context.Background(), "schema", nil, func(v value.Value) error {
		rows = append(rows, v)
		return nil
	})
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestSchemaProviderUsesWiredSource(t *testing.T) {
	SetSchemaSource(func(ctx context.Context) ([]SchemaRow, error) {
		return []SchemaRow{{Kind: "node", Label: "Person", Sample: value.Null()}}, nil
	})
	t.Cleanup(func() { SetSchemaSource(nil) })

	var rows []value.Value
	err := Global.CallProvider(context.Background(), "schema", nil, func(v value.Value) error {
		rows = append(rows, v)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	kind, _ := rows[0].Map.Get("kind")
	require.Equal(t, "node", kind.Str)
}

func TestCallProviderUnknownName(t *testing.T) {
	r := NewRegistry()
	err := r.CallProvider(context.Background(), "nope", nil, func(value.Value) error { return nil })
	require.Error(t, err)
}
