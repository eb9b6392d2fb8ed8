package functions

import (
	"context"

	"github.com/flowquery/flowquery/value"
)

// Provider streams values by invoking yield once per produced item. It runs
// synchronously on the calling goroutine: spec.md §5's single-threaded
// cooperative model suspends only at an I/O boundary inside the Provider
// call itself (an HTTP round trip, a blocked read), never via channels or
// extra goroutines, so Load and Call can drive it with a plain function
// call and propagate ctx cancellation to whatever the Provider blocks on.
type Provider func(ctx context.Context, args []value.Value, yield func(value.Value) error) error

// CallProvider looks up name and drives its Provider, returning an error if
// name is not registered or is not a provider function.
func (r *Registry) CallProvider(ctx context.Context, name string, args []value.Value, yield func(value.Value) error) error {
	e, ok := r.Lookup(name)
	if !ok {
		return providerError(name, "is not registered")
	}
	if e.Kind != KindProvider {
		return providerError(name, "is not an async provider function")
	}
	return e.Provider(ctx, args, yield)
}

func providerError(name, msg string) error {
	return &providerErr{name: name, msg: msg}
}

type providerErr struct {
	name, msg string
}

func (e *providerErr) Error() string { return e.name + "() " + e.msg }

// SchemaRow is one row schema() yields: a registered node label or
// relationship type, with a representative sample record (id/left_id/
// right_id already stripped by the caller per spec.md §6). Label is set
// for Kind "node", Type for Kind "relationship"; the other is empty,
// matching the four-column `CALL schema() YIELD kind, label, type, sample`
// surface spec.md §6 names.
type SchemaRow struct {
	Kind   string // "node" or "relationship"
	Label  string
	Type   string
	Sample value.Value
}

// schemaSource is set by the graph package once it constructs its store, so
// schema() can enumerate registered labels/types without functions
// importing graph (which would need functions for its own pattern-
// expression scalar evaluation, creating an import cycle).
var schemaSource func(ctx context.Context) ([]SchemaRow, error)

// SetSchemaSource wires the graph package's catalog into the schema()
// introspection function.
func SetSchemaSource(f func(ctx context.Context) ([]SchemaRow, error)) {
	schemaSource = f
}

func registerProviders(r *Registry) {
	r.Register(&Entry{
		Name: "functions", Kind: KindProvider, Category: "introspection",
		Description: "yields one row per registered function, optionally filtered to a category",
		Params:      []string{"category?"}, Returns: "map",
		Provider: func(_ context.Context, args []value.Value, yield func(value.Value) error) error {
			category := ""
			if len(args) > 0 && args[0].Kind == value.KindString {
				category = args[0].Str
			}
			for _, e := range r.List(category) {
				if err := yield(entryRow(e)); err != nil {
					return err
				}
			}
			return nil
		},
	})
	r.Register(&Entry{
		Name: "schema", Kind: KindProvider, Category: "introspection",
		Description: "yields one row per registered node label or relationship type with a sample record",
		Returns:     "map",
		Provider: func(ctx context.Context, _ []value.Value, yield func(value.Value) error) error {
			if schemaSource == nil {
				return nil
			}
			rows, err := schemaSource(ctx)
			if err != nil {
				return err
			}
			for _, row := range rows {
				m := value.NewOrderedMap()
				m.Set("kind", value.String(row.Kind))
				m.Set("label", value.String(row.Label))
				m.Set("type", value.String(row.Type))
				m.Set("sample", row.Sample)
				if err := yield(value.Map(m)); err != nil {
					return err
				}
			}
			return nil
		},
	})
}

func entryRow(e *Entry) value.Value {
	m := value.NewOrderedMap()
	m.Set("name", value.String(e.Name))
	m.Set("kind", value.String(e.Kind.String()))
	m.Set("description", value.String(e.Description))
	m.Set("category", value.String(e.Category))
	params := make([]value.Value, len(e.Params))
	for i, p := range e.Params {
		params[i] = value.String(p)
	}
	m.Set("params", value.Array(params))
	m.Set("returns", value.String(e.Returns))
	examples := make([]value.Value, len(e.Examples))
	for i, ex := range e.Examples {
		examples[i] = value.String(ex)
	}
	m.Set("examples", value.Array(examples))
	return value.Map(m)
}
