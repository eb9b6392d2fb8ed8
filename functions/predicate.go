package functions

// predicate-comprehension functions are evaluated by eval.Evaluator itself
// (it needs to recursively evaluate a per-element sub-expression, which a
// flat (name, args []Value) ScalarFunc signature cannot express), so these
// entries carry no Scalar/Provider implementation. They exist purely so
// functions()/schema() can discover them, per spec.md §4.4's "registration
// options carry metadata... exposed via functions() and schema()".
// They are called as plain three-argument calls, name(var, list,
// predicate); a `var IN list WHERE predicate` argument form is not parsed.
func registerPredicates(r *Registry) {
	entries := []struct {
		name, desc string
	}{
		{"all", "true if predicate holds for every element"},
		{"any", "true if predicate holds for at least one element"},
		{"none", "true if predicate holds for no element"},
		{"single", "true if predicate holds for exactly one element"},
		{"filter", "elements for which predicate holds"},
		{"extract", "predicate expression evaluated over each element"},
	}
	for _, e := range entries {
		r.Register(&Entry{
			Name: e.name, Kind: KindPredicate, Category: "predicate",
			Description: e.desc,
			Params:      []string{"var", "list", "predicate"},
			Returns:     "boolean or array",
			Examples:    []string{e.name + "(x, list, x > 0)"},
		})
	}
}
