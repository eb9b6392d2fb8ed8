package functions

import (
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/flowquery/flowquery/value"
)

func registerScalars(r *Registry) {
	r.Register(&Entry{
		Name: "range", Kind: KindScalar, Category: "list",
		Description: "array of integers from start to end inclusive, optionally stepped",
		Params:      []string{"start", "end", "step?"},
		Returns:     "array",
		Scalar:      fnRange,
	})
	r.Register(&Entry{
		Name: "size", Kind: KindScalar, Category: "list",
		Description: "length of an array, string, or map",
		Params:      []string{"value"}, Returns: "integer",
		Scalar: fnSize,
	})
	r.Register(&Entry{
		Name: "split", Kind: KindScalar, Category: "string",
		Description: "splits a string on a separator",
		Params:      []string{"string", "separator"}, Returns: "array",
		Scalar: fnSplit,
	})
	r.Register(&Entry{
		Name: "join", Kind: KindScalar, Category: "string",
		Description: "joins an array of strings with a separator",
		Params:      []string{"array", "separator"}, Returns: "string",
		Scalar: fnJoin,
	})
	r.Register(&Entry{
		Name: "replace", Kind: KindScalar, Category: "string",
		Description: "replaces every occurrence of old with new in a string",
		Params:      []string{"string", "old", "new"}, Returns: "string",
		Scalar: fnReplace,
	})
	r.Register(&Entry{
		Name: "keys", Kind: KindScalar, Category: "collection",
		Description: "property/entry names of a map, node, or relationship",
		Params:      []string{"value"}, Returns: "array",
		Scalar: fnKeys,
	})
	r.Register(&Entry{
		Name: "type", Kind: KindScalar, Category: "introspection",
		Description: "the relationship type of a relationship, otherwise the value's type name",
		Params:      []string{"value"}, Returns: "string",
		Scalar: fnType,
	})
	r.Register(&Entry{
		Name: "tointeger", Kind: KindScalar, Category: "conversion",
		Description: "converts a string or float to an integer",
		Params:      []string{"value"}, Returns: "integer",
		Scalar: fnToInteger,
	})
	r.Register(&Entry{
		Name: "tolower", Kind: KindScalar, Category: "string",
		Description: "lowercases a string",
		Params:      []string{"string"}, Returns: "string",
		Scalar: fnToLower,
	})
	r.Register(&Entry{
		Name: "head", Kind: KindScalar, Category: "list",
		Description: "first element of an array, or null if empty",
		Params:      []string{"array"}, Returns: "value",
		Scalar: fnHead,
	})
	r.Register(&Entry{
		Name: "last", Kind: KindScalar, Category: "list",
		Description: "last element of an array, or null if empty",
		Params:      []string{"array"}, Returns: "value",
		Scalar: fnLast,
	})
	r.Register(&Entry{
		Name: "round", Kind: KindScalar, Category: "math",
		Description: "rounds a number to an optional number of decimal places",
		Params:      []string{"number", "precision?"}, Returns: "float",
		Scalar: fnRound,
	})
	r.Register(&Entry{
		Name: "rand", Kind: KindScalar, Category: "math",
		Description: "a pseudo-random float in [0, 1)",
		Returns:     "float", Examples: []string{"rand()"},
		Scalar: fnRand,
	})
	r.Register(&Entry{
		Name: "tojson", Kind: KindScalar, Category: "conversion",
		Description: "parses a JSON string into a value",
		Params:      []string{"json"}, Returns: "value",
		Scalar: fnToJSON,
	})
	r.Register(&Entry{
		Name: "stringify", Kind: KindScalar, Category: "conversion",
		Description: "renders a value as a JSON string; tojson(stringify(x)) round-trips",
		Params:      []string{"value"}, Returns: "string",
		Scalar: fnStringify,
	})
	r.Register(&Entry{
		Name: "coalesce", Kind: KindScalar, Category: "conditional",
		Description: "first non-null argument",
		Params:      []string{"values..."}, Returns: "value",
		Scalar: fnCoalesce,
	})
	r.Register(&Entry{
		Name: "substring", Kind: KindScalar, Category: "string",
		Description: "substring starting at an offset, with an optional length",
		Params:      []string{"string", "start", "length?"}, Returns: "string",
		Scalar: fnSubstring,
	})
	r.Register(&Entry{
		Name: "string_distance", Kind: KindScalar, Category: "string",
		Description: "Levenshtein edit distance between two strings",
		Params:      []string{"a", "b"}, Returns: "integer",
		Scalar: fnStringDistance,
	})
	r.Register(&Entry{
		Name: "id", Kind: KindScalar, Category: "graph",
		Description: "the id of a bound node",
		Params:      []string{"node"}, Returns: "value",
		Scalar: fnID,
	})
	r.Register(&Entry{
		Name: "nodes", Kind: KindScalar, Category: "graph",
		Description: "the nodes of a bound path, in traversal order",
		Params:      []string{"path"}, Returns: "array",
		Scalar: fnNodes,
	})
	r.Register(&Entry{
		Name: "datetime", Kind: KindScalar, Category: "temporal",
		Description: "current or parsed RFC3339 timestamp",
		Params:      []string{"value?"}, Returns: "string",
		Scalar: fnDatetime,
	})
	r.Register(&Entry{
		Name: "time", Kind: KindScalar, Category: "temporal",
		Description: "current or parsed time-of-day (HH:MM:SS)",
		Params:      []string{"value?"}, Returns: "string",
		Scalar: fnTime,
	})
	r.Register(&Entry{
		Name: "duration", Kind: KindScalar, Category: "temporal",
		Description: "parses a Go-style duration string (e.g. \"1h30m\") into seconds",
		Params:      []string{"string"}, Returns: "float",
		Scalar: fnDuration,
	})
}

func arity(name string, args []value.Value, min, max int) error {
	if len(args) < min || (max >= 0 && len(args) > max) {
		return errors.Errorf("%s() expects between %d and %d arguments, got %d", name, min, max, len(args))
	}
	return nil
}

func fnRange(args []value.Value) (value.Value, error) {
	if err := arity("range", args, 2, 3); err != nil {
		return value.Null(), err
	}
	start, end := args[0].Int, args[1].Int
	step := int64(1)
	if len(args) == 3 {
		step = args[2].Int
	}
	if step == 0 {
		return value.Null(), errors.New("range() step must not be zero")
	}
	var out []value.Value
	if step > 0 {
		for i := start; i <= end; i += step {
			out = append(out, value.Int(i))
		}
	} else {
		for i := start; i >= end; i += step {
			out = append(out, value.Int(i))
		}
	}
	return value.Array(out), nil
}

func fnSize(args []value.Value) (value.Value, error) {
	if err := arity("size", args, 1, 1); err != nil {
		return value.Null(), err
	}
	switch args[0].Kind {
	case value.KindArray:
		return value.Int(int64(len(args[0].Array))), nil
	case value.KindString:
		return value.Int(int64(len([]rune(args[0].Str)))), nil
	case value.KindMap:
		return value.Int(int64(args[0].Map.Len())), nil
	case value.KindNull:
		return value.Null(), nil
	default:
		return value.Null(), errors.Errorf("size() does not accept a %s", args[0].TypeName())
	}
}

func fnSplit(args []value.Value) (value.Value, error) {
	if err := arity("split", args, 2, 2); err != nil {
		return value.Null(), err
	}
	parts := strings.Split(args[0].Str, args[1].Str)
	out := make([]value.Value, len(parts))
	for i, p := range parts {
		out[i] = value.String(p)
	}
	return value.Array(out), nil
}

func fnJoin(args []value.Value) (value.Value, error) {
	if err := arity("join", args, 2, 2); err != nil {
		return value.Null(), err
	}
	if args[0].Kind != value.KindArray {
		return value.Null(), errors.Errorf("join() expects an array, got %s", args[0].TypeName())
	}
	parts := make([]string, len(args[0].Array))
	for i, v := range args[0].Array {
		parts[i] = v.String()
	}
	return value.String(strings.Join(parts, args[1].Str)), nil
}

func fnReplace(args []value.Value) (value.Value, error) {
	if err := arity("replace", args, 3, 3); err != nil {
		return value.Null(), err
	}
	return value.String(strings.ReplaceAll(args[0].Str, args[1].Str, args[2].Str)), nil
}

func fnKeys(args []value.Value) (value.Value, error) {
	if err := arity("keys", args, 1, 1); err != nil {
		return value.Null(), err
	}
	switch args[0].Kind {
	case value.KindMap:
		keys := args[0].Map.Keys()
		out := make([]value.Value, len(keys))
		for i, k := range keys {
			out[i] = value.String(k)
		}
		return value.Array(out), nil
	case value.KindNode:
		return value.Array(sortedPropertyNames(args[0].Node.Properties)), nil
	case value.KindRelationship:
		return value.Array(sortedPropertyNames(args[0].Rel.Properties)), nil
	default:
		return value.Null(), errors.Errorf("keys() does not accept a %s", args[0].TypeName())
	}
}

func sortedPropertyNames(props map[string]value.Value) []value.Value {
	names := make([]string, 0, len(props))
	for k := range props {
		names = append(names, k)
	}
	sort.Strings(names)
	out := make([]value.Value, len(names))
	for i, n := range names {
		out[i] = value.String(n)
	}
	return out
}

func fnType(args []value.Value) (value.Value, error) {
	if err := arity("type", args, 1, 1); err != nil {
		return value.Null(), err
	}
	if args[0].Kind == value.KindRelationship {
		return value.String(args[0].Rel.Type), nil
	}
	return value.String(args[0].TypeName()), nil
}

func fnToInteger(args []value.Value) (value.Value, error) {
	if err := arity("tointeger", args, 1, 1); err != nil {
		return value.Null(), err
	}
	switch args[0].Kind {
	case value.KindInt:
		return args[0], nil
	case value.KindFloat:
		return value.Int(int64(args[0].Float)), nil
	case value.KindString:
		n, err := strconv.ParseInt(strings.TrimSpace(args[0].Str), 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(strings.TrimSpace(args[0].Str), 64)
			if ferr != nil {
				return value.Null(), errors.Errorf("tointeger() could not parse %q", args[0].Str)
			}
			return value.Int(int64(f)), nil
		}
		return value.Int(n), nil
	case value.KindNull:
		return value.Null(), nil
	default:
		return value.Null(), errors.Errorf("tointeger() does not accept a %s", args[0].TypeName())
	}
}

func fnToLower(args []value.Value) (value.Value, error) {
	if err := arity("tolower", args, 1, 1); err != nil {
		return value.Null(), err
	}
	if args[0].Kind == value.KindNull {
		return value.Null(), nil
	}
	if args[0].Kind != value.KindString {
		return value.Null(), errors.Errorf("tolower() expects a string, got %s", args[0].TypeName())
	}
	return value.String(strings.ToLower(args[0].Str)), nil
}

func fnHead(args []value.Value) (value.Value, error) {
	if err := arity("head", args, 1, 1); err != nil {
		return value.Null(), err
	}
	if args[0].Kind != value.KindArray {
		return value.Null(), errors.Errorf("head() expects an array, got %s", args[0].TypeName())
	}
	if len(args[0].Array) == 0 {
		return value.Null(), nil
	}
	return args[0].Array[0], nil
}

func fnLast(args []value.Value) (value.Value, error) {
	if err := arity("last", args, 1, 1); err != nil {
		return value.Null(), err
	}
	if args[0].Kind != value.KindArray {
		return value.Null(), errors.Errorf("last() expects an array, got %s", args[0].TypeName())
	}
	if len(args[0].Array) == 0 {
		return value.Null(), nil
	}
	return args[0].Array[len(args[0].Array)-1], nil
}

func fnRound(args []value.Value) (value.Value, error) {
	if err := arity("round", args, 1, 2); err != nil {
		return value.Null(), err
	}
	if !args[0].IsNumber() {
		return value.Null(), errors.Errorf("round() expects a number, got %s", args[0].TypeName())
	}
	precision := 0
	if len(args) == 2 {
		precision = int(args[1].Int)
	}
	scale := math.Pow(10, float64(precision))
	return value.Float(math.Round(args[0].Float64()*scale) / scale), nil
}

func fnRand(args []value.Value) (value.Value, error) {
	if err := arity("rand", args, 0, 0); err != nil {
		return value.Null(), err
	}
	return value.Float(rand.Float64()), nil
}

func fnToJSON(args []value.Value) (value.Value, error) {
	if err := arity("tojson", args, 1, 1); err != nil {
		return value.Null(), err
	}
	if args[0].Kind != value.KindString {
		return value.Null(), errors.Errorf("tojson() expects a string, got %s", args[0].TypeName())
	}
	return decodeJSON(args[0].Str)
}

func fnStringify(args []value.Value) (value.Value, error) {
	if err := arity("stringify", args, 1, 1); err != nil {
		return value.Null(), err
	}
	return value.String(value.Stringify(args[0])), nil
}

func fnCoalesce(args []value.Value) (value.Value, error) {
	for _, a := range args {
		if !a.IsNull() {
			return a, nil
		}
	}
	return value.Null(), nil
}

func fnSubstring(args []value.Value) (value.Value, error) {
	if err := arity("substring", args, 2, 3); err != nil {
		return value.Null(), err
	}
	runes := []rune(args[0].Str)
	start := int(args[1].Int)
	if start < 0 {
		start = 0
	}
	if start > len(runes) {
		start = len(runes)
	}
	end := len(runes)
	if len(args) == 3 {
		length := int(args[2].Int)
		if length < 0 {
			length = 0
		}
		if start+length < end {
			end = start + length
		}
	}
	return value.String(string(runes[start:end])), nil
}

func fnStringDistance(args []value.Value) (value.Value, error) {
	if err := arity("string_distance", args, 2, 2); err != nil {
		return value.Null(), err
	}
	return value.Int(int64(levenshtein(args[0].Str, args[1].Str))), nil
}

// levenshtein computes rune-wise edit distance with a two-row dynamic
// program; no wired third-party dependency covers this, see DESIGN.md.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min3(cur[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

func fnID(args []value.Value) (value.Value, error) {
	if err := arity("id", args, 1, 1); err != nil {
		return value.Null(), err
	}
	if args[0].Kind != value.KindNode {
		return value.Null(), errors.Errorf("id() expects a node, got %s", args[0].TypeName())
	}
	return args[0].Node.ID, nil
}

func fnNodes(args []value.Value) (value.Value, error) {
	if err := arity("nodes", args, 1, 1); err != nil {
		return value.Null(), err
	}
	if args[0].Kind != value.KindPath {
		return value.Null(), errors.Errorf("nodes() expects a path, got %s", args[0].TypeName())
	}
	var out []value.Value
	for i, el := range args[0].Path.Elements {
		if i%2 == 0 {
			out = append(out, el)
		}
	}
	return value.Array(out), nil
}

func fnDatetime(args []value.Value) (value.Value, error) {
	if err := arity("datetime", args, 0, 1); err != nil {
		return value.Null(), err
	}
	if len(args) == 0 {
		return value.String(time.Now().UTC().Format(time.RFC3339)), nil
	}
	t, err := time.Parse(time.RFC3339, args[0].Str)
	if err != nil {
		return value.Null(), errors.Wrapf(err, "datetime() could not parse %q", args[0].Str)
	}
	return value.String(t.UTC().Format(time.RFC3339)), nil
}

func fnTime(args []value.Value) (value.Value, error) {
	if err := arity("time", args, 0, 1); err != nil {
		return value.Null(), err
	}
	const layout = "15:04:05"
	if len(args) == 0 {
		return value.String(time.Now().UTC().Format(layout)), nil
	}
	t, err := time.Parse(layout, args[0].Str)
	if err != nil {
		return value.Null(), errors.Wrapf(err, "time() could not parse %q", args[0].Str)
	}
	return value.String(t.Format(layout)), nil
}

func fnDuration(args []value.Value) (value.Value, error) {
	if err := arity("duration", args, 1, 1); err != nil {
		return value.Null(), err
	}
	d, err := time.ParseDuration(args[0].Str)
	if err != nil {
		return value.Null(), errors.Wrapf(err, "duration() could not parse %q", args[0].Str)
	}
	return value.Float(d.Seconds()), nil
}
