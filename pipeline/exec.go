package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/flowquery/flowquery/ast"
	"github.com/flowquery/flowquery/eval"
	"github.com/flowquery/flowquery/functions"
	"github.com/flowquery/flowquery/pipeline/groupby"
	"github.com/flowquery/flowquery/value"
)

// RunQuery executes every statement of q against env in source order,
// combining their results per UNION/UNION ALL (q.UnionAll[i] true joins
// Statements[i] to the running result without de-duplication; false
// de-duplicates by value.RowKey against everything emitted so far). Column
// names across UNION'd RETURN statements must match; a CREATE/DELETE
// terminal statement is not column-checked since it carries no projection.
func RunQuery(ctx context.Context, q *ast.Query, env *Env) ([]value.Value, error) {
	env.Evaluator.Params = env.Params
	var out []value.Value
	seen := map[string]bool{}
	var firstCols []string
	for i, stmt := range q.Statements {
		cols := columnsOf(stmt.Head)
		if i == 0 {
			firstCols = cols
		} else if !sameColumns(firstCols, cols) {
			return nil, errors.New("UNION branches must return the same column names in the same order")
		}
		stmtOut, err := execute(ctx, stmt.Head, env)
		if err != nil {
			return nil, err
		}
		all := i == 0 || (i < len(q.UnionAll) && q.UnionAll[i])
		for _, v := range stmtOut {
			k := value.RowKey(v)
			if all || !seen[k] {
				out = append(out, v)
			}
			seen[k] = true
		}
	}
	return out, nil
}

// execute drives one statement's operation chain. Each stage materializes
// its full output row set before the next stage runs: spec.md's single-
// threaded cooperative model requires strict source-order row flow, and a
// virtual graph query's working set is modest enough that staging whole
// slices keeps SKIP/LIMIT/ORDER BY/aggregation — all of which need the
// complete upstream set before they can act — simple, at the cost of not
// streaming lazily row-by-row between stages.
func execute(ctx context.Context, head ast.Operation, env *Env) ([]value.Value, error) {
	rows := []eval.Row{{}}
	op := head
	for op != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		switch n := op.(type) {
		case *ast.With:
			rows, err = stageWith(n, rows, env)
		case *ast.Unwind:
			rows, err = stageUnwind(n, rows, env)
		case *ast.Load:
			rows, err = stageLoad(ctx, n, rows, env)
		case *ast.Call:
			rows, err = stageCall(ctx, n, rows, env)
		case *ast.Where:
			rows, err = stageWhere(n, rows, env)
		case *ast.Limit:
			rows, err = stageLimit(n, rows, env)
		case *ast.OrderBy:
			rows, err = stageOrderBy(n, rows, env)
		case *ast.Match:
			rows, err = stageMatch(n, rows, env)
		case *ast.Return:
			return stageReturn(n, rows, env)
		case *ast.AggregatedReturn:
			return stageAggregatedReturn(n, rows, env)
		case *ast.CreateNode:
			return stageCreateNode(n, env)
		case *ast.CreateRelationship:
			return stageCreateRelationship(n, env)
		case *ast.Delete:
			return stageDelete(n, rows, env)
		default:
			return nil, errors.Errorf("pipeline: unsupported operation %T", op)
		}
		if err != nil {
			return nil, err
		}
		op = op.Next()
	}
	return nil, errors.New("pipeline: statement has no terminal operation")
}

func stageWith(n *ast.With, rows []eval.Row, env *Env) ([]eval.Row, error) {
	out := make([]eval.Row, 0, len(rows))
	seen := map[string]bool{}
	for _, row := range rows {
		vals := make([]value.Value, len(n.Items))
		row2 := row.Clone()
		for i, it := range n.Items {
			v, err := env.Evaluator.Eval(it.Expr, row)
			if err != nil {
				return nil, err
			}
			vals[i] = v
			if it.Decl != nil {
				row2.Set(it.Decl, v)
			}
		}
		if n.Distinct {
			k := tupleKey(vals)
			if seen[k] {
				continue
			}
			seen[k] = true
		}
		out = append(out, row2)
	}
	return out, nil
}

func stageUnwind(n *ast.Unwind, rows []eval.Row, env *Env) ([]eval.Row, error) {
	var out []eval.Row
	for _, row := range rows {
		v, err := env.Evaluator.Eval(n.Source, row)
		if err != nil {
			return nil, err
		}
		var elems []value.Value
		switch v.Kind {
		case value.KindNull:
		case value.KindArray:
			elems = v.Array
		default:
			elems = []value.Value{v}
		}
		for _, el := range elems {
			row2 := row.Clone()
			if n.Decl != nil {
				row2.Set(n.Decl, el)
			}
			out = append(out, row2)
		}
	}
	return out, nil
}

func stageLoad(ctx context.Context, n *ast.Load, rows []eval.Row, env *Env) ([]eval.Row, error) {
	var out []eval.Row
	for _, row := range rows {
		urlVal, err := env.Evaluator.Eval(n.URL, row)
		if err != nil {
			return nil, err
		}
		var bodyStr string
		if n.Body != nil {
			bodyVal, err := env.Evaluator.Eval(n.Body, row)
			if err != nil {
				return nil, err
			}
			bodyStr = value.Stringify(bodyVal)
		}
		headers := map[string]string{}
		if n.Headers != nil {
			for _, entry := range n.Headers.Entries {
				v, err := env.Evaluator.Eval(entry.Value, row)
				if err != nil {
					return nil, err
				}
				headers[entry.Key] = value.Stringify(v)
			}
		}
		_, contentType, respBody, err := env.Fetcher.Fetch(ctx, value.Stringify(urlVal), n.Post, bodyStr, headers)
		if err != nil {
			return nil, errors.Wrapf(err, "LOAD from %s", value.Stringify(urlVal))
		}
		decoded, err := decodeLoadBody(n.Format, contentType, respBody)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding LOAD response from %s", value.Stringify(urlVal))
		}
		for _, v := range decoded {
			row2 := row.Clone()
			if n.Decl != nil {
				row2.Set(n.Decl, v)
			}
			out = append(out, row2)
		}
	}
	return out, nil
}

func stageCall(ctx context.Context, n *ast.Call, rows []eval.Row, env *Env) ([]eval.Row, error) {
	var out []eval.Row
	for _, row := range rows {
		args := make([]value.Value, len(n.Call.Args))
		for i, a := range n.Call.Args {
			v, err := env.Evaluator.Eval(a, row)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		err := env.Funcs.CallProvider(ctx, n.Call.Name, args, func(v value.Value) error {
			row2 := row.Clone()
			if n.Decl != nil {
				row2.Set(n.Decl, v)
			}
			for i, decl := range n.YieldDecls {
				var fv value.Value
				if v.Kind == value.KindMap {
					fv, _ = v.Map.Get(n.Yield[i])
				}
				row2.Set(decl, fv)
			}
			out = append(out, row2)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func stageWhere(n *ast.Where, rows []eval.Row, env *Env) ([]eval.Row, error) {
	out := make([]eval.Row, 0, len(rows))
	for _, row := range rows {
		v, err := env.Evaluator.Eval(n.Predicate, row)
		if err != nil {
			return nil, err
		}
		if value.BoolOf(v) {
			out = append(out, row)
		}
	}
	if env.Stats != nil && len(out) < len(rows) {
		env.Stats.Filtered = true
	}
	return out, nil
}

func stageLimit(n *ast.Limit, rows []eval.Row, env *Env) ([]eval.Row, error) {
	if n.Skip != nil {
		v, err := env.Evaluator.Eval(n.Skip, eval.Row{})
		if err != nil {
			return nil, err
		}
		skip := int(v.Int)
		if skip > len(rows) {
			skip = len(rows)
		}
		if skip > 0 {
			rows = rows[skip:]
			if env.Stats != nil {
				env.Stats.Limited = true
			}
		}
	}
	if n.Count != nil {
		v, err := env.Evaluator.Eval(n.Count, eval.Row{})
		if err != nil {
			return nil, err
		}
		count := int(v.Int)
		if count < 0 {
			count = 0
		}
		if count < len(rows) {
			rows = rows[:count]
			if env.Stats != nil {
				env.Stats.Limited = true
			}
		}
	}
	return rows, nil
}

func stageOrderBy(n *ast.OrderBy, rows []eval.Row, env *Env) ([]eval.Row, error) {
	keys := make([][]value.Value, len(rows))
	for i, row := range rows {
		k := make([]value.Value, len(n.Items))
		for j, it := range n.Items {
			v, err := env.Evaluator.Eval(it.Expr, row)
			if err != nil {
				return nil, err
			}
			k[j] = v
		}
		keys[i] = k
	}
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		i, j := idx[a], idx[b]
		for k, it := range n.Items {
			c := compareValues(keys[i][k], keys[j][k])
			if c == 0 {
				continue
			}
			if it.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	out := make([]eval.Row, len(rows))
	for i, j := range idx {
		out[i] = rows[j]
	}
	return out, nil
}

// compareValues orders null below every non-null value, then numerically,
// lexically, or boolean-ascending within matching kinds; mixed non-null
// kinds compare equal (stable sort preserves their relative input order).
func compareValues(a, b value.Value) int {
	if a.IsNull() || b.IsNull() {
		switch {
		case a.IsNull() && b.IsNull():
			return 0
		case a.IsNull():
			return -1
		default:
			return 1
		}
	}
	if a.IsNumber() && b.IsNumber() {
		af, bf := a.Float64(), b.Float64()
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	if a.Kind == value.KindString && b.Kind == value.KindString {
		return strings.Compare(a.Str, b.Str)
	}
	if a.Kind == value.KindBool && b.Kind == value.KindBool {
		switch {
		case a.Bool == b.Bool:
			return 0
		case !a.Bool:
			return -1
		default:
			return 1
		}
	}
	return 0
}

func stageMatch(n *ast.Match, rows []eval.Row, env *Env) ([]eval.Row, error) {
	cur := rows
	for _, pat := range n.Patterns {
		var next []eval.Row
		for _, row := range cur {
			count := 0
			err := env.Matcher.MatchPattern(pat, row, func(r eval.Row) error {
				count++
				next = append(next, r)
				return nil
			})
			if err != nil {
				return nil, err
			}
			if count == 0 && n.Optional {
				next = append(next, nullPadPattern(pat, row))
			}
		}
		cur = next
	}
	if n.Where != nil {
		filtered := make([]eval.Row, 0, len(cur))
		for _, row := range cur {
			v, err := env.Evaluator.Eval(n.Where, row)
			if err != nil {
				return nil, err
			}
			if value.BoolOf(v) {
				filtered = append(filtered, row)
			}
		}
		cur = filtered
	}
	return cur, nil
}

func nullPadPattern(pat *ast.Pattern, row eval.Row) eval.Row {
	row2 := row.Clone()
	for _, np := range pat.Nodes {
		if np.Decl != nil {
			if _, ok := row2[np.Decl]; !ok {
				row2.Set(np.Decl, value.Null())
			}
		}
	}
	for _, rp := range pat.Rels {
		if rp.Decl != nil {
			if _, ok := row2[rp.Decl]; !ok {
				row2.Set(rp.Decl, value.Null())
			}
		}
	}
	if pat.Decl != nil {
		if _, ok := row2[pat.Decl]; !ok {
			row2.Set(pat.Decl, value.Null())
		}
	}
	return row2
}

func stageCreateNode(n *ast.CreateNode, env *Env) ([]value.Value, error) {
	env.Store.RegisterNode(n.Label, n.Body)
	return nil, nil
}

func stageCreateRelationship(n *ast.CreateRelationship, env *Env) ([]value.Value, error) {
	env.Store.RegisterRelationship(n.Type, n.StartLabel, n.EndLabel, n.Direction, n.Body)
	return nil, nil
}

// stageDelete reports how many bound node/relationship values the targets
// resolved to. The virtual store has no physical records to remove — every
// record flows live from a producer sub-query — so DELETE cannot mutate
// anything; spec.md only lists DELETE among the valid terminal operations
// without describing a mutation, so this surfaces a count rather than
// silently doing nothing.
func stageDelete(n *ast.Delete, rows []eval.Row, env *Env) ([]value.Value, error) {
	var count int64
	for _, row := range rows {
		for _, t := range n.Targets {
			v, err := env.Evaluator.Eval(t, row)
			if err != nil {
				return nil, err
			}
			switch v.Kind {
			case value.KindNode, value.KindRelationship:
				count++
			case value.KindRelationshipList:
				count += int64(len(v.RelList))
			}
		}
	}
	m := value.NewOrderedMap()
	m.Set("deleted", value.Int(count))
	return []value.Value{value.Map(m)}, nil
}

func stageReturn(n *ast.Return, rows []eval.Row, env *Env) ([]value.Value, error) {
	out := make([]value.Value, 0, len(rows))
	seen := map[string]bool{}
	for _, row := range rows {
		m := value.NewOrderedMap()
		for i, it := range n.Items {
			v, err := env.Evaluator.Eval(it.Expr, row)
			if err != nil {
				return nil, err
			}
			m.Set(labelFor(it, i), v)
		}
		rv := value.Map(m)
		if n.Distinct {
			k := value.RowKey(rv)
			if seen[k] {
				continue
			}
			seen[k] = true
		}
		out = append(out, rv)
	}
	return out, nil
}

func stageAggregatedReturn(n *ast.AggregatedReturn, rows []eval.Row, env *Env) ([]value.Value, error) {
	specs := make([]groupby.AggSpec, len(n.Aggregates))
	argExprs := make([]ast.Expr, len(n.Aggregates))
	for i, it := range n.Aggregates {
		fc, ok := it.Expr.(*ast.FuncCall)
		if !ok {
			return nil, errors.New("aggregate projection must be a function call")
		}
		entry, ok := env.Funcs.Lookup(fc.Name)
		if !ok || entry.Kind != functions.KindAggregate {
			return nil, errors.Errorf("%s() is not an aggregate function", fc.Name)
		}
		newAgg := entry.NewAggregate
		if strings.EqualFold(fc.Name, "count") && len(fc.Args) == 0 {
			newAgg = functions.NewCountStar
		} else if len(fc.Args) > 0 {
			argExprs[i] = fc.Args[0]
		}
		specs[i] = groupby.AggSpec{New: newAgg, Distinct: fc.Distinct}
	}

	eng := groupby.New(specs)
	for _, row := range rows {
		key := make([]value.Value, len(n.GroupKeys))
		for i, gk := range n.GroupKeys {
			v, err := env.Evaluator.Eval(gk.Expr, row)
			if err != nil {
				return nil, err
			}
			key[i] = v
		}
		vals := make([]value.Value, len(n.Aggregates))
		for i := range n.Aggregates {
			if argExprs[i] == nil {
				vals[i] = value.Null()
				continue
			}
			v, err := env.Evaluator.Eval(argExprs[i], row)
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		if err := eng.Add(key, vals); err != nil {
			return nil, err
		}
	}

	allItems := append(append([]ast.ReturnItem{}, n.GroupKeys...), n.Aggregates...)
	results := eng.Results()
	out := make([]value.Value, 0, len(results))
	seen := map[string]bool{}
	for _, r := range results {
		m := value.NewOrderedMap()
		for i, it := range allItems {
			m.Set(labelFor(it, i), r[i])
		}
		rv := value.Map(m)
		if n.Distinct {
			k := value.RowKey(rv)
			if seen[k] {
				continue
			}
			seen[k] = true
		}
		out = append(out, rv)
	}
	return out, nil
}

func tupleKey(vals []value.Value) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = value.RowKey(v)
	}
	return strings.Join(parts, "\x1f")
}

func columnsOf(head ast.Operation) []string {
	op := head
	for op != nil {
		switch n := op.(type) {
		case *ast.Return:
			return labelsOf(n.Items)
		case *ast.AggregatedReturn:
			return labelsOf(append(append([]ast.ReturnItem{}, n.GroupKeys...), n.Aggregates...))
		}
		op = op.Next()
	}
	return nil
}

func labelsOf(items []ast.ReturnItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = labelFor(it, i)
	}
	return out
}

func sameColumns(a, b []string) bool {
	if a == nil || b == nil {
		return true
	}
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// labelFor names a projected column: an explicit alias wins, a bare
// variable reference keeps its own name (RETURN x, n → columns x, n), and
// anything else aliasless is named by its position (RETURN 1+1, 2+2 →
// expr0, expr1) so two complex expressions never collide on one key.
func labelFor(it ast.ReturnItem, index int) string {
	if it.Alias != "" {
		return it.Alias
	}
	if ref, ok := it.Expr.(*ast.Reference); ok {
		return ref.Name
	}
	return "expr" + strconv.Itoa(index)
}

// decodeLoadBody decodes a LOAD response body per its declared format.
// JSON arrays fan out to one row per element (matching spec.md's "LOAD
// JSON emits in response order" ordering guarantee); a JSON object or
// scalar yields a single row. CSV is decoded via the standard library —
// no library in the retrieval pack offers CSV parsing, so this is one of
// the few concerns this module implements on stdlib rather than a
// ported/ecosystem dependency. TEXT yields the raw body as one string row.
func decodeLoadBody(format ast.LoadFormat, contentType string, body []byte) ([]value.Value, error) {
	switch format {
	case ast.LoadJSON:
		var raw any
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, errors.Wrap(err, "invalid JSON response")
		}
		if arr, ok := raw.([]any); ok {
			out := make([]value.Value, len(arr))
			for i, el := range arr {
				out[i] = value.FromJSON(el)
			}
			return out, nil
		}
		return []value.Value{value.FromJSON(raw)}, nil
	case ast.LoadCSV:
		r := csv.NewReader(bytes.NewReader(body))
		records, err := r.ReadAll()
		if err != nil {
			return nil, errors.Wrap(err, "invalid CSV response")
		}
		if len(records) == 0 {
			return nil, nil
		}
		header := records[0]
		out := make([]value.Value, 0, len(records)-1)
		for _, rec := range records[1:] {
			m := value.NewOrderedMap()
			for i, h := range header {
				if i < len(rec) {
					m.Set(h, value.String(rec[i]))
				}
			}
			out = append(out, value.Map(m))
		}
		return out, nil
	case ast.LoadText:
		return []value.Value{value.String(string(body))}, nil
	default:
		return nil, errors.Errorf("unsupported LOAD format %v", format)
	}
}

