package eval

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/flowquery/flowquery/ast"
	"github.com/flowquery/flowquery/token"
	"github.com/flowquery/flowquery/value"
)

// evalBinary dispatches a binary operator on the (Kind, Kind) pair of its
// already-evaluated operands, the way the tokenizer this evaluator grew out
// of dispatches SQL operators on vitess's sqltypes.Type pair.
func (e *Evaluator) evalBinary(n *ast.BinaryExpr, row Row) (value.Value, error) {
	// Short-circuit AND/OR before evaluating the right operand.
	switch n.Op {
	case token.AND_OP:
		l, err := e.Eval(n.Left, row)
		if err != nil {
			return value.Null(), err
		}
		if !value.BoolOf(l) {
			return value.AsInt01(false), nil
		}
		r, err := e.Eval(n.Right, row)
		if err != nil {
			return value.Null(), err
		}
		return value.AsInt01(value.BoolOf(r)), nil
	case token.OR_OP:
		l, err := e.Eval(n.Left, row)
		if err != nil {
			return value.Null(), err
		}
		if value.BoolOf(l) {
			return value.AsInt01(true), nil
		}
		r, err := e.Eval(n.Right, row)
		if err != nil {
			return value.Null(), err
		}
		return value.AsInt01(value.BoolOf(r)), nil
	}

	l, err := e.Eval(n.Left, row)
	if err != nil {
		return value.Null(), err
	}
	r, err := e.Eval(n.Right, row)
	if err != nil {
		return value.Null(), err
	}

	switch n.Op {
	case token.IS_OP:
		return value.AsInt01(l.IsNull()), nil
	case token.IS_NOT_OP:
		return value.AsInt01(!l.IsNull()), nil
	}

	// Every other operator returns null if either side is null, per
	// spec.md §4.3's null-propagation rule.
	if l.IsNull() || r.IsNull() {
		return value.Null(), nil
	}

	switch n.Op {
	case token.PLUS:
		return arithAdd(l, r)
	case token.MINUS:
		return arithNumeric(l, r, func(a, b float64) float64 { return a - b })
	case token.ASTERISK:
		return arithNumeric(l, r, func(a, b float64) float64 { return a * b })
	case token.SLASH:
		return arithDivide(l, r)
	case token.PERCENT:
		return arithModulo(l, r)
	case token.CARET:
		return arithPower(l, r)
	case token.EQ:
		return value.AsInt01(value.Equal(l, r)), nil
	case token.NEQ:
		return value.AsInt01(!value.Equal(l, r)), nil
	case token.LT, token.GT, token.LTE, token.GTE:
		return compare(n.Op, l, r)
	case token.IN_OP, token.NOT_IN_OP:
		return contains(r, l, n.Op == token.NOT_IN_OP)
	case token.CONTAINS_OP, token.NOT_CONTAINS_OP:
		return stringOrListContains(l, r, n.Op == token.NOT_CONTAINS_OP)
	case token.STARTS_WITH_OP, token.NOT_STARTS_WITH_OP:
		return stringPredicate(l, r, n.Op == token.NOT_STARTS_WITH_OP, strings.HasPrefix)
	case token.ENDS_WITH_OP, token.NOT_ENDS_WITH_OP:
		return stringPredicate(l, r, n.Op == token.NOT_ENDS_WITH_OP, strings.HasSuffix)
	case token.DOTDOT:
		return rangeArray(l, r)
	default:
		return value.Null(), errors.Errorf("eval: unsupported binary operator %s", n.Op)
	}
}

func arithAdd(l, r value.Value) (value.Value, error) {
	if l.Kind == value.KindString || r.Kind == value.KindString {
		return value.String(l.String() + r.String()), nil
	}
	if l.Kind == value.KindArray && r.Kind == value.KindArray {
		out := make([]value.Value, 0, len(l.Array)+len(r.Array))
		out = append(out, l.Array...)
		out = append(out, r.Array...)
		return value.Array(out), nil
	}
	if !l.IsNumber() || !r.IsNumber() {
		return value.Null(), errors.Errorf("cannot add a %s and a %s", l.TypeName(), r.TypeName())
	}
	return arithNumeric(l, r, func(a, b float64) float64 { return a + b })
}

func arithNumeric(l, r value.Value, f func(a, b float64) float64) (value.Value, error) {
	if !l.IsNumber() || !r.IsNumber() {
		return value.Null(), errors.Errorf("arithmetic requires numbers, got %s and %s", l.TypeName(), r.TypeName())
	}
	if l.Kind == value.KindInt && r.Kind == value.KindInt {
		return value.Int(int64(f(float64(l.Int), float64(r.Int)))), nil
	}
	return value.Float(f(l.Float64(), r.Float64())), nil
}

func arithDivide(l, r value.Value) (value.Value, error) {
	if !l.IsNumber() || !r.IsNumber() {
		return value.Null(), errors.Errorf("division requires numbers, got %s and %s", l.TypeName(), r.TypeName())
	}
	if r.Float64() == 0 {
		return value.Null(), errors.New("division by zero")
	}
	if l.Kind == value.KindInt && r.Kind == value.KindInt {
		return value.Int(l.Int / r.Int), nil
	}
	return value.Float(l.Float64() / r.Float64()), nil
}

func arithModulo(l, r value.Value) (value.Value, error) {
	if l.Kind != value.KindInt || r.Kind != value.KindInt {
		return value.Null(), errors.New("modulo requires integers")
	}
	if r.Int == 0 {
		return value.Null(), errors.New("modulo by zero")
	}
	return value.Int(l.Int % r.Int), nil
}

func arithPower(l, r value.Value) (value.Value, error) {
	if !l.IsNumber() || !r.IsNumber() {
		return value.Null(), errors.Errorf("exponentiation requires numbers, got %s and %s", l.TypeName(), r.TypeName())
	}
	result := 1.0
	base := l.Float64()
	exp := r.Float64()
	// Only non-negative integer exponents are supported; they are computed
	// by repeated multiplication, which keeps e.g. 2^10 exact. A negative
	// or fractional exponent is an error.
	if exp == float64(int64(exp)) && exp >= 0 {
		n := int64(exp)
		for i := int64(0); i < n; i++ {
			result *= base
		}
	} else {
		return value.Null(), errors.New("exponentiation requires a non-negative integer exponent")
	}
	if l.Kind == value.KindInt && r.Kind == value.KindInt && exp >= 0 {
		return value.Int(int64(result)), nil
	}
	return value.Float(result), nil
}

func compare(op token.Kind, l, r value.Value) (value.Value, error) {
	var cmp int
	switch {
	case l.IsNumber() && r.IsNumber():
		lf, rf := l.Float64(), r.Float64()
		switch {
		case lf < rf:
			cmp = -1
		case lf > rf:
			cmp = 1
		}
	case l.Kind == value.KindString && r.Kind == value.KindString:
		cmp = strings.Compare(l.Str, r.Str)
	default:
		return value.Null(), errors.Errorf("cannot compare a %s and a %s", l.TypeName(), r.TypeName())
	}
	switch op {
	case token.LT:
		return value.AsInt01(cmp < 0), nil
	case token.GT:
		return value.AsInt01(cmp > 0), nil
	case token.LTE:
		return value.AsInt01(cmp <= 0), nil
	case token.GTE:
		return value.AsInt01(cmp >= 0), nil
	}
	return value.Null(), errors.Errorf("eval: unsupported comparison operator %s", op)
}

func contains(list, elem value.Value, negate bool) (value.Value, error) {
	if list.Kind != value.KindArray {
		return value.Null(), errors.Errorf("IN requires an array on the right, got %s", list.TypeName())
	}
	found := false
	for _, e := range list.Array {
		if value.Equal(e, elem) {
			found = true
			break
		}
	}
	return value.AsInt01(found != negate), nil
}

func stringOrListContains(l, r value.Value, negate bool) (value.Value, error) {
	switch l.Kind {
	case value.KindString:
		if r.Kind != value.KindString {
			return value.Null(), errors.New("CONTAINS on a string requires a string operand")
		}
		return value.AsInt01(strings.Contains(l.Str, r.Str) != negate), nil
	case value.KindArray:
		found := false
		for _, e := range l.Array {
			if value.Equal(e, r) {
				found = true
				break
			}
		}
		return value.AsInt01(found != negate), nil
	default:
		return value.Null(), errors.Errorf("CONTAINS requires a string or array, got %s", l.TypeName())
	}
}

func stringPredicate(l, r value.Value, negate bool, f func(s, prefix string) bool) (value.Value, error) {
	if l.Kind != value.KindString || r.Kind != value.KindString {
		return value.Null(), errors.New("STARTS WITH / ENDS WITH require strings")
	}
	return value.AsInt01(f(l.Str, r.Str) != negate), nil
}

func rangeArray(l, r value.Value) (value.Value, error) {
	if l.Kind != value.KindInt || r.Kind != value.KindInt {
		return value.Null(), errors.New("range requires integer bounds")
	}
	if r.Int < l.Int {
		return value.Array(nil), nil
	}
	out := make([]value.Value, 0, r.Int-l.Int+1)
	for i := l.Int; i <= r.Int; i++ {
		out = append(out, value.Int(i))
	}
	return value.Array(out), nil
}
