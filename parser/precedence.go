package parser

import "github.com/flowquery/flowquery/token"

// Binary operator precedence levels, lowest to highest, following the
// binary-operator rows of the nine-level table spec.md §4.3 assigns the
// expression grammar, plus a level for `..`. Unary NOT and unary minus are
// handled as prefix operators outside this table (see parseUnary); every
// remaining operator the Shunting-Yard loop in shunting_yard.go sees is
// binary.
const (
	precLowest = iota
	precOr
	precAnd
	precComparison // = <> IS IS NOT IN NOT IN CONTAINS NOT CONTAINS STARTS WITH ENDS WITH
	precRelational // < > <= >=
	precRange      // ..
	precAdditive   // + -
	precMultiplicative
	precPower // ^ (right associative)
)

func precedence(k token.Kind) int {
	switch k {
	case token.OR_OP:
		return precOr
	case token.AND_OP:
		return precAnd
	case token.EQ, token.NEQ,
		token.IS_OP, token.IS_NOT_OP, token.IN_OP, token.NOT_IN_OP,
		token.CONTAINS_OP, token.NOT_CONTAINS_OP,
		token.STARTS_WITH_OP, token.NOT_STARTS_WITH_OP,
		token.ENDS_WITH_OP, token.NOT_ENDS_WITH_OP:
		return precComparison
	case token.LT, token.GT, token.LTE, token.GTE:
		return precRelational
	case token.DOTDOT:
		return precRange
	case token.PLUS, token.MINUS:
		return precAdditive
	case token.ASTERISK, token.SLASH, token.PERCENT:
		return precMultiplicative
	case token.CARET:
		return precPower
	default:
		return precLowest
	}
}

func isBinaryOperator(k token.Kind) bool { return precedence(k) > precLowest }

func rightAssociative(k token.Kind) bool { return k == token.CARET }

// shouldPopBefore reports whether the operator on top of the stack must be
// applied before pushing next, per standard Shunting-Yard precedence and
// associativity rules.
func shouldPopBefore(top, next token.Kind) bool {
	pt, pn := precedence(top), precedence(next)
	if pt > pn {
		return true
	}
	if pt == pn && !rightAssociative(next) {
		return true
	}
	return false
}
