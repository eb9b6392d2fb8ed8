package parser

import (
	"github.com/flowquery/flowquery/ast"
	"github.com/flowquery/flowquery/token"
)

// parseExpr parses one expression using an explicit-stack Shunting-Yard
// pass over the binary operators in precedence.go: operands (each already
// fully resolved through prefix/postfix parsing) go on one stack, pending
// binary operators on another, and an operator is applied to the operand
// stack as soon as something of equal-or-lower precedence needs to push
// past it.
func (p *Parser) parseExpr() (ast.Expr, error) {
	var operands []ast.Expr
	var operators []token.Kind

	apply := func() error {
		n := len(operators) - 1
		op := operators[n]
		operators = operators[:n]
		ri := len(operands) - 1
		right := operands[ri]
		left := operands[ri-1]
		operands = operands[:ri-1]
		operands = append(operands, &ast.BinaryExpr{
			Op: op, Left: left, Right: right,
			Base: ast.Base{StartPos: left.Pos(), EndPos: right.End()},
		})
		return nil
	}

	first, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	operands = append(operands, first)

	for isBinaryOperator(p.cur.Kind) {
		op := p.cur.Kind
		p.advance()
		for len(operators) > 0 && shouldPopBefore(operators[len(operators)-1], op) {
			if err := apply(); err != nil {
				return nil, err
			}
		}
		operators = append(operators, op)

		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		operands = append(operands, operand)
	}
	for len(operators) > 0 {
		if err := apply(); err != nil {
			return nil, err
		}
	}
	return operands[0], nil
}

// parseUnary consumes any chain of prefix NOT / unary-minus operators
// around a postfix-decorated primary expression.
func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.curIs(token.NOT_OP) || p.curIs(token.MINUS) {
		op := p.cur.Kind
		start := p.cur.Pos
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: op, Operand: operand, Base: ast.Base{StartPos: start, EndPos: operand.End()}}, nil
	}
	return p.parsePostfix()
}
