package parser

import (
	"strconv"

	"github.com/flowquery/flowquery/ast"
	"github.com/flowquery/flowquery/lexer"
	"github.com/flowquery/flowquery/token"
)

// parsePostfix parses a primary expression followed by any chain of
// `.key`, `[index]`, `[lo..hi]`, or `(args)` postfix operators.
func (p *Parser) parsePostfix() (ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur.Kind {
		case token.DOT:
			p.advance()
			key, err := p.expect(token.IDENT)
			if err != nil {
				return nil, err
			}
			expr = &ast.PropertyLookup{Target: expr, Key: key.Value,
				Base: ast.Base{StartPos: expr.Pos(), EndPos: key.Pos}}
		case token.LBRACKET:
			p.advance()
			expr, err = p.parseIndexOrSlice(expr)
			if err != nil {
				return nil, err
			}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parseIndexOrSlice(target ast.Expr) (ast.Expr, error) {
	var low ast.Expr
	if !p.curIs(token.DOTDOT) {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		low = e
	}
	if p.curIs(token.DOTDOT) {
		p.advance()
		var high ast.Expr
		if !p.curIs(token.RBRACKET) {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			high = e
		}
		end, err := p.expect(token.RBRACKET)
		if err != nil {
			return nil, err
		}
		return &ast.SliceExpr{Target: target, Low: low, High: high,
			Base: ast.Base{StartPos: target.Pos(), EndPos: end.Pos}}, nil
	}
	end, err := p.expect(token.RBRACKET)
	if err != nil {
		return nil, err
	}
	return &ast.IndexExpr{Target: target, Index: low,
		Base: ast.Base{StartPos: target.Pos(), EndPos: end.Pos}}, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.cur
	switch tok.Kind {
	case token.NULL:
		p.advance()
		return &ast.NullLit{Base: ast.Base{StartPos: tok.Pos, EndPos: tok.Pos}}, nil
	case token.TRUE, token.FALSE:
		p.advance()
		return &ast.BoolLit{Value: tok.Kind == token.TRUE, Base: ast.Base{StartPos: tok.Pos, EndPos: tok.Pos}}, nil
	case token.INT:
		p.advance()
		n, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			return nil, p.errorf("invalid integer literal %q", tok.Value)
		}
		return &ast.IntLit{Value: n, Base: ast.Base{StartPos: tok.Pos, EndPos: tok.Pos}}, nil
	case token.FLOAT:
		p.advance()
		f, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, p.errorf("invalid float literal %q", tok.Value)
		}
		return &ast.FloatLit{Value: f, Base: ast.Base{StartPos: tok.Pos, EndPos: tok.Pos}}, nil
	case token.STRING:
		p.advance()
		return &ast.StringLit{Value: tok.Value, Base: ast.Base{StartPos: tok.Pos, EndPos: tok.Pos}}, nil
	case token.FSTRING:
		p.advance()
		segs, err := splitFString(tok.Value)
		if err != nil {
			return nil, p.errorf("%s", err)
		}
		lit := &ast.FStringLit{Base: ast.Base{StartPos: tok.Pos, EndPos: tok.Pos}}
		for _, seg := range segs {
			if seg.isExpr {
				expr, err := p.parseEmbeddedExpr(seg.text)
				if err != nil {
					return nil, p.errorf("invalid f-string expression %q: %s", seg.text, err)
				}
				lit.Segments = append(lit.Segments, ast.FStringSegment{Expr: expr})
			} else {
				lit.Segments = append(lit.Segments, ast.FStringSegment{Literal: seg.text})
			}
		}
		return lit, nil
	case token.PARAM:
		p.advance()
		return &ast.Param{Name: tok.Value, Base: ast.Base{StartPos: tok.Pos, EndPos: tok.Pos}}, nil
	case token.LBRACKET:
		return p.parseArrayLit()
	case token.LBRACE:
		return p.parseMapLit()
	case token.CASE:
		return p.parseCaseExpr()
	case token.LPAREN:
		return p.parseParenOrPattern()
	case token.IDENT:
		return p.parseIdentOrCall()
	}
	return nil, p.errorf("unexpected token %s in expression", tok.Kind)
}

func (p *Parser) parseArrayLit() (ast.Expr, error) {
	start := p.cur.Pos
	p.advance()
	lit := &ast.ArrayLit{}
	for !p.curIs(token.RBRACKET) {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		lit.Elements = append(lit.Elements, e)
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	end, err := p.expect(token.RBRACKET)
	if err != nil {
		return nil, err
	}
	lit.StartPos, lit.EndPos = start, end.Pos
	return lit, nil
}

func (p *Parser) parseMapLit() (*ast.MapLit, error) {
	start := p.cur.Pos
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	lit := &ast.MapLit{}
	for !p.curIs(token.RBRACE) {
		var key string
		if p.curIs(token.IDENT) || p.cur.Kind.IsKeyword() {
			key = p.cur.Value
			p.advance()
		} else if p.curIs(token.STRING) {
			key = p.cur.Value
			p.advance()
		} else {
			return nil, p.errorf("expected map key, got %s", p.cur.Kind)
		}
		if _, err := p.expect(token.COLON); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		lit.Entries = append(lit.Entries, ast.MapEntry{Key: key, Value: val})
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	end, err := p.expect(token.RBRACE)
	if err != nil {
		return nil, err
	}
	lit.StartPos, lit.EndPos = start, end.Pos
	return lit, nil
}

func (p *Parser) parseCaseExpr() (ast.Expr, error) {
	start := p.cur.Pos
	p.advance()
	expr := &ast.CaseExpr{}
	if !p.curIs(token.WHEN) {
		subj, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		expr.Subject = subj
	}
	for p.curIs(token.WHEN) {
		p.advance()
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.THEN); err != nil {
			return nil, err
		}
		result, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		expr.Whens = append(expr.Whens, ast.CaseWhen{Cond: cond, Result: result})
	}
	if p.curIs(token.ELSE) {
		p.advance()
		els, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		expr.Else = els
	}
	end, err := p.expect(token.END)
	if err != nil {
		return nil, err
	}
	expr.StartPos, expr.EndPos = start, end.Pos
	return expr, nil
}

// parseParenOrPattern disambiguates `(expr)` from a node pattern such as
// `(n:Label)` used as a pattern-existence predicate: it speculatively
// parses a pattern first, backtracking to a parenthesized expression if
// that fails or if the pattern isn't followed by something that can only
// be pattern syntax (a relationship arrow).
func (p *Parser) parseParenOrPattern() (ast.Expr, error) {
	m := p.mark()
	savedErrs := len(p.errors)
	if pat, err := p.tryParsePatternExpr(); err == nil {
		return pat, nil
	}
	p.errors = p.errors[:savedErrs]
	p.rewind(m)

	p.advance()
	inner, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return inner, nil
}

func (p *Parser) tryParsePatternExpr() (ast.Expr, error) {
	pat, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	if len(pat.Rels) == 0 {
		return nil, p.errorf("not a pattern expression")
	}
	return &ast.PatternExpr{Pattern: pat, Base: ast.Base{StartPos: pat.Nodes[0].Pos()}}, nil
}

// parseEmbeddedExpr parses text as a standalone expression using p's own
// scope (so references inside an f-string's `{...}` segment resolve
// against the same Bindings as the surrounding query), by temporarily
// swapping in a lexer over text and restoring the original token stream
// afterward.
func (p *Parser) parseEmbeddedExpr(text string) (ast.Expr, error) {
	savedLexer := p.lexer
	savedCur, savedPeek, savedPeeked := p.cur, p.peek, p.peeked

	p.lexer = lexer.New(text)
	p.peeked = false
	p.advance()

	expr, err := p.parseExpr()
	if err == nil && !p.curIs(token.EOF) {
		err = p.errorf("unexpected trailing token %s", p.cur.Kind)
	}

	p.lexer = savedLexer
	p.cur, p.peek, p.peeked = savedCur, savedPeek, savedPeeked
	return expr, err
}

func (p *Parser) parseIdentOrCall() (ast.Expr, error) {
	name := p.cur
	p.advance()
	if p.curIs(token.LPAREN) {
		p.advance()
		call := &ast.FuncCall{Name: name.Value}
		if aggregateNames[lowerName(name.Value)] {
			if p.aggDepth > 0 {
				return nil, p.errorf("aggregate function %s() cannot be nested inside another aggregate", name.Value)
			}
			p.aggDepth++
			defer func() { p.aggDepth-- }()
		}
		if p.curIs(token.DISTINCT) {
			call.Distinct = true
			p.advance()
		}
		for !p.curIs(token.RPAREN) {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
			if p.curIs(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
		end, err := p.expect(token.RPAREN)
		if err != nil {
			return nil, err
		}
		call.StartPos, call.EndPos = name.Pos, end.Pos
		return call, nil
	}
	ref := &ast.Reference{Name: name.Value, Base: ast.Base{StartPos: name.Pos, EndPos: name.Pos}}
	if b, ok := p.scope.Resolve(name.Value); ok {
		ref.Decl = b
	} else {
		ref.Decl = p.scope.Declare(name.Value, ref)
	}
	return ref, nil
}
