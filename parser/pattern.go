package parser

import (
	"github.com/flowquery/flowquery/ast"
	"github.com/flowquery/flowquery/token"
)

// parsePattern parses one `(a)-[r:TYPE*1..3]->(b)-...` path pattern. An
// optional leading `name =` binds the whole path.
func (p *Parser) parsePattern() (*ast.Pattern, error) {
	pat := &ast.Pattern{}
	if p.curIs(token.IDENT) && p.peekToken().Kind == token.EQ {
		pat.Variable = p.cur.Value
		p.advance()
		p.advance()
	}

	first, err := p.parseNodePattern()
	if err != nil {
		return nil, err
	}
	pat.Nodes = append(pat.Nodes, first)

	for p.curIs(token.MINUS) || p.curIs(token.LT) {
		rel, err := p.parseRelationshipPattern()
		if err != nil {
			return nil, err
		}
		pat.Rels = append(pat.Rels, rel)

		node, err := p.parseNodePattern()
		if err != nil {
			return nil, err
		}
		pat.Nodes = append(pat.Nodes, node)
	}

	if pat.Variable != "" {
		pat.Decl = p.scope.Declare(pat.Variable, pat)
	}
	return pat, nil
}

func (p *Parser) parseNodePattern() (*ast.NodePattern, error) {
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	n := &ast.NodePattern{}
	if p.curIs(token.IDENT) {
		n.Variable = p.cur.Value
		p.advance()
	}
	for p.curIs(token.COLON) {
		p.advance()
		label, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		n.Labels = append(n.Labels, label.Value)
	}
	if p.curIs(token.LBRACE) {
		props, err := p.parseMapLit()
		if err != nil {
			return nil, err
		}
		n.Properties = props
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	if n.Variable != "" {
		n.Decl = p.scope.ResolveOrDeclare(n.Variable, n)
	}
	return n, nil
}

// parseRelationshipPattern parses one `-[...]-`, `-[...]->`, or
// `<-[...]-` hop, including the variable-length `*min..max` suffix.
func (p *Parser) parseRelationshipPattern() (*ast.RelationshipPattern, error) {
	rel := &ast.RelationshipPattern{MinHops: 1, MaxHops: 1}
	leftArrow := false
	if p.curIs(token.LT) {
		leftArrow = true
		p.advance()
	}
	if _, err := p.expect(token.MINUS); err != nil {
		return nil, err
	}
	if p.curIs(token.LBRACKET) {
		p.advance()
		if p.curIs(token.IDENT) {
			rel.Variable = p.cur.Value
			p.advance()
		}
		if p.curIs(token.COLON) {
			p.advance()
			for {
				t, err := p.expect(token.IDENT)
				if err != nil {
					return nil, err
				}
				rel.Types = append(rel.Types, t.Value)
				if !p.curIs(token.PIPE) {
					break
				}
				p.advance()
			}
		}
		if p.curIs(token.ASTERISK) {
			rel.Variable_ = true
			p.advance()
			if p.curIs(token.INT) {
				lo, err := parseIntLiteral(p.cur.Value)
				if err != nil {
					return nil, err
				}
				rel.MinHops = lo
				rel.MaxHops = lo
				p.advance()
				if p.curIs(token.DOTDOT) {
					p.advance()
					rel.MaxHops = -1
					if p.curIs(token.INT) {
						hi, err := parseIntLiteral(p.cur.Value)
						if err != nil {
							return nil, err
						}
						rel.MaxHops = hi
						p.advance()
					}
				}
			} else {
				rel.MinHops = 1
				rel.MaxHops = -1
			}
		}
		if p.curIs(token.LBRACE) {
			props, err := p.parseMapLit()
			if err != nil {
				return nil, err
			}
			rel.Properties = props
		}
		if _, err := p.expect(token.RBRACKET); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.MINUS); err != nil {
		return nil, err
	}
	rightArrow := false
	if p.curIs(token.GT) {
		rightArrow = true
		p.advance()
	}
	switch {
	case leftArrow && !rightArrow:
		rel.Direction = ast.DirIn
	case rightArrow && !leftArrow:
		rel.Direction = ast.DirOut
	default:
		rel.Direction = ast.DirEither
	}
	if rel.Variable != "" {
		rel.Decl = p.scope.ResolveOrDeclare(rel.Variable, rel)
	}
	return rel, nil
}

func parseIntLiteral(s string) (int, error) {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n, nil
}
