package parser

import (
	"strings"

	"github.com/flowquery/flowquery/ast"
	"github.com/flowquery/flowquery/token"
)

func (p *Parser) parseMatch() (ast.Operation, error) {
	start := p.cur.Pos
	optional := false
	if p.curIs(token.OPTIONAL) {
		optional = true
		p.advance()
	}
	if _, err := p.expect(token.MATCH); err != nil {
		return nil, err
	}
	m := &ast.Match{Optional: optional}
	for {
		pat, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		m.Patterns = append(m.Patterns, pat)
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if p.curIs(token.WHERE) {
		p.advance()
		where, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		m.Where = where
	}
	m.StartPos = start
	return m, nil
}

func (p *Parser) parseReturnItems() ([]ast.ReturnItem, bool, error) {
	distinct := false
	if p.curIs(token.DISTINCT) {
		distinct = true
		p.advance()
	}
	var items []ast.ReturnItem
	for {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, false, err
		}
		alias := ""
		if p.curIs(token.AS) {
			p.advance()
			name, err := p.expect(token.IDENT)
			if err != nil {
				return nil, false, err
			}
			alias = name.Value
		}
		items = append(items, ast.ReturnItem{Expr: expr, Alias: alias})
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	return items, distinct, nil
}

// declareAliases registers each item's alias (or, for a bare Reference
// item, its own name) as a fresh Binding in scope, implementing WITH's
// rebind-on-project semantics.
func declareAliases(scope *Scope, items []ast.ReturnItem, origin ast.Node) {
	for i := range items {
		name := items[i].Alias
		if name == "" {
			if ref, ok := items[i].Expr.(*ast.Reference); ok {
				name = ref.Name
			}
		}
		if name != "" {
			items[i].Decl = scope.Declare(name, origin)
		}
	}
}

func containsAggregate(items []ast.ReturnItem) bool {
	for _, it := range items {
		if exprContainsAggregate(it.Expr) {
			return true
		}
	}
	return false
}

var aggregateNames = map[string]bool{
	"count": true, "sum": true, "avg": true, "min": true, "max": true, "collect": true,
}

func exprContainsAggregate(e ast.Expr) bool {
	switch n := e.(type) {
	case *ast.FuncCall:
		if aggregateNames[lowerName(n.Name)] {
			return true
		}
		for _, a := range n.Args {
			if exprContainsAggregate(a) {
				return true
			}
		}
	case *ast.BinaryExpr:
		return exprContainsAggregate(n.Left) || exprContainsAggregate(n.Right)
	case *ast.UnaryExpr:
		return exprContainsAggregate(n.Operand)
	case *ast.PropertyLookup:
		return exprContainsAggregate(n.Target)
	case *ast.IndexExpr:
		return exprContainsAggregate(n.Target) || exprContainsAggregate(n.Index)
	}
	return false
}

func lowerName(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func (p *Parser) parseWith() (ast.Operation, error) {
	start := p.cur.Pos
	p.advance()
	items, distinct, err := p.parseReturnItems()
	if err != nil {
		return nil, err
	}
	w := &ast.With{Items: items, Distinct: distinct}
	w.StartPos = start
	declareAliases(p.scope, items, w)
	return w, nil
}

func (p *Parser) parseReturn() (ast.Operation, error) {
	start := p.cur.Pos
	p.advance()
	items, distinct, err := p.parseReturnItems()
	if err != nil {
		return nil, err
	}
	if containsAggregate(items) {
		ar := &ast.AggregatedReturn{Distinct: distinct}
		for _, it := range items {
			if exprContainsAggregate(it.Expr) {
				ar.Aggregates = append(ar.Aggregates, it)
			} else {
				ar.GroupKeys = append(ar.GroupKeys, it)
			}
		}
		ar.StartPos = start
		return ar, nil
	}
	r := &ast.Return{Items: items, Distinct: distinct}
	r.StartPos = start
	return r, nil
}

func (p *Parser) parseUnwind() (ast.Operation, error) {
	start := p.cur.Pos
	p.advance()
	src, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.AS); err != nil {
		return nil, err
	}
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	u := &ast.Unwind{Source: src, Variable: name.Value}
	u.StartPos = start
	u.Decl = p.scope.Declare(name.Value, u)
	return u, nil
}

func (p *Parser) parseLoad() (ast.Operation, error) {
	start := p.cur.Pos
	p.advance()
	l := &ast.Load{}
	switch p.cur.Kind {
	case token.JSON:
		l.Format = ast.LoadJSON
	case token.CSV:
		l.Format = ast.LoadCSV
	case token.TEXT:
		l.Format = ast.LoadText
	default:
		return nil, p.errorf("expected JSON, CSV, or TEXT after LOAD, got %s", p.cur.Kind)
	}
	p.advance()
	if _, err := p.expect(token.FROM); err != nil {
		return nil, err
	}
	url, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	l.URL = url
	if p.curIs(token.POST) {
		l.Post = true
		p.advance()
		body, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		l.Body = body
	}
	if p.curIs(token.HEADERS) {
		p.advance()
		headers, err := p.parseMapLit()
		if err != nil {
			return nil, err
		}
		l.Headers = headers
	}
	if _, err := p.expect(token.AS); err != nil {
		return nil, err
	}
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	l.Variable = name.Value
	l.StartPos = start
	l.Decl = p.scope.Declare(name.Value, l)
	return l, nil
}

func (p *Parser) parseCall() (ast.Operation, error) {
	start := p.cur.Pos
	p.advance()
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	call := &ast.FuncCall{Name: name.Value, Base: ast.Base{StartPos: name.Pos}}
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
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	c := &ast.Call{Call: call}
	if p.curIs(token.YIELD) {
		p.advance()
		for {
			id, err := p.expect(token.IDENT)
			if err != nil {
				return nil, err
			}
			c.Yield = append(c.Yield, id.Value)
			c.YieldDecls = append(c.YieldDecls, p.scope.Declare(id.Value, c))
			if p.curIs(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
	} else if p.curIs(token.AS) {
		p.advance()
		id, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		c.Variable = id.Value
		c.Decl = p.scope.Declare(id.Value, c)
	}
	c.StartPos = start
	return c, nil
}

func (p *Parser) parseWhere() (ast.Operation, error) {
	start := p.cur.Pos
	p.advance()
	pred, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	w := &ast.Where{Predicate: pred}
	w.StartPos = start
	return w, nil
}

func (p *Parser) parseLimit() (ast.Operation, error) {
	start := p.cur.Pos
	l := &ast.Limit{}
	if p.curIs(token.SKIP) {
		p.advance()
		skip, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		l.Skip = skip
	}
	if p.curIs(token.LIMIT) {
		p.advance()
		count, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		l.Count = count
	}
	l.StartPos = start
	return l, nil
}

func (p *Parser) parseOrderBy() (ast.Operation, error) {
	start := p.cur.Pos
	p.advance()
	if _, err := p.expect(token.BY); err != nil {
		return nil, err
	}
	ob := &ast.OrderBy{}
	for {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		desc := false
		switch p.cur.Kind {
		case token.ASC:
			p.advance()
		case token.DESC:
			desc = true
			p.advance()
		}
		ob.Items = append(ob.Items, ast.OrderByItem{Expr: expr, Descending: desc})
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	ob.StartPos = start
	return ob, nil
}

// parseCreate parses `CREATE VIRTUAL (:Label) AS { <sub-query> }` or
// `CREATE VIRTUAL (:A)-[:T]-(:B) AS { <sub-query> }`, registering a node or
// relationship producer respectively (spec.md §6). The node(s) named in the
// pattern carry only labels/type, never a variable or properties — those
// belong to the producer sub-query's own result rows.
func (p *Parser) parseCreate() (ast.Operation, error) {
	start := p.cur.Pos
	p.advance()
	if _, err := p.expect(token.VIRTUAL); err != nil {
		return nil, err
	}
	pat, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	var op ast.Operation
	switch len(pat.Rels) {
	case 0:
		if len(pat.Nodes[0].Labels) == 0 {
			return nil, p.errorf("CREATE VIRTUAL node pattern requires a label")
		}
		op = &ast.CreateNode{Label: pat.Nodes[0].Labels[0]}
	case 1:
		if len(pat.Nodes[0].Labels) == 0 || len(pat.Nodes[1].Labels) == 0 {
			return nil, p.errorf("CREATE VIRTUAL relationship pattern requires labels on both nodes")
		}
		rel := pat.Rels[0]
		op = &ast.CreateRelationship{
			Type:       firstOr(rel.Types, "RELATED"),
			StartLabel: pat.Nodes[0].Labels[0],
			EndLabel:   pat.Nodes[1].Labels[0],
			Direction:  rel.Direction,
		}
	default:
		return nil, p.errorf("CREATE VIRTUAL supports at most one relationship hop")
	}
	if _, err := p.expect(token.AS); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	body, err := p.parseSubqueryBody()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	switch n := op.(type) {
	case *ast.CreateNode:
		n.Body = body
		n.StartPos = start
	case *ast.CreateRelationship:
		n.Body = body
		n.StartPos = start
	}
	return op, nil
}

func firstOr(types []string, fallback string) string {
	if len(types) == 0 {
		return fallback
	}
	return types[0]
}

func (p *Parser) parseDelete() (ast.Operation, error) {
	start := p.cur.Pos
	p.advance()
	detach := false
	if p.curIs(token.IDENT) && strings.EqualFold(p.cur.Value, "DETACH") {
		detach = true
		p.advance()
	}
	d := &ast.Delete{Detach: detach}
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		d.Targets = append(d.Targets, e)
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	d.StartPos = start
	return d, nil
}
