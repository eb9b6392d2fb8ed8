// Package parser builds a FlowQuery ast.Query from source text: a
// recursive-descent pass over clauses, with expressions parsed by an
// explicit-stack Shunting-Yard algorithm (shunting_yard.go).
package parser

import (
	"fmt"
	"sync"

	"github.com/flowquery/flowquery/ast"
	"github.com/flowquery/flowquery/lexer"
	"github.com/flowquery/flowquery/token"
)

// ParseError carries the source position of a syntax or binding error.
type ParseError struct {
	Pos     token.Pos
	Message string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Parser is a recursive-descent FlowQuery parser.
type Parser struct {
	lexer  *lexer.Lexer
	cur    token.Item
	peek   token.Item
	peeked bool
	errors []ParseError
	scope  *Scope
	// aggDepth tracks aggregate-function nesting so the parser can reject
	// an aggregate call used as the argument of another aggregate call,
	// per spec.md §4.6's no-nested-aggregates rule.
	aggDepth int
}

var pool = sync.Pool{New: func() any { return &Parser{} }}

// New creates a Parser over input.
func New(input string) *Parser {
	p := &Parser{lexer: lexer.New(input), scope: newScope()}
	p.advance()
	return p
}

// Get returns a pooled Parser reset to parse input.
func Get(input string) *Parser {
	p := pool.Get().(*Parser)
	p.lexer = lexer.Get(input)
	p.errors = p.errors[:0]
	p.scope = newScope()
	p.aggDepth = 0
	p.peeked = false
	p.advance()
	return p
}

// Put returns p and its lexer to the pool.
func Put(p *Parser) {
	if p.lexer != nil {
		lexer.Put(p.lexer)
		p.lexer = nil
	}
	pool.Put(p)
}

func (p *Parser) advance() {
	if p.peeked {
		p.cur = p.peek
		p.peeked = false
		return
	}
	p.cur = p.lexer.Next()
}

func (p *Parser) peekToken() token.Item {
	if !p.peeked {
		p.peek = p.lexer.Next()
		p.peeked = true
	}
	return p.peek
}

func (p *Parser) curIs(k token.Kind) bool { return p.cur.Kind == k }

// mark captures the parser's full position (including buffered cur/peek
// tokens) for speculative, backtrackable parsing.
type mark struct {
	lex    lexer.Mark
	cur    token.Item
	peek   token.Item
	peeked bool
}

func (p *Parser) mark() mark {
	return mark{lex: p.lexer.Checkpoint(), cur: p.cur, peek: p.peek, peeked: p.peeked}
}

func (p *Parser) rewind(m mark) {
	p.lexer.Rewind(m.lex)
	p.cur, p.peek, p.peeked = m.cur, m.peek, m.peeked
}

func (p *Parser) expect(k token.Kind) (token.Item, error) {
	if !p.curIs(k) {
		return token.Item{}, p.errorf("expected %s, got %s %q", k, p.cur.Kind, p.cur.Value)
	}
	it := p.cur
	p.advance()
	return it, nil
}

func (p *Parser) errorf(format string, args ...any) error {
	err := ParseError{Pos: p.cur.Pos, Message: fmt.Sprintf(format, args...)}
	p.errors = append(p.errors, err)
	return err
}

// Parse parses a complete query: one or more UNION-joined statements.
func (p *Parser) Parse() (*ast.Query, error) {
	q := &ast.Query{}
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	q.Statements = append(q.Statements, stmt)
	q.UnionAll = append(q.UnionAll, false)

	for p.curIs(token.UNION) {
		p.advance()
		all := false
		if p.curIs(token.ALL) {
			all = true
			p.advance()
		}
		next, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		q.Statements = append(q.Statements, next)
		q.UnionAll = append(q.UnionAll, all)
	}

	for p.curIs(token.SEMICOLON) {
		p.advance()
	}
	if !p.curIs(token.EOF) {
		return nil, p.errorf("unexpected token %s after query", p.cur.Kind)
	}
	return q, nil
}

// parseSubqueryBody parses the `{ ... }` body of a CREATE VIRTUAL
// declaration as an independently scoped query: its own fresh Scope, since
// a producer sub-query's variables are unrelated to whatever query later
// triggers it by matching the label/type. The caller has already consumed
// the opening LBRACE and is responsible for consuming the closing RBRACE.
func (p *Parser) parseSubqueryBody() (*ast.Query, error) {
	outer := p.scope
	p.scope = newScope()
	defer func() { p.scope = outer }()

	q := &ast.Query{}
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	q.Statements = append(q.Statements, stmt)
	q.UnionAll = append(q.UnionAll, false)

	for p.curIs(token.UNION) {
		p.advance()
		all := false
		if p.curIs(token.ALL) {
			all = true
			p.advance()
		}
		next, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		q.Statements = append(q.Statements, next)
		q.UnionAll = append(q.UnionAll, all)
	}
	return q, nil
}

// parseStatement parses one operation chain. RETURN, CREATE, and DELETE are
// the content-terminal clauses: exactly one must appear, nothing that
// introduces or reshapes rows (MATCH, WITH, UNWIND, LOAD, CALL, WHERE,
// CREATE, DELETE, RETURN) may follow it, but ORDER BY/SKIP/LIMIT may
// appear on either side of it, since they modify the projected stream
// rather than the projection itself (spec.md §4.2).
func (p *Parser) parseStatement() (*ast.Statement, error) {
	stmt := &ast.Statement{}
	var head, tail ast.Operation
	contentTerminal := false

	link := func(op ast.Operation) {
		if head == nil {
			head = op
		} else {
			tail.SetNext(op)
		}
		tail = op
	}

	for !p.curIs(token.EOF) && !p.curIs(token.SEMICOLON) && !p.curIs(token.UNION) && !p.curIs(token.RBRACE) {
		var op ast.Operation
		var err error
		closesContent := false

		switch p.cur.Kind {
		case token.MATCH, token.OPTIONAL:
			if contentTerminal {
				return nil, p.errorf("MATCH cannot follow RETURN, CREATE, or DELETE")
			}
			op, err = p.parseMatch()
		case token.WITH:
			if contentTerminal {
				return nil, p.errorf("WITH cannot follow RETURN, CREATE, or DELETE")
			}
			op, err = p.parseWith()
		case token.UNWIND:
			if contentTerminal {
				return nil, p.errorf("UNWIND cannot follow RETURN, CREATE, or DELETE")
			}
			op, err = p.parseUnwind()
		case token.LOAD:
			if contentTerminal {
				return nil, p.errorf("LOAD cannot follow RETURN, CREATE, or DELETE")
			}
			op, err = p.parseLoad()
		case token.CALL:
			if contentTerminal {
				return nil, p.errorf("CALL cannot follow RETURN, CREATE, or DELETE")
			}
			op, err = p.parseCall()
		case token.WHERE:
			if contentTerminal {
				return nil, p.errorf("WHERE cannot follow RETURN, CREATE, or DELETE")
			}
			op, err = p.parseWhere()
		case token.LIMIT, token.SKIP:
			op, err = p.parseLimit()
		case token.ORDER:
			op, err = p.parseOrderBy()
		case token.CREATE:
			if contentTerminal {
				return nil, p.errorf("a query may have only one RETURN, CREATE, or DELETE")
			}
			op, err = p.parseCreate()
			closesContent = true
		case token.DELETE:
			if contentTerminal {
				return nil, p.errorf("a query may have only one RETURN, CREATE, or DELETE")
			}
			op, err = p.parseDelete()
			closesContent = true
		case token.RETURN:
			if contentTerminal {
				return nil, p.errorf("a query may have only one RETURN, CREATE, or DELETE")
			}
			op, err = p.parseReturn()
			closesContent = true
		default:
			return nil, p.errorf("unexpected token %s in query", p.cur.Kind)
		}
		if err != nil {
			return nil, err
		}
		link(op)
		if closesContent {
			contentTerminal = true
		}
	}
	if !contentTerminal {
		return nil, p.errorf("statement must end in RETURN, CREATE, or DELETE")
	}
	stmt.Head = head
	return stmt, nil
}
