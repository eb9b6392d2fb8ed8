// Package token defines FlowQuery token kinds and source position tracking.
package token

// Kind classifies a lexed token.
type Kind int

const (
	ILLEGAL Kind = iota
	EOF
	COMMENT

	literalBeg
	IDENT   // node labels, aliases, property keys, function names
	INT     // 12345
	FLOAT   // 123.45
	STRING  // "..." or '...'
	FSTRING // f"..." or f'...' raw content (split into segments by the parser)
	PARAM   // $name or :name
	literalEnd

	operatorBeg
	PLUS     // +
	MINUS    // -
	ASTERISK // * (also COUNT-style variable length hop marker)
	SLASH    // /
	PERCENT  // %
	CARET    // ^
	EQ       // =
	NEQ      // <>
	LT       // <
	GT       // >
	LTE      // <=
	GTE      // >=

	AND_OP
	OR_OP
	NOT_OP
	IS_OP
	IS_NOT_OP
	IN_OP
	NOT_IN_OP
	CONTAINS_OP
	NOT_CONTAINS_OP
	STARTS_WITH_OP
	NOT_STARTS_WITH_OP
	ENDS_WITH_OP
	NOT_ENDS_WITH_OP
	operatorEnd

	LPAREN    // (
	RPAREN    // )
	LBRACKET  // [
	RBRACKET  // ]
	LBRACE    // {
	RBRACE    // }
	COMMA     // ,
	SEMICOLON // ;
	DOT       // .
	DOTDOT    // ..
	COLON     // :
	PIPE      // | (relationship type alternation)
	DASH_GT   // -> (used only inside relationship-direction parsing, never standalone; kept for completeness)

	keywordBeg
	MATCH
	OPTIONAL
	WHERE
	WITH
	RETURN
	UNWIND
	LOAD
	JSON
	CSV
	TEXT
	FROM
	AS
	POST
	HEADERS
	CALL
	YIELD
	CREATE
	VIRTUAL
	LIMIT
	SKIP
	ORDER
	BY
	ASC
	DESC
	CASE
	WHEN
	THEN
	ELSE
	END
	NULL
	TRUE
	FALSE
	DISTINCT
	UNION
	ALL
	AND
	OR
	NOT
	IN
	CONTAINS
	STARTS
	ENDS
	IS
	DELETE
	keywordEnd
)

var names = [...]string{
	ILLEGAL: "ILLEGAL", EOF: "EOF", COMMENT: "COMMENT",
	IDENT: "IDENT", INT: "INT", FLOAT: "FLOAT", STRING: "STRING", FSTRING: "FSTRING", PARAM: "PARAM",
	PLUS: "+", MINUS: "-", ASTERISK: "*", SLASH: "/", PERCENT: "%", CARET: "^",
	EQ: "=", NEQ: "<>", LT: "<", GT: ">", LTE: "<=", GTE: ">=",
	AND_OP: "AND", OR_OP: "OR", NOT_OP: "NOT", IS_OP: "IS", IS_NOT_OP: "IS NOT",
	IN_OP: "IN", NOT_IN_OP: "NOT IN", CONTAINS_OP: "CONTAINS", NOT_CONTAINS_OP: "NOT CONTAINS",
	STARTS_WITH_OP: "STARTS WITH", NOT_STARTS_WITH_OP: "NOT STARTS WITH",
	ENDS_WITH_OP: "ENDS WITH", NOT_ENDS_WITH_OP: "NOT ENDS WITH",
	LPAREN: "(", RPAREN: ")", LBRACKET: "[", RBRACKET: "]", LBRACE: "{", RBRACE: "}",
	COMMA: ",", SEMICOLON: ";", DOT: ".", DOTDOT: "..", COLON: ":", PIPE: "|", DASH_GT: "->",
	MATCH: "MATCH", OPTIONAL: "OPTIONAL", WHERE: "WHERE", WITH: "WITH", RETURN: "RETURN",
	UNWIND: "UNWIND", LOAD: "LOAD", JSON: "JSON", CSV: "CSV", TEXT: "TEXT", FROM: "FROM", AS: "AS",
	POST: "POST", HEADERS: "HEADERS", CALL: "CALL", YIELD: "YIELD", CREATE: "CREATE", VIRTUAL: "VIRTUAL",
	LIMIT: "LIMIT", SKIP: "SKIP", ORDER: "ORDER", BY: "BY", ASC: "ASC", DESC: "DESC",
	CASE: "CASE", WHEN: "WHEN", THEN: "THEN", ELSE: "ELSE", END: "END",
	NULL: "NULL", TRUE: "TRUE", FALSE: "FALSE", DISTINCT: "DISTINCT", UNION: "UNION", ALL: "ALL",
	AND: "AND", OR: "OR", NOT: "NOT", IN: "IN", CONTAINS: "CONTAINS", STARTS: "STARTS", ENDS: "ENDS",
	IS: "IS", DELETE: "DELETE",
}

// String returns the textual name of a token kind.
func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(names) && names[k] != "" {
		return names[k]
	}
	return "UNKNOWN"
}

// IsLiteral reports whether k classifies a literal value token.
func (k Kind) IsLiteral() bool { return k > literalBeg && k < literalEnd }

// IsOperator reports whether k classifies an operator token (including
// multi-word composite operators assembled by the lexer).
func (k Kind) IsOperator() bool { return k > operatorBeg && k < operatorEnd }

// IsKeyword reports whether k classifies a reserved keyword.
func (k Kind) IsKeyword() bool { return k > keywordBeg && k < keywordEnd }

// Pos is a position within FlowQuery source text.
type Pos struct {
	Offset int
	Line   int
	Column int
}

// IsValid reports whether p was ever set by the lexer.
func (p Pos) IsValid() bool { return p.Line > 0 }

// Item is one lexed token: its kind, literal text, and source position.
type Item struct {
	Kind  Kind
	Value string
	Pos   Pos
}

// keywords maps the case-folded spelling of a reserved word to its Kind.
// Populated in keywords.go so identifier names and string constants stay
// next to each other.
var keywords = map[string]Kind{
	"match": MATCH, "optional": OPTIONAL, "where": WHERE, "with": WITH,
	"return": RETURN, "unwind": UNWIND, "load": LOAD, "json": JSON, "csv": CSV,
	"text": TEXT, "from": FROM, "as": AS, "post": POST, "headers": HEADERS,
	"call": CALL, "yield": YIELD, "create": CREATE, "virtual": VIRTUAL,
	"limit": LIMIT, "skip": SKIP, "order": ORDER, "by": BY, "asc": ASC, "desc": DESC,
	"case": CASE, "when": WHEN, "then": THEN, "else": ELSE, "end": END,
	"null": NULL, "true": TRUE, "false": FALSE, "distinct": DISTINCT,
	"union": UNION, "all": ALL, "and": AND, "or": OR, "not": NOT, "in": IN,
	"contains": CONTAINS, "starts": STARTS, "ends": ENDS, "is": IS, "delete": DELETE,
}

// LookupIdent classifies val as a keyword Kind, or IDENT if it is not reserved.
// Lookup is case-insensitive per spec.md §4.1.
func LookupIdent(val string) Kind {
	if k, ok := keywords[lower(val)]; ok {
		return k
	}
	return IDENT
}

func lower(s string) string {
	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		b[i] = c
	}
	return string(b)
}
