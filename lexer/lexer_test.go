package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowquery/flowquery/token"
)

func collect(src string) []token.Item {
	l := New(src)
	var items []token.Item
	for {
		it := l.Next()
		items = append(items, it)
		if it.Kind == token.EOF || it.Kind == token.ILLEGAL {
			break
		}
	}
	return items
}

func kinds(items []token.Item) []token.Kind {
	ks := make([]token.Kind, len(items))
	for i, it := range items {
		ks[i] = it.Kind
	}
	return ks
}

func TestSingleCharTokens(t *testing.T) {
	items := collect("( ) [ ] { } , . :")
	require.Equal(t, []token.Kind{
		token.LPAREN, token.RPAREN, token.LBRACKET, token.RBRACKET,
		token.LBRACE, token.RBRACE, token.COMMA, token.DOT, token.COLON, token.EOF,
	}, kinds(items))
}

func TestNumberLiterals(t *testing.T) {
	items := collect("1 2.5 10e3 1..5")
	require.Equal(t, token.INT, items[0].Kind)
	require.Equal(t, token.FLOAT, items[1].Kind)
	require.Equal(t, token.FLOAT, items[2].Kind)
	require.Equal(t, "1", items[3].Value)
	require.Equal(t, token.DOTDOT, items[4].Kind)
	require.Equal(t, "5", items[5].Value)
}

func TestStringEscapes(t *testing.T) {
	items := collect(`'it\'s' "a\"b"`)
	require.Equal(t, token.STRING, items[0].Kind)
	require.Equal(t, "it's", items[0].Value)
	require.Equal(t, token.STRING, items[1].Kind)
	require.Equal(t, `a"b`, items[1].Value)
}

func TestBacktickIdentifierAllowsKeyword(t *testing.T) {
	items := collect("`return`")
	require.Equal(t, token.IDENT, items[0].Kind)
	require.Equal(t, "return", items[0].Value)
}

func TestFStringRawCapture(t *testing.T) {
	items := collect(`f"hello {name}!"`)
	require.Equal(t, token.FSTRING, items[0].Kind)
	require.Equal(t, "hello {name}!", items[0].Value)
}

func TestMultiWordOperators(t *testing.T) {
	cases := map[string]token.Kind{
		"IS NULL":               token.IS_OP,
		"IS NOT NULL":           token.IS_NOT_OP,
		"IN":                    token.IN_OP,
		"NOT IN":                token.NOT_IN_OP,
		"CONTAINS":              token.CONTAINS_OP,
		"NOT CONTAINS":          token.NOT_CONTAINS_OP,
		"STARTS WITH":           token.STARTS_WITH_OP,
		"NOT STARTS WITH":       token.NOT_STARTS_WITH_OP,
		"ENDS WITH":             token.ENDS_WITH_OP,
		"NOT ENDS WITH 'x'":     token.NOT_ENDS_WITH_OP,
	}
	for src, want := range cases {
		items := collect(src)
		require.Equalf(t, want, items[0].Kind, "source %q", src)
	}
}

func TestPlainNotWhenNotCombinable(t *testing.T) {
	items := collect("NOT x")
	require.Equal(t, token.NOT_OP, items[0].Kind)
	require.Equal(t, token.IDENT, items[1].Kind)
}

func TestCommentsSkipped(t *testing.T) {
	items := collect("1 // comment\n2 /* block */ 3")
	require.Equal(t, []token.Kind{token.INT, token.INT, token.INT, token.EOF}, kinds(items))
}

func TestKeywordsCaseInsensitive(t *testing.T) {
	items := collect("Match match MATCH")
	for _, it := range items[:3] {
		require.Equal(t, token.MATCH, it.Kind)
	}
}

func TestMinusBeforeNumberIsSeparateToken(t *testing.T) {
	// Lexer always emits MINUS; unary-vs-binary disambiguation is the
	// parser's job (spec.md §4.1).
	items := collect("-5")
	require.Equal(t, token.MINUS, items[0].Kind)
	require.Equal(t, token.INT, items[1].Kind)
	require.Equal(t, "5", items[1].Value)
}

func TestPeekDoesNotConsume(t *testing.T) {
	l := New("a b")
	p1 := l.Peek()
	p2 := l.Peek()
	require.Equal(t, p1, p2)
	n := l.Next()
	require.Equal(t, p1, n)
	n2 := l.Next()
	require.Equal(t, "b", n2.Value)
}

func TestPooledLexerReset(t *testing.T) {
	l := Get("match (n) return n")
	first := l.Next()
	require.Equal(t, token.MATCH, first.Kind)
	Put(l)

	l2 := Get("return 1")
	require.Equal(t, token.RETURN, l2.Next().Kind)
	Put(l2)
}
