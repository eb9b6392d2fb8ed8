package parser

import "github.com/pkg/errors"

// fstringSegment is one raw piece of an f-string body before it has been
// turned into an ast.FStringSegment: either literal text or source text to
// be recursively parsed as an expression.
type fstringSegment struct {
	text   string
	isExpr bool
}

// splitFString splits an f-string's raw body (as captured verbatim by the
// lexer) into alternating literal and `{expr}` segments. `{{` and `}}`
// escape to a literal brace, matching Python f-string escaping, the
// closest familiar precedent for this syntax.
func splitFString(raw string) ([]fstringSegment, error) {
	var segs []fstringSegment
	var lit []byte
	i := 0
	for i < len(raw) {
		c := raw[i]
		switch c {
		case '{':
			if i+1 < len(raw) && raw[i+1] == '{' {
				lit = append(lit, '{')
				i += 2
				continue
			}
			if len(lit) > 0 {
				segs = append(segs, fstringSegment{text: string(lit)})
				lit = nil
			}
			depth := 1
			start := i + 1
			j := start
			for j < len(raw) && depth > 0 {
				switch raw[j] {
				case '{':
					depth++
				case '}':
					depth--
					if depth == 0 {
						break
					}
				}
				if depth > 0 {
					j++
				}
			}
			if depth != 0 {
				return nil, errors.New("unterminated f-string expression")
			}
			segs = append(segs, fstringSegment{text: raw[start:j], isExpr: true})
			i = j + 1
		case '}':
			if i+1 < len(raw) && raw[i+1] == '}' {
				lit = append(lit, '}')
				i += 2
				continue
			}
			return nil, errors.New("unmatched '}' in f-string")
		default:
			lit = append(lit, c)
			i++
		}
	}
	if len(lit) > 0 {
		segs = append(segs, fstringSegment{text: string(lit)})
	}
	return segs, nil
}
