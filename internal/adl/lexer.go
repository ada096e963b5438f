package adl

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokNumber
	tokLBrace
	tokRBrace
	tokEquals
)

type token struct {
	kind tokenKind
	text string
	line int
}

// lex tokenizes ADL source (§6): bare identifiers/numbers, double-quoted
// strings with `\`/`"`/control-char escapes, `{`, `}`, `=`. Comments
// starting with `#` run to end of line.
func lex(src string) ([]token, error) {
	var toks []token
	line := 1
	i := 0
	n := len(src)
	for i < n {
		c := src[i]
		switch {
		case c == '\n':
			line++
			i++
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == '#':
			for i < n && src[i] != '\n' {
				i++
			}
		case c == '{':
			toks = append(toks, token{tokLBrace, "{", line})
			i++
		case c == '}':
			toks = append(toks, token{tokRBrace, "}", line})
			i++
		case c == '=':
			toks = append(toks, token{tokEquals, "=", line})
			i++
		case c == '"':
			startLine := line
			i++
			var b strings.Builder
			for i < n && src[i] != '"' {
				if src[i] == '\\' && i+1 < n {
					switch src[i+1] {
					case 'n':
						b.WriteByte('\n')
					case 'r':
						b.WriteByte('\r')
					case 't':
						b.WriteByte('\t')
					case '"':
						b.WriteByte('"')
					case '\\':
						b.WriteByte('\\')
					default:
						b.WriteByte(src[i+1])
					}
					i += 2
					continue
				}
				if src[i] == '\n' {
					line++
				}
				b.WriteByte(src[i])
				i++
			}
			if i >= n {
				return nil, fmt.Errorf("adl: unterminated string starting at line %d", startLine)
			}
			i++ // closing quote
			toks = append(toks, token{tokString, b.String(), startLine})
		default:
			start := i
			for i < n && !isDelim(src[i]) {
				i++
			}
			if i == start {
				return nil, fmt.Errorf("adl: unexpected character %q at line %d", c, line)
			}
			toks = append(toks, token{tokIdent, src[start:i], line})
		}
	}
	toks = append(toks, token{tokEOF, "", line})
	return toks, nil
}

func isDelim(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '{', '}', '=', '"', '#':
		return true
	default:
		return false
	}
}
