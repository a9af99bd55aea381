package filter

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jmhooper/vikunja-mcp/internal/errors"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokOp // symbolic operators: = != > >= < <=
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokenKind
	text string // raw text; for tokString, the unquoted contents
	pos  int    // byte offset in the source
}

// keyword reports the upper-cased keyword form of an identifier token, or
// "" if the token is not a keyword. Keywords are case-insensitive.
func (t token) keyword() string {
	if t.kind != tokIdent {
		return ""
	}
	switch up := strings.ToUpper(t.text); up {
	case "AND", "OR", "NOT", "IN", "LIKE", "CONTAINS", "BETWEEN", "TRUE", "FALSE":
		return up
	}
	return ""
}

// lex tokenizes the raw filter string. Every error carries the byte
// position of the offending rune.
func lex(raw string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(raw) {
		r, size := utf8.DecodeRuneInString(raw[i:])
		switch {
		case unicode.IsSpace(r):
			i += size

		case r == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++
		case r == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++
		case r == ',':
			toks = append(toks, token{tokComma, ",", i})
			i++

		case r == '=':
			toks = append(toks, token{tokOp, "=", i})
			i++
		case r == '!':
			if i+1 < len(raw) && raw[i+1] == '=' {
				toks = append(toks, token{tokOp, "!=", i})
				i += 2
			} else {
				return nil, errors.NewParse(i, "!", "unexpected character")
			}
		case r == '>':
			if i+1 < len(raw) && raw[i+1] == '=' {
				toks = append(toks, token{tokOp, ">=", i})
				i += 2
			} else {
				toks = append(toks, token{tokOp, ">", i})
				i++
			}
		case r == '<':
			if i+1 < len(raw) && raw[i+1] == '=' {
				toks = append(toks, token{tokOp, "<=", i})
				i += 2
			} else {
				toks = append(toks, token{tokOp, "<", i})
				i++
			}
		case r == '&':
			if i+1 < len(raw) && raw[i+1] == '&' {
				toks = append(toks, token{tokIdent, "AND", i})
				i += 2
			} else {
				return nil, errors.NewParse(i, "&", "unexpected character")
			}
		case r == '|':
			if i+1 < len(raw) && raw[i+1] == '|' {
				toks = append(toks, token{tokIdent, "OR", i})
				i += 2
			} else {
				return nil, errors.NewParse(i, "|", "unexpected character")
			}

		case r == '\'' || r == '"':
			text, next, err := lexString(raw, i, byte(r))
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{tokString, text, i})
			i = next

		case r == '-' || unicode.IsDigit(r):
			text, next, err := lexNumber(raw, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{tokNumber, text, i})
			i = next

		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(raw) {
				r2, size2 := utf8.DecodeRuneInString(raw[i:])
				if !unicode.IsLetter(r2) && !unicode.IsDigit(r2) && r2 != '_' {
					break
				}
				i += size2
			}
			toks = append(toks, token{tokIdent, raw[start:i], start})

		default:
			return nil, errors.NewParse(i, string(r), "unexpected character")
		}
	}
	toks = append(toks, token{tokEOF, "", len(raw)})
	return toks, nil
}

// lexString scans a quoted string starting at the opening quote. Backslash
// escapes the quote character and itself; nothing else is special.
func lexString(raw string, start int, quote byte) (string, int, error) {
	var b strings.Builder
	i := start + 1
	for i < len(raw) {
		c := raw[i]
		switch c {
		case quote:
			return b.String(), i + 1, nil
		case '\\':
			if i+1 < len(raw) && (raw[i+1] == quote || raw[i+1] == '\\') {
				b.WriteByte(raw[i+1])
				i += 2
				continue
			}
			b.WriteByte(c)
			i++
		default:
			b.WriteByte(c)
			i++
		}
	}
	return "", 0, errors.NewParse(start, raw[start:min(start+10, len(raw))], "unterminated string")
}

func lexNumber(raw string, start int) (string, int, error) {
	i := start
	if raw[i] == '-' {
		i++
		if i >= len(raw) || !isDigitByte(raw[i]) {
			return "", 0, errors.NewParse(start, "-", "expected digits after minus sign")
		}
	}
	for i < len(raw) && isDigitByte(raw[i]) {
		i++
	}
	if i < len(raw) && raw[i] == '.' {
		i++
		if i >= len(raw) || !isDigitByte(raw[i]) {
			return "", 0, errors.NewParse(start, raw[start:i], "malformed number")
		}
		for i < len(raw) && isDigitByte(raw[i]) {
			i++
		}
	}
	return raw[start:i], i, nil
}

func isDigitByte(c byte) bool { return c >= '0' && c <= '9' }
