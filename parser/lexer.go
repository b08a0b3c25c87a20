package parser

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrSyntax marks equation text the parser cannot read. Every
// *ParseError unwraps to it.
var ErrSyntax = errors.New("parser: syntax error")

// ParseError pins a syntax problem to a column of the source string.
type ParseError struct {
	Src string
	Pos int // byte offset into Src
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parser: %s (column %d) in %q", e.Msg, e.Pos+1, e.Src)
}

func (e *ParseError) Unwrap() error { return ErrSyntax }

func syntaxErrf(src string, pos int, format string, args ...any) *ParseError {
	return &ParseError{Src: src, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

type tokKind uint8

const (
	tokEOF tokKind = iota
	tokNumber
	tokIdent
	tokPrime
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokCaret
	tokLParen
	tokRParen
	tokComma
	tokEquals
)

func (k tokKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokNumber:
		return "number"
	case tokIdent:
		return "identifier"
	case tokPrime:
		return "'"
	case tokPlus:
		return "+"
	case tokMinus:
		return "-"
	case tokStar:
		return "*"
	case tokSlash:
		return "/"
	case tokCaret:
		return "^"
	case tokLParen:
		return "("
	case tokRParen:
		return ")"
	case tokComma:
		return ","
	case tokEquals:
		return "="
	default:
		panic(k)
	}
}

type token struct {
	kind tokKind
	text string
	pos  int
}

// describe renders the token for error messages.
func (t token) describe() string {
	if t.kind == tokEOF {
		return "end of input"
	}
	return strconv.Quote(t.text)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

// lexAll scans the whole source up front. The token stream always ends
// with a tokEOF entry.
func lexAll(src string) ([]token, error) {
	var toks []token
	pos := 0
	for pos < len(src) {
		c := src[pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			pos++
			continue
		case isDigit(c):
			start := pos
			for pos < len(src) && isDigit(src[pos]) {
				pos++
			}
			if pos < len(src) && src[pos] == '.' {
				pos++
				for pos < len(src) && isDigit(src[pos]) {
					pos++
				}
			}
			if pos < len(src) && (src[pos] == 'e' || src[pos] == 'E') {
				pos++
				if pos < len(src) && (src[pos] == '+' || src[pos] == '-') {
					pos++
				}
				if pos >= len(src) || !isDigit(src[pos]) {
					return nil, syntaxErrf(src, pos, "exponent has no digits")
				}
				for pos < len(src) && isDigit(src[pos]) {
					pos++
				}
			}
			toks = append(toks, token{tokNumber, src[start:pos], start})
		case isAlpha(c):
			start := pos
			for pos < len(src) && (isAlpha(src[pos]) || isDigit(src[pos])) {
				pos++
			}
			toks = append(toks, token{tokIdent, src[start:pos], start})
		default:
			var k tokKind
			switch c {
			case '\'':
				k = tokPrime
			case '+':
				k = tokPlus
			case '-':
				k = tokMinus
			case '*':
				k = tokStar
			case '/':
				k = tokSlash
			case '^':
				k = tokCaret
			case '(':
				k = tokLParen
			case ')':
				k = tokRParen
			case ',':
				k = tokComma
			case '=':
				k = tokEquals
			default:
				return nil, syntaxErrf(src, pos, "unexpected character %q", string(c))
			}
			toks = append(toks, token{k, src[pos : pos+1], pos})
			pos++
		}
	}
	toks = append(toks, token{tokEOF, "", len(src)})
	return toks, nil
}
