package revset

import (
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokOp
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// operators, longest first so that "::" wins over ":".
var operators = []string{"::", "..", "(", ")", ",", "|", "&", "~", "-", "+", ":", "@", "="}

func isIdentPart(r byte) bool {
	return r < unicode.MaxASCII && (unicode.IsLetter(rune(r)) || unicode.IsDigit(rune(r)) || r == '_' || r == '/')
}

// lex splits text into tokens. Identifiers may contain ".", "-" and "+"
// between alphanumeric parts, so "release-1.2" is one identifier while
// "x-" is an identifier followed by the parents operator.
func lex(text string) ([]token, error) {
	var out []token
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
			continue
		case c == '"':
			end := i + 1
			for end < len(text) && text[end] != '"' {
				if text[end] == '\\' {
					end++
				}
				end++
			}
			if end >= len(text) {
				return nil, &ParseError{Pos: i, Message: "unterminated string literal"}
			}
			s, err := strconv.Unquote(text[i : end+1])
			if err != nil {
				return nil, &ParseError{Pos: i, Message: "invalid string literal"}
			}
			out = append(out, token{kind: tokString, text: s, pos: i})
			i = end + 1
			continue
		case c == '\'':
			end := strings.IndexByte(text[i+1:], '\'')
			if end < 0 {
				return nil, &ParseError{Pos: i, Message: "unterminated string literal"}
			}
			out = append(out, token{kind: tokString, text: text[i+1 : i+1+end], pos: i})
			i += end + 2
			continue
		case isIdentPart(c):
			end := i
			for {
				for end < len(text) && isIdentPart(text[end]) {
					end++
				}
				if end+1 < len(text) && strings.IndexByte(".-+", text[end]) >= 0 && isIdentPart(text[end+1]) {
					end++
					continue
				}
				break
			}
			out = append(out, token{kind: tokIdent, text: text[i:end], pos: i})
			i = end
			continue
		}
		matched := false
		for _, op := range operators {
			if strings.HasPrefix(text[i:], op) {
				out = append(out, token{kind: tokOp, text: op, pos: i})
				i += len(op)
				matched = true
				break
			}
		}
		if !matched {
			return nil, &ParseError{Pos: i, Message: "unexpected character " + strconv.QuoteRune(rune(c))}
		}
	}
	out = append(out, token{kind: tokEOF, pos: len(text)})
	return out, nil
}
