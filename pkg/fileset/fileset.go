// Package fileset parses fileset expressions into path matchers.
//
// Grammar, loosest binding first:
//
//	expr    = term { "|" term }
//	term    = unary { ("&" | "~") unary }
//	unary   = "~" unary | primary
//	primary = "(" expr ")" | "all()" | "none()" | pattern
//	pattern = [kind ":"] (word | quoted-string)
//
// Pattern kinds are cwd (the default; a path prefix relative to the
// current directory), file, glob, root, root-file and root-glob.
package fileset

import (
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"unicode"

	"github.com/odvcencio/verso/pkg/repo"
)

// ErrSyntax is wrapped by all parse errors.
var ErrSyntax = errors.New("fileset syntax error")

// Matcher decides whether a file path is selected.
type Matcher interface {
	Matches(p repo.RepoPath) bool
}

// Expression is a parsed fileset.
type Expression interface {
	Matcher
	String() string
}

type everything struct{}

func (everything) Matches(repo.RepoPath) bool { return true }
func (everything) String() string             { return "all()" }

type nothing struct{}

func (nothing) Matches(repo.RepoPath) bool { return false }
func (nothing) String() string             { return "none()" }

// All returns the expression matching every path.
func All() Expression { return everything{} }

// None returns the expression matching no path.
func None() Expression { return nothing{} }

type prefixPattern struct{ dir repo.RepoPath }

func (m prefixPattern) Matches(p repo.RepoPath) bool { return p.HasPrefix(m.dir) }
func (m prefixPattern) String() string               { return "root:" + strconv.Quote(string(m.dir)) }

type filePattern struct{ file repo.RepoPath }

func (m filePattern) Matches(p repo.RepoPath) bool { return p == m.file }
func (m filePattern) String() string               { return "root-file:" + strconv.Quote(string(m.file)) }

type globPattern struct {
	dir     repo.RepoPath
	pattern string
}

func (m globPattern) Matches(p repo.RepoPath) bool {
	if !m.dir.IsRoot() && !strings.HasPrefix(string(p), string(m.dir)+"/") {
		return false
	}
	rel := string(p)
	if !m.dir.IsRoot() {
		rel = rel[len(m.dir)+1:]
	}
	ok, err := path.Match(m.pattern, rel)
	return err == nil && ok
}

func (m globPattern) String() string {
	return "root-glob:" + strconv.Quote(string(m.dir.Join(m.pattern)))
}

type union struct{ a, b Expression }

func (m union) Matches(p repo.RepoPath) bool { return m.a.Matches(p) || m.b.Matches(p) }
func (m union) String() string               { return "(" + m.a.String() + " | " + m.b.String() + ")" }

type intersection struct{ a, b Expression }

func (m intersection) Matches(p repo.RepoPath) bool { return m.a.Matches(p) && m.b.Matches(p) }
func (m intersection) String() string               { return "(" + m.a.String() + " & " + m.b.String() + ")" }

type difference struct{ a, b Expression }

func (m difference) Matches(p repo.RepoPath) bool { return m.a.Matches(p) && !m.b.Matches(p) }
func (m difference) String() string               { return "(" + m.a.String() + " ~ " + m.b.String() + ")" }

// Parse parses text, resolving relative patterns with conv.
func Parse(text string, conv repo.PathConverter) (Expression, error) {
	p := &parser{src: text, conv: conv}
	p.next()
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.errorf("unexpected %q", p.tok.text)
	}
	return expr, nil
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokWord
	tokString
	tokOp
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type parser struct {
	src  string
	pos  int
	tok  token
	conv repo.PathConverter
	err  error
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w at %d: %s", ErrSyntax, p.tok.pos, fmt.Sprintf(format, args...))
}

func isWordRune(r rune) bool {
	return !unicode.IsSpace(r) && !strings.ContainsRune(`()|&~"':,`, r)
}

func (p *parser) next() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
	start := p.pos
	if p.pos >= len(p.src) {
		p.tok = token{kind: tokEOF, pos: start}
		return
	}
	c := p.src[p.pos]
	switch {
	case strings.IndexByte("()|&~:", c) >= 0:
		p.pos++
		p.tok = token{kind: tokOp, text: string(c), pos: start}
	case c == '"':
		end := start + 1
		for end < len(p.src) && p.src[end] != '"' {
			if p.src[end] == '\\' {
				end++
			}
			end++
		}
		if end >= len(p.src) {
			p.err = fmt.Errorf("%w at %d: unterminated string", ErrSyntax, start)
			p.tok = token{kind: tokEOF, pos: start}
			p.pos = len(p.src)
			return
		}
		text, err := strconv.Unquote(p.src[start : end+1])
		if err != nil {
			p.err = fmt.Errorf("%w at %d: %v", ErrSyntax, start, err)
		}
		p.pos = end + 1
		p.tok = token{kind: tokString, text: text, pos: start}
	default:
		end := start
		for end < len(p.src) {
			r := rune(p.src[end])
			if !isWordRune(r) {
				break
			}
			end++
		}
		if end == start {
			p.err = fmt.Errorf("%w at %d: unexpected character %q", ErrSyntax, start, c)
			p.pos = len(p.src)
			p.tok = token{kind: tokEOF, pos: start}
			return
		}
		p.pos = end
		p.tok = token{kind: tokWord, text: p.src[start:end], pos: start}
	}
}

func (p *parser) isOp(op string) bool { return p.tok.kind == tokOp && p.tok.text == op }

func (p *parser) parseExpr() (Expression, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.isOp("|") {
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = union{left, right}
	}
	return left, nil
}

func (p *parser) parseTerm() (Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isOp("&") || p.isOp("~") {
		op := p.tok.text
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if op == "&" {
			left = intersection{left, right}
		} else {
			left = difference{left, right}
		}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expression, error) {
	if p.isOp("~") {
		p.next()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return difference{All(), inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expression, error) {
	if p.err != nil {
		return nil, p.err
	}
	switch {
	case p.isOp("("):
		p.next()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if !p.isOp(")") {
			return nil, p.errorf("expected \")\"")
		}
		p.next()
		return inner, nil
	case p.tok.kind == tokString:
		text := p.tok.text
		p.next()
		return p.pattern("cwd", text)
	case p.tok.kind == tokWord:
		word := p.tok.text
		p.next()
		if p.isOp("(") {
			p.next()
			if !p.isOp(")") {
				return nil, p.errorf("function %s() takes no arguments", word)
			}
			p.next()
			switch word {
			case "all":
				return All(), nil
			case "none":
				return None(), nil
			}
			return nil, fmt.Errorf("%w: function %q doesn't exist", ErrSyntax, word)
		}
		if p.isOp(":") {
			p.next()
			if p.err != nil {
				return nil, p.err
			}
			if p.tok.kind != tokWord && p.tok.kind != tokString {
				return nil, p.errorf("expected pattern after %s:", word)
			}
			value := p.tok.text
			p.next()
			return p.pattern(word, value)
		}
		return p.pattern("cwd", word)
	}
	if p.tok.kind == tokEOF {
		return nil, p.errorf("unexpected end of expression")
	}
	return nil, p.errorf("unexpected %q", p.tok.text)
}

func (p *parser) pattern(kind, value string) (Expression, error) {
	resolve := func() (repo.RepoPath, error) {
		rp, err := p.conv.ParseFilePath(value)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		return rp, nil
	}
	switch kind {
	case "cwd":
		rp, err := resolve()
		if err != nil {
			return nil, err
		}
		return prefixPattern{rp}, nil
	case "file":
		rp, err := resolve()
		if err != nil {
			return nil, err
		}
		return filePattern{rp}, nil
	case "glob":
		dir, err := p.conv.ParseFilePath(".")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		return newGlob(dir, value)
	case "root":
		return prefixPattern{repo.RepoPath(strings.Trim(value, "/"))}, nil
	case "root-file":
		return filePattern{repo.RepoPath(strings.Trim(value, "/"))}, nil
	case "root-glob":
		return newGlob("", value)
	}
	return nil, fmt.Errorf("%w: invalid file pattern kind %q", ErrSyntax, kind)
}

func newGlob(dir repo.RepoPath, pattern string) (Expression, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("%w: bad glob %q: %v", ErrSyntax, pattern, err)
	}
	return globPattern{dir: dir, pattern: pattern}, nil
}
