package revset

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/odvcencio/verso/pkg/fileset"
	"github.com/odvcencio/verso/pkg/repo"
)

var (
	// ErrSyntax is wrapped by every *ParseError.
	ErrSyntax = errors.New("revset syntax error")
	// ErrNoSuchRevision is returned when a symbol resolves to nothing.
	ErrNoSuchRevision = errors.New("revision doesn't exist")
)

// ParseError is a revset syntax or binding error at a byte offset.
type ParseError struct {
	Pos     int
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("%s (at position %d)", e.Message, e.Pos)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrSyntax, e.Cause}
	}
	return []error{ErrSyntax}
}

type functionAlias struct {
	params []string
	body   string
}

// ParseContext carries everything parsing needs besides the text: alias
// definitions, the current user and workspace, and path resolution for
// filesets.
type ParseContext struct {
	symbolAliases   map[string]string
	functionAliases map[string][]functionAlias
	UserEmail       string
	Workspace       string
	Paths           repo.PathConverter
}

var aliasDecl = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*(?:\((.*)\))?\s*$`)

// NewParseContext parses alias declarations such as "trunk()" or
// "author_is(x)". Aliases take precedence over built-in functions.
func NewParseContext(aliases map[string]string, userEmail, workspace string, paths repo.PathConverter) (*ParseContext, error) {
	ctx := &ParseContext{
		symbolAliases:   map[string]string{},
		functionAliases: map[string][]functionAlias{},
		UserEmail:       userEmail,
		Workspace:       workspace,
		Paths:           paths,
	}
	decls := make([]string, 0, len(aliases))
	for decl := range aliases {
		decls = append(decls, decl)
	}
	slices.Sort(decls)
	for _, decl := range decls {
		m := aliasDecl.FindStringSubmatch(decl)
		if m == nil {
			return nil, fmt.Errorf("invalid revset alias declaration %q", decl)
		}
		body := aliases[decl]
		if !strings.Contains(decl, "(") {
			ctx.symbolAliases[m[1]] = body
			continue
		}
		var params []string
		if strings.TrimSpace(m[2]) != "" {
			for _, p := range strings.Split(m[2], ",") {
				p = strings.TrimSpace(p)
				if !aliasDecl.MatchString(p) || strings.Contains(p, "(") || slices.Contains(params, p) {
					return nil, fmt.Errorf("invalid revset alias declaration %q: bad parameter %q", decl, p)
				}
				params = append(params, p)
			}
		}
		ctx.functionAliases[m[1]] = append(ctx.functionAliases[m[1]], functionAlias{params: params, body: body})
	}
	return ctx, nil
}

// Parse parses revset text.
func Parse(text string, ctx *ParseContext) (Expression, error) {
	if ctx == nil {
		ctx = &ParseContext{}
	}
	return parseWith(text, ctx, nil, nil)
}

func parseWith(text string, ctx *ParseContext, locals map[string]Expression, expanding []string) (Expression, error) {
	toks, err := lex(text)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, ctx: ctx, locals: locals, expanding: expanding}
	e, err := p.parseUnion()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, p.errorf("unexpected %q", p.peek().text)
	}
	return e, nil
}

type parser struct {
	toks      []token
	i         int
	ctx       *ParseContext
	locals    map[string]Expression
	expanding []string
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) peekAt(n int) token {
	if p.i+n < len(p.toks) {
		return p.toks[p.i+n]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) advance() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) isOp(op string) bool {
	t := p.peek()
	return t.kind == tokOp && t.text == op
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Pos: p.peek().pos, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) parseUnion() (Expression, error) {
	left, err := p.parseIntersection()
	if err != nil {
		return nil, err
	}
	for p.isOp("|") {
		p.advance()
		right, err := p.parseIntersection()
		if err != nil {
			return nil, err
		}
		left = unionExpr{left, right}
	}
	return left, nil
}

func (p *parser) parseIntersection() (Expression, error) {
	left, err := p.parseNegation()
	if err != nil {
		return nil, err
	}
	for p.isOp("&") || p.isOp("~") {
		op := p.advance().text
		right, err := p.parseNegation()
		if err != nil {
			return nil, err
		}
		if op == "&" {
			left = intersectionExpr{left, right}
		} else {
			left = differenceExpr{left, right}
		}
	}
	return left, nil
}

func (p *parser) parseNegation() (Expression, error) {
	if p.isOp("~") {
		p.advance()
		inner, err := p.parseNegation()
		if err != nil {
			return nil, err
		}
		return notExpr{inner}, nil
	}
	return p.parseRange()
}

func (p *parser) startsOperand() bool {
	t := p.peek()
	return t.kind == tokIdent || t.kind == tokString || (t.kind == tokOp && (t.text == "(" || t.text == "@"))
}

func (p *parser) parseRange() (Expression, error) {
	if p.isOp("::") || p.isOp("..") {
		op := p.advance().text
		if !p.startsOperand() {
			if op == "::" {
				return allExpr{}, nil
			}
			return differenceExpr{allExpr{}, rootExpr{}}, nil
		}
		heads, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		if op == "::" {
			return ancestorsExpr{of: heads, depth: -1}, nil
		}
		return rangeExpr{rootExpr{}, heads}, nil
	}
	left, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if !p.isOp("::") && !p.isOp("..") {
		return left, nil
	}
	op := p.advance().text
	if !p.startsOperand() {
		if op == "::" {
			return descendantsExpr{left}, nil
		}
		return notExpr{ancestorsExpr{of: left, depth: -1}}, nil
	}
	right, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if op == "::" {
		return dagRangeExpr{left, right}, nil
	}
	return rangeExpr{left, right}, nil
}

func (p *parser) parsePostfix() (Expression, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.isOp("-") || p.isOp("+") {
		if p.advance().text == "-" {
			e = parentsExpr{e}
		} else {
			e = childrenExpr{e}
		}
	}
	return e, nil
}

func (p *parser) parsePrimary() (Expression, error) {
	t := p.peek()
	switch {
	case t.kind == tokOp && t.text == "(":
		p.advance()
		e, err := p.parseUnion()
		if err != nil {
			return nil, err
		}
		if !p.isOp(")") {
			return nil, p.errorf("expected \")\"")
		}
		p.advance()
		return e, nil
	case t.kind == tokOp && t.text == "@":
		p.advance()
		return workingCopyExpr{workspace: p.ctx.Workspace}, nil
	case t.kind == tokString:
		p.advance()
		return p.symbolWithRemote(t.text)
	case t.kind == tokIdent:
		p.advance()
		if p.isOp("(") {
			return p.parseCall(t)
		}
		return p.symbolWithRemote(t.text)
	case t.kind == tokEOF:
		return nil, p.errorf("unexpected end of expression")
	}
	return nil, p.errorf("unexpected %q", t.text)
}

// symbolWithRemote handles "name", "name@remote" and "workspace@".
func (p *parser) symbolWithRemote(name string) (Expression, error) {
	if !p.isOp("@") {
		return p.symbol(name)
	}
	p.advance()
	switch t := p.peek(); t.kind {
	case tokIdent, tokString:
		p.advance()
		return remoteSymbolExpr{name: name, remote: t.text}, nil
	}
	return workingCopyExpr{workspace: name}, nil
}

func (p *parser) symbol(name string) (Expression, error) {
	if e, ok := p.locals[name]; ok {
		return e, nil
	}
	if body, ok := p.ctx.symbolAliases[name]; ok {
		return p.expandAlias(name, body, nil, nil)
	}
	return symbolExpr{name}, nil
}

func (p *parser) expandAlias(name, body string, params []string, args []Expression) (Expression, error) {
	if slices.Contains(p.expanding, name) {
		return nil, p.errorf("alias %q expanded recursively", name)
	}
	locals := make(map[string]Expression, len(params))
	for i, param := range params {
		locals[param] = args[i]
	}
	e, err := parseWith(body, p.ctx, locals, append(slices.Clone(p.expanding), name))
	if err != nil {
		return nil, &ParseError{Pos: p.peek().pos, Message: fmt.Sprintf("in alias %q", name), Cause: err}
	}
	return e, nil
}

// arg is one function argument. Bare symbols and patterns keep their text
// so functions taking string patterns can use them.
type arg struct {
	keyword string
	expr    Expression
	kind    string
	text    string
	isText  bool
	pos     int
}

func (p *parser) parseArgs() ([]arg, error) {
	p.advance() // "("
	var args []arg
	for !p.isOp(")") {
		a, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if p.isOp(",") {
			p.advance()
			continue
		}
		if !p.isOp(")") {
			return nil, p.errorf("expected \",\" or \")\"")
		}
	}
	p.advance()
	return args, nil
}

func (p *parser) parseArg() (arg, error) {
	a := arg{pos: p.peek().pos}
	if p.peek().kind == tokIdent && p.peekAt(1).kind == tokOp && p.peekAt(1).text == "=" {
		a.keyword = p.advance().text
		p.advance()
	}
	if p.peek().kind == tokIdent && p.peekAt(1).kind == tokOp && p.peekAt(1).text == ":" {
		a.kind = p.advance().text
		p.advance()
		t := p.advance()
		if t.kind != tokIdent && t.kind != tokString {
			return arg{}, &ParseError{Pos: t.pos, Message: "expected string pattern"}
		}
		a.text, a.isText = t.text, true
		return a, nil
	}
	start := p.peek()
	e, err := p.parseUnion()
	if err != nil {
		return arg{}, err
	}
	a.expr = e
	if (start.kind == tokIdent || start.kind == tokString) && p.toks[p.i-1] == start {
		a.text, a.isText = start.text, true
	}
	return a, nil
}

func (p *parser) parseCall(name token) (Expression, error) {
	args, err := p.parseArgs()
	if err != nil {
		return nil, err
	}
	for _, alias := range p.ctx.functionAliases[name.text] {
		if len(alias.params) != len(args) {
			continue
		}
		exprs := make([]Expression, len(args))
		for i, a := range args {
			if a.expr == nil || a.keyword != "" {
				return nil, &ParseError{Pos: a.pos, Message: "alias arguments must be revset expressions"}
			}
			exprs[i] = a.expr
		}
		return p.expandAlias(name.text+"()", alias.body, alias.params, exprs)
	}
	b, ok := builtins[name.text]
	if !ok {
		return nil, &ParseError{Pos: name.pos, Message: fmt.Sprintf("function %q doesn't exist", name.text)}
	}
	e, err := b(p, args)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			return nil, err
		}
		return nil, &ParseError{Pos: name.pos, Message: fmt.Sprintf("invalid arguments to %s()", name.text), Cause: err}
	}
	return e, nil
}

type builtin func(p *parser, args []arg) (Expression, error)

var builtins map[string]builtin

func init() {
	builtins = map[string]builtin{
		"all":         noArgs(allExpr{}),
		"none":        noArgs(noneExpr{}),
		"root":        noArgs(rootExpr{}),
		"mine":        noArgs(filterExpr{kind: filterMine}),
		"empty":       noArgs(filterExpr{kind: filterEmpty}),
		"conflicts":   noArgs(filterExpr{kind: filterConflicts}),
		"merges":      noArgs(filterExpr{kind: filterMerges}),
		"git_head":    noArgs(refsExpr{kind: refGitHead}),
		"git_refs":    noArgs(refsExpr{kind: refGitRefs}),
		"heads":       oneExpr(func(e Expression) Expression { return headsExpr{e} }),
		"roots":       oneExpr(func(e Expression) Expression { return rootsExpr{e} }),
		"parents":     oneExpr(func(e Expression) Expression { return parentsExpr{e} }),
		"children":    oneExpr(func(e Expression) Expression { return childrenExpr{e} }),
		"descendants": oneExpr(func(e Expression) Expression { return descendantsExpr{e} }),
		"present":     oneExpr(func(e Expression) Expression { return presentExpr{e} }),
		"ancestors":   exprWithCount("ancestors", -1, func(e Expression, n int) Expression { return ancestorsExpr{of: e, depth: n} }),
		"latest":      exprWithCount("latest", 1, func(e Expression, n int) Expression { return latestExpr{of: e, count: n} }),
		"bookmarks":   namePattern(refBookmarks),
		"tags":        namePattern(refTags),
		"description": textFilter(filterDescription),
		"author":      textFilter(filterAuthor),
		"committer":   textFilter(filterCommitter),
		"files":       filesFilter,

		"visible_heads":              noArgs(visibleHeadsExpr{}),
		"working_copies":             noArgs(refsExpr{kind: refWorkingCopies}),
		"remote_bookmarks":           remotePatterns(refRemoteBookmarks),
		"tracked_remote_bookmarks":   remotePatterns(refTrackedRemoteBookmarks),
		"untracked_remote_bookmarks": remotePatterns(refUntrackedRemoteBookmarks),
	}
}

func expectArgs(args []arg, minN, maxN int) error {
	if len(args) < minN || len(args) > maxN {
		if minN == maxN {
			return fmt.Errorf("expected %d arguments, got %d", minN, len(args))
		}
		return fmt.Errorf("expected %d to %d arguments, got %d", minN, maxN, len(args))
	}
	for _, a := range args {
		if a.keyword != "" {
			return fmt.Errorf("unexpected keyword argument %q", a.keyword)
		}
	}
	return nil
}

func noArgs(e Expression) builtin {
	return func(_ *parser, args []arg) (Expression, error) {
		if err := expectArgs(args, 0, 0); err != nil {
			return nil, err
		}
		return e, nil
	}
}

func exprArg(a arg) (Expression, error) {
	if a.expr == nil {
		return nil, fmt.Errorf("expected revset expression, got string pattern")
	}
	return a.expr, nil
}

func oneExpr(build func(Expression) Expression) builtin {
	return func(_ *parser, args []arg) (Expression, error) {
		if err := expectArgs(args, 1, 1); err != nil {
			return nil, err
		}
		e, err := exprArg(args[0])
		if err != nil {
			return nil, err
		}
		return build(e), nil
	}
}

func exprWithCount(name string, def int, build func(Expression, int) Expression) builtin {
	return func(_ *parser, args []arg) (Expression, error) {
		if err := expectArgs(args, 1, 2); err != nil {
			return nil, err
		}
		e, err := exprArg(args[0])
		if err != nil {
			return nil, err
		}
		n := def
		if len(args) == 2 {
			if !args[1].isText || args[1].kind != "" {
				return nil, fmt.Errorf("%s: expected integer count", name)
			}
			if n, err = strconv.Atoi(args[1].text); err != nil || n < 0 {
				return nil, fmt.Errorf("%s: invalid count %q", name, args[1].text)
			}
		}
		return build(e, n), nil
	}
}

func patternArg(a arg, defaultKind string) (StringPattern, error) {
	if !a.isText {
		return StringPattern{}, fmt.Errorf("expected string pattern")
	}
	kind := a.kind
	if kind == "" {
		kind = defaultKind
	}
	return NewStringPattern(kind, a.text)
}

func namePattern(kind refKind) builtin {
	return func(_ *parser, args []arg) (Expression, error) {
		if err := expectArgs(args, 0, 1); err != nil {
			return nil, err
		}
		e := refsExpr{kind: kind}
		if len(args) == 1 {
			var err error
			if e.name, err = patternArg(args[0], "substring"); err != nil {
				return nil, err
			}
		}
		return e, nil
	}
}

func remotePatterns(kind refKind) builtin {
	return func(_ *parser, args []arg) (Expression, error) {
		if len(args) > 2 {
			return nil, fmt.Errorf("expected 0 to 2 arguments, got %d", len(args))
		}
		e := refsExpr{kind: kind}
		positional := 0
		for _, a := range args {
			keyword := a.keyword
			if keyword == "" {
				keyword = []string{"name", "remote"}[positional]
				positional++
			}
			pat, err := patternArg(a, "substring")
			if err != nil {
				return nil, err
			}
			switch keyword {
			case "name":
				e.name = pat
			case "remote":
				e.remote = pat
			default:
				return nil, fmt.Errorf("unexpected keyword argument %q", keyword)
			}
		}
		return e, nil
	}
}

func textFilter(kind filterKind) builtin {
	return func(_ *parser, args []arg) (Expression, error) {
		if err := expectArgs(args, 1, 1); err != nil {
			return nil, err
		}
		pat, err := patternArg(args[0], "substring")
		if err != nil {
			return nil, err
		}
		return filterExpr{kind: kind, pattern: pat}, nil
	}
}

func filesFilter(p *parser, args []arg) (Expression, error) {
	if err := expectArgs(args, 1, 1); err != nil {
		return nil, err
	}
	if !args[0].isText {
		return nil, fmt.Errorf("expected fileset expression")
	}
	text := args[0].text
	if args[0].kind != "" {
		text = args[0].kind + ":" + strconv.Quote(text)
	}
	fs, err := fileset.Parse(text, p.ctx.Paths)
	if err != nil {
		return nil, fmt.Errorf("in fileset expression: %w", err)
	}
	return filterExpr{kind: filterFiles, files: fs}, nil
}
