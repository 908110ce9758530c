package revset

import (
	"fmt"

	"github.com/odvcencio/verso/pkg/fileset"
)

// Expression is a parsed revset. Evaluate it against a repository to get
// a Revset.
type Expression interface {
	String() string
	isExpression()
}

type (
	allExpr          struct{}
	noneExpr         struct{}
	rootExpr         struct{}
	visibleHeadsExpr struct{}
	workingCopyExpr  struct{ workspace string }
	symbolExpr       struct{ name string }
	remoteSymbolExpr struct{ name, remote string }
	ancestorsExpr    struct {
		of    Expression
		depth int // negative means unlimited
	}
	descendantsExpr struct{ of Expression }
	rangeExpr       struct{ roots, heads Expression }
	dagRangeExpr    struct{ roots, heads Expression }
	parentsExpr     struct{ of Expression }
	childrenExpr    struct{ of Expression }
	headsExpr       struct{ of Expression }
	rootsExpr       struct{ of Expression }
	latestExpr      struct {
		of    Expression
		count int
	}
	presentExpr      struct{ of Expression }
	notExpr          struct{ of Expression }
	unionExpr        struct{ a, b Expression }
	intersectionExpr struct{ a, b Expression }
	differenceExpr   struct{ a, b Expression }
	refsExpr         struct {
		kind   refKind
		name   StringPattern
		remote StringPattern
	}
	filterExpr struct {
		kind    filterKind
		pattern StringPattern
		files   fileset.Expression
	}
)

type refKind int

const (
	refBookmarks refKind = iota
	refRemoteBookmarks
	refTrackedRemoteBookmarks
	refUntrackedRemoteBookmarks
	refTags
	refGitRefs
	refGitHead
	refWorkingCopies
)

var refKindNames = map[refKind]string{
	refBookmarks:                "bookmarks",
	refRemoteBookmarks:          "remote_bookmarks",
	refTrackedRemoteBookmarks:   "tracked_remote_bookmarks",
	refUntrackedRemoteBookmarks: "untracked_remote_bookmarks",
	refTags:                     "tags",
	refGitRefs:                  "git_refs",
	refGitHead:                  "git_head",
	refWorkingCopies:            "working_copies",
}

type filterKind int

const (
	filterDescription filterKind = iota
	filterAuthor
	filterCommitter
	filterMine
	filterEmpty
	filterConflicts
	filterMerges
	filterFiles
)

var filterKindNames = map[filterKind]string{
	filterDescription: "description",
	filterAuthor:      "author",
	filterCommitter:   "committer",
	filterMine:        "mine",
	filterEmpty:       "empty",
	filterConflicts:   "conflicts",
	filterMerges:      "merges",
	filterFiles:       "files",
}

func (allExpr) isExpression()          {}
func (noneExpr) isExpression()         {}
func (rootExpr) isExpression()         {}
func (visibleHeadsExpr) isExpression() {}
func (workingCopyExpr) isExpression()  {}
func (symbolExpr) isExpression()       {}
func (remoteSymbolExpr) isExpression() {}
func (ancestorsExpr) isExpression()    {}
func (descendantsExpr) isExpression()  {}
func (rangeExpr) isExpression()        {}
func (dagRangeExpr) isExpression()     {}
func (parentsExpr) isExpression()      {}
func (childrenExpr) isExpression()     {}
func (headsExpr) isExpression()        {}
func (rootsExpr) isExpression()        {}
func (latestExpr) isExpression()       {}
func (presentExpr) isExpression()      {}
func (notExpr) isExpression()          {}
func (unionExpr) isExpression()        {}
func (intersectionExpr) isExpression() {}
func (differenceExpr) isExpression()   {}
func (refsExpr) isExpression()         {}
func (filterExpr) isExpression()       {}

func (allExpr) String() string          { return "all()" }
func (noneExpr) String() string         { return "none()" }
func (rootExpr) String() string         { return "root()" }
func (visibleHeadsExpr) String() string { return "visible_heads()" }
func (e workingCopyExpr) String() string {
	if e.workspace == "" {
		return "@"
	}
	return e.workspace + "@"
}
func (e symbolExpr) String() string       { return quoteSymbol(e.name) }
func (e remoteSymbolExpr) String() string { return quoteSymbol(e.name) + "@" + quoteSymbol(e.remote) }
func (e ancestorsExpr) String() string {
	if e.depth >= 0 {
		return fmt.Sprintf("ancestors(%s, %d)", e.of, e.depth)
	}
	return "::" + e.of.String()
}
func (e descendantsExpr) String() string  { return e.of.String() + "::" }
func (e rangeExpr) String() string        { return e.roots.String() + ".." + e.heads.String() }
func (e dagRangeExpr) String() string     { return e.roots.String() + "::" + e.heads.String() }
func (e parentsExpr) String() string      { return e.of.String() + "-" }
func (e childrenExpr) String() string     { return e.of.String() + "+" }
func (e headsExpr) String() string        { return "heads(" + e.of.String() + ")" }
func (e rootsExpr) String() string        { return "roots(" + e.of.String() + ")" }
func (e latestExpr) String() string       { return fmt.Sprintf("latest(%s, %d)", e.of, e.count) }
func (e presentExpr) String() string      { return "present(" + e.of.String() + ")" }
func (e notExpr) String() string          { return "~" + e.of.String() }
func (e unionExpr) String() string        { return "(" + e.a.String() + " | " + e.b.String() + ")" }
func (e intersectionExpr) String() string { return "(" + e.a.String() + " & " + e.b.String() + ")" }
func (e differenceExpr) String() string   { return "(" + e.a.String() + " ~ " + e.b.String() + ")" }
func (e refsExpr) String() string {
	switch e.kind {
	case refRemoteBookmarks, refTrackedRemoteBookmarks, refUntrackedRemoteBookmarks:
		return fmt.Sprintf("%s(%s, %s)", refKindNames[e.kind], e.name, e.remote)
	case refGitHead, refGitRefs, refWorkingCopies:
		return refKindNames[e.kind] + "()"
	}
	return fmt.Sprintf("%s(%s)", refKindNames[e.kind], e.name)
}
func (e filterExpr) String() string {
	switch e.kind {
	case filterMine, filterEmpty, filterConflicts, filterMerges:
		return filterKindNames[e.kind] + "()"
	case filterFiles:
		return "files(" + e.files.String() + ")"
	}
	return fmt.Sprintf("%s(%s)", filterKindNames[e.kind], e.pattern)
}

func quoteSymbol(s string) string {
	toks, err := lex(s)
	if err == nil && len(toks) == 2 && toks[0].kind == tokIdent && toks[0].text == s {
		return s
	}
	return fmt.Sprintf("%q", s)
}

// All returns the expression matching every visible commit.
func All() Expression { return allExpr{} }

// None returns the empty expression.
func None() Expression { return noneExpr{} }

// Root returns the expression matching the root commit.
func Root() Expression { return rootExpr{} }

// Commits matches exactly the given commit id prefixes.
func Commits(ids ...string) Expression {
	if len(ids) == 0 {
		return noneExpr{}
	}
	var e Expression = symbolExpr{ids[0]}
	for _, id := range ids[1:] {
		e = unionExpr{e, symbolExpr{id}}
	}
	return e
}

// Union combines expressions.
func Union(a, b Expression) Expression { return unionExpr{a, b} }

// Intersection matches commits in both a and b.
func Intersection(a, b Expression) Expression { return intersectionExpr{a, b} }

// Ancestors matches heads and every commit reachable from them.
func Ancestors(heads Expression) Expression { return ancestorsExpr{of: heads, depth: -1} }
