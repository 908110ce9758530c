package main

import (
	"fmt"
	"sort"

	tpl "github.com/odvcencio/verso/pkg/templater"
)

const timestampFormat = "%Y-%m-%d %H:%M:%S"

func method(obj tpl.ExpressionNode, name string, args ...tpl.ExpressionNode) tpl.ExpressionNode {
	return tpl.CallMethod(obj, name, args...)
}

func label(name string, content tpl.ExpressionNode) tpl.ExpressionNode {
	return tpl.Call("label", tpl.Str(name), content)
}

func separate(sep string, nodes ...tpl.ExpressionNode) tpl.ExpressionNode {
	return tpl.Call("separate", append([]tpl.ExpressionNode{tpl.Str(sep)}, nodes...)...)
}

func when(cond, then tpl.ExpressionNode) tpl.ExpressionNode {
	return tpl.Call("if", cond, then)
}

func and(a, b tpl.ExpressionNode) tpl.ExpressionNode {
	return tpl.Binary(tpl.OpLogicalAnd, a, b)
}

func shortID(obj tpl.ExpressionNode) tpl.ExpressionNode {
	return method(obj, "shortest", tpl.Int(8))
}

// commitSummary is the short description of a commit used in one-line
// formats.
func commitSummary(c func(string, ...tpl.ExpressionNode) tpl.ExpressionNode) tpl.ExpressionNode {
	return separate(" ",
		label("change_id", shortID(c("change_id"))),
		label("commit_id", shortID(c("commit_id"))),
		tpl.Call("coalesce",
			method(c("description"), "first_line"),
			label("description placeholder", tpl.Str("(no description set)"))),
	)
}

func keyword(name string, args ...tpl.ExpressionNode) tpl.ExpressionNode {
	if len(args) == 0 {
		return tpl.Ident(name)
	}
	return method(tpl.Ident("self"), name, args...)
}

// Builtin commit templates, selected with -T.
var commitTemplates = map[string]tpl.ExpressionNode{
	"builtin_log_compact":  logCompact(),
	"builtin_log_oneline":  logOneline(),
	"builtin_log_detailed": commitHeader(),
}

func commitTemplate(name string) (tpl.ExpressionNode, error) {
	node, ok := commitTemplates[name]
	if !ok {
		names := make([]string, 0, len(commitTemplates))
		for n := range commitTemplates {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("unknown template %q (available: %v)", name, names)
	}
	return node, nil
}

func logCompact() tpl.ExpressionNode {
	header := tpl.Call("if", keyword("root"),
		separate(" ",
			label("change_id", shortID(keyword("change_id"))),
			label("root", tpl.Str("root()")),
			label("commit_id", shortID(keyword("commit_id")))),
		separate(" ",
			label("change_id", shortID(keyword("change_id"))),
			label("author", method(keyword("author"), "email")),
			label("timestamp", method(method(keyword("committer"), "timestamp"), "format", tpl.Str(timestampFormat))),
			keyword("bookmarks"),
			keyword("tags"),
			label("working_copies", keyword("working_copies")),
			when(keyword("git_head"), label("git_head", tpl.Str("git_head()"))),
			label("commit_id", shortID(keyword("commit_id"))),
			when(keyword("conflict"), label("conflict", tpl.Str("conflict")))),
	)
	body := when(tpl.Not(keyword("root")), tpl.Cat(
		separate(" ",
			when(keyword("empty"), label("empty", tpl.Str("(empty)"))),
			tpl.Call("coalesce",
				method(keyword("description"), "first_line"),
				label("description placeholder", tpl.Str("(no description set)")))),
		tpl.Str("\n")))
	return tpl.Cat(header, tpl.Str("\n"), body)
}

func logOneline() tpl.ExpressionNode {
	return tpl.Cat(separate(" ",
		commitSummary(keyword),
		keyword("bookmarks"),
		keyword("tags"),
		when(keyword("immutable"), label("immutable", tpl.Str("◆")))), tpl.Str("\n"))
}

func commitHeader() tpl.ExpressionNode {
	return tpl.Cat(
		tpl.Str("Commit ID: "), label("commit_id", keyword("commit_id")), tpl.Str("\n"),
		tpl.Str("Change ID: "), label("change_id", keyword("change_id")), tpl.Str("\n"),
		tpl.Call("surround", tpl.Str("Bookmarks: "), tpl.Str("\n"),
			separate(" ", keyword("local_bookmarks"), keyword("remote_bookmarks"))),
		tpl.Call("surround", tpl.Str("Tags     : "), tpl.Str("\n"), keyword("tags")),
		tpl.Str("Author   : "), keyword("author"), tpl.Str(" ("),
		method(method(keyword("author"), "timestamp"), "format", tpl.Str(timestampFormat)), tpl.Str(")\n"),
		tpl.Str("Committer: "), keyword("committer"), tpl.Str(" ("),
		method(method(keyword("committer"), "timestamp"), "format", tpl.Str(timestampFormat)), tpl.Str(")\n"),
		when(keyword("signature"), tpl.Cat(
			tpl.Str("Signature: "),
			method(keyword("signature"), "status"),
			tpl.Call("surround", tpl.Str(" "), tpl.Str(""), method(keyword("signature"), "display")),
			tpl.Str(" "), method(keyword("signature"), "key"), tpl.Str("\n"))),
		tpl.Str("\n"),
		tpl.Call("if", keyword("description"),
			tpl.Cat(method(method(method(keyword("description"), "lines"), "map",
				tpl.Fn("line", tpl.Cat(tpl.Str("    "), tpl.Ident("line")))), "join", tpl.Str("\n")), tpl.Str("\n")),
			label("description placeholder", tpl.Str("    (no description set)\n"))),
		tpl.Str("\n"),
	)
}

func showTemplate() tpl.ExpressionNode {
	diff := method(tpl.Ident("self"), "diff")
	return tpl.Cat(commitHeader(), method(diff, "summary"), method(diff, "git"))
}

// refTemplate renders one line of bookmark list output.
func refTemplate() tpl.ExpressionNode {
	target := tpl.Ident("normal_target")
	return tpl.Cat(
		label("bookmark", tpl.Ident("self")),
		when(keyword("conflict"), label("conflict", tpl.Str(" (conflicted)"))),
		tpl.Call("if", keyword("present"),
			tpl.Call("if", target,
				tpl.Cat(tpl.Str(": "), commitSummary(func(name string, _ ...tpl.ExpressionNode) tpl.ExpressionNode {
					return method(target, name)
				}))),
			tpl.Str(" (deleted)")),
		when(and(keyword("tracked"), tpl.Not(keyword("synced"))), tpl.Cat(
			tpl.Str(" (ahead by "), method(keyword("tracking_ahead_count"), "lower"),
			tpl.Str(" commits, behind by "), method(keyword("tracking_behind_count"), "lower"),
			tpl.Str(" commits)"))),
		tpl.Str("\n"),
	)
}

func annotateTemplate() tpl.ExpressionNode {
	commit := tpl.Ident("commit")
	return tpl.Cat(
		separate(" ",
			label("change_id", shortID(method(commit, "change_id"))),
			label("author", method(method(commit, "author"), "email")),
			label("timestamp", method(method(method(commit, "committer"), "timestamp"), "format", tpl.Str(timestampFormat))),
			label("line_number", keyword("line_number"))),
		tpl.Str(": "),
		keyword("content"),
	)
}
