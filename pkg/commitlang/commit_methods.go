package commitlang

import (
	"slices"
	"strings"

	"github.com/odvcencio/verso/pkg/diff"
	"github.com/odvcencio/verso/pkg/fileset"
	"github.com/odvcencio/verso/pkg/object"
	"github.com/odvcencio/verso/pkg/repo"
	"github.com/odvcencio/verso/pkg/templater"
	"github.com/odvcencio/verso/pkg/trailer"
)

func (l *Language) commitMethods() templater.MethodTable {
	return templater.MethodTable{
		"description": keyword(CommitKind, templater.StringKind, func(c *repo.Commit) string {
			return completeNewline(c.Description())
		}),
		"trailers": keyword(CommitKind, TrailerListKind, func(c *repo.Commit) []trailer.Trailer {
			return trailer.Parse(c.Description())
		}),
		"change_id": keyword(CommitKind, CommitOrChangeIDKind, func(c *repo.Commit) CommitOrChangeID {
			return ChangeID(c.ChangeID())
		}),
		"commit_id": keyword(CommitKind, CommitOrChangeIDKind, func(c *repo.Commit) CommitOrChangeID {
			return CommitID(c.ID())
		}),
		"parents":   tryKeyword(CommitKind, CommitListKind, (*repo.Commit).Parents),
		"author":    keyword(CommitKind, templater.SignatureKind, (*repo.Commit).Author),
		"committer": keyword(CommitKind, templater.SignatureKind, (*repo.Commit).Committer),
		"mine": keyword(CommitKind, templater.BooleanKind, func(c *repo.Commit) bool {
			return c.Author().Email == l.revsets.UserEmail
		}),
		"signature": keyword(CommitKind, OptionalCryptographicSignatureKind, func(c *repo.Commit) templater.Option[*CryptographicSignature] {
			sig := NewCryptographicSignature(c, l.verifier)
			return option(sig, sig != nil)
		}),
		"working_copies": tryKeyword(CommitKind, templater.StringKind, l.workingCopies),
		"current_working_copy": tryKeyword(CommitKind, templater.BooleanKind, func(c *repo.Commit) (bool, error) {
			view, err := l.repo.View()
			if err != nil {
				return false, err
			}
			id, ok := view.WCCommitID(l.workspace)
			return ok && id == c.ID(), nil
		}),
		"bookmarks": l.refsKeyword(l.BookmarksIndex, func(r *CommitRef) bool {
			return r.IsLocal() || !r.IsSynced()
		}),
		"local_bookmarks":  l.refsKeyword(l.BookmarksIndex, (*CommitRef).IsLocal),
		"remote_bookmarks": l.refsKeyword(l.BookmarksIndex, (*CommitRef).IsRemote),
		"tags":             l.refsKeyword(l.TagsIndex, nil),
		"git_refs":         l.refsKeyword(l.GitRefsIndex, nil),
		"git_head": tryKeyword(CommitKind, templater.BooleanKind, func(c *repo.Commit) (bool, error) {
			view, err := l.repo.View()
			if err != nil {
				return false, err
			}
			return slices.Contains(view.GitHead().AddedIDs(), c.ID()), nil
		}),
		"divergent": tryKeyword(CommitKind, templater.BooleanKind, func(c *repo.Commit) (bool, error) {
			ids, err := l.repo.ResolveChangeID(c.ChangeID())
			if err != nil {
				return false, err
			}
			return len(ids) > 1, nil
		}),
		"hidden":       tryKeyword(CommitKind, templater.BooleanKind, (*repo.Commit).IsHidden),
		"immutable":    templater.Method(CommitKind, l.buildImmutable),
		"contained_in": templater.Method(CommitKind, l.buildContainedIn),
		"conflict":     tryKeyword(CommitKind, templater.BooleanKind, (*repo.Commit).HasConflict),
		"empty":        tryKeyword(CommitKind, templater.BooleanKind, (*repo.Commit).IsEmpty),
		"diff":         templater.Method(CommitKind, l.buildDiff),
		"root":         keyword(CommitKind, templater.BooleanKind, (*repo.Commit).IsRoot),
	}
}

func completeNewline(s string) string {
	if s != "" && !strings.HasSuffix(s, "\n") {
		return s + "\n"
	}
	return s
}

// workingCopies lists the workspaces whose working copy is c. Nothing is
// listed when the repository has a single workspace.
func (l *Language) workingCopies(c *repo.Commit) (string, error) {
	view, err := l.repo.View()
	if err != nil {
		return "", err
	}
	wcs := view.WCCommitIDs()
	if len(wcs) <= 1 {
		return "", nil
	}
	var names []string
	for _, wc := range wcs {
		if wc.CommitID == c.ID() {
			names = append(names, wc.Name+"@")
		}
	}
	return strings.Join(names, " "), nil
}

// refsKeyword lists the refs of an index pointing at the commit. A nil
// keep keeps every ref.
func (l *Language) refsKeyword(index func() (*CommitRefsIndex, error), keep func(*CommitRef) bool) templater.MethodBuilder {
	return tryKeyword(CommitKind, CommitRefListKind, func(c *repo.Commit) ([]*CommitRef, error) {
		idx, err := index()
		if err != nil {
			return nil, err
		}
		refs := idx.Get(c.ID())
		if keep == nil {
			return refs, nil
		}
		var out []*CommitRef
		for _, r := range refs {
			if keep(r) {
				out = append(out, r)
			}
		}
		return out, nil
	})
}

func (l *Language) buildImmutable(_ *templater.Builder, _ *templater.BuildContext, self templater.Property[*repo.Commit], call *templater.FunctionCall) (templater.Value, error) {
	if err := call.ExpectNoArguments(); err != nil {
		return nil, err
	}
	contains, err := l.IsImmutableFn()
	if err != nil {
		return nil, templater.ExpressionError(call.NameSpan, err, "Failed to evaluate revset")
	}
	return templater.BooleanKind.Wrap(templater.Map(self, func(c *repo.Commit) bool {
		return contains(c.ID())
	})), nil
}

func (l *Language) buildContainedIn(_ *templater.Builder, _ *templater.BuildContext, self templater.Property[*repo.Commit], call *templater.FunctionCall) (templater.Value, error) {
	args, err := call.ExpectExactArguments(1)
	if err != nil {
		return nil, err
	}
	text, err := templater.ExpectStringLiteral(args[0])
	if err != nil {
		return nil, err
	}
	set, err := l.evaluateRevset(text, args[0].NodeSpan())
	if err != nil {
		return nil, err
	}
	contains := set.ContainingFn()
	return templater.BooleanKind.Wrap(templater.Map(self, func(c *repo.Commit) bool {
		return contains(c.ID())
	})), nil
}

func (l *Language) buildDiff(_ *templater.Builder, _ *templater.BuildContext, self templater.Property[*repo.Commit], call *templater.FunctionCall) (templater.Value, error) {
	_, opt, err := call.ExpectArguments(0, 1)
	if err != nil {
		return nil, err
	}
	matcher := fileset.All()
	if opt[0] != nil {
		text, err := templater.ExpectStringLiteral(opt[0])
		if err != nil {
			return nil, err
		}
		if matcher, err = fileset.Parse(text, l.paths); err != nil {
			return nil, templater.ExpressionError(opt[0].NodeSpan(), err, "In fileset expression")
		}
	}
	return TreeDiffKind.Wrap(templater.Map(self, func(c *repo.Commit) *diff.TreeDiff {
		return diff.FromCommit(l.repo, c, matcher)
	})), nil
}

// commitsOf loads the commits of ids.
func (l *Language) commitsOf(ids []object.Hash) ([]*repo.Commit, error) {
	out := make([]*repo.Commit, 0, len(ids))
	for _, id := range ids {
		c, err := l.repo.Commit(id)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
