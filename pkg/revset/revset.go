package revset

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/odvcencio/verso/pkg/diff"
	"github.com/odvcencio/verso/pkg/object"
	"github.com/odvcencio/verso/pkg/repo"
)

// Revset is an evaluated set of visible commits.
type Revset struct {
	ids []object.Hash
	set map[object.Hash]struct{}
}

func newRevset(idx *repo.Index, s idSet) *Revset {
	ids := make([]object.Hash, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	idx.SortNewestFirst(ids)
	return &Revset{ids: ids, set: s}
}

// Contains reports whether id is in the set.
func (r *Revset) Contains(id object.Hash) bool {
	_, ok := r.set[id]
	return ok
}

// ContainingFn returns a membership predicate that shares the evaluated set.
func (r *Revset) ContainingFn() func(object.Hash) bool { return r.Contains }

// IDs returns the commits newest first.
func (r *Revset) IDs() []object.Hash { return r.ids }

// Iter yields the commits newest first.
func (r *Revset) Iter() iter.Seq[object.Hash] { return slices.Values(r.ids) }

func (r *Revset) Len() int      { return len(r.ids) }
func (r *Revset) IsEmpty() bool { return len(r.ids) == 0 }

// CountEstimate returns the size of the set, which is always exact.
func (r *Revset) CountEstimate() SizeHint {
	return ExactHint(len(r.ids))
}

type idSet map[object.Hash]struct{}

func (s idSet) add(ids ...object.Hash) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

func (s idSet) has(id object.Hash) bool {
	_, ok := s[id]
	return ok
}

// Evaluate resolves symbols and computes the set of matching commits.
func Evaluate(e Expression, r *repo.Repo, ctx *ParseContext) (*Revset, error) {
	if ctx == nil {
		ctx = &ParseContext{}
	}
	idx, err := r.Index()
	if err != nil {
		return nil, err
	}
	view, err := r.View()
	if err != nil {
		return nil, err
	}
	ev := &evaluator{repo: r, idx: idx, view: view, ctx: ctx}
	s, err := ev.eval(e)
	if err != nil {
		return nil, err
	}
	return newRevset(idx, s), nil
}

type evaluator struct {
	repo     *repo.Repo
	idx      *repo.Index
	view     *repo.View
	ctx      *ParseContext
	children map[object.Hash][]object.Hash
}

func (ev *evaluator) all() idSet {
	s := make(idSet, len(ev.idx.Entries()))
	for _, e := range ev.idx.Entries() {
		s.add(e.ID)
	}
	return s
}

func (ev *evaluator) visible(ids []object.Hash) idSet {
	s := idSet{}
	for _, id := range ids {
		if ev.idx.Has(id) {
			s.add(id)
		}
	}
	return s
}

func (ev *evaluator) childMap() map[object.Hash][]object.Hash {
	if ev.children == nil {
		ev.children = map[object.Hash][]object.Hash{}
		for _, e := range ev.idx.Entries() {
			for _, p := range e.Parents {
				ev.children[p] = append(ev.children[p], e.ID)
			}
		}
	}
	return ev.children
}

func (ev *evaluator) eval(e Expression) (idSet, error) {
	switch e := e.(type) {
	case allExpr:
		return ev.all(), nil
	case noneExpr:
		return idSet{}, nil
	case rootExpr:
		return idSet{object.ZeroHash: {}}, nil
	case visibleHeadsExpr:
		return ev.heads(ev.all()), nil
	case workingCopyExpr:
		id, ok := ev.view.WCCommitID(e.workspace)
		if !ok {
			return nil, fmt.Errorf("workspace %q doesn't have a working-copy commit: %w", e.workspace, ErrNoSuchRevision)
		}
		return ev.visible([]object.Hash{id}), nil
	case symbolExpr:
		ids, err := ev.resolveSymbol(e.name)
		if err != nil {
			return nil, err
		}
		return ev.visible(ids), nil
	case remoteSymbolExpr:
		ref, ok := ev.view.RemoteBookmark(e.name, e.remote)
		if !ok || ref.Target.IsAbsent() {
			return nil, fmt.Errorf("revision %q: %w", e.name+"@"+e.remote, ErrNoSuchRevision)
		}
		return ev.visible(ref.Target.AddedIDs()), nil
	case ancestorsExpr:
		of, err := ev.eval(e.of)
		if err != nil {
			return nil, err
		}
		return ev.ancestors(of, e.depth), nil
	case descendantsExpr:
		of, err := ev.eval(e.of)
		if err != nil {
			return nil, err
		}
		return ev.descendants(of), nil
	case rangeExpr:
		roots, heads, err := ev.evalPair(e.roots, e.heads)
		if err != nil {
			return nil, err
		}
		return difference(ev.ancestors(heads, -1), ev.ancestors(roots, -1)), nil
	case dagRangeExpr:
		roots, heads, err := ev.evalPair(e.roots, e.heads)
		if err != nil {
			return nil, err
		}
		return intersection(ev.descendants(roots), ev.ancestors(heads, -1)), nil
	case parentsExpr:
		of, err := ev.eval(e.of)
		if err != nil {
			return nil, err
		}
		return ev.parents(of), nil
	case childrenExpr:
		of, err := ev.eval(e.of)
		if err != nil {
			return nil, err
		}
		out := idSet{}
		for id := range of {
			out.add(ev.childMap()[id]...)
		}
		return out, nil
	case headsExpr:
		of, err := ev.eval(e.of)
		if err != nil {
			return nil, err
		}
		return ev.heads(of), nil
	case rootsExpr:
		of, err := ev.eval(e.of)
		if err != nil {
			return nil, err
		}
		children := idSet{}
		for id := range of {
			children.add(ev.childMap()[id]...)
		}
		return difference(of, ev.descendants(children)), nil
	case latestExpr:
		of, err := ev.eval(e.of)
		if err != nil {
			return nil, err
		}
		return ev.latest(of, e.count), nil
	case presentExpr:
		s, err := ev.eval(e.of)
		if errors.Is(err, ErrNoSuchRevision) {
			return idSet{}, nil
		}
		return s, err
	case notExpr:
		of, err := ev.eval(e.of)
		if err != nil {
			return nil, err
		}
		return difference(ev.all(), of), nil
	case unionExpr:
		a, b, err := ev.evalPair(e.a, e.b)
		if err != nil {
			return nil, err
		}
		out := idSet{}
		for id := range a {
			out.add(id)
		}
		for id := range b {
			out.add(id)
		}
		return out, nil
	case intersectionExpr:
		a, b, err := ev.evalPair(e.a, e.b)
		if err != nil {
			return nil, err
		}
		return intersection(a, b), nil
	case differenceExpr:
		a, b, err := ev.evalPair(e.a, e.b)
		if err != nil {
			return nil, err
		}
		return difference(a, b), nil
	case refsExpr:
		return ev.refs(e), nil
	case filterExpr:
		return ev.filter(e)
	}
	return nil, fmt.Errorf("unsupported revset expression %T", e)
}

func (ev *evaluator) evalPair(a, b Expression) (idSet, idSet, error) {
	sa, err := ev.eval(a)
	if err != nil {
		return nil, nil, err
	}
	sb, err := ev.eval(b)
	if err != nil {
		return nil, nil, err
	}
	return sa, sb, nil
}

func intersection(a, b idSet) idSet {
	out := idSet{}
	for id := range a {
		if b.has(id) {
			out.add(id)
		}
	}
	return out
}

func difference(a, b idSet) idSet {
	out := idSet{}
	for id := range a {
		if !b.has(id) {
			out.add(id)
		}
	}
	return out
}

func (ev *evaluator) parents(of idSet) idSet {
	out := idSet{}
	for id := range of {
		if e, ok := ev.idx.Entry(id); ok && id != object.ZeroHash {
			out.add(e.Parents...)
		}
	}
	return out
}

func (ev *evaluator) ancestors(of idSet, depth int) idSet {
	if depth < 0 {
		heads := make([]object.Hash, 0, len(of))
		for id := range of {
			heads = append(heads, id)
		}
		return idSet(ev.idx.Ancestors(heads))
	}
	out := idSet{}
	frontier := of
	for d := 0; d < depth && len(frontier) > 0; d++ {
		next := idSet{}
		for id := range frontier {
			if out.has(id) {
				continue
			}
			out.add(id)
			if e, ok := ev.idx.Entry(id); ok && id != object.ZeroHash {
				next.add(e.Parents...)
			}
		}
		frontier = next
	}
	return out
}

// descendants walks the index oldest first so that parents are decided
// before their children.
func (ev *evaluator) descendants(of idSet) idSet {
	out := idSet{}
	entries := ev.idx.Entries()
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if of.has(e.ID) {
			out.add(e.ID)
			continue
		}
		if e.ID == object.ZeroHash {
			continue
		}
		for _, p := range e.Parents {
			if out.has(p) {
				out.add(e.ID)
				break
			}
		}
	}
	return out
}

func (ev *evaluator) heads(of idSet) idSet {
	return difference(of, ev.ancestors(ev.parents(of), -1))
}

func (ev *evaluator) latest(of idSet, n int) idSet {
	ids := make([]object.Hash, 0, len(of))
	for id := range of {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b object.Hash) int {
		ea, _ := ev.idx.Entry(a)
		eb, _ := ev.idx.Entry(b)
		if ea != nil && eb != nil && ea.Timestamp != eb.Timestamp {
			if ea.Timestamp > eb.Timestamp {
				return -1
			}
			return 1
		}
		return strings.Compare(string(b), string(a))
	})
	out := idSet{}
	out.add(ids[:min(n, len(ids))]...)
	return out
}

// resolveSymbol looks a name up as a tag, bookmark, git ref, commit id
// prefix or change id prefix, in that order.
func (ev *evaluator) resolveSymbol(name string) ([]object.Hash, error) {
	for _, t := range ev.view.Tags() {
		if t.Name == name && t.Target.IsPresent() {
			return t.Target.AddedIDs(), nil
		}
	}
	if bt, ok := ev.view.Bookmark(name); ok && bt.Local.IsPresent() {
		return bt.Local.AddedIDs(), nil
	}
	for _, t := range ev.view.GitRefs() {
		if (t.Name == name || t.Name == "refs/heads/"+name || t.Name == "refs/tags/"+name) && t.Target.IsPresent() {
			return t.Target.AddedIDs(), nil
		}
	}
	if name == "" {
		return nil, fmt.Errorf("revision %q: %w", name, ErrNoSuchRevision)
	}
	if isHex(name) {
		id, err := ev.idx.ResolveCommitPrefix(name)
		switch {
		case err == nil:
			return []object.Hash{id}, nil
		case errors.Is(err, repo.ErrAmbiguousPrefix):
			return nil, fmt.Errorf("commit id prefix %q is ambiguous: %w", name, err)
		}
	}
	if _, ok := object.DecodeReverseHex(name); ok {
		ids, err := ev.idx.ResolveChangePrefix(name)
		switch {
		case err == nil:
			return ids, nil
		case errors.Is(err, repo.ErrAmbiguousPrefix):
			return nil, fmt.Errorf("change id prefix %q is ambiguous: %w", name, err)
		}
	}
	return nil, fmt.Errorf("revision %q: %w", name, ErrNoSuchRevision)
}

func isHex(s string) bool {
	for _, c := range strings.ToLower(s) {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return s != ""
}

func (ev *evaluator) refs(e refsExpr) idSet {
	var ids []object.Hash
	switch e.kind {
	case refBookmarks:
		for _, bt := range ev.view.Bookmarks() {
			if e.name.Matches(bt.Name) {
				ids = append(ids, bt.Local.AddedIDs()...)
			}
		}
	case refRemoteBookmarks, refTrackedRemoteBookmarks, refUntrackedRemoteBookmarks:
		for _, bt := range ev.view.Bookmarks() {
			if !e.name.Matches(bt.Name) {
				continue
			}
			for _, rb := range bt.Remotes {
				if !e.remote.Matches(rb.Remote) {
					continue
				}
				if exact, ok := e.remote.ExactValue(); rb.Remote == repo.GitRemote && !(ok && exact == repo.GitRemote) {
					continue
				}
				if e.kind == refTrackedRemoteBookmarks && !rb.Ref.IsTracked() {
					continue
				}
				if e.kind == refUntrackedRemoteBookmarks && rb.Ref.IsTracked() {
					continue
				}
				ids = append(ids, rb.Ref.Target.AddedIDs()...)
			}
		}
	case refTags:
		for _, t := range ev.view.Tags() {
			if e.name.Matches(t.Name) {
				ids = append(ids, t.Target.AddedIDs()...)
			}
		}
	case refGitRefs:
		for _, t := range ev.view.GitRefs() {
			ids = append(ids, t.Target.AddedIDs()...)
		}
	case refGitHead:
		ids = ev.view.GitHead().AddedIDs()
	case refWorkingCopies:
		for _, wc := range ev.view.WCCommitIDs() {
			ids = append(ids, wc.CommitID)
		}
	}
	return ev.visible(ids)
}

func (ev *evaluator) filter(e filterExpr) (idSet, error) {
	out := idSet{}
	for _, entry := range ev.idx.Entries() {
		if entry.ID == object.ZeroHash {
			continue
		}
		c, err := ev.repo.Commit(entry.ID)
		if err != nil {
			return nil, err
		}
		ok, err := ev.matches(e, c)
		if err != nil {
			return nil, err
		}
		if ok {
			out.add(entry.ID)
		}
	}
	return out, nil
}

func (ev *evaluator) matches(e filterExpr, c *repo.Commit) (bool, error) {
	switch e.kind {
	case filterDescription:
		return e.pattern.Matches(c.Description()), nil
	case filterAuthor:
		a := c.Author()
		return e.pattern.Matches(a.Name) || e.pattern.Matches(a.Email), nil
	case filterCommitter:
		a := c.Committer()
		return e.pattern.Matches(a.Name) || e.pattern.Matches(a.Email), nil
	case filterMine:
		return ev.ctx.UserEmail != "" && strings.EqualFold(c.Author().Email, ev.ctx.UserEmail), nil
	case filterEmpty:
		return c.IsEmpty()
	case filterConflicts:
		return c.HasConflict()
	case filterMerges:
		return len(c.ParentIDs()) > 1, nil
	case filterFiles:
		for _, err := range diff.FromCommit(ev.repo, c, e.files).Entries() {
			if err != nil {
				return false, err
			}
			return true, nil
		}
		return false, nil
	}
	return false, fmt.Errorf("unsupported filter %d", e.kind)
}
