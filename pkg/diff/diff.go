// Package diff compares repository trees and renders the differences.
package diff

import (
	"iter"
	"slices"

	"github.com/odvcencio/verso/pkg/fileset"
	"github.com/odvcencio/verso/pkg/repo"
)

// CopyOperation tells how an entry's target relates to its source.
type CopyOperation int

const (
	NoCopy CopyOperation = iota // Source and target are the same path.
	Copied                      // Target was copied from a source that still exists.
	Renamed                     // Target replaces a source that no longer exists.
)

// Status classifies a diff entry.
type Status string

const (
	StatusModified Status = "modified"
	StatusAdded    Status = "added"
	StatusRemoved  Status = "removed"
	StatusCopied   Status = "copied"
	StatusRenamed  Status = "renamed"
)

// Char returns the one-letter code used by the summary format.
func (s Status) Char() string {
	switch s {
	case StatusAdded:
		return "A"
	case StatusRemoved:
		return "D"
	case StatusCopied:
		return "C"
	case StatusRenamed:
		return "R"
	}
	return "M"
}

// Entry is one changed path.
type Entry struct {
	Source repo.RepoPath
	Target repo.RepoPath
	Before repo.TreeValue
	After  repo.TreeValue
	Op     CopyOperation
}

// Status classifies the change.
func (e Entry) Status() Status {
	switch {
	case e.Op == Copied:
		return StatusCopied
	case e.Op == Renamed:
		return StatusRenamed
	case e.Before.IsAbsent():
		return StatusAdded
	case e.After.IsAbsent():
		return StatusRemoved
	}
	return StatusModified
}

// TreeDiff pairs two trees with a path matcher and copy records. Its entry
// stream is derived afresh on every call.
type TreeDiff struct {
	repo    *repo.Repo
	matcher fileset.Matcher
	load    func() (from, to *repo.Tree, copies *CopyRecords, err error)
}

// FromCommit diffs c against the merge of its parents, recording renames
// detected against each parent.
func FromCommit(r *repo.Repo, c *repo.Commit, m fileset.Matcher) *TreeDiff {
	load := func() (*repo.Tree, *repo.Tree, *CopyRecords, error) {
		to, err := c.Tree()
		if err != nil {
			return nil, nil, nil, err
		}
		parents, err := c.Parents()
		if err != nil {
			return nil, nil, nil, err
		}
		copies := NewCopyRecords()
		for _, p := range parents {
			pt, err := p.Tree()
			if err != nil {
				return nil, nil, nil, err
			}
			copies.Add(DetectRenames(pt, to)...)
		}
		from, err := c.ParentTree()
		if err != nil {
			return nil, nil, nil, err
		}
		return from, to, copies, nil
	}
	return &TreeDiff{repo: r, matcher: orAll(m), load: load}
}

// FromTrees diffs two already loaded trees.
func FromTrees(r *repo.Repo, from, to *repo.Tree, m fileset.Matcher, copies *CopyRecords) *TreeDiff {
	if copies == nil {
		copies = NewCopyRecords()
	}
	load := func() (*repo.Tree, *repo.Tree, *CopyRecords, error) {
		return from, to, copies, nil
	}
	return &TreeDiff{repo: r, matcher: orAll(m), load: load}
}

func orAll(m fileset.Matcher) fileset.Matcher {
	if m == nil {
		return fileset.All()
	}
	return m
}

// Repo returns the repository the trees belong to.
func (d *TreeDiff) Repo() *repo.Repo { return d.repo }

// Matcher returns the path matcher restricting the diff.
func (d *TreeDiff) Matcher() fileset.Matcher { return d.matcher }

// Trees loads the two sides of the diff.
func (d *TreeDiff) Trees() (from, to *repo.Tree, err error) {
	from, to, _, err = d.load()
	return from, to, err
}

// Entries streams the changed paths in path order. A rename is reported
// once, at its target path.
func (d *TreeDiff) Entries() iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		from, to, copies, err := d.load()
		if err != nil {
			yield(Entry{}, err)
			return
		}
		for _, p := range unionPaths(from, to) {
			before, after := from.Value(p), to.Value(p)
			if rec, ok := copies.ForTarget(p); ok && after.IsPresent() && before.IsAbsent() {
				if !d.matcher.Matches(p) && !d.matcher.Matches(rec.Source) {
					continue
				}
				op := Copied
				if to.Value(rec.Source).IsAbsent() {
					op = Renamed
				}
				e := Entry{Source: rec.Source, Target: p, Before: from.Value(rec.Source), After: after, Op: op}
				if !yield(e, nil) {
					return
				}
				continue
			}
			if before.Equal(after) || !d.matcher.Matches(p) {
				continue
			}
			if after.IsAbsent() && copies.renamedAway(p, from, to) {
				continue
			}
			if !yield(Entry{Source: p, Target: p, Before: before, After: after}, nil) {
				return
			}
		}
	}
}

// Collect drains Entries into a slice.
func (d *TreeDiff) Collect() ([]Entry, error) {
	var out []Entry
	for e, err := range d.Entries() {
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func unionPaths(a, b *repo.Tree) []repo.RepoPath {
	seen := make(map[repo.RepoPath]struct{}, len(a.Paths())+len(b.Paths()))
	var out []repo.RepoPath
	for _, t := range []*repo.Tree{a, b} {
		for _, p := range t.Paths() {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	slices.SortFunc(out, repo.ComparePaths)
	return out
}
