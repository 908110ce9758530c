// Package idprefix computes the shortest prefixes that identify commit and
// change ids unambiguously.
package idprefix

import (
	"fmt"
	"slices"
	"sort"

	"github.com/odvcencio/verso/internal/lazy"
	"github.com/odvcencio/verso/pkg/object"
	"github.com/odvcencio/verso/pkg/repo"
	"github.com/odvcencio/verso/pkg/revset"
)

// Context describes how ids are disambiguated. With a disambiguation
// revset, ids inside that set are shortened against the set only.
type Context struct {
	disambiguation revset.Expression
	parseCtx       *revset.ParseContext
}

// NewContext returns a context restricting prefix uniqueness to the
// commits in disambiguation for ids that belong to it. A nil expression
// disambiguates against the whole repository.
func NewContext(disambiguation revset.Expression, pctx *revset.ParseContext) *Context {
	return &Context{disambiguation: disambiguation, parseCtx: pctx}
}

// Populate evaluates the disambiguation revset and returns the index.
func (c *Context) Populate(r *repo.Repo) (*Index, error) {
	idx := EmptyIndex(r)
	if c.disambiguation == nil {
		return idx, nil
	}
	set, err := revset.Evaluate(c.disambiguation, r, c.parseCtx)
	if err != nil {
		return nil, fmt.Errorf("evaluate short-prefixes revset: %w", err)
	}
	full, err := r.Index()
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	sub := &sortedIDs{}
	for id := range set.Iter() {
		sub.commits = append(sub.commits, string(id))
		if e, ok := full.Entry(id); ok {
			sub.changes = append(sub.changes, string(e.ChangeID))
		}
	}
	sub.finish()
	idx.restricted = sub
	return idx, nil
}

// Index answers shortest-prefix queries. The repository-wide tables are
// built on first use.
type Index struct {
	repo       *repo.Repo
	restricted *sortedIDs
	all        lazy.Cell[*sortedIDs]
}

// EmptyIndex returns an index with no disambiguation set. It is the
// fallback when the configured set cannot be evaluated.
func EmptyIndex(r *repo.Repo) *Index {
	return &Index{repo: r}
}

// ShortestCommitPrefixLen returns the number of hex digits needed to
// identify id.
func (idx *Index) ShortestCommitPrefixLen(id object.Hash) (int, error) {
	if s := idx.restricted; s != nil && s.hasCommit(string(id)) {
		return uniquePrefixLen(s.commits, string(id)), nil
	}
	all, err := idx.repoWide()
	if err != nil {
		return 0, err
	}
	return uniquePrefixLen(all.commits, string(id)), nil
}

// ShortestChangePrefixLen returns the number of digits needed to identify
// the change. The length is the same in hex and reverse hex.
func (idx *Index) ShortestChangePrefixLen(id object.ChangeID) (int, error) {
	if s := idx.restricted; s != nil && s.hasChange(string(id)) {
		return uniquePrefixLen(s.changes, string(id)), nil
	}
	all, err := idx.repoWide()
	if err != nil {
		return 0, err
	}
	return uniquePrefixLen(all.changes, string(id)), nil
}

func (idx *Index) repoWide() (*sortedIDs, error) {
	return idx.all.GetOrTryInit(func() (*sortedIDs, error) {
		full, err := idx.repo.Index()
		if err != nil {
			return nil, fmt.Errorf("load index: %w", err)
		}
		s := &sortedIDs{}
		for _, e := range full.Entries() {
			s.commits = append(s.commits, string(e.ID))
			s.changes = append(s.changes, string(e.ChangeID))
		}
		s.finish()
		return s, nil
	})
}

type sortedIDs struct {
	commits []string
	changes []string
}

func (s *sortedIDs) finish() {
	slices.Sort(s.commits)
	s.commits = slices.Compact(s.commits)
	slices.Sort(s.changes)
	s.changes = slices.Compact(s.changes)
}

func (s *sortedIDs) hasCommit(id string) bool {
	_, ok := slices.BinarySearch(s.commits, id)
	return ok
}

func (s *sortedIDs) hasChange(id string) bool {
	_, ok := slices.BinarySearch(s.changes, id)
	return ok
}

// uniquePrefixLen returns one more than the longest common prefix id
// shares with its sorted neighbours, capped at len(id).
func uniquePrefixLen(sorted []string, id string) int {
	i := sort.SearchStrings(sorted, id)
	longest := 0
	if i > 0 {
		longest = max(longest, commonPrefixLen(sorted[i-1], id))
	}
	j := i
	if j < len(sorted) && sorted[j] == id {
		j++
	}
	if j < len(sorted) {
		longest = max(longest, commonPrefixLen(sorted[j], id))
	}
	return min(longest+1, len(id))
}

func commonPrefixLen(a, b string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}
