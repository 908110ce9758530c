package diff

import (
	"slices"

	"github.com/odvcencio/verso/pkg/repo"
)

// CopyRecord says Target's content came from Source.
type CopyRecord struct {
	Source repo.RepoPath
	Target repo.RepoPath
}

// CopyRecords indexes copy records by target and source. The first record
// for a target wins.
type CopyRecords struct {
	records  []CopyRecord
	byTarget map[repo.RepoPath]int
	sources  map[repo.RepoPath][]repo.RepoPath
}

func NewCopyRecords() *CopyRecords {
	return &CopyRecords{
		byTarget: map[repo.RepoPath]int{},
		sources:  map[repo.RepoPath][]repo.RepoPath{},
	}
}

// Add merges records into the set.
func (c *CopyRecords) Add(records ...CopyRecord) {
	for _, rec := range records {
		if _, ok := c.byTarget[rec.Target]; ok {
			continue
		}
		c.byTarget[rec.Target] = len(c.records)
		c.records = append(c.records, rec)
		c.sources[rec.Source] = append(c.sources[rec.Source], rec.Target)
	}
}

// ForTarget returns the record whose target is p.
func (c *CopyRecords) ForTarget(p repo.RepoPath) (CopyRecord, bool) {
	i, ok := c.byTarget[p]
	if !ok {
		return CopyRecord{}, false
	}
	return c.records[i], true
}

// Records returns all records in insertion order.
func (c *CopyRecords) Records() []CopyRecord { return c.records }

// renamedAway reports whether the removal of p is shown as a rename
// instead. Records whose target already exists in from are reported as
// plain modifications, so they do not hide the removal.
func (c *CopyRecords) renamedAway(p repo.RepoPath, from, to *repo.Tree) bool {
	if to.Value(p).IsPresent() {
		return false
	}
	for _, target := range c.sources[p] {
		if from.Value(target).IsAbsent() && to.Value(target).IsPresent() {
			return true
		}
	}
	return false
}

// DetectRenames pairs every file removed between from and to with a file
// of identical content added at a new path. Each source is used once.
func DetectRenames(from, to *repo.Tree) []CopyRecord {
	removed := map[repo.FileValue][]repo.RepoPath{}
	for _, p := range from.Paths() {
		f, ok := from.Value(p).AsResolved()
		if !ok || f == nil || to.Value(p).IsPresent() {
			continue
		}
		removed[*f] = append(removed[*f], p)
	}
	if len(removed) == 0 {
		return nil
	}
	var out []CopyRecord
	for _, p := range to.Paths() {
		f, ok := to.Value(p).AsResolved()
		if !ok || f == nil || from.Value(p).IsPresent() {
			continue
		}
		sources := removed[*f]
		if len(sources) == 0 {
			continue
		}
		out = append(out, CopyRecord{Source: sources[0], Target: p})
		removed[*f] = sources[1:]
	}
	slices.SortFunc(out, func(a, b CopyRecord) int { return repo.ComparePaths(a.Target, b.Target) })
	return out
}
