package repo

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/odvcencio/verso/pkg/object"
)

var (
	// ErrAmbiguousPrefix is returned when an id prefix matches several ids.
	ErrAmbiguousPrefix = errors.New("ambiguous id prefix")
	// ErrNoSuchRevision is returned when an id prefix matches nothing.
	ErrNoSuchRevision = errors.New("no such revision")
)

// IndexEntry describes one visible commit.
type IndexEntry struct {
	ID         object.Hash
	ChangeID   object.ChangeID
	Parents    []object.Hash
	Generation uint64
	Timestamp  int64
}

// Index holds every commit reachable from the visible heads, including the
// root commit, ordered newest first.
type Index struct {
	entries  []*IndexEntry
	byID     map[object.Hash]*IndexEntry
	byChange map[object.ChangeID][]object.Hash
}

func buildIndex(r *Repo, heads []object.Hash) (*Index, error) {
	g := r.graph()
	idx := &Index{
		byID:     make(map[object.Hash]*IndexEntry),
		byChange: make(map[object.ChangeID][]object.Hash),
	}

	queue := append([]object.Hash{object.ZeroHash}, heads...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, seen := idx.byID[id]; seen {
			continue
		}
		obj, err := g.commit(r, id)
		if err != nil {
			return nil, fmt.Errorf("build index: %w", err)
		}
		gen, err := g.generation(r, id)
		if err != nil {
			return nil, fmt.Errorf("build index: %w", err)
		}
		entry := &IndexEntry{
			ID:         id,
			ChangeID:   obj.ChangeID,
			Parents:    obj.Parents,
			Generation: gen,
			Timestamp:  obj.Committer.When.Unix(),
		}
		idx.byID[id] = entry
		idx.entries = append(idx.entries, entry)
		queue = append(queue, obj.Parents...)
	}

	sort.Slice(idx.entries, func(i, j int) bool {
		return entryNewer(idx.entries[i], idx.entries[j])
	})
	for _, e := range idx.entries {
		idx.byChange[e.ChangeID] = append(idx.byChange[e.ChangeID], e.ID)
	}
	return idx, nil
}

// entryNewer orders entries by generation, then commit time, then id, all
// descending. Parents always sort after their children.
func entryNewer(a, b *IndexEntry) bool {
	if a.Generation != b.Generation {
		return a.Generation > b.Generation
	}
	if a.Timestamp != b.Timestamp {
		return a.Timestamp > b.Timestamp
	}
	return a.ID > b.ID
}

// Entries returns all visible commits, newest first.
func (idx *Index) Entries() []*IndexEntry { return idx.entries }

// Has reports whether id is a visible commit.
func (idx *Index) Has(id object.Hash) bool {
	_, ok := idx.byID[id]
	return ok
}

// Entry returns the index entry for id.
func (idx *Index) Entry(id object.Hash) (*IndexEntry, bool) {
	e, ok := idx.byID[id]
	return e, ok
}

// CommitsForChange returns the visible commits with the given change id,
// newest first.
func (idx *Index) CommitsForChange(id object.ChangeID) []object.Hash {
	return idx.byChange[id]
}

// SortNewestFirst orders ids the same way Entries does. Ids missing from the
// index sort last.
func (idx *Index) SortNewestFirst(ids []object.Hash) {
	sort.SliceStable(ids, func(i, j int) bool {
		a, okA := idx.byID[ids[i]]
		b, okB := idx.byID[ids[j]]
		switch {
		case okA && okB:
			return entryNewer(a, b)
		default:
			return okA && !okB
		}
	})
}

// ResolveCommitPrefix resolves a hex prefix to a unique visible commit id.
func (idx *Index) ResolveCommitPrefix(prefix string) (object.Hash, error) {
	prefix = strings.ToLower(prefix)
	var match object.Hash
	for _, e := range idx.entries {
		if strings.HasPrefix(string(e.ID), prefix) {
			if match != "" {
				return "", fmt.Errorf("commit id %q: %w", prefix, ErrAmbiguousPrefix)
			}
			match = e.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("commit id %q: %w", prefix, ErrNoSuchRevision)
	}
	return match, nil
}

// ResolveChangePrefix resolves a reverse-hex change id prefix to the
// visible commits of a unique change.
func (idx *Index) ResolveChangePrefix(prefix string) ([]object.Hash, error) {
	hexPrefix, ok := object.DecodeReverseHex(prefix)
	if !ok {
		return nil, fmt.Errorf("change id %q: %w", prefix, ErrNoSuchRevision)
	}
	var match object.ChangeID
	found := false
	for cid := range idx.byChange {
		if strings.HasPrefix(string(cid), hexPrefix) {
			if found && cid != match {
				return nil, fmt.Errorf("change id %q: %w", prefix, ErrAmbiguousPrefix)
			}
			match, found = cid, true
		}
	}
	if !found {
		return nil, fmt.Errorf("change id %q: %w", prefix, ErrNoSuchRevision)
	}
	return idx.byChange[match], nil
}

// Ancestors returns the set of commits reachable from heads, heads
// included. Ids outside the index are ignored.
func (idx *Index) Ancestors(heads []object.Hash) map[object.Hash]struct{} {
	seen := make(map[object.Hash]struct{})
	stack := append([]object.Hash(nil), heads...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[id]; ok {
			continue
		}
		e, ok := idx.byID[id]
		if !ok {
			continue
		}
		seen[id] = struct{}{}
		stack = append(stack, e.Parents...)
	}
	return seen
}
