package repo

import (
	"fmt"
	"slices"

	"github.com/odvcencio/verso/pkg/object"
)

// FileValue is the content of one non-directory tree entry.
type FileValue struct {
	Hash       object.Hash
	Executable bool
	Symlink    bool
}

// TreeValue is the value at a path: either resolved (one add, no removes)
// or a conflict of alternating adds and removes. A nil term means the path
// is absent on that side.
type TreeValue struct {
	Removes []*FileValue
	Adds    []*FileValue
}

// Resolved returns a TreeValue holding a single term.
func Resolved(v *FileValue) TreeValue {
	return TreeValue{Adds: []*FileValue{v}}
}

func (v TreeValue) IsResolved() bool { return len(v.Adds) <= 1 && len(v.Removes) == 0 }

// AsResolved returns the single term of a resolved value.
func (v TreeValue) AsResolved() (*FileValue, bool) {
	if !v.IsResolved() {
		return nil, false
	}
	if len(v.Adds) == 0 {
		return nil, true
	}
	return v.Adds[0], true
}

// IsAbsent reports whether the path does not exist.
func (v TreeValue) IsAbsent() bool {
	f, ok := v.AsResolved()
	return ok && f == nil
}

func (v TreeValue) IsPresent() bool { return !v.IsAbsent() }

// Equal reports whether two values have identical terms.
func (v TreeValue) Equal(o TreeValue) bool {
	return slices.EqualFunc(v.addTerms(), o.addTerms(), fileValueEqual) &&
		slices.EqualFunc(v.Removes, o.Removes, fileValueEqual)
}

// addTerms returns the positive terms, treating the zero value as a single
// absent term.
func (v TreeValue) addTerms() []*FileValue {
	if len(v.Adds) == 0 {
		return []*FileValue{nil}
	}
	return v.Adds
}

func fileValueEqual(a, b *FileValue) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Tree is a flattened snapshot mapping file paths to values.
type Tree struct {
	entries map[RepoPath]TreeValue
	paths   []RepoPath
}

func emptyTree() *Tree {
	return &Tree{entries: map[RepoPath]TreeValue{}}
}

// NewTree builds a Tree from path values, dropping absent ones.
func NewTree(values map[RepoPath]TreeValue) *Tree {
	t := emptyTree()
	for p, v := range values {
		if v.IsAbsent() {
			continue
		}
		t.entries[p] = v
		t.paths = append(t.paths, p)
	}
	slices.SortFunc(t.paths, ComparePaths)
	return t
}

// Paths returns every file path in the tree in path order.
func (t *Tree) Paths() []RepoPath { return t.paths }

// Value returns the value at p, absent if p is not a file in the tree.
func (t *Tree) Value(p RepoPath) TreeValue {
	if v, ok := t.entries[p]; ok {
		return v
	}
	return TreeValue{}
}

// HasConflict reports whether any path is unresolved.
func (t *Tree) HasConflict() bool {
	for _, v := range t.entries {
		if !v.IsResolved() {
			return true
		}
	}
	return false
}

// Equal reports whether both trees hold the same values at the same paths.
func (t *Tree) Equal(o *Tree) bool {
	if len(t.paths) != len(o.paths) {
		return false
	}
	for p, v := range t.entries {
		if !v.Equal(o.Value(p)) {
			return false
		}
	}
	return true
}

// ReadTree loads and flattens the tree with the given hash.
func (r *Repo) ReadTree(h object.Hash) (*Tree, error) {
	values := make(map[RepoPath]TreeValue)
	if err := r.flattenTreeRec(h, "", values); err != nil {
		return nil, err
	}
	return NewTree(values), nil
}

func (r *Repo) flattenTreeRec(h object.Hash, prefix RepoPath, out map[RepoPath]TreeValue) error {
	treeObj, err := r.Store.ReadTree(h)
	if err != nil {
		return fmt.Errorf("flatten tree: read %s: %w", h, err)
	}

	for _, entry := range treeObj.Entries {
		p := prefix.Join(entry.Name)
		switch {
		case entry.IsDir():
			if err := r.flattenTreeRec(entry.Hash, p, out); err != nil {
				return err
			}
		case entry.IsConflict():
			c, err := r.Store.ReadConflict(entry.Hash)
			if err != nil {
				return fmt.Errorf("flatten tree: %s: %w", p, err)
			}
			out[p] = conflictValue(c)
		default:
			out[p] = Resolved(&FileValue{
				Hash:       entry.Hash,
				Executable: entry.IsExecutable(),
				Symlink:    entry.IsSymlink(),
			})
		}
	}
	return nil
}

func conflictValue(c *object.ConflictObj) TreeValue {
	term := func(t object.ConflictTerm) *FileValue {
		if t.Hash == "" {
			return nil
		}
		return &FileValue{Hash: t.Hash, Executable: t.Executable}
	}
	var v TreeValue
	for _, t := range c.Adds {
		v.Adds = append(v.Adds, term(t))
	}
	for _, t := range c.Removes {
		v.Removes = append(v.Removes, term(t))
	}
	return v
}

// mergeParentTrees merges the trees of several parents pairwise, using the
// merge base of the accumulated side and the next parent as the base.
func (r *Repo) mergeParentTrees(parents []object.Hash) (*Tree, error) {
	first, err := r.Commit(parents[0])
	if err != nil {
		return nil, err
	}
	merged, err := first.Tree()
	if err != nil {
		return nil, err
	}
	for _, p := range parents[1:] {
		base, err := r.FindMergeBase(parents[0], p)
		if err != nil {
			return nil, fmt.Errorf("merge parent trees: %w", err)
		}
		baseTree := emptyTree()
		if base != "" {
			bc, err := r.Commit(base)
			if err != nil {
				return nil, err
			}
			if baseTree, err = bc.Tree(); err != nil {
				return nil, err
			}
		}
		pc, err := r.Commit(p)
		if err != nil {
			return nil, err
		}
		theirs, err := pc.Tree()
		if err != nil {
			return nil, err
		}
		merged = MergeTrees(baseTree, merged, theirs)
	}
	return merged, nil
}

// MergeTrees performs a path-wise three-way merge. Paths changed on both
// sides in different ways become conflicts.
func MergeTrees(base, ours, theirs *Tree) *Tree {
	paths := make(map[RepoPath]struct{})
	for _, t := range []*Tree{base, ours, theirs} {
		for _, p := range t.paths {
			paths[p] = struct{}{}
		}
	}
	values := make(map[RepoPath]TreeValue, len(paths))
	for p := range paths {
		values[p] = MergeValues(base.Value(p), ours.Value(p), theirs.Value(p))
	}
	return NewTree(values)
}

// MergeValues merges one path. Trivial merges resolve; otherwise the terms
// are concatenated and matching add/remove pairs cancel out.
func MergeValues(base, ours, theirs TreeValue) TreeValue {
	switch {
	case ours.Equal(theirs):
		return ours
	case ours.Equal(base):
		return theirs
	case theirs.Equal(base):
		return ours
	}
	v := TreeValue{
		Adds:    append(append(append([]*FileValue{}, ours.addTerms()...), theirs.addTerms()...), base.Removes...),
		Removes: append(append(append([]*FileValue{}, ours.Removes...), base.addTerms()...), theirs.Removes...),
	}
	return simplifyValue(v)
}

func simplifyValue(v TreeValue) TreeValue {
	adds := append([]*FileValue{}, v.Adds...)
	var removes []*FileValue
	for _, rm := range v.Removes {
		if i := slices.IndexFunc(adds, func(a *FileValue) bool { return fileValueEqual(a, rm) }); i >= 0 && len(adds) > 1 {
			adds = slices.Delete(adds, i, i+1)
			continue
		}
		removes = append(removes, rm)
	}
	return TreeValue{Adds: adds, Removes: removes}
}
