package repo

import (
	"fmt"

	"github.com/odvcencio/verso/pkg/object"
)

// rootCommitObj is the virtual commit every history starts from.
var rootCommitObj = &object.CommitObj{ChangeID: object.ZeroChangeID}

// readCommitObj reads a commit object, answering the virtual root commit
// without touching the store.
func (r *Repo) readCommitObj(h object.Hash) (*object.CommitObj, error) {
	if h == object.ZeroHash {
		return rootCommitObj, nil
	}
	return r.Store.ReadCommit(h)
}

// Commit is a read-only handle on a stored commit.
type Commit struct {
	repo *Repo
	id   object.Hash
	obj  *object.CommitObj
}

// Commit loads the commit with the given id.
func (r *Repo) Commit(id object.Hash) (*Commit, error) {
	obj, err := r.readCommitObj(id)
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", id, err)
	}
	return &Commit{repo: r, id: id, obj: obj}, nil
}

// RootCommit returns the virtual root commit.
func (r *Repo) RootCommit() *Commit {
	return &Commit{repo: r, id: object.ZeroHash, obj: rootCommitObj}
}

func (c *Commit) ID() object.Hash             { return c.id }
func (c *Commit) ChangeID() object.ChangeID   { return c.obj.ChangeID }
func (c *Commit) Description() string         { return c.obj.Message }
func (c *Commit) Author() object.Signature    { return c.obj.Author }
func (c *Commit) Committer() object.Signature { return c.obj.Committer }
func (c *Commit) ParentIDs() []object.Hash    { return c.obj.Parents }
func (c *Commit) TreeID() object.Hash         { return c.obj.TreeHash }
func (c *Commit) IsRoot() bool                { return c.id == object.ZeroHash }

// Object returns the underlying commit object. Callers must not modify it.
func (c *Commit) Object() *object.CommitObj { return c.obj }

// Parents loads every parent commit. It fails if any parent is unreadable.
func (c *Commit) Parents() ([]*Commit, error) {
	parents := make([]*Commit, 0, len(c.obj.Parents))
	for _, p := range c.obj.Parents {
		pc, err := c.repo.Commit(p)
		if err != nil {
			return nil, err
		}
		parents = append(parents, pc)
	}
	return parents, nil
}

// Tree returns the commit's tree.
func (c *Commit) Tree() (*Tree, error) {
	return c.repo.ReadTree(c.obj.TreeHash)
}

// ParentTree returns the tree the commit's changes are relative to: the
// empty tree for the root, the parent's tree for a single parent, and the
// merge of all parent trees otherwise.
func (c *Commit) ParentTree() (*Tree, error) {
	switch len(c.obj.Parents) {
	case 0:
		return emptyTree(), nil
	case 1:
		p, err := c.repo.Commit(c.obj.Parents[0])
		if err != nil {
			return nil, err
		}
		return p.Tree()
	}
	return c.repo.mergeParentTrees(c.obj.Parents)
}

// HasConflict reports whether the commit's tree contains unresolved paths.
func (c *Commit) HasConflict() (bool, error) {
	tree, err := c.Tree()
	if err != nil {
		return false, err
	}
	return tree.HasConflict(), nil
}

// IsEmpty reports whether the commit makes no changes relative to its
// parents.
func (c *Commit) IsEmpty() (bool, error) {
	if c.IsRoot() {
		return true, nil
	}
	tree, err := c.Tree()
	if err != nil {
		return false, err
	}
	parentTree, err := c.ParentTree()
	if err != nil {
		return false, err
	}
	return tree.Equal(parentTree), nil
}

// IsHidden reports whether the commit is unreachable from the visible heads.
func (c *Commit) IsHidden() (bool, error) {
	idx, err := c.repo.Index()
	if err != nil {
		return false, err
	}
	return !idx.Has(c.id), nil
}
