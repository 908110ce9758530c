package repo

import (
	"sync"

	"github.com/odvcencio/verso/pkg/object"
)

// Repo represents an opened repository. It is a read-only, point-in-time
// handle: the view and commit index are loaded once and never refreshed.
type Repo struct {
	RootDir string        // working directory root
	Dir     string        // .verso/ directory
	Store   *object.Store // content-addressed object store

	graphOnce  sync.Once
	graphCache *commitGraph

	viewOnce sync.Once
	view     *View
	viewErr  error

	indexOnce sync.Once
	index     *Index
	indexErr  error
}

func (r *Repo) graph() *commitGraph {
	r.graphOnce.Do(func() {
		r.graphCache = newCommitGraph()
	})
	return r.graphCache
}

// View returns the repository's ref view, loading it on first use.
func (r *Repo) View() (*View, error) {
	r.viewOnce.Do(func() {
		r.view, r.viewErr = loadView(r)
	})
	return r.view, r.viewErr
}

// Index returns the index of visible commits, building it on first use.
func (r *Repo) Index() (*Index, error) {
	r.indexOnce.Do(func() {
		view, err := r.View()
		if err != nil {
			r.indexErr = err
			return
		}
		r.index, r.indexErr = buildIndex(r, view.Heads())
	})
	return r.index, r.indexErr
}

// RootCommitID returns the id of the virtual root commit.
func (r *Repo) RootCommitID() object.Hash { return object.ZeroHash }

// ResolveChangeID returns the visible commits carrying the given change id,
// newest first. More than one entry means the change is divergent.
func (r *Repo) ResolveChangeID(id object.ChangeID) ([]object.Hash, error) {
	idx, err := r.Index()
	if err != nil {
		return nil, err
	}
	return idx.CommitsForChange(id), nil
}
