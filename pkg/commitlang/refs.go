package commitlang

import (
	"github.com/odvcencio/verso/internal/lazy"
	"github.com/odvcencio/verso/pkg/object"
	"github.com/odvcencio/verso/pkg/repo"
	"github.com/odvcencio/verso/pkg/revset"
	"github.com/odvcencio/verso/pkg/templater"
)

// CommitRef is a bookmark, tag or git ref together with its target. Remote
// bookmarks carry their remote name and, when tracked, the local target
// they are compared against.
type CommitRef struct {
	name     string
	remote   string
	isRemote bool
	target   repo.RefTarget
	tracking *trackingRef
	synced   bool
}

type trackingRef struct {
	target repo.RefTarget
	ahead  *lazy.Cell[revset.SizeHint]
	behind *lazy.Cell[revset.SizeHint]
}

// LocalRef returns a local ref. It is synced when every tracked remote
// counterpart points at the same target.
func LocalRef(name string, target repo.RefTarget, remotes []repo.RemoteBookmark) *CommitRef {
	synced := true
	for _, rb := range remotes {
		if rb.Ref.IsTracked() && !rb.Ref.Target.Equal(target) {
			synced = false
			break
		}
	}
	return &CommitRef{name: name, target: target, synced: synced}
}

// LocalOnlyRef returns a ref with no remote counterparts, such as a tag.
func LocalOnlyRef(name string, target repo.RefTarget) *CommitRef {
	return LocalRef(name, target, nil)
}

// RemoteRef returns a remote ref which may be tracked by the local ref
// pointing at local.
func RemoteRef(name, remote string, ref repo.RemoteRef, local repo.RefTarget) *CommitRef {
	synced := ref.IsTracked() && ref.Target.Equal(local)
	var tracking *trackingRef
	if ref.IsTracked() {
		tracking = &trackingRef{target: local}
		if synced {
			zero := revset.ExactHint(0)
			tracking.ahead = lazy.Filled(zero)
			tracking.behind = lazy.Filled(zero)
		} else {
			tracking.ahead = &lazy.Cell[revset.SizeHint]{}
			tracking.behind = &lazy.Cell[revset.SizeHint]{}
		}
	}
	return &CommitRef{
		name:     name,
		remote:   remote,
		isRemote: true,
		target:   ref.Target,
		tracking: tracking,
		synced:   synced,
	}
}

// RemoteOnlyRef returns a remote ref that has no local counterpart.
func RemoteOnlyRef(name, remote string, target repo.RefTarget) *CommitRef {
	return &CommitRef{name: name, remote: remote, isRemote: true, target: target}
}

func (r *CommitRef) Name() string           { return r.name }
func (r *CommitRef) Remote() string         { return r.remote }
func (r *CommitRef) Target() repo.RefTarget { return r.target }
func (r *CommitRef) IsLocal() bool          { return !r.isRemote }
func (r *CommitRef) IsRemote() bool         { return r.isRemote }
func (r *CommitRef) IsPresent() bool        { return r.target.IsPresent() }
func (r *CommitRef) HasConflict() bool      { return r.target.HasConflict() }

// IsSynced reports whether a local ref matches all of its tracked remotes,
// or a remote ref matches its tracking local ref.
func (r *CommitRef) IsSynced() bool { return r.synced }

// IsTracked reports whether this remote ref is tracked by a local ref.
func (r *CommitRef) IsTracked() bool { return r.tracking != nil }

// IsTrackingPresent reports whether the tracking local ref points
// anywhere.
func (r *CommitRef) IsTrackingPresent() bool {
	return r.tracking != nil && r.tracking.target.IsPresent()
}

// TrackingAheadCount counts commits in the remote ref that are not in the
// tracking local ref. The count is computed once.
func (r *CommitRef) TrackingAheadCount(idx *repo.Index) (revset.SizeHint, error) {
	if r.tracking == nil {
		return revset.SizeHint{}, templater.PropertyErrorf("Not a tracked remote ref")
	}
	return r.tracking.ahead.GetOrInit(func() revset.SizeHint {
		return revset.WalkRevs(idx, r.target.AddedIDs(), r.tracking.target.AddedIDs())
	}), nil
}

// TrackingBehindCount counts commits in the tracking local ref that are not
// in the remote ref. The count is computed once.
func (r *CommitRef) TrackingBehindCount(idx *repo.Index) (revset.SizeHint, error) {
	if r.tracking == nil {
		return revset.SizeHint{}, templater.PropertyErrorf("Not a tracked remote ref")
	}
	return r.tracking.behind.GetOrInit(func() revset.SizeHint {
		return revset.WalkRevs(idx, r.tracking.target.AddedIDs(), r.target.AddedIDs())
	}), nil
}

// CommitRefsIndex maps commit ids to the refs pointing at them.
type CommitRefsIndex struct {
	refs map[object.Hash][]*CommitRef
}

func newCommitRefsIndex() *CommitRefsIndex {
	return &CommitRefsIndex{refs: map[object.Hash][]*CommitRef{}}
}

func (idx *CommitRefsIndex) insert(ids []object.Hash, ref *CommitRef) {
	for _, id := range ids {
		idx.refs[id] = append(idx.refs[id], ref)
	}
}

// Get returns the refs targeting id in insertion order.
func (idx *CommitRefsIndex) Get(id object.Hash) []*CommitRef {
	return idx.refs[id]
}

// BuildBookmarksIndex indexes every local bookmark and its remote
// counterparts. Absent local bookmarks are skipped.
func BuildBookmarksIndex(view *repo.View) *CommitRefsIndex {
	idx := newCommitRefsIndex()
	for _, b := range view.Bookmarks() {
		if b.Local.IsPresent() {
			idx.insert(b.Local.AddedIDs(), LocalRef(b.Name, b.Local, b.Remotes))
		}
		for _, rb := range b.Remotes {
			idx.insert(rb.Ref.Target.AddedIDs(), RemoteRef(b.Name, rb.Remote, rb.Ref, b.Local))
		}
	}
	return idx
}

// BuildNamedRefsIndex indexes refs without remote counterparts.
func BuildNamedRefsIndex(targets []repo.NamedTarget) *CommitRefsIndex {
	idx := newCommitRefsIndex()
	for _, t := range targets {
		idx.insert(t.Target.AddedIDs(), LocalOnlyRef(t.Name, t.Target))
	}
	return idx
}
