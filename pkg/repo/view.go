package repo

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/odvcencio/verso/pkg/object"
)

// GitRemote is the pseudo-remote mirroring refs imported from git. Revsets
// skip it unless it is named exactly.
const GitRemote = "git"

// RemoteRefState records whether a remote bookmark is tracked by the local
// bookmark of the same name.
type RemoteRefState int

const (
	RemoteRefNew RemoteRefState = iota
	RemoteRefTracked
)

// RemoteRef is a bookmark as last seen on a remote.
type RemoteRef struct {
	Target RefTarget
	State  RemoteRefState
}

// IsTracked reports whether a local bookmark follows this remote ref.
func (r RemoteRef) IsTracked() bool { return r.State == RemoteRefTracked }

// RemoteBookmark pairs a remote name with its ref.
type RemoteBookmark struct {
	Remote string
	Ref    RemoteRef
}

// BookmarkTarget is the local target of a bookmark together with every
// remote counterpart, sorted by remote name.
type BookmarkTarget struct {
	Name    string
	Local   RefTarget
	Remotes []RemoteBookmark
}

// NamedTarget is a ref name with its target.
type NamedTarget struct {
	Name   string
	Target RefTarget
}

// WorkspaceCommit is the working-copy commit of a workspace.
type WorkspaceCommit struct {
	Name     string
	CommitID object.Hash
}

// View is a point-in-time snapshot of every ref in the repository.
type View struct {
	bookmarks []BookmarkTarget
	tags      []NamedTarget
	gitRefs   []NamedTarget
	gitHead   RefTarget
	wcCommits []WorkspaceCommit
	heads     []object.Hash
}

func loadView(r *Repo) (*View, error) {
	cfg, err := r.ReadConfig()
	if err != nil {
		return nil, fmt.Errorf("load view: %w", err)
	}

	locals, err := r.listRefs("bookmarks")
	if err != nil {
		return nil, fmt.Errorf("load view: %w", err)
	}
	remotes, err := r.listRefs("remotes")
	if err != nil {
		return nil, fmt.Errorf("load view: %w", err)
	}

	byName := make(map[string]*BookmarkTarget)
	get := func(name string) *BookmarkTarget {
		bt, ok := byName[name]
		if !ok {
			bt = &BookmarkTarget{Name: name}
			byName[name] = bt
		}
		return bt
	}
	for name, target := range locals {
		get(name).Local = target
	}
	for key, target := range remotes {
		remote, name, ok := strings.Cut(key, "/")
		if !ok {
			return nil, fmt.Errorf("load view: malformed remote ref %q", key)
		}
		state := RemoteRefNew
		if cfg.isTracked(name, remote) {
			state = RemoteRefTracked
		}
		bt := get(name)
		bt.Remotes = append(bt.Remotes, RemoteBookmark{
			Remote: remote,
			Ref:    RemoteRef{Target: target, State: state},
		})
	}

	v := &View{}
	for _, bt := range byName {
		sort.Slice(bt.Remotes, func(i, j int) bool { return bt.Remotes[i].Remote < bt.Remotes[j].Remote })
		v.bookmarks = append(v.bookmarks, *bt)
	}
	sort.Slice(v.bookmarks, func(i, j int) bool { return v.bookmarks[i].Name < v.bookmarks[j].Name })

	if v.tags, err = r.namedTargets("tags"); err != nil {
		return nil, fmt.Errorf("load view: %w", err)
	}
	if v.gitRefs, err = r.namedTargets("git"); err != nil {
		return nil, fmt.Errorf("load view: %w", err)
	}

	v.gitHead, err = readRefFile(filepath.Join(r.Dir, "refs", "git-head"))
	if err != nil && !errors.Is(err, ErrRefNotFound) {
		return nil, fmt.Errorf("load view: git head: %w", err)
	}

	wcs, err := r.listRefs("working-copies")
	if err != nil {
		return nil, fmt.Errorf("load view: %w", err)
	}
	for name, target := range wcs {
		id, ok := target.AsNormal()
		if !ok {
			return nil, fmt.Errorf("load view: working copy %q has no single commit", name)
		}
		v.wcCommits = append(v.wcCommits, WorkspaceCommit{Name: name, CommitID: id})
	}
	sort.Slice(v.wcCommits, func(i, j int) bool { return v.wcCommits[i].Name < v.wcCommits[j].Name })

	heads, err := r.listRefs("heads")
	if err != nil {
		return nil, fmt.Errorf("load view: %w", err)
	}
	for _, target := range heads {
		v.heads = append(v.heads, target.Adds...)
	}
	v.heads = v.collectHeads()
	return v, nil
}

func (r *Repo) namedTargets(prefix string) ([]NamedTarget, error) {
	refs, err := r.listRefs(prefix)
	if err != nil {
		return nil, err
	}
	out := make([]NamedTarget, 0, len(refs))
	for name, target := range refs {
		out = append(out, NamedTarget{Name: name, Target: target})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// collectHeads unions the explicit heads with every ref and working-copy
// target, which are always kept visible.
func (v *View) collectHeads() []object.Hash {
	set := make(map[object.Hash]struct{})
	add := func(ids ...object.Hash) {
		for _, id := range ids {
			if id != "" {
				set[id] = struct{}{}
			}
		}
	}
	add(v.heads...)
	for _, bt := range v.bookmarks {
		add(bt.Local.Adds...)
		for _, rb := range bt.Remotes {
			add(rb.Ref.Target.Adds...)
		}
	}
	for _, t := range v.tags {
		add(t.Target.Adds...)
	}
	for _, t := range v.gitRefs {
		add(t.Target.Adds...)
	}
	add(v.gitHead.Adds...)
	for _, wc := range v.wcCommits {
		add(wc.CommitID)
	}
	out := make([]object.Hash, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Bookmarks returns every bookmark sorted by name.
func (v *View) Bookmarks() []BookmarkTarget { return v.bookmarks }

// Bookmark returns the named bookmark.
func (v *View) Bookmark(name string) (BookmarkTarget, bool) {
	i, ok := slices.BinarySearchFunc(v.bookmarks, name, func(bt BookmarkTarget, n string) int {
		return strings.Compare(bt.Name, n)
	})
	if !ok {
		return BookmarkTarget{}, false
	}
	return v.bookmarks[i], true
}

// RemoteBookmark returns the named bookmark on the given remote.
func (v *View) RemoteBookmark(name, remote string) (RemoteRef, bool) {
	bt, ok := v.Bookmark(name)
	if !ok {
		return RemoteRef{}, false
	}
	for _, rb := range bt.Remotes {
		if rb.Remote == remote {
			return rb.Ref, true
		}
	}
	return RemoteRef{}, false
}

// Tags returns every tag sorted by name.
func (v *View) Tags() []NamedTarget { return v.tags }

// GitRefs returns the refs mirrored from a colocated git repository.
func (v *View) GitRefs() []NamedTarget { return v.gitRefs }

// GitHead returns the target of the colocated git HEAD.
func (v *View) GitHead() RefTarget { return v.gitHead }

// WCCommitIDs returns the working-copy commit of each workspace, sorted by
// workspace name.
func (v *View) WCCommitIDs() []WorkspaceCommit { return v.wcCommits }

// WCCommitID returns the working-copy commit of the named workspace.
func (v *View) WCCommitID(workspace string) (object.Hash, bool) {
	for _, wc := range v.wcCommits {
		if wc.Name == workspace {
			return wc.CommitID, true
		}
	}
	return "", false
}

// Heads returns the commits from which all visible commits are reachable.
func (v *View) Heads() []object.Hash { return v.heads }
