package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/odvcencio/verso/pkg/object"
)

// The repository is read-only to the template engine. The writers below
// exist so that importers and tests can populate a repository.

// FileSpec describes one file written by WriteTree. When ConflictAdds is
// non-nil the path is stored as a conflict and Content is ignored; an empty
// string term means the file is absent on that side.
type FileSpec struct {
	Content         string
	Executable      bool
	Symlink         bool
	ConflictRemoves []string
	ConflictAdds    []string
}

// WriteTree stores files (keyed by slash-separated path) as a hierarchy of
// tree objects and returns the root tree hash.
func (r *Repo) WriteTree(files map[string]FileSpec) (object.Hash, error) {
	return r.writeTreeDir(files, "")
}

func (r *Repo) writeTreeDir(files map[string]FileSpec, prefix string) (object.Hash, error) {
	direct := make(map[string]FileSpec)
	subdirs := make(map[string]struct{})
	for p, spec := range files {
		rel := p
		if prefix != "" {
			if !strings.HasPrefix(p, prefix+"/") {
				continue
			}
			rel = p[len(prefix)+1:]
		}
		if slash := strings.IndexByte(rel, '/'); slash >= 0 {
			subdirs[rel[:slash]] = struct{}{}
		} else {
			direct[rel] = spec
		}
	}

	names := make([]string, 0, len(direct)+len(subdirs))
	for name := range direct {
		names = append(names, name)
	}
	for name := range subdirs {
		if _, isFile := direct[name]; !isFile {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var entries []object.TreeEntry
	for _, name := range names {
		spec, isFile := direct[name]
		if !isFile {
			childPrefix := name
			if prefix != "" {
				childPrefix = prefix + "/" + name
			}
			h, err := r.writeTreeDir(files, childPrefix)
			if err != nil {
				return "", err
			}
			entries = append(entries, object.TreeEntry{Name: name, Mode: object.TreeModeDir, Hash: h})
			continue
		}
		entry, err := r.writeFileEntry(name, spec)
		if err != nil {
			return "", err
		}
		entries = append(entries, entry)
	}

	h, err := r.Store.WriteTree(&object.TreeObj{Entries: entries})
	if err != nil {
		return "", fmt.Errorf("write tree (prefix=%q): %w", prefix, err)
	}
	return h, nil
}

func (r *Repo) writeFileEntry(name string, spec FileSpec) (object.TreeEntry, error) {
	if spec.ConflictAdds != nil {
		c := &object.ConflictObj{}
		for _, content := range spec.ConflictAdds {
			term, err := r.writeConflictTerm(content, spec.Executable)
			if err != nil {
				return object.TreeEntry{}, err
			}
			c.Adds = append(c.Adds, term)
		}
		for _, content := range spec.ConflictRemoves {
			term, err := r.writeConflictTerm(content, spec.Executable)
			if err != nil {
				return object.TreeEntry{}, err
			}
			c.Removes = append(c.Removes, term)
		}
		h, err := r.Store.WriteConflict(c)
		if err != nil {
			return object.TreeEntry{}, err
		}
		return object.TreeEntry{Name: name, Mode: object.TreeModeConflict, Hash: h}, nil
	}

	h, err := r.Store.WriteBlob(&object.Blob{Data: []byte(spec.Content)})
	if err != nil {
		return object.TreeEntry{}, err
	}
	mode := object.TreeModeFile
	switch {
	case spec.Symlink:
		mode = object.TreeModeSymlink
	case spec.Executable:
		mode = object.TreeModeExecutable
	}
	return object.TreeEntry{Name: name, Mode: mode, Hash: h}, nil
}

func (r *Repo) writeConflictTerm(content string, executable bool) (object.ConflictTerm, error) {
	if content == "" {
		return object.ConflictTerm{}, nil
	}
	h, err := r.Store.WriteBlob(&object.Blob{Data: []byte(content)})
	if err != nil {
		return object.ConflictTerm{}, err
	}
	return object.ConflictTerm{Hash: h, Executable: executable}, nil
}

// CommitSigner signs a commit payload and returns the encoded signature.
type CommitSigner func(payload []byte) (string, error)

// NewCommit holds the fields of a commit to be written. A nil Parents
// slice means the root commit is the only parent; an empty Tree means the
// empty tree; an empty ChangeID is generated.
type NewCommit struct {
	Parents     []object.Hash
	Tree        object.Hash
	ChangeID    object.ChangeID
	Author      object.Signature
	Committer   object.Signature
	Description string
	Signer      CommitSigner
}

// WriteCommit stores a commit and makes it a visible head in place of its
// parents.
func (r *Repo) WriteCommit(nc NewCommit) (object.Hash, error) {
	obj := &object.CommitObj{
		TreeHash:  nc.Tree,
		Parents:   nc.Parents,
		ChangeID:  nc.ChangeID,
		Author:    nc.Author,
		Committer: nc.Committer,
		Message:   nc.Description,
	}
	if obj.Parents == nil {
		obj.Parents = []object.Hash{object.ZeroHash}
	}
	if obj.TreeHash == "" {
		h, err := r.Store.WriteTree(&object.TreeObj{})
		if err != nil {
			return "", fmt.Errorf("write commit: %w", err)
		}
		obj.TreeHash = h
	}
	if obj.ChangeID == "" {
		id, err := object.NewChangeID()
		if err != nil {
			return "", fmt.Errorf("write commit: %w", err)
		}
		obj.ChangeID = id
	}
	if obj.Committer == (object.Signature{}) {
		obj.Committer = obj.Author
	}
	if nc.Signer != nil {
		sig, err := nc.Signer(object.CommitSigningPayload(obj))
		if err != nil {
			return "", fmt.Errorf("write commit: sign: %w", err)
		}
		obj.Signature = sig
	}

	h, err := r.Store.WriteCommit(obj)
	if err != nil {
		return "", fmt.Errorf("write commit: %w", err)
	}
	for _, p := range obj.Parents {
		if err := os.Remove(filepath.Join(r.Dir, "refs", "heads", string(p))); err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("write commit: drop head %s: %w", p, err)
		}
	}
	if err := r.writeRef("heads/"+string(h), NormalTarget(h)); err != nil {
		return "", fmt.Errorf("write commit: %w", err)
	}
	r.invalidate()
	return h, nil
}

// HideCommit removes id from the visible heads. It stays visible if a ref
// or another head still reaches it.
func (r *Repo) HideCommit(id object.Hash) error {
	if err := r.writeRef("heads/"+string(id), AbsentTarget()); err != nil {
		return err
	}
	r.invalidate()
	return nil
}

// SetBookmark sets the local target of a bookmark.
func (r *Repo) SetBookmark(name string, target RefTarget) error {
	return r.setRef("bookmarks/"+name, target)
}

// SetRemoteBookmark sets the target of a bookmark on a remote.
func (r *Repo) SetRemoteBookmark(name, remote string, target RefTarget) error {
	return r.setRef("remotes/"+remote+"/"+name, target)
}

// TrackRemoteBookmark marks name@remote as tracked by the local bookmark.
func (r *Repo) TrackRemoteBookmark(name, remote string) error {
	cfg, err := r.ReadConfig()
	if err != nil {
		return err
	}
	rc := cfg.remote(remote)
	rc.Tracked = append(rc.Tracked, name)
	if err := r.WriteConfig(cfg); err != nil {
		return err
	}
	r.invalidate()
	return nil
}

// SetTag sets the target of a tag.
func (r *Repo) SetTag(name string, target RefTarget) error {
	return r.setRef("tags/"+name, target)
}

// SetGitRef sets a ref mirrored from git, e.g. "refs/heads/main".
func (r *Repo) SetGitRef(name string, target RefTarget) error {
	return r.setRef("git/"+name, target)
}

// SetGitHead sets the mirrored git HEAD.
func (r *Repo) SetGitHead(target RefTarget) error {
	return r.setRef("git-head", target)
}

// SetWorkingCopy records the working-copy commit of a workspace.
func (r *Repo) SetWorkingCopy(workspace string, id object.Hash) error {
	return r.setRef("working-copies/"+workspace, NormalTarget(id))
}

func (r *Repo) setRef(name string, target RefTarget) error {
	if err := r.writeRef(name, target); err != nil {
		return err
	}
	r.invalidate()
	return nil
}

// invalidate drops the cached view and index after a write.
func (r *Repo) invalidate() {
	r.viewOnce = sync.Once{}
	r.view, r.viewErr = nil, nil
	r.indexOnce = sync.Once{}
	r.index, r.indexErr = nil, nil
}
