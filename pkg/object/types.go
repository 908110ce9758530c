package object

import (
	"strings"
	"time"
)

// ObjectType identifies the kind of object stored.
type ObjectType string

const (
	TypeBlob     ObjectType = "blob"
	TypeTree     ObjectType = "tree"
	TypeCommit   ObjectType = "commit"
	TypeConflict ObjectType = "conflict"
)

const (
	// Tree mode constants compatible with Git's canonical mode strings.
	TreeModeDir        = "40000"
	TreeModeFile       = "100644"
	TreeModeExecutable = "100755"
	TreeModeSymlink    = "120000"
	// TreeModeConflict marks an entry whose Hash names a ConflictObj.
	TreeModeConflict = "conflict"
)

// Blob holds raw file data. Symlink targets are stored as blobs too.
type Blob struct {
	Data []byte
}

// TreeEntry is one entry in a tree object.
type TreeEntry struct {
	Name string
	Mode string
	Hash Hash
}

func (e TreeEntry) IsDir() bool        { return e.Mode == TreeModeDir }
func (e TreeEntry) IsExecutable() bool { return e.Mode == TreeModeExecutable }
func (e TreeEntry) IsSymlink() bool    { return e.Mode == TreeModeSymlink }
func (e TreeEntry) IsConflict() bool   { return e.Mode == TreeModeConflict }

// TreeObj holds a sorted list of tree entries.
type TreeObj struct {
	Entries []TreeEntry // sorted by Name
}

// ConflictTerm is one side of an unresolved file conflict. An empty Hash
// means the file is absent on that side.
type ConflictTerm struct {
	Hash       Hash
	Executable bool
}

// ConflictObj records a conflicted path as alternating removes and adds:
// len(Adds) == len(Removes)+1.
type ConflictObj struct {
	Removes []ConflictTerm
	Adds    []ConflictTerm
}

// Signature identifies a person and a point in time.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// Username returns the local part of the email address.
func (s Signature) Username() string {
	user, _, _ := strings.Cut(s.Email, "@")
	return user
}

// CommitObj represents a commit pointing to a tree with metadata.
type CommitObj struct {
	TreeHash  Hash
	Parents   []Hash
	ChangeID  ChangeID
	Author    Signature
	Committer Signature
	Signature string
	Message   string
}
