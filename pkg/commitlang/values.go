package commitlang

import (
	"errors"
	"fmt"

	"github.com/odvcencio/verso/internal/lazy"
	"github.com/odvcencio/verso/pkg/diff"
	"github.com/odvcencio/verso/pkg/object"
	"github.com/odvcencio/verso/pkg/repo"
	"github.com/odvcencio/verso/pkg/signing"
)

// TreeEntry is one side of a diff entry.
type TreeEntry struct {
	Path  repo.RepoPath
	Value repo.TreeValue
}

// SourceEntry returns the old side of e, at the copy source when the
// entry is a copy or rename.
func SourceEntry(e diff.Entry) TreeEntry {
	path := e.Target
	if e.Op != diff.NoCopy {
		path = e.Source
	}
	return TreeEntry{Path: path, Value: e.Before}
}

// TargetEntry returns the new side of e.
func TargetEntry(e diff.Entry) TreeEntry {
	return TreeEntry{Path: e.Target, Value: e.After}
}

// IsExecutable reports whether the entry is a resolved executable file.
func (e TreeEntry) IsExecutable() bool {
	f, ok := e.Value.AsResolved()
	return ok && f != nil && f.Executable
}

// DiffStats is computed diff statistics with the width to render them at.
type DiffStats struct {
	Stats *diff.Stats
	Width int
}

// CryptographicSignature is the signature of a signed commit. It is
// verified on first use.
type CryptographicSignature struct {
	commit   *object.CommitObj
	verifier *signing.Verifier
	result   lazy.Cell[signing.Verification]
}

// NewCryptographicSignature returns nil when c is not signed.
func NewCryptographicSignature(c *repo.Commit, v *signing.Verifier) *CryptographicSignature {
	obj := c.Object()
	if obj.Signature == "" {
		return nil
	}
	return &CryptographicSignature{commit: obj, verifier: v}
}

// Verify checks the signature against the trusted keys.
func (s *CryptographicSignature) Verify() (signing.Verification, error) {
	return s.result.GetOrTryInit(func() (signing.Verification, error) {
		res, _, err := s.verifier.VerifyCommit(s.commit)
		return res, err
	})
}

// Status returns good, unknown or bad, or "invalid" when the signature
// cannot be parsed.
func (s *CryptographicSignature) Status() (string, error) {
	res, err := s.Verify()
	if errors.Is(err, signing.ErrInvalidSignature) {
		return "invalid", nil
	}
	if err != nil {
		return "", fmt.Errorf("verify signature: %w", err)
	}
	return string(res.Status), nil
}

// AnnotationLine is one line of an annotated file.
type AnnotationLine struct {
	Commit          *repo.Commit
	Content         string
	LineNumber      int
	FirstLineInHunk bool
}

// AnnotationLines loads the commits of annotated lines.
func AnnotationLines(r *repo.Repo, lines []repo.AnnotatedLine) ([]AnnotationLine, error) {
	commits := map[object.Hash]*repo.Commit{}
	out := make([]AnnotationLine, 0, len(lines))
	for _, l := range lines {
		c, ok := commits[l.CommitID]
		if !ok {
			var err error
			if c, err = r.Commit(l.CommitID); err != nil {
				return nil, err
			}
			commits[l.CommitID] = c
		}
		out = append(out, AnnotationLine{
			Commit:          c,
			Content:         l.Content,
			LineNumber:      l.LineNumber,
			FirstLineInHunk: l.FirstLineInHunk,
		})
	}
	return out, nil
}
