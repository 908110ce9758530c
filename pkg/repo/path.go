package repo

import (
	"fmt"
	"path/filepath"
	"strings"
)

// RepoPath is a slash-separated path relative to the repository root. The
// empty RepoPath is the root directory.
type RepoPath string

// IsRoot reports whether p is the repository root.
func (p RepoPath) IsRoot() bool { return p == "" }

// Parent returns the parent directory. The root has no parent.
func (p RepoPath) Parent() (RepoPath, bool) {
	if p.IsRoot() {
		return "", false
	}
	i := strings.LastIndexByte(string(p), '/')
	if i < 0 {
		return "", true
	}
	return p[:i], true
}

// Base returns the last component of the path.
func (p RepoPath) Base() string {
	i := strings.LastIndexByte(string(p), '/')
	return string(p[i+1:])
}

// Components splits the path into its components.
func (p RepoPath) Components() []string {
	if p.IsRoot() {
		return nil
	}
	return strings.Split(string(p), "/")
}

// Join appends a component.
func (p RepoPath) Join(name string) RepoPath {
	if p.IsRoot() {
		return RepoPath(name)
	}
	return p + "/" + RepoPath(name)
}

// HasPrefix reports whether p is dir or lies below it.
func (p RepoPath) HasPrefix(dir RepoPath) bool {
	if dir.IsRoot() || p == dir {
		return true
	}
	return strings.HasPrefix(string(p), string(dir)+"/")
}

// ComparePaths orders paths component by component, so that "a/b" sorts
// before "a.txt".
func ComparePaths(a, b RepoPath) int {
	ac, bc := a.Components(), b.Components()
	for i := 0; i < len(ac) && i < len(bc); i++ {
		if c := strings.Compare(ac[i], bc[i]); c != 0 {
			return c
		}
	}
	return len(ac) - len(bc)
}

// PathConverter translates between repository paths and paths shown to
// the user relative to the current directory.
type PathConverter struct {
	Cwd  string
	Root string
}

// FormatFilePath renders p relative to the current directory using the
// platform separator.
func (c PathConverter) FormatFilePath(p RepoPath) string {
	full := filepath.Join(c.Root, filepath.FromSlash(string(p)))
	rel, err := filepath.Rel(c.Cwd, full)
	if err != nil {
		return filepath.FromSlash(string(p))
	}
	return rel
}

// FormatCopiedPath renders a rename as "{source => target}", factoring out
// the common directory prefix and suffix.
func (c PathConverter) FormatCopiedPath(source, target RepoPath) string {
	src := c.FormatFilePath(source)
	dst := c.FormatFilePath(target)
	sep := string(filepath.Separator)

	prefixLen := 0
	for i := 0; i < len(src) && i < len(dst) && src[i] == dst[i]; i++ {
		if string(src[i]) == sep {
			prefixLen = i + 1
		}
	}
	srcRest, dstRest := src[prefixLen:], dst[prefixLen:]
	suffixLen := 0
	for i := 1; i <= len(srcRest) && i <= len(dstRest) && srcRest[len(srcRest)-i] == dstRest[len(dstRest)-i]; i++ {
		if string(srcRest[len(srcRest)-i]) == sep {
			suffixLen = i
		}
	}
	return fmt.Sprintf("%s{%s => %s}%s",
		src[:prefixLen],
		srcRest[:len(srcRest)-suffixLen],
		dstRest[:len(dstRest)-suffixLen],
		srcRest[len(srcRest)-suffixLen:])
}

// ParseFilePath converts a user-supplied path, relative to the current
// directory, to a RepoPath. Paths outside the repository are rejected.
func (c PathConverter) ParseFilePath(input string) (RepoPath, error) {
	full := input
	if !filepath.IsAbs(full) {
		full = filepath.Join(c.Cwd, input)
	}
	rel, err := filepath.Rel(c.Root, filepath.Clean(full))
	if err != nil {
		return "", fmt.Errorf("path %q: %w", input, err)
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return "", nil
	}
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("path %q is outside the repository", input)
	}
	return RepoPath(rel), nil
}
