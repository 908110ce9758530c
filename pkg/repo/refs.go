package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/odvcencio/verso/pkg/object"
)

// ErrRefNotFound is returned when a named ref does not exist.
var ErrRefNotFound = errors.New("ref not found")

// RefTarget is the possibly-conflicted target of a ref. A normal target
// has exactly one add and no removes. An absent target has no adds.
type RefTarget struct {
	Removes []object.Hash
	Adds    []object.Hash
}

// NormalTarget returns a RefTarget pointing at a single commit.
func NormalTarget(h object.Hash) RefTarget {
	return RefTarget{Adds: []object.Hash{h}}
}

// AbsentTarget returns a RefTarget pointing at nothing.
func AbsentTarget() RefTarget { return RefTarget{} }

func (t RefTarget) IsAbsent() bool    { return len(t.Adds) == 0 && len(t.Removes) == 0 }
func (t RefTarget) IsPresent() bool   { return !t.IsAbsent() }
func (t RefTarget) HasConflict() bool { return len(t.Adds) > 1 || len(t.Removes) > 0 }

// AsNormal returns the single target when the ref is not conflicted.
func (t RefTarget) AsNormal() (object.Hash, bool) {
	if len(t.Adds) == 1 && len(t.Removes) == 0 {
		return t.Adds[0], true
	}
	return "", false
}

// AddedIDs returns the positive terms of the target.
func (t RefTarget) AddedIDs() []object.Hash { return t.Adds }

// RemovedIDs returns the negative terms of the target.
func (t RefTarget) RemovedIDs() []object.Hash { return t.Removes }

// Equal reports whether both targets have identical terms.
func (t RefTarget) Equal(o RefTarget) bool {
	return slices.Equal(t.Adds, o.Adds) && slices.Equal(t.Removes, o.Removes)
}

// readRefFile parses a ref file. A normal ref is a single hash line; a
// conflicted ref lists "+hash" and "-hash" lines.
func readRefFile(path string) (RefTarget, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return RefTarget{}, ErrRefNotFound
		}
		return RefTarget{}, err
	}
	return parseRefTarget(string(data))
}

func parseRefTarget(text string) (RefTarget, error) {
	var t RefTarget
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case strings.HasPrefix(line, "+"):
			t.Adds = append(t.Adds, object.Hash(line[1:]))
		case strings.HasPrefix(line, "-"):
			t.Removes = append(t.Removes, object.Hash(line[1:]))
		default:
			if len(t.Adds) > 0 || len(t.Removes) > 0 {
				return RefTarget{}, fmt.Errorf("mixed normal and conflicted ref lines")
			}
			t.Adds = append(t.Adds, object.Hash(line))
		}
	}
	return t, nil
}

func formatRefTarget(t RefTarget) string {
	if h, ok := t.AsNormal(); ok {
		return string(h) + "\n"
	}
	var b strings.Builder
	for i, add := range t.Adds {
		fmt.Fprintf(&b, "+%s\n", add)
		if i < len(t.Removes) {
			fmt.Fprintf(&b, "-%s\n", t.Removes[i])
		}
	}
	return b.String()
}

// listRefs lists ref files under .verso/refs/<prefix>. Names are returned
// relative to the prefix directory with forward slashes.
func (r *Repo) listRefs(prefix string) (map[string]RefTarget, error) {
	dir := filepath.Join(r.Dir, "refs", filepath.FromSlash(prefix))

	refs := make(map[string]RefTarget)
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		target, err := readRefFile(path)
		if err != nil {
			return fmt.Errorf("%s: %w", rel, err)
		}
		refs[filepath.ToSlash(rel)] = target
		return nil
	})
	if os.IsNotExist(err) {
		return refs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list refs %s: %w", prefix, err)
	}
	return refs, nil
}

// writeRef stores target at .verso/refs/<name>, or removes the file when
// the target is absent.
func (r *Repo) writeRef(name string, target RefTarget) error {
	path := filepath.Join(r.Dir, "refs", filepath.FromSlash(name))
	if target.IsAbsent() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("delete ref %q: %w", name, err)
		}
		return nil
	}
	if err := writeFileAtomic(path, []byte(formatRefTarget(target))); err != nil {
		return fmt.Errorf("update ref %q: %w", name, err)
	}
	return nil
}
