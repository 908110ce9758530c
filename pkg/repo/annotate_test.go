package repo

import (
	"errors"
	"testing"

	"github.com/odvcencio/verso/pkg/object"
)

func TestAnnotateAttributesLines(t *testing.T) {
	r := newTestRepo(t)
	c1 := writeTestCommit(t, r, nil, map[string]string{"f": "a\nb\n"}, "one")
	c2 := writeTestCommit(t, r, []object.Hash{c1}, map[string]string{"f": "a\nB\nc\n"}, "two")
	c3 := writeTestCommit(t, r, []object.Hash{c2}, map[string]string{"f": "a\nB\nc\n", "g": "x\n"}, "three")

	lines, err := r.Annotate(c3, "f")
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	want := []struct {
		commit object.Hash
		first  bool
	}{
		{c1, true},
		{c2, true},
		{c2, false},
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d", len(lines), len(want))
	}
	for i, w := range want {
		if lines[i].CommitID != w.commit {
			t.Errorf("line %d: commit %s, want %s", i+1, lines[i].CommitID, w.commit)
		}
		if lines[i].FirstLineInHunk != w.first {
			t.Errorf("line %d: FirstLineInHunk = %v, want %v", i+1, lines[i].FirstLineInHunk, w.first)
		}
		if lines[i].LineNumber != i+1 {
			t.Errorf("line %d: LineNumber = %d", i+1, lines[i].LineNumber)
		}
	}
	if lines[1].Content != "B\n" {
		t.Errorf("line 2 content = %q", lines[1].Content)
	}
}

func TestAnnotateFollowsMergeParents(t *testing.T) {
	r := newTestRepo(t)
	base := writeTestCommit(t, r, nil, map[string]string{"f": "1\n2\n"}, "base")
	left := writeTestCommit(t, r, []object.Hash{base}, map[string]string{"f": "L\n1\n2\n"}, "left")
	right := writeTestCommit(t, r, []object.Hash{base}, map[string]string{"f": "1\n2\nR\n"}, "right")
	merge := writeTestCommit(t, r, []object.Hash{left, right}, map[string]string{"f": "L\n1\n2\nR\n"}, "merge")

	lines, err := r.Annotate(merge, "f")
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	want := []object.Hash{left, base, base, right}
	for i, w := range want {
		if lines[i].CommitID != w {
			t.Errorf("line %d: commit %s, want %s", i+1, lines[i].CommitID, w)
		}
	}
}

func TestAnnotateMissingFile(t *testing.T) {
	r := newTestRepo(t)
	c1 := writeTestCommit(t, r, nil, map[string]string{"f": "a\n"}, "one")
	if _, err := r.Annotate(c1, "missing"); !errors.Is(err, ErrNotAFile) {
		t.Fatalf("Annotate(missing): got %v, want ErrNotAFile", err)
	}
}
