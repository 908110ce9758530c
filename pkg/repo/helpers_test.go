package repo

import (
	"testing"
	"time"

	"github.com/odvcencio/verso/pkg/object"
)

func testSignature(n int) object.Signature {
	return object.Signature{
		Name:  "Test User",
		Email: "test.user@example.com",
		When:  time.Unix(1_700_000_000+int64(n), 0).UTC(),
	}
}

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	return r
}

func writeTestTree(t *testing.T, r *Repo, files map[string]FileSpec) object.Hash {
	t.Helper()
	h, err := r.WriteTree(files)
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	return h
}

var commitCounter int

func writeTestCommit(t *testing.T, r *Repo, parents []object.Hash, files map[string]string, desc string) object.Hash {
	t.Helper()
	specs := make(map[string]FileSpec, len(files))
	for p, c := range files {
		specs[p] = FileSpec{Content: c}
	}
	commitCounter++
	h, err := r.WriteCommit(NewCommit{
		Parents:     parents,
		Tree:        writeTestTree(t, r, specs),
		Author:      testSignature(commitCounter),
		Description: desc,
	})
	if err != nil {
		t.Fatalf("WriteCommit(%q): %v", desc, err)
	}
	return h
}
