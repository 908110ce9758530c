package idprefix

import (
	"testing"

	"github.com/odvcencio/verso/pkg/object"
	"github.com/odvcencio/verso/pkg/repo"
	"github.com/odvcencio/verso/pkg/revset"
	"github.com/odvcencio/verso/pkg/settings"
)

func TestUniquePrefixLen(t *testing.T) {
	sorted := []string{"1234", "1299", "15aa", "9000"}
	tests := []struct {
		id   string
		want int
	}{
		{"1234", 3},
		{"1299", 3},
		{"15aa", 2},
		{"9000", 1},
		{"1233", 4}, // not in the set
		{"0000", 1},
	}
	for _, tt := range tests {
		if got := uniquePrefixLen(sorted, tt.id); got != tt.want {
			t.Errorf("uniquePrefixLen(%q) = %d, want %d", tt.id, got, tt.want)
		}
	}
	if got := uniquePrefixLen(nil, "abc"); got != 1 {
		t.Errorf("empty set: got %d, want 1", got)
	}
}

func writeCommit(t *testing.T, r *repo.Repo, change object.ChangeID, parent object.Hash) object.Hash {
	t.Helper()
	var parents []object.Hash
	if parent != "" {
		parents = []object.Hash{parent}
	}
	id, err := r.WriteCommit(repo.NewCommit{Parents: parents, ChangeID: change, Description: string(change)})
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}
	return id
}

func TestIndexChangePrefixes(t *testing.T) {
	r, err := repo.Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	a := writeCommit(t, r, "12340000000000000000000000000000", "")
	b := writeCommit(t, r, "12350000000000000000000000000000", a)
	c := writeCommit(t, r, "90000000000000000000000000000000", b)

	idx := EmptyIndex(r)
	got, err := idx.ShortestChangePrefixLen("12340000000000000000000000000000")
	if err != nil || got != 4 {
		t.Fatalf("change prefix = %d, %v; want 4", got, err)
	}
	// The root change id 000... shares no digit with 9000...
	got, err = idx.ShortestChangePrefixLen("90000000000000000000000000000000")
	if err != nil || got != 1 {
		t.Fatalf("change prefix = %d, %v; want 1", got, err)
	}

	aliases, err := settings.Empty().RevsetAliases()
	if err != nil {
		t.Fatal(err)
	}
	pctx, err := revset.NewParseContext(aliases, "", "default", repo.PathConverter{Cwd: r.RootDir, Root: r.RootDir})
	if err != nil {
		t.Fatal(err)
	}
	expr, err := revset.Parse(string(c)+" | "+string(a), pctx)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	restricted, err := NewContext(expr, pctx).Populate(r)
	if err != nil {
		t.Fatalf("Populate: %v", err)
	}
	got, err = restricted.ShortestChangePrefixLen("12340000000000000000000000000000")
	if err != nil || got != 1 {
		t.Fatalf("restricted change prefix = %d, %v; want 1", got, err)
	}
	// b is outside the disambiguation set and falls back to the whole repo.
	got, err = restricted.ShortestChangePrefixLen("12350000000000000000000000000000")
	if err != nil || got != 4 {
		t.Fatalf("fallback change prefix = %d, %v; want 4", got, err)
	}

	n, err := restricted.ShortestCommitPrefixLen(c)
	if err != nil || n < 1 || n > len(c) {
		t.Fatalf("commit prefix = %d, %v", n, err)
	}
}
