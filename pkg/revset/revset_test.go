package revset

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/odvcencio/verso/pkg/object"
	"github.com/odvcencio/verso/pkg/repo"
	"github.com/odvcencio/verso/pkg/settings"
)

type fixture struct {
	repo       *repo.Repo
	a, b, c, d object.Hash
	ctx        *ParseContext
}

// newFixture builds root -> a -> b -> c and a -> d, with main at c,
// main@origin (tracked) at b, feature@origin (untracked) at d, tag v1 at a
// and the default workspace at c.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	r, err := repo.Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	n := 0
	commit := func(parent object.Hash, desc string, files ...string) object.Hash {
		t.Helper()
		n++
		specs := map[string]repo.FileSpec{}
		for _, f := range files {
			specs[f] = repo.FileSpec{Content: f + "\n"}
		}
		tree, err := r.WriteTree(specs)
		if err != nil {
			t.Fatalf("WriteTree: %v", err)
		}
		var parents []object.Hash
		if parent != "" {
			parents = []object.Hash{parent}
		}
		id, err := r.WriteCommit(repo.NewCommit{
			Parents:     parents,
			Tree:        tree,
			Author:      object.Signature{Name: "Test User", Email: "test@example.com", When: time.Unix(1_700_000_000+int64(n), 0).UTC()},
			Description: desc,
		})
		if err != nil {
			t.Fatalf("WriteCommit: %v", err)
		}
		return id
	}
	f := &fixture{repo: r}
	f.a = commit("", "a", "f1")
	f.b = commit(f.a, "b", "f1", "f2")
	f.c = commit(f.b, "c", "f1", "f2", "f3")
	f.d = commit(f.a, "d", "f1", "f4")

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(r.SetBookmark("main", repo.NormalTarget(f.c)))
	must(r.SetRemoteBookmark("main", "origin", repo.NormalTarget(f.b)))
	must(r.TrackRemoteBookmark("main", "origin"))
	must(r.SetRemoteBookmark("feature", "origin", repo.NormalTarget(f.d)))
	must(r.SetTag("v1", repo.NormalTarget(f.a)))
	must(r.SetWorkingCopy("default", f.c))

	aliases, err := settings.Empty().RevsetAliases()
	must(err)
	f.ctx, err = NewParseContext(aliases, "test@example.com", "default", repo.PathConverter{Cwd: r.RootDir, Root: r.RootDir})
	must(err)
	return f
}

func (f *fixture) eval(t *testing.T, text string) []object.Hash {
	t.Helper()
	e, err := Parse(text, f.ctx)
	if err != nil {
		t.Fatalf("Parse(%q): %v", text, err)
	}
	rs, err := Evaluate(e, f.repo, f.ctx)
	if err != nil {
		t.Fatalf("Evaluate(%q): %v", text, err)
	}
	return rs.IDs()
}

func TestEvaluate(t *testing.T) {
	f := newFixture(t)
	root := object.ZeroHash
	tests := []struct {
		expr string
		want []object.Hash
	}{
		{"main", []object.Hash{f.c}},
		{"main@origin", []object.Hash{f.b}},
		{"v1", []object.Hash{f.a}},
		{"@", []object.Hash{f.c}},
		{"default@", []object.Hash{f.c}},
		{"@-", []object.Hash{f.b}},
		{"main--", []object.Hash{f.a}},
		{"v1+", []object.Hash{f.d, f.b}},
		{"::main", []object.Hash{f.c, f.b, f.a, root}},
		{"v1..main", []object.Hash{f.c, f.b}},
		{"v1::main", []object.Hash{f.c, f.b, f.a}},
		{"main@origin::", []object.Hash{f.c, f.b}},
		{"..v1", []object.Hash{f.a}},
		{"all() ~ ::main", []object.Hash{f.d}},
		{"~::main", []object.Hash{f.d}},
		{"main | feature@origin", []object.Hash{f.c, f.d}},
		{"::main & ::feature@origin", []object.Hash{f.a, root}},
		{"heads(all())", []object.Hash{f.c, f.d}},
		{"visible_heads()", []object.Hash{f.c, f.d}},
		{"roots(v1::)", []object.Hash{f.a}},
		{"ancestors(main, 2)", []object.Hash{f.c, f.b}},
		{"latest(all())", []object.Hash{f.d}},
		{"latest(::main, 2)", []object.Hash{f.c, f.b}},
		{"root()", []object.Hash{root}},
		{"none()", nil},
		{`description(exact:"b")`, []object.Hash{f.b}},
		{`description("c")`, []object.Hash{f.c}},
		{`author(glob:"Test *")`, []object.Hash{f.c, f.d, f.b, f.a}},
		{"mine()", []object.Hash{f.c, f.d, f.b, f.a}},
		{"bookmarks()", []object.Hash{f.c}},
		{"bookmarks(feat)", nil},
		{"remote_bookmarks()", []object.Hash{f.d, f.b}},
		{`remote_bookmarks(exact:"main", exact:"origin")`, []object.Hash{f.b}},
		{`remote_bookmarks(remote=origin)`, []object.Hash{f.d, f.b}},
		{"tracked_remote_bookmarks()", []object.Hash{f.b}},
		{"untracked_remote_bookmarks()", []object.Hash{f.d}},
		{"tags()", []object.Hash{f.a}},
		{"working_copies()", []object.Hash{f.c}},
		{"present(nope)", nil},
		{"trunk()", []object.Hash{f.b}},
		{"immutable_heads()", []object.Hash{f.d, f.b, f.a}},
		{"files(f4)", []object.Hash{f.d}},
		{"files(f1)", []object.Hash{f.a}},
		{"empty()", nil},
		{"merges()", nil},
		{string(f.c)[:12], []object.Hash{f.c}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got := f.eval(t, tt.expr)
			if diff := cmp.Diff(tt.want, got); diff != "" && !(len(tt.want) == 0 && len(got) == 0) {
				t.Fatalf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestChangeIDSymbol(t *testing.T) {
	f := newFixture(t)
	c, err := f.repo.Commit(f.c)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	got := f.eval(t, c.ChangeID().ReverseHex()[:12])
	if !slices.Equal(got, []object.Hash{f.c}) {
		t.Fatalf("change id resolved to %v", got)
	}
}

func TestUnknownSymbol(t *testing.T) {
	f := newFixture(t)
	e, err := Parse("nope", f.ctx)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := Evaluate(e, f.repo, f.ctx); !errors.Is(err, ErrNoSuchRevision) {
		t.Fatalf("Evaluate error = %v, want ErrNoSuchRevision", err)
	}
}

func TestParseErrors(t *testing.T) {
	for _, text := range []string{
		"",
		"foo(",
		"nope()",
		`"unterminated`,
		"a |",
		"all(x)",
		"latest(all(), x)",
		"description(bogus:x)",
		"files(\"../outside\")",
		"a $ b",
	} {
		if _, err := Parse(text, nil); !errors.Is(err, ErrSyntax) {
			t.Errorf("Parse(%q) error = %v, want ErrSyntax", text, err)
		}
	}
}

func TestAliases(t *testing.T) {
	ctx, err := NewParseContext(map[string]string{
		"mainline":   "main | trunk",
		"between(x)": "x & ::main",
		"loop":       "loop | root()",
	}, "", "", repo.PathConverter{})
	if err != nil {
		t.Fatalf("NewParseContext: %v", err)
	}
	e, err := Parse("between(mainline)", ctx)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got, want := e.String(), "((main | trunk) & ::main)"; got != want {
		t.Errorf("expanded = %q, want %q", got, want)
	}
	if _, err := Parse("loop", ctx); !errors.Is(err, ErrSyntax) {
		t.Errorf("recursive alias error = %v", err)
	}
	if _, err := NewParseContext(map[string]string{"bad(": "x"}, "", "", repo.PathConverter{}); err == nil {
		t.Error("bad declaration accepted")
	}
}

func TestLexIdentifiers(t *testing.T) {
	toks, err := lex("release-1.2 x- a..b c::")
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	var got []string
	for _, tok := range toks[:len(toks)-1] {
		got = append(got, tok.text)
	}
	want := []string{"release-1.2", "x", "-", "a", "..", "b", "c", "::"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestWalkRevs(t *testing.T) {
	f := newFixture(t)
	idx, err := f.repo.Index()
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if n, ok := WalkRevs(idx, []object.Hash{f.c}, []object.Hash{f.b}).Exact(); !ok || n != 1 {
		t.Errorf("ahead = %d, %v", n, ok)
	}
	if n, ok := WalkRevs(idx, []object.Hash{f.b}, []object.Hash{f.c}).Exact(); !ok || n != 0 {
		t.Errorf("behind = %d, %v", n, ok)
	}
	if n, _ := WalkRevs(idx, []object.Hash{f.c}, []object.Hash{f.d}).Exact(); n != 2 {
		t.Errorf("c minus d = %d", n)
	}
}

func TestContainingFn(t *testing.T) {
	f := newFixture(t)
	e, err := Parse("::main@origin", f.ctx)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	rs, err := Evaluate(e, f.repo, f.ctx)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	contains := rs.ContainingFn()
	if !contains(f.a) || !contains(f.b) || contains(f.c) || contains(f.d) {
		t.Fatal("wrong membership")
	}
	if n, _ := rs.CountEstimate().Exact(); n != 3 {
		t.Fatalf("count = %d", n)
	}
}
