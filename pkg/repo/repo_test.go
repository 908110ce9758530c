package repo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/odvcencio/verso/pkg/object"
)

func TestOpenSearchesParents(t *testing.T) {
	r := newTestRepo(t)
	sub := filepath.Join(r.RootDir, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	opened, err := Open(sub)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if opened.Dir != r.Dir {
		t.Errorf("Dir = %q, want %q", opened.Dir, r.Dir)
	}
}

func TestOpenOutsideRepository(t *testing.T) {
	_, err := Open(t.TempDir())
	if !errors.Is(err, ErrNotARepository) {
		t.Fatalf("Open: got %v, want ErrNotARepository", err)
	}
}

func TestRootCommit(t *testing.T) {
	r := newTestRepo(t)
	root, err := r.Commit(r.RootCommitID())
	if err != nil {
		t.Fatalf("Commit(root): %v", err)
	}
	if !root.IsRoot() {
		t.Error("root commit should report IsRoot")
	}
	parents, err := root.Parents()
	if err != nil {
		t.Fatalf("Parents: %v", err)
	}
	if len(parents) != 0 {
		t.Errorf("root has %d parents, want 0", len(parents))
	}
	if root.ChangeID() != object.ZeroChangeID {
		t.Errorf("root change id = %q", root.ChangeID())
	}
	empty, err := root.IsEmpty()
	if err != nil || !empty {
		t.Errorf("root IsEmpty = %v, %v; want true", empty, err)
	}
}

func TestViewBookmarksAndTracking(t *testing.T) {
	r := newTestRepo(t)
	c1 := writeTestCommit(t, r, nil, map[string]string{"f": "1\n"}, "one")
	c2 := writeTestCommit(t, r, []object.Hash{c1}, map[string]string{"f": "2\n"}, "two")

	if err := r.SetBookmark("main", NormalTarget(c2)); err != nil {
		t.Fatal(err)
	}
	if err := r.SetRemoteBookmark("main", "origin", NormalTarget(c1)); err != nil {
		t.Fatal(err)
	}
	if err := r.SetRemoteBookmark("main", "upstream", NormalTarget(c2)); err != nil {
		t.Fatal(err)
	}
	if err := r.TrackRemoteBookmark("main", "origin"); err != nil {
		t.Fatal(err)
	}
	if err := r.SetRemoteBookmark("feature/x", "origin", NormalTarget(c1)); err != nil {
		t.Fatal(err)
	}

	view, err := r.View()
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	var names []string
	for _, bt := range view.Bookmarks() {
		names = append(names, bt.Name)
	}
	if diff := cmp.Diff([]string{"feature/x", "main"}, names); diff != "" {
		t.Errorf("bookmark names (-want +got):\n%s", diff)
	}

	main, ok := view.Bookmark("main")
	if !ok {
		t.Fatal("main bookmark missing")
	}
	if len(main.Remotes) != 2 || main.Remotes[0].Remote != "origin" || main.Remotes[1].Remote != "upstream" {
		t.Fatalf("remotes not sorted: %+v", main.Remotes)
	}
	if !main.Remotes[0].Ref.IsTracked() || main.Remotes[1].Ref.IsTracked() {
		t.Errorf("tracking state wrong: %+v", main.Remotes)
	}

	feature, _ := view.Bookmark("feature/x")
	if feature.Local.IsPresent() {
		t.Error("feature/x should have no local target")
	}
}

func TestRefTargetConflictRoundTrip(t *testing.T) {
	target := RefTarget{
		Adds:    []object.Hash{"aa", "bb"},
		Removes: []object.Hash{"cc"},
	}
	got, err := parseRefTarget(formatRefTarget(target))
	if err != nil {
		t.Fatalf("parseRefTarget: %v", err)
	}
	if !got.Equal(target) {
		t.Errorf("got %+v, want %+v", got, target)
	}
	if !got.HasConflict() {
		t.Error("expected conflict")
	}
	if _, ok := got.AsNormal(); ok {
		t.Error("conflicted target should not be normal")
	}
}

func TestIndexChangeIDsAndVisibility(t *testing.T) {
	r := newTestRepo(t)
	c1 := writeTestCommit(t, r, nil, map[string]string{"f": "1\n"}, "one")
	obj, err := r.Store.ReadCommit(c1)
	if err != nil {
		t.Fatal(err)
	}

	// A second commit reusing the change id makes the change divergent.
	c2, err := r.WriteCommit(NewCommit{
		ChangeID:    obj.ChangeID,
		Author:      testSignature(99),
		Description: "one rewritten",
	})
	if err != nil {
		t.Fatal(err)
	}

	ids, err := r.ResolveChangeID(obj.ChangeID)
	if err != nil {
		t.Fatalf("ResolveChangeID: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("got %d commits for change, want 2", len(ids))
	}

	if err := r.HideCommit(c1); err != nil {
		t.Fatal(err)
	}
	hidden, err := mustCommit(t, r, c1).IsHidden()
	if err != nil || !hidden {
		t.Errorf("IsHidden(c1) = %v, %v; want true", hidden, err)
	}
	hidden, err = mustCommit(t, r, c2).IsHidden()
	if err != nil || hidden {
		t.Errorf("IsHidden(c2) = %v, %v; want false", hidden, err)
	}
	ids, _ = r.ResolveChangeID(obj.ChangeID)
	if diff := cmp.Diff([]object.Hash{c2}, ids); diff != "" {
		t.Errorf("visible commits for change (-want +got):\n%s", diff)
	}
}

func TestIndexResolvePrefixes(t *testing.T) {
	r := newTestRepo(t)
	c1 := writeTestCommit(t, r, nil, nil, "one")
	idx, err := r.Index()
	if err != nil {
		t.Fatal(err)
	}
	got, err := idx.ResolveCommitPrefix(string(c1[:12]))
	if err != nil || got != c1 {
		t.Errorf("ResolveCommitPrefix = %q, %v", got, err)
	}
	if _, err := idx.ResolveCommitPrefix("zz"); !errors.Is(err, ErrNoSuchRevision) {
		t.Errorf("ResolveCommitPrefix(zz) err = %v", err)
	}
	c := mustCommit(t, r, c1)
	ids, err := idx.ResolveChangePrefix(c.ChangeID().ReverseHex()[:8])
	if err != nil || len(ids) != 1 || ids[0] != c1 {
		t.Errorf("ResolveChangePrefix = %v, %v", ids, err)
	}
}

func TestIndexOrdersChildrenFirst(t *testing.T) {
	r := newTestRepo(t)
	c1 := writeTestCommit(t, r, nil, nil, "one")
	c2 := writeTestCommit(t, r, []object.Hash{c1}, nil, "two")
	idx, err := r.Index()
	if err != nil {
		t.Fatal(err)
	}
	var got []object.Hash
	for _, e := range idx.Entries() {
		got = append(got, e.ID)
	}
	if diff := cmp.Diff([]object.Hash{c2, c1, object.ZeroHash}, got); diff != "" {
		t.Errorf("index order (-want +got):\n%s", diff)
	}
}

func TestParentTreeMergesParents(t *testing.T) {
	r := newTestRepo(t)
	base := writeTestCommit(t, r, nil, map[string]string{"a": "base\n", "b": "base\n"}, "base")
	left := writeTestCommit(t, r, []object.Hash{base}, map[string]string{"a": "left\n", "b": "base\n"}, "left")
	right := writeTestCommit(t, r, []object.Hash{base}, map[string]string{"a": "base\n", "b": "right\n", "c": "new\n"}, "right")
	merge := writeTestCommit(t, r, []object.Hash{left, right}, map[string]string{"a": "left\n", "b": "right\n", "c": "new\n"}, "merge")

	c := mustCommit(t, r, merge)
	empty, err := c.IsEmpty()
	if err != nil {
		t.Fatalf("IsEmpty: %v", err)
	}
	if !empty {
		t.Error("clean merge commit should be empty")
	}
	conflict, err := c.HasConflict()
	if err != nil || conflict {
		t.Errorf("HasConflict = %v, %v", conflict, err)
	}
}

func TestMergeValuesConflict(t *testing.T) {
	base := Resolved(&FileValue{Hash: "b"})
	ours := Resolved(&FileValue{Hash: "o"})
	theirs := Resolved(&FileValue{Hash: "t"})
	got := MergeValues(base, ours, theirs)
	if got.IsResolved() {
		t.Fatalf("expected conflict, got %+v", got)
	}
	if len(got.Adds) != 2 || len(got.Removes) != 1 {
		t.Errorf("terms = %d adds, %d removes", len(got.Adds), len(got.Removes))
	}

	// Re-merging the base back in on one side cancels out.
	resolved := MergeValues(ours, got, ours)
	if !resolved.Equal(got) {
		t.Errorf("identical sides should merge to themselves")
	}
}

func TestMergeValuesDeleteOnOneSide(t *testing.T) {
	base := Resolved(&FileValue{Hash: "b"})
	got := MergeValues(base, TreeValue{}, base)
	if !got.IsAbsent() {
		t.Errorf("delete vs unchanged should be absent, got %+v", got)
	}
}

func TestConflictEntriesAreRead(t *testing.T) {
	r := newTestRepo(t)
	tree := writeTestTree(t, r, map[string]FileSpec{
		"f": {ConflictAdds: []string{"a\n", "b\n"}, ConflictRemoves: []string{"base\n"}},
	})
	c, err := r.WriteCommit(NewCommit{Tree: tree, Author: testSignature(1)})
	if err != nil {
		t.Fatal(err)
	}
	conflict, err := mustCommit(t, r, c).HasConflict()
	if err != nil || !conflict {
		t.Errorf("HasConflict = %v, %v; want true", conflict, err)
	}
}

func TestRepoPath(t *testing.T) {
	p := RepoPath("dir/sub/file")
	parent, ok := p.Parent()
	if !ok || parent != "dir/sub" {
		t.Errorf("Parent = %q, %v", parent, ok)
	}
	top, ok := RepoPath("file").Parent()
	if !ok || !top.IsRoot() {
		t.Errorf("Parent(file) = %q, %v", top, ok)
	}
	if _, ok := RepoPath("").Parent(); ok {
		t.Error("root has no parent")
	}
	if ComparePaths("a/b", "a.txt") >= 0 {
		t.Error("a/b should sort before a.txt")
	}
}

func TestPathConverter(t *testing.T) {
	root := filepath.FromSlash("/repo")
	conv := PathConverter{Cwd: filepath.Join(root, "dir"), Root: root}
	if got := conv.FormatFilePath("dir/file"); got != "file" {
		t.Errorf("FormatFilePath = %q", got)
	}
	if got := conv.FormatFilePath("other"); got != filepath.FromSlash("../other") {
		t.Errorf("FormatFilePath = %q", got)
	}
	p, err := conv.ParseFilePath("sub/x")
	if err != nil || p != "dir/sub/x" {
		t.Errorf("ParseFilePath = %q, %v", p, err)
	}
	if _, err := conv.ParseFilePath("../../outside"); err == nil {
		t.Error("expected error for path outside repository")
	}

	top := PathConverter{Cwd: root, Root: root}
	if got := top.FormatCopiedPath("a", "b"); got != "{a => b}" {
		t.Errorf("FormatCopiedPath = %q", got)
	}
	if got := top.FormatCopiedPath("dir/a.txt", "dir/b.txt"); got != filepath.FromSlash("dir/{a.txt => b.txt}") {
		t.Errorf("FormatCopiedPath = %q", got)
	}
	if got := top.FormatCopiedPath("a/x/f", "b/x/f"); got != filepath.FromSlash("{a => b}/x/f") {
		t.Errorf("FormatCopiedPath = %q", got)
	}
}

func mustCommit(t *testing.T, r *Repo, id object.Hash) *Commit {
	t.Helper()
	c, err := r.Commit(id)
	if err != nil {
		t.Fatalf("Commit(%s): %v", id, err)
	}
	return c
}

func TestConfigRoundTrip(t *testing.T) {
	r := newTestRepo(t)
	empty, err := r.ReadConfig()
	if err != nil {
		t.Fatalf("ReadConfig on fresh repo: %v", err)
	}
	if len(empty.Remotes) != 0 {
		t.Fatalf("fresh config has remotes: %+v", empty.Remotes)
	}

	for _, name := range []string{"main", "dev", "main"} {
		if err := r.TrackRemoteBookmark(name, "origin"); err != nil {
			t.Fatalf("TrackRemoteBookmark(%s): %v", name, err)
		}
	}
	cfg, err := r.ReadConfig()
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	cfg.remote("origin").URL = "ssh://example.com/repo"
	if err := r.WriteConfig(cfg); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}

	got, err := r.ReadConfig()
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	want := &Config{Remotes: map[string]*RemoteConfig{
		"origin": {URL: "ssh://example.com/repo", Tracked: []string{"dev", "main"}},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config (-want +got):\n%s", diff)
	}
	if !got.isTracked("main", "origin") || got.isTracked("main", "upstream") {
		t.Errorf("isTracked wrong for %+v", got.Remotes["origin"])
	}

	if err := os.WriteFile(filepath.Join(r.Dir, configFile), []byte("remotes = ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := r.ReadConfig(); err == nil {
		t.Error("ReadConfig accepted malformed TOML")
	}
}
