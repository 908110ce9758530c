package commitlang

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/crypto/ssh"

	"github.com/odvcencio/verso/internal/logging"
	"github.com/odvcencio/verso/pkg/object"
	"github.com/odvcencio/verso/pkg/repo"
	"github.com/odvcencio/verso/pkg/settings"
	"github.com/odvcencio/verso/pkg/signing"
	"github.com/odvcencio/verso/pkg/templater"
)

type fixture struct {
	t    *testing.T
	repo *repo.Repo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	r, err := repo.Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	return &fixture{t: t, repo: r}
}

type commitOpts struct {
	parents     []object.Hash
	files       map[string]repo.FileSpec
	description string
	email       string
	signer      repo.CommitSigner
}

func (f *fixture) commit(o commitOpts) *repo.Commit {
	f.t.Helper()
	tree, err := f.repo.WriteTree(o.files)
	if err != nil {
		f.t.Fatalf("WriteTree: %v", err)
	}
	email := o.email
	if email == "" {
		email = "test@example.com"
	}
	id, err := f.repo.WriteCommit(repo.NewCommit{
		Parents:     o.parents,
		Tree:        tree,
		Author:      object.Signature{Name: "Test User", Email: email, When: time.Unix(1_700_000_000, 0).UTC()},
		Description: o.description,
		Signer:      o.signer,
	})
	if err != nil {
		f.t.Fatalf("WriteCommit: %v", err)
	}
	c, err := f.repo.Commit(id)
	if err != nil {
		f.t.Fatalf("Commit: %v", err)
	}
	return c
}

func (f *fixture) child(parent *repo.Commit, description string) *repo.Commit {
	f.t.Helper()
	return f.commit(commitOpts{parents: []object.Hash{parent.ID()}, description: description})
}

func (f *fixture) language(exts ...Extension) *Language {
	f.t.Helper()
	return f.languageWith("", exts...)
}

// languageWith builds a language over the fixture with extra TOML config
// appended to the [user] table.
func (f *fixture) languageWith(config string, exts ...Extension) *Language {
	f.t.Helper()
	s, err := settings.Parse(`[user]
email = "test@example.com"
` + config)
	if err != nil {
		f.t.Fatalf("settings.Parse: %v", err)
	}
	paths := repo.PathConverter{Cwd: f.repo.RootDir, Root: f.repo.RootDir}
	cfg, err := ConfigFromSettings(f.repo, s, "default", paths)
	if err != nil {
		f.t.Fatalf("ConfigFromSettings: %v", err)
	}
	l, err := NewLanguage(cfg, exts...)
	if err != nil {
		f.t.Fatalf("NewLanguage: %v", err)
	}
	return l
}

func renderCommit(t *testing.T, l *Language, node templater.ExpressionNode, c *repo.Commit) string {
	t.Helper()
	r, err := l.BuildCommitTemplate(node)
	if err != nil {
		t.Fatalf("BuildCommitTemplate: %v", err)
	}
	out, err := r.RenderString(c)
	if err != nil {
		t.Fatalf("RenderString: %v", err)
	}
	return out
}

func renderRef(t *testing.T, l *Language, node templater.ExpressionNode, ref *CommitRef) string {
	t.Helper()
	r, err := l.BuildCommitRefTemplate(node)
	if err != nil {
		t.Fatalf("BuildCommitRefTemplate: %v", err)
	}
	out, err := r.RenderString(ref)
	if err != nil {
		t.Fatalf("RenderString: %v", err)
	}
	return out
}

func buildError(t *testing.T, l *Language, node templater.ExpressionNode) *templater.TemplateParseError {
	t.Helper()
	_, err := l.BuildCommitTemplate(node)
	var perr *templater.TemplateParseError
	if !errors.As(err, &perr) {
		t.Fatalf("BuildCommitTemplate error = %v, want *TemplateParseError", err)
	}
	return perr
}

var (
	ident = templater.Ident
	str   = templater.Str
	call  = templater.CallMethod
)

func TestCommitKeywords(t *testing.T) {
	f := newFixture(t)
	root := f.repo.RootCommit()
	first := f.child(root, "first")
	second := f.child(first, "second\n\nSigned-off-by: Test User <test@example.com>\n")
	other := f.commit(commitOpts{parents: []object.Hash{first.ID()}, email: "Test@Example.com"})
	l := f.language()

	tests := []struct {
		name string
		node templater.ExpressionNode
		c    *repo.Commit
		want string
	}{
		{"description completes newline", ident("description"), first, "first\n"},
		{"root description is empty", ident("description"), root, ""},
		{"first line", call(ident("description"), "first_line"), second, "second"},
		{"parents", call(ident("parents"), "map", templater.Fn("p", call(call(ident("p"), "description"), "first_line"))), second, "first"},
		{"parent of first is root", call(ident("parents"), "map", templater.Fn("p", call(ident("p"), "root"))), first, "true"},
		{"root", ident("root"), root, "true"},
		{"not root", ident("root"), first, "false"},
		{"author", call(ident("author"), "email"), first, "test@example.com"},
		{"mine", ident("mine"), first, "true"},
		{"mine compares email exactly", ident("mine"), other, "false"},
		{"trailers", ident("trailers"), second, "Signed-off-by: Test User <test@example.com>"},
		{"trailer key", call(ident("trailers"), "map", templater.Fn("t", call(ident("t"), "key"))), second, "Signed-off-by"},
		{"empty", ident("empty"), first, "true"},
		{"conflict", ident("conflict"), first, "false"},
		{"divergent", ident("divergent"), first, "false"},
		{"hidden", ident("hidden"), first, "false"},
		{"root is immutable", ident("immutable"), root, "true"},
		{"child is mutable", ident("immutable"), first, "false"},
		{"signature absent", templater.Call("if", ident("signature"), str("signed"), str("unsigned")), first, "unsigned"},
		{"commit id", ident("commit_id"), first, first.ID().Hex()},
		{"change id", ident("change_id"), first, first.ChangeID().ReverseHex()},
		{"change id normal hex", call(ident("change_id"), "normal_hex"), first, first.ChangeID().Hex()},
		{"short", call(ident("commit_id"), "short"), first, first.ID().Hex()[:12]},
		{"short with length", call(ident("commit_id"), "short", templater.Int(4)), first, first.ID().Hex()[:4]},
		{"shortest covers min length", call(ident("commit_id"), "shortest", templater.Int(100)), first, first.ID().Hex()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderCommit(t, l, tt.node, tt.c); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShortestIDPrefix(t *testing.T) {
	f := newFixture(t)
	c := f.child(f.repo.RootCommit(), "one")
	f.child(c, "two")
	l := f.language()

	node := call(call(ident("commit_id"), "shortest", templater.Int(8)), "prefix")
	prefix := renderCommit(t, l, node, c)
	if prefix == "" || !strings.HasPrefix(c.ID().Hex(), prefix) {
		t.Fatalf("prefix = %q, not a prefix of %s", prefix, c.ID().Hex())
	}
	full := renderCommit(t, l, call(ident("commit_id"), "shortest", templater.Int(8)), c)
	if len(full) != max(8, len(prefix)) {
		t.Errorf("shortest(8) = %q, want %d digits", full, max(8, len(prefix)))
	}
	upper := renderCommit(t, l, call(call(ident("commit_id"), "shortest"), "upper"), c)
	if upper != strings.ToUpper(prefix) {
		t.Errorf("upper = %q, want %q", upper, strings.ToUpper(prefix))
	}
}

func TestUnknownMethodError(t *testing.T) {
	f := newFixture(t)
	l := f.language()
	node := &templater.MethodCall{
		Object:   &templater.Identifier{Name: "description", Span: templater.Span{Start: 0, End: 11}},
		Function: &templater.FunctionCall{Name: "foo", NameSpan: templater.Span{Start: 12, End: 15}, Span: templater.Span{Start: 12, End: 17}},
		Span:     templater.Span{Start: 0, End: 17},
	}
	err := buildError(t, l, node)
	if err.Kind != templater.ErrorMethodNotFound {
		t.Errorf("Kind = %v, want ErrorMethodNotFound", err.Kind)
	}
	if want := `Method "foo" doesn't exist for type "String"`; err.Message != want {
		t.Errorf("Message = %q, want %q", err.Message, want)
	}
	if want := (templater.Span{Start: 12, End: 15}); err.Span != want {
		t.Errorf("Span = %v, want %v", err.Span, want)
	}
}

func TestUnknownCommitMethodError(t *testing.T) {
	f := newFixture(t)
	l := f.language()
	node := &templater.MethodCall{
		Object:   &templater.Identifier{Name: "self", Span: templater.Span{Start: 0, End: 4}},
		Function: &templater.FunctionCall{Name: "foo", NameSpan: templater.Span{Start: 5, End: 8}, Span: templater.Span{Start: 5, End: 10}},
		Span:     templater.Span{Start: 0, End: 10},
	}
	err := buildError(t, l, node)
	if err.Kind != templater.ErrorMethodNotFound {
		t.Errorf("Kind = %v, want ErrorMethodNotFound", err.Kind)
	}
	if want := `Method "foo" doesn't exist for type "Commit"`; err.Message != want {
		t.Errorf("Message = %q, want %q", err.Message, want)
	}
	if want := (templater.Span{Start: 5, End: 8}); err.Span != want {
		t.Errorf("Span = %v, want %v", err.Span, want)
	}
}

func TestShortestFallsBackWhenPrefixRevsetFails(t *testing.T) {
	f := newFixture(t)
	first := f.child(f.repo.RootCommit(), "first")
	c := f.child(first, "second")
	node := call(call(ident("commit_id"), "shortest"), "prefix")

	want := renderCommit(t, f.language(), node, c)
	l := f.languageWith(`
[revsets]
short-prefixes = "no_such_bookmark"
`)
	if got := renderCommit(t, l, node, c); got != want {
		t.Errorf("fallback prefix = %q, want %q", got, want)
	}
	if !strings.HasPrefix(c.ID().Hex(), want) {
		t.Errorf("prefix %q is not a prefix of %s", want, c.ID())
	}
	warnings := l.Diagnostics().Warnings()
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want one", warnings)
	}
	if want := "Failed to load short-prefixes index"; warnings[0].Message != want {
		t.Errorf("warning = %q, want %q", warnings[0].Message, want)
	}
}

func TestContainedIn(t *testing.T) {
	f := newFixture(t)
	first := f.child(f.repo.RootCommit(), "x")
	second := f.child(first, "y")
	l := f.language()

	tmpl := call(ident("self"), "contained_in", str(`description(exact:"x")`))
	if got := renderCommit(t, l, tmpl, first); got != "true" {
		t.Errorf("first: got %q, want true", got)
	}
	if got := renderCommit(t, l, tmpl, second); got != "false" {
		t.Errorf("second: got %q, want false", got)
	}

	bad := &templater.StringLiteral{Value: "x((", Span: templater.Span{Start: 13, End: 18}}
	err := buildError(t, l, call(ident("self"), "contained_in", bad))
	if err.Message != "In revset expression" {
		t.Errorf("Message = %q, want In revset expression", err.Message)
	}
	if err.Span != bad.Span {
		t.Errorf("Span = %v, want %v", err.Span, bad.Span)
	}

	err = buildError(t, l, call(ident("self"), "contained_in", ident("description")))
	if err.Kind != templater.ErrorExpression {
		t.Errorf("non-literal argument: Kind = %v, want ErrorExpression", err.Kind)
	}
}

func TestBookmarkRefs(t *testing.T) {
	f := newFixture(t)
	base := f.child(f.repo.RootCommit(), "base")
	local := f.child(base, "local")
	r1 := f.child(base, "r1")
	r2 := f.child(r1, "r2")
	r3 := f.child(r2, "r3")

	mustRepo(t, f.repo.SetBookmark("main", repo.NormalTarget(local.ID())))
	mustRepo(t, f.repo.SetRemoteBookmark("main", "origin", repo.NormalTarget(r3.ID())))
	mustRepo(t, f.repo.TrackRemoteBookmark("main", "origin"))
	mustRepo(t, f.repo.SetRemoteBookmark("feature", "origin", repo.NormalTarget(r2.ID())))
	mustRepo(t, f.repo.SetTag("v1", repo.NormalTarget(base.ID())))
	mustRepo(t, f.repo.SetBookmark("solo", repo.NormalTarget(base.ID())))
	l := f.language()

	idx, err := l.BookmarksIndex()
	if err != nil {
		t.Fatalf("BookmarksIndex: %v", err)
	}
	refs := idx.Get(r3.ID())
	if len(refs) != 1 {
		t.Fatalf("refs at r3 = %d, want 1", len(refs))
	}
	remote := refs[0]
	if !remote.IsRemote() || !remote.IsTracked() || remote.IsSynced() {
		t.Fatalf("main@origin: remote=%v tracked=%v synced=%v", remote.IsRemote(), remote.IsTracked(), remote.IsSynced())
	}

	solo := idx.Get(base.ID())
	if len(solo) != 1 || solo[0].IsRemote() || !solo[0].IsSynced() {
		t.Fatalf("solo: refs = %d, want one synced local ref", len(solo))
	}

	counts := templater.Cat(
		call(ident("tracking_ahead_count"), "exact"),
		str("/"),
		call(ident("tracking_behind_count"), "lower"),
	)
	if got := renderRef(t, l, counts, remote); got != "3/1" {
		t.Errorf("tracking counts = %q, want 3/1", got)
	}

	tests := []struct {
		name string
		node templater.ExpressionNode
		c    *repo.Commit
		want string
	}{
		{"local bookmark is unsynced", ident("bookmarks"), local, "main*"},
		{"tracked remote bookmark", ident("bookmarks"), r3, "main@origin"},
		{"untracked remote bookmark", ident("remote_bookmarks"), r2, "feature@origin"},
		{"local bookmarks", ident("local_bookmarks"), r3, ""},
		{"tags", ident("tags"), base, "v1"},
		{"local bookmark without remotes is synced", ident("bookmarks"), base, "solo"},
		{"ref names", call(ident("bookmarks"), "map", templater.Fn("b", call(ident("b"), "name"))), r3, "main"},
		{"remote name", call(ident("bookmarks"), "map", templater.Fn("b", call(ident("b"), "remote"))), r3, "origin"},
		{"untracked ahead count errors", call(ident("remote_bookmarks"), "map", templater.Fn("b", call(call(ident("b"), "tracking_ahead_count"), "lower"))), r2, "<Error: Not a tracked remote ref>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderCommit(t, l, tt.node, tt.c); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTrackingCountUnreadableIndex(t *testing.T) {
	f := newFixture(t)
	base := f.child(f.repo.RootCommit(), "base")
	remote := f.child(base, "remote")
	mustRepo(t, f.repo.SetBookmark("main", repo.NormalTarget(base.ID())))
	mustRepo(t, f.repo.SetRemoteBookmark("main", "origin", repo.NormalTarget(remote.ID())))
	mustRepo(t, f.repo.TrackRemoteBookmark("main", "origin"))

	id := remote.ID()
	path := filepath.Join(f.repo.Dir, "objects", string(id[:2]), string(id[2:]))
	mustRepo(t, os.Remove(path))
	mustRepo(t, os.WriteFile(path, []byte("not an object"), 0o644))

	r, err := repo.Open(f.repo.RootDir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s, err := settings.Parse("")
	if err != nil {
		t.Fatalf("settings.Parse: %v", err)
	}
	cfg, err := ConfigFromSettings(r, s, "default", repo.PathConverter{Cwd: r.RootDir, Root: r.RootDir})
	if err != nil {
		t.Fatalf("ConfigFromSettings: %v", err)
	}
	var logs bytes.Buffer
	cfg.Logger = logging.New(logging.WithOutput(&logs))
	l, err := NewLanguage(cfg)
	if err != nil {
		t.Fatalf("NewLanguage: %v", err)
	}

	idx, err := l.BookmarksIndex()
	if err != nil {
		t.Fatalf("BookmarksIndex: %v", err)
	}
	refs := idx.Get(id)
	if len(refs) != 1 {
		t.Fatalf("refs at remote = %d, want 1", len(refs))
	}
	got := renderRef(t, l, call(ident("tracking_ahead_count"), "lower"), refs[0])
	if !strings.HasPrefix(got, "<Error: ") {
		t.Errorf("ahead count = %q, want an inline error", got)
	}
	if !strings.Contains(logs.String(), "failed to load index for tracking counts") {
		t.Errorf("missing warning in log:\n%s", logs.String())
	}
}

func TestCommitRefsIndexGet(t *testing.T) {
	a := object.Hash("aa")
	b := object.Hash("bb")
	idx := BuildNamedRefsIndex([]repo.NamedTarget{
		{Name: "one", Target: repo.NormalTarget(a)},
		{Name: "two", Target: repo.NormalTarget(a)},
		{Name: "conflicted", Target: repo.RefTarget{Adds: []object.Hash{a, b}, Removes: []object.Hash{"cc"}}},
	})
	var names []string
	for _, r := range idx.Get(a) {
		names = append(names, r.Name())
	}
	if diff := cmp.Diff([]string{"one", "two", "conflicted"}, names); diff != "" {
		t.Errorf("Get(a) mismatch (-want +got):\n%s", diff)
	}
	if got := idx.Get("cc"); len(got) != 0 {
		t.Errorf("Get(removed) = %d refs, want 0", len(got))
	}
	conflicted := idx.Get(b)[0]
	var sb strings.Builder
	tf := templater.NewTemplateFormatter(templater.NewPlainFormatter(&sb))
	if err := renderCommitRef(tf, conflicted); err != nil {
		t.Fatalf("renderCommitRef: %v", err)
	}
	if got := sb.String(); got != "conflicted??" {
		t.Errorf("render = %q, want conflicted??", got)
	}
}

func TestWorkingCopies(t *testing.T) {
	f := newFixture(t)
	c := f.child(f.repo.RootCommit(), "wc")
	mustRepo(t, f.repo.SetWorkingCopy("default", c.ID()))
	l := f.language()
	if got := renderCommit(t, l, ident("working_copies"), c); got != "" {
		t.Errorf("single workspace: got %q, want empty", got)
	}
	if got := renderCommit(t, l, ident("current_working_copy"), c); got != "true" {
		t.Errorf("current_working_copy = %q, want true", got)
	}

	mustRepo(t, f.repo.SetWorkingCopy("other", c.ID()))
	l = f.language()
	if got := renderCommit(t, l, ident("working_copies"), c); got != "default@ other@" {
		t.Errorf("two workspaces: got %q, want %q", got, "default@ other@")
	}
}

func TestDiffMethods(t *testing.T) {
	f := newFixture(t)
	parent := f.commit(commitOpts{files: map[string]repo.FileSpec{"a.txt": {Content: "one\n"}}})
	c := f.commit(commitOpts{
		parents: []object.Hash{parent.ID()},
		files: map[string]repo.FileSpec{
			"a.txt":      {Content: "one\ntwo\n"},
			"dir/run.sh": {Content: "#!/bin/sh\n", Executable: true},
		},
	})
	l := f.language()

	summary := call(call(ident("self"), "diff"), "summary")
	r, err := l.BuildCommitTemplate(summary)
	if err != nil {
		t.Fatalf("BuildCommitTemplate: %v", err)
	}
	first, err := r.RenderString(c)
	if err != nil {
		t.Fatalf("RenderString: %v", err)
	}
	second, err := r.RenderString(c)
	if err != nil {
		t.Fatalf("RenderString: %v", err)
	}
	if first != second {
		t.Errorf("summary not stable across renders:\n%s\n---\n%s", first, second)
	}
	if want := "M a.txt\nA dir/run.sh\n"; first != want {
		t.Errorf("summary = %q, want %q", first, want)
	}

	files := func(body templater.ExpressionNode) templater.ExpressionNode {
		return call(call(call(ident("self"), "diff"), "files"), "map", templater.Fn("e", body))
	}
	tests := []struct {
		name string
		node templater.ExpressionNode
		want string
	}{
		{"paths", files(call(ident("e"), "path")), "a.txt dir/run.sh"},
		{"status", files(call(ident("e"), "status")), "modified added"},
		{"source type", files(call(call(ident("e"), "source"), "file_type")), "file "},
		{"executable", files(call(call(ident("e"), "target"), "executable")), "false true"},
		{"parent dir", files(call(call(ident("e"), "path"), "parent")), " dir"},
		{"filtered", call(call(call(ident("self"), "diff", str("dir")), "files"), "len"), "1"},
		{"stat totals", call(call(call(ident("self"), "diff"), "stat"), "total_added"), "2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderCommit(t, l, tt.node, c); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	perr := buildError(t, l, call(ident("self"), "diff", &templater.StringLiteral{Value: "(a.txt", Span: templater.Span{Start: 5, End: 13}}))
	if perr.Message != "In fileset expression" {
		t.Errorf("Message = %q, want In fileset expression", perr.Message)
	}

	git := renderCommit(t, l, call(call(ident("self"), "diff"), "git", templater.Int(0)), c)
	if !strings.Contains(git, "diff --git a/a.txt b/a.txt") || !strings.Contains(git, "+two") {
		t.Errorf("git diff missing hunk:\n%s", git)
	}
}

func TestSignatureStatus(t *testing.T) {
	f := newFixture(t)
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	block, err := ssh.MarshalPrivateKey(priv, "")
	if err != nil {
		t.Fatalf("MarshalPrivateKey: %v", err)
	}
	signer, err := signing.NewSSHSigner(pem.EncodeToMemory(block))
	if err != nil {
		t.Fatalf("NewSSHSigner: %v", err)
	}
	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		t.Fatalf("NewPublicKey: %v", err)
	}
	c := f.commit(commitOpts{description: "signed", signer: signer})
	l := f.language()

	node := templater.Call("if", ident("signature"),
		templater.Cat(call(ident("signature"), "status"), str(" "), call(ident("signature"), "key")),
		str("unsigned"))
	want := "unknown " + ssh.FingerprintSHA256(sshPub)
	if got := renderCommit(t, l, node, c); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestAnnotationLines(t *testing.T) {
	f := newFixture(t)
	first := f.commit(commitOpts{files: map[string]repo.FileSpec{"a.txt": {Content: "one\n"}}, description: "first"})
	second := f.commit(commitOpts{
		parents:     []object.Hash{first.ID()},
		files:       map[string]repo.FileSpec{"a.txt": {Content: "one\ntwo\nthree\n"}},
		description: "second",
	})
	annotated, err := f.repo.Annotate(second.ID(), "a.txt")
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	lines, err := AnnotationLines(f.repo, annotated)
	if err != nil {
		t.Fatalf("AnnotationLines: %v", err)
	}
	l := f.language()
	r, err := l.BuildAnnotationTemplate(templater.Call("separate", str(" "),
		ident("line_number"),
		call(call(ident("commit"), "description"), "first_line"),
		templater.Call("if", ident("first_line_in_hunk"), str("*")),
		ident("content"),
	))
	if err != nil {
		t.Fatalf("BuildAnnotationTemplate: %v", err)
	}
	var got []string
	for _, line := range lines {
		out, err := r.RenderString(line)
		if err != nil {
			t.Fatalf("RenderString: %v", err)
		}
		got = append(got, out)
	}
	want := []string{"1 first * one\n", "2 second * two\n", "3 second three\n"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("annotation mismatch (-want +got):\n%s", diff)
	}
}

type counterExtension struct {
	methods templater.MethodTable
}

type buildCount int

func (e counterExtension) Table(*Language) (*templater.Table, error) {
	t := templater.NewTable()
	if err := t.AddMethods(CommitKind.Name, e.methods); err != nil {
		return nil, err
	}
	return t, nil
}

func (counterExtension) Caches() []Cache {
	return []Cache{NewCache(func(*Language) (buildCount, error) { return 42, nil })}
}

func TestExtensions(t *testing.T) {
	f := newFixture(t)
	c := f.child(f.repo.RootCommit(), "x")

	var l *Language
	ext := counterExtension{methods: templater.MethodTable{
		"answer": keyword(CommitKind, templater.IntegerKind, func(*repo.Commit) int64 {
			n, err := CacheExtension[buildCount](l)
			if err != nil {
				t.Errorf("CacheExtension: %v", err)
			}
			return int64(n)
		}),
	}}
	l = f.language(ext)
	if got := renderCommit(t, l, ident("answer"), c); got != "42" {
		t.Errorf("answer = %q, want 42", got)
	}

	cfg := Config{Repo: f.repo}
	_, err := NewLanguage(cfg, counterExtension{methods: templater.MethodTable{
		"description": keyword(CommitKind, templater.StringKind, func(*repo.Commit) string { return "" }),
	}})
	if !errors.Is(err, templater.ErrConflictingDefinition) {
		t.Errorf("redefined method: err = %v, want ErrConflictingDefinition", err)
	}
	_, err = NewLanguage(cfg, ext, counterExtension{})
	if !errors.Is(err, templater.ErrConflictingDefinition) {
		t.Errorf("duplicate cache: err = %v, want ErrConflictingDefinition", err)
	}
}

func mustRepo(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
