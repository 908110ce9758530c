package fileset

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/odvcencio/verso/pkg/repo"
)

func testConverter(cwd string) repo.PathConverter {
	root := filepath.FromSlash("/work/repo")
	return repo.PathConverter{Root: root, Cwd: filepath.Join(root, filepath.FromSlash(cwd))}
}

func TestParseMatches(t *testing.T) {
	tests := []struct {
		expr  string
		cwd   string
		match []repo.RepoPath
		miss  []repo.RepoPath
	}{
		{expr: "all()", match: []repo.RepoPath{"a", "dir/b"}},
		{expr: "none()", miss: []repo.RepoPath{"a", "dir/b"}},
		{expr: "dir", match: []repo.RepoPath{"dir", "dir/b", "dir/sub/c"}, miss: []repo.RepoPath{"dir2/b", "a"}},
		{expr: "b", cwd: "dir", match: []repo.RepoPath{"dir/b"}, miss: []repo.RepoPath{"b"}},
		{expr: "file:dir", miss: []repo.RepoPath{"dir/b"}, match: []repo.RepoPath{"dir"}},
		{expr: `glob:"*.txt"`, match: []repo.RepoPath{"a.txt"}, miss: []repo.RepoPath{"dir/a.txt", "a.go"}},
		{expr: "glob:*.txt", cwd: "dir", match: []repo.RepoPath{"dir/a.txt"}, miss: []repo.RepoPath{"a.txt"}},
		{expr: "root:dir", cwd: "other", match: []repo.RepoPath{"dir/b"}},
		{expr: "root-glob:dir/*.go", match: []repo.RepoPath{"dir/x.go"}, miss: []repo.RepoPath{"x.go"}},
		{expr: "a | b", match: []repo.RepoPath{"a", "b"}, miss: []repo.RepoPath{"c"}},
		{expr: "dir & glob:dir/b", match: []repo.RepoPath{"dir/b"}, miss: []repo.RepoPath{"dir/c"}},
		{expr: "dir ~ dir/b", match: []repo.RepoPath{"dir/c"}, miss: []repo.RepoPath{"dir/b"}},
		{expr: "~dir", match: []repo.RepoPath{"a"}, miss: []repo.RepoPath{"dir/b"}},
		{expr: "(a | b) & ~b", match: []repo.RepoPath{"a"}, miss: []repo.RepoPath{"b"}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			expr, err := Parse(tt.expr, testConverter(tt.cwd))
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.expr, err)
			}
			for _, p := range tt.match {
				if !expr.Matches(p) {
					t.Errorf("%s should match %q", expr, p)
				}
			}
			for _, p := range tt.miss {
				if expr.Matches(p) {
					t.Errorf("%s should not match %q", expr, p)
				}
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, text := range []string{"", "(a", "a |", "bogus()", "nope:a", `"unterminated`, "glob:[", "../outside"} {
		if _, err := Parse(text, testConverter("")); !errors.Is(err, ErrSyntax) {
			t.Errorf("Parse(%q) error = %v, want ErrSyntax", text, err)
		}
	}
}
