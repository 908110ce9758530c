package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/odvcencio/verso/pkg/object"
)

// DirName is the name of the repository metadata directory.
const DirName = ".verso"

// ErrNotARepository is returned by Open when no repository is found.
var ErrNotARepository = errors.New("not a verso repository")

// Init creates a new repository at path. It creates the .verso/ directory
// structure: objects/ and refs/. Returns an error if a .verso/ directory
// already exists.
func Init(path string) (*Repo, error) {
	dir := filepath.Join(path, DirName)

	if _, err := os.Stat(dir); err == nil {
		return nil, fmt.Errorf("init: repository already exists at %s", dir)
	}

	dirs := []string{
		filepath.Join(dir, "objects"),
		filepath.Join(dir, "refs", "bookmarks"),
		filepath.Join(dir, "refs", "remotes"),
		filepath.Join(dir, "refs", "tags"),
		filepath.Join(dir, "refs", "git"),
		filepath.Join(dir, "refs", "heads"),
		filepath.Join(dir, "refs", "working-copies"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("init: mkdir %s: %w", d, err)
		}
	}

	return newRepo(path, dir), nil
}

// Open searches upward from path for a .verso/ directory and opens the
// repository.
func Open(path string) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}

	cur := abs
	for {
		dir := filepath.Join(cur, DirName)
		info, err := os.Stat(dir)
		if err == nil && info.IsDir() {
			return newRepo(cur, dir), nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, fmt.Errorf("open %s: %w (or any parent up to /)", abs, ErrNotARepository)
		}
		cur = parent
	}
}

func newRepo(root, dir string) *Repo {
	return &Repo{
		RootDir: root,
		Dir:     dir,
		Store:   object.NewStore(dir),
	}
}

// writeFileAtomic writes data to path via a temp file and rename.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
