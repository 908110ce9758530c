package diff

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/odvcencio/verso/pkg/diff3"
	"github.com/odvcencio/verso/pkg/object"
	"github.com/odvcencio/verso/pkg/repo"
)

const shortHashLen = 10

var zeroShortHash = strings.Repeat("0", shortHashLen)

// RenderGit writes the diff in git's unified format.
func RenderGit(f Formatter, d *TreeDiff, opts Options) error {
	f.PushLabel("diff")
	defer f.PopLabel()
	for e, err := range d.Entries() {
		if err != nil {
			return err
		}
		if err := writeGitEntry(f, d.repo, e, opts); err != nil {
			return err
		}
	}
	return nil
}

func writeGitEntry(f Formatter, r *repo.Repo, e Entry, opts Options) error {
	before, err := Content(r, e.Before, opts.ConflictStyle)
	if err != nil {
		return err
	}
	after, err := Content(r, e.After, opts.ConflictStyle)
	if err != nil {
		return err
	}

	var header strings.Builder
	fmt.Fprintf(&header, "diff --git a/%s b/%s\n", e.Source, e.Target)
	beforeMode, afterMode := GitMode(e.Before), GitMode(e.After)
	switch {
	case e.Before.IsAbsent():
		fmt.Fprintf(&header, "new file mode %s\n", afterMode)
	case e.After.IsAbsent():
		fmt.Fprintf(&header, "deleted file mode %s\n", beforeMode)
	case beforeMode != afterMode:
		fmt.Fprintf(&header, "old mode %s\nnew mode %s\n", beforeMode, afterMode)
	}
	switch e.Op {
	case Renamed:
		fmt.Fprintf(&header, "rename from %s\nrename to %s\n", e.Source, e.Target)
	case Copied:
		fmt.Fprintf(&header, "copy from %s\ncopy to %s\n", e.Source, e.Target)
	}

	contentChanged := !bytes.Equal(before, after) || e.Before.IsAbsent() || e.After.IsAbsent()
	if !contentChanged {
		return writeLabeled(f, "file_header", header.String())
	}
	fmt.Fprintf(&header, "index %s..%s", gitShortHash(e.Before, before), gitShortHash(e.After, after))
	if e.Before.IsPresent() && e.After.IsPresent() && beforeMode == afterMode {
		fmt.Fprintf(&header, " %s", beforeMode)
	}
	header.WriteString("\n")
	if len(before) == 0 && len(after) == 0 {
		return writeLabeled(f, "file_header", header.String())
	}
	if IsBinary(before) || IsBinary(after) {
		fmt.Fprintf(&header, "Binary files %s and %s differ\n", gitPath("a", e.Source, e.Before), gitPath("b", e.Target, e.After))
		return writeLabeled(f, "file_header", header.String())
	}
	fmt.Fprintf(&header, "--- %s\n+++ %s\n", gitPath("a", e.Source, e.Before), gitPath("b", e.Target, e.After))
	if err := writeLabeled(f, "file_header", header.String()); err != nil {
		return err
	}
	for _, h := range groupHunks(lineOps(before, after), opts.Git.Context) {
		if err := writeUnifiedHunk(f, h); err != nil {
			return err
		}
	}
	return nil
}

func gitPath(prefix string, p repo.RepoPath, v repo.TreeValue) string {
	if v.IsAbsent() {
		return "/dev/null"
	}
	return prefix + "/" + string(p)
}

func gitShortHash(v repo.TreeValue, content []byte) string {
	if f, ok := v.AsResolved(); ok {
		if f == nil {
			return zeroShortHash
		}
		return f.Hash.Short(shortHashLen)
	}
	return object.HashObject(object.TypeBlob, content).Short(shortHashLen)
}

func hunkRange(start, count int) string {
	if count == 0 {
		return fmt.Sprintf("%d,0", start)
	}
	return fmt.Sprintf("%d,%d", start+1, count)
}

func writeUnifiedHunk(f Formatter, h lineHunk) error {
	if err := printfLabeled(f, "hunk_header", "@@ -%s +%s @@\n", hunkRange(h.aStart, h.aCount), hunkRange(h.bStart, h.bCount)); err != nil {
		return err
	}
	for _, op := range h.ops {
		label, sigil := "context", " "
		switch op.typ {
		case diff3.Delete:
			label, sigil = "removed", "-"
		case diff3.Insert:
			label, sigil = "added", "+"
		}
		line := sigil + op.line
		if !strings.HasSuffix(line, "\n") {
			line += "\n\\ No newline at end of file\n"
		}
		if err := writeLabeled(f, label, line); err != nil {
			return err
		}
	}
	return nil
}
