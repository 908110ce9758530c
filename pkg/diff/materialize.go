package diff

import (
	"bytes"
	"fmt"

	"github.com/odvcencio/verso/pkg/diff3"
	"github.com/odvcencio/verso/pkg/object"
	"github.com/odvcencio/verso/pkg/repo"
	"github.com/odvcencio/verso/pkg/settings"
)

// FileType describes a tree value for headers.
func FileType(v repo.TreeValue) string {
	f, ok := v.AsResolved()
	switch {
	case !ok:
		return "conflict"
	case f == nil:
		return "absent"
	case f.Symlink:
		return "symlink"
	case f.Executable:
		return "executable file"
	}
	return "regular file"
}

// GitMode returns the git file mode of a value; conflicts render as
// regular files.
func GitMode(v repo.TreeValue) string {
	f, ok := v.AsResolved()
	switch {
	case ok && f == nil:
		return ""
	case ok && f.Symlink:
		return object.TreeModeSymlink
	case ok && f.Executable:
		return object.TreeModeExecutable
	}
	return object.TreeModeFile
}

// Content returns the bytes at one side of a diff, materializing conflicts
// with the given marker style.
func Content(r *repo.Repo, v repo.TreeValue, style settings.ConflictMarkerStyle) ([]byte, error) {
	if f, ok := v.AsResolved(); ok {
		return readFile(r, f)
	}
	removes := make([][]byte, len(v.Removes))
	for i, f := range v.Removes {
		data, err := readFile(r, f)
		if err != nil {
			return nil, err
		}
		removes[i] = data
	}
	adds := make([][]byte, len(v.Adds))
	for i, f := range v.Adds {
		data, err := readFile(r, f)
		if err != nil {
			return nil, err
		}
		adds[i] = data
	}
	return MaterializeConflict(removes, adds, style), nil
}

func readFile(r *repo.Repo, f *repo.FileValue) ([]byte, error) {
	if f == nil {
		return nil, nil
	}
	b, err := r.Store.ReadBlob(f.Hash)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", f.Hash, err)
	}
	return b.Data, nil
}

const (
	conflictLT = "<<<<<<<"
	conflictGT = ">>>>>>>"
)

// MaterializeConflict renders conflicting file contents with markers. A
// two-sided conflict only marks the regions where the sides disagree; a
// conflict with more sides is rendered as a single region.
func MaterializeConflict(removes, adds [][]byte, style settings.ConflictMarkerStyle) []byte {
	var buf bytes.Buffer
	if len(removes) == 1 && len(adds) == 2 {
		result := diff3.Merge(removes[0], adds[0], adds[1])
		total := 0
		for _, h := range result.Hunks {
			if h.Type == diff3.HunkConflict {
				total++
			}
		}
		n := 0
		for _, h := range result.Hunks {
			if h.Type != diff3.HunkConflict {
				buf.Write(h.Merged)
				continue
			}
			n++
			writeConflictRegion(&buf, [][]byte{h.Base}, [][]byte{h.Left, h.Right}, style, n, total)
		}
		return buf.Bytes()
	}
	writeConflictRegion(&buf, removes, adds, style, 1, 1)
	return buf.Bytes()
}

func writeConflictRegion(buf *bytes.Buffer, removes, adds [][]byte, style settings.ConflictMarkerStyle, n, total int) {
	if style == settings.ConflictMarkerGit && len(removes) == 1 && len(adds) == 2 {
		fmt.Fprintf(buf, "%s Side #1 (Conflict %d of %d)\n", conflictLT, n, total)
		writeTerm(buf, adds[0])
		buf.WriteString("||||||| Base\n")
		writeTerm(buf, removes[0])
		buf.WriteString("=======\n")
		writeTerm(buf, adds[1])
		fmt.Fprintf(buf, "%s Side #2 (Conflict %d of %d ends)\n", conflictGT, n, total)
		return
	}
	fmt.Fprintf(buf, "%s Conflict %d of %d\n", conflictLT, n, total)
	for i, add := range adds {
		if i >= len(removes) {
			fmt.Fprintf(buf, "+++++++ Contents of side #%d\n", i+1)
			writeTerm(buf, add)
			continue
		}
		base := "base"
		if len(removes) > 1 {
			base = fmt.Sprintf("base #%d", i+1)
		}
		if style == settings.ConflictMarkerSnapshot || style == settings.ConflictMarkerGit {
			fmt.Fprintf(buf, "+++++++ Contents of side #%d\n", i+1)
			writeTerm(buf, add)
			fmt.Fprintf(buf, "------- Contents of %s\n", base)
			writeTerm(buf, removes[i])
			continue
		}
		fmt.Fprintf(buf, "%%%%%%%%%%%%%% Changes from %s to side #%d\n", base, i+1)
		for _, op := range diff3.MyersDiff(diff3.SplitLines(string(removes[i])), diff3.SplitLines(string(add))) {
			switch op.Type {
			case diff3.Equal:
				buf.WriteString(" ")
			case diff3.Delete:
				buf.WriteString("-")
			case diff3.Insert:
				buf.WriteString("+")
			}
			buf.WriteString(op.Line)
			buf.WriteByte('\n')
		}
	}
	fmt.Fprintf(buf, "%s Conflict %d of %d ends\n", conflictGT, n, total)
}

func writeTerm(buf *bytes.Buffer, data []byte) {
	buf.Write(data)
	if len(data) > 0 && !bytes.HasSuffix(data, []byte("\n")) {
		buf.WriteByte('\n')
	}
}

// IsBinary reports whether data looks like binary content.
func IsBinary(data []byte) bool {
	return bytes.IndexByte(data, 0) >= 0
}
