package diff

import (
	"strings"

	"github.com/odvcencio/verso/pkg/diff3"
)

// lineOp is one step of a line edit script. aPos and bPos count the lines
// of each side that precede the op.
type lineOp struct {
	typ  diff3.DiffType
	line string
	aPos int
	bPos int
}

// splitLinesKeepEnds splits data into lines that keep their "\n".
func splitLinesKeepEnds(data []byte) []string {
	s := string(data)
	var out []string
	for s != "" {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			out = append(out, s)
			break
		}
		out = append(out, s[:i+1])
		s = s[i+1:]
	}
	return out
}

func lineOps(a, b []byte) []lineOp {
	ops := diff3.MyersDiff(splitLinesKeepEnds(a), splitLinesKeepEnds(b))
	out := make([]lineOp, len(ops))
	aPos, bPos := 0, 0
	for i, op := range ops {
		out[i] = lineOp{typ: op.Type, line: op.Line, aPos: aPos, bPos: bPos}
		switch op.Type {
		case diff3.Equal:
			aPos++
			bPos++
		case diff3.Delete:
			aPos++
		case diff3.Insert:
			bPos++
		}
	}
	return out
}

// lineHunk is a window of ops around one or more changes.
type lineHunk struct {
	ops            []lineOp
	aStart, aCount int
	bStart, bCount int
}

// groupHunks windows the changes in ops with context lines on either side,
// merging windows that touch.
func groupHunks(ops []lineOp, context int) []lineHunk {
	var hunks []lineHunk
	i := 0
	for i < len(ops) {
		for i < len(ops) && ops[i].typ == diff3.Equal {
			i++
		}
		if i == len(ops) {
			break
		}
		start := max(0, i-context)
		end := i
		for {
			for end < len(ops) && ops[end].typ != diff3.Equal {
				end++
			}
			next := end
			for next < len(ops) && ops[next].typ == diff3.Equal {
				next++
			}
			if next < len(ops) && next-end <= 2*context {
				end = next
				continue
			}
			end = min(len(ops), end+context)
			break
		}
		hunks = append(hunks, newLineHunk(ops[start:end]))
		i = end
	}
	return hunks
}

func newLineHunk(ops []lineOp) lineHunk {
	h := lineHunk{ops: ops, aStart: ops[0].aPos, bStart: ops[0].bPos}
	for _, op := range ops {
		if op.typ != diff3.Insert {
			h.aCount++
		}
		if op.typ != diff3.Delete {
			h.bCount++
		}
	}
	return h
}

// countChanges returns the numbers of inserted and deleted lines.
func countChanges(a, b []byte) (added, removed int) {
	for _, op := range diff3.MyersDiff(splitLinesKeepEnds(a), splitLinesKeepEnds(b)) {
		switch op.Type {
		case diff3.Insert:
			added++
		case diff3.Delete:
			removed++
		}
	}
	return added, removed
}
