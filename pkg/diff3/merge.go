// Package diff3 implements line diffs and three-way merges of text.
package diff3

import (
	"bytes"
	"slices"
	"strings"
)

// HunkType classifies a hunk in a three-way merge result.
type HunkType int

const (
	HunkClean    HunkType = iota // resolved without intervention
	HunkConflict                 // both sides changed the same base lines differently
)

// Hunk is a contiguous section of the merge output. Left and Right are set
// for conflicts and for regions where that side carried the change.
type Hunk struct {
	Type                      HunkType
	Base, Left, Right, Merged []byte
}

// Result holds the outcome of a three-way merge.
type Result struct {
	Merged       []byte // full output, conflicts rendered with markers
	HasConflicts bool
	Hunks        []Hunk // in document order
}

// SplitLines splits s into lines without their terminators. A trailing
// newline does not produce an extra empty element.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Merge combines the changes from base to left and from base to right.
// Base lines that both sides keep in place anchor stable regions; every
// region between anchors resolves to whichever side changed it, or to a
// conflict when both did and disagree.
func Merge(base, left, right []byte) Result {
	b := SplitLines(string(base))
	l := SplitLines(string(left))
	r := SplitLines(string(right))
	ml := matchBase(b, l)
	mr := matchBase(b, r)

	var res Result
	var stable []string
	flush := func() {
		if len(stable) == 0 {
			return
		}
		text := joinLines(stable)
		res.Hunks = append(res.Hunks, Hunk{Type: HunkClean, Base: text, Merged: text})
		stable = nil
	}

	ib, il, ir := 0, 0, 0
	for ib < len(b) || il < len(l) || ir < len(r) {
		if ib < len(b) && ml[ib] == il && mr[ib] == ir {
			stable = append(stable, b[ib])
			ib++
			il++
			ir++
			continue
		}
		// Find the next base line anchored on both sides.
		jb, jl, jr := len(b), len(l), len(r)
		for j := ib; j < len(b); j++ {
			if ml[j] >= 0 && mr[j] >= 0 {
				jb, jl, jr = j, ml[j], mr[j]
				break
			}
		}
		flush()
		res.Hunks = append(res.Hunks, resolve(b[ib:jb], l[il:jl], r[ir:jr]))
		ib, il, ir = jb, jl, jr
	}
	flush()

	var out bytes.Buffer
	for _, h := range res.Hunks {
		if h.Type == HunkConflict {
			res.HasConflicts = true
			writeConflict(&out, h)
			continue
		}
		out.Write(h.Merged)
	}
	res.Merged = out.Bytes()
	return res
}

// matchBase maps each base index to the index of the same line in side, or
// -1 when the line did not survive.
func matchBase(base, side []string) []int {
	m := make([]int, len(base))
	ib, is := 0, 0
	for _, op := range MyersDiff(base, side) {
		switch op.Type {
		case Equal:
			m[ib] = is
			ib++
			is++
		case Delete:
			m[ib] = -1
			ib++
		case Insert:
			is++
		}
	}
	return m
}

func resolve(base, left, right []string) Hunk {
	h := Hunk{Base: joinLines(base)}
	switch {
	case slices.Equal(left, right):
		h.Left, h.Merged = joinLines(left), joinLines(left)
	case slices.Equal(base, left):
		h.Right, h.Merged = joinLines(right), joinLines(right)
	case slices.Equal(base, right):
		h.Left, h.Merged = joinLines(left), joinLines(left)
	default:
		h.Type = HunkConflict
		h.Left, h.Right = joinLines(left), joinLines(right)
	}
	return h
}

func writeConflict(buf *bytes.Buffer, h Hunk) {
	buf.WriteString("<<<<<<< Side #1\n")
	buf.Write(h.Left)
	buf.WriteString("=======\n")
	buf.Write(h.Right)
	buf.WriteString(">>>>>>> Side #2\n")
}

func joinLines(lines []string) []byte {
	if len(lines) == 0 {
		return nil
	}
	n := len(lines)
	for _, l := range lines {
		n += len(l)
	}
	buf := make([]byte, 0, n)
	for _, l := range lines {
		buf = append(buf, l...)
		buf = append(buf, '\n')
	}
	return buf
}
