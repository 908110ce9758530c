package diff3

import "slices"

// DiffType classifies a line in an edit script.
type DiffType int

const (
	Equal  DiffType = iota // present on both sides
	Insert                 // present in b only
	Delete                 // present in a only
)

// DiffOp is a single step of an edit script produced by MyersDiff.
type DiffOp struct {
	Type DiffType
	Line string
}

// MyersDiff computes a shortest edit script turning a into b. Within each
// run of changes, deletions precede insertions.
func MyersDiff(a, b []string) []DiffOp {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	x, y := intern(a, b)
	pre := commonPrefix(x, y)
	suf := commonSuffix(x[pre:], y[pre:])

	ops := make([]DiffOp, 0, max(len(a), len(b)))
	for _, l := range a[:pre] {
		ops = append(ops, DiffOp{Type: Equal, Line: l})
	}
	ops = appendEdits(ops, a[pre:len(a)-suf], b[pre:len(b)-suf], x[pre:len(x)-suf], y[pre:len(y)-suf])
	for _, l := range a[len(a)-suf:] {
		ops = append(ops, DiffOp{Type: Equal, Line: l})
	}
	return ops
}

// intern maps every distinct line to a small integer so the search below
// compares ints.
func intern(a, b []string) (x, y []int) {
	ids := make(map[string]int, len(a))
	conv := func(lines []string) []int {
		out := make([]int, len(lines))
		for i, l := range lines {
			id, ok := ids[l]
			if !ok {
				id = len(ids)
				ids[l] = id
			}
			out[i] = id
		}
		return out
	}
	return conv(a), conv(b)
}

func commonPrefix(x, y []int) int {
	n := 0
	for n < len(x) && n < len(y) && x[n] == y[n] {
		n++
	}
	return n
}

func commonSuffix(x, y []int) int {
	n := 0
	for n < len(x) && n < len(y) && x[len(x)-1-n] == y[len(y)-1-n] {
		n++
	}
	return n
}

// appendEdits runs the greedy forward search over the trimmed middle and
// appends the recovered script to ops.
func appendEdits(ops []DiffOp, a, b []string, x, y []int) []DiffOp {
	n, m := len(x), len(y)
	if n == 0 {
		for _, l := range b {
			ops = append(ops, DiffOp{Type: Insert, Line: l})
		}
		return ops
	}
	if m == 0 {
		for _, l := range a {
			ops = append(ops, DiffOp{Type: Delete, Line: l})
		}
		return ops
	}

	off := n + m
	v := make([]int, 2*off+2)
	// trace[d] is the frontier before step d.
	var trace [][]int
search:
	for d := 0; d <= off; d++ {
		trace = append(trace, slices.Clone(v))
		for k := -d; k <= d; k += 2 {
			var px int
			if k == -d || (k != d && v[off+k-1] < v[off+k+1]) {
				px = v[off+k+1]
			} else {
				px = v[off+k-1] + 1
			}
			py := px - k
			for px < n && py < m && x[px] == y[py] {
				px++
				py++
			}
			v[off+k] = px
			if px >= n && py >= m {
				break search
			}
		}
	}

	rev := make([]DiffOp, 0, n+m)
	px, py := n, m
	for d := len(trace) - 1; d >= 0; d-- {
		fr := trace[d]
		k := px - py
		var pk int
		if k == -d || (k != d && fr[off+k-1] < fr[off+k+1]) {
			pk = k + 1
		} else {
			pk = k - 1
		}
		sx := fr[off+pk]
		sy := sx - pk
		for px > sx && py > sy && px > 0 && py > 0 {
			px--
			py--
			rev = append(rev, DiffOp{Type: Equal, Line: a[px]})
		}
		if d == 0 {
			break
		}
		if px == sx {
			py--
			rev = append(rev, DiffOp{Type: Insert, Line: b[py]})
		} else {
			px--
			rev = append(rev, DiffOp{Type: Delete, Line: a[px]})
		}
	}
	slices.Reverse(rev)
	return appendOrdered(ops, rev)
}

// appendOrdered appends script to ops, moving the deletions of each change
// run ahead of its insertions.
func appendOrdered(ops, script []DiffOp) []DiffOp {
	for i := 0; i < len(script); {
		if script[i].Type == Equal {
			ops = append(ops, script[i])
			i++
			continue
		}
		j := i
		for j < len(script) && script[j].Type != Equal {
			j++
		}
		for _, op := range script[i:j] {
			if op.Type == Delete {
				ops = append(ops, op)
			}
		}
		for _, op := range script[i:j] {
			if op.Type == Insert {
				ops = append(ops, op)
			}
		}
		i = j
	}
	return ops
}
