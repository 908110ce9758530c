package revset

import (
	"github.com/odvcencio/verso/pkg/object"
	"github.com/odvcencio/verso/pkg/repo"
)

// SizeHint bounds a count. Upper is nil when no upper bound is known.
type SizeHint struct {
	Lower int
	Upper *int
}

// Exact returns the count when both bounds agree.
func (h SizeHint) Exact() (int, bool) {
	if h.Upper != nil && *h.Upper == h.Lower {
		return h.Lower, true
	}
	return 0, false
}

// ExactHint is a SizeHint with equal bounds.
func ExactHint(n int) SizeHint { return SizeHint{Lower: n, Upper: &n} }

// WalkLimit caps counting in WalkRevs. Larger ranges report only a lower
// bound.
const WalkLimit = 1_000_000

// WalkRevs estimates the number of commits reachable from wanted but not
// from unwanted, as in "unwanted..wanted".
func WalkRevs(idx *repo.Index, wanted, unwanted []object.Hash) SizeHint {
	excluded := idx.Ancestors(unwanted)
	included := idx.Ancestors(wanted)
	n := 0
	for id := range included {
		if _, ok := excluded[id]; ok {
			continue
		}
		n++
		if n >= WalkLimit {
			return SizeHint{Lower: n}
		}
	}
	return ExactHint(n)
}
