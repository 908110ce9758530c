package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/odvcencio/verso/pkg/object"
)

func limitGraphWalk(t *testing.T, steps, depth int) {
	t.Helper()
	prevSteps, prevDepth := graphWalkSteps, graphWalkDepth
	graphWalkSteps, graphWalkDepth = steps, depth
	t.Cleanup(func() {
		graphWalkSteps, graphWalkDepth = prevSteps, prevDepth
	})
}

// writeRawCommit stores a commit object without the root-parent defaulting
// WriteCommit applies.
func writeRawCommit(t *testing.T, r *Repo, parents []object.Hash, desc string) object.Hash {
	t.Helper()
	tree, err := r.Store.WriteTree(&object.TreeObj{})
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	h, err := r.Store.WriteCommit(&object.CommitObj{
		TreeHash: tree,
		Parents:  parents,
		ChangeID: object.ZeroChangeID,
		Author:   testSignature(0),
		Message:  desc,
	})
	if err != nil {
		t.Fatalf("WriteCommit(%q): %v", desc, err)
	}
	return h
}

// overwriteObject replaces the stored bytes of h with c, producing an
// object whose content no longer matches its id.
func overwriteObject(t *testing.T, r *Repo, h object.Hash, c *object.CommitObj) {
	t.Helper()
	data := object.MarshalCommit(c)
	raw := append([]byte(fmt.Sprintf("%s %d\x00", object.TypeCommit, len(data))), data...)
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("zstd.NewWriter: %v", err)
	}
	defer enc.Close()
	path := filepath.Join(r.Dir, "objects", string(h[:2]), string(h[2:]))
	if err := os.WriteFile(path, enc.EncodeAll(raw, nil), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

// forkedHistory builds base <- left and base <- right.
func forkedHistory(t *testing.T, r *Repo) (base, left, right object.Hash) {
	t.Helper()
	base = writeTestCommit(t, r, nil, map[string]string{"a.txt": "a\n"}, "base")
	left = writeTestCommit(t, r, []object.Hash{base}, map[string]string{"a.txt": "a\nleft\n"}, "left")
	right = writeTestCommit(t, r, []object.Hash{base}, map[string]string{"a.txt": "right\na\n"}, "right")
	return base, left, right
}

func TestGenerationNumbers(t *testing.T) {
	r := newTestRepo(t)
	base, left, right := forkedHistory(t, r)
	merge := writeTestCommit(t, r, []object.Hash{left, right}, nil, "merge")
	tip := writeTestCommit(t, r, []object.Hash{merge}, nil, "tip")

	g := r.graph()
	want := map[object.Hash]uint64{
		object.ZeroHash: 0,
		base:            1,
		left:            2,
		right:           2,
		merge:           3,
		tip:             4,
	}
	for h, wantGen := range want {
		gen, err := g.generation(r, h)
		if err != nil {
			t.Fatalf("generation(%s): %v", h, err)
		}
		if gen != wantGen {
			t.Errorf("generation(%s) = %d, want %d", h, gen, wantGen)
		}
	}
	if n := len(g.generations); n != len(want) {
		t.Errorf("cached %d generations, want %d", n, len(want))
	}
}

func TestFindMergeBase(t *testing.T) {
	r := newTestRepo(t)
	base, left, right := forkedHistory(t, r)
	merge := writeTestCommit(t, r, []object.Hash{left, right}, nil, "merge")
	leftTip := writeTestCommit(t, r, []object.Hash{left}, nil, "left tip")

	tests := []struct {
		name string
		a, b object.Hash
		want object.Hash
	}{
		{"fork", left, right, base},
		{"same commit", left, left, left},
		{"ancestor", base, leftTip, base},
		{"descendant", leftTip, base, base},
		{"merge parent", merge, right, right},
		{"across merge", merge, leftTip, left},
		{"root", object.ZeroHash, right, object.ZeroHash},
		{"empty id", "", right, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.FindMergeBase(tt.a, tt.b)
			if err != nil {
				t.Fatalf("FindMergeBase: %v", err)
			}
			if got != tt.want {
				t.Fatalf("FindMergeBase = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFindMergeBasePrefersHighestGeneration(t *testing.T) {
	r := newTestRepo(t)
	// Criss-cross: x and y both merge p and q, so p and q are both common
	// ancestors; the deeper q wins.
	p := writeTestCommit(t, r, nil, nil, "p")
	q := writeTestCommit(t, r, []object.Hash{p}, nil, "q")
	other := writeTestCommit(t, r, nil, nil, "other")
	x := writeTestCommit(t, r, []object.Hash{q, other}, nil, "x")
	y := writeTestCommit(t, r, []object.Hash{other, q}, nil, "y")

	got, err := r.FindMergeBase(x, y)
	if err != nil {
		t.Fatalf("FindMergeBase: %v", err)
	}
	if got != q {
		t.Fatalf("FindMergeBase = %s, want %s", got, q)
	}
}

func TestFindMergeBaseCachesUnorderedPair(t *testing.T) {
	r := newTestRepo(t)
	base, left, right := forkedHistory(t, r)
	g := r.graph()

	for _, pair := range [][2]object.Hash{{left, right}, {right, left}} {
		got, err := r.FindMergeBase(pair[0], pair[1])
		if err != nil {
			t.Fatalf("FindMergeBase: %v", err)
		}
		if got != base {
			t.Fatalf("FindMergeBase = %s, want %s", got, base)
		}
		if n := len(g.bases); n != 1 {
			t.Fatalf("cached %d merge bases, want 1", n)
		}
	}
}

func TestFindMergeBaseDisjointHistories(t *testing.T) {
	r := newTestRepo(t)
	a := writeRawCommit(t, r, []object.Hash{}, "orphan a")
	b := writeRawCommit(t, r, []object.Hash{}, "orphan b")

	for _, pair := range [][2]object.Hash{{a, b}, {b, a}} {
		got, err := r.FindMergeBase(pair[0], pair[1])
		if err != nil {
			t.Fatalf("FindMergeBase: %v", err)
		}
		if got != "" {
			t.Fatalf("FindMergeBase = %s, want none", got)
		}
	}
	base, ok := r.graph().cachedBase(a, b)
	if !ok || base != "" {
		t.Fatalf("cachedBase = %q, %v; want empty and cached", base, ok)
	}
}

func TestFindMergeBaseCycle(t *testing.T) {
	r := newTestRepo(t)
	a := writeRawCommit(t, r, []object.Hash{}, "a")
	b := writeRawCommit(t, r, []object.Hash{a}, "b")
	corrupt, err := r.Store.ReadCommit(a)
	if err != nil {
		t.Fatalf("ReadCommit: %v", err)
	}
	corrupt.Parents = []object.Hash{b}
	overwriteObject(t, r, a, corrupt)

	_, err = r.FindMergeBase(a, b)
	if err == nil || !strings.Contains(err.Error(), "cycle detected") {
		t.Fatalf("FindMergeBase error = %v, want cycle", err)
	}
}

func TestFindMergeBaseWalkLimits(t *testing.T) {
	tests := []struct {
		name         string
		steps, depth int
		want         string
	}{
		{"depth", maxGraphWalkSteps, 1, "maximum depth (1)"},
		{"steps", 1, maxGraphWalkDepth, "maximum steps (1)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRepo(t)
			base := writeRawCommit(t, r, nil, "base")
			l1 := writeRawCommit(t, r, []object.Hash{base}, "l1")
			l2 := writeRawCommit(t, r, []object.Hash{l1}, "l2")
			r1 := writeRawCommit(t, r, []object.Hash{base}, "r1")
			r2 := writeRawCommit(t, r, []object.Hash{r1}, "r2")
			limitGraphWalk(t, tt.steps, tt.depth)

			_, err := r.FindMergeBase(l2, r2)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("FindMergeBase error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestGraphWalkLimitsClamp(t *testing.T) {
	limitGraphWalk(t, maxGraphWalkSteps+1, maxGraphWalkDepth+1)
	if steps, depth := graphWalkLimits(); steps != maxGraphWalkSteps || depth != maxGraphWalkDepth {
		t.Fatalf("graphWalkLimits = %d, %d; want hard maxima", steps, depth)
	}
	limitGraphWalk(t, 0, -1)
	if steps, depth := graphWalkLimits(); steps != maxGraphWalkSteps || depth != maxGraphWalkDepth {
		t.Fatalf("graphWalkLimits = %d, %d; want hard maxima", steps, depth)
	}
}
