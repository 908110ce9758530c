package repo

import (
	"container/heap"
	"fmt"
	"sync"

	"github.com/odvcencio/verso/pkg/object"
)

// commitGraph caches parsed commits, generation numbers and merge bases for
// the lifetime of a Repo. The root commit has generation 0 and every other
// commit sits one above its highest parent.
type commitGraph struct {
	mu          sync.RWMutex
	commits     map[object.Hash]*object.CommitObj
	generations map[object.Hash]uint64
	bases       map[hashPair]object.Hash // "" records disjoint histories
}

type hashPair [2]object.Hash

func pairOf(a, b object.Hash) hashPair {
	if b < a {
		a, b = b, a
	}
	return hashPair{a, b}
}

func newCommitGraph() *commitGraph {
	return &commitGraph{
		commits:     make(map[object.Hash]*object.CommitObj),
		generations: make(map[object.Hash]uint64),
		bases:       make(map[hashPair]object.Hash),
	}
}

func (g *commitGraph) commit(r *Repo, h object.Hash) (*object.CommitObj, error) {
	g.mu.RLock()
	c, ok := g.commits[h]
	g.mu.RUnlock()
	if ok {
		return c, nil
	}
	c, err := r.readCommitObj(h)
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", h, err)
	}
	g.mu.Lock()
	if existing, ok := g.commits[h]; ok {
		c = existing
	} else {
		g.commits[h] = c
	}
	g.mu.Unlock()
	return c, nil
}

func (g *commitGraph) cachedGeneration(h object.Hash) (uint64, bool) {
	g.mu.RLock()
	gen, ok := g.generations[h]
	g.mu.RUnlock()
	return gen, ok
}

// generation computes the generation of h with an explicit stack, filling
// the cache for every ancestor it has to visit.
func (g *commitGraph) generation(r *Repo, h object.Hash) (uint64, error) {
	if gen, ok := g.cachedGeneration(h); ok {
		return gen, nil
	}
	type frame struct {
		id      object.Hash
		parents []object.Hash
		next    int
		gen     uint64
	}
	c, err := g.commit(r, h)
	if err != nil {
		return 0, err
	}
	onStack := map[object.Hash]bool{h: true}
	stack := []*frame{{id: h, parents: c.Parents}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next < len(top.parents) {
			p := top.parents[top.next]
			top.next++
			if p == "" {
				continue
			}
			if pg, ok := g.cachedGeneration(p); ok {
				top.gen = max(top.gen, pg+1)
				continue
			}
			if onStack[p] {
				return 0, fmt.Errorf("commit graph cycle detected at %s", p)
			}
			pc, err := g.commit(r, p)
			if err != nil {
				return 0, err
			}
			onStack[p] = true
			stack = append(stack, &frame{id: p, parents: pc.Parents})
			continue
		}
		stack = stack[:len(stack)-1]
		delete(onStack, top.id)
		g.mu.Lock()
		g.generations[top.id] = top.gen
		g.mu.Unlock()
		if len(stack) > 0 {
			below := stack[len(stack)-1]
			below.gen = max(below.gen, top.gen+1)
		}
	}
	gen, _ := g.cachedGeneration(h)
	return gen, nil
}

func (g *commitGraph) cachedBase(a, b object.Hash) (object.Hash, bool) {
	g.mu.RLock()
	base, ok := g.bases[pairOf(a, b)]
	g.mu.RUnlock()
	return base, ok
}

func (g *commitGraph) storeBase(a, b, base object.Hash) {
	g.mu.Lock()
	g.bases[pairOf(a, b)] = base
	g.mu.Unlock()
}

type queuedCommit struct {
	id  object.Hash
	gen uint64
}

// generationQueue yields the highest generation first, breaking ties by the
// smaller id, so children always come out before their parents.
type generationQueue []queuedCommit

func (q generationQueue) Len() int { return len(q) }

func (q generationQueue) Less(i, j int) bool {
	if q[i].gen != q[j].gen {
		return q[i].gen > q[j].gen
	}
	return q[i].id < q[j].id
}

func (q generationQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *generationQueue) Push(x any) { *q = append(*q, x.(queuedCommit)) }

func (q *generationQueue) Pop() any {
	old := *q
	item := old[len(old)-1]
	*q = old[:len(old)-1]
	return item
}

func (q *generationQueue) push(id object.Hash, gen uint64) {
	heap.Push(q, queuedCommit{id: id, gen: gen})
}

func (q *generationQueue) pop() queuedCommit {
	return heap.Pop(q).(queuedCommit)
}
