package repo

import (
	"fmt"

	"github.com/odvcencio/verso/pkg/object"
)

const (
	maxGraphWalkSteps = 1_000_000
	maxGraphWalkDepth = 1_000_000
)

// Tests may lower these; values outside (0, max] fall back to the maximum.
var (
	graphWalkSteps = maxGraphWalkSteps
	graphWalkDepth = maxGraphWalkDepth
)

func graphWalkLimits() (steps, depth int) {
	return clampLimit(graphWalkSteps, maxGraphWalkSteps), clampLimit(graphWalkDepth, maxGraphWalkDepth)
}

func clampLimit(limit, hardMax int) int {
	if limit <= 0 || limit > hardMax {
		return hardMax
	}
	return limit
}

// walkLimitError reports a history walk that ran past one of its bounds.
type walkLimitError struct {
	bound string
	limit int
}

func (e *walkLimitError) Error() string {
	return fmt.Sprintf("traversal exceeded maximum %s (%d)", e.bound, e.limit)
}

const (
	paintA uint8 = 1 << iota
	paintB
	paintBoth = paintA | paintB
)

// FindMergeBase returns the best common ancestor of a and b, or "" when
// their histories are disjoint. The best ancestor has the highest
// generation; ties go to the smaller id. Results are memoized per unordered
// pair.
func (r *Repo) FindMergeBase(a, b object.Hash) (object.Hash, error) {
	if a == "" || b == "" {
		return "", nil
	}
	if a == b {
		return a, nil
	}
	g := r.graph()
	if base, ok := g.cachedBase(a, b); ok {
		return base, nil
	}
	base, err := r.paintDown(g, a, b)
	if err != nil {
		return "", fmt.Errorf("find merge base: %w", err)
	}
	g.storeBase(a, b, base)
	return base, nil
}

// paintDown walks both histories at once in generation order, marking each
// commit with the sides that reach it. Every child of a commit is popped
// before the commit itself, so its paint is final when it comes out of the
// queue and the first commit painted by both sides is the answer.
func (r *Repo) paintDown(g *commitGraph, a, b object.Hash) (object.Hash, error) {
	maxSteps, maxDepth := graphWalkLimits()
	type mark struct {
		paint uint8
		depth int
	}
	marks := make(map[object.Hash]*mark)
	var queue generationQueue

	add := func(id object.Hash, paint uint8, depth int) error {
		if m, ok := marks[id]; ok {
			m.paint |= paint
			m.depth = min(m.depth, depth)
			return nil
		}
		if depth > maxDepth {
			return &walkLimitError{"depth", maxDepth}
		}
		gen, err := g.generation(r, id)
		if err != nil {
			return err
		}
		marks[id] = &mark{paint: paint, depth: depth}
		queue.push(id, gen)
		return nil
	}
	if err := add(a, paintA, 0); err != nil {
		return "", err
	}
	if err := add(b, paintB, 0); err != nil {
		return "", err
	}

	for steps := 1; queue.Len() > 0; steps++ {
		if steps > maxSteps {
			return "", &walkLimitError{"steps", maxSteps}
		}
		item := queue.pop()
		m := marks[item.id]
		if m.paint == paintBoth {
			return item.id, nil
		}
		c, err := g.commit(r, item.id)
		if err != nil {
			return "", err
		}
		for _, p := range c.Parents {
			if p == "" {
				continue
			}
			if err := add(p, m.paint, m.depth+1); err != nil {
				return "", err
			}
		}
	}
	return "", nil
}
