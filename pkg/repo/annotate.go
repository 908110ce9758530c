package repo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/odvcencio/verso/pkg/diff3"
	"github.com/odvcencio/verso/pkg/object"
)

// ErrNotAFile indicates the annotated path is missing or not a regular
// resolved file in the starting commit.
var ErrNotAFile = errors.New("not a file")

// AnnotatedLine attributes one line of a file to the commit that last
// changed it.
type AnnotatedLine struct {
	CommitID object.Hash
	// Content includes the trailing newline when present.
	Content    string
	LineNumber int // 1-based
	// FirstLineInHunk is set when the previous line belongs to a different
	// commit.
	FirstLineInHunk bool
}

type pendingLine struct {
	origIdx int // index in the starting file
	idx     int // index in the version being examined
}

// Annotate attributes every line of path in the start commit to the
// commit that introduced it, walking all parents newest first.
func (r *Repo) Annotate(start object.Hash, path RepoPath) ([]AnnotatedLine, error) {
	startLines, ok, err := r.fileLinesAt(start, path)
	if err != nil {
		return nil, fmt.Errorf("annotate %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("annotate %s: %w", path, ErrNotAFile)
	}

	g := r.graph()
	owners := make([]object.Hash, len(startLines))
	pending := map[object.Hash][]pendingLine{}
	initial := make([]pendingLine, len(startLines))
	for i := range startLines {
		initial[i] = pendingLine{origIdx: i, idx: i}
	}
	pending[start] = initial
	linesCache := map[object.Hash][]string{start: startLines}

	startGen, err := g.generation(r, start)
	if err != nil {
		return nil, fmt.Errorf("annotate %s: %w", path, err)
	}
	var queue generationQueue
	queue.push(start, startGen)
	maxSteps, _ := graphWalkLimits()
	steps := 0

	for queue.Len() > 0 {
		item := queue.pop()
		lines := pending[item.id]
		delete(pending, item.id)
		if len(lines) == 0 {
			continue
		}
		steps++
		if steps > maxSteps {
			return nil, fmt.Errorf("annotate %s: %w", path, &walkLimitError{"steps", maxSteps})
		}

		commit, err := g.commit(r, item.id)
		if err != nil {
			return nil, fmt.Errorf("annotate %s: %w", path, err)
		}
		cur := linesCache[item.id]
		remaining := lines
		for _, p := range commit.Parents {
			if len(remaining) == 0 {
				break
			}
			parentLines, ok := linesCache[p]
			if !ok {
				parentLines, _, err = r.fileLinesAt(p, path)
				if err != nil {
					return nil, fmt.Errorf("annotate %s: %w", path, err)
				}
				linesCache[p] = parentLines
			}
			mapping := matchingLines(parentLines, cur)
			var unmatched []pendingLine
			for _, pl := range remaining {
				if pidx, ok := mapping[pl.idx]; ok {
					if _, queued := pending[p]; !queued {
						gen, err := g.generation(r, p)
						if err != nil {
							return nil, fmt.Errorf("annotate %s: %w", path, err)
						}
						queue.push(p, gen)
					}
					pending[p] = append(pending[p], pendingLine{origIdx: pl.origIdx, idx: pidx})
				} else {
					unmatched = append(unmatched, pl)
				}
			}
			remaining = unmatched
		}
		for _, pl := range remaining {
			owners[pl.origIdx] = item.id
		}
	}

	out := make([]AnnotatedLine, len(startLines))
	for i, line := range startLines {
		out[i] = AnnotatedLine{
			CommitID:        owners[i],
			Content:         line,
			LineNumber:      i + 1,
			FirstLineInHunk: i == 0 || owners[i] != owners[i-1],
		}
	}
	return out, nil
}

// matchingLines maps indices in cur to indices of identical, aligned lines
// in parent.
func matchingLines(parent, cur []string) map[int]int {
	mapping := make(map[int]int)
	pi, ci := 0, 0
	for _, op := range diff3.MyersDiff(parent, cur) {
		switch op.Type {
		case diff3.Equal:
			mapping[ci] = pi
			pi++
			ci++
		case diff3.Delete:
			pi++
		case diff3.Insert:
			ci++
		}
	}
	return mapping
}

// fileLinesAt returns the lines of a resolved regular file, each keeping
// its newline. It reports false when the path is absent or not a file.
func (r *Repo) fileLinesAt(commitID object.Hash, path RepoPath) ([]string, bool, error) {
	c, err := r.Commit(commitID)
	if err != nil {
		return nil, false, err
	}
	tree, err := c.Tree()
	if err != nil {
		return nil, false, err
	}
	f, ok := tree.Value(path).AsResolved()
	if !ok || f == nil || f.Symlink {
		return nil, false, nil
	}
	blob, err := r.Store.ReadBlob(f.Hash)
	if err != nil {
		return nil, false, err
	}
	return splitLinesKeepEnds(string(blob.Data)), true, nil
}

func splitLinesKeepEnds(s string) []string {
	var lines []string
	for s != "" {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			lines = append(lines, s)
			break
		}
		lines = append(lines, s[:i+1])
		s = s[i+1:]
	}
	return lines
}
