package diff

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/odvcencio/verso/pkg/repo"
	"github.com/odvcencio/verso/pkg/settings"
)

// FileStat is the line count change of one entry.
type FileStat struct {
	Path    string
	Added   int
	Removed int
}

// Stats aggregates line counts over a whole diff.
type Stats struct {
	Files []FileStat
}

// ComputeStats counts inserted and removed lines per entry. Paths are
// formatted with conv.
func ComputeStats(d *TreeDiff, conv repo.PathConverter, style settings.ConflictMarkerStyle) (*Stats, error) {
	stats := &Stats{}
	for e, err := range d.Entries() {
		if err != nil {
			return nil, err
		}
		before, err := Content(d.repo, e.Before, style)
		if err != nil {
			return nil, err
		}
		after, err := Content(d.repo, e.After, style)
		if err != nil {
			return nil, err
		}
		fs := FileStat{Path: conv.FormatFilePath(e.Target)}
		if e.Op != NoCopy {
			fs.Path = conv.FormatCopiedPath(e.Source, e.Target)
		}
		if !IsBinary(before) && !IsBinary(after) {
			fs.Added, fs.Removed = countChanges(before, after)
		}
		stats.Files = append(stats.Files, fs)
	}
	return stats, nil
}

func (s *Stats) TotalAdded() int {
	n := 0
	for _, f := range s.Files {
		n += f.Added
	}
	return n
}

func (s *Stats) TotalRemoved() int {
	n := 0
	for _, f := range s.Files {
		n += f.Removed
	}
	return n
}

// Render writes one bar per file scaled to fit width columns, followed
// by a summary line.
func (s *Stats) Render(f Formatter, width int) error {
	f.PushLabel("diff")
	defer f.PopLabel()

	maxPathWidth, maxDiffs := 0, 0
	for _, fs := range s.Files {
		maxPathWidth = max(maxPathWidth, runewidth.StringWidth(fs.Path))
		maxDiffs = max(maxDiffs, fs.Added+fs.Removed)
	}
	numberWidth := len(fmt.Sprint(maxDiffs))
	// Four columns are left for the graph.
	available := max(width-4-len(" | ")-numberWidth, 5)
	pathWidth := min(maxPathWidth, max(available-min(maxDiffs, available/2), available/2))
	barWidth := max(available-pathWidth, 1)
	factor := 1.0
	if maxDiffs > barWidth {
		factor = float64(barWidth) / float64(maxDiffs)
	}

	for _, fs := range s.Files {
		added := scaleBar(fs.Added, factor)
		removed := scaleBar(fs.Removed, factor)
		path := elideStart(fs.Path, pathWidth)
		pad := strings.Repeat(" ", pathWidth-runewidth.StringWidth(path))
		sep := ""
		if added+removed > 0 {
			sep = " "
		}
		if _, err := fmt.Fprintf(f, "%s%s | %*d%s", path, pad, numberWidth, fs.Added+fs.Removed, sep); err != nil {
			return err
		}
		if err := writeLabeled(f, "added", strings.Repeat("+", added)); err != nil {
			return err
		}
		if err := writeLabeled(f, "removed", strings.Repeat("-", removed)); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(f); err != nil {
			return err
		}
	}
	totalAdded, totalRemoved := s.TotalAdded(), s.TotalRemoved()
	return printfLabeled(f, "stat-summary", "%d file%s changed, %d insertion%s(+), %d deletion%s(-)\n",
		len(s.Files), plural(len(s.Files)),
		totalAdded, plural(totalAdded),
		totalRemoved, plural(totalRemoved))
}

func scaleBar(n int, factor float64) int {
	if n == 0 {
		return 0
	}
	scaled := int(float64(n)*factor + 0.999999)
	return max(scaled, 1)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// elideStart replaces the start of s with "..." so it fits width columns.
func elideStart(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	const ellipsis = "..."
	if width <= len(ellipsis) {
		return ellipsis[:max(width, 0)]
	}
	runes := []rune(s)
	w := 0
	i := len(runes)
	for i > 0 {
		rw := runewidth.RuneWidth(runes[i-1])
		if w+rw > width-len(ellipsis) {
			break
		}
		w += rw
		i--
	}
	return ellipsis + string(runes[i:])
}
