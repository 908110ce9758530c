package diff

import (
	"fmt"

	"github.com/odvcencio/verso/pkg/repo"
)

// RenderSummary writes one "<status> <path>" line per entry.
func RenderSummary(f Formatter, d *TreeDiff, conv repo.PathConverter) error {
	f.PushLabel("diff")
	defer f.PopLabel()
	for e, err := range d.Entries() {
		if err != nil {
			return err
		}
		path := conv.FormatFilePath(e.Target)
		if e.Op != NoCopy {
			path = conv.FormatCopiedPath(e.Source, e.Target)
		}
		status := e.Status()
		if err := writeLabeled(f, string(status), fmt.Sprintf("%s %s\n", status.Char(), path)); err != nil {
			return err
		}
	}
	return nil
}
