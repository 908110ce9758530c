package diff

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/odvcencio/verso/pkg/diff3"
	"github.com/odvcencio/verso/pkg/repo"
)

// RenderColorWords writes each changed file with line numbers on both
// sides, highlighting changed words inline where the change is small.
func RenderColorWords(f Formatter, d *TreeDiff, conv repo.PathConverter, opts Options) error {
	f.PushLabel("diff")
	defer f.PopLabel()
	for e, err := range d.Entries() {
		if err != nil {
			return err
		}
		if err := writeColorWordsEntry(f, d.repo, conv, e, opts); err != nil {
			return err
		}
	}
	return nil
}

func colorWordsHeader(conv repo.PathConverter, e Entry) string {
	beforeType, afterType := FileType(e.Before), FileType(e.After)
	switch e.Status() {
	case StatusRenamed, StatusCopied:
		verb := "Renamed"
		if e.Op == Copied {
			verb = "Copied"
		}
		return fmt.Sprintf("%s %s %s:", verb, afterType, conv.FormatCopiedPath(e.Source, e.Target))
	case StatusAdded:
		return fmt.Sprintf("Added %s %s:", afterType, conv.FormatFilePath(e.Target))
	case StatusRemoved:
		return fmt.Sprintf("Removed %s %s:", beforeType, conv.FormatFilePath(e.Target))
	}
	if beforeType != afterType {
		return fmt.Sprintf("%s became %s %s:", capitalize(beforeType), afterType, conv.FormatFilePath(e.Target))
	}
	return fmt.Sprintf("Modified %s %s:", afterType, conv.FormatFilePath(e.Target))
}

func capitalize(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[n:]
}

func writeColorWordsEntry(f Formatter, r *repo.Repo, conv repo.PathConverter, e Entry, opts Options) error {
	if err := writeLabeled(f, "header", colorWordsHeader(conv, e)+"\n"); err != nil {
		return err
	}
	before, err := Content(r, e.Before, opts.ConflictStyle)
	if err != nil {
		return err
	}
	after, err := Content(r, e.After, opts.ConflictStyle)
	if err != nil {
		return err
	}
	switch {
	case IsBinary(before) || IsBinary(after):
		_, err := fmt.Fprintln(f, "    (binary)")
		return err
	case len(before) == 0 && len(after) == 0 && (e.Before.IsAbsent() || e.After.IsAbsent()):
		_, err := fmt.Fprintln(f, "    (empty)")
		return err
	}
	for i, h := range groupHunks(lineOps(before, after), opts.ColorWords.Context) {
		if i > 0 {
			if _, err := fmt.Fprintln(f, "    ..."); err != nil {
				return err
			}
		}
		if err := writeColorWordsHunk(f, h, opts.ColorWords); err != nil {
			return err
		}
	}
	return nil
}

func writeColorWordsHunk(f Formatter, h lineHunk, opts ColorWordsOptions) error {
	ops := h.ops
	for i := 0; i < len(ops); {
		if ops[i].typ == diff3.Equal {
			op := ops[i]
			if err := writeLineNumbers(f, op.aPos+1, op.bPos+1); err != nil {
				return err
			}
			if _, err := fmt.Fprint(f, lineBody(op.line)); err != nil {
				return err
			}
			i++
			continue
		}
		var removed, added []lineOp
		for i < len(ops) && ops[i].typ != diff3.Equal {
			if ops[i].typ == diff3.Delete {
				removed = append(removed, ops[i])
			} else {
				added = append(added, ops[i])
			}
			i++
		}
		if err := writeChangedLines(f, removed, added, opts); err != nil {
			return err
		}
	}
	return nil
}

func writeChangedLines(f Formatter, removed, added []lineOp, opts ColorWordsOptions) error {
	if pairs, ok := inlinePairs(removed, added, opts.MaxInlineAlternation); ok {
		for i, tokens := range pairs {
			if err := writeLineNumbers(f, removed[i].aPos+1, added[i].bPos+1); err != nil {
				return err
			}
			for _, tok := range tokens {
				if err := writeToken(f, tok); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintln(f); err != nil {
				return err
			}
		}
		return nil
	}
	for _, op := range removed {
		if err := writeLineNumbers(f, op.aPos+1, 0); err != nil {
			return err
		}
		if err := writeLabeled(f, "removed", lineBody(op.line)); err != nil {
			return err
		}
	}
	for _, op := range added {
		if err := writeLineNumbers(f, 0, op.bPos+1); err != nil {
			return err
		}
		if err := writeLabeled(f, "added", lineBody(op.line)); err != nil {
			return err
		}
	}
	return nil
}

// lineBody returns the line with exactly one trailing newline.
func lineBody(line string) string {
	if strings.HasSuffix(line, "\n") {
		return line
	}
	return line + "\n"
}

func writeLineNumbers(f Formatter, left, right int) error {
	if left > 0 {
		if err := printfLabeled(f, "removed", "%4d", left); err != nil {
			return err
		}
	} else if _, err := fmt.Fprint(f, "    "); err != nil {
		return err
	}
	if _, err := fmt.Fprint(f, " "); err != nil {
		return err
	}
	if right > 0 {
		if err := printfLabeled(f, "added", "%4d", right); err != nil {
			return err
		}
	} else if _, err := fmt.Fprint(f, "    "); err != nil {
		return err
	}
	_, err := fmt.Fprint(f, ": ")
	return err
}

func writeToken(f Formatter, op diff3.DiffOp) error {
	switch op.Type {
	case diff3.Delete:
		return labeledToken(f, "removed", op.Line)
	case diff3.Insert:
		return labeledToken(f, "added", op.Line)
	}
	_, err := fmt.Fprint(f, op.Line)
	return err
}

func labeledToken(f Formatter, side, text string) error {
	f.PushLabel(side)
	defer f.PopLabel()
	return writeLabeled(f, "token", text)
}

// inlinePairs word-diffs removed and added lines pairwise. It fails when
// the line counts differ or a pair alternates between changes and common
// text too often.
func inlinePairs(removed, added []lineOp, maxAlternation int) ([][]diff3.DiffOp, bool) {
	if maxAlternation == 0 || len(removed) != len(added) {
		return nil, false
	}
	pairs := make([][]diff3.DiffOp, len(removed))
	for i := range removed {
		ops := diff3.MyersDiff(tokenize(strings.TrimSuffix(removed[i].line, "\n")), tokenize(strings.TrimSuffix(added[i].line, "\n")))
		if maxAlternation > 0 && changeRuns(ops) > maxAlternation {
			return nil, false
		}
		pairs[i] = ops
	}
	return pairs, true
}

// changeRuns counts maximal runs of non-equal tokens.
func changeRuns(ops []diff3.DiffOp) int {
	runs := 0
	inRun := false
	for _, op := range ops {
		changed := op.Type != diff3.Equal
		if changed && !inRun {
			runs++
		}
		inRun = changed
	}
	return runs
}

// tokenize splits a line into words, whitespace runs and single
// punctuation characters.
func tokenize(s string) []string {
	var out []string
	class := func(r rune) int {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			return 1
		case unicode.IsSpace(r):
			return 2
		}
		return 0
	}
	start := 0
	for start < len(s) {
		r, n := utf8.DecodeRuneInString(s[start:])
		c := class(r)
		end := start + n
		if c != 0 {
			for end < len(s) {
				r2, n2 := utf8.DecodeRuneInString(s[end:])
				if class(r2) != c {
					break
				}
				end += n2
			}
		}
		out = append(out, s[start:end])
		start = end
	}
	return out
}
