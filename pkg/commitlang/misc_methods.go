package commitlang

import (
	"io"

	"github.com/odvcencio/verso/pkg/diff"
	"github.com/odvcencio/verso/pkg/repo"
	"github.com/odvcencio/verso/pkg/templater"
	"github.com/odvcencio/verso/pkg/trailer"
)

const (
	defaultShortIDLen = 12
	defaultStatWidth  = 80
)

func (l *Language) repoPathMethods() templater.MethodTable {
	return templater.MethodTable{
		"display": keyword(RepoPathKind, templater.StringKind, l.paths.FormatFilePath),
		"parent": keyword(RepoPathKind, OptionalRepoPathKind, func(p repo.RepoPath) templater.Option[repo.RepoPath] {
			return option(p.Parent())
		}),
	}
}

func (l *Language) commitOrChangeIDMethods() templater.MethodTable {
	return templater.MethodTable{
		"normal_hex": keyword(CommitOrChangeIDKind, templater.StringKind, CommitOrChangeID.NormalHex),
		"short": templater.Method(CommitOrChangeIDKind, func(b *templater.Builder, ctx *templater.BuildContext, self templater.Property[CommitOrChangeID], call *templater.FunctionCall) (templater.Value, error) {
			_, opt, err := call.ExpectArguments(0, 1)
			if err != nil {
				return nil, err
			}
			n, err := optionalUsize(b, ctx, opt[0], defaultShortIDLen)
			if err != nil {
				return nil, err
			}
			return templater.StringKind.Wrap(templater.Map(templater.Zip(self, n), func(p templater.Pair[CommitOrChangeID, int]) string {
				return p.First.Short(p.Second)
			})), nil
		}),
		"shortest": templater.Method(CommitOrChangeIDKind, func(b *templater.Builder, ctx *templater.BuildContext, self templater.Property[CommitOrChangeID], call *templater.FunctionCall) (templater.Value, error) {
			_, opt, err := call.ExpectArguments(0, 1)
			if err != nil {
				return nil, err
			}
			minLen, err := optionalUsize(b, ctx, opt[0], 0)
			if err != nil {
				return nil, err
			}
			idx, err := l.IDPrefixIndex()
			if err != nil {
				b.Diagnostics().AddWarning(templater.ExpressionError(call.NameSpan, err, "Failed to load short-prefixes index"))
			}
			return ShortestIDPrefixKind.Wrap(templater.AndThen(templater.Zip(self, minLen), func(p templater.Pair[CommitOrChangeID, int]) (ShortestIDPrefix, error) {
				return p.First.Shortest(idx, p.Second)
			})), nil
		}),
	}
}

func shortestIDPrefixMethods() templater.MethodTable {
	return templater.MethodTable{
		"prefix": keyword(ShortestIDPrefixKind, templater.StringKind, func(p ShortestIDPrefix) string { return p.Prefix }),
		"rest":   keyword(ShortestIDPrefixKind, templater.StringKind, func(p ShortestIDPrefix) string { return p.Rest }),
		"upper":  keyword(ShortestIDPrefixKind, ShortestIDPrefixKind, ShortestIDPrefix.Upper),
		"lower":  keyword(ShortestIDPrefixKind, ShortestIDPrefixKind, ShortestIDPrefix.Lower),
	}
}

func (l *Language) treeDiffMethods() templater.MethodTable {
	return templater.MethodTable{
		"files": tryKeyword(TreeDiffKind, TreeDiffEntryListKind, (*diff.TreeDiff).Collect),
		"color_words": l.diffRenderer(func(o *diff.Options) *int { return &o.ColorWords.Context }, func(f diff.Formatter, d *diff.TreeDiff, opts diff.Options) error {
			return diff.RenderColorWords(f, d, l.paths, opts)
		}),
		"git": l.diffRenderer(func(o *diff.Options) *int { return &o.Git.Context }, diff.RenderGit),
		"stat": templater.Method(TreeDiffKind, func(b *templater.Builder, ctx *templater.BuildContext, self templater.Property[*diff.TreeDiff], call *templater.FunctionCall) (templater.Value, error) {
			_, opt, err := call.ExpectArguments(0, 1)
			if err != nil {
				return nil, err
			}
			width, err := optionalUsize(b, ctx, opt[0], defaultStatWidth)
			if err != nil {
				return nil, err
			}
			return DiffStatsKind.Wrap(templater.AndThen(templater.Zip(self, width), func(p templater.Pair[*diff.TreeDiff, int]) (DiffStats, error) {
				stats, err := diff.ComputeStats(p.First, l.paths, l.conflictStyle)
				if err != nil {
					return DiffStats{}, err
				}
				return DiffStats{Stats: stats, Width: p.Second}, nil
			})), nil
		}),
		"summary": templater.Method(TreeDiffKind, func(_ *templater.Builder, _ *templater.BuildContext, self templater.Property[*diff.TreeDiff], call *templater.FunctionCall) (templater.Value, error) {
			if err := call.ExpectNoArguments(); err != nil {
				return nil, err
			}
			return templater.TemplateValue(diffTemplate(self, func(tf *templater.TemplateFormatter, d *diff.TreeDiff) error {
				return diff.RenderSummary(tf, d, l.paths)
			})), nil
		}),
	}
}

// diffRenderer builds a diff format method taking an optional number of
// context lines. Options are read from settings when the method is bound.
func (l *Language) diffRenderer(context func(*diff.Options) *int, render func(diff.Formatter, *diff.TreeDiff, diff.Options) error) templater.MethodBuilder {
	return templater.Method(TreeDiffKind, func(b *templater.Builder, ctx *templater.BuildContext, self templater.Property[*diff.TreeDiff], call *templater.FunctionCall) (templater.Value, error) {
		_, opt, err := call.ExpectArguments(0, 1)
		if err != nil {
			return nil, err
		}
		opts, err := diff.OptionsFromSettings(l.settings)
		if err != nil {
			return nil, templater.ExpressionError(call.NameSpan, err, "Failed to load diff settings")
		}
		lines, err := optionalUsize(b, ctx, opt[0], *context(&opts))
		if err != nil {
			return nil, err
		}
		return templater.TemplateValue(diffTemplate(self, func(tf *templater.TemplateFormatter, d *diff.TreeDiff) error {
			n, err := lines()
			if err != nil {
				return tf.HandleError(err)
			}
			opts := opts
			*context(&opts) = n
			return render(tf, d, opts)
		})), nil
	})
}

// diffTemplate renders a diff, reporting failures through the formatter's
// error policy.
func diffTemplate(self templater.Property[*diff.TreeDiff], render func(*templater.TemplateFormatter, *diff.TreeDiff) error) templater.Template {
	return templater.TemplateFunc(func(tf *templater.TemplateFormatter) error {
		d, err := self()
		if err != nil {
			return tf.HandleError(err)
		}
		if err := render(tf, d); err != nil {
			return tf.HandleError(err)
		}
		return nil
	})
}

func treeDiffEntryMethods() templater.MethodTable {
	return templater.MethodTable{
		"path":   keyword(TreeDiffEntryKind, RepoPathKind, func(e diff.Entry) repo.RepoPath { return e.Target }),
		"status": keyword(TreeDiffEntryKind, templater.StringKind, func(e diff.Entry) string { return string(e.Status()) }),
		"source": keyword(TreeDiffEntryKind, TreeEntryKind, SourceEntry),
		"target": keyword(TreeDiffEntryKind, TreeEntryKind, TargetEntry),
	}
}

func treeEntryMethods() templater.MethodTable {
	return templater.MethodTable{
		"path":       keyword(TreeEntryKind, RepoPathKind, func(e TreeEntry) repo.RepoPath { return e.Path }),
		"conflict":   keyword(TreeEntryKind, templater.BooleanKind, func(e TreeEntry) bool { return !e.Value.IsResolved() }),
		"file_type":  keyword(TreeEntryKind, templater.StringKind, func(e TreeEntry) string { return describeFileType(e.Value) }),
		"executable": keyword(TreeEntryKind, templater.BooleanKind, TreeEntry.IsExecutable),
	}
}

// describeFileType names the kind of a tree value. Absent paths have no
// type.
func describeFileType(v repo.TreeValue) string {
	f, ok := v.AsResolved()
	switch {
	case !ok:
		return "conflict"
	case f == nil:
		return ""
	case f.Symlink:
		return "symlink"
	}
	return "file"
}

func diffStatsMethods() templater.MethodTable {
	return templater.MethodTable{
		"total_added": keyword(DiffStatsKind, templater.IntegerKind, func(s DiffStats) int64 {
			return int64(s.Stats.TotalAdded())
		}),
		"total_removed": keyword(DiffStatsKind, templater.IntegerKind, func(s DiffStats) int64 {
			return int64(s.Stats.TotalRemoved())
		}),
	}
}

func cryptographicSignatureMethods() templater.MethodTable {
	return templater.MethodTable{
		"status": tryKeyword(CryptographicSignatureKind, templater.StringKind, (*CryptographicSignature).Status),
		"key": tryKeyword(CryptographicSignatureKind, templater.StringKind, func(s *CryptographicSignature) (string, error) {
			res, err := s.Verify()
			return res.Key, err
		}),
		"display": tryKeyword(CryptographicSignatureKind, templater.StringKind, func(s *CryptographicSignature) (string, error) {
			res, err := s.Verify()
			return res.Display, err
		}),
	}
}

func annotationLineMethods() templater.MethodTable {
	return templater.MethodTable{
		"commit": keyword(AnnotationLineKind, CommitKind, func(a AnnotationLine) *repo.Commit { return a.Commit }),
		"content": templater.Method(AnnotationLineKind, func(_ *templater.Builder, _ *templater.BuildContext, self templater.Property[AnnotationLine], call *templater.FunctionCall) (templater.Value, error) {
			if err := call.ExpectNoArguments(); err != nil {
				return nil, err
			}
			return templater.TemplateValue(templater.TemplateFunc(func(tf *templater.TemplateFormatter) error {
				a, err := self()
				if err != nil {
					return tf.HandleError(err)
				}
				_, err = io.WriteString(tf, a.Content)
				return err
			})), nil
		}),
		"line_number": keyword(AnnotationLineKind, templater.IntegerKind, func(a AnnotationLine) int64 {
			return int64(a.LineNumber)
		}),
		"first_line_in_hunk": keyword(AnnotationLineKind, templater.BooleanKind, func(a AnnotationLine) bool {
			return a.FirstLineInHunk
		}),
	}
}

func trailerMethods() templater.MethodTable {
	return templater.MethodTable{
		"key":   keyword(TrailerKind, templater.StringKind, func(t trailer.Trailer) string { return t.Key }),
		"value": keyword(TrailerKind, templater.StringKind, func(t trailer.Trailer) string { return t.Value }),
	}
}
