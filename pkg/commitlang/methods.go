package commitlang

import (
	"github.com/odvcencio/verso/pkg/templater"
)

// builtinTable returns the methods of every commit language type.
func (l *Language) builtinTable() *templater.Table {
	t := templater.NewTable()
	t.Methods[CommitKind.Name] = l.commitMethods()
	t.Methods[CommitRefKind.Name] = l.commitRefMethods()
	t.Methods[RepoPathKind.Name] = l.repoPathMethods()
	t.Methods[CommitOrChangeIDKind.Name] = l.commitOrChangeIDMethods()
	t.Methods[ShortestIDPrefixKind.Name] = shortestIDPrefixMethods()
	t.Methods[TreeDiffKind.Name] = l.treeDiffMethods()
	t.Methods[TreeDiffEntryKind.Name] = treeDiffEntryMethods()
	t.Methods[TreeEntryKind.Name] = treeEntryMethods()
	t.Methods[DiffStatsKind.Name] = diffStatsMethods()
	t.Methods[CryptographicSignatureKind.Name] = cryptographicSignatureMethods()
	t.Methods[AnnotationLineKind.Name] = annotationLineMethods()
	t.Methods[TrailerKind.Name] = trailerMethods()
	return t
}

// keyword builds a method taking no arguments.
func keyword[T, U any](k *templater.Kind[T], out *templater.Kind[U], f func(T) U) templater.MethodBuilder {
	return templater.Method(k, func(_ *templater.Builder, _ *templater.BuildContext, self templater.Property[T], call *templater.FunctionCall) (templater.Value, error) {
		if err := call.ExpectNoArguments(); err != nil {
			return nil, err
		}
		return out.Wrap(templater.Map(self, f)), nil
	})
}

// tryKeyword is keyword for evaluations that can fail.
func tryKeyword[T, U any](k *templater.Kind[T], out *templater.Kind[U], f func(T) (U, error)) templater.MethodBuilder {
	return templater.Method(k, func(_ *templater.Builder, _ *templater.BuildContext, self templater.Property[T], call *templater.FunctionCall) (templater.Value, error) {
		if err := call.ExpectNoArguments(); err != nil {
			return nil, err
		}
		return out.Wrap(templater.AndThen(self, f)), nil
	})
}

// optionalUsize binds an optional non-negative integer argument.
func optionalUsize(b *templater.Builder, ctx *templater.BuildContext, node templater.ExpressionNode, def int) (templater.Property[int], error) {
	if node == nil {
		return templater.Literal(def), nil
	}
	return b.ExpectUsize(ctx, node)
}

func option[T any](v T, ok bool) templater.Option[T] {
	if !ok {
		return templater.None[T]()
	}
	return templater.Some(v)
}
