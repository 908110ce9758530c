package templater

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/odvcencio/verso/pkg/object"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Casers carry state between calls, so each conversion gets a fresh one.
func upperCase(s string) string { return cases.Upper(language.Und).String(s) }
func lowerCase(s string) string { return cases.Lower(language.Und).String(s) }

// CoreTable returns the functions and methods available in every
// language.
func CoreTable() *Table {
	t := NewTable()
	t.Functions = coreFunctions()
	t.Methods[StringKind.Name] = stringMethods()
	t.Methods[SignatureKind.Name] = signatureMethods()
	t.Methods[TimestampKind.Name] = timestampMethods()
	t.Methods[SizeHintKind.Name] = sizeHintMethods()
	return t
}

func noArgs[T, U any](k *Kind[T], out *Kind[U], f func(T) U) MethodBuilder {
	return Method(k, func(_ *Builder, _ *BuildContext, self Property[T], call *FunctionCall) (Value, error) {
		if err := call.ExpectNoArguments(); err != nil {
			return nil, err
		}
		return out.Wrap(Map(self, f)), nil
	})
}

func stringPredicate(f func(s, arg string) bool) MethodBuilder {
	return Method(StringKind, func(b *Builder, ctx *BuildContext, self Property[string], call *FunctionCall) (Value, error) {
		args, err := call.ExpectExactArguments(1)
		if err != nil {
			return nil, err
		}
		arg, err := b.ExpectPlainText(ctx, args[0])
		if err != nil {
			return nil, err
		}
		return BooleanKind.Wrap(Map(Zip(self, arg), func(p Pair[string, string]) bool {
			return f(p.First, p.Second)
		})), nil
	})
}

func stringTransform(f func(s, arg string) string) MethodBuilder {
	return Method(StringKind, func(b *Builder, ctx *BuildContext, self Property[string], call *FunctionCall) (Value, error) {
		args, err := call.ExpectExactArguments(1)
		if err != nil {
			return nil, err
		}
		arg, err := b.ExpectPlainText(ctx, args[0])
		if err != nil {
			return nil, err
		}
		return StringKind.Wrap(Map(Zip(self, arg), func(p Pair[string, string]) string {
			return f(p.First, p.Second)
		})), nil
	})
}

func stringMethods() MethodTable {
	return MethodTable{
		"len":           noArgs(StringKind, IntegerKind, func(s string) int64 { return int64(len(s)) }),
		"contains":      stringPredicate(strings.Contains),
		"starts_with":   stringPredicate(strings.HasPrefix),
		"ends_with":     stringPredicate(strings.HasSuffix),
		"remove_prefix": stringTransform(strings.TrimPrefix),
		"remove_suffix": stringTransform(strings.TrimSuffix),
		"trim":          noArgs(StringKind, StringKind, strings.TrimSpace),
		"trim_start":    noArgs(StringKind, StringKind, func(s string) string { return strings.TrimLeft(s, " \t\r\n") }),
		"trim_end":      noArgs(StringKind, StringKind, func(s string) string { return strings.TrimRight(s, " \t\r\n") }),
		"first_line":    noArgs(StringKind, StringKind, firstLine),
		"lines":         noArgs(StringKind, StringListKind, splitLines),
		"upper":         noArgs(StringKind, StringKind, upperCase),
		"lower":         noArgs(StringKind, StringKind, lowerCase),
		"substr": Method(StringKind, func(b *Builder, ctx *BuildContext, self Property[string], call *FunctionCall) (Value, error) {
			args, err := call.ExpectExactArguments(2)
			if err != nil {
				return nil, err
			}
			start, err := b.ExpectInteger(ctx, args[0])
			if err != nil {
				return nil, err
			}
			end, err := b.ExpectInteger(ctx, args[1])
			if err != nil {
				return nil, err
			}
			return StringKind.Wrap(func() (string, error) {
				s, err := self()
				if err != nil {
					return "", err
				}
				from, err := start()
				if err != nil {
					return "", err
				}
				to, err := end()
				if err != nil {
					return "", err
				}
				return substr(s, from, to), nil
			}), nil
		}),
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func splitLines(s string) []string {
	var out []string
	for line := range strings.Lines(s) {
		out = append(out, strings.TrimSuffix(line, "\n"))
	}
	return out
}

// substr slices s by byte offsets. Negative offsets count from the end.
// The start is rounded down and the end up to character boundaries.
func substr(s string, start, end int64) string {
	clamp := func(i int64) int {
		n := int64(len(s))
		if i < 0 {
			i += n
		}
		return int(min(max(i, 0), n))
	}
	from, to := clamp(start), clamp(end)
	if from >= to {
		return ""
	}
	for from > 0 && !utf8.RuneStart(s[from]) {
		from--
	}
	for to < len(s) && !utf8.RuneStart(s[to]) {
		to++
	}
	return s[from:to]
}

func signatureMethods() MethodTable {
	return MethodTable{
		"name":      noArgs(SignatureKind, StringKind, func(s object.Signature) string { return s.Name }),
		"email":     noArgs(SignatureKind, StringKind, func(s object.Signature) string { return s.Email }),
		"username":  noArgs(SignatureKind, StringKind, object.Signature.Username),
		"timestamp": noArgs(SignatureKind, TimestampKind, func(s object.Signature) time.Time { return s.When }),
	}
}

func timestampMethods() MethodTable {
	return MethodTable{
		"ago":   noArgs(TimestampKind, StringKind, FormatAgo),
		"utc":   noArgs(TimestampKind, TimestampKind, time.Time.UTC),
		"local": noArgs(TimestampKind, TimestampKind, time.Time.Local),
		"format": Method(TimestampKind, func(_ *Builder, _ *BuildContext, self Property[time.Time], call *FunctionCall) (Value, error) {
			args, err := call.ExpectExactArguments(1)
			if err != nil {
				return nil, err
			}
			pattern, err := ExpectStringLiteral(args[0])
			if err != nil {
				return nil, err
			}
			format, err := ParseTimestampFormat(pattern)
			if err != nil {
				return nil, ExpressionError(args[0].NodeSpan(), err, "Invalid time format")
			}
			return StringKind.Wrap(Map(self, format.Format)), nil
		}),
		"after":  timestampBound(func(t, bound time.Time) bool { return !t.Before(bound) }),
		"before": timestampBound(func(t, bound time.Time) bool { return t.Before(bound) }),
	}
}

func timestampBound(f func(t, bound time.Time) bool) MethodBuilder {
	return Method(TimestampKind, func(_ *Builder, _ *BuildContext, self Property[time.Time], call *FunctionCall) (Value, error) {
		args, err := call.ExpectExactArguments(1)
		if err != nil {
			return nil, err
		}
		pattern, err := ExpectStringLiteral(args[0])
		if err != nil {
			return nil, err
		}
		bound, err := ParseDatePattern(pattern, time.Local)
		if err != nil {
			return nil, ExpressionError(args[0].NodeSpan(), err, "Invalid date pattern")
		}
		return BooleanKind.Wrap(Map(self, func(t time.Time) bool { return f(t, bound) })), nil
	})
}

func sizeHintMethods() MethodTable {
	return MethodTable{
		"lower": noArgs(SizeHintKind, IntegerKind, func(h SizeHint) int64 { return h.Lower }),
		"upper": noArgs(SizeHintKind, OptionalIntegerKind, func(h SizeHint) Option[int64] { return h.Upper }),
		"exact": noArgs(SizeHintKind, OptionalIntegerKind, SizeHint.Exact),
		"zero": noArgs(SizeHintKind, BooleanKind, func(h SizeHint) bool {
			return h.Lower == 0 && h.Upper.Valid && h.Upper.Value == 0
		}),
	}
}
