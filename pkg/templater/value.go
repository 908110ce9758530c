package templater

import (
	"bytes"
	"io"
	"unicode/utf8"
)

// Template renders into a TemplateFormatter. Property errors met while
// rendering go through TemplateFormatter.HandleError.
type Template interface {
	Format(tf *TemplateFormatter) error
}

// TemplateFunc adapts a function to Template.
type TemplateFunc func(tf *TemplateFormatter) error

func (f TemplateFunc) Format(tf *TemplateFormatter) error { return f(tf) }

// Text returns a template writing s.
func Text(s string) Template {
	return TemplateFunc(func(tf *TemplateFormatter) error {
		_, err := io.WriteString(tf, s)
		return err
	})
}

// ConcatTemplates renders each template in turn.
func ConcatTemplates(ts ...Template) Template {
	return TemplateFunc(func(tf *TemplateFormatter) error {
		for _, t := range ts {
			if err := t.Format(tf); err != nil {
				return err
			}
		}
		return nil
	})
}

// Value is a bound expression of a kind fixed at build time. The Try
// methods report false when the kind has no such coercion.
type Value interface {
	TypeName() string
	TryIntoBoolean() (Property[bool], bool)
	TryIntoInteger() (Property[int64], bool)
	TryIntoPlainText() (Property[string], bool)
	TryIntoTemplate() (Template, bool)
	TryIntoEq(other Value) (Property[bool], bool)
	TryIntoCmp(other Value) (Property[int], bool)

	methods() MethodTable
	unwrapOption() (Value, bool)
}

// Kind describes a value type. Nil capabilities are unsupported.
type Kind[T any] struct {
	Name   string
	Bool   func(T) bool
	Int    func(T) (int64, error)
	Text   func(T) string
	Render func(tf *TemplateFormatter, v T) error
	Eq     func(a, b T) bool
	Cmp    func(a, b T) int

	builtin MethodTable
	unwrap  func(Property[T]) Value
}

// Wrap binds p to the kind.
func (k *Kind[T]) Wrap(p Property[T]) Value {
	return &typedValue[T]{kind: k, prop: p}
}

// Template returns a template rendering the value of p. The kind must be
// renderable.
func (k *Kind[T]) Template(p Property[T]) Template {
	return TemplateFunc(func(tf *TemplateFormatter) error {
		v, err := p()
		if err != nil {
			return tf.HandleError(err)
		}
		return k.Render(tf, v)
	})
}

// PropertyOf returns the property of v if v has kind k.
func PropertyOf[T any](k *Kind[T], v Value) (Property[T], bool) {
	tv, ok := v.(*typedValue[T])
	if !ok || tv.kind != k {
		return nil, false
	}
	return tv.prop, true
}

type typedValue[T any] struct {
	kind *Kind[T]
	prop Property[T]
}

func (v *typedValue[T]) TypeName() string { return v.kind.Name }

func (v *typedValue[T]) TryIntoBoolean() (Property[bool], bool) {
	if v.kind.Bool == nil {
		return nil, false
	}
	return Map(v.prop, v.kind.Bool), true
}

func (v *typedValue[T]) TryIntoInteger() (Property[int64], bool) {
	if v.kind.Int == nil {
		return nil, false
	}
	return AndThen(v.prop, v.kind.Int), true
}

func (v *typedValue[T]) TryIntoPlainText() (Property[string], bool) {
	if v.kind.Text != nil {
		return Map(v.prop, v.kind.Text), true
	}
	t, ok := v.TryIntoTemplate()
	if !ok {
		return nil, false
	}
	return PlainText(t), true
}

func (v *typedValue[T]) TryIntoTemplate() (Template, bool) {
	if v.kind.Render == nil {
		return nil, false
	}
	return v.kind.Template(v.prop), true
}

func (v *typedValue[T]) TryIntoEq(other Value) (Property[bool], bool) {
	o, ok := other.(*typedValue[T])
	if !ok || o.kind != v.kind || v.kind.Eq == nil {
		return nil, false
	}
	eq := v.kind.Eq
	return Map(Zip(v.prop, o.prop), func(p Pair[T, T]) bool { return eq(p.First, p.Second) }), true
}

func (v *typedValue[T]) TryIntoCmp(other Value) (Property[int], bool) {
	o, ok := other.(*typedValue[T])
	if !ok || o.kind != v.kind || v.kind.Cmp == nil {
		return nil, false
	}
	cmp := v.kind.Cmp
	return Map(Zip(v.prop, o.prop), func(p Pair[T, T]) int { return cmp(p.First, p.Second) }), true
}

func (v *typedValue[T]) methods() MethodTable { return v.kind.builtin }

func (v *typedValue[T]) unwrapOption() (Value, bool) {
	if v.kind.unwrap == nil {
		return nil, false
	}
	return v.kind.unwrap(v.prop), true
}

// PlainText returns a property rendering t without labels. Property errors
// fail the property instead of rendering inline.
func PlainText(t Template) Property[string] {
	return func() (string, error) {
		var buf bytes.Buffer
		if err := t.Format(newPropagatingFormatter(NewPlainFormatter(&buf))); err != nil {
			return "", err
		}
		if !utf8.Valid(buf.Bytes()) {
			return "", PropertyErrorf("Rendered text is not valid UTF-8")
		}
		return buf.String(), nil
	}
}

// TemplateValue wraps a template as a value of type Template.
func TemplateValue(t Template) Value { return templateValue{t: t} }

type templateValue struct{ t Template }

func (templateValue) TypeName() string                            { return "Template" }
func (templateValue) TryIntoBoolean() (Property[bool], bool)      { return nil, false }
func (templateValue) TryIntoInteger() (Property[int64], bool)     { return nil, false }
func (v templateValue) TryIntoPlainText() (Property[string], bool) { return PlainText(v.t), true }
func (v templateValue) TryIntoTemplate() (Template, bool)          { return v.t, true }
func (templateValue) TryIntoEq(Value) (Property[bool], bool)      { return nil, false }
func (templateValue) TryIntoCmp(Value) (Property[int], bool)      { return nil, false }
func (templateValue) methods() MethodTable                        { return nil }
func (templateValue) unwrapOption() (Value, bool)                 { return nil, false }

// ListTemplate is a list of rendered items with a separator.
type ListTemplate interface {
	Template
	Join(sep Template) ListTemplate
}

// ListTemplateValue wraps a list template as a value of type ListTemplate.
func ListTemplateValue(t ListTemplate) Value { return listTemplateValue{t: t} }

type listTemplateValue struct{ t ListTemplate }

func (listTemplateValue) TypeName() string                            { return "ListTemplate" }
func (listTemplateValue) TryIntoBoolean() (Property[bool], bool)      { return nil, false }
func (listTemplateValue) TryIntoInteger() (Property[int64], bool)     { return nil, false }
func (v listTemplateValue) TryIntoPlainText() (Property[string], bool) { return PlainText(v.t), true }
func (v listTemplateValue) TryIntoTemplate() (Template, bool)          { return v.t, true }
func (listTemplateValue) TryIntoEq(Value) (Property[bool], bool)      { return nil, false }
func (listTemplateValue) TryIntoCmp(Value) (Property[int], bool)      { return nil, false }
func (listTemplateValue) unwrapOption() (Value, bool)                 { return nil, false }

func (listTemplateValue) methods() MethodTable {
	return MethodTable{
		"join": func(b *Builder, ctx *BuildContext, self Value, call *FunctionCall) (Value, error) {
			args, err := call.ExpectExactArguments(1)
			if err != nil {
				return nil, err
			}
			sep, err := b.ExpectTemplate(ctx, args[0])
			if err != nil {
				return nil, err
			}
			return ListTemplateValue(self.(listTemplateValue).t.Join(sep)), nil
		},
	}
}
