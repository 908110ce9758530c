package templater

import (
	"bytes"
	"io"
)

// Renderer is a template bound to records of type T. A Renderer is not
// safe for concurrent use.
type Renderer[T any] struct {
	self *Placeholder[T]
	tmpl Template
}

// BuildRenderer binds node with keywords resolved as methods of kind.
func BuildRenderer[T any](b *Builder, kind *Kind[T], node ExpressionNode) (*Renderer[T], error) {
	self := &Placeholder[T]{}
	ctx := NewBuildContext(kind.Wrap(self.Property()))
	t, err := b.ExpectTemplate(ctx, node)
	if err != nil {
		return nil, err
	}
	return &Renderer[T]{self: self, tmpl: t}, nil
}

// Format renders v into f. Property errors are rendered inline.
func (r *Renderer[T]) Format(f Formatter, v T) error {
	tf := NewTemplateFormatter(f)
	return r.self.With(v, func() error { return r.tmpl.Format(tf) })
}

// FormatStrict renders v into f, failing on the first property error.
func (r *Renderer[T]) FormatStrict(f Formatter, v T) error {
	tf := newPropagatingFormatter(f)
	return r.self.With(v, func() error { return r.tmpl.Format(tf) })
}

// RenderTo renders v as plain text into w.
func (r *Renderer[T]) RenderTo(w io.Writer, v T) error {
	return r.Format(NewPlainFormatter(w), v)
}

// RenderString renders v as plain text.
func (r *Renderer[T]) RenderString(v T) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderTo(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}
