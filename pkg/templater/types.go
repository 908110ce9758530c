package templater

import (
	"cmp"
	"io"
	"strconv"
	"time"

	"github.com/odvcencio/verso/pkg/object"
)

// SizeHint is a count with a lower bound and an optional upper bound.
type SizeHint struct {
	Lower int64
	Upper Option[int64]
}

// Exact returns the count if both bounds agree.
func (h SizeHint) Exact() Option[int64] {
	if h.Upper.Valid && h.Upper.Value == h.Lower {
		return Some(h.Lower)
	}
	return None[int64]()
}

// Core kinds.
var (
	StringKind = &Kind[string]{
		Name: "String",
		Bool: func(s string) bool { return s != "" },
		Text: func(s string) string { return s },
		Render: func(tf *TemplateFormatter, s string) error {
			_, err := io.WriteString(tf, s)
			return err
		},
		Eq:  func(a, b string) bool { return a == b },
		Cmp: cmp.Compare[string],
	}

	BooleanKind = &Kind[bool]{
		Name: "Boolean",
		Bool: func(v bool) bool { return v },
		Render: func(tf *TemplateFormatter, v bool) error {
			_, err := io.WriteString(tf, strconv.FormatBool(v))
			return err
		},
		Eq: func(a, b bool) bool { return a == b },
	}

	IntegerKind = &Kind[int64]{
		Name: "Integer",
		Int:  func(v int64) (int64, error) { return v, nil },
		Render: func(tf *TemplateFormatter, v int64) error {
			_, err := io.WriteString(tf, strconv.FormatInt(v, 10))
			return err
		},
		Eq:  func(a, b int64) bool { return a == b },
		Cmp: cmp.Compare[int64],
	}

	OptionalIntegerKind = OptionKind(IntegerKind)

	StringListKind = ListKind(StringKind, " ")

	SignatureKind = &Kind[object.Signature]{
		Name: "Signature",
		Render: func(tf *TemplateFormatter, s object.Signature) error {
			return renderSignature(tf, s)
		},
	}

	TimestampKind = &Kind[time.Time]{
		Name: "Timestamp",
		Render: func(tf *TemplateFormatter, t time.Time) error {
			_, err := io.WriteString(tf, defaultTimestampFormat.Format(t))
			return err
		},
		Eq:  func(a, b time.Time) bool { return a.Equal(b) },
		Cmp: func(a, b time.Time) int { return a.Compare(b) },
	}

	SizeHintKind = &Kind[SizeHint]{Name: "SizeHint"}
)

func renderSignature(tf *TemplateFormatter, s object.Signature) error {
	if err := tf.WriteLabeled("name", s.Name); err != nil {
		return err
	}
	if s.Name != "" && s.Email != "" {
		if _, err := io.WriteString(tf, " "); err != nil {
			return err
		}
	}
	if s.Email == "" {
		return nil
	}
	if _, err := io.WriteString(tf, "<"); err != nil {
		return err
	}
	if err := tf.WriteLabeled("email", s.Email); err != nil {
		return err
	}
	_, err := io.WriteString(tf, ">")
	return err
}
