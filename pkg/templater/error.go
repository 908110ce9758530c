package templater

import (
	"errors"
	"fmt"
)

// ErrConflictingDefinition is returned when two tables define the same
// function or method.
var ErrConflictingDefinition = errors.New("conflicting template definition")

// ErrorKind classifies build errors.
type ErrorKind int

const (
	ErrorKeywordNotFound ErrorKind = iota + 1
	ErrorFunctionNotFound
	ErrorMethodNotFound
	ErrorInvalidArguments
	ErrorExpression
)

// TemplateParseError is a failure to bind a template node. It always
// carries the span of the offending node.
type TemplateParseError struct {
	Kind    ErrorKind
	Message string
	Span    Span
	Cause   error
}

func (e *TemplateParseError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *TemplateParseError) Unwrap() error { return e.Cause }

// ExpressionError returns an ErrorExpression build error.
func ExpressionError(span Span, cause error, format string, args ...any) *TemplateParseError {
	return &TemplateParseError{Kind: ErrorExpression, Message: fmt.Sprintf(format, args...), Span: span, Cause: cause}
}

func expectedType(expected, actual string, span Span) error {
	return ExpressionError(span, nil, "Expected expression of type %q, but actual type is %q", expected, actual)
}

// Diagnostics collects build warnings.
type Diagnostics struct {
	warnings []*TemplateParseError
}

// AddWarning records a warning.
func (d *Diagnostics) AddWarning(w *TemplateParseError) {
	d.warnings = append(d.warnings, w)
}

// Warnings returns the recorded warnings in order.
func (d *Diagnostics) Warnings() []*TemplateParseError { return d.warnings }
