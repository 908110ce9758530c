package templater

import (
	"errors"
	"fmt"
)

// Property is a deferred computation of a value from the record being
// rendered. Building a property never evaluates it.
type Property[T any] func() (T, error)

// PropertyError is an evaluation failure of a single value.
type PropertyError struct {
	Message string
	Cause   error
}

func (e *PropertyError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *PropertyError) Unwrap() error { return e.Cause }

// PropertyErrorf returns a *PropertyError with a formatted message.
func PropertyErrorf(format string, args ...any) error {
	return &PropertyError{Message: fmt.Sprintf(format, args...)}
}

// Literal returns a property that always yields v.
func Literal[T any](v T) Property[T] {
	return func() (T, error) { return v, nil }
}

// Map returns a property applying f to the value of p.
func Map[T, U any](p Property[T], f func(T) U) Property[U] {
	return func() (U, error) {
		v, err := p()
		if err != nil {
			var zero U
			return zero, err
		}
		return f(v), nil
	}
}

// AndThen returns a property applying the fallible f to the value of p.
func AndThen[T, U any](p Property[T], f func(T) (U, error)) Property[U] {
	return func() (U, error) {
		v, err := p()
		if err != nil {
			var zero U
			return zero, err
		}
		return f(v)
	}
}

// Pair holds the values of two zipped properties.
type Pair[A, B any] struct {
	First  A
	Second B
}

// Zip combines two properties. The first is evaluated before the second.
func Zip[A, B any](a Property[A], b Property[B]) Property[Pair[A, B]] {
	return func() (Pair[A, B], error) {
		va, err := a()
		if err != nil {
			return Pair[A, B]{}, err
		}
		vb, err := b()
		if err != nil {
			return Pair[A, B]{}, err
		}
		return Pair[A, B]{First: va, Second: vb}, nil
	}
}

// Option is a value that may be absent.
type Option[T any] struct {
	Value T
	Valid bool
}

// Some returns a present option.
func Some[T any](v T) Option[T] { return Option[T]{Value: v, Valid: true} }

// None returns an absent option.
func None[T any]() Option[T] { return Option[T]{} }

// Get returns the value and whether it is present.
func (o Option[T]) Get() (T, bool) { return o.Value, o.Valid }

// Unwrap returns a property failing with "No <typeName> available" when
// the option is absent.
func Unwrap[T any](p Property[Option[T]], typeName string) Property[T] {
	return AndThen(p, func(o Option[T]) (T, error) {
		if !o.Valid {
			var zero T
			return zero, PropertyErrorf("No %s available", typeName)
		}
		return o.Value, nil
	})
}

var errPlaceholderUnset = errors.New("placeholder value is not set")

// Placeholder is a property whose value is supplied at evaluation time. It
// stands for self and lambda parameters while the template is built.
type Placeholder[T any] struct {
	value T
	set   bool
}

// With runs f with the placeholder bound to v, then restores the previous
// binding.
func (p *Placeholder[T]) With(v T, f func() error) error {
	prev, prevSet := p.value, p.set
	p.value, p.set = v, true
	defer func() { p.value, p.set = prev, prevSet }()
	return f()
}

// Property returns a property reading the current binding.
func (p *Placeholder[T]) Property() Property[T] {
	return func() (T, error) {
		if !p.set {
			var zero T
			return zero, errPlaceholderUnset
		}
		return p.value, nil
	}
}
