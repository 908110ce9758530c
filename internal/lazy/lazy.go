// Package lazy provides a cell whose value is computed on first use and
// then kept.
package lazy

import "sync"

// Cell holds a value initialized at most once. The zero Cell is empty and
// ready to use. A failed initialization leaves the cell empty.
type Cell[T any] struct {
	mu   sync.Mutex
	done bool
	val  T
}

// Filled returns a cell that already holds v.
func Filled[T any](v T) *Cell[T] {
	return &Cell[T]{done: true, val: v}
}

// Get returns the value if the cell has been initialized.
func (c *Cell[T]) Get() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.val, c.done
}

// GetOrInit returns the value, computing it with f if the cell is empty.
func (c *Cell[T]) GetOrInit(f func() T) T {
	v, _ := c.GetOrTryInit(func() (T, error) { return f(), nil })
	return v
}

// GetOrTryInit returns the value, computing it with f if the cell is
// empty. An error from f is returned and nothing is stored.
func (c *Cell[T]) GetOrTryInit(f func() (T, error)) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return c.val, nil
	}
	v, err := f()
	if err != nil {
		var zero T
		return zero, err
	}
	c.val, c.done = v, true
	return v, nil
}
