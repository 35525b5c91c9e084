// Package store provides the reactive cell that drives template updates.
package store

import (
	"fmt"
	"sync"
)

// Option configures a Cell
type Option[T any] func(*Cell[T])

// WithCopy makes Get return clone(v) instead of v, for value types that share
// memory such as slices and maps.
func WithCopy[T any](clone func(T) T) Option[T] {
	return func(c *Cell[T]) {
		c.clone = clone
	}
}

// Cell holds one value and an ordered list of subscribers. Every Set notifies
// every subscriber registered when the notification round began, in
// registration order, whether or not the value changed.
type Cell[T any] struct {
	mu    sync.Mutex
	value T
	subs  []func()
	clone func(T) T
}

// New creates a cell holding initial with no subscribers.
func New[T any](initial T, options ...Option[T]) *Cell[T] {
	c := &Cell[T]{value: initial}
	for _, option := range options {
		option(c)
	}
	return c
}

// Get returns a snapshot of the current value.
func (c *Cell[T]) Get() T {
	c.mu.Lock()
	v := c.value
	clone := c.clone
	c.mu.Unlock()
	if clone != nil {
		return clone(v)
	}
	return v
}

// Set replaces the value and runs one notification round. The lock is never
// held while a subscriber runs, so subscribers may Get, Set and Subscribe on
// the same cell. A nested Set finishes its own round before this one resumes.
// Subscribers added during the round are first called by a later Set.
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	c.value = v
	n := len(c.subs)
	c.mu.Unlock()

	for i := 0; i < n; i++ {
		c.mu.Lock()
		fn := c.subs[i]
		c.mu.Unlock()
		fn()
	}
}

// Update sets the value to fn(Get()).
func (c *Cell[T]) Update(fn func(T) T) {
	c.Set(fn(c.Get()))
}

// Subscribe appends fn to the subscriber list. There is no unsubscribe.
func (c *Cell[T]) Subscribe(fn func()) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.subs = append(c.subs, fn)
	c.mu.Unlock()
}

// Len returns the number of subscribers.
func (c *Cell[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

func (c *Cell[T]) String() string {
	return fmt.Sprint(c.Get())
}
