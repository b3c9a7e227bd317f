// Package reactive provides observable value cells for transient interaction
// state that must not reach the durable store.
package reactive

import "log/slog"

// Release detaches a subscription. Calling it more than once is safe.
type Release func()

// Listener receives the new and previous value of a cell.
type Listener[T any] func(value, old T)

type listenerEntry[T any] struct {
	id uint64
	fn Listener[T]
}

// Cell holds a single comparable value and notifies listeners synchronously
// from Set whenever the value changes.
type Cell[T comparable] struct {
	name      string
	value     T
	nextID    uint64
	listeners []listenerEntry[T]
	notifying bool
	closed    bool
}

// NewCell creates a cell with an initial value. The name only shows up in
// logs.
func NewCell[T comparable](name string, initial T) *Cell[T] {
	return &Cell[T]{name: name, value: initial}
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	return c.value
}

// Set stores v and notifies listeners if it differs from the current value.
// A Set issued from inside one of this cell's listeners is dropped.
func (c *Cell[T]) Set(v T) {
	if c.closed {
		return
	}
	if c.notifying {
		slog.Warn("reentrant cell set dropped", "cell", c.name)
		return
	}
	if v == c.value {
		return
	}
	old := c.value
	c.value = v

	// Snapshot so listeners may release themselves while being notified.
	snapshot := make([]listenerEntry[T], len(c.listeners))
	copy(snapshot, c.listeners)

	c.notifying = true
	defer func() { c.notifying = false }()
	for _, l := range snapshot {
		l.fn(v, old)
	}
}

// Listen registers fn and returns the handle that removes it.
func (c *Cell[T]) Listen(fn Listener[T]) Release {
	if c.closed {
		return func() {}
	}
	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, listenerEntry[T]{id: id, fn: fn})

	released := false
	return func() {
		if released {
			return
		}
		released = true
		c.remove(id)
	}
}

func (c *Cell[T]) remove(id uint64) {
	for i, l := range c.listeners {
		if l.id == id {
			c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
			return
		}
	}
}

// Listeners reports how many subscriptions are attached.
func (c *Cell[T]) Listeners() int {
	return len(c.listeners)
}

// Close drops every listener and freezes the value.
func (c *Cell[T]) Close() {
	c.listeners = nil
	c.closed = true
}
