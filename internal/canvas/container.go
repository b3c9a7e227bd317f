package canvas

import "github.com/inamate/inamate/canvas-go/internal/reactive"

// container is the host element size, pushed in by ResizeContainer.
type container struct {
	width, height float64
	listeners     []containerListener
	nextID        uint64
}

type containerListener struct {
	id uint64
	fn func()
}

func newContainer(width, height float64) *container {
	return &container{width: width, height: height}
}

func (c *container) Size() (float64, float64) {
	return c.width, c.height
}

func (c *container) OnResize(fn func()) reactive.Release {
	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, containerListener{id: id, fn: fn})
	return func() {
		for i, l := range c.listeners {
			if l.id == id {
				c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

func (c *container) resize(width, height float64) {
	if width == c.width && height == c.height {
		return
	}
	c.width, c.height = width, height
	for _, l := range append([]containerListener(nil), c.listeners...) {
		l.fn()
	}
}
