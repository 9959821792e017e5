package headless

import (
	"sync"

	"geoscatter/internal/model"
	"geoscatter/internal/viewer"
)

// Container is a fixed-size box whose size can be changed by hand.
// It is its own resize observer.
type Container struct {
	mu   sync.Mutex
	size model.ContainerDimensions
	fn   func()
}

var (
	_ viewer.Container      = (*Container)(nil)
	_ viewer.ResizeObserver = (*Container)(nil)
)

func (c *Container) Size() model.ContainerDimensions {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

func (c *Container) Observe(_ viewer.Container, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fn = fn
}

func (c *Container) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fn = nil
}

// SetSize changes the size and notifies the observer, if any
func (c *Container) SetSize(width, height int) {
	c.mu.Lock()
	c.size = model.ContainerDimensions{Width: width, Height: height}
	fn := c.fn
	c.mu.Unlock()

	if fn != nil {
		fn()
	}
}
