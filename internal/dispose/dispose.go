// Package dispose provides revocable registrations that can be torn down as
// a unit.
package dispose

import "sync"

// Disposable releases a subscription or registration.
// Dispose must be safe to call more than once.
type Disposable interface {
	Dispose()
}

// Func adapts a plain function. The function runs at most once.
func Func(fn func()) Disposable {
	return &funcDisposable{fn: fn}
}

type funcDisposable struct {
	once sync.Once
	fn   func()
}

func (d *funcDisposable) Dispose() {
	d.once.Do(func() {
		if d.fn != nil {
			d.fn()
		}
	})
}

// Nop is a disposable that does nothing.
var Nop Disposable = nopDisposable{}

type nopDisposable struct{}

func (nopDisposable) Dispose() {}

// Composite disposes its members in insertion order.
// Members added after Dispose are disposed immediately.
type Composite struct {
	mu       sync.Mutex
	items    []Disposable
	disposed bool
}

// NewComposite creates a composite holding ds.
func NewComposite(ds ...Disposable) *Composite {
	c := &Composite{}
	c.Add(ds...)
	return c
}

// Add appends disposables to the composite.
func (c *Composite) Add(ds ...Disposable) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		for _, d := range ds {
			if d != nil {
				d.Dispose()
			}
		}
		return
	}
	for _, d := range ds {
		if d != nil {
			c.items = append(c.items, d)
		}
	}
	c.mu.Unlock()
}

// Dispose releases every member. Subsequent calls are no-ops.
func (c *Composite) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	items := c.items
	c.items = nil
	c.mu.Unlock()

	for _, d := range items {
		d.Dispose()
	}
}

// Disposed reports whether Dispose has been called.
func (c *Composite) Disposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}
