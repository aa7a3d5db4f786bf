// Package command maps named triggers to handlers.
//
// The navigator only sees the Registrar capability; the host decides how a
// name is reached (a key press in the panel, a line on stdin).
package command

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"diagnav/internal/dispose"
)

// ErrUnknownCommand is returned by Dispatch for names nobody registered.
var ErrUnknownCommand = errors.New("unknown command")

// Handler is a zero-argument trigger.
type Handler func()

// Registrar is the capability handed to components that expose commands.
type Registrar interface {
	Register(name string, h Handler) dispose.Disposable
}

type slot struct {
	h   Handler
	gen uint64
}

// Registry is the default Registrar. It is safe for concurrent use, but
// handlers run on the caller's goroutine.
type Registry struct {
	mu    sync.Mutex
	slots map[string]slot
	gen   uint64
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{slots: make(map[string]slot)}
}

// Register binds h to name, replacing any previous handler. The returned
// disposable removes the binding only while it is still the current one.
func (r *Registry) Register(name string, h Handler) dispose.Disposable {
	if h == nil {
		return dispose.Nop
	}
	r.mu.Lock()
	r.gen++
	gen := r.gen
	r.slots[name] = slot{h: h, gen: gen}
	r.mu.Unlock()

	return dispose.Func(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if cur, ok := r.slots[name]; ok && cur.gen == gen {
			delete(r.slots, name)
		}
	})
}

// Dispatch runs the handler registered under name.
func (r *Registry) Dispatch(name string) error {
	r.mu.Lock()
	s, ok := r.slots[name]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	s.h()
	return nil
}

// Has reports whether name is currently registered.
func (r *Registry) Has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.slots[name]
	return ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	names := make([]string, 0, len(r.slots))
	for name := range r.slots {
		names = append(names, name)
	}
	r.mu.Unlock()
	sort.Strings(names)
	return names
}
