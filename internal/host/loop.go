// Package host runs the navigator's inputs on a single goroutine.
package host

import (
	"context"
	"sync"
	"sync/atomic"

	"diagnav/internal/diag"
	"diagnav/internal/dispose"
	"diagnav/internal/feed"
)

// DefaultQueue is the task buffer used by NewLoop when size <= 0.
const DefaultQueue = 64

// Loop executes posted tasks one at a time, in posting order.
type Loop struct {
	tasks     chan func()
	done      chan struct{}
	closeOnce sync.Once
}

// NewLoop returns a loop with a task buffer of size.
func NewLoop(size int) *Loop {
	if size <= 0 {
		size = DefaultQueue
	}
	return &Loop{tasks: make(chan func(), size), done: make(chan struct{})}
}

// Post enqueues fn. It blocks while the buffer is full and reports false
// once the loop is closed.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Call posts fn and waits for its result. It returns ctx.Err() if ctx ends
// first and ErrClosed if the loop is closed.
func (l *Loop) Call(ctx context.Context, fn func() error) error {
	res := make(chan error, 1)
	if !l.Post(func() { res <- fn() }) {
		return ErrClosed
	}
	select {
	case err := <-res:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrClosed
	}
}

// Run executes tasks until ctx is done or Close is called. Tasks still
// queued at that point are dropped.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.done:
			return nil
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Close stops the loop. Calling it again does nothing.
func (l *Loop) Close() {
	l.closeOnce.Do(func() { close(l.done) })
}

// Done is closed when the loop is closed.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Serialize wraps f so that its subscriber is always called on the loop.
// Snapshots already queued when the subscription is disposed are dropped.
func (l *Loop) Serialize(f feed.Feed) feed.Feed {
	return serialized{loop: l, up: f}
}

type serialized struct {
	loop *Loop
	up   feed.Feed
}

func (s serialized) Subscribe(fn func(diag.Snapshot)) dispose.Disposable {
	var dead atomic.Bool
	upstream := s.up.Subscribe(func(snap diag.Snapshot) {
		if dead.Load() {
			return
		}
		s.loop.Post(func() {
			if !dead.Load() {
				fn(snap)
			}
		})
	})
	return dispose.Func(func() {
		dead.Store(true)
		upstream.Dispose()
	})
}
