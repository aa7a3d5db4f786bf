// Package feed delivers diagnostic snapshots to a single subscriber.
//
// Every event is the complete current list, never a delta. Sources run on
// their own goroutines; consumers that need a single-threaded view wrap the
// feed (see host.Loop.Serialize).
package feed

import (
	"sync"

	"diagnav/internal/diag"
	"diagnav/internal/dispose"
)

// Feed is a push stream of full diagnostic snapshots.
type Feed interface {
	// Subscribe installs fn as the only receiver. A second call replaces
	// the first subscriber. No callbacks fire after the returned
	// disposable is released.
	Subscribe(fn func(diag.Snapshot)) dispose.Disposable
}

// Relay is a single-subscriber fan point: Publish calls the subscriber
// synchronously on the caller's goroutine. Sources build on it.
type Relay struct {
	mu  sync.Mutex
	fn  func(diag.Snapshot)
	gen uint64
}

// NewRelay returns a relay without subscriber.
func NewRelay() *Relay { return &Relay{} }

// Subscribe implements Feed.
func (r *Relay) Subscribe(fn func(diag.Snapshot)) dispose.Disposable {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	r.fn = fn
	r.mu.Unlock()
	return dispose.Func(func() {
		r.mu.Lock()
		if r.gen == gen {
			r.fn = nil
		}
		r.mu.Unlock()
	})
}

// Publish hands snap to the subscriber, if any. It reports whether
// someone received it.
func (r *Relay) Publish(snap diag.Snapshot) bool {
	r.mu.Lock()
	fn := r.fn
	r.mu.Unlock()
	if fn == nil {
		return false
	}
	fn(snap)
	return true
}

// Subscribed reports whether a subscriber is installed.
func (r *Relay) Subscribed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fn != nil
}

// Static emits one fixed snapshot to each new subscriber.
type Static struct {
	Snapshot diag.Snapshot
}

// Subscribe implements Feed.
func (s Static) Subscribe(fn func(diag.Snapshot)) dispose.Disposable {
	if fn != nil {
		fn(s.Snapshot)
	}
	return dispose.Nop
}
