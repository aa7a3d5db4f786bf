package trace

import (
	"io"
	"sync"
)

// RingTracer keeps the most recent events in memory so they can be dumped
// when a command fails.
type RingTracer struct {
	mu     sync.Mutex
	buf    []Event
	next   int // slot for the next event
	stored int // min(total emitted, len(buf))
	level  Level
}

// NewRingTracer creates a ring holding capacity events (4096 when <= 0).
func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = 4096
	}
	return &RingTracer{buf: make([]Event, capacity), level: level}
}

// Emit stores a copy of ev, overwriting the oldest event when full.
func (t *RingTracer) Emit(ev *Event) {
	if ev == nil || !t.level.accepts(ev) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	stored := *ev
	stored.Seq = NextSeq()
	t.buf[t.next] = stored
	t.next = (t.next + 1) % len(t.buf)
	if t.stored < len(t.buf) {
		t.stored++
	}
}

// Snapshot returns the stored events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Event, 0, t.stored)
	start := (t.next - t.stored + len(t.buf)) % len(t.buf)
	for i := 0; i < t.stored; i++ {
		out = append(out, t.buf[(start+i)%len(t.buf)])
	}
	return out
}

// Len returns the number of stored events.
func (t *RingTracer) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stored
}

// Dump writes the stored events to w.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	for _, ev := range t.Snapshot() {
		if _, err := w.Write(FormatEvent(&ev, format)); err != nil {
			return err
		}
	}
	return nil
}

// Flush does nothing; events live in memory.
func (t *RingTracer) Flush() error { return nil }

// Close does nothing.
func (t *RingTracer) Close() error { return nil }

// Level returns the ring's level.
func (t *RingTracer) Level() Level { return t.level }

// Enabled reports whether the level is above off.
func (t *RingTracer) Enabled() bool { return t.level > LevelOff }
