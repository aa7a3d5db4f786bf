package trace

// TaggedTracer adds fixed key-value pairs to every event it forwards.
type TaggedTracer struct {
	next Tracer
	tags map[string]string
}

// NewTaggedTracer wraps next. kv is a flat list of key, value pairs.
func NewTaggedTracer(next Tracer, kv ...string) Tracer {
	if next == nil || !next.Enabled() {
		return Nop
	}
	return &TaggedTracer{next: next, tags: pairs(kv)}
}

// Emit copies the tags into the event's Extra (event keys win) and forwards it.
func (t *TaggedTracer) Emit(ev *Event) {
	if ev == nil {
		return
	}
	if len(t.tags) > 0 {
		merged := make(map[string]string, len(t.tags)+len(ev.Extra))
		for k, v := range t.tags {
			merged[k] = v
		}
		for k, v := range ev.Extra {
			merged[k] = v
		}
		ev.Extra = merged
	}
	t.next.Emit(ev)
}

// Flush flushes the wrapped tracer.
func (t *TaggedTracer) Flush() error { return t.next.Flush() }

// Close closes the wrapped tracer.
func (t *TaggedTracer) Close() error { return t.next.Close() }

// Level returns the wrapped tracer's level.
func (t *TaggedTracer) Level() Level { return t.next.Level() }

// Enabled reports whether the wrapped tracer is active.
func (t *TaggedTracer) Enabled() bool { return t.next.Enabled() }

// Unwrap returns the wrapped tracer.
func (t *TaggedTracer) Unwrap() Tracer { return t.next }
