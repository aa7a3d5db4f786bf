package trace

import (
	"sync/atomic"
	"time"
)

var (
	globalSeq   atomic.Uint64
	globalSpans atomic.Uint64
)

// NextSeq returns a monotonically increasing sequence number.
func NextSeq() uint64 { return globalSeq.Add(1) }

// Span brackets one operation: a begin event now, an end event with the
// elapsed time later. A span from a disabled tracer records nothing.
type Span struct {
	tracer  Tracer
	id      uint64
	parent  uint64
	depth   int
	scope   Scope
	name    string
	started time.Time
	extra   map[string]string
}

// Begin starts a root span.
func Begin(t Tracer, scope Scope, name string) *Span {
	return begin(t, scope, name, 0, 0)
}

// Child starts a span nested under s, in the same scope unless the tracer
// filters it out.
func (s *Span) Child(scope Scope, name string) *Span {
	if s == nil || s.tracer == nil {
		return &Span{}
	}
	return begin(s.tracer, scope, name, s.id, s.depth+1)
}

func begin(t Tracer, scope Scope, name string, parent uint64, depth int) *Span {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return &Span{}
	}
	s := &Span{
		tracer:  t,
		id:      globalSpans.Add(1),
		parent:  parent,
		depth:   depth,
		scope:   scope,
		name:    name,
		started: time.Now(),
	}
	t.Emit(s.event(KindSpanBegin, s.started, ""))
	return s
}

// End emits the end event and returns the span's duration.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.tracer == nil {
		return 0
	}
	now := time.Now()
	ev := s.event(KindSpanEnd, now, detail)
	ev.Dur = now.Sub(s.started)
	ev.Extra = s.extra
	s.tracer.Emit(ev)
	return ev.Dur
}

// WithExtra attaches key=value to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || s.tracer == nil {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string, 2)
	}
	s.extra[key] = value
	return s
}

// ID returns the span ID, 0 for a span that records nothing.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

func (s *Span) event(kind Kind, at time.Time, detail string) *Event {
	return &Event{
		Time:     at,
		Kind:     kind,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parent,
		Depth:    s.depth,
		Name:     s.name,
		Detail:   detail,
	}
}

// Point emits an instant event. kv is a flat list of key, value pairs.
func Point(t Tracer, scope Scope, name, detail string, kv ...string) {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return
	}
	t.Emit(&Event{
		Time:   time.Now(),
		Kind:   KindPoint,
		Scope:  scope,
		Name:   name,
		Detail: detail,
		Extra:  pairs(kv),
	})
}

// Error emits a failure event. It is recorded from LevelError up,
// regardless of scope.
func Error(t Tracer, scope Scope, name string, err error, kv ...string) {
	if t == nil || err == nil || t.Level() < LevelError {
		return
	}
	t.Emit(&Event{
		Time:   time.Now(),
		Kind:   KindError,
		Scope:  scope,
		Name:   name,
		Detail: err.Error(),
		Extra:  pairs(kv),
	})
}

// pairs turns k1, v1, k2, v2 into a map; a trailing odd key is dropped.
func pairs(kv []string) map[string]string {
	if len(kv) < 2 {
		return nil
	}
	m := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	return m
}
