package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	// KindSpanBegin marks the start of a logical operation.
	KindSpanBegin Kind = iota + 1 // span start
	// KindSpanEnd marks the end of a logical operation.
	KindSpanEnd // span end
	// KindPoint represents an instant event.
	KindPoint // instant event
	KindError // failure, emitted from LevelError up
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Scope indicates the granularity level of the event.
// Lower numeric values represent higher-level/coarser events.
type Scope uint8

const (
	// ScopeSession represents CLI-level operations (startup, shutdown).
	ScopeSession Scope = iota + 1
	// ScopeFeed represents snapshot arrivals and feed lifecycle.
	ScopeFeed
	// ScopeCommand represents navigation commands.
	ScopeCommand
	ScopeOpen // individual opener calls (most detailed)
)

// String returns the string representation of Scope.
func (s Scope) String() string {
	switch s {
	case ScopeSession:
		return "session"
	case ScopeFeed:
		return "feed"
	case ScopeCommand:
		return "command"
	case ScopeOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Event is one trace record.
type Event struct {
	Time     time.Time
	Seq      uint64 // assigned by the storing tracer
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for root spans and points
	Depth    int    // nesting of the span, for text indentation
	Name     string // e.g. "snapshot", "go-to-next-diagnostic"
	Detail   string
	Dur      time.Duration // set on KindSpanEnd
	Extra    map[string]string
}
