package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	// LevelOff disables tracing.
	LevelOff     Level = iota // no tracing
	LevelError                // only failures
	LevelSession              // session + feed boundaries
	LevelCommand              // navigation commands
	LevelDebug                // everything including opener calls
)

// String returns the string representation of Level.
func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelError:
		return "error"
	case LevelSession:
		return "session"
	case LevelCommand:
		return "command"
	case LevelDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "off":
		return LevelOff, nil
	case "error":
		return LevelError, nil
	case "session":
		return LevelSession, nil
	case "command":
		return LevelCommand, nil
	case "debug":
		return LevelDebug, nil
	default:
		return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|error|session|command|debug)", s)
	}
}

// ShouldEmit returns true if the given scope should emit at this level.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelOff:
		return false
	case LevelError:
		return false // error events bypass scopes, see accepts
	case LevelSession:
		return scope <= ScopeFeed
	case LevelCommand:
		return scope <= ScopeCommand
	case LevelDebug:
		return true
	}
	return false
}

// accepts is the filter every tracer applies before storing an event.
func (l Level) accepts(ev *Event) bool {
	if ev.Kind == KindError {
		return l >= LevelError
	}
	return l.ShouldEmit(ev.Scope)
}
