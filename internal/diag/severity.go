package diag

import (
	"fmt"
	"strings"
)

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	// SevInfo is for informational diagnostics.
	SevInfo Severity = iota
	// SevWarning is for warning diagnostics.
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// Label returns the lower-case form used in short output and JSON.
func (s Severity) Label() string {
	switch s {
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	default:
		return "info"
	}
}

// ParseSeverity accepts the labels produced by Label and String, plus the
// common "warn"/"hint" aliases. An empty string is SevError.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "error", "err":
		return SevError, nil
	case "warning", "warn":
		return SevWarning, nil
	case "info", "information", "hint", "note":
		return SevInfo, nil
	default:
		return SevError, fmt.Errorf("invalid severity %q (expected error|warning|info)", s)
	}
}
