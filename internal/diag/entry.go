package diag

import "fmt"

// Scope classifies a diagnostic as file-level or project-level.
type Scope uint8

const (
	// ScopeFile diagnostics belong to a single file and can be navigated.
	ScopeFile Scope = iota
	// ScopeProject diagnostics have no file of their own.
	ScopeProject
)

func (s Scope) String() string {
	switch s {
	case ScopeFile:
		return "file"
	case ScopeProject:
		return "project"
	}
	return "unknown"
}

// ParseScope converts the feed's scope label. An empty label is ScopeFile.
func ParseScope(s string) (Scope, error) {
	switch s {
	case "", "file":
		return ScopeFile, nil
	case "project", "global":
		return ScopeProject, nil
	default:
		return ScopeFile, fmt.Errorf("invalid scope %q (expected file|project)", s)
	}
}

// Position is a zero-based row/column pair.
type Position struct {
	Row    int
	Column int
}

// Range spans two positions. Navigation only looks at Start.
type Range struct {
	Start Position
	End   Position
}

// Trace is a location related to a diagnostic.
type Trace struct {
	FilePath string // пусто, если источник не знает файла
	Range    *Range
	Text     string
}

// Navigable reports whether the trace can be jumped to.
func (t Trace) Navigable() bool {
	return t.FilePath != "" && t.Range != nil
}

// Location returns the opener argument for a navigable trace.
func (t Trace) Location() (Location, bool) {
	if !t.Navigable() {
		return Location{}, false
	}
	return At(t.FilePath, t.Range.Start), true
}

// Entry is one diagnostic as delivered by the feed.
type Entry struct {
	Scope    Scope
	FilePath string
	Range    *Range
	Traces   []Trace

	Severity Severity
	Code     string
	Message  string
	Source   string
}

// Location returns where the entry itself points: its range start, or the
// file alone when the entry has no range.
func (e Entry) Location() Location {
	if e.Range == nil {
		return FileOnly(e.FilePath)
	}
	return At(e.FilePath, e.Range.Start)
}

// Snapshot is the complete list of diagnostics at one point in time.
type Snapshot []Entry

// FileEntries returns the file-scoped entries in feed order. The result
// never aliases s.
func (s Snapshot) FileEntries() []Entry {
	out := make([]Entry, 0, len(s))
	for _, e := range s {
		if e.Scope == ScopeFile {
			out = append(out, e)
		}
	}
	return out
}

// Counts tallies entries by severity.
func (s Snapshot) Counts() (errors, warnings, infos int) {
	for _, e := range s {
		switch e.Severity {
		case SevError:
			errors++
		case SevWarning:
			warnings++
		default:
			infos++
		}
	}
	return errors, warnings, infos
}

// Location is what an opener receives.
type Location struct {
	Path        string
	Row         int
	Column      int
	HasPosition bool
}

// FileOnly builds a location without a cursor position.
func FileOnly(path string) Location {
	return Location{Path: path}
}

// At builds a location for a zero-based position.
func At(path string, pos Position) Location {
	return Location{Path: path, Row: pos.Row, Column: pos.Column, HasPosition: true}
}

// String renders path or path:line:col with one-based line and column.
func (l Location) String() string {
	if !l.HasPosition {
		return l.Path
	}
	return fmt.Sprintf("%s:%d:%d", l.Path, l.Row+1, l.Column+1)
}
