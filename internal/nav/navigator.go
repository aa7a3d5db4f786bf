// Package nav implements diagnostic navigation: a primary cursor over the
// file-scoped diagnostics of the latest snapshot and a secondary cursor over
// the traces of the selected diagnostic.
//
// The Navigator is not safe for concurrent use. Feed callbacks and command
// handlers must arrive on one goroutine; host.Loop and the bubbletea update
// loop both provide that.
package nav

import (
	"errors"
	"fmt"
	"strconv"

	"diagnav/internal/command"
	"diagnav/internal/diag"
	"diagnav/internal/dispose"
	"diagnav/internal/feed"
	"diagnav/internal/opener"
	"diagnav/internal/trace"
)

// DefaultMaxOpenAll caps OpenAll.
const DefaultMaxOpenAll = 20

// ErrTooManyFiles is returned by OpenAll when the working list exceeds the cap.
var ErrTooManyFiles = errors.New("too many files to open")

// Options configures a Navigator.
type Options struct {
	Tracer     trace.Tracer
	MaxOpenAll int
}

// Navigator holds the working list and both cursors.
type Navigator struct {
	entries   []diag.Entry
	total     int // snapshot size, project-scoped entries included
	primary   Cursor
	secondary Cursor

	opener     opener.Opener
	tracer     trace.Tracer
	maxOpenAll int

	subs     *dispose.Composite
	disposed bool
	onChange func()
}

// New subscribes to src, registers the navigation commands with reg and
// returns the navigator. Either src or reg may be nil when the caller drives
// the navigator directly.
func New(src feed.Feed, reg command.Registrar, o opener.Opener, opts Options) *Navigator {
	tr := opts.Tracer
	if tr == nil {
		tr = trace.Nop
	}
	maxOpen := opts.MaxOpenAll
	if maxOpen <= 0 {
		maxOpen = DefaultMaxOpenAll
	}
	if o == nil {
		o = opener.Func(func(diag.Location) error { return nil })
	}
	n := &Navigator{
		opener:     o,
		tracer:     tr,
		maxOpenAll: maxOpen,
		subs:       dispose.NewComposite(),
	}
	if src != nil {
		n.subs.Add(src.Subscribe(n.Apply))
	}
	if reg != nil {
		n.subs.Add(
			reg.Register(CmdFirst, n.First),
			reg.Register(CmdLast, n.Last),
			reg.Register(CmdNext, n.Next),
			reg.Register(CmdPrevious, n.Previous),
			reg.Register(CmdNextTrace, n.NextTrace),
			reg.Register(CmdPreviousTrace, n.PreviousTrace),
			reg.Register(CmdOpenAll, func() {
				if err := n.OpenAll(); err != nil {
					trace.Error(n.tracer, trace.ScopeCommand, CmdOpenAll, err)
				}
			}),
		)
	}
	return n
}

// OnChange installs a hook that runs after the working list or a cursor
// changes. Line mode uses it to print where the session stands.
func (n *Navigator) OnChange(fn func()) {
	n.onChange = fn
}

// Apply replaces the working list with the file-scoped entries of snap and
// resets both cursors. It never opens anything.
func (n *Navigator) Apply(snap diag.Snapshot) {
	if n.disposed {
		return
	}
	n.entries = snap.FileEntries()
	n.total = len(snap)
	n.secondary = Unset()
	n.primary = Unset()
	trace.Point(n.tracer, trace.ScopeFeed, "snapshot", "",
		"total", strconv.Itoa(len(snap)),
		"file", strconv.Itoa(len(n.entries)))
	n.changed()
}

// First jumps to the first diagnostic.
func (n *Navigator) First() { n.command(CmdFirst, func() { n.goToIndex(0) }) }

// Last jumps to the last diagnostic.
func (n *Navigator) Last() { n.command(CmdLast, func() { n.goToIndex(len(n.entries) - 1) }) }

// Next moves forward, staying on the last diagnostic at the end.
// From an unset cursor it behaves like First.
func (n *Navigator) Next() {
	n.command(CmdNext, func() {
		if i, ok := n.primary.Index(); ok {
			n.goToIndex(i + 1)
			return
		}
		n.goToIndex(0)
	})
}

// Previous moves backward, staying on the first diagnostic at the start.
// From an unset cursor it behaves like Last.
func (n *Navigator) Previous() {
	n.command(CmdPrevious, func() {
		if i, ok := n.primary.Index(); ok {
			n.goToIndex(i - 1)
			return
		}
		n.goToIndex(len(n.entries) - 1)
	})
}

// NextTrace jumps to the next navigable trace of the current diagnostic.
// When the traces are exhausted it returns to the diagnostic itself.
func (n *Navigator) NextTrace() {
	n.command(CmdNextTrace, func() {
		traces, ok := n.currentTraces()
		if !ok {
			return
		}
		start := 0
		if i, ok := n.secondary.Index(); ok {
			start = i + 1
		}
		for t := start; t < len(traces); t++ {
			if n.trySetTrace(traces, t) {
				return
			}
		}
		n.secondary = Unset()
		n.gotoCurrentPrimary()
	})
}

// PreviousTrace is NextTrace in the other direction.
func (n *Navigator) PreviousTrace() {
	n.command(CmdPreviousTrace, func() {
		traces, ok := n.currentTraces()
		if !ok {
			return
		}
		start := len(traces) - 1
		if i, ok := n.secondary.Index(); ok {
			start = i - 1
		}
		for t := start; t >= 0; t-- {
			if n.trySetTrace(traces, t) {
				return
			}
		}
		n.secondary = Unset()
		n.gotoCurrentPrimary()
	})
}

// OpenAll opens the file of every diagnostic in the working list at its
// start row (column 0). The cap counts the whole snapshot, so project-scoped
// diagnostics can refuse the call even though they are never opened.
// Cursors do not move.
func (n *Navigator) OpenAll() error {
	if n.disposed {
		return nil
	}
	if n.total > n.maxOpenAll {
		return fmt.Errorf("%w: %d diagnostics, limit is %d", ErrTooManyFiles, n.total, n.maxOpenAll)
	}
	span := trace.Begin(n.tracer, trace.ScopeCommand, CmdOpenAll)
	opened := 0
	for _, e := range n.entries {
		if e.FilePath == "" {
			continue
		}
		row := 0
		if e.Range != nil && e.Range.Start.Row > 0 {
			row = e.Range.Start.Row
		}
		n.open(diag.At(e.FilePath, diag.Position{Row: row}))
		opened++
	}
	span.WithExtra("opened", strconv.Itoa(opened)).End("")
	return nil
}

// Dispose unsubscribes from the feed and unregisters every command.
// Calling it again does nothing.
func (n *Navigator) Dispose() {
	if n.disposed {
		return
	}
	n.disposed = true
	n.subs.Dispose()
}

// Len returns the size of the working list.
func (n *Navigator) Len() int { return len(n.entries) }

// Entries returns a copy of the working list.
func (n *Navigator) Entries() []diag.Entry {
	return append([]diag.Entry(nil), n.entries...)
}

// Primary returns the diagnostic cursor.
func (n *Navigator) Primary() Cursor { return n.primary }

// Secondary returns the trace cursor.
func (n *Navigator) Secondary() Cursor { return n.secondary }

// Current returns the selected diagnostic.
func (n *Navigator) Current() (diag.Entry, bool) {
	i, ok := n.primary.Index()
	if !ok {
		return diag.Entry{}, false
	}
	return n.entries[i], true
}

func (n *Navigator) command(name string, fn func()) {
	if n.disposed {
		return
	}
	span := trace.Begin(n.tracer, trace.ScopeCommand, name)
	fn()
	span.WithExtra("primary", n.primary.String()).
		WithExtra("secondary", n.secondary.String()).
		End("")
	n.changed()
}

// goToIndex clamps i into the working list and jumps there.
func (n *Navigator) goToIndex(i int) {
	n.secondary = Unset()
	if len(n.entries) == 0 {
		n.primary = Unset()
		return
	}
	n.primary = At(max(0, min(i, len(n.entries)-1)))
	n.gotoCurrentPrimary()
}

func (n *Navigator) gotoCurrentPrimary() {
	i, ok := n.primary.Index()
	if !ok || n.secondary.IsSet() {
		panic(fmt.Sprintf("nav: gotoCurrentPrimary with primary=%s secondary=%s", n.primary, n.secondary))
	}
	n.open(n.entries[i].Location())
}

// currentTraces returns the trace list of the selected diagnostic. An entry
// whose Traces is nil carries no trace information at all; an empty non-nil
// list still counts, so trace commands fall back to the diagnostic.
func (n *Navigator) currentTraces() ([]diag.Trace, bool) {
	i, ok := n.primary.Index()
	if !ok {
		return nil, false
	}
	traces := n.entries[i].Traces
	if traces == nil {
		return nil, false
	}
	return traces, true
}

func (n *Navigator) trySetTrace(traces []diag.Trace, t int) bool {
	loc, ok := traces[t].Location()
	if !ok {
		return false
	}
	n.secondary = At(t)
	n.open(loc)
	return true
}

func (n *Navigator) open(loc diag.Location) {
	trace.Point(n.tracer, trace.ScopeOpen, "open", loc.String())
	if err := n.opener.Open(loc); err != nil {
		trace.Error(n.tracer, trace.ScopeOpen, "open", err, "path", loc.Path)
	}
}

func (n *Navigator) changed() {
	if n.onChange != nil {
		n.onChange()
	}
}
