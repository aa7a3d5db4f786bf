// Package opener performs the jump to a location once the navigator has
// decided where to go.
package opener

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"diagnav/internal/diag"
)

// Opener navigates to a location. Callers treat it as fire-and-forget:
// the error is for logging, nobody retries.
type Opener interface {
	Open(loc diag.Location) error
}

// Func adapts a plain function to Opener.
type Func func(loc diag.Location) error

// Open calls f.
func (f Func) Open(loc diag.Location) error { return f(loc) }

var (
	pathColor = color.New(color.FgCyan, color.Bold)
	posColor  = color.New(color.FgYellow)
)

// Printer writes one location per line: path or path:line:col (one-based).
type Printer struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
}

// NewPrinter returns a printer writing to w.
func NewPrinter(w io.Writer, useColor bool) *Printer {
	return &Printer{w: w, color: useColor}
}

// Open prints loc.
func (p *Printer) Open(loc diag.Location) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var line string
	switch {
	case !p.color:
		line = loc.String()
	case loc.HasPosition:
		line = pathColor.Sprint(loc.Path) + posColor.Sprintf(":%d:%d", loc.Row+1, loc.Column+1)
	default:
		line = pathColor.Sprint(loc.Path)
	}
	_, err := fmt.Fprintln(p.w, line)
	return err
}

// Recorder keeps every location it is asked to open.
type Recorder struct {
	mu    sync.Mutex
	calls []diag.Location
}

// Open records loc.
func (r *Recorder) Open(loc diag.Location) error {
	r.mu.Lock()
	r.calls = append(r.calls, loc)
	r.mu.Unlock()
	return nil
}

// Calls returns a copy of the recorded locations.
func (r *Recorder) Calls() []diag.Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]diag.Location(nil), r.calls...)
}

// Last returns the most recent location.
func (r *Recorder) Last() (diag.Location, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return diag.Location{}, false
	}
	return r.calls[len(r.calls)-1], true
}

// Reset forgets recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}

// Multi opens with every member in order and returns the first error.
// Members after a failing one still run.
type Multi []Opener

// Open fans loc out to all members.
func (m Multi) Open(loc diag.Location) error {
	var firstErr error
	for _, o := range m {
		if o == nil {
			continue
		}
		if err := o.Open(loc); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
