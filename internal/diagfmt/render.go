package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"diagnav/internal/diag"
)

// PrettyOpts configures Pretty.
type PrettyOpts struct {
	Color      bool
	Width      int // максимальная ширина строки, 0 - не ограничено
	ShowTraces bool
}

type palette struct {
	path, err, warn, info, code, dim *color.Color
}

func newPalette(on bool) palette {
	p := palette{
		path: color.New(color.FgCyan, color.Bold),
		err:  color.New(color.FgRed, color.Bold),
		warn: color.New(color.FgYellow, color.Bold),
		info: color.New(color.FgBlue),
		code: color.New(color.FgMagenta),
		dim:  color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.path, p.err, p.warn, p.info, p.code, p.dim} {
		if on {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty writes one block per entry:
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message> [source]
//	    -> <trace path>:<line>:<col>: <text>
//
// Project-scoped entries print "<project>" in place of the path.
func Pretty(w io.Writer, entries []diag.Entry, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	for _, e := range entries {
		var b strings.Builder
		b.WriteString(p.path.Sprint(entryHeader(e)))
		b.WriteString(": ")
		b.WriteString(p.severity(e.Severity).Sprint(e.Severity.String()))
		if e.Code != "" {
			b.WriteString(" ")
			b.WriteString(p.code.Sprint(e.Code))
		}
		b.WriteString(": ")
		b.WriteString(clip(firstLine(e.Message), opts.Width))
		if e.Source != "" {
			b.WriteString(p.dim.Sprintf(" [%s]", e.Source))
		}
		if _, err := fmt.Fprintln(w, b.String()); err != nil {
			return err
		}
		if !opts.ShowTraces {
			continue
		}
		for _, t := range e.Traces {
			line := "    -> " + traceHeader(t)
			if t.Text != "" {
				line += ": " + clip(firstLine(t.Text), opts.Width)
			}
			if !t.Navigable() {
				line = p.dim.Sprint(line)
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

// Short writes "<path>:<line>:<col>: <severity>: <message>" per entry,
// one line each, without color.
func Short(w io.Writer, entries []diag.Entry) error {
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%s: %s: %s\n", entryHeader(e), e.Severity.Label(), firstLine(e.Message)); err != nil {
			return err
		}
	}
	return nil
}

func entryHeader(e diag.Entry) string {
	if e.Scope == diag.ScopeProject || e.FilePath == "" {
		return "<project>"
	}
	return e.Location().String()
}

func traceHeader(t diag.Trace) string {
	if loc, ok := t.Location(); ok {
		return loc.String()
	}
	if t.FilePath != "" {
		return t.FilePath
	}
	return "<unknown>"
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// clip truncates s to width display cells.
func clip(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
