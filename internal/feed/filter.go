package feed

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"diagnav/internal/diag"
	"diagnav/internal/dispose"
	"diagnav/internal/trace"
)

// Exclusion drops entries whose file matches one of its glob patterns
// (doublestar syntax, "**" crosses directories). Relative patterns are
// matched against the path relative to Root when the entry path is
// absolute and lies under Root.
type Exclusion struct {
	Patterns []string
	Root     string
}

// NewExclusion validates patterns. root may be empty.
func NewExclusion(patterns []string, root string) (*Exclusion, error) {
	clean := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = filepath.ToSlash(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, doublestar.ErrBadPattern)
		}
		clean = append(clean, p)
	}
	return &Exclusion{Patterns: clean, Root: root}, nil
}

// Empty reports whether nothing is excluded.
func (x *Exclusion) Empty() bool { return x == nil || len(x.Patterns) == 0 }

// Matches reports whether path is excluded. Entries without a file
// (project scope) never match.
func (x *Exclusion) Matches(path string) bool {
	if x.Empty() || path == "" {
		return false
	}
	candidates := []string{filepath.ToSlash(path)}
	if x.Root != "" && filepath.IsAbs(path) {
		if rel, err := filepath.Rel(x.Root, path); err == nil && !escapesRoot(rel) {
			candidates = append(candidates, filepath.ToSlash(rel))
		}
	}
	for _, p := range x.Patterns {
		for _, c := range candidates {
			// patterns were validated in NewExclusion
			if ok, _ := doublestar.Match(p, c); ok {
				return true
			}
		}
	}
	return false
}

// Apply returns snap without excluded entries. Traces are left alone:
// a kept diagnostic may still point into an excluded file.
func (x *Exclusion) Apply(snap diag.Snapshot) diag.Snapshot {
	if x.Empty() {
		return snap
	}
	out := make(diag.Snapshot, 0, len(snap))
	for _, e := range snap {
		if !x.Matches(e.FilePath) {
			out = append(out, e)
		}
	}
	return out
}

// Filtered applies an Exclusion to every snapshot of a source.
type Filtered struct {
	src    Source
	x      *Exclusion
	tracer trace.Tracer
}

// NewFiltered wraps src. With an empty exclusion src is returned as is.
func NewFiltered(src Source, x *Exclusion, tr trace.Tracer) Source {
	if x.Empty() {
		return src
	}
	if tr == nil {
		tr = trace.Nop
	}
	return &Filtered{src: src, x: x, tracer: tr}
}

// Subscribe implements Feed.
func (f *Filtered) Subscribe(fn func(diag.Snapshot)) dispose.Disposable {
	if fn == nil {
		return f.src.Subscribe(nil)
	}
	return f.src.Subscribe(func(snap diag.Snapshot) {
		kept := f.x.Apply(snap)
		if dropped := len(snap) - len(kept); dropped > 0 {
			trace.Point(f.tracer, trace.ScopeFeed, "exclude", "", "dropped", strconv.Itoa(dropped))
		}
		fn(kept)
	})
}

// Start runs the wrapped source.
func (f *Filtered) Start(ctx context.Context) error { return f.src.Start(ctx) }

// Unwrap returns the wrapped source.
func (f *Filtered) Unwrap() Source { return f.src }

// Base strips wrappers such as Filtered off src.
func Base(src Source) Source {
	for {
		w, ok := src.(interface{ Unwrap() Source })
		if !ok {
			return src
		}
		src = w.Unwrap()
	}
}

// escapesRoot reports whether a filepath.Rel result leaves the root.
// "..generated" is an ordinary name inside it.
func escapesRoot(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
