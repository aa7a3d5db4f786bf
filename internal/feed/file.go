package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"diagnav/internal/diag"
	"diagnav/internal/diagfmt"
	"diagnav/internal/dispose"
	"diagnav/internal/trace"
)

// DefaultDebounce is the quiet period before a changed file is re-read.
const DefaultDebounce = 200 * time.Millisecond

// Source is a feed that has to be driven. Start blocks until ctx is done
// or the underlying input ends.
type Source interface {
	Feed
	Start(ctx context.Context) error
}

// FileOptions configures a FileFeed.
type FileOptions struct {
	Watch    bool
	Debounce time.Duration
	Tracer   trace.Tracer
}

// FileFeed emits the snapshot stored in a JSON or msgpack file and, when
// watching, every later version of it.
type FileFeed struct {
	out      Relay
	path     string
	watch    bool
	debounce time.Duration
	tracer   trace.Tracer

	mu   sync.Mutex
	last []byte
}

// NewFileFeed returns a feed for path. Nothing is read before Start.
func NewFileFeed(path string, opts FileOptions) *FileFeed {
	tr := opts.Tracer
	if tr == nil {
		tr = trace.Nop
	}
	d := opts.Debounce
	if d <= 0 {
		d = DefaultDebounce
	}
	return &FileFeed{path: filepath.Clean(path), watch: opts.Watch, debounce: d, tracer: tr}
}

// Subscribe implements Feed.
func (f *FileFeed) Subscribe(fn func(diag.Snapshot)) dispose.Disposable {
	return f.out.Subscribe(fn)
}

// Start reads the file once. A failure of this first read is returned;
// later failures are traced and the previous snapshot stays in effect.
// With watching disabled Start returns right after the first emission.
func (f *FileFeed) Start(ctx context.Context) error {
	if _, err := f.reload(); err != nil {
		return err
	}
	if !f.watch {
		return nil
	}
	return f.watchLoop(ctx)
}

// reload reads and decodes the file and publishes the result when the
// content changed. It reports whether an emission happened.
func (f *FileFeed) reload() (bool, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return false, err
	}
	f.mu.Lock()
	same := f.last != nil && bytes.Equal(f.last, data)
	f.mu.Unlock()
	if same {
		return false, nil
	}
	snap, err := diagfmt.DecodeBytes(data, diagfmt.FormatForPath(f.path))
	if err != nil {
		return false, fmt.Errorf("%s: %w", f.path, err)
	}
	f.mu.Lock()
	f.last = data
	f.mu.Unlock()
	trace.Point(f.tracer, trace.ScopeFeed, "file", f.path, "entries", strconv.Itoa(len(snap)))
	f.out.Publish(snap)
	return true, nil
}

// watchLoop watches the parent directory rather than the file: editors and
// atomic writers replace the file by rename, which drops a direct watch.
func (f *FileFeed) watchLoop(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := w.Close(); closeErr != nil {
			trace.Error(f.tracer, trace.ScopeFeed, "watch-close", closeErr)
		}
	}()
	dir := filepath.Dir(f.path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	span := trace.Begin(f.tracer, trace.ScopeFeed, "watch").WithExtra("path", f.path)
	defer span.End("")

	ticker := time.NewTicker(f.debounce)
	defer ticker.Stop()
	pending := false
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != f.path {
				continue
			}
			if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				trace.Point(f.tracer, trace.ScopeFeed, "file-gone", f.path)
				continue
			}
			pending = true

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			trace.Error(f.tracer, trace.ScopeFeed, "watch", err)

		case <-ticker.C:
			if !pending {
				continue
			}
			pending = false
			child := span.Child(trace.ScopeFeed, "reload")
			emitted, err := f.reload()
			child.WithExtra("emitted", strconv.FormatBool(emitted)).End("")
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					continue
				}
				trace.Error(f.tracer, trace.ScopeFeed, "reload", err, "path", f.path)
			}
		}
	}
}
