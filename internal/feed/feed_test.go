package feed

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"diagnav/internal/diag"
	"diagnav/internal/trace"
)

func TestRelaySingleSubscriber(t *testing.T) {
	r := NewRelay()
	if r.Publish(nil) {
		t.Fatalf("publish without subscriber must report false")
	}

	var first, second int
	d1 := r.Subscribe(func(diag.Snapshot) { first++ })
	d2 := r.Subscribe(func(diag.Snapshot) { second++ })
	r.Publish(diag.Snapshot{})
	if first != 0 || second != 1 {
		t.Fatalf("second subscriber must replace the first: %d %d", first, second)
	}

	// releasing a replaced subscription must not drop the current one
	d1.Dispose()
	if !r.Subscribed() {
		t.Fatalf("stale dispose removed the live subscriber")
	}
	d2.Dispose()
	d2.Dispose()
	if r.Publish(diag.Snapshot{}) || second != 1 {
		t.Fatalf("callbacks after dispose")
	}
}

func TestStaticEmitsOnSubscribe(t *testing.T) {
	s := Static{Snapshot: diag.Snapshot{{FilePath: "a.js"}}}
	var got diag.Snapshot
	s.Subscribe(func(snap diag.Snapshot) { got = snap }).Dispose()
	if len(got) != 1 {
		t.Fatalf("expected one entry, got %v", got)
	}
}

func collect(f Feed) (func() []diag.Snapshot, chan diag.Snapshot) {
	ch := make(chan diag.Snapshot, 16)
	var all []diag.Snapshot
	f.Subscribe(func(s diag.Snapshot) {
		all = append(all, s)
		ch <- s
	})
	return func() []diag.Snapshot { return all }, ch
}

func TestFileFeedStartOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.json")
	if err := os.WriteFile(path, []byte(`[{"filePath":"a.js"},{"scope":"project"}]`), 0o600); err != nil {
		t.Fatal(err)
	}
	f := NewFileFeed(path, FileOptions{})
	all, _ := collect(f)
	if err := f.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := all(); len(got) != 1 || len(got[0]) != 2 {
		t.Fatalf("unexpected emissions: %v", got)
	}
}

func TestFileFeedInitialErrors(t *testing.T) {
	dir := t.TempDir()
	if err := NewFileFeed(filepath.Join(dir, "missing.json"), FileOptions{}).Start(context.Background()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"diagnostics":`), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := NewFileFeed(bad, FileOptions{}).Start(context.Background()); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestFileFeedWatchReemits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.json")
	if err := os.WriteFile(path, []byte(`[{"filePath":"a.js"}]`), 0o600); err != nil {
		t.Fatal(err)
	}
	ring := trace.NewRingTracer(64, trace.LevelDebug)
	f := NewFileFeed(path, FileOptions{Watch: true, Debounce: 20 * time.Millisecond, Tracer: ring})
	_, ch := collect(f)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.Start(ctx) }()

	wait := func(what string) diag.Snapshot {
		t.Helper()
		select {
		case s := <-ch:
			return s
		case <-time.After(5 * time.Second):
			t.Fatalf("timeout waiting for %s", what)
			return nil
		}
	}
	if s := wait("initial snapshot"); len(s) != 1 {
		t.Fatalf("initial snapshot: %v", s)
	}

	// a broken intermediate version is traced and skipped
	if err := os.WriteFile(path, []byte(`[{"filePath":`), 0o600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte(`[{"filePath":"a.js"},{"filePath":"b.js"}]`), 0o600); err != nil {
		t.Fatal(err)
	}
	if s := wait("updated snapshot"); len(s) != 2 {
		t.Fatalf("updated snapshot: %v", s)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("watch returned %v", err)
	}
}

func TestStreamFeed(t *testing.T) {
	input := strings.Join([]string{
		`{"diagnostics":[{"filePath":"a.js"}]}`,
		``,
		`not json`,
		`[{"filePath":"a.js"},{"filePath":"b.js"}]`,
	}, "\n")
	ring := trace.NewRingTracer(16, trace.LevelError)
	s := NewStreamFeed(strings.NewReader(input), ring)
	all, _ := collect(s)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	got := all()
	if len(got) != 2 || len(got[0]) != 1 || len(got[1]) != 2 {
		t.Fatalf("unexpected emissions: %v", got)
	}
	events := ring.Snapshot()
	if len(events) != 1 || events[0].Kind != trace.KindError || !strings.Contains(events[0].Detail, "line 3") {
		t.Fatalf("expected one error event for line 3, got %+v", events)
	}
}

func frame(body string) string {
	return fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(body), body)
}

func publish(uri, diags string) string {
	return frame(`{"jsonrpc":"2.0","method":"textDocument/publishDiagnostics","params":{"uri":"` + uri + `","diagnostics":` + diags + `}}`)
}

func TestLSPFeedAggregates(t *testing.T) {
	input := frame(`{"jsonrpc":"2.0","id":1,"result":{}}`) +
		publish("file:///src/a.js", `[{"range":{"start":{"line":1,"character":2},"end":{"line":1,"character":5}},"severity":2,"code":42,"source":"flow","message":"m1",
			"relatedInformation":[{"location":{"uri":"file:///src/t.js","range":{"start":{"line":4,"character":0},"end":{"line":4,"character":1}}},"message":"here"}]}]`) +
		publish("file:///src/b.js", `[{"range":{"start":{"line":0,"character":0},"end":{"line":0,"character":0}},"message":"m2","code":"E2"}]`) +
		publish("file:///src/a.js", `[]`) +
		publish("file:///src/a.js", `[{"range":{"start":{"line":9,"character":0},"end":{"line":9,"character":0}},"severity":4,"message":"m3"}]`)

	l := NewLSPFeed(strings.NewReader(input), nil)
	all, _ := collect(l)
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	got := all()
	if len(got) != 4 {
		t.Fatalf("expected 4 snapshots, got %d", len(got))
	}

	first := got[0][0]
	if first.FilePath != filepath.FromSlash("/src/a.js") || first.Range.Start != (diag.Position{Row: 1, Column: 2}) {
		t.Fatalf("unexpected entry: %+v", first)
	}
	if first.Severity != diag.SevWarning || first.Code != "42" || first.Source != "flow" {
		t.Fatalf("unexpected metadata: %+v", first)
	}
	if len(first.Traces) != 1 || first.Traces[0].Text != "here" || first.Traces[0].Range.Start.Row != 4 {
		t.Fatalf("unexpected traces: %+v", first.Traces)
	}

	if len(got[1]) != 2 || got[1][1].Code != "E2" || got[1][1].Severity != diag.SevError || got[1][1].Traces != nil {
		t.Fatalf("second snapshot: %+v", got[1])
	}
	if len(got[2]) != 1 || got[2][0].Message != "m2" {
		t.Fatalf("empty list must remove the document: %+v", got[2])
	}
	// a.js comes back after b.js: order is by first appearance since removal
	if len(got[3]) != 2 || got[3][0].Message != "m2" || got[3][1].Message != "m3" || got[3][1].Severity != diag.SevInfo {
		t.Fatalf("fourth snapshot: %+v", got[3])
	}
}

func TestReadMessageErrors(t *testing.T) {
	_, err := readMessage(bufio.NewReader(strings.NewReader("X-Other: 1\r\n\r\n{}")))
	if !errors.Is(err, ErrMissingLength) {
		t.Fatalf("expected ErrMissingLength, got %v", err)
	}
	_, err = readMessage(bufio.NewReader(strings.NewReader("Content-Length: abc\r\n\r\n")))
	if err == nil {
		t.Fatalf("expected invalid length error")
	}

	l := NewLSPFeed(strings.NewReader("Content-Type: x\r\n\r\n"), nil)
	if err := l.Start(context.Background()); !errors.Is(err, ErrMissingLength) {
		t.Fatalf("framing error must end the feed: %v", err)
	}
}

func TestReadMessageLengthLimit(t *testing.T) {
	for _, length := range []string{"9223372036854775807", strconv.Itoa(maxFrameSize + 1)} {
		l := NewLSPFeed(strings.NewReader("Content-Length: "+length+"\r\n\r\n{}"), nil)
		err := l.Start(context.Background())
		if !errors.Is(err, ErrFrameTooLarge) {
			t.Fatalf("Content-Length %s: expected ErrFrameTooLarge, got %v", length, err)
		}
	}
	body := `{"jsonrpc":"2.0","method":"x"}`
	payload, err := readMessage(bufio.NewReader(strings.NewReader("Content-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body)))
	if err != nil || string(payload) != body {
		t.Fatalf("frame under the limit: %q, %v", payload, err)
	}
}

func TestURIToPath(t *testing.T) {
	tests := []struct {
		uri, want string
	}{
		{"", ""},
		{"file:///tmp/a%20b.js", filepath.FromSlash("/tmp/a b.js")},
		{"untitled:Untitled-1", "untitled:Untitled-1"},
	}
	for _, tt := range tests {
		if got := uriToPath(tt.uri); got != tt.want {
			t.Errorf("uriToPath(%q) = %q, want %q", tt.uri, got, tt.want)
		}
	}
}
