package feed

import (
	"context"
	"path/filepath"
	"testing"

	"diagnav/internal/diag"
	"diagnav/internal/trace"
)

func TestExclusionMatches(t *testing.T) {
	root := filepath.FromSlash("/work/app")
	x, err := NewExclusion([]string{"node_modules/**", "**/*_gen.go", " ", "/tmp/*.js", "..generated/**"}, root)
	if err != nil {
		t.Fatalf("NewExclusion: %v", err)
	}
	cases := []struct {
		path string
		want bool
	}{
		{"node_modules/left-pad/index.js", true},
		{filepath.FromSlash("/work/app/node_modules/x/y.js"), true},
		{"src/api_gen.go", true},
		{"/tmp/a.js", true},
		{"src/main.go", false},
		{filepath.FromSlash("/elsewhere/node_modules/x.js"), false},
		{"", false},
		{filepath.FromSlash("/work/app/..generated/x.js"), true},
		{filepath.FromSlash("/work/..generated/x.js"), false},
	}
	for _, tc := range cases {
		if got := x.Matches(tc.path); got != tc.want {
			t.Errorf("Matches(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
	if len(x.Patterns) != 4 {
		t.Fatalf("blank patterns should be dropped: %q", x.Patterns)
	}
}

func TestExclusionInvalid(t *testing.T) {
	if _, err := NewExclusion([]string{"src/[a-"}, ""); err == nil {
		t.Fatalf("expected error for bad pattern")
	}
}

func TestFilteredSource(t *testing.T) {
	x, err := NewExclusion([]string{"vendor/**"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if src := NewFiltered(NewStreamFeed(nil, nil), &Exclusion{}, nil); src == nil {
		t.Fatalf("nil source")
	} else if _, wrapped := src.(*Filtered); wrapped {
		t.Fatalf("empty exclusion should not wrap")
	}

	relay := NewRelay()
	ring := trace.NewRingTracer(4, trace.LevelDebug)
	src := NewFiltered(staticSource{relay}, x, ring)
	var got []diag.Snapshot
	sub := src.Subscribe(func(s diag.Snapshot) { got = append(got, s) })
	defer sub.Dispose()

	relay.Publish(diag.Snapshot{
		{FilePath: "vendor/lib/a.go"},
		{FilePath: "main.go"},
		{Scope: diag.ScopeProject, Message: "project"},
	})
	if len(got) != 1 || len(got[0]) != 2 || got[0][0].FilePath != "main.go" {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
	if events := ring.Snapshot(); len(events) != 1 || events[0].Extra["dropped"] != "1" {
		t.Fatalf("expected one exclude event, got %+v", events)
	}
	if err := src.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, ok := Base(src).(staticSource); !ok {
		t.Fatalf("Base should unwrap to the inner source, got %T", Base(src))
	}
}

// staticSource is a Source over a relay that starts instantly.
type staticSource struct{ *Relay }

func (staticSource) Start(context.Context) error { return nil }
