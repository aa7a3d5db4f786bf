package diag

import "testing"

func TestTraceNavigable(t *testing.T) {
	rng := &Range{Start: Position{Row: 5, Column: 1}}
	cases := []struct {
		name  string
		trace Trace
		want  bool
	}{
		{"empty", Trace{}, false},
		{"path only", Trace{FilePath: "t.js"}, false},
		{"range only", Trace{Range: rng}, false},
		{"complete", Trace{FilePath: "t.js", Range: rng}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.trace.Navigable(); got != tc.want {
				t.Fatalf("Navigable() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEntryLocation(t *testing.T) {
	withRange := Entry{FilePath: "a.js", Range: &Range{Start: Position{Row: 2, Column: 0}}}
	if got, want := withRange.Location(), At("a.js", Position{Row: 2}); got != want {
		t.Fatalf("Location() = %+v, want %+v", got, want)
	}
	fileLevel := Entry{FilePath: "b.js"}
	got := fileLevel.Location()
	if got.HasPosition || got.Path != "b.js" {
		t.Fatalf("file-level Location() = %+v", got)
	}
}

func TestSnapshotFileEntries(t *testing.T) {
	snap := Snapshot{
		{Scope: ScopeFile, FilePath: "a.js"},
		{Scope: ScopeProject, Message: "tsconfig is broken"},
		{Scope: ScopeFile, FilePath: "b.js"},
	}
	got := snap.FileEntries()
	if len(got) != 2 {
		t.Fatalf("expected 2 file entries, got %d", len(got))
	}
	if got[0].FilePath != "a.js" || got[1].FilePath != "b.js" {
		t.Fatalf("unexpected order: %+v", got)
	}
	got[0].FilePath = "changed"
	if snap[0].FilePath != "a.js" {
		t.Fatalf("FileEntries aliases the snapshot")
	}
}

func TestLocationString(t *testing.T) {
	if got := At("a.js", Position{Row: 2, Column: 0}).String(); got != "a.js:3:1" {
		t.Errorf("unexpected: %s", got)
	}
	if got := FileOnly("b.js").String(); got != "b.js" {
		t.Errorf("unexpected: %s", got)
	}
}

func TestParseSeverity(t *testing.T) {
	for in, want := range map[string]Severity{"": SevError, "ERROR": SevError, "warn": SevWarning, "hint": SevInfo} {
		got, err := ParseSeverity(in)
		if err != nil {
			t.Fatalf("ParseSeverity(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseSeverity(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseSeverity("fatal"); err == nil {
		t.Fatalf("expected error for unknown severity")
	}
}
