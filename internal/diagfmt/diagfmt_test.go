package diagfmt

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"diagnav/internal/diag"
)

const objectDoc = `{"diagnostics":[
  {"scope":"file","filePath":"a.js","range":{"start":{"row":2,"column":0},"end":{"row":2,"column":4}},
   "severity":"error","code":"E1","message":"boom","source":"flow",
   "trace":[{"filePath":"t.js","range":{"start":{"row":5,"column":1}},"text":"see here"},{"text":"no location"}]},
  {"scope":"project","message":"server crashed","severity":"warning"},
  {"filePath":"b.js","trace":[]}
]}`

func TestDecodeObjectForm(t *testing.T) {
	snap, err := DecodeBytes([]byte(objectDoc), FormatJSON)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snap) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(snap))
	}

	a := snap[0]
	if a.FilePath != "a.js" || a.Range == nil || a.Range.Start != (diag.Position{Row: 2}) || a.Range.End.Column != 4 {
		t.Fatalf("unexpected first entry: %+v", a)
	}
	if a.Severity != diag.SevError || a.Code != "E1" || a.Source != "flow" {
		t.Fatalf("unexpected metadata: %+v", a)
	}
	if len(a.Traces) != 2 || !a.Traces[0].Navigable() || a.Traces[1].Navigable() {
		t.Fatalf("unexpected traces: %+v", a.Traces)
	}
	if a.Traces[0].Range.End != a.Traces[0].Range.Start {
		t.Fatalf("missing end should collapse to start")
	}

	if snap[1].Scope != diag.ScopeProject || snap[1].Severity != diag.SevWarning {
		t.Fatalf("unexpected project entry: %+v", snap[1])
	}
	b := snap[2]
	if b.Scope != diag.ScopeFile || b.Range != nil {
		t.Fatalf("defaults not applied: %+v", b)
	}
	if b.Traces == nil || len(b.Traces) != 0 {
		t.Fatalf("empty trace list must stay non-nil")
	}
}

func TestDecodeBareArray(t *testing.T) {
	snap, err := DecodeBytes([]byte(`  [{"filePath":"x.js"}]`), FormatJSON)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snap) != 1 || snap[0].FilePath != "x.js" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap[0].Traces != nil {
		t.Fatalf("missing trace key must decode as nil")
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{name: "empty", input: "  \n", want: ErrEmptyDocument},
		{name: "bad scope", input: `[{"scope":"galaxy"}]`},
		{name: "bad severity", input: `[{"severity":"fatal-ish"}]`},
		{name: "syntax", input: `{"diagnostics":[`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBytes([]byte(tt.input), FormatJSON)
			if err == nil {
				t.Fatalf("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestMsgpackKeepsTraceDistinction(t *testing.T) {
	snap := diag.Snapshot{
		{FilePath: "a.js", Range: &diag.Range{Start: diag.Position{Row: 1, Column: 2}, End: diag.Position{Row: 1, Column: 3}}},
		{FilePath: "b.js", Traces: []diag.Trace{}},
		{FilePath: "c.js", Traces: []diag.Trace{{FilePath: "t.js", Text: "x"}}, Severity: diag.SevInfo},
	}
	var buf bytes.Buffer
	if err := Encode(&buf, snap, FormatMsgpack); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeBytes(buf.Bytes(), FormatMsgpack)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if got[0].Traces != nil || got[0].Range.Start.Column != 2 {
		t.Fatalf("unexpected first entry: %+v", got[0])
	}
	if got[1].Traces == nil {
		t.Fatalf("empty trace list lost")
	}
	if got[2].Severity != diag.SevInfo || got[2].Traces[0].Text != "x" {
		t.Fatalf("unexpected third entry: %+v", got[2])
	}
}

func TestWriteFileAndDecodeFile(t *testing.T) {
	dir := t.TempDir()
	snap := diag.Snapshot{{FilePath: "a.js", Message: "m"}}
	for _, name := range []string{"snap.json", "snap.msgpack"} {
		path := filepath.Join(dir, name)
		if err := WriteFile(path, snap); err != nil {
			t.Fatalf("%s: write: %v", name, err)
		}
		got, err := DecodeFile(path)
		if err != nil {
			t.Fatalf("%s: decode: %v", name, err)
		}
		if len(got) != 1 || got[0].Message != "m" {
			t.Fatalf("%s: unexpected snapshot %+v", name, got)
		}
	}
}

func TestPathsAreNFC(t *testing.T) {
	decomposed := "cafe\u0301.js"
	snap, err := DecodeBytes([]byte(`[{"filePath":"`+decomposed+`"}]`), FormatJSON)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap[0].FilePath != "caf\u00e9.js" {
		t.Fatalf("path not normalized: %q", snap[0].FilePath)
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("MsgPack"); err != nil || f != FormatMsgpack {
		t.Fatalf("ParseFormat msgpack: %v %v", f, err)
	}
	if _, err := ParseFormat("yaml"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
	if FormatForPath("x/y.MPK") != FormatMsgpack || FormatForPath("y.json") != FormatJSON {
		t.Fatalf("FormatForPath mismatch")
	}
}

func TestPrettyAndShort(t *testing.T) {
	entries := []diag.Entry{
		{
			FilePath: "a.js", Range: &diag.Range{Start: diag.Position{Row: 2}},
			Severity: diag.SevError, Code: "E1", Message: "boom\nsecond line", Source: "flow",
			Traces: []diag.Trace{{FilePath: "t.js", Range: &diag.Range{Start: diag.Position{Row: 5, Column: 1}}, Text: "see here"}, {Text: "lost"}},
		},
		{Scope: diag.ScopeProject, Severity: diag.SevWarning, Message: "global"},
	}

	var buf bytes.Buffer
	if err := Pretty(&buf, entries, PrettyOpts{ShowTraces: true}); err != nil {
		t.Fatalf("pretty: %v", err)
	}
	want := "a.js:3:1: ERROR E1: boom [flow]\n" +
		"    -> t.js:6:2: see here\n" +
		"    -> <unknown>: lost\n" +
		"<project>: WARNING: global\n"
	if buf.String() != want {
		t.Fatalf("pretty output:\n%s\nwant:\n%s", buf.String(), want)
	}

	buf.Reset()
	if err := Short(&buf, entries); err != nil {
		t.Fatalf("short: %v", err)
	}
	if got := buf.String(); got != "a.js:3:1: error: boom\n<project>: warning: global\n" {
		t.Fatalf("short output: %q", got)
	}
}

func TestPrettyWidth(t *testing.T) {
	var buf bytes.Buffer
	entries := []diag.Entry{{FilePath: "a.js", Message: strings.Repeat("x", 40)}}
	if err := Pretty(&buf, entries, PrettyOpts{Width: 10}); err != nil {
		t.Fatalf("pretty: %v", err)
	}
	if !strings.Contains(buf.String(), "xxxxxxxxx…") || strings.Contains(buf.String(), strings.Repeat("x", 11)) {
		t.Fatalf("message not clipped: %q", buf.String())
	}
}
