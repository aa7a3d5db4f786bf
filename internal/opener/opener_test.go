package opener

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/kballard/go-shellquote"

	"diagnav/internal/diag"
)

func TestPrinterPlain(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)
	if err := p.Open(diag.At("a.js", diag.Position{Row: 2, Column: 0})); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := p.Open(diag.FileOnly("b.js")); err != nil {
		t.Fatalf("open: %v", err)
	}
	if got, want := buf.String(), "a.js:3:1\nb.js\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestExecArgv(t *testing.T) {
	cases := []struct {
		name string
		exec *Exec
		loc  diag.Location
		want []string
	}{
		{
			name: "positioned",
			exec: NewExec("code -g {file}:{line}:{col}", ""),
			loc:  diag.At("src/a b.js", diag.Position{Row: 4, Column: 2}),
			want: []string{"code", "-g", "src/a b.js:5:3"},
		},
		{
			name: "zero-based placeholders",
			exec: NewExec("ed --row={row} --column={column} {file}", ""),
			loc:  diag.At("a.js", diag.Position{Row: 4, Column: 2}),
			want: []string{"ed", "--row=4", "--column=2", "a.js"},
		},
		{
			name: "file only falls back to line 1",
			exec: NewExec("nvim +{line} {file}", ""),
			loc:  diag.FileOnly("b.js"),
			want: []string{"nvim", "+1", "b.js"},
		},
		{
			name: "file only template",
			exec: NewExec("nvim +{line} {file}", "nvim {file}"),
			loc:  diag.FileOnly("b.js"),
			want: []string{"nvim", "b.js"},
		},
		{
			name: "quoted arguments",
			exec: NewExec(`emacsclient -n "+{line}:{col}" '{file}'`, ""),
			loc:  diag.At("c.js", diag.Position{}),
			want: []string{"emacsclient", "-n", "+1:1", "c.js"},
		},
		{
			name: "backslash escape, no variable expansion",
			exec: NewExec(`my\ editor --goto={file}:{line} "$HOME"`, ""),
			loc:  diag.At("d e.js", diag.Position{Row: 1}),
			want: []string{"my editor", "--goto=d e.js:2", "$HOME"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.exec.Argv(tc.loc)
			if err != nil {
				t.Fatalf("argv: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExecErrors(t *testing.T) {
	if _, err := NewExec("   ", "").Argv(diag.FileOnly("a")); !errors.Is(err, ErrEmptyCommand) {
		t.Fatalf("expected ErrEmptyCommand, got %v", err)
	}
	if _, err := NewExec(`code "{file}`, "").Argv(diag.FileOnly("a")); !errors.Is(err, shellquote.UnterminatedDoubleQuoteError) {
		t.Fatalf("expected unterminated quote error, got %v", err)
	}
	if _, err := NewExec(`code '{file}`, "").Argv(diag.FileOnly("a")); !errors.Is(err, shellquote.UnterminatedSingleQuoteError) {
		t.Fatalf("expected unterminated single quote error, got %v", err)
	}
}

func TestExecOpenUsesStarter(t *testing.T) {
	e := NewExec("code -g {file}:{line}", "")
	var gotName string
	var gotArgs []string
	e.start = func(name string, args []string) error {
		gotName, gotArgs = name, args
		return nil
	}
	if err := e.Open(diag.At("a.js", diag.Position{Row: 0})); err != nil {
		t.Fatalf("open: %v", err)
	}
	if gotName != "code" || !reflect.DeepEqual(gotArgs, []string{"-g", "a.js:1"}) {
		t.Fatalf("unexpected exec: %s %v", gotName, gotArgs)
	}

	boom := errors.New("boom")
	e.start = func(string, []string) error { return boom }
	if err := e.Open(diag.FileOnly("a.js")); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped start error, got %v", err)
	}
}

func TestMultiAndRecorder(t *testing.T) {
	rec := &Recorder{}
	boom := errors.New("boom")
	m := Multi{Func(func(diag.Location) error { return boom }), nil, rec}
	if err := m.Open(diag.FileOnly("a.js")); !errors.Is(err, boom) {
		t.Fatalf("expected first error, got %v", err)
	}
	last, ok := rec.Last()
	if !ok || last.Path != "a.js" {
		t.Fatalf("recorder skipped after failing member: %+v", rec.Calls())
	}
	rec.Reset()
	if len(rec.Calls()) != 0 {
		t.Fatalf("reset did not clear calls")
	}
}
