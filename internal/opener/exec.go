package opener

import (
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"

	"diagnav/internal/diag"
)

// ErrEmptyCommand is returned when a template expands to nothing.
var ErrEmptyCommand = errors.New("empty open command")

// Exec runs an editor command built from a template such as
//
//	code -g {file}:{line}:{col}
//
// Placeholders: {file}, {line} and {col} (one-based), {row} and {column}
// (zero-based). FileOnly, when set, is used for locations without a
// position; otherwise {line} and {col} expand to 1.
type Exec struct {
	Command  string
	FileOnly string

	// start launches the process; tests replace it.
	start func(name string, args []string) error
}

// NewExec builds an exec opener.
func NewExec(command, fileOnly string) *Exec {
	return &Exec{Command: command, FileOnly: fileOnly, start: startDetached}
}

// Open starts the editor without waiting for it.
func (e *Exec) Open(loc diag.Location) error {
	argv, err := e.Argv(loc)
	if err != nil {
		return err
	}
	start := e.start
	if start == nil {
		start = startDetached
	}
	if err := start(argv[0], argv[1:]); err != nil {
		return fmt.Errorf("open %s: %w", loc, err)
	}
	return nil
}

// Argv splits the template into shell words (quotes and backslash escapes
// as in a POSIX shell, no expansion) and then fills the placeholders of each
// word, so a path with spaces stays one argument.
func (e *Exec) Argv(loc diag.Location) ([]string, error) {
	tmpl := e.Command
	if !loc.HasPosition && strings.TrimSpace(e.FileOnly) != "" {
		tmpl = e.FileOnly
	}
	fields, err := shellquote.Split(tmpl)
	if err != nil {
		return nil, fmt.Errorf("open command %q: %w", tmpl, err)
	}
	if len(fields) == 0 {
		return nil, ErrEmptyCommand
	}
	line, col, row, column := "1", "1", "0", "0"
	if loc.HasPosition {
		line = strconv.Itoa(loc.Row + 1)
		col = strconv.Itoa(loc.Column + 1)
		row = strconv.Itoa(loc.Row)
		column = strconv.Itoa(loc.Column)
	}
	r := strings.NewReplacer(
		"{file}", loc.Path,
		"{line}", line,
		"{col}", col,
		"{row}", row,
		"{column}", column,
	)
	argv := make([]string, len(fields))
	for i, f := range fields {
		argv[i] = r.Replace(f)
	}
	return argv, nil
}

func startDetached(name string, args []string) error {
	// #nosec G204 -- the command comes from the user's own config
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }() //nolint:errcheck
	return nil
}
