package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"diagnav/internal/command"
	"diagnav/internal/config"
	"diagnav/internal/diag"
	"diagnav/internal/diagfmt"
	"diagnav/internal/feed"
	"diagnav/internal/opener"
	"diagnav/internal/trace"
	"diagnav/internal/ui"
)

// loadConfig honors --config, otherwise searches upward from the working
// directory.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, err
	}
	if path != "" {
		return config.Load(path)
	}
	return config.Discover(".")
}

// keyMap returns the default bindings with [keys] applied.
func keyMap(cfg *config.Config) (*command.KeyMap, error) {
	km := ui.DefaultKeyMap()
	if err := cfg.ApplyKeys(km, ui.IsCommand); err != nil {
		return nil, err
	}
	return km, nil
}

// buildOpener picks the exec opener when a command template is configured
// (override wins over config) and the printer otherwise. extra openers run
// first.
func buildOpener(cfg *config.Config, override string, out io.Writer, color bool, extra ...opener.Opener) opener.Opener {
	cmdline := strings.TrimSpace(override)
	if cmdline == "" {
		cmdline = strings.TrimSpace(cfg.Open.Command)
	}
	members := append(opener.Multi{}, extra...)
	if cmdline != "" {
		members = append(members, opener.NewExec(cmdline, cfg.Open.FileOnlyCommand))
	} else if out != nil {
		members = append(members, opener.NewPrinter(out, color))
	}
	if len(members) == 1 {
		return members[0]
	}
	return members
}

type feedKind string

const (
	feedFile   feedKind = "file"
	feedStream feedKind = "stream"
	feedLSP    feedKind = "lsp"
)

func readFeedKind(value, arg string) (feedKind, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "":
		if arg == "-" {
			return feedStream, nil
		}
		return feedFile, nil
	case "file":
		return feedFile, nil
	case "stream", "ndjson":
		return feedStream, nil
	case "lsp":
		return feedLSP, nil
	default:
		return "", fmt.Errorf("invalid --feed value %q (expected file|stream|lsp)", value)
	}
}

// openSource builds the snapshot source for arg ("-" is stdin). The
// returned closer releases an opened file.
func openSource(arg string, kind feedKind, watch bool, cfg *config.Config, tr trace.Tracer) (feed.Source, func(), error) {
	nop := func() {}
	if kind == feedFile {
		if arg == "-" {
			return nil, nop, fmt.Errorf("--feed file needs a path, not stdin")
		}
		debounce, err := cfg.Debounce()
		if err != nil {
			return nil, nop, err
		}
		return filtered(feed.NewFileFeed(arg, feed.FileOptions{Watch: watch, Debounce: debounce, Tracer: tr}), cfg, tr, nop)
	}

	r := io.Reader(os.Stdin)
	closer := nop
	if arg != "-" {
		f, err := os.Open(arg)
		if err != nil {
			return nil, nop, err
		}
		r = f
		closer = func() { _ = f.Close() }
	}
	if kind == feedLSP {
		return filtered(feed.NewLSPFeed(r, tr), cfg, tr, closer)
	}
	return filtered(feed.NewStreamFeed(r, tr), cfg, tr, closer)
}

// filtered applies the config's [filter] section to src.
func filtered(src feed.Source, cfg *config.Config, tr trace.Tracer, closer func()) (feed.Source, func(), error) {
	x, err := cfg.Exclusion()
	if err != nil {
		closer()
		return nil, func() {}, err
	}
	return feed.NewFiltered(src, x, tr), closer, nil
}

// readSnapshot decodes a one-shot snapshot from a file or stdin and drops
// the entries excluded by cfg.
func readSnapshot(arg string, cfg *config.Config) (diag.Snapshot, error) {
	x, err := cfg.Exclusion()
	if err != nil {
		return nil, err
	}
	var snap diag.Snapshot
	if arg == "-" {
		snap, err = diagfmt.Decode(os.Stdin, diagfmt.FormatJSON)
		if err != nil {
			return nil, fmt.Errorf("stdin: %w", err)
		}
	} else if snap, err = diagfmt.DecodeFile(arg); err != nil {
		return nil, err
	}
	return x.Apply(snap), nil
}
