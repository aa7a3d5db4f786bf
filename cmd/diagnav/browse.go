package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"diagnav/internal/command"
	"diagnav/internal/config"
	"diagnav/internal/diag"
	"diagnav/internal/feed"
	"diagnav/internal/host"
	"diagnav/internal/nav"
	"diagnav/internal/opener"
	"diagnav/internal/trace"
	"diagnav/internal/ui"
)

var browseCmd = &cobra.Command{
	Use:   "browse <snapshot|->",
	Short: "Navigate diagnostics interactively",
	Long: `browse loads a diagnostics snapshot and lets you step through it.

With a terminal on stdout the panel UI is used, unless commands are piped
into stdin while the diagnostics come from a file. Otherwise commands are read
from stdin, one per line: a bound key ("n", "]") or a full command name
("go-to-next-diagnostic"). "quit" ends the session.`,
	Args: cobra.ExactArgs(1),
	RunE: runBrowse,
}

func init() {
	browseCmd.Flags().String("feed", "", "snapshot source (file|stream|lsp; default: file, stream for -)")
	browseCmd.Flags().Bool("watch", false, "re-read the snapshot file when it changes")
	browseCmd.Flags().String("ui", "auto", "panel UI (auto|on|off)")
	browseCmd.Flags().String("open", "", "editor command template, e.g. \"code -g {file}:{line}:{col}\"")
}

type browseSession struct {
	cfg    *config.Config
	keys   *command.KeyMap
	src    feed.Source
	tracer trace.Tracer
	color  bool
	quiet  bool
	open   string
	stdin  bool // the feed reads stdin
}

func runBrowse(cmd *cobra.Command, args []string) error {
	arg := args[0]
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	keys, err := keyMap(cfg)
	if err != nil {
		return err
	}
	color, err := useColor(cmd)
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	feedFlag, _ := cmd.Flags().GetString("feed")
	watch, _ := cmd.Flags().GetBool("watch")
	uiFlag, _ := cmd.Flags().GetString("ui")
	openFlag, _ := cmd.Flags().GetString("open")

	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}
	kind, err := readFeedKind(feedFlag, arg)
	if err != nil {
		return err
	}
	tracer := trace.FromContext(cmd.Context())
	src, closeSrc, err := openSource(arg, kind, watch, cfg, tracer)
	if err != nil {
		return err
	}
	defer closeSrc()

	s := &browseSession{
		cfg:    cfg,
		keys:   keys,
		src:    src,
		tracer: tracer,
		color:  color,
		quiet:  quiet,
		open:   openFlag,
		stdin:  arg == "-" && kind != feedFile,
	}
	if mode.usePanel(currentTTYs(), s.stdin) {
		return s.runPanel(cmd.Context(), arg)
	}
	if s.stdin {
		return errors.New("line mode reads commands from stdin; pass a snapshot file or use --ui on")
	}
	return s.runLines(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
}

// runPanel drives the bubbletea panel. The feed goroutine only hands
// snapshots to a channel; the panel publishes them into the navigator's
// relay from its Update loop.
func (s *browseSession) runPanel(ctx context.Context, title string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	relay := feed.NewRelay()
	reg := command.NewRegistry()
	last := &opener.Recorder{}
	op := buildOpener(s.cfg, s.open, nil, false, last)
	n := nav.New(relay, reg, op, nav.Options{Tracer: s.tracer, MaxOpenAll: s.cfg.UI.MaxOpenAll})
	defer n.Dispose()

	snaps := make(chan diag.Snapshot, 1)
	sub := s.src.Subscribe(func(snap diag.Snapshot) {
		select {
		case snaps <- snap:
		case <-ctx.Done():
		}
	})
	defer sub.Dispose()

	feedErr := make(chan error, 1)
	go func() {
		err := s.src.Start(ctx)
		feedErr <- err
		// a file feed stays quiet after its first snapshot; anything
		// else has reached the end of its input
		if _, isFile := feed.Base(s.src).(*feed.FileFeed); !isFile || err != nil {
			close(snaps)
		}
	}()

	progOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if s.stdin {
		progOpts = append(progOpts, tea.WithInputTTY())
	}
	uiErr := ui.Run(ui.Options{
		Title:      title,
		Navigator:  n,
		Relay:      relay,
		Commands:   reg,
		Keys:       s.keys,
		Snapshots:  snaps,
		LastOpened: last,
		ShowTraces: s.cfg.UI.ShowTraces,
	}, progOpts...)
	cancel()
	if uiErr != nil && !errors.Is(uiErr, tea.ErrProgramKilled) {
		return uiErr
	}
	select {
	case err := <-feedErr:
		return err
	default:
		return nil
	}
}

// runLines is line mode: the host loop owns the navigator; the feed and the
// stdin reader post to it.
func (s *browseSession) runLines(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	out = &lockedWriter{w: out}

	loop := host.NewLoop(0)
	reg := command.NewRegistry()
	op := buildOpener(s.cfg, s.open, out, s.color)
	n := nav.New(loop.Serialize(s.src), reg, op, nav.Options{Tracer: s.tracer, MaxOpenAll: s.cfg.UI.MaxOpenAll})
	if !s.quiet {
		n.OnChange(lineStatus(n, out))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := loop.Run(gctx)
		n.Dispose()
		return err
	})
	g.Go(func() error {
		return s.src.Start(gctx)
	})
	g.Go(func() error {
		defer cancel()
		defer loop.Close()
		return s.readCommands(gctx, loop, reg, n, in, out)
	})
	return g.Wait()
}

func (s *browseSession) readCommands(ctx context.Context, loop *host.Loop, reg *command.Registry, n *nav.Navigator, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
		close(lines)
	}()

	if !s.quiet {
		fmt.Fprintln(out, "reading commands from stdin (? lists bindings, q quits)")
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-readErr
			}
			token := strings.TrimSpace(line)
			if token == "" {
				continue
			}
			name, err := s.keys.Resolve(token, ui.IsCommand)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			switch name {
			case ui.CmdQuit:
				return nil
			case ui.CmdToggleHelp:
				s.printBindings(out)
				continue
			case ui.CmdToggleTraces:
				continue
			}
			err = loop.Call(ctx, func() error {
				if name == nav.CmdOpenAll {
					return n.OpenAll()
				}
				return reg.Dispatch(name)
			})
			if errors.Is(err, host.ErrClosed) || errors.Is(err, context.Canceled) {
				return nil
			}
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		}
	}
}

// lineStatus reports the size of the working list after a snapshot and the
// selected diagnostic after a jump to it. Trace jumps print only the
// location.
func lineStatus(n *nav.Navigator, out io.Writer) func() {
	return func() {
		if !n.Primary().IsSet() {
			fmt.Fprintf(out, "-- %d file diagnostics\n", n.Len())
			return
		}
		if n.Secondary().IsSet() {
			return
		}
		e, ok := n.Current()
		if !ok {
			return
		}
		i, _ := n.Primary().Index()
		msg, _, _ := strings.Cut(e.Message, "\n")
		fmt.Fprintf(out, "   [%d/%d] %s: %s\n", i+1, n.Len(), e.Severity.Label(), msg)
	}
}

func (s *browseSession) printBindings(out io.Writer) {
	for _, name := range s.keys.Commands() {
		fmt.Fprintf(out, "  %-32s %s\n", name, strings.Join(s.keys.Keys(name), ", "))
	}
}

// lockedWriter serializes writes from the loop and the command reader.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
