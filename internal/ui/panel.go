// Package ui is the interactive diagnostics panel.
package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"diagnav/internal/command"
	"diagnav/internal/diag"
	"diagnav/internal/feed"
	"diagnav/internal/nav"
	"diagnav/internal/opener"
)

// Dispatcher runs a command by name.
type Dispatcher interface {
	Dispatch(name string) error
}

// Options wires a panel. Relay must be the feed the Navigator subscribed to:
// snapshots read from Snapshots are published into it from Update, so the
// Navigator only ever runs on the bubbletea goroutine.
type Options struct {
	Title      string
	Navigator  *nav.Navigator
	Relay      *feed.Relay
	Commands   Dispatcher
	Keys       *command.KeyMap
	Snapshots  <-chan diag.Snapshot
	LastOpened *opener.Recorder
	ShowTraces bool
}

type snapshotMsg diag.Snapshot
type feedDoneMsg struct{}

// Model is the bubbletea model of the panel.
type Model struct {
	title      string
	nav        *nav.Navigator
	relay      *feed.Relay
	commands   Dispatcher
	keys       *command.KeyMap
	helpKeys   helpKeyMap
	help       help.Model
	snapshots  <-chan diag.Snapshot
	lastOpened *opener.Recorder

	snap       diag.Snapshot
	showTraces bool
	feedDone   bool
	problem    string
	width      int
	height     int
}

// New returns a panel model.
func New(opts Options) *Model {
	km := opts.Keys
	if km == nil {
		km = DefaultKeyMap()
	}
	return &Model{
		title:      opts.Title,
		nav:        opts.Navigator,
		relay:      opts.Relay,
		commands:   opts.Commands,
		keys:       km,
		helpKeys:   newHelpKeyMap(km),
		help:       help.New(),
		snapshots:  opts.Snapshots,
		lastOpened: opts.LastOpened,
		showTraces: opts.ShowTraces,
		width:      80,
		height:     24,
	}
}

// Init starts listening for snapshots.
func (m *Model) Init() tea.Cmd {
	return m.listenForSnapshot()
}

// Update applies one message.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.snap = diag.Snapshot(msg)
		m.problem = ""
		if m.relay != nil {
			m.relay.Publish(m.snap)
		}
		return m, m.listenForSnapshot()
	case feedDoneMsg:
		m.feedDone = true
		return m, nil
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.help.Width = msg.Width
		}
		if msg.Height > 0 {
			m.height = msg.Height
		}
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg.String())
	}
	return m, nil
}

func (m *Model) handleKey(k string) tea.Cmd {
	name, ok := m.keys.Lookup(k)
	if !ok {
		return nil
	}
	switch name {
	case CmdQuit:
		return tea.Quit
	case CmdToggleTraces:
		m.showTraces = !m.showTraces
		return nil
	case CmdToggleHelp:
		m.help.ShowAll = !m.help.ShowAll
		return nil
	}
	m.problem = ""
	if name == nav.CmdOpenAll && m.nav != nil {
		// called directly so the limit error reaches the status tile
		if err := m.nav.OpenAll(); err != nil {
			m.problem = err.Error()
		}
		return nil
	}
	if m.commands == nil {
		return nil
	}
	if err := m.commands.Dispatch(name); err != nil {
		m.problem = err.Error()
	}
	return nil
}

func (m *Model) listenForSnapshot() tea.Cmd {
	if m.snapshots == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-m.snapshots
		if !ok {
			return feedDoneMsg{}
		}
		return snapshotMsg(snap)
	}
}

// View renders the panel.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n\n")

	var entries []diag.Entry
	primary, secondary := nav.Unset(), nav.Unset()
	if m.nav != nil {
		entries = m.nav.Entries()
		primary, secondary = m.nav.Primary(), m.nav.Secondary()
	}

	traceLines := m.traceLines(secondary)
	reserved := 2 + 4 + 2 + len(traceLines)
	rows := max(3, m.height-reserved)

	if len(entries) == 0 {
		b.WriteString(dimStyle.Render("  no file diagnostics"))
		b.WriteString("\n")
	}
	from, to := window(len(entries), primary, rows)
	for i := from; i < to; i++ {
		b.WriteString(m.entryLine(entries[i], primary.Is(i)))
		b.WriteString("\n")
	}
	if len(traceLines) > 0 {
		b.WriteString("\n")
		for _, line := range traceLines {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	b.WriteString(m.statusTile())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.helpKeys))
	return b.String()
}

func (m *Model) header() string {
	title := "diagnav"
	if m.title != "" {
		title += "  " + m.title
	}
	project := 0
	for _, e := range m.snap {
		if e.Scope == diag.ScopeProject {
			project++
		}
	}
	sub := fmt.Sprintf("%d file diagnostics", m.navLen())
	if project > 0 {
		sub += fmt.Sprintf(", %d project", project)
	}
	if m.feedDone {
		sub += ", feed ended"
	}
	return titleStyle.Render(title) + "  " + subtitleStyle.Render(sub)
}

func (m *Model) navLen() int {
	if m.nav == nil {
		return 0
	}
	return m.nav.Len()
}

func (m *Model) entryLine(e diag.Entry, selected bool) string {
	marker := "  "
	style := itemStyle
	if selected {
		marker = "> "
		style = cursorStyle
	}
	locWidth := min(40, max(12, m.width/3))
	loc := pad(e.Location().String(), locWidth)
	msgWidth := max(10, m.width-locWidth-6)
	msg := truncate(firstLine(e.Message), msgWidth)
	sev := styleSeverity(e.Severity).Render(severityMark(e.Severity))
	return marker + sev + " " + style.Render(loc+" "+msg)
}

func (m *Model) traceLines(secondary nav.Cursor) []string {
	if !m.showTraces || m.nav == nil {
		return nil
	}
	cur, ok := m.nav.Current()
	if !ok || len(cur.Traces) == 0 {
		return nil
	}
	traces := cur.Traces
	lines := make([]string, 0, len(traces)+1)
	header := fmt.Sprintf("  traces (%d) of %s", len(traces), cur.Location())
	lines = append(lines, subtitleStyle.Render(truncate(header, m.width-2)))
	for t, tr := range traces {
		marker := "    "
		if secondary.Is(t) {
			marker = "  > "
		}
		where := tr.FilePath
		if loc, ok := tr.Location(); ok {
			where = loc.String()
		}
		if where == "" {
			where = "<unknown>"
		}
		text := truncate(marker+where+"  "+firstLine(tr.Text), m.width-2)
		switch {
		case !tr.Navigable():
			lines = append(lines, dimStyle.Render(text))
		case secondary.Is(t):
			lines = append(lines, cursorStyle.Render(text))
		default:
			lines = append(lines, itemStyle.Render(text))
		}
	}
	return lines
}

func (m *Model) statusTile() string {
	errs, warns, infos := m.snap.Counts()
	counts := styleSeverity(diag.SevError).Render(fmt.Sprintf("%d errors", errs)) + "  " +
		styleSeverity(diag.SevWarning).Render(fmt.Sprintf("%d warnings", warns)) + "  " +
		styleSeverity(diag.SevInfo).Render(fmt.Sprintf("%d info", infos))
	last := "last: -"
	if m.lastOpened != nil {
		if loc, ok := m.lastOpened.Last(); ok {
			last = "last: " + loc.String()
		}
	}
	lines := []string{counts, statusStyle.Render(truncate(last, m.width-6))}
	if m.problem != "" {
		lines = append(lines, problemStyle.Render(truncate(m.problem, m.width-6)))
	}
	return tileStyle.Render(strings.Join(lines, "\n"))
}

// window returns the visible slice [from, to) of n rows that keeps the
// primary cursor in view.
func window(n int, primary nav.Cursor, rows int) (int, int) {
	if n <= rows {
		return 0, n
	}
	i, ok := primary.Index()
	if !ok {
		return 0, rows
	}
	from := max(0, i-rows/2)
	if from+rows > n {
		from = n - rows
	}
	return from, from + rows
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// ErrNoNavigator is returned by Run when Options.Navigator is nil.
var ErrNoNavigator = errors.New("ui: navigator is required")

// Run starts a bubbletea program for opts and blocks until the user quits.
func Run(opts Options, progOpts ...tea.ProgramOption) error {
	if opts.Navigator == nil {
		return ErrNoNavigator
	}
	_, err := tea.NewProgram(New(opts), progOpts...).Run()
	return err
}
