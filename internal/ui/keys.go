package ui

import (
	"github.com/charmbracelet/bubbles/key"

	"diagnav/internal/command"
	"diagnav/internal/nav"
)

// Panel-local commands. They never reach the registry.
const (
	CmdQuit         = "quit"
	CmdToggleTraces = "toggle-traces"
	CmdToggleHelp   = "toggle-help"
)

var helpLabels = map[string]string{
	nav.CmdFirst:         "first",
	nav.CmdLast:          "last",
	nav.CmdNext:          "next",
	nav.CmdPrevious:      "previous",
	nav.CmdNextTrace:     "next trace",
	nav.CmdPreviousTrace: "previous trace",
	nav.CmdOpenAll:       "open all",
	CmdQuit:              "quit",
	CmdToggleTraces:      "traces",
	CmdToggleHelp:        "help",
}

// IsCommand reports whether name is a navigation or panel command.
func IsCommand(name string) bool {
	switch name {
	case CmdQuit, CmdToggleTraces, CmdToggleHelp:
		return true
	}
	return nav.IsCommand(name)
}

// DefaultKeyMap returns the stock bindings.
func DefaultKeyMap() *command.KeyMap {
	km := command.NewKeyMap()
	km.Bind(nav.CmdFirst, "g", "home")
	km.Bind(nav.CmdLast, "G", "end")
	km.Bind(nav.CmdNext, "n", "j", "down")
	km.Bind(nav.CmdPrevious, "p", "k", "up")
	km.Bind(nav.CmdNextTrace, "]")
	km.Bind(nav.CmdPreviousTrace, "[")
	km.Bind(nav.CmdOpenAll, "O")
	km.Bind(CmdToggleTraces, "t")
	km.Bind(CmdToggleHelp, "?")
	km.Bind(CmdQuit, "q", "ctrl+c")
	return km
}

// helpKeyMap adapts a command.KeyMap to bubbles/help.
type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func newHelpKeyMap(km *command.KeyMap) helpKeyMap {
	binding := func(name string) key.Binding {
		keys := km.Keys(name)
		if len(keys) == 0 {
			return key.NewBinding(key.WithDisabled())
		}
		label := helpLabels[name]
		if label == "" {
			label = name
		}
		return key.NewBinding(key.WithKeys(keys...), key.WithHelp(keys[0], label))
	}
	motion := []key.Binding{binding(nav.CmdNext), binding(nav.CmdPrevious), binding(nav.CmdFirst), binding(nav.CmdLast)}
	traces := []key.Binding{binding(nav.CmdNextTrace), binding(nav.CmdPreviousTrace), binding(CmdToggleTraces)}
	misc := []key.Binding{binding(nav.CmdOpenAll), binding(CmdToggleHelp), binding(CmdQuit)}
	return helpKeyMap{
		short: []key.Binding{motion[0], motion[1], traces[0], traces[1], misc[1], misc[2]},
		full:  [][]key.Binding{motion, traces, misc},
	}
}

func (h helpKeyMap) ShortHelp() []key.Binding  { return h.short }
func (h helpKeyMap) FullHelp() [][]key.Binding { return h.full }
