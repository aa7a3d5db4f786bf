package main

import (
	"fmt"
	"os"
	"strings"
)

// uiMode is the --ui flag: auto picks between the panel and line mode.
type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	switch m := uiMode(strings.TrimSpace(strings.ToLower(value))); m {
	case "":
		return uiModeAuto, nil
	case uiModeAuto, uiModeOn, uiModeOff:
		return m, nil
	default:
		return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
}

// ttys records which standard streams are attached to a terminal.
type ttys struct {
	stdin, stdout bool
}

func currentTTYs() ttys {
	return ttys{stdin: isTerminal(os.Stdin), stdout: isTerminal(os.Stdout)}
}

// usePanel resolves the mode for one browse session. In auto mode the
// panel draws on stdout and takes keys from stdin, or from the controlling
// terminal when the feed already consumes stdin. Piped commands on a
// terminal stdout therefore still run in line mode.
func (m uiMode) usePanel(t ttys, feedOnStdin bool) bool {
	switch m {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	}
	if !t.stdout {
		return false
	}
	return t.stdin || feedOnStdin
}
