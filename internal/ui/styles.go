package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"diagnav/internal/diag"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	subtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	itemStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	problemStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	tileStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
)

func styleSeverity(s diag.Severity) lipgloss.Style {
	switch s {
	case diag.SevError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case diag.SevWarning:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	}
}

func severityMark(s diag.Severity) string {
	switch s {
	case diag.SevError:
		return "E"
	case diag.SevWarning:
		return "W"
	default:
		return "I"
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}

// pad fills value with spaces up to width display cells.
func pad(value string, width int) string {
	return runewidth.FillRight(truncate(value, width), width)
}
