package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"diagnav/internal/version"
)

var traceCleanup = func() {}

var rootCmd = &cobra.Command{
	Use:           "diagnav",
	Short:         "Navigate diagnostics and their traces",
	Long:          `diagnav walks a list of diagnostics one at a time and opens each location (or its related traces) in your editor`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cleanup, err := setupTracing(cmd)
		if err != nil {
			return err
		}
		traceCleanup = cleanup
		return nil
	},
}

// main registers subcommands and persistent flags and runs the root command.
// A failing command exits with status 1.
func main() {
	rootCmd.Version = version.Colored(version.Current().Version)

	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(openAllCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(versionCmd)

	registerGlobalFlags(rootCmd)

	err := rootCmd.Execute()
	if err != nil {
		dumpTraceRing(rootCmd)
	}
	traceCleanup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "diagnav: %v\n", err)
		os.Exit(1)
	}
}

// registerGlobalFlags adds the persistent flags every subcommand reads.
func registerGlobalFlags(c *cobra.Command) {
	// Глобальные флаги
	c.PersistentFlags().String("config", "", "path to diagnav.toml / diagnav.yaml (default: search upward)")
	c.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	c.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	c.PersistentFlags().String("trace", "", "trace output file (- for stderr)")
	c.PersistentFlags().String("trace-level", "off", "trace level (off|error|session|command|debug)")
	c.PersistentFlags().String("trace-mode", "stream", "trace storage (stream|ring|both)")
	c.PersistentFlags().Int("trace-ring-size", 4096, "events kept in ring mode")
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the column count of f, or 0 when f is not a terminal.
func terminalWidth(f *os.File) int {
	if !isTerminal(f) {
		return 0
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return w
}

func useColor(cmd *cobra.Command) (bool, error) {
	flag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, err
	}
	switch flag {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto", "":
		return isTerminal(os.Stdout), nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", flag)
	}
}
