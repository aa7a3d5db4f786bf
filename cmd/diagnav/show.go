package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"diagnav/internal/diag"
	"diagnav/internal/diagfmt"
)

var showCmd = &cobra.Command{
	Use:   "show <snapshot|->",
	Short: "Print the navigable diagnostics of a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		all, _ := cmd.Flags().GetBool("all")
		noTraces, _ := cmd.Flags().GetBool("no-traces")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		snap, err := readSnapshot(args[0], cfg)
		if err != nil {
			return err
		}
		entries := snap.FileEntries()
		if all {
			entries = snap
		}

		if output, _ := cmd.Flags().GetString("output"); output != "" {
			if err := diagfmt.WriteFile(output, diag.Snapshot(entries)); err != nil {
				return fmt.Errorf("--output: %w", err)
			}
			return nil
		}

		out := cmd.OutOrStdout()
		switch strings.ToLower(format) {
		case "pretty":
			color, err := useColor(cmd)
			if err != nil {
				return err
			}
			return diagfmt.Pretty(out, entries, diagfmt.PrettyOpts{Color: color, Width: terminalWidth(os.Stdout), ShowTraces: !noTraces})
		case "short":
			return diagfmt.Short(out, entries)
		default:
			f, err := diagfmt.ParseFormat(format)
			if err != nil {
				return fmt.Errorf("--format: %w (expected pretty|short|json|msgpack)", err)
			}
			return diagfmt.Encode(out, diag.Snapshot(entries), f)
		}
	},
}

func init() {
	showCmd.Flags().String("format", "pretty", "output format (pretty|short|json|msgpack)")
	showCmd.Flags().Bool("all", false, "include project-scoped diagnostics")
	showCmd.Flags().Bool("no-traces", false, "omit traces in pretty output")
	showCmd.Flags().String("output", "", "write the listed diagnostics as a snapshot file (.msgpack/.mpk/.mp for msgpack, JSON otherwise)")
}
