package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"diagnav/internal/feed"
	"diagnav/internal/nav"
	"diagnav/internal/trace"
)

var openAllCmd = &cobra.Command{
	Use:   "open-all <snapshot|->",
	Short: "Open the file of every file-scoped diagnostic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		color, err := useColor(cmd)
		if err != nil {
			return err
		}
		openFlag, _ := cmd.Flags().GetString("open")
		limit, _ := cmd.Flags().GetInt("max")
		if limit <= 0 {
			limit = cfg.UI.MaxOpenAll
		}

		snap, err := readSnapshot(args[0], cfg)
		if err != nil {
			return err
		}
		op := buildOpener(cfg, openFlag, cmd.OutOrStdout(), color)
		n := nav.New(feed.Static{Snapshot: snap}, nil, op, nav.Options{
			Tracer:     trace.FromContext(cmd.Context()),
			MaxOpenAll: limit,
		})
		defer n.Dispose()
		if err := n.OpenAll(); err != nil {
			return fmt.Errorf("%w (raise [ui].max_open_all or pass --max)", err)
		}
		return nil
	},
}

func init() {
	openAllCmd.Flags().String("open", "", "editor command template")
	openAllCmd.Flags().Int("max", 0, "refuse to open more files than this (default from config)")
}
