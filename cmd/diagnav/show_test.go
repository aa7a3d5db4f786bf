package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"diagnav/internal/diag"
	"diagnav/internal/diagfmt"
)

func TestShowOutput(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "diagnav.toml")
	if err := os.WriteFile(cfgPath, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	in := filepath.Join(dir, "in.json")
	if err := diagfmt.WriteFile(in, diag.Snapshot{
		{FilePath: "a.js", Severity: diag.SevError, Message: "boom"},
		{Scope: diag.ScopeProject, Message: "global"},
	}); err != nil {
		t.Fatal(err)
	}

	for _, tt := range []struct {
		args []string
		want int
	}{
		{nil, 1},
		{[]string{"--all"}, 2},
	} {
		out := filepath.Join(dir, "out.msgpack")
		root := &cobra.Command{Use: "diagnav", SilenceUsage: true}
		registerGlobalFlags(root)
		root.AddCommand(showCmd)
		root.SetArgs(append([]string{"show", "--config", cfgPath, "--output", out, in}, tt.args...))
		if err := root.ExecuteContext(context.Background()); err != nil {
			t.Fatalf("show %v: %v", tt.args, err)
		}
		root.RemoveCommand(showCmd)
		_ = showCmd.Flags().Set("all", "false")

		got, err := diagfmt.DecodeFile(out)
		if err != nil {
			t.Fatalf("decode output: %v", err)
		}
		if len(got) != tt.want || got[0].FilePath != "a.js" || got[0].Message != "boom" {
			t.Fatalf("show %v wrote %+v", tt.args, got)
		}
	}
}
