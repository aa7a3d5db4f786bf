package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"diagnav/internal/trace"
)

// setupTracing inspects trace-related flags and initializes the tracer.
// Every event carries the session id. It returns a cleanup function.
func setupTracing(cmd *cobra.Command) (func(), error) {
	root := cmd.Root()

	traceOutput, err := root.PersistentFlags().GetString("trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := root.PersistentFlags().GetString("trace-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	modeStr, err := root.PersistentFlags().GetString("trace-mode")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	ringSize, err := root.PersistentFlags().GetInt("trace-ring-size")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace level: %w", err)
	}
	// --trace without a level means errors only
	if level == trace.LevelOff && traceOutput != "" {
		level = trace.LevelError
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func() {}, nil
	}

	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace mode: %w", err)
	}

	base, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		OutputPath: traceOutput,
		RingSize:   ringSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	session := uuid.NewString()
	tracer := trace.NewTaggedTracer(base, "session", session)

	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)
	root.SetContext(ctx)

	span := trace.Begin(tracer, trace.ScopeSession, cmd.Name())
	return func() {
		span.End("")
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}, nil
}

// dumpTraceRing writes the in-memory ring, if tracing keeps one, to stderr.
func dumpTraceRing(cmd *cobra.Command) {
	ring, ok := findRing(trace.FromContext(cmd.Context()))
	if !ok || ring.Len() == 0 {
		return
	}
	fmt.Fprintln(os.Stderr, "--- trace ring ---")
	if err := ring.Dump(os.Stderr, trace.FormatText); err != nil {
		fmt.Fprintf(os.Stderr, "trace: dump error: %v\n", err)
	}
}

func findRing(t trace.Tracer) (*trace.RingTracer, bool) {
	for t != nil {
		switch v := t.(type) {
		case *trace.RingTracer:
			return v, true
		case *trace.MultiTracer:
			return v.Ring()
		case interface{ Unwrap() trace.Tracer }:
			t = v.Unwrap()
		default:
			return nil, false
		}
	}
	return nil, false
}
