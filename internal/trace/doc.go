// Package trace provides the tracing subsystem used as diagnav's log.
//
// The trace package records session startup, snapshot arrivals, command
// dispatches and opener calls so that a misbehaving editor integration can be
// diagnosed after the fact.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	diagnav browse --trace=- --trace-level=command diagnostics.json
//
// # Architecture
//
// The package provides several tracer implementations:
//
//   - Nop: Zero-overhead no-op tracer when disabled
//   - StreamTracer: Immediate write to output (file/stderr)
//   - RingTracer: Circular buffer, dumped to stderr when a command fails
//   - MultiTracer: Combines multiple tracers
//   - TaggedTracer: Adds fixed key-value pairs (session id) to every event
//
// # Levels
//
//   - LevelOff: No tracing
//   - LevelError: Only failures (opener errors, undecodable snapshots)
//   - LevelSession: Session and feed events
//   - LevelCommand: Navigation commands
//   - LevelDebug: Everything including every opener call
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopeFeed, "decode")
//	defer span.End("")
package trace
