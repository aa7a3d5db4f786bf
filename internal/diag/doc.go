// Package diag defines the diagnostic model consumed by the navigator and
// its feeds.
//
// # Purpose
//
//   - Provide plain, serialisable records for diagnostics delivered by an
//     upstream engine (linter, type checker, language server).
//   - Describe the location shape handed to an opener: a file alone, or a
//     file with a zero-based row/column.
//
// # Scope
//
// Package diag does not perform any IO, decoding or navigation. Decoding
// lives in internal/diagfmt, feeds in internal/feed, and cursor logic in
// internal/nav.
//
// # Data model
//
// Entry is the central record. It contains:
//
//   - Scope – file or project; only file entries are navigable.
//   - FilePath – the file the diagnostic belongs to.
//   - Range – optional; nil means the diagnostic has no precise position.
//   - Traces – ordered related locations ("declared here", "called from").
//   - Severity, Code, Message, Source – informational, carried through for
//     rendering only.
//
// A Trace is navigable only when it has both a file path and a range.
// Positions are zero-based, exactly as the feed delivers them; openers that
// talk to editors convert to one-based lines themselves.
//
// Snapshot is the full list of entries at a point in time. Snapshots are
// never patched: every feed event replaces the previous one wholesale.
package diag
