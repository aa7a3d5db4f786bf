// Package diagfmt decodes and encodes diagnostic snapshots and renders them
// for terminals.
package diagfmt

import (
	"fmt"

	"golang.org/x/text/unicode/norm"

	"diagnav/internal/diag"
)

// PositionDoc is a zero-based row/column pair on the wire.
type PositionDoc struct {
	Row    int `json:"row" msgpack:"row"`
	Column int `json:"column" msgpack:"column"`
}

// RangeDoc is a range on the wire. End is optional.
type RangeDoc struct {
	Start PositionDoc  `json:"start" msgpack:"start"`
	End   *PositionDoc `json:"end,omitempty" msgpack:"end,omitempty"`
}

// TraceDoc is a trace on the wire.
type TraceDoc struct {
	FilePath string    `json:"filePath,omitempty" msgpack:"filePath,omitempty"`
	Range    *RangeDoc `json:"range,omitempty" msgpack:"range,omitempty"`
	Text     string    `json:"text,omitempty" msgpack:"text,omitempty"`
}

// EntryDoc is one diagnostic on the wire.
//
// Trace has no omitempty: a missing or null list means the
// source has no trace information, an empty list means it has none to offer.
type EntryDoc struct {
	Scope    string     `json:"scope,omitempty" msgpack:"scope,omitempty"`
	FilePath string     `json:"filePath,omitempty" msgpack:"filePath,omitempty"`
	Range    *RangeDoc  `json:"range,omitempty" msgpack:"range,omitempty"`
	Severity string     `json:"severity,omitempty" msgpack:"severity,omitempty"`
	Code     string     `json:"code,omitempty" msgpack:"code,omitempty"`
	Message  string     `json:"message,omitempty" msgpack:"message,omitempty"`
	Source   string     `json:"source,omitempty" msgpack:"source,omitempty"`
	Trace    []TraceDoc `json:"trace" msgpack:"trace"`
}

// SnapshotDoc is the root object of a snapshot document.
type SnapshotDoc struct {
	Diagnostics []EntryDoc `json:"diagnostics" msgpack:"diagnostics"`
	Count       int        `json:"count,omitempty" msgpack:"count,omitempty"`
}

// FromSnapshot builds the wire form of snap.
func FromSnapshot(snap diag.Snapshot) SnapshotDoc {
	out := SnapshotDoc{Diagnostics: make([]EntryDoc, 0, len(snap)), Count: len(snap)}
	for _, e := range snap {
		doc := EntryDoc{
			Scope:    e.Scope.String(),
			FilePath: e.FilePath,
			Range:    rangeDoc(e.Range),
			Severity: e.Severity.Label(),
			Code:     e.Code,
			Message:  e.Message,
			Source:   e.Source,
		}
		if e.Traces != nil {
			doc.Trace = make([]TraceDoc, len(e.Traces))
			for i, t := range e.Traces {
				doc.Trace[i] = TraceDoc{FilePath: t.FilePath, Range: rangeDoc(t.Range), Text: t.Text}
			}
		}
		out.Diagnostics = append(out.Diagnostics, doc)
	}
	return out
}

// Snapshot converts the document into the data model. Paths are normalized
// to NFC so that the same file reported by different tools compares equal.
func (d SnapshotDoc) Snapshot() (diag.Snapshot, error) {
	return entriesToSnapshot(d.Diagnostics)
}

func entriesToSnapshot(docs []EntryDoc) (diag.Snapshot, error) {
	snap := make(diag.Snapshot, 0, len(docs))
	for i, doc := range docs {
		e, err := doc.entry()
		if err != nil {
			return nil, fmt.Errorf("diagnostic %d: %w", i, err)
		}
		snap = append(snap, e)
	}
	return snap, nil
}

func (doc EntryDoc) entry() (diag.Entry, error) {
	scope, err := diag.ParseScope(doc.Scope)
	if err != nil {
		return diag.Entry{}, err
	}
	sev, err := diag.ParseSeverity(doc.Severity)
	if err != nil {
		return diag.Entry{}, err
	}
	e := diag.Entry{
		Scope:    scope,
		FilePath: normPath(doc.FilePath),
		Range:    doc.Range.model(),
		Severity: sev,
		Code:     doc.Code,
		Message:  doc.Message,
		Source:   doc.Source,
	}
	if doc.Trace != nil {
		e.Traces = make([]diag.Trace, len(doc.Trace))
		for i, t := range doc.Trace {
			e.Traces[i] = diag.Trace{FilePath: normPath(t.FilePath), Range: t.Range.model(), Text: t.Text}
		}
	}
	return e, nil
}

func (r *RangeDoc) model() *diag.Range {
	if r == nil {
		return nil
	}
	out := &diag.Range{Start: diag.Position{Row: r.Start.Row, Column: r.Start.Column}}
	if r.End != nil {
		out.End = diag.Position{Row: r.End.Row, Column: r.End.Column}
	} else {
		out.End = out.Start
	}
	return out
}

func rangeDoc(r *diag.Range) *RangeDoc {
	if r == nil {
		return nil
	}
	return &RangeDoc{
		Start: PositionDoc{Row: r.Start.Row, Column: r.Start.Column},
		End:   &PositionDoc{Row: r.End.Row, Column: r.End.Column},
	}
}

func normPath(p string) string {
	if p == "" || norm.NFC.IsNormalString(p) {
		return p
	}
	return norm.NFC.String(p)
}
