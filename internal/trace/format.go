package trace

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Format selects how events are serialized.
type Format uint8

const (
	FormatAuto   Format = iota // pick by output path
	FormatText                 // one logfmt-like line per event
	FormatNDJSON               // one JSON object per line
)

// ParseFormat converts a string to Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "text":
		return FormatText, nil
	case "ndjson", "jsonl":
		return FormatNDJSON, nil
	default:
		return FormatAuto, fmt.Errorf("invalid trace format: %q (expected: auto|text|ndjson)", s)
	}
}

// formatFor picks NDJSON for .ndjson/.jsonl outputs and text otherwise.
func formatFor(path string) Format {
	if strings.HasSuffix(path, ".ndjson") || strings.HasSuffix(path, ".jsonl") {
		return FormatNDJSON
	}
	return FormatText
}

// FormatEvent serializes ev, newline included.
func FormatEvent(ev *Event, format Format) []byte {
	if format == FormatNDJSON {
		return formatNDJSON(ev)
	}
	return formatText(ev)
}

type jsonEvent struct {
	Time   string            `json:"time"`
	Seq    uint64            `json:"seq"`
	Kind   string            `json:"kind"`
	Scope  string            `json:"scope"`
	Span   uint64            `json:"span,omitempty"`
	Parent uint64            `json:"parent,omitempty"`
	Name   string            `json:"name"`
	Detail string            `json:"detail,omitempty"`
	DurUS  int64             `json:"dur_us,omitempty"`
	Extra  map[string]string `json:"extra,omitempty"`
}

func formatNDJSON(ev *Event) []byte {
	data, err := json.Marshal(jsonEvent{
		Time:   ev.Time.Format(time.RFC3339Nano),
		Seq:    ev.Seq,
		Kind:   ev.Kind.String(),
		Scope:  ev.Scope.String(),
		Span:   ev.SpanID,
		Parent: ev.ParentID,
		Name:   ev.Name,
		Detail: ev.Detail,
		DurUS:  ev.Dur.Microseconds(),
		Extra:  ev.Extra,
	})
	if err != nil {
		// map[string]string always marshals; keep the line anyway
		data = []byte(strconv.Quote(err.Error()))
	}
	return append(data, '\n')
}

// formatText renders
//
//	15:04:05.000 end   command/go-to-next-diagnostic "a.js:3:1" dur=120µs index=1
//
// Nested spans are indented two spaces per level.
func formatText(ev *Event) []byte {
	var sb strings.Builder
	sb.WriteString(ev.Time.Format("15:04:05.000"))
	sb.WriteByte(' ')
	fmt.Fprintf(&sb, "%-5s ", ev.Kind)
	sb.WriteString(strings.Repeat("  ", ev.Depth))
	sb.WriteString(ev.Scope.String())
	sb.WriteByte('/')
	sb.WriteString(ev.Name)
	if ev.Detail != "" {
		sb.WriteByte(' ')
		sb.WriteString(strconv.Quote(ev.Detail))
	}
	if ev.Kind == KindSpanEnd {
		sb.WriteString(" dur=")
		sb.WriteString(ev.Dur.String())
	}

	// ключи сортируем, чтобы вывод был стабильным
	keys := make([]string, 0, len(ev.Extra))
	for k := range ev.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteByte(' ')
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(logfmtValue(ev.Extra[k]))
	}
	sb.WriteByte('\n')
	return []byte(sb.String())
}

func logfmtValue(v string) string {
	if v == "" || strings.ContainsAny(v, " \t\n\"=") {
		return strconv.Quote(v)
	}
	return v
}
