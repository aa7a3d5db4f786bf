package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"diagnav/internal/diag"
	"diagnav/internal/dispose"
	"diagnav/internal/trace"
)

var (
	// ErrMissingLength is returned for a framed message without Content-Length.
	ErrMissingLength = errors.New("missing Content-Length header")
	// ErrFrameTooLarge is returned when Content-Length exceeds maxFrameSize.
	ErrFrameTooLarge = errors.New("frame too large")
)

// maxFrameSize bounds one LSP message body, the same cap as one NDJSON line.
const maxFrameSize = maxLineSize

const methodPublishDiagnostics = "textDocument/publishDiagnostics"

type rpcMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type lspPosition struct {
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
}

type lspRange struct {
	Start lspPosition `json:"start"`
	End   lspPosition `json:"end"`
}

type lspLocation struct {
	URI   string   `json:"uri"`
	Range lspRange `json:"range"`
}

type lspRelated struct {
	Location lspLocation `json:"location"`
	Message  string      `json:"message"`
}

type lspDiagnostic struct {
	Range              lspRange        `json:"range"`
	Severity           int             `json:"severity,omitempty"`
	Code               json.RawMessage `json:"code,omitempty"`
	Source             string          `json:"source,omitempty"`
	Message            string          `json:"message"`
	RelatedInformation *[]lspRelated   `json:"relatedInformation,omitempty"`
}

type publishDiagnosticsParams struct {
	URI         string          `json:"uri"`
	Diagnostics []lspDiagnostic `json:"diagnostics"`
}

// LSPFeed reads language server base-protocol traffic and turns
// textDocument/publishDiagnostics notifications into full snapshots.
// Documents keep the order in which they were first reported; a
// notification with an empty list drops the document.
type LSPFeed struct {
	out    Relay
	r      *bufio.Reader
	tracer trace.Tracer

	order []string
	byURI map[string][]diag.Entry
}

// NewLSPFeed returns a feed over r.
func NewLSPFeed(r io.Reader, tr trace.Tracer) *LSPFeed {
	if tr == nil {
		tr = trace.Nop
	}
	return &LSPFeed{r: bufio.NewReader(r), tracer: tr, byURI: make(map[string][]diag.Entry)}
}

// Subscribe implements Feed.
func (l *LSPFeed) Subscribe(fn func(diag.Snapshot)) dispose.Disposable {
	return l.out.Subscribe(fn)
}

// Start reads messages until EOF or ctx is done. Framing errors end the
// feed; a malformed notification body is traced and skipped.
func (l *LSPFeed) Start(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		payload, err := readMessage(l.r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("lsp feed: %w", err)
		}
		if err := l.handle(payload); err != nil {
			trace.Error(l.tracer, trace.ScopeFeed, "lsp", err)
		}
	}
}

func (l *LSPFeed) handle(payload []byte) error {
	var msg rpcMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	if msg.Method != methodPublishDiagnostics {
		return nil
	}
	var params publishDiagnosticsParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return fmt.Errorf("decode %s: %w", methodPublishDiagnostics, err)
	}
	entries, err := convertDiagnostics(params)
	if err != nil {
		return err
	}
	l.update(params.URI, entries)
	snap := l.snapshot()
	trace.Point(l.tracer, trace.ScopeFeed, "lsp", params.URI,
		"documents", strconv.Itoa(len(l.order)),
		"entries", strconv.Itoa(len(snap)))
	l.out.Publish(snap)
	return nil
}

func (l *LSPFeed) update(uri string, entries []diag.Entry) {
	_, known := l.byURI[uri]
	if len(entries) == 0 {
		if known {
			delete(l.byURI, uri)
			for i, u := range l.order {
				if u == uri {
					l.order = append(l.order[:i], l.order[i+1:]...)
					break
				}
			}
		}
		return
	}
	if !known {
		l.order = append(l.order, uri)
	}
	l.byURI[uri] = entries
}

func (l *LSPFeed) snapshot() diag.Snapshot {
	var snap diag.Snapshot
	for _, uri := range l.order {
		snap = append(snap, l.byURI[uri]...)
	}
	return snap
}

func convertDiagnostics(p publishDiagnosticsParams) ([]diag.Entry, error) {
	path := uriToPath(p.URI)
	entries := make([]diag.Entry, 0, len(p.Diagnostics))
	for _, d := range p.Diagnostics {
		r, err := convertRange(d.Range)
		if err != nil {
			return nil, err
		}
		e := diag.Entry{
			Scope:    diag.ScopeFile,
			FilePath: path,
			Range:    r,
			Severity: severityFromLSP(d.Severity),
			Code:     codeString(d.Code),
			Message:  d.Message,
			Source:   d.Source,
		}
		if d.RelatedInformation != nil {
			e.Traces = make([]diag.Trace, 0, len(*d.RelatedInformation))
			for _, rel := range *d.RelatedInformation {
				tr, err := convertRange(rel.Location.Range)
				if err != nil {
					return nil, err
				}
				e.Traces = append(e.Traces, diag.Trace{
					FilePath: uriToPath(rel.Location.URI),
					Range:    tr,
					Text:     rel.Message,
				})
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func convertRange(r lspRange) (*diag.Range, error) {
	start, err := convertPosition(r.Start)
	if err != nil {
		return nil, err
	}
	end, err := convertPosition(r.End)
	if err != nil {
		return nil, err
	}
	return &diag.Range{Start: start, End: end}, nil
}

func convertPosition(p lspPosition) (diag.Position, error) {
	row, err := safecast.Conv[int](p.Line)
	if err != nil {
		return diag.Position{}, fmt.Errorf("line %d: %w", p.Line, err)
	}
	col, err := safecast.Conv[int](p.Character)
	if err != nil {
		return diag.Position{}, fmt.Errorf("character %d: %w", p.Character, err)
	}
	return diag.Position{Row: row, Column: col}, nil
}

// severityFromLSP maps DiagnosticSeverity; a missing severity is an error.
func severityFromLSP(s int) diag.Severity {
	switch s {
	case 2:
		return diag.SevWarning
	case 3, 4:
		return diag.SevInfo
	default:
		return diag.SevError
	}
}

// codeString accepts both forms of Diagnostic.code: integer or string.
func codeString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func readMessage(r *bufio.Reader) ([]byte, error) {
	contentLength := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			length, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil || length < 0 {
				return nil, fmt.Errorf("invalid Content-Length %q", strings.TrimSpace(value))
			}
			contentLength = length
		}
	}
	if contentLength < 0 {
		return nil, ErrMissingLength
	}
	if contentLength > maxFrameSize {
		return nil, fmt.Errorf("%w: Content-Length %d exceeds limit %d", ErrFrameTooLarge, contentLength, maxFrameSize)
	}
	payload := make([]byte, contentLength)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// uriToPath converts a file:// URI to a local path. Other schemes are kept
// verbatim so they still show up in listings.
func uriToPath(uri string) string {
	if uri == "" {
		return ""
	}
	parsed, err := url.Parse(uri)
	if err != nil {
		return uri
	}
	if parsed.Scheme != "" && parsed.Scheme != "file" {
		return uri
	}
	path := parsed.Path
	if parsed.Scheme == "" {
		path = uri
	}
	if unescaped, err := url.PathUnescape(path); err == nil {
		path = unescaped
	}
	path = filepath.FromSlash(path)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path
}
