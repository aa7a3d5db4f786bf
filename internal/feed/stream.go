package feed

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"diagnav/internal/diag"
	"diagnav/internal/diagfmt"
	"diagnav/internal/dispose"
	"diagnav/internal/trace"
)

// maxLineSize bounds one NDJSON document.
const maxLineSize = 16 << 20

// StreamFeed reads newline-delimited JSON snapshot documents from a reader.
// Each line replaces the previous snapshot. A malformed line is traced and
// skipped.
type StreamFeed struct {
	out    Relay
	r      io.Reader
	tracer trace.Tracer
}

// NewStreamFeed returns a feed over r.
func NewStreamFeed(r io.Reader, tr trace.Tracer) *StreamFeed {
	if tr == nil {
		tr = trace.Nop
	}
	return &StreamFeed{r: r, tracer: tr}
}

// Subscribe implements Feed.
func (s *StreamFeed) Subscribe(fn func(diag.Snapshot)) dispose.Disposable {
	return s.out.Subscribe(fn)
}

// Start reads until EOF or until ctx is done. Cancellation is observed
// between lines; a reader blocked in Read is not interrupted.
func (s *StreamFeed) Start(ctx context.Context) error {
	sc := bufio.NewScanner(s.r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	line := 0
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line++
		data := bytes.TrimSpace(sc.Bytes())
		if len(data) == 0 {
			continue
		}
		snap, err := diagfmt.DecodeBytes(data, diagfmt.FormatJSON)
		if err != nil {
			trace.Error(s.tracer, trace.ScopeFeed, "stream", fmt.Errorf("line %d: %w", line, err))
			continue
		}
		trace.Point(s.tracer, trace.ScopeFeed, "stream", "", "line", strconv.Itoa(line), "entries", strconv.Itoa(len(snap)))
		s.out.Publish(snap)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}
