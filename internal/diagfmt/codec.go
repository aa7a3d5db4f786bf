package diagfmt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"

	"diagnav/internal/diag"
)

// Format selects a snapshot encoding.
type Format uint8

const (
	FormatJSON Format = iota
	FormatMsgpack
)

var (
	// ErrUnknownFormat is returned for format names that are not supported.
	ErrUnknownFormat = errors.New("unknown snapshot format")
	// ErrEmptyDocument is returned when the input holds no document at all.
	// Writers that truncate before writing produce this transiently.
	ErrEmptyDocument = errors.New("empty snapshot document")
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatMsgpack:
		return "msgpack"
	}
	return "unknown"
}

// ParseFormat converts a --format style name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "msgpack", "mpk", "mp":
		return FormatMsgpack, nil
	default:
		return FormatJSON, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FormatForPath picks the encoding from a file extension. Anything that is
// not a msgpack extension is read as JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".msgpack", ".mpk", ".mp":
		return FormatMsgpack
	default:
		return FormatJSON
	}
}

// DecodeBytes decodes one snapshot document. Both the object form
// {"diagnostics":[...]} and a bare array of entries are accepted.
func DecodeBytes(data []byte, f Format) (diag.Snapshot, error) {
	switch f {
	case FormatJSON:
		return decodeJSON(data)
	case FormatMsgpack:
		return decodeMsgpack(data)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, f)
	}
}

// Decode reads r to the end and decodes it.
func Decode(r io.Reader, f Format) (diag.Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return DecodeBytes(data, f)
}

// DecodeFile decodes the snapshot stored at path.
func DecodeFile(path string) (diag.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	snap, err := DecodeBytes(data, FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

func decodeJSON(data []byte) (diag.Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrEmptyDocument
	}
	if trimmed[0] == '[' {
		var docs []EntryDoc
		if err := json.Unmarshal(trimmed, &docs); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		return entriesToSnapshot(docs)
	}
	var doc SnapshotDoc
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return doc.Snapshot()
}

func decodeMsgpack(data []byte) (diag.Snapshot, error) {
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	code, err := dec.PeekCode()
	if err != nil {
		return nil, fmt.Errorf("decode msgpack: %w", err)
	}
	if msgpcode.IsFixedArray(code) || code == msgpcode.Array16 || code == msgpcode.Array32 {
		var docs []EntryDoc
		if err := dec.Decode(&docs); err != nil {
			return nil, fmt.Errorf("decode msgpack: %w", err)
		}
		return entriesToSnapshot(docs)
	}
	var doc SnapshotDoc
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode msgpack: %w", err)
	}
	return doc.Snapshot()
}

// Encode writes snap in the object form.
func Encode(w io.Writer, snap diag.Snapshot, f Format) error {
	doc := FromSnapshot(snap)
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(doc)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownFormat, f)
	}
}

// WriteFile encodes snap into path, choosing the format by extension. The
// file is replaced atomically so watchers never observe a partial document.
func WriteFile(path string, snap diag.Snapshot) (err error) {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()
	if err = Encode(f, snap, FormatForPath(path)); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), path)
}
