// Package dataset writes overtime training windows as zstd-compressed JSON
// lines, one window per line.
package dataset

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/pable/go-hockey-meter/internal/model"
	"github.com/pable/go-hockey-meter/internal/window"
)

// Record is the on-disk form of one window.
type Record struct {
	Season   int         `json:"season"`
	GameID   int         `json:"game_id"`
	Label    string      `json:"label"`
	Columns  []string    `json:"columns,omitempty"` // first record only
	Features [][]float64 `json:"features"`
}

// Writer streams windows to a compressed sink.
type Writer struct {
	zw      *zstd.Encoder
	buf     *bufio.Writer
	enc     *json.Encoder
	columns []string
	n       int
}

// NewWriter wraps w. columns, when non-nil, is recorded on the first line so
// a reader can check the feature order.
func NewWriter(w io.Writer, columns []string) (*Writer, error) {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	buf := bufio.NewWriter(zw)
	return &Writer{zw: zw, buf: buf, enc: json.NewEncoder(buf), columns: columns}, nil
}

// Write appends one window.
func (w *Writer) Write(win window.Window) error {
	rec := Record{
		Season:   win.Key.Season,
		GameID:   win.Key.GameID,
		Label:    win.Label.String(),
		Features: win.Rows,
	}
	if w.n == 0 {
		rec.Columns = w.columns
	}
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("encode window %d: %w", w.n, err)
	}
	w.n++
	return nil
}

// Count is the number of windows written so far.
func (w *Writer) Count() int { return w.n }

// Close flushes and finishes the zstd frame. It does not close the
// underlying writer.
func (w *Writer) Close() error {
	if err := w.buf.Flush(); err != nil {
		w.zw.Close()
		return err
	}
	return w.zw.Close()
}

// Read decodes every window from r, returning the recorded columns (if any).
func Read(r io.Reader) ([]window.Window, []string, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("zstd: %w", err)
	}
	defer zr.Close()

	dec := json.NewDecoder(zr)
	var (
		out     []window.Window
		columns []string
	)
	for {
		var rec Record
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("decode window %d: %w", len(out), err)
		}
		if len(out) == 0 {
			columns = rec.Columns
		}
		out = append(out, window.Window{
			Key:   model.GameKey{GameID: rec.GameID, Season: rec.Season},
			Label: model.ParseSide(rec.Label),
			Rows:  rec.Features,
		})
	}
	return out, columns, nil
}
