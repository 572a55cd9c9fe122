package pbp

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/pable/go-hockey-meter/internal/model"
)

// ErrMissingColumn is returned when an input file lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

const (
	readBatch   = 1024
	parallelism = 4
)

// ReadGames reads the games table.
func ReadGames(path string) ([]model.Game, error) {
	recs, err := readAll[GameRecord](path, GameColumns)
	if err != nil {
		return nil, err
	}
	out := make([]model.Game, len(recs))
	for i := range recs {
		out[i] = recs[i].Game()
	}
	return out, nil
}

// ReadEvents reads the play-by-play table. File order is kept; each event's
// Seq is its position among the rows of its game.
func ReadEvents(path string) ([]model.Event, error) {
	recs, err := readAll[EventRecord](path, EventColumns)
	if err != nil {
		return nil, err
	}
	seq := make(map[model.GameKey]int)
	out := make([]model.Event, len(recs))
	for i := range recs {
		key := model.GameKey{GameID: int(i64(recs[i].GameID)), Season: int(i64(recs[i].Season))}
		out[i] = recs[i].ToEvent(seq[key])
		seq[key]++
	}
	return out, nil
}

// Columns returns the top-level column names of a parquet file.
func Columns(path string) ([]string, error) {
	fr, err := local.NewLocalFileReader(absPath(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, nil, 1)
	if err != nil {
		return nil, fmt.Errorf("read footer %s: %w", path, err)
	}
	defer pr.ReadStop()

	var cols []string
	// element 0 is the root
	for _, el := range pr.Footer.Schema[1:] {
		cols = append(cols, el.Name)
	}
	return cols, nil
}

func readAll[T any](path string, required []string) ([]T, error) {
	cols, err := Columns(path)
	if err != nil {
		return nil, err
	}
	for _, c := range required {
		if !slices.Contains(cols, c) {
			return nil, fmt.Errorf("%s: %w %q", path, ErrMissingColumn, c)
		}
	}

	fr, err := local.NewLocalFileReader(absPath(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(T), parallelism)
	if err != nil {
		return nil, fmt.Errorf("open parquet %s: %w", path, err)
	}
	defer pr.ReadStop()

	num := int(pr.GetNumRows())
	out := make([]T, 0, num)
	for offset := 0; offset < num; offset += readBatch {
		batch := make([]T, min(readBatch, num-offset))
		if err := pr.Read(&batch); err != nil {
			return nil, fmt.Errorf("read %s at row %d: %w", path, offset, err)
		}
		out = append(out, batch...)
	}
	return out, nil
}

// WriteSlices writes regulation slices in the time_slices layout.
func WriteSlices(path string, slices []model.RegulationSlice) error {
	recs := make([]SliceRecord, len(slices))
	for i := range slices {
		recs[i] = NewSliceRecord(&slices[i])
	}
	return writeAll(path, recs)
}

// WriteOvertime writes overtime rows in the *_ot_pbp layout.
func WriteOvertime(path string, rows []model.OvertimeRow) error {
	recs := make([]OvertimeRecord, len(rows))
	for i := range rows {
		recs[i] = NewOvertimeRecord(&rows[i])
	}
	return writeAll(path, recs)
}

func writeAll[T any](path string, recs []T) error {
	fw, err := local.NewLocalFileWriter(absPath(path))
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	pw, err := writer.NewParquetWriter(fw, new(T), parallelism)
	if err != nil {
		fw.Close()
		return fmt.Errorf("parquet writer %s: %w", path, err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i := range recs {
		if err := pw.Write(recs[i]); err != nil {
			pw.WriteStop()
			fw.Close()
			return fmt.Errorf("write %s row %d: %w", path, i, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return fmt.Errorf("finish %s: %w", path, err)
	}
	return fw.Close()
}

func absPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if resolved, err := filepath.Abs(path); err == nil {
		return resolved
	}
	return path
}
