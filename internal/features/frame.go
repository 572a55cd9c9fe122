// Package features encodes overtime rows into the fixed numeric layout the
// overtime sequence models were trained on.
package features

import (
	"fmt"
	"slices"

	"github.com/pable/go-hockey-meter/internal/model"
)

// Column names of an overtime frame, in frame order.
const (
	ColGame           = "game"
	ColSeason         = "season"
	ColAwayElo        = "away_elo"
	ColHomeElo        = "home_elo"
	ColTimeRemaining  = "time_remaining"
	ColSecondsElapsed = "seconds_elapsed"
	ColEvent          = "event"
	ColTeam           = "team"
	ColEventZone      = "event_zone"
	ColHomeZone       = "home_zone"
	ColStrength       = "strength"
	ColWinner         = "winner"
)

// Categorical is the set of columns one-hot encoded before alignment.
var Categorical = []string{ColEvent, ColTeam, ColEventZone, ColHomeZone, ColStrength}

// identityColumns is how many leading columns a padding row copies from the
// first real row: game, season and both Elo ratings.
const identityColumns = 4

// Kind tags the value held by a Cell.
type Kind uint8

const (
	Missing Kind = iota
	Number
	Text
)

// Cell is a single frame value.
type Cell struct {
	Kind Kind
	Num  float64
	Str  string
}

// Num returns a numeric cell.
func Num(v float64) Cell { return Cell{Kind: Number, Num: v} }

// Str returns a text cell, or a missing one for the empty string.
func Str(s string) Cell {
	if s == "" {
		return Cell{}
	}
	return Cell{Kind: Text, Str: s}
}

// Frame is a small named-column table.
type Frame struct {
	Columns []string
	Rows    [][]Cell
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.Rows) }

// Index returns the position of a column or -1.
func (f *Frame) Index(col string) int { return slices.Index(f.Columns, col) }

// Column returns a copy of one column's cells.
func (f *Frame) Column(col string) ([]Cell, error) {
	i := f.Index(col)
	if i < 0 {
		return nil, fmt.Errorf("no column %q", col)
	}
	out := make([]Cell, len(f.Rows))
	for r, row := range f.Rows {
		out[r] = row[i]
	}
	return out, nil
}

// FromOvertimeRows lays rows out as a frame carrying both time columns. The
// clock the row's regime does not use is left missing.
func FromOvertimeRows(rows []model.OvertimeRow) *Frame {
	f := &Frame{
		Columns: []string{
			ColGame, ColSeason, ColAwayElo, ColHomeElo,
			ColTimeRemaining, ColSecondsElapsed,
			ColEvent, ColTeam, ColEventZone, ColHomeZone, ColStrength,
			ColWinner,
		},
		Rows: make([][]Cell, 0, len(rows)),
	}
	for _, r := range rows {
		remaining, elapsed := Cell{}, Cell{}
		if r.Regime == model.RegimeRegularOvertime {
			remaining = Num(float64(r.TimeRemaining))
		} else {
			elapsed = Num(float64(r.SecondsElapsed))
		}
		f.Rows = append(f.Rows, []Cell{
			Num(float64(r.GameID)), Num(float64(r.Season)),
			Num(r.AwayElo), Num(r.HomeElo),
			remaining, elapsed,
			Str(string(r.Event)), Str(r.Team.String()),
			Str(r.EventZone), Str(r.HomeZone), Str(r.Strength),
			Str(r.Winner.String()),
		})
	}
	return f
}

// Drop returns a frame without the named columns. Unknown names are ignored.
func (f *Frame) Drop(cols ...string) *Frame {
	var keep []int
	out := &Frame{}
	for i, c := range f.Columns {
		if slices.Contains(cols, c) {
			continue
		}
		keep = append(keep, i)
		out.Columns = append(out.Columns, c)
	}
	out.Rows = make([][]Cell, len(f.Rows))
	for r, row := range f.Rows {
		nr := make([]Cell, len(keep))
		for j, i := range keep {
			nr[j] = row[i]
		}
		out.Rows[r] = nr
	}
	return out
}

// PadFront prepends blank rows until the frame has at least n rows. A blank
// row copies the identity columns of the earliest real row and leaves every
// other column missing. Returns the number of rows added.
func (f *Frame) PadFront(n int) (*Frame, int, error) {
	if len(f.Rows) >= n {
		return f, 0, nil
	}
	if len(f.Rows) == 0 {
		return nil, 0, fmt.Errorf("%w: cannot pad an empty frame", ErrTooFewEvents)
	}
	keep := min(identityColumns, len(f.Columns))
	pad := n - len(f.Rows)
	out := &Frame{Columns: slices.Clone(f.Columns), Rows: make([][]Cell, 0, n)}
	for range pad {
		blank := make([]Cell, len(f.Columns))
		copy(blank, f.Rows[0][:keep])
		out.Rows = append(out.Rows, blank)
	}
	out.Rows = append(out.Rows, f.Rows...)
	return out, pad, nil
}

// Reindex forces the frame onto the given column list: columns it lacks are
// filled with 0 and columns not listed are dropped. A frame already laid out
// on exactly these columns comes back with identical values.
func (f *Frame) Reindex(cols []string) *Frame {
	src := make([]int, len(cols))
	for j, c := range cols {
		src[j] = f.Index(c)
	}
	out := &Frame{Columns: slices.Clone(cols), Rows: make([][]Cell, len(f.Rows))}
	for r, row := range f.Rows {
		nr := make([]Cell, len(cols))
		for j, i := range src {
			if i < 0 {
				nr[j] = Num(0)
				continue
			}
			nr[j] = row[i]
		}
		out.Rows[r] = nr
	}
	return out
}

// Matrix converts the named columns to floats. Missing cells become 0; a text
// cell in a requested column is an error since it means the column was never
// encoded.
func (f *Frame) Matrix(cols []string) ([][]float64, error) {
	idx := make([]int, len(cols))
	for j, c := range cols {
		if idx[j] = f.Index(c); idx[j] < 0 {
			return nil, fmt.Errorf("no column %q", c)
		}
	}
	out := make([][]float64, len(f.Rows))
	for r, row := range f.Rows {
		vals := make([]float64, len(cols))
		for j, i := range idx {
			switch row[i].Kind {
			case Number:
				vals[j] = row[i].Num
			case Text:
				return nil, fmt.Errorf("column %q row %d holds text %q", cols[j], r, row[i].Str)
			}
		}
		out[r] = vals
	}
	return out, nil
}
