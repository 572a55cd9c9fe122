package features

import (
	"errors"
	"fmt"

	"github.com/pable/go-hockey-meter/internal/model"
	"github.com/pable/go-hockey-meter/internal/window"
)

// ErrTooFewEvents is returned when a game has fewer plays than one window and
// the aligner is not allowed to pad.
var ErrTooFewEvents = errors.New("too few overtime events")

// PadPolicy decides what happens to games shorter than one window.
type PadPolicy string

const (
	// PadFront manufactures blank leading rows so at least one window exists.
	PadFront PadPolicy = "pad"
	// Reject fails short games with ErrTooFewEvents.
	Reject PadPolicy = "reject"
)

// ParsePadPolicy validates a policy name.
func ParsePadPolicy(s string) (PadPolicy, error) {
	switch p := PadPolicy(s); p {
	case PadFront, Reject:
		return p, nil
	}
	return "", fmt.Errorf("unknown pad policy %q (want %q or %q)", s, PadFront, Reject)
}

// Aligner encodes one regime's overtime rows against a frozen schema.
// It holds no mutable state and may be shared between goroutines.
type Aligner struct {
	regime     model.Regime
	schema     *Schema
	features   []string
	windowSize int
	policy     PadPolicy
}

// NewAligner builds an aligner for an overtime regime.
func NewAligner(regime model.Regime, schema *Schema, windowSize int, policy PadPolicy) (*Aligner, error) {
	if regime == model.RegimeRegulation {
		return nil, fmt.Errorf("aligner needs an overtime regime, got %s", regime)
	}
	if schema == nil {
		return nil, fmt.Errorf("%w: nil schema", ErrSchemaInvalid)
	}
	if windowSize <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", windowSize)
	}
	if _, err := ParsePadPolicy(string(policy)); err != nil {
		return nil, err
	}
	return &Aligner{
		regime:     regime,
		schema:     schema,
		features:   schema.FeatureColumns(),
		windowSize: windowSize,
		policy:     policy,
	}, nil
}

// Schema returns the frozen schema the aligner encodes against.
func (a *Aligner) Schema() *Schema { return a.schema }

// WindowSize returns the sequence length.
func (a *Aligner) WindowSize() int { return a.windowSize }

// FeatureColumns returns the positional model input layout.
func (a *Aligner) FeatureColumns() []string { return a.features }

// Prepare runs every step before reindexing: drop the clock this regime does
// not use, pad short games, and one-hot encode. The second return value is the
// number of padding rows added.
func (a *Aligner) Prepare(rows []model.OvertimeRow) (*Frame, int, error) {
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("%w: no qualifying plays", ErrTooFewEvents)
	}
	f := FromOvertimeRows(rows).Drop(unusedClock(a.regime))

	pad := 0
	if f.Len() < a.windowSize {
		if a.policy == Reject {
			return nil, 0, fmt.Errorf("%w: %d plays, window needs %d", ErrTooFewEvents, f.Len(), a.windowSize)
		}
		var err error
		if f, pad, err = f.PadFront(a.windowSize); err != nil {
			return nil, 0, err
		}
	}
	return OneHot(f, Categorical), pad, nil
}

// Frame returns the aligned frame: Prepare followed by a reindex onto the
// schema's columns.
func (a *Aligner) Frame(rows []model.OvertimeRow) (*Frame, error) {
	encoded, _, err := a.Prepare(rows)
	if err != nil {
		return nil, err
	}
	return encoded.Reindex(a.schema.Columns), nil
}

// Align turns the rows of one or more games into model-ready windows. Rows of
// a game must be contiguous and in play order.
func (a *Aligner) Align(rows []model.OvertimeRow) ([]window.Window, error) {
	var all []window.Row
	for start := 0; start < len(rows); {
		end := start + 1
		for end < len(rows) && rows[end].Key() == rows[start].Key() {
			end++
		}
		wr, err := a.windowRows(rows[start:end])
		if err != nil {
			return nil, fmt.Errorf("game %s: %w", rows[start].Key(), err)
		}
		all = append(all, wr...)
		start = end
	}
	return window.Build(all, a.windowSize)
}

func (a *Aligner) windowRows(rows []model.OvertimeRow) ([]window.Row, error) {
	encoded, pad, err := a.Prepare(rows)
	if err != nil {
		return nil, err
	}
	x, err := encoded.Reindex(a.schema.Columns).Matrix(a.features)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}

	out := make([]window.Row, len(x))
	for i := range x {
		label := model.SideNone
		if i >= pad {
			label = rows[i-pad].Winner
		}
		out[i] = window.Row{Key: rows[0].Key(), Label: label, Features: x[i]}
	}
	return out, nil
}

// Encode drops the unused clock and one-hot encodes rows with no padding or
// reindexing. A schema is built from the Encode output of the training rows.
func Encode(rows []model.OvertimeRow, regime model.Regime) *Frame {
	return OneHot(FromOvertimeRows(rows).Drop(unusedClock(regime)), Categorical)
}

func unusedClock(r model.Regime) string {
	if r == model.RegimeRegularOvertime {
		return ColSecondsElapsed
	}
	return ColTimeRemaining
}
