// Package meter serves win-probability timelines for stored games.
//
// A Context is built once at startup from the store, the models and the frozen
// schemas, checked for consistency, and never mutated afterwards. Predict may
// be called from several goroutines.
package meter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pable/go-hockey-meter/internal/features"
	"github.com/pable/go-hockey-meter/internal/inference"
	"github.com/pable/go-hockey-meter/internal/logger"
	"github.com/pable/go-hockey-meter/internal/metrics"
	"github.com/pable/go-hockey-meter/internal/model"
	"github.com/pable/go-hockey-meter/internal/stitch"
	"github.com/pable/go-hockey-meter/internal/storage"
	"github.com/pable/go-hockey-meter/internal/window"
)

var (
	// ErrUnavailable wraps every Predict failure. Callers render it as an
	// explicit "no prediction" state.
	ErrUnavailable = errors.New("prediction unavailable")
	// ErrGameNotFound means the key is not in the store.
	ErrGameNotFound = errors.New("game not found")
)

// Store is the read-only view of the reference tables.
type Store interface {
	GetGame(key model.GameKey) (*model.Game, error)
	Slices(key model.GameKey) ([]model.RegulationSlice, error)
	OvertimeRows(key model.GameKey) ([]model.OvertimeRow, error)
}

// Overtime pairs a regime's aligner with its sequence model.
type Overtime struct {
	Aligner *features.Aligner
	Model   inference.SequenceModel
}

// Options configures New. A nil overtime entry leaves that regime unsupported;
// games that need it come back unavailable.
type Options struct {
	Store      Store
	Regulation inference.Model
	RegularOT  *Overtime
	PlayoffOT  *Overtime
	Metrics    *metrics.Manager
	Logger     logger.Logger
}

// Context is the immutable serving state.
type Context struct {
	store      Store
	regulation inference.Model
	overtime   map[model.Regime]Overtime
	metrics    *metrics.Manager
	log        logger.Logger
}

// New validates the models against the feature layouts and returns a
// Context. Mismatches are configuration errors and fail here, not per request.
func New(opts Options) (*Context, error) {
	if opts.Store == nil {
		return nil, errors.New("meter: nil store")
	}
	if opts.Regulation == nil {
		return nil, errors.New("meter: nil regulation model")
	}
	if got, want := opts.Regulation.FeatureCount(), len(model.SliceFeatureColumns); got != want {
		return nil, fmt.Errorf("meter: regulation model expects %d features, slices have %d: %w",
			got, want, inference.ErrShape)
	}

	c := &Context{
		store:      opts.Store,
		regulation: inference.Guard(opts.Regulation),
		overtime:   make(map[model.Regime]Overtime, 2),
		metrics:    opts.Metrics,
		log:        opts.Logger,
	}
	if c.log == nil {
		c.log = logger.Nop()
	}

	for regime, ot := range map[model.Regime]*Overtime{
		model.RegimeRegularOvertime: opts.RegularOT,
		model.RegimePlayoffOvertime: opts.PlayoffOT,
	} {
		if ot == nil {
			continue
		}
		if err := checkOvertime(ot); err != nil {
			return nil, fmt.Errorf("meter: %s: %w", regime, err)
		}
		c.overtime[regime] = Overtime{Aligner: ot.Aligner, Model: inference.GuardSequence(ot.Model)}
	}
	return c, nil
}

func checkOvertime(ot *Overtime) error {
	if ot.Aligner == nil || ot.Model == nil {
		return errors.New("aligner and model are both required")
	}
	if got, want := ot.Model.WindowSize(), ot.Aligner.WindowSize(); got != want {
		return fmt.Errorf("model window %d, aligner window %d: %w", got, want, inference.ErrShape)
	}
	if got, want := ot.Model.FeatureCount(), len(ot.Aligner.FeatureColumns()); got != want {
		return fmt.Errorf("model expects %d features, schema has %d: %w", got, want, inference.ErrShape)
	}
	// artifacts without a recorded hash predate schema versioning
	if sb, ok := ot.Model.(inference.SchemaBound); ok && sb.SchemaSHA256() != "" {
		if err := ot.Aligner.Schema().CheckCompatible(sb.SchemaSHA256()); err != nil {
			return err
		}
	}
	return nil
}

// Supports reports whether the Context can serve games of a regime.
func (c *Context) Supports(r model.Regime) bool {
	if r == model.RegimeRegulation {
		return true
	}
	_, ok := c.overtime[r]
	return ok
}

// Prediction is one game's stitched timeline.
type Prediction struct {
	Game   model.Game
	Regime model.Regime
	*stitch.Timeline
}

// Predict builds the timeline for a game. Any failure is wrapped in
// ErrUnavailable; no partial timeline is ever returned.
func (c *Context) Predict(ctx context.Context, key model.GameKey) (*Prediction, error) {
	p, err := c.predict(ctx, key)
	c.metrics.RecordPrediction(err == nil)
	if err != nil {
		c.log.Warn(ctx, "prediction unavailable", logger.Game(key.GameID, key.Season), logger.Error(err))
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, key, err)
	}
	c.log.Debug(ctx, "prediction served", logger.Game(key.GameID, key.Season),
		logger.String("regime", p.Regime.String()), logger.Int("points", p.Len()))
	return p, nil
}

func (c *Context) predict(ctx context.Context, key model.GameKey) (*Prediction, error) {
	game, err := c.store.GetGame(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load game: %w", err)
	}

	reg, scores, err := c.regulationSegment(ctx, key)
	if err != nil {
		return nil, err
	}
	scores.Final = stitch.Score{Home: game.HomeScore, Away: game.AwayScore}

	regime := game.Regime()
	var ot *stitch.Segment
	if regime != model.RegimeRegulation {
		if ot, err = c.overtimeSegment(ctx, key, regime); err != nil {
			return nil, err
		}
	}

	tl, err := stitch.Stitch(*reg, ot, scores)
	if err != nil {
		return nil, err
	}
	return &Prediction{Game: *game, Regime: regime, Timeline: tl}, nil
}

func (c *Context) regulationSegment(ctx context.Context, key model.GameKey) (*stitch.Segment, *stitch.Scores, error) {
	slices, err := c.store.Slices(key)
	if err != nil {
		return nil, nil, fmt.Errorf("load slices: %w", err)
	}
	if len(slices) == 0 {
		return nil, nil, errors.New("game has no regulation slices; run reduce first")
	}

	x := make([][]float64, len(slices))
	remaining := make([]float64, len(slices))
	scores := &stitch.Scores{Regulation: make([]stitch.Score, len(slices))}
	for i := range slices {
		x[i] = slices[i].Features()
		remaining[i] = slices[i].TimeRemaining
		scores.Regulation[i] = stitch.Score{Home: slices[i].HomeScore, Away: slices[i].AwayScore}
	}

	start := time.Now()
	probs, err := c.regulation.Predict(ctx, x)
	c.metrics.RecordInference(model.RegimeRegulation.String(), time.Since(start))
	if err != nil {
		return nil, nil, fmt.Errorf("regulation inference: %w", err)
	}
	if len(probs) != len(x) {
		return nil, nil, fmt.Errorf("regulation inference: %w: %d outputs for %d rows", inference.ErrShape, len(probs), len(x))
	}
	return &stitch.Segment{Times: stitch.RegulationTimes(remaining), Probs: probs}, scores, nil
}

func (c *Context) overtimeSegment(ctx context.Context, key model.GameKey, regime model.Regime) (*stitch.Segment, error) {
	ot, ok := c.overtime[regime]
	if !ok {
		return nil, fmt.Errorf("no model loaded for %s", regime)
	}
	rows, err := c.store.OvertimeRows(key)
	if err != nil {
		return nil, fmt.Errorf("load overtime rows: %w", err)
	}
	windows, err := ot.Aligner.Align(rows)
	if err != nil {
		return nil, fmt.Errorf("align %s: %w", regime, err)
	}
	if len(windows) == 0 {
		return nil, fmt.Errorf("align %s: %w", regime, features.ErrTooFewEvents)
	}

	start := time.Now()
	probs, err := ot.Model.PredictSequences(ctx, window.Tensor(windows))
	c.metrics.RecordInference(regime.String(), time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%s inference: %w", regime, err)
	}
	if len(probs) != len(windows) {
		return nil, fmt.Errorf("%s inference: %w: %d outputs for %d windows", regime, inference.ErrShape, len(probs), len(windows))
	}
	return &stitch.Segment{Times: WindowTimes(rows, len(windows)), Probs: probs}, nil
}

// WindowTimes places each of n windows at the timeline instant of its last
// real play. The windows end on the last n plays; with front padding the
// single window ends on the last play.
func WindowTimes(rows []model.OvertimeRow, n int) []float64 {
	n = min(n, len(rows))
	elapsed := make([]int, n)
	first := len(rows) - n
	for i := range n {
		elapsed[i] = rows[first+i].Elapsed()
	}
	return stitch.OvertimeTimes(elapsed)
}
