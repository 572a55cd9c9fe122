// Package batch runs the per-game reductions over a worker pool.
package batch

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pable/go-hockey-meter/internal/logger"
	"github.com/pable/go-hockey-meter/internal/metrics"
	"github.com/pable/go-hockey-meter/internal/model"
	"github.com/pable/go-hockey-meter/internal/overtime"
	"github.com/pable/go-hockey-meter/internal/slicer"
)

// EventSource loads a game's ordered play-by-play.
type EventSource interface {
	GameEvents(key model.GameKey) ([]model.Event, error)
}

// Result is one game's derived rows.
type Result struct {
	Key      model.GameKey
	Regime   model.Regime
	Slices   []model.RegulationSlice
	Overtime []model.OvertimeRow
}

// Reducer reduces games in parallel. Games are independent; workers share
// only the read-only event source.
type Reducer struct {
	src      EventSource
	workers  int
	interval int
	metrics  *metrics.Manager
	logger   logger.Logger
}

// Option configures a Reducer.
type Option func(*Reducer)

// WithWorkers bounds the pool. Non-positive values keep the default.
func WithWorkers(n int) Option {
	return func(r *Reducer) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithInterval sets the regulation slice interval in seconds.
func WithInterval(sec int) Option {
	return func(r *Reducer) {
		if sec > 0 {
			r.interval = sec
		}
	}
}

// WithMetrics records per-game counters and latency.
func WithMetrics(m *metrics.Manager) Option {
	return func(r *Reducer) { r.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Reducer) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewReducer returns a Reducer reading from src.
func NewReducer(src EventSource, opts ...Option) *Reducer {
	r := &Reducer{
		src:      src,
		workers:  runtime.NumCPU(),
		interval: slicer.DefaultInterval,
		logger:   logger.Named("batch"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reduces every game. Results are in input order. The first failing game
// (a malformed strength token, a store error) stops the batch and its key is
// named in the returned error.
func (r *Reducer) Run(ctx context.Context, games []model.Game) ([]Result, error) {
	results := make([]Result, len(games))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i := range games {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := r.reduce(ctx, &games[i])
			if err != nil {
				r.metrics.RecordReduceError()
				r.logger.Error(ctx, "reduction failed", logger.Game(games[i].GameID, games[i].Season), logger.Error(err))
				return fmt.Errorf("game %s: %w", games[i].Key(), err)
			}
			results[i] = *res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var slices, ot int
	for i := range results {
		slices += len(results[i].Slices)
		ot += len(results[i].Overtime)
	}
	r.logger.Info(ctx, "batch reduced", logger.Int("games", len(games)),
		logger.Int("slices", slices), logger.Int("overtime_rows", ot), logger.Int("workers", r.workers))
	return results, nil
}

func (r *Reducer) reduce(ctx context.Context, game *model.Game) (*Result, error) {
	start := time.Now()
	events, err := r.src.GameEvents(game.Key())
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}

	res, err := Reduce(game, events, r.interval)
	if err != nil {
		return nil, err
	}

	r.metrics.RecordGame(res.Regime.String(), len(res.Slices), len(res.Overtime), time.Since(start))
	r.logger.Debug(ctx, "game reduced", logger.Game(game.GameID, game.Season),
		logger.Int("events", len(events)), logger.Int("slices", len(res.Slices)),
		logger.Int("overtime_rows", len(res.Overtime)))
	return res, nil
}

// Reduce derives one game's slices and, when the game went past regulation,
// its overtime rows under the game's own regime.
func Reduce(game *model.Game, events []model.Event, interval int) (*Result, error) {
	slices, err := slicer.Reduce(game, events, interval)
	if err != nil {
		return nil, err
	}
	res := &Result{Key: game.Key(), Regime: game.Regime(), Slices: slices}
	if res.Regime != model.RegimeRegulation {
		if res.Overtime, err = overtime.Reduce(game, events, res.Regime); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Flatten concatenates results per table, keeping input order.
func Flatten(results []Result) (slices []model.RegulationSlice, regular, playoff []model.OvertimeRow) {
	for i := range results {
		slices = append(slices, results[i].Slices...)
		switch results[i].Regime {
		case model.RegimeRegularOvertime:
			regular = append(regular, results[i].Overtime...)
		case model.RegimePlayoffOvertime:
			playoff = append(playoff, results[i].Overtime...)
		}
	}
	return slices, regular, playoff
}
