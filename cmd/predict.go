package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-hockey-meter/internal/features"
	"github.com/pable/go-hockey-meter/internal/inference"
	"github.com/pable/go-hockey-meter/internal/logger"
	"github.com/pable/go-hockey-meter/internal/meter"
	"github.com/pable/go-hockey-meter/internal/metrics"
	"github.com/pable/go-hockey-meter/internal/model"
	"github.com/pable/go-hockey-meter/internal/report"
)

var predictEvery int

var predictCmd = &cobra.Command{
	Use:   "predict <game_id>.<season>",
	Short: "Print the stitched win-probability timeline of a stored game",
	Long: `Score a stored game's regulation slices with the regulation model and, when the
game went to overtime, its overtime plays with that regime's sequence model, then
print the stitched timeline: elapsed time, home win probability and running score.

Models and schemas are read from the configured paths. An overtime regime whose
model file is absent is left unsupported; its games report no prediction.`,
	Args: cobra.ExactArgs(1),
	RunE: runPredict,
}

func init() {
	predictCmd.Flags().IntVar(&predictEvery, "every", 10, "print every Nth regulation point (overtime points are always printed)")
}

func runPredict(cmd *cobra.Command, args []string) error {
	key, err := model.ParseGameKey(args[0])
	if err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	m := metrics.New()
	defer flushMetrics(m)
	mc, err := newMeter(cmd.Context(), db, m)
	if err != nil {
		return err
	}
	return printPrediction(cmd.Context(), os.Stdout, mc, key, predictEvery)
}

// printPrediction renders one game's timeline, or the explicit no-prediction
// state when the meter cannot serve it.
func printPrediction(ctx context.Context, w io.Writer, mc *meter.Context, key model.GameKey, every int) error {
	p, err := mc.Predict(ctx, key)
	if errors.Is(err, meter.ErrUnavailable) {
		fmt.Fprintf(w, "No prediction: %v\n", err)
		return nil
	}
	if err != nil {
		return err
	}
	report.PrintMatchSummary(w, p.Game)
	report.PrintTimeline(w, p.Game, p.Timeline, every)
	fmt.Fprintf(w, "\n%s: %d points, final home win probability %.1f%%\n",
		p.Regime, p.Len(), 100*p.Probs[p.Len()-1])
	return nil
}

// newMeter loads every configured model and schema into a serving context.
// The regulation model is required; a missing overtime model leaves its
// regime unsupported.
func newMeter(ctx context.Context, store meter.Store, m *metrics.Manager) (*meter.Context, error) {
	log := logger.Named("meter")

	reg, err := inference.LoadLogistic(cfg.RegulationModel)
	if err != nil {
		return nil, fmt.Errorf("regulation model: %w", err)
	}
	if reg.Kind() != inference.KindTabular {
		return nil, fmt.Errorf("regulation model %s: kind %q, want %q", cfg.RegulationModel, reg.Kind(), inference.KindTabular)
	}

	opts := meter.Options{Store: store, Regulation: reg, Metrics: m, Logger: log}
	for _, regime := range []model.Regime{model.RegimeRegularOvertime, model.RegimePlayoffOvertime} {
		ot, err := loadOvertime(regime)
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn(ctx, "overtime regime unsupported", logger.String("regime", regime.String()), logger.Error(err))
			continue
		}
		if err != nil {
			return nil, err
		}
		if regime == model.RegimePlayoffOvertime {
			opts.PlayoffOT = ot
		} else {
			opts.RegularOT = ot
		}
	}
	return meter.New(opts)
}

func loadOvertime(regime model.Regime) (*meter.Overtime, error) {
	path := modelPath(regime)
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	mdl, err := inference.LoadLogistic(path)
	if err != nil {
		return nil, fmt.Errorf("%s model: %w", regime, err)
	}
	if mdl.Kind() != inference.KindSequence {
		return nil, fmt.Errorf("%s model %s: kind %q, want %q", regime, path, mdl.Kind(), inference.KindSequence)
	}
	aligner, err := newAligner(regime)
	if err != nil {
		if errors.Is(err, features.ErrSchemaInvalid) {
			return nil, fmt.Errorf("%w (run 'hockeymeter schema --regime %s')", err, regime)
		}
		return nil, err
	}
	return &meter.Overtime{Aligner: aligner, Model: mdl}, nil
}
