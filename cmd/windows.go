package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pable/go-hockey-meter/internal/dataset"
	"github.com/pable/go-hockey-meter/internal/features"
	"github.com/pable/go-hockey-meter/internal/logger"
	"github.com/pable/go-hockey-meter/internal/metrics"
	"github.com/pable/go-hockey-meter/internal/model"
	"github.com/pable/go-hockey-meter/internal/window"
)

var (
	windowsRegime      string
	windowsOut         string
	windowsGoalWindows int
	windowsRelabel     bool
)

var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "Build overtime training windows against a frozen schema",
	Long: `Align every stored game of an overtime regime against its frozen schema, build
stride-1 windows, and write one JSON object per window (season, game_id, label,
features) compressed with zstd.

With --goal-windows N only the N plays before each goal, plus the goal itself, are
kept. --relabel then labels each goal run with the scoring side and gives it a
negative game id of its own, so every goal is a separate group.

Games shorter than one window are padded or skipped according to pad_policy.`,
	Args: cobra.NoArgs,
	RunE: runWindows,
}

func init() {
	windowsCmd.Flags().StringVar(&windowsRegime, "regime", "playoff", "overtime regime: regular or playoff")
	windowsCmd.Flags().StringVar(&windowsOut, "out", "", "output .jsonl.zst path (required)")
	windowsCmd.Flags().IntVar(&windowsGoalWindows, "goal-windows", 0, "keep only the N plays preceding each goal")
	windowsCmd.Flags().BoolVar(&windowsRelabel, "relabel", false, "with --goal-windows, label each goal run by its scorer")
	_ = windowsCmd.MarkFlagRequired("out")
}

func runWindows(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := logger.Named("windows")

	regime, err := overtimeRegime(windowsRegime)
	if err != nil {
		return err
	}
	if windowsRelabel && windowsGoalWindows <= 0 {
		return errors.New("--relabel needs --goal-windows")
	}
	aligner, err := newAligner(regime)
	if err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.OvertimeRowsByRegime(regime)
	if err != nil {
		return fmt.Errorf("load %s rows: %w", regime, err)
	}
	if windowsGoalWindows > 0 {
		rows = window.PrecedingGoals(rows, window.GoalOptions{
			Plays:       windowsGoalWindows,
			IncludeGoal: true,
			Relabel:     windowsRelabel,
		})
	}
	if len(rows) == 0 {
		fmt.Fprintf(os.Stdout, "No %s rows to window.\n", regime)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(windowsOut), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(windowsOut)
	if err != nil {
		return fmt.Errorf("create %s: %w", windowsOut, err)
	}
	defer f.Close()

	w, err := dataset.NewWriter(f, aligner.FeatureColumns())
	if err != nil {
		return err
	}

	m := metrics.New()
	defer flushMetrics(m)

	groups, skipped := 0, 0
	for _, game := range splitGames(rows) {
		wins, err := aligner.Align(game)
		if errors.Is(err, features.ErrTooFewEvents) {
			skipped++
			log.Debug(ctx, "game skipped", logger.Game(game[0].GameID, game[0].Season), logger.Error(err))
			continue
		}
		if err != nil {
			return err
		}
		for _, win := range wins {
			if err := w.Write(win); err != nil {
				return err
			}
		}
		groups++
	}
	if err := w.Close(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", windowsOut, err)
	}
	m.RecordWindows(regime.String(), w.Count())

	log.Info(ctx, "windows written", logger.String("regime", regime.String()), logger.String("path", windowsOut),
		logger.Int("windows", w.Count()), logger.Int("groups", groups), logger.Int("skipped", skipped))
	fmt.Fprintf(os.Stdout, "Wrote %s windows from %s groups to %s",
		humanize.Comma(int64(w.Count())), humanize.Comma(int64(groups)), windowsOut)
	if skipped > 0 {
		fmt.Fprintf(os.Stdout, " (%d too short, skipped)", skipped)
	}
	fmt.Fprintln(os.Stdout)
	return nil
}

// splitGames cuts contiguous rows into one slice per game key.
func splitGames(rows []model.OvertimeRow) [][]model.OvertimeRow {
	var out [][]model.OvertimeRow
	start := 0
	for i := 1; i <= len(rows); i++ {
		if i == len(rows) || rows[i].Key() != rows[start].Key() {
			out = append(out, rows[start:i])
			start = i
		}
	}
	return out
}

// newAligner loads a regime's frozen schema and applies the configured
// window size and pad policy.
func newAligner(regime model.Regime) (*features.Aligner, error) {
	schema, err := features.LoadSchema(schemaPath(regime))
	if err != nil {
		return nil, fmt.Errorf("%s schema: %w", regime, err)
	}
	policy, err := features.ParsePadPolicy(cfg.PadPolicy)
	if err != nil {
		return nil, err
	}
	return features.NewAligner(regime, schema, cfg.WindowSize, policy)
}
