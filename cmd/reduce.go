package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/go-hockey-meter/internal/batch"
	"github.com/pable/go-hockey-meter/internal/logger"
	"github.com/pable/go-hockey-meter/internal/metrics"
	"github.com/pable/go-hockey-meter/internal/model"
	"github.com/pable/go-hockey-meter/internal/pbp"
	"github.com/pable/go-hockey-meter/internal/report"
)

var (
	reduceExportDir string
	reduceWorkers   int
	reduceInterval  int
)

var reduceCmd = &cobra.Command{
	Use:   "reduce",
	Short: "Derive regulation slices and overtime rows for every stored game",
	Long: `Run the slice reducer over every stored game, and the overtime reducer over every
game that went past regulation. Regular-season overtime keeps period 4 only, so
shootouts are excluded; playoff overtime keeps every period from 4 on.

Games are reduced in parallel. A game with a malformed strength token fails the
whole run and is named in the error. Previously derived rows are replaced.`,
	Args: cobra.NoArgs,
	RunE: runReduce,
}

func init() {
	reduceCmd.Flags().StringVar(&reduceExportDir, "export-dir", "", "also write time_slices, regular_ot_pbp and playoff_ot_pbp parquet files here")
	reduceCmd.Flags().IntVar(&reduceWorkers, "workers", 0, "worker pool size (default from config)")
	reduceCmd.Flags().IntVar(&reduceInterval, "interval", 0, "regulation slice interval in seconds (default from config)")
}

func runReduce(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	start := time.Now()

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	games, err := db.AllGames()
	if err != nil {
		return fmt.Errorf("list games: %w", err)
	}
	if len(games) == 0 {
		fmt.Fprintln(os.Stdout, "No games stored yet. Run 'hockeymeter ingest --games <file> --pbp <file>' first.")
		return nil
	}

	workers, interval := cfg.Workers, cfg.SliceInterval
	if reduceWorkers > 0 {
		workers = reduceWorkers
	}
	if reduceInterval > 0 {
		interval = reduceInterval
	}
	if model.RegulationSeconds%interval != 0 {
		return fmt.Errorf("--interval %d does not divide regulation (%ds)", interval, model.RegulationSeconds)
	}

	runID, err := db.StartRun("reduce")
	if err != nil {
		return err
	}

	m := metrics.New()
	defer flushMetrics(m)
	r := batch.NewReducer(db,
		batch.WithWorkers(workers),
		batch.WithInterval(interval),
		batch.WithMetrics(m),
		batch.WithLogger(logger.Named("batch")),
	)

	results, err := r.Run(ctx, games)
	if err != nil {
		if ferr := db.FinishRun(runID, len(games), 0, 0, 1, err); ferr != nil {
			logger.Get().Warn(ctx, "record failed run", logger.Error(ferr))
		}
		return fmt.Errorf("reduce: %w", err)
	}

	slices, regular, playoff := batch.Flatten(results)
	if err := store(db, games, slices, regular, playoff); err != nil {
		if ferr := db.FinishRun(runID, len(games), 0, 0, 0, err); ferr != nil {
			logger.Get().Warn(ctx, "record failed run", logger.Error(ferr))
		}
		return err
	}

	if reduceExportDir != "" {
		if err := export(reduceExportDir, slices, regular, playoff); err != nil {
			return err
		}
	}

	if err := db.FinishRun(runID, len(games), len(slices), len(regular)+len(playoff), 0, nil); err != nil {
		return err
	}

	report.PrintReduceSummary(os.Stdout, report.ReduceSummary{
		RunID:       runID,
		Games:       len(games),
		Slices:      len(slices),
		RegularOT:   len(regular),
		PlayoffOT:   len(playoff),
		Elapsed:     time.Since(start),
		ExportedTo:  reduceExportDir,
		MetricsFile: cfg.MetricsFile,
	})
	return nil
}

type derivedStore interface {
	ClearDerived(keys []model.GameKey) error
	InsertSlices(slices []model.RegulationSlice) error
	InsertOvertimeRows(rows []model.OvertimeRow) error
}

func store(db derivedStore, games []model.Game, slices []model.RegulationSlice, regular, playoff []model.OvertimeRow) error {
	keys := make([]model.GameKey, len(games))
	for i := range games {
		keys[i] = games[i].Key()
	}
	if err := db.ClearDerived(keys); err != nil {
		return fmt.Errorf("clear derived rows: %w", err)
	}
	if err := db.InsertSlices(slices); err != nil {
		return fmt.Errorf("store slices: %w", err)
	}
	if err := db.InsertOvertimeRows(append(regular, playoff...)); err != nil {
		return fmt.Errorf("store overtime rows: %w", err)
	}
	return nil
}

func export(dir string, slices []model.RegulationSlice, regular, playoff []model.OvertimeRow) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	if err := pbp.WriteSlices(filepath.Join(dir, "time_slices.parquet"), slices); err != nil {
		return fmt.Errorf("export slices: %w", err)
	}
	if err := pbp.WriteOvertime(filepath.Join(dir, "regular_ot_pbp.parquet"), regular); err != nil {
		return fmt.Errorf("export regular overtime: %w", err)
	}
	if err := pbp.WriteOvertime(filepath.Join(dir, "playoff_ot_pbp.parquet"), playoff); err != nil {
		return fmt.Errorf("export playoff overtime: %w", err)
	}
	return nil
}
