package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-hockey-meter/internal/report"
)

var summaryRuns int

// summaryCmd is the cobra command for displaying a high-level store overview.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a high-level overview of the store",
	Long: `Display aggregate statistics about the stored games: counts by season type,
derived table sizes, season range, per-season overtime and home-win rates, and the
most recent batch runs.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func init() {
	summaryCmd.Flags().IntVar(&summaryRuns, "runs", 5, "number of recent runs to show")
}

func runSummary(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	ov, err := db.GetOverview()
	if err != nil {
		return fmt.Errorf("get overview: %w", err)
	}
	if ov.Games == 0 {
		fmt.Fprintln(os.Stdout, "No games stored yet. Run 'hockeymeter ingest --games <file> --pbp <file>' to add some.")
		return nil
	}

	seasons, err := db.GetSeasonCounts()
	if err != nil {
		return fmt.Errorf("get season counts: %w", err)
	}
	runs, err := db.ListRuns(summaryRuns)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	report.PrintOverview(os.Stdout, ov, seasons, runs)
	return nil
}
