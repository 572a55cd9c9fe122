package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-hockey-meter/internal/report"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the store",
	Long: `Run an arbitrary SQL query against the store and print results as a table.

Schema overview:
  games(game_id, season, game_date, home_team, away_team, home_score, away_score,
    period_final, is_playoff, home_elo, away_elo)
  events(game_id, season, seq, period, seconds_elapsed, event, ev_team, ev_zone,
    home_zone, strength, description)
  regulation_slices(game_id, season, slice_index, time_remaining, away_elo, home_elo,
    away_score, home_score, away_pim, home_pim, away_hits, home_hits, away_shots,
    home_shots, strength, winner)
  overtime_events(game_id, season, seq, regime, away_elo, home_elo, seconds_elapsed,
    time_remaining, event, team, event_zone, home_zone, strength, winner)
  runs(id, kind, started_at, finished_at, games, slices, overtime_rows, failed, status, error)

Games are keyed by (game_id, season); game ids repeat across seasons.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return nil
	}

	report.PrintRaw(os.Stdout, cols, rows)
	fmt.Fprintf(os.Stdout, "\n(%d rows)\n", len(rows))
	return nil
}
