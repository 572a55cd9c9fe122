package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pable/go-hockey-meter/internal/logger"
	"github.com/pable/go-hockey-meter/internal/pbp"
)

var (
	ingestGames string
	ingestPBP   string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load games and play-by-play from parquet into the store",
	Long: `Read the scraped Game and Event tables from parquet files and store them.

Games are upserted by (game_id, season). Events keep file order, which is the
chronological order within each game, as an explicit sequence number. Every event
must belong to a game loaded in the same or an earlier ingest.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestGames, "games", "", "games parquet file")
	ingestCmd.Flags().StringVar(&ingestPBP, "pbp", "", "play-by-play parquet file")
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestGames == "" && ingestPBP == "" {
		return errors.New("nothing to ingest: pass --games and/or --pbp")
	}
	log := logger.Named("ingest")

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	if ingestGames != "" {
		fmt.Fprintf(os.Stdout, "Reading games from %s...\n", ingestGames)
		games, err := pbp.ReadGames(ingestGames)
		if err != nil {
			return fmt.Errorf("read games: %w", err)
		}
		if err := db.InsertGames(games); err != nil {
			return fmt.Errorf("store games: %w", err)
		}
		log.Info(cmd.Context(), "games ingested", logger.String("path", ingestGames), logger.Int("games", len(games)))
		fmt.Fprintf(os.Stdout, "Stored %s games.\n", humanize.Comma(int64(len(games))))
	}

	if ingestPBP != "" {
		fmt.Fprintf(os.Stdout, "Reading play-by-play from %s...\n", ingestPBP)
		events, err := pbp.ReadEvents(ingestPBP)
		if err != nil {
			return fmt.Errorf("read events: %w", err)
		}
		if err := db.InsertEvents(events); err != nil {
			return fmt.Errorf("store events: %w", err)
		}
		log.Info(cmd.Context(), "events ingested", logger.String("path", ingestPBP), logger.Int("events", len(events)))
		fmt.Fprintf(os.Stdout, "Stored %s events.\n", humanize.Comma(int64(len(events))))
	}
	return nil
}
