package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/go-hockey-meter/internal/report"
	"github.com/pable/go-hockey-meter/internal/storage"
	"github.com/pable/go-hockey-meter/internal/teams"
)

var (
	listHome string
	listAway string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored games",
	Long: `List every stored game, or with --home and --away only the games where the home
team hosted the away team, newest first.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listHome, "home", "", "home team code, e.g. TOR")
	listCmd.Flags().StringVar(&listAway, "away", "", "away team code, e.g. MTL")
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	if listHome != "" || listAway != "" {
		return listMatchup(os.Stdout, db, listHome, listAway)
	}

	list, err := db.ListGames()
	if err != nil {
		return fmt.Errorf("list games: %w", err)
	}
	if len(list) == 0 {
		fmt.Fprintln(os.Stdout, "No games stored yet. Run 'hockeymeter ingest --games <file> --pbp <file>' to add some.")
		return nil
	}
	report.PrintMatchList(os.Stdout, list)
	return nil
}

// listMatchup prints the games between two teams under a header in their colors.
func listMatchup(w io.Writer, db *storage.DB, home, away string) error {
	if home == "" || away == "" {
		return errors.New("--home and --away go together")
	}
	h, a, hc, ac, err := teams.Matchup(home, away)
	if err != nil {
		return err
	}

	games, err := db.GamesBetween(h.Code, a.Code)
	if err != nil {
		return fmt.Errorf("list games: %w", err)
	}
	fmt.Fprintf(w, "\n%s at %s\n\n", teamColor(ac).Sprint(a.Name), teamColor(hc).Sprint(h.Name))
	if len(games) == 0 {
		fmt.Fprintln(w, "No games stored for this matchup.")
		return nil
	}
	report.PrintGames(w, games)
	return nil
}

func teamColor(hex string) *color.Color {
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return color.New(color.Bold)
	}
	return color.RGB(r, g, b).Add(color.Bold)
}
