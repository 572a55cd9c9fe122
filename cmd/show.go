package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-hockey-meter/internal/model"
	"github.com/pable/go-hockey-meter/internal/report"
	"github.com/pable/go-hockey-meter/internal/storage"
)

var showEvery int

var showCmd = &cobra.Command{
	Use:   "show <game_id>.<season>",
	Short: "Show a stored game's regulation slices and overtime plays",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().IntVar(&showEvery, "every", 10, "print every Nth slice")
}

func runShow(cmd *cobra.Command, args []string) error {
	key, err := model.ParseGameKey(args[0])
	if err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	return showGame(os.Stdout, db, key, showEvery)
}

func showGame(w io.Writer, db *storage.DB, key model.GameKey, every int) error {
	game, err := db.GetGame(key)
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Fprintf(os.Stderr, "No game %s stored\n", key)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get game: %w", err)
	}

	slices, err := db.Slices(key)
	if err != nil {
		return fmt.Errorf("get slices: %w", err)
	}
	rows, err := db.OvertimeRows(key)
	if err != nil {
		return fmt.Errorf("get overtime rows: %w", err)
	}

	report.PrintMatchSummary(w, *game)
	if len(slices) == 0 {
		fmt.Fprintln(w, "No slices stored. Run 'hockeymeter reduce' first.")
		return nil
	}
	report.PrintSlices(w, slices, every)
	if len(rows) > 0 {
		fmt.Fprintf(w, "\n--- %s plays ---\n\n", game.Regime())
		report.PrintOvertimeRows(w, rows)
	}
	return nil
}
