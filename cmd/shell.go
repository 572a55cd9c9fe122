package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/go-hockey-meter/internal/meter"
	"github.com/pable/go-hockey-meter/internal/metrics"
	"github.com/pable/go-hockey-meter/internal/model"
	"github.com/pable/go-hockey-meter/internal/report"
	"github.com/pable/go-hockey-meter/internal/storage"
	"github.com/pable/go-hockey-meter/internal/teams"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cHeader   = color.New(color.FgCyan, color.Bold)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long:  "Open a persistent session against the store. Type 'help' for available commands.",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

// session holds the REPL's open store and its lazily built meter.
type session struct {
	ctx     context.Context
	db      *storage.DB
	metrics *metrics.Manager
	meter   *meter.Context
	every   int
}

func runShell(cmd *cobra.Command, _ []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	s := &session{ctx: cmd.Context(), db: db, metrics: metrics.New(), every: 10}
	defer flushMetrics(s.metrics)

	cGreeting.Println("hockeymeter shell")
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("hockeymeter")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		name, args := tokens[0], tokens[1:]

		switch name {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "list":
			s.list(args)
		case "teams":
			s.listTeams()
		case "show":
			if len(args) != 1 {
				cError.Fprintln(os.Stderr, "usage: show <game_id>.<season>")
				continue
			}
			s.show(args[0])
		case "predict":
			if len(args) != 1 {
				cError.Fprintln(os.Stderr, "usage: predict <game_id>.<season>")
				continue
			}
			s.predict(args[0])
		case "every":
			n, err := strconv.Atoi(strings.Join(args, ""))
			if err != nil || n < 1 {
				cError.Fprintln(os.Stderr, "usage: every <n>  (n >= 1)")
				continue
			}
			s.every = n
			cMuted.Printf("sampling every %d regulation points\n", n)
		case "summary":
			s.summary()
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", name)
		}
	}
	return nil
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"list", "list all stored games"},
		{"list <home> <away>", "games where home hosted away"},
		{"teams", "team codes present in the store"},
		{"show <game_id>.<season>", "a game's slices and overtime plays"},
		{"predict <game_id>.<season>", "a game's win-probability timeline"},
		{"every <n>", "sample every nth regulation point in show/predict"},
		{"summary", "store overview"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-30s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

func (s *session) list(args []string) {
	switch len(args) {
	case 0:
		list, err := s.db.ListGames()
		if err != nil {
			cError.Fprintf(os.Stderr, "error: %v\n", err)
			return
		}
		if len(list) == 0 {
			cMuted.Println("No games stored yet.")
			return
		}
		report.PrintMatchList(os.Stdout, list)
	case 2:
		if err := listMatchup(os.Stdout, s.db, args[0], args[1]); err != nil {
			cError.Fprintf(os.Stderr, "error: %v\n", err)
		}
	default:
		cError.Fprintln(os.Stderr, "usage: list [<home> <away>]")
	}
}

func (s *session) listTeams() {
	codes, err := s.db.Teams()
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(codes) == 0 {
		cMuted.Println("No games stored yet.")
		return
	}
	cHeader.Printf("%d teams\n", len(codes))
	for _, c := range codes {
		t, err := teams.Lookup(c)
		if err != nil {
			cWarn.Printf("  %-5s (unknown)\n", c)
			continue
		}
		fmt.Print("  ")
		teamColor(t.Color(0)).Printf("%-5s", t.Code)
		fmt.Println(t.Name)
	}
}

func (s *session) show(arg string) {
	key, err := model.ParseGameKey(arg)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if err := showGame(os.Stdout, s.db, key, s.every); err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
	}
}

func (s *session) predict(arg string) {
	key, err := model.ParseGameKey(arg)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if s.meter == nil {
		if s.meter, err = newMeter(s.ctx, s.db, s.metrics); err != nil {
			cError.Fprintf(os.Stderr, "error: %v\n", err)
			return
		}
	}
	if err := printPrediction(s.ctx, os.Stdout, s.meter, key, s.every); err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
	}
}

func (s *session) summary() {
	ov, err := s.db.GetOverview()
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	seasons, err := s.db.GetSeasonCounts()
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	runs, err := s.db.ListRuns(5)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	report.PrintOverview(os.Stdout, ov, seasons, runs)
}
