package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-hockey-meter/internal/model"
	"github.com/pable/go-hockey-meter/internal/stitch"
	"github.com/pable/go-hockey-meter/internal/storage"
)

const barWidth = 20

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// PrintMatchSummary prints a one-line header for a game.
func PrintMatchSummary(w io.Writer, g model.Game) {
	kind := "regular season"
	if g.IsPlayoff {
		kind = "playoff"
	}
	fmt.Fprintf(w, "\nGame: %s  |  Date: %s  |  %s @ %s  |  Final: %d-%d%s  |  Type: %s\n\n",
		g.Key(), orDash(g.Date), g.AwayTeam, g.HomeTeam, g.AwayScore, g.HomeScore,
		finalSuffix(g), kind)
}

func finalSuffix(g model.Game) string {
	switch extra := g.PeriodFinal - model.RegulationPeriods; {
	case extra <= 0:
		return ""
	case extra == 1:
		return " (OT)"
	case !g.IsPlayoff:
		return " (SO)"
	default:
		return fmt.Sprintf(" (%dOT)", extra)
	}
}

// PrintTimeline prints the stitched timeline. Regulation points are sampled
// every `every` rows (the first and last are always shown); every overtime
// point is printed. A nil Scores track leaves the SCORE column blank.
func PrintTimeline(w io.Writer, g model.Game, tl *stitch.Timeline, every int) {
	if every < 1 {
		every = 1
	}
	table := newTable(w)
	table.Header("ELAPSED", "PERIOD", "SCORE", g.HomeTeam+" WIN%", "")

	last := tl.Len() - 1
	for i := range tl.Len() {
		t := tl.Times[i]
		ot := t > model.RegulationSeconds
		if !ot && i != 0 && i != last && i%every != 0 {
			continue
		}
		score := ""
		if tl.Scores != nil {
			score = fmt.Sprintf("%d-%d", tl.Scores[i].Away, tl.Scores[i].Home)
		}
		table.Append(
			clock(t),
			period(t),
			score,
			fmt.Sprintf("%.1f%%", 100*tl.Probs[i]),
			bar(tl.Probs[i]),
		)
	}
	table.Render()
}

// clock renders elapsed seconds as mm:ss since the opening faceoff.
func clock(sec float64) string {
	s := int(math.Round(sec))
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}

func period(sec float64) string {
	p := int(sec)/model.PeriodSeconds + 1
	if sec > 0 && int(sec)%model.PeriodSeconds == 0 {
		p--
	}
	if p <= model.RegulationPeriods {
		return strconv.Itoa(max(p, 1))
	}
	if p == model.FirstOvertimePeriod {
		return "OT"
	}
	return fmt.Sprintf("%dOT", p-model.RegulationPeriods)
}

func bar(p float64) string {
	n := int(math.Round(p * barWidth))
	n = min(max(n, 0), barWidth)
	return strings.Repeat("#", n) + strings.Repeat(".", barWidth-n)
}

// PrintGames prints one row per game.
func PrintGames(w io.Writer, games []model.Game) {
	table := newTable(w)
	table.Header("GAME", "DATE", "AWAY", "HOME", "SCORE", "PERIODS", "PLAYOFF", "REGIME")
	for _, g := range games {
		table.Append(
			g.Key().String(),
			orDash(g.Date),
			g.AwayTeam,
			g.HomeTeam,
			fmt.Sprintf("%d-%d", g.AwayScore, g.HomeScore),
			strconv.Itoa(g.PeriodFinal),
			yesNo(g.IsPlayoff),
			g.Regime().String(),
		)
	}
	table.Render()
}

// PrintMatchList prints stored games with their event and slice counts.
func PrintMatchList(w io.Writer, list []model.MatchSummary) {
	table := newTable(w)
	table.Header("GAME", "DATE", "AWAY", "HOME", "SCORE", "PERIODS", "EVENTS", "SLICES")
	for _, m := range list {
		table.Append(
			m.Key().String(),
			orDash(m.Date),
			m.AwayTeam,
			m.HomeTeam,
			fmt.Sprintf("%d-%d", m.AwayScore, m.HomeScore),
			strconv.Itoa(m.PeriodFinal),
			humanize.Comma(int64(m.Events)),
			strconv.Itoa(m.Slices),
		)
	}
	table.Render()
}

// PrintSlices prints stored regulation slices, sampling every `every` rows.
func PrintSlices(w io.Writer, slices []model.RegulationSlice, every int) {
	if every < 1 {
		every = 1
	}
	table := newTable(w)
	table.Header("#", "ELAPSED", "REMAIN", "SCORE", "PIM", "HITS", "SHOTS", "STR")
	for i, s := range slices {
		if i != len(slices)-1 && i%every != 0 {
			continue
		}
		table.Append(
			strconv.Itoa(s.Index),
			clock(s.ElapsedSeconds()),
			fmt.Sprintf("%.3f", s.TimeRemaining),
			fmt.Sprintf("%d-%d", s.AwayScore, s.HomeScore),
			fmt.Sprintf("%d-%d", s.AwayPIM, s.HomePIM),
			fmt.Sprintf("%d-%d", s.AwayHits, s.HomeHits),
			fmt.Sprintf("%d-%d", s.AwayShots, s.HomeShots),
			fmt.Sprintf("%+d", s.Strength),
		)
	}
	table.Render()
}

// PrintOvertimeRows prints a game's overtime plays. The clock column follows
// the regime: countdown for regular season, elapsed for playoffs.
func PrintOvertimeRows(w io.Writer, rows []model.OvertimeRow) {
	table := newTable(w)
	table.Header("SEQ", "CLOCK", "EVENT", "TEAM", "ZONE", "HOME_ZONE", "STRENGTH")
	for _, r := range rows {
		c := clock(float64(r.SecondsElapsed))
		if r.Regime == model.RegimeRegularOvertime {
			c = clock(float64(r.TimeRemaining)) + " left"
		}
		table.Append(
			strconv.Itoa(r.Seq),
			c,
			string(r.Event),
			orDash(r.Team.String()),
			orDash(r.EventZone),
			orDash(r.HomeZone),
			orDash(r.Strength),
		)
	}
	table.Render()
}

// PrintOverview prints the store overview, per-season counts and recent runs.
func PrintOverview(w io.Writer, ov storage.Overview, seasons []storage.SeasonCount, runs []storage.Run) {
	fmt.Fprintln(w, "\n=== Store Summary ===")
	table := newTable(w)
	table.Header("GAMES", "REGULAR", "PLAYOFF", "OVERTIME", "EVENTS", "SLICES", "OT_ROWS", "TEAMS", "SEASONS")
	span := "-"
	if ov.Games > 0 {
		span = fmt.Sprintf("%d-%d", ov.EarliestSeason, ov.LatestSeason)
	}
	table.Append(
		humanize.Comma(int64(ov.Games)),
		humanize.Comma(int64(ov.RegularSeason)),
		humanize.Comma(int64(ov.Playoff)),
		humanize.Comma(int64(ov.Overtime)),
		humanize.Comma(int64(ov.Events)),
		humanize.Comma(int64(ov.Slices)),
		humanize.Comma(int64(ov.OvertimeRows)),
		strconv.Itoa(ov.Teams),
		span,
	)
	table.Render()

	if len(seasons) > 0 {
		fmt.Fprintln(w, "\n=== Seasons ===")
		st := newTable(w)
		st.Header("SEASON", "GAMES", "OVERTIME", "OT%", "HOME_WIN%")
		for _, s := range seasons {
			st.Append(
				strconv.Itoa(s.Season),
				humanize.Comma(int64(s.Games)),
				humanize.Comma(int64(s.OvertimeGames)),
				pct(s.OvertimeGames, s.Games),
				pct(s.HomeWins, s.Games),
			)
		}
		st.Render()
	}

	if len(runs) > 0 {
		fmt.Fprintln(w, "\n=== Recent Runs ===")
		PrintRuns(w, runs)
	}
}

// PrintRuns prints recorded batch jobs.
func PrintRuns(w io.Writer, runs []storage.Run) {
	table := newTable(w)
	table.Header("RUN", "KIND", "STARTED", "GAMES", "SLICES", "OT_ROWS", "FAILED", "STATUS")
	for _, r := range runs {
		table.Append(
			shortID(r.ID),
			r.Kind,
			since(r.StartedAt),
			humanize.Comma(int64(r.Games)),
			humanize.Comma(int64(r.Slices)),
			humanize.Comma(int64(r.OvertimeRows)),
			strconv.Itoa(r.Failed),
			r.Status,
		)
	}
	table.Render()
}

// ReduceSummary is the outcome of one reduce job.
type ReduceSummary struct {
	RunID       string
	Games       int
	Slices      int
	RegularOT   int
	PlayoffOT   int
	Elapsed     time.Duration
	ExportedTo  string
	MetricsFile string
}

// PrintReduceSummary prints the totals of a reduce job.
func PrintReduceSummary(w io.Writer, s ReduceSummary) {
	fmt.Fprintf(w, "\nReduced %s games in %s (run %s)\n",
		humanize.Comma(int64(s.Games)), s.Elapsed.Round(time.Millisecond), shortID(s.RunID))
	table := newTable(w)
	table.Header("TABLE", "ROWS")
	table.Append("time_slices", humanize.Comma(int64(s.Slices)))
	table.Append("regular_ot_pbp", humanize.Comma(int64(s.RegularOT)))
	table.Append("playoff_ot_pbp", humanize.Comma(int64(s.PlayoffOT)))
	table.Render()
	if s.ExportedTo != "" {
		fmt.Fprintf(w, "Exported parquet tables to %s\n", s.ExportedTo)
	}
	if s.MetricsFile != "" {
		fmt.Fprintf(w, "Metrics written to %s\n", s.MetricsFile)
	}
}

// PrintRaw prints the result of an arbitrary query.
func PrintRaw(w io.Writer, cols []string, rows [][]string) {
	table := newTable(w)
	table.Header(toAny(cols)...)
	for _, r := range rows {
		table.Append(toAny(r)...)
	}
	table.Render()
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func pct(n, d int) string {
	if d == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", 100*float64(n)/float64(d))
}

func since(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return humanize.Time(t)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
