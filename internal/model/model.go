package model

import "fmt"

// Regulation clock constants, in seconds.
const (
	PeriodSeconds     = 1200
	RegulationPeriods = 3
	RegulationSeconds = PeriodSeconds * RegulationPeriods // 3600

	// RegularOvertimeSeconds is the sudden-death clock length of a regular-season overtime.
	RegularOvertimeSeconds = 300
	// FirstOvertimePeriod is the first period number after regulation.
	FirstOvertimePeriod = RegulationPeriods + 1
)

// Side identifies which team an event is credited to.
type Side int

const (
	SideNone Side = 0
	SideHome Side = 1
	SideAway Side = 2
)

func (s Side) String() string {
	switch s {
	case SideHome:
		return "home"
	case SideAway:
		return "away"
	default:
		return ""
	}
}

// ParseSide is the inverse of Side.String. Unknown values map to SideNone.
func ParseSide(s string) Side {
	switch s {
	case "home":
		return SideHome
	case "away":
		return SideAway
	default:
		return SideNone
	}
}

// Winner is the final outcome of a game, used as a training label.
type Winner = Side

// GameKey identifies a game. Game ids are only unique within a season.
type GameKey struct {
	GameID int
	Season int
}

func (k GameKey) String() string {
	return fmt.Sprintf("%d.%d", k.GameID, k.Season)
}

// ParseGameKey parses the "<game_id>.<season>" form produced by GameKey.String.
func ParseGameKey(s string) (GameKey, error) {
	var k GameKey
	if _, err := fmt.Sscanf(s, "%d.%d", &k.GameID, &k.Season); err != nil {
		return GameKey{}, fmt.Errorf("invalid game key %q (want <game_id>.<season>): %w", s, err)
	}
	return k, nil
}

// ---- Raw tables ----

// Event is one play-by-play entry. Events of a game are ordered by
// (period, seconds_elapsed) and are never mutated after ingestion.
type Event struct {
	GameID         int
	Season         int
	Seq            int // position within the game's event table
	Period         int
	SecondsElapsed int
	Type           EventType
	ActingTeam     string // empty for timing/administrative events
	EventZone      string
	HomeZone       string
	Strength       string // "AxB": A home skaters vs B away skaters
	Description    string // free text; carries penalty minutes for PENL
}

// Key returns the event's game key.
func (e *Event) Key() GameKey { return GameKey{GameID: e.GameID, Season: e.Season} }

// GameElapsed is the number of seconds since the opening faceoff.
func (e *Event) GameElapsed() int {
	return e.SecondsElapsed + (e.Period-1)*PeriodSeconds
}

// Game is one completed game.
type Game struct {
	GameID      int
	Season      int
	Date        string
	HomeTeam    string
	AwayTeam    string
	HomeScore   int // final
	AwayScore   int // final
	PeriodFinal int // > 3 implies overtime or shootout
	IsPlayoff   bool
	HomeElo     float64 // starting Elo, precomputed upstream
	AwayElo     float64
}

// Key returns the game key.
func (g *Game) Key() GameKey { return GameKey{GameID: g.GameID, Season: g.Season} }

// Winner returns the side that won. Ties go to the away side, matching how the
// labels were produced for training.
func (g *Game) Winner() Winner {
	if g.HomeScore > g.AwayScore {
		return SideHome
	}
	return SideAway
}

// WentToOvertime reports whether play continued past regulation.
func (g *Game) WentToOvertime() bool { return g.PeriodFinal > RegulationPeriods }

// Regime returns the prediction regime covering the game's extra time, or
// RegimeRegulation when the game ended in regulation.
func (g *Game) Regime() Regime {
	switch {
	case !g.WentToOvertime():
		return RegimeRegulation
	case g.IsPlayoff:
		return RegimePlayoffOvertime
	default:
		return RegimeRegularOvertime
	}
}

// Resolve credits a team code to a side of this game.
func (g *Game) Resolve(team string) Side {
	switch {
	case team == "":
		return SideNone
	case team == g.HomeTeam:
		return SideHome
	case team == g.AwayTeam:
		return SideAway
	default:
		return SideNone
	}
}

// ---- Derived tables ----

// RegulationSlice is a cumulative snapshot of game state at a fixed cutoff.
type RegulationSlice struct {
	GameID        int
	Season        int
	Index         int
	TimeRemaining float64 // normalized, 1 at opening faceoff and 0 at the end of regulation
	AwayElo       float64
	HomeElo       float64
	AwayScore     int
	HomeScore     int
	AwayPIM       int
	HomePIM       int
	AwayHits      int
	HomeHits      int
	AwayShots     int
	HomeShots     int
	Strength      int // home skaters minus away skaters
	Winner        Winner
}

// SliceFeatureColumns is the column order of RegulationSlice.Features.
var SliceFeatureColumns = []string{
	"time_remaining",
	"away_elo", "home_elo",
	"away_score", "home_score",
	"away_pim", "home_pim",
	"away_hits", "home_hits",
	"away_shots", "home_shots",
	"strength",
}

// Features returns the model input row: every column except game, season and winner.
func (s *RegulationSlice) Features() []float64 {
	return []float64{
		s.TimeRemaining,
		s.AwayElo, s.HomeElo,
		float64(s.AwayScore), float64(s.HomeScore),
		float64(s.AwayPIM), float64(s.HomePIM),
		float64(s.AwayHits), float64(s.HomeHits),
		float64(s.AwayShots), float64(s.HomeShots),
		float64(s.Strength),
	}
}

// ElapsedSeconds converts TimeRemaining back to seconds since the opening faceoff.
func (s *RegulationSlice) ElapsedSeconds() float64 {
	return RegulationSeconds - s.TimeRemaining*RegulationSeconds
}

// OvertimeRow is one qualifying play in extra time. Exactly one of the two
// time fields is meaningful, depending on Regime.
type OvertimeRow struct {
	GameID  int
	Season  int
	Seq     int
	Regime  Regime
	AwayElo float64
	HomeElo float64

	// SecondsElapsed counts up from the start of extra time across periods (playoff).
	SecondsElapsed int
	// TimeRemaining counts down the sudden-death clock (regular season).
	TimeRemaining int

	Event     EventType
	Team      Side
	EventZone string
	HomeZone  string
	Strength  string
	Winner    Winner
}

// Key returns the row's game key.
func (r *OvertimeRow) Key() GameKey { return GameKey{GameID: r.GameID, Season: r.Season} }

// Elapsed returns seconds since the start of extra time, whichever clock the
// regime uses.
func (r *OvertimeRow) Elapsed() int {
	if r.Regime == RegimeRegularOvertime {
		return RegularOvertimeSeconds - r.TimeRemaining
	}
	return r.SecondsElapsed
}

// MatchSummary is a lightweight record for list/show commands.
type MatchSummary struct {
	Game
	Events int
	Slices int
}
