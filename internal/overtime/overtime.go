// Package overtime reduces extra-time play-by-play into per-event rows for the
// overtime sequence models.
package overtime

import (
	"fmt"

	"github.com/pable/go-hockey-meter/internal/model"
)

// Reduce returns the qualifying plays of g's extra time under the given regime.
//
// Regular-season rows carry a sudden-death countdown in TimeRemaining; playoff
// rows count up across periods in SecondsElapsed. Every row of the game gets the
// game's final winner.
func Reduce(g *model.Game, events []model.Event, regime model.Regime) ([]model.OvertimeRow, error) {
	if regime == model.RegimeRegulation {
		return nil, fmt.Errorf("overtime reduction needs an overtime regime, got %s", regime)
	}

	winner := g.Winner()
	var rows []model.OvertimeRow
	for i := range events {
		e := &events[i]
		if !regime.Accepts(e.Period) || !e.Type.IsMeaningfulPlay() {
			continue
		}
		row := model.OvertimeRow{
			GameID:    g.GameID,
			Season:    g.Season,
			Seq:       e.Seq,
			Regime:    regime,
			AwayElo:   g.AwayElo,
			HomeElo:   g.HomeElo,
			Event:     e.Type,
			Team:      g.Resolve(e.ActingTeam),
			EventZone: e.EventZone,
			HomeZone:  e.HomeZone,
			Strength:  e.Strength,
			Winner:    winner,
		}
		if regime == model.RegimeRegularOvertime {
			row.TimeRemaining = model.RegularOvertimeSeconds - e.SecondsElapsed
		} else {
			row.SecondsElapsed = (e.Period-model.FirstOvertimePeriod)*model.PeriodSeconds + e.SecondsElapsed
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// GameEvents pairs a game with its ordered event table.
type GameEvents struct {
	Game   *model.Game
	Events []model.Event
}

// ReduceGames runs Reduce over every game whose own regime matches regime,
// concatenating the rows in input order. Games that ended in regulation or
// belong to the other overtime regime are skipped.
func ReduceGames(games []GameEvents, regime model.Regime) ([]model.OvertimeRow, error) {
	var out []model.OvertimeRow
	for _, ge := range games {
		if ge.Game.Regime() != regime {
			continue
		}
		rows, err := Reduce(ge.Game, ge.Events, regime)
		if err != nil {
			return nil, fmt.Errorf("game %s: %w", ge.Game.Key(), err)
		}
		out = append(out, rows...)
	}
	return out, nil
}
