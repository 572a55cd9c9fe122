// Package slicer reduces a game's regulation play-by-play into fixed-interval
// cumulative snapshots used as regulation model input.
package slicer

import (
	"fmt"

	"github.com/pable/go-hockey-meter/internal/model"
)

// DefaultInterval is the slice cadence in seconds (120 slices per regulation game).
const DefaultInterval = 30

// Reduce folds the events of g into regulation slices, one at the opening
// faceoff and one per interval boundary up to the end of regulation.
//
// A slice is emitted before the event that reaches its boundary is applied,
// so a slice reflects everything strictly before its cutoff. Boundaries with
// no events between them repeat the same totals. Events past regulation end
// the reduction; any boundaries not yet reached are still emitted.
func Reduce(g *model.Game, events []model.Event, interval int) ([]model.RegulationSlice, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("slice interval must be positive, got %d", interval)
	}
	if model.RegulationSeconds%interval != 0 {
		return nil, fmt.Errorf("slice interval %d does not divide %d", interval, model.RegulationSeconds)
	}

	out := make([]model.RegulationSlice, 0, model.RegulationSeconds/interval+1)
	var totals Totals
	out = append(out, snapshot(g, totals, 0, len(out)))

	cutoff := interval
	emitThrough := func(elapsed int) {
		for cutoff <= elapsed && cutoff <= model.RegulationSeconds {
			out = append(out, snapshot(g, totals, cutoff, len(out)))
			cutoff += interval
		}
	}

	for i := range events {
		e := &events[i]
		elapsed := e.GameElapsed()
		emitThrough(elapsed)
		if elapsed > model.RegulationSeconds {
			break
		}

		d, err := DeltaFor(g, e)
		if err != nil {
			return nil, fmt.Errorf("game %s event %d: %w", g.Key(), e.Seq, err)
		}
		totals = totals.Apply(d)
	}
	emitThrough(model.RegulationSeconds)

	return out, nil
}

func snapshot(g *model.Game, t Totals, cutoff, index int) model.RegulationSlice {
	return model.RegulationSlice{
		GameID:        g.GameID,
		Season:        g.Season,
		Index:         index,
		TimeRemaining: float64(model.RegulationSeconds-cutoff) / model.RegulationSeconds,
		AwayElo:       g.AwayElo,
		HomeElo:       g.HomeElo,
		AwayScore:     t.Away.Score,
		HomeScore:     t.Home.Score,
		AwayPIM:       t.Away.PIM,
		HomePIM:       t.Home.PIM,
		AwayHits:      t.Away.Hits,
		HomeHits:      t.Home.Hits,
		AwayShots:     t.Away.Shots,
		HomeShots:     t.Home.Shots,
		Strength:      t.Strength,
		Winner:        g.Winner(),
	}
}
