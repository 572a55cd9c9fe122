package slicer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pable/go-hockey-meter/internal/model"
)

// majorPenaltyMinutes overrides whatever number a "major" description carries.
const majorPenaltyMinutes = 5

var penaltyMinutesRe = regexp.MustCompile(`\d+`)

// Counters holds one side's cumulative regulation stats.
type Counters struct {
	Score int
	PIM   int
	Hits  int
	Shots int
}

// Totals is the running state of a game. It is a value type: Apply returns a
// new Totals and never mutates the receiver.
type Totals struct {
	Home     Counters
	Away     Counters
	Strength int
}

// Delta is the effect of a single event on Totals.
type Delta struct {
	Side     model.Side
	Counters Counters
	// Strength is always applied; every event carries the on-ice strength.
	Strength int
}

// Apply returns t with d folded in.
func (t Totals) Apply(d Delta) Totals {
	t.Strength = d.Strength
	switch d.Side {
	case model.SideHome:
		t.Home = t.Home.add(d.Counters)
	case model.SideAway:
		t.Away = t.Away.add(d.Counters)
	}
	return t
}

func (c Counters) add(o Counters) Counters {
	return Counters{
		Score: c.Score + o.Score,
		PIM:   c.PIM + o.PIM,
		Hits:  c.Hits + o.Hits,
		Shots: c.Shots + o.Shots,
	}
}

// DeltaFor computes the effect of e on the running totals of game g. A
// malformed strength token is returned as an error; everything else about the
// event is tolerated.
func DeltaFor(g *model.Game, e *model.Event) (Delta, error) {
	strength, err := model.ParseStrength(e.Strength)
	if err != nil {
		return Delta{}, err
	}
	d := Delta{Strength: strength, Side: g.Resolve(e.ActingTeam)}
	if d.Side == model.SideNone {
		return d, nil
	}

	switch e.Type {
	case model.EventShot:
		d.Counters.Shots = 1
	case model.EventHit:
		d.Counters.Hits = 1
	case model.EventGoal:
		d.Counters.Score = 1
	case model.EventPenalty:
		if mins, ok := PenaltyMinutes(e.Description); ok {
			d.Counters.PIM = mins
		}
	case model.EventFaceoff, model.EventBlock, model.EventMiss, model.EventGiveaway,
		model.EventTakeaway, model.EventDelayedPenl:
		// tracked by the overtime models only
	default:
		// timing and administrative markers
	}
	return d, nil
}

// PenaltyMinutes extracts the minutes from a penalty description such as
// "Hooking(2 min)" or "Fighting (maj)(5 min)". Only the text between the first
// "(" and the next one is searched: a major maps to five minutes, otherwise the
// first number wins.
// Descriptions without a parenthesis or a number yield ok=false.
//
// Compound descriptions with several numbers are approximated by the first one.
func PenaltyMinutes(desc string) (int, bool) {
	_, text, found := strings.Cut(desc, "(")
	if !found {
		return 0, false
	}
	text, _, _ = strings.Cut(text, "(")
	if strings.Contains(strings.ToLower(text), "maj") {
		return majorPenaltyMinutes, true
	}
	m := penaltyMinutesRe.FindString(text)
	if m == "" {
		return 0, false
	}
	mins, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return mins, true
}
