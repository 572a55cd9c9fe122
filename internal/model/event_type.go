package model

// EventType is the play-by-play event vocabulary.
type EventType string

// Gameplay events.
const (
	EventShot        EventType = "SHOT"
	EventHit         EventType = "HIT"
	EventPenalty     EventType = "PENL"
	EventGoal        EventType = "GOAL"
	EventFaceoff     EventType = "FAC"
	EventBlock       EventType = "BLOCK"
	EventMiss        EventType = "MISS"
	EventGiveaway    EventType = "GIVE"
	EventTakeaway    EventType = "TAKE"
	EventDelayedPenl EventType = "DELPEN"
)

// Timing and administrative markers.
const (
	EventPeriodStart EventType = "PSTR"
	EventPeriodEnd   EventType = "PEND"
	EventGameEnd     EventType = "GEND"
	EventStoppage    EventType = "STOP"
	EventChallenge   EventType = "CHL"
	EventShootoutEnd EventType = "SOC"
	EventGameOff     EventType = "GOFF"
	EventEarlyStart  EventType = "EISTR"
	EventEarlyEnd    EventType = "EIEND"
	EventOther       EventType = "OTHER"
)

var knownEvents = map[EventType]struct{}{
	EventShot: {}, EventHit: {}, EventPenalty: {}, EventGoal: {}, EventFaceoff: {},
	EventBlock: {}, EventMiss: {}, EventGiveaway: {}, EventTakeaway: {}, EventDelayedPenl: {},
	EventPeriodStart: {}, EventPeriodEnd: {}, EventGameEnd: {}, EventStoppage: {},
	EventChallenge: {}, EventShootoutEnd: {}, EventGameOff: {}, EventEarlyStart: {},
	EventEarlyEnd: {},
}

// ParseEventType maps a raw event code onto the vocabulary. Codes outside the
// vocabulary become EventOther and are treated as administrative.
func ParseEventType(s string) EventType {
	t := EventType(s)
	if _, ok := knownEvents[t]; ok {
		return t
	}
	return EventOther
}

// MeaningfulPlays is the vocabulary kept for overtime sequence models, in the
// order used for documentation and tests.
var MeaningfulPlays = []EventType{
	EventFaceoff, EventBlock, EventShot, EventGoal, EventMiss, EventHit, EventGiveaway, EventTakeaway,
}

// IsMeaningfulPlay reports whether t belongs to MeaningfulPlays.
func (t EventType) IsMeaningfulPlay() bool {
	switch t {
	case EventFaceoff, EventBlock, EventShot, EventGoal, EventMiss, EventHit, EventGiveaway, EventTakeaway:
		return true
	}
	return false
}

// Regime is one of the three prediction regimes.
type Regime int

const (
	RegimeRegulation      Regime = 0
	RegimeRegularOvertime Regime = 1
	RegimePlayoffOvertime Regime = 2
)

func (r Regime) String() string {
	switch r {
	case RegimeRegularOvertime:
		return "regular_ot"
	case RegimePlayoffOvertime:
		return "playoff_ot"
	default:
		return "regulation"
	}
}

// ParseRegime accepts the String form plus the short aliases used on the command line.
func ParseRegime(s string) (Regime, bool) {
	switch s {
	case "regulation":
		return RegimeRegulation, true
	case "regular_ot", "regular":
		return RegimeRegularOvertime, true
	case "playoff_ot", "playoff":
		return RegimePlayoffOvertime, true
	}
	return RegimeRegulation, false
}

// TimeColumn is the name of the time field an overtime regime keeps.
func (r Regime) TimeColumn() string {
	if r == RegimeRegularOvertime {
		return "time_remaining"
	}
	return "seconds_elapsed"
}

// Accepts reports whether an event in the given period belongs to the regime's
// extra time. Regular-season overtime is the single sudden-death period; later
// periods are the shootout and are excluded.
func (r Regime) Accepts(period int) bool {
	switch r {
	case RegimeRegularOvertime:
		return period == FirstOvertimePeriod
	case RegimePlayoffOvertime:
		return period >= FirstOvertimePeriod
	default:
		return period <= RegulationPeriods
	}
}
