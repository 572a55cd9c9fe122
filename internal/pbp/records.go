// Package pbp reads the scraped game and play-by-play tables from parquet and
// writes the derived slice and overtime tables back out.
//
// Input columns follow the scraper's naming (Game_Id, Ev_Team, ...). Every
// input column is read as OPTIONAL since pandas/pyarrow writes nullable
// columns; missing values become zero values.
package pbp

import (
	"github.com/pable/go-hockey-meter/internal/model"
)

// EventRecord is one row of the play-by-play table.
type EventRecord struct {
	GameID         *int64   `parquet:"name=Game_Id, type=INT64, repetitiontype=OPTIONAL"`
	Season         *int64   `parquet:"name=Season, type=INT64, repetitiontype=OPTIONAL"`
	Period         *int64   `parquet:"name=Period, type=INT64, repetitiontype=OPTIONAL"`
	SecondsElapsed *float64 `parquet:"name=Seconds_Elapsed, type=DOUBLE, repetitiontype=OPTIONAL"`
	Event          *string  `parquet:"name=Event, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	EvTeam         *string  `parquet:"name=Ev_Team, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	EvZone         *string  `parquet:"name=Ev_Zone, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	HomeZone       *string  `parquet:"name=Home_Zone, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Strength       *string  `parquet:"name=Strength, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Type           *string  `parquet:"name=Type, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
}

// EventColumns must all be present in a play-by-play file.
var EventColumns = []string{
	"Game_Id", "Season", "Period", "Seconds_Elapsed", "Event",
	"Ev_Team", "Ev_Zone", "Home_Zone", "Strength", "Type",
}

// GameRecord is one row of the games table.
type GameRecord struct {
	GameID          *int64   `parquet:"name=Game_Id, type=INT64, repetitiontype=OPTIONAL"`
	Season          *int64   `parquet:"name=Season, type=INT64, repetitiontype=OPTIONAL"`
	Date            *string  `parquet:"name=Date, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	HomeTeam        *string  `parquet:"name=Home_Team, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	AwayTeam        *string  `parquet:"name=Away_Team, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	HomeScore       *int64   `parquet:"name=Home_Score, type=INT64, repetitiontype=OPTIONAL"`
	AwayScore       *int64   `parquet:"name=Away_Score, type=INT64, repetitiontype=OPTIONAL"`
	Period          *int64   `parquet:"name=Period, type=INT64, repetitiontype=OPTIONAL"`
	Playoff         *bool    `parquet:"name=Playoff, type=BOOLEAN, repetitiontype=OPTIONAL"`
	HomeStartingElo *float64 `parquet:"name=Home_Starting_Elo, type=DOUBLE, repetitiontype=OPTIONAL"`
	AwayStartingElo *float64 `parquet:"name=Away_Starting_Elo, type=DOUBLE, repetitiontype=OPTIONAL"`
}

// GameColumns must all be present in a games file. Date is optional.
var GameColumns = []string{
	"Game_Id", "Season", "Home_Team", "Away_Team", "Home_Score", "Away_Score",
	"Period", "Playoff", "Home_Starting_Elo", "Away_Starting_Elo",
}

// SliceRecord is one row of time_slices.parquet.
type SliceRecord struct {
	Game          int64   `parquet:"name=game, type=INT64"`
	Season        int64   `parquet:"name=season, type=INT64"`
	TimeRemaining float64 `parquet:"name=time_remaining, type=DOUBLE"`
	AwayElo       float64 `parquet:"name=away_elo, type=DOUBLE"`
	HomeElo       float64 `parquet:"name=home_elo, type=DOUBLE"`
	AwayScore     int64   `parquet:"name=away_score, type=INT64"`
	HomeScore     int64   `parquet:"name=home_score, type=INT64"`
	AwayPIM       int64   `parquet:"name=away_pim, type=INT64"`
	HomePIM       int64   `parquet:"name=home_pim, type=INT64"`
	AwayHits      int64   `parquet:"name=away_hits, type=INT64"`
	HomeHits      int64   `parquet:"name=home_hits, type=INT64"`
	AwayShots     int64   `parquet:"name=away_shots, type=INT64"`
	HomeShots     int64   `parquet:"name=home_shots, type=INT64"`
	Strength      int64   `parquet:"name=strength, type=INT64"`
	Winner        string  `parquet:"name=winner, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
}

// OvertimeRecord is one row of regular_ot_pbp.parquet or playoff_ot_pbp.parquet.
// Only the clock of the file's regime is set.
type OvertimeRecord struct {
	Game           int64   `parquet:"name=game, type=INT64"`
	Season         int64   `parquet:"name=season, type=INT64"`
	AwayElo        float64 `parquet:"name=away_elo, type=DOUBLE"`
	HomeElo        float64 `parquet:"name=home_elo, type=DOUBLE"`
	SecondsElapsed *int64  `parquet:"name=seconds_elapsed, type=INT64, repetitiontype=OPTIONAL"`
	TimeRemaining  *int64  `parquet:"name=time_remaining, type=INT64, repetitiontype=OPTIONAL"`
	Event          string  `parquet:"name=event, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Team           *string `parquet:"name=team, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	EventZone      *string `parquet:"name=event_zone, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	HomeZone       *string `parquet:"name=home_zone, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Strength       string  `parquet:"name=strength, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Winner         string  `parquet:"name=winner, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
}

// Game converts a record, treating null cells as zero values.
func (r *GameRecord) Game() model.Game {
	return model.Game{
		GameID:      int(i64(r.GameID)),
		Season:      int(i64(r.Season)),
		Date:        str(r.Date),
		HomeTeam:    str(r.HomeTeam),
		AwayTeam:    str(r.AwayTeam),
		HomeScore:   int(i64(r.HomeScore)),
		AwayScore:   int(i64(r.AwayScore)),
		PeriodFinal: int(i64(r.Period)),
		IsPlayoff:   r.Playoff != nil && *r.Playoff,
		HomeElo:     f64(r.HomeStartingElo),
		AwayElo:     f64(r.AwayStartingElo),
	}
}

// ToEvent converts a record. seq is the row's position within its game.
func (r *EventRecord) ToEvent(seq int) model.Event {
	return model.Event{
		GameID:         int(i64(r.GameID)),
		Season:         int(i64(r.Season)),
		Seq:            seq,
		Period:         int(i64(r.Period)),
		SecondsElapsed: int(f64(r.SecondsElapsed)),
		Type:           model.ParseEventType(str(r.Event)),
		ActingTeam:     str(r.EvTeam),
		EventZone:      str(r.EvZone),
		HomeZone:       str(r.HomeZone),
		Strength:       str(r.Strength),
		Description:    str(r.Type),
	}
}

// NewSliceRecord converts a slice for export.
func NewSliceRecord(s *model.RegulationSlice) SliceRecord {
	return SliceRecord{
		Game:          int64(s.GameID),
		Season:        int64(s.Season),
		TimeRemaining: s.TimeRemaining,
		AwayElo:       s.AwayElo,
		HomeElo:       s.HomeElo,
		AwayScore:     int64(s.AwayScore),
		HomeScore:     int64(s.HomeScore),
		AwayPIM:       int64(s.AwayPIM),
		HomePIM:       int64(s.HomePIM),
		AwayHits:      int64(s.AwayHits),
		HomeHits:      int64(s.HomeHits),
		AwayShots:     int64(s.AwayShots),
		HomeShots:     int64(s.HomeShots),
		Strength:      int64(s.Strength),
		Winner:        s.Winner.String(),
	}
}

// NewOvertimeRecord converts an overtime row for export.
func NewOvertimeRecord(r *model.OvertimeRow) OvertimeRecord {
	rec := OvertimeRecord{
		Game:      int64(r.GameID),
		Season:    int64(r.Season),
		AwayElo:   r.AwayElo,
		HomeElo:   r.HomeElo,
		Event:     string(r.Event),
		Team:      optStr(r.Team.String()),
		EventZone: optStr(r.EventZone),
		HomeZone:  optStr(r.HomeZone),
		Strength:  r.Strength,
		Winner:    r.Winner.String(),
	}
	if r.Regime == model.RegimeRegularOvertime {
		v := int64(r.TimeRemaining)
		rec.TimeRemaining = &v
	} else {
		v := int64(r.SecondsElapsed)
		rec.SecondsElapsed = &v
	}
	return rec
}

func i64(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

func f64(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func optStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
