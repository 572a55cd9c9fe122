package pbp

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/pable/go-hockey-meter/internal/model"
)

func ptr[T any](v T) *T { return &v }

func TestReadGames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.parquet")
	recs := []GameRecord{
		{GameID: ptr(int64(20001)), Season: ptr(int64(2019)), Date: ptr("2019-10-02"),
			HomeTeam: ptr("TOR"), AwayTeam: ptr("OTT"), HomeScore: ptr(int64(5)), AwayScore: ptr(int64(3)),
			Period: ptr(int64(3)), Playoff: ptr(false),
			HomeStartingElo: ptr(1540.0), AwayStartingElo: ptr(1460.0)},
		{GameID: ptr(int64(30415)), Season: ptr(int64(2020)),
			HomeTeam: ptr("TOR"), AwayTeam: ptr("MTL"), HomeScore: ptr(int64(2)), AwayScore: ptr(int64(3)),
			Period: ptr(int64(5)), Playoff: ptr(true),
			HomeStartingElo: ptr(1560.0), AwayStartingElo: ptr(1510.0)},
	}
	if err := writeAll(path, recs); err != nil {
		t.Fatalf("writeAll: %v", err)
	}

	games, err := ReadGames(path)
	if err != nil {
		t.Fatalf("ReadGames: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("expected 2 games, got %d", len(games))
	}
	if games[0].Date != "2019-10-02" || games[0].IsPlayoff || games[0].HomeElo != 1540 {
		t.Errorf("unexpected first game %+v", games[0])
	}
	g := games[1]
	if g.Date != "" {
		t.Errorf("null date should read as empty, got %q", g.Date)
	}
	if !g.IsPlayoff || g.PeriodFinal != 5 || g.Regime() != model.RegimePlayoffOvertime {
		t.Errorf("unexpected second game %+v", g)
	}
}

func TestReadEventsAssignsSeqPerGame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pbp.parquet")
	ev := func(game int64, period int64, sec float64, typ, team, strength, desc string) EventRecord {
		r := EventRecord{
			GameID: ptr(game), Season: ptr(int64(2019)), Period: ptr(period),
			SecondsElapsed: ptr(sec), Event: ptr(typ), Strength: ptr(strength),
		}
		if team != "" {
			r.EvTeam = ptr(team)
		}
		if desc != "" {
			r.Type = ptr(desc)
		}
		return r
	}
	recs := []EventRecord{
		ev(1, 1, 0, "PSTR", "", "5x5", ""),
		ev(2, 1, 0, "PSTR", "", "5x5", ""),
		ev(1, 1, 14, "SHOT", "TOR", "5x5", ""),
		ev(1, 1, 30, "PENL", "OTT", "5x5", "Tripping(2 min)"),
		ev(2, 1, 9, "WHATEVER", "MTL", "5x5", ""),
	}
	if err := writeAll(path, recs); err != nil {
		t.Fatalf("writeAll: %v", err)
	}

	events, err := ReadEvents(path)
	if err != nil {
		t.Fatalf("ReadEvents: %v", err)
	}
	if len(events) != len(recs) {
		t.Fatalf("expected %d events, got %d", len(recs), len(events))
	}
	wantSeq := []int{0, 0, 1, 2, 1}
	for i, e := range events {
		if e.Seq != wantSeq[i] {
			t.Errorf("event %d: seq = %d, want %d", i, e.Seq, wantSeq[i])
		}
	}
	if events[3].Type != model.EventPenalty || events[3].Description != "Tripping(2 min)" || events[3].ActingTeam != "OTT" {
		t.Errorf("penalty not read back: %+v", events[3])
	}
	if events[0].ActingTeam != "" {
		t.Errorf("null team should read as empty, got %q", events[0].ActingTeam)
	}
	if events[4].Type != model.EventOther {
		t.Errorf("unknown event should map to OTHER, got %s", events[4].Type)
	}
}

func TestToEventReadsEventColumn(t *testing.T) {
	r := EventRecord{
		GameID: ptr(int64(20001)), Season: ptr(int64(2018)), Period: ptr(int64(4)),
		SecondsElapsed: ptr(41.0), Event: ptr("GOAL"), EvTeam: ptr("BOS"), Strength: ptr("3x3"),
	}
	e := r.ToEvent(7)
	if e.Type != model.EventGoal {
		t.Errorf("type = %q, want %q", e.Type, model.EventGoal)
	}
	if e.Seq != 7 || e.Period != 4 || e.SecondsElapsed != 41 || e.ActingTeam != "BOS" || e.Strength != "3x3" {
		t.Errorf("unexpected event: %+v", e)
	}
	if empty := (&EventRecord{}).ToEvent(0); empty.Type != model.EventOther {
		t.Errorf("missing event column should map to OTHER, got %q", empty.Type)
	}
}

type partialEvent struct {
	GameID *int64  `parquet:"name=Game_Id, type=INT64, repetitiontype=OPTIONAL"`
	Season *int64  `parquet:"name=Season, type=INT64, repetitiontype=OPTIONAL"`
	Event  *string `parquet:"name=Event, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
}

func TestReadEventsMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.parquet")
	if err := writeAll(path, []partialEvent{{GameID: ptr(int64(1)), Season: ptr(int64(2019)), Event: ptr("SHOT")}}); err != nil {
		t.Fatalf("writeAll: %v", err)
	}
	_, err := ReadEvents(path)
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slices.parquet")
	slices := []model.RegulationSlice{
		{GameID: 1, Season: 2019, TimeRemaining: 1, HomeElo: 1500, AwayElo: 1500, Winner: model.SideHome},
	}
	if err := WriteSlices(path, slices); err != nil {
		t.Fatalf("WriteSlices: %v", err)
	}
	cols, err := Columns(path)
	if err != nil {
		t.Fatalf("Columns: %v", err)
	}
	want := []string{"game", "season", "time_remaining", "away_elo", "home_elo", "away_score", "home_score",
		"away_pim", "home_pim", "away_hits", "home_hits", "away_shots", "home_shots", "strength", "winner"}
	if len(cols) != len(want) {
		t.Fatalf("columns: got %v, want %v", cols, want)
	}
	for i := range want {
		if cols[i] != want[i] {
			t.Errorf("column %d = %s, want %s", i, cols[i], want[i])
		}
	}
}

func TestWriteOvertimeKeepsRegimeClock(t *testing.T) {
	dir := t.TempDir()
	rows := []model.OvertimeRow{
		{GameID: 2, Season: 2020, Regime: model.RegimeRegularOvertime, TimeRemaining: 280,
			Event: model.EventShot, Team: model.SideHome, Strength: "3x3", Winner: model.SideHome},
		{GameID: 2, Season: 2020, Regime: model.RegimeRegularOvertime, TimeRemaining: 250,
			Event: model.EventGoal, Team: model.SideHome, EventZone: "Off", Strength: "3x3", Winner: model.SideHome},
	}
	path := filepath.Join(dir, "regular_ot_pbp.parquet")
	if err := WriteOvertime(path, rows); err != nil {
		t.Fatalf("WriteOvertime: %v", err)
	}
	got, err := readAll[OvertimeRecord](path, []string{"time_remaining", "seconds_elapsed"})
	if err != nil {
		t.Fatalf("readAll: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[1].TimeRemaining == nil || *got[1].TimeRemaining != 250 {
		t.Errorf("time_remaining not written: %+v", got[1])
	}
	if got[1].SecondsElapsed != nil {
		t.Errorf("seconds_elapsed should be null for regular overtime, got %d", *got[1].SecondsElapsed)
	}
	if got[0].EventZone != nil {
		t.Errorf("empty zone should be written as null")
	}
	if got[1].Event != "GOAL" || got[1].Team == nil || *got[1].Team != "home" {
		t.Errorf("unexpected record %+v", got[1])
	}
}
