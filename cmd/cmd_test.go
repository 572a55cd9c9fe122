package cmd

import (
	"testing"

	"github.com/pable/go-hockey-meter/internal/batch"
	"github.com/pable/go-hockey-meter/internal/model"
	"github.com/pable/go-hockey-meter/internal/storage"
)

func TestOvertimeRegime(t *testing.T) {
	for in, want := range map[string]model.Regime{
		"regular":    model.RegimeRegularOvertime,
		"regular_ot": model.RegimeRegularOvertime,
		"playoff":    model.RegimePlayoffOvertime,
	} {
		got, err := overtimeRegime(in)
		if err != nil || got != want {
			t.Errorf("overtimeRegime(%q) = %v, %v", in, got, err)
		}
	}
	for _, bad := range []string{"regulation", "shootout", ""} {
		if _, err := overtimeRegime(bad); err == nil {
			t.Errorf("overtimeRegime(%q) should fail", bad)
		}
	}
}

func TestSplitGames(t *testing.T) {
	rows := []model.OvertimeRow{
		{GameID: 1, Season: 2020, Seq: 0}, {GameID: 1, Season: 2020, Seq: 1},
		{GameID: 1, Season: 2021, Seq: 0},
		{GameID: -1, Season: 2020}, {GameID: -2, Season: 2020}, {GameID: -2, Season: 2020},
	}
	got := splitGames(rows)
	want := []int{2, 1, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("got %d groups, want %d", len(got), len(want))
	}
	for i, g := range got {
		if len(g) != want[i] {
			t.Errorf("group %d has %d rows, want %d", i, len(g), want[i])
		}
	}
	if splitGames(nil) != nil {
		t.Error("no rows should give no groups")
	}
}

func TestStoreReplacesDerivedRows(t *testing.T) {
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	g := model.Game{GameID: 30411, Season: 2020, HomeTeam: "TOR", AwayTeam: "MTL",
		HomeScore: 3, AwayScore: 2, PeriodFinal: 4, IsPlayoff: true, HomeElo: 1520, AwayElo: 1490}
	events := []model.Event{
		{GameID: g.GameID, Season: g.Season, Seq: 0, Period: 1, Type: model.EventFaceoff, ActingTeam: "TOR", Strength: "5x5"},
		{GameID: g.GameID, Season: g.Season, Seq: 1, Period: 4, SecondsElapsed: 40, Type: model.EventShot, ActingTeam: "MTL", Strength: "5x5"},
		{GameID: g.GameID, Season: g.Season, Seq: 2, Period: 4, SecondsElapsed: 75, Type: model.EventGoal, ActingTeam: "TOR", Strength: "5x5"},
	}
	if err := db.InsertGames([]model.Game{g}); err != nil {
		t.Fatal(err)
	}
	if err := db.InsertEvents(events); err != nil {
		t.Fatal(err)
	}

	res, err := batch.Reduce(&g, events, 30)
	if err != nil {
		t.Fatal(err)
	}
	slices, regular, playoff := batch.Flatten([]batch.Result{*res})

	// twice, to check the second pass replaces rather than duplicates
	for range 2 {
		if err := store(db, []model.Game{g}, slices, regular, playoff); err != nil {
			t.Fatalf("store: %v", err)
		}
	}

	gotSlices, err := db.Slices(g.Key())
	if err != nil || len(gotSlices) != len(slices) {
		t.Errorf("slices: %d stored, want %d (%v)", len(gotSlices), len(slices), err)
	}
	gotRows, err := db.OvertimeRows(g.Key())
	if err != nil || len(gotRows) != len(playoff) {
		t.Errorf("overtime rows: %d stored, want %d (%v)", len(gotRows), len(playoff), err)
	}
}
