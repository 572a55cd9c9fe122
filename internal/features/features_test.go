package features

import (
	"errors"
	"path/filepath"
	"reflect"
	"slices"
	"testing"

	"github.com/pable/go-hockey-meter/internal/model"
)

func playoffRow(game, seq, elapsed int, e model.EventType, team model.Side, zone, strength string) model.OvertimeRow {
	return model.OvertimeRow{
		GameID: game, Season: 2019, Seq: seq,
		Regime:  model.RegimePlayoffOvertime,
		AwayElo: 1500, HomeElo: 1600,
		SecondsElapsed: elapsed,
		Event:          e, Team: team,
		EventZone: zone, HomeZone: zone, Strength: strength,
		Winner: model.SideHome,
	}
}

// trainingRows is a small playoff overtime table covering more categories than
// any single game uses.
func trainingRows() []model.OvertimeRow {
	return []model.OvertimeRow{
		playoffRow(1, 0, 0, model.EventFaceoff, model.SideHome, "Neu", "5x5"),
		playoffRow(1, 1, 14, model.EventShot, model.SideAway, "Off", "5x5"),
		playoffRow(1, 2, 30, model.EventBlock, model.SideHome, "Def", "5x4"),
		playoffRow(1, 3, 41, model.EventHit, model.SideAway, "Neu", "4x5"),
		playoffRow(1, 4, 70, model.EventGoal, model.SideHome, "Off", "5x5"),
		playoffRow(2, 0, 0, model.EventFaceoff, model.SideAway, "Neu", "5x5"),
		playoffRow(2, 1, 22, model.EventMiss, model.SideAway, "Off", "5x5"),
		playoffRow(2, 2, 35, model.EventGiveaway, model.SideHome, "Def", "5x5"),
		playoffRow(2, 3, 50, model.EventTakeaway, model.SideAway, "Off", "5x5"),
		playoffRow(2, 4, 63, model.EventGoal, model.SideAway, "Off", "5x5"),
	}
}

func trainingSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := BuildSchema(Encode(trainingRows(), model.RegimePlayoffOvertime))
	if err != nil {
		t.Fatalf("BuildSchema: %v", err)
	}
	return s
}

func TestOneHot_ColumnOrder(t *testing.T) {
	rows := []model.OvertimeRow{
		playoffRow(1, 0, 0, model.EventShot, model.SideHome, "Off", "5x5"),
		playoffRow(1, 1, 5, model.EventFaceoff, model.SideAway, "", "4x4"),
	}
	got := Encode(rows, model.RegimePlayoffOvertime).Columns
	want := []string{
		"game", "season", "away_elo", "home_elo", "seconds_elapsed", "winner",
		"event_FAC", "event_SHOT",
		"team_away", "team_home",
		"event_zone_Off",
		"home_zone_Off",
		"strength_4x4", "strength_5x5",
	}
	if !slices.Equal(got, want) {
		t.Errorf("columns:\n got %v\nwant %v", got, want)
	}
}

func TestOneHot_Values(t *testing.T) {
	rows := []model.OvertimeRow{
		playoffRow(1, 0, 0, model.EventShot, model.SideHome, "Off", "5x5"),
		playoffRow(1, 1, 5, model.EventFaceoff, model.SideNone, "", "4x4"),
	}
	f := Encode(rows, model.RegimePlayoffOvertime)
	x, err := f.Matrix([]string{"event_FAC", "event_SHOT", "team_home", "event_zone_Off"})
	if err != nil {
		t.Fatalf("Matrix: %v", err)
	}
	want := [][]float64{{0, 1, 1, 1}, {1, 0, 0, 0}}
	if !reflect.DeepEqual(x, want) {
		t.Errorf("got %v, want %v", x, want)
	}
}

func TestReindex_FillsAndDrops(t *testing.T) {
	f := &Frame{
		Columns: []string{"a", "extra", "b"},
		Rows:    [][]Cell{{Num(1), Num(9), Num(2)}},
	}
	got := f.Reindex([]string{"b", "missing", "a"})
	if !slices.Equal(got.Columns, []string{"b", "missing", "a"}) {
		t.Fatalf("columns: %v", got.Columns)
	}
	want := []Cell{Num(2), Num(0), Num(1)}
	if !reflect.DeepEqual(got.Rows[0], want) {
		t.Errorf("row: got %+v, want %+v", got.Rows[0], want)
	}
}

func TestReindex_Idempotent(t *testing.T) {
	s := trainingSchema(t)
	f := Encode(trainingRows(), model.RegimePlayoffOvertime).Reindex(s.Columns)

	again := f.Reindex(s.Columns)
	if !reflect.DeepEqual(f, again) {
		t.Error("reindexing onto the frame's own columns changed it")
	}
}

func TestPadFront(t *testing.T) {
	f := FromOvertimeRows([]model.OvertimeRow{
		playoffRow(7, 0, 0, model.EventFaceoff, model.SideHome, "Neu", "5x5"),
	})
	padded, n, err := f.PadFront(3)
	if err != nil {
		t.Fatalf("PadFront: %v", err)
	}
	if n != 2 || padded.Len() != 3 {
		t.Fatalf("expected 2 pad rows and length 3, got %d and %d", n, padded.Len())
	}
	blank := padded.Rows[0]
	for i := 0; i < identityColumns; i++ {
		if blank[i] != f.Rows[0][i] {
			t.Errorf("identity column %s not copied", f.Columns[i])
		}
	}
	for i := identityColumns; i < len(blank); i++ {
		if blank[i].Kind != Missing {
			t.Errorf("column %s should be missing in a pad row", f.Columns[i])
		}
	}
	if !reflect.DeepEqual(padded.Rows[2], f.Rows[0]) {
		t.Error("real row should come last")
	}

	if _, _, err := (&Frame{Columns: f.Columns}).PadFront(3); !errors.Is(err, ErrTooFewEvents) {
		t.Errorf("padding an empty frame: got %v", err)
	}
}

// An overtime that ends on the second play still yields a window once padded.
func TestAlign_MinimalOvertime(t *testing.T) {
	s := trainingSchema(t)
	a, err := NewAligner(model.RegimePlayoffOvertime, s, 3, PadFront)
	if err != nil {
		t.Fatalf("NewAligner: %v", err)
	}
	rows := []model.OvertimeRow{
		playoffRow(99, 0, 0, model.EventFaceoff, model.SideAway, "Neu", "5x5"),
		playoffRow(99, 1, 9, model.EventGoal, model.SideHome, "Off", "5x5"),
	}
	ws, err := a.Align(rows)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	if len(ws) != 1 {
		t.Fatalf("expected exactly one window, got %d", len(ws))
	}
	w := ws[0]
	if len(w.Rows) != 3 || len(w.Rows[0]) != len(a.FeatureColumns()) {
		t.Fatalf("window shape %dx%d, want 3x%d", len(w.Rows), len(w.Rows[0]), len(a.FeatureColumns()))
	}
	if w.Label != model.SideHome {
		t.Errorf("label should come from the real rows, got %v", w.Label)
	}
	if w.Key != (model.GameKey{GameID: 99, Season: 2019}) {
		t.Errorf("key: %+v", w.Key)
	}

	cols := a.FeatureColumns()
	pad := w.Rows[0]
	for i, c := range cols {
		switch c {
		case ColAwayElo:
			if pad[i] != 1500 {
				t.Errorf("pad row away_elo = %v", pad[i])
			}
		case ColHomeElo:
			if pad[i] != 1600 {
				t.Errorf("pad row home_elo = %v", pad[i])
			}
		default:
			if pad[i] != 0 {
				t.Errorf("pad row column %s = %v, want 0", c, pad[i])
			}
		}
	}
	goal := w.Rows[2]
	if goal[slices.Index(cols, "event_GOAL")] != 1 || goal[slices.Index(cols, ColSecondsElapsed)] != 9 {
		t.Errorf("last row should be the goal at 9s: %v", goal)
	}
}

func TestAlign_RejectPolicy(t *testing.T) {
	a, err := NewAligner(model.RegimePlayoffOvertime, trainingSchema(t), 3, Reject)
	if err != nil {
		t.Fatalf("NewAligner: %v", err)
	}
	rows := []model.OvertimeRow{
		playoffRow(99, 0, 0, model.EventFaceoff, model.SideAway, "Neu", "5x5"),
		playoffRow(99, 1, 9, model.EventGoal, model.SideHome, "Off", "5x5"),
	}
	if _, err := a.Align(rows); !errors.Is(err, ErrTooFewEvents) {
		t.Errorf("expected ErrTooFewEvents, got %v", err)
	}
}

func TestAlign_UnseenCategoriesDropped(t *testing.T) {
	s := trainingSchema(t)
	a, err := NewAligner(model.RegimePlayoffOvertime, s, 3, PadFront)
	if err != nil {
		t.Fatalf("NewAligner: %v", err)
	}
	rows := []model.OvertimeRow{
		playoffRow(5, 0, 0, model.EventFaceoff, model.SideHome, "Neu", "3x3"),
		playoffRow(5, 1, 3, model.EventShot, model.SideHome, "Off", "3x3"),
		playoffRow(5, 2, 8, model.EventShot, model.SideHome, "Off", "6x5"),
		playoffRow(5, 3, 11, model.EventGoal, model.SideHome, "Off", "6x5"),
	}
	f, err := a.Frame(rows)
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if !slices.Equal(f.Columns, s.Columns) {
		t.Fatalf("aligned columns differ from schema")
	}
	ws, err := a.Align(rows)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	if len(ws) != 2 {
		t.Errorf("4 plays with window 3 should yield 2 windows, got %d", len(ws))
	}
}

func TestAlign_MultipleGames(t *testing.T) {
	a, err := NewAligner(model.RegimePlayoffOvertime, trainingSchema(t), 3, PadFront)
	if err != nil {
		t.Fatalf("NewAligner: %v", err)
	}
	ws, err := a.Align(trainingRows())
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	if len(ws) != 6 {
		t.Errorf("two games of 5 plays should yield 6 windows, got %d", len(ws))
	}
}

func TestRegularOvertimeKeepsCountdown(t *testing.T) {
	rows := []model.OvertimeRow{{
		GameID: 1, Season: 2019, Regime: model.RegimeRegularOvertime,
		TimeRemaining: 280, Event: model.EventShot, Team: model.SideHome, Strength: "3x3",
	}}
	f := Encode(rows, model.RegimeRegularOvertime)
	if f.Index(ColTimeRemaining) < 0 || f.Index(ColSecondsElapsed) >= 0 {
		t.Errorf("regular-season frame should keep time_remaining only: %v", f.Columns)
	}
}

func TestSchema_SaveLoad(t *testing.T) {
	s := trainingSchema(t)
	path := filepath.Join(t.TempDir(), "one_hot_columns.json")
	if err := s.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := LoadSchema(path)
	if err != nil {
		t.Fatalf("LoadSchema: %v", err)
	}
	if !reflect.DeepEqual(got, s) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, s)
	}
	if err := got.CheckCompatible(s.SHA256); err != nil {
		t.Errorf("CheckCompatible: %v", err)
	}
	if err := got.CheckCompatible("deadbeef"); !errors.Is(err, ErrSchemaMismatch) {
		t.Errorf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestSchema_Legacy(t *testing.T) {
	s, err := ParseSchema([]byte(`["game","season","away_elo","event_FAC","winner"]`))
	if err != nil {
		t.Fatalf("ParseSchema: %v", err)
	}
	if !slices.Equal(s.FeatureColumns(), []string{"away_elo", "event_FAC"}) {
		t.Errorf("feature columns: %v", s.FeatureColumns())
	}
	if s.SHA256 != HashColumns(s.Columns) {
		t.Error("legacy schema should get a computed hash")
	}
}

func TestSchema_Invalid(t *testing.T) {
	cases := map[string]string{
		"empty":     `[]`,
		"duplicate": `["a","a"]`,
		"garbage":   `{not json`,
		"future":    `{"version": 99, "columns": ["a"]}`,
	}
	for name, body := range cases {
		if _, err := ParseSchema([]byte(body)); !errors.Is(err, ErrSchemaInvalid) {
			t.Errorf("%s: expected ErrSchemaInvalid, got %v", name, err)
		}
	}

	if _, err := ParseSchema([]byte(`{"version":1,"columns":["a","b"],"sha256":"00"}`)); !errors.Is(err, ErrSchemaMismatch) {
		t.Errorf("tampered hash: expected ErrSchemaMismatch, got %v", err)
	}

	if _, err := LoadSchema(filepath.Join(t.TempDir(), "absent.json")); !errors.Is(err, ErrSchemaInvalid) {
		t.Errorf("absent file: expected ErrSchemaInvalid, got %v", err)
	}
}

func TestMatrix_RejectsText(t *testing.T) {
	f := &Frame{Columns: []string{"winner"}, Rows: [][]Cell{{Str("home")}}}
	if _, err := f.Matrix([]string{"winner"}); err == nil {
		t.Error("expected error for text cell")
	}
}
