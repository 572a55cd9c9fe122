package meter

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/pable/go-hockey-meter/internal/features"
	"github.com/pable/go-hockey-meter/internal/inference"
	"github.com/pable/go-hockey-meter/internal/model"
	"github.com/pable/go-hockey-meter/internal/slicer"
	"github.com/pable/go-hockey-meter/internal/storage"
)

type fakeStore struct {
	games    map[model.GameKey]model.Game
	slices   map[model.GameKey][]model.RegulationSlice
	overtime map[model.GameKey][]model.OvertimeRow
}

func (f *fakeStore) GetGame(key model.GameKey) (*model.Game, error) {
	g, ok := f.games[key]
	if !ok {
		return nil, fmt.Errorf("game %s: %w", key, storage.ErrNotFound)
	}
	return &g, nil
}

func (f *fakeStore) Slices(key model.GameKey) ([]model.RegulationSlice, error) {
	return f.slices[key], nil
}

func (f *fakeStore) OvertimeRows(key model.GameKey) ([]model.OvertimeRow, error) {
	return f.overtime[key], nil
}

// regModel predicts 1 - time_remaining so outputs are easy to check.
type regModel struct{}

func (regModel) Predict(_ context.Context, x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, row := range x {
		out[i] = 1 - row[0]
	}
	return out, nil
}
func (regModel) FeatureCount() int    { return len(model.SliceFeatureColumns) }
func (regModel) ConcurrentSafe() bool { return true }

type seqModel struct {
	window, features int
	hash             string
	p                float64
}

func (m seqModel) PredictSequences(_ context.Context, x [][][]float64) ([]float64, error) {
	if err := inference.CheckWindows(x, m.window, m.features); err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i := range out {
		out[i] = m.p
	}
	return out, nil
}
func (m seqModel) WindowSize() int      { return m.window }
func (m seqModel) FeatureCount() int    { return m.features }
func (m seqModel) ConcurrentSafe() bool { return false }
func (m seqModel) SchemaSHA256() string { return m.hash }

var (
	regGame     = model.Game{GameID: 1, Season: 2019, HomeTeam: "TOR", AwayTeam: "OTT", HomeScore: 3, AwayScore: 1, PeriodFinal: 3, HomeElo: 1550, AwayElo: 1450}
	shortOTGame = model.Game{GameID: 2, Season: 2019, HomeTeam: "TOR", AwayTeam: "BOS", HomeScore: 2, AwayScore: 1, PeriodFinal: 4, IsPlayoff: true, HomeElo: 1550, AwayElo: 1500}
	longOTGame  = model.Game{GameID: 3, Season: 2019, HomeTeam: "MTL", AwayTeam: "BOS", HomeScore: 1, AwayScore: 2, PeriodFinal: 5, IsPlayoff: true, HomeElo: 1500, AwayElo: 1520}
	regularOT   = model.Game{GameID: 4, Season: 2019, HomeTeam: "MTL", AwayTeam: "TOR", HomeScore: 3, AwayScore: 2, PeriodFinal: 4, HomeElo: 1500, AwayElo: 1520}
)

func otRow(g model.Game, seq, elapsed int, e model.EventType, team model.Side) model.OvertimeRow {
	return model.OvertimeRow{
		GameID: g.GameID, Season: g.Season, Seq: seq, Regime: model.RegimePlayoffOvertime,
		AwayElo: g.AwayElo, HomeElo: g.HomeElo, SecondsElapsed: elapsed,
		Event: e, Team: team, EventZone: "Neu", HomeZone: "Neu", Strength: "5x5", Winner: g.Winner(),
	}
}

func newStore(t *testing.T) *fakeStore {
	t.Helper()
	s := &fakeStore{
		games:    map[model.GameKey]model.Game{},
		slices:   map[model.GameKey][]model.RegulationSlice{},
		overtime: map[model.GameKey][]model.OvertimeRow{},
	}
	for _, g := range []model.Game{regGame, shortOTGame, longOTGame, regularOT} {
		s.games[g.Key()] = g
		// one home goal at 1510s
		events := []model.Event{{GameID: g.GameID, Season: g.Season, Period: 2, SecondsElapsed: 310,
			Type: model.EventGoal, ActingTeam: g.HomeTeam, Strength: "5x5"}}
		sl, err := slicer.Reduce(&g, events, slicer.DefaultInterval)
		if err != nil {
			t.Fatalf("slicer.Reduce: %v", err)
		}
		s.slices[g.Key()] = sl
	}
	s.overtime[shortOTGame.Key()] = []model.OvertimeRow{
		otRow(shortOTGame, 300, 0, model.EventFaceoff, model.SideHome),
		otRow(shortOTGame, 301, 15, model.EventGoal, model.SideHome),
	}
	s.overtime[longOTGame.Key()] = []model.OvertimeRow{
		otRow(longOTGame, 300, 0, model.EventFaceoff, model.SideHome),
		otRow(longOTGame, 301, 20, model.EventShot, model.SideAway),
		otRow(longOTGame, 302, 45, model.EventHit, model.SideHome),
		otRow(longOTGame, 303, 1200, model.EventFaceoff, model.SideAway),
		otRow(longOTGame, 304, 1290, model.EventGoal, model.SideAway),
	}
	return s
}

func playoffAligner(t *testing.T, s *fakeStore) *features.Aligner {
	t.Helper()
	var training []model.OvertimeRow
	for _, rows := range s.overtime {
		training = append(training, rows...)
	}
	schema, err := features.BuildSchema(features.Encode(training, model.RegimePlayoffOvertime))
	if err != nil {
		t.Fatalf("BuildSchema: %v", err)
	}
	a, err := features.NewAligner(model.RegimePlayoffOvertime, schema, 3, features.PadFront)
	if err != nil {
		t.Fatalf("NewAligner: %v", err)
	}
	return a
}

func newContext(t *testing.T) *Context {
	t.Helper()
	s := newStore(t)
	a := playoffAligner(t, s)
	c, err := New(Options{
		Store:      s,
		Regulation: regModel{},
		PlayoffOT: &Overtime{Aligner: a, Model: seqModel{
			window: 3, features: len(a.FeatureColumns()), hash: a.Schema().SHA256, p: 0.25,
		}},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestPredictRegulationOnly(t *testing.T) {
	c := newContext(t)
	p, err := c.Predict(context.Background(), regGame.Key())
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if p.Regime != model.RegimeRegulation {
		t.Errorf("regime = %s", p.Regime)
	}
	if p.Len() != 121 || len(p.Probs) != 121 || len(p.Scores) != 121 {
		t.Fatalf("expected 121 points, got %d/%d/%d", p.Len(), len(p.Probs), len(p.Scores))
	}
	if p.Times[0] != 0 || p.Times[120] != 3600 {
		t.Errorf("time axis should run 0..3600, got %v..%v", p.Times[0], p.Times[120])
	}
	if p.Probs[0] != 0 || p.Probs[120] != 1 {
		t.Errorf("unexpected probabilities %v .. %v", p.Probs[0], p.Probs[120])
	}
	// goal at 1510s shows from the 1530s slice
	if p.Scores[50].Home != 0 || p.Scores[51].Home != 1 {
		t.Errorf("score transition misplaced: %v %v", p.Scores[50], p.Scores[51])
	}
}

func TestPredictMinimalOvertimeIsPadded(t *testing.T) {
	c := newContext(t)
	p, err := c.Predict(context.Background(), shortOTGame.Key())
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if p.Len() != 121 {
		t.Fatalf("expected 120 regulation points plus one padded window, got %d", p.Len())
	}
	if math.Abs(p.Times[119]-3570) > 1e-9 || p.Times[120] != 3615 {
		t.Errorf("unexpected tail times %v %v", p.Times[119], p.Times[120])
	}
	if p.Probs[120] != 0.25 {
		t.Errorf("overtime probability = %v", p.Probs[120])
	}
	if last := p.Scores[120]; last.Home != 2 || last.Away != 1 {
		t.Errorf("timeline should end on the final score, got %+v", last)
	}
}

func TestPredictOvertimeWindows(t *testing.T) {
	c := newContext(t)
	p, err := c.Predict(context.Background(), longOTGame.Key())
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	// 121 - 1 + (5 - 3 + 1)
	if p.Len() != 123 || len(p.Scores) != 123 {
		t.Fatalf("expected 123 points, got %d", p.Len())
	}
	want := []float64{3645, 4800, 4890}
	for i, w := range want {
		if got := p.Times[120+i]; got != w {
			t.Errorf("window %d at %v, want %v", i, got, w)
		}
	}
	for i := 1; i < p.Len(); i++ {
		if p.Times[i] <= p.Times[i-1] {
			t.Fatalf("times must strictly increase: %v then %v", p.Times[i-1], p.Times[i])
		}
	}
	if p.Scores[121] != p.Scores[119] {
		t.Errorf("intermediate overtime scores should repeat the last regulation score")
	}
	if p.Scores[122].Away != 2 {
		t.Errorf("final score not appended: %+v", p.Scores[122])
	}
}

func TestPredictCollapsesSameSecondWindows(t *testing.T) {
	s := newStore(t)
	g := model.Game{GameID: 5, Season: 2019, HomeTeam: "TOR", AwayTeam: "MTL", HomeScore: 2, AwayScore: 1,
		PeriodFinal: 4, IsPlayoff: true, HomeElo: 1510, AwayElo: 1500}
	s.games[g.Key()] = g
	s.slices[g.Key()] = s.slices[shortOTGame.Key()]
	s.overtime[g.Key()] = []model.OvertimeRow{
		otRow(g, 300, 0, model.EventFaceoff, model.SideHome),
		otRow(g, 301, 14, model.EventShot, model.SideAway),
		otRow(g, 302, 20, model.EventShot, model.SideHome),
		otRow(g, 303, 20, model.EventGoal, model.SideHome),
	}
	a := playoffAligner(t, s)
	c, err := New(Options{
		Store:      s,
		Regulation: regModel{},
		PlayoffOT: &Overtime{Aligner: a, Model: seqModel{
			window: 3, features: len(a.FeatureColumns()), hash: a.Schema().SHA256, p: 0.4,
		}},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	p, err := c.Predict(context.Background(), g.Key())
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	// two windows end at 3620s and collapse into one point
	if p.Len() != 121 || len(p.Scores) != 121 {
		t.Fatalf("expected 121 points, got %d", p.Len())
	}
	if p.Times[120] != 3620 {
		t.Errorf("last point at %v, want 3620", p.Times[120])
	}
	if p.Scores[120].Home != 2 {
		t.Errorf("final score not appended: %+v", p.Scores[120])
	}
}

func TestPredictUnavailable(t *testing.T) {
	c := newContext(t)
	ctx := context.Background()

	_, err := c.Predict(ctx, model.GameKey{GameID: 99, Season: 2019})
	if !errors.Is(err, ErrUnavailable) || !errors.Is(err, ErrGameNotFound) {
		t.Errorf("expected unavailable + not found, got %v", err)
	}

	// no regular-season overtime model loaded
	p, err := c.Predict(ctx, regularOT.Key())
	if !errors.Is(err, ErrUnavailable) || p != nil {
		t.Errorf("expected unavailable without a partial timeline, got %v, %v", p, err)
	}
	if c.Supports(model.RegimeRegularOvertime) || !c.Supports(model.RegimePlayoffOvertime) {
		t.Error("Supports disagrees with the loaded models")
	}
}

func TestPredictConcurrent(t *testing.T) {
	c := newContext(t)
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := longOTGame.Key()
			if i%2 == 0 {
				key = shortOTGame.Key()
			}
			if _, err := c.Predict(context.Background(), key); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestNewRejectsInconsistentModels(t *testing.T) {
	s := newStore(t)
	a := playoffAligner(t, s)
	n := len(a.FeatureColumns())

	cases := []struct {
		name string
		opts Options
		want error
	}{
		{"feature count", Options{Store: s, Regulation: regModel{},
			PlayoffOT: &Overtime{Aligner: a, Model: seqModel{window: 3, features: n + 1}}}, inference.ErrShape},
		{"window size", Options{Store: s, Regulation: regModel{},
			PlayoffOT: &Overtime{Aligner: a, Model: seqModel{window: 4, features: n}}}, inference.ErrShape},
		{"schema hash", Options{Store: s, Regulation: regModel{},
			PlayoffOT: &Overtime{Aligner: a, Model: seqModel{window: 3, features: n, hash: "deadbeef"}}}, features.ErrSchemaMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.opts)
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if _, err := New(Options{Regulation: regModel{}}); err == nil {
		t.Error("nil store should be rejected")
	}
}

func TestWindowTimes(t *testing.T) {
	rows := []model.OvertimeRow{
		{Regime: model.RegimeRegularOvertime, TimeRemaining: 300},
		{Regime: model.RegimeRegularOvertime, TimeRemaining: 280},
		{Regime: model.RegimeRegularOvertime, TimeRemaining: 200},
		{Regime: model.RegimeRegularOvertime, TimeRemaining: 150},
	}
	got := WindowTimes(rows, 2)
	if len(got) != 2 || got[0] != 3700 || got[1] != 3750 {
		t.Errorf("WindowTimes = %v", got)
	}
}
