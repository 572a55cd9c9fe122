// Package stitch joins the regulation and overtime prediction series of a game
// into one elapsed-time timeline.
package stitch

import (
	"errors"
	"fmt"

	"github.com/pable/go-hockey-meter/internal/model"
)

var (
	// ErrLength means two series that must be aligned have different lengths.
	ErrLength = errors.New("series length mismatch")
	// ErrOverlap means the overtime segment starts at or before the regulation tail.
	ErrOverlap = errors.New("overtime segment overlaps regulation")
)

// Segment is one regime's predictions. Times are elapsed seconds since the
// opening faceoff.
type Segment struct {
	Times []float64
	Probs []float64
}

// Len returns the number of points.
func (s Segment) Len() int { return len(s.Times) }

func (s Segment) validate(name string) error {
	if len(s.Times) != len(s.Probs) {
		return fmt.Errorf("%w: %s has %d times and %d probabilities", ErrLength, name, len(s.Times), len(s.Probs))
	}
	return nil
}

// Score is the running score at one point of the timeline.
type Score struct {
	Home int
	Away int
}

// Scores is the optional score track: one entry per regulation point plus the
// game's final score.
type Scores struct {
	Regulation []Score
	Final      Score
}

// Timeline is the stitched result. Scores is nil when no score track was given.
type Timeline struct {
	Times  []float64
	Probs  []float64
	Scores []Score
}

// Len returns the number of points.
func (t *Timeline) Len() int { return len(t.Times) }

// Stitch combines a regulation segment with an optional overtime segment.
//
// Without overtime the regulation series pass through unchanged and the score
// track is the regulation scores. With overtime the last regulation point is
// dropped, since it and the first overtime window describe the same instant,
// and the overtime segment is appended whole. The score track is then
// extended to the same length by repeating the last regulation score and
// ending on the final score.
//
// Overtime points sharing an elapsed time (two plays in the same second)
// collapse to the last of them, so no two timeline points share a time.
func Stitch(reg Segment, ot *Segment, scores *Scores) (*Timeline, error) {
	if err := reg.validate("regulation"); err != nil {
		return nil, err
	}
	if scores != nil && len(scores.Regulation) != reg.Len() {
		return nil, fmt.Errorf("%w: %d regulation scores for %d points", ErrLength, len(scores.Regulation), reg.Len())
	}

	if ot == nil || ot.Len() == 0 {
		t := &Timeline{
			Times: append([]float64(nil), reg.Times...),
			Probs: append([]float64(nil), reg.Probs...),
		}
		if scores != nil {
			t.Scores = append([]Score(nil), scores.Regulation...)
		}
		return t, nil
	}

	if err := ot.validate("overtime"); err != nil {
		return nil, err
	}
	if reg.Len() == 0 {
		return nil, fmt.Errorf("%w: overtime without regulation", ErrLength)
	}
	o := collapse(*ot)
	ot = &o

	kept := reg.Len() - 1
	if kept > 0 && ot.Times[0] <= reg.Times[kept-1] {
		return nil, fmt.Errorf("%w: overtime starts at %.0fs, regulation kept through %.0fs",
			ErrOverlap, ot.Times[0], reg.Times[kept-1])
	}

	n := kept + ot.Len()
	t := &Timeline{
		Times: make([]float64, 0, n),
		Probs: make([]float64, 0, n),
	}
	t.Times = append(append(t.Times, reg.Times[:kept]...), ot.Times...)
	t.Probs = append(append(t.Probs, reg.Probs[:kept]...), ot.Probs...)

	if scores != nil {
		t.Scores = extendScores(scores, n)
	}
	return t, nil
}

// collapse keeps the last point of each run of equal times.
func collapse(s Segment) Segment {
	out := Segment{
		Times: make([]float64, 0, s.Len()),
		Probs: make([]float64, 0, s.Len()),
	}
	for i, x := range s.Times {
		if n := len(out.Times); n > 0 && out.Times[n-1] == x {
			out.Probs[n-1] = s.Probs[i]
			continue
		}
		out.Times = append(out.Times, x)
		out.Probs = append(out.Probs, s.Probs[i])
	}
	return out
}

// extendScores builds a score track of length n: regulation scores, then the
// last regulation score repeated, then the final score.
func extendScores(s *Scores, n int) []Score {
	out := make([]Score, 0, n)
	out = append(out, s.Regulation[:min(len(s.Regulation), n-1)]...)
	last := s.Regulation[len(s.Regulation)-1]
	for len(out) < n-1 {
		out = append(out, last)
	}
	return append(out, s.Final)
}

// RegulationTimes converts normalized time remaining (1 at the opening faceoff)
// into elapsed seconds.
func RegulationTimes(remaining []float64) []float64 {
	out := make([]float64, len(remaining))
	for i, r := range remaining {
		out[i] = model.RegulationSeconds - r*model.RegulationSeconds
	}
	return out
}

// OvertimeTimes places overtime-local elapsed seconds after regulation.
func OvertimeTimes(elapsed []int) []float64 {
	out := make([]float64, len(elapsed))
	for i, e := range elapsed {
		out[i] = float64(model.RegulationSeconds + e)
	}
	return out
}
