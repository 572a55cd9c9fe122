package stitch_test

import (
	"errors"
	"testing"

	"github.com/pable/go-hockey-meter/internal/stitch"
	. "github.com/smartystreets/goconvey/convey"
)

func regulation(n int) stitch.Segment {
	s := stitch.Segment{}
	for i := range n {
		s.Times = append(s.Times, float64(i*30))
		s.Probs = append(s.Probs, 0.5+float64(i)/1000)
	}
	return s
}

func TestStitch(t *testing.T) {
	Convey("Given a full regulation segment of 121 points", t, func() {
		reg := regulation(121)

		Convey("When there is no overtime", func() {
			tl, err := stitch.Stitch(reg, nil, nil)

			Convey("Then the regulation series passes through unchanged", func() {
				So(err, ShouldBeNil)
				So(tl.Times, ShouldResemble, reg.Times)
				So(tl.Probs, ShouldResemble, reg.Probs)
				So(tl.Scores, ShouldBeNil)
			})
		})

		Convey("When an overtime segment of 4 windows follows", func() {
			ot := &stitch.Segment{
				Times: stitch.OvertimeTimes([]int{0, 12, 40, 61}),
				Probs: []float64{0.48, 0.52, 0.61, 0.97},
			}
			tl, err := stitch.Stitch(reg, ot, nil)
			So(err, ShouldBeNil)

			Convey("Then the length is (R-1)+O", func() {
				So(tl.Len(), ShouldEqual, 120+4)
				So(len(tl.Probs), ShouldEqual, tl.Len())
			})

			Convey("And the regulation end point is replaced by the first overtime point", func() {
				So(tl.Times[119], ShouldEqual, 3570)
				So(tl.Times[120], ShouldEqual, 3600)
				So(tl.Probs[120], ShouldEqual, 0.48)
			})

			Convey("And no two points share an elapsed time", func() {
				seen := map[float64]bool{}
				for _, x := range tl.Times {
					So(seen[x], ShouldBeFalse)
					seen[x] = true
				}
			})
		})

		Convey("When a score track is supplied with overtime", func() {
			scores := &stitch.Scores{Final: stitch.Score{Home: 3, Away: 2}}
			for i := range 121 {
				s := stitch.Score{Home: 1, Away: 1}
				if i > 100 {
					s = stitch.Score{Home: 2, Away: 2}
				}
				scores.Regulation = append(scores.Regulation, s)
			}
			ot := &stitch.Segment{
				Times: stitch.OvertimeTimes([]int{0, 12, 40}),
				Probs: []float64{0.5, 0.55, 0.9},
			}
			tl, err := stitch.Stitch(reg, ot, scores)
			So(err, ShouldBeNil)

			Convey("Then scores stay length-aligned with probabilities", func() {
				So(len(tl.Scores), ShouldEqual, tl.Len())
			})

			Convey("And the track freezes the regulation score and ends on the final", func() {
				So(tl.Scores[120], ShouldResemble, stitch.Score{Home: 2, Away: 2})
				So(tl.Scores[121], ShouldResemble, stitch.Score{Home: 2, Away: 2})
				So(tl.Scores[122], ShouldResemble, stitch.Score{Home: 3, Away: 2})
			})
		})

		Convey("When overtime has a single window", func() {
			scores := &stitch.Scores{Regulation: make([]stitch.Score, 121), Final: stitch.Score{Away: 1}}
			ot := &stitch.Segment{Times: []float64{3609}, Probs: []float64{0.1}}
			tl, err := stitch.Stitch(reg, ot, scores)

			Convey("Then the final score is still the last entry", func() {
				So(err, ShouldBeNil)
				So(tl.Len(), ShouldEqual, 121)
				So(len(tl.Scores), ShouldEqual, 121)
				So(tl.Scores[120], ShouldResemble, stitch.Score{Away: 1})
			})
		})

		Convey("When two overtime plays land in the same second", func() {
			scores := &stitch.Scores{Regulation: make([]stitch.Score, 121), Final: stitch.Score{Home: 1}}
			ot := &stitch.Segment{
				Times: stitch.OvertimeTimes([]int{0, 14, 14, 20}),
				Probs: []float64{0.5, 0.6, 0.7, 0.95},
			}
			tl, err := stitch.Stitch(reg, ot, scores)
			So(err, ShouldBeNil)

			Convey("Then they collapse to the later point", func() {
				So(tl.Len(), ShouldEqual, 120+3)
				So(tl.Times[120:], ShouldResemble, []float64{3600, 3614, 3620})
				So(tl.Probs[120:], ShouldResemble, []float64{0.5, 0.7, 0.95})
			})

			Convey("And scores stay aligned and end on the final", func() {
				So(len(tl.Scores), ShouldEqual, tl.Len())
				So(tl.Scores[tl.Len()-1], ShouldResemble, stitch.Score{Home: 1})
			})

			Convey("And the caller's segment is left untouched", func() {
				So(ot.Len(), ShouldEqual, 4)
			})
		})
	})

	Convey("Given mismatched inputs", t, func() {
		Convey("Times and probabilities of different lengths fail", func() {
			_, err := stitch.Stitch(stitch.Segment{Times: []float64{0, 30}, Probs: []float64{0.5}}, nil, nil)
			So(errors.Is(err, stitch.ErrLength), ShouldBeTrue)
		})

		Convey("A score track of the wrong length fails", func() {
			_, err := stitch.Stitch(regulation(3), nil, &stitch.Scores{Regulation: make([]stitch.Score, 2)})
			So(errors.Is(err, stitch.ErrLength), ShouldBeTrue)
		})

		Convey("An overtime segment starting inside regulation fails", func() {
			ot := &stitch.Segment{Times: []float64{10}, Probs: []float64{0.5}}
			_, err := stitch.Stitch(regulation(5), ot, nil)
			So(errors.Is(err, stitch.ErrOverlap), ShouldBeTrue)
		})

		Convey("An overtime segment with no regulation fails", func() {
			ot := &stitch.Segment{Times: []float64{3600}, Probs: []float64{0.5}}
			_, err := stitch.Stitch(stitch.Segment{}, ot, nil)
			So(errors.Is(err, stitch.ErrLength), ShouldBeTrue)
		})
	})
}

func TestTimeAxes(t *testing.T) {
	Convey("Time axes are elapsed seconds", t, func() {
		So(stitch.RegulationTimes([]float64{1, 0.5, 0}), ShouldResemble, []float64{0, 1800, 3600})
		So(stitch.OvertimeTimes([]int{0, 95, 1300}), ShouldResemble, []float64{3600, 3695, 4900})
	})
}
