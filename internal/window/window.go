// Package window turns per-event feature rows into fixed-length, stride-1
// sequences grouped by game.
package window

import (
	"fmt"

	"github.com/pable/go-hockey-meter/internal/model"
)

// DefaultSize is the sequence length the overtime models were trained with.
const DefaultSize = 3

// Row is one per-event feature vector. Key and Label are carried beside the
// features and never part of them.
type Row struct {
	Key      model.GameKey
	Label    model.Winner
	Features []float64
}

// Window is a run of Size consecutive rows from one game plus the game's label.
type Window struct {
	Key   model.GameKey
	Label model.Winner
	Rows  [][]float64
}

// Build groups rows by (season, game) and emits every stride-1 window of the
// given size. Groups come out in order of first appearance and rows keep their
// input order, so the output is reproducible for a given input. A group of N
// rows yields max(0, N-size+1) windows.
//
// The label of a group is the first set label among its rows; front padding
// rows have none.
func Build(rows []Row, size int) ([]Window, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", size)
	}

	var order []model.GameKey
	groups := make(map[model.GameKey][]Row)
	for _, r := range rows {
		if _, ok := groups[r.Key]; !ok {
			order = append(order, r.Key)
		}
		groups[r.Key] = append(groups[r.Key], r)
	}

	var out []Window
	for _, key := range order {
		group := groups[key]
		label := groupLabel(group)
		for end := size; end <= len(group); end++ {
			w := Window{Key: key, Label: label, Rows: make([][]float64, 0, size)}
			for _, r := range group[end-size : end] {
				w.Rows = append(w.Rows, append([]float64(nil), r.Features...))
			}
			out = append(out, w)
		}
	}
	return out, nil
}

// Count returns how many windows a group of n rows produces.
func Count(n, size int) int {
	if n < size {
		return 0
	}
	return n - size + 1
}

func groupLabel(group []Row) model.Winner {
	for _, r := range group {
		if r.Label != model.SideNone {
			return r.Label
		}
	}
	return model.SideNone
}

// Tensor flattens windows into the (batch, size, features) shape the sequence
// models take.
func Tensor(ws []Window) [][][]float64 {
	out := make([][][]float64, len(ws))
	for i, w := range ws {
		out[i] = w.Rows
	}
	return out
}

// Labels returns the per-window labels in window order.
func Labels(ws []Window) []model.Winner {
	out := make([]model.Winner, len(ws))
	for i, w := range ws {
		out[i] = w.Label
	}
	return out
}
