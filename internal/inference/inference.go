// Package inference is the boundary to the win-probability models. Models are
// opaque functions from a fixed-shape numeric input to one probability per
// row or window.
package inference

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrShape means an input does not have the shape the model was built for.
var ErrShape = errors.New("input shape mismatch")

// Model scores flat feature rows, shape (batch, features).
type Model interface {
	Predict(ctx context.Context, x [][]float64) ([]float64, error)
	FeatureCount() int
	// ConcurrentSafe reports whether Predict may be called from several
	// goroutines at once.
	ConcurrentSafe() bool
}

// SequenceModel scores windows of rows, shape (batch, window, features).
type SequenceModel interface {
	PredictSequences(ctx context.Context, x [][][]float64) ([]float64, error)
	WindowSize() int
	FeatureCount() int
	ConcurrentSafe() bool
}

// SchemaBound is implemented by models trained against a frozen feature schema.
type SchemaBound interface {
	SchemaSHA256() string
}

// Guard returns m itself when it is safe for concurrent use, otherwise a
// wrapper that lets one call through at a time.
func Guard(m Model) Model {
	if m.ConcurrentSafe() {
		return m
	}
	return &guarded{m: m}
}

// GuardSequence is Guard for sequence models.
func GuardSequence(m SequenceModel) SequenceModel {
	if m.ConcurrentSafe() {
		return m
	}
	return &guardedSeq{m: m}
}

type guarded struct {
	mu sync.Mutex
	m  Model
}

func (g *guarded) Predict(ctx context.Context, x [][]float64) ([]float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.m.Predict(ctx, x)
}

func (g *guarded) FeatureCount() int    { return g.m.FeatureCount() }
func (g *guarded) ConcurrentSafe() bool { return true }

type guardedSeq struct {
	mu sync.Mutex
	m  SequenceModel
}

func (g *guardedSeq) PredictSequences(ctx context.Context, x [][][]float64) ([]float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.m.PredictSequences(ctx, x)
}

func (g *guardedSeq) WindowSize() int      { return g.m.WindowSize() }
func (g *guardedSeq) FeatureCount() int    { return g.m.FeatureCount() }
func (g *guardedSeq) ConcurrentSafe() bool { return true }

// CheckRows validates a (batch, features) input.
func CheckRows(x [][]float64, features int) error {
	for i, row := range x {
		if len(row) != features {
			return fmt.Errorf("%w: row %d has %d features, want %d", ErrShape, i, len(row), features)
		}
	}
	return nil
}

// CheckWindows validates a (batch, window, features) input.
func CheckWindows(x [][][]float64, window, features int) error {
	for i, w := range x {
		if len(w) != window {
			return fmt.Errorf("%w: window %d has %d steps, want %d", ErrShape, i, len(w), window)
		}
		for j, row := range w {
			if len(row) != features {
				return fmt.Errorf("%w: window %d step %d has %d features, want %d", ErrShape, i, j, len(row), features)
			}
		}
	}
	return nil
}
