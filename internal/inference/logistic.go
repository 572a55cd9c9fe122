package inference

import (
	"context"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Artifact kinds.
const (
	KindTabular  = "tabular"
	KindSequence = "sequence"
)

// Artifact is the on-disk form of a logistic model. JSON artifacts load too,
// since JSON is valid YAML.
type Artifact struct {
	Name         string    `yaml:"name"`
	Kind         string    `yaml:"kind"`
	WindowSize   int       `yaml:"window_size,omitempty"`
	FeatureCount int       `yaml:"feature_count"`
	Features     []string  `yaml:"features,omitempty"`
	SchemaSHA256 string    `yaml:"schema_sha256,omitempty"`
	Bias         float64   `yaml:"bias"`
	Weights      []float64 `yaml:"weights"`
	// Means and Scales standardize each feature before weighting. Optional.
	Means  []float64 `yaml:"means,omitempty"`
	Scales []float64 `yaml:"scales,omitempty"`
}

// Logistic is sigmoid(bias + w·x). A sequence artifact weights the window
// flattened step by step, so it carries WindowSize*FeatureCount weights.
// It has no mutable state and is safe for concurrent use.
type Logistic struct {
	a Artifact
}

// LoadLogistic reads and validates an artifact file.
func LoadLogistic(path string) (*Logistic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}
	var a Artifact
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	m, err := NewLogistic(a)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	return m, nil
}

// NewLogistic validates a.
func NewLogistic(a Artifact) (*Logistic, error) {
	if a.FeatureCount <= 0 {
		return nil, fmt.Errorf("%w: feature_count must be positive", ErrShape)
	}
	if len(a.Features) > 0 && len(a.Features) != a.FeatureCount {
		return nil, fmt.Errorf("%w: %d feature names for %d features", ErrShape, len(a.Features), a.FeatureCount)
	}
	steps := 1
	switch a.Kind {
	case KindTabular:
	case KindSequence:
		if a.WindowSize <= 0 {
			return nil, fmt.Errorf("%w: sequence model needs a positive window_size", ErrShape)
		}
		steps = a.WindowSize
	default:
		return nil, fmt.Errorf("unknown model kind %q", a.Kind)
	}
	if want := steps * a.FeatureCount; len(a.Weights) != want {
		return nil, fmt.Errorf("%w: %d weights, want %d", ErrShape, len(a.Weights), want)
	}
	if len(a.Means) > 0 && len(a.Means) != a.FeatureCount {
		return nil, fmt.Errorf("%w: %d means for %d features", ErrShape, len(a.Means), a.FeatureCount)
	}
	if len(a.Scales) > 0 && len(a.Scales) != a.FeatureCount {
		return nil, fmt.Errorf("%w: %d scales for %d features", ErrShape, len(a.Scales), a.FeatureCount)
	}
	for i, s := range a.Scales {
		if s == 0 {
			return nil, fmt.Errorf("scale %d is zero", i)
		}
	}
	return &Logistic{a: a}, nil
}

func (l *Logistic) Name() string         { return l.a.Name }
func (l *Logistic) Kind() string         { return l.a.Kind }
func (l *Logistic) FeatureCount() int    { return l.a.FeatureCount }
func (l *Logistic) SchemaSHA256() string { return l.a.SchemaSHA256 }
func (l *Logistic) ConcurrentSafe() bool { return true }

// WindowSize is 1 for tabular models.
func (l *Logistic) WindowSize() int {
	if l.a.Kind == KindSequence {
		return l.a.WindowSize
	}
	return 1
}

// Predict scores (batch, features) rows. Tabular artifacts only.
func (l *Logistic) Predict(ctx context.Context, x [][]float64) ([]float64, error) {
	if l.a.Kind != KindTabular {
		return nil, fmt.Errorf("%w: %s is a %s model", ErrShape, l.a.Name, l.a.Kind)
	}
	if err := CheckRows(x, l.a.FeatureCount); err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i, row := range x {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = sigmoid(l.a.Bias + l.dot(row, l.a.Weights))
	}
	return out, nil
}

// PredictSequences scores (batch, window, features) windows. Sequence artifacts only.
func (l *Logistic) PredictSequences(ctx context.Context, x [][][]float64) ([]float64, error) {
	if l.a.Kind != KindSequence {
		return nil, fmt.Errorf("%w: %s is a %s model", ErrShape, l.a.Name, l.a.Kind)
	}
	if err := CheckWindows(x, l.a.WindowSize, l.a.FeatureCount); err != nil {
		return nil, err
	}
	n := l.a.FeatureCount
	out := make([]float64, len(x))
	for i, w := range x {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		z := l.a.Bias
		for step, row := range w {
			z += l.dot(row, l.a.Weights[step*n:(step+1)*n])
		}
		out[i] = sigmoid(z)
	}
	return out, nil
}

func (l *Logistic) dot(row, w []float64) float64 {
	var s float64
	for k, v := range row {
		if len(l.a.Means) > 0 {
			v -= l.a.Means[k]
		}
		if len(l.a.Scales) > 0 {
			v /= l.a.Scales[k]
		}
		s += w[k] * v
	}
	return s
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
