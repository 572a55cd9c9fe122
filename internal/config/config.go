// Package config holds the tool's layered configuration.
package config

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
)

// Config contains process configuration. Command flags override these values.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// DBPath is the SQLite store.
	DBPath string `koanf:"db_path"`

	// SliceInterval is the regulation snapshot interval in seconds.
	SliceInterval int `koanf:"slice_interval"`

	// WindowSize is the number of consecutive plays per overtime window.
	WindowSize int `koanf:"window_size"`

	// PadPolicy is "pad" or "reject" for overtime games shorter than a window.
	PadPolicy string `koanf:"pad_policy"`

	// Workers bounds the per-game reduction pool.
	Workers int `koanf:"workers"`

	// Frozen one-hot schemas, one per overtime regime.
	RegularOTSchema string `koanf:"regular_ot_schema"`
	PlayoffOTSchema string `koanf:"playoff_ot_schema"`

	// Model artifacts, one per regime.
	RegulationModel string `koanf:"regulation_model"`
	RegularOTModel  string `koanf:"regular_ot_model"`
	PlayoffOTModel  string `koanf:"playoff_ot_model"`

	// MetricsFile, when set, receives a Prometheus textfile dump after batch commands.
	MetricsFile string `koanf:"metrics_file"`
}

// New returns a Config with defaults. Artifact paths default to the tool's
// home directory.
func New(_ context.Context) *Config {
	home, _ := os.UserHomeDir()
	dir := filepath.Join(home, ".hockeymeter")
	return &Config{
		LogLevel:        "info",
		DBPath:          filepath.Join(dir, "meter.db"),
		SliceInterval:   30,
		WindowSize:      3,
		PadPolicy:       "pad",
		Workers:         runtime.NumCPU(),
		RegularOTSchema: filepath.Join(dir, "regular_ot_columns.json"),
		PlayoffOTSchema: filepath.Join(dir, "playoff_ot_columns.json"),
		RegulationModel: filepath.Join(dir, "regulation_model.yaml"),
		RegularOTModel:  filepath.Join(dir, "regular_ot_model.yaml"),
		PlayoffOTModel:  filepath.Join(dir, "playoff_ot_model.yaml"),
	}
}

// Dir is the directory holding the default store and artifacts.
func (c *Config) Dir() string {
	return filepath.Dir(c.DBPath)
}
