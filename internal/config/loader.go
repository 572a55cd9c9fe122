package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/pable/go-hockey-meter/internal/model"
)

// EnvPrefix prefixes every environment override, e.g. HOCKEYMETER_DB_PATH.
const EnvPrefix = "HOCKEYMETER_"

// ErrInvalidConfig is returned when a loaded value fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// Load builds a Config by layering, from low to high precedence:
//  1. defaults (New)
//  2. a YAML file named by HOCKEYMETER_CONFIG
//  3. HOCKEYMETER_* environment variables, after loading ./.env if present
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")

	if path := os.Getenv(EnvPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// HOCKEYMETER_PAD_POLICY -> pad_policy; keys are flat so underscores stay.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := *New(ctx)
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.DBPath == "":
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	case c.SliceInterval <= 0:
		return fmt.Errorf("%w: slice_interval must be positive, got %d", ErrInvalidConfig, c.SliceInterval)
	case model.RegulationSeconds%c.SliceInterval != 0:
		return fmt.Errorf("%w: slice_interval must divide %d, got %d", ErrInvalidConfig, model.RegulationSeconds, c.SliceInterval)
	case c.WindowSize <= 0:
		return fmt.Errorf("%w: window_size must be positive, got %d", ErrInvalidConfig, c.WindowSize)
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, c.Workers)
	}
	switch c.PadPolicy {
	case "pad", "reject":
	default:
		return fmt.Errorf("%w: pad_policy must be pad or reject, got %q", ErrInvalidConfig, c.PadPolicy)
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return nil
}
