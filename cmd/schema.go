package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pable/go-hockey-meter/internal/features"
	"github.com/pable/go-hockey-meter/internal/logger"
	"github.com/pable/go-hockey-meter/internal/model"
)

var (
	schemaRegime string
	schemaOut    string
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Freeze the one-hot column layout of an overtime regime",
	Long: `Encode every stored overtime row of a regime and write the resulting ordered
column list, with a version tag and SHA-256 hash, as the frozen schema that
training and serving align against.

Each regime keeps its own clock column, so each regime gets its own schema.`,
	Args: cobra.NoArgs,
	RunE: runSchema,
}

func init() {
	schemaCmd.Flags().StringVar(&schemaRegime, "regime", "playoff", "overtime regime: regular or playoff")
	schemaCmd.Flags().StringVar(&schemaOut, "out", "", "output path (default from config)")
}

func runSchema(cmd *cobra.Command, args []string) error {
	regime, err := overtimeRegime(schemaRegime)
	if err != nil {
		return err
	}
	out := schemaOut
	if out == "" {
		out = schemaPath(regime)
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.OvertimeRowsByRegime(regime)
	if err != nil {
		return fmt.Errorf("load %s rows: %w", regime, err)
	}
	if len(rows) == 0 {
		fmt.Fprintf(os.Stdout, "No %s rows stored. Run 'hockeymeter reduce' first.\n", regime)
		return nil
	}

	schema, err := features.BuildSchema(features.Encode(rows, regime))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("create schema dir: %w", err)
	}
	if err := schema.Save(out); err != nil {
		return err
	}

	logger.Named("schema").Info(cmd.Context(), "schema frozen", logger.String("regime", regime.String()),
		logger.Int("rows", len(rows)), logger.Int("columns", len(schema.Columns)), logger.String("sha256", schema.SHA256))
	fmt.Fprintf(os.Stdout, "Wrote %d columns (%d features) for %s to %s\nsha256: %s\n",
		len(schema.Columns), len(schema.FeatureColumns()), regime, out, schema.SHA256)
	return nil
}

// overtimeRegime parses a --regime flag that must name an overtime regime.
func overtimeRegime(s string) (model.Regime, error) {
	r, ok := model.ParseRegime(s)
	if !ok || r == model.RegimeRegulation {
		return r, fmt.Errorf("--regime must be regular or playoff, got %q", s)
	}
	return r, nil
}

func schemaPath(r model.Regime) string {
	if r == model.RegimePlayoffOvertime {
		return cfg.PlayoffOTSchema
	}
	return cfg.RegularOTSchema
}

func modelPath(r model.Regime) string {
	switch r {
	case model.RegimePlayoffOvertime:
		return cfg.PlayoffOTModel
	case model.RegimeRegularOvertime:
		return cfg.RegularOTModel
	default:
		return cfg.RegulationModel
	}
}
