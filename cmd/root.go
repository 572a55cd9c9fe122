package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pable/go-hockey-meter/internal/config"
	"github.com/pable/go-hockey-meter/internal/logger"
	"github.com/pable/go-hockey-meter/internal/metrics"
	"github.com/pable/go-hockey-meter/internal/storage"
)

var (
	dbPath   string
	logLevel string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "hockeymeter",
	Short: "NHL in-game win probability tool",
	Long: `Reduce NHL play-by-play into model-ready tables, build overtime training windows,
and serve stitched win-probability timelines for stored games.

Configuration is read from HOCKEYMETER_* environment variables (and ./.env), optionally
layered over a YAML file named by HOCKEYMETER_CONFIG. Flags override both.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command. An interrupt cancels the running command's context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to SQLite database (default from config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (default from config)")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(reduceCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(windowsCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(shellCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}
	cfg = c
	if !cmd.Flags().Changed("db") {
		dbPath = cfg.DBPath
	}
	if !cmd.Flags().Changed("log-level") {
		logLevel = cfg.LogLevel
	}
	return logger.Init(os.Stderr, logLevel)
}

// openStore opens the configured database, creating its directory on first use.
func openStore() (*storage.DB, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return db, nil
}

// flushMetrics dumps the registry when a metrics file is configured.
func flushMetrics(m *metrics.Manager) {
	if cfg == nil || cfg.MetricsFile == "" {
		return
	}
	if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
		logger.Get().Warn(rootCmd.Context(), "write metrics", logger.String("path", cfg.MetricsFile), logger.Error(err))
	}
}
