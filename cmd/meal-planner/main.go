package main

import (
	"fmt"
	"log/slog"
	"os"

	"meal-planner/internal/app"
	"meal-planner/internal/config"
	"meal-planner/internal/database"
	"meal-planner/internal/logging"
	"meal-planner/internal/metrics"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env is what every subcommand needs once configuration is loaded.
type env struct {
	cfg    *config.Config
	db     *database.DB
	app    *app.App
	logger *slog.Logger
}

func (e *env) Close() {
	if e.db != nil {
		e.db.Close()
	}
}

// setup loads config, opens the database and builds the App. m may be nil.
func setup(m *metrics.Checkout) (*env, error) {
	cfg, err := config.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	a, err := app.NewFromConfig(cfg, db, m, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize app: %w", err)
	}
	return &env{cfg: cfg, db: db, app: a, logger: logger}, nil
}
