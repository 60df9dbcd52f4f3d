package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"studyroom-backend/config"
	"studyroom-backend/internal/db"
	"studyroom-backend/internal/store"
)

const programName = "roomd"

var (
	globalFlags = struct {
		debug bool
	}{}
	configFile string
)

// commonRun loads the configuration and installs the JSON logger as the
// slog default.
func commonRun() (*config.Config, *slog.Logger, error) {
	path := configFile
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level := cfg.SlogLevel()
	if globalFlags.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			AddSource: globalFlags.debug,
			Level:     level,
		}),
	).With("component", programName)
	slog.SetDefault(logger)

	if path != "" {
		logger.Info("configuration loaded", "path", path)
	}
	return cfg, logger, nil
}

// openStore connects to the configured database and runs migrations.
func openStore(cfg *config.Config, logger *slog.Logger) (store.Store, *gorm.DB, error) {
	gormDB, err := db.Init(&cfg.Database, globalFlags.debug)
	if err != nil {
		return nil, nil, err
	}
	return store.NewGormStore(gormDB, logger), gormDB, nil
}

func closeDB(gormDB *gorm.DB) {
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Study room reservation service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serveRun,
	}

	rootCmd.PersistentFlags().
		BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	rootCmd.PersistentFlags().
		StringVar(&configFile, "config", "", "path to config file (default $CONFIG_PATH)")

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(provisionCommand())
	rootCmd.AddCommand(tokenCommand())

	if err := rootCmd.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}
