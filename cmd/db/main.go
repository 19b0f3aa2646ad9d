package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/meditationmind/bloombot/cmd/db/commands"
	"github.com/meditationmind/bloombot/internal/database"
	"github.com/meditationmind/bloombot/internal/database/migrations"
	"github.com/meditationmind/bloombot/internal/setup/config"
	"github.com/meditationmind/bloombot/internal/setup/telemetry"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	deps, cleanup, err := setupDependencies(ctx)
	if err != nil {
		return fmt.Errorf("failed to setup dependencies: %w", err)
	}
	defer cleanup()

	app := &cli.Command{
		Name:  "db",
		Usage: "Database management tool",
		Commands: append(commands.MigrationCommands(deps),
			&cli.Command{
				Name:     "streak",
				Usage:    "Manage cached streaks",
				Commands: commands.StreakCommands(deps),
			},
			&cli.Command{
				Name:     "view",
				Usage:    "Manage leaderboard and chart views",
				Commands: commands.ViewCommands(deps),
			},
		),
	}

	return app.Run(ctx, os.Args)
}

// setupDependencies loads config, connects to the database and prepares the migrator.
func setupDependencies(ctx context.Context) (*commands.CLIDependencies, func(), error) {
	cfg, _, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	shutdownTracing, _ := telemetry.SetupTracing(&cfg.Common.Telemetry, telemetry.ServiceDB)

	db, err := database.NewConnection(ctx, &cfg.Common.PostgreSQL, logger, false)
	if err != nil {
		_ = shutdownTracing(ctx)
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	deps := &commands.CLIDependencies{
		DB:                 db,
		Migrator:           migrate.NewMigrator(db.DB(), migrations.Migrations),
		Logger:             logger,
		RebuildConcurrency: cfg.Bot.Streak.RebuildConcurrency,
	}

	cleanup := func() {
		_ = db.Close()
		_ = shutdownTracing(ctx)
		_ = logger.Sync()
	}

	return deps, cleanup, nil
}
