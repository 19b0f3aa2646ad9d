package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// Comments of the migrations whose effects need follow-up commands.
const (
	schemaMigration        = "initial_schema"
	aggregateViewMigration = "create_aggregate_views"
)

// MigrationCommands returns all migration-related commands.
func MigrationCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		{
			Name:   "init",
			Usage:  "Initialize migration tables",
			Action: handleInit(deps),
		},
		{
			Name:   "migrate",
			Usage:  "Create or update the sessions, streak cache and aggregate view schema",
			Action: handleMigrate(deps),
		},
		{
			Name:   "rollback",
			Usage:  "Rollback the last migration group",
			Action: handleRollback(deps),
		},
		{
			Name:   "status",
			Usage:  "Show which migrations are applied and in which group",
			Action: handleStatus(deps),
		},
		{
			Name:      "create",
			Usage:     "Create a new Go migration file in internal/database/migrations",
			ArgsUsage: "NAME",
			Action:    handleCreate(deps),
		},
	}
}

// handleInit handles the 'init' command.
func handleInit(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, _ *cli.Command) error {
		if err := deps.Migrator.Init(ctx); err != nil {
			return err
		}

		deps.Logger.Info("Migration tables ready")

		return nil
	}
}

// handleMigrate handles the 'migrate' command.
func handleMigrate(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, _ *cli.Command) error {
		if err := deps.Migrator.Lock(ctx); err != nil {
			return err
		}
		defer deps.Migrator.Unlock(ctx) //nolint:errcheck // -

		group, err := deps.Migrator.Migrate(ctx)
		if err != nil {
			return err
		}

		if group.IsZero() {
			deps.Logger.Info("No new migrations to run (database is up to date)")
			return nil
		}

		deps.Logger.Info("Successfully migrated",
			zap.Int64("group", group.ID),
			zap.Strings("migrations", migrationLabels(group.Migrations)),
		)

		for _, hint := range migrationFollowUps(group.Migrations, false) {
			deps.Logger.Info(hint)
		}

		return nil
	}
}

// handleRollback handles the 'rollback' command.
func handleRollback(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, _ *cli.Command) error {
		if err := deps.Migrator.Lock(ctx); err != nil {
			return err
		}
		defer deps.Migrator.Unlock(ctx) //nolint:errcheck // -

		group, err := deps.Migrator.Rollback(ctx)
		if err != nil {
			return err
		}

		if group.IsZero() {
			deps.Logger.Info("No groups to roll back")
			return nil
		}

		deps.Logger.Info("Successfully rolled back",
			zap.Int64("group", group.ID),
			zap.Strings("migrations", migrationLabels(group.Migrations)),
		)

		for _, hint := range migrationFollowUps(group.Migrations, true) {
			deps.Logger.Warn(hint)
		}

		return nil
	}
}

// handleStatus handles the 'status' command.
func handleStatus(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, _ *cli.Command) error {
		ms, err := deps.Migrator.MigrationsWithStatus(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "MIGRATION\tGROUP\tAPPLIED")

		for _, m := range ms {
			applied := "pending"
			if m.IsApplied() {
				applied = m.MigratedAt.Local().Format("2006-01-02 15:04:05")
			}

			fmt.Fprintf(w, "%s\t%d\t%s\n", m.String(), m.GroupID, applied)
		}

		if err := w.Flush(); err != nil {
			return err
		}

		deps.Logger.Info("Migration status",
			zap.Int("unapplied", len(ms.Unapplied())),
			zap.String("last_group", ms.LastGroup().String()),
		)

		return nil
	}
}

// handleCreate handles the 'create' command.
func handleCreate(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() != 1 {
			return ErrNameRequired
		}

		mf, err := deps.Migrator.CreateGoMigration(ctx, c.Args().First())
		if err != nil {
			return err
		}

		deps.Logger.Info("Created Go migration, register it on migrations.Migrations",
			zap.String("name", mf.Name),
			zap.String("path", mf.Path),
		)

		return nil
	}
}

// migrationLabels returns the file-style names of the migrations.
func migrationLabels(ms migrate.MigrationSlice) []string {
	labels := make([]string, 0, len(ms))
	for _, m := range ms {
		labels = append(labels, m.String())
	}

	return labels
}

// migrationFollowUps lists what to run after the migrations were applied or rolled back.
func migrationFollowUps(ms migrate.MigrationSlice, rolledBack bool) []string {
	var hints []string

	for _, m := range ms {
		switch {
		case m.Comment == schemaMigration && !rolledBack:
			hints = append(hints, "Run 'db streak rebuild' to fill the streak cache for imported sessions")
		case m.Comment == schemaMigration && rolledBack:
			hints = append(hints, "Cached streaks were dropped: run 'db migrate' and then 'db streak rebuild'")
		case m.Comment == aggregateViewMigration && !rolledBack:
			hints = append(hints, "Aggregate views created: run 'db view refresh' after importing sessions")
		case m.Comment == aggregateViewMigration && rolledBack:
			hints = append(hints, "Aggregate views dropped: refresh jobs fail until 'db migrate' recreates them")
		}
	}

	return hints
}
