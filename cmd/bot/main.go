package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meditationmind/bloombot/internal/bot"
	"github.com/meditationmind/bloombot/internal/setup"
	"github.com/meditationmind/bloombot/internal/setup/telemetry"
	"github.com/meditationmind/bloombot/internal/supervisor"
	"github.com/meditationmind/bloombot/internal/worker/core"
	"github.com/meditationmind/bloombot/internal/worker/refresh"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// BotLogDir specifies where bot log files are stored.
const BotLogDir = "logs/bot_logs"

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:  "bot",
		Usage: "Start the bloombot Discord bot",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-refresh",
				Usage: "Do not run the view refresh scheduler in this process",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return runBot(ctx, c.Bool("no-refresh"))
		},
	}

	return app.Run(context.Background(), os.Args)
}

func runBot(ctx context.Context, noRefresh bool) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := setup.InitializeApp(ctx, telemetry.ServiceBot, BotLogDir)
	if err != nil {
		return err
	}

	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		app.Cleanup(cleanupCtx)
	}()

	services := app.DB.Service()

	discordBot, err := bot.New(&app.Config.Bot.Discord, services.Streak(), app.DB.Model().Tracking(), app.Logger)
	if err != nil {
		return err
	}

	sup := supervisor.New("bloombot", app.Logger)
	sup.Add(discordBot)

	refreshCfg := app.Config.Bot.Refresh
	if refreshCfg.Enabled && !noRefresh {
		views, err := refreshCfg.Views()
		if err != nil {
			return err
		}

		loc, err := refreshCfg.Location()
		if err != nil {
			return err
		}

		reporter := core.NewStatusReporter(app.StatusClient, "refresh", "views", app.Logger)
		reporter.Start(ctx)

		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			reporter.Stop(stopCtx)
		}()

		scheduler, err := refresh.New(services.View(), refresh.JobsFor(views),
			app.LogManager.GetWorkerLogger("refresh_scheduler"),
			refresh.WithLocation(loc),
			refresh.WithCooldown(refreshCfg.Cooldown),
			refresh.WithJobTimeout(refreshCfg.JobTimeout),
			refresh.WithObserver(reporter),
		)
		if err != nil {
			return err
		}

		sup.Add(scheduler)
	}

	log.Println("Bot has been started. Waiting for interrupt signal to gracefully shutdown...")

	if err := sup.Serve(ctx); err != nil && ctx.Err() == nil && !errors.Is(err, context.Canceled) {
		app.Logger.Error("Supervisor stopped", zap.Error(err))
		return err
	}

	log.Println("Shutting down")

	return nil
}
