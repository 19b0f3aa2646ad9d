package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meditationmind/bloombot/internal/progress"
	"github.com/meditationmind/bloombot/internal/setup"
	"github.com/meditationmind/bloombot/internal/setup/telemetry"
	"github.com/meditationmind/bloombot/internal/worker/core"
	"github.com/meditationmind/bloombot/internal/worker/refresh"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

const (
	// WorkerLogDir specifies where worker log files are stored.
	WorkerLogDir = "logs/worker_logs"

	// RefreshWorker keeps the leaderboard and chart views fresh.
	RefreshWorker = "refresh"

	// restartDelay is the pause before a crashed worker is restarted.
	restartDelay = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:  "worker",
		Usage: "Start a bloombot worker",
		Commands: []*cli.Command{
			{
				Name:  RefreshWorker,
				Usage: "Refresh materialized views at noon and midnight",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "once",
						Usage: "Run a single refresh cycle now and exit",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return runRefreshWorker(ctx, c.Bool("once"))
				},
			},
		},
	}

	return app.Run(context.Background(), os.Args)
}

// runRefreshWorker runs the refresh scheduler with a progress bar and status reporting.
func runRefreshWorker(ctx context.Context, once bool) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := setup.InitializeApp(ctx, telemetry.ServiceWorker, WorkerLogDir)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		app.Cleanup(cleanupCtx)
	}()

	refreshCfg := app.Config.Bot.Refresh

	views, err := refreshCfg.Views()
	if err != nil {
		return err
	}

	loc, err := refreshCfg.Location()
	if err != nil {
		return err
	}

	workerLogger := app.LogManager.GetWorkerLogger("refresh_worker")

	reporter := core.NewStatusReporter(app.StatusClient, RefreshWorker, "views", workerLogger)
	reporter.Start(ctx)

	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		reporter.Stop(stopCtx)
	}()

	bar := progress.NewBar(100, 25, "Refresh")

	renderCtx, stopRender := context.WithCancel(ctx)
	defer stopRender()

	renderer := progress.NewRenderer(bar)
	go renderer.Render(renderCtx)

	scheduler, err := refresh.New(app.DB.Service().View(), refresh.JobsFor(views), workerLogger,
		refresh.WithLocation(loc),
		refresh.WithCooldown(refreshCfg.Cooldown),
		refresh.WithJobTimeout(refreshCfg.JobTimeout),
		refresh.WithObserver(refresh.Observers(bar, reporter)),
	)
	if err != nil {
		return err
	}

	if once {
		report, err := scheduler.RunCycle(ctx)
		if err != nil {
			return err
		}

		log.Printf("Refreshed %d views, %d failed, in %s", report.Succeeded, report.Failed, report.Duration)

		if report.Failed > 0 {
			return fmt.Errorf("%d of %d refresh jobs failed", report.Failed, report.Succeeded+report.Failed)
		}

		return nil
	}

	log.Printf("Started %s worker %s", RefreshWorker, reporter.GetWorkerID())
	runWorker(ctx, scheduler, workerLogger)
	log.Println("Worker has finished. Exiting.")

	return nil
}

// runWorker runs the scheduler in a loop, restarting it after panics or unexpected exits.
func runWorker(ctx context.Context, scheduler *refresh.Scheduler, logger *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("Context cancelled, stopping worker")
			return
		default:
		}

		err := func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic: %v", r)
				}
			}()

			logger.Info("Starting worker")

			return scheduler.Serve(ctx)
		}()

		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			logger.Info("Worker stopped")
			return
		}

		logger.Error("Worker stopped unexpectedly, restarting in 5 seconds",
			zap.String("worker", scheduler.String()),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return
		case <-time.After(restartDelay):
		}
	}
}
