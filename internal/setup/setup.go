package setup

import (
	"context"
	"fmt"
	"log"

	"github.com/meditationmind/bloombot/internal/database"
	"github.com/meditationmind/bloombot/internal/database/migrations"
	"github.com/meditationmind/bloombot/internal/redis"
	"github.com/meditationmind/bloombot/internal/setup/config"
	"github.com/meditationmind/bloombot/internal/setup/telemetry"
	"github.com/redis/rueidis"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
)

// App bundles all core dependencies needed by the binaries.
type App struct {
	Config       *config.Config     // Application configuration
	Logger       *zap.Logger        // Main application logger
	DBLogger     *zap.Logger        // Database-specific logger
	DB           database.Client    // Database connection pool
	RedisManager *redis.Manager     // Redis connection manager
	StatusClient rueidis.Client     // Redis client for worker status reporting
	LogManager   *telemetry.Manager // Log management system
	debugServer  *debugServer       // Debug HTTP server for pprof and metrics
	shutdownOtel func(context.Context) error
}

// InitializeApp bootstraps all application dependencies in order.
func InitializeApp(ctx context.Context, serviceType telemetry.ServiceType, logDir string) (*App, error) {
	cfg, _, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	// Tracing comes first so loggers can forward errors to it
	shutdownOtel, tracing := telemetry.SetupTracing(&cfg.Common.Telemetry, serviceType)

	logManager := telemetry.NewManager(logDir, &cfg.Common.Debug)
	if tracing {
		logManager.ForwardErrors()
	}

	logger, dbLogger, err := logManager.GetLoggers()
	if err != nil {
		return nil, err
	}

	redisManager := redis.NewManager(&cfg.Common.Redis, logger)

	db, err := checkAndRunMigrations(ctx, &cfg.Common.PostgreSQL, dbLogger)
	if err != nil {
		return nil, err
	}

	statusClient, err := redisManager.GetClient(redis.WorkerStatusDBIndex)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	var debugSrv *debugServer

	debugCfg := cfg.Common.Debug
	if debugCfg.EnablePprof || debugCfg.EnableMetrics {
		srv, err := startDebugServer(debugCfg.PprofPort, debugCfg.EnablePprof, debugCfg.EnableMetrics, logger)
		if err != nil {
			logger.Error("Failed to start debug server", zap.Error(err))
		} else {
			debugSrv = srv

			if debugCfg.EnablePprof {
				logger.Warn("pprof debugging endpoint enabled - this should not be used in production!")
			}
		}
	}

	logger.Info("Application initialized",
		zap.String("service", serviceType.String()),
		zap.String("instance", logManager.GetInstanceID()),
		zap.String("version", telemetry.Version))

	return &App{
		Config:       cfg,
		Logger:       logger,
		DBLogger:     dbLogger.Named("database"),
		DB:           db,
		RedisManager: redisManager,
		StatusClient: statusClient,
		LogManager:   logManager,
		debugServer:  debugSrv,
		shutdownOtel: shutdownOtel,
	}, nil
}

// Cleanup shuts down all components in reverse initialization order.
// Logs but does not fail on cleanup errors so every component gets a cleanup attempt.
func (s *App) Cleanup(ctx context.Context) {
	if s.debugServer != nil {
		if err := s.debugServer.srv.Shutdown(ctx); err != nil {
			s.Logger.Error("Failed to shutdown debug server", zap.Error(err))
		}

		_ = s.debugServer.listener.Close()
	}

	if err := s.DB.Close(); err != nil {
		log.Printf("Failed to close database connection: %v", err)
	}

	if err := s.shutdownOtel(ctx); err != nil {
		log.Printf("Failed to flush traces: %v", err)
	}

	if err := s.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	if err := s.DBLogger.Sync(); err != nil {
		log.Printf("Failed to sync DB logger: %v", err)
	}

	// Redis last as other components might need it during cleanup
	s.RedisManager.Close()
}

// checkAndRunMigrations asks before applying pending migrations.
func checkAndRunMigrations(ctx context.Context, cfg *config.PostgreSQL, dbLogger *zap.Logger) (database.Client, error) {
	tempDB, err := database.NewConnection(ctx, cfg, dbLogger, false)
	if err != nil {
		return nil, err
	}

	migrator := migrate.NewMigrator(tempDB.DB(), migrations.Migrations)

	if err := migrator.Init(ctx); err != nil {
		_ = tempDB.Close()
		return nil, fmt.Errorf("failed to initialize migrations: %w", err)
	}

	ms, err := migrator.MigrationsWithStatus(ctx)
	if err != nil {
		_ = tempDB.Close()
		return nil, fmt.Errorf("failed to check migration status: %w", err)
	}

	if len(ms.Unapplied()) == 0 {
		return tempDB, nil
	}

	log.Println("Database migrations are pending. Would you like to run them now? (y/N)")

	var response string

	_, _ = fmt.Scanln(&response)

	if response != "y" && response != "Y" {
		_ = tempDB.Close()
		log.Fatalf("Closing program due to incomplete migrations")
	}

	_ = tempDB.Close()

	return database.NewConnection(ctx, cfg, dbLogger, true)
}
