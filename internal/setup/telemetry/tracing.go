package telemetry

import (
	"context"
	"fmt"

	"github.com/meditationmind/bloombot/internal/setup/config"
	"github.com/uptrace/uptrace-go/uptrace"
)

// Version is reported as the service version on every span.
var Version = "dev"

// SetupTracing configures the OpenTelemetry SDK to export to Uptrace.
// Returns a shutdown function that flushes pending spans. Without a DSN tracing
// stays on the no-op provider and the shutdown function does nothing.
func SetupTracing(cfg *config.Telemetry, service ServiceType) (func(context.Context) error, bool) {
	if cfg.UptraceDSN == "" {
		return func(context.Context) error { return nil }, false
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName(fmt.Sprintf("%s-%s", cfg.ServiceName, service)),
		uptrace.WithServiceVersion(Version),
	)

	return uptrace.Shutdown, true
}
