// Package supervisor restarts the long-running services of the bot process.
package supervisor

import (
	"time"

	"github.com/thejerf/suture/v4"
	"go.uber.org/zap"
)

const (
	failureThreshold = 5.0
	failureDecay     = 30.0
	failureBackoff   = 15 * time.Second
	shutdownTimeout  = 10 * time.Second
)

// New creates a supervisor that logs its events with logger.
func New(name string, logger *zap.Logger) *suture.Supervisor {
	logger = logger.Named("supervisor")

	return suture.New(name, suture.Spec{
		EventHook:        EventHook(logger),
		FailureThreshold: failureThreshold,
		FailureDecay:     failureDecay,
		FailureBackoff:   failureBackoff,
		Timeout:          shutdownTimeout,
	})
}

// EventHook logs supervisor events. Panics and backoff are errors, the rest warnings.
func EventHook(logger *zap.Logger) suture.EventHook {
	return func(e suture.Event) {
		fields := make([]zap.Field, 0, len(e.Map()))
		for key, value := range e.Map() {
			fields = append(fields, zap.Any(key, value))
		}

		switch e.(type) {
		case suture.EventServicePanic, suture.EventBackoff:
			logger.Error(e.String(), fields...)
		case suture.EventResume:
			logger.Info(e.String(), fields...)
		default:
			logger.Warn(e.String(), fields...)
		}
	}
}
