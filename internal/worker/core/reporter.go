package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// StatusReporter periodically publishes a worker's status to Redis.
// It satisfies the refresh scheduler's observer interface.
type StatusReporter struct {
	monitor  *Monitor
	interval time.Duration
	status   Status
	stopChan chan struct{}
	stopped  bool
	mu       sync.Mutex
	logger   *zap.Logger
}

// NewStatusReporter creates a new status reporter for a worker.
func NewStatusReporter(client rueidis.Client, workerType, subType string, logger *zap.Logger) *StatusReporter {
	return &StatusReporter{
		monitor:  NewMonitor(client, logger),
		interval: HeartbeatInterval,
		status: Status{
			WorkerID:   uuid.New().String(),
			WorkerType: workerType,
			SubType:    subType,
			IsHealthy:  true,
		},
		stopChan: make(chan struct{}),
		logger:   logger.Named("status_reporter"),
	}
}

// Start begins periodic status reporting until ctx is done or Stop is called.
func (r *StatusReporter) Start(ctx context.Context) {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		r.report(ctx)

		for {
			select {
			case <-ticker.C:
				r.report(ctx)
			case <-ctx.Done():
				return
			case <-r.stopChan:
				return
			}
		}
	}()
}

// Stop ends status reporting and removes the worker's status.
func (r *StatusReporter) Stop(ctx context.Context) {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}

	close(r.stopChan)
	r.stopped = true
	status := r.status
	r.mu.Unlock()

	if err := r.monitor.RemoveStatus(ctx, status); err != nil {
		r.logger.Warn("Failed to remove status", zap.Error(err))
	}
}

// UpdateStatus updates the current task and progress.
func (r *StatusReporter) UpdateStatus(task string, progress int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status.CurrentTask = task
	r.status.Progress = progress
}

// SetHealthy updates the health status.
func (r *StatusReporter) SetHealthy(healthy bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status.IsHealthy = healthy
}

// GetWorkerID returns the unique worker ID.
func (r *StatusReporter) GetWorkerID() string {
	return r.status.WorkerID
}

// Report publishes the current status immediately.
func (r *StatusReporter) Report(ctx context.Context) error {
	r.mu.Lock()
	status := r.status
	r.mu.Unlock()

	return r.monitor.ReportStatus(ctx, status)
}

func (r *StatusReporter) report(ctx context.Context) {
	if err := r.Report(ctx); err != nil {
		r.logger.Error("Failed to report status", zap.Error(err))
	}
}
