package core

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

const (
	// HeartbeatInterval is how often workers report their status.
	HeartbeatInterval = 10 * time.Second

	// HeartbeatTTL is how long a worker's status remains valid.
	HeartbeatTTL = 10 * time.Minute

	// StaleThreshold is how long before a worker is considered offline.
	StaleThreshold = 1 * time.Minute
)

// Status represents a worker's current state.
type Status struct {
	WorkerID    string    `json:"workerId"`
	WorkerType  string    `json:"workerType"`
	SubType     string    `json:"subType"`
	LastSeen    time.Time `json:"lastSeen"`
	CurrentTask string    `json:"currentTask,omitempty"`
	Progress    int       `json:"progress"`
	IsHealthy   bool      `json:"isHealthy"`
}

// IsStale reports whether the worker has not been seen within StaleThreshold of now.
func (s Status) IsStale(now time.Time) bool {
	return now.Sub(s.LastSeen) > StaleThreshold
}

// Key returns the Redis key the status is stored under.
func (s Status) Key() string {
	return fmt.Sprintf("worker:%s:%s:%s", s.WorkerType, s.SubType, s.WorkerID)
}

// Monitor stores and queries worker statuses in Redis.
type Monitor struct {
	client rueidis.Client
	logger *zap.Logger
}

// NewMonitor creates a new worker status monitor.
func NewMonitor(client rueidis.Client, logger *zap.Logger) *Monitor {
	return &Monitor{
		client: client,
		logger: logger.Named("worker_monitor"),
	}
}

// ReportStatus stores a worker's status with HeartbeatTTL.
func (m *Monitor) ReportStatus(ctx context.Context, status Status) error {
	status.LastSeen = time.Now()

	data, err := sonic.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	err = m.client.Do(ctx, m.client.B().Set().Key(status.Key()).Value(string(data)).Ex(HeartbeatTTL).Build()).Error()
	if err != nil {
		return fmt.Errorf("failed to store status: %w", err)
	}

	return nil
}

// RemoveStatus deletes a worker's status, used on clean shutdown.
func (m *Monitor) RemoveStatus(ctx context.Context, status Status) error {
	if err := m.client.Do(ctx, m.client.B().Del().Key(status.Key()).Build()).Error(); err != nil {
		return fmt.Errorf("failed to remove status: %w", err)
	}

	return nil
}

// GetAllStatuses retrieves all worker statuses.
func (m *Monitor) GetAllStatuses(ctx context.Context) ([]Status, error) {
	var (
		statuses []Status
		cursor   uint64
	)

	for {
		entry, err := m.client.Do(ctx, m.client.B().Scan().Cursor(cursor).Match("worker:*").Count(100).Build()).AsScanEntry()
		if err != nil {
			return nil, fmt.Errorf("failed to scan worker keys: %w", err)
		}

		for _, key := range entry.Elements {
			data, err := m.client.Do(ctx, m.client.B().Get().Key(key).Build()).AsBytes()
			if err != nil {
				if !rueidis.IsRedisNil(err) {
					m.logger.Error("Failed to get worker status", zap.String("key", key), zap.Error(err))
				}

				continue
			}

			var status Status
			if err := sonic.Unmarshal(data, &status); err != nil {
				m.logger.Error("Failed to unmarshal worker status", zap.String("key", key), zap.Error(err))
				continue
			}

			statuses = append(statuses, status)
		}

		cursor = entry.Cursor
		if cursor == 0 {
			break
		}
	}

	return statuses, nil
}
