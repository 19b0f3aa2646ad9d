package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/meditationmind/bloombot/internal/database/dbretry"
	"github.com/meditationmind/bloombot/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// ErrRefreshInProgress indicates another process holds the refresh lock for the view.
var ErrRefreshInProgress = errors.New("view refresh already in progress")

// MaterializedViewModel refreshes materialized views and tracks when they last ran.
type MaterializedViewModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewMaterializedView creates a new MaterializedViewModel.
func NewMaterializedView(db *bun.DB, logger *zap.Logger) *MaterializedViewModel {
	return &MaterializedViewModel{
		db:     db,
		logger: logger.Named("db_materialized_view"),
	}
}

// Refresh rebuilds the view and records the refresh time and duration.
// The attempt is not retried; a failed refresh leaves the previous contents in place.
func (m *MaterializedViewModel) Refresh(ctx context.Context, view types.AggregateView) (time.Duration, error) {
	viewName := view.Name()
	start := time.Now()

	err := m.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// One refresher per view across processes
		var locked bool
		if err := tx.NewRaw("SELECT pg_try_advisory_xact_lock(hashtext(?))", viewName).
			Scan(ctx, &locked); err != nil {
			return fmt.Errorf("failed to acquire refresh lock: %w", err)
		}

		if !locked {
			return ErrRefreshInProgress
		}

		query := "REFRESH MATERIALIZED VIEW " + viewName
		if view.Concurrent() {
			query = "REFRESH MATERIALIZED VIEW CONCURRENTLY " + viewName
		}

		if _, err := tx.NewRaw(query).Exec(ctx); err != nil {
			return fmt.Errorf("failed to refresh view %s: %w", viewName, err)
		}

		duration := time.Since(start)

		_, err := tx.NewInsert().
			Model(&types.MaterializedViewRefresh{
				ViewName:       viewName,
				LastRefresh:    time.Now(),
				LastDurationMS: duration.Milliseconds(),
			}).
			On("CONFLICT (view_name) DO UPDATE").
			Set("last_refresh = EXCLUDED.last_refresh").
			Set("last_duration_ms = EXCLUDED.last_duration_ms").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update refresh time: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return time.Since(start), nil
}

// GetRefreshInfo returns the last refresh time for a view, or the zero time if it never ran.
func (m *MaterializedViewModel) GetRefreshInfo(ctx context.Context, viewName string) (time.Time, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (time.Time, error) {
		var refresh types.MaterializedViewRefresh

		err := m.db.NewSelect().
			Model(&refresh).
			Where("view_name = ?", viewName).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return time.Time{}, nil
			}

			return time.Time{}, fmt.Errorf("failed to get refresh info: %w", err)
		}

		return refresh.LastRefresh, nil
	})
}

// ListRefreshInfo returns the bookkeeping rows of every refreshed view.
func (m *MaterializedViewModel) ListRefreshInfo(ctx context.Context) ([]types.MaterializedViewRefresh, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]types.MaterializedViewRefresh, error) {
		var refreshes []types.MaterializedViewRefresh

		err := m.db.NewSelect().
			Model(&refreshes).
			Order("view_name").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list refresh info: %w", err)
		}

		return refreshes, nil
	})
}
