package service

import (
	"context"
	"time"

	"github.com/meditationmind/bloombot/internal/database/models"
	"github.com/meditationmind/bloombot/internal/database/types"
	"go.uber.org/zap"
)

// ViewService handles materialized view business logic.
type ViewService struct {
	model  *models.MaterializedViewModel
	logger *zap.Logger
}

// NewView creates a new view service.
func NewView(model *models.MaterializedViewModel, logger *zap.Logger) *ViewService {
	return &ViewService{
		model:  model,
		logger: logger.Named("view_service"),
	}
}

// RefreshAggregateView rebuilds one leaderboard or chart view and returns how long it took.
func (s *ViewService) RefreshAggregateView(ctx context.Context, view types.AggregateView) (time.Duration, error) {
	duration, err := s.model.Refresh(ctx, view)
	if err != nil {
		return 0, err
	}

	s.logger.Debug("Refreshed aggregate view",
		zap.String("view", view.Name()),
		zap.Duration("duration", duration))

	return duration, nil
}

// RefreshByName refreshes the view with the given database name.
func (s *ViewService) RefreshByName(ctx context.Context, name string) (time.Duration, error) {
	view, err := types.ParseAggregateView(name)
	if err != nil {
		return 0, err
	}

	return s.RefreshAggregateView(ctx, view)
}

// GetRefreshInfo returns when the view was last refreshed.
func (s *ViewService) GetRefreshInfo(ctx context.Context, view types.AggregateView) (time.Time, error) {
	return s.model.GetRefreshInfo(ctx, view.Name())
}

// ListRefreshInfo returns refresh bookkeeping for all views that have been refreshed.
func (s *ViewService) ListRefreshInfo(ctx context.Context) ([]types.MaterializedViewRefresh, error) {
	return s.model.ListRefreshInfo(ctx)
}
