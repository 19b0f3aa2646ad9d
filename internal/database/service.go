package database

import (
	"github.com/meditationmind/bloombot/internal/database/service"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Service provides access to all business logic services.
type Service struct {
	streak *service.StreakService
	view   *service.ViewService
}

// NewService creates a new service instance with all services.
func NewService(db *bun.DB, repository *Repository, logger *zap.Logger) *Service {
	return &Service{
		streak: service.NewStreak(
			db, repository.Streak(), repository.Meditation(), repository.Tracking(), logger,
		),
		view: service.NewView(repository.View(), logger),
	}
}

// Streak returns the streak service.
func (s *Service) Streak() *service.StreakService {
	return s.streak
}

// View returns the view service.
func (s *Service) View() *service.ViewService {
	return s.view
}
