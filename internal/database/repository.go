package database

import (
	"github.com/meditationmind/bloombot/internal/database/models"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	meditation *models.MeditationModel
	tracking   *models.TrackingModel
	streak     *models.StreakModel
	view       *models.MaterializedViewModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		meditation: models.NewMeditation(db, logger),
		tracking:   models.NewTracking(db, logger),
		streak:     models.NewStreak(db, logger),
		view:       models.NewMaterializedView(db, logger),
	}
}

// Meditation returns the meditation model repository.
func (r *Repository) Meditation() *models.MeditationModel {
	return r.meditation
}

// Tracking returns the tracking model repository.
func (r *Repository) Tracking() *models.TrackingModel {
	return r.tracking
}

// Streak returns the streak model repository.
func (r *Repository) Streak() *models.StreakModel {
	return r.streak
}

// View returns the materialized view model repository.
func (r *Repository) View() *models.MaterializedViewModel {
	return r.view
}
