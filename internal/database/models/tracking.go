package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/meditationmind/bloombot/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// TrackingModel handles member tracking preferences.
type TrackingModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewTracking creates a new TrackingModel.
func NewTracking(db *bun.DB, logger *zap.Logger) *TrackingModel {
	return &TrackingModel{
		db:     db,
		logger: logger.Named("db_tracking"),
	}
}

// GetUTCOffset returns the member's tracking offset in minutes, or 0 when no profile exists.
func (r *TrackingModel) GetUTCOffset(ctx context.Context, idb bun.IDB, guildID, userID uint64) (int, error) {
	var profile types.TrackingProfile

	err := idb.NewSelect().
		Model(&profile).
		Column("utc_offset").
		Where("guild_id = ?", guildID).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}

		return 0, fmt.Errorf("failed to get tracking profile: %w", err)
	}

	return profile.UTCOffset, nil
}

// GetProfile returns the member's tracking profile, or the defaults when none exists.
func (r *TrackingModel) GetProfile(ctx context.Context, guildID, userID uint64) (*types.TrackingProfile, error) {
	profile := &types.TrackingProfile{GuildID: guildID, UserID: userID}

	err := r.db.NewSelect().
		Model(profile).
		WherePK().
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &types.TrackingProfile{GuildID: guildID, UserID: userID, StreaksActive: true}, nil
		}

		return nil, fmt.Errorf("failed to get tracking profile: %w", err)
	}

	return profile, nil
}

// SaveProfile creates or replaces a member's tracking profile.
func (r *TrackingModel) SaveProfile(ctx context.Context, profile *types.TrackingProfile) error {
	_, err := r.db.NewInsert().
		Model(profile).
		On("CONFLICT (guild_id, user_id) DO UPDATE").
		Set("utc_offset = EXCLUDED.utc_offset").
		Set("anonymous_tracking = EXCLUDED.anonymous_tracking").
		Set("streaks_active = EXCLUDED.streaks_active").
		Set("streaks_private = EXCLUDED.streaks_private").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save tracking profile: %w", err)
	}

	return nil
}
