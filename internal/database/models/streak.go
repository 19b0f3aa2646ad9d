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

// StreakModel handles the cached streak records.
type StreakModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewStreak creates a new StreakModel.
func NewStreak(db *bun.DB, logger *zap.Logger) *StreakModel {
	return &StreakModel{
		db:     db,
		logger: logger.Named("db_streak"),
	}
}

// Get returns the cached streak of a member, or nil if none has been computed.
func (r *StreakModel) Get(ctx context.Context, idb bun.IDB, guildID, userID uint64) (*types.Streak, error) {
	var streak types.Streak

	err := idb.NewSelect().
		Model(&streak).
		Where("guild_id = ?", guildID).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to get streak: %w", err)
	}

	return &streak, nil
}

// Upsert stores the streak, replacing any previous record. Last writer wins.
func (r *StreakModel) Upsert(ctx context.Context, idb bun.IDB, streak *types.Streak) error {
	streak.UpdatedAt = time.Now()

	_, err := idb.NewInsert().
		Model(streak).
		On("CONFLICT (guild_id, user_id) DO UPDATE").
		Set("current = EXCLUDED.current").
		Set("longest = EXCLUDED.longest").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert streak: %w", err)
	}

	return nil
}

// Delete removes a member's cached streak. Returns false if there was nothing to remove.
func (r *StreakModel) Delete(ctx context.Context, guildID, userID uint64) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		result, err := r.db.NewDelete().
			Model((*types.Streak)(nil)).
			Where("guild_id = ?", guildID).
			Where("user_id = ?", userID).
			Exec(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to delete streak: %w", err)
		}

		affected, _ := result.RowsAffected()

		return affected > 0, nil
	})
}

// DeleteByGuild removes every cached streak in a guild, or in all guilds when guildID is zero.
func (r *StreakModel) DeleteByGuild(ctx context.Context, guildID uint64) (int64, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (int64, error) {
		query := r.db.NewDelete().Model((*types.Streak)(nil))
		if guildID != 0 {
			query = query.Where("guild_id = ?", guildID)
		} else {
			query = query.Where("TRUE")
		}

		result, err := query.Exec(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to delete streaks: %w", err)
		}

		affected, _ := result.RowsAffected()

		r.logger.Info("Deleted cached streaks",
			zap.Uint64("guildID", guildID),
			zap.Int64("count", affected))

		return affected, nil
	})
}
